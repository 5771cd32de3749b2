package controllers

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/AJ-Collins/elite-trading-sub000/app/models"
	"github.com/AJ-Collins/elite-trading-sub000/internal/pkg/database"
	"github.com/AJ-Collins/elite-trading-sub000/internal/pkg/env"
	"github.com/AJ-Collins/elite-trading-sub000/internal/pkg/jobqueue"
	"github.com/AJ-Collins/elite-trading-sub000/internal/pkg/middleware"
	"github.com/AJ-Collins/elite-trading-sub000/internal/pkg/payments"
	"github.com/AJ-Collins/elite-trading-sub000/internal/pkg/usercontext"
)

var (
	paymentSvc     *payments.Service
	paymentSvcOnce sync.Once
)

// paymentService returns the shared payment pipeline. Receipts go through
// the job queue so a slow SMTP server never stalls a webhook response; the
// OnSettled hook drops cached gate decisions after a grant.
func paymentService() *payments.Service {
	paymentSvcOnce.Do(func() {
		paymentSvc = payments.NewServiceFromDB(database.GetDB())
		paymentSvc.Mailer = jobqueue.EnqueueReceiptEmail
		paymentSvc.OnSettled = middleware.InvalidateEntitlementCache
	})
	return paymentSvc
}

type initiatePaymentRequest struct {
	Provider string `json:"provider"`
	TierID   uint   `json:"tier_id"`
	Phone    string `json:"phone"`
}

// HandleInitiatePayment opens a payment with the named provider. The
// transaction is persisted pending before the provider is called; a provider
// failure marks it failed and surfaces as a 502, never as a stuck pending row.
func HandleInitiatePayment(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	var req initiatePaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Invalid request body")
	}
	if req.TierID == 0 {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "tier_id is required")
	}

	ctx, cancel := context.WithTimeout(c.Context(), 30*time.Second)
	defer cancel()

	payment, result, err := paymentService().Initiate(ctx, req.Provider, userCtx.UserID, req.TierID, req.Phone)
	if err != nil {
		switch {
		case errors.Is(err, payments.ErrUnknownProvider):
			return jsonError(c, fiber.StatusBadRequest, "bad_request", "Unknown payment provider")
		case errors.Is(err, payments.ErrTierUnavailable):
			return jsonError(c, fiber.StatusUnprocessableEntity, "tier_unavailable", "This plan is not available")
		case errors.Is(err, payments.ErrInvalidPhone):
			return jsonError(c, fiber.StatusUnprocessableEntity, "invalid_phone", "Phone number must be a Kenyan number (07…, 7…, or 254…)")
		case errors.Is(err, payments.ErrUpstream):
			log.Errorf("[Payments] provider call failed: %v", err)
			return jsonError(c, fiber.StatusBadGateway, "provider_error", "The payment provider rejected the request")
		default:
			log.Errorf("[Payments] initiate failed: %v", err)
			return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to initiate payment")
		}
	}

	resp := fiber.Map{
		"transaction_id": payment.TransactionID,
		"provider":       payment.Provider,
		"status":         payment.Status,
		"amount":         payment.Amount,
		"currency":       payment.Currency,
	}
	if result.CheckoutURL != "" {
		resp["checkout_url"] = result.CheckoutURL
	}
	if result.CustomerMessage != "" {
		resp["customer_message"] = result.CustomerMessage
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// HandlePaymentStatus resolves one transaction by its public id. The caller
// must own the transaction unless they are an admin.
func HandlePaymentStatus(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	transactionID := c.Params("transactionId")
	if transactionID == "" {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Transaction id is required")
	}

	payment, err := paymentService().Status(c.Context(), transactionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusNotFound, "not_found", "Transaction not found")
		}
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load transaction")
	}
	if payment.UserID != userCtx.UserID && !userCtx.IsAdmin {
		return jsonError(c, fiber.StatusNotFound, "not_found", "Transaction not found")
	}

	return c.JSON(fiber.Map{
		"transaction_id":   payment.TransactionID,
		"provider":         payment.Provider,
		"status":           payment.Status,
		"amount":           payment.Amount,
		"currency":         payment.Currency,
		"provider_receipt": payment.ProviderReceipt,
		"failure_reason":   payment.FailureReason,
		"completed_at":     payment.CompletedAt,
		"created_at":       payment.CreatedAt,
	})
}

// HandleMpesaCallback ingests the Daraja STK result. Every delivery is
// persisted first; replays of the same CheckoutRequestID dedupe through the
// webhook event table and the already-settled check, so the entitlement is
// granted exactly once no matter how often Safaricom retries.
func HandleMpesaCallback(c *fiber.Ctx) error {
	rawBody := append([]byte(nil), c.BodyRaw()...)

	svc := paymentService()
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	cb, parseErr := payments.ParseMpesaCallback(rawBody)

	eventID := ""
	if parseErr == nil {
		eventID = cb.CheckoutRequestID
	}
	created, stored, err := svc.RecordWebhookEvent(ctx, models.PaymentProviderMpesa, eventID, "stk_callback", rawBody, true)
	if err != nil {
		log.Errorf("[Payments] mpesa callback persist failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"ResultCode": 1, "ResultDesc": "Rejected"})
	}
	if !created {
		return c.JSON(fiber.Map{"ResultCode": 0, "ResultDesc": "Accepted"})
	}
	if parseErr != nil {
		_ = svc.MarkWebhookProcessed(ctx, stored.ID, parseErr)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"ResultCode": 1, "ResultDesc": "Rejected"})
	}

	_, settleErr := svc.SettleMpesa(ctx, cb)
	if settleErr != nil && errors.Is(settleErr, gorm.ErrRecordNotFound) {
		// No transaction for this CheckoutRequestID; store and acknowledge so
		// Daraja stops retrying.
		_ = svc.MarkWebhookProcessed(ctx, stored.ID, errors.New("no matching transaction"))
		return c.JSON(fiber.Map{"ResultCode": 0, "ResultDesc": "Accepted"})
	}
	_ = svc.MarkWebhookProcessed(ctx, stored.ID, settleErr)
	if settleErr != nil {
		log.Errorf("[Payments] mpesa settle failed: %v", settleErr)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"ResultCode": 1, "ResultDesc": "Rejected"})
	}

	return c.JSON(fiber.Map{"ResultCode": 0, "ResultDesc": "Accepted"})
}

// HandleBinanceWebhook ingests Binance Pay order notifications. The HMAC
// signature is verified against the timestamp/nonce headers before any
// settling happens; invalid signatures are stored for audit and rejected.
func HandleBinanceWebhook(c *fiber.Ctx) error {
	rawBody := append([]byte(nil), c.BodyRaw()...)
	timestamp := c.Get("BinancePay-Timestamp")
	nonce := c.Get("BinancePay-Nonce")
	signature := c.Get("BinancePay-Signature")
	secret := env.GetEnv("BINANCE_API_SECRET", "")

	svc := paymentService()
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	signatureValid := payments.VerifyBinanceWebhookSignature(rawBody, timestamp, nonce, signature, secret)

	wh, parseErr := payments.ParseBinanceWebhook(rawBody)
	eventID := ""
	if parseErr == nil {
		eventID = wh.BizID
	}

	created, stored, err := svc.RecordWebhookEvent(ctx, models.PaymentProviderBinance, eventID, "order_notification", rawBody, signatureValid)
	if err != nil {
		log.Errorf("[Payments] binance webhook persist failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"returnCode": "FAIL"})
	}
	if !created {
		return c.JSON(fiber.Map{"returnCode": "SUCCESS", "returnMessage": "duplicate"})
	}
	if !signatureValid {
		_ = svc.MarkWebhookProcessed(ctx, stored.ID, errors.New("invalid webhook signature"))
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"returnCode": "FAIL", "returnMessage": "invalid signature"})
	}
	if parseErr != nil {
		_ = svc.MarkWebhookProcessed(ctx, stored.ID, parseErr)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"returnCode": "FAIL", "returnMessage": "invalid payload"})
	}

	_, settleErr := svc.SettleBinance(ctx, wh)
	if settleErr != nil && errors.Is(settleErr, gorm.ErrRecordNotFound) {
		_ = svc.MarkWebhookProcessed(ctx, stored.ID, errors.New("no matching transaction"))
		return c.JSON(fiber.Map{"returnCode": "SUCCESS", "returnMessage": "ignored"})
	}
	_ = svc.MarkWebhookProcessed(ctx, stored.ID, settleErr)
	if settleErr != nil {
		log.Errorf("[Payments] binance settle failed: %v", settleErr)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"returnCode": "FAIL"})
	}

	return c.JSON(fiber.Map{"returnCode": "SUCCESS"})
}
