package payments

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/AJ-Collins/elite-trading-sub000/app/models"
	"github.com/AJ-Collins/elite-trading-sub000/internal/pkg/entitlements"
	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrUnknownProvider = errors.New("unknown payment provider")
	ErrTierUnavailable = errors.New("subscription tier is not available")
)

// StatusQuerier asks a provider for the outcome of a still-pending payment.
// Satisfied by MpesaClient.
type StatusQuerier interface {
	QueryStatus(ctx context.Context, providerRef string) (*QueryResult, error)
}

// Service is the one payment pipeline: initiate with provider P, persist the
// transaction, and reconcile the eventual confirmation into an entitlement
// grant. Both providers run through the same settle path.
type Service struct {
	repo      Repository
	ent       *entitlements.Service
	providers map[string]Provider
	querier   StatusQuerier

	// Mailer sends the payment receipt, best effort. Nil disables mail.
	Mailer func(to, subject, body string) error

	// OnSettled runs after a successful grant, e.g. to drop cached gate
	// decisions. Nil disables it.
	OnSettled func(userID, tierID uint)
}

// NewService creates a payment service from injected collaborators.
func NewService(repo Repository, ent *entitlements.Service, providers ...Provider) *Service {
	m := make(map[string]Provider, len(providers))
	for _, p := range providers {
		m[p.Name()] = p
	}
	return &Service{repo: repo, ent: ent, providers: m}
}

// NewServiceFromDB wires the service with GORM repositories and the
// env-configured provider clients.
func NewServiceFromDB(db *gorm.DB) *Service {
	mpesa := NewMpesaClientFromEnv()
	svc := NewService(NewRepository(db), entitlements.NewServiceFromDB(db), mpesa, NewBinanceClientFromEnv())
	svc.querier = mpesa
	return svc
}

// SetStatusQuerier overrides the provider used for pending-payment polling.
func (s *Service) SetStatusQuerier(q StatusQuerier) {
	s.querier = q
}

// Initiate validates the request, persists a pending transaction and opens
// the payment with the named provider. A provider failure marks the
// transaction failed rather than leaving it pending forever.
func (s *Service) Initiate(ctx context.Context, provider string, userID, tierID uint, phone string) (*models.Payment, *InitiateResult, error) {
	prov, ok := s.providers[provider]
	if !ok {
		return nil, nil, ErrUnknownProvider
	}

	user, err := s.repo.GetUser(userID)
	if err != nil {
		return nil, nil, err
	}
	tier, err := s.repo.GetTier(tierID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrTierUnavailable
		}
		return nil, nil, err
	}
	if !tier.IsActive {
		return nil, nil, ErrTierUnavailable
	}

	payment := &models.Payment{
		TransactionID: uuid.NewString(),
		UserID:        user.ID,
		TierID:        tier.ID,
		Amount:        tier.Price,
		Currency:      tier.Currency,
		Provider:      provider,
		Status:        models.PaymentStatusPending,
	}
	if provider == models.PaymentProviderMpesa {
		normalized, err := NormalizeKenyanPhone(phone)
		if err != nil {
			return nil, nil, err
		}
		payment.PhoneNumber = normalized
	}

	if err := s.repo.CreatePayment(payment); err != nil {
		return nil, nil, err
	}

	result, err := prov.Initiate(ctx, InitiateRequest{Payment: payment, Tier: tier, User: user})
	if err != nil {
		if markErr := s.repo.MarkFailed(payment, err.Error()); markErr != nil {
			log.Errorf("[Payments] failed to mark %s failed: %v", payment.TransactionID, markErr)
		}
		return payment, nil, err
	}

	switch provider {
	case models.PaymentProviderMpesa:
		payment.CheckoutRequestID = result.ProviderRef
	case models.PaymentProviderBinance:
		payment.BinanceOrderID = result.ProviderRef
	}
	payment.Metadata = result.RawResponse
	if err := s.repo.SaveProviderRef(payment); err != nil {
		return payment, result, err
	}
	return payment, result, nil
}

// Status resolves a transaction by its public key.
func (s *Service) Status(ctx context.Context, transactionID string) (*models.Payment, error) {
	_ = ctx
	return s.repo.GetByTransactionID(transactionID)
}

// RecordWebhookEvent persists callback payloads idempotently. The second
// delivery of the same event reports created=false.
func (s *Service) RecordWebhookEvent(ctx context.Context, provider, eventID, eventType string, payload []byte, signatureValid bool) (bool, *models.PaymentWebhookEvent, error) {
	_ = ctx
	if eventID == "" {
		eventID = deriveEventID(payload)
	}
	event := &models.PaymentWebhookEvent{
		Provider:        provider,
		ProviderEventID: eventID,
		EventType:       eventType,
		PayloadJSON:     string(payload),
		SignatureValid:  signatureValid,
	}
	return s.repo.CreateWebhookEventIfNotExists(event)
}

// MarkWebhookProcessed marks an event as processed and stores an optional error.
func (s *Service) MarkWebhookProcessed(ctx context.Context, webhookEventID uint, processingErr error) error {
	_ = ctx
	if webhookEventID == 0 {
		return errors.New("webhook_event_id is required")
	}
	errMsg := ""
	if processingErr != nil {
		errMsg = processingErr.Error()
	}
	return s.repo.MarkWebhookProcessed(webhookEventID, errMsg)
}

// SettleMpesa reconciles an STK callback into the transaction and, on
// success, the entitlement ledger. Replays of an already-settled
// transaction are no-ops.
func (s *Service) SettleMpesa(ctx context.Context, cb *MpesaCallback) (*models.Payment, error) {
	payment, err := s.repo.GetByCheckoutRequestID(cb.CheckoutRequestID)
	if err != nil {
		return nil, err
	}
	if !payment.IsPending() {
		return payment, nil
	}

	if !cb.Success() {
		reason := fmt.Sprintf("result code %d: %s", cb.ResultCode, cb.ResultDesc)
		if err := s.repo.MarkFailed(payment, reason); err != nil {
			return nil, err
		}
		return payment, nil
	}
	if err := s.complete(ctx, payment, cb.ReceiptNumber); err != nil {
		return nil, err
	}
	return payment, nil
}

// SettleBinance reconciles an order notification the same way.
func (s *Service) SettleBinance(ctx context.Context, wh *BinanceWebhook) (*models.Payment, error) {
	payment, err := s.repo.GetByBinanceOrder(wh.MerchantTradeNo, wh.PrepayID)
	if err != nil {
		return nil, err
	}
	if !payment.IsPending() {
		return payment, nil
	}

	if !wh.Paid() {
		if err := s.repo.MarkFailed(payment, "order closed with status "+wh.BizStatus); err != nil {
			return nil, err
		}
		return payment, nil
	}
	if err := s.complete(ctx, payment, wh.BizID); err != nil {
		return nil, err
	}
	return payment, nil
}

// ReconcilePending sweeps M-Pesa transactions that never saw a callback and
// asks the provider how they ended. Transactions still unsettled upstream
// are left for the next sweep.
func (s *Service) ReconcilePending(ctx context.Context, olderThan time.Duration, limit int) (int, error) {
	if s.querier == nil {
		return 0, errors.New("no status querier configured")
	}

	cutoff := time.Now().Add(-olderThan)
	pending, err := s.repo.ListPendingOlderThan(models.PaymentProviderMpesa, cutoff, limit)
	if err != nil {
		return 0, err
	}

	settled := 0
	for i := range pending {
		payment := &pending[i]
		if payment.CheckoutRequestID == "" {
			// Initiation never reached the provider; nothing to query.
			if err := s.repo.MarkFailed(payment, "no checkout request id recorded"); err != nil {
				return settled, err
			}
			settled++
			continue
		}

		result, err := s.querier.QueryStatus(ctx, payment.CheckoutRequestID)
		if err != nil {
			log.Warnf("[Payments] status query for %s failed: %v", payment.TransactionID, err)
			continue
		}
		if !result.Settled {
			continue
		}

		if result.Success {
			if err := s.complete(ctx, payment, ""); err != nil {
				return settled, err
			}
		} else {
			reason := fmt.Sprintf("result code %d: %s", result.ResultCode, result.ResultDesc)
			if err := s.repo.MarkFailed(payment, reason); err != nil {
				return settled, err
			}
		}
		settled++
	}
	return settled, nil
}

// complete applies the entitlement grant and marks the transaction
// completed, then sends the receipt best effort.
func (s *Service) complete(ctx context.Context, payment *models.Payment, receipt string) error {
	tier, err := s.repo.GetTier(payment.TierID)
	if err != nil {
		return err
	}

	// The grant runs before the status flip. A transaction may only read
	// completed once the entitlement exists; a failed grant leaves it
	// pending so the callback replay or the reconcile sweep retries it.
	if _, err := s.ent.Grant(ctx, payment.UserID, payment.TierID, tier.Duration()); err != nil {
		return err
	}
	if err := s.repo.MarkCompleted(payment, receipt, time.Now()); err != nil {
		return err
	}
	if s.OnSettled != nil {
		s.OnSettled(payment.UserID, payment.TierID)
	}

	if s.Mailer != nil {
		if user, err := s.repo.GetUser(payment.UserID); err == nil {
			subject := fmt.Sprintf("Payment received for %s", tier.Type)
			body := fmt.Sprintf("We received %.2f %s for your %s subscription. Transaction: %s",
				payment.Amount, payment.Currency, tier.Type, payment.TransactionID)
			if err := s.Mailer(user.Email, subject, body); err != nil {
				log.Warnf("[Payments] receipt mail for %s failed: %v", payment.TransactionID, err)
			}
		}
	}
	return nil
}

func deriveEventID(payload []byte) string {
	sum := sha256.Sum256(payload)
	return "hash:" + hex.EncodeToString(sum[:])
}
