package payments

import (
	"time"

	"github.com/AJ-Collins/elite-trading-sub000/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository provides DB operations used by the payment service.
type Repository interface {
	CreatePayment(p *models.Payment) error
	GetByTransactionID(transactionID string) (*models.Payment, error)
	GetByCheckoutRequestID(checkoutRequestID string) (*models.Payment, error)
	GetByBinanceOrder(merchantTradeNo, prepayID string) (*models.Payment, error)
	SaveProviderRef(p *models.Payment) error
	MarkCompleted(p *models.Payment, receipt string, at time.Time) error
	MarkFailed(p *models.Payment, reason string) error
	ListPendingOlderThan(provider string, cutoff time.Time, limit int) ([]models.Payment, error)
	GetTier(tierID uint) (*models.SubscriptionTier, error)
	GetUser(userID uint) (*models.User, error)
	CreateWebhookEventIfNotExists(event *models.PaymentWebhookEvent) (bool, *models.PaymentWebhookEvent, error)
	MarkWebhookProcessed(id uint, processingError string) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a payment repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) CreatePayment(p *models.Payment) error {
	return r.db.Create(p).Error
}

func (r *gormRepository) GetByTransactionID(transactionID string) (*models.Payment, error) {
	var p models.Payment
	err := r.db.Where("transaction_id = ?", transactionID).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *gormRepository) GetByCheckoutRequestID(checkoutRequestID string) (*models.Payment, error) {
	var p models.Payment
	err := r.db.Where("checkout_request_id = ?", checkoutRequestID).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *gormRepository) GetByBinanceOrder(merchantTradeNo, prepayID string) (*models.Payment, error) {
	var p models.Payment
	q := r.db
	switch {
	case merchantTradeNo != "" && prepayID != "":
		q = q.Where("transaction_id = ? OR binance_order_id = ?", restoreTradeNo(merchantTradeNo), prepayID)
	case merchantTradeNo != "":
		q = q.Where("transaction_id = ?", restoreTradeNo(merchantTradeNo))
	default:
		q = q.Where("binance_order_id = ?", prepayID)
	}
	if err := q.First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// restoreTradeNo undoes the dash-stripping the order creation applies to
// transaction ids (Binance trade numbers must be alphanumeric).
func restoreTradeNo(tradeNo string) string {
	if len(tradeNo) != 32 {
		return tradeNo
	}
	return tradeNo[0:8] + "-" + tradeNo[8:12] + "-" + tradeNo[12:16] + "-" + tradeNo[16:20] + "-" + tradeNo[20:32]
}

func (r *gormRepository) SaveProviderRef(p *models.Payment) error {
	return r.db.Model(p).Updates(map[string]interface{}{
		"checkout_request_id": p.CheckoutRequestID,
		"binance_order_id":    p.BinanceOrderID,
		"metadata":            p.Metadata,
	}).Error
}

func (r *gormRepository) MarkCompleted(p *models.Payment, receipt string, at time.Time) error {
	p.Status = models.PaymentStatusCompleted
	p.ProviderReceipt = receipt
	p.CompletedAt = &at
	return r.db.Model(p).Updates(map[string]interface{}{
		"status":           models.PaymentStatusCompleted,
		"provider_receipt": receipt,
		"completed_at":     &at,
	}).Error
}

func (r *gormRepository) MarkFailed(p *models.Payment, reason string) error {
	p.Status = models.PaymentStatusFailed
	p.FailureReason = reason
	return r.db.Model(p).Updates(map[string]interface{}{
		"status":         models.PaymentStatusFailed,
		"failure_reason": reason,
	}).Error
}

func (r *gormRepository) ListPendingOlderThan(provider string, cutoff time.Time, limit int) ([]models.Payment, error) {
	var out []models.Payment
	err := r.db.Where("provider = ? AND status = ? AND created_at < ?", provider, models.PaymentStatusPending, cutoff).
		Order("created_at ASC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

func (r *gormRepository) GetTier(tierID uint) (*models.SubscriptionTier, error) {
	var tier models.SubscriptionTier
	if err := r.db.First(&tier, tierID).Error; err != nil {
		return nil, err
	}
	return &tier, nil
}

func (r *gormRepository) GetUser(userID uint) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, userID).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *gormRepository) CreateWebhookEventIfNotExists(event *models.PaymentWebhookEvent) (bool, *models.PaymentWebhookEvent, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "provider"},
			{Name: "provider_event_id"},
		},
		DoNothing: true,
	}).Create(event)
	if tx.Error != nil {
		return false, nil, tx.Error
	}

	created := tx.RowsAffected > 0
	var stored models.PaymentWebhookEvent
	if err := r.db.Where("provider = ? AND provider_event_id = ?", event.Provider, event.ProviderEventID).
		First(&stored).Error; err != nil {
		return false, nil, err
	}
	return created, &stored, nil
}

func (r *gormRepository) MarkWebhookProcessed(id uint, processingError string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"processed_at":     &now,
		"processing_error": processingError,
	}
	return r.db.Model(&models.PaymentWebhookEvent{}).Where("id = ?", id).Updates(updates).Error
}
