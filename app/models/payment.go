package models

import "time"

// Payment provider identifiers.
const (
	PaymentProviderMpesa   = "mpesa"
	PaymentProviderBinance = "binance"
)

// Payment transaction lifecycle.
const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
)

// Payment records one payment attempt against an external provider.
// TransactionID is our own key; CheckoutRequestID / BinanceOrderID
// hold the provider-side references needed to match a confirmation.
type Payment struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	TransactionID     string     `gorm:"type:varchar(64);not null;uniqueIndex" json:"transaction_id"`
	UserID            uint       `gorm:"not null;index" json:"user_id"`
	TierID            uint       `gorm:"not null;index" json:"tier_id"`
	Amount            float64    `gorm:"type:decimal(10,2);not null" json:"amount"`
	Currency          string     `gorm:"type:varchar(10);not null;default:'KES'" json:"currency"`
	Provider          string     `gorm:"type:varchar(20);not null;index:idx_payments_provider_status,priority:1" json:"provider"`
	Status            string     `gorm:"type:varchar(20);not null;default:'pending';index:idx_payments_provider_status,priority:2" json:"status"`
	PhoneNumber       string     `gorm:"type:varchar(20);default:''" json:"phone_number,omitempty"`
	CheckoutRequestID string     `gorm:"type:varchar(191);default:'';index" json:"checkout_request_id,omitempty"`
	BinanceOrderID    string     `gorm:"type:varchar(191);default:'';index" json:"binance_order_id,omitempty"`
	ProviderReceipt   string     `gorm:"type:varchar(191);default:''" json:"provider_receipt,omitempty"`
	FailureReason     string     `gorm:"type:text" json:"failure_reason,omitempty"`
	Metadata          string     `gorm:"type:longtext" json:"-"`
	CompletedAt       *time.Time `gorm:"type:timestamp;default:null" json:"completed_at,omitempty"`
	CreatedAt         time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt         time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	User User             `gorm:"foreignKey:UserID" json:"-"`
	Tier SubscriptionTier `gorm:"foreignKey:TierID" json:"-"`
}

// IsPending reports whether the transaction still awaits a provider outcome.
func (p *Payment) IsPending() bool {
	return p.Status == PaymentStatusPending
}
