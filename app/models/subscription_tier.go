package models

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// SubscriptionTier is a priced access plan gating premium catalog content.
type SubscriptionTier struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Type         string    `gorm:"type:varchar(100);not null" json:"type" validate:"required,min=2,max=100"`
	Price        float64   `gorm:"type:decimal(10,2);not null" json:"price" validate:"gte=0"`
	Currency     string    `gorm:"type:varchar(10);not null;default:'KES'" json:"currency" validate:"required,min=3,max=10"`
	DurationDays int       `gorm:"not null" json:"duration_days" validate:"gt=0"`
	Benefits     string    `gorm:"type:text" json:"benefits"`
	IsActive     bool      `gorm:"default:true;index" json:"is_active"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (t *SubscriptionTier) Validate() error {
	v := validator.New()

	return v.Struct(t)
}

// Duration returns the tier's validity window as a time.Duration.
func (t *SubscriptionTier) Duration() time.Duration {
	return time.Duration(t.DurationDays) * 24 * time.Hour
}
