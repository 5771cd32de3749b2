package models

import (
	"time"

	"gorm.io/gorm"
)

// LiveSession is an admin-scheduled mentorship call. Tier gating works the
// same way as for courses: nil tier means open to all authenticated users.
type LiveSession struct {
	ID                 uint           `gorm:"primaryKey" json:"id"`
	Title              string         `gorm:"type:varchar(255);not null" json:"title" validate:"required,min=3,max=255"`
	Description        string         `gorm:"type:text" json:"description"`
	MeetingURL         string         `gorm:"type:varchar(500);not null" json:"meeting_url" validate:"required,url"`
	StartsAt           time.Time      `gorm:"type:timestamp;not null;index" json:"starts_at"`
	DurationMinutes    int            `gorm:"type:int;default:60" json:"duration_minutes"`
	SubscriptionTierID *uint          `gorm:"index;default:null" json:"subscription_tier_id"`
	CreatedAt          time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`

	Tier *SubscriptionTier `gorm:"foreignKey:SubscriptionTierID" json:"tier,omitempty"`
}
