package models

import (
	"time"

	"gorm.io/gorm"
)

// Course is a catalog entry, optionally gated by a subscription tier.
// A nil SubscriptionTierID means the course is free for any authenticated user.
type Course struct {
	ID                 uint           `gorm:"primaryKey" json:"id"`
	Title              string         `gorm:"type:varchar(255);not null" json:"title" validate:"required,min=3,max=255"`
	Description        string         `gorm:"type:text" json:"description"`
	ThumbnailKey       string         `gorm:"type:varchar(255);default:''" json:"thumbnail_key"`
	SubscriptionTierID *uint          `gorm:"index;default:null" json:"subscription_tier_id"`
	Published          bool           `gorm:"type:tinyint(1);default:0;index" json:"published"`
	CreatedAt          time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`

	Tier   *SubscriptionTier `gorm:"foreignKey:SubscriptionTierID" json:"tier,omitempty"`
	Videos []Video           `gorm:"foreignKey:CourseID" json:"videos,omitempty"`
	Notes  []Note            `gorm:"foreignKey:CourseID" json:"notes,omitempty"`
}

// IsFree reports whether the course is not tied to any tier.
func (c *Course) IsFree() bool {
	return c.SubscriptionTierID == nil || *c.SubscriptionTierID == 0
}
