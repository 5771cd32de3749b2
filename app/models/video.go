package models

import (
	"time"

	"gorm.io/gorm"
)

// Per-item access flags for videos and notes.
const (
	AccessFree    = "free"
	AccessPremium = "premium"
)

type Video struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	CourseID        uint           `gorm:"index;not null" json:"course_id"`
	Title           string         `gorm:"type:varchar(255);not null" json:"title" validate:"required,min=3,max=255"`
	Description     string         `gorm:"type:text" json:"description"`
	ObjectKey       string         `gorm:"type:varchar(255);not null" json:"-"`
	DurationSeconds int            `gorm:"type:int;default:0" json:"duration_seconds"`
	Position        int            `gorm:"type:int;default:0;index" json:"position"`
	Access          string         `gorm:"type:varchar(20);not null;default:'premium'" json:"access"`
	CreatedAt       time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`

	Course Course `gorm:"foreignKey:CourseID" json:"-"`
}

// BeforeCreate rejects access values outside the known set.
func (v *Video) BeforeCreate(tx *gorm.DB) error {
	if v.Access != AccessFree && v.Access != AccessPremium {
		return gorm.ErrInvalidValue
	}
	return nil
}

// IsFree reports whether the video is watchable without an entitlement.
func (v *Video) IsFree() bool {
	return v.Access == AccessFree
}
