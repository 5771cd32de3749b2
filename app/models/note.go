package models

import (
	"time"

	"gorm.io/gorm"
)

// Note is a downloadable course document (slides, PDFs, worksheets).
type Note struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CourseID  uint           `gorm:"index;not null" json:"course_id"`
	Title     string         `gorm:"type:varchar(255);not null" json:"title" validate:"required,min=3,max=255"`
	ObjectKey string         `gorm:"type:varchar(255);not null" json:"-"`
	FileType  string         `gorm:"type:varchar(50);default:''" json:"file_type"`
	FileSize  int64          `gorm:"type:bigint;default:0" json:"file_size"`
	Access    string         `gorm:"type:varchar(20);not null;default:'premium'" json:"access"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Course Course `gorm:"foreignKey:CourseID" json:"-"`
}

// BeforeCreate rejects access values outside the known set.
func (n *Note) BeforeCreate(tx *gorm.DB) error {
	if n.Access != AccessFree && n.Access != AccessPremium {
		return gorm.ErrInvalidValue
	}
	return nil
}
