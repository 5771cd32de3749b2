package models

import "time"

// VideoProgress tracks how far a user got in one video. One row per
// (user, video); updates overwrite the watched position.
type VideoProgress struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	UserID         uint      `gorm:"not null;index:ux_video_progress_user_video,unique,priority:1" json:"user_id"`
	VideoID        uint      `gorm:"not null;index:ux_video_progress_user_video,unique,priority:2" json:"video_id"`
	WatchedSeconds int       `gorm:"type:int;default:0" json:"watched_seconds"`
	Completed      bool      `gorm:"default:false;index" json:"completed"`
	LastWatchedAt  time.Time `gorm:"type:timestamp" json:"last_watched_at"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	User  User  `gorm:"foreignKey:UserID" json:"-"`
	Video Video `gorm:"foreignKey:VideoID" json:"-"`
}

// CourseArchive marks a course a user tucked away from their dashboard.
type CourseArchive struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index:ux_course_archives_user_course,unique,priority:1" json:"user_id"`
	CourseID  uint      `gorm:"not null;index:ux_course_archives_user_course,unique,priority:2" json:"course_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`

	User   User   `gorm:"foreignKey:UserID" json:"-"`
	Course Course `gorm:"foreignKey:CourseID" json:"-"`
}
