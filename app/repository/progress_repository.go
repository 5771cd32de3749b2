package repository

import (
	"time"

	"github.com/AJ-Collins/elite-trading-sub000/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// progressRepository implements the ProgressRepository interface
type progressRepository struct {
	db *gorm.DB
}

// NewProgressRepository creates a new progress repository instance
func NewProgressRepository(db *gorm.DB) ProgressRepository {
	return &progressRepository{db: db}
}

// UpsertProgress writes the watched position for (user, video), overwriting
// any earlier row through the unique index.
func (r *progressRepository) UpsertProgress(progress *models.VideoProgress) error {
	progress.LastWatchedAt = time.Now()
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "user_id"},
			{Name: "video_id"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"watched_seconds",
			"completed",
			"last_watched_at",
			"updated_at",
		}),
	}).Create(progress).Error
}

func (r *progressRepository) GetProgress(userID, videoID uint) (*models.VideoProgress, error) {
	var progress models.VideoProgress
	err := r.db.Where("user_id = ? AND video_id = ?", userID, videoID).First(&progress).Error
	if err != nil {
		return nil, err
	}
	return &progress, nil
}

func (r *progressRepository) ListByUser(userID uint) ([]models.VideoProgress, error) {
	var rows []models.VideoProgress
	err := r.db.Where("user_id = ?", userID).
		Order("last_watched_at DESC").
		Find(&rows).Error
	return rows, err
}

func (r *progressRepository) ArchiveCourse(userID, courseID uint) error {
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "user_id"},
			{Name: "course_id"},
		},
		DoNothing: true,
	}).Create(&models.CourseArchive{UserID: userID, CourseID: courseID}).Error
}

func (r *progressRepository) UnarchiveCourse(userID, courseID uint) error {
	return r.db.Where("user_id = ? AND course_id = ?", userID, courseID).
		Delete(&models.CourseArchive{}).Error
}

func (r *progressRepository) ListArchivedCourseIDs(userID uint) ([]uint, error) {
	var ids []uint
	err := r.db.Model(&models.CourseArchive{}).
		Where("user_id = ?", userID).
		Pluck("course_id", &ids).Error
	return ids, err
}
