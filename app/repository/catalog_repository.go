package repository

import (
	"time"

	"github.com/AJ-Collins/elite-trading-sub000/app/models"
	"gorm.io/gorm"
)

// videoRepository implements the VideoRepository interface
type videoRepository struct {
	db *gorm.DB
}

// NewVideoRepository creates a new video repository instance
func NewVideoRepository(db *gorm.DB) VideoRepository {
	return &videoRepository{db: db}
}

func (r *videoRepository) Create(video *models.Video) error {
	return r.db.Create(video).Error
}

func (r *videoRepository) GetByID(id uint) (*models.Video, error) {
	var video models.Video
	if err := r.db.First(&video, id).Error; err != nil {
		return nil, err
	}
	return &video, nil
}

func (r *videoRepository) ListByCourse(courseID uint) ([]models.Video, error) {
	var videos []models.Video
	err := r.db.Where("course_id = ?", courseID).
		Order("position ASC, id ASC").
		Find(&videos).Error
	return videos, err
}

func (r *videoRepository) Update(video *models.Video) error {
	return r.db.Save(video).Error
}

func (r *videoRepository) Delete(id uint) error {
	return r.db.Delete(&models.Video{}, id).Error
}

// noteRepository implements the NoteRepository interface
type noteRepository struct {
	db *gorm.DB
}

// NewNoteRepository creates a new note repository instance
func NewNoteRepository(db *gorm.DB) NoteRepository {
	return &noteRepository{db: db}
}

func (r *noteRepository) Create(note *models.Note) error {
	return r.db.Create(note).Error
}

func (r *noteRepository) GetByID(id uint) (*models.Note, error) {
	var note models.Note
	if err := r.db.First(&note, id).Error; err != nil {
		return nil, err
	}
	return &note, nil
}

func (r *noteRepository) ListByCourse(courseID uint) ([]models.Note, error) {
	var notes []models.Note
	err := r.db.Where("course_id = ?", courseID).Order("id ASC").Find(&notes).Error
	return notes, err
}

func (r *noteRepository) Update(note *models.Note) error {
	return r.db.Save(note).Error
}

func (r *noteRepository) Delete(id uint) error {
	return r.db.Delete(&models.Note{}, id).Error
}

// liveSessionRepository implements the LiveSessionRepository interface
type liveSessionRepository struct {
	db *gorm.DB
}

// NewLiveSessionRepository creates a new live session repository instance
func NewLiveSessionRepository(db *gorm.DB) LiveSessionRepository {
	return &liveSessionRepository{db: db}
}

func (r *liveSessionRepository) Create(session *models.LiveSession) error {
	return r.db.Create(session).Error
}

func (r *liveSessionRepository) GetByID(id uint) (*models.LiveSession, error) {
	var session models.LiveSession
	if err := r.db.Preload("Tier").First(&session, id).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *liveSessionRepository) ListUpcoming(after time.Time, limit int) ([]models.LiveSession, error) {
	var sessions []models.LiveSession
	err := r.db.Preload("Tier").
		Where("starts_at > ?", after).
		Order("starts_at ASC").
		Limit(limit).
		Find(&sessions).Error
	return sessions, err
}

func (r *liveSessionRepository) Update(session *models.LiveSession) error {
	return r.db.Save(session).Error
}

func (r *liveSessionRepository) Delete(id uint) error {
	return r.db.Delete(&models.LiveSession{}, id).Error
}
