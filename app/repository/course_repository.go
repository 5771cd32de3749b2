package repository

import (
	"github.com/AJ-Collins/elite-trading-sub000/app/models"
	"gorm.io/gorm"
)

// courseRepository implements the CourseRepository interface
type courseRepository struct {
	db *gorm.DB
}

// NewCourseRepository creates a new course repository instance
func NewCourseRepository(db *gorm.DB) CourseRepository {
	return &courseRepository{db: db}
}

func (r *courseRepository) Create(course *models.Course) error {
	return r.db.Create(course).Error
}

func (r *courseRepository) GetByID(id uint) (*models.Course, error) {
	var course models.Course
	if err := r.db.Preload("Tier").First(&course, id).Error; err != nil {
		return nil, err
	}
	return &course, nil
}

// GetByIDWithContent loads a course with its videos and notes in playback order.
func (r *courseRepository) GetByIDWithContent(id uint) (*models.Course, error) {
	var course models.Course
	err := r.db.Preload("Tier").
		Preload("Videos", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC, id ASC")
		}).
		Preload("Notes").
		First(&course, id).Error
	if err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *courseRepository) ListPublished(offset, limit int) ([]models.Course, error) {
	var courses []models.Course
	err := r.db.Preload("Tier").
		Where("published = ?", true).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&courses).Error
	return courses, err
}

func (r *courseRepository) ListAll(offset, limit int) ([]models.Course, error) {
	var courses []models.Course
	err := r.db.Preload("Tier").
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&courses).Error
	return courses, err
}

func (r *courseRepository) Update(course *models.Course) error {
	return r.db.Save(course).Error
}

func (r *courseRepository) Delete(id uint) error {
	return r.db.Delete(&models.Course{}, id).Error
}

func (r *courseRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Course{}).Count(&count).Error
	return count, err
}
