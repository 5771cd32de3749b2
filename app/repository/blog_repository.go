package repository

import (
	"github.com/AJ-Collins/elite-trading-sub000/app/models"
	"gorm.io/gorm"
)

// blogRepository implements the BlogRepository interface
type blogRepository struct {
	db *gorm.DB
}

// NewBlogRepository creates a new blog repository instance
func NewBlogRepository(db *gorm.DB) BlogRepository {
	return &blogRepository{db: db}
}

func (r *blogRepository) Create(blog *models.Blog) error {
	return r.db.Create(blog).Error
}

func (r *blogRepository) GetByID(id uint) (*models.Blog, error) {
	var blog models.Blog
	if err := r.db.Preload("User").First(&blog, id).Error; err != nil {
		return nil, err
	}
	return &blog, nil
}

func (r *blogRepository) GetBySlug(slug string) (*models.Blog, error) {
	var blog models.Blog
	if err := r.db.Preload("User").Where("slug = ?", slug).First(&blog).Error; err != nil {
		return nil, err
	}
	return &blog, nil
}

func (r *blogRepository) ListPublished(offset, limit int) ([]models.Blog, error) {
	var blogs []models.Blog
	err := r.db.Preload("User").
		Where("published = ?", true).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&blogs).Error
	return blogs, err
}

func (r *blogRepository) ListAll(offset, limit int) ([]models.Blog, error) {
	var blogs []models.Blog
	err := r.db.Preload("User").
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&blogs).Error
	return blogs, err
}

func (r *blogRepository) Update(blog *models.Blog) error {
	return r.db.Save(blog).Error
}

func (r *blogRepository) Delete(id uint) error {
	return r.db.Delete(&models.Blog{}, id).Error
}
