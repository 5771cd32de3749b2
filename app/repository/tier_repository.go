package repository

import (
	"github.com/AJ-Collins/elite-trading-sub000/app/models"
	"gorm.io/gorm"
)

// tierRepository implements the TierRepository interface
type tierRepository struct {
	db *gorm.DB
}

// NewTierRepository creates a new subscription tier repository instance
func NewTierRepository(db *gorm.DB) TierRepository {
	return &tierRepository{db: db}
}

func (r *tierRepository) Create(tier *models.SubscriptionTier) error {
	return r.db.Create(tier).Error
}

func (r *tierRepository) GetByID(id uint) (*models.SubscriptionTier, error) {
	var tier models.SubscriptionTier
	if err := r.db.First(&tier, id).Error; err != nil {
		return nil, err
	}
	return &tier, nil
}

// ListActiveByPrice returns the public tier catalog, cheapest first. The
// ordering is part of the API contract, so ties break deterministically on id.
func (r *tierRepository) ListActiveByPrice() ([]models.SubscriptionTier, error) {
	var tiers []models.SubscriptionTier
	err := r.db.Where("is_active = ?", true).
		Order("price ASC, id ASC").
		Find(&tiers).Error
	return tiers, err
}

func (r *tierRepository) ListAll() ([]models.SubscriptionTier, error) {
	var tiers []models.SubscriptionTier
	err := r.db.Order("price ASC, id ASC").Find(&tiers).Error
	return tiers, err
}

func (r *tierRepository) Update(tier *models.SubscriptionTier) error {
	return r.db.Save(tier).Error
}

func (r *tierRepository) Deactivate(id uint) error {
	return r.db.Model(&models.SubscriptionTier{}).Where("id = ?", id).Update("is_active", false).Error
}
