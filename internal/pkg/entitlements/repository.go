package entitlements

import (
	"errors"
	"time"

	"github.com/AJ-Collins/elite-trading-sub000/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository provides DB operations used by the entitlement service.
type Repository interface {
	Grant(userID, tierID uint, duration time.Duration, now time.Time) (*models.UserSubscription, error)
	GetByUserAndTier(userID, tierID uint) (*models.UserSubscription, error)
	ListByUser(userID uint) ([]models.UserSubscription, error)
	Deactivate(userID, tierID uint) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates an entitlement repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

// Grant runs the extend-or-rebase read-modify-write inside one transaction
// with a row lock, so two near-simultaneous confirmations for the same
// (user, tier) serialize instead of losing an extension.
func (r *gormRepository) Grant(userID, tierID uint, duration time.Duration, now time.Time) (*models.UserSubscription, error) {
	var out models.UserSubscription

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var existing models.UserSubscription
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND tier_id = ?", userID, tierID).
			First(&existing).Error

		switch {
		case err == nil:
			start, end := NextWindow(&existing, now, duration)
			existing.StartDate = start
			existing.EndDate = end
			existing.IsActive = true
			if err := tx.Save(&existing).Error; err != nil {
				return err
			}
			out = existing
			return nil
		case errors.Is(err, gorm.ErrRecordNotFound):
			start, end := NextWindow(nil, now, duration)
			row := models.UserSubscription{
				UserID:    userID,
				TierID:    tierID,
				StartDate: start,
				EndDate:   end,
				IsActive:  true,
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
			out = row
			return nil
		default:
			return err
		}
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *gormRepository) GetByUserAndTier(userID, tierID uint) (*models.UserSubscription, error) {
	var sub models.UserSubscription
	err := r.db.Where("user_id = ? AND tier_id = ?", userID, tierID).First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *gormRepository) ListByUser(userID uint) ([]models.UserSubscription, error) {
	var subs []models.UserSubscription
	err := r.db.Preload("Tier").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&subs).Error
	return subs, err
}

func (r *gormRepository) Deactivate(userID, tierID uint) error {
	return r.db.Model(&models.UserSubscription{}).
		Where("user_id = ? AND tier_id = ?", userID, tierID).
		Update("is_active", false).Error
}
