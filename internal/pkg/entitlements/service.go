package entitlements

import (
	"context"
	"errors"
	"time"

	"github.com/AJ-Collins/elite-trading-sub000/app/models"
	"gorm.io/gorm"
)

// Service answers "does user U currently hold tier T" and applies grants
// when payments reconcile.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates an entitlement service from an injected repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// NewServiceFromDB creates an entitlement service from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB) *Service {
	return NewService(NewRepository(db))
}

// Grant creates or extends the entitlement for (user, tier).
func (s *Service) Grant(ctx context.Context, userID, tierID uint, duration time.Duration) (*models.UserSubscription, error) {
	_ = ctx
	if userID == 0 || tierID == 0 {
		return nil, errors.New("user_id and tier_id are required")
	}
	if duration <= 0 {
		return nil, errors.New("duration must be positive")
	}
	return s.repo.Grant(userID, tierID, duration, s.now())
}

// HasCurrent reports whether the user holds a currently valid entitlement
// for the tier. The IsActive flag never counts on its own; the date window
// is checked at every call site through CurrentAt.
func (s *Service) HasCurrent(ctx context.Context, userID, tierID uint) (bool, error) {
	_ = ctx
	sub, err := s.repo.GetByUserAndTier(userID, tierID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return sub.CurrentAt(s.now()), nil
}

// ListByUser returns all of a user's entitlement rows, newest first,
// including rows that already ran out.
func (s *Service) ListByUser(ctx context.Context, userID uint) ([]models.UserSubscription, error) {
	_ = ctx
	return s.repo.ListByUser(userID)
}

// ListCurrent returns only the rows valid right now.
func (s *Service) ListCurrent(ctx context.Context, userID uint) ([]models.UserSubscription, error) {
	subs, err := s.repo.ListByUser(userID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	current := make([]models.UserSubscription, 0, len(subs))
	for _, sub := range subs {
		if sub.CurrentAt(now) {
			current = append(current, sub)
		}
	}
	return current, nil
}

// Revoke flips a user's entitlement inactive (admin tooling).
func (s *Service) Revoke(ctx context.Context, userID, tierID uint) error {
	_ = ctx
	if userID == 0 || tierID == 0 {
		return errors.New("user_id and tier_id are required")
	}
	return s.repo.Deactivate(userID, tierID)
}
