package entitlements

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/AJ-Collins/elite-trading-sub000/app/models"
)

type memRepo struct {
	subs map[[2]uint]*models.UserSubscription
}

func newMemRepo() *memRepo {
	return &memRepo{subs: map[[2]uint]*models.UserSubscription{}}
}

func (r *memRepo) Grant(userID, tierID uint, duration time.Duration, now time.Time) (*models.UserSubscription, error) {
	key := [2]uint{userID, tierID}
	start, end := NextWindow(r.subs[key], now, duration)
	sub := &models.UserSubscription{UserID: userID, TierID: tierID, StartDate: start, EndDate: end, IsActive: true}
	r.subs[key] = sub
	return sub, nil
}

func (r *memRepo) GetByUserAndTier(userID, tierID uint) (*models.UserSubscription, error) {
	if sub, ok := r.subs[[2]uint{userID, tierID}]; ok {
		return sub, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memRepo) ListByUser(userID uint) ([]models.UserSubscription, error) {
	var out []models.UserSubscription
	for key, sub := range r.subs {
		if key[0] == userID {
			out = append(out, *sub)
		}
	}
	return out, nil
}

func (r *memRepo) Deactivate(userID, tierID uint) error {
	if sub, ok := r.subs[[2]uint{userID, tierID}]; ok {
		sub.IsActive = false
	}
	return nil
}

func fixedService(repo Repository, at time.Time) *Service {
	svc := NewService(repo)
	svc.now = func() time.Time { return at }
	return svc
}

func TestHasCurrent(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	repo := newMemRepo()
	svc := fixedService(repo, now)
	ctx := context.Background()

	// no row at all
	ok, err := svc.HasCurrent(ctx, 1, 1)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = svc.Grant(ctx, 1, 1, 30*24*time.Hour)
	require.NoError(t, err)

	ok, err = svc.HasCurrent(ctx, 1, 1)
	require.NoError(t, err)
	assert.True(t, ok)

	// window ran out: the flag is still true but the row no longer counts
	repo.subs[[2]uint{1, 1}].EndDate = now.Add(-time.Minute)
	ok, err = svc.HasCurrent(ctx, 1, 1)
	require.NoError(t, err)
	assert.False(t, ok)

	// revoked rows never count, window or not
	repo.subs[[2]uint{1, 1}].EndDate = now.Add(time.Hour)
	require.NoError(t, svc.Revoke(ctx, 1, 1))
	ok, err = svc.HasCurrent(ctx, 1, 1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestListCurrentFiltersExpired(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	repo := newMemRepo()
	svc := fixedService(repo, now)
	ctx := context.Background()

	_, err := svc.Grant(ctx, 5, 1, 30*24*time.Hour)
	require.NoError(t, err)
	_, err = svc.Grant(ctx, 5, 2, 30*24*time.Hour)
	require.NoError(t, err)
	repo.subs[[2]uint{5, 2}].EndDate = now.Add(-24 * time.Hour)

	all, err := svc.ListByUser(ctx, 5)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	current, err := svc.ListCurrent(ctx, 5)
	require.NoError(t, err)
	require.Len(t, current, 1)
	assert.Equal(t, uint(1), current[0].TierID)
}

func TestGrantValidation(t *testing.T) {
	svc := NewService(newMemRepo())

	_, err := svc.Grant(context.Background(), 0, 1, time.Hour)
	assert.Error(t, err)
	_, err = svc.Grant(context.Background(), 1, 1, 0)
	assert.Error(t, err)
}
