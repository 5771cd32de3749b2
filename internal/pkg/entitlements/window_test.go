package entitlements

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/AJ-Collins/elite-trading-sub000/app/models"
)

func TestNextWindow_FirstGrant(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

	start, end := NextWindow(nil, now, 30*24*time.Hour)
	assert.Equal(t, now, start)
	assert.Equal(t, now.Add(30*24*time.Hour), end)
}

func TestNextWindow_RenewalExtendsFromEndDate(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	existing := &models.UserSubscription{
		StartDate: now.Add(-25 * 24 * time.Hour),
		EndDate:   now.Add(5 * 24 * time.Hour),
		IsActive:  true,
	}

	start, end := NextWindow(existing, now, 30*24*time.Hour)
	assert.Equal(t, existing.StartDate, start, "renewal keeps the original start")
	assert.Equal(t, now.Add(35*24*time.Hour), end, "remaining days are not lost")
}

func TestNextWindow_ExpiredRebasesFromNow(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	existing := &models.UserSubscription{
		StartDate: now.Add(-90 * 24 * time.Hour),
		EndDate:   now.Add(-60 * 24 * time.Hour),
		IsActive:  true,
	}

	start, end := NextWindow(existing, now, 30*24*time.Hour)
	assert.Equal(t, now, start)
	assert.Equal(t, now.Add(30*24*time.Hour), end)
}
