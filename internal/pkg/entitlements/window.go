package entitlements

import (
	"time"

	"github.com/AJ-Collins/elite-trading-sub000/app/models"
)

// NextWindow computes the validity window a grant should write.
//
// A renewal while the current window is still running extends from the
// existing EndDate, never from now, so paid-for days are not lost. An
// expired (or missing) row rebases from now.
func NextWindow(existing *models.UserSubscription, now time.Time, duration time.Duration) (start, end time.Time) {
	if existing != nil && existing.EndDate.After(now) {
		return existing.StartDate, existing.EndDate.Add(duration)
	}
	return now, now.Add(duration)
}
