package models

import "time"

// UserSubscription is one entitlement row: user U holds tier T for
// [StartDate, EndDate]. The (user_id, tier_id) pair is unique so a renewal
// always extends the existing row instead of inserting a sibling.
type UserSubscription struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index:ux_user_subscriptions_user_tier,unique,priority:1" json:"user_id"`
	TierID    uint      `gorm:"not null;index:ux_user_subscriptions_user_tier,unique,priority:2" json:"tier_id"`
	StartDate time.Time `gorm:"type:timestamp;not null" json:"start_date"`
	EndDate   time.Time `gorm:"type:timestamp;not null;index" json:"end_date"`
	IsActive  bool      `gorm:"default:true;index" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	User User             `gorm:"foreignKey:UserID" json:"-"`
	Tier SubscriptionTier `gorm:"foreignKey:TierID" json:"tier,omitempty"`
}

// CurrentAt reports whether the entitlement grants access at the given
// instant. IsActive alone is not enough: expiry is derived from the window,
// nothing sweeps the flag when EndDate passes.
func (s *UserSubscription) CurrentAt(now time.Time) bool {
	if !s.IsActive {
		return false
	}
	return !now.Before(s.StartDate) && !now.After(s.EndDate)
}
