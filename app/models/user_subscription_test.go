package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCurrentAt(t *testing.T) {
	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(30 * 24 * time.Hour)
	sub := UserSubscription{StartDate: start, EndDate: end, IsActive: true}

	assert.False(t, sub.CurrentAt(start.Add(-time.Second)), "before the window")
	assert.True(t, sub.CurrentAt(start), "start is inclusive")
	assert.True(t, sub.CurrentAt(start.Add(15*24*time.Hour)))
	assert.True(t, sub.CurrentAt(end), "end is inclusive")
	assert.False(t, sub.CurrentAt(end.Add(time.Second)), "after the window")
}

func TestCurrentAt_InactiveNeverCounts(t *testing.T) {
	now := time.Now()
	sub := UserSubscription{
		StartDate: now.Add(-time.Hour),
		EndDate:   now.Add(time.Hour),
		IsActive:  false,
	}
	assert.False(t, sub.CurrentAt(now))
}
