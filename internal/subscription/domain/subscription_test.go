package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var jan31 = time.Date(2026, 1, 31, 9, 0, 0, 0, time.UTC)

func TestIntervalNext(t *testing.T) {
	base := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC), IntervalMonthly.Next(base))
	assert.Equal(t, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), IntervalBimonthly.Next(base))
	assert.Equal(t, time.Date(2026, 4, 15, 0, 0, 0, 0, time.UTC), IntervalQuarterly.Next(base))
	assert.Zero(t, Interval("WEEKLY").Months())
}

func TestLifecycle(t *testing.T) {
	s := &Subscription{Status: StatusActive, Interval: IntervalMonthly, NextBillingAt: jan31}

	require.NoError(t, s.Skip())
	assert.Equal(t, IntervalMonthly.Next(jan31), s.NextBillingAt)

	require.NoError(t, s.Pause())
	assert.ErrorIs(t, s.Pause(), ErrInvalidState)
	assert.ErrorIs(t, s.Skip(), ErrInvalidState)

	later := s.NextBillingAt.Add(40 * 24 * time.Hour)
	s.FailedAttempts = 2
	require.NoError(t, s.Resume(later))
	assert.Equal(t, StatusActive, s.Status)
	assert.Zero(t, s.FailedAttempts)
	assert.Equal(t, IntervalMonthly.Next(later), s.NextBillingAt)

	require.NoError(t, s.Cancel())
	assert.ErrorIs(t, s.Cancel(), ErrInvalidState)
	assert.ErrorIs(t, s.Resume(later), ErrInvalidState)
}

func TestRenewedCatchesUp(t *testing.T) {
	s := &Subscription{Status: StatusActive, Interval: IntervalMonthly, NextBillingAt: jan31, FailedAttempts: 1}
	now := jan31.AddDate(0, 3, 0)
	s.Renewed(42, now)

	assert.True(t, s.NextBillingAt.After(now))
	assert.Zero(t, s.FailedAttempts)
	require.NotNil(t, s.LastOrderID)
	assert.Equal(t, uint(42), *s.LastOrderID)
}

func TestFailedPausesAfterThreeAttempts(t *testing.T) {
	s := &Subscription{Status: StatusActive, Interval: IntervalMonthly, NextBillingAt: jan31}
	assert.False(t, s.Failed(jan31))
	assert.Equal(t, jan31.Add(RetryDelay), s.NextBillingAt)
	assert.False(t, s.Failed(jan31))
	assert.True(t, s.Failed(jan31))
	assert.Equal(t, StatusPaused, s.Status)
}
