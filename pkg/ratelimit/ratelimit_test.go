package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalRateLimiterBurst(t *testing.T) {
	l := NewLocalRateLimiter()
	limit := Limit{Rate: 1, Period: time.Minute, Burst: 2}
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		res, err := l.Allow(ctx, "ip:1", limit)
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	}
	res, err := l.Allow(ctx, "ip:1", limit)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Greater(t, res.RetryAfter, time.Duration(0))

	res, err = l.Allow(ctx, "ip:2", limit)
	require.NoError(t, err)
	assert.True(t, res.Allowed, "keys are independent")
}

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string, Limit) (*Result, error) {
	return nil, errors.New("redis down")
}

func TestFallbackUsesSecondary(t *testing.T) {
	f := Fallback{Primary: failingLimiter{}, Secondary: NewLocalRateLimiter()}
	res, err := f.Allow(context.Background(), "k", Limit{Rate: 10, Period: time.Second, Burst: 10})
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}
