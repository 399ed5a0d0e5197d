package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestTierFor(t *testing.T) {
	assert.Equal(t, TierBronze, TierFor(0))
	assert.Equal(t, TierBronze, TierFor(499))
	assert.Equal(t, TierSilver, TierFor(500))
	assert.Equal(t, TierSilver, TierFor(1999))
	assert.Equal(t, TierGold, TierFor(2000))

	next, at := TierBronze.Next()
	assert.Equal(t, TierSilver, next)
	assert.Equal(t, 500, at)
	next, _ = TierGold.Next()
	assert.Empty(t, next)
}

func TestRules(t *testing.T) {
	r := Rules{PointsPerUnit: decimal.NewFromInt(1), PointsPerCurrencyUnit: 100, MinRedeem: 100}

	assert.Equal(t, 45, r.EarnedPoints(decimal.RequireFromString("45.99"), TierBronze))
	assert.Equal(t, 57, r.EarnedPoints(decimal.RequireFromString("45.99"), TierSilver))
	assert.Equal(t, 68, r.EarnedPoints(decimal.RequireFromString("45.99"), TierGold))
	assert.Equal(t, 0, r.EarnedPoints(decimal.Zero, TierGold))

	assert.Equal(t, "2.50", r.Value(250).StringFixed(2))
	assert.Equal(t, 1234, r.PointsFor(decimal.RequireFromString("12.345")))
}
