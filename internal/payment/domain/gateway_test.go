package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestMinorUnits(t *testing.T) {
	assert.Equal(t, int64(3299), ToMinor(decimal.RequireFromString("32.99")))
	assert.Equal(t, int64(1000), ToMinor(decimal.RequireFromString("10")))
	assert.Equal(t, "32.99", FromMinor(3299).StringFixed(2))
	assert.True(t, (&Intent{Status: StatusSucceeded}).Succeeded())
}
