package domain

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestApply(t *testing.T) {
	pct := &Coupon{Code: "TEN", Type: TypePercent, Value: d("10")}
	assert.Equal(t, "4.55", pct.Apply(d("45.50")).Amount.StringFixed(2))

	fixed := &Coupon{Code: "FIVE", Type: TypeFixed, Value: d("15")}
	assert.Equal(t, "12.00", fixed.Apply(d("12")).Amount.StringFixed(2), "capped at subtotal")

	ship := &Coupon{Code: "SHIP", Type: TypeFreeShipping}
	got := ship.Apply(d("20"))
	assert.True(t, got.FreeShipping)
	assert.True(t, got.Amount.IsZero())
}

func TestCheckWindow(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	assert.ErrorIs(t, (&Coupon{}).CheckWindow(now), ErrCouponInactive)
	assert.ErrorIs(t, (&Coupon{Active: true, StartsAt: &future}).CheckWindow(now), ErrCouponNotStarted)
	assert.ErrorIs(t, (&Coupon{Active: true, EndsAt: &past}).CheckWindow(now), ErrCouponExpired)
	assert.ErrorIs(t, (&Coupon{Active: true, UsageLimit: 2, UsedCount: 2}).CheckWindow(now), ErrCouponExhausted)
	assert.NoError(t, (&Coupon{Active: true, StartsAt: &past, EndsAt: &future, UsageLimit: 2, UsedCount: 1}).CheckWindow(now))
}

func TestValidate(t *testing.T) {
	assert.NoError(t, (&Coupon{Code: "OK", Type: TypePercent, Value: d("15")}).Validate())
	assert.ErrorIs(t, (&Coupon{Code: "BAD", Type: TypePercent, Value: d("150")}).Validate(), ErrInvalidCoupon)
	assert.ErrorIs(t, (&Coupon{Code: "BAD", Type: "BOGO"}).Validate(), ErrInvalidCoupon)
	assert.ErrorIs(t, (&Coupon{Code: "", Type: TypeFreeShipping}).Validate(), ErrInvalidCoupon)
}

func TestEvalCondition(t *testing.T) {
	ctx := context.Background()
	cctx := CouponContext{
		Subtotal:   d("85.00"),
		ItemCount:  2,
		Categories: []string{"essential-oils", "diffusers"},
		Now:        time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
	}

	ok, err := EvalCondition(ctx, `subtotal >= 80 && "diffusers" in categories`, cctx)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = EvalCondition(ctx, `first_order || item_count >= 3`, cctx)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = EvalCondition(ctx, `weekday == "Monday"`, cctx)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = EvalCondition(ctx, "", cctx)
	require.NoError(t, err)
	assert.True(t, ok)

	assert.ErrorIs(t, CompileCondition("subtotal +"), ErrInvalidCoupon)
	assert.ErrorIs(t, CompileCondition("subtotal + 1"), ErrInvalidCoupon, "non-boolean result")
	assert.ErrorIs(t, CompileCondition("points > 10"), ErrInvalidCoupon, "unknown variable")

	_, err = EvalCondition(ctx, "subtotal >", cctx)
	assert.Error(t, err)
}

func TestNormalizeCode(t *testing.T) {
	assert.Equal(t, "WELCOME10", NormalizeCode("  welcome10 "))
}
