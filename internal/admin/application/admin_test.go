package application

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	authdomain "github.com/wyfcoding/aromastore/internal/auth/domain"
	orderdomain "github.com/wyfcoding/aromastore/internal/order/domain"
	"github.com/wyfcoding/aromastore/pkg/authctx"
)

type fakeSales struct {
	summary orderdomain.SalesSummary
	from    time.Time
}

func (f *fakeSales) SalesSummary(_ context.Context, from, _ time.Time) (*orderdomain.SalesSummary, error) {
	f.from = from
	s := f.summary
	return &s, nil
}

func (f *fakeSales) SalesByDay(context.Context, time.Time, time.Time) ([]orderdomain.DailySales, error) {
	return []orderdomain.DailySales{{Day: "2026-03-01", Revenue: decimal.NewFromInt(10), Orders: 1}}, nil
}

func (f *fakeSales) TopProducts(_ context.Context, _, _ time.Time, limit int) ([]orderdomain.ProductSales, error) {
	return make([]orderdomain.ProductSales, limit), nil
}

type countFn func() int64

func (f countFn) CountCreatedBetween(context.Context, time.Time, time.Time) (int64, error) {
	return f(), nil
}

func (f countFn) CountLowStock(context.Context, int) (int64, error) { return f(), nil }

func TestNormalizeRange(t *testing.T) {
	now := time.Date(2026, 3, 31, 15, 0, 0, 0, time.UTC)

	r, err := NormalizeRange(nil, nil, now)
	require.NoError(t, err)
	assert.Equal(t, now, r.To)
	assert.Equal(t, now.Add(-30*24*time.Hour), r.From)

	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	r, err = NormalizeRange(&from, &to, now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC), r.To)

	_, err = NormalizeRange(&to, &from, now)
	assert.ErrorIs(t, err, ErrInvalidRange)

	longAgo := from.AddDate(-2, 0, 0)
	_, err = NormalizeRange(&longAgo, &to, now)
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestSummaryComputesAverageOrderValue(t *testing.T) {
	sales := &fakeSales{summary: orderdomain.SalesSummary{Revenue: decimal.RequireFromString("100.00"), Orders: 3}}
	svc := NewAnalyticsService(sales, countFn(func() int64 { return 4 }), countFn(func() int64 { return 2 }), 0)

	r := Range{From: time.Now().Add(-time.Hour), To: time.Now()}
	d, err := svc.Summary(context.Background(), r)
	require.NoError(t, err)
	assert.Equal(t, "33.33", d.AverageOrderValue.StringFixed(2))
	assert.EqualValues(t, 3, d.Orders)
	assert.EqualValues(t, 4, d.NewCustomers)
	assert.EqualValues(t, 2, d.LowStockCount)
	assert.Equal(t, r.From, sales.from)

	top, err := svc.TopProducts(context.Background(), r, 3)
	require.NoError(t, err)
	assert.Len(t, top, 3)
}

func TestSummaryWithoutOrders(t *testing.T) {
	svc := NewAnalyticsService(&fakeSales{}, countFn(func() int64 { return 0 }), countFn(func() int64 { return 0 }), 5)
	d, err := svc.Summary(context.Background(), Range{From: time.Now().Add(-time.Hour), To: time.Now()})
	require.NoError(t, err)
	assert.True(t, d.AverageOrderValue.IsZero())
}

type roleUsers struct {
	authdomain.UserRepository
	roles map[uint]string
}

func (r *roleUsers) UpdateRole(_ context.Context, id uint, role string) error {
	if _, ok := r.roles[id]; !ok {
		return authdomain.ErrUserNotFound
	}
	r.roles[id] = role
	return nil
}

func (r *roleUsers) GetByID(_ context.Context, id uint) (*authdomain.User, error) {
	return &authdomain.User{ID: id, Role: r.roles[id]}, nil
}

type revoked []uint

func (r *revoked) RevokeAll(_ context.Context, userID uint) error {
	*r = append(*r, userID)
	return nil
}

func TestSetRole(t *testing.T) {
	users := &roleUsers{roles: map[uint]string{1: "ADMIN", 2: "CUSTOMER"}}
	var rev revoked
	svc := NewUserAdminService(users, &rev)
	ctx := context.Background()
	admin := &authctx.Principal{UserID: 1, Role: "ADMIN"}

	_, err := svc.SetRole(ctx, &authctx.Principal{UserID: 3, Role: "MANAGER"}, 2, "SUPPORT")
	assert.ErrorIs(t, err, ErrNotPermitted)

	_, err = svc.SetRole(ctx, admin, 2, "OWNER")
	assert.ErrorIs(t, err, ErrInvalidRole)

	_, err = svc.SetRole(ctx, admin, 1, "CUSTOMER")
	assert.ErrorIs(t, err, ErrSelfDemotion)
	assert.Equal(t, "ADMIN", users.roles[1])

	_, err = svc.SetRole(ctx, admin, 9, "SUPPORT")
	assert.ErrorIs(t, err, authdomain.ErrUserNotFound)

	u, err := svc.SetRole(ctx, admin, 2, "SUPPORT")
	require.NoError(t, err)
	assert.Equal(t, "SUPPORT", u.Role)
	assert.Equal(t, revoked{2}, rev)
}
