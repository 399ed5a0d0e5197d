// Package application 后台统计与用户管理
package application

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	orderdomain "github.com/wyfcoding/aromastore/internal/order/domain"
	"github.com/wyfcoding/aromastore/pkg/apperr"
	"github.com/wyfcoding/aromastore/pkg/logger"
	"golang.org/x/sync/errgroup"
)

const (
	defaultRange      = 30 * 24 * time.Hour
	maxRange          = 366 * 24 * time.Hour
	DefaultLowStockAt = 5
)

var ErrInvalidRange = apperr.BadRequest("invalid_range", "from must be before to and span at most 366 days")

// SalesStats 订单统计
type SalesStats interface {
	SalesSummary(ctx context.Context, from, to time.Time) (*orderdomain.SalesSummary, error)
	SalesByDay(ctx context.Context, from, to time.Time) ([]orderdomain.DailySales, error)
	TopProducts(ctx context.Context, from, to time.Time, limit int) ([]orderdomain.ProductSales, error)
}

// CustomerStats 新客统计
type CustomerStats interface {
	CountCreatedBetween(ctx context.Context, from, to time.Time) (int64, error)
}

// StockStats 库存预警统计
type StockStats interface {
	CountLowStock(ctx context.Context, threshold int) (int64, error)
}

// Range 统计区间，左闭右开
type Range struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// NormalizeRange 缺省为最近 30 天；to 为日期时包含当天
func NormalizeRange(from, to *time.Time, now time.Time) (Range, error) {
	r := Range{To: now}
	if to != nil {
		r.To = to.AddDate(0, 0, 1)
	}
	r.From = r.To.Add(-defaultRange)
	if from != nil {
		r.From = *from
	}
	if !r.From.Before(r.To) || r.To.Sub(r.From) > maxRange {
		return Range{}, ErrInvalidRange
	}
	return r, nil
}

// Dashboard 经营概览
type Dashboard struct {
	Range
	Revenue           decimal.Decimal `json:"revenue"`
	Orders            int64           `json:"orders"`
	AverageOrderValue decimal.Decimal `json:"average_order_value"`
	NewCustomers      int64           `json:"new_customers"`
	LowStockCount     int64           `json:"low_stock_count"`
}

// AnalyticsService 后台统计
type AnalyticsService struct {
	sales     SalesStats
	customers CustomerStats
	stock     StockStats
	lowStock  int
}

// NewAnalyticsService 创建统计服务
func NewAnalyticsService(sales SalesStats, customers CustomerStats, stock StockStats, lowStockThreshold int) *AnalyticsService {
	if lowStockThreshold <= 0 {
		lowStockThreshold = DefaultLowStockAt
	}
	return &AnalyticsService{sales: sales, customers: customers, stock: stock, lowStock: lowStockThreshold}
}

// Summary 区间营收、订单数、客单价、新客数与库存预警数
func (s *AnalyticsService) Summary(ctx context.Context, r Range) (*Dashboard, error) {
	defer logger.LogDuration(ctx, "analytics summary", "from", r.From, "to", r.To)()

	d := &Dashboard{Range: r}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sum, err := s.sales.SalesSummary(gctx, r.From, r.To)
		if err != nil {
			return err
		}
		d.Revenue, d.Orders = sum.Revenue, sum.Orders
		return nil
	})
	g.Go(func() error {
		n, err := s.customers.CountCreatedBetween(gctx, r.From, r.To)
		d.NewCustomers = n
		return err
	})
	g.Go(func() error {
		n, err := s.stock.CountLowStock(gctx, s.lowStock)
		d.LowStockCount = n
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if d.Orders > 0 {
		d.AverageOrderValue = d.Revenue.Div(decimal.NewFromInt(d.Orders)).Round(2)
	}
	return d, nil
}

// SalesByDay 按日营收
func (s *AnalyticsService) SalesByDay(ctx context.Context, r Range) ([]orderdomain.DailySales, error) {
	return s.sales.SalesByDay(ctx, r.From, r.To)
}

// TopProducts 畅销商品
func (s *AnalyticsService) TopProducts(ctx context.Context, r Range, limit int) ([]orderdomain.ProductSales, error) {
	return s.sales.TopProducts(ctx, r.From, r.To, limit)
}
