package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// OrderFilter 后台订单查询条件
type OrderFilter struct {
	Status  Status
	UserID  uint
	OrderNo string
	From    *time.Time
	To      *time.Time
	Offset  int
	Limit   int
}

// PurchasedItem 用户购买记录，用于推荐
type PurchasedItem struct {
	ProductID uint
	Quantity  int
	OrderedAt time.Time
}

// SalesSummary 区间销售汇总，不含已取消与已退款订单
type SalesSummary struct {
	Revenue decimal.Decimal `json:"revenue"`
	Orders  int64           `json:"orders"`
}

// DailySales 按日销售额
type DailySales struct {
	Day     string          `json:"day"`
	Revenue decimal.Decimal `json:"revenue"`
	Orders  int64           `json:"orders"`
}

// ProductSales 商品销量
type ProductSales struct {
	ProductID   uint            `json:"product_id"`
	ProductName string          `json:"product_name"`
	Units       int64           `json:"units"`
	Revenue     decimal.Decimal `json:"revenue"`
}

// OrderRepository 订单仓储
type OrderRepository interface {
	Create(ctx context.Context, o *Order) error
	GetByNo(ctx context.Context, orderNo string) (*Order, error)
	// FindByPaymentIntent 按支付意图查询，不存在时返回 nil
	FindByPaymentIntent(ctx context.Context, intentID string) (*Order, error)
	ListByUser(ctx context.Context, userID uint, offset, limit int) ([]*Order, int64, error)
	List(ctx context.Context, f OrderFilter) ([]*Order, int64, error)
	// UpdateStatus 仅当当前状态为 from 时更新，返回是否更新成功
	UpdateStatus(ctx context.Context, id uint, from, to Status, fields map[string]any) (bool, error)
	SetPointsEarned(ctx context.Context, id uint, points int) error
	CountByUser(ctx context.Context, userID uint) (int64, error)
	HasPurchased(ctx context.Context, userID, productID uint) (bool, error)
	PurchasedItems(ctx context.Context, userID uint, limit int) ([]PurchasedItem, error)

	Summary(ctx context.Context, from, to time.Time) (*SalesSummary, error)
	SalesByDay(ctx context.Context, from, to time.Time) ([]DailySales, error)
	TopProducts(ctx context.Context, from, to time.Time, limit int) ([]ProductSales, error)
}

// CheckoutRepository 结算会话仓储
type CheckoutRepository interface {
	Create(ctx context.Context, s *CheckoutSession) error
	GetByIntent(ctx context.Context, intentID string) (*CheckoutSession, error)
	// LatestByKey 同一购物车指纹的最近一次会话，不存在时返回 nil
	LatestByKey(ctx context.Context, fingerprint string) (*CheckoutSession, error)
	MarkCompleted(ctx context.Context, id, orderID uint) error
	// RecordDecline 记录卡被拒原因，会话保持 PENDING
	RecordDecline(ctx context.Context, intentID, reason string) error
	// MarkFailed 补偿退款后终结会话，仅更新仍处于 PENDING 的会话
	MarkFailed(ctx context.Context, intentID, reason string) error
}

// EventPublisher 事件发布接口
type EventPublisher interface {
	Publish(ctx context.Context, topic, key string, event any) error
}
