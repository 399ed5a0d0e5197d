package mysql

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/aromastore/internal/order/domain"
	"github.com/wyfcoding/aromastore/pkg/db"
	"gorm.io/gorm"
)

// 不计入营收的状态
var excludedStatuses = []domain.Status{domain.StatusCancelled, domain.StatusRefunded}

type orderRepository struct{ db *gorm.DB }

// NewOrderRepository 创建订单仓储
func NewOrderRepository(gdb *gorm.DB) domain.OrderRepository {
	return &orderRepository{db: gdb}
}

func (r *orderRepository) Create(ctx context.Context, o *domain.Order) error {
	return db.Conn(ctx, r.db).Create(o).Error
}

func (r *orderRepository) GetByNo(ctx context.Context, orderNo string) (*domain.Order, error) {
	var o domain.Order
	err := db.Conn(ctx, r.db).Preload("Items").Where("order_no = ?", orderNo).First(&o).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *orderRepository) FindByPaymentIntent(ctx context.Context, intentID string) (*domain.Order, error) {
	var o domain.Order
	err := db.Conn(ctx, r.db).Preload("Items").Where("payment_intent_id = ?", intentID).First(&o).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *orderRepository) ListByUser(ctx context.Context, userID uint, offset, limit int) ([]*domain.Order, int64, error) {
	return r.List(ctx, domain.OrderFilter{UserID: userID, Offset: offset, Limit: limit})
}

func (r *orderRepository) List(ctx context.Context, f domain.OrderFilter) ([]*domain.Order, int64, error) {
	var (
		orders []*domain.Order
		total  int64
	)
	q := db.Conn(ctx, r.db).Model(&domain.Order{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.UserID != 0 {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.OrderNo != "" {
		q = q.Where("order_no = ?", f.OrderNo)
	}
	if f.From != nil {
		q = q.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("created_at < ?", *f.To)
	}
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []*domain.Order{}, 0, nil
	}
	err := q.Preload("Items").Order("id DESC").Offset(f.Offset).Limit(f.Limit).Find(&orders).Error
	return orders, total, err
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id uint, from, to domain.Status, fields map[string]any) (bool, error) {
	updates := map[string]any{"status": to}
	for k, v := range fields {
		updates[k] = v
	}
	res := db.Conn(ctx, r.db).Model(&domain.Order{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	return res.RowsAffected > 0, res.Error
}

func (r *orderRepository) SetPointsEarned(ctx context.Context, id uint, points int) error {
	return db.Conn(ctx, r.db).Model(&domain.Order{}).Where("id = ?", id).Update("points_earned", points).Error
}

func (r *orderRepository) CountByUser(ctx context.Context, userID uint) (int64, error) {
	var n int64
	err := db.Conn(ctx, r.db).Model(&domain.Order{}).Where("user_id = ?", userID).Count(&n).Error
	return n, err
}

func (r *orderRepository) HasPurchased(ctx context.Context, userID, productID uint) (bool, error) {
	var n int64
	err := db.Conn(ctx, r.db).Model(&domain.OrderItem{}).
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.user_id = ? AND order_items.product_id = ? AND orders.status NOT IN ?", userID, productID, excludedStatuses).
		Count(&n).Error
	return n > 0, err
}

func (r *orderRepository) PurchasedItems(ctx context.Context, userID uint, limit int) ([]domain.PurchasedItem, error) {
	var rows []struct {
		ProductID uint
		Quantity  int
		CreatedAt time.Time
	}
	err := db.Conn(ctx, r.db).Model(&domain.OrderItem{}).
		Select("order_items.product_id, order_items.quantity, orders.created_at").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.user_id = ? AND orders.status NOT IN ?", userID, excludedStatuses).
		Order("orders.created_at DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	items := make([]domain.PurchasedItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, domain.PurchasedItem{ProductID: row.ProductID, Quantity: row.Quantity, OrderedAt: row.CreatedAt})
	}
	return items, nil
}

func (r *orderRepository) Summary(ctx context.Context, from, to time.Time) (*domain.SalesSummary, error) {
	var row struct {
		Revenue decimal.NullDecimal
		Orders  int64
	}
	err := db.Conn(ctx, r.db).Model(&domain.Order{}).
		Select("SUM(total) AS revenue, COUNT(*) AS orders").
		Where("created_at >= ? AND created_at < ? AND status NOT IN ?", from, to, excludedStatuses).
		Scan(&row).Error
	if err != nil {
		return nil, err
	}
	s := &domain.SalesSummary{Revenue: decimal.Zero, Orders: row.Orders}
	if row.Revenue.Valid {
		s.Revenue = row.Revenue.Decimal
	}
	return s, nil
}

func (r *orderRepository) SalesByDay(ctx context.Context, from, to time.Time) ([]domain.DailySales, error) {
	var rows []struct {
		Day     time.Time
		Revenue decimal.Decimal
		Orders  int64
	}
	err := db.Conn(ctx, r.db).Model(&domain.Order{}).
		Select("DATE(created_at) AS day, SUM(total) AS revenue, COUNT(*) AS orders").
		Where("created_at >= ? AND created_at < ? AND status NOT IN ?", from, to, excludedStatuses).
		Group("DATE(created_at)").
		Order("day ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]domain.DailySales, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.DailySales{Day: row.Day.Format("2006-01-02"), Revenue: row.Revenue, Orders: row.Orders})
	}
	return out, nil
}

func (r *orderRepository) TopProducts(ctx context.Context, from, to time.Time, limit int) ([]domain.ProductSales, error) {
	var out []domain.ProductSales
	err := db.Conn(ctx, r.db).Model(&domain.OrderItem{}).
		Select("order_items.product_id, MAX(order_items.product_name) AS product_name, SUM(order_items.quantity) AS units, SUM(order_items.line_total) AS revenue").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.created_at >= ? AND orders.created_at < ? AND orders.status NOT IN ?", from, to, excludedStatuses).
		Group("order_items.product_id").
		Order("units DESC").
		Limit(limit).
		Scan(&out).Error
	return out, err
}
