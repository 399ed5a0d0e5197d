package application

import (
	"context"
	"time"

	rbac "github.com/wyfcoding/aromastore/internal/admin/domain"
	"github.com/wyfcoding/aromastore/internal/order/domain"
	"github.com/wyfcoding/aromastore/pkg/db"
)

// Viewer 查询订单的用户
type Viewer struct {
	UserID uint
	Role   string
}

// ListOrdersQuery 后台订单查询
type ListOrdersQuery struct {
	Status  domain.Status `form:"status"`
	UserID  uint          `form:"user_id"`
	OrderNo string        `form:"order_no"`
	From    *time.Time    `form:"from" time_format:"2006-01-02"`
	To      *time.Time    `form:"to" time_format:"2006-01-02"`
	Page    int           `form:"page"`
	Size    int           `form:"size"`
}

// OrderQueryService 订单查询服务
type OrderQueryService struct {
	repo domain.OrderRepository
}

// NewOrderQueryService 创建订单查询服务
func NewOrderQueryService(repo domain.OrderRepository) *OrderQueryService {
	return &OrderQueryService{repo: repo}
}

// GetOrder 订单详情，仅本人或有 orders:read 权限的员工可见
func (s *OrderQueryService) GetOrder(ctx context.Context, orderNo string, viewer Viewer) (*domain.Order, error) {
	o, err := s.repo.GetByNo(ctx, orderNo)
	if err != nil {
		return nil, err
	}
	if o.UserID != viewer.UserID && !rbac.Can(viewer.Role, rbac.PermOrdersRead) {
		return nil, domain.ErrOrderNotFound
	}
	return o, nil
}

// ListMyOrders 当前用户的订单
func (s *OrderQueryService) ListMyOrders(ctx context.Context, userID uint, page, size int) ([]*domain.Order, int64, error) {
	offset, limit := db.Paginate(page, size, 50)
	return s.repo.ListByUser(ctx, userID, offset, limit)
}

// ListOrders 后台订单列表
func (s *OrderQueryService) ListOrders(ctx context.Context, q ListOrdersQuery) ([]*domain.Order, int64, error) {
	if q.Status != "" && !q.Status.Valid() {
		return nil, 0, domain.ErrInvalidStatus
	}
	offset, limit := db.Paginate(q.Page, q.Size, 100)
	return s.repo.List(ctx, domain.OrderFilter{
		Status:  q.Status,
		UserID:  q.UserID,
		OrderNo: q.OrderNo,
		From:    q.From,
		To:      q.To,
		Offset:  offset,
		Limit:   limit,
	})
}

// HasPurchased 用户是否有包含该商品的有效订单
func (s *OrderQueryService) HasPurchased(ctx context.Context, userID, productID uint) (bool, error) {
	return s.repo.HasPurchased(ctx, userID, productID)
}

// PurchasedItems 用户最近购买的商品
func (s *OrderQueryService) PurchasedItems(ctx context.Context, userID uint, limit int) ([]domain.PurchasedItem, error) {
	return s.repo.PurchasedItems(ctx, userID, limit)
}

// SalesSummary 区间营收与订单数
func (s *OrderQueryService) SalesSummary(ctx context.Context, from, to time.Time) (*domain.SalesSummary, error) {
	return s.repo.Summary(ctx, from, to)
}

// SalesByDay 区间按日营收
func (s *OrderQueryService) SalesByDay(ctx context.Context, from, to time.Time) ([]domain.DailySales, error) {
	return s.repo.SalesByDay(ctx, from, to)
}

// TopProducts 区间销量最高的商品
func (s *OrderQueryService) TopProducts(ctx context.Context, from, to time.Time, limit int) ([]domain.ProductSales, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	return s.repo.TopProducts(ctx, from, to, limit)
}
