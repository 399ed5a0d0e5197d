package application

import (
	"context"
	"time"

	catalogapp "github.com/wyfcoding/aromastore/internal/catalog/application"
	catalogdomain "github.com/wyfcoding/aromastore/internal/catalog/domain"
	"github.com/wyfcoding/aromastore/internal/wishlist/domain"
	"github.com/wyfcoding/aromastore/pkg/logger"
)

// ProductLookup 收藏模块依赖的商品查询能力，只返回在售商品
type ProductLookup interface {
	GetProductsByIDs(ctx context.Context, ids []uint) ([]*catalogdomain.Product, error)
}

// WishlistEntry 收藏列表项
type WishlistEntry struct {
	ProductID uint                      `json:"product_id"`
	AddedAt   time.Time                 `json:"added_at"`
	Product   catalogapp.ProductSummary `json:"product"`
}

// WishlistApplicationService 收藏应用服务
type WishlistApplicationService struct {
	repo     domain.WishlistRepository
	products ProductLookup
}

// NewWishlistApplicationService 创建收藏应用服务
func NewWishlistApplicationService(repo domain.WishlistRepository, products ProductLookup) *WishlistApplicationService {
	return &WishlistApplicationService{repo: repo, products: products}
}

// Add 收藏商品；重复收藏不报错，返回已有记录
func (s *WishlistApplicationService) Add(ctx context.Context, userID, productID uint) (*domain.WishlistItem, error) {
	existing, err := s.repo.Find(ctx, userID, productID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	products, err := s.products.GetProductsByIDs(ctx, []uint{productID})
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, catalogdomain.ErrProductNotFound
	}

	item, err := s.repo.Create(ctx, &domain.WishlistItem{UserID: userID, ProductID: productID})
	if err != nil {
		return nil, err
	}
	logger.Debug(ctx, "wishlist item added", "product_id", productID)
	return item, nil
}

// Remove 取消收藏
func (s *WishlistApplicationService) Remove(ctx context.Context, userID, productID uint) error {
	return s.repo.Delete(ctx, userID, productID)
}

// Contains 是否已收藏
func (s *WishlistApplicationService) Contains(ctx context.Context, userID, productID uint) (bool, error) {
	item, err := s.repo.Find(ctx, userID, productID)
	return item != nil, err
}

// List 收藏列表，已下架商品不返回
func (s *WishlistApplicationService) List(ctx context.Context, userID uint) ([]WishlistEntry, error) {
	items, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	ids := make([]uint, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ProductID)
	}
	products, err := s.products.GetProductsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]*catalogdomain.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	out := make([]WishlistEntry, 0, len(items))
	for _, it := range items {
		p, ok := byID[it.ProductID]
		if !ok {
			continue
		}
		out = append(out, WishlistEntry{ProductID: it.ProductID, AddedAt: it.CreatedAt, Product: catalogapp.ToSummary(p)})
	}
	return out, nil
}

// ProductIDs 用户收藏的商品 ID，供推荐使用
func (s *WishlistApplicationService) ProductIDs(ctx context.Context, userID uint) ([]uint, error) {
	items, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	ids := make([]uint, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ProductID)
	}
	return ids, nil
}
