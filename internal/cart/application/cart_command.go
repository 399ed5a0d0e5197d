package application

import (
	"context"
	"time"

	"github.com/wyfcoding/aromastore/internal/cart/domain"
	catalogdomain "github.com/wyfcoding/aromastore/internal/catalog/domain"
	"github.com/wyfcoding/aromastore/pkg/logger"
)

// AddItemCommand 添加商品到购物车命令
type AddItemCommand struct {
	UserID    uint
	VariantID uint `json:"variant_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required,min=1,max=99"`
}

// UpdateQuantityCommand 修改数量命令，数量为 0 时删除该行
type UpdateQuantityCommand struct {
	UserID    uint
	VariantID uint
	Quantity  int `json:"quantity" binding:"min=0,max=99"`
}

// CartCommandService 购物车命令服务
type CartCommandService struct {
	repo      domain.CartRepository
	catalog   ProductCatalog
	publisher domain.EventPublisher
}

// NewCartCommandService 创建购物车命令服务
func NewCartCommandService(repo domain.CartRepository, catalog ProductCatalog, publisher domain.EventPublisher) *CartCommandService {
	return &CartCommandService{repo: repo, catalog: catalog, publisher: publisher}
}

// sellable 校验规格可售且库存满足 qty
func (s *CartCommandService) sellable(ctx context.Context, variantID uint, qty int) (*catalogdomain.ProductVariant, error) {
	v, err := s.catalog.GetVariant(ctx, variantID)
	if err != nil {
		return nil, err
	}
	if !v.IsActive {
		return nil, domain.ErrVariantUnavailable
	}
	products, err := s.catalog.GetProductsByIDs(ctx, []uint{v.ProductID})
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, domain.ErrVariantUnavailable
	}
	if v.Stock < qty {
		return nil, catalogdomain.ErrInsufficientStock.WithMessage("only %d left in stock", v.Stock)
	}
	return v, nil
}

// AddItem 添加商品，同一规格合并数量
func (s *CartCommandService) AddItem(ctx context.Context, cmd AddItemCommand) error {
	if !domain.ValidQuantity(cmd.Quantity) {
		return domain.ErrInvalidQuantity
	}
	cart, err := s.repo.GetOrCreate(ctx, cmd.UserID)
	if err != nil {
		return err
	}

	qty := cmd.Quantity
	if existing := cart.Find(cmd.VariantID); existing != nil {
		qty += existing.Quantity
	}
	if !domain.ValidQuantity(qty) {
		return domain.ErrInvalidQuantity
	}
	v, err := s.sellable(ctx, cmd.VariantID, qty)
	if err != nil {
		return err
	}

	if err := s.repo.SaveItem(ctx, &domain.CartItem{CartID: cart.ID, VariantID: v.ID, ProductID: v.ProductID, Quantity: qty}); err != nil {
		return err
	}
	logger.Debug(ctx, "cart item added", "cart_id", cart.ID, "variant_id", v.ID, "quantity", qty)

	if err := s.publisher.Publish(ctx, domain.TopicItemAdded, cartKey(cmd.UserID), domain.CartItemAddedEvent{
		CartID:    cart.ID,
		UserID:    cmd.UserID,
		VariantID: v.ID,
		ProductID: v.ProductID,
		Quantity:  cmd.Quantity,
		Timestamp: time.Now().UTC(),
	}); err != nil {
		logger.Warn(ctx, "failed to publish cart event", "topic", domain.TopicItemAdded, "error", err)
	}
	return nil
}

// UpdateQuantity 设置某一行的数量
func (s *CartCommandService) UpdateQuantity(ctx context.Context, cmd UpdateQuantityCommand) error {
	if cmd.Quantity == 0 {
		return s.RemoveItem(ctx, cmd.UserID, cmd.VariantID)
	}
	if !domain.ValidQuantity(cmd.Quantity) {
		return domain.ErrInvalidQuantity
	}
	cart, err := s.repo.Find(ctx, cmd.UserID)
	if err != nil {
		return err
	}
	if cart == nil {
		return domain.ErrItemNotFound
	}
	item := cart.Find(cmd.VariantID)
	if item == nil {
		return domain.ErrItemNotFound
	}
	if _, err := s.sellable(ctx, cmd.VariantID, cmd.Quantity); err != nil {
		return err
	}
	item.Quantity = cmd.Quantity
	return s.repo.SaveItem(ctx, item)
}

// RemoveItem 删除一行
func (s *CartCommandService) RemoveItem(ctx context.Context, userID, variantID uint) error {
	cart, err := s.repo.Find(ctx, userID)
	if err != nil {
		return err
	}
	if cart == nil {
		return domain.ErrItemNotFound
	}
	found, err := s.repo.DeleteItem(ctx, cart.ID, variantID)
	if err != nil {
		return err
	}
	if !found {
		return domain.ErrItemNotFound
	}
	if err := s.publisher.Publish(ctx, domain.TopicItemRemoved, cartKey(userID), domain.CartItemRemovedEvent{
		CartID:    cart.ID,
		UserID:    userID,
		VariantID: variantID,
		Timestamp: time.Now().UTC(),
	}); err != nil {
		logger.Warn(ctx, "failed to publish cart event", "topic", domain.TopicItemRemoved, "error", err)
	}
	return nil
}

// ClearCart 清空购物车；可在结算事务内调用
func (s *CartCommandService) ClearCart(ctx context.Context, userID uint) error {
	cart, err := s.repo.Find(ctx, userID)
	if err != nil || cart == nil {
		return err
	}
	n, err := s.repo.Clear(ctx, cart.ID)
	if err != nil {
		return err
	}
	if n == 0 {
		return nil
	}
	return s.publisher.Publish(ctx, domain.TopicCleared, cartKey(userID), domain.CartClearedEvent{
		CartID:    cart.ID,
		UserID:    userID,
		Timestamp: time.Now().UTC(),
	})
}
