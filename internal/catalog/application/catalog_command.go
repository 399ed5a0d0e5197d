package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/aromastore/internal/catalog/domain"
	"github.com/wyfcoding/aromastore/pkg/apperr"
	"github.com/wyfcoding/aromastore/pkg/cache"
	"github.com/wyfcoding/aromastore/pkg/logger"
)

// Transactor 事务执行器
type Transactor interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// VariantInput 规格参数
type VariantInput struct {
	SKU            string
	Name           string
	Price          decimal.Decimal
	CompareAtPrice *decimal.Decimal
	Stock          int
	IsActive       bool
}

// CreateProductCommand 创建商品命令
type CreateProductCommand struct {
	Slug         string
	Name         string
	Description  string
	CategorySlug string
	TagSlugs     []string
	ImageURL     string
	IsActive     bool
	Variants     []VariantInput
	ActorID      uint
}

// UpdateProductCommand 更新商品命令
type UpdateProductCommand struct {
	ID           uint
	Slug         string
	Name         string
	Description  string
	CategorySlug string
	TagSlugs     []string
	ImageURL     string
	IsActive     bool
}

// UpsertVariantCommand 新增或修改规格，VariantID 为 0 时新增
type UpsertVariantCommand struct {
	ProductID uint
	VariantID uint
	VariantInput
	ActorID uint
}

// AdjustStockCommand 人工调整库存
type AdjustStockCommand struct {
	VariantID uint
	Delta     int
	Reason    string
	ActorID   uint
}

// CatalogCommandService 商品目录命令服务
type CatalogCommandService struct {
	products  domain.ProductRepository
	variants  domain.VariantRepository
	taxonomy  domain.TaxonomyRepository
	tx        Transactor
	publisher domain.EventPublisher
	cache     cache.Cache
}

// NewCatalogCommandService 创建商品目录命令服务实例
func NewCatalogCommandService(
	products domain.ProductRepository,
	variants domain.VariantRepository,
	taxonomy domain.TaxonomyRepository,
	tx Transactor,
	publisher domain.EventPublisher,
	c cache.Cache,
) *CatalogCommandService {
	return &CatalogCommandService{
		products:  products,
		variants:  variants,
		taxonomy:  taxonomy,
		tx:        tx,
		publisher: publisher,
		cache:     c,
	}
}

func validateVariant(v VariantInput) error {
	if !v.Price.IsPositive() {
		return domain.ErrInvalidPrice
	}
	if v.CompareAtPrice != nil && v.CompareAtPrice.LessThan(v.Price) {
		return domain.ErrInvalidPrice.WithMessage("compare_at_price must not be lower than price")
	}
	if v.Stock < 0 {
		return apperr.BadRequest("invalid_stock", "stock must not be negative")
	}
	return nil
}

func compareAt(p *decimal.Decimal) decimal.NullDecimal {
	if p == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(*p)
}

// CreateProduct 处理创建商品
func (s *CatalogCommandService) CreateProduct(ctx context.Context, cmd CreateProductCommand) (*ProductDetail, error) {
	for _, v := range cmd.Variants {
		if err := validateVariant(v); err != nil {
			return nil, err
		}
	}

	var created *domain.Product
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		category, err := s.taxonomy.GetCategoryBySlug(ctx, cmd.CategorySlug)
		if err != nil {
			return err
		}
		tags, err := s.taxonomy.GetTagsBySlugs(ctx, cmd.TagSlugs)
		if err != nil {
			return err
		}

		p := &domain.Product{
			Slug:        cmd.Slug,
			Name:        strings.TrimSpace(cmd.Name),
			Description: cmd.Description,
			CategoryID:  category.ID,
			Tags:        tags,
			ImageURL:    cmd.ImageURL,
			IsActive:    cmd.IsActive,
		}
		for _, v := range cmd.Variants {
			p.Variants = append(p.Variants, domain.ProductVariant{
				SKU:            strings.ToUpper(v.SKU),
				Name:           v.Name,
				Price:          v.Price.Round(2),
				CompareAtPrice: compareAt(v.CompareAtPrice),
				Stock:          v.Stock,
				IsActive:       v.IsActive,
			})
		}
		if err := s.products.Create(ctx, p); err != nil {
			return err
		}
		for _, v := range p.Variants {
			if v.Stock == 0 {
				continue
			}
			if err := s.variants.CreateInventoryLog(ctx, &domain.InventoryLog{
				VariantID:  v.ID,
				Delta:      v.Stock,
				Reason:     domain.ReasonRestock,
				StockAfter: v.Stock,
				ActorID:    cmd.ActorID,
			}); err != nil {
				return err
			}
		}
		p.Category = category
		created = p
		return s.publisher.Publish(ctx, domain.TopicProductCreated, p.Slug, domain.ProductCreatedEvent{
			ProductID: p.ID,
			Slug:      p.Slug,
			Name:      p.Name,
			Timestamp: time.Now().UTC(),
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "product created", "product_id", created.ID, "slug", created.Slug)
	return ToDetail(created), nil
}

// UpdateProduct 处理更新商品
func (s *CatalogCommandService) UpdateProduct(ctx context.Context, cmd UpdateProductCommand) (*ProductDetail, error) {
	var oldSlug string
	var updated *domain.Product
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		p, err := s.products.GetByID(ctx, cmd.ID)
		if err != nil {
			return err
		}
		oldSlug = p.Slug

		category, err := s.taxonomy.GetCategoryBySlug(ctx, cmd.CategorySlug)
		if err != nil {
			return err
		}
		tags, err := s.taxonomy.GetTagsBySlugs(ctx, cmd.TagSlugs)
		if err != nil {
			return err
		}

		p.Slug = cmd.Slug
		p.Name = strings.TrimSpace(cmd.Name)
		p.Description = cmd.Description
		p.CategoryID = category.ID
		p.Category = category
		p.ImageURL = cmd.ImageURL
		p.IsActive = cmd.IsActive
		if err := s.products.Update(ctx, p); err != nil {
			return err
		}
		if err := s.products.ReplaceTags(ctx, p, tags); err != nil {
			return err
		}
		p.Tags = tags
		updated = p
		return s.publisher.Publish(ctx, domain.TopicProductUpdated, p.Slug, domain.ProductUpdatedEvent{
			ProductID: p.ID,
			Slug:      p.Slug,
			Name:      p.Name,
			IsActive:  p.IsActive,
			Timestamp: time.Now().UTC(),
		})
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, oldSlug, updated.Slug)
	return ToDetail(updated), nil
}

// DeleteProduct 下架并软删除商品
func (s *CatalogCommandService) DeleteProduct(ctx context.Context, id uint) error {
	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.products.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, p.Slug)
	logger.Info(ctx, "product deleted", "product_id", id)
	return nil
}

// UpsertVariant 新增或修改规格；修改时库存只能通过 AdjustStock 变更
func (s *CatalogCommandService) UpsertVariant(ctx context.Context, cmd UpsertVariantCommand) (*VariantDTO, error) {
	if err := validateVariant(cmd.VariantInput); err != nil {
		return nil, err
	}

	var saved *domain.ProductVariant
	var slug string
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		p, err := s.products.GetByID(ctx, cmd.ProductID)
		if err != nil {
			return err
		}
		slug = p.Slug

		v := &domain.ProductVariant{ProductID: p.ID, Stock: cmd.Stock}
		if cmd.VariantID != 0 {
			if v, err = s.variants.GetVariant(ctx, cmd.VariantID); err != nil {
				return err
			}
			if v.ProductID != p.ID {
				return domain.ErrVariantNotFound
			}
		}
		v.SKU = strings.ToUpper(cmd.SKU)
		v.Name = cmd.Name
		v.Price = cmd.Price.Round(2)
		v.CompareAtPrice = compareAt(cmd.CompareAtPrice)
		v.IsActive = cmd.IsActive
		isNew := v.ID == 0
		if err := s.variants.SaveVariant(ctx, v); err != nil {
			return err
		}
		if isNew && v.Stock > 0 {
			if err := s.variants.CreateInventoryLog(ctx, &domain.InventoryLog{
				VariantID: v.ID, Delta: v.Stock, Reason: domain.ReasonRestock, StockAfter: v.Stock, ActorID: cmd.ActorID,
			}); err != nil {
				return err
			}
		}
		saved = v
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, slug)
	return &VariantDTO{
		ID:             saved.ID,
		SKU:            saved.SKU,
		Name:           saved.Name,
		Price:          saved.Price,
		CompareAtPrice: saved.CompareAtPrice,
		Stock:          saved.Stock,
		IsActive:       saved.IsActive,
	}, nil
}

// AdjustStock 人工调整库存，结果不能为负
func (s *CatalogCommandService) AdjustStock(ctx context.Context, cmd AdjustStockCommand) (int, error) {
	if cmd.Delta == 0 {
		return 0, apperr.BadRequest("invalid_delta", "delta must not be zero")
	}
	reason := cmd.Reason
	if reason == "" {
		reason = domain.ReasonAdjustment
	}
	var stock int
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		var err error
		stock, err = s.changeStock(ctx, cmd.VariantID, cmd.Delta, reason, cmd.ActorID)
		return err
	})
	if err != nil {
		return 0, err
	}
	logger.Info(ctx, "stock adjusted", "variant_id", cmd.VariantID, "delta", cmd.Delta, "stock", stock)
	return stock, nil
}

// DecrementStock 下单扣减库存，需在调用方事务内执行
func (s *CatalogCommandService) DecrementStock(ctx context.Context, variantID uint, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("decrement quantity must be positive: %d", qty)
	}
	_, err := s.changeStock(ctx, variantID, -qty, domain.ReasonOrder, 0)
	return err
}

// RestoreStock 回补库存（取消订单、结算补偿）
func (s *CatalogCommandService) RestoreStock(ctx context.Context, variantID uint, qty int, reason string) error {
	if qty <= 0 {
		return nil
	}
	_, err := s.changeStock(ctx, variantID, qty, reason, 0)
	return err
}

func (s *CatalogCommandService) changeStock(ctx context.Context, variantID uint, delta int, reason string, actorID uint) (int, error) {
	stock, err := s.variants.AddStock(ctx, variantID, delta)
	if err != nil {
		return 0, err
	}
	if err := s.variants.CreateInventoryLog(ctx, &domain.InventoryLog{
		VariantID:  variantID,
		Delta:      delta,
		Reason:     reason,
		StockAfter: stock,
		ActorID:    actorID,
	}); err != nil {
		return 0, err
	}

	v, err := s.variants.GetVariant(ctx, variantID)
	if err != nil {
		return 0, err
	}
	if p, err := s.products.GetByID(ctx, v.ProductID); err == nil {
		s.invalidate(ctx, p.Slug)
	}
	return stock, s.publisher.Publish(ctx, domain.TopicProductStockChanged, v.SKU, domain.ProductStockChangedEvent{
		VariantID: variantID,
		SKU:       v.SKU,
		Delta:     delta,
		NewStock:  stock,
		Reason:    reason,
		Timestamp: time.Now().UTC(),
	})
}

// UpdateRating 更新商品评分聚合
func (s *CatalogCommandService) UpdateRating(ctx context.Context, productID uint, avg float64, count int) error {
	if err := s.products.UpdateRating(ctx, productID, avg, count); err != nil {
		return err
	}
	if p, err := s.products.GetByID(ctx, productID); err == nil {
		s.invalidate(ctx, p.Slug)
	}
	return nil
}

// CreateCategory 创建分类
func (s *CatalogCommandService) CreateCategory(ctx context.Context, slug, name string) (*domain.Category, error) {
	c := &domain.Category{Slug: slug, Name: strings.TrimSpace(name)}
	if err := s.taxonomy.CreateCategory(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// CreateTag 创建标签
func (s *CatalogCommandService) CreateTag(ctx context.Context, slug, name string) (*domain.Tag, error) {
	t := &domain.Tag{Slug: slug, Name: strings.TrimSpace(name)}
	if err := s.taxonomy.CreateTag(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *CatalogCommandService) invalidate(ctx context.Context, slugs ...string) {
	if s.cache == nil {
		return
	}
	keys := make([]string, 0, len(slugs))
	for _, slug := range slugs {
		if slug != "" {
			keys = append(keys, detailKey(slug))
		}
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		logger.Warn(ctx, "product cache invalidation failed", "keys", keys, "error", err)
	}
}
