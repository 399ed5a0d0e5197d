package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/aromastore/internal/catalog/domain"
	"github.com/wyfcoding/aromastore/pkg/cache"
	"github.com/wyfcoding/aromastore/pkg/db"
	"github.com/wyfcoding/aromastore/pkg/logger"
	"github.com/wyfcoding/aromastore/pkg/metrics"
)

const (
	maxPageSize     = 100
	detailCacheTTL  = 10 * time.Minute
	detailKeyPrefix = "catalog:product:"
)

func detailKey(slug string) string { return detailKeyPrefix + slug }

// ListProductsQuery 商品列表查询
type ListProductsQuery struct {
	CategorySlug    string
	TagSlug         string
	Query           string
	MinPrice        *decimal.Decimal
	MaxPrice        *decimal.Decimal
	Sort            string
	Page            int
	Size            int
	IncludeInactive bool
}

// CatalogQueryService 商品目录查询服务
type CatalogQueryService struct {
	products domain.ProductRepository
	variants domain.VariantRepository
	taxonomy domain.TaxonomyRepository
	cache    cache.Cache
	metrics  *metrics.Metrics
}

// NewCatalogQueryService 创建商品目录查询服务实例
func NewCatalogQueryService(
	products domain.ProductRepository,
	variants domain.VariantRepository,
	taxonomy domain.TaxonomyRepository,
	c cache.Cache,
	m *metrics.Metrics,
) *CatalogQueryService {
	return &CatalogQueryService{products: products, variants: variants, taxonomy: taxonomy, cache: c, metrics: m}
}

// ListProducts 列出商品
func (s *CatalogQueryService) ListProducts(ctx context.Context, q ListProductsQuery) ([]ProductSummary, int64, error) {
	if !domain.ValidSort(q.Sort) {
		return nil, 0, domain.ErrInvalidSort
	}
	if q.MinPrice != nil && q.MaxPrice != nil && q.MinPrice.GreaterThan(*q.MaxPrice) {
		return nil, 0, domain.ErrInvalidPrice.WithMessage("min_price must not exceed max_price")
	}
	offset, limit := db.Paginate(q.Page, q.Size, maxPageSize)
	products, total, err := s.products.List(ctx, domain.ProductFilter{
		CategorySlug:    q.CategorySlug,
		TagSlug:         q.TagSlug,
		Query:           strings.TrimSpace(q.Query),
		MinPrice:        q.MinPrice,
		MaxPrice:        q.MaxPrice,
		Sort:            q.Sort,
		Offset:          offset,
		Limit:           limit,
		IncludeInactive: q.IncludeInactive,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	return toSummaries(products), total, nil
}

// GetProductBySlug 商品详情，依次读取本地缓存、Redis 与数据库
func (s *CatalogQueryService) GetProductBySlug(ctx context.Context, slug string) (*ProductDetail, error) {
	key := detailKey(slug)
	if s.cache != nil {
		var cached ProductDetail
		err := s.cache.GetJSON(ctx, key, &cached)
		if err == nil {
			s.metrics.RecordCache(true)
			return &cached, nil
		}
		if !errors.Is(err, cache.ErrMiss) {
			logger.Warn(ctx, "product cache read failed", "slug", slug, "error", err)
		}
		s.metrics.RecordCache(false)
	}

	p, err := s.products.GetBySlug(ctx, slug, false)
	if err != nil {
		return nil, err
	}
	detail := ToDetail(p)
	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, key, detail, detailCacheTTL); err != nil {
			logger.Warn(ctx, "product cache write failed", "slug", slug, "error", err)
		}
	}
	return detail, nil
}

// GetProduct 后台按 ID 查询，包含下架商品与规格
func (s *CatalogQueryService) GetProduct(ctx context.Context, id uint) (*ProductDetail, error) {
	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return ToDetail(p), nil
}

// GetProductsByIDs 批量查询在售商品
func (s *CatalogQueryService) GetProductsByIDs(ctx context.Context, ids []uint) ([]*domain.Product, error) {
	return s.products.GetByIDs(ctx, ids)
}

// GetVariant 查询规格
func (s *CatalogQueryService) GetVariant(ctx context.Context, id uint) (*domain.ProductVariant, error) {
	return s.variants.GetVariant(ctx, id)
}

// GetVariants 批量查询规格
func (s *CatalogQueryService) GetVariants(ctx context.Context, ids []uint) ([]*domain.ProductVariant, error) {
	return s.variants.GetVariants(ctx, ids)
}

// ListCategories 分类列表
func (s *CatalogQueryService) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	return s.taxonomy.ListCategories(ctx)
}

// ListTags 标签列表
func (s *CatalogQueryService) ListTags(ctx context.Context) ([]*domain.Tag, error) {
	return s.taxonomy.ListTags(ctx)
}

// ListLowStock 低库存规格
func (s *CatalogQueryService) ListLowStock(ctx context.Context, threshold int) ([]*domain.LowStockItem, error) {
	return s.variants.ListLowStock(ctx, threshold)
}

// CountLowStock 低库存规格数量
func (s *CatalogQueryService) CountLowStock(ctx context.Context, threshold int) (int64, error) {
	return s.variants.CountLowStock(ctx, threshold)
}

// ListInventoryLogs 规格库存流水
func (s *CatalogQueryService) ListInventoryLogs(ctx context.Context, variantID uint, limit int) ([]*domain.InventoryLog, error) {
	if limit <= 0 || limit > maxPageSize {
		limit = maxPageSize
	}
	return s.variants.ListInventoryLogs(ctx, variantID, limit)
}

// FindCandidates 推荐候选：带有任一标签或属于任一分类的在售商品，按 id 游标分页
func (s *CatalogQueryService) FindCandidates(ctx context.Context, f domain.CandidateFilter) ([]*domain.Product, error) {
	return s.products.FindByTagsOrCategories(ctx, f)
}

// TopRated 评分最高的在售商品
func (s *CatalogQueryService) TopRated(ctx context.Context, excludeIDs []uint, limit int) ([]*domain.Product, error) {
	return s.products.TopRated(ctx, excludeIDs, limit)
}

// GetProductEntityBySlug 返回领域实体，供评价、推荐等模块使用
func (s *CatalogQueryService) GetProductEntityBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	return s.products.GetBySlug(ctx, slug, false)
}
