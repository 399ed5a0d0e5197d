package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// 商品排序方式
const (
	SortNewest    = "newest"
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
	SortRating    = "rating"
)

// ValidSort 判断排序方式是否受支持，空串视为 newest
func ValidSort(s string) bool {
	switch s {
	case "", SortNewest, SortPriceAsc, SortPriceDesc, SortRating:
		return true
	}
	return false
}

// ProductFilter 商品列表筛选条件
type ProductFilter struct {
	CategorySlug    string
	TagSlug         string
	Query           string
	MinPrice        *decimal.Decimal
	MaxPrice        *decimal.Decimal
	Sort            string
	Offset          int
	Limit           int
	IncludeInactive bool
}

// CandidateFilter 推荐候选查询条件，按 id 升序游标分页
type CandidateFilter struct {
	TagSlugs      []string
	CategorySlugs []string
	ExcludeIDs    []uint
	AfterID       uint
	Limit         int
}

// ProductRepository 商品仓储；实现需从 context 中取用事务
type ProductRepository interface {
	List(ctx context.Context, filter ProductFilter) ([]*Product, int64, error)
	GetBySlug(ctx context.Context, slug string, includeInactive bool) (*Product, error)
	GetByID(ctx context.Context, id uint) (*Product, error)
	GetByIDs(ctx context.Context, ids []uint) ([]*Product, error)
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id uint) error
	ReplaceTags(ctx context.Context, p *Product, tags []Tag) error
	UpdateRating(ctx context.Context, productID uint, avg float64, count int) error

	// FindByTagsOrCategories 在售且带有任一标签或属于任一分类的商品，排除 ExcludeIDs，取 id 大于 AfterID 的一页
	FindByTagsOrCategories(ctx context.Context, f CandidateFilter) ([]*Product, error)
	// TopRated 按评分降序的在售商品
	TopRated(ctx context.Context, excludeIDs []uint, limit int) ([]*Product, error)
}

// VariantRepository 规格与库存仓储
type VariantRepository interface {
	GetVariant(ctx context.Context, id uint) (*ProductVariant, error)
	GetVariants(ctx context.Context, ids []uint) ([]*ProductVariant, error)
	SaveVariant(ctx context.Context, v *ProductVariant) error
	// AddStock 条件更新 stock = stock + delta 且结果不小于 0，返回更新后的库存
	AddStock(ctx context.Context, variantID uint, delta int) (int, error)
	CreateInventoryLog(ctx context.Context, log *InventoryLog) error
	ListInventoryLogs(ctx context.Context, variantID uint, limit int) ([]*InventoryLog, error)
	ListLowStock(ctx context.Context, threshold int) ([]*LowStockItem, error)
	CountLowStock(ctx context.Context, threshold int) (int64, error)
}

// TaxonomyRepository 分类与标签仓储
type TaxonomyRepository interface {
	ListCategories(ctx context.Context) ([]*Category, error)
	CreateCategory(ctx context.Context, c *Category) error
	GetCategoryBySlug(ctx context.Context, slug string) (*Category, error)
	ListTags(ctx context.Context) ([]*Tag, error)
	CreateTag(ctx context.Context, t *Tag) error
	GetTagsBySlugs(ctx context.Context, slugs []string) ([]Tag, error)
}

// EventPublisher 事件发布者接口
type EventPublisher interface {
	Publish(ctx context.Context, topic, key string, event any) error
}
