package application

import (
	"github.com/shopspring/decimal"
	"github.com/wyfcoding/aromastore/internal/catalog/domain"
)

// ProductSummary 商品列表项
type ProductSummary struct {
	ID          uint            `json:"id"`
	Slug        string          `json:"slug"`
	Name        string          `json:"name"`
	ImageURL    string          `json:"image_url"`
	Category    string          `json:"category"`
	Tags        []string        `json:"tags"`
	PriceFrom   decimal.Decimal `json:"price_from"`
	AvgRating   float64         `json:"avg_rating"`
	ReviewCount int             `json:"review_count"`
	InStock     bool            `json:"in_stock"`
	IsActive    bool            `json:"is_active"`
}

// VariantDTO 商品规格
type VariantDTO struct {
	ID             uint                `json:"id"`
	SKU            string              `json:"sku"`
	Name           string              `json:"name"`
	Price          decimal.Decimal     `json:"price"`
	CompareAtPrice decimal.NullDecimal `json:"compare_at_price"`
	Stock          int                 `json:"stock"`
	IsActive       bool                `json:"is_active"`
}

// ProductDetail 商品详情
type ProductDetail struct {
	ProductSummary
	Description string       `json:"description"`
	CategoryID  uint         `json:"category_id"`
	Variants    []VariantDTO `json:"variants"`
}

// ToSummary 转换为列表项
func ToSummary(p *domain.Product) ProductSummary {
	inStock := false
	for _, v := range p.Variants {
		if v.IsActive && v.Stock > 0 {
			inStock = true
			break
		}
	}
	return ProductSummary{
		ID:          p.ID,
		Slug:        p.Slug,
		Name:        p.Name,
		ImageURL:    p.ImageURL,
		Category:    p.CategorySlug(),
		Tags:        p.TagSlugs(),
		PriceFrom:   p.MinPrice(),
		AvgRating:   p.AvgRating,
		ReviewCount: p.ReviewCount,
		InStock:     inStock,
		IsActive:    p.IsActive,
	}
}

// ToDetail 转换为详情
func ToDetail(p *domain.Product) *ProductDetail {
	d := &ProductDetail{
		ProductSummary: ToSummary(p),
		Description:    p.Description,
		CategoryID:     p.CategoryID,
		Variants:       make([]VariantDTO, 0, len(p.Variants)),
	}
	for _, v := range p.Variants {
		d.Variants = append(d.Variants, VariantDTO{
			ID:             v.ID,
			SKU:            v.SKU,
			Name:           v.Name,
			Price:          v.Price,
			CompareAtPrice: v.CompareAtPrice,
			Stock:          v.Stock,
			IsActive:       v.IsActive,
		})
	}
	return d
}

func toSummaries(products []*domain.Product) []ProductSummary {
	out := make([]ProductSummary, 0, len(products))
	for _, p := range products {
		out = append(out, ToSummary(p))
	}
	return out
}
