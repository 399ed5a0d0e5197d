package domain

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Category 商品分类
type Category struct {
	ID        uint      `gorm:"primaryKey"`
	Slug      string    `gorm:"column:slug;type:varchar(64);uniqueIndex;not null"`
	Name      string    `gorm:"column:name;type:varchar(128);not null"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (Category) TableName() string { return "categories" }

// Tag 商品标签（香调、功效等），推荐打分以标签为主要维度
type Tag struct {
	ID        uint      `gorm:"primaryKey"`
	Slug      string    `gorm:"column:slug;type:varchar(64);uniqueIndex;not null"`
	Name      string    `gorm:"column:name;type:varchar(128);not null"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (Tag) TableName() string { return "tags" }

// Product 商品
type Product struct {
	ID          uint             `gorm:"primaryKey"`
	Slug        string           `gorm:"column:slug;type:varchar(128);uniqueIndex;not null"`
	Name        string           `gorm:"column:name;type:varchar(255);not null"`
	Description string           `gorm:"column:description;type:text"`
	CategoryID  uint             `gorm:"column:category_id;index;not null"`
	Category    *Category        `gorm:"foreignKey:CategoryID"`
	Tags        []Tag            `gorm:"many2many:product_tags;"`
	Variants    []ProductVariant `gorm:"foreignKey:ProductID"`
	ImageURL    string           `gorm:"column:image_url;type:varchar(512)"`
	IsActive    bool             `gorm:"column:is_active;not null;index"`
	AvgRating   float64          `gorm:"column:avg_rating;not null;default:0"`
	ReviewCount int              `gorm:"column:review_count;not null;default:0"`
	CreatedAt   time.Time        `gorm:"column:created_at;index"`
	UpdatedAt   time.Time        `gorm:"column:updated_at"`
	DeletedAt   gorm.DeletedAt   `gorm:"column:deleted_at;index"`
}

func (Product) TableName() string { return "products" }

// MinPrice 在售规格中的最低价，没有在售规格时返回零值
func (p *Product) MinPrice() decimal.Decimal {
	var lowest decimal.Decimal
	found := false
	for _, v := range p.Variants {
		if !v.IsActive {
			continue
		}
		if !found || v.Price.LessThan(lowest) {
			lowest = v.Price
			found = true
		}
	}
	return lowest
}

// TagSlugs 商品标签 slug 列表
func (p *Product) TagSlugs() []string {
	out := make([]string, 0, len(p.Tags))
	for _, t := range p.Tags {
		out = append(out, t.Slug)
	}
	return out
}

// CategorySlug 分类 slug，未加载分类时为空
func (p *Product) CategorySlug() string {
	if p.Category == nil {
		return ""
	}
	return p.Category.Slug
}

// ProductVariant 商品规格（容量、套装等），库存以规格为单位
type ProductVariant struct {
	ID             uint                `gorm:"primaryKey"`
	ProductID      uint                `gorm:"column:product_id;index;not null"`
	SKU            string              `gorm:"column:sku;type:varchar(32);uniqueIndex;not null"`
	Name           string              `gorm:"column:name;type:varchar(128);not null"`
	Price          decimal.Decimal     `gorm:"column:price;type:decimal(12,2);not null"`
	CompareAtPrice decimal.NullDecimal `gorm:"column:compare_at_price;type:decimal(12,2)"`
	Stock          int                 `gorm:"column:stock;not null;default:0"`
	IsActive       bool                `gorm:"column:is_active;not null"`
	CreatedAt      time.Time           `gorm:"column:created_at"`
	UpdatedAt      time.Time           `gorm:"column:updated_at"`
}

func (ProductVariant) TableName() string { return "product_variants" }

// InventoryLog 库存流水
type InventoryLog struct {
	ID         uint      `gorm:"primaryKey"`
	VariantID  uint      `gorm:"column:variant_id;index;not null"`
	Delta      int       `gorm:"column:delta;not null"`
	Reason     string    `gorm:"column:reason;type:varchar(64);not null"`
	StockAfter int       `gorm:"column:stock_after;not null"`
	ActorID    uint      `gorm:"column:actor_id"`
	CreatedAt  time.Time `gorm:"column:created_at;index"`
}

func (InventoryLog) TableName() string { return "inventory_logs" }

// 库存变动原因
const (
	ReasonOrder        = "order"
	ReasonCancel       = "order_cancel"
	ReasonAdjustment   = "manual_adjustment"
	ReasonRestock      = "restock"
	ReasonCompensation = "checkout_compensation"
)

// LowStockItem 低库存规格
type LowStockItem struct {
	VariantID   uint   `json:"variant_id"`
	SKU         string `json:"sku"`
	VariantName string `json:"variant_name"`
	ProductID   uint   `json:"product_id"`
	ProductName string `json:"product_name"`
	Stock       int    `json:"stock"`
}
