package domain

import "time"

// 事件主题
const (
	TopicProductCreated      = "product.created"
	TopicProductUpdated      = "product.updated"
	TopicProductStockChanged = "product.stock.changed"
)

// ProductCreatedEvent 商品创建事件
type ProductCreatedEvent struct {
	ProductID uint      `json:"product_id"`
	Slug      string    `json:"slug"`
	Name      string    `json:"name"`
	Timestamp time.Time `json:"timestamp"`
}

// ProductUpdatedEvent 商品更新事件
type ProductUpdatedEvent struct {
	ProductID uint      `json:"product_id"`
	Slug      string    `json:"slug"`
	Name      string    `json:"name"`
	IsActive  bool      `json:"is_active"`
	Timestamp time.Time `json:"timestamp"`
}

// ProductStockChangedEvent 库存变更事件
type ProductStockChangedEvent struct {
	VariantID uint      `json:"variant_id"`
	SKU       string    `json:"sku"`
	Delta     int       `json:"delta"`
	NewStock  int       `json:"new_stock"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}
