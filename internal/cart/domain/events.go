package domain

import "time"

const (
	TopicItemAdded   = "cart.item.added"
	TopicItemRemoved = "cart.item.removed"
	TopicCleared     = "cart.cleared"
)

// CartItemAddedEvent 购物车添加商品事件
type CartItemAddedEvent struct {
	CartID    uint      `json:"cart_id"`
	UserID    uint      `json:"user_id"`
	VariantID uint      `json:"variant_id"`
	ProductID uint      `json:"product_id"`
	Quantity  int       `json:"quantity"`
	Timestamp time.Time `json:"timestamp"`
}

// CartItemRemovedEvent 购物车移除商品事件
type CartItemRemovedEvent struct {
	CartID    uint      `json:"cart_id"`
	UserID    uint      `json:"user_id"`
	VariantID uint      `json:"variant_id"`
	Timestamp time.Time `json:"timestamp"`
}

// CartClearedEvent 购物车清空事件
type CartClearedEvent struct {
	CartID    uint      `json:"cart_id"`
	UserID    uint      `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
}
