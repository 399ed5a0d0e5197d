package domain

import (
	"time"

	"github.com/wyfcoding/aromastore/pkg/apperr"
)

// MaxQuantity 单行商品数量上限
const MaxQuantity = 99

var (
	ErrInvalidQuantity    = apperr.BadRequest("invalid_quantity", "quantity must be between 1 and 99")
	ErrItemNotFound       = apperr.NotFound("cart_item_not_found", "cart item not found")
	ErrVariantUnavailable = apperr.BadRequest("variant_unavailable", "product variant is not available")
)

// Cart 购物车，每个用户一个
type Cart struct {
	ID        uint       `gorm:"primaryKey"`
	UserID    uint       `gorm:"column:user_id;uniqueIndex;not null"`
	Items     []CartItem `gorm:"foreignKey:CartID"`
	CreatedAt time.Time  `gorm:"column:created_at"`
	UpdatedAt time.Time  `gorm:"column:updated_at"`
}

func (Cart) TableName() string { return "carts" }

// CartItem 购物车行，同一规格只占一行
type CartItem struct {
	ID        uint      `gorm:"primaryKey"`
	CartID    uint      `gorm:"column:cart_id;not null;uniqueIndex:uk_cart_variant"`
	VariantID uint      `gorm:"column:variant_id;not null;uniqueIndex:uk_cart_variant"`
	ProductID uint      `gorm:"column:product_id;not null"`
	Quantity  int       `gorm:"column:quantity;not null"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (CartItem) TableName() string { return "cart_items" }

// Find 查找规格对应的行
func (c *Cart) Find(variantID uint) *CartItem {
	for i := range c.Items {
		if c.Items[i].VariantID == variantID {
			return &c.Items[i]
		}
	}
	return nil
}

// ItemCount 商品总件数
func (c *Cart) ItemCount() int {
	n := 0
	for _, it := range c.Items {
		n += it.Quantity
	}
	return n
}

// ValidQuantity 数量是否在 1..MaxQuantity 内
func ValidQuantity(qty int) bool {
	return qty >= 1 && qty <= MaxQuantity
}
