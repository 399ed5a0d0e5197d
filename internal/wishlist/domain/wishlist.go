package domain

import (
	"context"
	"time"
)

// WishlistItem 收藏项，(user_id, product_id) 唯一
type WishlistItem struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"column:user_id;not null;uniqueIndex:uk_wishlist_user_product" json:"user_id"`
	ProductID uint      `gorm:"column:product_id;not null;uniqueIndex:uk_wishlist_user_product;index" json:"product_id"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
}

func (WishlistItem) TableName() string { return "wishlist_items" }

// WishlistRepository 收藏仓储
type WishlistRepository interface {
	Find(ctx context.Context, userID, productID uint) (*WishlistItem, error)
	// Create 写入收藏；已存在时返回已有记录
	Create(ctx context.Context, item *WishlistItem) (*WishlistItem, error)
	Delete(ctx context.Context, userID, productID uint) error
	ListByUser(ctx context.Context, userID uint) ([]*WishlistItem, error)
}
