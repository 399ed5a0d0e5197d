package mysql

import (
	"context"
	"errors"

	"github.com/wyfcoding/aromastore/internal/wishlist/domain"
	"github.com/wyfcoding/aromastore/pkg/db"
	"gorm.io/gorm"
)

type wishlistRepository struct{ db *gorm.DB }

// NewWishlistRepository 创建收藏仓储
func NewWishlistRepository(gdb *gorm.DB) domain.WishlistRepository {
	return &wishlistRepository{db: gdb}
}

func (r *wishlistRepository) Find(ctx context.Context, userID, productID uint) (*domain.WishlistItem, error) {
	var item domain.WishlistItem
	err := db.Conn(ctx, r.db).Where("user_id = ? AND product_id = ?", userID, productID).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *wishlistRepository) Create(ctx context.Context, item *domain.WishlistItem) (*domain.WishlistItem, error) {
	err := db.Conn(ctx, r.db).Create(item).Error
	if db.IsDuplicateKey(err) {
		// 并发添加同一商品时以已有记录为准
		return r.Find(ctx, item.UserID, item.ProductID)
	}
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (r *wishlistRepository) Delete(ctx context.Context, userID, productID uint) error {
	return db.Conn(ctx, r.db).Where("user_id = ? AND product_id = ?", userID, productID).Delete(&domain.WishlistItem{}).Error
}

func (r *wishlistRepository) ListByUser(ctx context.Context, userID uint) ([]*domain.WishlistItem, error) {
	var items []*domain.WishlistItem
	err := db.Conn(ctx, r.db).Where("user_id = ?", userID).Order("created_at DESC").Find(&items).Error
	return items, err
}
