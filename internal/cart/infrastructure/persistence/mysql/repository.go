package mysql

import (
	"context"
	"errors"

	"github.com/wyfcoding/aromastore/internal/cart/domain"
	"github.com/wyfcoding/aromastore/pkg/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type cartRepository struct{ db *gorm.DB }

// NewCartRepository 创建购物车仓储
func NewCartRepository(gdb *gorm.DB) domain.CartRepository {
	return &cartRepository{db: gdb}
}

func (r *cartRepository) Find(ctx context.Context, userID uint) (*domain.Cart, error) {
	var cart domain.Cart
	err := db.Conn(ctx, r.db).
		Preload("Items", func(tx *gorm.DB) *gorm.DB { return tx.Order("id ASC") }).
		Where("user_id = ?", userID).First(&cart).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *cartRepository) GetOrCreate(ctx context.Context, userID uint) (*domain.Cart, error) {
	cart, err := r.Find(ctx, userID)
	if err != nil || cart != nil {
		return cart, err
	}
	cart = &domain.Cart{UserID: userID}
	err = db.Conn(ctx, r.db).Create(cart).Error
	if db.IsDuplicateKey(err) {
		return r.Find(ctx, userID)
	}
	if err != nil {
		return nil, err
	}
	return cart, nil
}

// SaveItem 按 (cart_id, variant_id) 写入，冲突时覆盖数量
func (r *cartRepository) SaveItem(ctx context.Context, item *domain.CartItem) error {
	return db.Conn(ctx, r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "cart_id"}, {Name: "variant_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"quantity", "updated_at"}),
	}).Create(item).Error
}

func (r *cartRepository) DeleteItem(ctx context.Context, cartID, variantID uint) (bool, error) {
	res := db.Conn(ctx, r.db).Where("cart_id = ? AND variant_id = ?", cartID, variantID).Delete(&domain.CartItem{})
	return res.RowsAffected > 0, res.Error
}

func (r *cartRepository) Clear(ctx context.Context, cartID uint) (int64, error) {
	res := db.Conn(ctx, r.db).Where("cart_id = ?", cartID).Delete(&domain.CartItem{})
	return res.RowsAffected, res.Error
}
