package mysql

import (
	"context"
	"errors"

	"github.com/wyfcoding/aromastore/internal/promotion/domain"
	"github.com/wyfcoding/aromastore/pkg/db"
	"gorm.io/gorm"
)

type couponRepository struct{ db *gorm.DB }

// NewCouponRepository 创建优惠券仓储
func NewCouponRepository(gdb *gorm.DB) domain.CouponRepository {
	return &couponRepository{db: gdb}
}

func (r *couponRepository) first(q *gorm.DB) (*domain.Coupon, error) {
	var c domain.Coupon
	if err := q.First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrCouponNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *couponRepository) GetByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	return r.first(db.Conn(ctx, r.db).Where("code = ?", code))
}

func (r *couponRepository) GetByID(ctx context.Context, id uint) (*domain.Coupon, error) {
	return r.first(db.Conn(ctx, r.db).Where("id = ?", id))
}

func (r *couponRepository) List(ctx context.Context, offset, limit int) ([]*domain.Coupon, int64, error) {
	var (
		items []*domain.Coupon
		total int64
	)
	q := db.Conn(ctx, r.db).Model(&domain.Coupon{})
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Order("id DESC").Offset(offset).Limit(limit).Find(&items).Error
	return items, total, err
}

func (r *couponRepository) Create(ctx context.Context, c *domain.Coupon) error {
	err := db.Conn(ctx, r.db).Create(c).Error
	if db.IsDuplicateKey(err) {
		return domain.ErrCodeTaken
	}
	return err
}

func (r *couponRepository) Update(ctx context.Context, c *domain.Coupon) error {
	err := db.Conn(ctx, r.db).Save(c).Error
	if db.IsDuplicateKey(err) {
		return domain.ErrCodeTaken
	}
	return err
}

func (r *couponRepository) Delete(ctx context.Context, id uint) error {
	res := db.Conn(ctx, r.db).Delete(&domain.Coupon{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrCouponNotFound
	}
	return nil
}

func (r *couponRepository) IncrementUsage(ctx context.Context, id uint) (bool, error) {
	res := db.Conn(ctx, r.db).Model(&domain.Coupon{}).
		Where("id = ? AND (usage_limit = 0 OR used_count < usage_limit)", id).
		Update("used_count", gorm.Expr("used_count + 1"))
	return res.RowsAffected == 1, res.Error
}

func (r *couponRepository) DecrementUsage(ctx context.Context, code string) error {
	return db.Conn(ctx, r.db).Model(&domain.Coupon{}).
		Where("code = ? AND used_count > 0", code).
		Update("used_count", gorm.Expr("used_count - 1")).Error
}
