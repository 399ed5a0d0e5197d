package mysql

import (
	"context"
	"errors"

	"github.com/wyfcoding/aromastore/internal/review/domain"
	"github.com/wyfcoding/aromastore/pkg/db"
	"gorm.io/gorm"
)

type reviewRepository struct{ db *gorm.DB }

// NewReviewRepository 创建评价仓储
func NewReviewRepository(gdb *gorm.DB) domain.ReviewRepository {
	return &reviewRepository{db: gdb}
}

func (r *reviewRepository) Create(ctx context.Context, rv *domain.Review) error {
	err := db.Conn(ctx, r.db).Create(rv).Error
	if db.IsDuplicateKey(err) {
		return domain.ErrAlreadyReviewed
	}
	return err
}

func (r *reviewRepository) GetByID(ctx context.Context, id uint) (*domain.Review, error) {
	var rv domain.Review
	if err := db.Conn(ctx, r.db).First(&rv, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrReviewNotFound
		}
		return nil, err
	}
	return &rv, nil
}

func (r *reviewRepository) ListVisible(ctx context.Context, productID uint, offset, limit int) ([]*domain.Review, int64, error) {
	q := db.Conn(ctx, r.db).Model(&domain.Review{}).Where("product_id = ? AND status = ?", productID, domain.StatusVisible)
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []*domain.Review
	err := q.Order("verified_purchase DESC").Order("created_at DESC").Offset(offset).Limit(limit).Find(&out).Error
	return out, total, err
}

func (r *reviewRepository) List(ctx context.Context, status string, offset, limit int) ([]*domain.Review, int64, error) {
	q := db.Conn(ctx, r.db).Model(&domain.Review{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []*domain.Review
	err := q.Order("created_at DESC").Offset(offset).Limit(limit).Find(&out).Error
	return out, total, err
}

func (r *reviewRepository) UpdateStatus(ctx context.Context, id uint, status string) error {
	res := db.Conn(ctx, r.db).Model(&domain.Review{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrReviewNotFound
	}
	return nil
}

type starCount struct {
	Rating int
	Count  int
}

func (r *reviewRepository) Histogram(ctx context.Context, productID uint) (map[int]int, error) {
	var rows []starCount
	err := db.Conn(ctx, r.db).Model(&domain.Review{}).
		Select("rating, COUNT(*) AS count").
		Where("product_id = ? AND status = ?", productID, domain.StatusVisible).
		Group("rating").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[int]int, len(rows))
	for _, row := range rows {
		out[row.Rating] = row.Count
	}
	return out, nil
}
