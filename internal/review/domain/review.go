package domain

import (
	"context"
	"time"

	"github.com/wyfcoding/aromastore/pkg/apperr"
)

// 评价状态
const (
	StatusVisible = "VISIBLE"
	StatusHidden  = "HIDDEN"
)

// Review 商品评价，每个用户对每个商品仅一条
type Review struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	ProductID        uint      `gorm:"column:product_id;not null;uniqueIndex:uk_review_product_user;index" json:"product_id"`
	UserID           uint      `gorm:"column:user_id;not null;uniqueIndex:uk_review_product_user" json:"user_id"`
	Rating           int       `gorm:"column:rating;not null" json:"rating"`
	Title            string    `gorm:"column:title;type:varchar(200)" json:"title"`
	Body             string    `gorm:"column:body;type:text" json:"body"`
	VerifiedPurchase bool      `gorm:"column:verified_purchase;not null;default:false" json:"verified_purchase"`
	Status           string    `gorm:"column:status;type:varchar(16);not null;index" json:"status"`
	CreatedAt        time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt        time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (Review) TableName() string { return "reviews" }

// Summary 评分汇总
type Summary struct {
	Average   float64     `json:"average"`
	Count     int         `json:"count"`
	Histogram map[int]int `json:"histogram"`
}

var (
	ErrInvalidRating   = apperr.BadRequest("invalid_rating", "rating must be between 1 and 5")
	ErrAlreadyReviewed = apperr.Conflict("already_reviewed", "you have already reviewed this product")
	ErrReviewNotFound  = apperr.NotFound("review_not_found", "review not found")
	ErrInvalidStatus   = apperr.BadRequest("invalid_review_status", "status must be VISIBLE or HIDDEN")
)

// ValidRating 评分范围 1-5
func ValidRating(r int) bool { return r >= 1 && r <= 5 }

// NewSummary 由各星级数量计算平均分，保留两位小数
func NewSummary(histogram map[int]int) Summary {
	s := Summary{Histogram: map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0}}
	total := 0
	for star, n := range histogram {
		if !ValidRating(star) {
			continue
		}
		s.Histogram[star] = n
		s.Count += n
		total += star * n
	}
	if s.Count > 0 {
		avg := float64(total) / float64(s.Count)
		s.Average = float64(int(avg*100+0.5)) / 100
	}
	return s
}

// ReviewRepository 评价仓储
type ReviewRepository interface {
	Create(ctx context.Context, r *Review) error
	GetByID(ctx context.Context, id uint) (*Review, error)
	ListVisible(ctx context.Context, productID uint, offset, limit int) ([]*Review, int64, error)
	List(ctx context.Context, status string, offset, limit int) ([]*Review, int64, error)
	UpdateStatus(ctx context.Context, id uint, status string) error
	// Histogram 可见评价的星级分布
	Histogram(ctx context.Context, productID uint) (map[int]int, error)
}
