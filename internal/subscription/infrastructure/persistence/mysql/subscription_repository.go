package mysql

import (
	"context"
	"errors"
	"time"

	"github.com/wyfcoding/aromastore/internal/subscription/domain"
	"github.com/wyfcoding/aromastore/pkg/db"
	"gorm.io/gorm"
)

type subscriptionRepository struct{ db *gorm.DB }

// NewSubscriptionRepository 创建订阅仓储
func NewSubscriptionRepository(gdb *gorm.DB) domain.SubscriptionRepository {
	return &subscriptionRepository{db: gdb}
}

func (r *subscriptionRepository) Create(ctx context.Context, s *domain.Subscription) error {
	return db.Conn(ctx, r.db).Create(s).Error
}

func (r *subscriptionRepository) GetByID(ctx context.Context, id uint) (*domain.Subscription, error) {
	var s domain.Subscription
	err := db.Conn(ctx, r.db).First(&s, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrSubscriptionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *subscriptionRepository) ListByUser(ctx context.Context, userID uint) ([]*domain.Subscription, error) {
	var subs []*domain.Subscription
	err := db.Conn(ctx, r.db).Where("user_id = ?", userID).Order("id DESC").Find(&subs).Error
	return subs, err
}

func (r *subscriptionRepository) Save(ctx context.Context, s *domain.Subscription) error {
	return db.Conn(ctx, r.db).Save(s).Error
}

func (r *subscriptionRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]*domain.Subscription, error) {
	var subs []*domain.Subscription
	err := db.Conn(ctx, r.db).
		Where("status = ? AND next_billing_at <= ?", domain.StatusActive, now).
		Order("next_billing_at ASC").
		Limit(limit).
		Find(&subs).Error
	return subs, err
}
