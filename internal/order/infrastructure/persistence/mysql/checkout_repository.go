package mysql

import (
	"context"
	"errors"

	"github.com/wyfcoding/aromastore/internal/order/domain"
	"github.com/wyfcoding/aromastore/pkg/db"
	"gorm.io/gorm"
)

type checkoutRepository struct{ db *gorm.DB }

// NewCheckoutRepository 创建结算会话仓储
func NewCheckoutRepository(gdb *gorm.DB) domain.CheckoutRepository {
	return &checkoutRepository{db: gdb}
}

func (r *checkoutRepository) Create(ctx context.Context, s *domain.CheckoutSession) error {
	return db.Conn(ctx, r.db).Create(s).Error
}

func (r *checkoutRepository) GetByIntent(ctx context.Context, intentID string) (*domain.CheckoutSession, error) {
	var s domain.CheckoutSession
	err := db.Conn(ctx, r.db).Where("payment_intent_id = ?", intentID).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *checkoutRepository) LatestByKey(ctx context.Context, fingerprint string) (*domain.CheckoutSession, error) {
	var s domain.CheckoutSession
	err := db.Conn(ctx, r.db).Where("idempotency_key = ?", fingerprint).
		Order("attempt DESC, id DESC").First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *checkoutRepository) MarkCompleted(ctx context.Context, id, orderID uint) error {
	return db.Conn(ctx, r.db).Model(&domain.CheckoutSession{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": domain.CheckoutCompleted, "order_id": orderID}).Error
}

func (r *checkoutRepository) RecordDecline(ctx context.Context, intentID, reason string) error {
	return db.Conn(ctx, r.db).Model(&domain.CheckoutSession{}).
		Where("payment_intent_id = ? AND status = ?", intentID, domain.CheckoutPending).
		Update("last_failure", reason).Error
}

func (r *checkoutRepository) MarkFailed(ctx context.Context, intentID, reason string) error {
	return db.Conn(ctx, r.db).Model(&domain.CheckoutSession{}).
		Where("payment_intent_id = ? AND status = ?", intentID, domain.CheckoutPending).
		Updates(map[string]any{"status": domain.CheckoutFailed, "failure_reason": reason}).Error
}
