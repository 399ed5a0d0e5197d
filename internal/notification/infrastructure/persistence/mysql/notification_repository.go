package mysql

import (
	"context"
	"errors"
	"time"

	"github.com/wyfcoding/aromastore/internal/notification/domain"
	"github.com/wyfcoding/aromastore/pkg/db"
	"gorm.io/gorm"
)

type notificationRepository struct{ db *gorm.DB }

// NewNotificationRepository 创建通知仓储
func NewNotificationRepository(gdb *gorm.DB) domain.NotificationRepository {
	return &notificationRepository{db: gdb}
}

func (r *notificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	err := db.Conn(ctx, r.db).Create(n).Error
	if db.IsDuplicateKey(err) {
		return domain.ErrDuplicateEvent
	}
	return err
}

func (r *notificationRepository) GetByEventKey(ctx context.Context, key string) (*domain.Notification, error) {
	var n domain.Notification
	err := db.Conn(ctx, r.db).Where("event_key = ?", key).First(&n).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *notificationRepository) MarkSent(ctx context.Context, id uint, at time.Time) error {
	return db.Conn(ctx, r.db).Model(&domain.Notification{}).Where("id = ?", id).Updates(map[string]any{
		"status":   domain.StatusSent,
		"sent_at":  at,
		"error":    "",
		"attempts": gorm.Expr("attempts + 1"),
	}).Error
}

func (r *notificationRepository) MarkFailed(ctx context.Context, id uint, reason string) error {
	return db.Conn(ctx, r.db).Model(&domain.Notification{}).Where("id = ?", id).Updates(map[string]any{
		"status":   domain.StatusFailed,
		"error":    reason,
		"attempts": gorm.Expr("attempts + 1"),
	}).Error
}

func (r *notificationRepository) ListByUser(ctx context.Context, userID uint, offset, limit int) ([]*domain.Notification, int64, error) {
	q := db.Conn(ctx, r.db).Model(&domain.Notification{}).Where("user_id = ?", userID)
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	items := make([]*domain.Notification, 0)
	if total == 0 {
		return items, 0, nil
	}
	err := q.Order("id DESC").Offset(offset).Limit(limit).Find(&items).Error
	return items, total, err
}
