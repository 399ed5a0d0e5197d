package mysql

import (
	"context"
	"errors"

	"github.com/wyfcoding/aromastore/internal/loyalty/domain"
	"github.com/wyfcoding/aromastore/pkg/db"
	"gorm.io/gorm"
)

type accountRepository struct{ db *gorm.DB }

// NewAccountRepository 创建积分仓储
func NewAccountRepository(gdb *gorm.DB) domain.AccountRepository {
	return &accountRepository{db: gdb}
}

func (r *accountRepository) Find(ctx context.Context, userID uint) (*domain.Account, error) {
	var a domain.Account
	err := db.Conn(ctx, r.db).Where("user_id = ?", userID).First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *accountRepository) GetOrCreate(ctx context.Context, userID uint) (*domain.Account, error) {
	a, err := r.Find(ctx, userID)
	if err != nil || a != nil {
		return a, err
	}
	a = &domain.Account{UserID: userID}
	err = db.Conn(ctx, r.db).Create(a).Error
	if db.IsDuplicateKey(err) {
		return r.Find(ctx, userID)
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (r *accountRepository) AddPoints(ctx context.Context, userID uint, delta, lifetimeDelta int) (int, error) {
	conn := db.Conn(ctx, r.db)
	res := conn.Model(&domain.Account{}).
		Where("user_id = ? AND balance + ? >= 0", userID, delta).
		Updates(map[string]any{
			"balance":  gorm.Expr("balance + ?", delta),
			"lifetime": gorm.Expr("GREATEST(lifetime + ?, 0)", lifetimeDelta),
		})
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, domain.ErrInsufficientPoints
	}
	var balance int
	err := conn.Model(&domain.Account{}).Where("user_id = ?", userID).Pluck("balance", &balance).Error
	return balance, err
}

func (r *accountRepository) CreateLog(ctx context.Context, log *domain.PointLog) error {
	return db.Conn(ctx, r.db).Create(log).Error
}

func (r *accountRepository) ListLogs(ctx context.Context, userID uint, offset, limit int) ([]*domain.PointLog, int64, error) {
	var (
		logs  []*domain.PointLog
		total int64
	)
	q := db.Conn(ctx, r.db).Model(&domain.PointLog{}).Where("user_id = ?", userID)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Order("id DESC").Offset(offset).Limit(limit).Find(&logs).Error
	return logs, total, err
}

func (r *accountRepository) LogsForOrder(ctx context.Context, orderID uint) ([]*domain.PointLog, error) {
	var logs []*domain.PointLog
	err := db.Conn(ctx, r.db).Where("order_id = ?", orderID).Order("id ASC").Find(&logs).Error
	return logs, err
}
