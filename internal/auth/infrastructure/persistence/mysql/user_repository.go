package mysql

import (
	"context"
	"errors"
	"time"

	"github.com/wyfcoding/aromastore/internal/auth/domain"
	"github.com/wyfcoding/aromastore/pkg/db"
	"gorm.io/gorm"
)

type userRepository struct{ db *gorm.DB }

// NewUserRepository 创建用户仓储
func NewUserRepository(gdb *gorm.DB) domain.UserRepository {
	return &userRepository{db: gdb}
}

func (r *userRepository) Create(ctx context.Context, u *domain.User) error {
	err := db.Conn(ctx, r.db).Create(u).Error
	if db.IsDuplicateKey(err) {
		return domain.ErrEmailTaken
	}
	return err
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*domain.User, error) {
	var u domain.User
	err := db.Conn(ctx, r.db).First(&u, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	err := db.Conn(ctx, r.db).Where("email = ?", email).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepository) Save(ctx context.Context, u *domain.User) error {
	return db.Conn(ctx, r.db).Model(&domain.User{}).Where("id = ?", u.ID).Updates(map[string]any{
		"name":          u.Name,
		"password_hash": u.PasswordHash,
		"updated_at":    time.Now(),
	}).Error
}

func (r *userRepository) UpdateRole(ctx context.Context, id uint, role string) error {
	res := db.Conn(ctx, r.db).Model(&domain.User{}).Where("id = ?", id).Update("role", role)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *userRepository) List(ctx context.Context, f domain.UserFilter) ([]*domain.User, int64, error) {
	q := db.Conn(ctx, r.db).Model(&domain.User{})
	if f.Role != "" {
		q = q.Where("role = ?", f.Role)
	}
	if f.Query != "" {
		like := "%" + f.Query + "%"
		q = q.Where("email LIKE ? OR name LIKE ?", like, like)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	users := make([]*domain.User, 0)
	if total == 0 {
		return users, 0, nil
	}
	err := q.Order("id DESC").Offset(f.Offset).Limit(f.Limit).Find(&users).Error
	return users, total, err
}

func (r *userRepository) CountCreatedBetween(ctx context.Context, from, to time.Time) (int64, error) {
	var n int64
	err := db.Conn(ctx, r.db).Model(&domain.User{}).
		Where("created_at >= ? AND created_at < ?", from, to).
		Count(&n).Error
	return n, err
}
