// Package domain 用户、会话与认证错误
package domain

import (
	"context"
	"strings"
	"time"

	"github.com/wyfcoding/aromastore/pkg/apperr"
)

// 注册来源
const (
	SourceCredentials = "credentials"
	SourceGoogle      = "google"
)

const MinPasswordLength = 8

var (
	ErrUserNotFound       = apperr.NotFound("user_not_found", "user not found")
	ErrEmailTaken         = apperr.Conflict("email_taken", "email already registered")
	ErrInvalidEmail       = apperr.BadRequest("invalid_email", "invalid email address")
	ErrWeakPassword       = apperr.BadRequest("weak_password", "password must be at least 8 characters")
	ErrInvalidCredentials = apperr.Unauthorized("invalid_credentials", "invalid email or password")
	ErrInvalidToken       = apperr.Unauthorized("invalid_token", "invalid or expired token")
	ErrSessionRevoked     = apperr.Unauthorized("session_revoked", "session has been revoked")
	ErrPasswordNotSet     = apperr.BadRequest("password_not_set", "account signs in with an external provider")
	ErrOAuthState         = apperr.BadRequest("invalid_oauth_state", "oauth state is invalid or expired")
	ErrOAuthDisabled      = apperr.BadRequest("oauth_disabled", "oauth provider is not configured")
)

// User 用户
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Email        string    `gorm:"column:email;type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"column:password_hash;type:varchar(255)" json:"-"`
	Name         string    `gorm:"column:name;type:varchar(128)" json:"name"`
	Role         string    `gorm:"column:role;type:varchar(16);not null;index" json:"role"`
	Source       string    `gorm:"column:source;type:varchar(16);not null" json:"source"`
	CreatedAt    time.Time `gorm:"column:created_at;index" json:"created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (User) TableName() string { return "users" }

// NormalizeEmail 去空白并转小写
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// UserFilter 用户列表过滤
type UserFilter struct {
	Role   string
	Query  string
	Offset int
	Limit  int
}

// UserRepository 用户仓储
type UserRepository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id uint) (*User, error)
	// GetByEmail 不存在时返回 nil
	GetByEmail(ctx context.Context, email string) (*User, error)
	Save(ctx context.Context, u *User) error
	UpdateRole(ctx context.Context, id uint, role string) error
	List(ctx context.Context, f UserFilter) ([]*User, int64, error)
	CountCreatedBetween(ctx context.Context, from, to time.Time) (int64, error)
}

// EventPublisher 事件发布
type EventPublisher interface {
	Publish(ctx context.Context, topic, key string, event any) error
}
