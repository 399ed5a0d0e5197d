package domain

import (
	"context"
	"time"
)

// Session 登录会话，令牌中的 sid 指向它；删除即吊销
type Session struct {
	ID        string    `json:"id"`
	UserID    uint      `json:"user_id"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SessionStore 会话存储
type SessionStore interface {
	Save(ctx context.Context, s *Session) error
	// Get 不存在或已过期时返回 nil
	Get(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
	// DeleteByUser 删除用户的全部会话，except 非空时保留该会话
	DeleteByUser(ctx context.Context, userID uint, except string) error
}

// StateStore OAuth state 存储，一次性消费
type StateStore interface {
	SaveState(ctx context.Context, state string, ttl time.Duration) error
	// ConsumeState 读取并删除，返回是否存在
	ConsumeState(ctx context.Context, state string) (bool, error)
}
