package application

import (
	"context"

	"github.com/wyfcoding/aromastore/internal/auth/domain"
	"github.com/wyfcoding/aromastore/pkg/authctx"
)

// AuthQueryService 令牌校验与资料查询
type AuthQueryService struct {
	users    domain.UserRepository
	sessions domain.SessionStore
	tokens   *TokenIssuer
}

// NewAuthQueryService 创建认证查询服务
func NewAuthQueryService(users domain.UserRepository, sessions domain.SessionStore, tokens *TokenIssuer) *AuthQueryService {
	return &AuthQueryService{users: users, sessions: sessions, tokens: tokens}
}

// Authenticate 校验令牌并确认会话仍然有效；角色以会话记录为准
func (s *AuthQueryService) Authenticate(ctx context.Context, token string) (*authctx.Principal, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, err
	}
	userID := claims.UserID
	sess, err := s.sessions.Get(ctx, claims.SessionID)
	if err != nil {
		return nil, err
	}
	if sess == nil || sess.UserID != userID {
		return nil, domain.ErrSessionRevoked
	}
	return &authctx.Principal{UserID: userID, Role: sess.Role, SessionID: sess.ID}, nil
}

// GetProfile 当前用户资料
func (s *AuthQueryService) GetProfile(ctx context.Context, userID uint) (*domain.User, error) {
	return s.users.GetByID(ctx, userID)
}
