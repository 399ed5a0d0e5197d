package application

import (
	"context"

	rbac "github.com/wyfcoding/aromastore/internal/admin/domain"
	authdomain "github.com/wyfcoding/aromastore/internal/auth/domain"
	"github.com/wyfcoding/aromastore/pkg/apperr"
	"github.com/wyfcoding/aromastore/pkg/authctx"
	"github.com/wyfcoding/aromastore/pkg/db"
	"github.com/wyfcoding/aromastore/pkg/logger"
)

const maxUserPageSize = 100

var (
	ErrInvalidRole  = apperr.BadRequest("invalid_role", "unknown role")
	ErrSelfDemotion = apperr.Forbidden("self_role_change", "cannot change your own role")
	ErrNotPermitted = apperr.Forbidden("forbidden", "permission denied")
)

// SessionRevoker 吊销会话
type SessionRevoker interface {
	RevokeAll(ctx context.Context, userID uint) error
}

// ListUsersQuery 用户列表查询
type ListUsersQuery struct {
	Role  string `form:"role"`
	Query string `form:"q"`
	Page  int    `form:"page"`
	Size  int    `form:"size"`
}

// UserAdminService 后台用户管理
type UserAdminService struct {
	users    authdomain.UserRepository
	sessions SessionRevoker
}

// NewUserAdminService 创建用户管理服务
func NewUserAdminService(users authdomain.UserRepository, sessions SessionRevoker) *UserAdminService {
	return &UserAdminService{users: users, sessions: sessions}
}

// ListUsers 用户列表
func (s *UserAdminService) ListUsers(ctx context.Context, q ListUsersQuery) ([]*authdomain.User, int64, error) {
	if q.Role != "" {
		if _, ok := rbac.ParseRole(q.Role); !ok {
			return nil, 0, ErrInvalidRole
		}
	}
	offset, limit := db.Paginate(q.Page, q.Size, maxUserPageSize)
	return s.users.List(ctx, authdomain.UserFilter{Role: q.Role, Query: q.Query, Offset: offset, Limit: limit})
}

// SetRole 修改角色并吊销目标用户的会话，使新角色立即生效；不能修改自己的角色
func (s *UserAdminService) SetRole(ctx context.Context, actor *authctx.Principal, userID uint, role string) (*authdomain.User, error) {
	if !rbac.Can(actor.Role, rbac.PermUsersManage) {
		return nil, ErrNotPermitted
	}
	r, ok := rbac.ParseRole(role)
	if !ok {
		return nil, ErrInvalidRole
	}
	if actor.UserID == userID {
		return nil, ErrSelfDemotion
	}
	if err := s.users.UpdateRole(ctx, userID, string(r)); err != nil {
		return nil, err
	}
	if err := s.sessions.RevokeAll(ctx, userID); err != nil {
		logger.Warn(ctx, "revoke sessions after role change failed", "user_id", userID, "error", err)
	}
	logger.Info(ctx, "user role changed", "user_id", userID, "role", r, "actor_id", actor.UserID)
	return s.users.GetByID(ctx, userID)
}
