package application

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	rbac "github.com/wyfcoding/aromastore/internal/admin/domain"
	"github.com/wyfcoding/aromastore/internal/auth/domain"
	"github.com/wyfcoding/aromastore/pkg/apperr"
	"github.com/wyfcoding/aromastore/pkg/authctx"
	"github.com/wyfcoding/aromastore/pkg/logger"
	"golang.org/x/crypto/bcrypt"
)

const oauthStateTTL = 10 * time.Minute

var (
	validate = validator.New()

	errEmailUnverified = apperr.Unauthorized("oauth_email_unverified", "provider account email is not verified")
)

// Transactor 事务执行
type Transactor interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// RegisterCommand 注册
type RegisterCommand struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=8,max=72"`
	Name     string `json:"name" binding:"max=128"`
}

// LoginCommand 登录
type LoginCommand struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// UpdateProfileCommand 修改资料
type UpdateProfileCommand struct {
	Name string `json:"name" binding:"required,max=128"`
}

// ChangePasswordCommand 修改密码
type ChangePasswordCommand struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=8,max=72"`
}

// TokenResult 登录结果
type TokenResult struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresAt   time.Time    `json:"expires_at"`
	User        *domain.User `json:"user"`
}

// AuthCommandService 注册、登录、会话与资料修改
type AuthCommandService struct {
	users      domain.UserRepository
	sessions   domain.SessionStore
	states     domain.StateStore
	tokens     *TokenIssuer
	oauth      domain.OAuthProvider
	tx         Transactor
	publisher  domain.EventPublisher
	bcryptCost int
	now        func() time.Time
}

// NewAuthCommandService 创建认证命令服务；oauth 为空时禁用第三方登录
func NewAuthCommandService(
	users domain.UserRepository,
	sessions domain.SessionStore,
	states domain.StateStore,
	tokens *TokenIssuer,
	oauth domain.OAuthProvider,
	tx Transactor,
	publisher domain.EventPublisher,
	bcryptCost int,
) *AuthCommandService {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &AuthCommandService{
		users:      users,
		sessions:   sessions,
		states:     states,
		tokens:     tokens,
		oauth:      oauth,
		tx:         tx,
		publisher:  publisher,
		bcryptCost: bcryptCost,
		now:        time.Now,
	}
}

func checkCredentials(email, password string) error {
	if err := validate.Var(email, "required,email,max=255"); err != nil {
		return domain.ErrInvalidEmail
	}
	if len(password) < domain.MinPasswordLength {
		return domain.ErrWeakPassword
	}
	return nil
}

// Register 邮箱注册并直接登录
func (s *AuthCommandService) Register(ctx context.Context, cmd RegisterCommand) (*TokenResult, error) {
	email := domain.NormalizeEmail(cmd.Email)
	if err := checkCredentials(email, cmd.Password); err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(cmd.Password), s.bcryptCost)
	if err != nil {
		return nil, err
	}
	user := &domain.User{
		Email:        email,
		PasswordHash: string(hash),
		Name:         cmd.Name,
		Role:         string(rbac.RoleCustomer),
		Source:       domain.SourceCredentials,
	}
	if err := s.create(ctx, user); err != nil {
		return nil, err
	}
	logger.Info(ctx, "user registered", "user_id", user.ID, "source", user.Source)
	return s.issue(ctx, user)
}

// CreateStaff 创建后台账号，供运维命令使用
func (s *AuthCommandService) CreateStaff(ctx context.Context, cmd RegisterCommand, role string) (*domain.User, error) {
	r, ok := rbac.ParseRole(role)
	if !ok {
		return nil, apperr.BadRequest("invalid_role", "unknown role")
	}
	email := domain.NormalizeEmail(cmd.Email)
	if err := checkCredentials(email, cmd.Password); err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(cmd.Password), s.bcryptCost)
	if err != nil {
		return nil, err
	}
	user := &domain.User{
		Email:        email,
		PasswordHash: string(hash),
		Name:         cmd.Name,
		Role:         string(r),
		Source:       domain.SourceCredentials,
	}
	if err := s.create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *AuthCommandService) create(ctx context.Context, user *domain.User) error {
	return s.tx.InTx(ctx, func(ctx context.Context) error {
		existing, err := s.users.GetByEmail(ctx, user.Email)
		if err != nil {
			return err
		}
		if existing != nil {
			return domain.ErrEmailTaken
		}
		if err := s.users.Create(ctx, user); err != nil {
			return err
		}
		return s.publisher.Publish(ctx, domain.TopicUserRegistered, user.Email, domain.UserRegisteredEvent{
			UserID:    user.ID,
			Email:     user.Email,
			Name:      user.Name,
			Role:      user.Role,
			Source:    user.Source,
			Timestamp: s.now(),
		})
	})
}

// Login 邮箱密码登录
func (s *AuthCommandService) Login(ctx context.Context, cmd LoginCommand) (*TokenResult, error) {
	user, err := s.users.GetByEmail(ctx, domain.NormalizeEmail(cmd.Email))
	if err != nil {
		return nil, err
	}
	if user == nil || user.PasswordHash == "" {
		return nil, domain.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(cmd.Password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	return s.issue(ctx, user)
}

func (s *AuthCommandService) issue(ctx context.Context, user *domain.User) (*TokenResult, error) {
	now := s.now()
	sess := &domain.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Role:      user.Role,
		CreatedAt: now,
		ExpiresAt: now.Add(s.tokens.TTL()),
	}
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, err
	}
	token, exp, err := s.tokens.Issue(user.ID, user.Role, sess.ID, now)
	if err != nil {
		return nil, err
	}
	return &TokenResult{AccessToken: token, TokenType: "Bearer", ExpiresAt: exp, User: user}, nil
}

// Logout 吊销当前会话
func (s *AuthCommandService) Logout(ctx context.Context, p *authctx.Principal) error {
	return s.sessions.Delete(ctx, p.SessionID)
}

// UpdateProfile 修改昵称
func (s *AuthCommandService) UpdateProfile(ctx context.Context, userID uint, cmd UpdateProfileCommand) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.Name = cmd.Name
	if err := s.users.Save(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// ChangePassword 修改密码并吊销当前会话以外的全部会话
func (s *AuthCommandService) ChangePassword(ctx context.Context, p *authctx.Principal, cmd ChangePasswordCommand) error {
	user, err := s.users.GetByID(ctx, p.UserID)
	if err != nil {
		return err
	}
	if user.PasswordHash == "" {
		return domain.ErrPasswordNotSet
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(cmd.CurrentPassword)); err != nil {
		return domain.ErrInvalidCredentials
	}
	if len(cmd.NewPassword) < domain.MinPasswordLength {
		return domain.ErrWeakPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(cmd.NewPassword), s.bcryptCost)
	if err != nil {
		return err
	}
	user.PasswordHash = string(hash)
	if err := s.users.Save(ctx, user); err != nil {
		return err
	}
	if err := s.sessions.DeleteByUser(ctx, user.ID, p.SessionID); err != nil {
		return err
	}
	logger.Info(ctx, "password changed", "user_id", user.ID)
	return nil
}

// RevokeAll 吊销用户的全部会话
func (s *AuthCommandService) RevokeAll(ctx context.Context, userID uint) error {
	return s.sessions.DeleteByUser(ctx, userID, "")
}

// OAuthStart 生成 state 并返回授权跳转地址
func (s *AuthCommandService) OAuthStart(ctx context.Context) (string, error) {
	if s.oauth == nil {
		return "", domain.ErrOAuthDisabled
	}
	state := uuid.NewString()
	if err := s.states.SaveState(ctx, state, oauthStateTTL); err != nil {
		return "", err
	}
	return s.oauth.AuthCodeURL(state), nil
}

// OAuthCallback 校验 state、换取身份并登录；邮箱不存在时自动注册
func (s *AuthCommandService) OAuthCallback(ctx context.Context, state, code string) (*TokenResult, error) {
	if s.oauth == nil {
		return nil, domain.ErrOAuthDisabled
	}
	ok, err := s.states.ConsumeState(ctx, state)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrOAuthState
	}
	identity, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, apperr.Unauthorized("oauth_exchange_failed", "could not complete sign in").Wrap(err)
	}
	email := domain.NormalizeEmail(identity.Email)
	if email == "" || !identity.EmailVerified {
		return nil, errEmailUnverified
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		user = &domain.User{
			Email:  email,
			Name:   identity.Name,
			Role:   string(rbac.RoleCustomer),
			Source: domain.SourceGoogle,
		}
		err = s.create(ctx, user)
		if errors.Is(err, domain.ErrEmailTaken) {
			// 并发回调时以先创建者为准
			user, err = s.users.GetByEmail(ctx, email)
			if err == nil && user == nil {
				err = domain.ErrUserNotFound
			}
		}
		if err != nil {
			return nil, err
		}
	}
	return s.issue(ctx, user)
}
