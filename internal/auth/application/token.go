package application

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/wyfcoding/aromastore/internal/auth/domain"
	wjwt "github.com/wyfcoding/pkg/jwt"
)

// Claims 访问令牌中与鉴权相关的字段
type Claims struct {
	UserID    uint
	Role      string
	SessionID string
	ExpiresAt time.Time
}

// TokenIssuer HS256 令牌签发与校验，载荷沿用 wyfcoding/pkg/jwt 的 MyCustomClaims，jti 存会话 ID
type TokenIssuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

// NewTokenIssuer 创建令牌签发器
func NewTokenIssuer(secret, issuer string, ttl time.Duration) *TokenIssuer {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenIssuer{secret: []byte(secret), issuer: issuer, ttl: ttl}
}

// TTL 令牌有效期
func (t *TokenIssuer) TTL() time.Duration { return t.ttl }

// Issue 签发令牌
func (t *TokenIssuer) Issue(userID uint, role, sessionID string, now time.Time) (string, time.Time, error) {
	exp := now.Add(t.ttl)
	claims := wjwt.MyCustomClaims{
		UserID: uint64(userID),
		Roles:  []string{role},
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sessionID,
			Subject:   strconv.FormatUint(uint64(userID), 10),
			Issuer:    t.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Parse 校验签名、算法、签发方与过期时间
func (t *TokenIssuer) Parse(token string) (*Claims, error) {
	c, err := wjwt.ParseToken(token, string(t.secret))
	if err != nil {
		if errors.Is(err, wjwt.ErrTokenExpired) {
			return nil, domain.ErrInvalidToken.WithMessage("token expired")
		}
		return nil, domain.ErrInvalidToken.Wrap(err)
	}
	if c.Issuer != t.issuer || c.ExpiresAt == nil || c.ID == "" || c.UserID == 0 {
		return nil, domain.ErrInvalidToken
	}
	claims := &Claims{
		UserID:    uint(c.UserID),
		SessionID: c.ID,
		ExpiresAt: c.ExpiresAt.Time,
	}
	if len(c.Roles) > 0 {
		claims.Role = c.Roles[0]
	}
	return claims, nil
}
