package http

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/aromastore/pkg/authctx"
	"github.com/wyfcoding/aromastore/pkg/response"
)

// Authenticator 校验访问令牌
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*authctx.Principal, error)
}

func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// RequireAuth 要求有效令牌
func RequireAuth(a Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			response.Error(c, authctx.ErrUnauthenticated)
			return
		}
		p, err := a.Authenticate(c.Request.Context(), token)
		if err != nil {
			response.Error(c, err)
			return
		}
		authctx.Set(c, p)
		c.Next()
	}
}

// OptionalAuth 携带有效令牌时写入用户，否则按匿名继续
func OptionalAuth(a Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := bearerToken(c); token != "" {
			if p, err := a.Authenticate(c.Request.Context(), token); err == nil {
				authctx.Set(c, p)
			}
		}
		c.Next()
	}
}
