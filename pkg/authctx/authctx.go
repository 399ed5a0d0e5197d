// Package authctx 在 gin 上下文与 context.Context 中传递已认证用户
package authctx

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/aromastore/pkg/apperr"
)

const ginKey = "principal"

type ctxKey struct{}

// ErrUnauthenticated 请求未携带有效凭证
var ErrUnauthenticated = apperr.Unauthorized("unauthenticated", "authentication required")

// Principal 已认证用户
type Principal struct {
	UserID    uint
	Role      string
	SessionID string
}

// Guard 按权限生成 gin 中间件
type Guard func(permission string) gin.HandlerFunc

// Set 写入 gin 上下文与请求 context
func Set(c *gin.Context, p *Principal) {
	c.Set(ginKey, p)
	c.Request = c.Request.WithContext(WithPrincipal(c.Request.Context(), p))
}

// From 读取 gin 上下文中的用户
func From(c *gin.Context) (*Principal, bool) {
	v, ok := c.Get(ginKey)
	if !ok {
		return nil, false
	}
	p, ok := v.(*Principal)
	return p, ok && p != nil
}

// Require 读取用户，不存在时返回未认证错误
func Require(c *gin.Context) (*Principal, error) {
	p, ok := From(c)
	if !ok {
		return nil, ErrUnauthenticated
	}
	return p, nil
}

// WithPrincipal 写入 context
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

// FromContext 读取 context 中的用户
func FromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(ctxKey{}).(*Principal)
	return p, ok && p != nil
}
