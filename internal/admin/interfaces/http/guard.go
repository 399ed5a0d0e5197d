package http

import (
	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/aromastore/internal/admin/application"
	rbac "github.com/wyfcoding/aromastore/internal/admin/domain"
	"github.com/wyfcoding/aromastore/pkg/authctx"
	"github.com/wyfcoding/aromastore/pkg/response"
)

// RequirePermission 要求已认证用户拥有指定权限，需挂在认证中间件之后
func RequirePermission(permission string) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := authctx.Require(c)
		if err != nil {
			response.Error(c, err)
			return
		}
		if !rbac.Can(p.Role, rbac.Permission(permission)) {
			response.Error(c, application.ErrNotPermitted)
			return
		}
		c.Next()
	}
}

// RequireStaff 要求后台角色
func RequireStaff() gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := authctx.Require(c)
		if err != nil {
			response.Error(c, err)
			return
		}
		if !rbac.IsStaff(p.Role) {
			response.Error(c, application.ErrNotPermitted)
			return
		}
		c.Next()
	}
}

var _ authctx.Guard = RequirePermission
