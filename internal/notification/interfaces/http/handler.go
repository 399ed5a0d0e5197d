package http

import (
	"strconv"

	"github.com/gin-gonic/gin"
	rbac "github.com/wyfcoding/aromastore/internal/admin/domain"
	"github.com/wyfcoding/aromastore/internal/notification/application"
	"github.com/wyfcoding/aromastore/pkg/apperr"
	"github.com/wyfcoding/aromastore/pkg/authctx"
	"github.com/wyfcoding/aromastore/pkg/response"
)

// NotificationHandler 后台查看用户通知记录
type NotificationHandler struct {
	app *application.NotificationService
}

// NewNotificationHandler 创建处理器
func NewNotificationHandler(app *application.NotificationService) *NotificationHandler {
	return &NotificationHandler{app: app}
}

// RegisterAdminRoutes 注册后台路由
func (h *NotificationHandler) RegisterAdminRoutes(router *gin.RouterGroup, guard authctx.Guard) {
	router.GET("/users/:id/notifications", guard(string(rbac.PermOrdersRead)), h.ListByUser)
}

// ListByUser 用户通知记录
func (h *NotificationHandler) ListByUser(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		response.Error(c, apperr.BadRequest("invalid_user_id", "invalid user id"))
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))
	items, total, err := h.app.ListByUser(c.Request.Context(), uint(id), page, size)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paged(c, items, total, page, size)
}
