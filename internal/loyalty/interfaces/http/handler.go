package http

import (
	"strconv"

	"github.com/gin-gonic/gin"
	rbac "github.com/wyfcoding/aromastore/internal/admin/domain"
	"github.com/wyfcoding/aromastore/internal/loyalty/application"
	"github.com/wyfcoding/aromastore/pkg/authctx"
	"github.com/wyfcoding/aromastore/pkg/response"
)

// LoyaltyHandler 积分 HTTP 处理器
type LoyaltyHandler struct {
	app *application.LoyaltyApplicationService
}

// NewLoyaltyHandler 创建处理器
func NewLoyaltyHandler(app *application.LoyaltyApplicationService) *LoyaltyHandler {
	return &LoyaltyHandler{app: app}
}

// RegisterRoutes 注册路由，router 需已挂载认证中间件
func (h *LoyaltyHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/loyalty", h.Account)
	router.GET("/loyalty/history", h.History)
}

// RegisterAdminRoutes 注册后台路由
func (h *LoyaltyHandler) RegisterAdminRoutes(router *gin.RouterGroup, guard authctx.Guard) {
	router.POST("/loyalty/adjust", guard(string(rbac.PermLoyaltyAdjust)), h.Adjust)
}

func (h *LoyaltyHandler) Account(c *gin.Context) {
	p, err := authctx.Require(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	view, err := h.app.GetAccount(c.Request.Context(), p.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, view)
}

func (h *LoyaltyHandler) History(c *gin.Context) {
	p, err := authctx.Require(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))
	logs, total, err := h.app.History(c.Request.Context(), p.UserID, page, size)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paged(c, logs, total, page, size)
}

func (h *LoyaltyHandler) Adjust(c *gin.Context) {
	p, err := authctx.Require(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var cmd application.AdjustCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		response.BadRequest(c, err)
		return
	}
	cmd.ActorID = p.UserID
	view, err := h.app.Adjust(c.Request.Context(), cmd)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, view)
}
