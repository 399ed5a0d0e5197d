package http

import (
	"context"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	rbac "github.com/wyfcoding/aromastore/internal/admin/domain"
	"github.com/wyfcoding/aromastore/internal/subscription/application"
	"github.com/wyfcoding/aromastore/internal/subscription/domain"
	"github.com/wyfcoding/aromastore/pkg/apperr"
	"github.com/wyfcoding/aromastore/pkg/authctx"
	"github.com/wyfcoding/aromastore/pkg/response"
)

var errInvalidID = apperr.BadRequest("invalid_id", "invalid id")

// SubscriptionHandler 订阅 HTTP 处理器
type SubscriptionHandler struct {
	app *application.SubscriptionApplicationService
}

// NewSubscriptionHandler 创建处理器
func NewSubscriptionHandler(app *application.SubscriptionApplicationService) *SubscriptionHandler {
	return &SubscriptionHandler{app: app}
}

// RegisterRoutes 注册需登录的路由
func (h *SubscriptionHandler) RegisterRoutes(router *gin.RouterGroup) {
	g := router.Group("/subscriptions")
	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/:id", h.Get)
	g.POST("/:id/pause", h.action(h.app.Pause))
	g.POST("/:id/resume", h.action(h.app.Resume))
	g.POST("/:id/skip", h.action(h.app.Skip))
	g.POST("/:id/cancel", h.action(h.app.Cancel))
	g.PUT("/:id/payment-method", h.UpdatePaymentMethod)
}

// RegisterAdminRoutes 注册后台路由
func (h *SubscriptionHandler) RegisterAdminRoutes(router *gin.RouterGroup, guard authctx.Guard) {
	router.POST("/subscriptions/renew", guard(string(rbac.PermOrdersWrite)), h.RenewNow)
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		response.Error(c, errInvalidID)
		return 0, false
	}
	return uint(id), true
}

// List 我的订阅
func (h *SubscriptionHandler) List(c *gin.Context) {
	p, err := authctx.Require(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	subs, err := h.app.ListMine(c.Request.Context(), p.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, subs)
}

// Create 创建订阅
func (h *SubscriptionHandler) Create(c *gin.Context) {
	p, err := authctx.Require(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var cmd application.CreateCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		response.BadRequest(c, err)
		return
	}
	cmd.UserID = p.UserID
	sub, err := h.app.Create(c.Request.Context(), cmd)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, sub)
}

// Get 订阅详情
func (h *SubscriptionHandler) Get(c *gin.Context) {
	h.action(h.app.Get)(c)
}

type subAction func(ctx context.Context, userID, id uint) (*domain.Subscription, error)

func (h *SubscriptionHandler) action(fn subAction) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := authctx.Require(c)
		if err != nil {
			response.Error(c, err)
			return
		}
		id, ok := parseID(c)
		if !ok {
			return
		}
		sub, err := fn(c.Request.Context(), p.UserID, id)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Success(c, sub)
	}
}

// PaymentMethodRequest 更换扣款方式
type PaymentMethodRequest struct {
	PaymentMethodID string `json:"payment_method_id" binding:"required,max=64"`
}

// UpdatePaymentMethod 更换扣款方式
func (h *SubscriptionHandler) UpdatePaymentMethod(c *gin.Context) {
	p, err := authctx.Require(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req PaymentMethodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}
	sub, err := h.app.UpdatePaymentMethod(c.Request.Context(), p.UserID, id, req.PaymentMethodID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, sub)
}

// RenewNow 立即执行一次续订任务
func (h *SubscriptionHandler) RenewNow(c *gin.Context) {
	report, err := h.app.RenewDue(c.Request.Context(), time.Now())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, report)
}
