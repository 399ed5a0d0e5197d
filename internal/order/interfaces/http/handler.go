package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	rbac "github.com/wyfcoding/aromastore/internal/admin/domain"
	"github.com/wyfcoding/aromastore/internal/order/application"
	"github.com/wyfcoding/aromastore/internal/payment/infrastructure/webhook"
	"github.com/wyfcoding/aromastore/pkg/authctx"
	"github.com/wyfcoding/aromastore/pkg/logger"
	"github.com/wyfcoding/aromastore/pkg/response"
)

// OrderHandler 结算与订单 HTTP 处理器
type OrderHandler struct {
	app *application.OrderApplicationService
}

// NewOrderHandler 创建处理器
func NewOrderHandler(app *application.OrderApplicationService) *OrderHandler {
	return &OrderHandler{app: app}
}

// RegisterRoutes 注册需登录的路由
func (h *OrderHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/checkout/quote", h.Quote)
	router.POST("/checkout", h.StartCheckout)
	router.POST("/checkout/confirm", h.Confirm)
	router.GET("/orders", h.ListMine)
	router.GET("/orders/:order_no", h.Get)
	router.POST("/orders/:order_no/cancel", h.Cancel)
}

// RegisterWebhookRoutes 注册支付回调，不经过登录校验
func (h *OrderHandler) RegisterWebhookRoutes(router *gin.RouterGroup) {
	router.POST("/webhooks/payment", h.Webhook)
}

// RegisterAdminRoutes 注册后台路由
func (h *OrderHandler) RegisterAdminRoutes(router *gin.RouterGroup, guard authctx.Guard) {
	read := guard(string(rbac.PermOrdersRead))
	write := guard(string(rbac.PermOrdersWrite))
	router.GET("/orders", read, h.List)
	router.GET("/orders/:order_no", read, h.Get)
	router.PUT("/orders/:order_no/status", write, h.UpdateStatus)
	router.POST("/orders/:order_no/cancel", write, h.Cancel)
}

// Quote 试算应付金额
func (h *OrderHandler) Quote(c *gin.Context) {
	p, err := authctx.Require(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var cmd application.QuoteCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		response.BadRequest(c, err)
		return
	}
	cmd.UserID = p.UserID
	q, err := h.app.PreviewQuote(c.Request.Context(), cmd)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, q)
}

// StartCheckout 发起结算，返回支付意图
func (h *OrderHandler) StartCheckout(c *gin.Context) {
	p, err := authctx.Require(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var cmd application.StartCheckoutCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		response.BadRequest(c, err)
		return
	}
	cmd.UserID = p.UserID
	res, err := h.app.StartCheckout(c.Request.Context(), cmd)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, res)
}

// ConfirmRequest 支付确认请求
type ConfirmRequest struct {
	PaymentIntentID string `json:"payment_intent_id" binding:"required"`
}

// Confirm 客户端完成支付后确认
func (h *OrderHandler) Confirm(c *gin.Context) {
	p, err := authctx.Require(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req ConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}
	o, err := h.app.ConfirmPayment(c.Request.Context(), req.PaymentIntentID, p.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, o)
}

// Webhook 支付服务回调
func (h *OrderHandler) Webhook(c *gin.Context) {
	payload, err := c.GetRawData()
	if err != nil {
		response.BadRequest(c, err)
		return
	}
	if err := h.app.HandleWebhook(c.Request.Context(), payload, c.GetHeader(webhook.SignatureHeader)); err != nil {
		logger.Warn(c.Request.Context(), "payment webhook rejected", "error", err)
		response.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListMine 我的订单
func (h *OrderHandler) ListMine(c *gin.Context) {
	p, err := authctx.Require(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))
	orders, total, err := h.app.ListMyOrders(c.Request.Context(), p.UserID, page, size)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paged(c, orders, total, page, size)
}

// Get 订单详情
func (h *OrderHandler) Get(c *gin.Context) {
	p, err := authctx.Require(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	o, err := h.app.GetOrder(c.Request.Context(), c.Param("order_no"), application.Viewer{UserID: p.UserID, Role: p.Role})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, o)
}

// Cancel 取消订单，前台与后台共用
func (h *OrderHandler) Cancel(c *gin.Context) {
	p, err := authctx.Require(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var cmd application.CancelOrderCommand
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&cmd); err != nil {
			response.BadRequest(c, err)
			return
		}
	}
	cmd.OrderNo = c.Param("order_no")
	cmd.UserID = p.UserID
	cmd.Role = p.Role
	o, err := h.app.CancelOrder(c.Request.Context(), cmd)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, o)
}

// List 后台订单列表
func (h *OrderHandler) List(c *gin.Context) {
	var q application.ListOrdersQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, err)
		return
	}
	if q.Page == 0 {
		q.Page = 1
	}
	if q.Size == 0 {
		q.Size = 20
	}
	orders, total, err := h.app.ListOrders(c.Request.Context(), q)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paged(c, orders, total, q.Page, q.Size)
}

// UpdateStatus 修改订单状态
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	p, err := authctx.Require(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var cmd application.UpdateStatusCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		response.BadRequest(c, err)
		return
	}
	cmd.OrderNo = c.Param("order_no")
	cmd.ActorID = p.UserID
	cmd.ActorRole = p.Role
	o, err := h.app.UpdateStatus(c.Request.Context(), cmd)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, o)
}
