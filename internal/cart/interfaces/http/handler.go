package http

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/aromastore/internal/cart/application"
	"github.com/wyfcoding/aromastore/pkg/apperr"
	"github.com/wyfcoding/aromastore/pkg/authctx"
	"github.com/wyfcoding/aromastore/pkg/response"
)

// CartHandler 购物车 HTTP 处理器
type CartHandler struct {
	app *application.CartApplicationService
}

// NewCartHandler 创建购物车 HTTP 处理器
func NewCartHandler(app *application.CartApplicationService) *CartHandler {
	return &CartHandler{app: app}
}

// RegisterRoutes 注册路由，router 需已挂载认证中间件
func (h *CartHandler) RegisterRoutes(router *gin.RouterGroup) {
	api := router.Group("/cart")
	{
		api.GET("", h.GetCart)
		api.DELETE("", h.ClearCart)
		api.POST("/items", h.AddItem)
		api.PUT("/items/:variant_id", h.UpdateQuantity)
		api.DELETE("/items/:variant_id", h.RemoveItem)
	}
}

func variantID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("variant_id"), 10, 64)
	if err != nil || id == 0 {
		response.Error(c, apperr.BadRequest("invalid_variant_id", "invalid variant id"))
		return 0, false
	}
	return uint(id), true
}

func (h *CartHandler) GetCart(c *gin.Context) {
	p, err := authctx.Require(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	view, err := h.app.GetCart(c.Request.Context(), p.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, view)
}

func (h *CartHandler) AddItem(c *gin.Context) {
	p, err := authctx.Require(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var cmd application.AddItemCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		response.BadRequest(c, err)
		return
	}
	cmd.UserID = p.UserID
	if err := h.app.AddItem(c.Request.Context(), cmd); err != nil {
		response.Error(c, err)
		return
	}
	h.respondCart(c, p.UserID)
}

func (h *CartHandler) UpdateQuantity(c *gin.Context) {
	p, err := authctx.Require(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	id, ok := variantID(c)
	if !ok {
		return
	}
	var cmd application.UpdateQuantityCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		response.BadRequest(c, err)
		return
	}
	cmd.UserID = p.UserID
	cmd.VariantID = id
	if err := h.app.UpdateQuantity(c.Request.Context(), cmd); err != nil {
		response.Error(c, err)
		return
	}
	h.respondCart(c, p.UserID)
}

func (h *CartHandler) RemoveItem(c *gin.Context) {
	p, err := authctx.Require(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	id, ok := variantID(c)
	if !ok {
		return
	}
	if err := h.app.RemoveItem(c.Request.Context(), p.UserID, id); err != nil {
		response.Error(c, err)
		return
	}
	h.respondCart(c, p.UserID)
}

func (h *CartHandler) ClearCart(c *gin.Context) {
	p, err := authctx.Require(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.app.ClearCart(c.Request.Context(), p.UserID); err != nil {
		response.Error(c, err)
		return
	}
	h.respondCart(c, p.UserID)
}

func (h *CartHandler) respondCart(c *gin.Context, userID uint) {
	view, err := h.app.GetCart(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, view)
}
