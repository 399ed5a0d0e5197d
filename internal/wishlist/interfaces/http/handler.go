package http

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/aromastore/internal/wishlist/application"
	"github.com/wyfcoding/aromastore/pkg/apperr"
	"github.com/wyfcoding/aromastore/pkg/authctx"
	"github.com/wyfcoding/aromastore/pkg/response"
)

// WishlistHandler 收藏 HTTP 处理器
type WishlistHandler struct {
	app *application.WishlistApplicationService
}

// NewWishlistHandler 创建处理器
func NewWishlistHandler(app *application.WishlistApplicationService) *WishlistHandler {
	return &WishlistHandler{app: app}
}

// RegisterRoutes 注册路由，router 需已挂载认证中间件
func (h *WishlistHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/wishlist", h.List)
	router.POST("/wishlist/:product_id", h.Add)
	router.DELETE("/wishlist/:product_id", h.Remove)
}

func productID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("product_id"), 10, 64)
	if err != nil || id == 0 {
		response.Error(c, apperr.BadRequest("invalid_product_id", "invalid product id"))
		return 0, false
	}
	return uint(id), true
}

// List 收藏列表
func (h *WishlistHandler) List(c *gin.Context) {
	p, err := authctx.Require(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	items, err := h.app.List(c.Request.Context(), p.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, items)
}

// Add 收藏
func (h *WishlistHandler) Add(c *gin.Context) {
	p, err := authctx.Require(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	id, ok := productID(c)
	if !ok {
		return
	}
	item, err := h.app.Add(c.Request.Context(), p.UserID, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, item)
}

// Remove 取消收藏
func (h *WishlistHandler) Remove(c *gin.Context) {
	p, err := authctx.Require(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	id, ok := productID(c)
	if !ok {
		return
	}
	if err := h.app.Remove(c.Request.Context(), p.UserID, id); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"product_id": id, "removed": true})
}
