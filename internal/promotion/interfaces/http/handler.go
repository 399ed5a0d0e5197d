package http

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	rbac "github.com/wyfcoding/aromastore/internal/admin/domain"
	"github.com/wyfcoding/aromastore/internal/promotion/application"
	"github.com/wyfcoding/aromastore/internal/promotion/domain"
	"github.com/wyfcoding/aromastore/pkg/apperr"
	"github.com/wyfcoding/aromastore/pkg/authctx"
	"github.com/wyfcoding/aromastore/pkg/response"
)

var errInvalidID = apperr.BadRequest("invalid_id", "invalid id")

// PromotionHandler 优惠券 HTTP 处理器
type PromotionHandler struct {
	app *application.PromotionApplicationService
}

// NewPromotionHandler 创建处理器
func NewPromotionHandler(app *application.PromotionApplicationService) *PromotionHandler {
	return &PromotionHandler{app: app}
}

// RegisterRoutes 注册前台路由（需登录）
func (h *PromotionHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/coupons/validate", h.Validate)
}

// RegisterAdminRoutes 注册后台路由
func (h *PromotionHandler) RegisterAdminRoutes(router *gin.RouterGroup, guard authctx.Guard) {
	write := guard(string(rbac.PermPromotionsWrite))
	router.GET("/coupons", write, h.List)
	router.GET("/coupons/:id", write, h.Get)
	router.POST("/coupons", write, h.Create)
	router.PUT("/coupons/:id", write, h.Update)
	router.DELETE("/coupons/:id", write, h.Delete)
}

// ValidateRequest 试算请求
type ValidateRequest struct {
	Code       string          `json:"code" binding:"required"`
	Subtotal   decimal.Decimal `json:"subtotal"`
	ItemCount  int             `json:"item_count" binding:"min=0"`
	Categories []string        `json:"categories"`
}

// Validate 试算优惠券，不占用次数
func (h *PromotionHandler) Validate(c *gin.Context) {
	p, err := authctx.Require(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req ValidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}
	discount, _, err := h.app.Evaluate(c.Request.Context(), req.Code, domain.CouponContext{
		UserID:     p.UserID,
		Subtotal:   req.Subtotal,
		ItemCount:  req.ItemCount,
		Categories: req.Categories,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, discount)
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		response.Error(c, errInvalidID)
		return 0, false
	}
	return uint(id), true
}

func (h *PromotionHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))
	items, total, err := h.app.ListCoupons(c.Request.Context(), page, size)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paged(c, items, total, page, size)
}

func (h *PromotionHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	coupon, err := h.app.GetCoupon(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, coupon)
}

func (h *PromotionHandler) Create(c *gin.Context) {
	var in application.CouponInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.BadRequest(c, err)
		return
	}
	coupon, err := h.app.CreateCoupon(c.Request.Context(), in)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, coupon)
}

func (h *PromotionHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var in application.CouponInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.BadRequest(c, err)
		return
	}
	coupon, err := h.app.UpdateCoupon(c.Request.Context(), id, in)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, coupon)
}

func (h *PromotionHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.app.DeleteCoupon(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"id": id, "deleted": true})
}
