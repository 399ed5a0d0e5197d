package http

import (
	"strconv"

	"github.com/gin-gonic/gin"
	rbac "github.com/wyfcoding/aromastore/internal/admin/domain"
	"github.com/wyfcoding/aromastore/internal/review/application"
	"github.com/wyfcoding/aromastore/pkg/apperr"
	"github.com/wyfcoding/aromastore/pkg/authctx"
	"github.com/wyfcoding/aromastore/pkg/response"
)

// ReviewHandler 评价 HTTP 处理器
type ReviewHandler struct {
	app *application.ReviewApplicationService
}

// NewReviewHandler 创建处理器
func NewReviewHandler(app *application.ReviewApplicationService) *ReviewHandler {
	return &ReviewHandler{app: app}
}

// RegisterRoutes 注册前台路由，authed 分组需已挂载认证中间件
func (h *ReviewHandler) RegisterRoutes(public, authed *gin.RouterGroup) {
	public.GET("/products/:slug/reviews", h.List)
	authed.POST("/products/:slug/reviews", h.Create)
}

// RegisterAdminRoutes 注册后台审核路由
func (h *ReviewHandler) RegisterAdminRoutes(router *gin.RouterGroup, guard authctx.Guard) {
	moderate := guard(string(rbac.PermReviewsModerate))
	router.GET("/reviews", moderate, h.AdminList)
	router.PUT("/reviews/:id/status", moderate, h.SetStatus)
}

// List 评价列表与评分汇总
func (h *ReviewHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "10"))
	ctx := c.Request.Context()
	slug := c.Param("slug")

	items, total, err := h.app.ListReviews(ctx, slug, page, size)
	if err != nil {
		response.Error(c, err)
		return
	}
	summary, err := h.app.Summary(ctx, slug)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{
		"summary": summary,
		"reviews": response.Page{Items: items, Total: total, Page: page, Size: size},
	})
}

// CreateReviewRequest 发表评价参数
type CreateReviewRequest struct {
	Rating int    `json:"rating"`
	Title  string `json:"title" binding:"max=200"`
	Body   string `json:"body" binding:"max=5000"`
}

// Create 发表评价
func (h *ReviewHandler) Create(c *gin.Context) {
	p, err := authctx.Require(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}
	rv, err := h.app.CreateReview(c.Request.Context(), application.CreateReviewCommand{
		UserID:      p.UserID,
		ProductSlug: c.Param("slug"),
		Rating:      req.Rating,
		Title:       req.Title,
		Body:        req.Body,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, rv)
}

// AdminList 后台评价列表
func (h *ReviewHandler) AdminList(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))
	items, total, err := h.app.AdminList(c.Request.Context(), c.Query("status"), page, size)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paged(c, items, total, page, size)
}

// SetStatusRequest 审核参数
type SetStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=VISIBLE HIDDEN"`
}

// SetStatus 审核评价
func (h *ReviewHandler) SetStatus(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, apperr.BadRequest("invalid_id", "invalid review id"))
		return
	}
	var req SetStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}
	rv, err := h.app.SetReviewStatus(c.Request.Context(), uint(id), req.Status)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, rv)
}
