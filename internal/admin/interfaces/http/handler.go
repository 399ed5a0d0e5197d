package http

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/aromastore/internal/admin/application"
	rbac "github.com/wyfcoding/aromastore/internal/admin/domain"
	"github.com/wyfcoding/aromastore/pkg/apperr"
	"github.com/wyfcoding/aromastore/pkg/authctx"
	"github.com/wyfcoding/aromastore/pkg/response"
)

// AdminHandler 后台统计与用户管理处理器
type AdminHandler struct {
	analytics *application.AnalyticsService
	users     *application.UserAdminService
}

// NewAdminHandler 创建处理器
func NewAdminHandler(analytics *application.AnalyticsService, users *application.UserAdminService) *AdminHandler {
	return &AdminHandler{analytics: analytics, users: users}
}

// RegisterRoutes 注册后台路由，router 需已挂载认证与 RequireStaff
func (h *AdminHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/me/permissions", h.Permissions)

	stats := router.Group("/analytics", RequirePermission(string(rbac.PermAnalyticsRead)))
	stats.GET("/summary", h.Summary)
	stats.GET("/sales", h.SalesByDay)
	stats.GET("/top-products", h.TopProducts)

	users := router.Group("/users", RequirePermission(string(rbac.PermUsersManage)))
	users.GET("", h.ListUsers)
	users.PUT("/:id/role", h.SetRole)
}

type rangeQuery struct {
	From *time.Time `form:"from" time_format:"2006-01-02"`
	To   *time.Time `form:"to" time_format:"2006-01-02"`
}

func bindRange(c *gin.Context) (application.Range, bool) {
	var q rangeQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, err)
		return application.Range{}, false
	}
	r, err := application.NormalizeRange(q.From, q.To, time.Now())
	if err != nil {
		response.Error(c, err)
		return application.Range{}, false
	}
	return r, true
}

// Permissions 当前后台用户的权限
func (h *AdminHandler) Permissions(c *gin.Context) {
	p, err := authctx.Require(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"role": p.Role, "permissions": rbac.Permissions(p.Role)})
}

// Summary 经营概览
func (h *AdminHandler) Summary(c *gin.Context) {
	r, ok := bindRange(c)
	if !ok {
		return
	}
	d, err := h.analytics.Summary(c.Request.Context(), r)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, d)
}

// SalesByDay 按日营收
func (h *AdminHandler) SalesByDay(c *gin.Context) {
	r, ok := bindRange(c)
	if !ok {
		return
	}
	rows, err := h.analytics.SalesByDay(c.Request.Context(), r)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, rows)
}

// TopProducts 畅销商品
func (h *AdminHandler) TopProducts(c *gin.Context) {
	r, ok := bindRange(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))
	rows, err := h.analytics.TopProducts(c.Request.Context(), r, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, rows)
}

// ListUsers 用户列表
func (h *AdminHandler) ListUsers(c *gin.Context) {
	var q application.ListUsersQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, err)
		return
	}
	users, total, err := h.users.ListUsers(c.Request.Context(), q)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paged(c, users, total, q.Page, q.Size)
}

type setRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

// SetRole 修改用户角色
func (h *AdminHandler) SetRole(c *gin.Context) {
	p, err := authctx.Require(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		response.Error(c, apperr.BadRequest("invalid_user_id", "invalid user id"))
		return
	}
	var req setRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}
	user, err := h.users.SetRole(c.Request.Context(), p, uint(id), req.Role)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, user)
}
