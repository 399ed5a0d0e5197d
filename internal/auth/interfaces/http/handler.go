package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/aromastore/internal/auth/application"
	"github.com/wyfcoding/aromastore/pkg/authctx"
	"github.com/wyfcoding/aromastore/pkg/response"
)

// AuthHandler 认证 HTTP 处理器
type AuthHandler struct {
	app *application.AuthApplicationService
}

// NewAuthHandler 创建处理器
func NewAuthHandler(app *application.AuthApplicationService) *AuthHandler {
	return &AuthHandler{app: app}
}

// RegisterPublicRoutes 注册、登录与第三方登录
func (h *AuthHandler) RegisterPublicRoutes(router *gin.RouterGroup) {
	g := router.Group("/auth")
	g.POST("/register", h.Register)
	g.POST("/login", h.Login)
	g.GET("/oauth/google", h.OAuthStart)
	g.GET("/oauth/google/callback", h.OAuthCallback)
}

// RegisterRoutes 需登录的路由
func (h *AuthHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/auth/logout", h.Logout)
	router.GET("/me", h.Profile)
	router.PUT("/me", h.UpdateProfile)
	router.PUT("/me/password", h.ChangePassword)
}

// Register 注册
func (h *AuthHandler) Register(c *gin.Context) {
	var cmd application.RegisterCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		response.BadRequest(c, err)
		return
	}
	res, err := h.app.Register(c.Request.Context(), cmd)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, res)
}

// Login 登录
func (h *AuthHandler) Login(c *gin.Context) {
	var cmd application.LoginCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		response.BadRequest(c, err)
		return
	}
	res, err := h.app.Login(c.Request.Context(), cmd)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

// OAuthStart 跳转到 Google 授权页
func (h *AuthHandler) OAuthStart(c *gin.Context) {
	url, err := h.app.OAuthStart(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Redirect(http.StatusFound, url)
}

// OAuthCallback Google 回调
func (h *AuthHandler) OAuthCallback(c *gin.Context) {
	res, err := h.app.OAuthCallback(c.Request.Context(), c.Query("state"), c.Query("code"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

// Logout 退出登录
func (h *AuthHandler) Logout(c *gin.Context) {
	p, err := authctx.Require(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.app.Logout(c.Request.Context(), p); err != nil {
		response.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Profile 当前用户资料
func (h *AuthHandler) Profile(c *gin.Context) {
	p, err := authctx.Require(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	user, err := h.app.GetProfile(c.Request.Context(), p.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, user)
}

// UpdateProfile 修改资料
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	p, err := authctx.Require(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var cmd application.UpdateProfileCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		response.BadRequest(c, err)
		return
	}
	user, err := h.app.UpdateProfile(c.Request.Context(), p.UserID, cmd)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, user)
}

// ChangePassword 修改密码
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	p, err := authctx.Require(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var cmd application.ChangePasswordCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		response.BadRequest(c, err)
		return
	}
	if err := h.app.ChangePassword(c.Request.Context(), p, cmd); err != nil {
		response.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
