package http

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	rbac "github.com/wyfcoding/aromastore/internal/admin/domain"
	"github.com/wyfcoding/aromastore/internal/recommendation/application"
	"github.com/wyfcoding/aromastore/internal/recommendation/domain"
	"github.com/wyfcoding/aromastore/pkg/authctx"
	"github.com/wyfcoding/aromastore/pkg/response"
)

// RecommendationHandler 测验与推荐 HTTP 处理器
type RecommendationHandler struct {
	app *application.RecommendationApplicationService
}

// NewRecommendationHandler 创建处理器
func NewRecommendationHandler(app *application.RecommendationApplicationService) *RecommendationHandler {
	return &RecommendationHandler{app: app}
}

// RegisterPublicRoutes 公开路由；提交测验时若已登录会关联用户
func (h *RecommendationHandler) RegisterPublicRoutes(router *gin.RouterGroup) {
	router.GET("/quiz", h.Questions)
	router.POST("/quiz/submit", h.Submit)
	router.GET("/products/:slug/similar", h.Similar)
}

// RegisterRoutes 需登录的路由
func (h *RecommendationHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/recommendations", h.Personalized)
}

// RegisterAdminRoutes 后台维护题库
func (h *RecommendationHandler) RegisterAdminRoutes(router *gin.RouterGroup, guard authctx.Guard) {
	router.POST("/quiz/questions", guard(string(rbac.PermCatalogWrite)), h.CreateQuestion)
}

func limitParam(c *gin.Context) int {
	n, _ := strconv.Atoi(c.Query("limit"))
	return n
}

// Questions 测验题目
func (h *RecommendationHandler) Questions(c *gin.Context) {
	questions, err := h.app.Questions(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, questions)
}

// Submit 提交测验
func (h *RecommendationHandler) Submit(c *gin.Context) {
	var cmd application.SubmitQuizCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		response.BadRequest(c, err)
		return
	}
	if p, ok := authctx.From(c); ok {
		uid := p.UserID
		cmd.UserID = &uid
	}
	out, err := h.app.SubmitQuiz(c.Request.Context(), cmd)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, out)
}

// Personalized 个性化推荐
func (h *RecommendationHandler) Personalized(c *gin.Context) {
	p, err := authctx.Require(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	recs, err := h.app.Personalized(c.Request.Context(), p.UserID, limitParam(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, recs)
}

// Similar 相似商品
func (h *RecommendationHandler) Similar(c *gin.Context) {
	recs, err := h.app.Similar(c.Request.Context(), c.Param("slug"), limitParam(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, recs)
}

type optionRequest struct {
	Label      string   `json:"label" binding:"required,max=255"`
	Tags       []string `json:"tags"`
	Categories []string `json:"categories"`
	Weight     float64  `json:"weight" binding:"gte=0"`
	Position   int      `json:"position"`
}

type questionRequest struct {
	Prompt   string          `json:"prompt" binding:"required,max=255"`
	Position int             `json:"position"`
	Multiple bool            `json:"multiple"`
	Options  []optionRequest `json:"options" binding:"required,min=2,dive"`
}

// CreateQuestion 新增题目
func (h *RecommendationHandler) CreateQuestion(c *gin.Context) {
	var req questionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}
	q := &domain.QuizQuestion{Prompt: req.Prompt, Position: req.Position, Multiple: req.Multiple}
	for _, o := range req.Options {
		weight := o.Weight
		if weight == 0 {
			weight = 1
		}
		q.Options = append(q.Options, domain.QuizOption{
			Label:      o.Label,
			Tags:       strings.Join(o.Tags, ","),
			Categories: strings.Join(o.Categories, ","),
			Weight:     weight,
			Position:   o.Position,
		})
	}
	if err := h.app.CreateQuestion(c.Request.Context(), q); err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, q)
}
