package http

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	rbac "github.com/wyfcoding/aromastore/internal/admin/domain"
	"github.com/wyfcoding/aromastore/internal/catalog/application"
	"github.com/wyfcoding/aromastore/pkg/apperr"
	"github.com/wyfcoding/aromastore/pkg/authctx"
	"github.com/wyfcoding/aromastore/pkg/response"
)

var errInvalidID = apperr.BadRequest("invalid_id", "invalid id")

// CatalogHandler 商品目录 HTTP 处理器
type CatalogHandler struct {
	app *application.CatalogApplicationService
}

// NewCatalogHandler 创建 HTTP 处理器实例
func NewCatalogHandler(app *application.CatalogApplicationService) *CatalogHandler {
	return &CatalogHandler{app: app}
}

// RegisterRoutes 注册前台路由
func (h *CatalogHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/products", h.ListProducts)
	router.GET("/products/:slug", h.GetProduct)
	router.GET("/categories", h.ListCategories)
	router.GET("/tags", h.ListTags)
}

// RegisterAdminRoutes 注册后台路由
func (h *CatalogHandler) RegisterAdminRoutes(router *gin.RouterGroup, guard authctx.Guard) {
	catalog := guard(string(rbac.PermCatalogWrite))
	inventory := guard(string(rbac.PermInventoryWrite))

	router.GET("/products", catalog, h.AdminListProducts)
	router.GET("/products/:id", catalog, h.AdminGetProduct)
	router.POST("/products", catalog, h.CreateProduct)
	router.PUT("/products/:id", catalog, h.UpdateProduct)
	router.DELETE("/products/:id", catalog, h.DeleteProduct)
	router.POST("/products/:id/variants", catalog, h.UpsertVariant)
	router.PUT("/products/:id/variants/:variant_id", catalog, h.UpsertVariant)
	router.POST("/categories", catalog, h.CreateCategory)
	router.POST("/tags", catalog, h.CreateTag)

	router.POST("/inventory/:variant_id/adjust", inventory, h.AdjustStock)
	router.GET("/inventory/:variant_id/logs", inventory, h.InventoryLogs)
	router.GET("/inventory/low-stock", inventory, h.LowStock)
}

// ListProductsRequest 商品列表查询参数
type ListProductsRequest struct {
	Category string `form:"category"`
	Tag      string `form:"tag"`
	Q        string `form:"q" binding:"max=100"`
	MinPrice string `form:"min_price"`
	MaxPrice string `form:"max_price"`
	Sort     string `form:"sort"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	Size     int    `form:"size" binding:"omitempty,min=1,max=100"`
}

func (r ListProductsRequest) toQuery(includeInactive bool) (application.ListProductsQuery, error) {
	q := application.ListProductsQuery{
		CategorySlug:    r.Category,
		TagSlug:         r.Tag,
		Query:           r.Q,
		Sort:            r.Sort,
		Page:            r.Page,
		Size:            r.Size,
		IncludeInactive: includeInactive,
	}
	var err error
	if q.MinPrice, err = parsePrice(r.MinPrice); err != nil {
		return q, err
	}
	if q.MaxPrice, err = parsePrice(r.MaxPrice); err != nil {
		return q, err
	}
	return q, nil
}

func parsePrice(s string) (*decimal.Decimal, error) {
	if s == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		return nil, apperr.BadRequest("invalid_price", "invalid price filter")
	}
	return &d, nil
}

func (h *CatalogHandler) listProducts(c *gin.Context, includeInactive bool) {
	var req ListProductsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err)
		return
	}
	q, err := req.toQuery(includeInactive)
	if err != nil {
		response.Error(c, err)
		return
	}
	items, total, err := h.app.ListProducts(c.Request.Context(), q)
	if err != nil {
		response.Error(c, err)
		return
	}
	page, size := q.Page, q.Size
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 20
	}
	response.Paged(c, items, total, page, size)
}

// ListProducts 前台商品列表
func (h *CatalogHandler) ListProducts(c *gin.Context) { h.listProducts(c, false) }

// AdminListProducts 后台商品列表，包含下架商品
func (h *CatalogHandler) AdminListProducts(c *gin.Context) { h.listProducts(c, true) }

// GetProduct 商品详情
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	detail, err := h.app.GetProductBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, detail)
}

// AdminGetProduct 后台商品详情
func (h *CatalogHandler) AdminGetProduct(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	detail, err := h.app.GetProduct(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, detail)
}

// ListCategories 分类列表
func (h *CatalogHandler) ListCategories(c *gin.Context) {
	out, err := h.app.ListCategories(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, out)
}

// ListTags 标签列表
func (h *CatalogHandler) ListTags(c *gin.Context) {
	out, err := h.app.ListTags(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, out)
}

// VariantRequest 规格参数
type VariantRequest struct {
	SKU            string           `json:"sku" binding:"required,sku"`
	Name           string           `json:"name" binding:"required,max=128"`
	Price          decimal.Decimal  `json:"price" binding:"required"`
	CompareAtPrice *decimal.Decimal `json:"compare_at_price"`
	Stock          int              `json:"stock" binding:"min=0"`
	IsActive       *bool            `json:"is_active"`
}

func (r VariantRequest) input() application.VariantInput {
	active := true
	if r.IsActive != nil {
		active = *r.IsActive
	}
	return application.VariantInput{
		SKU:            r.SKU,
		Name:           r.Name,
		Price:          r.Price,
		CompareAtPrice: r.CompareAtPrice,
		Stock:          r.Stock,
		IsActive:       active,
	}
}

// ProductRequest 商品参数
type ProductRequest struct {
	Slug        string           `json:"slug" binding:"required,slug,max=128"`
	Name        string           `json:"name" binding:"required,max=255"`
	Description string           `json:"description"`
	Category    string           `json:"category" binding:"required"`
	Tags        []string         `json:"tags"`
	ImageURL    string           `json:"image_url" binding:"omitempty,url"`
	IsActive    *bool            `json:"is_active"`
	Variants    []VariantRequest `json:"variants" binding:"dive"`
}

func (r ProductRequest) active() bool {
	return r.IsActive == nil || *r.IsActive
}

// CreateProduct 创建商品
func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}
	p, _ := authctx.From(c)
	cmd := application.CreateProductCommand{
		Slug:         req.Slug,
		Name:         req.Name,
		Description:  req.Description,
		CategorySlug: req.Category,
		TagSlugs:     req.Tags,
		ImageURL:     req.ImageURL,
		IsActive:     req.active(),
	}
	if p != nil {
		cmd.ActorID = p.UserID
	}
	for _, v := range req.Variants {
		cmd.Variants = append(cmd.Variants, v.input())
	}
	detail, err := h.app.CreateProduct(c.Request.Context(), cmd)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, detail)
}

// UpdateProduct 更新商品
func (h *CatalogHandler) UpdateProduct(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}
	detail, err := h.app.UpdateProduct(c.Request.Context(), application.UpdateProductCommand{
		ID:           id,
		Slug:         req.Slug,
		Name:         req.Name,
		Description:  req.Description,
		CategorySlug: req.Category,
		TagSlugs:     req.Tags,
		ImageURL:     req.ImageURL,
		IsActive:     req.active(),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, detail)
}

// DeleteProduct 删除商品
func (h *CatalogHandler) DeleteProduct(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	if err := h.app.DeleteProduct(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"deleted": id})
}

// UpsertVariant 新增或修改规格
func (h *CatalogHandler) UpsertVariant(c *gin.Context) {
	productID, ok := uintParam(c, "id")
	if !ok {
		return
	}
	var variantID uint
	if c.Param("variant_id") != "" {
		if variantID, ok = uintParam(c, "variant_id"); !ok {
			return
		}
	}
	var req VariantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}
	cmd := application.UpsertVariantCommand{ProductID: productID, VariantID: variantID, VariantInput: req.input()}
	if p, ok := authctx.From(c); ok {
		cmd.ActorID = p.UserID
	}
	v, err := h.app.UpsertVariant(c.Request.Context(), cmd)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, v)
}

// CreateTaxonomyRequest 分类/标签参数
type CreateTaxonomyRequest struct {
	Slug string `json:"slug" binding:"required,slug,max=64"`
	Name string `json:"name" binding:"required,max=128"`
}

// CreateCategory 创建分类
func (h *CatalogHandler) CreateCategory(c *gin.Context) {
	var req CreateTaxonomyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}
	out, err := h.app.CreateCategory(c.Request.Context(), req.Slug, req.Name)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, out)
}

// CreateTag 创建标签
func (h *CatalogHandler) CreateTag(c *gin.Context) {
	var req CreateTaxonomyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}
	out, err := h.app.CreateTag(c.Request.Context(), req.Slug, req.Name)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, out)
}

// AdjustStockRequest 库存调整参数
type AdjustStockRequest struct {
	Delta  int    `json:"delta" binding:"required"`
	Reason string `json:"reason" binding:"max=64"`
}

// AdjustStock 调整库存
func (h *CatalogHandler) AdjustStock(c *gin.Context) {
	variantID, ok := uintParam(c, "variant_id")
	if !ok {
		return
	}
	var req AdjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}
	cmd := application.AdjustStockCommand{VariantID: variantID, Delta: req.Delta, Reason: req.Reason}
	if p, ok := authctx.From(c); ok {
		cmd.ActorID = p.UserID
	}
	stock, err := h.app.AdjustStock(c.Request.Context(), cmd)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"variant_id": variantID, "stock": stock})
}

// InventoryLogs 库存流水
func (h *CatalogHandler) InventoryLogs(c *gin.Context) {
	variantID, ok := uintParam(c, "variant_id")
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	logs, err := h.app.ListInventoryLogs(c.Request.Context(), variantID, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, logs)
}

// LowStock 低库存列表
func (h *CatalogHandler) LowStock(c *gin.Context) {
	threshold, err := strconv.Atoi(c.DefaultQuery("threshold", "5"))
	if err != nil || threshold < 0 {
		response.Error(c, apperr.BadRequest("invalid_threshold", "threshold must be a non-negative integer"))
		return
	}
	items, err := h.app.ListLowStock(c.Request.Context(), threshold)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, items)
}

func uintParam(c *gin.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || v == 0 {
		response.Error(c, errInvalidID)
		return 0, false
	}
	return uint(v), true
}
