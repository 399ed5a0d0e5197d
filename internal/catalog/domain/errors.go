package domain

import "github.com/wyfcoding/aromastore/pkg/apperr"

var (
	ErrProductNotFound   = apperr.NotFound("product_not_found", "product not found")
	ErrVariantNotFound   = apperr.NotFound("variant_not_found", "product variant not found")
	ErrCategoryNotFound  = apperr.NotFound("category_not_found", "category not found")
	ErrTagNotFound       = apperr.NotFound("tag_not_found", "tag not found")
	ErrSlugTaken         = apperr.Conflict("slug_taken", "slug already in use")
	ErrSKUTaken          = apperr.Conflict("sku_taken", "sku already in use")
	ErrInsufficientStock = apperr.Conflict("insufficient_stock", "insufficient stock")
	ErrInvalidSort       = apperr.BadRequest("invalid_sort", "unsupported sort order")
	ErrInvalidPrice      = apperr.BadRequest("invalid_price", "price must be positive")
)
