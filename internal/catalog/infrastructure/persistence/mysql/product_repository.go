package mysql

import (
	"context"
	"errors"

	"github.com/wyfcoding/aromastore/internal/catalog/domain"
	"github.com/wyfcoding/aromastore/pkg/db"
	"gorm.io/gorm"
)

type productRepository struct{ db *gorm.DB }

// NewProductRepository 创建商品仓储
func NewProductRepository(gdb *gorm.DB) domain.ProductRepository {
	return &productRepository{db: gdb}
}

func (r *productRepository) conn(ctx context.Context) *gorm.DB {
	return db.Conn(ctx, r.db)
}

func withDetail(q *gorm.DB, includeInactive bool) *gorm.DB {
	q = q.Preload("Category").Preload("Tags")
	if includeInactive {
		return q.Preload("Variants")
	}
	return q.Preload("Variants", "is_active = ?", true)
}

const minVariantPrice = "(SELECT MIN(v.price) FROM product_variants v WHERE v.product_id = products.id AND v.is_active = TRUE)"

func (r *productRepository) List(ctx context.Context, f domain.ProductFilter) ([]*domain.Product, int64, error) {
	q := r.conn(ctx).Model(&domain.Product{})
	if !f.IncludeInactive {
		q = q.Where("products.is_active = ?", true)
	}
	if f.CategorySlug != "" {
		q = q.Where("products.category_id IN (?)",
			r.db.WithContext(ctx).Model(&domain.Category{}).Select("id").Where("slug = ?", f.CategorySlug))
	}
	if f.TagSlug != "" {
		q = q.Where("products.id IN (?)",
			r.db.WithContext(ctx).Table("product_tags").
				Select("product_tags.product_id").
				Joins("JOIN tags ON tags.id = product_tags.tag_id").
				Where("tags.slug = ?", f.TagSlug))
	}
	if f.Query != "" {
		like := "%" + f.Query + "%"
		q = q.Where("(products.name LIKE ? OR products.description LIKE ?)", like, like)
	}
	if f.MinPrice != nil || f.MaxPrice != nil {
		sub := r.db.WithContext(ctx).Model(&domain.ProductVariant{}).Select("product_id").Where("is_active = ?", true)
		if f.MinPrice != nil {
			sub = sub.Where("price >= ?", *f.MinPrice)
		}
		if f.MaxPrice != nil {
			sub = sub.Where("price <= ?", *f.MaxPrice)
		}
		q = q.Where("products.id IN (?)", sub)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	switch f.Sort {
	case domain.SortPriceAsc:
		q = q.Order(minVariantPrice + " ASC")
	case domain.SortPriceDesc:
		q = q.Order(minVariantPrice + " DESC")
	case domain.SortRating:
		q = q.Order("products.avg_rating DESC").Order("products.review_count DESC")
	default:
		q = q.Order("products.created_at DESC")
	}
	q = q.Order("products.id DESC")

	var products []*domain.Product
	err := withDetail(q, f.IncludeInactive).Offset(f.Offset).Limit(f.Limit).Find(&products).Error
	return products, total, err
}

func (r *productRepository) GetBySlug(ctx context.Context, slug string, includeInactive bool) (*domain.Product, error) {
	q := r.conn(ctx).Where("slug = ?", slug)
	if !includeInactive {
		q = q.Where("is_active = ?", true)
	}
	var p domain.Product
	if err := withDetail(q, includeInactive).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrProductNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *productRepository) GetByID(ctx context.Context, id uint) (*domain.Product, error) {
	var p domain.Product
	if err := withDetail(r.conn(ctx), true).First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrProductNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *productRepository) GetByIDs(ctx context.Context, ids []uint) ([]*domain.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var products []*domain.Product
	err := withDetail(r.conn(ctx), false).Where("id IN ? AND is_active = ?", ids, true).Find(&products).Error
	return products, err
}

func (r *productRepository) Create(ctx context.Context, p *domain.Product) error {
	err := r.conn(ctx).Omit("Tags.*", "Category").Create(p).Error
	if db.IsDuplicateKey(err) {
		return domain.ErrSlugTaken
	}
	return err
}

func (r *productRepository) Update(ctx context.Context, p *domain.Product) error {
	err := r.conn(ctx).Model(p).Select("slug", "name", "description", "category_id", "image_url", "is_active").Updates(p).Error
	if db.IsDuplicateKey(err) {
		return domain.ErrSlugTaken
	}
	return err
}

func (r *productRepository) Delete(ctx context.Context, id uint) error {
	conn := r.conn(ctx)
	res := conn.Model(&domain.Product{}).Where("id = ?", id).Update("is_active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrProductNotFound
	}
	return conn.Delete(&domain.Product{}, id).Error
}

func (r *productRepository) ReplaceTags(ctx context.Context, p *domain.Product, tags []domain.Tag) error {
	return r.conn(ctx).Model(p).Association("Tags").Replace(tags)
}

func (r *productRepository) UpdateRating(ctx context.Context, productID uint, avg float64, count int) error {
	return r.conn(ctx).Model(&domain.Product{}).Where("id = ?", productID).
		Updates(map[string]any{"avg_rating": avg, "review_count": count}).Error
}

func (r *productRepository) FindByTagsOrCategories(ctx context.Context, f domain.CandidateFilter) ([]*domain.Product, error) {
	tagSlugs, categorySlugs := f.TagSlugs, f.CategorySlugs
	if len(tagSlugs) == 0 && len(categorySlugs) == 0 {
		return nil, nil
	}
	base := r.db.WithContext(ctx)
	cond := r.conn(ctx).Where("1 = 0")
	if len(tagSlugs) > 0 {
		cond = cond.Or("products.id IN (?)", base.Table("product_tags").
			Select("product_tags.product_id").
			Joins("JOIN tags ON tags.id = product_tags.tag_id").
			Where("tags.slug IN ?", tagSlugs))
	}
	if len(categorySlugs) > 0 {
		cond = cond.Or("products.category_id IN (?)", base.Model(&domain.Category{}).Select("id").Where("slug IN ?", categorySlugs))
	}

	q := withDetail(r.conn(ctx), false).
		Where("products.is_active = ?", true).
		Where(cond)
	if f.AfterID > 0 {
		q = q.Where("products.id > ?", f.AfterID)
	}
	if len(f.ExcludeIDs) > 0 {
		q = q.Where("products.id NOT IN ?", f.ExcludeIDs)
	}

	var products []*domain.Product
	err := q.Order("products.id ASC").Limit(f.Limit).Find(&products).Error
	return products, err
}

func (r *productRepository) TopRated(ctx context.Context, excludeIDs []uint, limit int) ([]*domain.Product, error) {
	q := withDetail(r.conn(ctx), false).Where("products.is_active = ?", true)
	if len(excludeIDs) > 0 {
		q = q.Where("products.id NOT IN ?", excludeIDs)
	}
	var products []*domain.Product
	err := q.Order("products.avg_rating DESC").Order("products.review_count DESC").Order("products.id ASC").
		Limit(limit).Find(&products).Error
	return products, err
}
