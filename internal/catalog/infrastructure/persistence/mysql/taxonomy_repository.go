package mysql

import (
	"context"
	"errors"

	"github.com/wyfcoding/aromastore/internal/catalog/domain"
	"github.com/wyfcoding/aromastore/pkg/db"
	"gorm.io/gorm"
)

type taxonomyRepository struct{ db *gorm.DB }

// NewTaxonomyRepository 创建分类标签仓储
func NewTaxonomyRepository(gdb *gorm.DB) domain.TaxonomyRepository {
	return &taxonomyRepository{db: gdb}
}

func (r *taxonomyRepository) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	var out []*domain.Category
	err := db.Conn(ctx, r.db).Order("name ASC").Find(&out).Error
	return out, err
}

func (r *taxonomyRepository) CreateCategory(ctx context.Context, c *domain.Category) error {
	err := db.Conn(ctx, r.db).Create(c).Error
	if db.IsDuplicateKey(err) {
		return domain.ErrSlugTaken
	}
	return err
}

func (r *taxonomyRepository) GetCategoryBySlug(ctx context.Context, slug string) (*domain.Category, error) {
	var c domain.Category
	if err := db.Conn(ctx, r.db).Where("slug = ?", slug).First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrCategoryNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *taxonomyRepository) ListTags(ctx context.Context) ([]*domain.Tag, error) {
	var out []*domain.Tag
	err := db.Conn(ctx, r.db).Order("name ASC").Find(&out).Error
	return out, err
}

func (r *taxonomyRepository) CreateTag(ctx context.Context, t *domain.Tag) error {
	err := db.Conn(ctx, r.db).Create(t).Error
	if db.IsDuplicateKey(err) {
		return domain.ErrSlugTaken
	}
	return err
}

func (r *taxonomyRepository) GetTagsBySlugs(ctx context.Context, slugs []string) ([]domain.Tag, error) {
	uniq := make(map[string]struct{}, len(slugs))
	for _, s := range slugs {
		uniq[s] = struct{}{}
	}
	if len(uniq) == 0 {
		return nil, nil
	}
	var tags []domain.Tag
	if err := db.Conn(ctx, r.db).Where("slug IN ?", slugs).Find(&tags).Error; err != nil {
		return nil, err
	}
	if len(tags) != len(uniq) {
		return nil, domain.ErrTagNotFound
	}
	return tags, nil
}
