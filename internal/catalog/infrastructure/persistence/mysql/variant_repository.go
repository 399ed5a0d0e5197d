package mysql

import (
	"context"
	"errors"

	"github.com/wyfcoding/aromastore/internal/catalog/domain"
	"github.com/wyfcoding/aromastore/pkg/db"
	"gorm.io/gorm"
)

type variantRepository struct{ db *gorm.DB }

// NewVariantRepository 创建规格仓储
func NewVariantRepository(gdb *gorm.DB) domain.VariantRepository {
	return &variantRepository{db: gdb}
}

func (r *variantRepository) GetVariant(ctx context.Context, id uint) (*domain.ProductVariant, error) {
	var v domain.ProductVariant
	if err := db.Conn(ctx, r.db).First(&v, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrVariantNotFound
		}
		return nil, err
	}
	return &v, nil
}

func (r *variantRepository) GetVariants(ctx context.Context, ids []uint) ([]*domain.ProductVariant, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var vs []*domain.ProductVariant
	err := db.Conn(ctx, r.db).Where("id IN ?", ids).Find(&vs).Error
	return vs, err
}

func (r *variantRepository) SaveVariant(ctx context.Context, v *domain.ProductVariant) error {
	err := db.Conn(ctx, r.db).Save(v).Error
	if db.IsDuplicateKey(err) {
		return domain.ErrSKUTaken
	}
	return err
}

func (r *variantRepository) AddStock(ctx context.Context, variantID uint, delta int) (int, error) {
	conn := db.Conn(ctx, r.db)
	res := conn.Model(&domain.ProductVariant{}).
		Where("id = ? AND stock + ? >= 0", variantID, delta).
		Update("stock", gorm.Expr("stock + ?", delta))
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := conn.Model(&domain.ProductVariant{}).Where("id = ?", variantID).Count(&count).Error; err != nil {
			return 0, err
		}
		if count == 0 {
			return 0, domain.ErrVariantNotFound
		}
		return 0, domain.ErrInsufficientStock
	}

	var stock int
	if err := conn.Model(&domain.ProductVariant{}).Where("id = ?", variantID).Pluck("stock", &stock).Error; err != nil {
		return 0, err
	}
	return stock, nil
}

func (r *variantRepository) CreateInventoryLog(ctx context.Context, log *domain.InventoryLog) error {
	return db.Conn(ctx, r.db).Create(log).Error
}

func (r *variantRepository) ListInventoryLogs(ctx context.Context, variantID uint, limit int) ([]*domain.InventoryLog, error) {
	var logs []*domain.InventoryLog
	err := db.Conn(ctx, r.db).Where("variant_id = ?", variantID).Order("id DESC").Limit(limit).Find(&logs).Error
	return logs, err
}

func (r *variantRepository) lowStockQuery(ctx context.Context, threshold int) *gorm.DB {
	return db.Conn(ctx, r.db).Table("product_variants AS v").
		Joins("JOIN products p ON p.id = v.product_id AND p.deleted_at IS NULL").
		Where("v.is_active = ? AND p.is_active = ? AND v.stock <= ?", true, true, threshold)
}

func (r *variantRepository) ListLowStock(ctx context.Context, threshold int) ([]*domain.LowStockItem, error) {
	var items []*domain.LowStockItem
	err := r.lowStockQuery(ctx, threshold).
		Select("v.id AS variant_id, v.sku AS sku, v.name AS variant_name, p.id AS product_id, p.name AS product_name, v.stock AS stock").
		Order("v.stock ASC").
		Scan(&items).Error
	return items, err
}

func (r *variantRepository) CountLowStock(ctx context.Context, threshold int) (int64, error) {
	var n int64
	err := r.lowStockQuery(ctx, threshold).Count(&n).Error
	return n, err
}
