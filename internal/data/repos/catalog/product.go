package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/nordiska/pricewatch-backend/internal/domain/catalog"
	"github.com/nordiska/pricewatch-backend/internal/platform/logger"
)

type ProductRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rows []*types.Product) ([]*types.Product, error)
	GetByID(ctx context.Context, tx *gorm.DB, userID, id uuid.UUID) (*types.Product, error)

	// GetByEAN and GetByBrandSKU return every matching row ordered by
	// created_at ascending so the caller can apply the earliest-created
	// tie-break. The unique indexes should make >1 impossible.
	GetByEAN(ctx context.Context, tx *gorm.DB, userID uuid.UUID, ean string) ([]*types.Product, error)
	GetByBrandSKU(ctx context.Context, tx *gorm.DB, userID uuid.UUID, brand, sku string) ([]*types.Product, error)

	ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit, offset int) ([]*types.Product, error)
	CountByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error
	FullDeleteByIDs(ctx context.Context, tx *gorm.DB, userID uuid.UUID, ids []uuid.UUID) error
}

type productRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProductRepo(db *gorm.DB, baseLog *logger.Logger) ProductRepo {
	return &productRepo{db: db, log: baseLog.With("repo", "ProductRepo")}
}

func (r *productRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.Product) ([]*types.Product, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*types.Product{}, nil
	}
	if err := t.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *productRepo) GetByID(ctx context.Context, tx *gorm.DB, userID, id uuid.UUID) (*types.Product, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var out []*types.Product
	if err := t.WithContext(ctx).Where("user_id = ? AND id = ?", userID, id).Limit(1).Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *productRepo) GetByEAN(ctx context.Context, tx *gorm.DB, userID uuid.UUID, ean string) ([]*types.Product, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.Product
	if ean == "" {
		return out, nil
	}
	if err := t.WithContext(ctx).
		Where("user_id = ? AND LOWER(ean) = LOWER(?)", userID, ean).
		Order("created_at ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *productRepo) GetByBrandSKU(ctx context.Context, tx *gorm.DB, userID uuid.UUID, brand, sku string) ([]*types.Product, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.Product
	if brand == "" || sku == "" {
		return out, nil
	}
	if err := t.WithContext(ctx).
		Where("user_id = ? AND LOWER(brand) = LOWER(?) AND LOWER(sku) = LOWER(?)", userID, brand, sku).
		Order("created_at ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *productRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit, offset int) ([]*types.Product, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if limit <= 0 {
		limit = 50
	}
	var out []*types.Product
	if err := t.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").Limit(limit).Offset(offset).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *productRepo) CountByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var n int64
	if err := t.WithContext(ctx).Model(&types.Product{}).Where("user_id = ?", userID).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (r *productRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}
	return t.WithContext(ctx).Model(&types.Product{}).Where("id = ?", id).Updates(updates).Error
}

func (r *productRepo) FullDeleteByIDs(ctx context.Context, tx *gorm.DB, userID uuid.UUID, ids []uuid.UUID) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(ids) == 0 {
		return nil
	}
	return t.WithContext(ctx).Where("user_id = ? AND id IN ?", userID, ids).Delete(&types.Product{}).Error
}
