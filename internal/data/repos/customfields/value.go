package customfields

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/nordiska/pricewatch-backend/internal/domain/customfields"
	"github.com/nordiska/pricewatch-backend/internal/platform/logger"
)

type ValueRepo interface {
	// ReplaceValue upserts the single value for (product, definition):
	// delete any prior row for the pair, then insert. Attribute values are
	// never historized.
	ReplaceValue(ctx context.Context, tx *gorm.DB, row *types.Value) error
	GetByProduct(ctx context.Context, tx *gorm.DB, productID uuid.UUID) ([]*types.Value, error)
	GetByProductAndDefinition(ctx context.Context, tx *gorm.DB, productID, definitionID uuid.UUID) (*types.Value, error)
	DeleteByProductIDs(ctx context.Context, tx *gorm.DB, productIDs []uuid.UUID) error
}

type valueRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewValueRepo(db *gorm.DB, baseLog *logger.Logger) ValueRepo {
	return &valueRepo{db: db, log: baseLog.With("repo", "CustomFieldValueRepo")}
}

func (r *valueRepo) ReplaceValue(ctx context.Context, tx *gorm.DB, row *types.Value) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if err := t.WithContext(ctx).
		Where("product_id = ? AND definition_id = ?", row.ProductID, row.DefinitionID).
		Delete(&types.Value{}).Error; err != nil {
		return err
	}
	return t.WithContext(ctx).Create(row).Error
}

func (r *valueRepo) GetByProduct(ctx context.Context, tx *gorm.DB, productID uuid.UUID) ([]*types.Value, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.Value
	if err := t.WithContext(ctx).Where("product_id = ?", productID).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *valueRepo) GetByProductAndDefinition(ctx context.Context, tx *gorm.DB, productID, definitionID uuid.UUID) (*types.Value, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.Value
	if err := t.WithContext(ctx).
		Where("product_id = ? AND definition_id = ?", productID, definitionID).
		Limit(1).Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *valueRepo) DeleteByProductIDs(ctx context.Context, tx *gorm.DB, productIDs []uuid.UUID) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(productIDs) == 0 {
		return nil
	}
	return t.WithContext(ctx).Where("product_id IN ?", productIDs).Delete(&types.Value{}).Error
}
