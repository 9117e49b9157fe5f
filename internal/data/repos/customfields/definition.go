package customfields

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/nordiska/pricewatch-backend/internal/domain/customfields"
	"github.com/nordiska/pricewatch-backend/internal/platform/logger"
)

type DefinitionRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rows []*types.Definition) ([]*types.Definition, error)
	GetByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Definition, error)
	GetByUserAndName(ctx context.Context, tx *gorm.DB, userID uuid.UUID, name string) (*types.Definition, error)
	// EnsureDefinition creates the definition on first sight and returns
	// the surviving row either way. The type inferred on first sight
	// sticks; later observations never retype a field.
	EnsureDefinition(ctx context.Context, tx *gorm.DB, def *types.Definition) (*types.Definition, error)
}

type definitionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDefinitionRepo(db *gorm.DB, baseLog *logger.Logger) DefinitionRepo {
	return &definitionRepo{db: db, log: baseLog.With("repo", "CustomFieldDefinitionRepo")}
}

func (r *definitionRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.Definition) ([]*types.Definition, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*types.Definition{}, nil
	}
	if err := t.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *definitionRepo) GetByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Definition, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.Definition
	if err := t.WithContext(ctx).Where("user_id = ?", userID).Order("field_name ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *definitionRepo) GetByUserAndName(ctx context.Context, tx *gorm.DB, userID uuid.UUID, name string) (*types.Definition, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.Definition
	if err := t.WithContext(ctx).
		Where("user_id = ? AND field_name = ?", userID, name).Limit(1).Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *definitionRepo) EnsureDefinition(ctx context.Context, tx *gorm.DB, def *types.Definition) (*types.Definition, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	existing, err := r.GetByUserAndName(ctx, t, def.UserID, def.FieldName)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}
	if err := t.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(def).Error; err != nil {
		return nil, err
	}
	return r.GetByUserAndName(ctx, t, def.UserID, def.FieldName)
}
