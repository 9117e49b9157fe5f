package catalog

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/nordiska/pricewatch-backend/internal/domain/catalog"
	"github.com/nordiska/pricewatch-backend/internal/platform/logger"
)

type BrandRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rows []*types.Brand) ([]*types.Brand, error)
	GetByName(ctx context.Context, tx *gorm.DB, userID uuid.UUID, name string) (*types.Brand, error)
	ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Brand, error)
	// FindOrCreateByName standardizes a free-text brand name into the
	// tenant's brand registry. Lookup is case-insensitive on the trimmed
	// name; creation keeps the original casing.
	FindOrCreateByName(ctx context.Context, tx *gorm.DB, userID uuid.UUID, name string) (*types.Brand, error)
}

type brandRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewBrandRepo(db *gorm.DB, baseLog *logger.Logger) BrandRepo {
	return &brandRepo{db: db, log: baseLog.With("repo", "BrandRepo")}
}

func (r *brandRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.Brand) ([]*types.Brand, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*types.Brand{}, nil
	}
	if err := t.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *brandRepo) GetByName(ctx context.Context, tx *gorm.DB, userID uuid.UUID, name string) (*types.Brand, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.Brand
	if err := t.WithContext(ctx).
		Where("user_id = ? AND LOWER(name) = ?", userID, strings.ToLower(strings.TrimSpace(name))).
		Limit(1).Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *brandRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Brand, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.Brand
	if err := t.WithContext(ctx).Where("user_id = ?", userID).Order("name ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *brandRepo) FindOrCreateByName(ctx context.Context, tx *gorm.DB, userID uuid.UUID, name string) (*types.Brand, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return nil, nil
	}
	existing, err := r.GetByName(ctx, t, userID, trimmed)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}
	row := &types.Brand{ID: uuid.New(), UserID: userID, Name: trimmed, IsActive: true}
	if err := t.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(row).Error; err != nil {
		return nil, err
	}
	// A concurrent writer may have won the conflict; read back by name.
	return r.GetByName(ctx, t, userID, trimmed)
}
