package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/nordiska/pricewatch-backend/internal/domain/catalog"
	"github.com/nordiska/pricewatch-backend/internal/platform/logger"
)

type CompetitorRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rows []*types.Competitor) ([]*types.Competitor, error)
	GetByID(ctx context.Context, tx *gorm.DB, userID, id uuid.UUID) (*types.Competitor, error)
	ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Competitor, error)
}

type SupplierRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rows []*types.Supplier) ([]*types.Supplier, error)
	GetByID(ctx context.Context, tx *gorm.DB, userID, id uuid.UUID) (*types.Supplier, error)
	ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Supplier, error)
}

type IntegrationRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rows []*types.Integration) ([]*types.Integration, error)
	GetByID(ctx context.Context, tx *gorm.DB, userID, id uuid.UUID) (*types.Integration, error)
	ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Integration, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error
}

type competitorRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCompetitorRepo(db *gorm.DB, baseLog *logger.Logger) CompetitorRepo {
	return &competitorRepo{db: db, log: baseLog.With("repo", "CompetitorRepo")}
}

func (r *competitorRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.Competitor) ([]*types.Competitor, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*types.Competitor{}, nil
	}
	if err := t.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *competitorRepo) GetByID(ctx context.Context, tx *gorm.DB, userID, id uuid.UUID) (*types.Competitor, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var out []*types.Competitor
	if err := t.WithContext(ctx).Where("user_id = ? AND id = ?", userID, id).Limit(1).Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *competitorRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Competitor, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.Competitor
	if err := t.WithContext(ctx).Where("user_id = ?", userID).Order("name ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

type supplierRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSupplierRepo(db *gorm.DB, baseLog *logger.Logger) SupplierRepo {
	return &supplierRepo{db: db, log: baseLog.With("repo", "SupplierRepo")}
}

func (r *supplierRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.Supplier) ([]*types.Supplier, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*types.Supplier{}, nil
	}
	if err := t.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *supplierRepo) GetByID(ctx context.Context, tx *gorm.DB, userID, id uuid.UUID) (*types.Supplier, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var out []*types.Supplier
	if err := t.WithContext(ctx).Where("user_id = ? AND id = ?", userID, id).Limit(1).Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *supplierRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Supplier, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.Supplier
	if err := t.WithContext(ctx).Where("user_id = ?", userID).Order("name ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

type integrationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewIntegrationRepo(db *gorm.DB, baseLog *logger.Logger) IntegrationRepo {
	return &integrationRepo{db: db, log: baseLog.With("repo", "IntegrationRepo")}
}

func (r *integrationRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.Integration) ([]*types.Integration, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*types.Integration{}, nil
	}
	if err := t.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *integrationRepo) GetByID(ctx context.Context, tx *gorm.DB, userID, id uuid.UUID) (*types.Integration, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var out []*types.Integration
	if err := t.WithContext(ctx).Where("user_id = ? AND id = ?", userID, id).Limit(1).Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *integrationRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Integration, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.Integration
	if err := t.WithContext(ctx).Where("user_id = ?", userID).Order("name ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *integrationRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}
	return t.WithContext(ctx).Model(&types.Integration{}).Where("id = ?", id).Updates(updates).Error
}
