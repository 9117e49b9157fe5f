package staging

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/nordiska/pricewatch-backend/internal/domain/staging"
	"github.com/nordiska/pricewatch-backend/internal/platform/logger"
)

// StagedRepo is the single access point for every staged-record variant.
// Callers pass the source kind; the dispatch below is the only place that
// knows which table each kind lives in.
type StagedRepo interface {
	Create(ctx context.Context, tx *gorm.DB, kind types.SourceKind, rows []*types.Record) ([]*types.Record, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, kind types.SourceKind, userID uuid.UUID, ids []uuid.UUID) ([]*types.Record, error)
	GetUnprocessed(ctx context.Context, tx *gorm.DB, kind types.SourceKind, userID uuid.UUID, limit int) ([]*types.Record, error)

	// MarkProcessed is the row's single lifecycle mutation: the product
	// link is set and the row leaves the pending pool.
	MarkProcessed(ctx context.Context, tx *gorm.DB, kind types.SourceKind, id uuid.UUID, productID uuid.UUID) error
	MarkSkipped(ctx context.Context, tx *gorm.DB, kind types.SourceKind, id uuid.UUID, reason string) error
	MarkHeld(ctx context.Context, tx *gorm.DB, kind types.SourceKind, ids []uuid.UUID) error
	LinkProduct(ctx context.Context, tx *gorm.DB, kind types.SourceKind, id uuid.UUID, productID uuid.UUID) error

	DeleteByProductIDs(ctx context.Context, tx *gorm.DB, userID uuid.UUID, productIDs []uuid.UUID) error
	DeleteByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error
}

type stagedRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewStagedRepo(db *gorm.DB, baseLog *logger.Logger) StagedRepo {
	return &stagedRepo{db: db, log: baseLog.With("repo", "StagedRepo")}
}

func tableFor(kind types.SourceKind) (string, error) {
	switch kind {
	case types.SourceCompetitor:
		return types.StagedCompetitorRecord{}.TableName(), nil
	case types.SourceSupplier:
		return types.StagedSupplierRecord{}.TableName(), nil
	case types.SourceIntegration:
		return types.StagedIntegrationRecord{}.TableName(), nil
	case types.SourceCSV:
		return types.StagedCSVRecord{}.TableName(), nil
	}
	return "", fmt.Errorf("unknown source kind %q", kind)
}

func (r *stagedRepo) Create(ctx context.Context, tx *gorm.DB, kind types.SourceKind, rows []*types.Record) ([]*types.Record, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*types.Record{}, nil
	}
	out := make([]*types.Record, 0, len(rows))
	switch kind {
	case types.SourceCompetitor:
		concrete := make([]*types.StagedCompetitorRecord, 0, len(rows))
		for _, rec := range rows {
			concrete = append(concrete, types.CompetitorFromRecord(rec))
		}
		if err := t.WithContext(ctx).Create(&concrete).Error; err != nil {
			return nil, err
		}
		for _, c := range concrete {
			out = append(out, c.AsRecord())
		}
	case types.SourceSupplier:
		concrete := make([]*types.StagedSupplierRecord, 0, len(rows))
		for _, rec := range rows {
			concrete = append(concrete, types.SupplierFromRecord(rec))
		}
		if err := t.WithContext(ctx).Create(&concrete).Error; err != nil {
			return nil, err
		}
		for _, c := range concrete {
			out = append(out, c.AsRecord())
		}
	case types.SourceIntegration:
		concrete := make([]*types.StagedIntegrationRecord, 0, len(rows))
		for _, rec := range rows {
			concrete = append(concrete, types.IntegrationFromRecord(rec))
		}
		if err := t.WithContext(ctx).Create(&concrete).Error; err != nil {
			return nil, err
		}
		for _, c := range concrete {
			out = append(out, c.AsRecord())
		}
	case types.SourceCSV:
		concrete := make([]*types.StagedCSVRecord, 0, len(rows))
		for _, rec := range rows {
			concrete = append(concrete, types.CSVFromRecord(rec))
		}
		if err := t.WithContext(ctx).Create(&concrete).Error; err != nil {
			return nil, err
		}
		for _, c := range concrete {
			out = append(out, c.AsRecord())
		}
	default:
		return nil, fmt.Errorf("unknown source kind %q", kind)
	}
	return out, nil
}

func (r *stagedRepo) GetByIDs(ctx context.Context, tx *gorm.DB, kind types.SourceKind, userID uuid.UUID, ids []uuid.UUID) ([]*types.Record, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	out := []*types.Record{}
	if len(ids) == 0 {
		return out, nil
	}
	q := func(dest interface{}) error {
		return t.WithContext(ctx).Where("user_id = ? AND id IN ?", userID, ids).Find(dest).Error
	}
	switch kind {
	case types.SourceCompetitor:
		var rows []*types.StagedCompetitorRecord
		if err := q(&rows); err != nil {
			return nil, err
		}
		for _, c := range rows {
			out = append(out, c.AsRecord())
		}
	case types.SourceSupplier:
		var rows []*types.StagedSupplierRecord
		if err := q(&rows); err != nil {
			return nil, err
		}
		for _, c := range rows {
			out = append(out, c.AsRecord())
		}
	case types.SourceIntegration:
		var rows []*types.StagedIntegrationRecord
		if err := q(&rows); err != nil {
			return nil, err
		}
		for _, c := range rows {
			out = append(out, c.AsRecord())
		}
	case types.SourceCSV:
		var rows []*types.StagedCSVRecord
		if err := q(&rows); err != nil {
			return nil, err
		}
		for _, c := range rows {
			out = append(out, c.AsRecord())
		}
	default:
		return nil, fmt.Errorf("unknown source kind %q", kind)
	}
	return out, nil
}

func (r *stagedRepo) GetUnprocessed(ctx context.Context, tx *gorm.DB, kind types.SourceKind, userID uuid.UUID, limit int) ([]*types.Record, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if limit <= 0 {
		limit = 500
	}
	out := []*types.Record{}
	q := func(dest interface{}) error {
		return t.WithContext(ctx).
			Where("user_id = ? AND processed = ? AND status = ?", userID, false, types.StatusPending).
			Order("created_at ASC").Limit(limit).Find(dest).Error
	}
	switch kind {
	case types.SourceCompetitor:
		var rows []*types.StagedCompetitorRecord
		if err := q(&rows); err != nil {
			return nil, err
		}
		for _, c := range rows {
			out = append(out, c.AsRecord())
		}
	case types.SourceSupplier:
		var rows []*types.StagedSupplierRecord
		if err := q(&rows); err != nil {
			return nil, err
		}
		for _, c := range rows {
			out = append(out, c.AsRecord())
		}
	case types.SourceIntegration:
		var rows []*types.StagedIntegrationRecord
		if err := q(&rows); err != nil {
			return nil, err
		}
		for _, c := range rows {
			out = append(out, c.AsRecord())
		}
	case types.SourceCSV:
		var rows []*types.StagedCSVRecord
		if err := q(&rows); err != nil {
			return nil, err
		}
		for _, c := range rows {
			out = append(out, c.AsRecord())
		}
	default:
		return nil, fmt.Errorf("unknown source kind %q", kind)
	}
	return out, nil
}

func (r *stagedRepo) MarkProcessed(ctx context.Context, tx *gorm.DB, kind types.SourceKind, id uuid.UUID, productID uuid.UUID) error {
	t := tx
	if t == nil {
		t = r.db
	}
	table, err := tableFor(kind)
	if err != nil {
		return err
	}
	return t.WithContext(ctx).Table(table).Where("id = ?", id).Updates(map[string]interface{}{
		"processed":  true,
		"status":     types.StatusDone,
		"product_id": productID,
	}).Error
}

func (r *stagedRepo) MarkSkipped(ctx context.Context, tx *gorm.DB, kind types.SourceKind, id uuid.UUID, reason string) error {
	t := tx
	if t == nil {
		t = r.db
	}
	table, err := tableFor(kind)
	if err != nil {
		return err
	}
	return t.WithContext(ctx).Table(table).Where("id = ?", id).Updates(map[string]interface{}{
		"processed":     true,
		"status":        types.StatusSkipped,
		"error_message": reason,
	}).Error
}

func (r *stagedRepo) MarkHeld(ctx context.Context, tx *gorm.DB, kind types.SourceKind, ids []uuid.UUID) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(ids) == 0 {
		return nil
	}
	table, err := tableFor(kind)
	if err != nil {
		return err
	}
	// Held rows stay processed=false: resolution replays them from the top.
	return t.WithContext(ctx).Table(table).Where("id IN ?", ids).Updates(map[string]interface{}{
		"status": types.StatusReview,
	}).Error
}

func (r *stagedRepo) LinkProduct(ctx context.Context, tx *gorm.DB, kind types.SourceKind, id uuid.UUID, productID uuid.UUID) error {
	t := tx
	if t == nil {
		t = r.db
	}
	table, err := tableFor(kind)
	if err != nil {
		return err
	}
	return t.WithContext(ctx).Table(table).Where("id = ?", id).Update("product_id", productID).Error
}

func (r *stagedRepo) DeleteByProductIDs(ctx context.Context, tx *gorm.DB, userID uuid.UUID, productIDs []uuid.UUID) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(productIDs) == 0 {
		return nil
	}
	where := "user_id = ? AND product_id IN ?"
	if err := t.WithContext(ctx).Where(where, userID, productIDs).Delete(&types.StagedCompetitorRecord{}).Error; err != nil {
		return err
	}
	if err := t.WithContext(ctx).Where(where, userID, productIDs).Delete(&types.StagedSupplierRecord{}).Error; err != nil {
		return err
	}
	if err := t.WithContext(ctx).Where(where, userID, productIDs).Delete(&types.StagedIntegrationRecord{}).Error; err != nil {
		return err
	}
	return t.WithContext(ctx).Where(where, userID, productIDs).Delete(&types.StagedCSVRecord{}).Error
}

func (r *stagedRepo) DeleteByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if err := t.WithContext(ctx).Where("user_id = ?", userID).Delete(&types.StagedCompetitorRecord{}).Error; err != nil {
		return err
	}
	if err := t.WithContext(ctx).Where("user_id = ?", userID).Delete(&types.StagedSupplierRecord{}).Error; err != nil {
		return err
	}
	if err := t.WithContext(ctx).Where("user_id = ?", userID).Delete(&types.StagedIntegrationRecord{}).Error; err != nil {
		return err
	}
	return t.WithContext(ctx).Where("user_id = ?", userID).Delete(&types.StagedCSVRecord{}).Error
}
