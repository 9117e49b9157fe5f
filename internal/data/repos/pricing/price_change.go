package pricing

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/nordiska/pricewatch-backend/internal/domain/pricing"
	"github.com/nordiska/pricewatch-backend/internal/platform/logger"
)

// PriceChangeRepo writes and reads the immutable price history. There is
// no update method on purpose; deletion exists only for the product
// cascade.
type PriceChangeRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rows []*types.PriceChange) ([]*types.PriceChange, error)

	// LatestForSource returns the most recent change in one (product,
	// source) lineage, or nil when the lineage is unseeded.
	LatestForSource(ctx context.Context, tx *gorm.DB, userID, productID uuid.UUID, ref types.SourceRef) (*types.PriceChange, error)

	// ExistsForSourceRecord is the retry guard: true when a change has
	// already been recorded for this exact staged-row id.
	ExistsForSourceRecord(ctx context.Context, tx *gorm.DB, sourceRecordID uuid.UUID) (bool, error)

	ListByProduct(ctx context.Context, tx *gorm.DB, userID, productID uuid.UUID, limit int) ([]*types.PriceChange, error)
	DeleteByProductIDs(ctx context.Context, tx *gorm.DB, userID uuid.UUID, productIDs []uuid.UUID) error
	DeleteByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error
}

type priceChangeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPriceChangeRepo(db *gorm.DB, baseLog *logger.Logger) PriceChangeRepo {
	return &priceChangeRepo{db: db, log: baseLog.With("repo", "PriceChangeRepo")}
}

func (r *priceChangeRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.PriceChange) ([]*types.PriceChange, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*types.PriceChange{}, nil
	}
	if err := t.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *priceChangeRepo) LatestForSource(ctx context.Context, tx *gorm.DB, userID, productID uuid.UUID, ref types.SourceRef) (*types.PriceChange, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.PriceChange
	if err := t.WithContext(ctx).
		Where("user_id = ? AND product_id = ? AND "+ref.LineageColumn()+" = ?", userID, productID, ref.ID).
		Order("changed_at DESC").Limit(1).Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *priceChangeRepo) ExistsForSourceRecord(ctx context.Context, tx *gorm.DB, sourceRecordID uuid.UUID) (bool, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if sourceRecordID == uuid.Nil {
		return false, nil
	}
	var n int64
	if err := t.WithContext(ctx).Model(&types.PriceChange{}).
		Where("source_record_id = ?", sourceRecordID).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *priceChangeRepo) ListByProduct(ctx context.Context, tx *gorm.DB, userID, productID uuid.UUID, limit int) ([]*types.PriceChange, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if limit <= 0 {
		limit = 100
	}
	var out []*types.PriceChange
	if err := t.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Order("changed_at DESC").Limit(limit).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *priceChangeRepo) DeleteByProductIDs(ctx context.Context, tx *gorm.DB, userID uuid.UUID, productIDs []uuid.UUID) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(productIDs) == 0 {
		return nil
	}
	return t.WithContext(ctx).Where("user_id = ? AND product_id IN ?", userID, productIDs).Delete(&types.PriceChange{}).Error
}

func (r *priceChangeRepo) DeleteByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error {
	t := tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(ctx).Where("user_id = ?", userID).Delete(&types.PriceChange{}).Error
}
