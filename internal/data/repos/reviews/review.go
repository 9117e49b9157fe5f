package reviews

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/nordiska/pricewatch-backend/internal/domain/reviews"
	"github.com/nordiska/pricewatch-backend/internal/platform/logger"
)

type ReviewRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rows []*types.ProductMatchReview) ([]*types.ProductMatchReview, error)
	GetByID(ctx context.Context, tx *gorm.DB, userID, id uuid.UUID) (*types.ProductMatchReview, error)
	ListByStatus(ctx context.Context, tx *gorm.DB, userID uuid.UUID, status types.ReviewStatus, limit, offset int) ([]*types.ProductMatchReview, error)
	CountByStatus(ctx context.Context, tx *gorm.DB, userID uuid.UUID, status types.ReviewStatus) (int64, error)

	// ResolveApproved and ResolveDeclined transition pending → terminal.
	// The WHERE status = 'pending' guard makes the state machine explicit:
	// zero rows affected means the review was already terminal and the
	// caller must reject the action.
	ResolveApproved(ctx context.Context, tx *gorm.DB, userID, id, reviewer uuid.UUID, at time.Time) (bool, error)
	ResolveDeclined(ctx context.Context, tx *gorm.DB, userID, id, reviewer uuid.UUID, at time.Time, createdProductID *uuid.UUID) (bool, error)

	DeleteByProductIDs(ctx context.Context, tx *gorm.DB, userID uuid.UUID, productIDs []uuid.UUID) error
	DeleteByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error
}

type reviewRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewReviewRepo(db *gorm.DB, baseLog *logger.Logger) ReviewRepo {
	return &reviewRepo{db: db, log: baseLog.With("repo", "ReviewRepo")}
}

func (r *reviewRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.ProductMatchReview) ([]*types.ProductMatchReview, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*types.ProductMatchReview{}, nil
	}
	if err := t.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *reviewRepo) GetByID(ctx context.Context, tx *gorm.DB, userID, id uuid.UUID) (*types.ProductMatchReview, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var out []*types.ProductMatchReview
	if err := t.WithContext(ctx).Where("user_id = ? AND id = ?", userID, id).Limit(1).Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *reviewRepo) ListByStatus(ctx context.Context, tx *gorm.DB, userID uuid.UUID, status types.ReviewStatus, limit, offset int) ([]*types.ProductMatchReview, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if limit <= 0 {
		limit = 50
	}
	var out []*types.ProductMatchReview
	if err := t.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, status).
		Order("created_at DESC").Limit(limit).Offset(offset).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *reviewRepo) CountByStatus(ctx context.Context, tx *gorm.DB, userID uuid.UUID, status types.ReviewStatus) (int64, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var n int64
	if err := t.WithContext(ctx).Model(&types.ProductMatchReview{}).
		Where("user_id = ? AND status = ?", userID, status).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (r *reviewRepo) ResolveApproved(ctx context.Context, tx *gorm.DB, userID, id, reviewer uuid.UUID, at time.Time) (bool, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	res := t.WithContext(ctx).Model(&types.ProductMatchReview{}).
		Where("user_id = ? AND id = ? AND status = ?", userID, id, types.StatusPending).
		Updates(map[string]interface{}{
			"status":      types.StatusApprovedMatch,
			"reviewed_by": reviewer,
			"reviewed_at": at,
			"updated_at":  at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *reviewRepo) ResolveDeclined(ctx context.Context, tx *gorm.DB, userID, id, reviewer uuid.UUID, at time.Time, createdProductID *uuid.UUID) (bool, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	updates := map[string]interface{}{
		"status":      types.StatusDeclinedMatch,
		"reviewed_by": reviewer,
		"reviewed_at": at,
		"updated_at":  at,
	}
	if createdProductID != nil {
		updates["created_product_id"] = *createdProductID
	}
	res := t.WithContext(ctx).Model(&types.ProductMatchReview{}).
		Where("user_id = ? AND id = ? AND status = ?", userID, id, types.StatusPending).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *reviewRepo) DeleteByProductIDs(ctx context.Context, tx *gorm.DB, userID uuid.UUID, productIDs []uuid.UUID) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(productIDs) == 0 {
		return nil
	}
	return t.WithContext(ctx).
		Where("user_id = ? AND (existing_product_id IN ? OR created_product_id IN ?)", userID, productIDs, productIDs).
		Delete(&types.ProductMatchReview{}).Error
}

func (r *reviewRepo) DeleteByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error {
	t := tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(ctx).Where("user_id = ?", userID).Delete(&types.ProductMatchReview{}).Error
}
