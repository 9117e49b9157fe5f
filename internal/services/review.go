package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nordiska/pricewatch-backend/internal/data/repos"
	"github.com/nordiska/pricewatch-backend/internal/domain/catalog"
	"github.com/nordiska/pricewatch-backend/internal/domain/reviews"
	"github.com/nordiska/pricewatch-backend/internal/domain/staging"
	"github.com/nordiska/pricewatch-backend/internal/pkg/apperrs"
	"github.com/nordiska/pricewatch-backend/internal/platform/logger"
	"github.com/nordiska/pricewatch-backend/internal/platform/metrics"
)

// ReviewResolution reports what resolving one review did.
type ReviewResolution struct {
	Review *reviews.ProductMatchReview
	// Product is the product the held rows ended up on.
	Product     *catalog.Product
	RowsApplied int
}

// ApproveAllOutcome is the per-id result of a bulk approval.
type ApproveAllOutcome struct {
	ReviewID uuid.UUID `json:"review_id"`
	Approved bool      `json:"approved"`
	Error    string    `json:"error,omitempty"`
}

// ReviewService resolves pending reviews and releases the rows held behind
// them. Every resolution is a single transaction: the status flip and the
// release either both happen or neither does.
type ReviewService interface {
	List(ctx context.Context, userID uuid.UUID, status reviews.ReviewStatus, limit, offset int) ([]*reviews.ProductMatchReview, error)
	CountPending(ctx context.Context, userID uuid.UUID) (int64, error)

	// Approve accepts the proposed match: held rows apply to the existing
	// product, or to one newly created product when the review proposed a
	// new identity.
	Approve(ctx context.Context, userID, reviewID, reviewer uuid.UUID) (*ReviewResolution, error)

	// Decline rejects the proposal: the held rows get their own new
	// product instead of the proposed link.
	Decline(ctx context.Context, userID, reviewID, reviewer uuid.UUID) (*ReviewResolution, error)

	// ApproveAll approves the listed reviews, reporting the outcome per
	// id. A review that resolved concurrently is reported as failed, not
	// fatal to the rest.
	ApproveAll(ctx context.Context, userID, reviewer uuid.UUID, reviewIDs []uuid.UUID) ([]ApproveAllOutcome, error)
}

type reviewService struct {
	db         *gorm.DB
	repos      repos.Set
	reconciler ReconcilerService
	fields     CustomFieldService
	products   ProductService
	notifier   Notifier
	log        *logger.Logger
}

func NewReviewService(db *gorm.DB, rs repos.Set, reconciler ReconcilerService, fields CustomFieldService, products ProductService, notifier Notifier, baseLog *logger.Logger) ReviewService {
	if notifier == nil {
		notifier = NopNotifier()
	}
	return &reviewService{
		db:         db,
		repos:      rs,
		reconciler: reconciler,
		fields:     fields,
		products:   products,
		notifier:   notifier,
		log:        baseLog.With("service", "ReviewService"),
	}
}

func (s *reviewService) List(ctx context.Context, userID uuid.UUID, status reviews.ReviewStatus, limit, offset int) ([]*reviews.ProductMatchReview, error) {
	out, err := s.repos.Reviews.ListByStatus(ctx, nil, userID, status, limit, offset)
	if err != nil {
		return nil, apperrs.Storage("review.list", err)
	}
	return out, nil
}

func (s *reviewService) CountPending(ctx context.Context, userID uuid.UUID) (int64, error) {
	n, err := s.repos.Reviews.CountByStatus(ctx, nil, userID, reviews.StatusPending)
	if err != nil {
		return 0, apperrs.Storage("review.count", err)
	}
	return n, nil
}

func (s *reviewService) Approve(ctx context.Context, userID, reviewID, reviewer uuid.UUID) (*ReviewResolution, error) {
	var res *ReviewResolution
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		review, user, err := s.loadForResolution(ctx, tx, userID, reviewID)
		if err != nil {
			return err
		}
		ok, err := s.repos.Reviews.ResolveApproved(ctx, tx, userID, reviewID, reviewer, time.Now().UTC())
		if err != nil {
			return apperrs.Storage("review.approve", err)
		}
		if !ok {
			return apperrs.ErrReviewNotPending
		}

		records, err := s.heldRecords(ctx, tx, review)
		if err != nil {
			return err
		}

		product, err := s.approveTarget(ctx, tx, user, review, records)
		if err != nil {
			return err
		}

		res = &ReviewResolution{Review: review, Product: product}
		return s.applyRecords(ctx, tx, user, product, records, res)
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (s *reviewService) Decline(ctx context.Context, userID, reviewID, reviewer uuid.UUID) (*ReviewResolution, error) {
	var res *ReviewResolution
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		review, user, err := s.loadForResolution(ctx, tx, userID, reviewID)
		if err != nil {
			return err
		}
		records, err := s.heldRecords(ctx, tx, review)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			return apperrs.ErrNotFound
		}

		// Declining rejects the proposed link, not the observations: they
		// describe a genuinely different product, so they get their own
		// catalog entry and the held rows move onto it.
		product, err := s.products.CreateFromObservation(ctx, tx, user, observationFromRecord(records[0]))
		if err != nil {
			return err
		}
		ok, err := s.repos.Reviews.ResolveDeclined(ctx, tx, userID, reviewID, reviewer, time.Now().UTC(), &product.ID)
		if err != nil {
			return apperrs.Storage("review.decline", err)
		}
		if !ok {
			return apperrs.ErrReviewNotPending
		}

		res = &ReviewResolution{Review: review, Product: product}
		return s.applyRecords(ctx, tx, user, product, records, res)
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (s *reviewService) ApproveAll(ctx context.Context, userID, reviewer uuid.UUID, reviewIDs []uuid.UUID) ([]ApproveAllOutcome, error) {
	if len(reviewIDs) == 0 {
		return nil, &apperrs.ValidationError{Field: "review_ids", Reason: "at least one review id is required"}
	}
	outcomes := make([]ApproveAllOutcome, 0, len(reviewIDs))
	for _, id := range reviewIDs {
		outcome := ApproveAllOutcome{ReviewID: id}
		if _, err := s.Approve(ctx, userID, id, reviewer); err != nil {
			if errors.Is(err, apperrs.ErrReviewNotPending) || errors.Is(err, apperrs.ErrNotFound) {
				outcome.Error = err.Error()
				outcomes = append(outcomes, outcome)
				continue
			}
			return outcomes, err
		}
		outcome.Approved = true
		outcomes = append(outcomes, outcome)
	}
	return outcomes, nil
}

func (s *reviewService) loadForResolution(ctx context.Context, tx *gorm.DB, userID, reviewID uuid.UUID) (*reviews.ProductMatchReview, *catalog.User, error) {
	review, err := s.repos.Reviews.GetByID(ctx, tx, userID, reviewID)
	if err != nil {
		return nil, nil, apperrs.Storage("review.get", err)
	}
	if review == nil {
		return nil, nil, apperrs.ErrNotFound
	}
	user, err := s.repos.Users.GetByID(ctx, tx, userID)
	if err != nil {
		return nil, nil, apperrs.Storage("review.user", err)
	}
	if user == nil {
		return nil, nil, apperrs.ErrNotFound
	}
	return review, user, nil
}

func (s *reviewService) heldRecords(ctx context.Context, tx *gorm.DB, review *reviews.ProductMatchReview) ([]*staging.Record, error) {
	var ids []uuid.UUID
	if len(review.SourceRecordIDs) > 0 {
		if err := json.Unmarshal(review.SourceRecordIDs, &ids); err != nil {
			return nil, apperrs.Storage("review.record_ids", err)
		}
	}
	records, err := s.repos.Staged.GetByIDs(ctx, tx, review.SourceKind, review.UserID, ids)
	if err != nil {
		return nil, apperrs.Storage("review.records", err)
	}
	return records, nil
}

// approveTarget resolves which product an approval applies to: the match
// the detector proposed, or a single new product when every held row was
// unmatched.
func (s *reviewService) approveTarget(ctx context.Context, tx *gorm.DB, user *catalog.User, review *reviews.ProductMatchReview, records []*staging.Record) (*catalog.Product, error) {
	if review.ExistingProductID != nil {
		product, err := s.repos.Products.GetByID(ctx, tx, user.ID, *review.ExistingProductID)
		if err != nil {
			return nil, apperrs.Storage("review.product", err)
		}
		if product == nil {
			return nil, apperrs.ErrNotFound
		}
		return product, nil
	}
	if len(records) == 0 {
		return nil, apperrs.ErrNotFound
	}
	return s.products.CreateFromObservation(ctx, tx, user, observationFromRecord(records[0]))
}

func (s *reviewService) applyRecords(ctx context.Context, tx *gorm.DB, user *catalog.User, product *catalog.Product, records []*staging.Record, res *ReviewResolution) error {
	for _, rec := range records {
		norm := observationFromRecord(rec)
		outcome, err := s.reconciler.Reconcile(ctx, tx, user, product, norm, rec.ID)
		if err != nil {
			return err
		}
		if _, err := s.fields.ApplyPayload(ctx, tx, user.ID, product.ID, rec.Kind, rec.SourceID, norm.Payload); err != nil {
			return err
		}
		if err := s.repos.Staged.MarkProcessed(ctx, tx, rec.Kind, rec.ID, product.ID); err != nil {
			return apperrs.Storage("review.release", err)
		}
		res.RowsApplied++
		metrics.RowsProcessed(string(rec.Kind), 1)
		if outcome.Change != nil {
			s.notifier.PriceChanged(ctx, user.ID, outcome.Change)
		}
	}
	return nil
}

// observationFromRecord rebuilds the pipeline's working form from a staged
// row, for the deferred paths that run after a review resolves.
func observationFromRecord(rec *staging.Record) *NormalizedObservation {
	norm := &NormalizedObservation{
		TenantKey:    rec.UserID,
		Kind:         rec.Kind,
		SourceID:     rec.SourceID,
		Name:         rec.Name,
		SKU:          rec.SKU,
		EAN:          rec.EAN,
		Brand:        rec.Brand,
		Price:        rec.Price,
		CurrencyCode: rec.CurrencyCode,
		URL:          rec.URL,
		ImageURL:     rec.ImageURL,
		ObservedAt:   rec.ObservedAt,
	}
	if rec.EAN != nil {
		norm.MatchEAN = strings.ToLower(strings.TrimSpace(*rec.EAN))
	}
	if rec.Brand != nil {
		norm.MatchBrand = strings.ToLower(strings.TrimSpace(*rec.Brand))
	}
	if rec.SKU != nil {
		norm.MatchSKU = strings.ToLower(strings.TrimSpace(*rec.SKU))
	}
	if len(rec.RawData) > 0 {
		payload := map[string]interface{}{}
		if err := json.Unmarshal(rec.RawData, &payload); err == nil {
			norm.Payload = payload
		}
	}
	return norm
}
