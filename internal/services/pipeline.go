package services

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/nordiska/pricewatch-backend/internal/data/repos"
	"github.com/nordiska/pricewatch-backend/internal/domain/catalog"
	"github.com/nordiska/pricewatch-backend/internal/domain/reviews"
	"github.com/nordiska/pricewatch-backend/internal/domain/staging"
	"github.com/nordiska/pricewatch-backend/internal/pkg/apperrs"
	"github.com/nordiska/pricewatch-backend/internal/platform/logger"
	"github.com/nordiska/pricewatch-backend/internal/platform/metrics"
)

// partitionWorkers bounds concurrent partition processing. Partitions
// never share a match key, so they cannot race on the same product.
const partitionWorkers = 4

// BatchResult summarizes one pipeline run.
type BatchResult struct {
	RowsTotal       int `json:"rows_total"`
	AutoApplied     int `json:"auto_applied"`
	ProductsCreated int `json:"products_created"`
	PriceChanges    int `json:"price_changes"`
	ReviewsCreated  int `json:"reviews_created"`
	RowsHeld        int `json:"rows_held"`
	RowsSkipped     int `json:"rows_skipped"`
}

func (r *BatchResult) merge(other BatchResult) {
	r.AutoApplied += other.AutoApplied
	r.ProductsCreated += other.ProductsCreated
	r.PriceChanges += other.PriceChanges
	r.ReviewsCreated += other.ReviewsCreated
	r.RowsHeld += other.RowsHeld
	r.RowsSkipped += other.RowsSkipped
}

// PipelineService is the reconciliation pipeline: stage, normalize, match,
// detect conflicts, then auto-apply or hold for review.
type PipelineService interface {
	// Ingest stages a batch of raw observations for one source and runs
	// the pipeline over the staged rows.
	Ingest(ctx context.Context, userID uuid.UUID, kind staging.SourceKind, raws []RawObservation) (*BatchResult, error)

	// ProcessBatch reruns the pipeline over specific staged rows. Rows
	// that are no longer pending are left alone. Used by retries and by
	// producers that stage rows themselves.
	ProcessBatch(ctx context.Context, userID uuid.UUID, kind staging.SourceKind, stagedIDs []uuid.UUID) (*BatchResult, error)

	// ProcessPending drains pending staged rows for one source kind, up
	// to limit.
	ProcessPending(ctx context.Context, userID uuid.UUID, kind staging.SourceKind, limit int) (*BatchResult, error)
}

type pipelineService struct {
	db         *gorm.DB
	repos      repos.Set
	matcher    MatcherService
	reconciler ReconcilerService
	fields     CustomFieldService
	products   ProductService
	notifier   Notifier
	log        *logger.Logger
}

func NewPipelineService(db *gorm.DB, rs repos.Set, matcher MatcherService, reconciler ReconcilerService, fields CustomFieldService, products ProductService, notifier Notifier, baseLog *logger.Logger) PipelineService {
	if notifier == nil {
		notifier = NopNotifier()
	}
	return &pipelineService{
		db:         db,
		repos:      rs,
		matcher:    matcher,
		reconciler: reconciler,
		fields:     fields,
		products:   products,
		notifier:   notifier,
		log:        baseLog.With("service", "PipelineService"),
	}
}

func (s *pipelineService) Ingest(ctx context.Context, userID uuid.UUID, kind staging.SourceKind, raws []RawObservation) (*BatchResult, error) {
	if !kind.Valid() {
		return nil, &apperrs.ValidationError{Field: "kind", Reason: "unknown source kind"}
	}
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	result := &BatchResult{RowsTotal: len(raws)}
	var records []*staging.Record
	var skipped []*staging.Record
	for _, raw := range raws {
		if raw.TenantID == "" {
			raw.TenantID = user.ID.String()
		}
		norm, skip := Normalize(raw, user.Currency())
		if skip != nil {
			// A rejected observation is still staged, pre-marked skipped,
			// so the source keeps an audit row for it.
			s.log.Warn("observation skipped", "kind", kind, "reason", skip.String())
			skipped = append(skipped, skippedRecordFromRaw(user.ID, kind, raw, skip))
			result.RowsSkipped++
			metrics.RowsSkipped(string(kind), 1)
			continue
		}
		rec, err := recordFromObservation(user.ID, kind, norm)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	if len(skipped) > 0 {
		if _, err := s.repos.Staged.Create(ctx, nil, kind, skipped); err != nil {
			return nil, apperrs.Storage("pipeline.stage", err)
		}
	}
	created, err := s.repos.Staged.Create(ctx, nil, kind, records)
	if err != nil {
		return nil, apperrs.Storage("pipeline.stage", err)
	}
	metrics.RowsStaged(string(kind), len(created))

	if err := s.processRecords(ctx, user, kind, created, result); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *pipelineService) ProcessBatch(ctx context.Context, userID uuid.UUID, kind staging.SourceKind, stagedIDs []uuid.UUID) (*BatchResult, error) {
	if !kind.Valid() {
		return nil, &apperrs.ValidationError{Field: "kind", Reason: "unknown source kind"}
	}
	if len(stagedIDs) == 0 {
		return nil, &apperrs.ValidationError{Field: "staged_ids", Reason: "at least one staged row id is required"}
	}
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	rows, err := s.repos.Staged.GetByIDs(ctx, nil, kind, userID, stagedIDs)
	if err != nil {
		return nil, apperrs.Storage("pipeline.load", err)
	}
	// Rows already applied, held or skipped stay where they are.
	records := make([]*staging.Record, 0, len(rows))
	for _, rec := range rows {
		if rec.Processed || rec.Status != staging.StatusPending {
			continue
		}
		records = append(records, rec)
	}
	result := &BatchResult{RowsTotal: len(records)}
	if err := s.processRecords(ctx, user, kind, records, result); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *pipelineService) ProcessPending(ctx context.Context, userID uuid.UUID, kind staging.SourceKind, limit int) (*BatchResult, error) {
	if !kind.Valid() {
		return nil, &apperrs.ValidationError{Field: "kind", Reason: "unknown source kind"}
	}
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	records, err := s.repos.Staged.GetUnprocessed(ctx, nil, kind, userID, limit)
	if err != nil {
		return nil, apperrs.Storage("pipeline.load", err)
	}
	result := &BatchResult{RowsTotal: len(records)}
	if err := s.processRecords(ctx, user, kind, records, result); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *pipelineService) processRecords(ctx context.Context, user *catalog.User, kind staging.SourceKind, records []*staging.Record, result *BatchResult) error {
	start := time.Now()
	defer func() { metrics.ObserveBatch(string(kind), time.Since(start)) }()

	rows := make([]*batchRow, 0, len(records))
	for _, rec := range records {
		norm := observationFromRecord(rec)
		if norm.Name == "" || norm.Price.IsNegative() {
			if err := s.repos.Staged.MarkSkipped(ctx, nil, kind, rec.ID, "malformed staged row"); err != nil {
				return apperrs.Storage("pipeline.skip", err)
			}
			result.RowsSkipped++
			metrics.RowsSkipped(string(kind), 1)
			continue
		}
		match, err := s.matcher.Match(ctx, nil, user.ID, norm.MatchEAN, norm.MatchBrand, norm.MatchSKU)
		if err != nil {
			return apperrs.Storage("pipeline.match", err)
		}
		rows = append(rows, &batchRow{Rec: rec, Norm: norm, Match: match})
	}

	partitions := partitionBatch(rows)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(partitionWorkers)
	var mu sync.Mutex
	for _, part := range partitions {
		part := part
		g.Go(func() error {
			partial, err := s.processPartition(gctx, user, kind, part)
			if err != nil {
				return err
			}
			mu.Lock()
			result.merge(partial)
			mu.Unlock()
			return nil
		})
	}
	return g.Wait()
}

// processPartition decides one key group: escalate it whole, or apply its
// rows in order. Rows in a partition share identity, so they are never
// split across a review boundary.
func (s *pipelineService) processPartition(ctx context.Context, user *catalog.User, kind staging.SourceKind, part []*batchRow) (BatchResult, error) {
	var res BatchResult

	if hasIdentityConflict(part) {
		if err := s.escalatePartition(ctx, user, kind, part, reviews.ReasonMultipleNewSameKey, nil); err != nil {
			return res, err
		}
		res.ReviewsCreated++
		res.RowsHeld += len(part)
		return res, nil
	}
	if part[0].Match.Ambiguous() {
		existing := part[0].Match.EANCandidate.ID
		if err := s.escalatePartition(ctx, user, kind, part, reviews.ReasonAmbiguousKey, &existing); err != nil {
			return res, err
		}
		res.ReviewsCreated++
		res.RowsHeld += len(part)
		return res, nil
	}

	// A matched partition with a set retail price gets the deviation
	// check before anything is applied.
	if product := part[0].Match.Product; product != nil && product.OurRetailPrice.Valid {
		for _, row := range part {
			if exceedsDeviation(product.OurRetailPrice.Decimal, row.Norm.Price, user.DeviationThreshold()) {
				if err := s.escalatePartition(ctx, user, kind, part, reviews.ReasonPriceDeviation, &product.ID); err != nil {
					return res, err
				}
				res.ReviewsCreated++
				res.RowsHeld += len(part)
				return res, nil
			}
		}
	}

	var product *catalog.Product
	if part[0].Match.Matched() {
		product = part[0].Match.Product
	}
	for _, row := range part {
		// The created product is promoted to the partition only after its
		// transaction commits. A rollback must leave later rows creating
		// their own product instead of referencing one that never landed.
		var txProduct *catalog.Product
		var txChange *ReconcileResult
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			txProduct = product
			txChange = nil
			if txProduct == nil {
				created, err := s.products.CreateFromObservation(ctx, tx, user, row.Norm)
				if err != nil {
					return err
				}
				txProduct = created
			}
			outcome, err := s.reconciler.Reconcile(ctx, tx, user, txProduct, row.Norm, row.Rec.ID)
			if err != nil {
				return err
			}
			txChange = outcome
			if _, err := s.fields.ApplyPayload(ctx, tx, user.ID, txProduct.ID, kind, row.Norm.SourceID, row.Norm.Payload); err != nil {
				return err
			}
			return s.repos.Staged.MarkProcessed(ctx, tx, kind, row.Rec.ID, txProduct.ID)
		})
		if err != nil {
			// Transient failure: the row stays pending for the next run,
			// the rest of the partition still gets its chance.
			s.log.Error("row processing failed", "kind", kind, "row_id", row.Rec.ID, "error", err)
			continue
		}
		if product == nil {
			product = txProduct
			res.ProductsCreated++
		}
		if txChange != nil && txChange.Change != nil {
			res.PriceChanges++
			metrics.PriceChangeRecorded(string(kind))
			s.notifier.PriceChanged(ctx, user.ID, txChange.Change)
		}
		res.AutoApplied++
		metrics.RowsProcessed(string(kind), 1)
	}
	return res, nil
}

// escalatePartition creates one review covering every row in the partition
// and parks the rows behind it.
func (s *pipelineService) escalatePartition(ctx context.Context, user *catalog.User, kind staging.SourceKind, part []*batchRow, reason reviews.ReviewReason, existingProductID *uuid.UUID) error {
	key, _ := MatchKeyOf(part[0].Norm)
	ids := make([]uuid.UUID, 0, len(part))
	for _, row := range part {
		ids = append(ids, row.Rec.ID)
	}
	idsJSON, err := json.Marshal(ids)
	if err != nil {
		return apperrs.Storage("pipeline.escalate", err)
	}

	first := part[0].Norm
	review := &reviews.ProductMatchReview{
		UserID:            user.ID,
		MatchKey:          key,
		EAN:               first.EAN,
		SourceKind:        kind,
		SourceRecordIDs:   datatypes.JSON(idsJSON),
		ExistingProductID: existingProductID,
		NewProductName:    first.Name,
		NewProductSKU:     first.SKU,
		NewProductBrand:   first.Brand,
		Reason:            reason,
		Status:            reviews.StatusPending,
	}
	if len(first.Payload) > 0 {
		if data, err := json.Marshal(first.Payload); err == nil {
			review.NewProductData = datatypes.JSON(data)
		}
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		created, err := s.repos.Reviews.Create(ctx, tx, []*reviews.ProductMatchReview{review})
		if err != nil {
			return apperrs.Storage("pipeline.review", err)
		}
		review = created[0]
		return s.repos.Staged.MarkHeld(ctx, tx, kind, ids)
	})
	if err != nil {
		return err
	}

	metrics.ReviewCreated(string(reason))
	s.notifier.ReviewCreated(ctx, user.ID, review)
	s.log.Info("partition held for review",
		"user_id", user.ID, "reason", reason, "match_key", key, "rows", len(ids))
	return nil
}

func (s *pipelineService) loadUser(ctx context.Context, userID uuid.UUID) (*catalog.User, error) {
	user, err := s.repos.Users.GetByID(ctx, nil, userID)
	if err != nil {
		return nil, apperrs.Storage("pipeline.user", err)
	}
	if user == nil {
		return nil, apperrs.ErrNotFound
	}
	return user, nil
}

func recordFromObservation(userID uuid.UUID, kind staging.SourceKind, norm *NormalizedObservation) (*staging.Record, error) {
	rec := &staging.Record{
		Kind:         kind,
		UserID:       userID,
		SourceID:     norm.SourceID,
		Name:         norm.Name,
		SKU:          norm.SKU,
		EAN:          norm.EAN,
		Brand:        norm.Brand,
		Price:        norm.Price,
		CurrencyCode: norm.CurrencyCode,
		URL:          norm.URL,
		ImageURL:     norm.ImageURL,
		ObservedAt:   norm.ObservedAt,
		Status:       staging.StatusPending,
	}
	if len(norm.Payload) > 0 {
		data, err := json.Marshal(norm.Payload)
		if err != nil {
			return nil, &apperrs.ValidationError{Field: "payload", Reason: err.Error()}
		}
		rec.RawData = datatypes.JSON(data)
	}
	return rec, nil
}

// skippedRecordFromRaw builds the audit row for an observation the
// normalizer rejected. Fields are best effort: the row exists to show what
// arrived and why it was refused, not to be processed.
func skippedRecordFromRaw(userID uuid.UUID, kind staging.SourceKind, raw RawObservation, skip *SkipReason) *staging.Record {
	price, err := ParsePrice(raw.Price)
	if err != nil {
		price = decimal.Zero
	}
	observedAt := raw.ObservedAt
	if observedAt.IsZero() {
		observedAt = time.Now().UTC()
	}
	reason := skip.String()
	rec := &staging.Record{
		Kind:         kind,
		UserID:       userID,
		SourceID:     raw.SourceID,
		Name:         raw.Name,
		SKU:          trimmedPtr(raw.SKU),
		EAN:          trimmedPtr(raw.EAN),
		Brand:        trimmedPtr(raw.Brand),
		Price:        price,
		CurrencyCode: raw.CurrencyCode,
		URL:          trimmedPtr(raw.URL),
		ImageURL:     trimmedPtr(raw.ImageURL),
		ObservedAt:   observedAt,
		Processed:    true,
		Status:       staging.StatusSkipped,
		ErrorMessage: &reason,
	}
	if data, err := json.Marshal(raw); err == nil {
		rec.RawData = datatypes.JSON(data)
	}
	return rec
}
