package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nordiska/pricewatch-backend/internal/data/repos"
	"github.com/nordiska/pricewatch-backend/internal/data/repos/testutil"
	"github.com/nordiska/pricewatch-backend/internal/domain/pricing"
	"github.com/nordiska/pricewatch-backend/internal/domain/reviews"
	"github.com/nordiska/pricewatch-backend/internal/domain/staging"
)

type pipelineFixture struct {
	tx       *gorm.DB
	repos    repos.Set
	pipeline PipelineService
	reviews  ReviewService
	products ProductService
}

func newPipelineFixture(t *testing.T) *pipelineFixture {
	t.Helper()
	tx := testutil.Tx(t, testutil.DB(t))
	log := testutil.Logger(t)
	rs := repos.NewSet(tx, log)

	matcher := NewMatcherService(log, rs.Products)
	reconciler := NewReconcilerService(rs.PriceChanges, rs.Products, log)
	fields := NewCustomFieldService(rs.FieldDefs, rs.FieldValues, log)
	products := NewProductService(tx, rs, log)
	pipeline := NewPipelineService(tx, rs, matcher, reconciler, fields, products, nil, log)
	reviewSvc := NewReviewService(tx, rs, reconciler, fields, products, nil, log)

	return &pipelineFixture{
		tx:       tx,
		repos:    rs,
		pipeline: pipeline,
		reviews:  reviewSvc,
		products: products,
	}
}

func competitorObs(userID, compID uuid.UUID, name, ean, price string) RawObservation {
	return RawObservation{
		TenantID: userID.String(),
		Kind:     staging.SourceCompetitor,
		SourceID: compID,
		Name:     name,
		EAN:      ean,
		Brand:    "Acme",
		Price:    price,
	}
}

func TestPipelineCreatesProductAndSeedsLineage(t *testing.T) {
	f := newPipelineFixture(t)
	ctx := context.Background()
	user := testutil.SeedUser(t, ctx, f.tx, "pipe-create@test.local")
	comp := testutil.SeedCompetitor(t, ctx, f.tx, user.ID, "rival.example")

	res, err := f.pipeline.Ingest(ctx, user.ID, staging.SourceCompetitor,
		[]RawObservation{competitorObs(user.ID, comp.ID, "Widget Pro", "111", "100")})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if res.ProductsCreated != 1 || res.AutoApplied != 1 || res.ReviewsCreated != 0 {
		t.Fatalf("first ingest: %+v", res)
	}
	if res.PriceChanges != 1 {
		t.Fatalf("seeding must record the baseline: %+v", res)
	}

	items, total, err := f.products.List(ctx, user.ID, 10, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 1 {
		t.Fatalf("products: want=1 got=%d", total)
	}
	history, err := f.products.PriceHistory(ctx, user.ID, items[0].ID, 10)
	if err != nil {
		t.Fatalf("PriceHistory: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("history: want=1 got=%d", len(history))
	}
	seed := history[0]
	if !seed.OldPrice.Equal(seed.NewPrice) || seed.PriceChangePercentage != 0 {
		t.Fatalf("seed change must have zero delta: %+v", seed)
	}
}

func TestPipelineRecordsPriceMoveAndIsIdempotent(t *testing.T) {
	f := newPipelineFixture(t)
	ctx := context.Background()
	user := testutil.SeedUser(t, ctx, f.tx, "pipe-move@test.local")
	comp := testutil.SeedCompetitor(t, ctx, f.tx, user.ID, "rival.example")

	if _, err := f.pipeline.Ingest(ctx, user.ID, staging.SourceCompetitor,
		[]RawObservation{competitorObs(user.ID, comp.ID, "Widget", "111", "100")}); err != nil {
		t.Fatalf("seed ingest: %v", err)
	}
	res, err := f.pipeline.Ingest(ctx, user.ID, staging.SourceCompetitor,
		[]RawObservation{competitorObs(user.ID, comp.ID, "Widget", "111", "80")})
	if err != nil {
		t.Fatalf("move ingest: %v", err)
	}
	if res.PriceChanges != 1 || res.ProductsCreated != 0 {
		t.Fatalf("move: %+v", res)
	}

	items, _, err := f.products.List(ctx, user.ID, 10, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	history, err := f.products.PriceHistory(ctx, user.ID, items[0].ID, 10)
	if err != nil {
		t.Fatalf("PriceHistory: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("history: want=2 got=%d", len(history))
	}
	// Newest first.
	if history[0].PriceChangePercentage != -20 {
		t.Fatalf("move pct: want=-20 got=%v", history[0].PriceChangePercentage)
	}

	// A re-run over the drained staging table does nothing.
	again, err := f.pipeline.ProcessPending(ctx, user.ID, staging.SourceCompetitor, 100)
	if err != nil {
		t.Fatalf("ProcessPending: %v", err)
	}
	if again.RowsTotal != 0 || again.PriceChanges != 0 {
		t.Fatalf("re-run must be a no-op: %+v", again)
	}
}

func TestPipelineToleranceSuppressesNoise(t *testing.T) {
	f := newPipelineFixture(t)
	ctx := context.Background()
	user := testutil.SeedUser(t, ctx, f.tx, "pipe-tolerance@test.local")
	comp := testutil.SeedCompetitor(t, ctx, f.tx, user.ID, "rival.example")

	if _, err := f.pipeline.Ingest(ctx, user.ID, staging.SourceCompetitor,
		[]RawObservation{competitorObs(user.ID, comp.ID, "Widget", "111", "100")}); err != nil {
		t.Fatalf("seed ingest: %v", err)
	}
	res, err := f.pipeline.Ingest(ctx, user.ID, staging.SourceCompetitor,
		[]RawObservation{competitorObs(user.ID, comp.ID, "Widget", "111", "100.50")})
	if err != nil {
		t.Fatalf("noise ingest: %v", err)
	}
	if res.PriceChanges != 0 {
		t.Fatalf("0.5%% move is noise, not a change: %+v", res)
	}
	if res.AutoApplied != 1 {
		t.Fatalf("the row still completes: %+v", res)
	}
}

func TestPipelineEscalatesIdentityConflict(t *testing.T) {
	f := newPipelineFixture(t)
	ctx := context.Background()
	user := testutil.SeedUser(t, ctx, f.tx, "pipe-conflict@test.local")
	comp := testutil.SeedCompetitor(t, ctx, f.tx, user.ID, "rival.example")

	res, err := f.pipeline.Ingest(ctx, user.ID, staging.SourceCompetitor, []RawObservation{
		competitorObs(user.ID, comp.ID, "Widget Pro", "111", "100"),
		competitorObs(user.ID, comp.ID, "Widget Pro Refurbished", "111", "60"),
	})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if res.ReviewsCreated != 1 || res.RowsHeld != 2 {
		t.Fatalf("conflict batch: %+v", res)
	}
	if res.ProductsCreated != 0 || res.PriceChanges != 0 {
		t.Fatalf("nothing may auto-apply on conflict: %+v", res)
	}

	pending, err := f.reviews.List(ctx, user.ID, reviews.StatusPending, 10, 0)
	if err != nil {
		t.Fatalf("List reviews: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("one review for the whole key group: got %d", len(pending))
	}
	if pending[0].Reason != reviews.ReasonMultipleNewSameKey || pending[0].MatchKey != "ean:111" {
		t.Fatalf("review: %+v", pending[0])
	}
}

func TestPipelineEscalatesPriceDeviation(t *testing.T) {
	f := newPipelineFixture(t)
	ctx := context.Background()
	user := testutil.SeedUser(t, ctx, f.tx, "pipe-deviation@test.local")
	comp := testutil.SeedCompetitor(t, ctx, f.tx, user.ID, "rival.example")
	product := testutil.SeedProduct(t, ctx, f.tx, user.ID, "Widget",
		testutil.PtrStr("111"), testutil.PtrStr("Acme"), nil)
	if err := f.repos.Products.UpdateFields(ctx, f.tx, product.ID, map[string]interface{}{
		"our_retail_price": testutil.Dec(t, "1000"),
	}); err != nil {
		t.Fatalf("set retail price: %v", err)
	}

	res, err := f.pipeline.Ingest(ctx, user.ID, staging.SourceCompetitor,
		[]RawObservation{competitorObs(user.ID, comp.ID, "Widget", "111", "300")})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if res.ReviewsCreated != 1 || res.RowsHeld != 1 || res.PriceChanges != 0 {
		t.Fatalf("deviation batch: %+v", res)
	}
	pending, err := f.reviews.List(ctx, user.ID, reviews.StatusPending, 10, 0)
	if err != nil {
		t.Fatalf("List reviews: %v", err)
	}
	if pending[0].Reason != reviews.ReasonPriceDeviation {
		t.Fatalf("reason: %s", pending[0].Reason)
	}
	if pending[0].ExistingProductID == nil || *pending[0].ExistingProductID != product.ID {
		t.Fatalf("review must point at the matched product")
	}
}

func TestReviewApproveAppliesHeldRows(t *testing.T) {
	f := newPipelineFixture(t)
	ctx := context.Background()
	user := testutil.SeedUser(t, ctx, f.tx, "pipe-approve@test.local")
	comp := testutil.SeedCompetitor(t, ctx, f.tx, user.ID, "rival.example")
	product := testutil.SeedProduct(t, ctx, f.tx, user.ID, "Widget",
		testutil.PtrStr("111"), testutil.PtrStr("Acme"), nil)
	if err := f.repos.Products.UpdateFields(ctx, f.tx, product.ID, map[string]interface{}{
		"our_retail_price": testutil.Dec(t, "1000"),
	}); err != nil {
		t.Fatalf("set retail price: %v", err)
	}

	if _, err := f.pipeline.Ingest(ctx, user.ID, staging.SourceCompetitor,
		[]RawObservation{competitorObs(user.ID, comp.ID, "Widget", "111", "300")}); err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	pending, err := f.reviews.List(ctx, user.ID, reviews.StatusPending, 10, 0)
	if err != nil {
		t.Fatalf("List reviews: %v", err)
	}

	res, err := f.reviews.Approve(ctx, user.ID, pending[0].ID, user.ID)
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if res.RowsApplied != 1 || res.Product == nil || res.Product.ID != product.ID {
		t.Fatalf("resolution: %+v", res)
	}

	history, err := f.products.PriceHistory(ctx, user.ID, product.ID, 10)
	if err != nil {
		t.Fatalf("PriceHistory: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("approved price must land: got %d changes", len(history))
	}

	// The review is terminal now.
	if _, err := f.reviews.Approve(ctx, user.ID, pending[0].ID, user.ID); err == nil {
		t.Fatalf("second approve must fail")
	}
}

func TestReviewDeclineCreatesSeparateProduct(t *testing.T) {
	f := newPipelineFixture(t)
	ctx := context.Background()
	user := testutil.SeedUser(t, ctx, f.tx, "pipe-decline@test.local")
	comp := testutil.SeedCompetitor(t, ctx, f.tx, user.ID, "rival.example")

	if _, err := f.pipeline.Ingest(ctx, user.ID, staging.SourceCompetitor, []RawObservation{
		competitorObs(user.ID, comp.ID, "Widget Pro", "111", "100"),
		competitorObs(user.ID, comp.ID, "Widget Pro Refurbished", "111", "60"),
	}); err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	pending, err := f.reviews.List(ctx, user.ID, reviews.StatusPending, 10, 0)
	if err != nil {
		t.Fatalf("List reviews: %v", err)
	}

	res, err := f.reviews.Decline(ctx, user.ID, pending[0].ID, user.ID)
	if err != nil {
		t.Fatalf("Decline: %v", err)
	}
	if res.Product == nil || res.RowsApplied != 2 {
		t.Fatalf("decline resolution: %+v", res)
	}

	got, err := f.repos.Reviews.GetByID(ctx, f.tx, user.ID, pending[0].ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != reviews.StatusDeclinedMatch {
		t.Fatalf("status: %s", got.Status)
	}
	if got.CreatedProductID == nil || *got.CreatedProductID != res.Product.ID {
		t.Fatalf("created product must be recorded on the review")
	}

	// Held rows now belong to the new product.
	rows, err := f.repos.Staged.GetByIDs(ctx, f.tx, staging.SourceCompetitor, user.ID, recordIDs(t, got))
	if err != nil {
		t.Fatalf("GetByIDs: %v", err)
	}
	for _, row := range rows {
		if row.ProductID == nil || *row.ProductID != res.Product.ID {
			t.Fatalf("held row not relinked: %+v", row)
		}
		if !row.Processed {
			t.Fatalf("released row must be processed")
		}
	}
}

func TestPipelineSkipsMalformedRowsWithoutFailingBatch(t *testing.T) {
	f := newPipelineFixture(t)
	ctx := context.Background()
	user := testutil.SeedUser(t, ctx, f.tx, "pipe-skip@test.local")
	comp := testutil.SeedCompetitor(t, ctx, f.tx, user.ID, "rival.example")

	bad := competitorObs(user.ID, comp.ID, "", "222", "50")
	good := competitorObs(user.ID, comp.ID, "Widget", "111", "100")
	res, err := f.pipeline.Ingest(ctx, user.ID, staging.SourceCompetitor, []RawObservation{bad, good})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if res.RowsSkipped != 1 || res.AutoApplied != 1 {
		t.Fatalf("mixed batch: %+v", res)
	}

	// The rejected observation still leaves an audit row.
	var audit []*staging.StagedCompetitorRecord
	if err := f.tx.WithContext(ctx).
		Where("user_id = ? AND status = ?", user.ID, staging.StatusSkipped).
		Find(&audit).Error; err != nil {
		t.Fatalf("load audit rows: %v", err)
	}
	if len(audit) != 1 {
		t.Fatalf("skipped row must be staged: got %d", len(audit))
	}
	if !audit[0].Processed || audit[0].ErrorMessage == nil || *audit[0].ErrorMessage == "" {
		t.Fatalf("audit row must carry the refusal: %+v", audit[0])
	}
	if ean := audit[0].EAN; ean == nil || *ean != "222" {
		t.Fatalf("audit row must keep what arrived: %+v", audit[0])
	}

	// Drains never pick the audit row back up.
	again, err := f.pipeline.ProcessPending(ctx, user.ID, staging.SourceCompetitor, 100)
	if err != nil {
		t.Fatalf("ProcessPending: %v", err)
	}
	if again.RowsTotal != 0 {
		t.Fatalf("audit rows are terminal: %+v", again)
	}
}

func TestReviewDeclineDeviationCreatesSeparateProduct(t *testing.T) {
	f := newPipelineFixture(t)
	ctx := context.Background()
	user := testutil.SeedUser(t, ctx, f.tx, "pipe-decline-dev@test.local")
	comp := testutil.SeedCompetitor(t, ctx, f.tx, user.ID, "rival.example")
	product := testutil.SeedProduct(t, ctx, f.tx, user.ID, "Widget",
		testutil.PtrStr("111"), testutil.PtrStr("Acme"), nil)
	if err := f.repos.Products.UpdateFields(ctx, f.tx, product.ID, map[string]interface{}{
		"our_retail_price": testutil.Dec(t, "1000"),
	}); err != nil {
		t.Fatalf("set retail price: %v", err)
	}

	if _, err := f.pipeline.Ingest(ctx, user.ID, staging.SourceCompetitor,
		[]RawObservation{competitorObs(user.ID, comp.ID, "Widget", "111", "300")}); err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	pending, err := f.reviews.List(ctx, user.ID, reviews.StatusPending, 10, 0)
	if err != nil {
		t.Fatalf("List reviews: %v", err)
	}
	if pending[0].Reason != reviews.ReasonPriceDeviation {
		t.Fatalf("reason: %s", pending[0].Reason)
	}

	// Declining a deviation hold means "this is not my product": the rows
	// get their own catalog entry, same as any other declined match.
	res, err := f.reviews.Decline(ctx, user.ID, pending[0].ID, user.ID)
	if err != nil {
		t.Fatalf("Decline: %v", err)
	}
	if res.Product == nil || res.Product.ID == product.ID {
		t.Fatalf("decline must create a separate product: %+v", res)
	}
	if res.RowsApplied != 1 {
		t.Fatalf("held row must apply to the new product: %+v", res)
	}

	got, err := f.repos.Reviews.GetByID(ctx, f.tx, user.ID, pending[0].ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.CreatedProductID == nil || *got.CreatedProductID != res.Product.ID {
		t.Fatalf("created product must be recorded on the review")
	}
	rows, err := f.repos.Staged.GetByIDs(ctx, f.tx, staging.SourceCompetitor, user.ID, recordIDs(t, got))
	if err != nil {
		t.Fatalf("GetByIDs: %v", err)
	}
	if rows[0].ProductID == nil || *rows[0].ProductID != res.Product.ID {
		t.Fatalf("held row not relinked: %+v", rows[0])
	}

	// The matched product keeps its history untouched.
	history, err := f.products.PriceHistory(ctx, user.ID, product.ID, 10)
	if err != nil {
		t.Fatalf("PriceHistory: %v", err)
	}
	if len(history) != 0 {
		t.Fatalf("declined rows must not touch the matched product: %d changes", len(history))
	}
}

func TestReviewApproveAllReportsPerReview(t *testing.T) {
	f := newPipelineFixture(t)
	ctx := context.Background()
	user := testutil.SeedUser(t, ctx, f.tx, "pipe-approve-all@test.local")
	comp := testutil.SeedCompetitor(t, ctx, f.tx, user.ID, "rival.example")

	if _, err := f.pipeline.Ingest(ctx, user.ID, staging.SourceCompetitor, []RawObservation{
		competitorObs(user.ID, comp.ID, "Widget Pro", "111", "100"),
		competitorObs(user.ID, comp.ID, "Widget Pro Refurbished", "111", "60"),
	}); err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	pending, err := f.reviews.List(ctx, user.ID, reviews.StatusPending, 10, 0)
	if err != nil {
		t.Fatalf("List reviews: %v", err)
	}

	missing := uuid.New()
	outcomes, err := f.reviews.ApproveAll(ctx, user.ID, user.ID, []uuid.UUID{pending[0].ID, missing})
	if err != nil {
		t.Fatalf("ApproveAll: %v", err)
	}
	if len(outcomes) != 2 {
		t.Fatalf("one outcome per id: got %d", len(outcomes))
	}
	if !outcomes[0].Approved || outcomes[0].ReviewID != pending[0].ID {
		t.Fatalf("first outcome: %+v", outcomes[0])
	}
	if outcomes[1].Approved || outcomes[1].Error == "" {
		t.Fatalf("unknown id must fail per-id, not fatally: %+v", outcomes[1])
	}

	if _, err := f.reviews.ApproveAll(ctx, user.ID, user.ID, nil); err == nil {
		t.Fatalf("empty id list must be rejected")
	}
}

func TestPipelineRowRollbackDoesNotLeakProduct(t *testing.T) {
	tx := testutil.Tx(t, testutil.DB(t))
	log := testutil.Logger(t)
	ctx := context.Background()

	rs := repos.NewSet(tx, log)
	rs.PriceChanges = &failOnceChangeRepo{PriceChangeRepo: rs.PriceChanges, remaining: 1}

	matcher := NewMatcherService(log, rs.Products)
	reconciler := NewReconcilerService(rs.PriceChanges, rs.Products, log)
	fields := NewCustomFieldService(rs.FieldDefs, rs.FieldValues, log)
	products := NewProductService(tx, rs, log)
	pipeline := NewPipelineService(tx, rs, matcher, reconciler, fields, products, nil, log)

	user := testutil.SeedUser(t, ctx, tx, "pipe-rollback@test.local")
	comp := testutil.SeedCompetitor(t, ctx, tx, user.ID, "rival.example")

	// Both rows share one key group. The first row's transaction rolls
	// back, so its product creation must not leak into the second row.
	res, err := pipeline.Ingest(ctx, user.ID, staging.SourceCompetitor, []RawObservation{
		competitorObs(user.ID, comp.ID, "Widget", "111", "100"),
		competitorObs(user.ID, comp.ID, "Widget", "111", "100"),
	})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if res.AutoApplied != 1 || res.ProductsCreated != 1 {
		t.Fatalf("only the committed row counts: %+v", res)
	}

	items, total, err := products.List(ctx, user.ID, 10, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 1 {
		t.Fatalf("exactly one product may exist: got %d", total)
	}
	history, err := products.PriceHistory(ctx, user.ID, items[0].ID, 10)
	if err != nil {
		t.Fatalf("PriceHistory: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("the surviving product owns the seed: got %d changes", len(history))
	}

	// The failed row stayed pending and retries cleanly.
	again, err := pipeline.ProcessPending(ctx, user.ID, staging.SourceCompetitor, 100)
	if err != nil {
		t.Fatalf("ProcessPending: %v", err)
	}
	if again.RowsTotal != 1 || again.AutoApplied != 1 || again.ProductsCreated != 0 {
		t.Fatalf("retry must reuse the existing product: %+v", again)
	}
}

func TestProcessBatchTargetsOnlyGivenRows(t *testing.T) {
	f := newPipelineFixture(t)
	ctx := context.Background()
	user := testutil.SeedUser(t, ctx, f.tx, "pipe-batch-ids@test.local")
	comp := testutil.SeedCompetitor(t, ctx, f.tx, user.ID, "rival.example")

	first := testutil.SeedStagedCompetitorRow(t, ctx, f.tx, user.ID, comp.ID,
		"Widget", "100", testutil.PtrStr("111"), testutil.PtrStr("Acme"), nil)
	second := testutil.SeedStagedCompetitorRow(t, ctx, f.tx, user.ID, comp.ID,
		"Gadget", "200", testutil.PtrStr("222"), testutil.PtrStr("Acme"), nil)

	res, err := f.pipeline.ProcessBatch(ctx, user.ID, staging.SourceCompetitor, []uuid.UUID{first.ID})
	if err != nil {
		t.Fatalf("ProcessBatch: %v", err)
	}
	if res.RowsTotal != 1 || res.AutoApplied != 1 || res.ProductsCreated != 1 {
		t.Fatalf("targeted batch: %+v", res)
	}

	rows, err := f.repos.Staged.GetByIDs(ctx, f.tx, staging.SourceCompetitor, user.ID, []uuid.UUID{second.ID})
	if err != nil {
		t.Fatalf("GetByIDs: %v", err)
	}
	if rows[0].Processed {
		t.Fatalf("untargeted row must stay pending")
	}

	// Rows no longer pending are left alone on a repeat call.
	again, err := f.pipeline.ProcessBatch(ctx, user.ID, staging.SourceCompetitor, []uuid.UUID{first.ID})
	if err != nil {
		t.Fatalf("ProcessBatch repeat: %v", err)
	}
	if again.RowsTotal != 0 {
		t.Fatalf("drained row must not reprocess: %+v", again)
	}

	if _, err := f.pipeline.ProcessBatch(ctx, user.ID, staging.SourceCompetitor, nil); err == nil {
		t.Fatalf("empty id list must be rejected")
	}
}

func TestProductDeleteCascadesDependents(t *testing.T) {
	f := newPipelineFixture(t)
	ctx := context.Background()
	user := testutil.SeedUser(t, ctx, f.tx, "pipe-cascade@test.local")
	comp := testutil.SeedCompetitor(t, ctx, f.tx, user.ID, "rival.example")

	if _, err := f.pipeline.Ingest(ctx, user.ID, staging.SourceCompetitor,
		[]RawObservation{competitorObs(user.ID, comp.ID, "Widget", "111", "100")}); err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	items, _, err := f.products.List(ctx, user.ID, 10, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	productID := items[0].ID

	if err := f.products.Delete(ctx, user.ID, []uuid.UUID{productID}); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	gone, err := f.repos.Products.GetByID(ctx, f.tx, user.ID, productID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if gone != nil {
		t.Fatalf("product must be gone")
	}
	var changes int64
	if err := f.tx.WithContext(ctx).Table("price_changes").
		Where("product_id = ?", productID).Count(&changes).Error; err != nil {
		t.Fatalf("count changes: %v", err)
	}
	if changes != 0 {
		t.Fatalf("price history must cascade: %d left", changes)
	}
	var staged int64
	if err := f.tx.WithContext(ctx).Table("staged_competitor_records").
		Where("product_id = ?", productID).Count(&staged).Error; err != nil {
		t.Fatalf("count staged: %v", err)
	}
	if staged != 0 {
		t.Fatalf("staged links must cascade: %d left", staged)
	}
}

func recordIDs(t *testing.T, review *reviews.ProductMatchReview) []uuid.UUID {
	t.Helper()
	var ids []uuid.UUID
	if err := json.Unmarshal(review.SourceRecordIDs, &ids); err != nil {
		t.Fatalf("record ids: %v", err)
	}
	return ids
}

// failOnceChangeRepo fails the first price-change write and then behaves
// normally, standing in for a transient storage fault mid-batch.
type failOnceChangeRepo struct {
	repos.PriceChangeRepo
	remaining int
}

func (r *failOnceChangeRepo) Create(ctx context.Context, tx *gorm.DB, rows []*pricing.PriceChange) ([]*pricing.PriceChange, error) {
	if r.remaining > 0 {
		r.remaining--
		return nil, errors.New("write unavailable")
	}
	return r.PriceChangeRepo.Create(ctx, tx, rows)
}
