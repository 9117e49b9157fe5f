package reviews

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/nordiska/pricewatch-backend/internal/data/repos/testutil"
	types "github.com/nordiska/pricewatch-backend/internal/domain/reviews"
	"github.com/nordiska/pricewatch-backend/internal/domain/staging"
)

func seedReview(t *testing.T, ctx context.Context, tx *gorm.DB, repo ReviewRepo, userID uuid.UUID) *types.ProductMatchReview {
	t.Helper()
	created, err := repo.Create(ctx, tx, []*types.ProductMatchReview{{
		UserID:          userID,
		MatchKey:        "ean:111",
		SourceKind:      staging.SourceCompetitor,
		SourceRecordIDs: datatypes.JSON([]byte(`["` + uuid.NewString() + `"]`)),
		NewProductName:  "Widget",
		Reason:          types.ReasonMultipleNewSameKey,
		Status:          types.StatusPending,
	}})
	if err != nil {
		t.Fatalf("Create review: %v", err)
	}
	return created[0]
}

func TestReviewRepoApproveIsSingleShot(t *testing.T) {
	tx := testutil.Tx(t, testutil.DB(t))
	ctx := context.Background()
	repo := NewReviewRepo(tx, testutil.Logger(t))

	user := testutil.SeedUser(t, ctx, tx, "reviews-approve@test.local")
	review := seedReview(t, ctx, tx, repo, user.ID)
	reviewer := uuid.New()

	ok, err := repo.ResolveApproved(ctx, tx, user.ID, review.ID, reviewer, time.Now().UTC())
	if err != nil {
		t.Fatalf("ResolveApproved: %v", err)
	}
	if !ok {
		t.Fatalf("first approval must succeed")
	}

	// Terminal reviews reject any further transition.
	ok, err = repo.ResolveApproved(ctx, tx, user.ID, review.ID, reviewer, time.Now().UTC())
	if err != nil {
		t.Fatalf("ResolveApproved repeat: %v", err)
	}
	if ok {
		t.Fatalf("second approval must be a no-op")
	}
	ok, err = repo.ResolveDeclined(ctx, tx, user.ID, review.ID, reviewer, time.Now().UTC(), nil)
	if err != nil {
		t.Fatalf("ResolveDeclined after approve: %v", err)
	}
	if ok {
		t.Fatalf("decline after approve must be a no-op")
	}

	got, err := repo.GetByID(ctx, tx, user.ID, review.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != types.StatusApprovedMatch || got.ReviewedBy == nil || got.ReviewedAt == nil {
		t.Fatalf("approved review: %+v", got)
	}
}

func TestReviewRepoDeclineRecordsCreatedProduct(t *testing.T) {
	tx := testutil.Tx(t, testutil.DB(t))
	ctx := context.Background()
	repo := NewReviewRepo(tx, testutil.Logger(t))

	user := testutil.SeedUser(t, ctx, tx, "reviews-decline@test.local")
	review := seedReview(t, ctx, tx, repo, user.ID)
	product := testutil.SeedProduct(t, ctx, tx, user.ID, "New Widget", nil, nil, nil)

	ok, err := repo.ResolveDeclined(ctx, tx, user.ID, review.ID, uuid.New(), time.Now().UTC(), &product.ID)
	if err != nil {
		t.Fatalf("ResolveDeclined: %v", err)
	}
	if !ok {
		t.Fatalf("decline must succeed on pending review")
	}
	got, err := repo.GetByID(ctx, tx, user.ID, review.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != types.StatusDeclinedMatch {
		t.Fatalf("status: %s", got.Status)
	}
	if got.CreatedProductID == nil || *got.CreatedProductID != product.ID {
		t.Fatalf("created product id: %v", got.CreatedProductID)
	}
}

func TestReviewRepoListAndCountByStatus(t *testing.T) {
	tx := testutil.Tx(t, testutil.DB(t))
	ctx := context.Background()
	repo := NewReviewRepo(tx, testutil.Logger(t))

	user := testutil.SeedUser(t, ctx, tx, "reviews-list@test.local")
	first := seedReview(t, ctx, tx, repo, user.ID)
	seedReview(t, ctx, tx, repo, user.ID)

	if _, err := repo.ResolveApproved(ctx, tx, user.ID, first.ID, uuid.New(), time.Now().UTC()); err != nil {
		t.Fatalf("ResolveApproved: %v", err)
	}

	pending, err := repo.ListByStatus(ctx, tx, user.ID, types.StatusPending, 10, 0)
	if err != nil {
		t.Fatalf("ListByStatus: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("pending: want=1 got=%d", len(pending))
	}
	n, err := repo.CountByStatus(ctx, tx, user.ID, types.StatusPending)
	if err != nil {
		t.Fatalf("CountByStatus: %v", err)
	}
	if n != 1 {
		t.Fatalf("pending count: want=1 got=%d", n)
	}
}
