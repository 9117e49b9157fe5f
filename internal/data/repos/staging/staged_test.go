package staging

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/nordiska/pricewatch-backend/internal/data/repos/testutil"
	types "github.com/nordiska/pricewatch-backend/internal/domain/staging"
)

func TestStagedRepoRoundTripAllKinds(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()

	for _, kind := range types.Kinds() {
		kind := kind
		t.Run(string(kind), func(t *testing.T) {
			tx := testutil.Tx(t, db)
			repo := NewStagedRepo(tx, testutil.Logger(t))
			user := testutil.SeedUser(t, ctx, tx, "staged-"+string(kind)+"@test.local")

			rec := &types.Record{
				Kind:         kind,
				UserID:       user.ID,
				SourceID:     uuid.New(),
				Name:         "Widget",
				EAN:          testutil.PtrStr("111"),
				Price:        testutil.Dec(t, "149.50"),
				CurrencyCode: "SEK",
				Status:       types.StatusPending,
			}
			created, err := repo.Create(ctx, tx, kind, []*types.Record{rec})
			if err != nil {
				t.Fatalf("Create: %v", err)
			}
			if len(created) != 1 || created[0].ID == uuid.Nil {
				t.Fatalf("Create: len=%d", len(created))
			}

			pending, err := repo.GetUnprocessed(ctx, tx, kind, user.ID, 10)
			if err != nil {
				t.Fatalf("GetUnprocessed: %v", err)
			}
			if len(pending) != 1 || pending[0].Name != "Widget" {
				t.Fatalf("GetUnprocessed: len=%d", len(pending))
			}
			if pending[0].Price.String() != "149.5" {
				t.Fatalf("price round trip: got %s", pending[0].Price.String())
			}
		})
	}
}

func TestStagedRepoLifecycleMarks(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	tx := testutil.Tx(t, db)
	repo := NewStagedRepo(tx, testutil.Logger(t))

	user := testutil.SeedUser(t, ctx, tx, "staged-lifecycle@test.local")
	comp := testutil.SeedCompetitor(t, ctx, tx, user.ID, "rival.example")
	mk := func(name string) *types.Record {
		rec := &types.Record{
			Kind:         types.SourceCompetitor,
			UserID:       user.ID,
			SourceID:     comp.ID,
			Name:         name,
			Price:        testutil.Dec(t, "10"),
			CurrencyCode: "SEK",
			Status:       types.StatusPending,
		}
		created, err := repo.Create(ctx, tx, types.SourceCompetitor, []*types.Record{rec})
		if err != nil {
			t.Fatalf("Create %s: %v", name, err)
		}
		return created[0]
	}
	done := mk("done")
	skipped := mk("skipped")
	held := mk("held")
	pending := mk("pending")

	productID := testutil.SeedProduct(t, ctx, tx, user.ID, "done", nil, nil, nil).ID
	if err := repo.MarkProcessed(ctx, tx, types.SourceCompetitor, done.ID, productID); err != nil {
		t.Fatalf("MarkProcessed: %v", err)
	}
	if err := repo.MarkSkipped(ctx, tx, types.SourceCompetitor, skipped.ID, "missing price"); err != nil {
		t.Fatalf("MarkSkipped: %v", err)
	}
	if err := repo.MarkHeld(ctx, tx, types.SourceCompetitor, []uuid.UUID{held.ID}); err != nil {
		t.Fatalf("MarkHeld: %v", err)
	}

	// Only the untouched row is still claimable.
	rows, err := repo.GetUnprocessed(ctx, tx, types.SourceCompetitor, user.ID, 10)
	if err != nil {
		t.Fatalf("GetUnprocessed: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != pending.ID {
		t.Fatalf("GetUnprocessed after marks: len=%d", len(rows))
	}

	// Held rows stay unprocessed: the review decides their fate later.
	byID, err := repo.GetByIDs(ctx, tx, types.SourceCompetitor, user.ID, []uuid.UUID{held.ID})
	if err != nil {
		t.Fatalf("GetByIDs: %v", err)
	}
	if len(byID) != 1 {
		t.Fatalf("GetByIDs: len=%d", len(byID))
	}
	if byID[0].Processed || byID[0].Status != types.StatusReview {
		t.Fatalf("held row: processed=%v status=%s", byID[0].Processed, byID[0].Status)
	}

	byID, err = repo.GetByIDs(ctx, tx, types.SourceCompetitor, user.ID, []uuid.UUID{done.ID})
	if err != nil {
		t.Fatalf("GetByIDs done: %v", err)
	}
	if !byID[0].Processed || byID[0].Status != types.StatusDone || byID[0].ProductID == nil {
		t.Fatalf("processed row: %+v", byID[0])
	}

	byID, err = repo.GetByIDs(ctx, tx, types.SourceCompetitor, user.ID, []uuid.UUID{skipped.ID})
	if err != nil {
		t.Fatalf("GetByIDs skipped: %v", err)
	}
	if byID[0].Status != types.StatusSkipped || byID[0].ErrorMessage == nil {
		t.Fatalf("skipped row: %+v", byID[0])
	}
}

func TestStagedRepoDeleteByProductIDs(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	tx := testutil.Tx(t, db)
	repo := NewStagedRepo(tx, testutil.Logger(t))

	user := testutil.SeedUser(t, ctx, tx, "staged-delete@test.local")
	comp := testutil.SeedCompetitor(t, ctx, tx, user.ID, "rival.example")
	product := testutil.SeedProduct(t, ctx, tx, user.ID, "Widget", nil, nil, nil)

	rec := &types.Record{
		Kind:         types.SourceCompetitor,
		UserID:       user.ID,
		SourceID:     comp.ID,
		Name:         "Widget",
		Price:        testutil.Dec(t, "10"),
		CurrencyCode: "SEK",
		Status:       types.StatusPending,
	}
	created, err := repo.Create(ctx, tx, types.SourceCompetitor, []*types.Record{rec})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.MarkProcessed(ctx, tx, types.SourceCompetitor, created[0].ID, product.ID); err != nil {
		t.Fatalf("MarkProcessed: %v", err)
	}

	if err := repo.DeleteByProductIDs(ctx, tx, user.ID, []uuid.UUID{product.ID}); err != nil {
		t.Fatalf("DeleteByProductIDs: %v", err)
	}
	rows, err := repo.GetByIDs(ctx, tx, types.SourceCompetitor, user.ID, []uuid.UUID{created[0].ID})
	if err != nil {
		t.Fatalf("GetByIDs: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("linked staged row should be gone, got %d", len(rows))
	}
}
