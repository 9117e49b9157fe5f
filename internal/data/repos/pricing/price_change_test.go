package pricing

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/nordiska/pricewatch-backend/internal/data/repos/testutil"
	types "github.com/nordiska/pricewatch-backend/internal/domain/pricing"
	"github.com/nordiska/pricewatch-backend/internal/domain/staging"
)

func TestPriceChangeRepoLatestForSource(t *testing.T) {
	tx := testutil.Tx(t, testutil.DB(t))
	ctx := context.Background()
	repo := NewPriceChangeRepo(tx, testutil.Logger(t))

	user := testutil.SeedUser(t, ctx, tx, "pricing-latest@test.local")
	product := testutil.SeedProduct(t, ctx, tx, user.ID, "Widget", nil, nil, nil)
	compA := testutil.SeedCompetitor(t, ctx, tx, user.ID, "a.example")
	compB := testutil.SeedCompetitor(t, ctx, tx, user.ID, "b.example")

	now := time.Now().UTC()
	mk := func(comp uuid.UUID, price string, at time.Time) *types.PriceChange {
		return &types.PriceChange{
			UserID:       user.ID,
			ProductID:    product.ID,
			CompetitorID: testutil.PtrUUID(comp),
			SourceKind:   staging.SourceCompetitor,
			OldPrice:     testutil.Dec(t, price),
			NewPrice:     testutil.Dec(t, price),
			CurrencyCode: "SEK",
			ChangedAt:    at,
		}
	}
	if _, err := repo.Create(ctx, tx, []*types.PriceChange{
		mk(compA.ID, "100", now.Add(-2*time.Hour)),
		mk(compA.ID, "90", now.Add(-1*time.Hour)),
		mk(compB.ID, "500", now),
	}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	latest, err := repo.LatestForSource(ctx, tx, user.ID, product.ID,
		types.SourceRef{Kind: staging.SourceCompetitor, ID: compA.ID})
	if err != nil {
		t.Fatalf("LatestForSource: %v", err)
	}
	if latest == nil || latest.NewPrice.String() != "90" {
		t.Fatalf("lineage A latest: %+v", latest)
	}

	// CSV shares the competitor lineage column.
	latest, err = repo.LatestForSource(ctx, tx, user.ID, product.ID,
		types.SourceRef{Kind: staging.SourceCSV, ID: compA.ID})
	if err != nil {
		t.Fatalf("LatestForSource csv: %v", err)
	}
	if latest == nil || latest.NewPrice.String() != "90" {
		t.Fatalf("csv lineage should see competitor history: %+v", latest)
	}

	none, err := repo.LatestForSource(ctx, tx, user.ID, product.ID,
		types.SourceRef{Kind: staging.SourceSupplier, ID: compA.ID})
	if err != nil {
		t.Fatalf("LatestForSource supplier: %v", err)
	}
	if none != nil {
		t.Fatalf("unseeded lineage should be nil, got %+v", none)
	}
}

func TestPriceChangeRepoExistsForSourceRecord(t *testing.T) {
	tx := testutil.Tx(t, testutil.DB(t))
	ctx := context.Background()
	repo := NewPriceChangeRepo(tx, testutil.Logger(t))

	user := testutil.SeedUser(t, ctx, tx, "pricing-exists@test.local")
	product := testutil.SeedProduct(t, ctx, tx, user.ID, "Widget", nil, nil, nil)
	comp := testutil.SeedCompetitor(t, ctx, tx, user.ID, "rival.example")
	rowID := uuid.New()

	if _, err := repo.Create(ctx, tx, []*types.PriceChange{{
		UserID:         user.ID,
		ProductID:      product.ID,
		CompetitorID:   testutil.PtrUUID(comp.ID),
		SourceKind:     staging.SourceCompetitor,
		SourceRecordID: testutil.PtrUUID(rowID),
		OldPrice:       testutil.Dec(t, "100"),
		NewPrice:       testutil.Dec(t, "90"),
		CurrencyCode:   "SEK",
		ChangedAt:      time.Now().UTC(),
	}}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	seen, err := repo.ExistsForSourceRecord(ctx, tx, rowID)
	if err != nil {
		t.Fatalf("ExistsForSourceRecord: %v", err)
	}
	if !seen {
		t.Fatalf("recorded staged row should be seen")
	}
	seen, err = repo.ExistsForSourceRecord(ctx, tx, uuid.New())
	if err != nil {
		t.Fatalf("ExistsForSourceRecord other: %v", err)
	}
	if seen {
		t.Fatalf("unseen staged row reported as recorded")
	}
}

func TestPriceChangeRepoSourceRecordIDIsUnique(t *testing.T) {
	tx := testutil.Tx(t, testutil.DB(t))
	ctx := context.Background()
	repo := NewPriceChangeRepo(tx, testutil.Logger(t))

	user := testutil.SeedUser(t, ctx, tx, "pricing-unique@test.local")
	product := testutil.SeedProduct(t, ctx, tx, user.ID, "Widget", nil, nil, nil)
	comp := testutil.SeedCompetitor(t, ctx, tx, user.ID, "rival.example")
	rowID := uuid.New()

	mk := func() *types.PriceChange {
		return &types.PriceChange{
			UserID:         user.ID,
			ProductID:      product.ID,
			CompetitorID:   testutil.PtrUUID(comp.ID),
			SourceKind:     staging.SourceCompetitor,
			SourceRecordID: testutil.PtrUUID(rowID),
			OldPrice:       testutil.Dec(t, "100"),
			NewPrice:       testutil.Dec(t, "90"),
			CurrencyCode:   "SEK",
			ChangedAt:      time.Now().UTC(),
		}
	}
	if _, err := repo.Create(ctx, tx, []*types.PriceChange{mk()}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := repo.Create(ctx, tx, []*types.PriceChange{mk()}); err == nil {
		t.Fatalf("duplicate source_record_id must be rejected")
	}
}
