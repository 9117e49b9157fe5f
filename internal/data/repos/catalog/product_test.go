package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/nordiska/pricewatch-backend/internal/data/repos/testutil"
)

func TestProductRepoEANLookupIsCaseInsensitive(t *testing.T) {
	tx := testutil.Tx(t, testutil.DB(t))
	ctx := context.Background()
	repo := NewProductRepo(tx, testutil.Logger(t))

	user := testutil.SeedUser(t, ctx, tx, "products-ean@test.local")
	testutil.SeedProduct(t, ctx, tx, user.ID, "Widget", testutil.PtrStr("ABC123"), nil, nil)

	rows, err := repo.GetByEAN(ctx, tx, user.ID, "abc123")
	if err != nil {
		t.Fatalf("GetByEAN: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("GetByEAN: want=1 got=%d", len(rows))
	}

	none, err := repo.GetByEAN(ctx, tx, user.ID, "zzz999")
	if err != nil {
		t.Fatalf("GetByEAN miss: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("miss should be empty, got %d", len(none))
	}
}

func TestProductRepoBrandSKULookup(t *testing.T) {
	tx := testutil.Tx(t, testutil.DB(t))
	ctx := context.Background()
	repo := NewProductRepo(tx, testutil.Logger(t))

	user := testutil.SeedUser(t, ctx, tx, "products-sku@test.local")
	testutil.SeedProduct(t, ctx, tx, user.ID, "Widget",
		nil, testutil.PtrStr("Acme"), testutil.PtrStr("W-1"))

	rows, err := repo.GetByBrandSKU(ctx, tx, user.ID, "acme", "w-1")
	if err != nil {
		t.Fatalf("GetByBrandSKU: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("GetByBrandSKU: want=1 got=%d", len(rows))
	}

	// Same sku under another brand is a different product.
	rows, err = repo.GetByBrandSKU(ctx, tx, user.ID, "other", "w-1")
	if err != nil {
		t.Fatalf("GetByBrandSKU other brand: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("other brand must not match, got %d", len(rows))
	}
}

func TestProductRepoLookupsAreTenantScoped(t *testing.T) {
	tx := testutil.Tx(t, testutil.DB(t))
	ctx := context.Background()
	repo := NewProductRepo(tx, testutil.Logger(t))

	alice := testutil.SeedUser(t, ctx, tx, "products-alice@test.local")
	bob := testutil.SeedUser(t, ctx, tx, "products-bob@test.local")
	testutil.SeedProduct(t, ctx, tx, alice.ID, "Widget", testutil.PtrStr("111"), nil, nil)

	rows, err := repo.GetByEAN(ctx, tx, bob.ID, "111")
	if err != nil {
		t.Fatalf("GetByEAN: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("tenant scope leak: bob sees alice's product")
	}
}

func TestProductRepoFullDeleteByIDs(t *testing.T) {
	tx := testutil.Tx(t, testutil.DB(t))
	ctx := context.Background()
	repo := NewProductRepo(tx, testutil.Logger(t))

	user := testutil.SeedUser(t, ctx, tx, "products-delete@test.local")
	keep := testutil.SeedProduct(t, ctx, tx, user.ID, "Keep", nil, nil, nil)
	drop := testutil.SeedProduct(t, ctx, tx, user.ID, "Drop", nil, nil, nil)

	if err := repo.FullDeleteByIDs(ctx, tx, user.ID, []uuid.UUID{drop.ID}); err != nil {
		t.Fatalf("FullDeleteByIDs: %v", err)
	}
	got, err := repo.GetByID(ctx, tx, user.ID, drop.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got != nil {
		t.Fatalf("deleted product still readable")
	}
	still, err := repo.GetByID(ctx, tx, user.ID, keep.ID)
	if err != nil {
		t.Fatalf("GetByID keep: %v", err)
	}
	if still == nil {
		t.Fatalf("unrelated product was deleted")
	}
}

func TestBrandRepoFindOrCreateDeduplicates(t *testing.T) {
	tx := testutil.Tx(t, testutil.DB(t))
	ctx := context.Background()
	repo := NewBrandRepo(tx, testutil.Logger(t))

	user := testutil.SeedUser(t, ctx, tx, "brands@test.local")

	first, err := repo.FindOrCreateByName(ctx, tx, user.ID, "Bosch")
	if err != nil {
		t.Fatalf("FindOrCreateByName: %v", err)
	}
	second, err := repo.FindOrCreateByName(ctx, tx, user.ID, "bosch")
	if err != nil {
		t.Fatalf("FindOrCreateByName repeat: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("brand dedupe: %s vs %s", first.ID, second.ID)
	}
}
