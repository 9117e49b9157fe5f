package customfields

import (
	"context"
	"testing"

	"github.com/nordiska/pricewatch-backend/internal/data/repos/testutil"
	types "github.com/nordiska/pricewatch-backend/internal/domain/customfields"
)

func TestDefinitionRepoFirstTypeSticks(t *testing.T) {
	tx := testutil.Tx(t, testutil.DB(t))
	ctx := context.Background()
	repo := NewDefinitionRepo(tx, testutil.Logger(t))

	user := testutil.SeedUser(t, ctx, tx, "fields-ensure@test.local")

	first, err := repo.EnsureDefinition(ctx, tx, &types.Definition{
		UserID:    user.ID,
		FieldName: "weight_kg",
		FieldType: types.TypeNumber,
	})
	if err != nil {
		t.Fatalf("EnsureDefinition: %v", err)
	}
	// A later observation with a different shape must not retype.
	second, err := repo.EnsureDefinition(ctx, tx, &types.Definition{
		UserID:    user.ID,
		FieldName: "weight_kg",
		FieldType: types.TypeText,
	})
	if err != nil {
		t.Fatalf("EnsureDefinition repeat: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("definition ids differ: %s vs %s", first.ID, second.ID)
	}
	if second.FieldType != types.TypeNumber {
		t.Fatalf("first-sight type must stick: got %s", second.FieldType)
	}
}

func TestValueRepoReplaceValueUpserts(t *testing.T) {
	tx := testutil.Tx(t, testutil.DB(t))
	ctx := context.Background()
	defs := NewDefinitionRepo(tx, testutil.Logger(t))
	values := NewValueRepo(tx, testutil.Logger(t))

	user := testutil.SeedUser(t, ctx, tx, "fields-replace@test.local")
	product := testutil.SeedProduct(t, ctx, tx, user.ID, "Widget", nil, nil, nil)

	def, err := defs.EnsureDefinition(ctx, tx, &types.Definition{
		UserID:    user.ID,
		FieldName: "color",
		FieldType: types.TypeText,
	})
	if err != nil {
		t.Fatalf("EnsureDefinition: %v", err)
	}

	if err := values.ReplaceValue(ctx, tx, &types.Value{
		ProductID:    product.ID,
		DefinitionID: def.ID,
		Value:        "red",
	}); err != nil {
		t.Fatalf("ReplaceValue: %v", err)
	}
	if err := values.ReplaceValue(ctx, tx, &types.Value{
		ProductID:    product.ID,
		DefinitionID: def.ID,
		Value:        "blue",
	}); err != nil {
		t.Fatalf("ReplaceValue repeat: %v", err)
	}

	rows, err := values.GetByProduct(ctx, tx, product.ID)
	if err != nil {
		t.Fatalf("GetByProduct: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("values never accumulate: want=1 got=%d", len(rows))
	}
	if rows[0].Value != "blue" {
		t.Fatalf("latest value must win: got %q", rows[0].Value)
	}
}
