package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	types "github.com/nordiska/pricewatch-backend/internal/domain"
	"github.com/nordiska/pricewatch-backend/internal/domain/staging"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, email string) *types.User {
	tb.Helper()
	u := &types.User{
		ID:              uuid.New(),
		Email:           email,
		Name:            "Test Tenant",
		DefaultCurrency: "SEK",
		IsActive:        true,
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedCompetitor(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID, name string) *types.Competitor {
	tb.Helper()
	c := &types.Competitor{
		ID:       uuid.New(),
		UserID:   userID,
		Name:     name,
		IsActive: true,
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed competitor: %v", err)
	}
	return c
}

func SeedSupplier(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID, name string) *types.Supplier {
	tb.Helper()
	s := &types.Supplier{
		ID:       uuid.New(),
		UserID:   userID,
		Name:     name,
		IsActive: true,
	}
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed supplier: %v", err)
	}
	return s
}

func SeedIntegration(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID, name string) *types.Integration {
	tb.Helper()
	i := &types.Integration{
		ID:       uuid.New(),
		UserID:   userID,
		Name:     name,
		Platform: "prestashop",
		IsActive: true,
	}
	if err := tx.WithContext(ctx).Create(i).Error; err != nil {
		tb.Fatalf("seed integration: %v", err)
	}
	return i
}

func SeedProduct(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID, name string, ean, brand, sku *string) *types.Product {
	tb.Helper()
	p := &types.Product{
		ID:           uuid.New(),
		UserID:       userID,
		Name:         name,
		EAN:          ean,
		Brand:        brand,
		SKU:          sku,
		CurrencyCode: "SEK",
		IsActive:     true,
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed product: %v", err)
	}
	return p
}

func SeedStagedCompetitorRow(tb testing.TB, ctx context.Context, tx *gorm.DB, userID, competitorID uuid.UUID, name, price string, ean, brand, sku *string) *staging.StagedCompetitorRecord {
	tb.Helper()
	row := &staging.StagedCompetitorRecord{
		ID:           uuid.New(),
		UserID:       userID,
		CompetitorID: competitorID,
		Name:         name,
		EAN:          ean,
		Brand:        brand,
		SKU:          sku,
		Price:        Dec(tb, price),
		CurrencyCode: "SEK",
		ObservedAt:   time.Now().UTC(),
		Status:       staging.StatusPending,
	}
	if err := tx.WithContext(ctx).Create(row).Error; err != nil {
		tb.Fatalf("seed staged competitor row: %v", err)
	}
	return row
}

func Dec(tb testing.TB, s string) decimal.Decimal {
	tb.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		tb.Fatalf("bad decimal %q: %v", s, err)
	}
	return d
}

func PtrStr(v string) *string { return &v }

func PtrUUID(v uuid.UUID) *uuid.UUID { return &v }

func PtrTime(v time.Time) *time.Time { return &v }
