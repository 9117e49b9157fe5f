package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/nordiska/pricewatch-backend/internal/data/repos"
	"github.com/nordiska/pricewatch-backend/internal/domain/catalog"
	"github.com/nordiska/pricewatch-backend/internal/domain/pricing"
	"github.com/nordiska/pricewatch-backend/internal/domain/staging"
	"github.com/nordiska/pricewatch-backend/internal/pkg/apperrs"
	"github.com/nordiska/pricewatch-backend/internal/platform/logger"
)

// ReconcileResult reports what one observation did to its lineage.
type ReconcileResult struct {
	// Change is the recorded price change, nil when nothing was recorded.
	Change *pricing.PriceChange
	// Seeded is true when this observation opened a new lineage.
	Seeded bool
	// WithinTolerance is true when the move was too small to record.
	WithinTolerance bool
	// AlreadyRecorded is true when the staged row had already produced a
	// change on an earlier attempt.
	AlreadyRecorded bool
}

// ReconcilerService applies one normalized observation to one product's
// price lineage: seed on first sight, record a change when the price
// moved, refresh the current-price projection either way.
type ReconcilerService interface {
	Reconcile(ctx context.Context, tx *gorm.DB, user *catalog.User, product *catalog.Product, norm *NormalizedObservation, stagedRowID uuid.UUID) (*ReconcileResult, error)
}

type reconcilerService struct {
	priceChanges repos.PriceChangeRepo
	products     repos.ProductRepo
	log          *logger.Logger
}

func NewReconcilerService(priceChanges repos.PriceChangeRepo, products repos.ProductRepo, baseLog *logger.Logger) ReconcilerService {
	return &reconcilerService{
		priceChanges: priceChanges,
		products:     products,
		log:          baseLog.With("service", "ReconcilerService"),
	}
}

func (s *reconcilerService) Reconcile(ctx context.Context, tx *gorm.DB, user *catalog.User, product *catalog.Product, norm *NormalizedObservation, stagedRowID uuid.UUID) (*ReconcileResult, error) {
	ref := pricing.SourceRef{Kind: norm.Kind, ID: norm.SourceID}

	if stagedRowID != uuid.Nil {
		seen, err := s.priceChanges.ExistsForSourceRecord(ctx, tx, stagedRowID)
		if err != nil {
			return nil, apperrs.Storage("reconcile.exists", err)
		}
		if seen {
			return &ReconcileResult{AlreadyRecorded: true}, nil
		}
	}

	latest, err := s.priceChanges.LatestForSource(ctx, tx, user.ID, product.ID, ref)
	if err != nil {
		return nil, apperrs.Storage("reconcile.latest", err)
	}

	res := &ReconcileResult{}
	var oldPrice decimal.Decimal
	if latest == nil {
		// First observation in this lineage seeds it: old equals new,
		// delta zero, so history starts with a known baseline.
		oldPrice = norm.Price
		res.Seeded = true
	} else {
		oldPrice = latest.NewPrice
		if !s.moved(user, oldPrice, norm.Price) {
			res.WithinTolerance = true
			if err := s.refreshProjection(ctx, tx, product, ref, norm.Price); err != nil {
				return nil, err
			}
			return res, nil
		}
	}

	change := &pricing.PriceChange{
		UserID:                user.ID,
		ProductID:             product.ID,
		SourceKind:            norm.Kind,
		OldPrice:              oldPrice,
		NewPrice:              norm.Price,
		PriceChangePercentage: PricePercentage(oldPrice, norm.Price),
		CurrencyCode:          norm.CurrencyCode,
		ChangedAt:             norm.ObservedAt,
	}
	if stagedRowID != uuid.Nil {
		id := stagedRowID
		change.SourceRecordID = &id
	}
	switch ref.LineageColumn() {
	case "supplier_id":
		change.SupplierID = &norm.SourceID
	case "integration_id":
		change.IntegrationID = &norm.SourceID
	default:
		change.CompetitorID = &norm.SourceID
	}

	created, err := s.priceChanges.Create(ctx, tx, []*pricing.PriceChange{change})
	if err != nil {
		return nil, apperrs.Storage("reconcile.create", err)
	}
	res.Change = created[0]

	if err := s.refreshProjection(ctx, tx, product, ref, norm.Price); err != nil {
		return nil, err
	}
	return res, nil
}

// moved reports whether old→new is a real change. Moves inside the
// tenant's same-price tolerance are noise from rounding and currency
// conversion, not price changes.
func (s *reconcilerService) moved(user *catalog.User, oldPrice, newPrice decimal.Decimal) bool {
	if oldPrice.Equal(newPrice) {
		return false
	}
	if oldPrice.IsZero() {
		return true
	}
	pct := newPrice.Sub(oldPrice).Abs().Div(oldPrice.Abs()).Mul(decimal.NewFromInt(100))
	return pct.GreaterThan(decimal.NewFromFloat(user.SameTolerance()))
}

func (s *reconcilerService) refreshProjection(ctx context.Context, tx *gorm.DB, product *catalog.Product, ref pricing.SourceRef, price decimal.Decimal) error {
	key := catalog.SourcePriceKey(lineageKind(ref), ref.ID)
	next, err := catalog.WithCurrentPrice(product.CurrentPrices, key, price)
	if err != nil {
		return apperrs.Storage("reconcile.projection", err)
	}
	product.CurrentPrices = next
	if err := s.products.UpdateFields(ctx, tx, product.ID, map[string]interface{}{"current_prices": next}); err != nil {
		return apperrs.Storage("reconcile.projection", err)
	}
	return nil
}

// lineageKind collapses the csv path onto the competitor lineage so a
// scraped and an uploaded price for the same competitor share one
// projection slot.
func lineageKind(ref pricing.SourceRef) string {
	switch ref.LineageColumn() {
	case "supplier_id":
		return string(staging.SourceSupplier)
	case "integration_id":
		return string(staging.SourceIntegration)
	default:
		return string(staging.SourceCompetitor)
	}
}

// PricePercentage is the signed relative move from old to new, in
// percent. A zero old price has no meaningful ratio and reports zero.
func PricePercentage(oldPrice, newPrice decimal.Decimal) float64 {
	if oldPrice.IsZero() {
		return 0
	}
	pct, _ := newPrice.Sub(oldPrice).Div(oldPrice.Abs()).Mul(decimal.NewFromInt(100)).Float64()
	return pct
}
