package services

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nordiska/pricewatch-backend/internal/data/repos"
	types "github.com/nordiska/pricewatch-backend/internal/domain"
	"github.com/nordiska/pricewatch-backend/internal/platform/logger"
)

// MatchResult carries the matcher's decision plus both lookup candidates
// so the conflict detector can see when the two key strategies disagree.
type MatchResult struct {
	// Product is the decision under the strict priority order (EAN first,
	// then brand+sku); nil means unmatched.
	Product *types.Product

	ByEAN             bool
	EANCandidate      *types.Product
	BrandSKUCandidate *types.Product
}

func (m MatchResult) Matched() bool { return m.Product != nil }

// Ambiguous reports whether the EAN points at one product and brand+sku
// at a different one.
func (m MatchResult) Ambiguous() bool {
	return m.EANCandidate != nil && m.BrandSKUCandidate != nil &&
		m.EANCandidate.ID != m.BrandSKUCandidate.ID
}

// MatcherService resolves a normalized observation to zero or one existing
// product. Pure lookup: it never mutates state, and the same catalog plus
// the same keys always yields the same decision.
type MatcherService interface {
	Match(ctx context.Context, tx *gorm.DB, userID uuid.UUID, matchEAN, matchBrand, matchSKU string) (MatchResult, error)
}

type matcherService struct {
	log      *logger.Logger
	products repos.ProductRepo
}

func NewMatcherService(baseLog *logger.Logger, products repos.ProductRepo) MatcherService {
	return &matcherService{
		log:      baseLog.With("service", "MatcherService"),
		products: products,
	}
}

func (m *matcherService) Match(ctx context.Context, tx *gorm.DB, userID uuid.UUID, matchEAN, matchBrand, matchSKU string) (MatchResult, error) {
	var res MatchResult

	if matchEAN != "" {
		rows, err := m.products.GetByEAN(ctx, tx, userID, matchEAN)
		if err != nil {
			return res, err
		}
		if len(rows) > 1 {
			// The schema should make this impossible; take the earliest
			// created and keep an audit trail.
			m.log.Warn("duplicate products share an ean",
				"user_id", userID, "ean", matchEAN, "count", len(rows), "winner", rows[0].ID)
		}
		if len(rows) > 0 {
			res.EANCandidate = rows[0]
		}
	}

	if matchBrand != "" && matchSKU != "" {
		rows, err := m.products.GetByBrandSKU(ctx, tx, userID, matchBrand, matchSKU)
		if err != nil {
			return res, err
		}
		if len(rows) > 1 {
			m.log.Warn("duplicate products share a brand+sku",
				"user_id", userID, "brand", matchBrand, "sku", matchSKU, "count", len(rows), "winner", rows[0].ID)
		}
		if len(rows) > 0 {
			res.BrandSKUCandidate = rows[0]
		}
	}

	// Strict priority: EAN wins, brand+sku is the fallback.
	switch {
	case res.EANCandidate != nil:
		res.Product = res.EANCandidate
		res.ByEAN = true
	case res.BrandSKUCandidate != nil:
		res.Product = res.BrandSKUCandidate
	}
	return res, nil
}
