package services

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/nordiska/pricewatch-backend/internal/domain/staging"
)

// batchRow is one staged row travelling through a batch: the raw record,
// its normalized form, and the matcher's decision.
type batchRow struct {
	Rec   *staging.Record
	Norm  *NormalizedObservation
	Match MatchResult
}

// MatchKeyOf derives the identity key the batch is partitioned on: the
// normalized EAN when present, otherwise brand+sku, otherwise none. Rows
// sharing a key must be decided together; rows with no key are independent.
func MatchKeyOf(norm *NormalizedObservation) (string, bool) {
	if norm == nil {
		return "", false
	}
	if norm.MatchEAN != "" {
		return "ean:" + norm.MatchEAN, true
	}
	if norm.MatchBrand != "" && norm.MatchSKU != "" {
		return "sku:" + norm.MatchBrand + "|" + norm.MatchSKU, true
	}
	return "", false
}

// partitionBatch groups rows by match key. Keyless rows come back as
// singleton partitions: nothing orders them relative to anything else.
func partitionBatch(rows []*batchRow) [][]*batchRow {
	keyed := map[string][]*batchRow{}
	order := []string{}
	var out [][]*batchRow
	for _, row := range rows {
		key, ok := MatchKeyOf(row.Norm)
		if !ok {
			out = append(out, []*batchRow{row})
			continue
		}
		if _, seen := keyed[key]; !seen {
			order = append(order, key)
		}
		keyed[key] = append(keyed[key], row)
	}
	for _, key := range order {
		out = append(out, keyed[key])
	}
	return out
}

// hasIdentityConflict reports whether two or more unmatched rows in one
// partition propose different core attributes for the same key: the
// "refurbished unit sharing the new item's EAN" case that must never be
// auto-merged.
func hasIdentityConflict(partition []*batchRow) bool {
	var first *NormalizedObservation
	for _, row := range partition {
		if row.Match.Matched() {
			continue
		}
		if first == nil {
			first = row.Norm
			continue
		}
		if !sameCoreAttrs(first, row.Norm) {
			return true
		}
	}
	return false
}

func sameCoreAttrs(a, b *NormalizedObservation) bool {
	return strings.EqualFold(a.Name, b.Name) && a.MatchBrand == b.MatchBrand
}

// exceedsDeviation reports whether observed strays from current by more
// than thresholdPct percent. A missing or zero current price cannot
// deviate.
func exceedsDeviation(current, observed decimal.Decimal, thresholdPct float64) bool {
	if current.IsZero() {
		return false
	}
	diff := observed.Sub(current).Abs()
	pct := diff.Div(current.Abs()).Mul(decimal.NewFromInt(100))
	return pct.GreaterThan(decimal.NewFromFloat(thresholdPct))
}
