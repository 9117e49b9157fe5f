package services

import (
	"testing"

	"github.com/nordiska/pricewatch-backend/internal/domain/catalog"
)

func obs(name, ean, brand, sku string) *NormalizedObservation {
	n := &NormalizedObservation{Name: name}
	if ean != "" {
		n.MatchEAN = ean
	}
	if brand != "" {
		n.MatchBrand = brand
	}
	if sku != "" {
		n.MatchSKU = sku
	}
	return n
}

func TestMatchKeyOf(t *testing.T) {
	if key, ok := MatchKeyOf(obs("x", "7310865004703", "acme", "a-1")); !ok || key != "ean:7310865004703" {
		t.Fatalf("ean key: got %q ok=%v", key, ok)
	}
	if key, ok := MatchKeyOf(obs("x", "", "acme", "a-1")); !ok || key != "sku:acme|a-1" {
		t.Fatalf("brand+sku key: got %q ok=%v", key, ok)
	}
	if _, ok := MatchKeyOf(obs("x", "", "acme", "")); ok {
		t.Fatalf("brand without sku must be keyless")
	}
	if _, ok := MatchKeyOf(obs("x", "", "", "")); ok {
		t.Fatalf("no identifiers must be keyless")
	}
}

func TestPartitionBatchGroupsByKey(t *testing.T) {
	a1 := &batchRow{Norm: obs("a", "111", "", "")}
	a2 := &batchRow{Norm: obs("a again", "111", "", "")}
	b := &batchRow{Norm: obs("b", "", "acme", "b-9")}
	loose1 := &batchRow{Norm: obs("loose one", "", "", "")}
	loose2 := &batchRow{Norm: obs("loose two", "", "", "")}

	parts := partitionBatch([]*batchRow{a1, loose1, a2, b, loose2})
	if len(parts) != 4 {
		t.Fatalf("partitions: want=4 got=%d", len(parts))
	}
	// Keyless rows stay singletons even when interleaved.
	sizes := map[int]int{}
	for _, p := range parts {
		sizes[len(p)]++
	}
	if sizes[2] != 1 || sizes[1] != 3 {
		t.Fatalf("partition sizes: %v", sizes)
	}
	for _, p := range parts {
		if len(p) == 2 && (p[0] != a1 || p[1] != a2) {
			t.Fatalf("grouped partition should keep input order")
		}
	}
}

func TestHasIdentityConflict(t *testing.T) {
	matched := &batchRow{
		Norm:  obs("Existing", "111", "", ""),
		Match: MatchResult{Product: &catalog.Product{}},
	}
	newA := &batchRow{Norm: obs("Widget Pro", "111", "acme", "")}
	newASameCased := &batchRow{Norm: obs("WIDGET PRO", "111", "acme", "")}
	newB := &batchRow{Norm: obs("Widget Pro Refurbished", "111", "acme", "")}

	if hasIdentityConflict([]*batchRow{newA, newASameCased}) {
		t.Fatalf("identical attributes are not a conflict")
	}
	if !hasIdentityConflict([]*batchRow{newA, newB}) {
		t.Fatalf("differing names on one key must conflict")
	}
	if hasIdentityConflict([]*batchRow{matched, newA}) {
		t.Fatalf("matched rows never participate in new-product conflicts")
	}
	if hasIdentityConflict([]*batchRow{newA}) {
		t.Fatalf("a single new row cannot conflict with itself")
	}
}

func TestExceedsDeviation(t *testing.T) {
	cases := []struct {
		current, observed string
		threshold         float64
		want              bool
	}{
		{"1000", "300", 50, true},   // -70%
		{"1000", "1600", 50, true},  // +60%
		{"1000", "1400", 50, false}, // +40%
		{"1000", "1500", 50, false}, // exactly at threshold
		{"0", "500", 50, false},     // no baseline, nothing to deviate from
		{"100", "100", 50, false},
	}
	for _, tc := range cases {
		got := exceedsDeviation(dec(t, tc.current), dec(t, tc.observed), tc.threshold)
		if got != tc.want {
			t.Fatalf("exceedsDeviation(%s -> %s @ %v%%): want=%v got=%v",
				tc.current, tc.observed, tc.threshold, tc.want, got)
		}
	}
}
