package services

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nordiska/pricewatch-backend/internal/domain/staging"
	"github.com/nordiska/pricewatch-backend/internal/pkg/tenantkey"
)

// RawObservation is the ingestion input contract: one observation as a
// producer handed it over, before any trust is extended.
type RawObservation struct {
	TenantID string             `json:"tenant_id"`
	Kind     staging.SourceKind `json:"kind"`
	SourceID uuid.UUID          `json:"source_id"`

	Name  string `json:"name"`
	SKU   string `json:"sku,omitempty"`
	EAN   string `json:"ean,omitempty"`
	Brand string `json:"brand,omitempty"`

	// Price arrives as a JSON number or a string, depending on the
	// producer.
	Price        interface{} `json:"price"`
	CurrencyCode string      `json:"currency_code,omitempty"`

	URL      string                 `json:"url,omitempty"`
	ImageURL string                 `json:"image_url,omitempty"`
	Payload  map[string]interface{} `json:"payload,omitempty"`

	ObservedAt time.Time `json:"observed_at,omitempty"`
}

// NormalizedObservation is the pipeline's working form. Canonical fields
// keep the original casing; the Match* fields are the case-folded forms
// used for every comparison.
type NormalizedObservation struct {
	TenantKey uuid.UUID
	Kind      staging.SourceKind
	SourceID  uuid.UUID

	Name  string
	SKU   *string
	EAN   *string
	Brand *string

	MatchEAN   string
	MatchBrand string
	MatchSKU   string

	Price        decimal.Decimal
	CurrencyCode string

	URL      *string
	ImageURL *string
	Payload  map[string]interface{}

	ObservedAt time.Time
}

// SkipReason explains why a row was dropped. Skips are logged and counted,
// never fatal to the batch.
type SkipReason struct {
	Field  string
	Detail string
}

func (s *SkipReason) String() string {
	return fmt.Sprintf("%s: %s", s.Field, s.Detail)
}

// Normalize canonicalizes one raw observation. It is a pure transform: no
// side effects, identical input always yields identical output.
func Normalize(raw RawObservation, defaultCurrency string) (*NormalizedObservation, *SkipReason) {
	if !raw.Kind.Valid() {
		return nil, &SkipReason{Field: "kind", Detail: fmt.Sprintf("unknown source kind %q", raw.Kind)}
	}
	tenant, err := tenantkey.Canonical(raw.TenantID)
	if err != nil {
		return nil, &SkipReason{Field: "tenant_id", Detail: err.Error()}
	}
	if raw.SourceID == uuid.Nil {
		return nil, &SkipReason{Field: "source_id", Detail: "missing source id"}
	}

	name := strings.TrimSpace(raw.Name)
	if name == "" {
		return nil, &SkipReason{Field: "name", Detail: "missing product name"}
	}

	price, err := ParsePrice(raw.Price)
	if err != nil {
		return nil, &SkipReason{Field: "price", Detail: err.Error()}
	}
	if price.IsNegative() {
		return nil, &SkipReason{Field: "price", Detail: "negative price"}
	}

	currency := strings.ToUpper(strings.TrimSpace(raw.CurrencyCode))
	if currency == "" {
		currency = strings.ToUpper(strings.TrimSpace(defaultCurrency))
	}

	observedAt := raw.ObservedAt
	if observedAt.IsZero() {
		observedAt = time.Now().UTC()
	}

	norm := &NormalizedObservation{
		TenantKey:    tenant,
		Kind:         raw.Kind,
		SourceID:     raw.SourceID,
		Name:         name,
		SKU:          trimmedPtr(raw.SKU),
		EAN:          trimmedPtr(raw.EAN),
		Brand:        trimmedPtr(raw.Brand),
		MatchEAN:     strings.ToLower(strings.TrimSpace(raw.EAN)),
		MatchBrand:   strings.ToLower(strings.TrimSpace(raw.Brand)),
		MatchSKU:     strings.ToLower(strings.TrimSpace(raw.SKU)),
		Price:        price,
		CurrencyCode: currency,
		URL:          trimmedPtr(raw.URL),
		ImageURL:     trimmedPtr(raw.ImageURL),
		Payload:      raw.Payload,
		ObservedAt:   observedAt.UTC(),
	}
	return norm, nil
}

// ParsePrice accepts the numeric forms producers actually send: JSON
// numbers, integers, decimal strings, and strings using a comma decimal
// separator.
func ParsePrice(v interface{}) (decimal.Decimal, error) {
	switch p := v.(type) {
	case nil:
		return decimal.Zero, fmt.Errorf("missing price")
	case decimal.Decimal:
		return p, nil
	case float64:
		return decimal.NewFromFloat(p), nil
	case float32:
		return decimal.NewFromFloat32(p), nil
	case int:
		return decimal.NewFromInt(int64(p)), nil
	case int64:
		return decimal.NewFromInt(p), nil
	case json.Number:
		return decimal.NewFromString(p.String())
	case string:
		s := strings.TrimSpace(p)
		if s == "" {
			return decimal.Zero, fmt.Errorf("empty price")
		}
		// "1 234,56" and "1234,56" are common in supplier feeds.
		s = strings.ReplaceAll(s, " ", "")
		if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
			s = strings.Replace(s, ",", ".", 1)
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.Zero, fmt.Errorf("unparsable price %q", p)
		}
		return d, nil
	}
	return decimal.Zero, fmt.Errorf("unsupported price type %T", v)
}

func trimmedPtr(s string) *string {
	t := strings.TrimSpace(s)
	if t == "" {
		return nil
	}
	return &t
}
