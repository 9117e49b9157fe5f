package staging

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// SourceKind is the closed set of ingestion sources. Adding a kind means
// adding a staged table variant and a handler arm; the compiler finds the
// rest.
type SourceKind string

const (
	SourceCompetitor  SourceKind = "competitor"
	SourceSupplier    SourceKind = "supplier"
	SourceIntegration SourceKind = "integration"
	SourceCSV         SourceKind = "csv"
)

// Kinds lists every valid source kind.
func Kinds() []SourceKind {
	return []SourceKind{SourceCompetitor, SourceSupplier, SourceIntegration, SourceCSV}
}

func (k SourceKind) Valid() bool {
	switch k {
	case SourceCompetitor, SourceSupplier, SourceIntegration, SourceCSV:
		return true
	}
	return false
}

// Row statuses. A row is mutated once by the pipeline: either it completes
// the auto-apply path (processed), is held behind a review, or is skipped
// as malformed. Transient failures leave the row pending for retry.
const (
	StatusPending = "pending"
	StatusDone    = "processed"
	StatusReview  = "review"
	StatusSkipped = "skipped"
)

// Record is the kind-independent view of one staged observation. The
// concrete GORM variants below convert to and from it so the pipeline never
// branches on table names.
type Record struct {
	ID           uuid.UUID
	Kind         SourceKind
	UserID       uuid.UUID
	SourceID     uuid.UUID
	ProductID    *uuid.UUID
	Name         string
	SKU          *string
	EAN          *string
	Brand        *string
	Price        decimal.Decimal
	CurrencyCode string
	URL          *string
	ImageURL     *string
	RawData      datatypes.JSON
	ObservedAt   time.Time
	Processed    bool
	Status       string
	ErrorMessage *string
}
