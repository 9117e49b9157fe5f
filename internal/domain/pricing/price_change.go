package pricing

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"github.com/shopspring/decimal"

	"github.com/nordiska/pricewatch-backend/internal/domain/staging"
)

// PriceChange is an immutable fact: one observed move in one source
// lineage. Exactly one of CompetitorID / SupplierID / IntegrationID is
// populated; SourceKind records which ingestion path produced it (a manual
// CSV upload feeds the competitor lineage but is tagged "csv").
type PriceChange struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;index:idx_price_changes_product" json:"product_id"`

	CompetitorID  *uuid.UUID `gorm:"type:uuid;index" json:"competitor_id,omitempty"`
	SupplierID    *uuid.UUID `gorm:"type:uuid;index" json:"supplier_id,omitempty"`
	IntegrationID *uuid.UUID `gorm:"type:uuid;index" json:"integration_id,omitempty"`

	SourceKind staging.SourceKind `gorm:"not null;column:source_kind" json:"source_kind"`

	// SourceRecordID is the staged row that produced this change. The
	// unique index is the retry guard: reprocessing a staged row can never
	// record its change twice.
	SourceRecordID *uuid.UUID `gorm:"type:uuid;uniqueIndex" json:"source_record_id,omitempty"`

	OldPrice              decimal.Decimal `gorm:"type:numeric;not null;column:old_price" json:"old_price"`
	NewPrice              decimal.Decimal `gorm:"type:numeric;not null;column:new_price" json:"new_price"`
	PriceChangePercentage float64         `gorm:"not null;column:price_change_percentage" json:"price_change_percentage"`
	CurrencyCode          string          `gorm:"not null;default:'SEK';column:currency_code" json:"currency_code"`

	ChangedAt time.Time `gorm:"not null;index:idx_price_changes_product;column:changed_at" json:"changed_at"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (PriceChange) TableName() string { return "price_changes" }

// SourceRef identifies one price lineage endpoint.
type SourceRef struct {
	Kind staging.SourceKind
	ID   uuid.UUID
}

// LineageColumn maps a source kind to the foreign-key column its lineage
// lives under. CSV uploads share the competitor lineage.
func (r SourceRef) LineageColumn() string {
	switch r.Kind {
	case staging.SourceSupplier:
		return "supplier_id"
	case staging.SourceIntegration:
		return "integration_id"
	default:
		return "competitor_id"
	}
}

// BeforeCreate assigns the id app-side so the schema carries no
// database-specific default.
func (pc *PriceChange) BeforeCreate(*gorm.DB) error {
	if pc.ID == uuid.Nil {
		pc.ID = uuid.New()
	}
	return nil
}
