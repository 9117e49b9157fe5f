package reviews

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/datatypes"

	"github.com/nordiska/pricewatch-backend/internal/domain/staging"
)

type ReviewReason string

const (
	ReasonMultipleNewSameKey ReviewReason = "multiple_new_same_key"
	ReasonPriceDeviation     ReviewReason = "price_deviation"
	ReasonAmbiguousKey       ReviewReason = "ambiguous_key"
)

type ReviewStatus string

// The review lifecycle is a two-state machine: pending, then exactly one
// terminal resolution. Terminal reviews reject further actions.
const (
	StatusPending       ReviewStatus = "pending"
	StatusApprovedMatch ReviewStatus = "approved_match"
	StatusDeclinedMatch ReviewStatus = "declined_match"
)

// ProductMatchReview is a pending human decision about product identity or
// a suspicious price. Created by the conflict detector, resolved only by an
// operator.
type ProductMatchReview struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index:idx_reviews_user_status" json:"user_id"`

	// MatchKey is the identity key the conflict was detected on, in the
	// normalized "ean:<value>" or "sku:<brand>|<sku>" form.
	MatchKey string  `gorm:"not null;column:match_key" json:"match_key"`
	EAN      *string `gorm:"column:ean" json:"ean,omitempty"`

	SourceKind staging.SourceKind `gorm:"not null;column:source_kind" json:"source_kind"`

	// SourceRecordIDs lists every staged row held behind this review
	// (JSON array of uuids; multiple_new_same_key references all
	// conflicting rows).
	SourceRecordIDs datatypes.JSON `gorm:"not null;column:source_record_ids" json:"source_record_ids"`

	ExistingProductID *uuid.UUID `gorm:"type:uuid" json:"existing_product_id,omitempty"`

	NewProductName  string         `gorm:"column:new_product_name" json:"new_product_name"`
	NewProductSKU   *string        `gorm:"column:new_product_sku" json:"new_product_sku,omitempty"`
	NewProductBrand *string        `gorm:"column:new_product_brand" json:"new_product_brand,omitempty"`
	NewProductData  datatypes.JSON `gorm:"column:new_product_data" json:"new_product_data,omitempty"`

	Reason ReviewReason `gorm:"not null" json:"reason"`
	Status ReviewStatus `gorm:"not null;default:'pending';index:idx_reviews_user_status" json:"status"`

	// CreatedProductID is filled by a decline resolution.
	CreatedProductID *uuid.UUID `gorm:"type:uuid" json:"created_product_id,omitempty"`

	ReviewedBy *uuid.UUID `gorm:"type:uuid;column:reviewed_by" json:"reviewed_by,omitempty"`
	ReviewedAt *time.Time `gorm:"column:reviewed_at" json:"reviewed_at,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (ProductMatchReview) TableName() string { return "product_match_reviews" }

// BeforeCreate assigns the id app-side so the schema carries no
// database-specific default.
func (r *ProductMatchReview) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
