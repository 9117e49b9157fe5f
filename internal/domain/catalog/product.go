package catalog

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Product is the canonical entity observations reconcile against. At most
// one product exists per (tenant, ean) and per (tenant, brand, sku) when
// those identifiers are present; the partial unique indexes below back the
// invariant, the matcher's earliest-created tie-break covers legacy rows
// that predate them.
type Product struct {
	ID      uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID  uuid.UUID  `gorm:"type:uuid;not null;index;uniqueIndex:idx_products_user_ean;uniqueIndex:idx_products_user_brand_sku" json:"user_id"`
	Name    string     `gorm:"not null" json:"name"`
	SKU     *string    `gorm:"column:sku;uniqueIndex:idx_products_user_brand_sku" json:"sku,omitempty"`
	EAN     *string    `gorm:"column:ean;uniqueIndex:idx_products_user_ean" json:"ean,omitempty"`
	Brand   *string    `gorm:"column:brand;uniqueIndex:idx_products_user_brand_sku" json:"brand,omitempty"`
	BrandID *uuid.UUID `gorm:"type:uuid;index" json:"brand_id,omitempty"`

	Category    *string `json:"category,omitempty"`
	Description *string `json:"description,omitempty"`
	ImageURL    *string `gorm:"column:image_url" json:"image_url,omitempty"`
	URL         *string `gorm:"column:url" json:"url,omitempty"`

	OurRetailPrice    decimal.NullDecimal `gorm:"type:numeric;column:our_retail_price" json:"our_retail_price"`
	OurWholesalePrice decimal.NullDecimal `gorm:"type:numeric;column:our_wholesale_price" json:"our_wholesale_price"`
	CurrencyCode      string              `gorm:"not null;default:'SEK';column:currency_code" json:"currency_code"`

	// CurrentPrices is the denormalized per-source projection: the latest
	// observed price keyed by "<kind>:<source id>". Refreshed in the same
	// transaction as the price-change insert.
	CurrentPrices datatypes.JSON `gorm:"column:current_prices" json:"current_prices,omitempty"`

	IsActive  bool      `gorm:"not null;default:true;column:is_active" json:"is_active"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Product) TableName() string { return "products" }

// SourcePriceKey builds the projection map key for one source lineage.
func SourcePriceKey(kind string, sourceID uuid.UUID) string {
	return kind + ":" + sourceID.String()
}

// WithCurrentPrice returns the projection JSON with one lineage entry
// replaced. A nil or empty projection starts a fresh map.
func WithCurrentPrice(current datatypes.JSON, key string, price decimal.Decimal) (datatypes.JSON, error) {
	m := map[string]string{}
	if len(current) > 0 {
		if err := json.Unmarshal(current, &m); err != nil {
			return nil, err
		}
	}
	m[key] = price.String()
	out, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(out), nil
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
