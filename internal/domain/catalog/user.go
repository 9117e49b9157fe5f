package catalog

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is the tenant. Every entity in the pipeline is scoped to exactly
// one user id; there is no cross-tenant lookup anywhere.
type User struct {
	ID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Email string    `gorm:"uniqueIndex;not null;column:email" json:"email"`
	Name  string    `gorm:"column:name" json:"name"`

	// DefaultCurrency fills in observations that arrive without a
	// currency code.
	DefaultCurrency string `gorm:"not null;default:'SEK';column:default_currency" json:"default_currency"`

	// PriceDeviationThresholdPct holds matched rows for review when the
	// observed price deviates from the current price by more than this
	// percentage. Zero means "use the global default" (50).
	PriceDeviationThresholdPct float64 `gorm:"not null;default:0;column:price_deviation_threshold_pct" json:"price_deviation_threshold_pct"`

	// PriceSameTolerancePct treats deltas below this percentage as "same
	// price" once a lineage is seeded. Zero means "use the global
	// default" (1).
	PriceSameTolerancePct float64 `gorm:"not null;default:0;column:price_same_tolerance_pct" json:"price_same_tolerance_pct"`

	IsActive  bool           `gorm:"not null;default:true;column:is_active" json:"is_active"`
	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (User) TableName() string { return "users" }

// Global fallbacks for tenant thresholds left at zero.
const (
	DefaultDeviationThresholdPct = 50.0
	DefaultSameTolerancePct      = 1.0
)

// DeviationThreshold returns the effective review threshold for the tenant.
func (u *User) DeviationThreshold() float64 {
	if u == nil || u.PriceDeviationThresholdPct <= 0 {
		return DefaultDeviationThresholdPct
	}
	return u.PriceDeviationThresholdPct
}

// SameTolerance returns the effective "same price" tolerance for the tenant.
func (u *User) SameTolerance() float64 {
	if u == nil || u.PriceSameTolerancePct <= 0 {
		return DefaultSameTolerancePct
	}
	return u.PriceSameTolerancePct
}

// Currency returns the tenant default currency, falling back to SEK.
func (u *User) Currency() string {
	if u == nil || u.DefaultCurrency == "" {
		return "SEK"
	}
	return u.DefaultCurrency
}

// BeforeCreate assigns the id app-side so the schema carries no
// database-specific default.
func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
