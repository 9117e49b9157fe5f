package customfields

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Value is one attribute instance. At most one row exists per
// (product, definition); re-ingestion replaces rather than accumulates,
// only prices are historized.
type Value struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProductID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_custom_values_product_field" json:"product_id"`
	DefinitionID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_custom_values_product_field;column:definition_id" json:"definition_id"`
	Value        string    `gorm:"not null" json:"value"`

	// Provenance: which source kind and row supplied the value.
	SourceKind    string     `gorm:"column:source_kind" json:"source_kind,omitempty"`
	SourceID      *uuid.UUID `gorm:"type:uuid;column:source_id" json:"source_id,omitempty"`
	Confidence    float64    `gorm:"not null;default:1;column:confidence" json:"confidence"`
	LastUpdatedBy string     `gorm:"column:last_updated_by" json:"last_updated_by,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Value) TableName() string { return "custom_field_values" }

func (v *Value) BeforeCreate(*gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}
