package customfields

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/datatypes"
)

type FieldType string

const (
	TypeText    FieldType = "text"
	TypeNumber  FieldType = "number"
	TypeBoolean FieldType = "boolean"
	TypeURL     FieldType = "url"
	TypeDate    FieldType = "date"
)

// Definition is a tenant-scoped schema extension, created lazily the first
// time the discoverer meets an unknown payload key. Never auto-deleted.
type Definition struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID          uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_custom_fields_user_name" json:"user_id"`
	FieldName       string         `gorm:"not null;uniqueIndex:idx_custom_fields_user_name;column:field_name" json:"field_name"`
	FieldType       FieldType      `gorm:"not null;column:field_type" json:"field_type"`
	IsRequired      bool           `gorm:"not null;default:false;column:is_required" json:"is_required"`
	DefaultValue    *string        `gorm:"column:default_value" json:"default_value,omitempty"`
	ValidationRules datatypes.JSON `gorm:"column:validation_rules" json:"validation_rules,omitempty"`
	CreatedAt       time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"not null" json:"updated_at"`
}

func (Definition) TableName() string { return "custom_field_definitions" }

// BeforeCreate assigns the id app-side so the schema carries no
// database-specific default.
func (d *Definition) BeforeCreate(*gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}
