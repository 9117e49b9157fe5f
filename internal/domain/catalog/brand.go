package catalog

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Brand standardizes free-text brand names scraped from heterogeneous
// sources into one per-tenant row.
type Brand struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_brands_user_name" json:"user_id"`
	Name      string    `gorm:"not null;uniqueIndex:idx_brands_user_name" json:"name"`
	IsActive  bool      `gorm:"not null;default:true;column:is_active" json:"is_active"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Brand) TableName() string { return "brands" }

func (b *Brand) BeforeCreate(*gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}
