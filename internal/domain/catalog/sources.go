package catalog

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Competitor is a scraped storefront the tenant tracks.
type Competitor struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	Name      string    `gorm:"not null" json:"name"`
	Website   *string   `json:"website,omitempty"`
	IsActive  bool      `gorm:"not null;default:true;column:is_active" json:"is_active"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Competitor) TableName() string { return "competitors" }

// Supplier is a wholesale feed the tenant buys from.
type Supplier struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	Name      string    `gorm:"not null" json:"name"`
	Website   *string   `json:"website,omitempty"`
	IsActive  bool      `gorm:"not null;default:true;column:is_active" json:"is_active"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Supplier) TableName() string { return "suppliers" }

// Integration is an e-commerce platform connection feeding observations.
type Integration struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	Name       string     `gorm:"not null" json:"name"`
	Platform   string     `gorm:"not null" json:"platform"`
	BaseURL    *string    `gorm:"column:base_url" json:"base_url,omitempty"`
	IsActive   bool       `gorm:"not null;default:true;column:is_active" json:"is_active"`
	LastSyncAt *time.Time `gorm:"column:last_sync_at" json:"last_sync_at,omitempty"`
	CreatedAt  time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time  `gorm:"not null" json:"updated_at"`
}

func (Integration) TableName() string { return "integrations" }

func (c *Competitor) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

func (s *Supplier) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

func (i *Integration) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
