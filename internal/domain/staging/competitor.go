package staging

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type StagedCompetitorRecord struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       uuid.UUID       `gorm:"type:uuid;not null;index:idx_staged_comp_user" json:"user_id"`
	CompetitorID uuid.UUID       `gorm:"type:uuid;not null;index" json:"competitor_id"`
	ScraperID    *uuid.UUID      `gorm:"type:uuid" json:"scraper_id,omitempty"`
	ProductID    *uuid.UUID      `gorm:"type:uuid;index" json:"product_id,omitempty"`
	Name         string          `gorm:"not null" json:"name"`
	SKU          *string         `gorm:"column:sku" json:"sku,omitempty"`
	EAN          *string         `gorm:"column:ean;index" json:"ean,omitempty"`
	Brand        *string         `json:"brand,omitempty"`
	Price        decimal.Decimal `gorm:"type:numeric;not null;column:competitor_price" json:"competitor_price"`
	CurrencyCode string          `gorm:"not null;default:'SEK';column:currency_code" json:"currency_code"`
	URL          *string         `gorm:"column:url" json:"url,omitempty"`
	ImageURL     *string         `gorm:"column:image_url" json:"image_url,omitempty"`
	RawData      datatypes.JSON  `gorm:"column:raw_data" json:"raw_data,omitempty"`
	ObservedAt   time.Time       `gorm:"not null;column:scraped_at" json:"scraped_at"`
	Processed    bool            `gorm:"not null;default:false;index:idx_staged_comp_user" json:"processed"`
	Status       string          `gorm:"not null;default:'pending'" json:"status"`
	ErrorMessage *string         `gorm:"column:error_message" json:"error_message,omitempty"`
	CreatedAt    time.Time       `gorm:"not null" json:"created_at"`
}

func (StagedCompetitorRecord) TableName() string { return "staged_competitor_records" }

func (r *StagedCompetitorRecord) AsRecord() *Record {
	return &Record{
		ID:           r.ID,
		Kind:         SourceCompetitor,
		UserID:       r.UserID,
		SourceID:     r.CompetitorID,
		ProductID:    r.ProductID,
		Name:         r.Name,
		SKU:          r.SKU,
		EAN:          r.EAN,
		Brand:        r.Brand,
		Price:        r.Price,
		CurrencyCode: r.CurrencyCode,
		URL:          r.URL,
		ImageURL:     r.ImageURL,
		RawData:      r.RawData,
		ObservedAt:   r.ObservedAt,
		Processed:    r.Processed,
		Status:       r.Status,
		ErrorMessage: r.ErrorMessage,
	}
}

func CompetitorFromRecord(rec *Record) *StagedCompetitorRecord {
	return &StagedCompetitorRecord{
		ID:           rec.ID,
		UserID:       rec.UserID,
		CompetitorID: rec.SourceID,
		ProductID:    rec.ProductID,
		Name:         rec.Name,
		SKU:          rec.SKU,
		EAN:          rec.EAN,
		Brand:        rec.Brand,
		Price:        rec.Price,
		CurrencyCode: rec.CurrencyCode,
		URL:          rec.URL,
		ImageURL:     rec.ImageURL,
		RawData:      rec.RawData,
		ObservedAt:   rec.ObservedAt,
		Processed:    rec.Processed,
		Status:       rec.Status,
		ErrorMessage: rec.ErrorMessage,
	}
}

// BeforeCreate assigns the id app-side so the schema carries no
// database-specific default.
func (r *StagedCompetitorRecord) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
