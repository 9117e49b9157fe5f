package staging

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type StagedIntegrationRecord struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	UserID           uuid.UUID       `gorm:"type:uuid;not null;index:idx_staged_intg_user" json:"user_id"`
	IntegrationID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"integration_id"`
	IntegrationRunID *uuid.UUID      `gorm:"type:uuid;index" json:"integration_run_id,omitempty"`
	ProductID        *uuid.UUID      `gorm:"type:uuid;index" json:"product_id,omitempty"`
	Name             string          `gorm:"not null" json:"name"`
	SKU              *string         `gorm:"column:sku" json:"sku,omitempty"`
	EAN              *string         `gorm:"column:ean;index" json:"ean,omitempty"`
	Brand            *string         `json:"brand,omitempty"`
	Price            decimal.Decimal `gorm:"type:numeric;not null;column:price" json:"price"`
	CurrencyCode     string          `gorm:"not null;default:'SEK';column:currency_code" json:"currency_code"`
	URL              *string         `gorm:"column:url" json:"url,omitempty"`
	ImageURL         *string         `gorm:"column:image_url" json:"image_url,omitempty"`
	RawData          datatypes.JSON  `gorm:"column:raw_data" json:"raw_data,omitempty"`
	ObservedAt       time.Time       `gorm:"not null;column:synced_at" json:"synced_at"`
	Processed        bool            `gorm:"not null;default:false;index:idx_staged_intg_user" json:"processed"`
	Status           string          `gorm:"not null;default:'pending'" json:"status"`
	ErrorMessage     *string         `gorm:"column:error_message" json:"error_message,omitempty"`
	CreatedAt        time.Time       `gorm:"not null" json:"created_at"`
}

func (StagedIntegrationRecord) TableName() string { return "staged_integration_records" }

func (r *StagedIntegrationRecord) AsRecord() *Record {
	return &Record{
		ID:           r.ID,
		Kind:         SourceIntegration,
		UserID:       r.UserID,
		SourceID:     r.IntegrationID,
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

func IntegrationFromRecord(rec *Record) *StagedIntegrationRecord {
	return &StagedIntegrationRecord{
		ID:            rec.ID,
		UserID:        rec.UserID,
		IntegrationID: rec.SourceID,
		ProductID:     rec.ProductID,
		Name:          rec.Name,
		SKU:           rec.SKU,
		EAN:           rec.EAN,
		Brand:         rec.Brand,
		Price:         rec.Price,
		CurrencyCode:  rec.CurrencyCode,
		URL:           rec.URL,
		ImageURL:      rec.ImageURL,
		RawData:       rec.RawData,
		ObservedAt:    rec.ObservedAt,
		Processed:     rec.Processed,
		Status:        rec.Status,
		ErrorMessage:  rec.ErrorMessage,
	}
}

func (r *StagedIntegrationRecord) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
