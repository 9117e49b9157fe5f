package services

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nordiska/pricewatch-backend/internal/data/repos"
	"github.com/nordiska/pricewatch-backend/internal/domain/customfields"
	"github.com/nordiska/pricewatch-backend/internal/domain/staging"
	"github.com/nordiska/pricewatch-backend/internal/pkg/apperrs"
	"github.com/nordiska/pricewatch-backend/internal/platform/logger"
)

// reservedFields are payload keys covered by first-class columns; they
// never become custom fields.
var reservedFields = map[string]struct{}{
	"id": {}, "user_id": {}, "name": {}, "sku": {}, "ean": {}, "brand": {},
	"brand_id": {}, "category": {}, "description": {}, "image_url": {},
	"url": {}, "price": {}, "our_price": {}, "wholesale_price": {},
	"currency_code": {}, "currency": {}, "is_active": {}, "created_at": {},
	"updated_at": {}, "scraped_at": {}, "competitor_id": {}, "supplier_id": {},
	"integration_id": {}, "scraper_id": {}, "status": {}, "error_message": {},
	"processed_at": {}, "product_id": {}, "raw_data": {},
	"integration_run_id": {},
}

var fieldNameRe = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)

// CustomFieldService discovers attribute fields from observation payloads
// and maintains their per-product values.
type CustomFieldService interface {
	// ApplyPayload walks one payload, lazily creating definitions for
	// unknown keys and replacing the product's values. Invalid names and
	// empty values are skipped, never fatal.
	ApplyPayload(ctx context.Context, tx *gorm.DB, userID, productID uuid.UUID, kind staging.SourceKind, sourceID uuid.UUID, payload map[string]interface{}) (int, error)

	ListDefinitions(ctx context.Context, userID uuid.UUID) ([]*customfields.Definition, error)
	ListValues(ctx context.Context, productID uuid.UUID) ([]*customfields.Value, error)
}

type customFieldService struct {
	defs   repos.CustomFieldDefinitionRepo
	values repos.CustomFieldValueRepo
	log    *logger.Logger
}

func NewCustomFieldService(defs repos.CustomFieldDefinitionRepo, values repos.CustomFieldValueRepo, baseLog *logger.Logger) CustomFieldService {
	return &customFieldService{
		defs:   defs,
		values: values,
		log:    baseLog.With("service", "CustomFieldService"),
	}
}

func (s *customFieldService) ApplyPayload(ctx context.Context, tx *gorm.DB, userID, productID uuid.UUID, kind staging.SourceKind, sourceID uuid.UUID, payload map[string]interface{}) (int, error) {
	applied := 0
	for key, raw := range payload {
		name := strings.TrimSpace(key)
		if _, reserved := reservedFields[strings.ToLower(name)]; reserved {
			continue
		}
		if !fieldNameRe.MatchString(name) {
			s.log.Warn("skipping invalid custom field name", "field", name)
			continue
		}
		val := stringifyValue(raw)
		if val == "" {
			continue
		}

		def, err := s.defs.EnsureDefinition(ctx, tx, &customfields.Definition{
			UserID:    userID,
			FieldName: name,
			FieldType: InferFieldType(raw),
		})
		if err != nil {
			return applied, apperrs.Storage("customfield.ensure", err)
		}

		srcID := sourceID
		row := &customfields.Value{
			ProductID:     productID,
			DefinitionID:  def.ID,
			Value:         val,
			SourceKind:    string(kind),
			SourceID:      &srcID,
			Confidence:    1,
			LastUpdatedBy: "pipeline",
		}
		if err := s.values.ReplaceValue(ctx, tx, row); err != nil {
			return applied, apperrs.Storage("customfield.replace", err)
		}
		applied++
	}
	return applied, nil
}

func (s *customFieldService) ListDefinitions(ctx context.Context, userID uuid.UUID) ([]*customfields.Definition, error) {
	out, err := s.defs.GetByUser(ctx, nil, userID)
	if err != nil {
		return nil, apperrs.Storage("customfield.list_definitions", err)
	}
	return out, nil
}

func (s *customFieldService) ListValues(ctx context.Context, productID uuid.UUID) ([]*customfields.Value, error) {
	out, err := s.values.GetByProduct(ctx, nil, productID)
	if err != nil {
		return nil, apperrs.Storage("customfield.list_values", err)
	}
	return out, nil
}

// InferFieldType guesses a field's type from its first observed value.
// Order matters: a boolean or url string would also parse as text, and
// "2024-01-15" must be a date before it is a number. The first guess
// sticks for the definition's lifetime.
func InferFieldType(v interface{}) customfields.FieldType {
	switch t := v.(type) {
	case bool:
		return customfields.TypeBoolean
	case float64, float32, int, int64:
		return customfields.TypeNumber
	case string:
		s := strings.TrimSpace(t)
		if s == "true" || s == "false" {
			return customfields.TypeBoolean
		}
		if u, err := url.Parse(s); err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != "" {
			return customfields.TypeURL
		}
		if looksLikeDate(s) {
			return customfields.TypeDate
		}
		if _, err := strconv.ParseFloat(s, 64); err == nil {
			return customfields.TypeNumber
		}
		return customfields.TypeText
	}
	return customfields.TypeText
}

var (
	isoDateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)
	usDateRe  = regexp.MustCompile(`^\d{2}/\d{2}/\d{4}$`)
)

func looksLikeDate(s string) bool {
	if isoDateRe.MatchString(s) {
		if _, err := time.Parse("2006-01-02", s[:10]); err == nil {
			return true
		}
		if _, err := time.Parse(time.RFC3339, s); err == nil {
			return true
		}
		return false
	}
	if usDateRe.MatchString(s) {
		_, err := time.Parse("01/02/2006", s)
		return err == nil
	}
	return false
}

func stringifyValue(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", t))
	}
}
