package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
	"gorm.io/gorm"

	"github.com/nordiska/pricewatch-backend/internal/data/repos"
	"github.com/nordiska/pricewatch-backend/internal/domain/staging"
	"github.com/nordiska/pricewatch-backend/internal/pkg/apperrs"
	"github.com/nordiska/pricewatch-backend/internal/platform/logger"
)

// CSVOptions configures how an upload is parsed. The zero value means
// comma-separated UTF-8.
type CSVOptions struct {
	Delimiter rune
	// Encoding names the source charset: "utf-8" (default),
	// "windows-1252" or "iso-8859-1".
	Encoding string
}

// CSVImportResult reports one upload.
type CSVImportResult struct {
	RowsTotal       int      `json:"rows_total"`
	RowsSkipped     int      `json:"rows_skipped"`
	ProductsAdded   int      `json:"products_added"`
	PricesUpdated   int      `json:"prices_updated"`
	ReviewsCreated  int      `json:"reviews_created"`
	SkippedMessages []string `json:"skipped_messages,omitempty"`
}

// CSVImportService turns uploaded files into observations. Competitor
// uploads go through the full pipeline; catalog uploads write the tenant's
// own prices directly.
type CSVImportService interface {
	// ImportCompetitorPrices stages each row as a csv-kind observation
	// against the given competitor and runs the pipeline over the batch.
	ImportCompetitorPrices(ctx context.Context, userID, competitorID uuid.UUID, r io.Reader, opts CSVOptions) (*CSVImportResult, error)

	// ImportCatalog upserts the tenant's own products and retail prices.
	// Matching follows the pipeline's key priority; unmatched rows create
	// products.
	ImportCatalog(ctx context.Context, userID uuid.UUID, r io.Reader, opts CSVOptions) (*CSVImportResult, error)
}

type csvImportService struct {
	db       *gorm.DB
	repos    repos.Set
	matcher  MatcherService
	pipeline PipelineService
	products ProductService
	log      *logger.Logger
}

func NewCSVImportService(db *gorm.DB, rs repos.Set, matcher MatcherService, pipeline PipelineService, products ProductService, baseLog *logger.Logger) CSVImportService {
	return &csvImportService{
		db:       db,
		repos:    rs,
		matcher:  matcher,
		pipeline: pipeline,
		products: products,
		log:      baseLog.With("service", "CSVImportService"),
	}
}

// csvRow is one parsed line keyed by normalized header name.
type csvRow map[string]string

func (r csvRow) first(keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(r[k]); v != "" {
			return v
		}
	}
	return ""
}

func (s *csvImportService) ImportCompetitorPrices(ctx context.Context, userID, competitorID uuid.UUID, r io.Reader, opts CSVOptions) (*CSVImportResult, error) {
	competitor, err := s.repos.Competitors.GetByID(ctx, nil, userID, competitorID)
	if err != nil {
		return nil, apperrs.Storage("csvimport.competitor", err)
	}
	if competitor == nil {
		return nil, apperrs.ErrNotFound
	}

	rows, err := parseCSV(r, opts)
	if err != nil {
		return nil, err
	}

	result := &CSVImportResult{RowsTotal: len(rows)}
	raws := make([]RawObservation, 0, len(rows))
	for i, row := range rows {
		name := row.first("name", "product_name", "title")
		price := row.first("price", "competitor_price")
		if name == "" || price == "" {
			result.RowsSkipped++
			result.SkippedMessages = append(result.SkippedMessages,
				fmt.Sprintf("row %d: missing name or price", i+2))
			continue
		}
		raws = append(raws, RawObservation{
			TenantID:     userID.String(),
			Kind:         staging.SourceCSV,
			SourceID:     competitorID,
			Name:         name,
			SKU:          row.first("sku"),
			EAN:          row.first("ean"),
			Brand:        row.first("brand"),
			Price:        price,
			CurrencyCode: row.first("currency", "currency_code"),
			URL:          row.first("url"),
		})
	}

	batch, err := s.pipeline.Ingest(ctx, userID, staging.SourceCSV, raws)
	if err != nil {
		return nil, err
	}
	result.RowsSkipped += batch.RowsSkipped
	result.ProductsAdded = batch.ProductsCreated
	result.PricesUpdated = batch.PriceChanges
	result.ReviewsCreated = batch.ReviewsCreated
	return result, nil
}

func (s *csvImportService) ImportCatalog(ctx context.Context, userID uuid.UUID, r io.Reader, opts CSVOptions) (*CSVImportResult, error) {
	user, err := s.repos.Users.GetByID(ctx, nil, userID)
	if err != nil {
		return nil, apperrs.Storage("csvimport.user", err)
	}
	if user == nil {
		return nil, apperrs.ErrNotFound
	}

	rows, err := parseCSV(r, opts)
	if err != nil {
		return nil, err
	}

	result := &CSVImportResult{RowsTotal: len(rows)}
	for i, row := range rows {
		name := row.first("name", "product_name", "title")
		priceStr := row.first("our_price", "our_retail_price", "price")
		if name == "" {
			result.RowsSkipped++
			result.SkippedMessages = append(result.SkippedMessages,
				fmt.Sprintf("row %d: missing name", i+2))
			continue
		}
		price, err := ParsePrice(priceStr)
		if priceStr != "" && err != nil {
			result.RowsSkipped++
			result.SkippedMessages = append(result.SkippedMessages,
				fmt.Sprintf("row %d: %v", i+2, err))
			continue
		}

		raw := RawObservation{
			TenantID: userID.String(),
			Kind:     staging.SourceCSV,
			SourceID: userID,
			Name:     name,
			SKU:      row.first("sku"),
			EAN:      row.first("ean"),
			Brand:    row.first("brand"),
			Price:    priceStr,
			URL:      row.first("url"),
			ImageURL: row.first("image_url"),
		}
		norm, skip := Normalize(raw, user.Currency())
		if skip != nil {
			result.RowsSkipped++
			result.SkippedMessages = append(result.SkippedMessages,
				fmt.Sprintf("row %d: %s", i+2, skip.String()))
			continue
		}

		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			match, err := s.matcher.Match(ctx, tx, userID, norm.MatchEAN, norm.MatchBrand, norm.MatchSKU)
			if err != nil {
				return apperrs.Storage("csvimport.match", err)
			}
			if match.Matched() {
				updates := map[string]interface{}{}
				if priceStr != "" {
					updates["our_retail_price"] = price
				}
				if wholesale := row.first("wholesale_price", "our_wholesale_price"); wholesale != "" {
					if w, err := ParsePrice(wholesale); err == nil {
						updates["our_wholesale_price"] = w
					}
				}
				if len(updates) == 0 {
					return nil
				}
				if err := s.repos.Products.UpdateFields(ctx, tx, match.Product.ID, updates); err != nil {
					return apperrs.Storage("csvimport.update", err)
				}
				result.PricesUpdated++
				return nil
			}

			created, err := s.products.CreateFromObservation(ctx, tx, user, norm)
			if err != nil {
				return err
			}
			if priceStr != "" {
				if err := s.repos.Products.UpdateFields(ctx, tx, created.ID, map[string]interface{}{
					"our_retail_price": price,
				}); err != nil {
					return apperrs.Storage("csvimport.price", err)
				}
			}
			result.ProductsAdded++
			return nil
		})
		if err != nil {
			result.RowsSkipped++
			result.SkippedMessages = append(result.SkippedMessages,
				fmt.Sprintf("row %d: %v", i+2, err))
		}
	}
	return result, nil
}

// parseCSV reads the whole file into header-keyed rows. Headers are
// case-folded; duplicate headers keep the first column.
func parseCSV(r io.Reader, opts CSVOptions) ([]csvRow, error) {
	decoded, err := decodeReader(r, opts.Encoding)
	if err != nil {
		return nil, err
	}
	cr := csv.NewReader(decoded)
	if opts.Delimiter != 0 {
		cr.Comma = opts.Delimiter
	}
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, &apperrs.ValidationError{Field: "file", Reason: "empty file"}
	}
	if err != nil {
		return nil, &apperrs.ValidationError{Field: "file", Reason: err.Error()}
	}
	cols := make([]string, len(header))
	for i, h := range header {
		cols[i] = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
	}

	var rows []csvRow
	for {
		record, err := cr.Read()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return nil, &apperrs.ValidationError{Field: "file", Reason: err.Error()}
		}
		row := csvRow{}
		for i, v := range record {
			if i >= len(cols) {
				break
			}
			if _, dup := row[cols[i]]; dup {
				continue
			}
			row[cols[i]] = v
		}
		rows = append(rows, row)
	}
}

func decodeReader(r io.Reader, encoding string) (io.Reader, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "", "utf-8", "utf8":
		return r, nil
	case "windows-1252", "cp1252":
		return transform.NewReader(r, charmap.Windows1252.NewDecoder()), nil
	case "iso-8859-1", "latin-1", "latin1":
		return transform.NewReader(r, charmap.ISO8859_1.NewDecoder()), nil
	default:
		return nil, &apperrs.ValidationError{Field: "encoding", Reason: "unsupported encoding " + encoding}
	}
}
