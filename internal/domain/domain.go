package domain

import (
	"github.com/nordiska/pricewatch-backend/internal/domain/catalog"
	"github.com/nordiska/pricewatch-backend/internal/domain/customfields"
	"github.com/nordiska/pricewatch-backend/internal/domain/pricing"
	"github.com/nordiska/pricewatch-backend/internal/domain/reviews"
	"github.com/nordiska/pricewatch-backend/internal/domain/staging"
)

type User = catalog.User
type Brand = catalog.Brand
type Product = catalog.Product
type Competitor = catalog.Competitor
type Supplier = catalog.Supplier
type Integration = catalog.Integration

type SourceKind = staging.SourceKind
type StagedRecord = staging.Record
type StagedCompetitorRecord = staging.StagedCompetitorRecord
type StagedSupplierRecord = staging.StagedSupplierRecord
type StagedIntegrationRecord = staging.StagedIntegrationRecord
type StagedCSVRecord = staging.StagedCSVRecord

type PriceChange = pricing.PriceChange
type SourceRef = pricing.SourceRef

type ProductMatchReview = reviews.ProductMatchReview
type ReviewReason = reviews.ReviewReason
type ReviewStatus = reviews.ReviewStatus

type CustomFieldDefinition = customfields.Definition
type CustomFieldValue = customfields.Value
type CustomFieldType = customfields.FieldType

const (
	SourceCompetitor  = staging.SourceCompetitor
	SourceSupplier    = staging.SourceSupplier
	SourceIntegration = staging.SourceIntegration
	SourceCSV         = staging.SourceCSV
)
