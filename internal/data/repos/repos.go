package repos

import (
	"gorm.io/gorm"

	"github.com/nordiska/pricewatch-backend/internal/data/repos/catalog"
	"github.com/nordiska/pricewatch-backend/internal/data/repos/customfields"
	"github.com/nordiska/pricewatch-backend/internal/data/repos/pricing"
	"github.com/nordiska/pricewatch-backend/internal/data/repos/reviews"
	"github.com/nordiska/pricewatch-backend/internal/data/repos/staging"
	"github.com/nordiska/pricewatch-backend/internal/platform/logger"
)

type UserRepo = catalog.UserRepo
type BrandRepo = catalog.BrandRepo
type ProductRepo = catalog.ProductRepo
type CompetitorRepo = catalog.CompetitorRepo
type SupplierRepo = catalog.SupplierRepo
type IntegrationRepo = catalog.IntegrationRepo

type StagedRepo = staging.StagedRepo
type PriceChangeRepo = pricing.PriceChangeRepo
type ReviewRepo = reviews.ReviewRepo
type CustomFieldDefinitionRepo = customfields.DefinitionRepo
type CustomFieldValueRepo = customfields.ValueRepo

var NewUserRepo = catalog.NewUserRepo
var NewBrandRepo = catalog.NewBrandRepo
var NewProductRepo = catalog.NewProductRepo
var NewCompetitorRepo = catalog.NewCompetitorRepo
var NewSupplierRepo = catalog.NewSupplierRepo
var NewIntegrationRepo = catalog.NewIntegrationRepo
var NewStagedRepo = staging.NewStagedRepo
var NewPriceChangeRepo = pricing.NewPriceChangeRepo
var NewReviewRepo = reviews.NewReviewRepo
var NewCustomFieldDefinitionRepo = customfields.NewDefinitionRepo
var NewCustomFieldValueRepo = customfields.NewValueRepo

// Set bundles every repo for wiring.
type Set struct {
	Users        UserRepo
	Brands       BrandRepo
	Products     ProductRepo
	Competitors  CompetitorRepo
	Suppliers    SupplierRepo
	Integrations IntegrationRepo
	Staged       StagedRepo
	PriceChanges PriceChangeRepo
	Reviews      ReviewRepo
	FieldDefs    CustomFieldDefinitionRepo
	FieldValues  CustomFieldValueRepo
}

func NewSet(db *gorm.DB, log *logger.Logger) Set {
	return Set{
		Users:        NewUserRepo(db, log),
		Brands:       NewBrandRepo(db, log),
		Products:     NewProductRepo(db, log),
		Competitors:  NewCompetitorRepo(db, log),
		Suppliers:    NewSupplierRepo(db, log),
		Integrations: NewIntegrationRepo(db, log),
		Staged:       NewStagedRepo(db, log),
		PriceChanges: NewPriceChangeRepo(db, log),
		Reviews:      NewReviewRepo(db, log),
		FieldDefs:    NewCustomFieldDefinitionRepo(db, log),
		FieldValues:  NewCustomFieldValueRepo(db, log),
	}
}
