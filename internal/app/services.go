package app

import (
	"gorm.io/gorm"

	redisclient "github.com/nordiska/pricewatch-backend/internal/clients/redis"
	"github.com/nordiska/pricewatch-backend/internal/data/repos"
	"github.com/nordiska/pricewatch-backend/internal/platform/logger"
	"github.com/nordiska/pricewatch-backend/internal/services"
)

type Services struct {
	Matcher     services.MatcherService
	Reconciler  services.ReconcilerService
	Fields      services.CustomFieldService
	Products    services.ProductService
	Pipeline    services.PipelineService
	Reviews     services.ReviewService
	CSVImports  services.CSVImportService
	EventBus    redisclient.EventBus
	notifier    services.Notifier
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, rs repos.Set) (Services, error) {
	log.Info("Wiring services...")

	var set Services
	set.notifier = services.NopNotifier()
	if cfg.RedisEnabled {
		bus, err := redisclient.NewEventBus(log)
		if err != nil {
			return set, err
		}
		set.EventBus = bus
		set.notifier = bus
	}

	set.Matcher = services.NewMatcherService(log, rs.Products)
	set.Reconciler = services.NewReconcilerService(rs.PriceChanges, rs.Products, log)
	set.Fields = services.NewCustomFieldService(rs.FieldDefs, rs.FieldValues, log)
	set.Products = services.NewProductService(db, rs, log)
	set.Pipeline = services.NewPipelineService(db, rs, set.Matcher, set.Reconciler, set.Fields, set.Products, set.notifier, log)
	set.Reviews = services.NewReviewService(db, rs, set.Reconciler, set.Fields, set.Products, set.notifier, log)
	set.CSVImports = services.NewCSVImportService(db, rs, set.Matcher, set.Pipeline, set.Products, log)
	return set, nil
}
