package app

import (
	"github.com/nordiska/pricewatch-backend/internal/http/handlers"
	"github.com/nordiska/pricewatch-backend/internal/http/middleware"
	"github.com/nordiska/pricewatch-backend/internal/platform/logger"
)

type Handlers struct {
	Ingest       *handlers.IngestHandler
	Reviews      *handlers.ReviewHandler
	Products     *handlers.ProductHandler
	CustomFields *handlers.CustomFieldHandler
	CSVUploads   *handlers.CSVUploadHandler
}

type Middleware struct {
	Auth *middleware.AuthMiddleware
}

func wireHandlers(log *logger.Logger, svc Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Ingest:       handlers.NewIngestHandler(log, svc.Pipeline),
		Reviews:      handlers.NewReviewHandler(log, svc.Reviews),
		Products:     handlers.NewProductHandler(log, svc.Products),
		CustomFields: handlers.NewCustomFieldHandler(log, svc.Fields),
		CSVUploads:   handlers.NewCSVUploadHandler(log, svc.CSVImports),
	}
}

func wireMiddleware(log *logger.Logger, cfg Config) Middleware {
	return Middleware{
		Auth: middleware.NewAuthMiddleware(log, cfg.JWTSecretKey),
	}
}
