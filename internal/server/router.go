package server

import (
	"github.com/gin-gonic/gin"

	"github.com/nordiska/pricewatch-backend/internal/http/handlers"
	"github.com/nordiska/pricewatch-backend/internal/http/middleware"
	"github.com/nordiska/pricewatch-backend/internal/platform/logger"
	"github.com/nordiska/pricewatch-backend/internal/platform/metrics"
)

type RouterConfig struct {
	Log            *logger.Logger
	AuthMiddleware *middleware.AuthMiddleware

	IngestHandler      *handlers.IngestHandler
	ReviewHandler      *handlers.ReviewHandler
	ProductHandler     *handlers.ProductHandler
	CustomFieldHandler *handlers.CustomFieldHandler
	CSVUploadHandler   *handlers.CSVUploadHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS())
	router.Use(middleware.RequestLog(cfg.Log))
	router.Use(middleware.Metrics())

	// Public
	router.GET("/healthcheck", handlers.HealthCheck)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	// Protected
	api := router.Group("/api")
	api.Use(cfg.AuthMiddleware.RequireAuth())

	// Ingestion
	api.POST("/ingest/:kind", cfg.IngestHandler.Ingest)
	api.POST("/ingest/:kind/process", cfg.IngestHandler.Process)

	// Reviews
	api.GET("/reviews", cfg.ReviewHandler.List)
	api.GET("/reviews/pending/count", cfg.ReviewHandler.CountPending)
	api.POST("/reviews/:id/approve", cfg.ReviewHandler.Approve)
	api.POST("/reviews/:id/decline", cfg.ReviewHandler.Decline)
	api.POST("/reviews/approve-all", cfg.ReviewHandler.ApproveAll)

	// Products
	api.GET("/products", cfg.ProductHandler.List)
	api.GET("/products/:id", cfg.ProductHandler.Get)
	api.GET("/products/:id/price-history", cfg.ProductHandler.PriceHistory)
	api.GET("/products/:id/custom-fields", cfg.CustomFieldHandler.ListProductValues)
	api.DELETE("/products/:id", cfg.ProductHandler.Delete)
	api.DELETE("/products", cfg.ProductHandler.DeleteAll)

	// Custom fields
	api.GET("/custom-fields", cfg.CustomFieldHandler.ListDefinitions)

	// CSV uploads
	api.POST("/competitors/:id/csv", cfg.CSVUploadHandler.UploadCompetitorPrices)
	api.POST("/catalog/csv", cfg.CSVUploadHandler.UploadCatalog)

	return router
}
