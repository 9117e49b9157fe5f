package app

import (
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/nordiska/pricewatch-backend/internal/data/repos"
	"github.com/nordiska/pricewatch-backend/internal/db"
	"github.com/nordiska/pricewatch-backend/internal/platform/logger"
	"github.com/nordiska/pricewatch-backend/internal/server"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Router   *gin.Engine
	Cfg      Config
	Repos    repos.Set
	Services Services
}

func New() (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading environment variables...")
	cfg := LoadConfig()

	database, err := db.NewService(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init database: %w", err)
	}
	if err := database.AutoMigrateAll(); err != nil {
		log.Sync()
		return nil, fmt.Errorf("automigrate: %w", err)
	}
	theDB := database.DB()

	reposet := wireRepos(theDB, log)
	serviceset, err := wireServices(theDB, log, cfg, reposet)
	if err != nil {
		log.Sync()
		return nil, err
	}
	handlerset := wireHandlers(log, serviceset)
	mw := wireMiddleware(log, cfg)

	router := server.NewRouter(server.RouterConfig{
		Log:                log,
		AuthMiddleware:     mw.Auth,
		IngestHandler:      handlerset.Ingest,
		ReviewHandler:      handlerset.Reviews,
		ProductHandler:     handlerset.Products,
		CustomFieldHandler: handlerset.CustomFields,
		CSVUploadHandler:   handlerset.CSVUploads,
	})

	return &App{
		Log:      log,
		DB:       theDB,
		Router:   router,
		Cfg:      cfg,
		Repos:    reposet,
		Services: serviceset,
	}, nil
}

func (a *App) Run() error {
	if a == nil || a.Router == nil {
		return fmt.Errorf("app not initialized")
	}
	return a.Router.Run(a.Cfg.HTTPAddr)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.Services.EventBus != nil {
		_ = a.Services.EventBus.Close()
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
