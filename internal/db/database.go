package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/nordiska/pricewatch-backend/internal/domain/catalog"
	"github.com/nordiska/pricewatch-backend/internal/domain/customfields"
	"github.com/nordiska/pricewatch-backend/internal/domain/pricing"
	"github.com/nordiska/pricewatch-backend/internal/domain/reviews"
	"github.com/nordiska/pricewatch-backend/internal/domain/staging"
	"github.com/nordiska/pricewatch-backend/internal/platform/envutil"
	"github.com/nordiska/pricewatch-backend/internal/platform/logger"
)

// Service owns the database handle. Postgres is the production driver;
// sqlite exists for local runs without an instance (DB_DRIVER=sqlite).
type Service struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewService(log *logger.Logger) (*Service, error) {
	serviceLog := log.With("service", "DatabaseService")

	driver := envutil.Str("DB_DRIVER", "postgres")
	var (
		db  *gorm.DB
		err error
	)
	switch driver {
	case "postgres":
		host := envutil.Str("POSTGRES_HOST", "localhost")
		port := envutil.Str("POSTGRES_PORT", "5432")
		user := envutil.Str("POSTGRES_USER", "postgres")
		password := envutil.Str("POSTGRES_PASSWORD", "")
		name := envutil.Str("POSTGRES_NAME", "pricewatch")
		sslmode := envutil.Str("POSTGRES_SSLMODE", "disable")

		dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", user, password, host, port, name, sslmode)
		log.Info("Connecting to Postgres...", "host", host, "db", name)
		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
			DisableForeignKeyConstraintWhenMigrating: true,
		})
		if err != nil {
			log.Error("Failed to connect to Postgres", "error", err)
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
	case "sqlite":
		path := envutil.Str("SQLITE_PATH", "pricewatch.db")
		log.Info("Opening sqlite database...", "path", path)
		db, err = gorm.Open(sqlite.Open(path), &gorm.Config{})
		if err != nil {
			log.Error("Failed to open sqlite database", "error", err)
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown DB_DRIVER %q", driver)
	}

	return &Service{db: db, log: serviceLog}, nil
}

func (s *Service) AutoMigrateAll() error {
	s.log.Info("Auto migrating tables...")
	err := s.db.AutoMigrate(
		&catalog.User{},
		&catalog.Brand{},
		&catalog.Product{},
		&catalog.Competitor{},
		&catalog.Supplier{},
		&catalog.Integration{},
		&staging.StagedCompetitorRecord{},
		&staging.StagedSupplierRecord{},
		&staging.StagedIntegrationRecord{},
		&staging.StagedCSVRecord{},
		&pricing.PriceChange{},
		&reviews.ProductMatchReview{},
		&customfields.Definition{},
		&customfields.Value{},
	)
	if err != nil {
		s.log.Error("Auto migration failed", "error", err)
		return err
	}
	return nil
}

func (s *Service) DB() *gorm.DB {
	return s.db
}
