package db

import (
	"testing"

	"github.com/google/uuid"

	"github.com/nordiska/pricewatch-backend/internal/domain/catalog"
	"github.com/nordiska/pricewatch-backend/internal/domain/staging"
	"github.com/nordiska/pricewatch-backend/internal/platform/logger"
)

func TestSqliteDriverMigratesAndAssignsIDs(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", ":memory:")

	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}

	svc, err := NewService(log)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	if err := svc.AutoMigrateAll(); err != nil {
		t.Fatalf("AutoMigrateAll: %v", err)
	}

	user := &catalog.User{Email: "sqlite@example.com", Name: "Sqlite"}
	if err := svc.DB().Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	if user.ID == uuid.Nil {
		t.Fatalf("expected user id to be assigned on create")
	}
	if user.CreatedAt.IsZero() {
		t.Fatalf("expected created_at to be populated on create")
	}

	rec := &staging.StagedCompetitorRecord{
		UserID:       user.ID,
		CompetitorID: uuid.New(),
		RawData:      []byte(`{}`),
		Status:       staging.StatusPending,
	}
	if err := svc.DB().Create(rec).Error; err != nil {
		t.Fatalf("create staged record: %v", err)
	}
	if rec.ID == uuid.Nil {
		t.Fatalf("expected staged record id to be assigned on create")
	}
}
