package database

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/barbridge/barbridge/backend/internal/scheduling"
	sqlite "github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func TestApplyMigrationsBackfillsAppointmentTimezones(testContext *testing.T) {
	tempDir := testContext.TempDir()
	databasePath := filepath.Join(tempDir, "migration.db")

	database, err := gorm.Open(sqlite.Open(databasePath), &gorm.Config{})
	if err != nil {
		testContext.Fatalf("failed to open sqlite: %v", err)
	}

	if err := database.AutoMigrate(&scheduling.Appointment{}, &migrationRecord{}); err != nil {
		testContext.Fatalf("failed to migrate schema: %v", err)
	}

	start := time.Date(2026, 3, 11, 15, 0, 0, 0, time.UTC)
	appointment := scheduling.Appointment{
		ID:              "appt-1",
		Title:           "Partner interview",
		Modality:        scheduling.ModalityVirtual,
		VideoURL:        "https://meet.example.com/abc",
		StartsAt:        start,
		EndsAt:          start.Add(time.Hour),
		Status:          scheduling.StatusScheduled,
		CandidateUserID: "cand-1",
		CreatedBy:       "staff-1",
	}
	if err := database.Create(&appointment).Error; err != nil {
		testContext.Fatalf("failed to insert appointment: %v", err)
	}

	if err := applyMigrations(database, zap.NewNop()); err != nil {
		testContext.Fatalf("failed to apply migrations: %v", err)
	}

	var stored scheduling.Appointment
	if err := database.Where("id = ?", appointment.ID).Take(&stored).Error; err != nil {
		testContext.Fatalf("failed to reload appointment: %v", err)
	}
	if stored.Timezone != "UTC" {
		testContext.Fatalf("expected timezone backfilled to UTC, got %q", stored.Timezone)
	}

	var record migrationRecord
	if err := database.Where("name = ?", migrationBackfillAppointmentTimezones).Take(&record).Error; err != nil {
		testContext.Fatalf("expected migration record to be created: %v", err)
	}
	if record.AppliedAtSeconds == 0 {
		testContext.Fatalf("expected migration timestamp to be set")
	}

	// Re-running must be a no-op.
	if err := applyMigrations(database, zap.NewNop()); err != nil {
		testContext.Fatalf("failed to re-apply migrations: %v", err)
	}
}

func TestOpenSQLiteRequiresPath(testContext *testing.T) {
	if _, err := OpenSQLite("", zap.NewNop()); err == nil {
		testContext.Fatalf("expected empty path to be rejected")
	}
}
