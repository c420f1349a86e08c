package database

import (
	"errors"
	"time"

	"github.com/barbridge/barbridge/backend/internal/scheduling"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const migrationBackfillAppointmentTimezones = "2026-07-02_backfill_appointment_timezones"

type migrationRecord struct {
	Name             string `gorm:"column:name;primaryKey;size:190;not null"`
	AppliedAtSeconds int64  `gorm:"column:applied_at_s;not null"`
}

func (migrationRecord) TableName() string {
	return "db_migrations"
}

type migrationDefinition struct {
	name  string
	apply func(*gorm.DB) error
}

func applyMigrations(db *gorm.DB, logger *zap.Logger) error {
	migrations := []migrationDefinition{
		{name: migrationBackfillAppointmentTimezones, apply: backfillAppointmentTimezones},
	}

	for _, migration := range migrations {
		var record migrationRecord
		err := db.Where("name = ?", migration.name).Take(&record).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := migration.apply(db); err != nil {
			return err
		}
		appliedAt := time.Now().UTC().Unix()
		if err := db.Create(&migrationRecord{Name: migration.name, AppliedAtSeconds: appliedAt}).Error; err != nil {
			return err
		}
		if logger != nil {
			logger.Info("database migration applied", zap.String("migration", migration.name))
		}
	}
	return nil
}

// Rows imported before timezone capture carry an empty label; display and
// calendar mirroring assume one is always present.
func backfillAppointmentTimezones(db *gorm.DB) error {
	return db.Model(&scheduling.Appointment{}).
		Where("timezone = ''").
		Update("timezone", "UTC").Error
}
