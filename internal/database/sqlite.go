package database

import (
	"fmt"

	"github.com/barbridge/barbridge/backend/internal/calendarsync"
	"github.com/barbridge/barbridge/backend/internal/devicemirror"
	"github.com/barbridge/barbridge/backend/internal/notifications"
	"github.com/barbridge/barbridge/backend/internal/scheduling"
	"github.com/barbridge/barbridge/backend/internal/users"
	sqlite "github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// OpenSQLite establishes a SQLite connection and performs schema migrations.
func OpenSQLite(path string, logger *zap.Logger) (*gorm.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("database path is required")
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&scheduling.Appointment{},
		&scheduling.Participant{},
		&scheduling.AuditEvent{},
		&users.Identity{},
		&calendarsync.Connection{},
		&calendarsync.EventLink{},
		&notifications.Delivery{},
		&devicemirror.EventLink{},
		&migrationRecord{},
	)
	if err != nil {
		return nil, err
	}

	if err := applyMigrations(db, logger); err != nil {
		return nil, err
	}

	if logger != nil {
		logger.Info("database initialized", zap.String("path", path))
	}

	return db, nil
}
