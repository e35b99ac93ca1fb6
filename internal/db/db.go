package db

import (
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"home-monitor-backend/config"
	"home-monitor-backend/internal/model"
)

// Init initializes the database connection, runs migrations and seeds the
// device status row.
func Init(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	dialector, err := openDialector(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)

	log.Println("Running database migrations...")
	if err := db.AutoMigrate(
		&model.User{},
		&model.DeviceStatus{},
	); err != nil {
		return nil, fmt.Errorf("automigrate failed: %w", err)
	}

	if err := SeedDeviceStatus(db); err != nil {
		return nil, err
	}

	log.Println("Database initialization complete.")
	return db, nil
}

func openDialector(cfg *config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "sqlite", "":
		return sqlite.Open(cfg.DSN), nil
	case "postgres":
		return postgres.Open(cfg.DSN), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// SeedDeviceStatus inserts the default (off) status row if no row exists
// yet. An existing row is left untouched so a restart never loses the last
// committed state.
func SeedDeviceStatus(db *gorm.DB) error {
	var status model.DeviceStatus
	err := db.First(&status, model.DeviceStatusID).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to read device status during seeding: %w", err)
	}

	seed := model.DeviceStatus{
		ID:        model.DeviceStatusID,
		LedOn:     false,
		UpdatedAt: time.Now().UTC(),
	}
	if err := db.Create(&seed).Error; err != nil {
		return fmt.Errorf("failed to seed device status: %w", err)
	}
	log.Println("Seeded device status row with default state (off)")
	return nil
}
