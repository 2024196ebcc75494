package db

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"NovaFM/config"
	"NovaFM/logger"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// GormDB is the embedded cache store connection. All local reads and writes
// go through it; it is the single source of truth for the UI.
var GormDB *gorm.DB

// ConnectGormDB opens the embedded sqlite cache store.
func ConnectGormDB(cfg *config.Config) error {
	if dir := filepath.Dir(cfg.CachePath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create cache directory: %w", err)
		}
	}

	// busy_timeout serializes conflicting row writes from concurrent call
	// sites; foreign_keys enables the membership-link cascades.
	dsn := fmt.Sprintf("%s?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on", cfg.CachePath)

	var err error
	GormDB, err = gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return fmt.Errorf("failed to open cache store: %w", err)
	}

	sqlDB, err := GormDB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// sqlite allows one writer at a time; a single open connection avoids
	// SQLITE_BUSY churn under concurrent propagation tasks.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)

	logger.Info("cache store opened", logger.String("path", cfg.CachePath))
	return nil
}

// CloseGormDB closes the cache store connection.
func CloseGormDB() error {
	if GormDB == nil {
		return nil
	}

	sqlDB, err := GormDB.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}
