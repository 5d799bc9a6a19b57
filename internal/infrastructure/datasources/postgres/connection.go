package postgres

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"certverify.client/internal/config"
)

var (
	gormOpen = gorm.Open
	dbPing   = func(db *gorm.DB) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.Ping()
	}
)

// NewConnection opens and pings a PostgreSQL database through GORM
func NewConnection(cfg config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gormOpen(postgres.Open(cfg.URL()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := dbPing(db); err != nil {
		if sqlDB, dbErr := db.DB(); dbErr == nil {
			_ = sqlDB.Close()
		}
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}
