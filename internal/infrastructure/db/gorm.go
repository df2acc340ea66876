package db

import (
	"fmt"
	"time"

	"intranet-approval/internal/domain/approval"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func OpenGorm(dsn string) (*gorm.DB, error) {
	return OpenGormWithDialector(mysql.Open(dsn))
}

// OpenGormWithDialector opens, sizes the pool and pings before returning.
func OpenGormWithDialector(dial gorm.Dialector) (*gorm.DB, error) {
	cfg := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	}
	db, err := gorm.Open(dial, cfg)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(30)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("gorm: ping: %w", err)
	}
	return db, nil
}

// Migrate creates or extends the workflow tables. The directory tables
// (users, positions) belong to the intranet and are never touched here.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&approval.Request{}, &approval.Line{}, &approval.AuditEntry{})
}
