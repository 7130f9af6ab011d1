package db

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var ErrNoDSN = errors.New("db: DATABASE_URL is not set")

// Open connects to the forum's Postgres database. The schema, policies and
// procedures are owned by the database project; nothing is migrated here.
func Open(dsn string, log *zap.Logger) (*gorm.DB, error) {
	if dsn == "" {
		return nil, ErrNoDSN
	}

	conn, err := gorm.Open(postgres.New(postgres.Config{
		DSN: dsn,
		// Supabase's transaction pooler does not support prepared statements.
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("db: connect: %w", err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, fmt.Errorf("db: pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	log.Info("database connection established")
	return conn, nil
}
