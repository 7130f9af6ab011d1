// Package store reads and writes forum data in the Supabase Postgres
// database. Writes run as the acting user so the database's row-level
// security policies and stored procedures see the same identity the API
// would.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var ErrNotFound = errors.New("store: not found")

type Store struct {
	db     *gorm.DB
	logger *zap.Logger
}

func New(db *gorm.DB, logger *zap.Logger) *Store {
	return &Store{db: db, logger: logger}
}

// asUser runs fn in a transaction carrying the user's JWT claims and the
// authenticated role, so auth.uid() resolves inside policies and procedures.
func (s *Store) asUser(ctx context.Context, userID string, fn func(tx *gorm.DB) error) error {
	claims, err := json.Marshal(map[string]string{"sub": userID, "role": "authenticated"})
	if err != nil {
		return fmt.Errorf("store: encode claims: %w", err)
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("SELECT set_config('request.jwt.claims', ?, true)", string(claims)).Error; err != nil {
			return fmt.Errorf("store: set claims: %w", err)
		}
		if err := tx.Exec("SET LOCAL ROLE authenticated").Error; err != nil {
			return fmt.Errorf("store: set role: %w", err)
		}
		return fn(tx)
	})
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
