package db

import (
	"context"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Store wraps DB connectivity for the governance engine.
// Postgres is the authoritative production store; when no DSN is configured
// the engine falls back to an embedded sqlite file for local development.
type Store struct {
	DB *gorm.DB
}

func Connect(postgresDSN string, sqlitePath string) (*Store, error) {
	if postgresDSN != "" {
		return connectPostgres(postgresDSN)
	}
	if sqlitePath == "" {
		sqlitePath = "concord.db"
	}
	db, err := gorm.Open(sqlite.Open(sqlitePath), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open gorm sqlite: %w", err)
	}
	return &Store{DB: db}, nil
}

func connectPostgres(dsn string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open gorm postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("resolve postgres sql db handle: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Store{DB: db}, nil
}

// Migrate applies schema for the given gorm models.
func (s *Store) Migrate(models ...any) error {
	if s == nil || s.DB == nil {
		return nil
	}
	return s.DB.AutoMigrate(models...)
}

func (s *Store) Close() error {
	if s == nil || s.DB == nil {
		return nil
	}
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
