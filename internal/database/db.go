// Package database owns the Postgres connection, transaction helpers and
// the error taxonomy the storefront's stores build on.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Banshee-gtb/kate-aesthetics/internal/config"
	_ "github.com/lib/pq"
)

const pingTimeout = 5 * time.Second

// NewConnection opens the storefront database pool and verifies it is
// reachable before the API starts serving.
func NewConnection(cfg *config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return db, nil
}
