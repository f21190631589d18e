package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Dan9191/weather-service/internal/config"
	_ "github.com/lib/pq"
)

// Open connects to PostgreSQL and applies the pool bounds from config.
// The pool is shared across all concurrent requests; when it is exhausted,
// callers wait and eventually fail with the request context's deadline
// instead of deadlocking.
func Open(cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DBConn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	db.SetMaxIdleConns(cfg.DBMaxIdleConns)
	db.SetConnMaxLifetime(cfg.DBConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}
