// Package postgres stores plot runs and loads analysis tables from a SQL
// database through sqlx.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// DriverName is the database/sql driver registered by lib/pq
const DriverName = "postgres"

// Connect opens and pings the pool without touching the schema
func Connect(ctx context.Context, databaseURL string) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, DriverName, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
	return db, nil
}

// Open connects to databaseURL, applies pending migrations and returns the
// pool.
func Open(ctx context.Context, databaseURL string) (*sqlx.DB, error) {
	db, err := Connect(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	if _, err := NewMigrator(db).Up(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
