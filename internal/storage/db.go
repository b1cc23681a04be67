// Package storage provides the relational store for synchronized products
// and their images.
package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"           // postgres driver
	_ "github.com/mattn/go-sqlite3" // sqlite driver

	"github.com/albertohilal/catalog-sync/internal/config"
)

// Open opens a database connection for the configured driver.
func Open(cfg *config.Config) (*sql.DB, error) {
	switch cfg.Database.Driver {
	case "sqlite":
		db, err := sql.Open("sqlite3", cfg.Database.SQLite.Path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		db.SetMaxOpenConns(cfg.Database.SQLite.MaxOpenConns)
		return db, nil

	case "postgres":
		db, err := sql.Open("postgres", cfg.PostgresDSN())
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		pg := cfg.Database.Postgres
		db.SetMaxOpenConns(pg.MaxOpenConns)
		db.SetMaxIdleConns(pg.MaxIdleConns)
		db.SetConnMaxLifetime(pg.ConnMaxLifetime)
		return db, nil

	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Database.Driver)
	}
}

// Bootstrap creates the products and images tables if they do not exist.
func Bootstrap(ctx context.Context, db *sql.DB, driver string) error {
	var idColumn string
	switch driver {
	case "sqlite", "":
		idColumn = "INTEGER PRIMARY KEY AUTOINCREMENT"
	default:
		idColumn = "SERIAL PRIMARY KEY"
	}

	productsDDL := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS products (
			id %s,
			external_id BIGINT NOT NULL,
			sku TEXT NOT NULL UNIQUE,
			title TEXT NOT NULL,
			handle TEXT NOT NULL,
			description TEXT,
			price NUMERIC(12,2) NOT NULL DEFAULT 0.00,
			compare_at_price NUMERIC(12,2),
			stock INTEGER NOT NULL DEFAULT 0,
			vendor TEXT,
			product_type TEXT,
			tags TEXT,
			remote_id BIGINT,
			category_id INTEGER,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`, idColumn)

	imagesDDL := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS images (
			id %s,
			product_id INTEGER NOT NULL REFERENCES products (id) ON DELETE CASCADE,
			path TEXT NOT NULL,
			source_url TEXT,
			position INTEGER NOT NULL DEFAULT 1,
			UNIQUE (product_id, position)
		)
	`, idColumn)

	if _, err := db.ExecContext(ctx, productsDDL); err != nil {
		return fmt.Errorf("create products table: %w", err)
	}

	if _, err := db.ExecContext(ctx, imagesDDL); err != nil {
		return fmt.Errorf("create images table: %w", err)
	}

	return nil
}
