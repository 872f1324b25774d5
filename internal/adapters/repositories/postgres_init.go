package repositories

import (
	"database/sql"
	"errors"
	"fmt"
)

// Initialize the Postgres schema. Same tables as the SQLite schema with
// native types; used by cmd/dbtool against a shared database.
func InitPostgresSchema(db *sql.DB) error {
	if db == nil {
		return errors.New("init postgres schema: DB is nil")
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("init postgres schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	statements := []string{
		`
		CREATE TABLE IF NOT EXISTS visits (
			visit_id TEXT PRIMARY KEY,
			ip TEXT NOT NULL,
			country_code TEXT NOT NULL,
			country TEXT NOT NULL,
			region TEXT NOT NULL,
			city TEXT NOT NULL,
			zip TEXT NOT NULL,
			lat DOUBLE PRECISION NOT NULL,
			lon DOUBLE PRECISION NOT NULL,
			time_zone TEXT NOT NULL,
			eu_member BOOLEAN NOT NULL,
			gdpr_territory BOOLEAN NOT NULL,
			jurisdiction TEXT NOT NULL,
			lat_dms TEXT NOT NULL,
			lon_dms TEXT NOT NULL,
			spoofed BOOLEAN NOT NULL,
			resolved_at TIMESTAMPTZ NOT NULL
		);
		`,
		`
		CREATE TABLE IF NOT EXISTS location_cache (
			ip TEXT PRIMARY KEY,
			country_code TEXT NOT NULL,
			country TEXT NOT NULL,
			region TEXT NOT NULL,
			city TEXT NOT NULL,
			zip TEXT NOT NULL,
			lat DOUBLE PRECISION NOT NULL,
			lon DOUBLE PRECISION NOT NULL,
			time_zone TEXT NOT NULL
		);
		`,
		`
		CREATE INDEX IF NOT EXISTS idx_visits_resolved_at
		ON visits(resolved_at);
		`,
	}

	for i, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("init postgres schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init postgres schema: commit tx: %w", err)
	}

	return nil
}
