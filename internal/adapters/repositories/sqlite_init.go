package repositories

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

// Initialize the SQLite database schema.
func InitSchema(db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createVisitsQuery := `
	CREATE TABLE IF NOT EXISTS visits (
		visit_id TEXT PRIMARY KEY,
		ip TEXT NOT NULL,
		country_code TEXT NOT NULL,
		country TEXT NOT NULL,
		region TEXT NOT NULL,
		city TEXT NOT NULL,
		zip TEXT NOT NULL,
		lat REAL NOT NULL,
		lon REAL NOT NULL,
		time_zone TEXT NOT NULL,
		eu_member INTEGER NOT NULL,
		gdpr_territory INTEGER NOT NULL,
		jurisdiction TEXT NOT NULL,
		lat_dms TEXT NOT NULL,
		lon_dms TEXT NOT NULL,
		spoofed INTEGER NOT NULL,
		resolved_at TIMESTAMP NOT NULL
	);
	`

	createLocationCacheQuery := `
	CREATE TABLE IF NOT EXISTS location_cache (
        ip TEXT PRIMARY KEY,
        country_code TEXT NOT NULL,
        country TEXT NOT NULL,
        region TEXT NOT NULL,
        city TEXT NOT NULL,
        zip TEXT NOT NULL,
        lat REAL NOT NULL,
        lon REAL NOT NULL,
        time_zone TEXT NOT NULL
    );
	`

	createIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_visits_resolved_at
    ON visits(resolved_at);
	`

	statements := []string{
		createVisitsQuery,
		createLocationCacheQuery,
		createIndexQuery,
	}

	for i, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}

type LocationSeed struct {
	IP          string  `json:"ip"`
	CountryCode string  `json:"country_code"`
	Country     string  `json:"country"`
	Region      string  `json:"region"`
	City        string  `json:"city"`
	Zip         string  `json:"zip"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	TimeZone    string  `json:"time_zone"`
}

// Pre-warm the location cache with fixture entries from a JSON file.
// Useful for local runs and spoofed-IP testing without provider calls.
func SeedFromJSON(db *sql.DB, jsonPath string) error {
	bytes, err := os.ReadFile(jsonPath)
	if err != nil {
		return fmt.Errorf("seed locations: read %q: %w", jsonPath, err)
	}

	var data []LocationSeed
	if err := json.Unmarshal(bytes, &data); err != nil {
		return fmt.Errorf("seed locations: parse json: %w", err)
	}

	rows := make([]LocationSeed, 0, len(data))
	for i, item := range data {
		ip := strings.TrimSpace(item.IP)
		if ip == "" {
			return fmt.Errorf("seed locations: item at index %d: ip cannot be empty", i+1)
		}

		code := strings.TrimSpace(item.CountryCode)
		if len(code) != 2 {
			return fmt.Errorf("seed locations: item at index %d: invalid country code %q", i+1, item.CountryCode)
		}

		item.IP = ip
		item.CountryCode = code
		rows = append(rows, item)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("seed locations: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `
	INSERT OR REPLACE INTO location_cache (
		ip, country_code, country, region, city, zip, lat, lon, time_zone
	)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?);
	`
	stmt, err := tx.Prepare(query)
	if err != nil {
		return fmt.Errorf("seed locations: prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		if _, err := stmt.Exec(
			row.IP, row.CountryCode, row.Country, row.Region,
			row.City, row.Zip, row.Lat, row.Lon, row.TimeZone,
		); err != nil {
			return fmt.Errorf("seed locations: insert ip=%q: %w", row.IP, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed locations: commit tx: %w", err)
	}

	return nil
}
