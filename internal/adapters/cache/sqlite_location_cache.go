package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"smartip-service/internal/domain"
)

// SQLite backed cache mapping IP addresses to resolved locations.
// IP keys are expected to be canonicalized by the caller.
type SqliteLocationCache struct {
	DB *sql.DB
}

func NewSqliteLocationCache(db *sql.DB) *SqliteLocationCache {
	return &SqliteLocationCache{DB: db}
}

// Fetch cached locations for the given IPs.
func (s *SqliteLocationCache) GetMany(ctx context.Context, ips []string) (map[string]domain.Location, error) {
	if s.DB == nil {
		return nil, errors.New("location cache: db is nil")
	}

	if len(ips) == 0 {
		return map[string]domain.Location{}, nil
	}

	seen := map[string]struct{}{}
	uniq := make([]string, 0, len(ips))
	ph := make([]string, 0, len(ips))
	for _, ip := range ips {
		ip = strings.TrimSpace(ip)
		if ip == "" {
			continue
		}

		if _, ok := seen[ip]; ok {
			continue
		}
		seen[ip] = struct{}{}
		uniq = append(uniq, ip)
		ph = append(ph, "?")
	}

	if len(uniq) == 0 {
		return map[string]domain.Location{}, nil
	}

	placeholders := strings.Join(ph, ",")
	args := make([]any, 0, len(uniq))
	for _, ip := range uniq {
		args = append(args, ip)
	}

	// SQLite does not support binding slices directly in an IN (...) clause.
	// Only the placeholder structure is interpolated; all values remain parameterized.
	q := fmt.Sprintf(`
	SELECT ip, country_code, country, region, city, zip, lat, lon, time_zone
    FROM location_cache
    WHERE ip IN (%s);
	`, placeholders)

	rows, err := s.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("get location cache: query location_cache table: %w", err)
	}
	defer rows.Close()

	out := make(map[string]domain.Location, len(uniq))
	for rows.Next() {
		var loc domain.Location
		if err := rows.Scan(
			&loc.IP, &loc.CountryCode, &loc.Country, &loc.Region,
			&loc.City, &loc.Zip, &loc.Latitude, &loc.Longitude, &loc.TimeZone,
		); err != nil {
			return nil, fmt.Errorf("get location cache: scan rows: %w", err)
		}
		out[loc.IP] = loc
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get location cache: row iteration: %w", err)
	}

	return out, nil
}

// Store ip -> location mappings in the cache.
func (s *SqliteLocationCache) PutMany(ctx context.Context, results map[string]domain.Location) error {
	if s.DB == nil {
		return errors.New("location cache: db is nil")
	}

	if len(results) == 0 {
		return nil
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("insert location cache: db begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
	INSERT OR REPLACE INTO location_cache (
        ip, country_code, country, region, city, zip, lat, lon, time_zone
    )
    VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?);
	`)
	if err != nil {
		return fmt.Errorf("insert location cache: db prepare: %w", err)
	}
	defer stmt.Close()

	for ip, loc := range results {
		if strings.TrimSpace(ip) == "" {
			return fmt.Errorf("insert location cache: empty ip key")
		}

		if _, err := stmt.ExecContext(
			ctx, ip, loc.CountryCode, loc.Country, loc.Region,
			loc.City, loc.Zip, loc.Latitude, loc.Longitude, loc.TimeZone,
		); err != nil {
			return fmt.Errorf("insert location cache ip=%q: %w", ip, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("insert location cache commit: %w", err)
	}

	return nil
}
