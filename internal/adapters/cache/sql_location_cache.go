package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"smartip-service/internal/domain"
	"smartip-service/internal/platform/obs"
)

// SQLLocationCache is a Postgres-backed cache mapping IP addresses to
// resolved locations.
type SQLLocationCache struct {
	DB *sql.DB
}

func NewSQLLocationCache(db *sql.DB) *SQLLocationCache {
	return &SQLLocationCache{DB: db}
}

// Fetch cached locations for the given IPs.
func (s *SQLLocationCache) GetMany(
	ctx context.Context,
	ips []string,
) (_ map[string]domain.Location, err error) {
	defer obs.Time(ctx, "location.cache.GetMany")(&err)

	if s.DB == nil {
		return nil, errors.New("location cache: db is nil")
	}

	if len(ips) == 0 {
		return map[string]domain.Location{}, nil
	}

	seen := map[string]struct{}{}
	uniq := make([]string, 0, len(ips))
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
	}

	if len(uniq) == 0 {
		return map[string]domain.Location{}, nil
	}

	q := `
	SELECT ip, country_code, country, region, city, zip, lat, lon, time_zone
    FROM location_cache
    WHERE ip = ANY($1::text[]);
	`

	rows, err := s.DB.QueryContext(ctx, q, uniq)
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
func (s *SQLLocationCache) PutMany(ctx context.Context, results map[string]domain.Location) error {
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
	INSERT INTO location_cache (ip, country_code, country, region, city, zip, lat, lon, time_zone)
    VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	ON CONFLICT (ip) DO UPDATE
	SET country_code = EXCLUDED.country_code,
		country = EXCLUDED.country,
		region = EXCLUDED.region,
		city = EXCLUDED.city,
		zip = EXCLUDED.zip,
		lat = EXCLUDED.lat,
		lon = EXCLUDED.lon,
		time_zone = EXCLUDED.time_zone;
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
