package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"smartip-service/internal/domain"
)

// SQLite-backed implementation of the VisitRepository port.
type SqliteVisitRepository struct{ DB *sql.DB }

func NewSqliteVisitRepository(db *sql.DB) *SqliteVisitRepository {
	return &SqliteVisitRepository{DB: db}
}

// Record one annotated visit.
func (s *SqliteVisitRepository) SaveVisit(ctx context.Context, v *domain.Visit) error {
	if s.DB == nil {
		return errors.New("sqlite visit repository: DB is nil")
	}
	if v == nil {
		return errors.New("save visit: visit is nil")
	}

	query := `
	INSERT INTO visits (
		visit_id, ip, country_code, country, region, city, zip,
		lat, lon, time_zone, eu_member, gdpr_territory, jurisdiction,
		lat_dms, lon_dms, spoofed, resolved_at
	)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
	`

	_, err := s.DB.ExecContext(ctx, query,
		v.ID,
		v.Location.IP,
		v.Location.CountryCode,
		v.Location.Country,
		v.Location.Region,
		v.Location.City,
		v.Location.Zip,
		v.Location.Latitude,
		v.Location.Longitude,
		v.Location.TimeZone,
		v.EUMember,
		v.GDPRTerritory,
		v.Jurisdiction,
		v.LatitudeDMS,
		v.LongitudeDMS,
		v.Spoofed,
		v.ResolvedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("save visit %q: %w", v.ID, err)
	}

	return nil
}

// Return the most recent visits, newest first.
func (s *SqliteVisitRepository) ListVisits(ctx context.Context, limit int) ([]*domain.Visit, error) {
	if s.DB == nil {
		return nil, errors.New("sqlite visit repository: DB is nil")
	}
	if limit <= 0 {
		limit = 50
	}

	query := `
	SELECT
		visit_id, ip, country_code, country, region, city, zip,
		lat, lon, time_zone, eu_member, gdpr_territory, jurisdiction,
		lat_dms, lon_dms, spoofed, resolved_at
	FROM visits
	ORDER BY resolved_at DESC
	LIMIT ?;
	`
	rows, err := s.DB.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list visits: query visits table: %w", err)
	}
	defer rows.Close()

	visits := make([]*domain.Visit, 0, limit)
	for rows.Next() {
		var v domain.Visit
		err := rows.Scan(
			&v.ID,
			&v.Location.IP,
			&v.Location.CountryCode,
			&v.Location.Country,
			&v.Location.Region,
			&v.Location.City,
			&v.Location.Zip,
			&v.Location.Latitude,
			&v.Location.Longitude,
			&v.Location.TimeZone,
			&v.EUMember,
			&v.GDPRTerritory,
			&v.Jurisdiction,
			&v.LatitudeDMS,
			&v.LongitudeDMS,
			&v.Spoofed,
			&v.ResolvedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("list visits: scan row: %w", err)
		}
		visits = append(visits, &v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list visits: row iteration: %w", err)
	}

	return visits, nil
}
