package ports

import (
	"context"
	"smartip-service/internal/domain"
)

// Port: a persistent ip -> location cache sitting in front of a
// geolocation provider. Absence of a key is not an error.
type LocationCache interface {
	// Fetch cached locations for the given IPs; misses are simply omitted.
	GetMany(ctx context.Context, ips []string) (map[string]domain.Location, error)
	// Store resolved locations keyed by canonical IP.
	PutMany(ctx context.Context, results map[string]domain.Location) error
}
