package ports

import (
	"context"
	"smartip-service/internal/domain"
)

// Optional extension of GeolocationProvider that supports batched lookups.
type GeolocationBatchProvider interface {
	GeolocationProvider
	// Resolve many IP addresses in one round trip; the result map is keyed
	// by canonical IP.
	ResolveMany(ctx context.Context, ips []string) (map[string]domain.Location, error)
}
