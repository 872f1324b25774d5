package ports

import (
	"context"
	"smartip-service/internal/domain"
)

// Contract for resolving an IP address to geolocation data.
type GeolocationProvider interface {
	// Return the location resolved for a single IP address.
	Resolve(ctx context.Context, ip string) (domain.Location, error)
}
