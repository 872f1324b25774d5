package geoip

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"smartip-service/internal/domain"
	"smartip-service/internal/platform/metrics"
	"smartip-service/internal/platform/obs"
	"smartip-service/internal/ports"
)

// HTTPProvider implements GeolocationProvider against an ip-api.com style
// JSON service.
//
// It coordinates:
//   - IP canonicalization
//   - Persistent location caching
//   - Batched external lookups with retry/backoff
//
// The provider is safe for concurrent use.
type HTTPProvider struct {
	session *http.Client
	apiKey  string
	baseURL string
	cache   ports.LocationCache
	metrics *metrics.Metrics
}

func NewHTTPProvider(
	baseURL string,
	apiKey string,
	cache ports.LocationCache,
	m *metrics.Metrics,
) (*HTTPProvider, error) {
	if baseURL == "" {
		return nil, errors.New("geolocation base URL is empty")
	}

	provider := &HTTPProvider{
		session: &http.Client{Timeout: 10 * time.Second},
		apiKey:  apiKey,
		baseURL: baseURL,
		cache:   cache,
		metrics: m,
	}

	return provider, nil
}

// Resolve looks up a single address via the /json/{ip} endpoint,
// consulting the persistent cache first.
func (p *HTTPProvider) Resolve(ctx context.Context, ip string) (_ domain.Location, err error) {
	defer obs.Time(ctx, "geoip.Resolve")(&err)

	canonical, err := domain.CanonicalIP(ip)
	if err != nil {
		return domain.Location{}, fmt.Errorf("resolve ip: %w", err)
	}
	if !domain.Routable(canonical) {
		return domain.Location{}, fmt.Errorf("resolve ip: %q is not a routable address", canonical)
	}

	if p.cache != nil {
		hits, err := p.cache.GetMany(ctx, []string{canonical})
		if err != nil {
			return domain.Location{}, fmt.Errorf("location cache read: %w", err)
		}
		if loc, ok := hits[canonical]; ok {
			if p.metrics != nil {
				p.metrics.AddCacheHits(1)
			}
			return loc, nil
		}
		if p.metrics != nil {
			p.metrics.AddCacheMisses(1)
		}
	}

	loc, err := p.fetchOne(ctx, canonical)
	if err != nil {
		if p.metrics != nil {
			p.metrics.IncProviderErrors()
		}
		return domain.Location{}, fmt.Errorf("resolve ip %q: %w", canonical, err)
	}

	if p.metrics != nil {
		p.metrics.AddLookups("http", 1)
	}

	// Cache write failures degrade performance, not correctness.
	if p.cache != nil {
		if err := p.cache.PutMany(ctx, map[string]domain.Location{canonical: loc}); err != nil {
			log.Printf("location cache write failed: %v", err)
		}
	}

	return loc, nil
}

// Resolve locations for many IP addresses, consulting the persistent cache
// before issuing external API calls.
func (p *HTTPProvider) ResolveMany(
	ctx context.Context,
	ips []string,
) (_ map[string]domain.Location, err error) {
	defer obs.Time(ctx, "geoip.ResolveMany")(&err)

	if len(ips) == 0 {
		return map[string]domain.Location{}, nil
	}

	seen := make(map[string]struct{}, len(ips))
	uniq := make([]string, 0, len(ips))
	for _, ip := range ips {
		canonical, err := domain.CanonicalIP(ip)
		if err != nil {
			return nil, err
		}
		if !domain.Routable(canonical) {
			return nil, fmt.Errorf("resolve many: %q is not a routable address", canonical)
		}

		if _, ok := seen[canonical]; ok {
			continue
		}
		seen[canonical] = struct{}{}
		uniq = append(uniq, canonical)
	}

	hits := make(map[string]domain.Location)
	if p.cache != nil {
		var err error
		hits, err = p.cache.GetMany(ctx, uniq)
		if err != nil {
			return nil, fmt.Errorf("location cache read: %w", err)
		}
	}

	misses := make([]string, 0, len(uniq))
	for _, ip := range uniq {
		if _, ok := hits[ip]; !ok {
			misses = append(misses, ip)
		}
	}

	if p.metrics != nil {
		p.metrics.AddCacheHits(len(hits))
		p.metrics.AddCacheMisses(len(misses))
	}

	if len(misses) == 0 {
		return hits, nil
	}

	fetched, err := p.fetchBatch(ctx, misses)
	if err != nil {
		if p.metrics != nil {
			p.metrics.IncProviderErrors()
		}
		return nil, fmt.Errorf("fetching batch: %w", err)
	}

	if p.metrics != nil {
		p.metrics.AddLookups("http", len(fetched))
	}

	// Cache write failures degrade performance, not correctness.
	if p.cache != nil && len(fetched) > 0 {
		if err := p.cache.PutMany(ctx, fetched); err != nil {
			log.Printf("location cache write failed: %v", err)
		}
	}

	out := make(map[string]domain.Location, len(hits)+len(fetched))
	for k, v := range hits {
		out[k] = v
	}
	for k, v := range fetched {
		out[k] = v
	}

	return out, nil
}
