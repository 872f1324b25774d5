package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"smartip-service/internal/domain"
	"smartip-service/internal/platform/metrics"
	"smartip-service/internal/ports"
)

// ip-api caps batch requests at 100 queries.
const batchChunkSize = 100

type AnnotateRequest struct {
	IPs []string
	// DebugIP replaces the caller-derived addresses for spoofed-IP testing.
	DebugIP string
	// EUMemberOnly restricts jurisdiction matching to EU member states,
	// ignoring the broader GDPR territories.
	EUMemberOnly bool
	// SkipEUVisitors suppresses persistence for visitors classified into
	// EU/GDPR jurisdictions; their visits are still returned annotated.
	SkipEUVisitors bool
}

type chunkResult struct {
	locations map[string]domain.Location
	err       error
}

// AnnotateLocation derives the jurisdiction classification and DMS display
// strings for a resolved location. Pure except for the generated visit ID
// and timestamp.
func AnnotateLocation(loc domain.Location, spoofed bool) (*domain.Visit, error) {
	latDMS, err := domain.FormatDMS(loc.Latitude, domain.AxisLatitude)
	if err != nil {
		return nil, fmt.Errorf("annotate location %q: latitude: %w", loc.IP, err)
	}

	lonDMS, err := domain.FormatDMS(loc.Longitude, domain.AxisLongitude)
	if err != nil {
		return nil, fmt.Errorf("annotate location %q: longitude: %w", loc.IP, err)
	}

	jurisdiction, inScope := domain.Classify(loc.CountryCode, false)
	euMember := domain.IsEUMember(loc.CountryCode)

	return &domain.Visit{
		ID:            uuid.NewString(),
		Location:      loc,
		EUMember:      euMember,
		GDPRTerritory: inScope && !euMember,
		Jurisdiction:  jurisdiction,
		LatitudeDMS:   latDMS,
		LongitudeDMS:  lonDMS,
		Spoofed:       spoofed,
		ResolvedAt:    time.Now().UTC(),
	}, nil
}

// AnnotateVisits resolves, classifies and records visits for a set of IPs.
// Resolution is chunked and fanned out against batch-capable providers;
// persistence honors the EU opt-out policy.
func AnnotateVisits(
	ctx context.Context,
	req AnnotateRequest,
	repo ports.VisitRepository,
	provider ports.GeolocationProvider,
	m *metrics.Metrics,
) ([]*domain.Visit, error) {
	ips := req.IPs
	spoofed := false
	if req.DebugIP != "" {
		ips = []string{req.DebugIP}
		spoofed = true
	}

	seen := make(map[string]struct{}, len(ips))
	uniq := make([]string, 0, len(ips))
	for _, raw := range ips {
		canonical, err := domain.CanonicalIP(raw)
		if err != nil {
			return nil, fmt.Errorf("annotate visits: %w", err)
		}
		if !domain.Routable(canonical) {
			return nil, fmt.Errorf("annotate visits: %q is not a routable address", canonical)
		}

		if _, ok := seen[canonical]; ok {
			continue
		}
		seen[canonical] = struct{}{}
		uniq = append(uniq, canonical)
	}

	if len(uniq) == 0 {
		return []*domain.Visit{}, nil
	}

	locations, err := resolveAll(ctx, uniq, provider)
	if err != nil {
		return nil, fmt.Errorf("annotate visits: %w", err)
	}

	visits := make([]*domain.Visit, 0, len(uniq))
	for _, ip := range uniq {
		loc, ok := locations[ip]
		if !ok {
			return nil, fmt.Errorf("annotate visits: missing location for %q", ip)
		}

		visit, err := AnnotateLocation(loc, spoofed)
		if err != nil {
			return nil, fmt.Errorf("annotate visits: %w", err)
		}

		// EU opt-out: classified visitors are annotated but never stored.
		if req.SkipEUVisitors && inJurisdiction(visit, req.EUMemberOnly) {
			if m != nil {
				m.IncVisitsSkipped()
			}
			visits = append(visits, visit)
			continue
		}

		if repo != nil {
			if err := repo.SaveVisit(ctx, visit); err != nil {
				return nil, fmt.Errorf("annotate visits: save visit for %q: %w", ip, err)
			}
			if m != nil {
				m.IncVisitsSaved()
			}
		}

		visits = append(visits, visit)
	}

	return visits, nil
}

func inJurisdiction(v *domain.Visit, euMemberOnly bool) bool {
	if euMemberOnly {
		return v.EUMember
	}
	return v.EUMember || v.GDPRTerritory
}

// resolveAll fetches locations for all IPs, fanning chunked batch lookups
// out across a bounded number of goroutines.
func resolveAll(
	ctx context.Context,
	ips []string,
	provider ports.GeolocationProvider,
) (map[string]domain.Location, error) {
	bp, hasBatch := provider.(ports.GeolocationBatchProvider)

	if !hasBatch {
		out := make(map[string]domain.Location, len(ips))
		for _, ip := range ips {
			loc, err := provider.Resolve(ctx, ip)
			if err != nil {
				return nil, fmt.Errorf("resolve %q: %w", ip, err)
			}
			out[ip] = loc
		}
		return out, nil
	}

	chunks := make([][]string, 0, (len(ips)+batchChunkSize-1)/batchChunkSize)
	for start := 0; start < len(ips); start += batchChunkSize {
		end := start + batchChunkSize
		if end > len(ips) {
			end = len(ips)
		}
		chunks = append(chunks, ips[start:end])
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sem := make(chan struct{}, 5)
	resultsCh := make(chan chunkResult, len(chunks))
	var wg sync.WaitGroup

	for _, chunk := range chunks {
		wg.Add(1)
		go func(chunk []string) {
			sem <- struct{}{}
			defer wg.Done()
			defer func() { <-sem }()

			res, err := bp.ResolveMany(ctx, chunk)
			if err != nil {
				resultsCh <- chunkResult{err: fmt.Errorf("resolve chunk of %d: %w", len(chunk), err)}
				cancel()
				return
			}

			resultsCh <- chunkResult{locations: res}
		}(chunk)
	}

	wg.Wait()
	close(resultsCh)

	out := make(map[string]domain.Location, len(ips))
	var chunkErr error
	for res := range resultsCh {
		if res.err != nil {
			if chunkErr == nil {
				chunkErr = res.err
			}
			continue
		}
		for ip, loc := range res.locations {
			out[ip] = loc
		}
	}
	if chunkErr != nil {
		return nil, chunkErr
	}

	return out, nil
}
