package geoip

import (
	"context"
	"fmt"

	"smartip-service/internal/domain"
)

type MockProvider struct {
	m map[string]domain.Location
}

func NewMockProvider(locations []domain.Location) *MockProvider {
	m := make(map[string]domain.Location, len(locations))
	for _, loc := range locations {
		m[loc.IP] = loc
	}
	return &MockProvider{m: m}
}

func (p *MockProvider) Resolve(ctx context.Context, ip string) (domain.Location, error) {
	loc, ok := p.m[ip]
	if !ok {
		return domain.Location{}, fmt.Errorf("missing location for %q", ip)
	}

	return loc, nil
}

func (p *MockProvider) ResolveMany(ctx context.Context, ips []string) (map[string]domain.Location, error) {
	out := make(map[string]domain.Location, len(ips))
	for _, ip := range ips {
		loc, err := p.Resolve(ctx, ip)
		if err != nil {
			return nil, err
		}
		out[ip] = loc
	}

	return out, nil
}
