package geoip

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/oschwald/maxminddb-golang"

	"smartip-service/internal/domain"
)

// City-format record layout for MaxMind GeoIP2/GeoLite2 databases.
type mmdbRecord struct {
	City struct {
		Names map[string]string `maxminddb:"names"`
	} `maxminddb:"city"`

	Country struct {
		ISOCode string            `maxminddb:"iso_code"`
		Names   map[string]string `maxminddb:"names"`
	} `maxminddb:"country"`

	Subdivisions []struct {
		ISOCode string            `maxminddb:"iso_code"`
		Names   map[string]string `maxminddb:"names"`
	} `maxminddb:"subdivisions"`

	Location struct {
		Latitude  float64 `maxminddb:"latitude"`
		Longitude float64 `maxminddb:"longitude"`
		TimeZone  string  `maxminddb:"time_zone"`
	} `maxminddb:"location"`

	Postal struct {
		Code string `maxminddb:"code"`
	} `maxminddb:"postal"`
}

// MMDBProvider resolves locations from a local MaxMind database file.
// The reader is hot-swappable so a refresher can reload a newly
// downloaded database without restarting the service.
type MMDBProvider struct {
	mu     sync.RWMutex
	reader *maxminddb.Reader
	path   string
}

func NewMMDBProvider(path string) (*MMDBProvider, error) {
	reader, err := maxminddb.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open mmdb %q: %w", path, err)
	}

	return &MMDBProvider{reader: reader, path: path}, nil
}

func (p *MMDBProvider) Resolve(ctx context.Context, ip string) (domain.Location, error) {
	canonical, err := domain.CanonicalIP(ip)
	if err != nil {
		return domain.Location{}, fmt.Errorf("mmdb resolve: %w", err)
	}
	if !domain.Routable(canonical) {
		return domain.Location{}, fmt.Errorf("mmdb resolve: %q is not a routable address", canonical)
	}

	parsed := net.ParseIP(canonical)
	if parsed == nil {
		return domain.Location{}, fmt.Errorf("mmdb resolve: invalid address %q", canonical)
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.reader == nil {
		return domain.Location{}, errors.New("mmdb resolve: database is closed")
	}

	var rec mmdbRecord
	if err := p.reader.Lookup(parsed, &rec); err != nil {
		return domain.Location{}, fmt.Errorf("mmdb lookup %q: %w", canonical, err)
	}

	if rec.Country.ISOCode == "" {
		return domain.Location{}, fmt.Errorf("no location result for %q", canonical)
	}

	region := ""
	if len(rec.Subdivisions) > 0 {
		region = rec.Subdivisions[0].Names["en"]
	}

	return domain.Location{
		IP:          canonical,
		CountryCode: rec.Country.ISOCode,
		Country:     rec.Country.Names["en"],
		Region:      region,
		City:        rec.City.Names["en"],
		Zip:         rec.Postal.Code,
		Latitude:    rec.Location.Latitude,
		Longitude:   rec.Location.Longitude,
		TimeZone:    rec.Location.TimeZone,
	}, nil
}

// Reload swaps in a freshly downloaded database file.
func (p *MMDBProvider) Reload() error {
	reader, err := maxminddb.Open(p.path)
	if err != nil {
		return fmt.Errorf("reload mmdb %q: %w", p.path, err)
	}

	p.mu.Lock()
	old := p.reader
	p.reader = reader
	p.mu.Unlock()

	if old != nil {
		_ = old.Close()
	}

	return nil
}

func (p *MMDBProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.reader == nil {
		return nil
	}

	err := p.reader.Close()
	p.reader = nil
	return err
}
