package geoip

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"smartip-service/internal/domain"
)

type batchEntry struct {
	Status      string  `json:"status"`
	Message     string  `json:"message"`
	Country     string  `json:"country"`
	CountryCode string  `json:"countryCode"`
	Region      string  `json:"region"`
	RegionName  string  `json:"regionName"`
	City        string  `json:"city"`
	Zip         string  `json:"zip"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	Timezone    string  `json:"timezone"`
	Query       string  `json:"query"`
}

// location maps a successful API entry onto the domain model. The entry's
// Query field is ignored in favor of the canonical address we asked for.
func (e batchEntry) location(ip string) domain.Location {
	region := e.RegionName
	if region == "" {
		region = e.Region
	}

	return domain.Location{
		IP:          ip,
		CountryCode: e.CountryCode,
		Country:     e.Country,
		Region:      region,
		City:        e.City,
		Zip:         e.Zip,
		Latitude:    e.Lat,
		Longitude:   e.Lon,
		TimeZone:    e.Timezone,
	}
}

// fetchOne resolves a single IP using the /json/{ip} endpoint.
func (p *HTTPProvider) fetchOne(ctx context.Context, ip string) (domain.Location, error) {
	endpoint := p.baseURL + "/json/" + ip

	resp, err := p.doWithRetry(ctx, func() (*http.Request, error) {
		return p.newRequest(ctx, http.MethodGet, endpoint, nil)
	})
	if err != nil {
		return domain.Location{}, fmt.Errorf("lookup request failed: %w", err)
	}
	defer resp.Body.Close()

	var e batchEntry
	if err := json.NewDecoder(resp.Body).Decode(&e); err != nil {
		return domain.Location{}, fmt.Errorf("decode lookup response: %w", err)
	}

	if e.Status != "success" {
		return domain.Location{}, fmt.Errorf("lookup failed for %q: %s", ip, e.Message)
	}

	return e.location(ip), nil
}

// fetchBatch resolves many IPs in one round trip using the /batch endpoint.
// Entries come back in request order with a per-entry status.
func (p *HTTPProvider) fetchBatch(
	ctx context.Context,
	ips []string,
) (map[string]domain.Location, error) {
	if len(ips) == 0 {
		return map[string]domain.Location{}, nil
	}

	endpoint := p.baseURL + "/batch"

	payload, err := json.Marshal(ips)
	if err != nil {
		return nil, fmt.Errorf("marshal batch request: %w", err)
	}

	resp, err := p.doWithRetry(ctx, func() (*http.Request, error) {
		body := bytes.NewReader(payload)
		return p.newRequest(ctx, http.MethodPost, endpoint, body)
	})
	if err != nil {
		return nil, fmt.Errorf("batch request failed: %w", err)
	}
	defer resp.Body.Close()

	var entries []batchEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode batch response: %w", err)
	}

	if len(entries) != len(ips) {
		return nil, fmt.Errorf(
			"batch length does not match request: entries=%d ips=%d",
			len(entries), len(ips),
		)
	}

	out := make(map[string]domain.Location, len(entries))
	for i, e := range entries {
		ip := ips[i]

		if e.Status != "success" {
			return nil, fmt.Errorf("lookup failed for %q: %s", ip, e.Message)
		}

		out[ip] = e.location(ip)
	}

	missing := make([]string, 0)
	for _, ip := range ips {
		if _, ok := out[ip]; !ok {
			missing = append(missing, ip)
		}
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf(
			"geolocation service did not return the following addresses: %s",
			strings.Join(missing, ", "),
		)
	}

	return out, nil
}
