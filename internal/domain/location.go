package domain

import (
	"fmt"
	"net/netip"
	"time"
)

// Geolocation data resolved for a single IP address.
// Produced by a geolocation provider and treated as immutable afterwards.
type Location struct {
	IP          string
	CountryCode string
	Country     string
	Region      string
	City        string
	Zip         string
	Latitude    float64
	Longitude   float64
	TimeZone    string
}

// A Visit is one annotated visitor lookup: the resolved location plus the
// jurisdiction classification and display-ready DMS coordinate strings.
// Persistence timestamps are populated when the visit is recorded.
type Visit struct {
	ID            string
	Location      Location
	EUMember      bool
	GDPRTerritory bool
	Jurisdiction  string
	LatitudeDMS   string
	LongitudeDMS  string
	Spoofed       bool
	ResolvedAt    time.Time
}

// CanonicalIP parses and canonicalizes an IP address string so cache keys
// stay consistent (e.g. IPv6 zero-compression, lowercase hex).
func CanonicalIP(raw string) (string, error) {
	addr, err := netip.ParseAddr(raw)
	if err != nil {
		return "", fmt.Errorf("canonical ip: parse %q: %w", raw, err)
	}
	return addr.String(), nil
}

// Routable reports whether an address is worth sending to a geolocation
// provider. Loopback, private, link-local and unspecified addresses have
// no public location.
func Routable(ip string) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}

	if addr.IsLoopback() || addr.IsPrivate() || addr.IsUnspecified() {
		return false
	}
	if addr.IsLinkLocalUnicast() || addr.IsLinkLocalMulticast() {
		return false
	}

	return true
}
