package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"net/netip"
	"strings"

	"smartip-service/internal/api/dto"
	"smartip-service/internal/domain"
)

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encode failed: method=%s path=%s err=%v", r.Method, r.URL.Path, err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, map[string]string{"error": msg})
}

// clientIP derives the visitor address from proxy headers, falling back to
// the socket peer. The first public hop in X-Forwarded-For wins.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		for _, part := range strings.Split(fwd, ",") {
			candidate := strings.TrimSpace(part)
			if addr, err := netip.ParseAddr(candidate); err == nil && domain.Routable(addr.String()) {
				return addr.String()
			}
		}
	}

	if real := strings.TrimSpace(r.Header.Get("X-Real-IP")); real != "" {
		if addr, err := netip.ParseAddr(real); err == nil {
			return addr.String()
		}
	}

	host := r.RemoteAddr
	if addrPort, err := netip.ParseAddrPort(host); err == nil {
		return addrPort.Addr().String()
	}
	if addr, err := netip.ParseAddr(host); err == nil {
		return addr.String()
	}
	return host
}

func locationResponse(v *domain.Visit) dto.LocationResponse {
	return dto.LocationResponse{
		IP:           v.Location.IP,
		CountryCode:  v.Location.CountryCode,
		Country:      v.Location.Country,
		Region:       v.Location.Region,
		City:         v.Location.City,
		Zip:          v.Location.Zip,
		Latitude:     v.Location.Latitude,
		Longitude:    v.Location.Longitude,
		LatitudeDMS:  v.LatitudeDMS,
		LongitudeDMS: v.LongitudeDMS,
		TimeZone:     v.Location.TimeZone,
		EUMember:     v.EUMember,
		GDPR:         v.GDPRTerritory,
		Jurisdiction: v.Jurisdiction,
	}
}
