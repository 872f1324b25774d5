package handlers

import (
	"log"
	"net/http"
	"strings"

	"smartip-service/internal/domain"
	"smartip-service/internal/ports"
	"smartip-service/internal/services"
)

// LocationHandler exposes read-only, non-persisting lookup endpoints.
type LocationHandler struct {
	Provider ports.GeolocationProvider
}

// Lookup resolves and annotates a single address without recording a
// visit. With no ?ip= parameter the caller's own address is used.
func (h *LocationHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	spoofed := true
	ip := strings.TrimSpace(r.URL.Query().Get("ip"))
	if ip == "" {
		ip = clientIP(r)
		spoofed = false
	}

	canonical, err := domain.CanonicalIP(ip)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid ip address")
		return
	}
	if !domain.Routable(canonical) {
		writeError(w, r, http.StatusUnprocessableEntity, "address is not routable")
		return
	}

	loc, err := h.Provider.Resolve(r.Context(), canonical)
	if err != nil {
		log.Printf("lookup failed ip=%s: %v", canonical, err)
		writeError(w, r, http.StatusBadGateway, "geolocation lookup failed")
		return
	}

	visit, err := services.AnnotateLocation(loc, spoofed)
	if err != nil {
		log.Printf("annotate failed ip=%s: %v", canonical, err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, r, http.StatusOK, locationResponse(visit))
}
