package handlers

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strconv"

	"smartip-service/internal/api/dto"
	"smartip-service/internal/platform/metrics"
	"smartip-service/internal/ports"
	"smartip-service/internal/services"
)

type VisitHandler struct {
	Repo     ports.VisitRepository
	Provider ports.GeolocationProvider
	Metrics  *metrics.Metrics

	// EUMemberOnly / SkipEUVisitors mirror the deployment's privacy policy.
	EUMemberOnly   bool
	SkipEUVisitors bool
}

// Annotate resolves, classifies and records visits for the request's IPs.
// An empty IP list annotates the caller's own address.
func (h *VisitHandler) Annotate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req dto.AnnotateRequest

	dec := json.NewDecoder(r.Body)
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil && err != io.EOF {
		writeError(w, r, http.StatusBadRequest, "invalid json body")
		return
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		writeError(w, r, http.StatusBadRequest, "body must contain only one JSON object")
		return
	}

	if len(req.IPs) > 1000 {
		writeError(w, r, http.StatusBadRequest, "at most 1000 ips per request")
		return
	}

	ips := req.IPs
	if len(ips) == 0 && req.DebugIP == "" {
		ips = []string{clientIP(r)}
	}

	svcReq := services.AnnotateRequest{
		IPs:            ips,
		DebugIP:        req.DebugIP,
		EUMemberOnly:   h.EUMemberOnly,
		SkipEUVisitors: h.SkipEUVisitors,
	}

	visits, err := services.AnnotateVisits(r.Context(), svcReq, h.Repo, h.Provider, h.Metrics)
	if err != nil {
		log.Printf("annotate visits failed: %v", err)
		writeError(w, r, http.StatusBadRequest, "could not annotate visits")
		return
	}

	res := dto.ListVisitsResponse{Visits: make([]dto.VisitResponse, 0, len(visits))}
	for _, v := range visits {
		res.Visits = append(res.Visits, dto.VisitResponse{
			VisitID:    v.ID,
			Location:   locationResponse(v),
			Spoofed:    v.Spoofed,
			ResolvedAt: v.ResolvedAt,
		})
	}

	writeJSON(w, r, http.StatusOK, res)
}

// List returns the most recent recorded visits.
func (h *VisitHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 1000 {
			writeError(w, r, http.StatusBadRequest, "limit must be between 1 and 1000")
			return
		}
		limit = parsed
	}

	visits, err := h.Repo.ListVisits(r.Context(), limit)
	if err != nil {
		log.Printf("list visits failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	res := dto.ListVisitsResponse{Visits: make([]dto.VisitResponse, 0, len(visits))}
	for _, v := range visits {
		res.Visits = append(res.Visits, dto.VisitResponse{
			VisitID:    v.ID,
			Location:   locationResponse(v),
			Spoofed:    v.Spoofed,
			ResolvedAt: v.ResolvedAt,
		})
	}

	writeJSON(w, r, http.StatusOK, res)
}
