package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"smartip-service/internal/api/handlers"
	"smartip-service/internal/platform/metrics"
	"smartip-service/internal/ports"
)

// Privacy policy knobs applied to visit recording.
type Policy struct {
	EUMemberOnly   bool
	SkipEUVisitors bool
}

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(
	repo ports.VisitRepository,
	provider ports.GeolocationProvider,
	m *metrics.Metrics,
	policy Policy,
) http.Handler {
	mux := http.NewServeMux()

	locationHandler := &handlers.LocationHandler{Provider: provider}
	visitHandler := &handlers.VisitHandler{
		Repo:           repo,
		Provider:       provider,
		Metrics:        m,
		EUMemberOnly:   policy.EUMemberOnly,
		SkipEUVisitors: policy.SkipEUVisitors,
	}

	mux.HandleFunc("/health", handlers.Health)
	mux.HandleFunc("/locations", locationHandler.Lookup)
	mux.HandleFunc("/visits", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			visitHandler.Annotate(w, r)
			return
		}
		visitHandler.List(w, r)
	})
	mux.Handle("/metrics", promhttp.Handler())

	return loggingMiddleware(mux)
}
