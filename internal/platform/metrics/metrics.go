package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	LookupsTotal   *prometheus.CounterVec
	CacheHits      prometheus.Counter
	CacheMisses    prometheus.Counter
	ProviderErrors prometheus.Counter
	VisitsSaved    prometheus.Counter
	VisitsSkipped  prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		LookupsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "smartip_lookups_total",
			Help: "Total number of IP geolocation lookups resolved, by source",
		}, []string{"source"}),
		CacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "smartip_location_cache_hits_total",
			Help: "Total number of location cache hits",
		}),
		CacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "smartip_location_cache_misses_total",
			Help: "Total number of location cache misses",
		}),
		ProviderErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "smartip_provider_errors_total",
			Help: "Total number of failed geolocation provider calls",
		}),
		VisitsSaved: promauto.NewCounter(prometheus.CounterOpts{
			Name: "smartip_visits_saved_total",
			Help: "Total number of annotated visits persisted",
		}),
		VisitsSkipped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "smartip_visits_skipped_total",
			Help: "Total number of visits not persisted due to the EU opt-out policy",
		}),
	}
}

func (m *Metrics) AddLookups(source string, n int) {
	m.LookupsTotal.WithLabelValues(source).Add(float64(n))
}

func (m *Metrics) AddCacheHits(n int) {
	m.CacheHits.Add(float64(n))
}

func (m *Metrics) AddCacheMisses(n int) {
	m.CacheMisses.Add(float64(n))
}

func (m *Metrics) IncProviderErrors() {
	m.ProviderErrors.Inc()
}

func (m *Metrics) IncVisitsSaved() {
	m.VisitsSaved.Inc()
}

func (m *Metrics) IncVisitsSkipped() {
	m.VisitsSkipped.Inc()
}
