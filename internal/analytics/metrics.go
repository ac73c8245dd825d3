package analytics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics instruments dashboard builds and cache lookups. A nil *Metrics is a
// valid no-op.
type Metrics struct {
	builds       *prometheus.CounterVec
	buildSeconds *prometheus.HistogramVec
	cacheLookups *prometheus.CounterVec
}

// NewMetrics registers the analytics collectors on registerer.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		builds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fretehub_dashboard_builds_total",
			Help: "Dashboard bundles computed from the store, by kind and result.",
		}, []string{"kind", "result"}),
		buildSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fretehub_dashboard_build_duration_seconds",
			Help:    "Time spent loading and aggregating a dashboard bundle.",
			Buckets: prometheus.DefBuckets,
		}, []string{"kind"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fretehub_dashboard_cache_lookups_total",
			Help: "Dashboard cache lookups by result.",
		}, []string{"result"}),
	}
	registerer.MustRegister(m.builds, m.buildSeconds, m.cacheLookups)
	return m
}

func (m *Metrics) cacheResult(result string) {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

func (m *Metrics) observeBuild(kind string, start time.Time, err error) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.builds.WithLabelValues(kind, result).Inc()
	m.buildSeconds.WithLabelValues(kind).Observe(time.Since(start).Seconds())
}
