package scrape

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the lookup pipeline.
type Metrics struct {
	Registry       *prometheus.Registry
	LookupsTotal   *prometheus.CounterVec
	LookupDuration prometheus.Histogram
	FallbacksTotal prometheus.Counter
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	lookups := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plantdetails_lookups_total",
			Help: "Total species lookups by source and outcome.",
		},
		[]string{"source", "outcome"},
	)
	duration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "plantdetails_lookup_duration_seconds",
			Help:    "Latency of species lookups.",
			Buckets: prometheus.DefBuckets,
		},
	)
	fallbacks := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "plantdetails_fallbacks_total",
			Help: "Total lookups that fell back to the generative provider.",
		},
	)

	registry.MustRegister(lookups, duration, fallbacks)

	return &Metrics{
		Registry:       registry,
		LookupsTotal:   lookups,
		LookupDuration: duration,
		FallbacksTotal: fallbacks,
	}
}

// ObserveLookup records one finished lookup.
func (m *Metrics) ObserveLookup(source, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.LookupsTotal.WithLabelValues(source, outcome).Inc()
	m.LookupDuration.Observe(d.Seconds())
}

// IncFallback increments the fallback counter.
func (m *Metrics) IncFallback() {
	if m == nil {
		return
	}
	m.FallbacksTotal.Inc()
}
