// Package metrics defines the Prometheus collectors exported at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// BeaconsTotal counts tracking beacons by outcome
	// (recorded, invalid, unknown_pixel, inactive_pixel, failed, rate_limited).
	BeaconsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pixeltrack_beacons_total",
			Help: "Tracking beacons received, by outcome",
		},
		[]string{"outcome"},
	)

	// VisitorsResolved counts identity resolutions by kind
	// (new, returning, anonymous, conflict).
	VisitorsResolved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pixeltrack_visitors_resolved_total",
			Help: "Visitor identity resolutions, by kind",
		},
		[]string{"kind"},
	)

	EnrichmentFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pixeltrack_enrichment_failures_total",
			Help: "Enrichment lookups that produced no data, by source",
		},
		[]string{"source"},
	)

	AggregationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pixeltrack_aggregation_duration_seconds",
			Help:    "Aggregation query latency",
			Buckets: []float64{.005, .01, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"query"},
	)

	RollupRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pixeltrack_rollup_runs_total",
			Help: "Daily rollup runs, by status",
		},
		[]string{"status"},
	)

	// GeoIPBreakerState is 0=closed, 1=half-open, 2=open.
	GeoIPBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pixeltrack_geoip_breaker_state",
			Help: "Geolocation circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
	)
)
