// Package metrics defines the Prometheus collectors exported by the cohort
// engine at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	// RequestsClassified counts pipeline runs that produced a cohort, by
	// geo bucket and intent.
	RequestsClassified = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cohort_requests_classified_total",
			Help: "Total requests classified into a cohort",
		},
		[]string{"geo", "intent"},
	)

	// RequestsBypassed counts requests the gate short-circuited, by reason.
	RequestsBypassed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cohort_requests_bypassed_total",
			Help: "Total requests that bypassed classification",
		},
		[]string{"reason"},
	)

	// VariantAssignments counts first-contact variant draws, by variant.
	VariantAssignments = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cohort_variant_assignments_total",
			Help: "Total fresh A/B variant assignments",
		},
		[]string{"variant"},
	)

	// GeoLookupFailures counts geo provider errors and timeouts.
	GeoLookupFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cohort_geo_lookup_failures_total",
			Help: "Total geo lookups that fell back to the default location",
		},
		[]string{"cause"},
	)

	// PipelineDuration observes end-to-end pipeline latency.
	PipelineDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cohort_pipeline_duration_seconds",
			Help:    "Cohort pipeline execution time",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
		},
	)

	// TelemetryFlushes counts telemetry buffer flushes, by outcome.
	TelemetryFlushes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cohort_telemetry_flushes_total",
			Help: "Total telemetry buffer flushes",
		},
		[]string{"outcome"},
	)
)

// NewRegistry builds a registry with runtime collectors plus the engine's
// custom metrics registered.
func NewRegistry() *prometheus.Registry {
	registry := prometheus.NewRegistry()

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	registry.MustRegister(
		RequestsClassified,
		RequestsBypassed,
		VariantAssignments,
		GeoLookupFailures,
		PipelineDuration,
		TelemetryFlushes,
	)

	return registry
}
