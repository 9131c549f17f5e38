// Package metrics defines the Prometheus instrumentation shared across the
// workbench. Metrics are registered globally via promauto and exposed by
// the API server at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EventsIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "workbench_events_ingested_total",
			Help: "Total number of events ingested",
		},
		[]string{"source"},
	)

	AlertsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "workbench_alerts_created_total",
			Help: "Total number of alerts created by detection runs",
		},
		[]string{"severity"},
	)

	DetectionRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "workbench_detection_runs_total",
			Help: "Total number of detection runs by outcome",
		},
		[]string{"outcome"},
	)

	DetectionRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "workbench_detection_run_duration_seconds",
			Help:    "Time taken by completed detection runs",
			Buckets: prometheus.DefBuckets,
		},
	)

	PacketsAssembled = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "workbench_incident_packets_assembled_total",
			Help: "Total number of incident packets assembled",
		},
	)
)
