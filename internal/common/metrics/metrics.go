// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// List fetch outcomes.
const (
	FetchApplied = "applied"
	FetchStale   = "stale"
	FetchError   = "error"
)

var (
	APIRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "console_api_requests_total",
			Help: "Total number of backend API requests",
		},
		[]string{"method", "endpoint", "code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "console_api_request_duration_seconds",
			Help:    "Duration of backend API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	APIRequestsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "console_api_requests_active",
			Help: "Number of backend API requests in flight",
		},
	)

	SessionTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "console_session_transitions_total",
			Help: "Session operations by kind (login, logout, register) and final status",
		},
		[]string{"operation", "status"},
	)

	ListFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "console_list_fetches_total",
			Help: "List page fetches by entity and outcome (applied, stale, error)",
		},
		[]string{"entity", "outcome"},
	)

	Exports = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "console_exports_total",
			Help: "Exports by format and outcome",
		},
		[]string{"format", "outcome"},
	)

	ExportRows = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "console_export_rows",
			Help:    "Rows written per successful export",
			Buckets: prometheus.ExponentialBuckets(10, 4, 8),
		},
		[]string{"format"},
	)
)
