package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SponsorSelections counts Selector outcomes: sponsored, none or degraded.
	SponsorSelections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "raincheck_sponsor_selections_total",
			Help: "Sponsored message selections by outcome",
		},
		[]string{"outcome"},
	)

	// StoreWrites counts writes by collection and where they landed.
	StoreWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "raincheck_store_writes_total",
			Help: "Persistence writes by collection and origin (remote or local)",
		},
		[]string{"kind", "origin"},
	)

	// OutboxReplays counts replayed local-only writes by result.
	OutboxReplays = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "raincheck_outbox_replays_total",
			Help: "Local-only writes replayed to the remote store",
		},
		[]string{"result"},
	)

	// HTTPRequests counts HTTP requests partitioned by method, route and status code.
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests processed",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPDuration records request latencies in seconds.
	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)
