package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "registry_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "registry_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	// Business metrics
	AgentsPublished = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "registry_agents_published_total",
			Help: "Total agent card versions published",
		},
	)

	PeerSyncs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "registry_peer_syncs_total",
			Help: "Total peer synchronization runs",
		},
		[]string{"status"}, // "success" or "failed"
	)

	SearchFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "registry_search_fallbacks_total",
			Help: "Search requests served from the store because the index errored",
		},
	)
)
