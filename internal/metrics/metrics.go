// Package metrics holds the Prometheus collectors of the development backend.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gophchat_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gophchat_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.005, .01, .05, .1, .5, 1, 5, 15, 60},
		},
		[]string{"method", "path"},
	)

	// Business metrics
	SessionsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gophchat_sessions_created_total",
			Help: "Total chat sessions created",
		},
	)

	MessagesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gophchat_messages_sent_total",
			Help: "Total user messages answered",
		},
		[]string{"rag"}, // "true" or "false"
	)

	ChunksIngested = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gophchat_chunks_ingested_total",
			Help: "Total document chunks stored",
		},
	)

	LoginFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gophchat_login_failures_total",
			Help: "Total rejected logins",
		},
	)
)
