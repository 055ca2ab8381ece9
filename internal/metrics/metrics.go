// Package metrics defines the Prometheus collectors exported at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "railway_commuter"

var (
	// HTTPRequests counts finished requests by method, route pattern and status.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by method, route and status code.",
	}, []string{"method", "route", "status"})

	// HTTPDuration observes request latency by method and route pattern.
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by method and route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	// OpenStreams is the number of live SSE streams by kind.
	OpenStreams = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "open_streams",
		Help:      "Live server-sent event streams.",
	}, []string{"kind"})

	// ChatFallbacks counts chat subscriptions that switched to unordered reads.
	ChatFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "chat_unordered_fallbacks_total",
		Help:      "Chat reads that fell back to client-side sorting because the message index is missing.",
	})

	// RemindersDispatched counts reminders by delivery outcome.
	RemindersDispatched = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reminders_dispatched_total",
		Help:      "Journey reminders processed by the dispatcher, by outcome.",
	}, []string{"outcome"})
)
