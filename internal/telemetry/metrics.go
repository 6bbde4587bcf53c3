package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "messagely_http_requests_total",
		Help: "HTTP requests by method, route template and status code.",
	}, []string{"method", "route", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "messagely_http_request_duration_seconds",
		Help:    "HTTP request latency by method and route template.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	MessagesSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "messagely_messages_sent_total",
		Help: "Messages stored.",
	})

	MessagesRead = promauto.NewCounter(prometheus.CounterOpts{
		Name: "messagely_messages_read_total",
		Help: "Mark-read requests accepted from recipients.",
	})
)
