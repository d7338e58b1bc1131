package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	NoticesEnqueued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "noticed_notices_enqueued_total",
		Help: "Total number of notices placed on the relay queue.",
	})

	NoticesProjected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "noticed_notices_projected_total",
		Help: "Total number of notices projected.",
	})

	NoticesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "noticed_notices_dropped_total",
		Help: "Total number of notices rejected due to a full queue.",
	})

	ProjectionErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "noticed_projection_errors_total",
		Help: "Total number of projections that failed to resolve or encode.",
	})

	FieldsReduced = promauto.NewCounter(prometheus.CounterOpts{
		Name: "noticed_fields_reduced_total",
		Help: "Total number of empty fields dropped by reduction.",
	})

	Deliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "noticed_deliveries_total",
		Help: "Total number of sink deliveries, labelled by sink and status.",
	}, []string{"sink", "status"})

	ProjectionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "noticed_projection_duration_ms",
		Help:    "Projection latency in milliseconds, queue wait included.",
		Buckets: []float64{0.1, 0.5, 1, 5, 10, 25, 50, 100, 250, 1000},
	})

	QueueUtilization = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "noticed_queue_utilization_ratio",
		Help: "Current relay queue utilization (0–1).",
	})
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "noticed_http_requests_total",
		Help: "Total number of HTTP requests, labelled by route, method and status.",
	}, []string{"route", "method", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "noticed_http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method"})
)
