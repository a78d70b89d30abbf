package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	StoreDispatchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "store_dispatch_total",
		Help: "Total number of reducer dispatches",
	}, []string{"action", "kind", "result"})

	StoreEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "store_events_total",
		Help: "Total number of store events emitted to listeners",
	}, []string{"type", "entity"})

	SyncRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sync_runs_total",
		Help: "Total number of synchronization runs by outcome",
	}, []string{"status"})

	SyncEntityFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sync_entity_failures_total",
		Help: "Total number of failed per-entity synchronizations",
	}, []string{"kind"})

	SyncLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "sync_latency_seconds",
		Help:    "Latency of full synchronization runs",
		Buckets: prometheus.DefBuckets,
	})

	RemoteRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "remote_request_duration_seconds",
		Help:    "Latency of remote admin API requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "status"})

	RemoteFallbacksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "remote_fallbacks_total",
		Help: "Total number of remote operations that fell back to a local mutation",
	}, []string{"kind", "operation"})

	UnauthorizedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "remote_unauthorized_total",
		Help: "Total number of remote requests rejected with 401",
	})

	OnlineStatus = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "remote_online",
		Help: "Whether the remote admin API is currently reachable (1) or not (0)",
	})

	EventsPublishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "store_events_published_total",
		Help: "Total number of store events forwarded to the broker",
	}, []string{"result"})

	ActivityLogsRecordedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "activity_logs_recorded_total",
		Help: "Total number of activity log entries recorded",
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
