package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "makeroom_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "makeroom_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	// Room lifecycle metrics
	RoomsProvisioned = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "makeroom_rooms_provisioned_total",
			Help: "Trigger channel entries by outcome",
		},
		[]string{"outcome"}, // "created", "reused" or "failed"
	)

	RoomsReclaimed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "makeroom_rooms_reclaimed_total",
			Help: "Empty personal rooms deleted",
		},
	)

	VisibilityToggles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "makeroom_visibility_toggles_total",
			Help: "Visibility toggle invocations by result",
		},
		[]string{"result"},
	)

	Bootstraps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "makeroom_category_bootstraps_total",
			Help: "Managed category operations by result",
		},
		[]string{"result"},
	)

	// Gateway metrics
	PlatformErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "makeroom_platform_errors_total",
			Help: "Failed platform calls",
		},
		[]string{"op", "kind"},
	)

	EventDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "makeroom_event_duration_seconds",
			Help:    "Time spent handling one gateway event",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"event"},
	)

	HandlerPanics = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "makeroom_handler_panics_total",
			Help: "Panics recovered at the event handler boundary",
		},
		[]string{"event"},
	)

	GatewayConnected = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "makeroom_gateway_connected",
			Help: "1 while the gateway session is connected",
		},
	)

	// Infrastructure metrics
	RedisLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "makeroom_redis_latency_seconds",
			Help:    "Redis operation latency",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05},
		},
	)

	AuditLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "makeroom_audit_latency_seconds",
			Help:    "Audit log write and query latency",
			Buckets: []float64{.001, .005, .01, .025, .05, .1},
		},
		[]string{"backend"},
	)
)
