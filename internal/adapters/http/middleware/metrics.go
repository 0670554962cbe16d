package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// httpRequestsTotal counts total HTTP requests
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "coinvault",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// httpRequestDuration measures request latency
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "coinvault",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	// httpRequestsInFlight tracks concurrent requests
	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "coinvault",
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "Number of HTTP requests currently being processed",
		},
	)

	// httpResponseSize measures response body size
	httpResponseSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "coinvault",
			Subsystem: "http",
			Name:      "response_size_bytes",
			Help:      "HTTP response size in bytes",
			Buckets:   prometheus.ExponentialBuckets(100, 10, 8), // 100B to 10GB
		},
		[]string{"method", "path"},
	)
)

// Business metrics
var (
	// TransfersTotal counts transfers by flow and outcome
	TransfersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "coinvault",
			Subsystem: "business",
			Name:      "transfers_total",
			Help:      "Total number of wallet transfers",
		},
		[]string{"flow", "status", "asset"},
	)

	// TransferAmount tracks transfer amounts
	TransferAmount = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "coinvault",
			Subsystem: "business",
			Name:      "transfer_amount",
			Help:      "Transfer amounts in asset units",
			Buckets:   prometheus.ExponentialBuckets(1, 10, 8), // 1 to 10M units
		},
		[]string{"flow", "asset"},
	)

	// IdempotencyReplaysTotal counts responses replayed from idempotency records
	IdempotencyReplaysTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "coinvault",
			Subsystem: "business",
			Name:      "idempotency_replays_total",
			Help:      "Total number of requests answered from stored idempotency records",
		},
		[]string{"flow"},
	)
)

// Database metrics
var (
	// dbQueryDuration measures database query latency
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "coinvault",
			Subsystem: "db",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"operation", "table"},
	)

	// dbConnectionsTotal tracks database connections
	DBConnectionsTotal = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "coinvault",
			Subsystem: "db",
			Name:      "connections",
			Help:      "Number of database connections",
		},
		[]string{"state"}, // idle, in_use, max
	)

	// dbErrorsTotal counts database errors
	DBErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "coinvault",
			Subsystem: "db",
			Name:      "errors_total",
			Help:      "Total number of database errors",
		},
		[]string{"operation", "error_type"},
	)
)

// Metrics returns Prometheus metrics middleware
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Skip metrics endpoint
		if c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}

		start := time.Now()
		path := c.FullPath()
		if path == "" {
			path = "unknown"
		}
		method := c.Request.Method

		httpRequestsInFlight.Inc()
		defer httpRequestsInFlight.Dec()

		c.Next()

		status := strconv.Itoa(c.Writer.Status())
		duration := time.Since(start).Seconds()

		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpRequestDuration.WithLabelValues(method, path).Observe(duration)
		httpResponseSize.WithLabelValues(method, path).Observe(float64(c.Writer.Size()))
	}
}

// RecordTransfer records a transfer metric
func RecordTransfer(flow, status, asset string, amount float64) {
	TransfersTotal.WithLabelValues(flow, status, asset).Inc()
	TransferAmount.WithLabelValues(flow, asset).Observe(amount)
}

// RecordIdempotencyReplay records a replayed response
func RecordIdempotencyReplay(flow string) {
	IdempotencyReplaysTotal.WithLabelValues(flow).Inc()
}

// RecordDBQuery records a database query metric
func RecordDBQuery(operation, table string, duration time.Duration) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
}

// RecordDBError records a database error metric
func RecordDBError(operation, errorType string) {
	DBErrorsTotal.WithLabelValues(operation, errorType).Inc()
}

// UpdateDBConnections updates database connection metrics
func UpdateDBConnections(idle, inUse, max int32) {
	DBConnectionsTotal.WithLabelValues("idle").Set(float64(idle))
	DBConnectionsTotal.WithLabelValues("in_use").Set(float64(inUse))
	DBConnectionsTotal.WithLabelValues("max").Set(float64(max))
}
