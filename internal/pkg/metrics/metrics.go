package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pizzazones",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "pizzazones",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "path"})

	httpResponseSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "pizzazones",
		Subsystem: "http",
		Name:      "response_size_bytes",
		Help:      "HTTP response size in bytes",
		Buckets:   prometheus.ExponentialBuckets(100, 10, 6),
	}, []string{"method", "path"})

	// Zone metrics
	ZonesWritten = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pizzazones",
		Subsystem: "zones",
		Name:      "written_total",
		Help:      "Zone documents written to the store, by operation",
	}, []string{"op"})

	ZoneWriteFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pizzazones",
		Subsystem: "zones",
		Name:      "write_failures_total",
		Help:      "Zone writes rejected by the store, by operation",
	}, []string{"op"})

	ZoneSaveDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "pizzazones",
		Subsystem: "zones",
		Name:      "save_duration_seconds",
		Help:      "Duration of a full-collection zone save",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	})

	ZoneSnapshotsReceived = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "pizzazones",
		Subsystem: "zones",
		Name:      "snapshots_received_total",
		Help:      "Zone snapshots received from the change feed",
	})

	MalformedDocuments = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "pizzazones",
		Subsystem: "zones",
		Name:      "malformed_documents_total",
		Help:      "Stored zone documents skipped because their polygon could not be decoded",
	})

	ZoneLocates = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pizzazones",
		Subsystem: "zones",
		Name:      "locate_total",
		Help:      "Address to zone lookups, by result (hit, miss)",
	}, []string{"result"})

	ActiveWebSockets = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "pizzazones",
		Subsystem: "ws",
		Name:      "active_connections",
		Help:      "Current number of active WebSocket connections",
	})

	DrawingSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "pizzazones",
		Subsystem: "editor",
		Name:      "drawing_sessions",
		Help:      "Open server-side drawing sessions",
	})

	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pizzazones",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Total cache hits",
	}, []string{"operation"})

	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pizzazones",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Total cache misses",
	}, []string{"operation"})

	// Database pool metrics
	DBPoolConnsOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "pizzazones",
		Subsystem: "db",
		Name:      "pool_conns_open",
		Help:      "Total connections open in the database pool",
	})

	DBPoolConnsAcquired = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "pizzazones",
		Subsystem: "db",
		Name:      "pool_conns_acquired",
		Help:      "Connections currently acquired from the database pool",
	})

	DBPoolConnsIdle = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "pizzazones",
		Subsystem: "db",
		Name:      "pool_conns_idle",
		Help:      "Idle connections in the database pool",
	})
)

// Middleware records request metrics.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Response().StatusCode())
		path := c.Route().Path
		if path == "" {
			path = c.Path()
		}
		method := c.Method()

		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpRequestDuration.WithLabelValues(method, path).Observe(duration)
		httpResponseSize.WithLabelValues(method, path).Observe(float64(len(c.Response().Body())))

		return err
	}
}

// Handler returns a Fiber handler serving Prometheus /metrics endpoint.
func Handler() fiber.Handler {
	handler := promhttp.Handler()
	return func(c *fiber.Ctx) error {
		fasthttpadaptor.NewFastHTTPHandler(handler)(c.Context())
		return nil
	}
}

// UpdateDBPoolMetrics updates database pool metrics from pgx pool stats.
func UpdateDBPoolMetrics(stat interface{}) {
	// Accepts *pgxpool.Stat without importing pgx here.
	type poolStat interface {
		AcquiredConns() int32
		IdleConns() int32
		TotalConns() int32
	}

	if s, ok := stat.(poolStat); ok {
		DBPoolConnsAcquired.Set(float64(s.AcquiredConns()))
		DBPoolConnsIdle.Set(float64(s.IdleConns()))
		DBPoolConnsOpen.Set(float64(s.TotalConns()))
	}
}

// ObserveSnapshot records a change-feed delivery.
func ObserveSnapshot(received, malformed int) {
	ZoneSnapshotsReceived.Inc()
	MalformedDocuments.Add(float64(malformed))
}
