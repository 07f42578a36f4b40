package metrics

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTPMetrics records request counts and latencies per route.
type HTTPMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// DomainMetrics records ingest and sweep activity.
type DomainMetrics struct {
	ReadingsIngested *prometheus.CounterVec
	SweepRuns        prometheus.Counter
	SweepAlerts      prometheus.Counter
	SweepErrors      prometheus.Counter
}

var (
	httpOnce    sync.Once
	httpMetrics *HTTPMetrics

	domainOnce    sync.Once
	domainMetrics *DomainMetrics
)

// HTTP returns the process-wide HTTP metrics, registering them on first use.
func HTTP() *HTTPMetrics {
	httpOnce.Do(func() {
		httpMetrics = &HTTPMetrics{
			requests: promauto.NewCounterVec(prometheus.CounterOpts{
				Namespace: "wattkeeper",
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "HTTP requests handled, by method, route and status.",
			}, []string{"method", "route", "status"}),
			duration: promauto.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "wattkeeper",
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request latency in seconds.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"method", "route"}),
		}
	})
	return httpMetrics
}

// Domain returns the process-wide domain metrics, registering them on first use.
func Domain() *DomainMetrics {
	domainOnce.Do(func() {
		domainMetrics = &DomainMetrics{
			ReadingsIngested: promauto.NewCounterVec(prometheus.CounterOpts{
				Namespace: "wattkeeper",
				Subsystem: "readings",
				Name:      "ingested_total",
				Help:      "Usage readings stored, by source.",
			}, []string{"source"}),
			SweepRuns: promauto.NewCounter(prometheus.CounterOpts{
				Namespace: "wattkeeper",
				Subsystem: "sweep",
				Name:      "runs_total",
				Help:      "Threshold sweep executions.",
			}),
			SweepAlerts: promauto.NewCounter(prometheus.CounterOpts{
				Namespace: "wattkeeper",
				Subsystem: "sweep",
				Name:      "alerts_total",
				Help:      "Threshold alerts published.",
			}),
			SweepErrors: promauto.NewCounter(prometheus.CounterOpts{
				Namespace: "wattkeeper",
				Subsystem: "sweep",
				Name:      "errors_total",
				Help:      "Per-customer failures during threshold sweeps.",
			}),
		}
	})
	return domainMetrics
}

// GinMiddleware observes every request against the HTTP metrics.
func (m *HTTPMetrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if strings.TrimSpace(route) == "" {
			route = "unknown"
		}
		method := c.Request.Method
		status := strconv.Itoa(c.Writer.Status())

		m.requests.WithLabelValues(method, route, status).Inc()
		m.duration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}
