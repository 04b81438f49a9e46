package monitoring

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector owns a private Prometheus registry for one service. All
// metric names are prefixed with the service namespace.
type MetricsCollector struct {
	namespace string
	registry  *prometheus.Registry
	factory   promauto.Factory

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	httpInFlight prometheus.Gauge
}

// NewMetricsCollector registers the runtime collectors, the HTTP request
// metrics and a constant <namespace>_service_info{version,commit} gauge.
func NewMetricsCollector(serviceName, version, commit string) *MetricsCollector {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	mc := &MetricsCollector{
		// Prometheus names cannot contain hyphens
		namespace: strings.ReplaceAll(serviceName, "-", "_"),
		registry:  registry,
		factory:   promauto.With(registry),
	}

	mc.httpRequests = mc.NewCounter("http_requests_total", "Total number of HTTP requests", []string{"method", "endpoint", "status"})
	mc.httpDuration = mc.NewHistogram("http_request_duration_seconds", "HTTP request duration in seconds", []string{"method", "endpoint"}, nil)
	mc.httpInFlight = mc.factory.NewGauge(prometheus.GaugeOpts{
		Namespace: mc.namespace,
		Name:      "http_requests_in_flight",
		Help:      "Number of HTTP requests being served",
	})
	mc.NewGauge("service_info", "Service build information", []string{"version", "commit"}).
		WithLabelValues(version, commit).Set(1)

	return mc
}

// Registry exposes the underlying registry, mainly for tests.
func (mc *MetricsCollector) Registry() *prometheus.Registry {
	return mc.registry
}

// MetricsMiddleware records count and latency per route template. Requests
// that match no route are labelled "unknown".
func (mc *MetricsCollector) MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		mc.httpInFlight.Inc()
		defer mc.httpInFlight.Dec()

		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unknown"
		}
		mc.httpRequests.WithLabelValues(c.Request.Method, endpoint, strconv.Itoa(c.Writer.Status())).Inc()
		mc.httpDuration.WithLabelValues(c.Request.Method, endpoint).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (mc *MetricsCollector) Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(mc.registry, promhttp.HandlerOpts{Registry: mc.registry}))
}

func (mc *MetricsCollector) NewCounter(name, help string, labels []string) *prometheus.CounterVec {
	return mc.factory.NewCounterVec(prometheus.CounterOpts{Namespace: mc.namespace, Name: name, Help: help}, labels)
}

// NewHistogram uses prometheus.DefBuckets when buckets is nil.
func (mc *MetricsCollector) NewHistogram(name, help string, labels []string, buckets []float64) *prometheus.HistogramVec {
	if buckets == nil {
		buckets = prometheus.DefBuckets
	}
	return mc.factory.NewHistogramVec(prometheus.HistogramOpts{Namespace: mc.namespace, Name: name, Help: help, Buckets: buckets}, labels)
}

func (mc *MetricsCollector) NewGauge(name, help string, labels []string) *prometheus.GaugeVec {
	return mc.factory.NewGaugeVec(prometheus.GaugeOpts{Namespace: mc.namespace, Name: name, Help: help}, labels)
}
