package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"go.uber.org/zap"
)

// Result label values for checks_total
const (
	ResultBot   = "bot"
	ResultHuman = "human"
	ResultError = "error"
)

// PrometheusMetrics collects classification and HTTP metrics
type PrometheusMetrics struct {
	checksTotal   *prometheus.CounterVec
	checkDuration *prometheus.HistogramVec
	botRatio      prometheus.Gauge
	errorsTotal   *prometheus.CounterVec

	requestsTotal  *prometheus.CounterVec
	activeRequests prometheus.Gauge

	patternsLoaded     prometheus.Gauge
	matcherInitialized prometheus.Gauge

	logger      *zap.Logger
	httpHandler func(*fasthttp.RequestCtx)
}

// NewPrometheusMetrics creates a collector registered on the default registry
func NewPrometheusMetrics(namespace string, logger *zap.Logger) *PrometheusMetrics {
	return NewPrometheusMetricsWithRegistry(namespace, prometheus.DefaultRegisterer, logger)
}

// NewPrometheusMetricsWithRegistry creates a collector on a custom registry
func NewPrometheusMetricsWithRegistry(namespace string, registerer prometheus.Registerer, logger *zap.Logger) *PrometheusMetrics {
	pm := &PrometheusMetrics{
		logger: logger,
	}

	pm.checksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checks_total",
			Help:      "Total number of user agent checks by query and result",
		},
		[]string{"query", "result"},
	)

	pm.checkDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "check_duration_seconds",
			Help:      "Time taken to run a user agent query",
			// Combined matches take microseconds; per-pattern queries recompile and take longer
			Buckets: prometheus.ExponentialBuckets(0.000005, 4, 10),
		},
		[]string{"query"},
	)

	pm.botRatio = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "bot_ratio",
			Help:      "Share of is_bot checks classified as bot (0-1)",
		},
	)

	pm.errorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Total number of query errors by kind",
		},
		[]string{"kind"},
	)

	pm.requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by endpoint and status code range",
		},
		[]string{"endpoint", "status"},
	)

	pm.activeRequests = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "active_requests",
			Help:      "Number of HTTP requests currently being processed",
		},
	)

	pm.patternsLoaded = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "patterns_loaded",
			Help:      "Number of patterns in the combined matcher",
		},
	)

	pm.matcherInitialized = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "matcher_initialized",
			Help:      "1 once the combined matcher is built",
		},
	)

	registerer.MustRegister(
		pm.checksTotal,
		pm.checkDuration,
		pm.botRatio,
		pm.errorsTotal,
		pm.requestsTotal,
		pm.activeRequests,
		pm.patternsLoaded,
		pm.matcherInitialized,
	)

	// Registries implement Gatherer; anything else falls back to the default gatherer
	gatherer, ok := registerer.(prometheus.Gatherer)
	if !ok {
		gatherer = prometheus.DefaultGatherer
	}
	pm.httpHandler = fasthttpadaptor.NewFastHTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	logger.Debug("Prometheus metrics initialized")
	return pm
}

// RecordCheck records one query outcome with timing
func (pm *PrometheusMetrics) RecordCheck(query, result string, duration time.Duration) {
	pm.checksTotal.WithLabelValues(query, result).Inc()
	pm.checkDuration.WithLabelValues(query).Observe(duration.Seconds())

	if query == QueryIsBot && result != ResultError {
		pm.updateBotRatio()
	}
}

// RecordError records a query error by kind
func (pm *PrometheusMetrics) RecordError(kind string) {
	pm.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordRequest records an HTTP request by status code range
func (pm *PrometheusMetrics) RecordRequest(endpoint string, statusCode int) {
	pm.requestsTotal.WithLabelValues(endpoint, getStatusCodeRange(statusCode)).Inc()
}

// IncActiveRequests increments active request counter
func (pm *PrometheusMetrics) IncActiveRequests() {
	pm.activeRequests.Inc()
}

// DecActiveRequests decrements active request counter
func (pm *PrometheusMetrics) DecActiveRequests() {
	pm.activeRequests.Dec()
}

// SetMatcherState publishes the combined matcher state
func (pm *PrometheusMetrics) SetMatcherState(initialized bool, patterns int) {
	if initialized {
		pm.matcherInitialized.Set(1)
	} else {
		pm.matcherInitialized.Set(0)
	}
	pm.patternsLoaded.Set(float64(patterns))
}

// ServeHTTP serves Prometheus metrics via HTTP
func (pm *PrometheusMetrics) ServeHTTP(ctx *fasthttp.RequestCtx) {
	pm.httpHandler(ctx)
}

func (pm *PrometheusMetrics) updateBotRatio() {
	bots := pm.getCounterValue(pm.checksTotal.WithLabelValues(QueryIsBot, ResultBot))
	humans := pm.getCounterValue(pm.checksTotal.WithLabelValues(QueryIsBot, ResultHuman))

	if total := bots + humans; total > 0 {
		pm.botRatio.Set(bots / total)
	}
}

// getCounterValue reads the current value of a counter
func (pm *PrometheusMetrics) getCounterValue(counter prometheus.Counter) float64 {
	metric := &dto.Metric{}
	if err := counter.Write(metric); err != nil {
		pm.logger.Warn("Failed to read counter value", zap.Error(err))
		return 0
	}
	return metric.GetCounter().GetValue()
}

// getStatusCodeRange converts a status code to a range label (2xx, 3xx, 4xx, 5xx)
func getStatusCodeRange(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return "2xx"
	case statusCode >= 300 && statusCode < 400:
		return "3xx"
	case statusCode >= 400 && statusCode < 500:
		return "4xx"
	case statusCode >= 500 && statusCode < 600:
		return "5xx"
	default:
		return "unknown"
	}
}
