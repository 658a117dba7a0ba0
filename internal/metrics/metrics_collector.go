package metrics

import (
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/edgecomet/botagent/pkg/pattern"
)

// Query label values
const (
	QueryIsBot         = "is_bot"
	QueryIsBotMatch    = "is_bot_match"
	QueryIsBotMatches  = "is_bot_matches"
	QueryIsBotPattern  = "is_bot_pattern"
	QueryIsBotPatterns = "is_bot_patterns"
)

// MetricsCollector centralizes metrics recording with proper labeling.
// A nil *MetricsCollector records nothing.
type MetricsCollector struct {
	prometheus *PrometheusMetrics
	logger     *zap.Logger
}

// NewMetricsCollector creates a collector on the default Prometheus registry
func NewMetricsCollector(namespace string, logger *zap.Logger) *MetricsCollector {
	return &MetricsCollector{
		prometheus: NewPrometheusMetrics(namespace, logger),
		logger:     logger,
	}
}

// NewMetricsCollectorWithPrometheus wraps an existing PrometheusMetrics
func NewMetricsCollectorWithPrometheus(pm *PrometheusMetrics, logger *zap.Logger) *MetricsCollector {
	return &MetricsCollector{
		prometheus: pm,
		logger:     logger,
	}
}

// RecordCheck records a query outcome. matched is ignored when err is set.
func (mc *MetricsCollector) RecordCheck(query string, matched bool, err error, duration time.Duration) {
	if mc == nil {
		return
	}

	result := ResultHuman
	switch {
	case err != nil:
		result = ResultError
		kind := pattern.RootKind(err).String()
		mc.prometheus.RecordError(kind)
		mc.logger.Debug("Recorded query error metric",
			zap.String("query", query),
			zap.String("kind", kind))
	case matched:
		result = ResultBot
	}

	mc.prometheus.RecordCheck(query, result, duration)
}

// RecordRequest records a finished HTTP request
func (mc *MetricsCollector) RecordRequest(endpoint string, statusCode int) {
	if mc == nil {
		return
	}
	mc.prometheus.RecordRequest(endpoint, statusCode)
}

// IncActiveRequests increments active request counter
func (mc *MetricsCollector) IncActiveRequests() {
	if mc == nil {
		return
	}
	mc.prometheus.IncActiveRequests()
}

// DecActiveRequests decrements active request counter
func (mc *MetricsCollector) DecActiveRequests() {
	if mc == nil {
		return
	}
	mc.prometheus.DecActiveRequests()
}

// UpdateMatcherState publishes the cache state of the combined matcher
func (mc *MetricsCollector) UpdateMatcherState(cache *pattern.Cache) {
	if mc == nil {
		return
	}

	info, ok := cache.Info()
	mc.prometheus.SetMatcherState(ok, info.Patterns)

	mc.logger.Debug("Updated matcher state metric",
		zap.Bool("initialized", ok),
		zap.Int("patterns", info.Patterns))
}

// ServeHTTP serves the Prometheus endpoint
func (mc *MetricsCollector) ServeHTTP(ctx *fasthttp.RequestCtx) {
	mc.prometheus.ServeHTTP(ctx)
}
