package server

import (
	"context"
	"net"
	"sync/atomic"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/edgecomet/botagent/internal/common/configtypes"
	"github.com/edgecomet/botagent/internal/common/httputil"
	"github.com/edgecomet/botagent/internal/common/requestid"
	"github.com/edgecomet/botagent/internal/metrics"
	"github.com/edgecomet/botagent/pkg/botagent"
)

const serverName = "botagent"

// Server exposes a Detector over HTTP
type Server struct {
	detector *botagent.Detector
	source   string
	metrics  *metrics.MetricsCollector
	logger   *zap.Logger
	srv      *fasthttp.Server

	// set once the matcher gauges reflect a built matcher
	matcherReported atomic.Bool
}

// NewServer creates the API server. metricsCollector may be nil.
func NewServer(
	cfg configtypes.ServerConfig,
	detector *botagent.Detector,
	source string,
	metricsCollector *metrics.MetricsCollector,
	logger *zap.Logger,
) *Server {
	s := &Server{
		detector: detector,
		source:   source,
		metrics:  metricsCollector,
		logger:   logger,
	}

	timeout := cfg.Timeout.ToDuration()
	s.srv = &fasthttp.Server{
		Handler:            s.HandleRequest,
		Name:               serverName,
		ReadTimeout:        timeout,
		WriteTimeout:       timeout,
		IdleTimeout:        60 * time.Second,
		MaxRequestBodySize: 4 * 1024,
		TCPKeepalive:       true,
	}
	return s
}

// ListenAndServe serves on addr until Shutdown
func (s *Server) ListenAndServe(addr string) error {
	s.logger.Info("API server listening", zap.String("listen", addr), zap.String("source", s.source))
	return s.srv.ListenAndServe(addr)
}

// Serve serves on ln until Shutdown
func (s *Server) Serve(ln net.Listener) error {
	return s.srv.Serve(ln)
}

// Shutdown stops accepting connections and waits for open requests until ctx expires
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.ShutdownWithContext(ctx)
}

// HandleRequest routes API requests
func (s *Server) HandleRequest(ctx *fasthttp.RequestCtx) {
	start := time.Now()

	requestID := requestid.Resolve(string(ctx.Request.Header.Peek(requestid.Header)))
	ctx.Response.Header.Set(requestid.Header, requestID)
	logger := s.logger.With(zap.String("request_id", requestID))

	s.metrics.IncActiveRequests()
	defer s.metrics.DecActiveRequests()

	path := string(ctx.Path())
	endpoint := path

	switch {
	case path == "/health":
		s.handleHealth(ctx)
	case path == "/ready":
		s.handleReady(ctx)
	case !isRoute(path):
		endpoint = "other"
		logger.Debug("Not found", zap.String("path", path))
		httputil.JSONError(ctx, "Endpoint not found", "", fasthttp.StatusNotFound)
	case !ctx.IsGet() && !ctx.IsHead():
		logger.Warn("Method not allowed", zap.String("method", string(ctx.Method())))
		httputil.JSONError(ctx, "Method not allowed", "", fasthttp.StatusMethodNotAllowed)
	case path == "/check":
		s.handleCheck(ctx, logger)
	case path == "/matches":
		s.handleMatches(ctx, logger)
	case path == "/pattern":
		s.handlePattern(ctx, logger)
	}

	s.metrics.RecordRequest(endpoint, ctx.Response.StatusCode())
	logger.Debug("Request completed",
		zap.String("path", path),
		zap.Int("status", ctx.Response.StatusCode()),
		zap.Duration("duration", time.Since(start)))
}

func isRoute(path string) bool {
	switch path {
	case "/check", "/matches", "/pattern":
		return true
	}
	return false
}

// Middleware classifies each request's User-Agent before calling next.
// next sees the result as user value "is_bot" and request header X-Bot.
// Classification errors are logged and treated as not a bot.
func (s *Server) Middleware(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		start := time.Now()
		isBot, err := s.detector.IsBot(string(ctx.UserAgent()), s.source)
		s.metrics.RecordCheck(metrics.QueryIsBot, isBot, err, time.Since(start))
		if err != nil {
			s.logger.Warn("Bot classification failed", zap.Error(err))
			isBot = false
		} else {
			s.reportMatcherState()
		}

		ctx.SetUserValue(UserValueIsBot, isBot)
		if isBot {
			ctx.Request.Header.Set(HeaderBot, "1")
		} else {
			ctx.Request.Header.Set(HeaderBot, "0")
		}
		next(ctx)
	}
}

// reportMatcherState publishes the matcher gauges the first time the matcher is built
func (s *Server) reportMatcherState() {
	if s.matcherReported.Load() || !s.detector.Cache().Initialized() {
		return
	}
	s.metrics.UpdateMatcherState(s.detector.Cache())
	s.matcherReported.Store(true)
}
