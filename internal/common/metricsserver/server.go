package metricsserver

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/edgecomet/botagent/internal/common/configtypes"
)

const serverName = "botagent-metrics"

// MetricsHandler interface for metrics collectors
type MetricsHandler interface {
	ServeHTTP(ctx *fasthttp.RequestCtx)
}

// Server exposes metrics on a port separate from the classification API
type Server struct {
	cfg    configtypes.MetricsConfig
	srv    *fasthttp.Server
	logger *zap.Logger
}

// New creates a metrics server. It does not bind until Start or Serve.
func New(cfg configtypes.MetricsConfig, handler MetricsHandler, logger *zap.Logger) *Server {
	return &Server{
		cfg: cfg,
		srv: &fasthttp.Server{
			Handler:            createMetricsHandler(cfg.Path, handler),
			Name:               serverName,
			ReadTimeout:        10 * time.Second,
			WriteTimeout:       10 * time.Second,
			MaxRequestBodySize: 1 * 1024,
			TCPKeepalive:       true,
			TCPKeepalivePeriod: 30 * time.Second,
			MaxConnsPerIP:      100,
			MaxRequestsPerConn: 1000,
			Concurrency:        100,
		},
		logger: logger,
	}
}

// Start creates and starts the metrics server.
// Returns nil, nil if metrics are disabled. Bind errors are returned synchronously.
func Start(cfg configtypes.MetricsConfig, handler MetricsHandler, logger *zap.Logger) (*Server, error) {
	if !cfg.Enabled {
		logger.Info("Metrics collection disabled")
		return nil, nil
	}

	ln, err := net.Listen("tcp", cfg.Listen)
	if err != nil {
		return nil, fmt.Errorf("metrics listener on %s: %w", cfg.Listen, err)
	}

	s := New(cfg, handler, logger)
	go func() {
		if err := s.Serve(ln); err != nil {
			logger.Error("Metrics server stopped",
				zap.String("listen", cfg.Listen),
				zap.Error(err))
		}
	}()

	return s, nil
}

// Serve accepts connections on ln until Shutdown
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("Metrics server listening",
		zap.String("listen", ln.Addr().String()),
		zap.String("path", s.cfg.Path))
	return s.srv.Serve(ln)
}

// Shutdown stops the server, waiting for open requests until ctx expires
func (s *Server) Shutdown(ctx context.Context) error {
	if s == nil {
		return nil
	}
	return s.srv.ShutdownWithContext(ctx)
}

// createMetricsHandler creates a FastHTTP request handler for the metrics server
func createMetricsHandler(metricsPath string, metricsHandler MetricsHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		if string(ctx.Path()) == metricsPath {
			metricsHandler.ServeHTTP(ctx)
			return
		}

		ctx.SetStatusCode(fasthttp.StatusNotFound)
		ctx.SetBodyString("Not Found")
	}
}
