package server

import (
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/edgecomet/botagent/internal/common/httputil"
	"github.com/edgecomet/botagent/internal/metrics"
	"github.com/edgecomet/botagent/pkg/pattern"
)

const (
	// UserValueIsBot is the RequestCtx user value set by Middleware
	UserValueIsBot = "is_bot"
	// HeaderBot is the request header set by Middleware, "1" or "0"
	HeaderBot = "X-Bot"
)

// Match modes for /matches
const (
	ModeInsensitive = "ci"
	ModeAsAuthored  = "authored"
)

type checkResponse struct {
	UserAgent string  `json:"user_agent"`
	Bot       bool    `json:"bot"`
	Match     *string `json:"match"`
}

type matchesResponse struct {
	UserAgent string   `json:"user_agent"`
	Mode      string   `json:"mode"`
	Patterns  []string `json:"patterns"`
}

type patternResponse struct {
	UserAgent string  `json:"user_agent"`
	Pattern   *string `json:"pattern"`
}

func (s *Server) handleHealth(ctx *fasthttp.RequestCtx) {
	httputil.JSON(ctx, map[string]string{"status": "ok"}, fasthttp.StatusOK)
}

func (s *Server) handleReady(ctx *fasthttp.RequestCtx) {
	cache := s.detector.Cache()
	s.metrics.UpdateMatcherState(cache)

	info, ok := cache.Info()
	if !ok {
		httputil.JSONError(ctx, "matcher not initialized", "", fasthttp.StatusServiceUnavailable)
		return
	}
	httputil.JSON(ctx, map[string]interface{}{
		"status":   "ready",
		"patterns": info.Patterns,
	}, fasthttp.StatusOK)
}

func (s *Server) handleCheck(ctx *fasthttp.RequestCtx, logger *zap.Logger) {
	ua := userAgent(ctx)

	start := time.Now()
	match, ok, err := s.detector.IsBotMatch(ua, s.source)
	s.metrics.RecordCheck(metrics.QueryIsBotMatch, ok, err, time.Since(start))
	if err != nil {
		s.writeQueryError(ctx, logger, err)
		return
	}
	s.reportMatcherState()

	resp := checkResponse{UserAgent: ua, Bot: ok}
	if ok {
		resp.Match = &match
	}
	httputil.JSON(ctx, resp, fasthttp.StatusOK)
}

func (s *Server) handleMatches(ctx *fasthttp.RequestCtx, logger *zap.Logger) {
	ua := userAgent(ctx)

	mode := string(ctx.QueryArgs().Peek("mode"))
	if mode == "" {
		mode = ModeInsensitive
	}

	var (
		matched []string
		err     error
		query   string
	)
	start := time.Now()
	switch mode {
	case ModeInsensitive:
		query = metrics.QueryIsBotMatches
		matched, err = s.detector.IsBotMatches(ua, s.source)
	case ModeAsAuthored:
		query = metrics.QueryIsBotPatterns
		matched, err = s.detector.IsBotPatterns(ua, s.source)
	default:
		httputil.JSONError(ctx, "mode must be ci or authored", "", fasthttp.StatusBadRequest)
		return
	}
	s.metrics.RecordCheck(query, len(matched) > 0, err, time.Since(start))
	if err != nil {
		s.writeQueryError(ctx, logger, err)
		return
	}

	httputil.JSON(ctx, matchesResponse{UserAgent: ua, Mode: mode, Patterns: matched}, fasthttp.StatusOK)
}

func (s *Server) handlePattern(ctx *fasthttp.RequestCtx, logger *zap.Logger) {
	ua := userAgent(ctx)

	start := time.Now()
	p, ok, err := s.detector.IsBotPattern(ua, s.source)
	s.metrics.RecordCheck(metrics.QueryIsBotPattern, ok, err, time.Since(start))
	if err != nil {
		s.writeQueryError(ctx, logger, err)
		return
	}

	resp := patternResponse{UserAgent: ua}
	if ok {
		resp.Pattern = &p
	}
	httputil.JSON(ctx, resp, fasthttp.StatusOK)
}

// writeQueryError maps a query error to a status by its outermost kind
func (s *Server) writeQueryError(ctx *fasthttp.RequestCtx, logger *zap.Logger, err error) {
	kind := pattern.KindOf(err)
	status := statusForKind(kind)

	logger.Warn("Query failed",
		zap.String("kind", kind.String()),
		zap.Int("status", status),
		zap.Error(err))
	httputil.JSONError(ctx, err.Error(), kind.String(), status)
}

func statusForKind(kind pattern.Kind) int {
	if kind == pattern.KindCompile {
		return fasthttp.StatusUnprocessableEntity
	}
	return fasthttp.StatusInternalServerError
}

// userAgent reads the ua query argument, falling back to the User-Agent header
// when the argument is absent. An explicit empty ua is kept.
func userAgent(ctx *fasthttp.RequestCtx) string {
	args := ctx.QueryArgs()
	if args.Has("ua") {
		return string(args.Peek("ua"))
	}
	return string(ctx.UserAgent())
}
