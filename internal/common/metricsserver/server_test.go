package metricsserver

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"
	"go.uber.org/zap"

	"github.com/edgecomet/botagent/internal/common/configtypes"
)

type mockMetricsHandler struct {
	called bool
}

func (m *mockMetricsHandler) ServeHTTP(ctx *fasthttp.RequestCtx) {
	m.called = true
	ctx.SetStatusCode(fasthttp.StatusOK)
	ctx.SetBodyString("# HELP test_metric A test metric\n# TYPE test_metric counter\ntest_metric 42\n")
}

func metricsConfig(listen string) configtypes.MetricsConfig {
	return configtypes.MetricsConfig{
		Enabled: true,
		Listen:  listen,
		Path:    "/metrics",
	}
}

func TestStart_Disabled(t *testing.T) {
	handler := &mockMetricsHandler{}

	server, err := Start(configtypes.MetricsConfig{Enabled: false}, handler, zap.NewNop())

	require.NoError(t, err)
	assert.Nil(t, server, "Should return nil when metrics disabled")
	assert.False(t, handler.called)
	assert.NoError(t, server.Shutdown(context.Background()), "nil server shutdown is a no-op")
}

func TestStart_PortConflict(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	_, err = Start(metricsConfig(ln.Addr().String()), &mockMetricsHandler{}, zap.NewNop())
	assert.Error(t, err, "bind failure must be reported to the caller")
}

func TestServer_ServeAndShutdown(t *testing.T) {
	handler := &mockMetricsHandler{}
	s := New(metricsConfig("inmemory"), handler, zap.NewNop())

	ln := fasthttputil.NewInmemoryListener()
	go func() { _ = s.Serve(ln) }()

	client := &fasthttp.Client{
		Dial: func(addr string) (net.Conn, error) { return ln.Dial() },
	}

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI("http://metrics/metrics")
	req.Header.SetConnectionClose()

	require.NoError(t, client.Do(req, resp))
	assert.Equal(t, fasthttp.StatusOK, resp.StatusCode())
	assert.Contains(t, string(resp.Body()), "test_metric 42")
	assert.True(t, handler.called)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.NoError(t, s.Shutdown(ctx))
}

func TestMetricsHandler_Paths(t *testing.T) {
	testCases := []struct {
		name       string
		configured string
		path       string
		served     bool
	}{
		{"default path", "/metrics", "/metrics", true},
		{"custom path", "/custom/metrics", "/custom/metrics", true},
		{"default path when custom configured", "/custom/metrics", "/metrics", false},
		{"root path", "/metrics", "/", false},
		{"check path", "/metrics", "/check", false},
		{"wrong metrics path", "/metrics", "/metric", false},
		{"nested path", "/metrics", "/metrics/detailed", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mockHandler := &mockMetricsHandler{}
			handler := createMetricsHandler(tc.configured, mockHandler)

			ctx := &fasthttp.RequestCtx{}
			ctx.Request.SetRequestURI(tc.path)
			handler(ctx)

			assert.Equal(t, tc.served, mockHandler.called)
			if !tc.served {
				assert.Equal(t, fasthttp.StatusNotFound, ctx.Response.StatusCode())
				assert.Equal(t, "Not Found", string(ctx.Response.Body()))
			}
		})
	}
}

func TestServerConfiguration(t *testing.T) {
	s := New(metricsConfig(":9090"), &mockMetricsHandler{}, zap.NewNop())

	assert.Equal(t, "botagent-metrics", s.srv.Name)
	assert.Equal(t, 10*time.Second, s.srv.ReadTimeout)
	assert.Equal(t, 10*time.Second, s.srv.WriteTimeout)
	assert.Equal(t, 1*1024, s.srv.MaxRequestBodySize)
	assert.True(t, s.srv.TCPKeepalive)
	assert.Equal(t, 100, s.srv.Concurrency)
}
