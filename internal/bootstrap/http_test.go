package bootstrap

import (
	"context"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHTTPServer_RequiresConfig(t *testing.T) {
	_, err := NewHTTPServer(HTTPServerConfig{})
	assert.ErrorContains(t, err, "Config is required")
}

func TestNewHTTPServer_RequiresServices(t *testing.T) {
	_, err := NewHTTPServer(HTTPServerConfig{Config: devAppConfig(), Logger: discardLogger()})
	assert.ErrorContains(t, err, "build router")
}

func TestServe_ServesUntilCanceled(t *testing.T) {
	cfg := devAppConfig()
	cfg.HTTP.Addr = ""
	reg := prometheus.NewRegistry()
	svc, err := NewServices(ServiceDeps{
		Config:     cfg,
		Identity:   devIdentity(t),
		Redis:      unreachableRedis(t),
		Registerer: reg,
		Logger:     discardLogger(),
	})
	require.NoError(t, err)

	server, err := NewHTTPServer(HTTPServerConfig{Config: cfg, Services: svc, Gatherer: reg, Logger: discardLogger()})
	require.NoError(t, err)
	assert.Equal(t, ":8080", server.Addr)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, server, ln, discardLogger()) }()

	base := "http://" + ln.Addr().String()
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(base + "/api/auth/status")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = client.Get(base + "/healthz")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode, "redis is unreachable")

	resp, err = client.Get(base + "/metrics")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	require.NoError(t, err)
	assert.Contains(t, string(body), "tern_admin_http_requests_total")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(15 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestShutdownHTTPServer_NilServer(t *testing.T) {
	assert.NoError(t, ShutdownHTTPServer(ShutdownConfig{}))
}
