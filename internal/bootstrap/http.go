package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ternsecure/tern-admin/config"
	httpx "github.com/ternsecure/tern-admin/internal/http"
)

const shutdownTimeout = 10 * time.Second

// HTTPServerConfig contains configuration for the HTTP server.
type HTTPServerConfig struct {
	Config   *config.AppConfig
	Services ServiceContainer
	// Gatherer backs the metrics endpoint when metrics are enabled.
	Gatherer prometheus.Gatherer
	Logger   *slog.Logger
}

// NewHTTPServer builds the router and the server around it without listening.
func NewHTTPServer(cfg HTTPServerConfig) (*http.Server, error) {
	if cfg.Config == nil {
		return nil, errors.New("http server: Config is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	appCfg := cfg.Config

	services := httpx.RouterServices{
		Sessions:  cfg.Services.Sessions,
		SignIn:    cfg.Services.SignIn,
		Registry:  cfg.Services.Registry,
		Directory: cfg.Services.Directory,
		Dashboard: cfg.Services.Dashboard,
		Ready:     cfg.Services.Ready,
		HTTP:      appCfg.HTTP,
		IsDev:     appCfg.IsDev,
		Logger:    logger,
	}
	if appCfg.Observability.Metrics.Enabled {
		services.Metrics = cfg.Services.Metrics
		services.Gatherer = cfg.Gatherer
		services.MetricsPath = appCfg.Observability.Metrics.Path
	}

	handler, err := httpx.NewRouter(services)
	if err != nil {
		return nil, fmt.Errorf("build router: %w", err)
	}
	if appCfg.HTTP.CompressionEnabled {
		logger.Info("HTTP compression enabled", "level", appCfg.HTTP.CompressionLevel)
	}

	addr := appCfg.HTTP.Addr
	// Guard against empty addr to avoid listening on Go default
	if addr == "" {
		addr = ":8080"
	}
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
	}, nil
}

// Serve accepts connections on ln until ctx is done, then shuts the server down.
func Serve(ctx context.Context, server *http.Server, ln net.Listener, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting HTTP server", "addr", ln.Addr().String())
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	return ShutdownHTTPServer(ShutdownConfig{Server: server, Logger: logger})
}

// ShutdownConfig contains dependencies for HTTP server shutdown.
type ShutdownConfig struct {
	Server  *http.Server
	Timeout time.Duration
	Logger  *slog.Logger
}

// ShutdownHTTPServer gracefully shuts down the HTTP server.
func ShutdownHTTPServer(cfg ShutdownConfig) error {
	if cfg.Server == nil {
		return nil
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = shutdownTimeout
	}

	logger.Info("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := cfg.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	logger.Info("HTTP server stopped")
	return nil
}

// RunHTTPServer listens on the configured address and serves until SIGINT or SIGTERM.
func RunHTTPServer(ctx context.Context, cfg HTTPServerConfig) error {
	server, err := NewHTTPServer(cfg)
	if err != nil {
		return err
	}
	ln, err := net.Listen("tcp", server.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", server.Addr, err)
	}

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return Serve(sigCtx, server, ln, cfg.Logger)
}
