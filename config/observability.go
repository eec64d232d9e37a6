package config

import (
	"log/slog"
	"strings"
)

const defaultMetricsPath = "/metrics"

// ObservabilityConfig groups configuration that controls logging and metrics.
type ObservabilityConfig struct {
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	Metrics  ObservabilityMetricsConfig
}

// Sanitize applies guardrails to observability sub-configs.
func (c *ObservabilityConfig) Sanitize() {
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	c.Metrics.Sanitize()
}

// SlogLevel maps LogLevel onto slog levels, defaulting to info.
func (c *ObservabilityConfig) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ObservabilityMetricsConfig controls the Prometheus endpoint.
type ObservabilityMetricsConfig struct {
	Enabled bool   `env:"OBSERVABILITY_METRICS_ENABLED" envDefault:"true"`
	Path    string `env:"OBSERVABILITY_METRICS_PATH"    envDefault:"/metrics"`
}

// Sanitize normalises derived fields and enforces safe defaults.
func (c *ObservabilityMetricsConfig) Sanitize() {
	c.Path = strings.TrimSpace(c.Path)
	if c.Path == "" {
		c.Path = defaultMetricsPath
	}
	if !strings.HasPrefix(c.Path, "/") {
		c.Path = "/" + c.Path
	}
}
