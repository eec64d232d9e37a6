// Package bootstrap wires configuration, infrastructure and services for the binaries.
package bootstrap

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/ternsecure/tern-admin/config"
)

// InitLogger installs a JSON logger on stdout as the slog default.
func InitLogger(level slog.Level) *slog.Logger {
	return initLogger(os.Stdout, level)
}

func initLogger(w io.Writer, level slog.Level) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	return logger
}

// LoadConfig loads configuration from the environment, reading .env first when present.
func LoadConfig() (config.AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return config.AppConfig{}, fmt.Errorf("load .env file: %w", err)
		}
	}

	var cfg config.AppConfig
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}

	cfg.Sanitize()
	return cfg, nil
}

// ValidateConfig rejects combinations that cannot start.
func ValidateConfig(cfg *config.AppConfig) error {
	if cfg == nil {
		return errors.New("config is required")
	}
	switch cfg.Auth.Mode {
	case config.AuthModeFirebase:
		if cfg.Auth.Firebase.APIKey == "" {
			return errors.New("FIREBASE_API_KEY is required in firebase auth mode")
		}
	case config.AuthModeMock:
		if !cfg.IsDev {
			return errors.New("AUTH_MODE=mock is only allowed with DEV=true")
		}
	default:
		return fmt.Errorf("unsupported auth mode %q", cfg.Auth.Mode)
	}
	return nil
}
