package config

import (
	"os"
	"strings"
)

// AppConfig is the main application configuration struct that composes
// domain-specific configuration from separate files.
//
// Configuration is loaded from environment variables using the
// github.com/caarlos0/env library. See individual domain config
// files for details on available environment variables:
//   - auth.go: Identity provider and admin role configuration
//   - database.go: Redis and audit database configuration
//   - http.go: HTTP server and browser-facing policy
//   - session.go: Session cookie lifecycle
//   - observability.go: Logging and metrics
type AppConfig struct {
	// IsDev controls development mode behavior (insecure cookies over plain HTTP, verbose logging).
	// Set DEV=true or NODE_ENV=development for development mode.
	IsDev bool `env:"DEV" envDefault:"false"`

	// Authentication configuration
	Auth AuthConfig

	// Storage configuration
	Redis RedisConfig `envPrefix:"REDIS_"`
	Audit AuditConfig `envPrefix:"AUDIT_DB_"`
	Cache CacheConfig

	// HTTP server configuration
	HTTP HTTPConfig

	// Session cookie configuration
	Session SessionConfig `envPrefix:"SESSION_"`

	// Observability configuration
	Observability ObservabilityConfig
}

// Sanitize applies guardrails to configuration values loaded from env.
// This should be called after loading configuration from environment variables.
func (c *AppConfig) Sanitize() {
	c.detectDevMode()

	c.Auth.Sanitize()
	c.HTTP.Sanitize()
	c.Session.Sanitize()
	c.Cache.Sanitize()
	c.Observability.Sanitize()
}

// detectDevMode checks both DEV and NODE_ENV environment variables.
// NODE_ENV is checked as a fallback (common in frontend tooling).
func (c *AppConfig) detectDevMode() {
	if !c.IsDev {
		nodeEnv := strings.ToLower(os.Getenv("NODE_ENV"))
		c.IsDev = nodeEnv == "development" || nodeEnv == "dev"
	}
}

// SecureCookies reports whether cookies must carry the Secure attribute regardless of request scheme.
func (c *AppConfig) SecureCookies() bool {
	return !c.IsDev || c.Session.ForceSecure
}
