package config

import (
	"strings"
	"time"
)

// HTTPConfig contains HTTP server configuration.
type HTTPConfig struct {
	// Addr is the address to bind the HTTP server to.
	Addr string `env:"HTTP_ADDR" envDefault:":8080"`

	// CookieDomain is the domain for session cookies.
	// Leave empty to use the request domain.
	CookieDomain string `env:"APP_COOKIE_DOMAIN" envDefault:""`

	// AllowedOrigins are the origins allowed to call /api/auth with credentials.
	AllowedOrigins []string `env:"HTTP_ALLOWED_ORIGINS" envDefault:"http://localhost:3000,http://localhost:3001" envSeparator:","`

	// TrustedOrigins bypass cross-origin request protection (e.g. a separate sign-in frontend).
	TrustedOrigins []string `env:"HTTP_TRUSTED_ORIGINS" envDefault:"" envSeparator:","`

	// SignInRateLimit is the number of sign-in attempts allowed per IP per SignInRateWindow.
	SignInRateLimit  int           `env:"HTTP_SIGNIN_RATE_LIMIT"  envDefault:"20"`
	SignInRateWindow time.Duration `env:"HTTP_SIGNIN_RATE_WINDOW" envDefault:"1m"`

	// CompressionEnabled enables gzip compression for text-based responses.
	CompressionEnabled bool `env:"HTTP_COMPRESSION_ENABLED" envDefault:"false"`

	// CompressionLevel is the gzip compression level (1-9).
	// Default is 6 (standard gzip default).
	CompressionLevel int `env:"HTTP_COMPRESSION_LEVEL" envDefault:"6"`
}

// Sanitize applies guardrails to HTTP configuration values.
func (h *HTTPConfig) Sanitize() {
	// Clamp compression level to valid gzip range (1-9)
	if h.CompressionLevel < 1 {
		h.CompressionLevel = 1
	}
	if h.CompressionLevel > 9 {
		h.CompressionLevel = 9
	}
	if h.SignInRateLimit <= 0 {
		h.SignInRateLimit = 20
	}
	if h.SignInRateWindow <= 0 {
		h.SignInRateWindow = time.Minute
	}
	h.AllowedOrigins = trimOrigins(h.AllowedOrigins)
	h.TrustedOrigins = trimOrigins(h.TrustedOrigins)
}

func trimOrigins(in []string) []string {
	out := make([]string, 0, len(in))
	for _, o := range in {
		o = strings.TrimSuffix(strings.TrimSpace(o), "/")
		if o != "" {
			out = append(out, o)
		}
	}
	return out
}
