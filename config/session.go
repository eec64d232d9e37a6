package config

import "time"

// SessionConfig controls the session cookie lifecycle.
type SessionConfig struct {
	// CookieName is the primary session cookie.
	CookieName string        `env:"COOKIE_NAME" envDefault:"_session_cookie"`
	CookieTTL  time.Duration `env:"COOKIE_TTL"  envDefault:"120h"`

	// TokenCookieName is the secondary short-lived ID token cookie.
	TokenCookieName string        `env:"TOKEN_COOKIE_NAME" envDefault:"_tern"`
	TokenCookieTTL  time.Duration `env:"TOKEN_COOKIE_TTL"  envDefault:"1h"`

	// LegacyCookieNames are cleared on sign-out alongside the cookies above.
	LegacyCookieNames []string `env:"LEGACY_COOKIE_NAMES" envDefault:"_session_token,_session" envSeparator:","`

	// CheckRevoked asks the provider to consult its revocation state on every verification.
	CheckRevoked bool `env:"CHECK_REVOKED" envDefault:"true"`

	// CallTimeout bounds every outbound provider and store call.
	CallTimeout time.Duration `env:"CALL_TIMEOUT" envDefault:"5s"`

	// ForceSecure sets the Secure attribute even in dev mode.
	ForceSecure bool `env:"FORCE_SECURE" envDefault:"false"`
}

// Provider limits on session cookie lifetime.
const (
	MinSessionCookieTTL = 5 * time.Minute
	MaxSessionCookieTTL = 14 * 24 * time.Hour
)

// Sanitize clamps durations into the ranges the identity provider accepts.
func (s *SessionConfig) Sanitize() {
	if s.CookieName == "" {
		s.CookieName = "_session_cookie"
	}
	if s.TokenCookieName == "" {
		s.TokenCookieName = "_tern"
	}
	if s.CookieTTL < MinSessionCookieTTL {
		s.CookieTTL = MinSessionCookieTTL
	}
	if s.CookieTTL > MaxSessionCookieTTL {
		s.CookieTTL = MaxSessionCookieTTL
	}
	if s.TokenCookieTTL <= 0 {
		s.TokenCookieTTL = time.Hour
	}
	if s.CallTimeout <= 0 {
		s.CallTimeout = 5 * time.Second
	}
}
