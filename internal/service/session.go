package service

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/ternsecure/tern-admin/internal/domain/account"
	domainauth "github.com/ternsecure/tern-admin/internal/domain/auth"
	"github.com/ternsecure/tern-admin/internal/observability/metrics"
	"github.com/ternsecure/tern-admin/internal/ports"
)

// Token verification messages shown for the short-lived ID token cookie.
const (
	msgTokenExpired  = "Token has expired"
	msgTokenRevoked  = "Token has been revoked"
	msgUserDisabled  = "User account has been disabled"
	defaultCookieTTL = 5 * 24 * time.Hour
)

// SessionConfig controls cookie names, lifetimes and admin gating.
type SessionConfig struct {
	CookieName        string
	CookieTTL         time.Duration
	TokenCookieName   string
	TokenCookieTTL    time.Duration
	LegacyCookieNames []string
	CheckRevoked      bool
	// Secure sets the Secure attribute on every cookie.
	Secure      bool
	AdminRoles  []account.Role
	CallTimeout time.Duration
}

func (c *SessionConfig) defaults() {
	if c.CookieName == "" {
		c.CookieName = "_session_cookie"
	}
	if c.CookieTTL <= 0 {
		c.CookieTTL = defaultCookieTTL
	}
	if c.TokenCookieName == "" {
		c.TokenCookieName = "_tern"
	}
	if c.TokenCookieTTL <= 0 {
		c.TokenCookieTTL = time.Hour
	}
	if len(c.AdminRoles) == 0 {
		c.AdminRoles = []account.Role{account.RoleAdmin, account.RoleSuperuser}
	}
	if c.CallTimeout <= 0 {
		c.CallTimeout = defaultCallTimeout
	}
}

// SessionServiceOptions groups dependencies for SessionService.
type SessionServiceOptions struct {
	Provider ports.IdentityProvider // Required
	Config   SessionConfig
	Logger   *slog.Logger
	Metrics  *metrics.Metrics
}

// SessionService bridges provider-issued tokens and the browser's session cookies.
//
// Every operation returns a tagged result instead of an error; codes come from the
// domainauth classification so the HTTP layer can render them directly.
type SessionService struct {
	provider ports.IdentityProvider
	cfg      SessionConfig
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// NewSessionService constructs a SessionService.
func NewSessionService(opts SessionServiceOptions) *SessionService {
	if opts.Provider == nil {
		panic("session service: Provider is required")
	}
	cfg := opts.Config
	cfg.defaults()
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionService{
		provider: opts.Provider,
		cfg:      cfg,
		logger:   logger.With("component", "session"),
		metrics:  opts.Metrics,
	}
}

func (s *SessionService) timeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.cfg.CallTimeout)
}

func (s *SessionService) cookieOptions(ttl time.Duration) ports.CookieOptions {
	return ports.CookieOptions{
		HTTPOnly: true,
		Secure:   s.cfg.Secure,
		SameSite: ports.SameSiteStrict,
		MaxAge:   ttl,
		Path:     "/",
	}
}

// CreateSessionCookie mints a session cookie from idToken and sets it on jar.
func (s *SessionService) CreateSessionCookie(ctx context.Context, jar ports.CookieJar, idToken string) domainauth.Result {
	if strings.TrimSpace(idToken) == "" {
		return domainauth.Fail(domainauth.CodeInvalidToken)
	}
	cctx, cancel := s.timeout(ctx)
	defer cancel()
	cookie, err := s.provider.CreateSessionCookie(cctx, idToken, s.cfg.CookieTTL)
	if err != nil {
		code := domainauth.ClassifyError(err)
		s.logger.WarnContext(ctx, "create session cookie failed", "code", code, "error", err)
		return domainauth.Fail(code)
	}
	jar.Set(s.cfg.CookieName, cookie, s.cookieOptions(s.cfg.CookieTTL))
	return domainauth.Result{Success: true}
}

// VerifySessionCookie verifies the session cookie on jar.
// Failures carry NO_SESSION, SESSION_EXPIRED, SESSION_REVOKED, USER_DISABLED or INVALID_TOKEN.
func (s *SessionService) VerifySessionCookie(ctx context.Context, jar ports.CookieJar) (domainauth.Claims, domainauth.Result) {
	cookie, ok := jar.Get(s.cfg.CookieName)
	if !ok {
		return domainauth.Claims{}, domainauth.Fail(domainauth.CodeNoSession)
	}
	cctx, cancel := s.timeout(ctx)
	defer cancel()
	claims, err := s.provider.VerifySessionCookie(cctx, cookie, s.cfg.CheckRevoked)
	if err != nil {
		code := sessionFailureCode(err)
		s.logger.DebugContext(ctx, "session cookie rejected", "code", code, "error", err)
		return domainauth.Claims{}, domainauth.Fail(code)
	}
	return claims, domainauth.OK(claims.UID)
}

// VerifyIDToken verifies a raw ID token with the same failure contract as VerifySessionCookie.
func (s *SessionService) VerifyIDToken(ctx context.Context, idToken string) (domainauth.Claims, domainauth.Result) {
	if strings.TrimSpace(idToken) == "" {
		return domainauth.Claims{}, domainauth.Fail(domainauth.CodeInvalidToken)
	}
	cctx, cancel := s.timeout(ctx)
	defer cancel()
	claims, err := s.provider.VerifyIDToken(cctx, idToken, s.cfg.CheckRevoked)
	if err != nil {
		code := domainauth.ClassifyError(err)
		res := domainauth.Fail(tokenFailureCode(code, err))
		switch code {
		case domainauth.CodeExpiredToken, domainauth.CodeSessionExpired:
			res = res.WithMessage(msgTokenExpired)
		case domainauth.CodeSessionRevoked:
			res = res.WithMessage(msgTokenRevoked)
		case domainauth.CodeUserDisabled:
			res = res.WithMessage(msgUserDisabled)
		}
		s.logger.DebugContext(ctx, "id token rejected", "code", res.Code, "error", err)
		return domainauth.Claims{}, res
	}
	return claims, domainauth.OK(claims.UID)
}

// SetServerSession verifies idToken, stores it in the short-lived token cookie, then
// creates the session cookie.
func (s *SessionService) SetServerSession(ctx context.Context, jar ports.CookieJar, idToken string) domainauth.Result {
	claims, res := s.VerifyIDToken(ctx, idToken)
	if !res.Success {
		return res
	}
	jar.Set(s.cfg.TokenCookieName, idToken, s.cookieOptions(s.cfg.TokenCookieTTL))
	if created := s.CreateSessionCookie(ctx, jar, idToken); !created.Success {
		return created
	}
	return domainauth.OK(claims.UID)
}

// ClearSession removes every session cookie and revokes the user's refresh tokens.
// Revocation is best-effort; the result is always a success.
func (s *SessionService) ClearSession(ctx context.Context, jar ports.CookieJar) domainauth.Result {
	var uid string
	if cookie, ok := jar.Get(s.cfg.CookieName); ok {
		cctx, cancel := s.timeout(ctx)
		if claims, err := s.provider.VerifySessionCookie(cctx, cookie, false); err == nil {
			uid = claims.UID
		}
		cancel()
	}

	for _, name := range s.cookieNames() {
		jar.Delete(name)
	}

	if uid == "" {
		return domainauth.Result{Success: true}
	}
	cctx, cancel := s.timeout(ctx)
	defer cancel()
	if err := s.provider.RevokeRefreshTokens(cctx, uid); err != nil {
		s.metrics.SessionRevokeFailed()
		s.logger.ErrorContext(ctx, "failed to revoke refresh tokens on sign-out", "uid", uid, "error", err)
	}
	return domainauth.OK(uid)
}

func (s *SessionService) cookieNames() []string {
	names := []string{s.cfg.CookieName}
	for _, n := range s.cfg.LegacyCookieNames {
		if n != "" && !slices.Contains(names, n) {
			names = append(names, n)
		}
	}
	if !slices.Contains(names, s.cfg.TokenCookieName) {
		names = append(names, s.cfg.TokenCookieName)
	}
	return names
}

// VerifyCurrentUser verifies the session and re-reads the account so a disable takes effect
// without waiting for the cookie to expire.
func (s *SessionService) VerifyCurrentUser(ctx context.Context, jar ports.CookieJar) domainauth.UserStatus {
	claims, res := s.VerifySessionCookie(ctx, jar)
	if !res.Success {
		return domainauth.UserStatus{Code: res.Code}
	}

	cctx, cancel := s.timeout(ctx)
	defer cancel()
	acct, err := s.provider.GetUser(cctx, claims.UID)
	if err != nil {
		code := domainauth.ClassifyError(err)
		if code == domainauth.CodeInvalidCredentials {
			// user-not-found: the account was deleted under a live cookie.
			code = domainauth.CodeInvalidToken
		}
		s.logger.WarnContext(ctx, "failed to load current user", "uid", claims.UID, "code", code, "error", err)
		return domainauth.UserStatus{UserID: claims.UID, Code: code}
	}
	if acct.Disabled {
		return domainauth.UserStatus{UserID: acct.UID, Email: acct.Email, Code: domainauth.CodeUserDisabled}
	}
	return domainauth.UserStatus{
		IsValid: true,
		UserID:  acct.UID,
		Email:   acct.Email,
		Role:    acct.Role(),
	}
}

// RequireAdmin verifies the current user and checks their role against the admin roles.
// A valid non-admin user comes back with IsValid false and code FORBIDDEN.
func (s *SessionService) RequireAdmin(ctx context.Context, jar ports.CookieJar) domainauth.UserStatus {
	st := s.VerifyCurrentUser(ctx, jar)
	if !st.IsValid {
		return st
	}
	if !s.IsAdmin(st.Role) {
		st.IsValid = false
		st.Code = domainauth.CodeForbidden
	}
	return st
}

// IsAdmin reports whether role may use the admin surface.
func (s *SessionService) IsAdmin(role account.Role) bool {
	return slices.Contains(s.cfg.AdminRoles, role)
}

// sessionFailureCode narrows a verification failure to the session code set.
func sessionFailureCode(err error) domainauth.Code {
	code := domainauth.ClassifyError(err)
	switch code {
	case domainauth.CodeSessionExpired, domainauth.CodeSessionRevoked, domainauth.CodeUserDisabled, domainauth.CodeInvalidToken:
		return code
	case domainauth.CodeExpiredToken:
		return domainauth.CodeSessionExpired
	}
	return tokenFailureCode(code, err)
}

// tokenFailureCode keeps transient failures distinct so an outage is not reported as a bad token.
func tokenFailureCode(code domainauth.Code, err error) domainauth.Code {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return domainauth.CodeInternal
	}
	switch code {
	case domainauth.CodeExpiredToken, domainauth.CodeSessionRevoked, domainauth.CodeUserDisabled,
		domainauth.CodeInvalidToken, domainauth.CodeSessionExpired, domainauth.CodeNetworkError:
		return code
	}
	return domainauth.CodeInvalidToken
}
