// Package ports defines interfaces (hexagonal ports) for the admin service.
// Implementations live in internal/adapters and internal/data; orchestration in internal/service.
package ports

import (
	"context"
	"time"

	"github.com/ternsecure/tern-admin/internal/domain/account"
	"github.com/ternsecure/tern-admin/internal/domain/audit"
	domainauth "github.com/ternsecure/tern-admin/internal/domain/auth"
)

// IdentityProvider is the account store plus token minting and verification.
// Failures that the provider can explain are returned as *domainauth.ProviderError.
type IdentityProvider interface {
	GetUser(ctx context.Context, uid string) (account.Account, error)
	// ListUsers returns one page; an empty NextPageToken ends iteration.
	ListUsers(ctx context.Context, pageSize int, pageToken string) (account.Page, error)
	SetDisabled(ctx context.Context, uid string, disabled bool) error
	DeleteUser(ctx context.Context, uid string) error
	SetCustomUserClaims(ctx context.Context, uid string, claims map[string]any) error

	CreateSessionCookie(ctx context.Context, idToken string, expiresIn time.Duration) (string, error)
	VerifySessionCookie(ctx context.Context, cookie string, checkRevoked bool) (domainauth.Claims, error)
	VerifyIDToken(ctx context.Context, idToken string, checkRevoked bool) (domainauth.Claims, error)
	RevokeRefreshTokens(ctx context.Context, uid string) error
}

// TokenGrant is what a password or federated sign-in hands back.
type TokenGrant struct {
	IDToken       string
	RefreshToken  string
	UID           string
	Email         string
	EmailVerified bool
}

// IdPAssertion carries a third-party id_token to exchange for a provider ID token.
type IdPAssertion struct {
	ProviderID string
	IDToken    string
	RequestURI string
}

// PasswordAuthenticator performs client-side sign-in operations against the identity provider.
type PasswordAuthenticator interface {
	SignInWithPassword(ctx context.Context, email, password string) (TokenGrant, error)
	SignUp(ctx context.Context, email, password string) (TokenGrant, error)
	SendEmailVerification(ctx context.Context, idToken string) error
	SignInWithIdP(ctx context.Context, in IdPAssertion) (TokenGrant, error)
}

// BeginInput carries inputs for initiating a federated flow.
type BeginInput struct {
	RedirectURL string
}

// ExchangeInput groups parameters for the code/token exchange.
type ExchangeInput struct {
	Code  string
	State string
	Nonce string
}

// FederatedIdentity is the verified result of an OIDC code exchange.
type FederatedIdentity struct {
	Subject string
	Email   string
	// RawIDToken is the unmodified id_token, forwarded to the identity provider.
	RawIDToken string
}

// FederatedProvider initiates and completes an OIDC flow against an upstream IdP.
type FederatedProvider interface {
	// ProviderID is the identity provider's name for this upstream, e.g. "google.com".
	ProviderID() string
	Begin(ctx context.Context, in BeginInput) (authURL, state, nonce string, err error)
	Exchange(ctx context.Context, in ExchangeInput) (FederatedIdentity, error)
}

// SameSite mirrors the cookie SameSite attribute without importing net/http.
type SameSite int

const (
	SameSiteDefault SameSite = iota
	SameSiteLax
	SameSiteStrict
)

// CookieOptions are the attributes applied when setting a cookie.
type CookieOptions struct {
	HTTPOnly bool
	Secure   bool
	SameSite SameSite
	MaxAge   time.Duration
	Path     string
}

// CookieJar is the request-scoped view of cookies.
type CookieJar interface {
	Get(name string) (string, bool)
	Set(name, value string, opts CookieOptions)
	Delete(name string)
}

// AuditLog records admin mutations.
type AuditLog interface {
	Record(ctx context.Context, ev audit.Event) error
	List(ctx context.Context, f audit.ListFilter) ([]audit.Event, error)
}
