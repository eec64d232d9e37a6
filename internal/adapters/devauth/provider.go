// Package devauth provides an in-memory identity provider for local development (AUTH_MODE=mock).
//
// Accounts are seeded from configuration. ID tokens and session cookies are HS256 JWTs signed
// with a local key; revocation and disabled checks follow the same rules as the hosted provider
// so the session flows behave identically in development.
package devauth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"net/mail"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/ternsecure/tern-admin/internal/domain/account"
	domainauth "github.com/ternsecure/tern-admin/internal/domain/auth"
	"github.com/ternsecure/tern-admin/internal/ports"
)

const (
	issuer         = "tern-admin-devauth"
	idTokenTTL     = time.Hour
	minPasswordLen = 6

	kindIDToken = "id"
	kindSession = "session"
)

var (
	_ ports.IdentityProvider      = (*Provider)(nil)
	_ ports.PasswordAuthenticator = (*Provider)(nil)
)

// UserSeed describes an account created at startup.
type UserSeed struct {
	Email         string
	Password      string
	Role          account.Role
	EmailVerified bool
	Disabled      bool
}

// ParseUsers parses "email:password:role" entries. The role is optional and defaults to user.
// Seeded accounts are created with a verified email.
func ParseUsers(entries []string) ([]UserSeed, error) {
	seeds := make([]UserSeed, 0, len(entries))
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		parts := strings.SplitN(e, ":", 3)
		if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
			return nil, fmt.Errorf("dev auth: invalid user entry %q (want email:password[:role])", e)
		}
		role := account.RoleUser
		if len(parts) == 3 && parts[2] != "" {
			r, ok := account.ParseRole(parts[2])
			if !ok {
				return nil, fmt.Errorf("dev auth: unknown role %q for %s", parts[2], parts[0])
			}
			role = r
		}
		seeds = append(seeds, UserSeed{Email: parts[0], Password: parts[1], Role: role, EmailVerified: true})
	}
	return seeds, nil
}

// Config controls the dev provider.
type Config struct {
	Users      []UserSeed
	SigningKey string
	// Now overrides the clock; defaults to time.Now.
	Now func() time.Time
}

type user struct {
	acct       account.Account
	password   string
	validSince int64
	// verificationsSent counts SendEmailVerification calls.
	verificationsSent int
}

// Provider implements ports.IdentityProvider and ports.PasswordAuthenticator in memory.
type Provider struct {
	mu      sync.RWMutex
	users   map[string]*user
	byEmail map[string]string
	order   []string
	key     []byte
	now     func() time.Time
}

// NewProvider constructs a dev provider. An empty signing key gets a random per-process key.
func NewProvider(cfg Config) (*Provider, error) {
	key := []byte(cfg.SigningKey)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("dev auth: generate signing key: %w", err)
		}
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	p := &Provider{
		users:   make(map[string]*user),
		byEmail: make(map[string]string),
		key:     key,
		now:     now,
	}
	for _, s := range cfg.Users {
		if _, err := p.AddUser(s); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// UIDForEmail derives the stable dev uid for an email address.
func UIDForEmail(email string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(email))))
	return "dev-" + hex.EncodeToString(sum[:])[:16]
}

// AddUser creates an account from seed.
func (p *Provider) AddUser(s UserSeed) (account.Account, error) {
	email := strings.ToLower(strings.TrimSpace(s.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		return account.Account{}, domainauth.NewProviderError("auth/invalid-email", "invalid email: "+s.Email)
	}
	if len(s.Password) < minPasswordLen {
		return account.Account{}, domainauth.NewProviderError("auth/weak-password", "password must be at least 6 characters")
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if _, exists := p.byEmail[email]; exists {
		return account.Account{}, domainauth.NewProviderError("auth/email-already-exists", "email already in use")
	}

	role := s.Role
	if role == "" {
		role = account.RoleUser
	}
	uid := UIDForEmail(email)
	u := &user{
		acct: account.Account{
			UID:           uid,
			Email:         email,
			DisplayName:   strings.SplitN(email, "@", 2)[0],
			Disabled:      s.Disabled,
			EmailVerified: s.EmailVerified,
			CustomClaims:  map[string]any{account.RoleClaim: string(role)},
			ProviderIDs:   []string{"password"},
			CreatedAt:     p.now().UTC(),
		},
		password: s.Password,
	}
	p.users[uid] = u
	p.byEmail[email] = uid
	p.order = append(p.order, uid)
	return cloneAccount(u.acct), nil
}

func (p *Provider) lookup(uid string) (*user, error) {
	u, ok := p.users[uid]
	if !ok {
		return nil, domainauth.NewProviderError("auth/user-not-found", "no user record for uid "+uid)
	}
	return u, nil
}

// GetUser returns the account for uid.
func (p *Provider) GetUser(_ context.Context, uid string) (account.Account, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	u, err := p.lookup(uid)
	if err != nil {
		return account.Account{}, err
	}
	return cloneAccount(u.acct), nil
}

// ListUsers pages accounts in creation order. Page tokens are decimal offsets.
func (p *Provider) ListUsers(_ context.Context, pageSize int, pageToken string) (account.Page, error) {
	if pageSize <= 0 {
		pageSize = 1000
	}
	start := 0
	if pageToken != "" {
		n, err := strconv.Atoi(pageToken)
		if err != nil || n < 0 {
			return account.Page{}, domainauth.NewProviderError("auth/invalid-page-token", "invalid page token")
		}
		start = n
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if start > len(p.order) {
		start = len(p.order)
	}
	end := min(start+pageSize, len(p.order))
	page := account.Page{Accounts: make([]account.Account, 0, end-start)}
	for _, uid := range p.order[start:end] {
		page.Accounts = append(page.Accounts, cloneAccount(p.users[uid].acct))
	}
	if end < len(p.order) {
		page.NextPageToken = strconv.Itoa(end)
	}
	return page, nil
}

// SetDisabled toggles the disabled flag.
func (p *Provider) SetDisabled(_ context.Context, uid string, disabled bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	u, err := p.lookup(uid)
	if err != nil {
		return err
	}
	u.acct.Disabled = disabled
	return nil
}

// DeleteUser removes the account.
func (p *Provider) DeleteUser(_ context.Context, uid string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	u, err := p.lookup(uid)
	if err != nil {
		return err
	}
	delete(p.users, uid)
	delete(p.byEmail, u.acct.Email)
	for i, id := range p.order {
		if id == uid {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}
	return nil
}

// SetCustomUserClaims replaces the custom claims.
func (p *Provider) SetCustomUserClaims(_ context.Context, uid string, claims map[string]any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	u, err := p.lookup(uid)
	if err != nil {
		return err
	}
	next := make(map[string]any, len(claims))
	for k, v := range claims {
		next[k] = v
	}
	u.acct.CustomClaims = next
	return nil
}

// RevokeRefreshTokens invalidates every token issued before now (second precision).
func (p *Provider) RevokeRefreshTokens(_ context.Context, uid string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	u, err := p.lookup(uid)
	if err != nil {
		return err
	}
	u.validSince = p.now().Unix()
	return nil
}

type devClaims struct {
	jwt.RegisteredClaims
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Role          string `json:"role,omitempty"`
	AuthTime      int64  `json:"auth_time"`
	Kind          string `json:"kind"`
}

func (p *Provider) sign(u *user, kind string, authTime int64, ttl time.Duration) (string, error) {
	now := p.now()
	c := devClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   u.acct.UID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Email:         u.acct.Email,
		EmailVerified: u.acct.EmailVerified,
		Role:          string(u.acct.Role()),
		AuthTime:      authTime,
		Kind:          kind,
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(p.key)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", kind, err)
	}
	return s, nil
}

// reasons maps a failure kind to the provider reason codes for each token kind.
var reasons = map[string]struct{ expired, revoked, invalid string }{
	kindIDToken: {"auth/id-token-expired", "auth/id-token-revoked", "auth/invalid-id-token"},
	kindSession: {"auth/session-cookie-expired", "auth/session-cookie-revoked", "auth/invalid-session-cookie"},
}

func (p *Provider) parse(token, kind string) (*devClaims, error) {
	r := reasons[kind]
	var c devClaims
	_, err := jwt.ParseWithClaims(token, &c, func(*jwt.Token) (any, error) { return p.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(p.now),
	)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, domainauth.NewProviderError(r.expired, "token has expired")
	case err != nil:
		return nil, domainauth.NewProviderError(r.invalid, err.Error())
	case c.Kind != kind:
		return nil, domainauth.NewProviderError(r.invalid, "unexpected token kind "+c.Kind)
	}
	return &c, nil
}

func (p *Provider) verify(token, kind string, checkRevoked bool) (domainauth.Claims, error) {
	c, err := p.parse(token, kind)
	if err != nil {
		return domainauth.Claims{}, err
	}
	if checkRevoked {
		p.mu.RLock()
		u, lerr := p.lookup(c.Subject)
		var disabled bool
		var validSince int64
		if lerr == nil {
			disabled, validSince = u.acct.Disabled, u.validSince
		}
		p.mu.RUnlock()
		switch {
		case lerr != nil:
			return domainauth.Claims{}, lerr
		case disabled:
			return domainauth.Claims{}, domainauth.NewProviderError("auth/user-disabled", "user account is disabled")
		case c.AuthTime < validSince:
			return domainauth.Claims{}, domainauth.NewProviderError(reasons[kind].revoked, "token has been revoked")
		}
	}

	var exp int64
	if c.ExpiresAt != nil {
		exp = c.ExpiresAt.Unix()
	}
	role := account.Role(c.Role)
	if role == "" {
		role = account.RoleUser
	}
	return domainauth.Claims{
		UID:      c.Subject,
		Email:    c.Email,
		Role:     role,
		AuthTime: c.AuthTime,
		Expires:  exp,
		Raw: map[string]any{
			"email_verified":  c.EmailVerified,
			account.RoleClaim: string(role),
		},
	}, nil
}

// VerifyIDToken verifies a dev ID token.
func (p *Provider) VerifyIDToken(_ context.Context, idToken string, checkRevoked bool) (domainauth.Claims, error) {
	return p.verify(idToken, kindIDToken, checkRevoked)
}

// VerifySessionCookie verifies a dev session cookie.
func (p *Provider) VerifySessionCookie(_ context.Context, cookie string, checkRevoked bool) (domainauth.Claims, error) {
	return p.verify(cookie, kindSession, checkRevoked)
}

// CreateSessionCookie exchanges a valid ID token for a session cookie carrying the same auth_time.
func (p *Provider) CreateSessionCookie(_ context.Context, idToken string, expiresIn time.Duration) (string, error) {
	c, err := p.parse(idToken, kindIDToken)
	if err != nil {
		return "", err
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	u, err := p.lookup(c.Subject)
	if err != nil {
		return "", err
	}
	return p.sign(u, kindSession, c.AuthTime, expiresIn)
}

func (p *Provider) grant(u *user) (ports.TokenGrant, error) {
	tok, err := p.sign(u, kindIDToken, p.now().Unix(), idTokenTTL)
	if err != nil {
		return ports.TokenGrant{}, err
	}
	return ports.TokenGrant{
		IDToken:       tok,
		RefreshToken:  randomToken(),
		UID:           u.acct.UID,
		Email:         u.acct.Email,
		EmailVerified: u.acct.EmailVerified,
	}, nil
}

// SignInWithPassword checks the seeded credentials.
func (p *Provider) SignInWithPassword(_ context.Context, email, password string) (ports.TokenGrant, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return ports.TokenGrant{}, domainauth.NewProviderError("auth/invalid-email", "invalid email")
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	uid, ok := p.byEmail[email]
	if !ok || p.users[uid].password != password {
		return ports.TokenGrant{}, domainauth.NewProviderError("auth/invalid-login-credentials", "invalid login credentials")
	}
	u := p.users[uid]
	if u.acct.Disabled {
		return ports.TokenGrant{}, domainauth.NewProviderError("auth/user-disabled", "user account is disabled")
	}
	u.acct.LastSignInAt = p.now().UTC()
	return p.grant(u)
}

// SignUp creates a password account with the default role and an unverified email.
func (p *Provider) SignUp(ctx context.Context, email, password string) (ports.TokenGrant, error) {
	if _, err := p.AddUser(UserSeed{Email: email, Password: password}); err != nil {
		var pe *domainauth.ProviderError
		if errors.As(err, &pe) && pe.Code == "auth/email-already-exists" {
			return ports.TokenGrant{}, domainauth.NewProviderError("auth/email-already-in-use", pe.Message)
		}
		return ports.TokenGrant{}, err
	}
	return p.SignInWithPassword(ctx, email, password)
}

// SendEmailVerification marks the token's account verified; there is no mail transport in development.
func (p *Provider) SendEmailVerification(_ context.Context, idToken string) error {
	c, err := p.parse(idToken, kindIDToken)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	u, err := p.lookup(c.Subject)
	if err != nil {
		return err
	}
	u.verificationsSent++
	u.acct.EmailVerified = true
	return nil
}

// VerificationsSent reports how many verification emails were requested for uid.
func (p *Provider) VerificationsSent(uid string) int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if u, ok := p.users[uid]; ok {
		return u.verificationsSent
	}
	return 0
}

// SignInWithIdP accepts assertions minted by Federated and signs the matching account in.
func (p *Provider) SignInWithIdP(_ context.Context, in ports.IdPAssertion) (ports.TokenGrant, error) {
	if in.ProviderID != FederatedProviderID {
		return ports.TokenGrant{}, domainauth.NewProviderError("auth/operation-not-allowed", in.ProviderID+" sign-in is not enabled")
	}
	c, err := p.parse(in.IDToken, kindIDToken)
	if err != nil {
		return ports.TokenGrant{}, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	u, err := p.lookup(c.Subject)
	if err != nil {
		return ports.TokenGrant{}, err
	}
	if u.acct.Disabled {
		return ports.TokenGrant{}, domainauth.NewProviderError("auth/user-disabled", "user account is disabled")
	}
	u.acct.LastSignInAt = p.now().UTC()
	return p.grant(u)
}

// firstAdmin returns the earliest-created admin account, falling back to the first account.
func (p *Provider) firstAdmin() (*user, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	ids := append([]string(nil), p.order...)
	sort.SliceStable(ids, func(i, j int) bool {
		return p.users[ids[i]].acct.Role() == account.RoleAdmin && p.users[ids[j]].acct.Role() != account.RoleAdmin
	})
	if len(ids) == 0 {
		return nil, false
	}
	return p.users[ids[0]], true
}

func cloneAccount(a account.Account) account.Account {
	out := a
	if a.CustomClaims != nil {
		out.CustomClaims = make(map[string]any, len(a.CustomClaims))
		for k, v := range a.CustomClaims {
			out.CustomClaims[k] = v
		}
	}
	out.ProviderIDs = append([]string(nil), a.ProviderIDs...)
	return out
}

func randomToken() string {
	b := make([]byte, 24)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}
