// Package firebaseauth adapts the Firebase Admin SDK to ports.IdentityProvider.
package firebaseauth

import (
	"context"
	"errors"
	"fmt"
	"time"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"github.com/ternsecure/tern-admin/internal/domain/account"
	domainauth "github.com/ternsecure/tern-admin/internal/domain/auth"
	"github.com/ternsecure/tern-admin/internal/ports"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// maxPageSize is the Admin SDK's upper bound for one listUsers call.
const maxPageSize = 1000

var _ ports.IdentityProvider = (*Provider)(nil)

// authClient is the subset of *auth.Client the provider calls.
type authClient interface {
	GetUser(ctx context.Context, uid string) (*auth.UserRecord, error)
	UpdateUser(ctx context.Context, uid string, user *auth.UserToUpdate) (*auth.UserRecord, error)
	DeleteUser(ctx context.Context, uid string) error
	SetCustomUserClaims(ctx context.Context, uid string, customClaims map[string]interface{}) error
	SessionCookie(ctx context.Context, idToken string, expiresIn time.Duration) (string, error)
	VerifySessionCookie(ctx context.Context, sessionCookie string) (*auth.Token, error)
	VerifySessionCookieAndCheckRevoked(ctx context.Context, sessionCookie string) (*auth.Token, error)
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
	VerifyIDTokenAndCheckRevoked(ctx context.Context, idToken string) (*auth.Token, error)
	RevokeRefreshTokens(ctx context.Context, uid string) error
}

// pageFunc fetches one page of exported user records.
type pageFunc func(ctx context.Context, pageSize int, pageToken string) ([]*auth.ExportedUserRecord, string, error)

// Config selects the Firebase project and credentials.
type Config struct {
	ProjectID string
	// CredentialsFile is a service account JSON; empty uses application default credentials.
	CredentialsFile string
}

// Provider implements ports.IdentityProvider over the Admin SDK.
type Provider struct {
	client authClient
	pages  pageFunc
}

// New initialises the Admin SDK app and its auth client.
func New(ctx context.Context, cfg Config, opts ...option.ClientOption) (*Provider, error) {
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	var fbCfg *firebase.Config
	if cfg.ProjectID != "" {
		fbCfg = &firebase.Config{ProjectID: cfg.ProjectID}
	}
	app, err := firebase.NewApp(ctx, fbCfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase new app: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase auth client: %w", err)
	}
	return &Provider{client: client, pages: pagerFor(client)}, nil
}

// pagerFor pages users through the SDK iterator.
func pagerFor(client *auth.Client) pageFunc {
	return func(ctx context.Context, pageSize int, pageToken string) ([]*auth.ExportedUserRecord, string, error) {
		var users []*auth.ExportedUserRecord
		pager := iterator.NewPager(client.Users(ctx, ""), pageSize, pageToken)
		next, err := pager.NextPage(&users)
		if err != nil {
			return nil, "", err
		}
		return users, next, nil
	}
}

// GetUser fetches one account.
func (p *Provider) GetUser(ctx context.Context, uid string) (account.Account, error) {
	rec, err := p.client.GetUser(ctx, uid)
	if err != nil {
		return account.Account{}, mapError("get user", err)
	}
	return toAccount(rec), nil
}

// ListUsers returns one page of accounts.
func (p *Provider) ListUsers(ctx context.Context, pageSize int, pageToken string) (account.Page, error) {
	if pageSize <= 0 || pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	recs, next, err := p.pages(ctx, pageSize, pageToken)
	if err != nil {
		return account.Page{}, mapError("list users", err)
	}
	page := account.Page{Accounts: make([]account.Account, 0, len(recs)), NextPageToken: next}
	for _, r := range recs {
		if r == nil || r.UserRecord == nil {
			continue
		}
		page.Accounts = append(page.Accounts, toAccount(r.UserRecord))
	}
	return page, nil
}

// SetDisabled flips the account's disabled flag.
func (p *Provider) SetDisabled(ctx context.Context, uid string, disabled bool) error {
	if _, err := p.client.UpdateUser(ctx, uid, (&auth.UserToUpdate{}).Disabled(disabled)); err != nil {
		return mapError("update user", err)
	}
	return nil
}

// DeleteUser removes the account.
func (p *Provider) DeleteUser(ctx context.Context, uid string) error {
	if err := p.client.DeleteUser(ctx, uid); err != nil {
		return mapError("delete user", err)
	}
	return nil
}

// SetCustomUserClaims replaces the account's custom claims.
func (p *Provider) SetCustomUserClaims(ctx context.Context, uid string, claims map[string]any) error {
	if err := p.client.SetCustomUserClaims(ctx, uid, claims); err != nil {
		return mapError("set custom claims", err)
	}
	return nil
}

// CreateSessionCookie exchanges an ID token for a session cookie.
func (p *Provider) CreateSessionCookie(ctx context.Context, idToken string, expiresIn time.Duration) (string, error) {
	cookie, err := p.client.SessionCookie(ctx, idToken, expiresIn)
	if err != nil {
		return "", mapError("create session cookie", err)
	}
	return cookie, nil
}

// VerifySessionCookie verifies a session cookie, optionally against revocation and disabled state.
func (p *Provider) VerifySessionCookie(ctx context.Context, cookie string, checkRevoked bool) (domainauth.Claims, error) {
	verify := p.client.VerifySessionCookie
	if checkRevoked {
		verify = p.client.VerifySessionCookieAndCheckRevoked
	}
	tok, err := verify(ctx, cookie)
	if err != nil {
		return domainauth.Claims{}, mapError("verify session cookie", err)
	}
	return toClaims(tok), nil
}

// VerifyIDToken verifies an ID token, optionally against revocation and disabled state.
func (p *Provider) VerifyIDToken(ctx context.Context, idToken string, checkRevoked bool) (domainauth.Claims, error) {
	verify := p.client.VerifyIDToken
	if checkRevoked {
		verify = p.client.VerifyIDTokenAndCheckRevoked
	}
	tok, err := verify(ctx, idToken)
	if err != nil {
		return domainauth.Claims{}, mapError("verify id token", err)
	}
	return toClaims(tok), nil
}

// RevokeRefreshTokens invalidates the account's refresh tokens and outstanding sessions.
func (p *Provider) RevokeRefreshTokens(ctx context.Context, uid string) error {
	if err := p.client.RevokeRefreshTokens(ctx, uid); err != nil {
		return mapError("revoke refresh tokens", err)
	}
	return nil
}

func toAccount(rec *auth.UserRecord) account.Account {
	var a account.Account
	if rec == nil {
		return a
	}
	if rec.UserInfo != nil {
		a.UID = rec.UID
		a.Email = rec.Email
		a.DisplayName = rec.DisplayName
	}
	a.Disabled = rec.Disabled
	a.EmailVerified = rec.EmailVerified
	if len(rec.CustomClaims) > 0 {
		a.CustomClaims = make(map[string]any, len(rec.CustomClaims))
		for k, v := range rec.CustomClaims {
			a.CustomClaims[k] = v
		}
	}
	for _, pi := range rec.ProviderUserInfo {
		if pi != nil && pi.ProviderID != "" {
			a.ProviderIDs = append(a.ProviderIDs, pi.ProviderID)
		}
	}
	if md := rec.UserMetadata; md != nil {
		a.CreatedAt = millis(md.CreationTimestamp)
		a.LastSignInAt = millis(md.LastLogInTimestamp)
	}
	return a
}

func millis(ms int64) time.Time {
	if ms <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

func toClaims(tok *auth.Token) domainauth.Claims {
	c := domainauth.Claims{
		UID:      tok.UID,
		AuthTime: tok.AuthTime,
		Expires:  tok.Expires,
		Raw:      tok.Claims,
		Role:     account.RoleFromClaims(tok.Claims),
	}
	if email, ok := tok.Claims["email"].(string); ok {
		c.Email = email
	}
	return c
}

// errorReasons maps Admin SDK error predicates to provider reason codes, checked in order.
var errorReasons = []struct {
	is     func(error) bool
	reason string
}{
	{auth.IsUserNotFound, "auth/user-not-found"},
	{auth.IsUserDisabled, "auth/user-disabled"},
	{auth.IsIDTokenRevoked, "auth/id-token-revoked"},
	{auth.IsIDTokenExpired, "auth/id-token-expired"},
	{auth.IsIDTokenInvalid, "auth/invalid-id-token"},
	{auth.IsSessionCookieRevoked, "auth/session-cookie-revoked"},
	{auth.IsSessionCookieExpired, "auth/session-cookie-expired"},
	{auth.IsSessionCookieInvalid, "auth/invalid-session-cookie"},
	{auth.IsEmailAlreadyExists, "auth/email-already-exists"},
}

// mapError converts SDK errors to *domainauth.ProviderError when the reason is known.
// Context errors and unrecognised failures are wrapped unchanged.
func mapError(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("firebase %s: %w", op, err)
	}
	for _, r := range errorReasons {
		if r.is(err) {
			return fmt.Errorf("firebase %s: %w", op, domainauth.NewProviderError(r.reason, err.Error()))
		}
	}
	return fmt.Errorf("firebase %s: %w", op, err)
}
