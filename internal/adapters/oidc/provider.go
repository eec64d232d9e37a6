// Package oidc implements federated sign-in upstreams (Google, Microsoft) over OpenID Connect.
//
// The adapter only runs the authorization-code leg. The verified upstream ID token is handed to
// the identity provider's IdP sign-in so the hosted account store stays the source of truth.
package oidc

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	"github.com/ternsecure/tern-admin/internal/ports"
	"golang.org/x/oauth2"
)

// Well-known federated provider IDs, as the identity toolkit names them.
const (
	ProviderGoogle    = "google.com"
	ProviderMicrosoft = "microsoft.com"
)

var _ ports.FederatedProvider = (*Provider)(nil)

// Provider implements ports.FederatedProvider using OIDC/OAuth2.
type Provider struct {
	id     string
	config *oauth2.Config
	client *http.Client

	oidcProvider *gooidc.Provider
	verifier     *gooidc.IDTokenVerifier
}

// ProviderConfig holds configuration for one OIDC upstream.
type ProviderConfig struct {
	// ProviderID is the identity toolkit provider id, e.g. "google.com".
	ProviderID   string
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scope        string
	DiscoveryURL string
	// SkipIssuerCheck accepts multi-tenant issuers whose discovery document carries a
	// templated issuer (Microsoft "common").
	SkipIssuerCheck bool
	HTTPClient      *http.Client // Optional, defaults to a client with a 30s timeout
}

// NewProvider runs discovery and builds the OAuth2 client.
func NewProvider(ctx context.Context, config ProviderConfig) (*Provider, error) {
	switch {
	case config.ProviderID == "":
		return nil, errors.New("provider ID is required")
	case config.ClientID == "":
		return nil, errors.New("client ID is required")
	case config.ClientSecret == "":
		return nil, errors.New("client secret is required")
	case config.RedirectURL == "":
		return nil, errors.New("redirect URL is required")
	case config.DiscoveryURL == "":
		return nil, errors.New("discovery URL is required")
	}

	client := config.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	issuer := strings.TrimSuffix(config.DiscoveryURL, "/")
	issuer = strings.TrimSuffix(issuer, "/.well-known/openid-configuration")

	dctx := gooidc.ClientContext(ctx, client)
	if config.SkipIssuerCheck {
		dctx = gooidc.InsecureIssuerURLContext(dctx, issuer)
	}
	op, err := gooidc.NewProvider(dctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc discovery for %s: %w", config.ProviderID, err)
	}

	scopes := strings.Fields(config.Scope)
	if !slices.Contains(scopes, gooidc.ScopeOpenID) {
		scopes = append([]string{gooidc.ScopeOpenID}, scopes...)
	}

	return &Provider{
		id:     config.ProviderID,
		client: client,
		config: &oauth2.Config{
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			RedirectURL:  config.RedirectURL,
			Scopes:       scopes,
			Endpoint:     op.Endpoint(),
		},
		oidcProvider: op,
		verifier: op.Verifier(&gooidc.Config{
			ClientID:        config.ClientID,
			SkipIssuerCheck: config.SkipIssuerCheck,
		}),
	}, nil
}

// ProviderID returns the identity toolkit provider id.
func (p *Provider) ProviderID() string { return p.id }

// Begin builds the authorization URL with fresh state and nonce. The redirect URI is the
// configured one; in.RedirectURL only has to be non-empty.
func (p *Provider) Begin(_ context.Context, in ports.BeginInput) (string, string, string, error) {
	if in.RedirectURL == "" {
		return "", "", "", errors.New("redirect URL is required")
	}
	state, err := generateRandomString(32)
	if err != nil {
		return "", "", "", fmt.Errorf("generate state: %w", err)
	}
	nonce, err := generateRandomString(32)
	if err != nil {
		return "", "", "", fmt.Errorf("generate nonce: %w", err)
	}

	authURL := p.config.AuthCodeURL(state,
		gooidc.Nonce(nonce),
		oauth2.SetAuthURLParam("prompt", "select_account"),
	)
	return authURL, state, nonce, nil
}

// Exchange trades the code for tokens and verifies the returned ID token against the nonce.
func (p *Provider) Exchange(ctx context.Context, in ports.ExchangeInput) (ports.FederatedIdentity, error) {
	switch {
	case in.Code == "":
		return ports.FederatedIdentity{}, errors.New("authorization code is required")
	case in.State == "":
		return ports.FederatedIdentity{}, errors.New("state is required")
	case in.Nonce == "":
		return ports.FederatedIdentity{}, errors.New("nonce is required")
	}

	ctx = gooidc.ClientContext(ctx, p.client)
	token, err := p.config.Exchange(ctx, in.Code)
	if err != nil {
		return ports.FederatedIdentity{}, fmt.Errorf("exchange code for token: %w", err)
	}
	rawID, err := getIDTokenFromToken(token)
	if err != nil {
		return ports.FederatedIdentity{}, err
	}
	idTok, err := p.verifier.Verify(ctx, rawID)
	if err != nil {
		return ports.FederatedIdentity{}, fmt.Errorf("verify id_token: %w", err)
	}

	var claims idTokenClaims
	if err := idTok.Claims(&claims); err != nil {
		return ports.FederatedIdentity{}, fmt.Errorf("parse id_token claims: %w", err)
	}
	if claims.Nonce != in.Nonce {
		return ports.FederatedIdentity{}, errors.New("invalid nonce")
	}

	id := ports.FederatedIdentity{
		Subject:    idTok.Subject,
		Email:      firstNonEmpty(claims.Email, claims.PreferredUsername),
		RawIDToken: rawID,
	}
	if id.Email == "" && token.AccessToken != "" {
		if email, uerr := p.userInfoEmail(ctx, token); uerr == nil {
			id.Email = email
		}
	}
	return id, nil
}

func (p *Provider) userInfoEmail(ctx context.Context, tok *oauth2.Token) (string, error) {
	ui, err := p.oidcProvider.UserInfo(ctx, oauth2.StaticTokenSource(tok))
	if err != nil {
		return "", fmt.Errorf("fetch user info: %w", err)
	}
	return ui.Email, nil
}

// idTokenClaims covers the Google and Microsoft claim shapes we read.
type idTokenClaims struct {
	Email             string `json:"email"`
	PreferredUsername string `json:"preferred_username"`
	Nonce             string `json:"nonce"`
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// generateRandomString returns a URL-safe random string of exactly length characters.
func generateRandomString(length int) (string, error) {
	if length <= 0 {
		return "", nil
	}
	b := make([]byte, (length*3+3)/4+1)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b)[:length], nil
}

func getIDTokenFromToken(tok *oauth2.Token) (string, error) {
	if tok == nil {
		return "", errors.New("nil token")
	}
	s, ok := tok.Extra("id_token").(string)
	if !ok || s == "" {
		return "", errors.New("missing id_token in token response")
	}
	return s, nil
}
