package devauth

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/ternsecure/tern-admin/internal/ports"
)

// FederatedProviderID names the dev upstream in federated routes.
const FederatedProviderID = "dev"

var _ ports.FederatedProvider = (*Federated)(nil)

// Federated short-circuits the OIDC redirect by sending the browser straight back to
// our own callback. Exchange signs in the first admin account.
type Federated struct {
	p *Provider
}

// NewFederated wraps p as a federated upstream.
func NewFederated(p *Provider) *Federated { return &Federated{p: p} }

func (f *Federated) ProviderID() string { return FederatedProviderID }

// Begin returns the local callback URL with fresh state and nonce.
func (f *Federated) Begin(_ context.Context, in ports.BeginInput) (string, string, string, error) {
	state := randomToken()
	nonce := randomToken()
	callback := in.RedirectURL
	if callback == "" {
		callback = "/auth/federated/dev/callback"
	}
	return fmt.Sprintf("%s?code=dev&state=%s", callback, url.QueryEscape(state)), state, nonce, nil
}

// Exchange ignores the code and returns an ID token for the first admin account.
func (f *Federated) Exchange(_ context.Context, in ports.ExchangeInput) (ports.FederatedIdentity, error) {
	if in.State == "" {
		return ports.FederatedIdentity{}, errors.New("state is required")
	}
	u, ok := f.p.firstAdmin()
	if !ok {
		return ports.FederatedIdentity{}, errors.New("dev auth: no accounts configured")
	}
	f.p.mu.RLock()
	tok, err := f.p.sign(u, kindIDToken, f.p.now().Unix(), idTokenTTL)
	uid, email := u.acct.UID, u.acct.Email
	f.p.mu.RUnlock()
	if err != nil {
		return ports.FederatedIdentity{}, err
	}
	return ports.FederatedIdentity{Subject: uid, Email: email, RawIDToken: tok}, nil
}
