// Package identitytoolkit implements ports.PasswordAuthenticator against the Google identity toolkit
// relying-party API: the same endpoints the browser SDK calls for password and IdP sign-in.
package identitytoolkit

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"

	domainauth "github.com/ternsecure/tern-admin/internal/domain/auth"
	"github.com/ternsecure/tern-admin/internal/ports"
	"google.golang.org/api/googleapi"
	itk "google.golang.org/api/identitytoolkit/v3"
	"google.golang.org/api/option"
)

var _ ports.PasswordAuthenticator = (*Client)(nil)

// Config carries the web API key and the referer the key is restricted to.
type Config struct {
	APIKey  string
	Referer string
	// RequestURI is sent with IdP assertions; defaults to Referer.
	RequestURI string
}

// Client calls the relying-party endpoints.
type Client struct {
	rp         *itk.RelyingpartyService
	referer    string
	requestURI string
}

// New builds a client. Extra options come after the API key so tests can redirect the endpoint.
func New(ctx context.Context, cfg Config, opts ...option.ClientOption) (*Client, error) {
	if cfg.APIKey == "" && len(opts) == 0 {
		return nil, errors.New("identity toolkit: API key is required")
	}
	all := make([]option.ClientOption, 0, len(opts)+1)
	if cfg.APIKey != "" {
		all = append(all, option.WithAPIKey(cfg.APIKey))
	}
	all = append(all, opts...)
	svc, err := itk.NewService(ctx, all...)
	if err != nil {
		return nil, fmt.Errorf("identity toolkit service: %w", err)
	}
	reqURI := cfg.RequestURI
	if reqURI == "" {
		reqURI = cfg.Referer
	}
	if reqURI == "" {
		reqURI = "http://localhost"
	}
	return &Client{rp: svc.Relyingparty, referer: cfg.Referer, requestURI: reqURI}, nil
}

// headerer is satisfied by every generated call type.
type headerer interface {
	Header() http.Header
}

// withReferer sets the Referer so HTTP-referrer restrictions on the API key pass.
func (c *Client) withReferer(call headerer) {
	if c.referer != "" {
		call.Header().Set("Referer", c.referer)
	}
}

// SignInWithPassword verifies the credentials and looks up the email verification state.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (ports.TokenGrant, error) {
	call := c.rp.VerifyPassword(&itk.IdentitytoolkitRelyingpartyVerifyPasswordRequest{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	})
	c.withReferer(call)
	resp, err := call.Context(ctx).Do()
	if err != nil {
		return ports.TokenGrant{}, mapError("verify password", err)
	}
	grant := ports.TokenGrant{
		IDToken:      resp.IdToken,
		RefreshToken: resp.RefreshToken,
		UID:          resp.LocalId,
		Email:        resp.Email,
	}
	verified, err := c.emailVerified(ctx, resp.IdToken)
	if err != nil {
		return ports.TokenGrant{}, err
	}
	grant.EmailVerified = verified
	return grant, nil
}

func (c *Client) emailVerified(ctx context.Context, idToken string) (bool, error) {
	call := c.rp.GetAccountInfo(&itk.IdentitytoolkitRelyingpartyGetAccountInfoRequest{IdToken: idToken})
	c.withReferer(call)
	resp, err := call.Context(ctx).Do()
	if err != nil {
		return false, mapError("get account info", err)
	}
	if len(resp.Users) == 0 {
		return false, domainauth.NewProviderError("auth/user-not-found", "no account for token")
	}
	return resp.Users[0].EmailVerified, nil
}

// SignUp creates a password account. New accounts are never verified.
func (c *Client) SignUp(ctx context.Context, email, password string) (ports.TokenGrant, error) {
	call := c.rp.SignupNewUser(&itk.IdentitytoolkitRelyingpartySignupNewUserRequest{
		Email:    email,
		Password: password,
	})
	c.withReferer(call)
	resp, err := call.Context(ctx).Do()
	if err != nil {
		return ports.TokenGrant{}, mapError("sign up", err)
	}
	return ports.TokenGrant{
		IDToken:      resp.IdToken,
		RefreshToken: resp.RefreshToken,
		UID:          resp.LocalId,
		Email:        resp.Email,
	}, nil
}

// SendEmailVerification asks the provider to mail a verification link to the token's account.
func (c *Client) SendEmailVerification(ctx context.Context, idToken string) error {
	call := c.rp.GetOobConfirmationCode(&itk.Relyingparty{
		RequestType: "VERIFY_EMAIL",
		IdToken:     idToken,
	})
	c.withReferer(call)
	if _, err := call.Context(ctx).Do(); err != nil {
		return mapError("send verification", err)
	}
	return nil
}

// SignInWithIdP exchanges an upstream ID token for a provider ID token.
func (c *Client) SignInWithIdP(ctx context.Context, in ports.IdPAssertion) (ports.TokenGrant, error) {
	body := url.Values{}
	body.Set("id_token", in.IDToken)
	body.Set("providerId", in.ProviderID)
	reqURI := in.RequestURI
	if reqURI == "" {
		reqURI = c.requestURI
	}
	call := c.rp.VerifyAssertion(&itk.IdentitytoolkitRelyingpartyVerifyAssertionRequest{
		PostBody:          body.Encode(),
		RequestUri:        reqURI,
		ReturnSecureToken: true,
	})
	c.withReferer(call)
	resp, err := call.Context(ctx).Do()
	if err != nil {
		return ports.TokenGrant{}, mapError("verify assertion", err)
	}
	if resp.ErrorMessage != "" {
		return ports.TokenGrant{}, mapError("verify assertion", errors.New(resp.ErrorMessage))
	}
	return ports.TokenGrant{
		IDToken:       resp.IdToken,
		RefreshToken:  resp.RefreshToken,
		UID:           resp.LocalId,
		Email:         resp.Email,
		EmailVerified: resp.EmailVerified,
	}, nil
}

// apiReasons maps relying-party error messages to provider reason codes.
var apiReasons = map[string]string{
	"EMAIL_NOT_FOUND":             "auth/user-not-found",
	"USER_NOT_FOUND":              "auth/user-not-found",
	"INVALID_PASSWORD":            "auth/wrong-password",
	"INVALID_LOGIN_CREDENTIALS":   "auth/invalid-login-credentials",
	"INVALID_IDP_RESPONSE":        "auth/invalid-credential",
	"USER_DISABLED":               "auth/user-disabled",
	"TOO_MANY_ATTEMPTS_TRY_LATER": "auth/too-many-requests",
	"EMAIL_EXISTS":                "auth/email-already-in-use",
	"WEAK_PASSWORD":               "auth/weak-password",
	"OPERATION_NOT_ALLOWED":       "auth/operation-not-allowed",
	"INVALID_EMAIL":               "auth/invalid-email",
	"INVALID_ID_TOKEN":            "auth/invalid-id-token",
	"TOKEN_EXPIRED":               "auth/user-token-expired",
}

// mapError converts API failures to *domainauth.ProviderError where the reason is recognisable.
func mapError(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("identity toolkit %s: %w", op, err)
	}

	msg := err.Error()
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		msg = gerr.Message
	}
	reason := strings.TrimSpace(msg)
	if i := strings.Index(reason, " : "); i >= 0 {
		reason = reason[:i]
	}
	if code, ok := apiReasons[reason]; ok {
		return fmt.Errorf("identity toolkit %s: %w", op, domainauth.NewProviderError(code, msg))
	}

	var nerr net.Error
	if errors.As(err, &nerr) {
		return fmt.Errorf("identity toolkit %s: %w", op, domainauth.NewProviderError("auth/network-request-failed", msg))
	}
	return fmt.Errorf("identity toolkit %s: %w", op, err)
}
