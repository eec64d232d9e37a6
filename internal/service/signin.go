package service

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	domainauth "github.com/ternsecure/tern-admin/internal/domain/auth"
	apperrors "github.com/ternsecure/tern-admin/internal/errors"
	"github.com/ternsecure/tern-admin/internal/observability/metrics"
	"github.com/ternsecure/tern-admin/internal/ports"
)

// Sign-in method labels.
const (
	MethodPassword = "password"
	MethodSignUp   = "signup"
	MethodResend   = "resend"
	// MethodUnknown labels callbacks for providers that are not configured.
	MethodUnknown = "unknown"
)

// SignInExtras holds the optional collaborators of SignInService.
type SignInExtras struct {
	Federated []ports.FederatedProvider
	Logger    *slog.Logger
	Metrics   *metrics.Metrics
}

// SignInServiceOptions groups dependencies for SignInService.
type SignInServiceOptions struct {
	Passwords ports.PasswordAuthenticator // Required
	Sessions  *SessionService             // Required
	Extras    SignInExtras
}

// SignInService runs the password and federated sign-in flows and hands the resulting
// ID token to the session manager.
type SignInService struct {
	passwords ports.PasswordAuthenticator
	sessions  *SessionService
	federated map[string]ports.FederatedProvider
	order     []string
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

// NewSignInService constructs a SignInService.
func NewSignInService(opts SignInServiceOptions) *SignInService {
	if opts.Passwords == nil {
		panic("sign-in service: Passwords is required")
	}
	if opts.Sessions == nil {
		panic("sign-in service: Sessions is required")
	}
	logger := opts.Extras.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &SignInService{
		passwords: opts.Passwords,
		sessions:  opts.Sessions,
		federated: make(map[string]ports.FederatedProvider, len(opts.Extras.Federated)),
		logger:    logger.With("component", "signin"),
		metrics:   opts.Extras.Metrics,
	}
	for _, p := range opts.Extras.Federated {
		if p == nil {
			continue
		}
		if _, dup := s.federated[p.ProviderID()]; !dup {
			s.order = append(s.order, p.ProviderID())
		}
		s.federated[p.ProviderID()] = p
	}
	return s
}

// FederatedProviders lists the configured federated provider IDs in registration order.
func (s *SignInService) FederatedProviders() []string {
	return append([]string(nil), s.order...)
}

// timeout bounds one outbound provider call with the session call timeout.
func (s *SignInService) timeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return s.sessions.timeout(ctx)
}

func (s *SignInService) signInWithPassword(ctx context.Context, email, password string) (ports.TokenGrant, error) {
	cctx, cancel := s.timeout(ctx)
	defer cancel()
	return s.passwords.SignInWithPassword(cctx, strings.TrimSpace(email), password)
}

func (s *SignInService) sendVerification(ctx context.Context, idToken string) error {
	cctx, cancel := s.timeout(ctx)
	defer cancel()
	return s.passwords.SendEmailVerification(cctx, idToken)
}

func validateCredentials(email, password string) (domainauth.Code, bool) {
	if _, err := mail.ParseAddress(strings.TrimSpace(email)); err != nil {
		return domainauth.CodeInvalidEmail, false
	}
	if password == "" {
		return domainauth.CodeInvalidCredentials, false
	}
	return "", true
}

func requiresVerification() domainauth.SignInOutcome {
	return domainauth.SignInOutcome{
		Result:               domainauth.Fail(domainauth.CodeRequiresVerification),
		RequiresVerification: true,
	}
}

func (s *SignInService) failed(ctx context.Context, method string, err error) domainauth.SignInOutcome {
	code := domainauth.ClassifyError(err)
	s.metrics.ObserveSignIn(method, string(code))
	if code == domainauth.CodeInternal {
		s.logger.ErrorContext(ctx, "sign-in failed", "method", method, "error", err)
	} else {
		s.logger.InfoContext(ctx, "sign-in rejected", "method", method, "code", code)
	}
	return domainauth.SignInOutcome{Result: domainauth.Fail(code)}
}

// SignInWithEmail signs in with a password. An unverified email stops short of a session
// with REQUIRES_VERIFICATION so the caller can offer a resend.
func (s *SignInService) SignInWithEmail(ctx context.Context, jar ports.CookieJar, email, password string) domainauth.SignInOutcome {
	if code, ok := validateCredentials(email, password); !ok {
		s.metrics.ObserveSignIn(MethodPassword, string(code))
		return domainauth.SignInOutcome{Result: domainauth.Fail(code)}
	}
	grant, err := s.signInWithPassword(ctx, email, password)
	if err != nil {
		return s.failed(ctx, MethodPassword, err)
	}
	if !grant.EmailVerified {
		s.metrics.ObserveSignIn(MethodPassword, string(domainauth.CodeRequiresVerification))
		return requiresVerification()
	}
	res := s.sessions.SetServerSession(ctx, jar, grant.IDToken)
	s.metrics.ObserveSignIn(MethodPassword, string(res.Code))
	return domainauth.SignInOutcome{Result: res}
}

// SignUp creates a password account and sends the verification email.
func (s *SignInService) SignUp(ctx context.Context, email, password string) domainauth.SignInOutcome {
	if code, ok := validateCredentials(email, password); !ok {
		s.metrics.ObserveSignIn(MethodSignUp, string(code))
		return domainauth.SignInOutcome{Result: domainauth.Fail(code)}
	}
	cctx, cancel := s.timeout(ctx)
	grant, err := s.passwords.SignUp(cctx, strings.TrimSpace(email), password)
	cancel()
	if err != nil {
		return s.failed(ctx, MethodSignUp, err)
	}
	if err := s.sendVerification(ctx, grant.IDToken); err != nil {
		return s.failed(ctx, MethodSignUp, fmt.Errorf("send verification: %w", err))
	}
	s.metrics.ObserveSignIn(MethodSignUp, string(domainauth.CodeRequiresVerification))
	out := requiresVerification()
	out.Success = true
	out.UID = grant.UID
	return out
}

// ResendVerification re-authenticates and sends another verification email.
func (s *SignInService) ResendVerification(ctx context.Context, email, password string) domainauth.Result {
	if code, ok := validateCredentials(email, password); !ok {
		return domainauth.Fail(code)
	}
	grant, err := s.signInWithPassword(ctx, email, password)
	if err != nil {
		return s.failed(ctx, MethodResend, err).Result
	}
	if grant.EmailVerified {
		return domainauth.OK(grant.UID).WithMessage("Email already verified")
	}
	if err := s.sendVerification(ctx, grant.IDToken); err != nil {
		return s.failed(ctx, MethodResend, err).Result
	}
	s.metrics.ObserveSignIn(MethodResend, "")
	return domainauth.OK(grant.UID).WithMessage("Verification email sent")
}

// FederatedStart is the redirect target plus the values the callback must echo.
type FederatedStart struct {
	AuthURL string
	State   string
	Nonce   string
}

// BeginFederated starts the OIDC flow for providerID.
func (s *SignInService) BeginFederated(ctx context.Context, providerID, redirectURL string) (FederatedStart, error) {
	p, ok := s.federated[providerID]
	if !ok {
		return FederatedStart{}, apperrors.NotFoundf("unknown sign-in provider %q", providerID)
	}
	cctx, cancel := s.timeout(ctx)
	defer cancel()
	authURL, state, nonce, err := p.Begin(cctx, ports.BeginInput{RedirectURL: redirectURL})
	if err != nil {
		return FederatedStart{}, fmt.Errorf("begin %s sign-in: %w", providerID, err)
	}
	return FederatedStart{AuthURL: authURL, State: state, Nonce: nonce}, nil
}

// FederatedCallback carries the callback parameters and the values saved by BeginFederated.
type FederatedCallback struct {
	Code          string
	State         string
	ExpectedState string
	Nonce         string
	RequestURI    string
}

// CompleteFederated finishes the OIDC flow, exchanges the upstream ID token with the
// identity provider and establishes the session.
func (s *SignInService) CompleteFederated(
	ctx context.Context,
	jar ports.CookieJar,
	providerID string,
	cb FederatedCallback,
) domainauth.SignInOutcome {
	p, ok := s.federated[providerID]
	if !ok {
		s.metrics.ObserveSignIn(MethodUnknown, string(domainauth.CodeOperationNotAllowed))
		return domainauth.SignInOutcome{Result: domainauth.Fail(domainauth.CodeOperationNotAllowed)}
	}
	if cb.State == "" || cb.ExpectedState == "" ||
		subtle.ConstantTimeCompare([]byte(cb.State), []byte(cb.ExpectedState)) != 1 {
		s.metrics.ObserveSignIn(providerID, string(domainauth.CodeInvalidToken))
		return domainauth.SignInOutcome{Result: domainauth.Fail(domainauth.CodeInvalidToken)}
	}

	xctx, cancel := s.timeout(ctx)
	id, err := p.Exchange(xctx, ports.ExchangeInput{Code: cb.Code, State: cb.State, Nonce: cb.Nonce})
	cancel()
	if err != nil {
		return s.failed(ctx, providerID, fmt.Errorf("exchange code: %w", err))
	}
	ictx, cancel := s.timeout(ctx)
	grant, err := s.passwords.SignInWithIdP(ictx, ports.IdPAssertion{
		ProviderID: providerID,
		IDToken:    id.RawIDToken,
		RequestURI: cb.RequestURI,
	})
	cancel()
	if err != nil {
		return s.failed(ctx, providerID, err)
	}

	res := s.sessions.SetServerSession(ctx, jar, grant.IDToken)
	s.metrics.ObserveSignIn(providerID, string(res.Code))
	return domainauth.SignInOutcome{Result: res}
}
