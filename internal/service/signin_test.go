package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ternsecure/tern-admin/internal/adapters/devauth"
	"github.com/ternsecure/tern-admin/internal/domain/account"
	domainauth "github.com/ternsecure/tern-admin/internal/domain/auth"
	apperrors "github.com/ternsecure/tern-admin/internal/errors"
	"github.com/ternsecure/tern-admin/internal/mocks"
	authmocks "github.com/ternsecure/tern-admin/internal/mocks/auth"
	"github.com/ternsecure/tern-admin/internal/observability/metrics"
	"github.com/ternsecure/tern-admin/internal/ports"
)

type signInFixture struct {
	svc       *SignInService
	passwords *mocks.MockPasswordAuthenticator
	idp       *mocks.MockIdentityProvider
	upstream  *authmocks.MockFederatedProvider
}

func newSignInFixture(t *testing.T) *signInFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	f := &signInFixture{
		passwords: mocks.NewMockPasswordAuthenticator(ctrl),
		idp:       mocks.NewMockIdentityProvider(ctrl),
		upstream:  authmocks.NewMockFederatedProvider(),
	}
	sessions := NewSessionService(SessionServiceOptions{Provider: f.idp})
	f.svc = NewSignInService(SignInServiceOptions{
		Passwords: f.passwords,
		Sessions:  sessions,
		Extras:    SignInExtras{Federated: []ports.FederatedProvider{f.upstream}},
	})
	return f
}

// expectSession stubs the provider calls SetServerSession makes for a good token.
func (f *signInFixture) expectSession(idToken, uid string) {
	f.idp.EXPECT().VerifyIDToken(gomock.Any(), idToken, false).Return(domainauth.Claims{UID: uid}, nil)
	f.idp.EXPECT().CreateSessionCookie(gomock.Any(), idToken, gomock.Any()).Return("session-"+uid, nil)
}

func TestNewSignInService_RequiresDependencies(t *testing.T) {
	ctrl := gomock.NewController(t)
	sessions := NewSessionService(SessionServiceOptions{Provider: mocks.NewMockIdentityProvider(ctrl)})

	assert.Panics(t, func() { NewSignInService(SignInServiceOptions{Sessions: sessions}) })
	assert.Panics(t, func() {
		NewSignInService(SignInServiceOptions{Passwords: mocks.NewMockPasswordAuthenticator(ctrl)})
	})
}

func TestSignInService_FederatedProviders(t *testing.T) {
	ctrl := gomock.NewController(t)
	g := authmocks.NewMockFederatedProvider()
	ms := authmocks.NewMockFederatedProvider()
	ms.ID = "microsoft.com"
	dup := authmocks.NewMockFederatedProvider()

	svc := NewSignInService(SignInServiceOptions{
		Passwords: mocks.NewMockPasswordAuthenticator(ctrl),
		Sessions:  NewSessionService(SessionServiceOptions{Provider: mocks.NewMockIdentityProvider(ctrl)}),
		Extras:    SignInExtras{Federated: []ports.FederatedProvider{g, nil, ms, dup}},
	})

	assert.Equal(t, []string{"google.com", "microsoft.com"}, svc.FederatedProviders())
}

func TestSignInService_SignInWithEmail_Validation(t *testing.T) {
	f := newSignInFixture(t)
	ctx := context.Background()

	out := f.svc.SignInWithEmail(ctx, authmocks.NewMemoryCookieJar(nil), "not-an-email", "pw")
	assert.False(t, out.Success)
	assert.Equal(t, domainauth.CodeInvalidEmail, out.Code)

	out = f.svc.SignInWithEmail(ctx, authmocks.NewMemoryCookieJar(nil), "a@example.com", "")
	assert.Equal(t, domainauth.CodeInvalidCredentials, out.Code)
}

func TestSignInService_SignInWithEmail(t *testing.T) {
	t.Run("verified account gets a session", func(t *testing.T) {
		f := newSignInFixture(t)
		jar := authmocks.NewMemoryCookieJar(nil)

		f.passwords.EXPECT().SignInWithPassword(gomock.Any(), "a@example.com", "secret1").
			Return(ports.TokenGrant{IDToken: "tok", UID: "u1", EmailVerified: true}, nil)
		f.expectSession("tok", "u1")

		out := f.svc.SignInWithEmail(context.Background(), jar, " a@example.com ", "secret1")
		require.True(t, out.Success)
		assert.Equal(t, "u1", out.UID)
		assert.False(t, out.RequiresVerification)
		assert.Equal(t, "session-u1", jar.Cookies["_session_cookie"].Value)
		assert.Equal(t, "tok", jar.Cookies["_tern"].Value)
	})

	t.Run("unverified account stops before the session", func(t *testing.T) {
		f := newSignInFixture(t)
		jar := authmocks.NewMemoryCookieJar(nil)

		f.passwords.EXPECT().SignInWithPassword(gomock.Any(), "a@example.com", "secret1").
			Return(ports.TokenGrant{IDToken: "tok", UID: "u1"}, nil)

		out := f.svc.SignInWithEmail(context.Background(), jar, "a@example.com", "secret1")
		assert.False(t, out.Success)
		assert.True(t, out.RequiresVerification)
		assert.Equal(t, domainauth.CodeRequiresVerification, out.Code)
		assert.Empty(t, jar.Cookies)
	})

	t.Run("provider failures are classified", func(t *testing.T) {
		cases := map[string]domainauth.Code{
			"auth/wrong-password":      domainauth.CodeInvalidCredentials,
			"auth/user-disabled":       domainauth.CodeUserDisabled,
			"auth/too-many-requests":   domainauth.CodeTooManyAttempts,
			"auth/unexpected-new-code": domainauth.CodeInternal,
		}
		for reason, want := range cases {
			f := newSignInFixture(t)
			f.passwords.EXPECT().SignInWithPassword(gomock.Any(), gomock.Any(), gomock.Any()).
				Return(ports.TokenGrant{}, domainauth.NewProviderError(reason, ""))

			out := f.svc.SignInWithEmail(context.Background(), authmocks.NewMemoryCookieJar(nil), "a@example.com", "pw")
			assert.False(t, out.Success, reason)
			assert.Equal(t, want, out.Code, reason)
			assert.Equal(t, want.Message(), out.Message, reason)
		}
	})

	t.Run("bundled message", func(t *testing.T) {
		f := newSignInFixture(t)
		f.passwords.EXPECT().SignInWithPassword(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(ports.TokenGrant{}, errors.New("Firebase: Error (auth/wrong-password)."))

		out := f.svc.SignInWithEmail(context.Background(), authmocks.NewMemoryCookieJar(nil), "a@example.com", "pw")
		assert.Equal(t, domainauth.CodeInvalidCredentials, out.Code)
	})
}

func TestSignInService_SignUp(t *testing.T) {
	t.Run("sends verification", func(t *testing.T) {
		f := newSignInFixture(t)
		gomock.InOrder(
			f.passwords.EXPECT().SignUp(gomock.Any(), "new@example.com", "secret1").
				Return(ports.TokenGrant{IDToken: "tok", UID: "u9"}, nil),
			f.passwords.EXPECT().SendEmailVerification(gomock.Any(), "tok").Return(nil),
		)

		out := f.svc.SignUp(context.Background(), "new@example.com", "secret1")
		assert.True(t, out.Success)
		assert.True(t, out.RequiresVerification)
		assert.Equal(t, domainauth.CodeRequiresVerification, out.Code)
		assert.Equal(t, "u9", out.UID)
	})

	t.Run("email in use", func(t *testing.T) {
		f := newSignInFixture(t)
		f.passwords.EXPECT().SignUp(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(ports.TokenGrant{}, domainauth.NewProviderError("auth/email-already-in-use", ""))

		out := f.svc.SignUp(context.Background(), "new@example.com", "secret1")
		assert.False(t, out.Success)
		assert.Equal(t, domainauth.CodeEmailExists, out.Code)
	})

	t.Run("verification send fails", func(t *testing.T) {
		f := newSignInFixture(t)
		f.passwords.EXPECT().SignUp(gomock.Any(), gomock.Any(), gomock.Any()).Return(ports.TokenGrant{IDToken: "tok"}, nil)
		f.passwords.EXPECT().SendEmailVerification(gomock.Any(), "tok").
			Return(domainauth.NewProviderError("auth/too-many-requests", ""))

		out := f.svc.SignUp(context.Background(), "new@example.com", "secret1")
		assert.False(t, out.Success)
		assert.Equal(t, domainauth.CodeTooManyAttempts, out.Code)
	})
}

func TestSignInService_ResendVerification(t *testing.T) {
	t.Run("already verified", func(t *testing.T) {
		f := newSignInFixture(t)
		f.passwords.EXPECT().SignInWithPassword(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(ports.TokenGrant{IDToken: "tok", UID: "u1", EmailVerified: true}, nil)

		res := f.svc.ResendVerification(context.Background(), "a@example.com", "pw")
		assert.True(t, res.Success)
		assert.Equal(t, "Email already verified", res.Message)
	})

	t.Run("sends", func(t *testing.T) {
		f := newSignInFixture(t)
		f.passwords.EXPECT().SignInWithPassword(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(ports.TokenGrant{IDToken: "tok", UID: "u1"}, nil)
		f.passwords.EXPECT().SendEmailVerification(gomock.Any(), "tok").Return(nil)

		res := f.svc.ResendVerification(context.Background(), "a@example.com", "pw")
		assert.True(t, res.Success)
		assert.Equal(t, "Verification email sent", res.Message)
	})

	t.Run("bad credentials", func(t *testing.T) {
		f := newSignInFixture(t)
		f.passwords.EXPECT().SignInWithPassword(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(ports.TokenGrant{}, domainauth.NewProviderError("auth/invalid-credential", ""))

		res := f.svc.ResendVerification(context.Background(), "a@example.com", "pw")
		assert.False(t, res.Success)
		assert.Equal(t, domainauth.CodeInvalidCredentials, res.Code)
	})
}

func TestSignInService_BeginFederated(t *testing.T) {
	f := newSignInFixture(t)

	start, err := f.svc.BeginFederated(context.Background(), "google.com", "http://localhost/cb")
	require.NoError(t, err)
	assert.Equal(t, FederatedStart{AuthURL: "https://mock-idp/auth", State: "state-1", Nonce: "nonce-1"}, start)

	_, err = f.svc.BeginFederated(context.Background(), "github.com", "")
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestSignInService_CompleteFederated(t *testing.T) {
	cb := FederatedCallback{Code: "code", State: "s1", ExpectedState: "s1", Nonce: "n1", RequestURI: "http://localhost/cb"}

	t.Run("success", func(t *testing.T) {
		f := newSignInFixture(t)
		jar := authmocks.NewMemoryCookieJar(nil)
		var got ports.ExchangeInput
		f.upstream.ExchangeFunc = func(_ context.Context, in ports.ExchangeInput) (ports.FederatedIdentity, error) {
			got = in
			return ports.FederatedIdentity{Subject: "sub", Email: "g@example.com", RawIDToken: "upstream"}, nil
		}
		f.passwords.EXPECT().SignInWithIdP(gomock.Any(), ports.IdPAssertion{
			ProviderID: "google.com",
			IDToken:    "upstream",
			RequestURI: "http://localhost/cb",
		}).Return(ports.TokenGrant{IDToken: "tok", UID: "u2"}, nil)
		f.expectSession("tok", "u2")

		out := f.svc.CompleteFederated(context.Background(), jar, "google.com", cb)
		require.True(t, out.Success)
		assert.Equal(t, "u2", out.UID)
		assert.Equal(t, ports.ExchangeInput{Code: "code", State: "s1", Nonce: "n1"}, got)
		assert.Equal(t, "session-u2", jar.Cookies["_session_cookie"].Value)
	})

	t.Run("unknown provider", func(t *testing.T) {
		f := newSignInFixture(t)
		out := f.svc.CompleteFederated(context.Background(), authmocks.NewMemoryCookieJar(nil), "github.com", cb)
		assert.Equal(t, domainauth.CodeOperationNotAllowed, out.Code)
	})

	t.Run("state mismatch", func(t *testing.T) {
		f := newSignInFixture(t)
		f.upstream.ExchangeFunc = func(context.Context, ports.ExchangeInput) (ports.FederatedIdentity, error) {
			t.Fatal("exchange must not run on a state mismatch")
			return ports.FederatedIdentity{}, nil
		}
		bad := cb
		bad.State = "forged"
		out := f.svc.CompleteFederated(context.Background(), authmocks.NewMemoryCookieJar(nil), "google.com", bad)
		assert.Equal(t, domainauth.CodeInvalidToken, out.Code)

		missing := cb
		missing.ExpectedState = ""
		out = f.svc.CompleteFederated(context.Background(), authmocks.NewMemoryCookieJar(nil), "google.com", missing)
		assert.Equal(t, domainauth.CodeInvalidToken, out.Code)
	})

	t.Run("exchange failure", func(t *testing.T) {
		f := newSignInFixture(t)
		f.upstream.ExchangeFunc = func(context.Context, ports.ExchangeInput) (ports.FederatedIdentity, error) {
			return ports.FederatedIdentity{}, errors.New("invalid nonce")
		}
		out := f.svc.CompleteFederated(context.Background(), authmocks.NewMemoryCookieJar(nil), "google.com", cb)
		assert.False(t, out.Success)
		assert.Equal(t, domainauth.CodeInternal, out.Code)
	})

	t.Run("disabled account", func(t *testing.T) {
		f := newSignInFixture(t)
		f.passwords.EXPECT().SignInWithIdP(gomock.Any(), gomock.Any()).
			Return(ports.TokenGrant{}, domainauth.NewProviderError("auth/user-disabled", ""))

		out := f.svc.CompleteFederated(context.Background(), authmocks.NewMemoryCookieJar(nil), "google.com", cb)
		assert.Equal(t, domainauth.CodeUserDisabled, out.Code)
	})
}

func TestSignInService_DevFederatedRoundTrip(t *testing.T) {
	clock := newSteppingClock()
	p := newDevProvider(t, clock,
		devauth.UserSeed{Email: "user@example.com", Password: "secret1", EmailVerified: true},
		devauth.UserSeed{Email: "admin@example.com", Password: "secret1", Role: account.RoleAdmin, EmailVerified: true},
	)
	sessions := NewSessionService(SessionServiceOptions{Provider: p, Config: SessionConfig{CheckRevoked: true}})
	svc := NewSignInService(SignInServiceOptions{
		Passwords: p,
		Sessions:  sessions,
		Extras:    SignInExtras{Federated: []ports.FederatedProvider{devauth.NewFederated(p)}},
	})
	ctx := context.Background()

	start, err := svc.BeginFederated(ctx, devauth.FederatedProviderID, "/auth/federated/dev/callback")
	require.NoError(t, err)

	jar := authmocks.NewMemoryCookieJar(nil)
	out := svc.CompleteFederated(ctx, jar, devauth.FederatedProviderID, FederatedCallback{
		Code:          "dev",
		State:         start.State,
		ExpectedState: start.State,
		Nonce:         start.Nonce,
	})
	require.True(t, out.Success, out.Message)
	assert.Equal(t, devauth.UIDForEmail("admin@example.com"), out.UID)

	st := sessions.RequireAdmin(ctx, jar)
	assert.True(t, st.IsValid)
	assert.Equal(t, "admin@example.com", st.Email)
}

func TestSignInService_DevSignUpThenSignIn(t *testing.T) {
	clock := newSteppingClock()
	p := newDevProvider(t, clock)
	sessions := NewSessionService(SessionServiceOptions{Provider: p})
	svc := NewSignInService(SignInServiceOptions{Passwords: p, Sessions: sessions})
	ctx := context.Background()

	out := svc.SignUp(ctx, "new@example.com", "secret1")
	require.True(t, out.Success)
	assert.Equal(t, 1, p.VerificationsSent(out.UID))

	// Development verification is immediate, so the next sign-in gets a session.
	jar := authmocks.NewMemoryCookieJar(nil)
	signIn := svc.SignInWithEmail(ctx, jar, "new@example.com", "secret1")
	require.True(t, signIn.Success, signIn.Message)
	assert.Equal(t, out.UID, signIn.UID)

	again := svc.SignUp(ctx, "new@example.com", "secret1")
	assert.Equal(t, domainauth.CodeEmailExists, again.Code)
}

func TestSignInService_UnknownProviderLabelsAreBounded(t *testing.T) {
	ctrl := gomock.NewController(t)
	reg := prometheus.NewRegistry()
	svc := NewSignInService(SignInServiceOptions{
		Passwords: mocks.NewMockPasswordAuthenticator(ctrl),
		Sessions:  NewSessionService(SessionServiceOptions{Provider: mocks.NewMockIdentityProvider(ctrl)}),
		Extras: SignInExtras{
			Federated: []ports.FederatedProvider{authmocks.NewMockFederatedProvider()},
			Metrics:   metrics.New(reg),
		},
	})
	cb := FederatedCallback{Code: "code", State: "s1", ExpectedState: "s1"}

	for i := range 200 {
		out := svc.CompleteFederated(context.Background(), authmocks.NewMemoryCookieJar(nil), fmt.Sprintf("idp-%d", i), cb)
		require.Equal(t, domainauth.CodeOperationNotAllowed, out.Code)
	}

	n, err := testutil.GatherAndCount(reg, "tern_admin_signin_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(`
# HELP tern_admin_signin_total Sign-in attempts by method and outcome code.
# TYPE tern_admin_signin_total counter
tern_admin_signin_total{code="OPERATION_NOT_ALLOWED",method="unknown"} 200
`), "tern_admin_signin_total"))
}

func TestSignInService_ProviderCallsAreBounded(t *testing.T) {
	const budget = 50 * time.Millisecond

	newService := func(t *testing.T, upstream *authmocks.MockFederatedProvider) (*SignInService, *mocks.MockPasswordAuthenticator) {
		ctrl := gomock.NewController(t)
		passwords := mocks.NewMockPasswordAuthenticator(ctrl)
		sessions := NewSessionService(SessionServiceOptions{
			Provider: mocks.NewMockIdentityProvider(ctrl),
			Config:   SessionConfig{CallTimeout: budget},
		})
		return NewSignInService(SignInServiceOptions{
			Passwords: passwords,
			Sessions:  sessions,
			Extras:    SignInExtras{Federated: []ports.FederatedProvider{upstream}},
		}), passwords
	}
	hang := func(ctx context.Context) error {
		if _, ok := ctx.Deadline(); !assert.True(t, ok, "provider call has no deadline") {
			return errors.New("unbounded")
		}
		<-ctx.Done()
		return ctx.Err()
	}

	t.Run("password sign-in", func(t *testing.T) {
		svc, passwords := newService(t, authmocks.NewMockFederatedProvider())
		passwords.EXPECT().SignInWithPassword(gomock.Any(), "a@example.com", "pw").
			DoAndReturn(func(ctx context.Context, _, _ string) (ports.TokenGrant, error) {
				return ports.TokenGrant{}, hang(ctx)
			})

		start := time.Now()
		out := svc.SignInWithEmail(context.Background(), authmocks.NewMemoryCookieJar(nil), "a@example.com", "pw")
		assert.Less(t, time.Since(start), 2*time.Second)
		assert.False(t, out.Success)
		assert.Equal(t, domainauth.CodeInternal, out.Code)
	})

	t.Run("sign-up verification email", func(t *testing.T) {
		svc, passwords := newService(t, authmocks.NewMockFederatedProvider())
		passwords.EXPECT().SignUp(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(ctx context.Context, _, _ string) (ports.TokenGrant, error) {
				_, ok := ctx.Deadline()
				assert.True(t, ok)
				return ports.TokenGrant{IDToken: "tok"}, nil
			})
		passwords.EXPECT().SendEmailVerification(gomock.Any(), "tok").
			DoAndReturn(func(ctx context.Context, _ string) error { return hang(ctx) })

		out := svc.SignUp(context.Background(), "new@example.com", "secret1")
		assert.False(t, out.Success)
		assert.Equal(t, domainauth.CodeInternal, out.Code)
	})

	t.Run("federated exchange", func(t *testing.T) {
		upstream := authmocks.NewMockFederatedProvider()
		upstream.ExchangeFunc = func(ctx context.Context, _ ports.ExchangeInput) (ports.FederatedIdentity, error) {
			return ports.FederatedIdentity{}, hang(ctx)
		}
		svc, _ := newService(t, upstream)

		start := time.Now()
		out := svc.CompleteFederated(context.Background(), authmocks.NewMemoryCookieJar(nil), "google.com",
			FederatedCallback{Code: "code", State: "s1", ExpectedState: "s1"})
		assert.Less(t, time.Since(start), 2*time.Second)
		assert.False(t, out.Success)
		assert.Equal(t, domainauth.CodeInternal, out.Code)
	})
}
