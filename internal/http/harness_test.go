package httpx

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/ternsecure/tern-admin/config"
	"github.com/ternsecure/tern-admin/internal/adapters/devauth"
	"github.com/ternsecure/tern-admin/internal/domain/account"
	"github.com/ternsecure/tern-admin/internal/observability/metrics"
	"github.com/ternsecure/tern-admin/internal/ports"
	"github.com/ternsecure/tern-admin/internal/service"

	authmocks "github.com/ternsecure/tern-admin/internal/mocks/auth"
)

const (
	adminEmail    = "admin@example.com"
	adminPassword = "admin123"
	userEmail     = "user@example.com"
	userPassword  = "user123"
	allowedOrigin = "http://localhost:3000"
)

// testEnv is a full router over the in-memory dev identity provider.
type testEnv struct {
	handler  http.Handler
	provider *devauth.Provider
	store    *authmocks.MemoryKVStore
	registry *service.RegistryService
	gatherer *prometheus.Registry
}

type envSettings struct {
	audit  ports.AuditLog
	router []func(*RouterServices)
}

type envOption func(*envSettings)

func withAudit(a ports.AuditLog) envOption {
	return func(s *envSettings) { s.audit = a }
}

func withRouter(fn func(*RouterServices)) envOption {
	return func(s *envSettings) { s.router = append(s.router, fn) }
}

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()
	var settings envSettings
	for _, o := range opts {
		o(&settings)
	}

	p, err := devauth.NewProvider(devauth.Config{
		Users: []devauth.UserSeed{
			{Email: adminEmail, Password: adminPassword, Role: account.RoleAdmin, EmailVerified: true},
			{Email: userEmail, Password: userPassword, Role: account.RoleUser, EmailVerified: true},
		},
		SigningKey: "httpx-test-key",
	})
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	store := authmocks.NewMemoryKVStore()

	sessions := service.NewSessionService(service.SessionServiceOptions{Provider: p, Metrics: m})
	signIn := service.NewSignInService(service.SignInServiceOptions{
		Passwords: p,
		Sessions:  sessions,
		Extras: service.SignInExtras{
			Federated: []ports.FederatedProvider{devauth.NewFederated(p)},
			Metrics:   m,
		},
	})
	registry := service.NewRegistryService(service.RegistryServiceOptions{
		Provider: p,
		Store:    store,
		Config:   service.RegistryConfig{Metrics: m, Audit: settings.audit},
	})
	directory := service.NewDirectoryService(service.DirectoryServiceOptions{Accounts: registry})
	dashboard := service.NewDashboardService(service.DashboardServiceOptions{Directory: directory, Registry: registry})

	svcs := RouterServices{
		Sessions:  sessions,
		SignIn:    signIn,
		Registry:  registry,
		Directory: directory,
		Dashboard: dashboard,
		Metrics:   m,
		Gatherer:  reg,
		HTTP: config.HTTPConfig{
			AllowedOrigins:   []string{allowedOrigin},
			SignInRateLimit:  100,
			SignInRateWindow: time.Minute,
		},
	}
	for _, fn := range settings.router {
		fn(&svcs)
	}

	h, err := NewRouter(svcs)
	require.NoError(t, err)
	return &testEnv{handler: h, provider: p, store: store, registry: registry, gatherer: reg}
}

func (e *testEnv) do(r *http.Request, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	for _, c := range cookies {
		r.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, r)
	return rec
}

// signIn signs in through the JSON API and returns the live session cookies.
func (e *testEnv) signIn(t *testing.T, email, password string) []*http.Cookie {
	t.Helper()
	rec := e.do(jsonRequest(t, http.MethodPost, "/api/auth/sign-in", credentialsRequest{Email: email, Password: password}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return liveCookies(rec)
}

func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return req
}

func browserRequest(method, target string) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	return req
}

func formRequest(target string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "text/html")
	return req
}

// liveCookies drops deletions so the result can be replayed on later requests.
func liveCookies(rec *httptest.ResponseRecorder) []*http.Cookie {
	var out []*http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Value != "" && c.MaxAge >= 0 {
			out = append(out, c)
		}
	}
	return out
}

func findCookie(cookies []*http.Cookie, name string) *http.Cookie {
	for _, c := range cookies {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(v), rec.Body.String())
}

func readAll(t *testing.T, r io.Reader) string {
	t.Helper()
	b, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(b)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
