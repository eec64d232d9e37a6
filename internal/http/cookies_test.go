package httpx

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternsecure/tern-admin/internal/ports"
)

func TestCookieJar_SetIsVisibleToLaterGets(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "_session_cookie", Value: "old"})
	rec := httptest.NewRecorder()
	jar := NewCookieJar(rec, req, "admin.example.com")

	v, ok := jar.Get("_session_cookie")
	require.True(t, ok)
	assert.Equal(t, "old", v)

	jar.Set("_session_cookie", "new", ports.CookieOptions{
		HTTPOnly: true,
		Secure:   true,
		SameSite: ports.SameSiteLax,
		MaxAge:   5 * 24 * time.Hour,
	})
	v, ok = jar.Get("_session_cookie")
	require.True(t, ok)
	assert.Equal(t, "new", v)

	c := findCookie(rec.Result().Cookies(), "_session_cookie")
	require.NotNil(t, c)
	assert.Equal(t, "/", c.Path)
	assert.Equal(t, "admin.example.com", c.Domain)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
	assert.Equal(t, 5*24*60*60, c.MaxAge)
}

func TestCookieJar_DeleteHidesRequestCookie(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "_tern", Value: "legacy"})
	rec := httptest.NewRecorder()
	jar := NewCookieJar(rec, req, "")

	jar.Delete("_tern")
	_, ok := jar.Get("_tern")
	assert.False(t, ok)

	c := findCookie(rec.Result().Cookies(), "_tern")
	require.NotNil(t, c)
	assert.Negative(t, c.MaxAge)
	assert.Empty(t, c.Value)
}

func TestCookieJar_EmptyRequestCookieIsAbsent(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "_session_cookie", Value: ""})
	_, ok := NewCookieJar(httptest.NewRecorder(), req, "").Get("_session_cookie")
	assert.False(t, ok)
}

func TestIsSecureRequest(t *testing.T) {
	plain := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.False(t, isSecureRequest(plain))

	direct := httptest.NewRequest(http.MethodGet, "/", nil)
	direct.TLS = &tls.ConnectionState{}
	assert.True(t, isSecureRequest(direct))

	proxied := httptest.NewRequest(http.MethodGet, "/", nil)
	proxied.Header.Set("X-Forwarded-Proto", "http, HTTPS")
	assert.True(t, isSecureRequest(proxied))
}

func TestShortLivedCookie(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	rec := httptest.NewRecorder()
	shortLivedCookie(rec, req, flowCookie{Name: federatedStateCookie, Value: "s1"})

	c := findCookie(rec.Result().Cookies(), federatedStateCookie)
	require.NotNil(t, c)
	assert.Equal(t, 600, c.MaxAge)
	assert.True(t, c.Secure)
	assert.True(t, c.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
}
