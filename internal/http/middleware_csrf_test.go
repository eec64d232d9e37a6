package httpx

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func csrfEcho() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(GetCSRFToken(r)))
	})
}

func TestCSRFProtection_IssuesTokenOnSafeRequests(t *testing.T) {
	h := CSRFProtection(CSRFConfig{CookieDomain: "admin.example.com"})(csrfEcho())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/users", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	c := findCookie(rec.Result().Cookies(), DefaultCSRFCookieName)
	require.NotNil(t, c)
	assert.NotEmpty(t, c.Value)
	assert.Equal(t, c.Value, rec.Body.String(), "token exposed to templates")
	assert.False(t, c.HttpOnly)
	assert.Equal(t, http.SameSiteStrictMode, c.SameSite)
	assert.Equal(t, "admin.example.com", c.Domain)
	assert.False(t, c.Secure)
}

func TestCSRFProtection_ReusesExistingCookie(t *testing.T) {
	h := CSRFProtection(CSRFConfig{})(csrfEcho())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	req.AddCookie(&http.Cookie{Name: DefaultCSRFCookieName, Value: "existing"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "existing", rec.Body.String())
	assert.Nil(t, findCookie(rec.Result().Cookies(), DefaultCSRFCookieName))
}

func TestCSRFProtection_Validation(t *testing.T) {
	const token = "tok-123"

	tests := []struct {
		name   string
		build  func() *http.Request
		status int
	}{
		{
			name:   "post without token",
			build:  func() *http.Request { return httptest.NewRequest(http.MethodPost, "/", nil) },
			status: http.StatusForbidden,
		},
		{
			name: "matching header",
			build: func() *http.Request {
				r := httptest.NewRequest(http.MethodPost, "/", nil)
				r.Header.Set(DefaultCSRFHeaderName, token)
				return r
			},
			status: http.StatusOK,
		},
		{
			name: "mismatched header",
			build: func() *http.Request {
				r := httptest.NewRequest(http.MethodDelete, "/", nil)
				r.Header.Set(DefaultCSRFHeaderName, "other")
				return r
			},
			status: http.StatusForbidden,
		},
		{
			name: "matching form field",
			build: func() *http.Request {
				body := url.Values{DefaultCSRFCookieName: {token}}.Encode()
				r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
				r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
				return r
			},
			status: http.StatusOK,
		},
		{
			name: "header wins over form",
			build: func() *http.Request {
				body := url.Values{DefaultCSRFCookieName: {token}}.Encode()
				r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
				r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
				r.Header.Set(DefaultCSRFHeaderName, "wrong")
				return r
			},
			status: http.StatusForbidden,
		},
		{
			name: "form field ignored for json bodies",
			build: func() *http.Request {
				r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"csrf_token":"tok-123"}`))
				r.Header.Set("Content-Type", "application/json")
				return r
			},
			status: http.StatusForbidden,
		},
	}

	h := CSRFProtection(CSRFConfig{})(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.build()
			req.AddCookie(&http.Cookie{Name: DefaultCSRFCookieName, Value: token})
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestCSRFProtection_CustomNames(t *testing.T) {
	h := CSRFProtection(CSRFConfig{CookieName: "xsrf", HeaderName: "X-Xsrf", TokenLength: 8})(csrfEcho())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	c := findCookie(rec.Result().Cookies(), "xsrf")
	require.NotNil(t, c)
	assert.Len(t, c.Value, 12) // base64 of 8 bytes

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.AddCookie(c)
	req.Header.Set("X-Xsrf", c.Value)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCrossOrigin(t *testing.T) {
	mw, err := CrossOrigin(CrossOriginConfig{
		TrustedOrigins: []string{allowedOrigin},
		Logger:         discardLogger(),
	})
	require.NoError(t, err)
	h := mw(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name    string
		method  string
		headers map[string]string
		status  int
	}{
		{name: "non-browser client", method: http.MethodPost, status: http.StatusNoContent},
		{name: "safe method from anywhere", method: http.MethodGet, headers: map[string]string{"Sec-Fetch-Site": "cross-site", "Origin": "https://evil.example"}, status: http.StatusNoContent},
		{name: "same origin fetch", method: http.MethodPost, headers: map[string]string{"Sec-Fetch-Site": "same-origin"}, status: http.StatusNoContent},
		{name: "cross site fetch", method: http.MethodPost, headers: map[string]string{"Sec-Fetch-Site": "cross-site", "Origin": "https://evil.example"}, status: http.StatusForbidden},
		{name: "foreign origin header", method: http.MethodPost, headers: map[string]string{"Origin": "https://evil.example"}, status: http.StatusForbidden},
		{name: "trusted origin", method: http.MethodPost, headers: map[string]string{"Sec-Fetch-Site": "same-site", "Origin": allowedOrigin}, status: http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "http://admin.example.com/api/auth/sign-in", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			require.Equal(t, tt.status, rec.Code)

			if tt.status == http.StatusForbidden {
				var body errorBody
				decodeBody(t, rec, &body)
				assert.Equal(t, "cross_origin_request", body.Error)
			}
		})
	}
}

func TestCrossOrigin_RejectsMalformedTrustedOrigin(t *testing.T) {
	_, err := CrossOrigin(CrossOriginConfig{TrustedOrigins: []string{"not a url/with/path"}})
	assert.Error(t, err)
}
