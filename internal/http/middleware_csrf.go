package httpx

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"filippo.io/csrf"
)

const (
	// DefaultCSRFCookieName is the default name for the CSRF cookie.
	DefaultCSRFCookieName = "csrf_token"
	// DefaultCSRFHeaderName is the default name for the CSRF header (canonical form).
	DefaultCSRFHeaderName = "X-Csrf-Token"
	// DefaultCSRFTokenLength is the default length of the CSRF token in bytes.
	DefaultCSRFTokenLength = 32
)

// CSRFConfig holds configuration for the double-submit token middleware.
type CSRFConfig struct {
	CookieName    string
	HeaderName    string
	FormFieldName string
	CookieDomain  string
	TokenLength   int
}

func (c *CSRFConfig) defaults() {
	if c.CookieName == "" {
		c.CookieName = DefaultCSRFCookieName
	}
	if c.HeaderName == "" {
		c.HeaderName = DefaultCSRFHeaderName
	}
	if c.FormFieldName == "" {
		c.FormFieldName = DefaultCSRFCookieName
	}
	if c.TokenLength == 0 {
		c.TokenLength = DefaultCSRFTokenLength
	}
}

// CSRFProtection returns a middleware implementing the double-submit cookie pattern for
// HTML forms. The token is issued on any request lacking one and checked on every
// state-changing request, from the X-Csrf-Token header or the csrf_token form field.
func CSRFProtection(cfg CSRFConfig) func(http.Handler) http.Handler {
	cfg.defaults()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := cookieValue(r, cfg.CookieName)
			if token == "" {
				var err error
				token, err = generateCSRFToken(cfg.TokenLength)
				if err != nil {
					http.Error(w, "unable to generate CSRF token", http.StatusInternalServerError)
					return
				}
				setCSRFCookie(w, r, csrfCookieParams{Name: cfg.CookieName, Domain: cfg.CookieDomain, Token: token})
			}

			r = r.WithContext(context.WithValue(r.Context(), csrfTokenKey{}, token))

			if requiresCSRFValidation(r.Method) && !validateCSRFToken(r, token, cfg) {
				http.Error(w, "CSRF token validation failed", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// CrossOriginConfig lists the origins exempt from cross-origin request protection.
type CrossOriginConfig struct {
	TrustedOrigins []string
	Logger         *slog.Logger
}

// CrossOrigin rejects state-changing browser requests that Sec-Fetch-Site or Origin mark as
// cross-origin, unless the origin is trusted. Rejections get the JSON error envelope.
func CrossOrigin(cfg CrossOriginConfig) (func(http.Handler) http.Handler, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	protection := csrf.New()
	for _, origin := range cfg.TrustedOrigins {
		if err := protection.AddTrustedOrigin(origin); err != nil {
			return nil, fmt.Errorf("trusted origin %q: %w", origin, err)
		}
	}
	deny := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.WarnContext(r.Context(), "cross-origin request rejected",
			"method", r.Method,
			"path", r.URL.Path,
			"origin", r.Header.Get("Origin"),
		)
		WriteError(w, ErrorParams{
			Code:    http.StatusForbidden,
			ErrCode: "cross_origin_request",
			Err:     errors.New("cross-origin request rejected"),
		})
	})

	return func(h http.Handler) http.Handler {
		return protection.HandlerWithFailHandler(h, deny)
	}, nil
}

func requiresCSRFValidation(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return false
	default:
		return true
	}
}

func cookieValue(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}

// generateCSRFToken fails closed: there is no fallback to a predictable token.
func generateCSRFToken(length int) (string, error) {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("csrf token generation failed: %w", err)
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

type csrfCookieParams struct {
	Name   string
	Domain string
	Token  string
}

func setCSRFCookie(w http.ResponseWriter, r *http.Request, params csrfCookieParams) {
	http.SetCookie(w, &http.Cookie{
		Name:     params.Name,
		Value:    params.Token,
		Path:     "/",
		Domain:   params.Domain,
		HttpOnly: false, // read by page scripts that post with the header
		Secure:   isSecureRequest(r),
		SameSite: http.SameSiteStrictMode,
		MaxAge:   3600 * 12,
	})
}

// validateCSRFToken compares in constant time. The header wins over the form field.
func validateCSRFToken(r *http.Request, cookieToken string, cfg CSRFConfig) bool {
	if cookieToken == "" {
		return false
	}

	if headerToken := r.Header.Get(cfg.HeaderName); headerToken != "" {
		return subtle.ConstantTimeCompare([]byte(headerToken), []byte(cookieToken)) == 1
	}

	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "application/x-www-form-urlencoded") ||
		strings.HasPrefix(contentType, "multipart/form-data") {
		if err := r.ParseForm(); err != nil {
			return false
		}
		if formToken := r.PostFormValue(cfg.FormFieldName); formToken != "" {
			return subtle.ConstantTimeCompare([]byte(formToken), []byte(cookieToken)) == 1
		}
	}

	return false
}

type csrfTokenKey struct{}

// GetCSRFToken returns the token CSRFProtection stored on the request, for templates.
func GetCSRFToken(r *http.Request) string {
	token, _ := r.Context().Value(csrfTokenKey{}).(string)
	return token
}
