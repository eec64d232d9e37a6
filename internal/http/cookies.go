package httpx

import (
	"net/http"
	"strings"
	"time"

	"github.com/ternsecure/tern-admin/internal/ports"
)

// requestJar adapts a request/response pair to ports.CookieJar.
// Cookies set during the request are visible to later Gets on the same jar.
type requestJar struct {
	w      http.ResponseWriter
	r      *http.Request
	domain string
	set    map[string]string
}

var _ ports.CookieJar = (*requestJar)(nil)

// NewCookieJar returns a cookie jar bound to one request. domain is applied to
// every cookie written; empty means the request host.
func NewCookieJar(w http.ResponseWriter, r *http.Request, domain string) ports.CookieJar {
	return newRequestJar(w, r, domain)
}

func newRequestJar(w http.ResponseWriter, r *http.Request, domain string) *requestJar {
	return &requestJar{w: w, r: r, domain: domain, set: map[string]string{}}
}

func (j *requestJar) Get(name string) (string, bool) {
	if v, ok := j.set[name]; ok {
		return v, v != ""
	}
	c, err := j.r.Cookie(name)
	if err != nil || c.Value == "" {
		return "", false
	}
	return c.Value, true
}

func (j *requestJar) Set(name, value string, opts ports.CookieOptions) {
	path := opts.Path
	if path == "" {
		path = "/"
	}
	http.SetCookie(j.w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		Domain:   j.domain,
		HttpOnly: opts.HTTPOnly,
		Secure:   opts.Secure,
		SameSite: sameSiteMode(opts.SameSite),
		MaxAge:   int(opts.MaxAge / time.Second),
	})
	j.set[name] = value
}

func (j *requestJar) Delete(name string) {
	http.SetCookie(j.w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Domain:   j.domain,
		HttpOnly: true,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0).UTC(),
	})
	j.set[name] = ""
}

func sameSiteMode(s ports.SameSite) http.SameSite {
	switch s {
	case ports.SameSiteLax:
		return http.SameSiteLaxMode
	case ports.SameSiteStrict:
		return http.SameSiteStrictMode
	default:
		return http.SameSiteDefaultMode
	}
}

// shortLivedCookie writes a flow cookie (federated state, nonce, redirect) valid for ten minutes.
func shortLivedCookie(w http.ResponseWriter, r *http.Request, p flowCookie) {
	http.SetCookie(w, &http.Cookie{
		Name:     p.Name,
		Value:    p.Value,
		Path:     "/",
		Domain:   p.Domain,
		HttpOnly: true,
		Secure:   isSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   600,
	})
}

// flowCookie groups values for shortLivedCookie (≤3 params rule).
type flowCookie struct {
	Name   string
	Value  string
	Domain string
}

// isSecureRequest reports TLS directly or via a proxy's X-Forwarded-Proto, which may be a list.
func isSecureRequest(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	for _, proto := range strings.Split(r.Header.Get("X-Forwarded-Proto"), ",") {
		if strings.EqualFold(strings.TrimSpace(proto), "https") {
			return true
		}
	}
	return false
}
