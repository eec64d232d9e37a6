package httpx

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"runtime/debug"
	"strings"
	"time"

	"github.com/klauspost/compress/gzhttp"

	domainauth "github.com/ternsecure/tern-admin/internal/domain/auth"
	apperrors "github.com/ternsecure/tern-admin/internal/errors"
	"github.com/ternsecure/tern-admin/internal/observability/metrics"
	"github.com/ternsecure/tern-admin/internal/ports"
	"github.com/ternsecure/tern-admin/internal/service"
)

// Logging returns a middleware that logs HTTP requests and responses.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := wrapWriter(w)
			next.ServeHTTP(ww, r)
			logger.InfoContext(r.Context(), "http",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.status),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

// respWriter records the status code written downstream.
type respWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func wrapWriter(w http.ResponseWriter) *respWriter {
	if rw, ok := w.(*respWriter); ok {
		return rw
	}
	return &respWriter{ResponseWriter: w, status: http.StatusOK}
}

func (w *respWriter) WriteHeader(status int) {
	if !w.wroteHeader {
		w.status = status
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *respWriter) Write(b []byte) (int, error) {
	w.wroteHeader = true
	return w.ResponseWriter.Write(b)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *respWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }

// Recover returns a middleware that recovers from panics and logs them.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logger.ErrorContext(r.Context(), "panic",
					slog.Any("error", rec),
					slog.String("path", r.URL.Path),
					slog.String("method", r.Method),
					slog.String("stack", string(debug.Stack())))
				if IsBrowserRequest(r) {
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
					return
				}
				WriteError(w, ErrorParams{
					Code:    http.StatusInternalServerError,
					ErrCode: string(apperrors.ErrCodeInternal),
					Err:     errors.New("panic"),
				})
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// RouteMatcher resolves the registered pattern for a request. *http.ServeMux satisfies it.
type RouteMatcher interface {
	Handler(r *http.Request) (http.Handler, string)
}

// Metrics returns a middleware recording request counts and latency per route pattern.
// Patterns keep label cardinality bounded; unmatched paths share one label.
func Metrics(m *metrics.Metrics, routes RouteMatcher) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if m == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := wrapWriter(w)
			next.ServeHTTP(ww, r)

			route := r.Pattern
			if route == "" && routes != nil {
				_, route = routes.Handler(r)
			}
			m.ObserveHTTP(r.Method, route, ww.status, time.Since(start))
		})
	}
}

// CompressionConfig holds configuration for the compression middleware.
type CompressionConfig struct {
	Level   int // 1-9; 0 uses the gzip default
	MinSize int // responses smaller than this are sent uncompressed; 0 uses the library default
}

// Compression returns a gzip middleware. Content-type filtering, Accept-Encoding q-values,
// Vary and HEAD handling are left to gzhttp.
func Compression(cfg CompressionConfig) (func(http.Handler) http.Handler, error) {
	level := cfg.Level
	if level == 0 {
		level = gzip.DefaultCompression
	}
	minSize := cfg.MinSize
	if minSize <= 0 {
		minSize = gzhttp.DefaultMinSize
	}
	wrap, err := gzhttp.NewWrapper(gzhttp.CompressionLevel(level), gzhttp.MinSize(minSize))
	if err != nil {
		return nil, fmt.Errorf("gzip wrapper: %w", err)
	}
	return func(next http.Handler) http.Handler { return wrap(next) }, nil
}

// IsBrowserRequest reports whether the client wants HTML pages rather than JSON.
// /api/ and /metrics are API traffic; elsewhere an HTML Accept header (or none) means a browser.
func IsBrowserRequest(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") || r.URL.Path == "/metrics" {
		return false
	}
	accept := r.Header.Get("Accept")
	if accept == "" {
		return true
	}
	return strings.Contains(accept, "text/html")
}

// AdminGate verifies the request's session and the account's live role.
type AdminGate interface {
	RequireAdmin(ctx context.Context, jar ports.CookieJar) domainauth.UserStatus
}

// AdminGuardConfig configures RequireAdmin.
type AdminGuardConfig struct {
	Gate         AdminGate
	CookieDomain string
	Logger       *slog.Logger
}

// RequireAdmin returns a middleware admitting only verified admins.
// Browsers without a usable session are sent to /sign-in and non-admins to /unauthorized;
// API clients get 401 or 403 JSON. Admitted requests carry the user and audit actor in context.
func RequireAdmin(cfg AdminGuardConfig) func(http.Handler) http.Handler {
	if cfg.Gate == nil {
		panic("require admin: Gate is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			status := cfg.Gate.RequireAdmin(r.Context(), NewCookieJar(w, r, cfg.CookieDomain))
			if status.IsValid {
				ctx := SetUserInContext(r.Context(), status)
				ctx = service.WithActor(ctx, status.UserID)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}
			denyAdmin(w, r, status.Code, logger)
		})
	}
}

func denyAdmin(w http.ResponseWriter, r *http.Request, code domainauth.Code, logger *slog.Logger) {
	browser := IsBrowserRequest(r)
	switch {
	case code.Unauthenticated():
		if browser {
			redirectToSignIn(w, r)
			return
		}
		WriteError(w, ErrorParams{
			Code:    http.StatusUnauthorized,
			ErrCode: string(code),
			Err:     apperrors.Unauthenticated(code.Message()),
		})
	case code == domainauth.CodeForbidden:
		if browser {
			http.Redirect(w, r, "/unauthorized", http.StatusSeeOther)
			return
		}
		WriteError(w, ErrorParams{
			Code:    http.StatusForbidden,
			ErrCode: string(code),
			Err:     apperrors.Forbidden(code.Message()),
		})
	default:
		logger.ErrorContext(r.Context(), "admin check failed", "code", code, "path", r.URL.Path)
		if browser {
			http.Error(w, "Service temporarily unavailable", http.StatusServiceUnavailable)
			return
		}
		WriteError(w, ErrorParams{
			Code:    http.StatusServiceUnavailable,
			ErrCode: string(domainauth.CodeInternal),
			Err:     apperrors.Internal(domainauth.CodeInternal.Message()),
		})
	}
}

// redirectToSignIn sends the browser to the sign-in page, remembering where it was headed.
func redirectToSignIn(w http.ResponseWriter, r *http.Request) {
	target := "/sign-in"
	if next := safeRedirectPath(r.URL.RequestURI()); next != "/" {
		target += "?redirect=" + url.QueryEscape(next)
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// safeRedirectPath ensures the provided redirect is a same-origin relative path
// starting with "/" and not an absolute URL. Returns "/" when invalid.
func safeRedirectPath(candidate string) string {
	if candidate == "" {
		return "/"
	}
	u, err := url.Parse(candidate)
	if err != nil || u.IsAbs() || u.Host != "" || !strings.HasPrefix(u.Path, "/") ||
		strings.HasPrefix(candidate, "//") || strings.Contains(candidate, "\\") {
		return "/"
	}
	return candidate
}
