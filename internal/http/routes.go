package httpx

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/ternsecure/tern-admin/config"
	"github.com/ternsecure/tern-admin/internal/observability/metrics"
	"github.com/ternsecure/tern-admin/internal/service"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Sessions  *service.SessionService
	SignIn    *service.SignInService
	Registry  *service.RegistryService
	Directory *service.DirectoryService
	Dashboard *service.DashboardService

	// Metrics records per-route traffic; nil disables it.
	Metrics *metrics.Metrics
	// Gatherer backs the metrics endpoint; nil leaves it unregistered.
	Gatherer    prometheus.Gatherer
	MetricsPath string

	// Ready reports readiness for /healthz; nil means always ready.
	Ready func(*http.Request) error

	HTTP   config.HTTPConfig
	IsDev  bool         // Development mode flag for template reloading.
	Logger *slog.Logger // Logger for template and HTTP errors (optional)
}

func (s RouterServices) validate() error {
	switch {
	case s.Sessions == nil:
		return errors.New("router: Sessions is required")
	case s.SignIn == nil:
		return errors.New("router: SignIn is required")
	case s.Registry == nil:
		return errors.New("router: Registry is required")
	case s.Directory == nil:
		return errors.New("router: Directory is required")
	case s.Dashboard == nil:
		return errors.New("router: Dashboard is required")
	}
	return nil
}

// NewRouter builds the mux and wraps it in the shared middleware chain:
// Recover, Logging, Metrics, Compression, CrossOrigin, then the routes.
func NewRouter(services RouterServices) (http.Handler, error) {
	if err := services.validate(); err != nil {
		return nil, err
	}
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}

	templateFS, err := DefaultTemplateFS(services.IsDev)
	if err != nil {
		return nil, err
	}
	tr, err := NewTemplateRenderer(TemplateRendererConfig{TemplateFS: templateFS, Logger: logger})
	if err != nil {
		return nil, err
	}

	domain := services.HTTP.CookieDomain
	auth := &AuthHandlers{Sessions: services.Sessions, SignIn: services.SignIn, CookieDomain: domain, Logger: logger}
	admin := &AdminHandlers{
		Registry:  services.Registry,
		Directory: services.Directory,
		Dashboard: services.Dashboard,
		Logger:    logger,
	}
	ui := &UIHandlers{
		T:            tr,
		Sessions:     services.Sessions,
		SignIn:       services.SignIn,
		Registry:     services.Registry,
		Directory:    services.Directory,
		Dashboard:    services.Dashboard,
		CookieDomain: domain,
		Logger:       logger,
	}

	mux := http.NewServeMux()
	health := readinessHandler(services.Ready, logger)
	mux.Handle("GET /healthz", health)
	mux.Handle("HEAD /healthz", health)
	if services.Gatherer != nil {
		path := services.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		mux.Handle("GET "+path, promhttp.HandlerFor(services.Gatherer, promhttp.HandlerOpts{}))
	}

	registerAuthRoutes(mux, auth, authRouteConfig{HTTP: services.HTTP, Logger: logger})

	cfg := adminRouteConfig{Gate: services.Sessions, CookieDomain: domain, Logger: logger}
	registerAdminAPIRoutes(mux, admin, cfg)
	registerUIRoutes(mux, ui, cfg)

	var handler http.Handler = mux

	crossOrigin, err := CrossOrigin(CrossOriginConfig{
		TrustedOrigins: append(append([]string{}, services.HTTP.TrustedOrigins...), services.HTTP.AllowedOrigins...),
		Logger:         logger,
	})
	if err != nil {
		return nil, err
	}
	handler = crossOrigin(handler)

	if services.HTTP.CompressionEnabled {
		gz, err := Compression(CompressionConfig{Level: services.HTTP.CompressionLevel})
		if err != nil {
			return nil, err
		}
		handler = gz(handler)
	}

	handler = Metrics(services.Metrics, mux)(handler)
	handler = Logging(logger)(handler)
	handler = Recover(logger)(handler)
	return handler, nil
}

type authRouteConfig struct {
	HTTP   config.HTTPConfig
	Logger *slog.Logger
}

// registerAuthRoutes wires the public auth API and federated redirects.
// /api/auth is reachable cross-origin from the allowed origins with credentials.
func registerAuthRoutes(mux *http.ServeMux, h *AuthHandlers, cfg authRouteConfig) {
	withCORS := cors.New(cors.Options{
		AllowedOrigins:   cfg.HTTP.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost},
		AllowedHeaders:   []string{"Content-Type", DefaultCSRFHeaderName},
		AllowCredentials: true,
	}).Handler
	limited := signInLimiter(cfg.HTTP.SignInRateLimit, cfg.HTTP.SignInRateWindow)

	api := func(h http.HandlerFunc) http.Handler { return withCORS(h) }
	mux.Handle("OPTIONS /api/auth/", withCORS(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})))
	mux.Handle("POST /api/auth/session", api(h.CreateSession))
	mux.Handle("POST /api/auth/sign-in", withCORS(limited(http.HandlerFunc(h.SignInWithEmail))))
	mux.Handle("POST /api/auth/sign-up", withCORS(limited(http.HandlerFunc(h.SignUp))))
	mux.Handle("POST /api/auth/resend", withCORS(limited(http.HandlerFunc(h.ResendVerification))))
	mux.Handle("POST /api/auth/sign-out", api(h.SignOut))
	mux.Handle("GET /api/auth/status", api(h.Status))

	mux.HandleFunc("GET /auth/federated/{provider}/login", h.FederatedLogin)
	mux.HandleFunc("GET /auth/federated/{provider}/callback", h.FederatedCallback)
}

// signInLimiter shares one per-IP budget across the credential endpoints.
func signInLimiter(limit int, window time.Duration) func(http.Handler) http.Handler {
	return httprate.Limit(limit, window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, _ *http.Request) {
			WriteError(w, ErrorParams{
				Code:    http.StatusTooManyRequests,
				ErrCode: "TOO_MANY_ATTEMPTS",
				Err:     errors.New("rate limited"),
			})
		}),
	)
}

type adminRouteConfig struct {
	Gate         AdminGate
	CookieDomain string
	Logger       *slog.Logger
}

func (cfg adminRouteConfig) adminWrap() func(http.Handler) http.Handler {
	return RequireAdmin(AdminGuardConfig{Gate: cfg.Gate, CookieDomain: cfg.CookieDomain, Logger: cfg.Logger})
}

// formWrap chains the admin check with the double-submit token for HTML forms.
func (cfg adminRouteConfig) formWrap() func(http.Handler) http.Handler {
	csrf := CSRFProtection(CSRFConfig{CookieDomain: cfg.CookieDomain})
	admin := cfg.adminWrap()
	return func(h http.Handler) http.Handler {
		return admin(csrf(h))
	}
}

func registerAdminAPIRoutes(mux *http.ServeMux, h *AdminHandlers, cfg adminRouteConfig) {
	wrap := cfg.adminWrap()
	mux.Handle("GET /api/admin/overview", wrap(http.HandlerFunc(h.Overview)))
	mux.Handle("GET /api/admin/users", wrap(http.HandlerFunc(h.ListUsers)))
	mux.Handle("GET /api/admin/disabled", wrap(http.HandlerFunc(h.ListDisabled)))
	mux.Handle("GET /api/admin/audit", wrap(http.HandlerFunc(h.ListAudit)))
	mux.Handle("POST /api/admin/users/{uid}/disable", wrap(http.HandlerFunc(h.Disable)))
	mux.Handle("POST /api/admin/users/{uid}/enable", wrap(http.HandlerFunc(h.Enable)))
	mux.Handle("POST /api/admin/users/{uid}/delete", wrap(http.HandlerFunc(h.Delete)))
	mux.Handle("POST /api/admin/users/{uid}/role", wrap(http.HandlerFunc(h.SetRole)))
}

// registerUIRoutes wires the HTML pages. The catch-all renders the 404 page.
func registerUIRoutes(mux *http.ServeMux, h *UIHandlers, cfg adminRouteConfig) {
	mux.HandleFunc("GET /sign-in", h.SignInPage)
	mux.HandleFunc("GET /sign-up", h.SignUpPage)
	mux.HandleFunc("GET /unauthorized", h.Unauthorized)

	wrapForm := cfg.formWrap()
	mux.Handle("GET /{$}", wrapForm(http.HandlerFunc(h.ShowDashboard)))
	mux.Handle("GET "+usersPath, wrapForm(http.HandlerFunc(h.Users)))
	mux.Handle(fmt.Sprintf("POST %s/{uid}/{action}", usersPath), wrapForm(http.HandlerFunc(h.UserAction)))

	mux.HandleFunc("/", h.NotFound)
}
