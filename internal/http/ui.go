package httpx

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/ternsecure/tern-admin/internal/domain/account"
	domainauth "github.com/ternsecure/tern-admin/internal/domain/auth"
	apperrors "github.com/ternsecure/tern-admin/internal/errors"
	"github.com/ternsecure/tern-admin/internal/http/ui/viewmodel"
	"github.com/ternsecure/tern-admin/internal/service"
)

const usersPath = "/admin/users"

// UIHandlers serves the admin HTML pages and their form posts.
type UIHandlers struct {
	T            *TemplateRenderer
	Sessions     *service.SessionService
	SignIn       *service.SignInService
	Registry     *service.RegistryService
	Directory    *service.DirectoryService
	Dashboard    *service.DashboardService
	CookieDomain string
	Logger       *slog.Logger
}

func (h *UIHandlers) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// layout builds the shared chrome for the admin pages.
func (h *UIHandlers) layout(r *http.Request, title, page string) viewmodel.Layout {
	l := viewmodel.Layout{
		Title:       title,
		CurrentPage: page,
		CSRFToken:   GetCSRFToken(r),
		Notice:      r.URL.Query().Get("notice"),
		Error:       r.URL.Query().Get("error"),
	}
	if u, ok := UserFromContext(r.Context()); ok {
		l.User = &viewmodel.User{UID: u.UserID, Email: u.Email, Role: string(u.Role)}
	}
	return l
}

// renderFailure shows the error page and logs server-side causes.
func (h *UIHandlers) renderFailure(w http.ResponseWriter, r *http.Request, err error) {
	status, _ := statusForError(err)
	if status >= http.StatusInternalServerError {
		h.logger().ErrorContext(r.Context(), "page failed", "path", r.URL.Path, "error", err)
	}
	h.renderErrorPage(w, r, errorPage{
		Title:    "Error",
		Heading:  http.StatusText(status),
		Message:  apperrors.PublicMessage(err, "Something went wrong. Please try again."),
		LinkURL:  "/",
		LinkText: "Back to dashboard",
		status:   status,
	})
}

type errorPage struct {
	Title    string
	Heading  string
	Message  string
	LinkURL  string
	LinkText string
	status   int
}

func (h *UIHandlers) renderErrorPage(w http.ResponseWriter, r *http.Request, p errorPage) {
	if err := h.T.RenderError(w, p.status, p); err != nil {
		h.logger().ErrorContext(r.Context(), "error page failed", "error", err)
		http.Error(w, http.StatusText(p.status), p.status)
	}
}

type dashboardPage struct {
	viewmodel.Layout
	Overview service.Overview
}

// ShowDashboard renders the overview.
// GET /.
func (h *UIHandlers) ShowDashboard(w http.ResponseWriter, r *http.Request) {
	o, err := h.Dashboard.Overview(r.Context())
	if err != nil {
		h.renderFailure(w, r, err)
		return
	}
	data := dashboardPage{Layout: h.layout(r, "Dashboard", PageDashboard), Overview: o}
	if err := h.T.RenderFull(w, http.StatusOK, data); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

type usersPage struct {
	viewmodel.Layout
	Query      service.Query
	Result     service.UserPage
	Pagination viewmodel.Pagination
	Roles      []string
	Statuses   []string
	PageSizes  []int
	// ReturnTo brings form posts back to this exact listing.
	ReturnTo string
}

// Users renders the filtered user directory. Invalid filters render an empty listing with the error.
// GET /admin/users.
func (h *UIHandlers) Users(w http.ResponseWriter, r *http.Request) {
	q := queryFromRequest(r)
	data := usersPage{
		Layout:    h.layout(r, "Users", PageUsers),
		Query:     q,
		Roles:     roleNames(),
		Statuses:  []string{service.StatusAll, service.StatusEnabled, service.StatusDisabled},
		PageSizes: service.PageSizes,
		ReturnTo:  usersReturnPath(r.URL.Query()),
	}

	res, err := h.Directory.List(r.Context(), q)
	switch {
	case apperrors.IsValidation(err):
		data.Error = apperrors.PublicMessage(err, "Invalid filter")
		res = service.UserPage{Page: 1, PageSize: service.DefaultPageSize, Items: []service.AccountView{}}
	case err != nil:
		h.renderFailure(w, r, err)
		return
	}
	data.Result = res
	data.Pagination = viewmodel.NewPagination(usersPath, r.URL.Query(), viewmodel.PageInput{
		Page:       res.Page,
		PageSize:   res.PageSize,
		TotalPages: res.TotalPages,
		TotalCount: res.Total,
		Shown:      len(res.Items),
	})
	if err := h.T.RenderFull(w, http.StatusOK, data); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// UserAction handles the per-row forms on the users page and redirects back with a notice.
// POST /admin/users/{uid}/{action}.
func (h *UIHandlers) UserAction(w http.ResponseWriter, r *http.Request) {
	uid := r.PathValue("uid")
	action := r.PathValue("action")
	back := usersReturnTarget(r.PostFormValue("return"))

	var (
		err    error
		notice string
	)
	switch action {
	case "disable":
		err = h.Registry.Disable(r.Context(), uid)
		notice = "User disabled"
	case "enable":
		err = h.Registry.Enable(r.Context(), uid)
		notice = "User enabled"
	case "delete":
		err = h.Registry.Delete(r.Context(), uid)
		notice = "User deleted"
	case "role":
		err = h.Registry.SetRole(r.Context(), uid, r.PostFormValue("role"))
		notice = "Role updated"
	default:
		err = apperrors.NotFoundf("unknown action %q", action)
	}

	q := back.Query()
	q.Del("notice")
	q.Del("error")
	if err != nil {
		if status, _ := statusForError(err); status >= http.StatusInternalServerError {
			h.logger().ErrorContext(r.Context(), "user action failed", "action", action, "uid", uid, "error", err)
		}
		q.Set("error", apperrors.PublicMessage(err, "Action failed"))
	} else {
		q.Set("notice", notice)
	}
	back.RawQuery = q.Encode()
	http.Redirect(w, r, back.String(), http.StatusSeeOther)
}

type providerLink struct {
	ID    string
	Label string
	URL   string
}

type authPage struct {
	Title     string
	Redirect  string
	Error     string
	Providers []providerLink
}

// SignInPage renders the sign-in form. ?error= carries a result code from a failed redirect flow.
// GET /sign-in.
func (h *UIHandlers) SignInPage(w http.ResponseWriter, r *http.Request) {
	redirect := safeRedirectPath(r.URL.Query().Get("redirect"))
	data := authPage{Title: "Sign in", Redirect: redirect}
	if code := r.URL.Query().Get("error"); code != "" {
		data.Error = domainauth.Code(code).Message()
	}
	for _, id := range h.SignIn.FederatedProviders() {
		data.Providers = append(data.Providers, providerLink{
			ID:    id,
			Label: providerLabel(id),
			URL:   "/auth/federated/" + url.PathEscape(id) + "/login?redirect=" + url.QueryEscape(redirect),
		})
	}
	if err := h.T.RenderPage(w, templateSignIn, data); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// SignUpPage renders the registration form.
// GET /sign-up.
func (h *UIHandlers) SignUpPage(w http.ResponseWriter, r *http.Request) {
	if err := h.T.RenderPage(w, templateSignUp, authPage{Title: "Sign up"}); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

type unauthorizedPage struct {
	Title string
	Email string
}

// Unauthorized explains that the signed-in account lacks an admin role.
// GET /unauthorized.
func (h *UIHandlers) Unauthorized(w http.ResponseWriter, r *http.Request) {
	data := unauthorizedPage{Title: "Access denied"}
	if st := h.Sessions.VerifyCurrentUser(r.Context(), NewCookieJar(w, r, h.CookieDomain)); st.IsValid {
		data.Email = st.Email
	}
	if err := h.T.renderTemplate(w, renderParams{name: templateUnauthorized, status: http.StatusForbidden, data: data}); err != nil {
		http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
	}
}

// NotFound renders the 404 page for browsers and the JSON envelope for API clients.
func (h *UIHandlers) NotFound(w http.ResponseWriter, r *http.Request) {
	if !IsBrowserRequest(r) {
		WriteError(w, ErrorParams{Code: http.StatusNotFound, ErrCode: string(apperrors.ErrCodeNotFound), Err: apperrors.NotFound("not found")})
		return
	}
	h.renderErrorPage(w, r, errorPage{
		Title:    "Not found",
		Heading:  "Page not found",
		Message:  "The page you requested does not exist.",
		LinkURL:  "/",
		LinkText: "Back to dashboard",
		status:   http.StatusNotFound,
	})
}

func roleNames() []string {
	roles := account.KnownRoles()
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		out = append(out, string(r))
	}
	return out
}

func providerLabel(id string) string {
	switch id {
	case "google.com":
		return "Google"
	case "microsoft.com":
		return "Microsoft"
	case "":
		return ""
	default:
		return strings.ToUpper(id[:1]) + id[1:]
	}
}

// usersReturnPath is the current listing URL, minus one-shot messages.
func usersReturnPath(q url.Values) string {
	keep := url.Values{}
	for k, v := range q {
		if k != "notice" && k != "error" {
			keep[k] = v
		}
	}
	if len(keep) == 0 {
		return usersPath
	}
	return usersPath + "?" + keep.Encode()
}

// usersReturnTarget parses a posted return path, accepting only the users listing.
func usersReturnTarget(raw string) *url.URL {
	u, err := url.Parse(safeRedirectPath(raw))
	if err != nil || u.Path != usersPath {
		return &url.URL{Path: usersPath}
	}
	return u
}
