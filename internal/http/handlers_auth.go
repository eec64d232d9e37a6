package httpx

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	domainauth "github.com/ternsecure/tern-admin/internal/domain/auth"
	apperrors "github.com/ternsecure/tern-admin/internal/errors"
	"github.com/ternsecure/tern-admin/internal/service"
)

// Federated flow cookies, cleared by the callback.
const (
	federatedStateCookie    = "federated_state"
	federatedNonceCookie    = "federated_nonce"
	federatedRedirectCookie = "post_sign_in_redirect"
)

// AuthHandlers serves the session bridge, the JSON sign-in flows and the federated redirects.
type AuthHandlers struct {
	Sessions     *service.SessionService
	SignIn       *service.SignInService
	CookieDomain string
	Logger       *slog.Logger
}

func (h *AuthHandlers) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

func (h *AuthHandlers) jar(w http.ResponseWriter, r *http.Request) *requestJar {
	return newRequestJar(w, r, h.CookieDomain)
}

type sessionRequest struct {
	IDToken string `json:"idToken"`
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// authFailure is the error envelope for tagged auth results.
type authFailure struct {
	Error                string `json:"error"`
	Message              string `json:"message"`
	RequiresVerification bool   `json:"requiresVerification,omitempty"`
}

// writeOutcome writes a sign-in outcome: the outcome itself on success, the error envelope otherwise.
func writeOutcome(w http.ResponseWriter, out domainauth.SignInOutcome, okStatus int) {
	if out.Success {
		WriteJSON(w, okStatus, out)
		return
	}
	WriteJSON(w, statusForAuthCode(out.Code), authFailure{
		Error:                string(out.Code),
		Message:              out.Message,
		RequiresVerification: out.RequiresVerification,
	})
}

// statusForAuthCode maps auth result codes onto HTTP statuses.
func statusForAuthCode(code domainauth.Code) int {
	switch code {
	case domainauth.CodeInvalidEmail, domainauth.CodeWeakPassword, domainauth.CodeOperationNotAllowed:
		return http.StatusBadRequest
	case domainauth.CodeInvalidCredentials, domainauth.CodeInvalidToken, domainauth.CodeExpiredToken,
		domainauth.CodeSessionExpired, domainauth.CodeSessionRevoked, domainauth.CodeNoSession:
		return http.StatusUnauthorized
	case domainauth.CodeUserDisabled, domainauth.CodeForbidden,
		domainauth.CodeEmailNotVerified, domainauth.CodeRequiresVerification:
		return http.StatusForbidden
	case domainauth.CodeEmailExists:
		return http.StatusConflict
	case domainauth.CodeTooManyAttempts:
		return http.StatusTooManyRequests
	case domainauth.CodeNetworkError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// CreateSession exchanges a client-side ID token for the session cookies.
// POST /api/auth/session.
func (h *AuthHandlers) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.IDToken) == "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: string(domainauth.CodeInvalidToken),
			Err:     apperrors.ValidationField("idToken", "idToken is required"),
		})
		return
	}
	res := h.Sessions.SetServerSession(r.Context(), h.jar(w, r), req.IDToken)
	writeOutcome(w, domainauth.SignInOutcome{Result: res}, http.StatusOK)
}

// SignInWithEmail signs in with email and password.
// POST /api/auth/sign-in.
func (h *AuthHandlers) SignInWithEmail(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	out := h.SignIn.SignInWithEmail(r.Context(), h.jar(w, r), req.Email, req.Password)
	writeOutcome(w, out, http.StatusOK)
}

// SignUp creates an account; the caller must verify the email before signing in.
// POST /api/auth/sign-up.
func (h *AuthHandlers) SignUp(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	writeOutcome(w, h.SignIn.SignUp(r.Context(), req.Email, req.Password), http.StatusCreated)
}

// ResendVerification sends another verification email.
// POST /api/auth/resend.
func (h *AuthHandlers) ResendVerification(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	res := h.SignIn.ResendVerification(r.Context(), req.Email, req.Password)
	writeOutcome(w, domainauth.SignInOutcome{Result: res}, http.StatusOK)
}

// SignOut clears the session cookies and revokes refresh tokens.
// POST /api/auth/sign-out. Form posts are redirected to /sign-in.
func (h *AuthHandlers) SignOut(w http.ResponseWriter, r *http.Request) {
	res := h.Sessions.ClearSession(r.Context(), h.jar(w, r))
	if isFormPost(r) {
		http.Redirect(w, r, "/sign-in", http.StatusSeeOther)
		return
	}
	WriteJSON(w, http.StatusOK, res)
}

// Status reports the current user's live session state. It always answers 200.
// GET /api/auth/status.
func (h *AuthHandlers) Status(w http.ResponseWriter, r *http.Request) {
	st := h.Sessions.VerifyCurrentUser(r.Context(), h.jar(w, r))
	WriteJSON(w, http.StatusOK, st)
}

// FederatedLogin starts the OIDC flow and redirects to the upstream provider.
// GET /auth/federated/{provider}/login.
func (h *AuthHandlers) FederatedLogin(w http.ResponseWriter, r *http.Request) {
	providerID := r.PathValue("provider")
	callback := callbackURL(r, providerID)

	start, err := h.SignIn.BeginFederated(r.Context(), providerID, callback)
	if err != nil {
		if apperrors.IsNotFound(err) {
			http.Redirect(w, r, signInErrorURL(domainauth.CodeOperationNotAllowed), http.StatusSeeOther)
			return
		}
		h.logger().ErrorContext(r.Context(), "federated login failed", "provider", providerID, "error", err)
		http.Redirect(w, r, signInErrorURL(domainauth.CodeInternal), http.StatusSeeOther)
		return
	}

	shortLivedCookie(w, r, flowCookie{Name: federatedStateCookie, Value: start.State, Domain: h.CookieDomain})
	shortLivedCookie(w, r, flowCookie{Name: federatedNonceCookie, Value: start.Nonce, Domain: h.CookieDomain})
	shortLivedCookie(w, r, flowCookie{
		Name:   federatedRedirectCookie,
		Value:  safeRedirectPath(r.URL.Query().Get("redirect")),
		Domain: h.CookieDomain,
	})
	http.Redirect(w, r, start.AuthURL, http.StatusFound)
}

// FederatedCallback completes the OIDC flow and establishes the session.
// GET /auth/federated/{provider}/callback.
func (h *AuthHandlers) FederatedCallback(w http.ResponseWriter, r *http.Request) {
	providerID := r.PathValue("provider")
	jar := h.jar(w, r)
	q := r.URL.Query()

	if upstreamErr := q.Get("error"); upstreamErr != "" {
		h.logger().InfoContext(r.Context(), "federated sign-in declined upstream", "provider", providerID, "error", upstreamErr)
		h.clearFlowCookies(jar)
		http.Redirect(w, r, signInErrorURL(domainauth.CodeOperationNotAllowed), http.StatusSeeOther)
		return
	}

	expectedState, _ := jar.Get(federatedStateCookie)
	nonce, _ := jar.Get(federatedNonceCookie)
	redirect, _ := jar.Get(federatedRedirectCookie)
	h.clearFlowCookies(jar)

	out := h.SignIn.CompleteFederated(r.Context(), jar, providerID, service.FederatedCallback{
		Code:          q.Get("code"),
		State:         q.Get("state"),
		ExpectedState: expectedState,
		Nonce:         nonce,
		RequestURI:    callbackURL(r, providerID),
	})
	if !out.Success {
		http.Redirect(w, r, signInErrorURL(out.Code), http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, safeRedirectPath(redirect), http.StatusFound)
}

func (h *AuthHandlers) clearFlowCookies(jar *requestJar) {
	jar.Delete(federatedStateCookie)
	jar.Delete(federatedNonceCookie)
	jar.Delete(federatedRedirectCookie)
}

// callbackURL is the absolute callback URL for providerID as seen by the browser.
func callbackURL(r *http.Request, providerID string) string {
	scheme := "http"
	if isSecureRequest(r) {
		scheme = "https"
	}
	u := url.URL{Scheme: scheme, Host: r.Host, Path: "/auth/federated/" + url.PathEscape(providerID) + "/callback"}
	return u.String()
}

func signInErrorURL(code domainauth.Code) string {
	return "/sign-in?error=" + url.QueryEscape(string(code))
}

func isFormPost(r *http.Request) bool {
	ct := r.Header.Get("Content-Type")
	return strings.HasPrefix(ct, "application/x-www-form-urlencoded") || strings.HasPrefix(ct, "multipart/form-data")
}
