package httpx

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/ternsecure/tern-admin/internal/domain/audit"
	"github.com/ternsecure/tern-admin/internal/service"
)

const (
	defaultAuditLimit = 100
	maxAuditLimit     = 500
)

// AdminHandlers serves the admin JSON API.
type AdminHandlers struct {
	Registry  *service.RegistryService
	Directory *service.DirectoryService
	Dashboard *service.DashboardService
	Logger    *slog.Logger
}

func (h *AdminHandlers) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// actionResponse acknowledges a registry mutation.
type actionResponse struct {
	Success bool   `json:"success"`
	UID     string `json:"uid"`
	Role    string `json:"role,omitempty"`
}

type roleRequest struct {
	Role string `json:"role"`
}

// writeServiceError logs server-side failures and writes the mapped error envelope.
func (h *AdminHandlers) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status, _ := statusForError(err)
	if status >= http.StatusInternalServerError {
		h.logger().ErrorContext(r.Context(), "admin request failed", "path", r.URL.Path, "error", err)
	}
	WriteAppError(w, err)
}

// Overview returns the dashboard aggregates.
// GET /api/admin/overview.
func (h *AdminHandlers) Overview(w http.ResponseWriter, r *http.Request) {
	o, err := h.Dashboard.Overview(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, o)
}

// ListUsers returns one page of the filtered account directory.
// GET /api/admin/users?search=&role=&status=&page=&pageSize=&expr=.
func (h *AdminHandlers) ListUsers(w http.ResponseWriter, r *http.Request) {
	page, err := h.Directory.List(r.Context(), queryFromRequest(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, page)
}

// ListDisabled returns every registry record, newest first.
// GET /api/admin/disabled.
func (h *AdminHandlers) ListDisabled(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.Registry.ListDisabled(r.Context()))
}

// ListAudit returns recent audit events, optionally for one target uid.
// GET /api/admin/audit?uid=&limit=.
func (h *AdminHandlers) ListAudit(w http.ResponseWriter, r *http.Request) {
	limit := min(max(parseIntQuery(r, "limit", defaultAuditLimit), 1), maxAuditLimit)
	events, err := h.Registry.Audit(r.Context(), audit.ListFilter{
		TargetUID: strings.TrimSpace(r.URL.Query().Get("uid")),
		Limit:     limit,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if events == nil {
		events = []audit.Event{}
	}
	WriteJSON(w, http.StatusOK, events)
}

// Disable disables the account and records it in the registry.
// POST /api/admin/users/{uid}/disable.
func (h *AdminHandlers) Disable(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.Registry.Disable)
}

// Enable re-enables the account and removes its registry record.
// POST /api/admin/users/{uid}/enable.
func (h *AdminHandlers) Enable(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.Registry.Enable)
}

// Delete removes the account.
// POST /api/admin/users/{uid}/delete.
func (h *AdminHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.Registry.Delete)
}

// SetRole replaces the account's role claim.
// POST /api/admin/users/{uid}/role with body {"role": "..."}.
func (h *AdminHandlers) SetRole(w http.ResponseWriter, r *http.Request) {
	var req roleRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	uid := r.PathValue("uid")
	if err := h.Registry.SetRole(r.Context(), uid, req.Role); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, actionResponse{Success: true, UID: uid, Role: strings.ToLower(strings.TrimSpace(req.Role))})
}

func (h *AdminHandlers) mutate(w http.ResponseWriter, r *http.Request, op registryOp) {
	uid := r.PathValue("uid")
	if err := op(r.Context(), uid); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, actionResponse{Success: true, UID: uid})
}

// queryFromRequest reads directory filters from the query string.
func queryFromRequest(r *http.Request) service.Query {
	q := r.URL.Query()
	return service.Query{
		Search:   q.Get("search"),
		Role:     q.Get("role"),
		Status:   q.Get("status"),
		Page:     parseIntQuery(r, "page", 1),
		PageSize: parseIntQuery(r, "pageSize", service.DefaultPageSize),
		Expr:     q.Get("expr"),
	}
}
