package rbac

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/estateguard/estate/internal/platform/httpx"
)

// ACLHandler serves the per-role permission matrix.
type ACLHandler struct {
	logger  *slog.Logger
	service *Service
}

// NewACLHandler builds an ACLHandler.
func NewACLHandler(logger *slog.Logger, service *Service) *ACLHandler {
	return &ACLHandler{logger: logger, service: service}
}

// MountRoutes registers ACL routes.
func (h *ACLHandler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.save)
}

type aclRow struct {
	Resource  string `json:"resource"`
	CanCreate bool   `json:"can_create"`
	CanRead   bool   `json:"can_read"`
	CanUpdate bool   `json:"can_update"`
	CanDelete bool   `json:"can_delete"`
}

type aclEntry struct {
	Resource string `json:"resource"`
	Create   bool   `json:"create"`
	Read     bool   `json:"read"`
	Update   bool   `json:"update"`
	Delete   bool   `json:"delete"`
}

type aclSaveRequest struct {
	Role        string     `json:"role"`
	Permissions []aclEntry `json:"permissions"`
}

func (h *ACLHandler) list(w http.ResponseWriter, r *http.Request) {
	role := strings.TrimSpace(r.URL.Query().Get("role"))
	if role == "" {
		httpx.Error(w, http.StatusBadRequest, "missing_role")
		return
	}
	perms, err := h.service.PermissionsForRole(r.Context(), role)
	if err != nil {
		h.logger.Error("acl list", slog.String("role", role), slog.Any("error", err))
		httpx.Error(w, http.StatusInternalServerError, "internal_server_error")
		return
	}
	rows := make([]aclRow, 0, len(perms))
	for _, p := range perms {
		rows = append(rows, aclRow{Resource: p.Resource, CanCreate: p.Create, CanRead: p.Read, CanUpdate: p.Update, CanDelete: p.Delete})
	}
	httpx.JSON(w, http.StatusOK, rows)
}

func (h *ACLHandler) save(w http.ResponseWriter, r *http.Request) {
	var req aclSaveRequest
	if err := httpx.DecodeJSON(r, &req); err != nil || strings.TrimSpace(req.Role) == "" || len(req.Permissions) == 0 {
		httpx.Error(w, http.StatusBadRequest, "invalid_payload")
		return
	}
	entries := make([]Permission, 0, len(req.Permissions))
	for _, e := range req.Permissions {
		entries = append(entries, Permission{Resource: e.Resource, Create: e.Create, Read: e.Read, Update: e.Update, Delete: e.Delete})
	}
	if _, err := h.service.SavePermissions(r.Context(), req.Role, entries); err != nil {
		h.logger.Error("acl save", slog.String("role", req.Role), slog.Any("error", err))
		httpx.Error(w, http.StatusInternalServerError, "internal_server_error")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"ok": true})
}
