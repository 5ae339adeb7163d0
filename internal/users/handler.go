package users

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/estateguard/estate/internal/platform/httpx"
	"github.com/estateguard/estate/internal/rbac"
	"github.com/estateguard/estate/internal/shared"
)

const resource = "/users"

// Handler manages user management endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	rbac    rbac.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbac}
}

// MountRoutes registers user routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.rbac.Require(rbac.Can(resource, rbac.ActionRead))).Get("/", h.listUsers)
	r.With(h.rbac.Require(rbac.Can(resource, rbac.ActionUpdate))).Patch("/{id}/role", h.changeRole)
	r.With(h.rbac.Require(rbac.Can(resource, rbac.ActionUpdate))).Put("/{id}", h.updateUser)
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := ListFilter{
		Username:    strings.TrimSpace(q.Get("username")),
		Statuses:    nonEmpty(q["status"]),
		Roles:       nonEmpty(q["role"]),
		PageRequest: shared.ParsePageRequest(q),
	}
	page, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("list users failed", slog.Any("error", err))
		httpx.Error(w, http.StatusInternalServerError, "internal_server_error")
		return
	}
	httpx.JSON(w, http.StatusOK, page)
}

type roleRequest struct {
	Role string `json:"role"`
}

func (h *Handler) changeRole(w http.ResponseWriter, r *http.Request) {
	if !httpx.IsJSON(r) {
		httpx.Error(w, http.StatusBadRequest, "invalid_content_type")
		return
	}
	var req roleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid_role")
		return
	}
	id := chi.URLParam(r, "id")
	err := h.service.ChangeRole(r.Context(), id, req.Role)
	switch {
	case errors.Is(err, ErrInvalidRole):
		httpx.Error(w, http.StatusBadRequest, "invalid_role")
	case errors.Is(err, shared.ErrNotFound):
		httpx.Error(w, http.StatusNotFound, "not_found")
	case err != nil:
		h.logger.Error("change user role", slog.String("user_id", id), slog.Any("error", err))
		httpx.Error(w, http.StatusInternalServerError, "internal_server_error")
	default:
		httpx.JSON(w, http.StatusOK, map[string]any{"success": true, "role": strings.TrimSpace(req.Role)})
	}
}

func (h *Handler) updateUser(w http.ResponseWriter, r *http.Request) {
	if !httpx.IsJSON(r) {
		httpx.Error(w, http.StatusBadRequest, "invalid_content_type")
		return
	}
	var in UpdateInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid_payload")
		return
	}
	id := chi.URLParam(r, "id")
	u, err := h.service.Update(r.Context(), id, in)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) && !errors.Is(err, shared.ErrDuplicate) {
			h.logger.Error("update user", slog.String("user_id", id), slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, u)
}

func nonEmpty(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
