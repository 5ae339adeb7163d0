package users

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/estateguard/estate/internal/credential"
	"github.com/estateguard/estate/internal/platform/httpx"
	"github.com/estateguard/estate/internal/rbac"
	"github.com/estateguard/estate/internal/shared"
)

// ProfileHandler serves the signed-in user's own profile. Callers holding
// /users:update may read and edit any profile.
type ProfileHandler struct {
	logger  *slog.Logger
	service *Service
	rbac    rbac.Middleware
}

// NewProfileHandler builds ProfileHandler instance.
func NewProfileHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *ProfileHandler {
	return &ProfileHandler{logger: logger, service: service, rbac: rbac}
}

// MountRoutes registers profile routes.
func (h *ProfileHandler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireCredential)
		r.Get("/", h.get)
		r.Patch("/", h.patch)
	})
}

func (h *ProfileHandler) owns(r *http.Request, email string) bool {
	claims, _ := credential.FromContext(r.Context())
	if claims.Sentinel || (claims.Email != "" && strings.EqualFold(claims.Email, email)) {
		return true
	}
	return h.rbac.Gate.AuthorizeClaims(r.Context(), claims, rbac.Can(resource, rbac.ActionUpdate))
}

func (h *ProfileHandler) get(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.URL.Query().Get("email"))
	if email == "" {
		httpx.Error(w, http.StatusBadRequest, "invalid_email")
		return
	}
	if !h.owns(r, email) {
		httpx.Error(w, http.StatusForbidden, "forbidden")
		return
	}
	p, err := h.service.Profile(r.Context(), email)
	if errors.Is(err, shared.ErrNotFound) {
		httpx.NoContent(w)
		return
	}
	if err != nil {
		h.logger.Error("fetch profile", slog.Any("error", err))
		httpx.Error(w, http.StatusInternalServerError, "profile_fetch_failed")
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

type profileRequest struct {
	Email string `json:"email"`
	ProfileInput
}

func (h *ProfileHandler) patch(w http.ResponseWriter, r *http.Request) {
	if !httpx.IsJSON(r) {
		httpx.Error(w, http.StatusBadRequest, "invalid_content_type")
		return
	}
	var req profileRequest
	if err := httpx.DecodeJSON(r, &req); err != nil || strings.TrimSpace(req.Email) == "" {
		httpx.Error(w, http.StatusBadRequest, "invalid_email")
		return
	}
	if !h.owns(r, req.Email) {
		httpx.Error(w, http.StatusForbidden, "forbidden")
		return
	}
	err := h.service.UpdateProfile(r.Context(), req.Email, req.ProfileInput)
	switch {
	case errors.Is(err, ErrNoFields):
		httpx.Error(w, http.StatusBadRequest, "no_fields")
	case errors.Is(err, shared.ErrNotFound):
		httpx.Error(w, http.StatusNotFound, "not_found")
	case err != nil:
		h.logger.Error("update profile", slog.Any("error", err))
		httpx.Error(w, http.StatusInternalServerError, "profile_update_failed")
	default:
		httpx.JSON(w, http.StatusOK, map[string]bool{"success": true})
	}
}
