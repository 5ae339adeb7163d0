package checkpoints

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/estateguard/estate/internal/platform/httpx"
	"github.com/estateguard/estate/internal/rbac"
	"github.com/estateguard/estate/internal/shared"
)

const resource = "/checkpoints"

// Handler exposes checkpoint CRUD.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	rbac      rbac.Middleware
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbac, validator: validator.New()}
}

// MountRoutes registers checkpoint routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.rbac.Require(rbac.Can(resource, rbac.ActionRead))).Get("/", h.list)
	r.With(h.rbac.Require(rbac.Can(resource, rbac.ActionCreate))).Post("/", h.create)
	r.With(h.rbac.Require(rbac.Can(resource, rbac.ActionUpdate))).Put("/{id}", h.update)
	r.With(h.rbac.Require(rbac.Can(resource, rbac.ActionDelete))).Delete("/{id}", h.delete)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := h.service.List(r.Context(), q.Get("name"), shared.ParsePageRequest(q))
	if err != nil {
		h.logger.Error("list checkpoints", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if len(page.Data) == 0 {
		httpx.NoContent(w)
		return
	}
	httpx.JSON(w, http.StatusOK, page)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	in, ok := h.decode(w, r)
	if !ok {
		return
	}
	c, err := h.service.Create(r.Context(), in)
	if err != nil {
		h.logger.Error("create checkpoint", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, c)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	in, ok := h.decode(w, r)
	if !ok {
		return
	}
	c, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		h.logger.Warn("update checkpoint", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.logger.Warn("delete checkpoint", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (Input, bool) {
	if !httpx.IsJSON(r) {
		httpx.Error(w, http.StatusBadRequest, "invalid_content_type")
		return Input{}, false
	}
	var in Input
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid_payload")
		return Input{}, false
	}
	if err := h.validator.Struct(in); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid_payload")
		return Input{}, false
	}
	return in, true
}
