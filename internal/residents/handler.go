package residents

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

const resource = "/residents"

// Handler exposes the resident directory.
type Handler struct {
	logger  *slog.Logger
	service *Service
	rbac    rbac.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbac}
}

// MountRoutes registers resident routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.rbac.Require(rbac.Can(resource, rbac.ActionRead))).Get("/", h.list)
	r.With(h.rbac.Require(rbac.Can(resource, rbac.ActionCreate))).Post("/", h.create)
	r.With(h.rbac.Require(rbac.Can(resource, rbac.ActionUpdate))).Put("/{id}", h.update)
	r.With(h.rbac.Require(rbac.Can(resource, rbac.ActionDelete))).Delete("/{id}", h.delete)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var types []string
	for _, t := range q["houseType"] {
		if t = strings.TrimSpace(t); t != "" {
			types = append(types, t)
		}
	}
	page, err := h.service.List(r.Context(), ListFilter{
		Query:       q.Get("filter"),
		HouseTypes:  types,
		PageRequest: shared.ParsePageRequest(q),
	})
	if err != nil {
		h.logger.Error("list residents", slog.Any("error", err))
		httpx.Error(w, http.StatusInternalServerError, "Failed to fetch residents")
		return
	}
	if len(page.Data) == 0 {
		httpx.NoContent(w)
		return
	}
	httpx.JSON(w, http.StatusOK, page)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var in Input
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Error(w, http.StatusBadRequest, "House number is required")
		return
	}
	res, err := h.service.Create(r.Context(), in)
	if err != nil {
		h.fail(w, "create resident", err, "Failed to create resident")
		return
	}
	httpx.JSON(w, http.StatusCreated, res)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var in Input
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Error(w, http.StatusBadRequest, "House number is required")
		return
	}
	res, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		h.fail(w, "update resident", err, "Failed to update resident")
		return
	}
	httpx.JSON(w, http.StatusOK, res)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, "delete resident", err, "Failed to delete resident")
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error, fallback string) {
	switch {
	case errors.Is(err, ErrHouseNoRequired):
		httpx.Error(w, http.StatusBadRequest, "House number is required")
	case errors.Is(err, ErrOwnerIncomplete):
		httpx.Error(w, http.StatusBadRequest, "Owner name and phone are required")
	case errors.Is(err, shared.ErrNotFound):
		httpx.Error(w, http.StatusNotFound, "Resident not found")
	case errors.Is(err, shared.ErrDuplicate):
		httpx.Error(w, http.StatusConflict, "House number already exists")
	default:
		h.logger.Error(op, slog.Any("error", err))
		httpx.Error(w, http.StatusInternalServerError, fallback)
	}
}
