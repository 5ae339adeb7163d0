package checkin

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/estateguard/estate/internal/platform/httpx"
	"github.com/estateguard/estate/internal/rbac"
)

// SettingsHandler exposes the geofence settings singleton.
type SettingsHandler struct {
	logger  *slog.Logger
	service *Service
	rbac    rbac.Middleware
}

// NewSettingsHandler builds SettingsHandler instance.
func NewSettingsHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *SettingsHandler {
	return &SettingsHandler{logger: logger, service: service, rbac: rbac}
}

// MountRoutes registers settings routes.
func (h *SettingsHandler) MountRoutes(r chi.Router) {
	r.Get("/", h.get)
	r.With(h.rbac.Require(rbac.Can("/settings", rbac.ActionUpdate))).Post("/", h.update)
}

type settingsBody struct {
	Radius     float64 `json:"radius"`
	TimeWindow int     `json:"timeWindow"`
}

type settingsRequest struct {
	Radius     json.Number `json:"radius"`
	TimeWindow json.Number `json:"timeWindow"`
}

func (h *SettingsHandler) get(w http.ResponseWriter, r *http.Request) {
	st, err := h.service.Settings(r.Context())
	if err != nil {
		h.logger.Error("get check-in settings", slog.Any("error", err))
		httpx.Error(w, http.StatusInternalServerError, "Failed to fetch settings")
		return
	}
	httpx.JSON(w, http.StatusOK, settingsBody{Radius: st.RadiusMeters, TimeWindow: st.WindowMinutes})
}

func (h *SettingsHandler) update(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid input")
		return
	}
	radius, rerr := req.Radius.Float64()
	window, werr := req.TimeWindow.Int64()
	if rerr != nil || werr != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid input")
		return
	}
	st, err := h.service.UpdateSettings(r.Context(), radius, int(window))
	if err != nil {
		if errors.Is(err, ErrInvalidSettings) {
			httpx.Error(w, http.StatusBadRequest, "Invalid input")
			return
		}
		h.logger.Error("update check-in settings", slog.Any("error", err))
		httpx.Error(w, http.StatusInternalServerError, "Failed to update settings")
		return
	}
	httpx.JSON(w, http.StatusOK, settingsBody{Radius: st.RadiusMeters, TimeWindow: st.WindowMinutes})
}
