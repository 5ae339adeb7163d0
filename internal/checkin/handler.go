package checkin

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/estateguard/estate/internal/platform/httpx"
	"github.com/estateguard/estate/internal/rbac"
	"github.com/estateguard/estate/internal/shared"
)

// Handler exposes the check-in endpoints.
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

// MountRoutes registers check-in routes. Every route needs a credential.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.requireCredential)
		r.Post("/", h.submit)
		r.Get("/", h.read)
	})
}

func (h *Handler) requireCredential(next http.Handler) http.Handler {
	inner := h.rbac.RequireCredential(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.TrimSpace(r.Header.Get("Authorization")) == "" && r.Method == http.MethodPost {
			h.service.RejectUnauthenticated()
		}
		inner.ServeHTTP(w, r)
	})
}

// latitude and longitude of exactly 0 count as missing.
type submitRequest struct {
	Latitude  float64 `json:"latitude" validate:"required,min=-90,max=90"`
	Longitude float64 `json:"longitude" validate:"required,min=-180,max=180"`
	UserID    string  `json:"userId" validate:"required"`
}

// checkpoint carries the matched checkpoint's name.
type submitResponse struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	Checkpoint string `json:"checkpoint"`
	Timestamp  string `json:"timestamp"`
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := httpx.DecodeJSON(r, &req); err != nil || h.validator.Struct(req) != nil {
		httpx.Error(w, http.StatusBadRequest, "Missing location or user ID")
		return
	}
	res, err := h.service.Submit(r.Context(), Submission{
		UserID: strings.TrimSpace(req.UserID),
		Point:  Point{Latitude: req.Latitude, Longitude: req.Longitude},
	})
	if err != nil {
		h.logger.Error("check-in failed", slog.String("user_id", req.UserID), slog.Any("error", err))
		httpx.Error(w, http.StatusInternalServerError, "Check-in failed")
		return
	}
	switch res.Outcome {
	case OutcomeConfirmed:
		httpx.JSON(w, http.StatusOK, submitResponse{
			Success:    true,
			Message:    res.Message,
			Checkpoint: res.Checkpoint.Name,
			Timestamp:  shared.FormatTimestamp(res.Entry.Timestamp),
		})
	case OutcomeRejectedRateLimit:
		httpx.Error(w, http.StatusTooManyRequests, res.Message)
	default:
		httpx.Error(w, http.StatusBadRequest, res.Message)
	}
}

type logBody struct {
	ID             string  `json:"id"`
	UserID         string  `json:"user_id"`
	CheckpointID   string  `json:"checkpoint_id"`
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	Timestamp      string  `json:"timestamp"`
	CheckpointName *string `json:"checkpoint_name"`
}

func (h *Handler) read(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	userID, checkpointID := q.Get("userId"), q.Get("checkpointId")
	if userID != "" && checkpointID != "" {
		last, err := h.service.LastCheckIn(r.Context(), userID, checkpointID)
		if err != nil {
			h.logger.Error("last check-in", slog.Any("error", err))
			httpx.Error(w, http.StatusInternalServerError, "Failed to fetch check-in")
			return
		}
		var ts *string
		if last != nil {
			s := shared.FormatTimestamp(*last)
			ts = &s
		}
		httpx.JSON(w, http.StatusOK, map[string]*string{"lastCheckIn": ts})
		return
	}

	logs, err := h.service.ListLogs(r.Context())
	if err != nil {
		h.logger.Error("list check-ins", slog.Any("error", err))
		httpx.Error(w, http.StatusInternalServerError, "Failed to fetch check-ins")
		return
	}
	out := make([]logBody, 0, len(logs))
	for _, l := range logs {
		out = append(out, logBody{
			ID:             l.ID,
			UserID:         l.UserID,
			CheckpointID:   l.CheckpointID,
			Latitude:       l.Latitude,
			Longitude:      l.Longitude,
			Timestamp:      shared.FormatTimestamp(l.Timestamp),
			CheckpointName: l.CheckpointName,
		})
	}
	httpx.JSON(w, http.StatusOK, out)
}
