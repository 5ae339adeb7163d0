package homestay

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/estateguard/estate/internal/platform/httpx"
	"github.com/estateguard/estate/internal/rbac"
	"github.com/estateguard/estate/internal/shared"
)

var (
	listRule = rbac.Rule{
		Resource:          "/check-in-logs",
		Action:            rbac.ActionRead,
		BypassRoles:       []string{"admin"},
		FallbackResources: []string{"homestay-checkins"},
	}
	updateRule = rbac.Can("/check-in-logs", rbac.ActionUpdate)
)

// Handler exposes homestay guest check-ins.
type Handler struct {
	logger  *slog.Logger
	service *Service
	rbac    rbac.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbac}
}

// MountRoutes registers homestay routes. Submitting is public.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.submit)
	r.With(h.rbac.Require(listRule)).Get("/", h.list)
	r.With(h.rbac.Require(updateRule)).Put("/{id}", h.update)
}

type checkinRequest struct {
	HomestayID      string      `json:"homestayId"`
	PersonInCharge  string      `json:"personInCharge"`
	NumberOfGuests  json.Number `json:"numberOfGuests"`
	NumberPlates    Plates      `json:"numberPlates"`
	DateOfArrival   string      `json:"dateOfArrival"`
	DateOfDeparture string      `json:"dateOfDeparture"`
	AdditionalNotes string      `json:"additionalNotes"`
}

func (req checkinRequest) details() (Details, bool) {
	guests, err := req.NumberOfGuests.Int64()
	if err != nil || guests <= 0 || strings.TrimSpace(req.PersonInCharge) == "" {
		return Details{}, false
	}
	return Details{
		PersonInCharge: req.PersonInCharge,
		Guests:         int(guests),
		Plates:         req.NumberPlates,
		Arrival:        optional(req.DateOfArrival),
		Departure:      optional(req.DateOfDeparture),
		Notes:          optional(req.AdditionalNotes),
	}, true
}

type checkinBody struct {
	ID              string   `json:"id"`
	HomestayID      string   `json:"homestayId,omitempty"`
	PersonInCharge  string   `json:"personInCharge"`
	NumberOfGuests  int      `json:"numberOfGuests"`
	NumberPlates    []string `json:"numberPlates"`
	DateOfArrival   *string  `json:"dateOfArrival,omitempty"`
	DateOfDeparture *string  `json:"dateOfDeparture,omitempty"`
	AdditionalNotes *string  `json:"additionalNotes,omitempty"`
	SubmittedAt     string   `json:"submittedAt,omitempty"`
}

func toBody(c Checkin) checkinBody {
	return checkinBody{
		ID:              c.ID,
		HomestayID:      c.HomestayID,
		PersonInCharge:  c.PersonInCharge,
		NumberOfGuests:  c.Guests,
		NumberPlates:    c.Plates,
		DateOfArrival:   c.Arrival,
		DateOfDeparture: c.Departure,
		AdditionalNotes: c.Notes,
		SubmittedAt:     shared.FormatTimestamp(c.SubmittedAt),
	}
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	var req checkinRequest
	err := httpx.DecodeJSON(r, &req)
	d, ok := req.details()
	if err != nil || !ok || strings.TrimSpace(req.HomestayID) == "" {
		httpx.Error(w, http.StatusBadRequest, "homestayId, personInCharge, numberOfGuests are required")
		return
	}
	c, err := h.service.Submit(r.Context(), req.HomestayID, d)
	if err != nil {
		h.logger.Error("submit homestay check-in", slog.Any("error", err))
		httpx.Error(w, http.StatusInternalServerError, "Failed to create homestay check-in")
		return
	}
	httpx.JSON(w, http.StatusCreated, toBody(c))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var req checkinRequest
	err := httpx.DecodeJSON(r, &req)
	d, ok := req.details()
	if err != nil || !ok {
		httpx.Error(w, http.StatusBadRequest, "personInCharge and numberOfGuests are required")
		return
	}
	id := chi.URLParam(r, "id")
	d, err = h.service.Update(r.Context(), id, d)
	if err != nil {
		h.logger.Warn("update homestay check-in", slog.String("id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, checkinBody{
		ID:              id,
		PersonInCharge:  d.PersonInCharge,
		NumberOfGuests:  d.Guests,
		NumberPlates:    d.Plates,
		DateOfArrival:   d.Arrival,
		DateOfDeparture: d.Departure,
		AdditionalNotes: d.Notes,
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("latestByHomestay") == "true" {
		items, err := h.service.Latest(r.Context())
		if err != nil {
			h.logger.Error("latest homestay check-ins", slog.Any("error", err))
			httpx.Error(w, http.StatusInternalServerError, "Failed to fetch homestay check-ins")
			return
		}
		if len(items) == 0 {
			httpx.NoContent(w)
			return
		}
		httpx.JSON(w, http.StatusOK, map[string][]checkinBody{"data": toBodies(items)})
		return
	}

	page, err := h.service.List(r.Context(), q.Get("homestayId"), shared.ParsePageRequest(q))
	if err != nil {
		h.logger.Error("list homestay check-ins", slog.Any("error", err))
		httpx.Error(w, http.StatusInternalServerError, "Failed to fetch homestay check-ins")
		return
	}
	if len(page.Data) == 0 {
		httpx.NoContent(w)
		return
	}
	httpx.JSON(w, http.StatusOK, shared.Page[checkinBody]{
		Page: page.Page, PageSize: page.PageSize, Total: page.Total, Data: toBodies(page.Data),
	})
}

func toBodies(items []Checkin) []checkinBody {
	out := make([]checkinBody, 0, len(items))
	for _, c := range items {
		out = append(out, toBody(c))
	}
	return out
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
