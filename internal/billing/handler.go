package billing

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/estateguard/estate/internal/credential"
	"github.com/estateguard/estate/internal/platform/httpx"
	"github.com/estateguard/estate/internal/rbac"
	"github.com/estateguard/estate/internal/shared"
)

// Handler exposes billing settings and payments.
type Handler struct {
	logger  *slog.Logger
	service *Service
	rbac    rbac.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbac}
}

// MountRoutes registers billing routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/settings", h.getSettings)
	r.With(h.rbac.RequireAny(
		rbac.Can("/settings", rbac.ActionUpdate),
		rbac.Can("/settings", rbac.ActionRead),
	)).Post("/settings", h.updateSettings)
	r.Get("/settings-history", h.history)

	r.Route("/payments", func(r chi.Router) {
		r.Post("/", h.submitPayment)
		r.With(h.rbac.Require(rbac.Can("/billing", rbac.ActionRead))).Get("/", h.listPayments)
		r.With(h.rbac.Require(rbac.Can("/billing", rbac.ActionUpdate))).Put("/", h.reviewPayment)
	})
}

type settingsBody struct {
	ID        string  `json:"id"`
	Rate      float64 `json:"rate"`
	Frequency string  `json:"frequency"`
	QRKey     *string `json:"qrKey"`
	BGKey     *string `json:"bgKey"`
	StartDate string  `json:"startDate"`
	UpdatedAt string  `json:"updatedAt"`
}

func toSettingsBody(s Settings) settingsBody {
	return settingsBody{
		ID:        s.ID,
		Rate:      s.Rate,
		Frequency: s.Frequency,
		QRKey:     s.QRKey,
		BGKey:     s.BGKey,
		StartDate: s.StartDate,
		UpdatedAt: shared.FormatTimestamp(s.UpdatedAt),
	}
}

type settingsRequest struct {
	Rate      json.Number     `json:"rate"`
	Frequency string          `json:"frequency"`
	QRKey     json.RawMessage `json:"qrKey"`
	BGKey     json.RawMessage `json:"bgKey"`
	StartDate string          `json:"startDate"`
}

func (h *Handler) getSettings(w http.ResponseWriter, r *http.Request) {
	s, err := h.service.CurrentSettings(r.Context())
	if errors.Is(err, shared.ErrNotFound) {
		httpx.NoContent(w)
		return
	}
	if err != nil {
		h.logger.Error("get billing settings", slog.Any("error", err))
		httpx.Error(w, http.StatusInternalServerError, "Failed to fetch billing settings")
		return
	}
	httpx.JSON(w, http.StatusOK, toSettingsBody(s))
}

func (h *Handler) updateSettings(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		req = settingsRequest{}
	}
	rate, _ := req.Rate.Float64()
	in := SettingsInput{
		Rate:      rate,
		Frequency: req.Frequency,
		QRKey:     stringOrNil(req.QRKey),
		BGKey:     stringOrNil(req.BGKey),
		StartDate: req.StartDate,
	}
	claims, _ := credential.FromContext(r.Context())
	s, err := h.service.UpdateSettings(r.Context(), in, claims.Subject)
	if err != nil {
		h.respond(w, "update billing settings", err, "Failed to update billing settings")
		return
	}
	httpx.JSON(w, http.StatusOK, toSettingsBody(s))
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.History(r.Context())
	if err != nil {
		h.logger.Error("billing history", slog.Any("error", err))
		httpx.Error(w, http.StatusInternalServerError, "Failed to fetch history")
		return
	}
	httpx.JSON(w, http.StatusOK, items)
}

func (h *Handler) listPayments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	items, err := h.service.ListPayments(r.Context(), PaymentFilter{
		HouseID: q.Get("houseId"),
		Status:  q.Get("status"),
		Start:   q.Get("start"),
		End:     q.Get("end"),
	})
	if err != nil {
		h.logger.Error("list payments", slog.Any("error", err))
		httpx.Error(w, http.StatusInternalServerError, "Failed to fetch payments")
		return
	}
	httpx.JSON(w, http.StatusOK, items)
}

type paymentRequest struct {
	HouseID     string      `json:"houseId"`
	Amount      json.Number `json:"amount"`
	ReceiptKey  string      `json:"receiptKey"`
	PaymentDate string      `json:"paymentDate"`
}

type paymentBody struct {
	ID          string  `json:"id"`
	HouseID     string  `json:"houseId"`
	Amount      float64 `json:"amount"`
	ReceiptKey  string  `json:"receiptKey"`
	PaymentDate string  `json:"paymentDate"`
	Status      string  `json:"status"`
	CreatedAt   string  `json:"createdAt"`
}

func (h *Handler) submitPayment(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		req = paymentRequest{}
	}
	amount, _ := req.Amount.Float64()
	p, err := h.service.SubmitPayment(r.Context(), PaymentInput{
		HouseID:     req.HouseID,
		Amount:      amount,
		ReceiptKey:  req.ReceiptKey,
		PaymentDate: req.PaymentDate,
	})
	if err != nil {
		h.respond(w, "submit payment", err, "Failed to submit payment")
		return
	}
	httpx.JSON(w, http.StatusOK, paymentBody{
		ID:          p.ID,
		HouseID:     p.HouseID,
		Amount:      p.Amount,
		ReceiptKey:  p.ReceiptKey,
		PaymentDate: p.PaymentDate,
		Status:      p.Status,
		CreatedAt:   shared.FormatTimestamp(p.CreatedAt),
	})
}

type reviewRequest struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

func (h *Handler) reviewPayment(w http.ResponseWriter, r *http.Request) {
	var req reviewRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		req = reviewRequest{}
	}
	if err := h.service.ReviewPayment(r.Context(), req.ID, req.Status); err != nil {
		h.respond(w, "review payment", err, "Failed to update payment")
		return
	}
	httpx.JSON(w, http.StatusOK, req)
}

func (h *Handler) respond(w http.ResponseWriter, op string, err error, fallback string) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		httpx.Error(w, http.StatusBadRequest, verr.Message)
	case errors.Is(err, shared.ErrNotFound):
		httpx.Error(w, http.StatusNotFound, "not_found")
	default:
		h.logger.Error(op, slog.Any("error", err))
		httpx.Error(w, http.StatusInternalServerError, fallback)
	}
}

// stringOrNil keeps only JSON string values.
func stringOrNil(raw json.RawMessage) *string {
	var s string
	if len(raw) == 0 || json.Unmarshal(raw, &s) != nil {
		return nil
	}
	return &s
}
