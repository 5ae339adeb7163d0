package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/estateguard/estate/internal/platform/httpx"
	"github.com/estateguard/estate/internal/shared"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		validator: validator.New(),
	}
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/sign-in", h.handleSignIn)
	r.Post("/sign-up", h.handleSignUp)
	r.Post("/change-password", h.handleChangePassword)
}

type signInForm struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (h *Handler) handleSignIn(w http.ResponseWriter, r *http.Request) {
	if !httpx.IsJSON(r) {
		httpx.Error(w, http.StatusBadRequest, "invalid_content_type")
		return
	}
	var form signInForm
	if err := httpx.DecodeJSON(r, &form); err != nil || h.validator.Struct(form) != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid_credentials")
		return
	}
	session, err := h.service.SignIn(r.Context(), form.Email, form.Password)
	if errors.Is(err, shared.ErrInvalidCredentials) {
		httpx.Error(w, http.StatusUnauthorized, "invalid_credentials")
		return
	}
	if err != nil {
		h.logger.Error("sign in", slog.Any("error", err))
		httpx.Error(w, http.StatusInternalServerError, "internal_server_error")
		return
	}
	httpx.JSON(w, http.StatusOK, session)
}

type signUpForm struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) handleSignUp(w http.ResponseWriter, r *http.Request) {
	if !httpx.IsJSON(r) {
		httpx.Error(w, http.StatusBadRequest, "invalid_content_type")
		return
	}
	var form signUpForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid_input")
		return
	}
	session, err := h.service.SignUp(r.Context(), form.Email, form.Password)
	switch {
	case errors.Is(err, ErrInvalidInput):
		httpx.Error(w, http.StatusBadRequest, "invalid_input")
	case errors.Is(err, shared.ErrDuplicate):
		httpx.Error(w, http.StatusConflict, "email_taken")
	case err != nil:
		h.logger.Error("sign up", slog.Any("error", err))
		httpx.Error(w, http.StatusInternalServerError, "signup_failed")
	default:
		httpx.JSON(w, http.StatusOK, session)
	}
}

type changePasswordForm struct {
	Email           string `json:"email"`
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (h *Handler) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	if !httpx.IsJSON(r) {
		httpx.Error(w, http.StatusBadRequest, "invalid_content_type")
		return
	}
	var form changePasswordForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid_input")
		return
	}
	err := h.service.ChangePassword(r.Context(), form.Email, form.CurrentPassword, form.NewPassword)
	switch {
	case errors.Is(err, ErrInvalidInput):
		httpx.Error(w, http.StatusBadRequest, "invalid_input")
	case errors.Is(err, ErrCurrentPasswordRequired):
		httpx.Error(w, http.StatusBadRequest, "current_password_required")
	case errors.Is(err, ErrWrongCurrentPassword):
		httpx.Error(w, http.StatusBadRequest, "invalid_current_password")
	case errors.Is(err, shared.ErrNotFound):
		httpx.Error(w, http.StatusNotFound, "user_not_found")
	case err != nil:
		h.logger.Error("change password", slog.Any("error", err))
		httpx.Error(w, http.StatusInternalServerError, "change_password_failed")
	default:
		httpx.JSON(w, http.StatusOK, map[string]bool{"success": true})
	}
}
