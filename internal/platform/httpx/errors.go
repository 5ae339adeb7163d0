package httpx

import (
	"errors"
	"net/http"

	"github.com/estateguard/estate/internal/shared"
)

// RespondError maps domain errors to HTTP responses. Unknown errors become a
// generic 500 so storage details never reach the client.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		Error(w, http.StatusNotFound, "not_found")
	case errors.Is(err, shared.ErrDuplicate):
		Error(w, http.StatusConflict, "conflict")
	case errors.Is(err, shared.ErrValidation):
		Error(w, http.StatusBadRequest, "invalid_payload")
	default:
		Error(w, http.StatusInternalServerError, "internal_server_error")
	}
}
