package blob

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/estateguard/estate/internal/rbac"
	"github.com/estateguard/estate/internal/shared"
)

// MaxUploadBytes bounds a single PUT body.
const MaxUploadBytes = 10 << 20

// Handler serves blobs over HTTP.
type Handler struct {
	logger *slog.Logger
	store  Store
	rbac   rbac.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, store Store, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, store: store, rbac: rbac}
}

// MountRoutes registers blob routes. Keys may contain slashes. Reads are
// public; uploads need any valid credential.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/*", h.get)
	r.With(h.rbac.RequireCredential).Put("/*", h.put)
}

func blobKey(r *http.Request) string {
	return strings.TrimPrefix(chi.URLParam(r, "*"), "/")
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	key := blobKey(r)
	if key == "" {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}
	obj, err := h.store.Get(r.Context(), key)
	if errors.Is(err, shared.ErrNotFound) {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error("get blob", slog.String("key", key), slog.Any("error", err))
		http.Error(w, "Failed to read object", http.StatusInternalServerError)
		return
	}
	defer obj.Body.Close()
	w.Header().Set("Content-Type", obj.ContentType)
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	if obj.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(obj.Size, 10))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, obj.Body); err != nil {
		h.logger.Warn("stream blob", slog.String("key", key), slog.Any("error", err))
	}
}

func (h *Handler) put(w http.ResponseWriter, r *http.Request) {
	key := blobKey(r)
	if key == "" {
		http.Error(w, "key required", http.StatusBadRequest)
		return
	}
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxUploadBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "payload too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		contentType = DefaultContentType
	}
	if err := h.store.Put(r.Context(), key, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		h.logger.Error("put blob", slog.String("key", key), slog.Any("error", err))
		http.Error(w, "Failed to store object", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, "ok")
}
