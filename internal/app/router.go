package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/estateguard/estate/internal/auth"
	"github.com/estateguard/estate/internal/billing"
	"github.com/estateguard/estate/internal/blob"
	"github.com/estateguard/estate/internal/checkin"
	"github.com/estateguard/estate/internal/checkpoints"
	"github.com/estateguard/estate/internal/homestay"
	"github.com/estateguard/estate/internal/observability"
	"github.com/estateguard/estate/internal/platform/httpx"
	"github.com/estateguard/estate/internal/rbac"
	"github.com/estateguard/estate/internal/residents"
	"github.com/estateguard/estate/internal/roles"
	"github.com/estateguard/estate/internal/users"
)

// Pinger reports database liveness for /healthz.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger  *slog.Logger
	Config  *Config
	DB      Pinger
	Metrics *observability.Metrics

	AuthHandler            *auth.Handler
	ACLHandler             *rbac.ACLHandler
	RolesHandler           *roles.Handler
	UsersHandler           *users.Handler
	ProfileHandler         *users.ProfileHandler
	ResidentsHandler       *residents.Handler
	CheckpointsHandler     *checkpoints.Handler
	CheckinHandler         *checkin.Handler
	CheckinSettingsHandler *checkin.SettingsHandler
	HomestayHandler        *homestay.Handler
	BillingHandler         *billing.Handler
	BlobHandler            *blob.Handler
}

const healthTimeout = 2 * time.Second

// NewRouter constructs the chi.Router with estate defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if params.DB != nil {
			ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
			defer cancel()
			if err := params.DB.Ping(ctx); err != nil {
				params.Logger.Warn("health check", slog.Any("error", err))
				httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		if params.AuthHandler != nil {
			r.Route("/auth", params.AuthHandler.MountRoutes)
		}
		if params.ACLHandler != nil {
			r.Route("/acl", params.ACLHandler.MountRoutes)
		}
		if params.RolesHandler != nil {
			r.Route("/roles", params.RolesHandler.MountRoutes)
		}
		if params.UsersHandler != nil {
			r.Route("/users", params.UsersHandler.MountRoutes)
		}
		if params.ProfileHandler != nil {
			r.Route("/profile", params.ProfileHandler.MountRoutes)
		}
		if params.ResidentsHandler != nil {
			r.Route("/residents", params.ResidentsHandler.MountRoutes)
		}
		if params.CheckpointsHandler != nil {
			r.Route("/checkpoints", params.CheckpointsHandler.MountRoutes)
		}
		if params.CheckinHandler != nil {
			r.Route("/check-in", params.CheckinHandler.MountRoutes)
		}
		if params.CheckinSettingsHandler != nil {
			r.Route("/settings/check-in", params.CheckinSettingsHandler.MountRoutes)
		}
		if params.HomestayHandler != nil {
			r.Route("/homestay-checkins", params.HomestayHandler.MountRoutes)
		}
		if params.BillingHandler != nil {
			r.Route("/billing", params.BillingHandler.MountRoutes)
		}
		if params.BlobHandler != nil {
			r.Route("/blobs", params.BlobHandler.MountRoutes)
		}
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.Error(w, http.StatusNotFound, "not_found")
	})
	return r
}
