package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/estateguard/estate/internal/app"
	"github.com/estateguard/estate/internal/auth"
	"github.com/estateguard/estate/internal/billing"
	"github.com/estateguard/estate/internal/blob"
	"github.com/estateguard/estate/internal/checkin"
	"github.com/estateguard/estate/internal/checkpoints"
	"github.com/estateguard/estate/internal/credential"
	"github.com/estateguard/estate/internal/homestay"
	"github.com/estateguard/estate/internal/observability"
	"github.com/estateguard/estate/internal/platform/cache"
	"github.com/estateguard/estate/internal/platform/db"
	"github.com/estateguard/estate/internal/rbac"
	"github.com/estateguard/estate/internal/residents"
	"github.com/estateguard/estate/internal/roles"
	"github.com/estateguard/estate/internal/shared"
	"github.com/estateguard/estate/internal/users"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	if err := run(ctx, stop, cfg, logger); err != nil {
		logger.Error("estate exited", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, stop context.CancelFunc, cfg *app.Config, logger *slog.Logger) error {
	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		return err
	}
	defer dbpool.Close()

	if err := db.EnsureSchema(ctx, dbpool, logger,
		rbac.Schema, checkpoints.Schema, checkin.Schema, homestay.Schema, billing.Schema, users.Schema, residents.Schema,
	); err != nil {
		return err
	}

	clock := shared.SystemClock{}

	var guard checkin.Guard
	if cfg.CheckinAtomicGuard {
		redisClient, err := cache.New(ctx, cache.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		if err != nil {
			return err
		}
		defer closeRedis(redisClient, logger)
		guard = checkin.NewRedisGuard(redisClient, clock)
	}

	metrics := observability.NewMetrics()

	parser := credential.NewParser(credential.Options{
		AllowSentinel:   cfg.AuthAllowSentinelToken,
		SentinelToken:   cfg.AuthSentinelToken,
		VerifySignature: cfg.AuthVerifySignature,
		Secret:          []byte(cfg.AuthTokenSecret),
	})
	if cfg.AuthAllowSentinelToken {
		logger.Warn("sentinel bearer token is enabled; every holder is fully authorised")
	}

	rbacService := rbac.NewService(rbac.NewRepository(dbpool), shared.NewID, clock)
	gate := rbac.NewGate(parser, rbacService, logger, metrics)
	rbacMiddleware := rbac.Middleware{Gate: gate, Logger: logger}

	issuer := credential.NewIssuer([]byte(cfg.AuthTokenSecret), cfg.AuthTokenTTL, clock)
	if cfg.AuthTokenSecret == "" {
		logger.Warn("AUTH_TOKEN_SECRET not set, sign-in will fail")
	}
	userService := users.NewService(users.NewRepository(dbpool), clock)
	authHandler := auth.NewHandler(logger, auth.NewService(auth.NewRepository(dbpool), issuer, shared.NewID, clock))

	checkpointService := checkpoints.NewService(checkpoints.NewRepository(dbpool), shared.NewID, clock)
	checkinService := checkin.NewService(checkin.NewRepository(dbpool), checkpointService, checkin.Options{
		IDs:      shared.NewID,
		Clock:    clock,
		Guard:    guard,
		Logger:   logger,
		Observer: metrics,
	})

	params := app.RouterParams{
		Logger:                 logger,
		Config:                 cfg,
		DB:                     dbpool,
		Metrics:                metrics,
		AuthHandler:            authHandler,
		ACLHandler:             rbac.NewACLHandler(logger, rbacService),
		RolesHandler:           roles.NewHandler(logger, roles.NewService(roles.NewRepository(dbpool), rbacService, clock), rbacMiddleware),
		UsersHandler:           users.NewHandler(logger, userService, rbacMiddleware),
		ProfileHandler:         users.NewProfileHandler(logger, userService, rbacMiddleware),
		ResidentsHandler:       residents.NewHandler(logger, residents.NewService(residents.NewRepository(dbpool), shared.NewID, clock), rbacMiddleware),
		CheckpointsHandler:     checkpoints.NewHandler(logger, checkpointService, rbacMiddleware),
		CheckinHandler:         checkin.NewHandler(logger, checkinService, rbacMiddleware),
		CheckinSettingsHandler: checkin.NewSettingsHandler(logger, checkinService, rbacMiddleware),
		HomestayHandler:        homestay.NewHandler(logger, homestay.NewService(homestay.NewRepository(dbpool), shared.NewID, clock), rbacMiddleware),
		BillingHandler:         billing.NewHandler(logger, billing.NewService(billing.NewRepository(dbpool), shared.NewID, clock), rbacMiddleware),
	}

	if cfg.BlobEnabled() {
		store, err := blob.NewS3Store(ctx, blob.S3Options{
			Bucket:    cfg.BlobBucket,
			Region:    cfg.BlobRegion,
			Endpoint:  cfg.BlobEndpoint,
			AccessKey: cfg.BlobAccessKey,
			SecretKey: cfg.BlobSecretKey,
			PathStyle: cfg.BlobPathStyle,
		})
		if err != nil {
			return err
		}
		params.BlobHandler = blob.NewHandler(logger, store, rbacMiddleware)
	} else {
		logger.Warn("BLOB_BUCKET not set, /api/blobs disabled")
	}

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      app.NewRouter(params),
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func closeRedis(client *redis.Client, logger *slog.Logger) {
	if err := client.Close(); err != nil {
		logger.Warn("redis close", slog.Any("error", err))
	}
}
