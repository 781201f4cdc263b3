package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/compass-mel/compass-mel/internal/app"
	"github.com/compass-mel/compass-mel/internal/audit"
	audithttp "github.com/compass-mel/compass-mel/internal/audit/http"
	"github.com/compass-mel/compass-mel/internal/identity"
	"github.com/compass-mel/compass-mel/internal/notify"
	"github.com/compass-mel/compass-mel/internal/observability"
	"github.com/compass-mel/compass-mel/internal/partners"
	"github.com/compass-mel/compass-mel/internal/platform/cache"
	"github.com/compass-mel/compass-mel/internal/platform/db"
	"github.com/compass-mel/compass-mel/internal/rolerequest"
	"github.com/compass-mel/compass-mel/jobs"
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

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr, cfg.RedisAuthDB)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	tokens := identity.NewTokenIssuer(cfg.AuthSecret, cfg.AuthIssuer, cfg.TokenTTL)
	denylist := identity.NewDenylist(redisClient)
	identityRepo := identity.NewRepository(dbpool)
	identityService := identity.NewService(identityRepo, tokens, denylist)
	identityHandler := identity.NewHandler(logger, identityService)
	resolver := identity.NewResolver(tokens, denylist, identityRepo)
	actorMiddleware := identity.Middleware{Resolver: resolver, Logger: logger}

	partnersRepo := partners.NewRepository(dbpool)
	partnersService := partners.NewService(partnersRepo)
	partnersHandler := partners.NewHandler(logger, partnersService)

	notifyService := notify.NewService(notify.NewStore(dbpool), identityRepo)
	notifyHandler := notify.NewHandler(logger, notifyService)

	auditService := audit.NewService(audit.NewStore(dbpool))
	auditHandler := audithttp.NewHandler(logger, auditService)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr, DB: cfg.RedisJobsDB})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobsHandler := jobs.NewHandler(inspector, logger)

	metrics := observability.NewMetrics()

	requestRepo := rolerequest.NewRepository(dbpool)
	requestService := rolerequest.NewService(requestRepo, partnersService, logger)
	requestHandler := rolerequest.NewHandler(logger, requestService, metrics)

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		ActorMiddleware:    actorMiddleware,
		IdentityHandler:    identityHandler,
		PartnersHandler:    partnersHandler,
		RoleRequestHandler: requestHandler,
		NotifyHandler:      notifyHandler,
		AuditHandler:       auditHandler,
		JobsHandler:        jobsHandler,
		Metrics:            metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
