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

	"github.com/fleetline-erp/fleetline-erp/internal/app"
	"github.com/fleetline-erp/fleetline-erp/internal/auth"
	"github.com/fleetline-erp/fleetline-erp/internal/billing"
	"github.com/fleetline-erp/fleetline-erp/internal/dispatch"
	"github.com/fleetline-erp/fleetline-erp/internal/fleet"
	"github.com/fleetline-erp/fleetline-erp/internal/observability"
	"github.com/fleetline-erp/fleetline-erp/internal/platform/cache"
	"github.com/fleetline-erp/fleetline-erp/internal/platform/db"
	"github.com/fleetline-erp/fleetline-erp/internal/rbac"
	"github.com/fleetline-erp/fleetline-erp/internal/shared"
	"github.com/fleetline-erp/fleetline-erp/jobs"
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

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "fleetline_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	auditLogger := shared.NewAuditLogger(pool)
	idempotencyStore := shared.NewIdempotencyStore(pool)
	metrics := observability.NewMetrics()
	guard := rbac.Middleware{Logger: logger}

	authRepo := auth.NewRepository(pool)
	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, sessionManager, csrfManager)

	jobClient := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	billingRepo := billing.NewPGRepository(pool)
	billingService := billing.NewService(billingRepo, idempotencyStore, auditLogger, jobClient, logger)
	billingHandler := billing.NewHandler(logger, billingService, guard, metrics)

	fleetRepo := fleet.NewPGRepository(pool)
	fleetService := fleet.NewService(fleetRepo, logger)
	fleetHandler := fleet.NewHandler(logger, fleetService, guard)

	dispatchRepo := dispatch.NewPGRepository(pool)
	dispatchService := dispatch.NewService(dispatchRepo, fleetService, dispatch.UnrestrictedPolicy{}, auditLogger, logger)
	dispatchHandler := dispatch.NewHandler(logger, dispatchService, guard, metrics)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Middleware: app.MiddlewareConfig{
			Logger:         logger,
			Config:         cfg,
			SessionManager: sessionManager,
			CSRFManager:    csrfManager,
			Metrics:        metrics,
		},
		Metrics:  metrics,
		Auth:     authHandler,
		Billing:  billingHandler,
		Dispatch: dispatchHandler,
		Fleet:    fleetHandler,
		Jobs:     jobHandler,
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
