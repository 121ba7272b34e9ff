package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/i474232898/raincheck/internal/activity"
	"github.com/i474232898/raincheck/internal/admin"
	httpapi "github.com/i474232898/raincheck/internal/api/http"
	"github.com/i474232898/raincheck/internal/config"
	"github.com/i474232898/raincheck/internal/observability"
	"github.com/i474232898/raincheck/internal/scheduler"
	"github.com/i474232898/raincheck/internal/sponsorship"
	"github.com/i474232898/raincheck/internal/store"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zlog, err := observability.NewLogger(observability.LogConfig{Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	backend, syncer, err := openStore(cfg, zlog)
	if err != nil {
		zlog.Fatal("failed to open store", zap.Error(err))
	}

	policy := sponsorship.DefaultPolicy()
	policy.MaxLength = cfg.MessageMaxLength

	clock := sponsorship.SystemClock{}
	manager := sponsorship.NewManager(sponsorship.NewBackendRepository(backend, zlog), policy, clock, zlog)
	selector := sponsorship.NewSelector(manager, nil, zlog)
	recorder := activity.NewRecorder(backend, zlog)
	adminSvc := admin.NewService(manager, recorder, selector, clock, zlog)

	// Replays writes that only reached the local store.
	sched := scheduler.New(syncer, cfg.SyncInterval, zlog)
	if err := sched.Start(); err != nil {
		zlog.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               "raincheck",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler:          httpapi.NewErrorHandler(zlog),
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())
	app.Use(httpapi.Metrics())

	httpapi.RegisterRoutes(app, httpapi.Deps{
		Sponsorships: manager,
		Selector:     selector,
		Activity:     recorder,
		Admin:        adminSvc,
		AdminSecret:  cfg.AdminSecret,
		SubmitLimit:  cfg.SubmitRateLimit,
		Clock:        clock,
		Log:          zlog,
	})
	if cfg.AdminSecret == "" {
		zlog.Warn("ADMIN_SECRET is empty; admin routes are disabled")
	}

	go func() {
		zlog.Info("listening", zap.String("port", cfg.Port), zap.String("store", backend.Name()))
		if err := app.Listen(":" + cfg.Port); err != nil {
			zlog.Error("fiber server stopped", zap.Error(err))
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		zlog.Error("error during shutdown", zap.Error(err))
	}
}

// openStore builds the local sqlite store and, when configured, wraps it behind a remote.
func openStore(cfg *config.AppConfig, zlog *zap.Logger) (store.Backend, scheduler.Syncer, error) {
	local, err := store.OpenSQLite(cfg.StoreLocalPath)
	if err != nil {
		return nil, nil, err
	}

	var remote store.Backend
	switch cfg.StoreRemote {
	case config.RemoteREST:
		remote = store.NewRESTBackend(store.RESTConfig{
			BaseURL: cfg.SupabaseURL,
			APIKey:  cfg.SupabaseAnonKey,
			Client:  &http.Client{Timeout: cfg.StoreRemoteTimeout},
		})
	case config.RemotePostgres:
		// Connects on first use so the process can start offline; writes are
		// journaled locally until postgres answers.
		remote = store.NewLazyBackend("postgres", 0, func() (store.Backend, error) {
			return store.OpenPostgres(cfg.DatabaseURL)
		})
	default:
		zlog.Info("no remote store configured; using local store only", zap.String("path", cfg.StoreLocalPath))
		return local, nil, nil
	}

	fb := store.NewFallbackBackend(remote, local, cfg.StoreRemoteTimeout, zlog)
	return fb, fb, nil
}
