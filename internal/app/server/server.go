package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"commissions/internal/domain/audit"
	"commissions/internal/domain/auth"
	"commissions/internal/domain/commission"
	"commissions/internal/domain/reports"
	"commissions/internal/platform/config"
	"commissions/internal/platform/db"
	"commissions/internal/platform/logging"
	"commissions/internal/platform/metrics"
	"commissions/internal/platform/observability"
	audithandler "commissions/internal/transport/http/handlers/audit"
	commissionhandler "commissions/internal/transport/http/handlers/commission"
	"commissions/internal/transport/http/middleware"
)

// Version is stamped at build time with -ldflags.
var Version = "dev"

type App struct {
	Config  config.Config
	Logger  *zap.Logger
	Service *commission.Service
	Router  http.Handler
	closers []func()
}

func Run() {
	cfg := config.Load()
	logs, err := logging.Init(cfg.LogLevel, cfg.Environment)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer logs.Closer()
	logger := logs.Base
	zap.ReplaceGlobals(logger)

	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	flush, err := observability.InitSentry(cfg.SentryDSN, cfg.Environment, Version)
	if err != nil {
		logger.Warn("sentry init failed", zap.Error(err))
	}
	defer flush()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("startup failed", zap.Error(err))
	}
	defer app.Close()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           app.Router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("commission server listening",
			zap.String("addr", cfg.Addr),
			zap.String("store", cfg.StoreDriver),
			zap.String("version", Version),
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			observability.CaptureErr(err)
			logger.Error("server failed", zap.Error(err))
		}
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", zap.Error(err))
		}
	}
}

// New opens the configured store and builds the HTTP router around it.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	app := &App{Config: cfg, Logger: logger}

	store, recorder, err := app.openStores(ctx)
	if err != nil {
		app.Close()
		return nil, err
	}

	if cfg.RunSeed {
		if err := db.Seed(ctx, store, time.Now(), logger); err != nil {
			app.Close()
			return nil, fmt.Errorf("seed: %w", err)
		}
		if cfg.Environment != "production" {
			logDevToken(cfg, logger)
		}
	}

	reportsSvc := reports.NewService(cfg.ReportLocale)
	app.Service = commission.NewService(store, logger.Named("commission"))
	app.Router = app.routes(recorder, reportsSvc)
	return app, nil
}

// openStores picks the commission store and audit recorder for STORE_DRIVER.
func (a *App) openStores(ctx context.Context) (db.SeedStore, audit.Recorder, error) {
	cfg := a.Config
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		pool, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("db connect: %w", err)
		}
		a.closers = append(a.closers, pool.Close)
		if cfg.RunMigrations {
			if err := db.Migrate(ctx, pool); err != nil {
				return nil, nil, fmt.Errorf("migrations: %w", err)
			}
		}
		return commission.NewStore(pool), audit.New(pool), nil

	case config.DriverSQLite:
		gdb, err := db.OpenSQLite(cfg.SQLitePath, a.Logger)
		if err != nil {
			return nil, nil, err
		}
		if sqlDB, err := gdb.DB(); err == nil {
			a.closers = append(a.closers, func() { _ = sqlDB.Close() })
		}
		store, err := commission.NewGormStore(gdb)
		if err != nil {
			return nil, nil, fmt.Errorf("sqlite schema: %w", err)
		}
		return store, audit.NewMemory(), nil

	case config.DriverMemory:
		return commission.NewMemoryStore(), audit.NewMemory(), nil
	}
	return nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}

func (a *App) routes(recorder audit.Recorder, reportsSvc *reports.Service) http.Handler {
	cfg := a.Config
	logger := a.Logger

	var collector *metrics.Collector
	if cfg.MetricsEnabled {
		collector = metrics.New()
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Recoverer(logger))
	router.Use(middleware.SecureHeaders(cfg.Environment == "production"))
	if len(cfg.CORSAllowedOrigins) > 0 {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.CORSAllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID", "Content-Disposition"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	if collector != nil {
		router.Use(middleware.Metrics(collector))
	}
	router.Use(middleware.Auth(cfg.JWTSecret, logger))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := a.Service.Ping(ctx); err != nil {
			http.Error(w, "store not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
	if collector != nil {
		router.Handle("/metrics", collector.Handler())
	}

	limiterLog := middleware.WithLogger(logger)
	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RateLimit(cfg.RateLimitPerMinute*5, time.Minute, limiterLog))
		r.Use(middleware.LifecycleRateLimit(cfg.RateLimitPerMinute, time.Minute, limiterLog))

		commissionhandler.NewHandler(a.Service, reportsSvc, recorder, collector, logger).RegisterRoutes(r)
		audithandler.NewHandler(recorder, logger).RegisterRoutes(r)
	})
	return router
}

// Close releases the store connections.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func logDevToken(cfg config.Config, logger *zap.Logger) {
	token, err := auth.GenerateToken(cfg.JWTSecret, auth.Claims{UserID: "dev-admin", Role: auth.RoleAdmin}, 12*time.Hour)
	if err != nil {
		logger.Warn("dev token generation failed", zap.Error(err))
		return
	}
	logger.Info("development admin token", zap.String("token", token))
}
