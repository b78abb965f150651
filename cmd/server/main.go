// Package main is the entrypoint for the BrandLens API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/brandlens/brandlens/internal/analyzer"
	"github.com/brandlens/brandlens/internal/api"
	"github.com/brandlens/brandlens/internal/api/handler"
	mw "github.com/brandlens/brandlens/internal/api/middleware"
	"github.com/brandlens/brandlens/internal/api/response"
	"github.com/brandlens/brandlens/internal/cache"
	"github.com/brandlens/brandlens/internal/collector"
	"github.com/brandlens/brandlens/internal/config"
	"github.com/brandlens/brandlens/internal/metrics"
	"github.com/brandlens/brandlens/internal/provider"
	"github.com/brandlens/brandlens/internal/provider/openai"
	"github.com/brandlens/brandlens/internal/store"
	"github.com/brandlens/brandlens/pkg/models"
	"github.com/brandlens/brandlens/pkg/retry"
)

const shutdownTimeout = 30 * time.Second

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load config — fail fast on invalid config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.Info("config loaded", "providers", cfg.ConfiguredProviders(), "env", cfg.Server.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Connect to database
	pool, err := store.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()
	slog.Info("database connected")

	// 3. Run migrations
	if err := store.RunMigrations(cfg.Database.URL, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	slog.Info("database migrations applied")

	// 4. Create Redis cache
	redisCache, err := cache.NewRedisCache(cfg.Redis.URL)
	if err != nil {
		return fmt.Errorf("create redis cache: %w", err)
	}
	defer redisCache.Close()

	if err := redisCache.Ping(ctx); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	slog.Info("redis connected")

	// 5. Create store
	pgStore := store.NewPostgresStore(pool)

	// 6. Build the provider registry, each provider composed with the
	// response cache and the per-call retry policy
	responseCache := cache.NewResponseCache(redisCache, cfg.Cache.ResponseTTL)
	retryCfg := retry.Config{
		MaxAttempts: cfg.Collector.CallAttempts,
		Timeout:     cfg.Collector.CallTimeout,
	}

	registry := provider.NewRegistry(ctx, cfg.Providers)
	wrapped := &provider.Registry{}
	for _, p := range registry.All() {
		wrapped.Add(provider.Wrap(p, responseCache, retryCfg))
	}
	slog.Info("providers initialized", "providers", wrapped.Names())

	// 7. Mention analyzer; without a classifier credential it runs on the
	// deterministic path alone
	mentionAnalyzer := analyzer.New(buildClassifier(cfg.Analyzer), cfg.Analyzer.Timeout)

	// 8. Collector and metrics engine
	runner := collector.New(pgStore, wrapped, mentionAnalyzer, collector.Options{
		GlobalBudget:  cfg.Collector.GlobalBudget,
		ThrottleDelay: cfg.Collector.ThrottleDelay,
	})
	engine := metrics.NewEngine(pgStore, cfg.Metrics.WindowDays)

	// 9. Background cache sweep
	go sweepLoop(ctx, responseCache, cfg.Cache.SweepInterval)

	// 10. Build router with dependencies
	deps := api.Dependencies{
		Auth:        mw.NewAuth(pgStore),
		RateLimit:   mw.NewRateLimit(redisCache, 60),
		MetricsRate: mw.NewMetricsRateLimit(redisCache, cfg.Metrics.RatePerMinute),

		HealthHandler: healthHandler(pgStore, redisCache),

		CreateBrandHandler: handler.NewCreateBrandHandler(pgStore),
		ListBrandsHandler:  handler.NewListBrandsHandler(pgStore),
		GetBrandHandler:    handler.NewGetBrandHandler(pgStore),

		CollectHandler:        handler.NewCollectHandler(runner),
		MetricsHandler:        handler.NewMetricsHandler(pgStore, engine),
		MetricsHistoryHandler: handler.NewMetricsHistoryHandler(pgStore, engine),
		ScoreHandler:          handler.NewScoreHandler(pgStore, engine),

		CreateKeyHandler: handler.NewCreateKeyHandler(pgStore),
		ListKeysHandler:  handler.NewListKeysHandler(pgStore),
		RevokeKeyHandler: handler.NewRevokeKeyHandler(pgStore),
	}

	router := api.NewRouter(deps)

	// 11. Start HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 3 * time.Minute, // collection runs can hold a request for up to the global budget
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for shutdown signal or server error
	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		slog.Info("shutdown signal received, draining connections...")
	}

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}

// buildClassifier returns the AI mention classifier, or nil when no
// credential is configured.
func buildClassifier(cfg config.AnalyzerConfig) models.Provider {
	if cfg.APIKey == "" {
		slog.Info("analyzer classifier disabled, no credential")
		return nil
	}
	return openai.NewProvider(config.OpenAIConfig{APIKey: cfg.APIKey, Model: cfg.Model})
}

// sweepLoop reaps expired response cache entries on a fixed interval until
// the context is cancelled.
func sweepLoop(ctx context.Context, rc *cache.ResponseCache, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := rc.Sweep(ctx)
			if err != nil {
				slog.Warn("cache sweep failed", "error", err)
				continue
			}
			slog.Info("cache sweep finished", "removed", removed)
		}
	}
}

// healthHandler checks database and cache connectivity.
func healthHandler(s store.Store, c cache.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{
			"database": "ok",
			"cache":    "ok",
		}

		if err := s.Ping(r.Context()); err != nil {
			checks["database"] = "degraded"
		}
		if err := c.Ping(r.Context()); err != nil {
			checks["cache"] = "degraded"
		}

		degraded := checks["database"] != "ok" || checks["cache"] != "ok"
		if degraded {
			response.Error(w, http.StatusServiceUnavailable, "DEGRADED",
				"One or more services degraded", checks)
			return
		}

		response.JSON(w, map[string]any{
			"status":   "ok",
			"services": checks,
		})
	}
}
