// Package main is the entrypoint for the rallylens API server.
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

	"github.com/kiranshivaraju/rallylens/internal/analyzer"
	"github.com/kiranshivaraju/rallylens/internal/api"
	"github.com/kiranshivaraju/rallylens/internal/api/handler"
	mw "github.com/kiranshivaraju/rallylens/internal/api/middleware"
	"github.com/kiranshivaraju/rallylens/internal/cache"
	"github.com/kiranshivaraju/rallylens/internal/config"
	"github.com/kiranshivaraju/rallylens/internal/job"
	"github.com/kiranshivaraju/rallylens/internal/metrics"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load config: fail fast on invalid config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)
	slog.Info("config loaded", "env", cfg.Server.Env, "analyzer", cfg.Analyzer.BaseURL)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Analyzer client, cached when Redis is configured
	var client analyzer.Client = analyzer.NewHTTPClient(cfg.Analyzer.BaseURL, cfg.Analyzer.Timeout)

	var redisCache *cache.RedisCache
	if cfg.CacheEnabled() {
		redisCache, err = cache.NewRedisCache(cfg.Redis.URL)
		if err != nil {
			return fmt.Errorf("create redis cache: %w", err)
		}
		defer redisCache.Close()

		if err := redisCache.Ping(ctx); err != nil {
			return fmt.Errorf("ping redis: %w", err)
		}
		slog.Info("redis connected")

		client = analyzer.NewCachingClient(client, redisCache, cfg.Redis.ResultTTL, logger)
	}

	// 3. Metrics and job controller
	m := metrics.NewManager()
	ctrl := job.NewController(client,
		job.WithPollInterval(cfg.Analyzer.PollInterval),
		job.WithLogger(logger),
		job.WithRecorder(m),
		job.WithCalibration(cfg.Court.Calibration()),
	)
	defer ctrl.Close()

	// 4. Build router with dependencies
	router := api.NewRouter(dependencies(cfg, ctrl, client, redisCache, m))

	// 5. Start HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
		// Videos stream through both hops; Submit blocks for the whole upload.
		ReadTimeout:  15 * time.Minute,
		WriteTimeout: 30 * time.Minute,
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

// dependencies wires the router. Rate limiting and the cache health check
// need Redis and are left out without it.
func dependencies(cfg *config.Config, ctrl *job.Controller, client analyzer.Client, rc *cache.RedisCache, m *metrics.Manager) api.Dependencies {
	deps := api.Dependencies{
		Auth:       mw.NewAuth(cfg.Auth.APIKeyHash),
		Observer:   m,
		Controller: ctrl,
		Library:    client,
		Health:     client,
		Spool: handler.Spool{
			Dir:      cfg.Upload.Dir,
			MaxBytes: cfg.Upload.MaxBytes,
		},
		MetricsHandler: m.Handler(),
	}

	if rc != nil {
		deps.Cache = rc
		if cfg.Server.RateLimitPerMinute > 0 {
			deps.RateLimit = mw.NewRateLimit(rc, cfg.Server.RateLimitPerMinute)
		}
	}
	return deps
}
