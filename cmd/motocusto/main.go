package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"time"

	"motocusto/internal/advisor"
	"motocusto/internal/auth"
	"motocusto/internal/backend"
	"motocusto/internal/cache"
	"motocusto/internal/cli"
	"motocusto/internal/config"
	"motocusto/internal/core"
	apphttp "motocusto/internal/http"
	applog "motocusto/internal/log"
	"motocusto/internal/middleware/ratelimit"
	"motocusto/internal/ports"
	"motocusto/internal/services"
)

func main() {
	cli.LoadEnvFile()

	cfg := config.Load()
	logger := cli.SetupLogger(cfg.LogLevel, applog.ComponentApp)
	logger.Info("Starting motocusto", "backend", cfg.DataBackend, "port", cfg.Port)

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}

	ctx := context.Background()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", applog.FieldError, err)
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to create backend", applog.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	var publisher services.Publisher
	if res.Publisher != nil {
		publisher = res.Publisher
	}

	breakdowns := newBreakdownCache(cfg, logger)

	authSvc := auth.NewService(res.Store, cfg.JWTSecret, cfg.JWTTTL)
	entrySvc := services.NewEntryService(res.Store, publisher, logger)
	dashboardSvc := services.NewDashboardService(res.Store, breakdowns, logger)
	adviceSvc := services.NewAdviceService(res.Store, newAdvisor(cfg, logger), logger)

	srv := apphttp.NewServer(net.JoinHostPort("", cfg.Port), apphttp.Dependencies{
		Store:     res.Store,
		Auth:      authSvc,
		Entries:   entrySvc,
		Dashboard: dashboardSvc,
		Advice:    adviceSvc,
		Logger:    logger,
	}, apphttp.Options{
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimit:          ratelimit.Config{RequestsPerMinute: cfg.RateLimitPerMinute},
		TrustedProxies:     cfg.TrustedProxies,
	})

	shutdownCtx, done := cli.GracefulShutdown(logger, 15*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Failure(ctx, "HTTP server shutdown failed", err)
		}
		breakdowns.Close()
		if err := res.Cleanup(); err != nil {
			logger.Failure(ctx, "Backend cleanup failed", err)
		}
	})

	go func() {
		logger.Info("HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server failed", applog.FieldError, err)
			os.Exit(1)
		}
	}()

	cli.WaitForShutdown(shutdownCtx, done)
}

// newBreakdownCache returns nil when caching is disabled; the dashboard then
// recomputes every breakdown.
func newBreakdownCache(cfg *config.Config, logger *applog.Logger) *cache.BreakdownCache {
	if cfg.CacheMaxItems == 0 {
		logger.Info("Breakdown cache disabled")
		return nil
	}
	store, err := cache.NewRistretto[core.CostBreakdown](cache.Config{
		MaxItems: int64(cfg.CacheMaxItems),
		TTL:      cfg.CacheTTL,
	})
	if err != nil {
		logger.Warn("Breakdown cache unavailable, computing on demand", applog.FieldError, err)
		return nil
	}
	return cache.NewBreakdownCache(store)
}

func newAdvisor(cfg *config.Config, logger *applog.Logger) ports.Advisor {
	if cfg.OpenAIAPIKey == "" {
		logger.Info("Advisor disabled - no OPENAI_API_KEY provided")
		return advisor.Disabled{}
	}
	return advisor.New(advisor.Config{
		APIKey:  cfg.OpenAIAPIKey,
		Model:   cfg.OpenAIModel,
		BaseURL: cfg.OpenAIBaseURL,
	})
}
