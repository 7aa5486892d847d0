package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fleethire/driverhub-go/internal/config"
	"github.com/fleethire/driverhub-go/internal/domain"
	"github.com/fleethire/driverhub-go/internal/handler"
	"github.com/fleethire/driverhub-go/internal/infra/cache"
	"github.com/fleethire/driverhub-go/internal/infra/observability"
	"github.com/fleethire/driverhub-go/internal/infra/resilience"
	"github.com/fleethire/driverhub-go/internal/infra/supabase"
	"github.com/fleethire/driverhub-go/internal/service"

	"go.uber.org/zap"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
		zap.Int("lead_pool_limit", cfg.LeadPoolLimit),
		zap.Int("max_batch_ops", cfg.MaxBatchOps),
	)

	if cfg.SupabaseURL == "" {
		logger.Fatal("SUPABASE_URL is required")
	}
	if cfg.WebhookSecret == "" {
		logger.Warn("WEBHOOK_SECRET not set, event endpoints will reject all calls")
	}

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "driverhub")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Cache ---
	profileCache := cache.New[*domain.DriverProfile](cfg.CacheTTL)

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}
	cb := resilience.NewCircuitBreaker("supabase")
	eventBulkhead := resilience.NewBulkhead(cfg.MaxConcurrency)

	// --- Store + identity provider ---
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	store := supabase.NewClient(
		httpClient,
		cfg.SupabaseURL,
		cfg.SupabaseAnonKey,
		cfg.SupabaseServiceKey,
		cfg.MaxBatchOps,
		cb,
		resilienceCfg,
		metrics,
		logger,
	)

	// --- Services ---
	claimsSyncer := service.NewClaimsSyncer(store, store, metrics, logger)
	resolver := service.NewIdentityResolver(store, store, cfg.PlaceholderEmailDomain, metrics, logger)
	distributor := service.NewLeadDistributor(store, store, store, service.DistributorConfig{
		PoolLimit:   cfg.LeadPoolLimit,
		PaidPlanCap: cfg.PaidPlanLeadCap,
		FreePlanCap: cfg.FreePlanLeadCap,
	}, metrics, logger)
	companiesSvc := service.NewCompanyService(store, store, store, logger)
	membersSvc := service.NewMemberService(store, store, store, store, cfg.InviteTTL, logger)
	profilesSvc := service.NewProfileService(store, profileCache, metrics, logger)

	// --- Router ---
	router := handler.NewRouter(handler.Deps{
		Claims:        claimsSyncer,
		Resolver:      resolver,
		Distributor:   distributor,
		Companies:     companiesSvc,
		Members:       membersSvc,
		Profiles:      profilesSvc,
		EventBulkhead: eventBulkhead,
		Metrics:       metrics,
		Logger:        logger,
		JWTSecret:     []byte(cfg.SupabaseJWTSecret),
		WebhookSecret: cfg.WebhookSecret,
	})

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
