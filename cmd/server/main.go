package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dukerupert/quickorder/internal"
	"github.com/dukerupert/quickorder/internal/commerce"
	"github.com/dukerupert/quickorder/internal/csvimport"
	"github.com/dukerupert/quickorder/internal/handler"
	"github.com/dukerupert/quickorder/internal/handler/api"
	"github.com/dukerupert/quickorder/internal/middleware"
	"github.com/dukerupert/quickorder/internal/pricing"
	"github.com/dukerupert/quickorder/internal/reconcile"
	"github.com/dukerupert/quickorder/internal/router"
	"github.com/dukerupert/quickorder/internal/routes"
	"github.com/dukerupert/quickorder/internal/service"
	"github.com/dukerupert/quickorder/internal/telemetry"
	"github.com/dukerupert/quickorder/internal/validation"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

const metricsNamespace = "quickorder"

func run() error {
	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	// Error tracking
	release := cfg.Sentry.Release
	if release == "" {
		release = version
	}
	cleanupSentry, err := telemetry.InitSentry(telemetry.SentryConfig{
		DSN:              cfg.Sentry.DSN,
		Enabled:          cfg.Sentry.Enabled,
		Environment:      cfg.Sentry.Environment,
		Release:          release,
		SampleRate:       cfg.Sentry.SampleRate,
		TracesSampleRate: cfg.Sentry.TracesSampleRate,
		Debug:            cfg.Sentry.Debug,
	}, logger)
	if err != nil {
		return fmt.Errorf("sentry initialization failed: %w", err)
	}
	defer cleanupSentry()

	// Metrics
	businessMetrics := telemetry.InitBusinessMetrics(metricsNamespace)
	httpMetrics := middleware.NewMetrics(metricsNamespace)

	// Commerce platform client
	logger.Info("Initializing commerce client...", "url", cfg.Commerce.GraphQLURL)
	commerceClient := commerce.NewClient(commerce.Config{
		URL:       cfg.Commerce.GraphQLURL,
		Token:     cfg.Commerce.APIToken,
		ChannelID: cfg.Commerce.ChannelID,
		Timeout:   time.Duration(cfg.Commerce.TimeoutSeconds) * time.Second,
		Breaker: commerce.BreakerSettings{
			MaxRequests: cfg.Commerce.BreakerMaxRequests,
			Interval:    time.Duration(cfg.Commerce.BreakerIntervalSeconds) * time.Second,
			Timeout:     time.Duration(cfg.Commerce.BreakerTimeoutSeconds) * time.Second,
		},
	}, businessMetrics, logger)

	// Services
	var validator service.LineValidator
	if cfg.Features.BackendValidation {
		validator = commerceClient
		logger.Info("Backend line validation enabled")
	}

	reconcileService := service.NewReconcileService(
		commerceClient,
		commerceClient,
		validator,
		reconcile.NewGenerations(),
		pricing.New(cfg.Store.TaxInclusive, cfg.Store.PriceScale),
		service.ReconcileOptions{
			Stock:             validation.StockOptions{AllowUnavailable: cfg.Store.AllowUnavailable},
			BackendValidation: cfg.Features.BackendValidation,
		},
		businessMetrics,
		logger,
	)
	submissionService := service.NewSubmissionService(commerceClient, businessMetrics, logger)
	checkoutFlow := service.NewCheckoutFlow(reconcileService, submissionService, logger)

	// Handlers
	quickOrderHandler := api.NewQuickOrderHandler(reconcileService, checkoutFlow, api.QuickOrderConfig{
		DefaultCurrency: cfg.Store.CurrencyCode,
		CSV:             csvimport.Options{MaxRows: cfg.Upload.CSVMaxRows},
	}, businessMetrics, logger)
	healthHandler := api.NewHealthHandler(commerceClient, version)

	// Middleware configuration
	securityConfig := middleware.DefaultSecurityHeadersConfig()
	if cfg.Env == "dev" {
		securityConfig.HSTSMaxAge = 0
	}

	rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		RequestsPerSecond: cfg.HTTP.RateLimitRPS,
		BurstSize:         cfg.HTTP.RateLimitBurst,
		CleanupInterval:   time.Minute,
		KeyFunc:           middleware.BuyerKey,
	})
	defer rateLimiter.Stop()

	r := router.New(
		middleware.RequestID,
		middleware.WithBuyer(cfg.Store.CurrencyCode),
		middleware.WithRequestLogger(logger),
		telemetry.SentryMiddleware(),
		telemetry.SentryContextMiddleware(middleware.SentryBuyer),
		router.Recovery(logger),
		httpMetrics.Middleware,
		middleware.SecurityHeaders(securityConfig),
		router.Logger(logger),
	)

	routes.RegisterOpsRoutes(r, routes.OpsDeps{
		HealthHandler:  healthHandler,
		MetricsHandler: httpMetrics.Handler(),
	})
	routes.RegisterAPIRoutes(r, routes.APIDeps{
		QuickOrderHandler: quickOrderHandler,
		RateLimit:         rateLimiter.Middleware,
		MaxBodyBytes:      middleware.DefaultMaxBodySize,
		MaxUploadBytes:    cfg.Upload.MaxBytes,
		RequestTimeout:    time.Duration(cfg.HTTP.RequestTimeoutSeconds) * time.Second,
	})
	r.NotFound(handler.NotFoundResponse)

	// CORS wraps the whole mux so preflights never reach method matching.
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router.CORS(cfg.HTTP.AllowedOrigins)(r),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Starting quick-order API", "address", srv.Addr, "version", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case sig := <-stop:
		logger.Info("Shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	logger.Info("Server stopped")
	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
