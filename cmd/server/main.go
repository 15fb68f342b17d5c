package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"github.com/pantrychef/recipegen/internal/api"
	"github.com/pantrychef/recipegen/internal/cache"
	"github.com/pantrychef/recipegen/internal/config"
	"github.com/pantrychef/recipegen/internal/db"
	"github.com/pantrychef/recipegen/internal/detection"
	"github.com/pantrychef/recipegen/internal/logger"
	"github.com/pantrychef/recipegen/internal/metrics"
	"github.com/pantrychef/recipegen/internal/middleware"
	"github.com/pantrychef/recipegen/internal/sentry"
	"github.com/pantrychef/recipegen/internal/services/chef"
	"github.com/pantrychef/recipegen/internal/services/generator"
	"github.com/pantrychef/recipegen/internal/services/spoonacular"
	"github.com/pantrychef/recipegen/internal/services/storage"
	"github.com/pantrychef/recipegen/internal/telemetry"
	"github.com/pantrychef/recipegen/internal/worker"
)

func main() {
	defer sentry.Recover()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize telemetry
	shutdown, err := telemetry.Init(ctx, telemetry.Options{
		ServiceName:    cfg.ServiceName,
		ServiceVersion: cfg.ServiceVersion,
		Env:            cfg.Env,
		Endpoint:       cfg.OtelExporterOTLPEndpoint,
		Headers:        cfg.OTLPHeaders(),
	})
	if err != nil {
		slog.Warn("Failed to init telemetry", "error", err)
	} else {
		defer shutdown(context.Background())
	}

	// Initialize Sentry
	if err := sentry.Init(cfg.SentryDSN, cfg.Env, cfg.ServiceName, cfg.ServiceVersion); err != nil {
		slog.Warn("Failed to init Sentry", "error", err)
	} else if cfg.SentryDSN != "" {
		defer sentry.Flush(2 * time.Second)
	}

	// Initialize business metrics
	if err := metrics.Init(); err != nil {
		slog.Warn("Failed to init business metrics", "error", err)
	}

	// Initialize logger with OTel support
	slog.SetDefault(logger.New(cfg.Env, cfg.LogLevel))

	// Database connection
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	queries := db.New(pool)

	// Redis for the lookup cache
	redisClient, err := worker.NewRedisClient(cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to parse Redis URL: %v", err)
	}
	defer redisClient.Close()

	// Asynq client for enqueuing tasks
	asynqClient, err := worker.NewClient(cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to create task client: %v", err)
	}
	defer asynqClient.Close()

	// Services
	textGenerator := generator.NewProvider(cfg.Generation, generator.KeysFromConfig(cfg))
	lookupCache := cache.NewRedisCache[[]spoonacular.LookupRecipe](redisClient, "recipegen:lookup:", cfg.Lookup.CacheTTL)
	lookup := spoonacular.NewClient(cfg.SpoonacularKey, cfg.Lookup.BaseURL, lookupCache)
	chefOpts := chef.OptionsFromConfig(cfg)
	chefService := chef.NewService(textGenerator, lookup, chefOpts)

	detector, err := detection.NewDetector(cfg.Detection, cfg.OpenAIKey, cfg.GeminiKey)
	if err != nil {
		log.Fatalf("Failed to create detector: %v", err)
	}

	store, err := storage.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to create upload store: %v", err)
	}

	apiServer := api.NewServer(api.Dependencies{
		Chef:          chefService,
		Detector:      detector,
		Store:         store,
		Jobs:          queries,
		Queue:         asynqClient,
		MinConfidence: cfg.Detection.MinConfidence,
		DefaultCount:  chefOpts.DefaultCount,
	})

	opts := api.RouterOptions{
		ServiceName:    cfg.ServiceName + "-server",
		AllowedOrigins: cfg.AllowedOrigins,
	}
	if cfg.JWTSecret != "" {
		opts.Auth = &middleware.AuthConfig{Secret: cfg.JWTSecret, Issuer: cfg.JWTIssuer}
	}
	if local, ok := store.(*storage.LocalStore); ok {
		opts.StaticDir = local.Dir()
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.NewRouter(apiServer, opts),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		slog.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown failed", "error", err)
		}
	}()

	slog.Info("Starting server", "port", cfg.Port, "provider", cfg.Generation.Provider, "model", cfg.Generation.Model)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Server failed: %v", err)
	}
}
