package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	_ "github.com/joho/godotenv/autoload"

	"github.com/pantrychef/recipegen/internal/cache"
	"github.com/pantrychef/recipegen/internal/config"
	"github.com/pantrychef/recipegen/internal/db"
	"github.com/pantrychef/recipegen/internal/logger"
	"github.com/pantrychef/recipegen/internal/metrics"
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

	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize telemetry
	shutdown, err := telemetry.Init(ctx, telemetry.Options{
		ServiceName:    cfg.ServiceName + "-worker",
		ServiceVersion: cfg.ServiceVersion,
		Env:            cfg.Env,
		Endpoint:       cfg.OtelExporterOTLPEndpoint,
		Headers:        cfg.OTLPHeaders(),
	})
	if err != nil {
		slog.Warn("Failed to init telemetry", "error", err)
	} else {
		defer shutdown(ctx)
	}

	// Initialize Sentry
	if err := sentry.Init(cfg.SentryDSN, cfg.Env, cfg.ServiceName+"-worker", cfg.ServiceVersion); err != nil {
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

	queries := db.New(pool)

	redisClient, err := worker.NewRedisClient(cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to parse Redis URL: %v", err)
	}
	defer redisClient.Close()

	// Initialize services
	textGenerator := generator.NewProvider(cfg.Generation, generator.KeysFromConfig(cfg))
	lookupCache := cache.NewRedisCache[[]spoonacular.LookupRecipe](redisClient, "recipegen:lookup:", cfg.Lookup.CacheTTL)
	lookup := spoonacular.NewClient(cfg.SpoonacularKey, cfg.Lookup.BaseURL, lookupCache)
	chefService := chef.NewService(textGenerator, lookup, chef.OptionsFromConfig(cfg))

	store, err := storage.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to create upload store: %v", err)
	}
	var sweeper storage.Sweeper
	if s, ok := store.(storage.Sweeper); ok {
		sweeper = s
	}

	broadcaster := worker.NewProgressBroadcaster(redisClient)

	workerMetrics, err := worker.NewWorkerMetrics()
	if err != nil {
		slog.Warn("Failed to init worker metrics", "error", err)
	}

	processor := worker.NewRecipeProcessor(queries, chefService, sweeper, broadcaster, worker.Retention{
		Uploads: cfg.Storage.Retention,
	})

	// Asynq server
	srv, err := worker.NewServer(cfg.RedisURL, 10)
	if err != nil {
		log.Fatalf("Failed to create worker server: %v", err)
	}

	middlewares := []asynq.MiddlewareFunc{worker.SentryMiddleware, worker.OTelMiddleware}
	if workerMetrics != nil {
		middlewares = append(middlewares, workerMetrics.Middleware)
	}
	mux := worker.NewMux(processor.Handlers(), middlewares...)

	scheduler, err := worker.NewScheduler(cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to create scheduler: %v", err)
	}
	if err := scheduler.Start(); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}

	// Handle shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutting down worker...")
		scheduler.Shutdown()
		srv.Shutdown()
	}()

	slog.Info("Starting worker", "provider", cfg.Generation.Provider, "model", cfg.Generation.Model)

	if err := srv.Run(mux); err != nil {
		log.Fatalf("Worker failed: %v", err)
	}
}
