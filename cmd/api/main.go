package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/pageza/macrochef/backend/config"
	"github.com/pageza/macrochef/backend/internal/api"
	"github.com/pageza/macrochef/backend/internal/archive"
	"github.com/pageza/macrochef/backend/internal/completion"
	"github.com/pageza/macrochef/backend/internal/database"
	"github.com/pageza/macrochef/backend/internal/identity"
	"github.com/pageza/macrochef/backend/internal/ledger"
	"github.com/pageza/macrochef/backend/internal/logging"
	"github.com/pageza/macrochef/backend/internal/metrics"
	"github.com/pageza/macrochef/backend/internal/router"
	"github.com/pageza/macrochef/backend/internal/server"
	"github.com/pageza/macrochef/backend/internal/service"
	"github.com/pageza/macrochef/backend/internal/telemetry"
)

const serviceName = "macrochef-generate-recipes"

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}

	logger := logging.New(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, File: cfg.LogFile})
	log := logging.Component(logger, "main")
	for _, warning := range cfg.Warnings() {
		log.Warn(warning)
	}

	shutdownTracing, err := telemetry.Init(serviceName)
	if err != nil {
		log.WithError(err).Warn("Tracing disabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg, logging.Component(logger, "database"))
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}
	if db != nil {
		if err := database.RunMigrations(db, logging.Component(logger, "migrate")); err != nil {
			log.WithError(err).Fatal("Failed to run migrations")
		}
	}

	var redisClient *redis.Client
	if cfg.LedgerBackend == config.LedgerRedis {
		if redisClient, err = database.NewRedisClient(cfg, logging.Component(logger, "redis")); err != nil {
			log.WithError(err).Fatal("Failed to connect to Redis")
		}
		defer redisClient.Close()
	}

	httpClient := &http.Client{Transport: telemetry.Transport(http.DefaultTransport)}

	store := newLedgerStore(cfg, db, redisClient, httpClient)
	usage := ledger.New(store, logging.Component(logger, "ledger"))
	ledger.NewRetentionCleaner(db, cfg.LedgerRetentionDays, logging.Component(logger, "retention")).Start(ctx)

	generationMetrics := metrics.NewGenerationMetrics()
	deps := service.GenerationDeps{
		Secrets:  cfg.GenerationSecrets,
		Resolver: newResolver(cfg, httpClient),
		Ledger:   usage,
		Completer: completion.NewClient(completion.Config{
			APIKey: cfg.OpenAIKey,
			Model:  cfg.OpenAIModel,
			URL:    cfg.OpenAIURL,
		}, httpClient),
		Metrics: generationMetrics,
		Log:     logging.Component(logger, "generation"),
	}

	s3Cfg, err := cfg.NewS3Config(ctx)
	if err != nil {
		log.WithError(err).Warn("Rejected completion archive disabled")
	} else if s3Cfg != nil {
		deps.Archive = archive.NewS3Archive(s3Cfg.Client, s3Cfg.BucketName, cfg.BackendTimeout, logging.Component(logger, "archive"))
	}

	apiLog := logging.Component(logger, "api")
	opts := router.Options{
		ServiceName: serviceName,
		Log:         apiLog,
		Generate:    api.NewGenerateHandler(service.NewGenerationService(deps), apiLog),
		Metrics:     generationMetrics.Handler(),
		PingTimeout: cfg.BackendTimeout,
	}
	if db != nil {
		opts.Recipes = api.NewRecipeHandler(service.NewRecipeService(db), deps.Resolver, apiLog)
		opts.Ping = func(ctx context.Context) error { return database.HealthCheck(ctx, db) }
	} else if redisClient != nil {
		opts.Ping = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}

	srv := server.New(cfg.Addr(), router.SetupRouter(opts), logging.Component(logger, "server"))

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.WithError(err).Fatal("Server error")
		}
	case <-ctx.Done():
		log.Info("Shutting down server...")
	}

	if err := srv.Shutdown(context.Background()); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		log.WithError(err).Error("Server shutdown error")
	}
	if err := shutdownTracing(context.Background()); err != nil {
		log.WithError(err).Warn("Failed to flush traces")
	}
	log.Info("Server stopped")
}

func newLedgerStore(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, httpClient *http.Client) ledger.Store {
	switch cfg.LedgerBackend {
	case config.LedgerPostgres, config.LedgerSQLite:
		return ledger.NewGormStore(db)
	case config.LedgerRedis:
		return ledger.NewRedisStore(redisClient, ledger.RetentionDuration(cfg.LedgerRetentionDays))
	default:
		return ledger.NewRESTStore(cfg.SupabaseURL, cfg.SupabaseAnonKey, cfg.BackendTimeout, httpClient)
	}
}

func newResolver(cfg *config.Config, httpClient *http.Client) identity.Resolver {
	if cfg.AuthMode == config.AuthModeJWT {
		return identity.NewJWTResolver(cfg.SupabaseJWTSecret)
	}
	return identity.NewIntrospectionResolver(cfg.SupabaseURL, cfg.SupabaseAnonKey, cfg.BackendTimeout, httpClient)
}
