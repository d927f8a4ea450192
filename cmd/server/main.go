package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"painel/internal/cache"
	"painel/internal/camara"
	"painel/internal/config"
	"painel/internal/db"
	"painel/internal/email"
	"painel/internal/jobs"
	"painel/internal/logger"
	"painel/internal/metrics"
	"painel/internal/reports"
	"painel/internal/seo"
	"painel/internal/server"
)

// redisSnapshotExpiry bounds how long a shared snapshot outlives its last refresh.
const redisSnapshotExpiry = 7 * 24 * time.Hour

func main() {
	// Load .env file if present (ignored in production where env vars are set directly)
	_ = godotenv.Load()

	cfg := config.Load()

	if err := logger.Init(cfg.LogLevel, cfg.LogFormat, cfg.LogOutput); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	if err := run(cfg); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	yamlCfg, err := config.LoadYAMLConfig()
	if err != nil {
		return fmt.Errorf("failed to load config file: %w", err)
	}

	// Database is optional: it backs the snapshot archive, export counters
	// and report import history.
	var database *db.DB
	if cfg.DatabaseURL != "" {
		database, err = db.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer database.Close()

		if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		logger.Info("migrations completed successfully")
	} else {
		logger.Info("no DATABASE_URL set, running without snapshot archive")
	}

	if database != nil {
		metrics.Init(database)
	} else {
		metrics.Init(nil)
	}

	deputyCache, err := newDeputyCache(cfg, database)
	if err != nil {
		return err
	}

	reportService, err := newReportService(ctx, cfg, yamlCfg, database)
	if err != nil {
		return err
	}

	srv := server.New(cfg, yamlCfg)
	if err := srv.RegisterRoutes(ctx, server.Deps{
		Deputies: deputyCache,
		Reports:  reportService,
		DB:       database,
	}); err != nil {
		return fmt.Errorf("failed to register routes: %w", err)
	}

	if cfg.RefreshInterval > 0 {
		var pruner jobs.SnapshotPruner
		if database != nil {
			pruner = database
		}
		refresher := jobs.NewRefresher(deputyCache, reportService, pruner, cfg.RefreshInterval, cfg.CacheTTL(), cfg.SnapshotRetention).
			WithAlerts(email.NewNotifier(cfg, yamlCfg))
		go refresher.Start(ctx)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	logger.Info("server exited")
	return nil
}

// newDeputyCache builds the deputy cache on Redis when configured, or in
// process memory otherwise.
func newDeputyCache(cfg *config.Config, database *db.DB) (*cache.Cache, error) {
	client := camara.NewClient(cfg.CamaraAPIURL, cfg.CamaraTimeout, cfg.CamaraMaxRetries)

	var store cache.Store
	if cfg.RedisURL != "" {
		rdb, err := cache.NewRedisClient(cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		store = cache.NewRedisStore(rdb, redisSnapshotExpiry)
		logger.Info("deputy cache backed by redis")
	} else {
		store = cache.NewMemoryStore()
	}

	var opts []cache.Option
	if database != nil {
		opts = append(opts, cache.WithArchive(database))
	}
	return cache.New(client, store, opts...), nil
}

// newReportService reads SEO reports from S3 when a bucket is configured, or
// from the local reports directory.
func newReportService(ctx context.Context, cfg *config.Config, yamlCfg *config.YAMLConfig, database *db.DB) (*reports.Service, error) {
	var source seo.Source
	if cfg.UsesS3Reports() {
		s3Source, err := seo.NewS3Source(ctx, cfg.ReportsS3Bucket, cfg.ReportsS3Prefix)
		if err != nil {
			return nil, fmt.Errorf("failed to configure S3 reports: %w", err)
		}
		source = s3Source
	} else {
		source = seo.NewDirSource(cfg.ReportsDir)
	}
	logger.Info("reading SEO reports", zap.String("source", source.Name()))

	loader := seo.NewLoader(source, seo.NewExtractor(yamlCfg))

	var recorder reports.ImportRecorder
	if database != nil {
		recorder = database
	}
	return reports.NewService(loader, cfg.CacheTTL(), recorder), nil
}
