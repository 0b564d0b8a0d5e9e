// Package main provides the entry point for the publication service server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/deeo-ai/publication-service/internal/classifier"
	"github.com/deeo-ai/publication-service/internal/config"
	"github.com/deeo-ai/publication-service/internal/database"
	"github.com/deeo-ai/publication-service/internal/enrichment"
	"github.com/deeo-ai/publication-service/internal/etl"
	"github.com/deeo-ai/publication-service/internal/events"
	"github.com/deeo-ai/publication-service/internal/observability"
	"github.com/deeo-ai/publication-service/internal/repository"
	"github.com/deeo-ai/publication-service/internal/scheduler"
	httpserver "github.com/deeo-ai/publication-service/internal/server/http"
	"github.com/deeo-ai/publication-service/internal/sources/arxiv"
	"github.com/deeo-ai/publication-service/internal/sources/semanticscholar"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Set up structured logging.
	logger := observability.NewLogger(observability.LoggingConfig{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		AddSource:  cfg.Logging.AddSource,
		TimeFormat: cfg.Logging.TimeFormat,
	})
	logger = logger.With().Str("component", "server").Logger()
	logger.Info().Msg("publication-service server starting")

	// Set up context with graceful shutdown via OS signals.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect to PostgreSQL.
	db, err := database.New(ctx, &cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()
	logger.Info().Msg("database connection established")

	// Run migrations if configured.
	if cfg.Database.MigrationAutoRun {
		migrator, err := database.NewMigrator(db, cfg.Database.MigrationPath, logger)
		if err != nil {
			return fmt.Errorf("create migrator: %w", err)
		}
		defer func() {
			if closeErr := migrator.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close migrator")
			}
		}()

		if err := migrator.Up(); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
	}

	// Create repositories.
	pubRepo := repository.NewPgPublicationRepository(db)
	authorRepo := repository.NewPgAuthorRepository(db)
	themeRepo := repository.NewPgThemeRepository(db)
	orgRepo := repository.NewPgOrganisationRepository(db)

	// Prometheus metrics.
	metrics := observability.NewMetrics("pubsvc")

	// External source clients.
	arxivClient := arxiv.New(arxiv.Config{
		BaseURL:    cfg.ArXiv.BaseURL,
		Timeout:    cfg.ArXiv.Timeout,
		RateLimit:  cfg.ArXiv.RateLimit,
		MaxRetries: cfg.ArXiv.MaxRetries,
		MaxResults: cfg.ArXiv.MaxResults,
	}, logger)
	defer arxivClient.Close()

	s2Client := semanticscholar.New(semanticscholar.Config{
		BaseURL:        cfg.SemanticScholar.BaseURL,
		APIKey:         cfg.SemanticScholar.APIKey,
		Timeout:        cfg.SemanticScholar.Timeout,
		WindowRequests: cfg.SemanticScholar.WindowRequests,
		Window:         cfg.SemanticScholar.Window,
		Cooldown:       cfg.SemanticScholar.Cooldown,
	}, logger)
	defer s2Client.Close()

	// Lifecycle event emitter.
	var emitter events.Emitter = &events.NopEmitter{}
	if cfg.Kafka.Enabled {
		kafkaEmitter := events.NewKafkaEmitter(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger)
		defer func() {
			if closeErr := kafkaEmitter.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close kafka emitter")
			}
		}()
		emitter = kafkaEmitter
		logger.Info().
			Strs("brokers", cfg.Kafka.Brokers).
			Str("topic", cfg.Kafka.Topic).
			Msg("kafka emitter enabled")
	}

	// ETL pipeline with optional classifier-backed theme refinement.
	pipeline := etl.NewPipeline(etl.Options{
		Collector:           arxivClient,
		Publications:        pubRepo,
		Authors:             authorRepo,
		Themes:              themeRepo,
		SimilarityThreshold: cfg.Pipeline.SimilarityThreshold,
		Classifier:          classifier.NewKeywordClassifier(nil),
		Labels:              classifier.NewThemeResolver(themeRepo, logger),
		Emitter:             emitter,
		Metrics:             metrics,
		Logger:              logger,
	})

	// Enrichment service.
	enricher := enrichment.NewService(enrichment.Options{
		Source:        s2Client,
		Publications:  pubRepo,
		Authors:       authorRepo,
		BatchSize:     cfg.Enrichment.BatchSize,
		MaxConcurrent: cfg.Enrichment.MaxConcurrent,
		Emitter:       emitter,
		Metrics:       metrics,
		Logger:        logger,
	})

	// Cron scheduler for recurring pipeline and enrichment runs.
	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		sched = scheduler.New(logger)

		pipelineCfg := cfg.Pipeline
		err := sched.Register("pipeline", cfg.Scheduler.PipelineCron, func(jobCtx context.Context) {
			dateTo := time.Now().UTC()
			dateFrom := dateTo.AddDate(0, 0, -pipelineCfg.LookbackDays)

			stats, runErr := pipeline.Run(jobCtx, etl.RunParams{
				Query:          pipelineCfg.Query,
				Categories:     pipelineCfg.Categories,
				DateFrom:       &dateFrom,
				DateTo:         &dateTo,
				MaxResults:     pipelineCfg.MaxResults,
				ClassifyThemes: pipelineCfg.ClassifyThemes,
			})
			if runErr != nil {
				logger.Error().Err(runErr).Msg("scheduled pipeline run failed")
				return
			}
			logger.Info().
				Int("created", stats.Created).
				Int("updated", stats.Updated).
				Int("skipped", stats.Skipped).
				Int("errors", stats.Errors).
				Msg("scheduled pipeline run completed")
		})
		if err != nil {
			return fmt.Errorf("register pipeline job: %w", err)
		}

		forceUpdate := cfg.Enrichment.ForceUpdate
		err = sched.Register("enrichment", cfg.Scheduler.EnrichmentCron, func(jobCtx context.Context) {
			stats, runErr := enricher.EnrichBatch(jobCtx, nil, forceUpdate)
			if runErr != nil {
				logger.Error().Err(runErr).Msg("scheduled enrichment run failed")
				return
			}
			logger.Info().
				Int("enriched", stats.Enriched).
				Int("failed", stats.Failed).
				Msg("scheduled enrichment run completed")
		})
		if err != nil {
			return fmt.Errorf("register enrichment job: %w", err)
		}

		sched.Start()
		logger.Info().
			Str("pipeline_cron", cfg.Scheduler.PipelineCron).
			Str("enrichment_cron", cfg.Scheduler.EnrichmentCron).
			Msg("scheduler started")
	}

	// HTTP REST API server.
	httpCfg := httpserver.Config{
		Address:         cfg.Server.HTTPAddress(),
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		IdleTimeout:     cfg.Server.IdleTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}

	httpSrv := httpserver.NewServer(
		httpCfg,
		pubRepo,
		authorRepo,
		themeRepo,
		orgRepo,
		pipeline,
		enricher,
		db,
		metrics,
		logger,
	)

	// Set up Prometheus metrics handler on a separate port if configured.
	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		metricsMux := http.NewServeMux()
		metricsMux.Handle(cfg.Metrics.Path, promhttp.Handler())
		metricsServer = &http.Server{
			Addr:         cfg.Server.MetricsAddress(),
			Handler:      metricsMux,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		}
	}

	// Channel to collect server errors.
	errCh := make(chan error, 2)

	// Start HTTP REST API server in background.
	go func() {
		logger.Info().
			Str("address", httpCfg.Address).
			Msg("HTTP REST API server starting")
		if err := httpSrv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Start metrics server if configured.
	if metricsServer != nil {
		go func() {
			logger.Info().
				Str("address", metricsServer.Addr).
				Msg("metrics server starting")
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("metrics server error: %w", err)
			}
		}()
	}

	readyLog := logger.Info().Str("http_address", httpCfg.Address)
	if metricsServer != nil {
		readyLog = readyLog.Str("metrics_address", metricsServer.Addr)
	}
	readyLog.Msg("publication-service is ready")

	// Wait for shutdown signal or server error.
	select {
	case <-ctx.Done():
		logger.Info().Msg("received shutdown signal")
	case err := <-errCh:
		logger.Error().Err(err).Msg("server error")
		return err
	}

	// Graceful shutdown.
	logger.Info().Msg("shutting down publication-service")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	// Stop the scheduler so no new runs start during shutdown.
	if sched != nil {
		if err := sched.Stop(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("scheduler shutdown error")
		}
	}

	// Shut down HTTP REST API server with timeout.
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// Shut down metrics server if running.
	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("metrics server shutdown error")
		}
	}

	logger.Info().Msg("publication-service shutdown complete")
	return nil
}
