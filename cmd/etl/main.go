// Package main provides a CLI tool for one-off pipeline and enrichment runs.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/deeo-ai/publication-service/internal/classifier"
	"github.com/deeo-ai/publication-service/internal/config"
	"github.com/deeo-ai/publication-service/internal/database"
	"github.com/deeo-ai/publication-service/internal/enrichment"
	"github.com/deeo-ai/publication-service/internal/etl"
	"github.com/deeo-ai/publication-service/internal/events"
	"github.com/deeo-ai/publication-service/internal/observability"
	"github.com/deeo-ai/publication-service/internal/repository"
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
	// Define CLI flags.
	runPipeline := flag.Bool("pipeline", false, "Run the arXiv collection pipeline once")
	runEnrichment := flag.Bool("enrich", false, "Run a Semantic Scholar enrichment batch once")
	query := flag.String("query", "", "Override the configured search query")
	categories := flag.String("categories", "", "Comma-separated arXiv category codes (overrides config)")
	lookbackDays := flag.Int("lookback", 0, "Override the configured lookback window in days")
	maxResults := flag.Int("max-results", 0, "Override the configured per-run result cap")
	classify := flag.Bool("classify", false, "Enable classifier-backed theme refinement")
	force := flag.Bool("force", false, "Re-enrich publications that already have citation data")
	ids := flag.String("ids", "", "Comma-separated publication UUIDs to enrich (default: all eligible)")
	flag.Parse()

	if !*runPipeline && !*runEnrichment {
		flag.Usage()
		fmt.Fprintln(os.Stderr, "\nPlease specify -pipeline and/or -enrich")
		return fmt.Errorf("no action specified")
	}

	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Set up structured logging with console output for the CLI tool.
	logger := observability.NewLogger(observability.LoggingConfig{
		Level:      cfg.Logging.Level,
		Format:     "console",
		Output:     "stdout",
		AddSource:  false,
		TimeFormat: time.RFC3339,
	})
	logger = logger.With().Str("component", "etl_cli").Logger()

	// Cancel the run on interrupt so partial stats still get reported.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect to PostgreSQL.
	db, err := database.New(ctx, &cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	pubRepo := repository.NewPgPublicationRepository(db)
	authorRepo := repository.NewPgAuthorRepository(db)
	themeRepo := repository.NewPgThemeRepository(db)

	var emitter events.Emitter = &events.NopEmitter{}
	if cfg.Kafka.Enabled {
		kafkaEmitter := events.NewKafkaEmitter(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger)
		defer func() {
			if closeErr := kafkaEmitter.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close kafka emitter")
			}
		}()
		emitter = kafkaEmitter
	}

	if *runPipeline {
		if err := executePipeline(ctx, cfg, pubRepo, authorRepo, themeRepo, emitter,
			*query, *categories, *lookbackDays, *maxResults, *classify, logger); err != nil {
			return err
		}
	}

	if *runEnrichment {
		if err := executeEnrichment(ctx, cfg, pubRepo, authorRepo, emitter, *ids, *force, logger); err != nil {
			return err
		}
	}

	return nil
}

func executePipeline(
	ctx context.Context,
	cfg *config.Config,
	pubRepo repository.PublicationRepository,
	authorRepo repository.AuthorRepository,
	themeRepo repository.ThemeRepository,
	emitter events.Emitter,
	query, categories string,
	lookbackDays, maxResults int,
	classify bool,
	logger zerolog.Logger,
) error {
	arxivClient := arxiv.New(arxiv.Config{
		BaseURL:    cfg.ArXiv.BaseURL,
		Timeout:    cfg.ArXiv.Timeout,
		RateLimit:  cfg.ArXiv.RateLimit,
		MaxRetries: cfg.ArXiv.MaxRetries,
		MaxResults: cfg.ArXiv.MaxResults,
	}, logger)
	defer arxivClient.Close()

	pipeline := etl.NewPipeline(etl.Options{
		Collector:           arxivClient,
		Publications:        pubRepo,
		Authors:             authorRepo,
		Themes:              themeRepo,
		SimilarityThreshold: cfg.Pipeline.SimilarityThreshold,
		Classifier:          classifier.NewKeywordClassifier(nil),
		Labels:              classifier.NewThemeResolver(themeRepo, logger),
		Emitter:             emitter,
		Logger:              logger,
	})

	params := etl.RunParams{
		Query:          cfg.Pipeline.Query,
		Categories:     cfg.Pipeline.Categories,
		MaxResults:     cfg.Pipeline.MaxResults,
		ClassifyThemes: cfg.Pipeline.ClassifyThemes || classify,
	}
	if query != "" {
		params.Query = query
	}
	if categories != "" {
		params.Categories = splitList(categories)
	}
	if maxResults > 0 {
		params.MaxResults = maxResults
	}

	days := cfg.Pipeline.LookbackDays
	if lookbackDays > 0 {
		days = lookbackDays
	}
	dateTo := time.Now().UTC()
	dateFrom := dateTo.AddDate(0, 0, -days)
	params.DateFrom = &dateFrom
	params.DateTo = &dateTo

	logger.Info().
		Str("query", params.Query).
		Strs("categories", params.Categories).
		Int("max_results", params.MaxResults).
		Msg("running pipeline")

	stats, err := pipeline.Run(ctx, params)
	if err != nil {
		return fmt.Errorf("pipeline run: %w", err)
	}

	logger.Info().
		Int("collected", stats.Collected).
		Int("created", stats.Created).
		Int("updated", stats.Updated).
		Int("skipped", stats.Skipped).
		Int("authors_created", stats.AuthorsCreated).
		Int("themes_created", stats.ThemesCreated).
		Int("errors", stats.Errors).
		Msg("pipeline run completed")
	return nil
}

func executeEnrichment(
	ctx context.Context,
	cfg *config.Config,
	pubRepo repository.PublicationRepository,
	authorRepo repository.AuthorRepository,
	emitter events.Emitter,
	rawIDs string,
	force bool,
	logger zerolog.Logger,
) error {
	s2Client := semanticscholar.New(semanticscholar.Config{
		BaseURL:        cfg.SemanticScholar.BaseURL,
		APIKey:         cfg.SemanticScholar.APIKey,
		Timeout:        cfg.SemanticScholar.Timeout,
		WindowRequests: cfg.SemanticScholar.WindowRequests,
		Window:         cfg.SemanticScholar.Window,
		Cooldown:       cfg.SemanticScholar.Cooldown,
	}, logger)
	defer s2Client.Close()

	var targetIDs []uuid.UUID
	if rawIDs != "" {
		for _, raw := range splitList(rawIDs) {
			id, err := uuid.Parse(raw)
			if err != nil {
				return fmt.Errorf("invalid publication id %q: %w", raw, err)
			}
			targetIDs = append(targetIDs, id)
		}
	}

	enricher := enrichment.NewService(enrichment.Options{
		Source:        s2Client,
		Publications:  pubRepo,
		Authors:       authorRepo,
		BatchSize:     cfg.Enrichment.BatchSize,
		MaxConcurrent: cfg.Enrichment.MaxConcurrent,
		Emitter:       emitter,
		Logger:        logger,
	})

	forceUpdate := cfg.Enrichment.ForceUpdate || force

	logger.Info().
		Int("target_ids", len(targetIDs)).
		Bool("force_update", forceUpdate).
		Msg("running enrichment")

	stats, err := enricher.EnrichBatch(ctx, targetIDs, forceUpdate)
	if err != nil {
		return fmt.Errorf("enrichment run: %w", err)
	}

	logger.Info().
		Int("eligible", stats.Eligible).
		Int("enriched", stats.Enriched).
		Int("failed", stats.Failed).
		Int("authors_updated", stats.AuthorsUpdated).
		Msg("enrichment run completed")
	return nil
}

// splitList splits a comma-separated flag value into trimmed parts.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
