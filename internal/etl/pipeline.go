package etl

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/deeo-ai/publication-service/internal/classifier"
	"github.com/deeo-ai/publication-service/internal/domain"
	"github.com/deeo-ai/publication-service/internal/events"
	"github.com/deeo-ai/publication-service/internal/observability"
	"github.com/deeo-ai/publication-service/internal/repository"
	"github.com/deeo-ai/publication-service/internal/sources/arxiv"
)

// Collector is the extraction source for the pipeline.
type Collector interface {
	Search(ctx context.Context, params arxiv.SearchParams) ([]arxiv.Record, error)
}

// LabelSource supplies candidate theme labels for classification.
type LabelSource interface {
	Labels(ctx context.Context) []string
}

// RunParams controls a single pipeline run.
type RunParams struct {
	// Query is the free-text search query.
	Query string

	// Categories restricts collection to the given arXiv category codes.
	Categories []string

	// DateFrom and DateTo bound the submission date (inclusive).
	DateFrom *time.Time
	DateTo   *time.Time

	// MaxResults caps the number of records collected.
	MaxResults int

	// ClassifyThemes enables classifier-based theme refinement on top of
	// the category mapping.
	ClassifyThemes bool
}

// Stats summarizes a pipeline run. Per-record failures increment Errors
// and never abort the run.
type Stats struct {
	Collected      int       `json:"collected"`
	Created        int       `json:"created"`
	Updated        int       `json:"updated"`
	Skipped        int       `json:"skipped"`
	AuthorsCreated int       `json:"authors_created"`
	ThemesCreated  int       `json:"themes_created"`
	Errors         int       `json:"errors"`
	StartedAt      time.Time `json:"started_at"`
	FinishedAt     time.Time `json:"finished_at"`
}

// Options configures a Pipeline. Collector and the three repositories are
// required; the rest default to disabled/no-op behavior.
type Options struct {
	Collector    Collector
	Publications repository.PublicationRepository
	Authors      repository.AuthorRepository
	Themes       repository.ThemeRepository

	// SimilarityThreshold for title deduplication. Non-positive values
	// fall back to DefaultSimilarityThreshold.
	SimilarityThreshold float64

	// Classifier and Labels enable theme refinement. Both optional.
	Classifier classifier.Classifier
	Labels     LabelSource

	// Emitter publishes lifecycle events. Optional; defaults to a no-op.
	Emitter events.Emitter

	// Metrics records run counters. Optional.
	Metrics *observability.Metrics

	Logger zerolog.Logger
}

// Pipeline runs the collect-transform-load cycle: arXiv search, mapping,
// three-tier deduplication, persistence, and author/theme association.
type Pipeline struct {
	collector  Collector
	mapper     *Mapper
	categories *CategoryMapper
	dedup      *Deduplicator
	pubs       repository.PublicationRepository
	authors    repository.AuthorRepository
	themes     repository.ThemeRepository
	classifier classifier.Classifier
	labels     LabelSource
	emitter    events.Emitter
	metrics    *observability.Metrics
	logger     zerolog.Logger
}

// NewPipeline creates a pipeline from the given options.
func NewPipeline(opts Options) *Pipeline {
	emitter := opts.Emitter
	if emitter == nil {
		emitter = &events.NopEmitter{}
	}

	logger := opts.Logger.With().Str("component", "etl_pipeline").Logger()

	return &Pipeline{
		collector:  opts.Collector,
		mapper:     NewMapper(opts.Logger),
		categories: NewCategoryMapper(),
		dedup:      NewDeduplicator(opts.Publications, opts.SimilarityThreshold, opts.Logger),
		pubs:       opts.Publications,
		authors:    opts.Authors,
		themes:     opts.Themes,
		classifier: opts.Classifier,
		labels:     opts.Labels,
		emitter:    emitter,
		metrics:    opts.Metrics,
		logger:     logger,
	}
}

// Run executes a full pipeline cycle. An extraction failure aborts the run
// with a PipelineError; per-record failures are counted in Stats.Errors and
// the run continues.
func (p *Pipeline) Run(ctx context.Context, params RunParams) (*Stats, error) {
	stats := &Stats{StartedAt: time.Now().UTC()}

	if p.metrics != nil {
		p.metrics.RecordPipelineStarted()
	}

	p.logger.Info().
		Str("query", params.Query).
		Strs("categories", params.Categories).
		Int("max_results", params.MaxResults).
		Msg("pipeline run started")

	records, err := p.collector.Search(ctx, arxiv.SearchParams{
		Query:      params.Query,
		Categories: params.Categories,
		DateFrom:   params.DateFrom,
		DateTo:     params.DateTo,
		MaxResults: params.MaxResults,
	})
	if err != nil {
		p.finish(stats, false)
		return nil, domain.NewPipelineError("extract", err)
	}

	stats.Collected = len(records)
	if p.metrics != nil {
		p.metrics.RecordPublicationsCollected("arXiv", len(records))
	}

	for i := range records {
		if err := ctx.Err(); err != nil {
			p.finish(stats, false)
			return stats, domain.NewPipelineError("load", err)
		}

		rec := &records[i]
		if err := p.processRecord(ctx, rec, params, stats); err != nil {
			stats.Errors++
			if p.metrics != nil {
				p.metrics.RecordPublicationError()
			}
			p.logger.Error().
				Err(err).
				Str("arxiv_id", rec.ArxivID).
				Msg("failed to process record")
		}
	}

	p.finish(stats, true)

	p.logger.Info().
		Int("collected", stats.Collected).
		Int("created", stats.Created).
		Int("updated", stats.Updated).
		Int("skipped", stats.Skipped).
		Int("errors", stats.Errors).
		Dur("duration", stats.FinishedAt.Sub(stats.StartedAt)).
		Msg("pipeline run finished")

	return stats, nil
}

// finish stamps the end time and records run-level metrics.
func (p *Pipeline) finish(stats *Stats, ok bool) {
	stats.FinishedAt = time.Now().UTC()
	if p.metrics == nil {
		return
	}
	seconds := stats.FinishedAt.Sub(stats.StartedAt).Seconds()
	if ok {
		p.metrics.RecordPipelineCompleted(seconds)
	} else {
		p.metrics.RecordPipelineFailed(seconds)
	}
}

// processRecord transforms and loads a single record.
func (p *Pipeline) processRecord(ctx context.Context, rec *arxiv.Record, params RunParams, stats *Stats) error {
	candidate := p.mapper.MapPublication(rec)

	existing, tier, err := p.dedup.FindDuplicate(ctx, candidate)
	if err != nil {
		return fmt.Errorf("dedup failed: %w", err)
	}

	var pub *domain.Publication
	var eventType string

	switch {
	case existing == nil:
		pub, err = p.pubs.Create(ctx, candidate)
		if err != nil {
			return fmt.Errorf("create failed: %w", err)
		}
		stats.Created++
		eventType = events.TypePublicationCreated
		if p.metrics != nil {
			p.metrics.RecordPublicationCreated()
		}

	case ShouldUpdate(existing, candidate):
		if p.metrics != nil {
			p.metrics.RecordDuplicateDetected(tier)
		}
		pub, err = p.pubs.Update(ctx, Merge(existing, candidate))
		if err != nil {
			return fmt.Errorf("merge update failed: %w", err)
		}
		stats.Updated++
		eventType = events.TypePublicationUpdated
		if p.metrics != nil {
			p.metrics.RecordPublicationUpdated()
		}

	default:
		stats.Skipped++
		if p.metrics != nil {
			p.metrics.RecordDuplicateDetected(tier)
			p.metrics.RecordPublicationSkipped()
		}
		return nil
	}

	if err := p.attachAuthors(ctx, pub, rec, stats); err != nil {
		return err
	}
	if err := p.attachThemes(ctx, pub, rec, params, stats); err != nil {
		return err
	}

	if err := p.emitter.Emit(ctx, events.Event{
		Type:          eventType,
		PublicationID: pub.ID,
		ArxivID:       pub.ArxivID,
		DOI:           pub.DOI,
		Title:         pub.Title,
	}); err != nil {
		// Event delivery is best effort; the record is already persisted.
		p.logger.Warn().Err(err).Str("publication_id", pub.ID.String()).Msg("failed to emit event")
	}

	return nil
}

// attachAuthors finds or creates the record's authors and links them to the
// publication in authorship order.
func (p *Pipeline) attachAuthors(ctx context.Context, pub *domain.Publication, rec *arxiv.Record, stats *Stats) error {
	authors := p.mapper.MapAuthors(rec.Authors)

	for i, author := range authors {
		stored, err := p.authors.GetByName(ctx, author.LastName, author.FirstName)
		if errors.Is(err, domain.ErrNotFound) {
			stored, err = p.authors.Create(ctx, author)
			if err == nil {
				stats.AuthorsCreated++
				if p.metrics != nil {
					p.metrics.RecordAuthorsCreated(1)
				}
			}
		}
		if err != nil {
			return fmt.Errorf("author find-or-create failed for %q: %w", author.FullName(), err)
		}

		if err := p.pubs.LinkAuthor(ctx, pub.ID, stored.ID, i+1); err != nil {
			return fmt.Errorf("author link failed: %w", err)
		}
	}

	return nil
}

// attachThemes derives theme labels from the record's categories (falling
// back to keyword extraction), optionally refines them through the
// classifier, and links each theme to the publication.
func (p *Pipeline) attachThemes(ctx context.Context, pub *domain.Publication, rec *arxiv.Record, params RunParams, stats *Stats) error {
	labels := p.categories.MapCategories(rec.Categories)
	if len(labels) == 0 {
		labels = p.categories.ExtractThemesFromText(pub.Title + " " + pub.Abstract)
	}

	if params.ClassifyThemes && p.classifier != nil {
		labels = p.refineLabels(ctx, pub, labels)
	}

	for _, label := range labels {
		theme, err := p.themes.GetByLabel(ctx, label)
		if errors.Is(err, domain.ErrNotFound) {
			theme, err = p.themes.Create(ctx, &domain.Theme{Label: label})
			if err == nil {
				stats.ThemesCreated++
				if p.metrics != nil {
					p.metrics.RecordThemesCreated(1)
				}
			}
			// A concurrent run may have created the same label.
			if errors.Is(err, domain.ErrAlreadyExists) {
				theme, err = p.themes.GetByLabel(ctx, label)
			}
		}
		if err != nil {
			return fmt.Errorf("theme find-or-create failed for %q: %w", label, err)
		}

		if err := p.pubs.LinkTheme(ctx, pub.ID, theme.ID); err != nil {
			return fmt.Errorf("theme link failed: %w", err)
		}
	}

	return nil
}

// refineLabels merges classifier suggestions into the category-derived
// labels. Classification failures degrade to the unrefined labels.
func (p *Pipeline) refineLabels(ctx context.Context, pub *domain.Publication, labels []string) []string {
	candidates := classifier.DefaultThemes
	if p.labels != nil {
		candidates = p.labels.Labels(ctx)
	}

	scored, err := p.classifier.Classify(ctx, pub.Title+" "+pub.Abstract, candidates, 3)
	if err != nil {
		p.logger.Warn().Err(err).Str("publication_id", pub.ID.String()).Msg("theme classification failed")
		return labels
	}

	seen := make(map[string]bool, len(labels))
	for _, label := range labels {
		seen[label] = true
	}
	for _, sl := range scored {
		if sl.Score > 0 && !seen[sl.Label] {
			seen[sl.Label] = true
			labels = append(labels, sl.Label)
		}
	}
	return labels
}
