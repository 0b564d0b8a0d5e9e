// Package enrichment augments stored publications with citation counts,
// venues, and author metadata from Semantic Scholar.
package enrichment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/deeo-ai/publication-service/internal/domain"
	"github.com/deeo-ai/publication-service/internal/events"
	"github.com/deeo-ai/publication-service/internal/observability"
	"github.com/deeo-ai/publication-service/internal/repository"
	"github.com/deeo-ai/publication-service/internal/sources/semanticscholar"
)

// Defaults applied when the corresponding option is not positive.
const (
	DefaultBatchSize     = 50
	DefaultMaxConcurrent = 5
)

// Source is the external paper lookup the service enriches from.
type Source interface {
	GetByArxivID(ctx context.Context, arxivID string) (*semanticscholar.Paper, error)
	GetByDOI(ctx context.Context, doi string) (*semanticscholar.Paper, error)
}

// Stats summarizes an enrichment run. Per-publication failures increment
// Failed and never abort the run.
type Stats struct {
	Eligible       int       `json:"eligible"`
	Enriched       int       `json:"enriched"`
	Failed         int       `json:"failed"`
	AuthorsUpdated int       `json:"authors_updated"`
	StartedAt      time.Time `json:"started_at"`
	FinishedAt     time.Time `json:"finished_at"`
}

// Options configures a Service. Source and the two repositories are
// required.
type Options struct {
	Source       Source
	Publications repository.PublicationRepository
	Authors      repository.AuthorRepository

	// BatchSize is the number of publications processed per batch.
	BatchSize int

	// MaxConcurrent caps in-flight lookups within a batch.
	MaxConcurrent int

	// Emitter publishes enrichment events. Optional; defaults to a no-op.
	Emitter events.Emitter

	// Metrics records enrichment counters. Optional.
	Metrics *observability.Metrics

	Logger zerolog.Logger
}

// Service enriches publications in batches with bounded concurrency.
// Lookups prefer the arXiv id and fall back to the DOI; venue and citation
// count always take the fresh value, while identifier and text fields fill
// only when missing.
type Service struct {
	source        Source
	pubs          repository.PublicationRepository
	authors       repository.AuthorRepository
	batchSize     int
	maxConcurrent int
	emitter       events.Emitter
	metrics       *observability.Metrics
	logger        zerolog.Logger
}

// NewService creates an enrichment service from the given options.
func NewService(opts Options) *Service {
	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	maxConcurrent := opts.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrent
	}
	emitter := opts.Emitter
	if emitter == nil {
		emitter = &events.NopEmitter{}
	}

	return &Service{
		source:        opts.Source,
		pubs:          opts.Publications,
		authors:       opts.Authors,
		batchSize:     batchSize,
		maxConcurrent: maxConcurrent,
		emitter:       emitter,
		metrics:       opts.Metrics,
		logger:        opts.Logger.With().Str("component", "enrichment_service").Logger(),
	}
}

// EnrichBatch enriches the eligible publications. When ids is non-empty the
// run is restricted to them; forceUpdate re-enriches publications that
// already carry citations. Individual failures mark the publication as
// enrichment_failed and the run continues.
func (s *Service) EnrichBatch(ctx context.Context, ids []uuid.UUID, forceUpdate bool) (*Stats, error) {
	stats := &Stats{StartedAt: time.Now().UTC()}

	pubs, err := s.pubs.ListForEnrichment(ctx, ids, forceUpdate)
	if err != nil {
		return nil, fmt.Errorf("failed to list publications for enrichment: %w", err)
	}
	stats.Eligible = len(pubs)

	s.logger.Info().
		Int("eligible", len(pubs)).
		Bool("force_update", forceUpdate).
		Msg("enrichment run started")

	for start := 0; start < len(pubs); start += s.batchSize {
		if err := ctx.Err(); err != nil {
			stats.FinishedAt = time.Now().UTC()
			return stats, fmt.Errorf("enrichment run cancelled: %w", err)
		}

		end := start + s.batchSize
		if end > len(pubs) {
			end = len(pubs)
		}
		s.enrichSlice(ctx, pubs[start:end], stats)
	}

	stats.FinishedAt = time.Now().UTC()

	s.logger.Info().
		Int("enriched", stats.Enriched).
		Int("failed", stats.Failed).
		Int("authors_updated", stats.AuthorsUpdated).
		Dur("duration", stats.FinishedAt.Sub(stats.StartedAt)).
		Msg("enrichment run finished")

	return stats, nil
}

// enrichSlice processes one batch with bounded concurrency.
func (s *Service) enrichSlice(ctx context.Context, pubs []*domain.Publication, stats *Stats) {
	batchStart := time.Now()

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		sem = make(chan struct{}, s.maxConcurrent)
	)

	for _, pub := range pubs {
		wg.Add(1)
		sem <- struct{}{}

		go func(pub *domain.Publication) {
			defer wg.Done()
			defer func() { <-sem }()

			authorsUpdated, err := s.enrichOne(ctx, pub)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				stats.Failed++
				s.logger.Warn().
					Err(err).
					Str("publication_id", pub.ID.String()).
					Str("arxiv_id", pub.ArxivID).
					Msg("enrichment failed")
			} else {
				stats.Enriched++
				stats.AuthorsUpdated += authorsUpdated
			}
		}(pub)
	}

	wg.Wait()

	if s.metrics != nil {
		s.metrics.RecordEnrichmentBatch(time.Since(batchStart).Seconds())
	}
}

// enrichOne looks up a single publication, applies the enrichment, and
// updates matching authors. Returns the number of authors updated.
func (s *Service) enrichOne(ctx context.Context, pub *domain.Publication) (int, error) {
	if s.metrics != nil {
		s.metrics.RecordEnrichmentAttempt()
	}

	paper, err := s.lookup(ctx, pub)
	if err != nil {
		s.markFailed(ctx, pub)
		if s.metrics != nil {
			s.metrics.RecordEnrichmentFailed()
		}
		return 0, err
	}

	enr := semanticscholar.ExtractEnrichment(paper)
	applyEnrichment(pub, enr)

	if _, err := s.pubs.Update(ctx, pub); err != nil {
		if s.metrics != nil {
			s.metrics.RecordEnrichmentFailed()
		}
		return 0, fmt.Errorf("failed to persist enrichment: %w", err)
	}

	authorsUpdated := s.updateAuthors(ctx, pub, enr.Authors)

	if s.metrics != nil {
		s.metrics.RecordEnrichmentSucceeded()
	}

	if err := s.emitter.Emit(ctx, events.Event{
		Type:          events.TypePublicationEnriched,
		PublicationID: pub.ID,
		ArxivID:       pub.ArxivID,
		DOI:           pub.DOI,
		Title:         pub.Title,
	}); err != nil {
		s.logger.Warn().Err(err).Str("publication_id", pub.ID.String()).Msg("failed to emit event")
	}

	return authorsUpdated, nil
}

// lookup fetches the paper by arXiv id first, falling back to DOI when the
// arXiv lookup misses or the publication has no arXiv id.
func (s *Service) lookup(ctx context.Context, pub *domain.Publication) (*semanticscholar.Paper, error) {
	if pub.ArxivID != "" {
		paper, err := s.source.GetByArxivID(ctx, pub.ArxivID)
		if err == nil {
			return paper, nil
		}
		if !errors.Is(err, domain.ErrNotFound) || pub.DOI == "" {
			return nil, err
		}
	}

	if pub.DOI == "" {
		return nil, domain.ErrNoIdentifier
	}
	return s.source.GetByDOI(ctx, pub.DOI)
}

// markFailed records the failed state. A persistence error here is only
// logged; the original lookup error is what the caller reports.
func (s *Service) markFailed(ctx context.Context, pub *domain.Publication) {
	pub.Status = domain.PublicationStatusEnrichmentFailed
	if _, err := s.pubs.Update(ctx, pub); err != nil {
		s.logger.Error().
			Err(err).
			Str("publication_id", pub.ID.String()).
			Msg("failed to mark publication as enrichment_failed")
	}
}

// applyEnrichment folds the payload into the publication. Venue and
// citation count always take the fresh value; identifier and text fields
// fill only when the stored record has none.
func applyEnrichment(pub *domain.Publication, enr semanticscholar.Enrichment) {
	pub.Venue = enr.Venue
	pub.CitationCount = enr.CitationCount
	if pub.Abstract == "" {
		pub.Abstract = enr.Abstract
	}
	if pub.DOI == "" {
		pub.DOI = enr.DOI
	}
	if pub.ArxivID == "" {
		pub.ArxivID = enr.ArxivID
	}
	pub.SemanticScholarID = enr.SemanticScholarID
	pub.Status = domain.PublicationStatusEnriched
}

// updateAuthors matches payload authors against the publication's stored
// authors and fills in their Semantic Scholar id and h-index. Match
// failures are skipped silently; author metadata is best effort.
func (s *Service) updateAuthors(ctx context.Context, pub *domain.Publication, payload []semanticscholar.Author) int {
	if len(payload) == 0 {
		return 0
	}

	stored, err := s.pubs.ListAuthors(ctx, pub.ID)
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("publication_id", pub.ID.String()).
			Msg("failed to list authors for enrichment")
		return 0
	}

	updated := 0
	for _, author := range stored {
		match := matchAuthor(author, payload)
		if match == nil {
			continue
		}

		changed := false
		if author.SemanticScholarID == "" && match.AuthorID != "" {
			author.SemanticScholarID = match.AuthorID
			changed = true
		}
		if match.HIndex != nil {
			author.HIndex = match.HIndex
			changed = true
		}
		if !changed {
			continue
		}

		if _, err := s.authors.Update(ctx, author); err != nil {
			s.logger.Warn().
				Err(err).
				Str("author_id", author.ID.String()).
				Msg("failed to update author enrichment")
			continue
		}
		updated++
	}
	return updated
}

// matchAuthor finds the payload author corresponding to a stored author:
// case-insensitive full-name equality, or the stored surname appearing in
// the payload name.
func matchAuthor(author *domain.Author, payload []semanticscholar.Author) *semanticscholar.Author {
	fullName := strings.ToLower(author.FullName())
	lastName := strings.ToLower(author.LastName)

	for i := range payload {
		name := strings.ToLower(strings.TrimSpace(payload[i].Name))
		if name == "" {
			continue
		}
		if name == fullName {
			return &payload[i]
		}
		if lastName != "" && strings.Contains(name, lastName) {
			return &payload[i]
		}
	}
	return nil
}
