package etl

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/deeo-ai/publication-service/internal/domain"
	"github.com/deeo-ai/publication-service/internal/repository"
)

// Duplicate match tiers, in precedence order.
const (
	MatchTierDOI     = "doi"
	MatchTierArxivID = "arxiv_id"
	MatchTierTitle   = "title"
)

// DefaultSimilarityThreshold is the minimum title similarity for a
// tier-3 duplicate match.
const DefaultSimilarityThreshold = 0.95

// Deduplicator finds existing publications that match an incoming candidate.
// Matching runs in three tiers: DOI equality, arXiv id equality, then a
// full-table title similarity scan. The full scan is O(n) per candidate;
// acceptable at current volumes.
type Deduplicator struct {
	pubs      repository.PublicationRepository
	threshold float64
	logger    zerolog.Logger
}

// NewDeduplicator creates a deduplicator. A non-positive threshold falls
// back to DefaultSimilarityThreshold.
func NewDeduplicator(pubs repository.PublicationRepository, threshold float64, logger zerolog.Logger) *Deduplicator {
	if threshold <= 0 {
		threshold = DefaultSimilarityThreshold
	}
	return &Deduplicator{
		pubs:      pubs,
		threshold: threshold,
		logger:    logger.With().Str("component", "deduplicator").Logger(),
	}
}

// FindDuplicate returns the existing publication matching the candidate and
// the tier that matched, or (nil, "") when the candidate is new. Earlier
// tiers win: a DOI match is never overridden by a title match.
func (d *Deduplicator) FindDuplicate(ctx context.Context, candidate *domain.Publication) (*domain.Publication, string, error) {
	if candidate == nil {
		return nil, "", domain.NewValidationError("candidate", "candidate cannot be nil")
	}

	if candidate.DOI != "" {
		existing, err := d.pubs.GetByDOI(ctx, candidate.DOI)
		if err == nil {
			return existing, MatchTierDOI, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, "", fmt.Errorf("DOI lookup failed: %w", err)
		}
	}

	if candidate.ArxivID != "" {
		existing, err := d.pubs.GetByArxivID(ctx, candidate.ArxivID)
		if err == nil {
			return existing, MatchTierArxivID, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, "", fmt.Errorf("arXiv id lookup failed: %w", err)
		}
	}

	existing, err := d.findByTitle(ctx, candidate)
	if err != nil {
		return nil, "", err
	}
	if existing != nil {
		return existing, MatchTierTitle, nil
	}

	return nil, "", nil
}

// findByTitle scans all publications for the best title similarity match at
// or above the threshold.
func (d *Deduplicator) findByTitle(ctx context.Context, candidate *domain.Publication) (*domain.Publication, error) {
	all, err := d.pubs.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("title scan failed: %w", err)
	}

	var best *domain.Publication
	bestScore := 0.0

	for _, existing := range all {
		score := Similarity(candidate.Title, existing.Title)
		if score >= d.threshold && score > bestScore {
			best = existing
			bestScore = score
		}
	}

	if best != nil {
		d.logger.Debug().
			Str("candidate_title", candidate.Title).
			Str("matched_title", best.Title).
			Float64("similarity", bestScore).
			Msg("title similarity match")
	}

	return best, nil
}

// ShouldUpdate reports whether the candidate carries information worth
// merging into the existing publication: a higher citation count, or an
// abstract, DOI, or arXiv id the existing record lacks.
func ShouldUpdate(existing, candidate *domain.Publication) bool {
	if candidate.CitationCount > existing.CitationCount {
		return true
	}
	if existing.Abstract == "" && candidate.Abstract != "" {
		return true
	}
	if existing.DOI == "" && candidate.DOI != "" {
		return true
	}
	if existing.ArxivID == "" && candidate.ArxivID != "" {
		return true
	}
	return false
}

// Merge folds the candidate into the existing publication. Identifier and
// text fields fill only when the existing record has none; the citation
// count takes the maximum. Existing values are never overwritten.
func Merge(existing, candidate *domain.Publication) *domain.Publication {
	if existing.Abstract == "" {
		existing.Abstract = candidate.Abstract
	}
	if existing.DOI == "" {
		existing.DOI = candidate.DOI
	}
	if existing.ArxivID == "" {
		existing.ArxivID = candidate.ArxivID
	}
	if existing.URL == "" {
		existing.URL = candidate.URL
	}
	if candidate.CitationCount > existing.CitationCount {
		existing.CitationCount = candidate.CitationCount
	}
	return existing
}
