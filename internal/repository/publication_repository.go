package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/deeo-ai/publication-service/internal/domain"
)

// PublicationRepository handles publication persistence and the lookups the
// deduplication and enrichment layers depend on.
type PublicationRepository interface {
	// Create inserts a new publication. A nil ID is replaced with a fresh UUID.
	// Returns domain.ErrAlreadyExists if the DOI or arXiv id is already taken.
	Create(ctx context.Context, pub *domain.Publication) (*domain.Publication, error)

	// Update persists all mutable fields of an existing publication.
	// Returns domain.ErrNotFound if the publication does not exist.
	Update(ctx context.Context, pub *domain.Publication) (*domain.Publication, error)

	// GetByID retrieves a publication by its internal UUID.
	// Returns domain.ErrNotFound if no matching publication exists.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Publication, error)

	// GetByDOI retrieves a publication by its DOI.
	// Returns domain.ErrNotFound if no matching publication exists.
	GetByDOI(ctx context.Context, doi string) (*domain.Publication, error)

	// GetByArxivID retrieves a publication by its arXiv identifier.
	// Returns domain.ErrNotFound if no matching publication exists.
	GetByArxivID(ctx context.Context, arxivID string) (*domain.Publication, error)

	// List retrieves publications matching the filter criteria.
	// Returns the matching publications and total count for pagination.
	// The total count reflects all matching records regardless of limit/offset.
	List(ctx context.Context, filter PublicationFilter) ([]*domain.Publication, int64, error)

	// ListAll retrieves every publication in the repository, most recent first.
	// Used by the title-similarity deduplication scan, which needs the full set.
	ListAll(ctx context.Context) ([]*domain.Publication, error)

	// ListForEnrichment retrieves publications eligible for enrichment:
	// those carrying a DOI or arXiv id and, unless forceUpdate is set, a zero
	// citation count. When ids is non-empty the result is restricted to them.
	ListForEnrichment(ctx context.Context, ids []uuid.UUID, forceUpdate bool) ([]*domain.Publication, error)

	// LinkAuthor associates an author with a publication at the given 1-based
	// position. Relinking an existing pair is a no-op.
	// Returns domain.ErrNotFound if the publication or author does not exist.
	LinkAuthor(ctx context.Context, publicationID, authorID uuid.UUID, position int) error

	// LinkTheme associates a theme with a publication. Relinking an existing
	// pair is a no-op.
	// Returns domain.ErrNotFound if the publication or theme does not exist.
	LinkTheme(ctx context.Context, publicationID, themeID uuid.UUID) error

	// ListAuthors retrieves the authors of a publication ordered by position.
	ListAuthors(ctx context.Context, publicationID uuid.UUID) ([]*domain.Author, error)

	// Delete removes a publication and its associations.
	// Returns domain.ErrNotFound if the publication does not exist.
	Delete(ctx context.Context, id uuid.UUID) error
}

// PublicationFilter specifies criteria for listing publications.
type PublicationFilter struct {
	// Status filters to publications in a specific lifecycle status (optional).
	Status *domain.PublicationStatus

	// Source filters to publications collected from a specific source (optional).
	Source *string

	// Theme filters to publications linked to a specific theme (optional).
	Theme *uuid.UUID

	// Limit specifies maximum number of results (default: 100, max: 1000).
	Limit int

	// Offset specifies the starting position for pagination.
	Offset int
}

// Validate checks if the filter has valid values and sets defaults.
func (f *PublicationFilter) Validate() error {
	applyPaginationDefaults(&f.Limit, &f.Offset)
	return nil
}
