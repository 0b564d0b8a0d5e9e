package enrichment

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deeo-ai/publication-service/internal/domain"
	"github.com/deeo-ai/publication-service/internal/repository"
	"github.com/deeo-ai/publication-service/internal/sources/semanticscholar"
)

// fakeSource serves canned papers keyed by arXiv id and DOI.
type fakeSource struct {
	mu       sync.Mutex
	byArxiv  map[string]*semanticscholar.Paper
	byDOI    map[string]*semanticscholar.Paper
	err      error
	arxivGet int
	doiGet   int
}

func (f *fakeSource) GetByArxivID(_ context.Context, arxivID string) (*semanticscholar.Paper, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.arxivGet++
	if f.err != nil {
		return nil, f.err
	}
	if paper, ok := f.byArxiv[arxivID]; ok {
		return paper, nil
	}
	return nil, domain.NewNotFoundError("paper", arxivID)
}

func (f *fakeSource) GetByDOI(_ context.Context, doi string) (*semanticscholar.Paper, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.doiGet++
	if f.err != nil {
		return nil, f.err
	}
	if paper, ok := f.byDOI[doi]; ok {
		return paper, nil
	}
	return nil, domain.NewNotFoundError("paper", doi)
}

// fakePublicationRepo covers the methods the enrichment service uses.
type fakePublicationRepo struct {
	repository.PublicationRepository

	mu       sync.Mutex
	eligible []*domain.Publication
	authors  map[uuid.UUID][]*domain.Author
	updated  []*domain.Publication
}

func (f *fakePublicationRepo) ListForEnrichment(_ context.Context, ids []uuid.UUID, _ bool) ([]*domain.Publication, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(ids) == 0 {
		return f.eligible, nil
	}
	wanted := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	var out []*domain.Publication
	for _, pub := range f.eligible {
		if wanted[pub.ID] {
			out = append(out, pub)
		}
	}
	return out, nil
}

func (f *fakePublicationRepo) Update(_ context.Context, pub *domain.Publication) (*domain.Publication, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored := *pub
	f.updated = append(f.updated, &stored)
	return &stored, nil
}

func (f *fakePublicationRepo) ListAuthors(_ context.Context, publicationID uuid.UUID) ([]*domain.Author, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.authors[publicationID], nil
}

func (f *fakePublicationRepo) lastUpdateFor(id uuid.UUID) *domain.Publication {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.updated) - 1; i >= 0; i-- {
		if f.updated[i].ID == id {
			return f.updated[i]
		}
	}
	return nil
}

// fakeAuthorRepo records author updates.
type fakeAuthorRepo struct {
	repository.AuthorRepository

	mu      sync.Mutex
	updated []*domain.Author
}

func (f *fakeAuthorRepo) Update(_ context.Context, author *domain.Author) (*domain.Author, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored := *author
	f.updated = append(f.updated, &stored)
	return &stored, nil
}

func intPtr(v int) *int { return &v }

func newPendingPublication(arxivID, doi string) *domain.Publication {
	return &domain.Publication{
		ID:      uuid.New(),
		Title:   "Attention Is All You Need",
		ArxivID: arxivID,
		DOI:     doi,
		Status:  domain.PublicationStatusPendingEnrichment,
	}
}

func TestService_EnrichBatch_EnrichesByArxivID(t *testing.T) {
	t.Parallel()

	pub := newPendingPublication("1706.03762", "10.48550/arXiv.1706.03762")
	author := &domain.Author{ID: uuid.New(), FirstName: "Ashish", LastName: "Vaswani"}

	source := &fakeSource{
		byArxiv: map[string]*semanticscholar.Paper{
			"1706.03762": {
				PaperID:       "s2-abc123",
				Venue:         "NeurIPS",
				CitationCount: 90000,
				Abstract:      "The dominant sequence transduction models...",
				Authors: []semanticscholar.Author{
					{AuthorID: "s2-author-1", Name: "Ashish Vaswani", HIndex: intPtr(40)},
				},
			},
		},
	}
	pubs := &fakePublicationRepo{
		eligible: []*domain.Publication{pub},
		authors:  map[uuid.UUID][]*domain.Author{pub.ID: {author}},
	}
	authors := &fakeAuthorRepo{}

	svc := NewService(Options{
		Source:       source,
		Publications: pubs,
		Authors:      authors,
		Logger:       zerolog.Nop(),
	})

	stats, err := svc.EnrichBatch(context.Background(), nil, false)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Eligible)
	assert.Equal(t, 1, stats.Enriched)
	assert.Equal(t, 0, stats.Failed)
	assert.Equal(t, 1, stats.AuthorsUpdated)

	updated := pubs.lastUpdateFor(pub.ID)
	require.NotNil(t, updated)
	assert.Equal(t, domain.PublicationStatusEnriched, updated.Status)
	assert.Equal(t, "NeurIPS", updated.Venue)
	assert.Equal(t, 90000, updated.CitationCount)
	assert.Equal(t, "s2-abc123", updated.SemanticScholarID)
	assert.NotEmpty(t, updated.Abstract)

	require.Len(t, authors.updated, 1)
	assert.Equal(t, "s2-author-1", authors.updated[0].SemanticScholarID)
	require.NotNil(t, authors.updated[0].HIndex)
	assert.Equal(t, 40, *authors.updated[0].HIndex)

	// DOI lookup never needed.
	assert.Equal(t, 0, source.doiGet)
}

func TestService_EnrichBatch_FallsBackToDOI(t *testing.T) {
	t.Parallel()

	pub := newPendingPublication("9999.99999", "10.1000/example")

	source := &fakeSource{
		byDOI: map[string]*semanticscholar.Paper{
			"10.1000/example": {PaperID: "s2-doi-hit", CitationCount: 7},
		},
	}
	pubs := &fakePublicationRepo{eligible: []*domain.Publication{pub}}

	svc := NewService(Options{
		Source:       source,
		Publications: pubs,
		Authors:      &fakeAuthorRepo{},
		Logger:       zerolog.Nop(),
	})

	stats, err := svc.EnrichBatch(context.Background(), nil, false)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Enriched)
	assert.Equal(t, 1, source.arxivGet)
	assert.Equal(t, 1, source.doiGet)

	updated := pubs.lastUpdateFor(pub.ID)
	require.NotNil(t, updated)
	assert.Equal(t, "s2-doi-hit", updated.SemanticScholarID)
}

func TestService_EnrichBatch_MarksFailedOnMiss(t *testing.T) {
	t.Parallel()

	pub := newPendingPublication("9999.99999", "")
	pubs := &fakePublicationRepo{eligible: []*domain.Publication{pub}}

	svc := NewService(Options{
		Source:       &fakeSource{},
		Publications: pubs,
		Authors:      &fakeAuthorRepo{},
		Logger:       zerolog.Nop(),
	})

	stats, err := svc.EnrichBatch(context.Background(), nil, false)
	require.NoError(t, err)

	assert.Equal(t, 0, stats.Enriched)
	assert.Equal(t, 1, stats.Failed)

	updated := pubs.lastUpdateFor(pub.ID)
	require.NotNil(t, updated)
	assert.Equal(t, domain.PublicationStatusEnrichmentFailed, updated.Status)
}

func TestService_EnrichBatch_SourceErrorDoesNotAbortRun(t *testing.T) {
	t.Parallel()

	good := newPendingPublication("1111.11111", "")
	bad := newPendingPublication("2222.22222", "")

	source := &fakeSource{
		byArxiv: map[string]*semanticscholar.Paper{
			"1111.11111": {PaperID: "s2-good"},
		},
	}
	pubs := &fakePublicationRepo{eligible: []*domain.Publication{good, bad}}

	svc := NewService(Options{
		Source:       source,
		Publications: pubs,
		Authors:      &fakeAuthorRepo{},
		Logger:       zerolog.Nop(),
	})

	stats, err := svc.EnrichBatch(context.Background(), nil, false)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Eligible)
	assert.Equal(t, 1, stats.Enriched)
	assert.Equal(t, 1, stats.Failed)
}

func TestService_EnrichBatch_RestrictsToRequestedIDs(t *testing.T) {
	t.Parallel()

	wanted := newPendingPublication("1111.11111", "")
	other := newPendingPublication("2222.22222", "")

	source := &fakeSource{
		byArxiv: map[string]*semanticscholar.Paper{
			"1111.11111": {PaperID: "s2-wanted"},
			"2222.22222": {PaperID: "s2-other"},
		},
	}
	pubs := &fakePublicationRepo{eligible: []*domain.Publication{wanted, other}}

	svc := NewService(Options{
		Source:       source,
		Publications: pubs,
		Authors:      &fakeAuthorRepo{},
		Logger:       zerolog.Nop(),
	})

	stats, err := svc.EnrichBatch(context.Background(), []uuid.UUID{wanted.ID}, false)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Eligible)
	assert.Equal(t, 1, stats.Enriched)
	assert.Nil(t, pubs.lastUpdateFor(other.ID))
}

func TestService_EnrichBatch_ProcessesMultipleBatches(t *testing.T) {
	t.Parallel()

	byArxiv := make(map[string]*semanticscholar.Paper)
	var eligible []*domain.Publication
	for _, id := range []string{"1111.11111", "2222.22222", "3333.33333"} {
		eligible = append(eligible, newPendingPublication(id, ""))
		byArxiv[id] = &semanticscholar.Paper{PaperID: "s2-" + id}
	}

	pubs := &fakePublicationRepo{eligible: eligible}

	svc := NewService(Options{
		Source:       &fakeSource{byArxiv: byArxiv},
		Publications: pubs,
		Authors:      &fakeAuthorRepo{},
		BatchSize:    2,
		Logger:       zerolog.Nop(),
	})

	stats, err := svc.EnrichBatch(context.Background(), nil, false)
	require.NoError(t, err)

	assert.Equal(t, 3, stats.Eligible)
	assert.Equal(t, 3, stats.Enriched)
}

func TestService_EnrichBatch_ListFailure(t *testing.T) {
	t.Parallel()

	svc := NewService(Options{
		Source:       &fakeSource{},
		Publications: &listErrRepo{err: errors.New("connection reset")},
		Authors:      &fakeAuthorRepo{},
		Logger:       zerolog.Nop(),
	})

	stats, err := svc.EnrichBatch(context.Background(), nil, false)
	assert.Nil(t, stats)
	assert.ErrorContains(t, err, "connection reset")
}

type listErrRepo struct {
	repository.PublicationRepository
	err error
}

func (r *listErrRepo) ListForEnrichment(context.Context, []uuid.UUID, bool) ([]*domain.Publication, error) {
	return nil, r.err
}

func TestMatchAuthor(t *testing.T) {
	t.Parallel()

	payload := []semanticscholar.Author{
		{AuthorID: "a1", Name: "Geoffrey E. Hinton"},
		{AuthorID: "a2", Name: "Yann LeCun"},
	}

	tests := []struct {
		name   string
		author *domain.Author
		wantID string
	}{
		{
			name:   "exact full name match",
			author: &domain.Author{FirstName: "Yann", LastName: "LeCun"},
			wantID: "a2",
		},
		{
			name:   "surname substring match",
			author: &domain.Author{FirstName: "Geoffrey", LastName: "Hinton"},
			wantID: "a1",
		},
		{
			name:   "case insensitive",
			author: &domain.Author{FirstName: "yann", LastName: "lecun"},
			wantID: "a2",
		},
		{
			name:   "no match",
			author: &domain.Author{FirstName: "Ada", LastName: "Lovelace"},
			wantID: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			match := matchAuthor(tt.author, payload)
			if tt.wantID == "" {
				assert.Nil(t, match)
				return
			}
			require.NotNil(t, match)
			assert.Equal(t, tt.wantID, match.AuthorID)
		})
	}
}
