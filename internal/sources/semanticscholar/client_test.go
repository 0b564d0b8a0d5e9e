package semanticscholar

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deeo-ai/publication-service/internal/domain"
)

const samplePaper = `{
  "paperId": "649def34f8be52c8b66281af98ae884c09aef38b",
  "title": "Attention Is All You Need",
  "abstract": "The dominant sequence transduction models...",
  "venue": "NeurIPS",
  "year": 2017,
  "citationCount": 91234,
  "externalIds": {"DOI": "10.5555/3295222", "ArXiv": "1706.03762"},
  "authors": [
    {"authorId": "40348417", "name": "Ashish Vaswani", "hIndex": 25},
    {"authorId": "1846258", "name": "Noam Shazeer"}
  ]
}`

func testS2Client(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := New(Config{
		BaseURL:  server.URL,
		Cooldown: 10 * time.Millisecond,
	}, zerolog.Nop())
	t.Cleanup(client.Close)

	return client
}

func TestGetByArxivID(t *testing.T) {
	t.Parallel()

	var gotPath string
	client := testS2Client(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(samplePaper))
	})

	paper, err := client.GetByArxivID(context.Background(), "arXiv:1706.03762")
	require.NoError(t, err)

	assert.Equal(t, "/paper/arXiv:1706.03762", gotPath)
	assert.Equal(t, "Attention Is All You Need", paper.Title)
	assert.Equal(t, 91234, paper.CitationCount)
	assert.Equal(t, "NeurIPS", paper.Venue)
	require.Len(t, paper.Authors, 2)
	assert.Equal(t, "Ashish Vaswani", paper.Authors[0].Name)
	require.NotNil(t, paper.Authors[0].HIndex)
	assert.Equal(t, 25, *paper.Authors[0].HIndex)
}

func TestGetByDOI(t *testing.T) {
	t.Parallel()

	var gotPath string
	client := testS2Client(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		_, _ = w.Write([]byte(samplePaper))
	})

	_, err := client.GetByDOI(context.Background(), "10.5555/3295222")
	require.NoError(t, err)
	assert.Equal(t, "/paper/DOI:10.5555%2F3295222", gotPath)
}

func TestGetByArxivIDNotFound(t *testing.T) {
	t.Parallel()

	client := testS2Client(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := client.GetByArxivID(context.Background(), "2301.99999")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGetByArxivIDRetriesOnceAfter429(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	client := testS2Client(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(samplePaper))
	})

	paper, err := client.GetByArxivID(context.Background(), "1706.03762")
	require.NoError(t, err)
	assert.Equal(t, "Attention Is All You Need", paper.Title)
	assert.Equal(t, int32(2), calls.Load())
}

func TestGetByArxivIDGivesUpAfterSecond429(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	client := testS2Client(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := client.GetByArxivID(context.Background(), "1706.03762")
	assert.ErrorIs(t, err, domain.ErrRateLimited)
	assert.Equal(t, int32(2), calls.Load())
}

func TestGetByArxivIDSendsAPIKey(t *testing.T) {
	t.Parallel()

	var gotKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-api-key")
		_, _ = w.Write([]byte(samplePaper))
	}))
	t.Cleanup(server.Close)

	client := New(Config{BaseURL: server.URL, APIKey: "secret"}, zerolog.Nop())
	t.Cleanup(client.Close)

	_, err := client.GetByArxivID(context.Background(), "1706.03762")
	require.NoError(t, err)
	assert.Equal(t, "secret", gotKey)
}

func TestGetByEmptyIdentifier(t *testing.T) {
	t.Parallel()

	client := New(Config{BaseURL: "http://localhost:0"}, zerolog.Nop())
	t.Cleanup(client.Close)

	_, err := client.GetByArxivID(context.Background(), "  ")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = client.GetByDOI(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestExtractEnrichment(t *testing.T) {
	t.Parallel()

	paper := &Paper{
		PaperID:       "abc123",
		Venue:         "  NeurIPS  ",
		Abstract:      " text ",
		CitationCount: 42,
		ExternalIDs:   ExternalIDs{DOI: "10.1/x", ArXiv: "2301.12345"},
		Authors: []Author{
			{AuthorID: "1", Name: "Marie Curie"},
			{AuthorID: "2", Name: "   "},
		},
	}

	enr := ExtractEnrichment(paper)
	assert.Equal(t, "abc123", enr.SemanticScholarID)
	assert.Equal(t, 42, enr.CitationCount)
	assert.Equal(t, "NeurIPS", enr.Venue)
	assert.Equal(t, "text", enr.Abstract)
	assert.Equal(t, "10.1/x", enr.DOI)
	assert.Equal(t, "2301.12345", enr.ArxivID)
	// Blank-named authors are dropped.
	require.Len(t, enr.Authors, 1)
	assert.Equal(t, "Marie Curie", enr.Authors[0].Name)
}

func TestExtractEnrichmentNil(t *testing.T) {
	t.Parallel()

	enr := ExtractEnrichment(nil)
	assert.Zero(t, enr)
}
