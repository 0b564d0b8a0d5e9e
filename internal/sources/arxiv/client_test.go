package arxiv

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deeo-ai/publication-service/internal/sources"
)

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom" xmlns:opensearch="http://a9.com/-/spec/opensearch/1.1/">
  <opensearch:totalResults>2</opensearch:totalResults>
  <opensearch:startIndex>0</opensearch:startIndex>
  <opensearch:itemsPerPage>2</opensearch:itemsPerPage>
  <entry>
    <id>http://arxiv.org/abs/2301.12345v1</id>
    <title>Deep Learning for
      Protein Folding</title>
    <summary>  We present a method.  </summary>
    <published>2023-01-15T18:30:00Z</published>
    <updated>2023-01-16T09:00:00Z</updated>
    <author><name>Marie Curie</name></author>
    <author><name>Paul Dirac</name></author>
    <category term="cs.LG"/>
    <category term="q-bio.BM"/>
    <link href="http://arxiv.org/pdf/2301.12345v1" title="pdf" type="application/pdf"/>
  </entry>
  <entry>
    <id>http://example.org/not-an-arxiv-url</id>
    <title>Malformed Entry</title>
  </entry>
</feed>`

func testArxivClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	httpClient := sources.NewHTTPClient(sources.HTTPClientConfig{
		Timeout:    5 * time.Second,
		RateLimit:  1000,
		BurstSize:  1000,
		RetryDelay: time.Millisecond,
	})
	t.Cleanup(httpClient.Close)

	client := NewWithHTTPClient(Config{BaseURL: server.URL}, httpClient, zerolog.Nop())
	return client, server
}

func TestSearchParsesFeedAndSkipsMalformedEntries(t *testing.T) {
	t.Parallel()

	client, _ := testArxivClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/atom+xml")
		_, _ = w.Write([]byte(sampleFeed))
	})

	records, err := client.Search(context.Background(), SearchParams{Query: "protein folding"})
	require.NoError(t, err)

	// The entry without an extractable arXiv ID is dropped.
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, "2301.12345", rec.ArxivID)
	assert.Equal(t, "Deep Learning for Protein Folding", rec.Title)
	assert.Equal(t, "We present a method.", rec.Summary)
	assert.Equal(t, "2023-01-15T18:30:00Z", rec.Published)
	assert.Equal(t, []string{"Marie Curie", "Paul Dirac"}, rec.Authors)
	assert.Equal(t, []string{"cs.LG", "q-bio.BM"}, rec.Categories)
	assert.Equal(t, "http://arxiv.org/pdf/2301.12345v1", rec.PDFURL)
}

func TestSearchBuildsQuery(t *testing.T) {
	t.Parallel()

	var gotQuery string
	client, _ := testArxivClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("search_query")
		_, _ = w.Write([]byte(sampleFeed))
	})

	from := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2023, 1, 31, 0, 0, 0, 0, time.UTC)

	_, err := client.Search(context.Background(), SearchParams{
		Query:      "transformers",
		Categories: []string{"cs.AI", "cs.LG", "astro-ph.GA"},
		DateFrom:   &from,
		DateTo:     &to,
	})
	require.NoError(t, err)

	assert.Equal(t,
		"all:transformers AND (cat:cs.AI OR cat:cs.LG) AND submittedDate:[20230101 TO 20230131]",
		gotQuery)
}

func TestSearchDropsAllUnsupportedCategories(t *testing.T) {
	t.Parallel()

	var gotQuery string
	client, _ := testArxivClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("search_query")
		_, _ = w.Write([]byte(sampleFeed))
	})

	_, err := client.Search(context.Background(), SearchParams{
		Query:      "gravity",
		Categories: []string{"astro-ph.GA", "gr-qc"},
	})
	require.NoError(t, err)

	// No category clause at all when nothing survives the whitelist.
	assert.Equal(t, "all:gravity", gotQuery)
}

func TestSearchReturnsExternalAPIError(t *testing.T) {
	t.Parallel()

	client, _ := testArxivClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})

	_, err := client.Search(context.Background(), SearchParams{Query: "anything"})
	require.Error(t, err)
}

func TestFetchByIDs(t *testing.T) {
	t.Parallel()

	var gotIDList string
	client, _ := testArxivClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotIDList = r.URL.Query().Get("id_list")
		_, _ = w.Write([]byte(sampleFeed))
	})

	records, err := client.FetchByIDs(context.Background(), []string{"arXiv:2301.12345", "2302.00001"})
	require.NoError(t, err)
	require.Len(t, records, 1)

	assert.Equal(t, "2301.12345,2302.00001", gotIDList)
}

func TestFetchByIDsEmptyInput(t *testing.T) {
	t.Parallel()

	client, _ := testArxivClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected for empty id list")
	})

	records, err := client.FetchByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestExtractArXivID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "new style with version", input: "http://arxiv.org/abs/2301.12345v1", want: "2301.12345"},
		{name: "new style without version", input: "http://arxiv.org/abs/2301.12345", want: "2301.12345"},
		{name: "legacy", input: "http://arxiv.org/abs/hep-th/9901001v2", want: "hep-th/9901001"},
		{name: "https", input: "https://arxiv.org/abs/2301.12345v3", want: "2301.12345"},
		{name: "not arxiv", input: "http://example.org/abs/123", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, extractArXivID(tt.input))
		})
	}
}
