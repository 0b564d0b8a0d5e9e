// Package arxiv implements the collector client for the arXiv Atom API.
package arxiv

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/deeo-ai/publication-service/internal/domain"
	"github.com/deeo-ai/publication-service/internal/sources"
)

const (
	// DefaultBaseURL is the default arXiv API base URL.
	DefaultBaseURL = "https://export.arxiv.org/api"

	// DefaultRateLimit is the default rate limit (1 request per 3 seconds),
	// per arXiv API usage guidelines.
	DefaultRateLimit = 1.0 / 3.0

	// DefaultBurstSize is the default burst size for rate limiting.
	DefaultBurstSize = 1

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxResults is the default maximum results per request.
	DefaultMaxResults = 100

	// sourceName is the human-readable name for this source.
	sourceName = "arXiv"
)

// SupportedCategories is the whitelist of arXiv category codes the
// collector will query. Codes outside this set are dropped from searches.
var SupportedCategories = []string{"cs.AI", "cs.LG", "cs.CV", "cs.CL", "cs.NE", "stat.ML"}

// arxivIDRegex extracts the arXiv ID from the full entry URL.
// Matches patterns like "http://arxiv.org/abs/2301.12345v1" or "http://arxiv.org/abs/hep-th/9901001v1".
var arxivIDRegex = regexp.MustCompile(`arxiv\.org/abs/(.+?)(?:v\d+)?$`)

// Config holds configuration for the arXiv client.
type Config struct {
	// BaseURL is the arXiv API base URL.
	BaseURL string

	// Timeout is the request timeout.
	Timeout time.Duration

	// RateLimit is the maximum requests per second.
	RateLimit float64

	// BurstSize is the maximum burst of requests allowed.
	BurstSize int

	// MaxRetries is the maximum number of retry attempts per request.
	MaxRetries int

	// MaxResults is the maximum results to return per search request.
	MaxResults int
}

// applyDefaults sets default values for unset configuration fields.
func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.RateLimit == 0 {
		c.RateLimit = DefaultRateLimit
	}
	if c.BurstSize == 0 {
		c.BurstSize = DefaultBurstSize
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	if c.MaxResults == 0 {
		c.MaxResults = DefaultMaxResults
	}
}

// Client queries the arXiv Atom API.
type Client struct {
	config     Config
	httpClient *sources.HTTPClient
	logger     zerolog.Logger
	supported  map[string]struct{}
}

// New creates a new arXiv client with the given configuration.
func New(cfg Config, logger zerolog.Logger) *Client {
	cfg.applyDefaults()

	httpClient := sources.NewHTTPClient(sources.HTTPClientConfig{
		Timeout:    cfg.Timeout,
		RateLimit:  cfg.RateLimit,
		BurstSize:  cfg.BurstSize,
		MaxRetries: cfg.MaxRetries,
	})

	return newClient(cfg, httpClient, logger)
}

// NewWithHTTPClient creates a new arXiv client with a custom HTTP client.
// This is useful for testing with mock servers.
func NewWithHTTPClient(cfg Config, httpClient *sources.HTTPClient, logger zerolog.Logger) *Client {
	cfg.applyDefaults()
	return newClient(cfg, httpClient, logger)
}

func newClient(cfg Config, httpClient *sources.HTTPClient, logger zerolog.Logger) *Client {
	supported := make(map[string]struct{}, len(SupportedCategories))
	for _, cat := range SupportedCategories {
		supported[cat] = struct{}{}
	}

	return &Client{
		config:     cfg,
		httpClient: httpClient,
		logger:     logger.With().Str("component", "arxiv_client").Logger(),
		supported:  supported,
	}
}

// Name returns the human-readable name for this source.
func (c *Client) Name() string {
	return sourceName
}

// Close releases resources held by the underlying HTTP client.
func (c *Client) Close() {
	c.httpClient.Close()
}

// Search queries arXiv for papers matching the given parameters.
// Malformed feed entries are logged and skipped rather than failing
// the whole search.
func (c *Client) Search(ctx context.Context, params SearchParams) ([]Record, error) {
	searchURL, err := c.buildSearchURL(params)
	if err != nil {
		return nil, fmt.Errorf("building search URL: %w", err)
	}

	feed, err := c.fetchFeed(ctx, searchURL)
	if err != nil {
		return nil, err
	}

	return c.feedToRecords(feed), nil
}

// FetchByIDs retrieves specific papers by their arXiv IDs.
func (c *Client) FetchByIDs(ctx context.Context, ids []string) ([]Record, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	normalized := make([]string, 0, len(ids))
	for _, id := range ids {
		if id := domain.NormalizeArXivID(id); id != "" {
			normalized = append(normalized, id)
		}
	}

	baseURL, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}

	baseURL.Path = strings.TrimRight(baseURL.Path, "/") + "/query"
	query := url.Values{}
	query.Set("id_list", strings.Join(normalized, ","))
	query.Set("max_results", strconv.Itoa(len(normalized)))
	baseURL.RawQuery = query.Encode()

	feed, err := c.fetchFeed(ctx, baseURL.String())
	if err != nil {
		return nil, err
	}

	return c.feedToRecords(feed), nil
}

// fetchFeed executes a GET against the API and decodes the Atom feed.
func (c *Client) fetchFeed(ctx context.Context, fetchURL string) (*Feed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fetchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return nil, domain.NewExternalAPIError(sourceName, resp.StatusCode, string(body), nil)
	}

	// Parse the Atom XML response (limit body to 10MB).
	var feed Feed
	if err := xml.NewDecoder(io.LimitReader(resp.Body, 10<<20)).Decode(&feed); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	return &feed, nil
}

// feedToRecords converts feed entries to records, skipping malformed ones.
func (c *Client) feedToRecords(feed *Feed) []Record {
	records := make([]Record, 0, len(feed.Entries))
	for i := range feed.Entries {
		rec, err := entryToRecord(&feed.Entries[i])
		if err != nil {
			c.logger.Warn().
				Err(err).
				Str("entry_id", feed.Entries[i].ID).
				Msg("skipping malformed arXiv entry")
			continue
		}
		records = append(records, rec)
	}
	return records
}

// buildSearchURL constructs the arXiv search API URL.
func (c *Client) buildSearchURL(params SearchParams) (string, error) {
	baseURL, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return "", fmt.Errorf("parsing base URL: %w", err)
	}

	baseURL.Path = strings.TrimRight(baseURL.Path, "/") + "/query"

	query := url.Values{}

	searchQuery := "all:" + params.Query

	if catFilter := c.buildCategoryFilter(params.Categories); catFilter != "" {
		searchQuery = searchQuery + " AND " + catFilter
	}

	if params.DateFrom != nil || params.DateTo != nil {
		if dateFilter := buildDateFilter(params.DateFrom, params.DateTo); dateFilter != "" {
			searchQuery = searchQuery + " AND " + dateFilter
		}
	}

	query.Set("search_query", searchQuery)

	maxResults := params.MaxResults
	if maxResults == 0 {
		maxResults = c.config.MaxResults
	}
	query.Set("max_results", strconv.Itoa(maxResults))

	if params.Offset > 0 {
		query.Set("start", strconv.Itoa(params.Offset))
	}

	// Sort by submission date (newest first)
	query.Set("sortBy", "submittedDate")
	query.Set("sortOrder", "descending")

	baseURL.RawQuery = query.Encode()
	return baseURL.String(), nil
}

// buildCategoryFilter constructs the "(cat:a OR cat:b)" clause from the
// requested categories, dropping codes not in the supported whitelist.
func (c *Client) buildCategoryFilter(categories []string) string {
	kept := make([]string, 0, len(categories))
	for _, cat := range categories {
		if _, ok := c.supported[cat]; !ok {
			c.logger.Debug().Str("category", cat).Msg("dropping unsupported category")
			continue
		}
		kept = append(kept, "cat:"+cat)
	}

	if len(kept) == 0 {
		return ""
	}
	return "(" + strings.Join(kept, " OR ") + ")"
}

// buildDateFilter constructs the arXiv submission date filter string.
func buildDateFilter(from, to *time.Time) string {
	fromStr := "*"
	toStr := "*"

	if from != nil {
		fromStr = from.Format("20060102")
	}
	if to != nil {
		toStr = to.Format("20060102")
	}

	return fmt.Sprintf("submittedDate:[%s TO %s]", fromStr, toStr)
}

// entryToRecord converts an arXiv Atom entry to a Record. It returns an
// error when the entry lacks an extractable arXiv ID or a title.
func entryToRecord(entry *Entry) (Record, error) {
	arxivID := extractArXivID(entry.ID)
	if arxivID == "" {
		return Record{}, fmt.Errorf("no arXiv ID in entry id %q", entry.ID)
	}

	title := normalizeWhitespace(entry.Title)
	if title == "" {
		return Record{}, fmt.Errorf("entry %s has no title", arxivID)
	}

	authors := make([]string, 0, len(entry.Authors))
	for _, a := range entry.Authors {
		if name := normalizeWhitespace(a.Name); name != "" {
			authors = append(authors, name)
		}
	}

	categories := make([]string, 0, len(entry.Categories))
	for _, cat := range entry.Categories {
		if cat.Term != "" {
			categories = append(categories, cat.Term)
		}
	}

	pdfURL := ""
	for _, link := range entry.Links {
		if link.Title == "pdf" || link.Type == "application/pdf" {
			pdfURL = link.Href
			break
		}
	}

	return Record{
		ArxivID:    arxivID,
		Title:      title,
		Summary:    normalizeWhitespace(entry.Summary),
		Published:  strings.TrimSpace(entry.Published),
		Updated:    strings.TrimSpace(entry.Updated),
		DOI:        strings.TrimSpace(entry.DOI),
		JournalRef: strings.TrimSpace(entry.JournalRef),
		Comment:    strings.TrimSpace(entry.Comment),
		Authors:    authors,
		Categories: categories,
		PDFURL:     pdfURL,
	}, nil
}

// extractArXivID extracts the arXiv ID from the full entry URL.
// Input: "http://arxiv.org/abs/2301.12345v1" -> "2301.12345"
func extractArXivID(entryURL string) string {
	matches := arxivIDRegex.FindStringSubmatch(entryURL)
	if len(matches) < 2 {
		return ""
	}
	return matches[1]
}

// normalizeWhitespace trims and collapses multiple whitespace characters.
func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
