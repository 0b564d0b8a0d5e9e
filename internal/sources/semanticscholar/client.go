// Package semanticscholar implements the enrichment client for the
// Semantic Scholar Graph API.
package semanticscholar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/deeo-ai/publication-service/internal/domain"
	"github.com/deeo-ai/publication-service/internal/sources"
)

const (
	// DefaultBaseURL is the default Semantic Scholar Graph API base URL.
	DefaultBaseURL = "https://api.semanticscholar.org/graph/v1"

	// DefaultWindowRequests is how many requests are allowed per window.
	// The public API permits 100 requests per 5 minutes.
	DefaultWindowRequests = 100

	// DefaultWindow is the rate limit window.
	DefaultWindow = 5 * time.Minute

	// DefaultCooldown is how long to back off after a 429 before the
	// single retry.
	DefaultCooldown = 60 * time.Second

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second

	// sourceName is the human-readable name for this source.
	sourceName = "SemanticScholar"

	// paperFields is the field list requested on every paper lookup.
	paperFields = "paperId,title,abstract,venue,year,citationCount,externalIds,authors,authors.hIndex"
)

// Config holds configuration for the Semantic Scholar client.
type Config struct {
	// BaseURL is the Graph API base URL.
	BaseURL string

	// APIKey is the optional API key, sent in the x-api-key header.
	APIKey string

	// Timeout is the request timeout.
	Timeout time.Duration

	// WindowRequests is the number of requests allowed per Window.
	WindowRequests int

	// Window is the sliding rate limit window.
	Window time.Duration

	// Cooldown is the wait applied after a 429 response before retrying.
	Cooldown time.Duration
}

// applyDefaults sets default values for unset configuration fields.
func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.WindowRequests == 0 {
		c.WindowRequests = DefaultWindowRequests
	}
	if c.Window == 0 {
		c.Window = DefaultWindow
	}
	if c.Cooldown == 0 {
		c.Cooldown = DefaultCooldown
	}
}

// Client queries the Semantic Scholar Graph API. Lookups share a sliding
// window rate limiter, so the client is safe for concurrent use.
type Client struct {
	config     Config
	httpClient *http.Client
	window     *sources.SlidingWindowLimiter
	logger     zerolog.Logger
}

// New creates a new Semantic Scholar client with the given configuration.
func New(cfg Config, logger zerolog.Logger) *Client {
	cfg.applyDefaults()

	return &Client{
		config: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		window: sources.NewSlidingWindowLimiter(cfg.WindowRequests, cfg.Window),
		logger: logger.With().Str("component", "semanticscholar_client").Logger(),
	}
}

// Close releases idle connections held by the underlying transport.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

// Name returns the human-readable name for this source.
func (c *Client) Name() string {
	return sourceName
}

// GetByArxivID looks up a paper by its arXiv identifier.
func (c *Client) GetByArxivID(ctx context.Context, arxivID string) (*Paper, error) {
	id := domain.NormalizeArXivID(arxivID)
	if id == "" {
		return nil, domain.NewValidationError("arxiv_id", "must not be empty")
	}
	return c.getPaper(ctx, "arXiv:"+id)
}

// GetByDOI looks up a paper by its DOI.
func (c *Client) GetByDOI(ctx context.Context, doi string) (*Paper, error) {
	doi = strings.TrimSpace(doi)
	if doi == "" {
		return nil, domain.NewValidationError("doi", "must not be empty")
	}
	return c.getPaper(ctx, "DOI:"+doi)
}

// getPaper fetches a paper by a prefixed identifier. On 429 it waits the
// configured cooldown and retries exactly once.
func (c *Client) getPaper(ctx context.Context, paperID string) (*Paper, error) {
	lookupURL := fmt.Sprintf("%s/paper/%s?fields=%s",
		strings.TrimRight(c.config.BaseURL, "/"),
		url.PathEscape(paperID),
		url.QueryEscape(paperFields),
	)

	paper, retryable, err := c.doGet(ctx, lookupURL)
	if err == nil || !retryable {
		return paper, err
	}

	c.logger.Warn().
		Str("paper_id", paperID).
		Dur("cooldown", c.config.Cooldown).
		Msg("rate limited, backing off before retry")

	timer := time.NewTimer(c.config.Cooldown)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
	}

	paper, _, err = c.doGet(ctx, lookupURL)
	return paper, err
}

// doGet performs a single rate-limited GET. The second return value
// reports whether the failure was a 429 that may be retried.
func (c *Client) doGet(ctx context.Context, lookupURL string) (*Paper, bool, error) {
	if err := c.window.Wait(ctx); err != nil {
		return nil, false, fmt.Errorf("rate limiter wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, lookupURL, nil)
	if err != nil {
		return nil, false, fmt.Errorf("creating request: %w", err)
	}
	if c.config.APIKey != "" {
		req.Header.Set("x-api-key", c.config.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		var paper Paper
		if err := json.NewDecoder(io.LimitReader(resp.Body, 10<<20)).Decode(&paper); err != nil {
			return nil, false, fmt.Errorf("decoding response: %w", err)
		}
		return &paper, false, nil

	case resp.StatusCode == http.StatusNotFound:
		return nil, false, domain.NewNotFoundError("paper", lookupURL)

	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, true, domain.NewRateLimitError(sourceName, c.config.Cooldown)

	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return nil, false, domain.NewExternalAPIError(sourceName, resp.StatusCode, string(body), nil)
	}
}

// ExtractEnrichment distills a paper payload into the fields applied to
// a stored publication.
func ExtractEnrichment(paper *Paper) Enrichment {
	if paper == nil {
		return Enrichment{}
	}

	authors := make([]Author, 0, len(paper.Authors))
	for _, a := range paper.Authors {
		if strings.TrimSpace(a.Name) == "" {
			continue
		}
		authors = append(authors, a)
	}

	return Enrichment{
		SemanticScholarID: paper.PaperID,
		CitationCount:     paper.CitationCount,
		Venue:             strings.TrimSpace(paper.Venue),
		Abstract:          strings.TrimSpace(paper.Abstract),
		DOI:               strings.TrimSpace(paper.ExternalIDs.DOI),
		ArxivID:           strings.TrimSpace(paper.ExternalIDs.ArXiv),
		Authors:           authors,
	}
}
