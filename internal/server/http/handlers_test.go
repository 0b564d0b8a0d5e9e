package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deeo-ai/publication-service/internal/domain"
	"github.com/deeo-ai/publication-service/internal/enrichment"
	"github.com/deeo-ai/publication-service/internal/etl"
	"github.com/deeo-ai/publication-service/internal/repository"
)

// ---------------------------------------------------------------------------
// Mock implementations
// ---------------------------------------------------------------------------

// mockPublicationRepo implements repository.PublicationRepository for
// handler tests.
type mockPublicationRepo struct {
	createFn      func(ctx context.Context, pub *domain.Publication) (*domain.Publication, error)
	updateFn      func(ctx context.Context, pub *domain.Publication) (*domain.Publication, error)
	getByIDFn     func(ctx context.Context, id uuid.UUID) (*domain.Publication, error)
	listFn        func(ctx context.Context, filter repository.PublicationFilter) ([]*domain.Publication, int64, error)
	listAuthorsFn func(ctx context.Context, publicationID uuid.UUID) ([]*domain.Author, error)
	deleteFn      func(ctx context.Context, id uuid.UUID) error
}

func (m *mockPublicationRepo) Create(ctx context.Context, pub *domain.Publication) (*domain.Publication, error) {
	if m.createFn != nil {
		return m.createFn(ctx, pub)
	}
	return pub, nil
}

func (m *mockPublicationRepo) Update(ctx context.Context, pub *domain.Publication) (*domain.Publication, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, pub)
	}
	return pub, nil
}

func (m *mockPublicationRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Publication, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *mockPublicationRepo) GetByDOI(_ context.Context, _ string) (*domain.Publication, error) {
	return nil, domain.ErrNotFound
}

func (m *mockPublicationRepo) GetByArxivID(_ context.Context, _ string) (*domain.Publication, error) {
	return nil, domain.ErrNotFound
}

func (m *mockPublicationRepo) List(ctx context.Context, filter repository.PublicationFilter) ([]*domain.Publication, int64, error) {
	if m.listFn != nil {
		return m.listFn(ctx, filter)
	}
	return nil, 0, nil
}

func (m *mockPublicationRepo) ListAll(_ context.Context) ([]*domain.Publication, error) {
	return nil, nil
}

func (m *mockPublicationRepo) ListForEnrichment(_ context.Context, _ []uuid.UUID, _ bool) ([]*domain.Publication, error) {
	return nil, nil
}

func (m *mockPublicationRepo) LinkAuthor(_ context.Context, _, _ uuid.UUID, _ int) error { return nil }
func (m *mockPublicationRepo) LinkTheme(_ context.Context, _, _ uuid.UUID) error         { return nil }

func (m *mockPublicationRepo) ListAuthors(ctx context.Context, publicationID uuid.UUID) ([]*domain.Author, error) {
	if m.listAuthorsFn != nil {
		return m.listAuthorsFn(ctx, publicationID)
	}
	return nil, nil
}

func (m *mockPublicationRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

// mockAuthorRepo implements repository.AuthorRepository for handler tests.
type mockAuthorRepo struct {
	createFn  func(ctx context.Context, author *domain.Author) (*domain.Author, error)
	getByIDFn func(ctx context.Context, id uuid.UUID) (*domain.Author, error)
	listFn    func(ctx context.Context, limit, offset int) ([]*domain.Author, int64, error)
}

func (m *mockAuthorRepo) Create(ctx context.Context, author *domain.Author) (*domain.Author, error) {
	if m.createFn != nil {
		return m.createFn(ctx, author)
	}
	return author, nil
}

func (m *mockAuthorRepo) Update(_ context.Context, author *domain.Author) (*domain.Author, error) {
	return author, nil
}

func (m *mockAuthorRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Author, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *mockAuthorRepo) GetByName(_ context.Context, _, _ string) (*domain.Author, error) {
	return nil, domain.ErrNotFound
}

func (m *mockAuthorRepo) List(ctx context.Context, limit, offset int) ([]*domain.Author, int64, error) {
	if m.listFn != nil {
		return m.listFn(ctx, limit, offset)
	}
	return nil, 0, nil
}

func (m *mockAuthorRepo) Delete(_ context.Context, _ uuid.UUID) error { return nil }

// mockThemeRepo implements repository.ThemeRepository for handler tests.
type mockThemeRepo struct {
	createFn func(ctx context.Context, theme *domain.Theme) (*domain.Theme, error)
}

func (m *mockThemeRepo) Create(ctx context.Context, theme *domain.Theme) (*domain.Theme, error) {
	if m.createFn != nil {
		return m.createFn(ctx, theme)
	}
	return theme, nil
}

func (m *mockThemeRepo) GetByID(_ context.Context, _ uuid.UUID) (*domain.Theme, error) {
	return nil, domain.ErrNotFound
}

func (m *mockThemeRepo) GetByLabel(_ context.Context, _ string) (*domain.Theme, error) {
	return nil, domain.ErrNotFound
}

func (m *mockThemeRepo) List(_ context.Context, _, _ int) ([]*domain.Theme, int64, error) {
	return nil, 0, nil
}

func (m *mockThemeRepo) Delete(_ context.Context, _ uuid.UUID) error { return nil }

// mockOrganisationRepo implements repository.OrganisationRepository for
// handler tests.
type mockOrganisationRepo struct {
	createFn func(ctx context.Context, org *domain.Organisation) (*domain.Organisation, error)
}

func (m *mockOrganisationRepo) Create(ctx context.Context, org *domain.Organisation) (*domain.Organisation, error) {
	if m.createFn != nil {
		return m.createFn(ctx, org)
	}
	return org, nil
}

func (m *mockOrganisationRepo) Update(_ context.Context, org *domain.Organisation) (*domain.Organisation, error) {
	return org, nil
}

func (m *mockOrganisationRepo) GetByID(_ context.Context, _ uuid.UUID) (*domain.Organisation, error) {
	return nil, domain.ErrNotFound
}

func (m *mockOrganisationRepo) List(_ context.Context, _, _ int) ([]*domain.Organisation, int64, error) {
	return nil, 0, nil
}

func (m *mockOrganisationRepo) Delete(_ context.Context, _ uuid.UUID) error { return nil }

// mockPipelineRunner captures the params of triggered runs.
type mockPipelineRunner struct {
	ran    chan etl.RunParams
	result *etl.Stats
	err    error
}

func (m *mockPipelineRunner) Run(_ context.Context, params etl.RunParams) (*etl.Stats, error) {
	if m.ran != nil {
		m.ran <- params
	}
	if m.result == nil {
		return &etl.Stats{}, m.err
	}
	return m.result, m.err
}

// mockEnricher captures the ids of triggered enrichment runs.
type mockEnricher struct {
	ran chan []uuid.UUID
}

func (m *mockEnricher) EnrichBatch(_ context.Context, ids []uuid.UUID, _ bool) (*enrichment.Stats, error) {
	if m.ran != nil {
		m.ran <- ids
	}
	return &enrichment.Stats{}, nil
}

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

type serverOverrides struct {
	pubs     repository.PublicationRepository
	authors  repository.AuthorRepository
	themes   repository.ThemeRepository
	orgs     repository.OrganisationRepository
	pipeline PipelineRunner
	enricher Enricher
}

// newTestServer creates a Server with mocked dependencies.
func newTestServer(o serverOverrides) *Server {
	if o.pubs == nil {
		o.pubs = &mockPublicationRepo{}
	}
	if o.authors == nil {
		o.authors = &mockAuthorRepo{}
	}
	if o.themes == nil {
		o.themes = &mockThemeRepo{}
	}
	if o.orgs == nil {
		o.orgs = &mockOrganisationRepo{}
	}

	return NewServer(Config{Address: "127.0.0.1:0"},
		o.pubs, o.authors, o.themes, o.orgs,
		o.pipeline, o.enricher, nil, nil, zerolog.Nop())
}

// serveHTTP dispatches a request through the router and returns the recorder.
func serveHTTP(s *Server, r *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, r)
	return rr
}

// decodeBody decodes a JSON response body into the given target.
func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, target interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rr.Body).Decode(target))
}

func samplePublication() *domain.Publication {
	return &domain.Publication{
		ID:            uuid.New(),
		Title:         "Attention Is All You Need",
		DOI:           "10.48550/arXiv.1706.03762",
		ArxivID:       "1706.03762",
		Type:          domain.PublicationTypePreprint,
		Status:        domain.PublicationStatusEnriched,
		CitationCount: 90000,
		Source:        "arXiv",
		CreatedAt:     time.Now().UTC(),
		UpdatedAt:     time.Now().UTC(),
	}
}

// ---------------------------------------------------------------------------
// Health
// ---------------------------------------------------------------------------

func TestHealthz(t *testing.T) {
	srv := newTestServer(serverOverrides{})

	rr := serveHTTP(srv, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}

// ---------------------------------------------------------------------------
// Publications
// ---------------------------------------------------------------------------

func TestListPublications(t *testing.T) {
	pub := samplePublication()
	var captured repository.PublicationFilter

	srv := newTestServer(serverOverrides{
		pubs: &mockPublicationRepo{
			listFn: func(_ context.Context, filter repository.PublicationFilter) ([]*domain.Publication, int64, error) {
				captured = filter
				return []*domain.Publication{pub}, 1, nil
			},
		},
	})

	rr := serveHTTP(srv, httptest.NewRequest(http.MethodGet,
		"/api/v1/publications?status=enriched&source=arXiv&limit=10&skip=20", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var resp listPublicationsResponse
	decodeBody(t, rr, &resp)
	require.Len(t, resp.Publications, 1)
	assert.Equal(t, pub.ID.String(), resp.Publications[0].ID)
	assert.Equal(t, 1, resp.TotalCount)
	assert.Equal(t, 20, resp.Skip)
	assert.Equal(t, 10, resp.Limit)

	require.NotNil(t, captured.Status)
	assert.Equal(t, domain.PublicationStatusEnriched, *captured.Status)
	require.NotNil(t, captured.Source)
	assert.Equal(t, "arXiv", *captured.Source)
	assert.Equal(t, 10, captured.Limit)
	assert.Equal(t, 20, captured.Offset)
}

func TestGetPublication(t *testing.T) {
	pub := samplePublication()

	srv := newTestServer(serverOverrides{
		pubs: &mockPublicationRepo{
			getByIDFn: func(_ context.Context, id uuid.UUID) (*domain.Publication, error) {
				if id == pub.ID {
					return pub, nil
				}
				return nil, domain.NewNotFoundError("publication", id.String())
			},
		},
	})

	t.Run("found", func(t *testing.T) {
		rr := serveHTTP(srv, httptest.NewRequest(http.MethodGet, "/api/v1/publications/"+pub.ID.String(), nil))
		require.Equal(t, http.StatusOK, rr.Code)

		var resp publicationResponse
		decodeBody(t, rr, &resp)
		assert.Equal(t, pub.Title, resp.Title)
		assert.Equal(t, "preprint", resp.Type)
	})

	t.Run("not found", func(t *testing.T) {
		rr := serveHTTP(srv, httptest.NewRequest(http.MethodGet, "/api/v1/publications/"+uuid.NewString(), nil))
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("invalid id", func(t *testing.T) {
		rr := serveHTTP(srv, httptest.NewRequest(http.MethodGet, "/api/v1/publications/not-a-uuid", nil))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestCreatePublication(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		var created *domain.Publication
		srv := newTestServer(serverOverrides{
			pubs: &mockPublicationRepo{
				createFn: func(_ context.Context, pub *domain.Publication) (*domain.Publication, error) {
					pub.ID = uuid.New()
					created = pub
					return pub, nil
				},
			},
		})

		body := `{"title":"Deep Residual Learning","arxiv_id":"1512.03385","citation_count":100000}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/publications", bytes.NewBufferString(body))
		rr := serveHTTP(srv, req)

		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
		require.NotNil(t, created)
		assert.Equal(t, "Deep Residual Learning", created.Title)
		// Defaults applied when type and status are omitted.
		assert.Equal(t, domain.PublicationTypeArticle, created.Type)
		assert.Equal(t, domain.PublicationStatusPending, created.Status)
	})

	t.Run("missing title", func(t *testing.T) {
		srv := newTestServer(serverOverrides{})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/publications", bytes.NewBufferString(`{"doi":"10.1/x"}`))
		rr := serveHTTP(srv, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("invalid type", func(t *testing.T) {
		srv := newTestServer(serverOverrides{})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/publications",
			bytes.NewBufferString(`{"title":"x","type":"blog_post"}`))
		rr := serveHTTP(srv, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("negative citations", func(t *testing.T) {
		srv := newTestServer(serverOverrides{})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/publications",
			bytes.NewBufferString(`{"title":"x","citation_count":-1}`))
		rr := serveHTTP(srv, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("empty body", func(t *testing.T) {
		srv := newTestServer(serverOverrides{})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/publications", http.NoBody)
		rr := serveHTTP(srv, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("duplicate", func(t *testing.T) {
		srv := newTestServer(serverOverrides{
			pubs: &mockPublicationRepo{
				createFn: func(_ context.Context, _ *domain.Publication) (*domain.Publication, error) {
					return nil, domain.NewAlreadyExistsError("publication", "10.1/x")
				},
			},
		})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/publications",
			bytes.NewBufferString(`{"title":"x","doi":"10.1/x"}`))
		rr := serveHTTP(srv, req)
		assert.Equal(t, http.StatusConflict, rr.Code)
	})
}

func TestUpdatePublication(t *testing.T) {
	pub := samplePublication()

	srv := newTestServer(serverOverrides{
		pubs: &mockPublicationRepo{
			updateFn: func(_ context.Context, p *domain.Publication) (*domain.Publication, error) {
				if p.ID != pub.ID {
					return nil, domain.NewNotFoundError("publication", p.ID.String())
				}
				return p, nil
			},
		},
	})

	body := `{"title":"Attention Is All You Need","status":"enriched"}`

	t.Run("success", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPut, "/api/v1/publications/"+pub.ID.String(),
			bytes.NewBufferString(body))
		rr := serveHTTP(srv, req)
		require.Equal(t, http.StatusOK, rr.Code)

		var resp publicationResponse
		decodeBody(t, rr, &resp)
		assert.Equal(t, pub.ID.String(), resp.ID)
		assert.Equal(t, "enriched", resp.Status)
	})

	t.Run("not found", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPut, "/api/v1/publications/"+uuid.NewString(),
			bytes.NewBufferString(body))
		rr := serveHTTP(srv, req)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestDeletePublication(t *testing.T) {
	pub := samplePublication()

	srv := newTestServer(serverOverrides{
		pubs: &mockPublicationRepo{
			deleteFn: func(_ context.Context, id uuid.UUID) error {
				if id != pub.ID {
					return domain.NewNotFoundError("publication", id.String())
				}
				return nil
			},
		},
	})

	t.Run("success", func(t *testing.T) {
		rr := serveHTTP(srv, httptest.NewRequest(http.MethodDelete, "/api/v1/publications/"+pub.ID.String(), nil))
		assert.Equal(t, http.StatusNoContent, rr.Code)
	})

	t.Run("not found", func(t *testing.T) {
		rr := serveHTTP(srv, httptest.NewRequest(http.MethodDelete, "/api/v1/publications/"+uuid.NewString(), nil))
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestListPublicationAuthors(t *testing.T) {
	pub := samplePublication()
	hIndex := 40

	srv := newTestServer(serverOverrides{
		pubs: &mockPublicationRepo{
			getByIDFn: func(_ context.Context, id uuid.UUID) (*domain.Publication, error) {
				if id == pub.ID {
					return pub, nil
				}
				return nil, domain.NewNotFoundError("publication", id.String())
			},
			listAuthorsFn: func(_ context.Context, _ uuid.UUID) ([]*domain.Author, error) {
				return []*domain.Author{
					{ID: uuid.New(), FirstName: "Ashish", LastName: "Vaswani", HIndex: &hIndex},
					{ID: uuid.New(), FirstName: "Noam", LastName: "Shazeer"},
				}, nil
			},
		},
	})

	t.Run("ordered authors", func(t *testing.T) {
		rr := serveHTTP(srv, httptest.NewRequest(http.MethodGet,
			"/api/v1/publications/"+pub.ID.String()+"/authors", nil))
		require.Equal(t, http.StatusOK, rr.Code)

		var resp listAuthorsResponse
		decodeBody(t, rr, &resp)
		require.Len(t, resp.Authors, 2)
		assert.Equal(t, "Vaswani", resp.Authors[0].LastName)
		require.NotNil(t, resp.Authors[0].HIndex)
		assert.Equal(t, 40, *resp.Authors[0].HIndex)
	})

	t.Run("unknown publication", func(t *testing.T) {
		rr := serveHTTP(srv, httptest.NewRequest(http.MethodGet,
			"/api/v1/publications/"+uuid.NewString()+"/authors", nil))
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

// ---------------------------------------------------------------------------
// Authors
// ---------------------------------------------------------------------------

func TestCreateAuthor(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		srv := newTestServer(serverOverrides{
			authors: &mockAuthorRepo{
				createFn: func(_ context.Context, author *domain.Author) (*domain.Author, error) {
					author.ID = uuid.New()
					return author, nil
				},
			},
		})

		body := `{"last_name":"Hinton","first_name":"Geoffrey","h_index":150}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/authors", bytes.NewBufferString(body))
		rr := serveHTTP(srv, req)

		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

		var resp authorResponse
		decodeBody(t, rr, &resp)
		assert.Equal(t, "Hinton", resp.LastName)
		require.NotNil(t, resp.HIndex)
		assert.Equal(t, 150, *resp.HIndex)
	})

	t.Run("missing last name", func(t *testing.T) {
		srv := newTestServer(serverOverrides{})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/authors",
			bytes.NewBufferString(`{"first_name":"Geoffrey"}`))
		rr := serveHTTP(srv, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("invalid email", func(t *testing.T) {
		srv := newTestServer(serverOverrides{})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/authors",
			bytes.NewBufferString(`{"last_name":"Hinton","email":"not-an-email"}`))
		rr := serveHTTP(srv, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestListAuthors_Pagination(t *testing.T) {
	var gotLimit, gotOffset int

	srv := newTestServer(serverOverrides{
		authors: &mockAuthorRepo{
			listFn: func(_ context.Context, limit, offset int) ([]*domain.Author, int64, error) {
				gotLimit, gotOffset = limit, offset
				return nil, 0, nil
			},
		},
	})

	rr := serveHTTP(srv, httptest.NewRequest(http.MethodGet, "/api/v1/authors?limit=5000&skip=30", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	// Limit is capped at the maximum.
	assert.Equal(t, maxLimit, gotLimit)
	assert.Equal(t, 30, gotOffset)
}

// ---------------------------------------------------------------------------
// Themes and organisations
// ---------------------------------------------------------------------------

func TestCreateTheme(t *testing.T) {
	parentID := uuid.New()

	t.Run("with parent", func(t *testing.T) {
		var created *domain.Theme
		srv := newTestServer(serverOverrides{
			themes: &mockThemeRepo{
				createFn: func(_ context.Context, theme *domain.Theme) (*domain.Theme, error) {
					theme.ID = uuid.New()
					created = theme
					return theme, nil
				},
			},
		})

		body := `{"label":"Deep Learning","hierarchy_level":1,"parent_id":"` + parentID.String() + `"}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/themes", bytes.NewBufferString(body))
		rr := serveHTTP(srv, req)

		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
		require.NotNil(t, created)
		require.NotNil(t, created.ParentID)
		assert.Equal(t, parentID, *created.ParentID)
	})

	t.Run("duplicate label", func(t *testing.T) {
		srv := newTestServer(serverOverrides{
			themes: &mockThemeRepo{
				createFn: func(_ context.Context, _ *domain.Theme) (*domain.Theme, error) {
					return nil, domain.NewAlreadyExistsError("theme", "Deep Learning")
				},
			},
		})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/themes",
			bytes.NewBufferString(`{"label":"Deep Learning"}`))
		rr := serveHTTP(srv, req)
		assert.Equal(t, http.StatusConflict, rr.Code)
	})
}

func TestCreateOrganisation(t *testing.T) {
	srv := newTestServer(serverOverrides{
		orgs: &mockOrganisationRepo{
			createFn: func(_ context.Context, org *domain.Organisation) (*domain.Organisation, error) {
				org.ID = uuid.New()
				return org, nil
			},
		},
	})

	body := `{"name":"DeepMind","country":"GB","org_type":"company"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/organisations", bytes.NewBufferString(body))
	rr := serveHTTP(srv, req)

	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var resp organisationResponse
	decodeBody(t, rr, &resp)
	assert.Equal(t, "DeepMind", resp.Name)
	assert.Equal(t, "company", resp.OrgType)
}

// ---------------------------------------------------------------------------
// Trigger endpoints
// ---------------------------------------------------------------------------

func TestTriggerPipelineRun(t *testing.T) {
	t.Run("accepted", func(t *testing.T) {
		runner := &mockPipelineRunner{ran: make(chan etl.RunParams, 1)}
		srv := newTestServer(serverOverrides{pipeline: runner})

		body := `{"query":"transformers","categories":["cs.LG"],"max_results":50}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/pipeline/run", bytes.NewBufferString(body))
		rr := serveHTTP(srv, req)

		require.Equal(t, http.StatusAccepted, rr.Code, rr.Body.String())

		var resp runAcceptedResponse
		decodeBody(t, rr, &resp)
		assert.Equal(t, "accepted", resp.Status)
		assert.NotEmpty(t, resp.RunID)

		select {
		case params := <-runner.ran:
			assert.Equal(t, "transformers", params.Query)
			assert.Equal(t, []string{"cs.LG"}, params.Categories)
			assert.Equal(t, 50, params.MaxResults)
		case <-time.After(time.Second):
			t.Fatal("pipeline run was not triggered")
		}
	})

	t.Run("empty body uses defaults", func(t *testing.T) {
		runner := &mockPipelineRunner{ran: make(chan etl.RunParams, 1)}
		srv := newTestServer(serverOverrides{pipeline: runner})

		rr := serveHTTP(srv, httptest.NewRequest(http.MethodPost, "/api/v1/pipeline/run", http.NoBody))
		require.Equal(t, http.StatusAccepted, rr.Code)

		select {
		case params := <-runner.ran:
			assert.Equal(t, "", params.Query)
		case <-time.After(time.Second):
			t.Fatal("pipeline run was not triggered")
		}
	})

	t.Run("invalid date range", func(t *testing.T) {
		srv := newTestServer(serverOverrides{pipeline: &mockPipelineRunner{}})
		body := `{"date_from":"2025-06-01T00:00:00Z","date_to":"2025-01-01T00:00:00Z"}`
		rr := serveHTTP(srv, httptest.NewRequest(http.MethodPost, "/api/v1/pipeline/run", bytes.NewBufferString(body)))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("pipeline not configured", func(t *testing.T) {
		srv := newTestServer(serverOverrides{})
		rr := serveHTTP(srv, httptest.NewRequest(http.MethodPost, "/api/v1/pipeline/run", http.NoBody))
		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	})
}

func TestTriggerEnrichmentRun(t *testing.T) {
	t.Run("accepted with ids", func(t *testing.T) {
		enricher := &mockEnricher{ran: make(chan []uuid.UUID, 1)}
		srv := newTestServer(serverOverrides{enricher: enricher})

		id := uuid.New()
		body := `{"ids":["` + id.String() + `"],"force_update":true}`
		rr := serveHTTP(srv, httptest.NewRequest(http.MethodPost, "/api/v1/enrichment/run", bytes.NewBufferString(body)))

		require.Equal(t, http.StatusAccepted, rr.Code, rr.Body.String())

		select {
		case ids := <-enricher.ran:
			require.Len(t, ids, 1)
			assert.Equal(t, id, ids[0])
		case <-time.After(time.Second):
			t.Fatal("enrichment run was not triggered")
		}
	})

	t.Run("invalid id", func(t *testing.T) {
		srv := newTestServer(serverOverrides{enricher: &mockEnricher{}})
		rr := serveHTTP(srv, httptest.NewRequest(http.MethodPost, "/api/v1/enrichment/run",
			bytes.NewBufferString(`{"ids":["nope"]}`)))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("enricher not configured", func(t *testing.T) {
		srv := newTestServer(serverOverrides{})
		rr := serveHTTP(srv, httptest.NewRequest(http.MethodPost, "/api/v1/enrichment/run", http.NoBody))
		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	})
}
