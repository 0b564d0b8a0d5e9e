// Package httpserver provides the HTTP REST API for the publication service.
package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/deeo-ai/publication-service/internal/database"
	"github.com/deeo-ai/publication-service/internal/enrichment"
	"github.com/deeo-ai/publication-service/internal/etl"
	"github.com/deeo-ai/publication-service/internal/observability"
	"github.com/deeo-ai/publication-service/internal/repository"
)

// PipelineRunner triggers an ETL pipeline run.
type PipelineRunner interface {
	Run(ctx context.Context, params etl.RunParams) (*etl.Stats, error)
}

// Enricher triggers an enrichment run.
type Enricher interface {
	EnrichBatch(ctx context.Context, ids []uuid.UUID, forceUpdate bool) (*enrichment.Stats, error)
}

// Config holds HTTP server configuration.
type Config struct {
	Address         string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// Server is the HTTP REST API server.
type Server struct {
	router     chi.Router
	httpServer *http.Server

	pubRepo    repository.PublicationRepository
	authorRepo repository.AuthorRepository
	themeRepo  repository.ThemeRepository
	orgRepo    repository.OrganisationRepository

	pipeline PipelineRunner
	enricher Enricher

	db       *database.DB
	metrics  *observability.Metrics
	validate *validator.Validate
	logger   zerolog.Logger
}

// NewServer creates an HTTP server with all dependencies. Pipeline and
// enricher may be nil; their trigger endpoints then return 503.
func NewServer(
	cfg Config,
	pubRepo repository.PublicationRepository,
	authorRepo repository.AuthorRepository,
	themeRepo repository.ThemeRepository,
	orgRepo repository.OrganisationRepository,
	pipeline PipelineRunner,
	enricher Enricher,
	db *database.DB,
	metrics *observability.Metrics,
	logger zerolog.Logger,
) *Server {
	s := &Server{
		pubRepo:    pubRepo,
		authorRepo: authorRepo,
		themeRepo:  themeRepo,
		orgRepo:    orgRepo,
		pipeline:   pipeline,
		enricher:   enricher,
		db:         db,
		metrics:    metrics,
		validate:   validator.New(),
		logger:     logger.With().Str("component", "http-server").Logger(),
	}

	s.router = s.buildRouter()

	s.httpServer = &http.Server{
		Addr:         cfg.Address,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

// buildRouter creates the chi router with all middleware and routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.requestContextMiddleware)
	r.Use(s.requestLoggingMiddleware)
	r.Use(jsonContentTypeMiddleware)

	// Health endpoints
	r.Get("/healthz", s.healthHandler)
	r.Get("/readyz", s.readinessHandler)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/publications", func(r chi.Router) {
			r.Get("/", s.listPublications)
			r.Post("/", s.createPublication)
			r.Get("/{publicationID}", s.getPublication)
			r.Put("/{publicationID}", s.updatePublication)
			r.Delete("/{publicationID}", s.deletePublication)
			r.Get("/{publicationID}/authors", s.listPublicationAuthors)
		})

		r.Route("/authors", func(r chi.Router) {
			r.Get("/", s.listAuthors)
			r.Post("/", s.createAuthor)
			r.Get("/{authorID}", s.getAuthor)
			r.Put("/{authorID}", s.updateAuthor)
			r.Delete("/{authorID}", s.deleteAuthor)
		})

		r.Route("/themes", func(r chi.Router) {
			r.Get("/", s.listThemes)
			r.Post("/", s.createTheme)
			r.Get("/{themeID}", s.getTheme)
			r.Delete("/{themeID}", s.deleteTheme)
		})

		r.Route("/organisations", func(r chi.Router) {
			r.Get("/", s.listOrganisations)
			r.Post("/", s.createOrganisation)
			r.Get("/{orgID}", s.getOrganisation)
			r.Put("/{orgID}", s.updateOrganisation)
			r.Delete("/{orgID}", s.deleteOrganisation)
		})

		r.Post("/pipeline/run", s.triggerPipelineRun)
		r.Post("/enrichment/run", s.triggerEnrichmentRun)
	})

	return r
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info().Str("address", s.httpServer.Addr).Msg("HTTP server starting")
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen on HTTP address: %w", err)
	}
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// healthHandler returns basic liveness status.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}

	health := s.db.Health(r.Context())
	if health.Status == "healthy" {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "database": health.Status})
		return
	}
	writeJSON(w, http.StatusServiceUnavailable, map[string]string{
		"status":   "unhealthy",
		"database": health.Status,
		"error":    health.Error,
	})
}

// readinessHandler reports whether the service can take traffic.
func (s *Server) readinessHandler(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
		return
	}

	health := s.db.Health(r.Context())
	if health.Status != "healthy" {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status":   "not_ready",
			"database": health.Status,
			"error":    health.Error,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":   "ready",
		"database": "healthy",
	})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Best-effort; headers already sent.
		_ = err
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{
		"error": message,
	})
}
