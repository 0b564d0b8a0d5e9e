package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/deeo-ai/publication-service/internal/etl"
	"github.com/deeo-ai/publication-service/internal/observability"
)

// pipelineRunRequest is the JSON body for triggering a pipeline run. All
// fields are optional; an empty body runs with configured defaults.
type pipelineRunRequest struct {
	Query          string     `json:"query" validate:"max=1000"`
	Categories     []string   `json:"categories" validate:"max=20,dive,max=32"`
	DateFrom       *time.Time `json:"date_from"`
	DateTo         *time.Time `json:"date_to"`
	MaxResults     int        `json:"max_results" validate:"gte=0,lte=2000"`
	ClassifyThemes bool       `json:"classify_themes"`
}

// enrichmentRunRequest is the JSON body for triggering an enrichment run.
type enrichmentRunRequest struct {
	IDs         []string `json:"ids" validate:"max=1000,dive,uuid"`
	ForceUpdate bool     `json:"force_update"`
}

// triggerPipelineRun handles POST /api/v1/pipeline/run. The run executes
// asynchronously; the response carries the run id for log correlation.
func (s *Server) triggerPipelineRun(w http.ResponseWriter, r *http.Request) {
	if s.pipeline == nil {
		writeError(w, http.StatusServiceUnavailable, "pipeline is not configured")
		return
	}

	var req pipelineRunRequest
	if !s.decodeOptional(w, r, &req) {
		return
	}

	if req.DateFrom != nil && req.DateTo != nil && req.DateTo.Before(*req.DateFrom) {
		writeError(w, http.StatusBadRequest, "date_to must not be before date_from")
		return
	}

	runID := uuid.New().String()
	params := etl.RunParams{
		Query:          req.Query,
		Categories:     req.Categories,
		DateFrom:       req.DateFrom,
		DateTo:         req.DateTo,
		MaxResults:     req.MaxResults,
		ClassifyThemes: req.ClassifyThemes,
	}

	go func() {
		ctx := observability.WithRunID(context.Background(), runID)
		logger := observability.WithPipelineContext(s.logger, runID, params.Query)

		stats, err := s.pipeline.Run(ctx, params)
		if err != nil {
			logger.Error().Err(err).Msg("pipeline run failed")
			return
		}
		logger.Info().
			Int("created", stats.Created).
			Int("updated", stats.Updated).
			Int("skipped", stats.Skipped).
			Int("errors", stats.Errors).
			Msg("pipeline run completed")
	}()

	writeJSON(w, http.StatusAccepted, runAcceptedResponse{
		RunID:   runID,
		Status:  "accepted",
		Message: "pipeline run started",
	})
}

// triggerEnrichmentRun handles POST /api/v1/enrichment/run.
func (s *Server) triggerEnrichmentRun(w http.ResponseWriter, r *http.Request) {
	if s.enricher == nil {
		writeError(w, http.StatusServiceUnavailable, "enrichment is not configured")
		return
	}

	var req enrichmentRunRequest
	if !s.decodeOptional(w, r, &req) {
		return
	}

	ids := make([]uuid.UUID, 0, len(req.IDs))
	for _, raw := range req.IDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "ids must be valid UUIDs")
			return
		}
		ids = append(ids, id)
	}

	runID := uuid.New().String()
	forceUpdate := req.ForceUpdate

	go func() {
		ctx := observability.WithRunID(context.Background(), runID)
		logger := s.logger.With().Str("run_id", runID).Logger()

		stats, err := s.enricher.EnrichBatch(ctx, ids, forceUpdate)
		if err != nil {
			logger.Error().Err(err).Msg("enrichment run failed")
			return
		}
		logger.Info().
			Int("enriched", stats.Enriched).
			Int("failed", stats.Failed).
			Msg("enrichment run completed")
	}()

	writeJSON(w, http.StatusAccepted, runAcceptedResponse{
		RunID:   runID,
		Status:  "accepted",
		Message: "enrichment run started",
	})
}
