// Package observability provides logging and metrics support for the
// publication service.
//
// # Overview
//
// The observability package provides:
//
//   - Structured logging with zerolog
//   - Prometheus metrics for pipeline runs, enrichment, and sources
//   - Context helpers for propagating request and run identifiers
//
// # Logging
//
// Create a logger from configuration:
//
//	cfg := observability.LoggingConfig{
//	    Level:  "info",
//	    Format: "json",
//	    Output: "stdout",
//	}
//
//	logger := observability.NewLogger(cfg)
//	logger.Info().Str("run_id", runID).Msg("pipeline started")
//
// Add pipeline context to a logger:
//
//	logger = observability.WithPipelineContext(logger, runID, query)
//
// # Metrics
//
// Initialize metrics once at startup:
//
//	metrics := observability.NewMetrics("publication_service")
//
// Record metrics:
//
//	metrics.RecordPipelineStarted()
//	metrics.RecordPublicationsCollected("arXiv", 42)
//	metrics.RecordDuplicateDetected("doi")
//
// # Context Helpers
//
// Store and retrieve request and run identifiers:
//
//	ctx = observability.WithRequestID(ctx, requestID)
//	reqID := observability.RequestIDFromContext(ctx)
//
// # Standard Fields
//
// Common fields used across the service:
//
//   - request_id: HTTP request identifier
//   - run_id: ETL pipeline run identifier
//   - publication_id: Publication identifier
//   - arxiv_id: arXiv identifier
//   - source: External source name (arXiv, SemanticScholar)
//   - query: Pipeline search query
//
// # Thread Safety
//
// All components are safe for concurrent use from multiple goroutines.
package observability
