package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the publication service.
// Metrics are organized by subsystem: pipeline runs, publications, enrichment,
// external sources, and the HTTP API. All counters and histograms are registered
// via promauto for automatic registration with the default Prometheus registry.
type Metrics struct {
	// PipelineRunsStarted counts the total number of ETL pipeline runs initiated.
	PipelineRunsStarted prometheus.Counter

	// PipelineRunsCompleted counts the total number of pipeline runs that finished successfully.
	PipelineRunsCompleted prometheus.Counter

	// PipelineRunsFailed counts the total number of pipeline runs that aborted with an error.
	PipelineRunsFailed prometheus.Counter

	// PipelineRunDuration observes the end-to-end duration of pipeline runs in seconds.
	PipelineRunDuration prometheus.Histogram

	// PublicationsCollected counts records collected from external sources, labeled by source.
	PublicationsCollected *prometheus.CounterVec

	// PublicationsCreated counts new publication rows inserted during pipeline runs.
	PublicationsCreated prometheus.Counter

	// PublicationsUpdated counts existing publications merged with fresher data.
	PublicationsUpdated prometheus.Counter

	// PublicationsSkipped counts duplicates that required no write.
	PublicationsSkipped prometheus.Counter

	// PublicationErrors counts records dropped because of a per-item processing error.
	PublicationErrors prometheus.Counter

	// DuplicatesDetected counts duplicate matches, labeled by the tier that matched
	// (doi, arxiv_id, title).
	DuplicatesDetected *prometheus.CounterVec

	// AuthorsCreated counts new author rows inserted during pipeline runs.
	AuthorsCreated prometheus.Counter

	// ThemesCreated counts new theme rows inserted during pipeline runs.
	ThemesCreated prometheus.Counter

	// EnrichmentAttempts counts publications submitted for enrichment.
	EnrichmentAttempts prometheus.Counter

	// EnrichmentSucceeded counts publications that reached the enriched status.
	EnrichmentSucceeded prometheus.Counter

	// EnrichmentFailed counts publications that ended in enrichment_failed.
	EnrichmentFailed prometheus.Counter

	// EnrichmentBatchDuration observes the duration of enrichment batches in seconds.
	EnrichmentBatchDuration prometheus.Histogram

	// SourceRequestsTotal counts HTTP requests to external source APIs, labeled by source and endpoint.
	SourceRequestsTotal *prometheus.CounterVec

	// SourceRequestsFailed counts failed HTTP requests to external source APIs,
	// labeled by source, endpoint, and error type.
	SourceRequestsFailed *prometheus.CounterVec

	// SourceRequestDuration observes HTTP request duration to external source APIs in seconds.
	SourceRequestDuration *prometheus.HistogramVec

	// SourceRateLimited counts rate-limited responses from external source APIs, labeled by source.
	SourceRateLimited *prometheus.CounterVec

	// HTTPRequestsTotal counts API requests, labeled by method, route, and status code.
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTPRequestDuration observes API request duration in seconds, labeled by method and route.
	HTTPRequestDuration *prometheus.HistogramVec

	// EventsPublished counts domain events published to the broker, labeled by event type.
	EventsPublished *prometheus.CounterVec

	// EventsFailed counts domain events that could not be published, labeled by event type.
	EventsFailed *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
// The namespace is used as a prefix for all metric names.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		// Pipeline
		PipelineRunsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_runs_started_total",
			Help:      "Total number of ETL pipeline runs started",
		}),
		PipelineRunsCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_runs_completed_total",
			Help:      "Total number of ETL pipeline runs completed successfully",
		}),
		PipelineRunsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_runs_failed_total",
			Help:      "Total number of ETL pipeline runs that failed",
		}),
		PipelineRunDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_run_duration_seconds",
			Help:      "Duration of ETL pipeline runs in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600, 1200, 1800},
		}),

		// Publications
		PublicationsCollected: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publications_collected_total",
			Help:      "Total number of records collected from external sources",
		}, []string{"source"}),
		PublicationsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publications_created_total",
			Help:      "Total number of new publications created",
		}),
		PublicationsUpdated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publications_updated_total",
			Help:      "Total number of existing publications updated with fresher data",
		}),
		PublicationsSkipped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publications_skipped_total",
			Help:      "Total number of duplicate publications that required no write",
		}),
		PublicationErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publication_errors_total",
			Help:      "Total number of records dropped due to per-item processing errors",
		}),
		DuplicatesDetected: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "duplicates_detected_total",
			Help:      "Total number of duplicate publications detected by match tier",
		}, []string{"tier"}),
		AuthorsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "authors_created_total",
			Help:      "Total number of new authors created",
		}),
		ThemesCreated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "themes_created_total",
			Help:      "Total number of new themes created",
		}),

		// Enrichment
		EnrichmentAttempts: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "enrichment_attempts_total",
			Help:      "Total number of publications submitted for enrichment",
		}),
		EnrichmentSucceeded: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "enrichment_succeeded_total",
			Help:      "Total number of publications enriched successfully",
		}),
		EnrichmentFailed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "enrichment_failed_total",
			Help:      "Total number of publications that failed enrichment",
		}),
		EnrichmentBatchDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "enrichment_batch_duration_seconds",
			Help:      "Duration of enrichment batches in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}),

		// Sources
		SourceRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_requests_total",
			Help:      "Total number of requests to external sources",
		}, []string{"source", "endpoint"}),
		SourceRequestsFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_requests_failed_total",
			Help:      "Total number of failed requests to external sources",
		}, []string{"source", "endpoint", "error_type"}),
		SourceRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "source_request_duration_seconds",
			Help:      "Duration of requests to external sources in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"source", "endpoint"}),
		SourceRateLimited: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_rate_limited_total",
			Help:      "Total number of rate limit responses from external sources",
		}, []string{"source"}),

		// HTTP API
		HTTPRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of API requests",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of API requests in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"method", "route"}),

		// Events
		EventsPublished: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Total number of domain events published",
		}, []string{"event_type"}),
		EventsFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_failed_total",
			Help:      "Total number of domain events that failed to publish",
		}, []string{"event_type"}),
	}
}

// RecordPipelineStarted records that a pipeline run has started.
func (m *Metrics) RecordPipelineStarted() {
	m.PipelineRunsStarted.Inc()
}

// RecordPipelineCompleted records that a pipeline run has completed.
func (m *Metrics) RecordPipelineCompleted(durationSeconds float64) {
	m.PipelineRunsCompleted.Inc()
	m.PipelineRunDuration.Observe(durationSeconds)
}

// RecordPipelineFailed records that a pipeline run has failed.
func (m *Metrics) RecordPipelineFailed(durationSeconds float64) {
	m.PipelineRunsFailed.Inc()
	m.PipelineRunDuration.Observe(durationSeconds)
}

// RecordPublicationsCollected records records collected from a source.
func (m *Metrics) RecordPublicationsCollected(source string, count int) {
	m.PublicationsCollected.WithLabelValues(source).Add(float64(count))
}

// RecordPublicationCreated records a newly created publication.
func (m *Metrics) RecordPublicationCreated() {
	m.PublicationsCreated.Inc()
}

// RecordPublicationUpdated records a publication merged with fresher data.
func (m *Metrics) RecordPublicationUpdated() {
	m.PublicationsUpdated.Inc()
}

// RecordPublicationSkipped records a duplicate that required no write.
func (m *Metrics) RecordPublicationSkipped() {
	m.PublicationsSkipped.Inc()
}

// RecordPublicationError records a record dropped due to a processing error.
func (m *Metrics) RecordPublicationError() {
	m.PublicationErrors.Inc()
}

// RecordDuplicateDetected records a duplicate match by tier (doi, arxiv_id, title).
func (m *Metrics) RecordDuplicateDetected(tier string) {
	m.DuplicatesDetected.WithLabelValues(tier).Inc()
}

// RecordAuthorsCreated records new authors created in a single call.
func (m *Metrics) RecordAuthorsCreated(count int) {
	m.AuthorsCreated.Add(float64(count))
}

// RecordThemesCreated records new themes created in a single call.
func (m *Metrics) RecordThemesCreated(count int) {
	m.ThemesCreated.Add(float64(count))
}

// RecordEnrichmentAttempt records a publication submitted for enrichment.
func (m *Metrics) RecordEnrichmentAttempt() {
	m.EnrichmentAttempts.Inc()
}

// RecordEnrichmentSucceeded records a successfully enriched publication.
func (m *Metrics) RecordEnrichmentSucceeded() {
	m.EnrichmentSucceeded.Inc()
}

// RecordEnrichmentFailed records a publication that failed enrichment.
func (m *Metrics) RecordEnrichmentFailed() {
	m.EnrichmentFailed.Inc()
}

// RecordEnrichmentBatch records the duration of an enrichment batch.
func (m *Metrics) RecordEnrichmentBatch(durationSeconds float64) {
	m.EnrichmentBatchDuration.Observe(durationSeconds)
}

// RecordSourceRequest records a request to an external source.
func (m *Metrics) RecordSourceRequest(source, endpoint string, durationSeconds float64) {
	m.SourceRequestsTotal.WithLabelValues(source, endpoint).Inc()
	m.SourceRequestDuration.WithLabelValues(source, endpoint).Observe(durationSeconds)
}

// RecordSourceRequestFailed records a failed request to an external source.
func (m *Metrics) RecordSourceRequestFailed(source, endpoint, errorType string) {
	m.SourceRequestsFailed.WithLabelValues(source, endpoint, errorType).Inc()
}

// RecordSourceRateLimited records a rate limit response from a source.
func (m *Metrics) RecordSourceRateLimited(source string) {
	m.SourceRateLimited.WithLabelValues(source).Inc()
}

// RecordHTTPRequest records an API request.
func (m *Metrics) RecordHTTPRequest(method, route, status string, durationSeconds float64) {
	m.HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(durationSeconds)
}

// RecordEventPublished records a domain event published to the broker.
func (m *Metrics) RecordEventPublished(eventType string) {
	m.EventsPublished.WithLabelValues(eventType).Inc()
}

// RecordEventFailed records a domain event that failed to publish.
func (m *Metrics) RecordEventFailed(eventType string) {
	m.EventsFailed.WithLabelValues(eventType).Inc()
}
