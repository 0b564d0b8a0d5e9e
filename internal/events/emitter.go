// Package events publishes publication lifecycle events to Kafka.
// The pipeline and enrichment service emit events through the Emitter
// interface so they run unchanged when no broker is configured.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event types emitted by the service.
const (
	TypePublicationCreated  = "publication.created"
	TypePublicationUpdated  = "publication.updated"
	TypePublicationEnriched = "publication.enriched"
)

// Event is a publication lifecycle event.
type Event struct {
	Type          string    `json:"type"`
	PublicationID uuid.UUID `json:"publication_id"`
	ArxivID       string    `json:"arxiv_id,omitempty"`
	DOI           string    `json:"doi,omitempty"`
	Title         string    `json:"title,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// Emitter publishes events to a broker.
type Emitter interface {
	// Emit publishes a single event. A zero OccurredAt is stamped with the
	// current time.
	Emit(ctx context.Context, event Event) error

	// Close releases broker resources.
	Close() error
}

// NopEmitter discards all events. Used when eventing is disabled and in tests.
type NopEmitter struct{}

// Compile-time interface verification.
var _ Emitter = (*NopEmitter)(nil)

// Emit discards the event.
func (*NopEmitter) Emit(ctx context.Context, event Event) error { return nil }

// Close is a no-op.
func (*NopEmitter) Close() error { return nil }
