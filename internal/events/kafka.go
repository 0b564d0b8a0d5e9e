package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

// KafkaEmitter publishes events to a Kafka topic, keyed by publication id
// so events for one publication stay ordered within a partition.
type KafkaEmitter struct {
	writer *kafka.Writer
	logger zerolog.Logger
}

// Compile-time interface verification.
var _ Emitter = (*KafkaEmitter)(nil)

// NewKafkaEmitter creates an emitter writing to the given brokers and topic.
func NewKafkaEmitter(brokers []string, topic string, logger zerolog.Logger) *KafkaEmitter {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 100 * time.Millisecond,
	}

	return &KafkaEmitter{
		writer: writer,
		logger: logger.With().Str("component", "kafka_emitter").Logger(),
	}
}

// Emit publishes a single event.
func (e *KafkaEmitter) Emit(ctx context.Context, event Event) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(event.PublicationID.String()),
		Value: payload,
	}

	if err := e.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish %s event: %w", event.Type, err)
	}

	e.logger.Debug().
		Str("event_type", event.Type).
		Str("publication_id", event.PublicationID.String()).
		Msg("event published")

	return nil
}

// Close flushes pending messages and releases the writer.
func (e *KafkaEmitter) Close() error {
	return e.writer.Close()
}
