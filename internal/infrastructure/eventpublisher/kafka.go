package eventpublisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/iho/bankledger/internal/domain"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// envelope is the JSON value written to Kafka.
type envelope struct {
	ID            string         `json:"id"`
	EventType     string         `json:"event_type"`
	AggregateType string         `json:"aggregate_type"`
	AggregateID   string         `json:"aggregate_id"`
	OccurredAt    time.Time      `json:"occurred_at"`
	Payload       map[string]any `json:"payload"`
}

// KafkaPublisher writes outbox events to a single topic. Messages are keyed by
// aggregate id so events of one account or transaction stay in order.
type KafkaPublisher struct {
	writer messageWriter
	logger zerolog.Logger
}

// NewKafkaPublisher creates a publisher writing to topic on brokers.
func NewKafkaPublisher(brokers []string, topic string, logger zerolog.Logger) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
		BatchTimeout:           50 * time.Millisecond,
	}

	logger.Info().Strs("brokers", brokers).Str("topic", topic).Msg("kafka publisher initialized")
	return &KafkaPublisher{writer: writer, logger: logger}
}

// Publish writes event and waits for the broker acknowledgement.
func (p *KafkaPublisher) Publish(ctx context.Context, event *domain.OutboxEvent) error {
	msg, err := toMessage(event)
	if err != nil {
		return err
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to produce event %s: %w", event.ID, err)
	}
	return nil
}

// Close flushes and closes the writer.
func (p *KafkaPublisher) Close() error {
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka publisher: %w", err)
	}
	p.logger.Info().Msg("kafka publisher closed")
	return nil
}

func toMessage(event *domain.OutboxEvent) (kafka.Message, error) {
	value, err := json.Marshal(envelope{
		ID:            event.ID,
		EventType:     event.EventType,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		OccurredAt:    event.CreatedAt.UTC(),
		Payload:       event.Payload,
	})
	if err != nil {
		return kafka.Message{}, fmt.Errorf("encode event %s: %w", event.ID, err)
	}

	return kafka.Message{
		Key:   []byte(event.AggregateID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
			{Key: "event_id", Value: []byte(event.ID)},
		},
		Time: event.CreatedAt,
	}, nil
}
