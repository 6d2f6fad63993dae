package eventpublisher

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/bankledger/internal/domain"
	"github.com/iho/bankledger/internal/usecase"
)

//go:generate mockgen -source=publisher.go -destination=mocks/mock_publisher.go -package=mocks Publisher,Observer

// Publisher defines the interface for publishing events to external systems.
type Publisher interface {
	Publish(ctx context.Context, event *domain.OutboxEvent) error
}

// Observer counts publishing outcomes. The prometheus Metrics type satisfies it.
type Observer interface {
	ObserveOutboxPublished(eventType string, err error)
}

// EventPublisher drains the outbox into a Publisher.
type EventPublisher struct {
	outboxRepo usecase.OutboxRepository
	publisher  Publisher
	observer   Observer
	logger     zerolog.Logger
	batchSize  int
	interval   time.Duration
	retention  time.Duration
	now        func() time.Time
}

// Config for EventPublisher.
type Config struct {
	OutboxRepo usecase.OutboxRepository
	Publisher  Publisher
	Observer   Observer
	Logger     zerolog.Logger
	BatchSize  int           // Number of events to fetch per batch
	Interval   time.Duration // Polling interval
	// Retention is how long published events are kept. Zero keeps them forever.
	Retention time.Duration
}

// NewEventPublisher creates a new EventPublisher.
func NewEventPublisher(cfg Config) *EventPublisher {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Second
	}

	return &EventPublisher{
		outboxRepo: cfg.OutboxRepo,
		publisher:  cfg.Publisher,
		observer:   cfg.Observer,
		logger:     cfg.Logger.With().Str("component", "outbox").Logger(),
		batchSize:  cfg.BatchSize,
		interval:   cfg.Interval,
		retention:  cfg.Retention,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Start runs the worker until ctx is cancelled.
func (ep *EventPublisher) Start(ctx context.Context) error {
	ep.logger.Info().
		Int("batch_size", ep.batchSize).
		Dur("interval", ep.interval).
		Msg("event publisher started")

	ticker := time.NewTicker(ep.interval)
	defer ticker.Stop()

	ep.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			ep.logger.Info().Msg("event publisher shutting down")
			return ctx.Err()
		case <-ticker.C:
			ep.tick(ctx)
		}
	}
}

func (ep *EventPublisher) tick(ctx context.Context) {
	if _, err := ep.ProcessBatch(ctx); err != nil {
		ep.logger.Error().Err(err).Msg("error processing events")
	}

	if ep.retention > 0 {
		if err := ep.outboxRepo.DeletePublished(ctx, ep.now().Add(-ep.retention)); err != nil {
			ep.logger.Error().Err(err).Msg("failed to purge published events")
		}
	}
}

// ProcessBatch publishes one batch of unpublished events and returns how many
// were delivered. A failed event stays in the outbox for the next batch.
func (ep *EventPublisher) ProcessBatch(ctx context.Context) (int, error) {
	events, err := ep.outboxRepo.GetUnpublished(ctx, ep.batchSize)
	if err != nil {
		return 0, err
	}

	delivered := 0
	for _, event := range events {
		err := ep.publisher.Publish(ctx, event)
		if ep.observer != nil {
			ep.observer.ObserveOutboxPublished(event.EventType, err)
		}
		if err != nil {
			ep.logger.Error().
				Err(err).
				Str("event_id", event.ID).
				Str("event_type", event.EventType).
				Msg("failed to publish event")
			continue
		}

		if err := ep.outboxRepo.MarkPublished(ctx, event.ID, ep.now()); err != nil {
			// at-least-once: the event is published again on the next batch
			ep.logger.Error().Err(err).Str("event_id", event.ID).Msg("failed to mark event as published")
			continue
		}
		delivered++
	}

	if delivered > 0 {
		ep.logger.Debug().Int("count", delivered).Msg("events published")
	}

	return delivered, nil
}
