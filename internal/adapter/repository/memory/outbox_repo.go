package memory

import (
	"context"
	"time"

	"github.com/iho/bankledger/internal/domain"
	"github.com/iho/bankledger/internal/usecase"
)

// OutboxRepository implements usecase.OutboxRepository.
type OutboxRepository struct {
	store *Store
}

// NewOutboxRepository creates a new OutboxRepository.
func NewOutboxRepository(store *Store) *OutboxRepository {
	return &OutboxRepository{store: store}
}

// Create stages an outbox event.
func (r *OutboxRepository) Create(_ context.Context, tx usecase.Tx, event *domain.OutboxEvent) error {
	t, err := r.store.txFrom(tx)
	if err != nil {
		return err
	}

	stored := *event
	t.stage(func() {
		r.store.outbox = append(r.store.outbox, &stored)
	})

	return nil
}

// GetUnpublished returns up to limit unpublished events in creation order.
func (r *OutboxRepository) GetUnpublished(_ context.Context, limit int) ([]*domain.OutboxEvent, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	events := make([]*domain.OutboxEvent, 0)
	for _, e := range r.store.outbox {
		if e.Published {
			continue
		}
		out := *e
		events = append(events, &out)
		if limit > 0 && len(events) == limit {
			break
		}
	}

	return events, nil
}

// MarkPublished marks an event as published.
func (r *OutboxRepository) MarkPublished(_ context.Context, id string, publishedAt time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, e := range r.store.outbox {
		if e.ID == id {
			at := publishedAt
			e.Published = true
			e.PublishedAt = &at
		}
	}

	return nil
}

// DeletePublished drops published events older than before.
func (r *OutboxRepository) DeletePublished(_ context.Context, before time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	kept := r.store.outbox[:0]
	for _, e := range r.store.outbox {
		if e.Published && e.PublishedAt != nil && e.PublishedAt.Before(before) {
			continue
		}
		kept = append(kept, e)
	}
	r.store.outbox = kept

	return nil
}
