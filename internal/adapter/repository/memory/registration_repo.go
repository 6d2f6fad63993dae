package memory

import (
	"context"
	"sort"

	"github.com/iho/bankledger/internal/domain"
	"github.com/iho/bankledger/internal/usecase"
)

// RegistrationRepository implements usecase.RegistrationRepository.
type RegistrationRepository struct {
	store *Store
}

// NewRegistrationRepository creates a new RegistrationRepository.
func NewRegistrationRepository(store *Store) *RegistrationRepository {
	return &RegistrationRepository{store: store}
}

// Create inserts a registration. Email and BSN are unique across pending and approved registrations.
func (r *RegistrationRepository) Create(_ context.Context, reg *domain.PendingRegistration) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, existing := range r.store.registrations {
		if existing.Email == reg.Email {
			return domain.ErrDuplicateEmail
		}
		if existing.BSN == reg.BSN {
			return domain.ErrDuplicateBSN
		}
	}

	r.store.registrations[reg.ID] = cloneRegistration(reg)

	return nil
}

// GetByID retrieves a registration by ID.
func (r *RegistrationRepository) GetByID(_ context.Context, id string) (*domain.PendingRegistration, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	reg, ok := r.store.registrations[id]
	if !ok {
		return nil, domain.ErrRegistrationNotFound
	}

	return cloneRegistration(reg), nil
}

// GetByIDForUpdate reads a registration inside a write transaction.
func (r *RegistrationRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Tx, id string) (*domain.PendingRegistration, error) {
	if _, err := r.store.txFrom(tx); err != nil {
		return nil, err
	}

	return r.GetByID(ctx, id)
}

// MarkApproved stages the approval.
func (r *RegistrationRepository) MarkApproved(_ context.Context, tx usecase.Tx, id, customerID string) error {
	t, err := r.store.txFrom(tx)
	if err != nil {
		return err
	}

	t.stage(func() {
		if reg, ok := r.store.registrations[id]; ok {
			cid := customerID
			reg.Approved = true
			reg.CustomerID = &cid
		}
	})

	return nil
}

// Delete stages removal of a registration.
func (r *RegistrationRepository) Delete(_ context.Context, tx usecase.Tx, id string) error {
	t, err := r.store.txFrom(tx)
	if err != nil {
		return err
	}

	t.stage(func() {
		delete(r.store.registrations, id)
	})

	return nil
}

// ListPending returns unapproved registrations, oldest first.
func (r *RegistrationRepository) ListPending(_ context.Context, limit, offset int) ([]*domain.PendingRegistration, error) {
	r.store.mu.RLock()
	pending := make([]*domain.PendingRegistration, 0)
	for _, reg := range r.store.registrations {
		if !reg.Approved {
			pending = append(pending, cloneRegistration(reg))
		}
	}
	r.store.mu.RUnlock()

	sort.Slice(pending, func(i, j int) bool {
		if pending[i].RegistrationDate.Equal(pending[j].RegistrationDate) {
			return pending[i].ID < pending[j].ID
		}
		return pending[i].RegistrationDate.Before(pending[j].RegistrationDate)
	})

	if offset >= len(pending) {
		return []*domain.PendingRegistration{}, nil
	}
	end := offset + limit
	if limit <= 0 || end > len(pending) {
		end = len(pending)
	}

	return pending[offset:end], nil
}
