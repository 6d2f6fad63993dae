package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/iho/bankledger/internal/domain"
	"github.com/iho/bankledger/internal/usecase"
)

// CustomerRepository implements usecase.CustomerRepository.
type CustomerRepository struct {
	store *Store
}

// NewCustomerRepository creates a new CustomerRepository.
func NewCustomerRepository(store *Store) *CustomerRepository {
	return &CustomerRepository{store: store}
}

// Create stages a customer.
func (r *CustomerRepository) Create(_ context.Context, tx usecase.Tx, customer *domain.Customer) error {
	t, err := r.store.txFrom(tx)
	if err != nil {
		return err
	}

	stored := *customer
	t.stage(func() {
		r.store.customers[stored.ID] = &stored
	})

	return nil
}

// GetByID retrieves a customer by ID.
func (r *CustomerRepository) GetByID(_ context.Context, id string) (*domain.Customer, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	c, ok := r.store.customers[id]
	if !ok {
		return nil, domain.ErrCustomerNotFound
	}

	out := *c
	return &out, nil
}

// Search lists customers matching query ordered by last name, first name.
func (r *CustomerRepository) Search(_ context.Context, query domain.CustomerQuery) ([]*domain.Customer, error) {
	r.store.mu.RLock()
	matched := make([]*domain.Customer, 0)
	for _, c := range r.store.customers {
		if query.Matches(c) {
			out := *c
			matched = append(matched, &out)
		}
	}
	r.store.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !strings.EqualFold(a.LastName, b.LastName) {
			return strings.ToLower(a.LastName) < strings.ToLower(b.LastName)
		}
		if !strings.EqualFold(a.FirstName, b.FirstName) {
			return strings.ToLower(a.FirstName) < strings.ToLower(b.FirstName)
		}
		return a.ID < b.ID
	})

	if query.Offset >= len(matched) {
		return []*domain.Customer{}, nil
	}
	end := query.Offset + query.Limit
	if query.Limit <= 0 || end > len(matched) {
		end = len(matched)
	}

	return matched[query.Offset:end], nil
}
