package memory

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/bankledger/internal/domain"
	"github.com/iho/bankledger/internal/usecase"
)

// TransactionRepository implements usecase.TransactionRepository.
type TransactionRepository struct {
	store *Store
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(store *Store) *TransactionRepository {
	return &TransactionRepository{store: store}
}

// idempotencyScope keys txByKey: the same key used by two users names two requests.
func idempotencyScope(userID, key string) string {
	return userID + "\x00" + key
}

// Append stages a transaction. Idempotency keys are unique per performing user across
// committed and staged rows.
func (r *TransactionRepository) Append(_ context.Context, tx usecase.Tx, t *domain.Transaction) error {
	mtx, err := r.store.txFrom(tx)
	if err != nil {
		return err
	}

	stored := cloneTransaction(t)

	if stored.IdempotencyKey != nil {
		key := idempotencyScope(stored.PerformingUserID, *stored.IdempotencyKey)

		r.store.mu.RLock()
		_, exists := r.store.txByKey[key]
		r.store.mu.RUnlock()

		if _, staged := mtx.keys[key]; exists || staged {
			return domain.ErrDuplicateIdempotencyKey
		}
		mtx.keys[key] = struct{}{}
	}

	mtx.stage(func() {
		r.store.transactions = append(r.store.transactions, stored)
		r.store.txByID[stored.ID] = stored
		if stored.IdempotencyKey != nil {
			r.store.txByKey[idempotencyScope(stored.PerformingUserID, *stored.IdempotencyKey)] = stored
		}
	})

	return nil
}

// GetByID retrieves a transaction by ID.
func (r *TransactionRepository) GetByID(_ context.Context, id string) (*domain.Transaction, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	t, ok := r.store.txByID[id]
	if !ok {
		return nil, domain.ErrTransactionNotFound
	}

	return cloneTransaction(t), nil
}

// GetByIdempotencyKey retrieves a committed transaction by performer and key. tx may be nil.
func (r *TransactionRepository) GetByIdempotencyKey(_ context.Context, _ usecase.Tx, userID, key string) (*domain.Transaction, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	t, ok := r.store.txByKey[idempotencyScope(userID, key)]
	if !ok {
		return nil, domain.ErrTransactionNotFound
	}

	return cloneTransaction(t), nil
}

// SumOutgoing totals TRANSFER and WITHDRAWAL amounts debited from iban in [from, to).
func (r *TransactionRepository) SumOutgoing(_ context.Context, _ usecase.Tx, iban string, from, to time.Time) (decimal.Decimal, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	total := decimal.Zero
	for _, t := range r.store.transactions {
		if t.FromIBAN != iban || !t.Type.IsOutgoing() {
			continue
		}
		if t.Timestamp.Before(from) || !t.Timestamp.Before(to) {
			continue
		}
		total = total.Add(t.Amount)
	}

	return total, nil
}

// ListByAccount returns every transaction touching iban in append order.
func (r *TransactionRepository) ListByAccount(_ context.Context, iban string) ([]*domain.Transaction, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	return r.store.accountTransactions(iban), nil
}

// ListByOwner concatenates the logs of all the owner's accounts.
func (r *TransactionRepository) ListByOwner(_ context.Context, ownerID string) ([]*domain.Transaction, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := make([]*domain.Transaction, 0)
	for _, acc := range r.store.ownerAccounts(ownerID, false) {
		out = append(out, r.store.accountTransactions(acc.IBAN)...)
	}

	return out, nil
}

// Search scans all transactions, most recent first.
func (r *TransactionRepository) Search(_ context.Context, filter domain.TransactionFilter, loc *time.Location, limit, offset int) ([]*domain.Transaction, error) {
	r.store.mu.RLock()
	matched := make([]*domain.Transaction, 0)
	for _, t := range r.store.transactions {
		if filter.Matches(t, loc) {
			matched = append(matched, cloneTransaction(t))
		}
	}
	r.store.mu.RUnlock()

	return domain.Paginate(domain.MergeHistory(matched), limit, offset), nil
}

// accountTransactions must be called with mu held.
func (s *Store) accountTransactions(iban string) []*domain.Transaction {
	out := make([]*domain.Transaction, 0)
	for _, t := range s.transactions {
		if t.Touches(iban) {
			out = append(out, cloneTransaction(t))
		}
	}
	return out
}
