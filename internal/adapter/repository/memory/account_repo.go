package memory

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/bankledger/internal/domain"
	"github.com/iho/bankledger/internal/usecase"
)

// AccountRepository implements usecase.AccountRepository.
type AccountRepository struct {
	store *Store
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(store *Store) *AccountRepository {
	return &AccountRepository{store: store}
}

// Create stages a new account. IBANs are unique across committed and staged accounts.
func (r *AccountRepository) Create(_ context.Context, tx usecase.Tx, account *domain.Account) error {
	t, err := r.store.txFrom(tx)
	if err != nil {
		return err
	}

	r.store.mu.RLock()
	_, exists := r.store.accountByIBAN[account.IBAN]
	r.store.mu.RUnlock()

	if _, staged := t.ibans[account.IBAN]; exists || staged {
		return domain.ErrDuplicateIBAN
	}
	t.ibans[account.IBAN] = struct{}{}

	stored := cloneAccount(account)
	t.stage(func() {
		r.store.accounts[stored.ID] = stored
		r.store.accountByIBAN[stored.IBAN] = stored.ID
	})

	return nil
}

// GetByID retrieves an account by ID.
func (r *AccountRepository) GetByID(_ context.Context, id string) (*domain.Account, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	acc, ok := r.store.accounts[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}

	return cloneAccount(acc), nil
}

// GetByIBAN retrieves an account by IBAN.
func (r *AccountRepository) GetByIBAN(_ context.Context, iban string) (*domain.Account, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	id, ok := r.store.accountByIBAN[iban]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}

	return cloneAccount(r.store.accounts[id]), nil
}

// GetByIDForUpdate reads an account inside a write transaction.
// The writer slot held by tx already excludes other writers.
func (r *AccountRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Tx, id string) (*domain.Account, error) {
	if _, err := r.store.txFrom(tx); err != nil {
		return nil, err
	}

	return r.GetByID(ctx, id)
}

// GetByIBANsForUpdate returns the existing accounts among ibans, in the given order.
func (r *AccountRepository) GetByIBANsForUpdate(_ context.Context, tx usecase.Tx, ibans []string) ([]*domain.Account, error) {
	if _, err := r.store.txFrom(tx); err != nil {
		return nil, err
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	accounts := make([]*domain.Account, 0, len(ibans))
	for _, iban := range ibans {
		if id, ok := r.store.accountByIBAN[iban]; ok {
			accounts = append(accounts, cloneAccount(r.store.accounts[id]))
		}
	}

	return accounts, nil
}

// ListByOwner lists an owner's accounts ordered by creation.
func (r *AccountRepository) ListByOwner(_ context.Context, ownerID string, activeOnly bool) ([]*domain.Account, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	return r.store.ownerAccounts(ownerID, activeOnly), nil
}

// ownerAccounts must be called with mu held.
func (s *Store) ownerAccounts(ownerID string, activeOnly bool) []*domain.Account {
	accounts := make([]*domain.Account, 0)
	for _, acc := range s.accounts {
		if acc.OwnerID != ownerID || (activeOnly && !acc.Active) {
			continue
		}
		accounts = append(accounts, cloneAccount(acc))
	}

	sort.Slice(accounts, func(i, j int) bool {
		if accounts[i].CreatedAt.Equal(accounts[j].CreatedAt) {
			return accounts[i].ID < accounts[j].ID
		}
		return accounts[i].CreatedAt.Before(accounts[j].CreatedAt)
	})

	return accounts
}

// UpdateBalance stages a balance change.
func (r *AccountRepository) UpdateBalance(_ context.Context, tx usecase.Tx, id string, balance decimal.Decimal, lastTransactionAt time.Time) error {
	return r.update(tx, id, func(acc *domain.Account) {
		ts := lastTransactionAt
		acc.Balance = balance
		acc.LastTransactionAt = &ts
		acc.UpdatedAt = lastTransactionAt
	})
}

// UpdateLimits stages a limit change.
func (r *AccountRepository) UpdateLimits(_ context.Context, tx usecase.Tx, id string, absoluteLimit, dailyLimit decimal.Decimal, updatedAt time.Time) error {
	return r.update(tx, id, func(acc *domain.Account) {
		acc.AbsoluteLimit = absoluteLimit
		acc.DailyLimit = dailyLimit
		acc.UpdatedAt = updatedAt
	})
}

// Deactivate stages closing an account.
func (r *AccountRepository) Deactivate(_ context.Context, tx usecase.Tx, id string, updatedAt time.Time) error {
	return r.update(tx, id, func(acc *domain.Account) {
		acc.Active = false
		acc.UpdatedAt = updatedAt
	})
}

func (r *AccountRepository) update(tx usecase.Tx, id string, apply func(*domain.Account)) error {
	t, err := r.store.txFrom(tx)
	if err != nil {
		return err
	}

	r.store.mu.RLock()
	_, ok := r.store.accounts[id]
	r.store.mu.RUnlock()

	if !ok {
		return domain.ErrAccountNotFound
	}

	t.stage(func() {
		apply(r.store.accounts[id])
	})

	return nil
}
