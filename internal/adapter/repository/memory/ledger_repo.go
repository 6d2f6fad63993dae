package memory

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/iho/bankledger/internal/domain"
	"github.com/iho/bankledger/internal/usecase"
)

// LedgerRepository implements usecase.LedgerRepository.
type LedgerRepository struct {
	store *Store
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(store *Store) *LedgerRepository {
	return &LedgerRepository{store: store}
}

// Totals sums every balance and every cash movement.
func (r *LedgerRepository) Totals(context.Context) (usecase.LedgerTotals, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	totals := usecase.LedgerTotals{
		TotalBalance:     decimal.Zero,
		TotalDeposits:    decimal.Zero,
		TotalWithdrawals: decimal.Zero,
	}

	for _, acc := range r.store.accounts {
		totals.TotalBalance = totals.TotalBalance.Add(acc.Balance)
	}

	for _, t := range r.store.transactions {
		switch t.Type {
		case domain.TransactionTypeDeposit:
			totals.TotalDeposits = totals.TotalDeposits.Add(t.Amount)
		case domain.TransactionTypeWithdrawal:
			totals.TotalWithdrawals = totals.TotalWithdrawals.Add(t.Amount)
		}
	}

	return totals, nil
}
