package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/iho/bankledger/internal/usecase"
)

// LedgerRepository implements usecase.LedgerRepository.
type LedgerRepository struct {
	pool DB
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(pool DB) *LedgerRepository {
	return &LedgerRepository{pool: pool}
}

// Totals sums all balances and all cash movements in one snapshot.
func (r *LedgerRepository) Totals(ctx context.Context) (usecase.LedgerTotals, error) {
	query := `
		SELECT
			(SELECT COALESCE(SUM(balance), 0) FROM accounts),
			(SELECT COALESCE(SUM(amount), 0) FROM transactions WHERE transaction_type = 'DEPOSIT'),
			(SELECT COALESCE(SUM(amount), 0) FROM transactions WHERE transaction_type = 'WITHDRAWAL')
	`

	var balance, deposits, withdrawals pgtype.Numeric
	if err := r.pool.QueryRow(ctx, query).Scan(&balance, &deposits, &withdrawals); err != nil {
		return usecase.LedgerTotals{}, err
	}

	var (
		totals usecase.LedgerTotals
		err    error
	)
	if totals.TotalBalance, err = toDecimal(balance); err != nil {
		return usecase.LedgerTotals{}, err
	}
	if totals.TotalDeposits, err = toDecimal(deposits); err != nil {
		return usecase.LedgerTotals{}, err
	}
	if totals.TotalWithdrawals, err = toDecimal(withdrawals); err != nil {
		return usecase.LedgerTotals{}, err
	}

	return totals, nil
}
