package usecase

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/iho/bankledger/internal/domain"
)

// LedgerUseCase handles ledger-wide operations.
type LedgerUseCase struct {
	ledgerRepo LedgerRepository
}

// NewLedgerUseCase creates a new LedgerUseCase.
func NewLedgerUseCase(ledgerRepo LedgerRepository) *LedgerUseCase {
	return &LedgerUseCase{
		ledgerRepo: ledgerRepo,
	}
}

// ConsistencyReport compares the sum of balances with the cash that entered and left the bank.
type ConsistencyReport struct {
	TotalBalance     decimal.Decimal
	TotalDeposits    decimal.Decimal
	TotalWithdrawals decimal.Decimal
	Expected         decimal.Decimal
	Consistent       bool
}

// CheckConsistency verifies that all balances add up to deposits minus withdrawals.
// Transfers move money between accounts and net to zero.
func (uc *LedgerUseCase) CheckConsistency(ctx context.Context) (*ConsistencyReport, error) {
	totals, err := uc.ledgerRepo.Totals(ctx)
	if err != nil {
		return nil, err
	}

	expected := totals.TotalDeposits.Sub(totals.TotalWithdrawals)
	report := &ConsistencyReport{
		TotalBalance:     totals.TotalBalance,
		TotalDeposits:    totals.TotalDeposits,
		TotalWithdrawals: totals.TotalWithdrawals,
		Expected:         expected,
		Consistent:       totals.TotalBalance.Equal(expected),
	}

	if !report.Consistent {
		return report, domain.ErrInconsistentLedger
	}

	return report, nil
}
