package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/bankledger/internal/domain"
)

// ReconciliationUseCase replays an account's transaction log against its stored balance.
type ReconciliationUseCase struct {
	accountRepo     AccountRepository
	customerRepo    CustomerRepository
	transactionRepo TransactionRepository
	settings
}

// NewReconciliationUseCase creates a new reconciliation use case
func NewReconciliationUseCase(
	accountRepo AccountRepository,
	customerRepo CustomerRepository,
	transactionRepo TransactionRepository,
	opts ...Option,
) *ReconciliationUseCase {
	return &ReconciliationUseCase{
		accountRepo:     accountRepo,
		customerRepo:    customerRepo,
		transactionRepo: transactionRepo,
		settings:        applyOptions(opts),
	}
}

// ReconciliationResult represents the result of a reconciliation check
type ReconciliationResult struct {
	AccountID         string
	IBAN              string
	RecordedBalance   decimal.Decimal
	CalculatedBalance decimal.Decimal
	Difference        decimal.Decimal
	TransactionCount  int
	IsReconciled      bool
	LastChecked       time.Time
}

// ReconcileAccount sums credits minus debits over the account's log and compares with its balance.
func (uc *ReconciliationUseCase) ReconcileAccount(ctx context.Context, iban string) (*ReconciliationResult, error) {
	account, err := uc.accountRepo.GetByIBAN(ctx, domain.NormalizeIBAN(iban))
	if err != nil {
		return nil, err
	}

	txs, err := uc.transactionRepo.ListByAccount(ctx, account.IBAN)
	if err != nil {
		return nil, err
	}

	calculated := decimal.Zero
	for _, t := range txs {
		if t.CreditedIBAN() == account.IBAN {
			calculated = calculated.Add(t.Amount)
		}
		if t.DebitedIBAN() == account.IBAN {
			calculated = calculated.Sub(t.Amount)
		}
	}

	diff := account.Balance.Sub(calculated)

	return &ReconciliationResult{
		AccountID:         account.ID,
		IBAN:              account.IBAN,
		RecordedBalance:   account.Balance,
		CalculatedBalance: calculated,
		Difference:        diff,
		TransactionCount:  len(txs),
		IsReconciled:      diff.IsZero(),
		LastChecked:       uc.clock(),
	}, nil
}

// ReconcileCustomer reconciles every account the customer holds, active or not.
func (uc *ReconciliationUseCase) ReconcileCustomer(ctx context.Context, customerID string) ([]*ReconciliationResult, error) {
	if _, err := uc.customerRepo.GetByID(ctx, customerID); err != nil {
		return nil, err
	}

	accounts, err := uc.accountRepo.ListByOwner(ctx, customerID, false)
	if err != nil {
		return nil, err
	}

	results := make([]*ReconciliationResult, 0, len(accounts))
	for _, acc := range accounts {
		result, err := uc.ReconcileAccount(ctx, acc.IBAN)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}

	return results, nil
}
