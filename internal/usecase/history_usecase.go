package usecase

import (
	"context"

	"github.com/iho/bankledger/internal/domain"
)

// HistoryUseCase assembles transaction feeds for customers, accounts and employees.
type HistoryUseCase struct {
	accountRepo     AccountRepository
	customerRepo    CustomerRepository
	transactionRepo TransactionRepository
	settings
}

// NewHistoryUseCase creates a new HistoryUseCase.
func NewHistoryUseCase(
	accountRepo AccountRepository,
	customerRepo CustomerRepository,
	transactionRepo TransactionRepository,
	opts ...Option,
) *HistoryUseCase {
	return &HistoryUseCase{
		accountRepo:     accountRepo,
		customerRepo:    customerRepo,
		transactionRepo: transactionRepo,
		settings:        applyOptions(opts),
	}
}

// CustomerHistory returns every transaction touching any of the customer's accounts,
// each once, most recent first.
func (uc *HistoryUseCase) CustomerHistory(ctx context.Context, actor domain.Principal, customerID string) ([]*domain.Transaction, error) {
	if err := authorize(actor, customerID); err != nil {
		return nil, err
	}

	if _, err := uc.customerRepo.GetByID(ctx, customerID); err != nil {
		return nil, err
	}

	txs, err := uc.transactionRepo.ListByOwner(ctx, customerID)
	if err != nil {
		return nil, err
	}

	return domain.MergeHistory(txs), nil
}

// Filter returns the customer's history narrowed by filter.
func (uc *HistoryUseCase) Filter(ctx context.Context, actor domain.Principal, customerID string, filter domain.TransactionFilter) ([]*domain.Transaction, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	history, err := uc.CustomerHistory(ctx, actor, customerID)
	if err != nil {
		return nil, err
	}

	return filter.Apply(history, uc.location), nil
}

// AccountTransactions returns the raw log of one account, most recent first.
func (uc *HistoryUseCase) AccountTransactions(ctx context.Context, actor domain.Principal, accountID string) ([]*domain.Transaction, error) {
	account, err := uc.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if err := authorize(actor, account.OwnerID); err != nil {
		return nil, err
	}

	txs, err := uc.transactionRepo.ListByAccount(ctx, account.IBAN)
	if err != nil {
		return nil, err
	}

	return domain.MergeHistory(txs), nil
}

// AllTransactions lists transactions across the bank for employees.
// SearchTerm additionally matches the performing user.
func (uc *HistoryUseCase) AllTransactions(ctx context.Context, actor domain.Principal, filter domain.TransactionFilter, limit, offset int) ([]*domain.Transaction, error) {
	if err := requireEmployee(actor); err != nil {
		return nil, err
	}

	if err := filter.Validate(); err != nil {
		return nil, err
	}

	filter.IncludePerformer = true
	limit, offset = domain.ValidatePagination(limit, offset)

	return uc.transactionRepo.Search(ctx, filter, uc.location, limit, offset)
}

// GetTransaction returns a single transaction visible to actor.
func (uc *HistoryUseCase) GetTransaction(ctx context.Context, actor domain.Principal, id string) (*domain.Transaction, error) {
	t, err := uc.transactionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if actor.IsEmployee() {
		return t, nil
	}

	for _, iban := range []string{t.DebitedIBAN(), t.CreditedIBAN()} {
		if iban == "" {
			continue
		}
		acc, err := uc.accountRepo.GetByIBAN(ctx, iban)
		if err != nil {
			continue
		}
		if authorize(actor, acc.OwnerID) == nil {
			return t, nil
		}
	}

	return nil, domain.ErrForbidden
}
