package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/bankledger/internal/domain"
)

// AccountUseCase owns account lifecycle: lookup, opening, closing and limit changes.
type AccountUseCase struct {
	txManager    TransactionManager
	accountRepo  AccountRepository
	customerRepo CustomerRepository
	outboxRepo   OutboxRepository
	idGen        IDGenerator
	settings
}

// NewAccountUseCase creates a new AccountUseCase.
func NewAccountUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	customerRepo CustomerRepository,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
	opts ...Option,
) *AccountUseCase {
	return &AccountUseCase{
		txManager:    txManager,
		accountRepo:  accountRepo,
		customerRepo: customerRepo,
		outboxRepo:   outboxRepo,
		idGen:        idGen,
		settings:     applyOptions(opts),
	}
}

// CreateAccountInput represents input for opening an account.
type CreateAccountInput struct {
	Actor         domain.Principal
	OwnerID       string
	Type          domain.AccountType
	AbsoluteLimit decimal.Decimal
	DailyLimit    decimal.Decimal
}

// UpdateLimitsInput represents input for changing an account's limits.
type UpdateLimitsInput struct {
	Actor         domain.Principal
	AccountID     string
	AbsoluteLimit decimal.Decimal
	DailyLimit    decimal.Decimal
}

// GetAccount retrieves an account by IBAN.
func (uc *AccountUseCase) GetAccount(ctx context.Context, actor domain.Principal, iban string) (*domain.Account, error) {
	account, err := uc.accountRepo.GetByIBAN(ctx, domain.NormalizeIBAN(iban))
	if err != nil {
		return nil, err
	}

	if err := authorize(actor, account.OwnerID); err != nil {
		return nil, err
	}

	return account, nil
}

// GetAccountByID retrieves an account by its id.
func (uc *AccountUseCase) GetAccountByID(ctx context.Context, actor domain.Principal, id string) (*domain.Account, error) {
	account, err := uc.accountRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := authorize(actor, account.OwnerID); err != nil {
		return nil, err
	}

	return account, nil
}

// ListCustomerAccounts returns the customer's active accounts with balances.
func (uc *AccountUseCase) ListCustomerAccounts(ctx context.Context, actor domain.Principal, customerID string) ([]*domain.Account, error) {
	if err := authorize(actor, customerID); err != nil {
		return nil, err
	}

	return uc.accountRepo.ListByOwner(ctx, customerID, true)
}

// CreateAccount opens an account with a fresh IBAN and zero balance.
// Customers may open accounts for themselves but only employees grant overdraft.
func (uc *AccountUseCase) CreateAccount(ctx context.Context, input CreateAccountInput) (*domain.Account, error) {
	if err := authorize(input.Actor, input.OwnerID); err != nil {
		return nil, err
	}

	if !input.Type.IsValid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidType, input.Type)
	}

	absoluteLimit, dailyLimit, err := domain.NormalizeLimits(input.AbsoluteLimit, input.DailyLimit)
	if err != nil {
		return nil, err
	}

	if !input.Actor.IsEmployee() && absoluteLimit.IsNegative() {
		return nil, fmt.Errorf("%w: overdraft requires an employee", domain.ErrForbidden)
	}

	if _, err := uc.customerRepo.GetByID(ctx, input.OwnerID); err != nil {
		return nil, err
	}

	for attempt := 0; attempt < maxIBANAttempts; attempt++ {
		account, err := uc.openAccount(ctx, input.OwnerID, input.Type, absoluteLimit, dailyLimit)
		if errors.Is(err, domain.ErrDuplicateIBAN) {
			continue
		}
		return account, err
	}

	return nil, fmt.Errorf("create account: %w", domain.ErrDuplicateIBAN)
}

func (uc *AccountUseCase) openAccount(
	ctx context.Context,
	ownerID string,
	accountType domain.AccountType,
	absoluteLimit, dailyLimit decimal.Decimal,
) (*domain.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	account, err := newAccount(uc.idGen, uc.bankCode, ownerID, accountType, absoluteLimit, dailyLimit, uc.clock())
	if err != nil {
		return nil, err
	}

	if err := uc.accountRepo.Create(ctx, tx, account); err != nil {
		return nil, err
	}

	event := domain.NewAccountEvent(uc.idGen.Generate(), domain.EventTypeAccountCreated, account, account.CreatedAt)
	if err := uc.outboxRepo.Create(ctx, tx, event); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return account, nil
}

// CloseAccount deactivates an account whose balance is zero.
// Closing an already inactive account succeeds without changes.
func (uc *AccountUseCase) CloseAccount(ctx context.Context, actor domain.Principal, id string) (*domain.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	account, err := uc.accountRepo.GetByIDForUpdate(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	if err := authorize(actor, account.OwnerID); err != nil {
		return nil, err
	}

	if !account.Active {
		return account, nil
	}

	if err := account.ValidateClose(); err != nil {
		return nil, err
	}

	now := uc.clock()
	if err := uc.accountRepo.Deactivate(ctx, tx, id, now); err != nil {
		return nil, err
	}

	account.Active = false
	account.UpdatedAt = now

	event := domain.NewAccountEvent(uc.idGen.Generate(), domain.EventTypeAccountClosed, account, now)
	if err := uc.outboxRepo.Create(ctx, tx, event); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return account, nil
}

// UpdateLimits changes an account's limits with the same validation as creation.
// A new floor above the current balance is rejected.
func (uc *AccountUseCase) UpdateLimits(ctx context.Context, input UpdateLimitsInput) (*domain.Account, error) {
	if err := requireEmployee(input.Actor); err != nil {
		return nil, err
	}

	absoluteLimit, dailyLimit, err := domain.NormalizeLimits(input.AbsoluteLimit, input.DailyLimit)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	account, err := uc.accountRepo.GetByIDForUpdate(ctx, tx, input.AccountID)
	if err != nil {
		return nil, err
	}

	if !account.Active {
		return nil, domain.ErrAccountInactive
	}

	if err := account.ValidateLimits(absoluteLimit); err != nil {
		return nil, fmt.Errorf("%w: balance %s is below the requested limit", err, account.Balance.StringFixed(domain.AmountPlaces))
	}

	now := uc.clock()
	if err := uc.accountRepo.UpdateLimits(ctx, tx, account.ID, absoluteLimit, dailyLimit, now); err != nil {
		return nil, err
	}

	account.AbsoluteLimit = absoluteLimit
	account.DailyLimit = dailyLimit
	account.UpdatedAt = now

	event := domain.NewAccountEvent(uc.idGen.Generate(), domain.EventTypeAccountLimitsUpdated, account, now)
	if err := uc.outboxRepo.Create(ctx, tx, event); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return account, nil
}

func newAccount(
	idGen IDGenerator,
	bankCode string,
	ownerID string,
	accountType domain.AccountType,
	absoluteLimit, dailyLimit decimal.Decimal,
	now time.Time,
) (*domain.Account, error) {
	iban, err := domain.GenerateIBAN(bankCode)
	if err != nil {
		return nil, err
	}

	return &domain.Account{
		ID:            idGen.Generate(),
		IBAN:          iban,
		OwnerID:       ownerID,
		Type:          accountType,
		Balance:       decimal.Zero,
		AbsoluteLimit: absoluteLimit,
		DailyLimit:    dailyLimit,
		Active:        true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}
