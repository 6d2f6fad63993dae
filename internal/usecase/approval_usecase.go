package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/iho/bankledger/internal/domain"
)

// ApprovalUseCase turns pending registrations into customers with accounts.
type ApprovalUseCase struct {
	txManager        TransactionManager
	registrationRepo RegistrationRepository
	customerRepo     CustomerRepository
	accountRepo      AccountRepository
	outboxRepo       OutboxRepository
	idGen            IDGenerator
	settings
}

// NewApprovalUseCase creates a new ApprovalUseCase.
func NewApprovalUseCase(
	txManager TransactionManager,
	registrationRepo RegistrationRepository,
	customerRepo CustomerRepository,
	accountRepo AccountRepository,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
	opts ...Option,
) *ApprovalUseCase {
	return &ApprovalUseCase{
		txManager:        txManager,
		registrationRepo: registrationRepo,
		customerRepo:     customerRepo,
		accountRepo:      accountRepo,
		outboxRepo:       outboxRepo,
		idGen:            idGen,
		settings:         applyOptions(opts),
	}
}

// RegistrationInput represents a customer sign-up.
type RegistrationInput struct {
	FirstName   string
	LastName    string
	Email       string
	BSN         string
	PhoneNumber string
}

// ApproveInput represents an employee's approval decision.
type ApproveInput struct {
	Actor          domain.Principal
	RegistrationID string
	AbsoluteLimit  decimal.Decimal
	DailyLimit     decimal.Decimal
}

// ApprovalResult holds what an approval created.
type ApprovalResult struct {
	Registration *domain.PendingRegistration
	Customer     *domain.Customer
	Accounts     []*domain.Account
}

// SubmitRegistration records a new pending registration.
func (uc *ApprovalUseCase) SubmitRegistration(ctx context.Context, input RegistrationInput) (*domain.PendingRegistration, error) {
	reg := &domain.PendingRegistration{
		ID:               uc.idGen.Generate(),
		FirstName:        input.FirstName,
		LastName:         input.LastName,
		Email:            input.Email,
		BSN:              input.BSN,
		PhoneNumber:      input.PhoneNumber,
		RegistrationDate: uc.clock(),
	}
	reg.Normalize()

	if err := reg.Validate(); err != nil {
		return nil, err
	}

	if err := uc.registrationRepo.Create(ctx, reg); err != nil {
		return nil, err
	}

	return reg, nil
}

// ListPending returns registrations awaiting a decision, oldest first.
func (uc *ApprovalUseCase) ListPending(ctx context.Context, actor domain.Principal, limit, offset int) ([]*domain.PendingRegistration, error) {
	if err := requireEmployee(actor); err != nil {
		return nil, err
	}

	limit, offset = domain.ValidatePagination(limit, offset)

	return uc.registrationRepo.ListPending(ctx, limit, offset)
}

// Approve creates the customer with a CURRENT and a SAVINGS account carrying the given limits,
// and marks the registration approved. Everything commits together.
func (uc *ApprovalUseCase) Approve(ctx context.Context, input ApproveInput) (*ApprovalResult, error) {
	if err := requireEmployee(input.Actor); err != nil {
		return nil, err
	}

	absoluteLimit, dailyLimit, err := domain.NormalizeLimits(input.AbsoluteLimit, input.DailyLimit)
	if err != nil {
		return nil, err
	}

	for attempt := 0; attempt < maxIBANAttempts; attempt++ {
		result, err := uc.approveOnce(ctx, input.RegistrationID, absoluteLimit, dailyLimit)
		if errors.Is(err, domain.ErrDuplicateIBAN) {
			continue
		}
		return result, err
	}

	return nil, fmt.Errorf("approve registration: %w", domain.ErrDuplicateIBAN)
}

func (uc *ApprovalUseCase) approveOnce(ctx context.Context, registrationID string, absoluteLimit, dailyLimit decimal.Decimal) (*ApprovalResult, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	reg, err := uc.registrationRepo.GetByIDForUpdate(ctx, tx, registrationID)
	if err != nil {
		return nil, err
	}

	if reg.Approved {
		return nil, domain.ErrAlreadyApproved
	}

	now := uc.clock()
	customer := domain.NewCustomerFromRegistration(uc.idGen.Generate(), reg, now)
	if err := uc.customerRepo.Create(ctx, tx, customer); err != nil {
		return nil, err
	}

	accounts := make([]*domain.Account, 0, 2)
	for _, accountType := range []domain.AccountType{domain.AccountTypeCurrent, domain.AccountTypeSavings} {
		account, err := newAccount(uc.idGen, uc.bankCode, customer.ID, accountType, absoluteLimit, dailyLimit, now)
		if err != nil {
			return nil, err
		}

		if err := uc.accountRepo.Create(ctx, tx, account); err != nil {
			return nil, err
		}

		event := domain.NewAccountEvent(uc.idGen.Generate(), domain.EventTypeAccountCreated, account, now)
		if err := uc.outboxRepo.Create(ctx, tx, event); err != nil {
			return nil, err
		}

		accounts = append(accounts, account)
	}

	if err := uc.registrationRepo.MarkApproved(ctx, tx, reg.ID, customer.ID); err != nil {
		return nil, err
	}

	reg.Approved = true
	reg.CustomerID = &customer.ID

	if err := uc.outboxRepo.Create(ctx, tx, domain.NewRegistrationApprovedEvent(uc.idGen.Generate(), reg, customer.ID, now)); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return &ApprovalResult{Registration: reg, Customer: customer, Accounts: accounts}, nil
}

// Reject deletes a pending registration. Approved registrations cannot be rejected.
func (uc *ApprovalUseCase) Reject(ctx context.Context, actor domain.Principal, registrationID string) error {
	if err := requireEmployee(actor); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	reg, err := uc.registrationRepo.GetByIDForUpdate(ctx, tx, registrationID)
	if err != nil {
		return err
	}

	if reg.Approved {
		return domain.ErrAlreadyApproved
	}

	if err := uc.registrationRepo.Delete(ctx, tx, reg.ID); err != nil {
		return err
	}

	return tx.Commit(ctx)
}
