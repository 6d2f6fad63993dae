package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/bankledger/internal/domain"
)

// TransferUseCase is the single path through which money moves.
type TransferUseCase struct {
	txManager       TransactionManager
	accountRepo     AccountRepository
	transactionRepo TransactionRepository
	outboxRepo      OutboxRepository
	idGen           IDGenerator
	retrier         Retrier
	settings
}

// NewTransferUseCase creates a new TransferUseCase.
func NewTransferUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	transactionRepo TransactionRepository,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
	retrier Retrier,
	opts ...Option,
) *TransferUseCase {
	if retrier == nil {
		retrier = NoRetry{}
	}

	return &TransferUseCase{
		txManager:       txManager,
		accountRepo:     accountRepo,
		transactionRepo: transactionRepo,
		outboxRepo:      outboxRepo,
		idGen:           idGen,
		retrier:         retrier,
		settings:        applyOptions(opts),
	}
}

// TransferInput represents input for an account-to-account transfer.
type TransferInput struct {
	Actor          domain.Principal
	FromIBAN       string
	ToIBAN         string
	Amount         decimal.Decimal
	Description    string
	IdempotencyKey string
}

// CashInput represents input for an ATM withdrawal or deposit.
type CashInput struct {
	Actor          domain.Principal
	IBAN           string
	Amount         decimal.Decimal
	IdempotencyKey string
}

type movement struct {
	txType         domain.TransactionType
	from           string
	to             string
	amount         decimal.Decimal
	description    string
	actor          domain.Principal
	idempotencyKey string
}

// debited returns the account losing money, or "" for deposits.
func (m movement) debited() string {
	if m.txType == domain.TransactionTypeDeposit {
		return ""
	}
	return m.from
}

// credited returns the account gaining money, or "" for withdrawals.
func (m movement) credited() string {
	if m.txType == domain.TransactionTypeWithdrawal {
		return ""
	}
	return m.to
}

// Transfer moves amount from one account to another.
func (uc *TransferUseCase) Transfer(ctx context.Context, input TransferInput) (*domain.Transaction, error) {
	return uc.execute(ctx, movement{
		txType:         domain.TransactionTypeTransfer,
		from:           domain.NormalizeIBAN(input.FromIBAN),
		to:             domain.NormalizeIBAN(input.ToIBAN),
		amount:         input.Amount,
		description:    input.Description,
		actor:          input.Actor,
		idempotencyKey: input.IdempotencyKey,
	})
}

// ATMWithdraw pays out cash from an account.
func (uc *TransferUseCase) ATMWithdraw(ctx context.Context, input CashInput) (*domain.Transaction, error) {
	return uc.execute(ctx, movement{
		txType:         domain.TransactionTypeWithdrawal,
		from:           domain.NormalizeIBAN(input.IBAN),
		to:             domain.CashIBAN,
		amount:         input.Amount,
		description:    "ATM withdrawal",
		actor:          input.Actor,
		idempotencyKey: input.IdempotencyKey,
	})
}

// ATMDeposit credits cash to an account.
func (uc *TransferUseCase) ATMDeposit(ctx context.Context, input CashInput) (*domain.Transaction, error) {
	return uc.execute(ctx, movement{
		txType:         domain.TransactionTypeDeposit,
		from:           domain.CashIBAN,
		to:             domain.NormalizeIBAN(input.IBAN),
		amount:         input.Amount,
		description:    "ATM deposit",
		actor:          input.Actor,
		idempotencyKey: input.IdempotencyKey,
	})
}

func (uc *TransferUseCase) execute(ctx context.Context, m movement) (*domain.Transaction, error) {
	started := uc.clock()

	if m.actor.UserID == "" {
		return nil, uc.rejected(m, domain.ErrUnauthorized)
	}

	amount, err := domain.NormalizeAmount(m.amount)
	if err != nil {
		return nil, uc.rejected(m, err)
	}
	m.amount = amount

	if err := domain.ValidateDescription(m.description); err != nil {
		return nil, uc.rejected(m, err)
	}

	if err := domain.ValidateIdempotencyKey(m.idempotencyKey); err != nil {
		return nil, uc.rejected(m, err)
	}

	var result *domain.Transaction
	err = uc.retrier.Retry(ctx, func() error {
		var opErr error
		result, opErr = uc.executeOnce(ctx, m)
		return opErr
	})

	// A concurrent request with the same key committed first.
	if errors.Is(err, domain.ErrDuplicateIdempotencyKey) {
		result, err = uc.transactionRepo.GetByIdempotencyKey(ctx, nil, m.actor.UserID, m.idempotencyKey)
		if err == nil {
			result, err = replay(result, m)
		}
	}

	if err != nil {
		if !domain.IsBusinessError(err) {
			err = fmt.Errorf("%w: %w", domain.ErrTransferFailed, err)
		}
		return nil, uc.rejected(m, err)
	}

	if uc.metrics != nil {
		uc.metrics.ObserveTransaction(m.txType, m.amount, uc.clock().Sub(started))
	}

	return result, nil
}

func (uc *TransferUseCase) executeOnce(ctx context.Context, m movement) (*domain.Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Lock accounts in sorted order (deadlock prevention)
	accounts, err := uc.accountRepo.GetByIBANsForUpdate(ctx, tx, lockOrder(m.debited(), m.credited()))
	if err != nil {
		return nil, err
	}

	if m.idempotencyKey != "" {
		existing, err := uc.transactionRepo.GetByIdempotencyKey(ctx, tx, m.actor.UserID, m.idempotencyKey)
		if err == nil {
			return replay(existing, m)
		}
		if !errors.Is(err, domain.ErrTransactionNotFound) {
			return nil, err
		}
	}

	byIBAN := make(map[string]*domain.Account, len(accounts))
	for _, acc := range accounts {
		byIBAN[acc.IBAN] = acc
	}

	from, to, err := uc.resolve(m, byIBAN)
	if err != nil {
		return nil, err
	}

	ts := domain.NextTimestamp(uc.clock(), from, to)

	if from != nil {
		if m.txType.IsOutgoing() {
			dayStart, dayEnd := domain.DayBounds(ts, uc.location)
			spent, err := uc.transactionRepo.SumOutgoing(ctx, tx, from.IBAN, dayStart, dayEnd)
			if err != nil {
				return nil, err
			}

			if err := from.ValidateDailyLimit(spent, m.amount); err != nil {
				return nil, err
			}
		}

		if err := from.ValidateDebit(m.amount); err != nil {
			return nil, err
		}
	}

	record := &domain.Transaction{
		ID:               uc.idGen.Generate(),
		FromIBAN:         m.from,
		ToIBAN:           m.to,
		Amount:           m.amount,
		Type:             m.txType,
		Description:      m.description,
		PerformingUserID: m.actor.UserID,
		Timestamp:        ts,
	}
	if m.idempotencyKey != "" {
		key := m.idempotencyKey
		record.IdempotencyKey = &key
	}

	if err := uc.transactionRepo.Append(ctx, tx, record); err != nil {
		return nil, err
	}

	if from != nil {
		if err := uc.debit(ctx, tx, from, m.amount, ts); err != nil {
			return nil, err
		}
	}

	if to != nil {
		if err := uc.credit(ctx, tx, to, m.amount, ts); err != nil {
			return nil, err
		}
	}

	if err := uc.outboxRepo.Create(ctx, tx, domain.NewTransactionCreatedEvent(uc.idGen.Generate(), record)); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return record, nil
}

// resolve applies existence, ownership, activity and same-account checks in that order.
func (uc *TransferUseCase) resolve(m movement, byIBAN map[string]*domain.Account) (*domain.Account, *domain.Account, error) {
	var from, to *domain.Account

	if iban := m.debited(); iban != "" {
		from = byIBAN[iban]
		if from == nil {
			return nil, nil, fmt.Errorf("%w: %s", domain.ErrAccountNotFound, iban)
		}
	}

	if iban := m.credited(); iban != "" {
		to = byIBAN[iban]
		if to == nil {
			return nil, nil, fmt.Errorf("%w: %s", domain.ErrAccountNotFound, iban)
		}
	}

	// Customers move money out of, and deposit cash into, their own accounts only.
	owned := from
	if owned == nil {
		owned = to
	}
	if err := authorize(m.actor, owned.OwnerID); err != nil {
		return nil, nil, err
	}

	for _, acc := range []*domain.Account{from, to} {
		if acc != nil && !acc.Active {
			return nil, nil, fmt.Errorf("%w: %s", domain.ErrAccountInactive, acc.IBAN)
		}
	}

	if from != nil && to != nil && from.IBAN == to.IBAN {
		return nil, nil, domain.ErrSameAccount
	}

	return from, to, nil
}

// debit re-checks the floor so no caller can push an account below its absolute limit.
func (uc *TransferUseCase) debit(ctx context.Context, tx Tx, acc *domain.Account, amount decimal.Decimal, ts time.Time) error {
	balance := acc.ApplyDebit(amount)
	if balance.LessThan(acc.Floor()) {
		return domain.ErrInsufficientFunds
	}

	return uc.storeBalance(ctx, tx, acc, balance, ts)
}

func (uc *TransferUseCase) credit(ctx context.Context, tx Tx, acc *domain.Account, amount decimal.Decimal, ts time.Time) error {
	return uc.storeBalance(ctx, tx, acc, acc.ApplyCredit(amount), ts)
}

// storeBalance is the only primitive that changes a balance.
func (uc *TransferUseCase) storeBalance(ctx context.Context, tx Tx, acc *domain.Account, balance decimal.Decimal, ts time.Time) error {
	if err := uc.accountRepo.UpdateBalance(ctx, tx, acc.ID, balance, ts); err != nil {
		return err
	}

	acc.Balance = balance
	acc.LastTransactionAt = &ts

	return nil
}

// replay returns the transaction the same user previously committed under the key.
// A key reused for a different movement is rejected rather than answered with the old one.
func replay(existing *domain.Transaction, m movement) (*domain.Transaction, error) {
	if existing.Type != m.txType ||
		existing.FromIBAN != m.from ||
		existing.ToIBAN != m.to ||
		!existing.Amount.Equal(m.amount) {
		return nil, fmt.Errorf("%w: key %q was used for a %s of %s from %s to %s",
			domain.ErrIdempotencyKeyMismatch, m.idempotencyKey,
			existing.Type, existing.Amount.StringFixed(2), existing.FromIBAN, existing.ToIBAN)
	}

	return existing, nil
}

func (uc *TransferUseCase) rejected(m movement, err error) error {
	if uc.metrics != nil {
		uc.metrics.ObserveRejection(m.txType, domain.KindOf(err))
	}
	return err
}

// lockOrder returns the distinct non-empty IBANs sorted, so concurrent movements lock in the same order.
func lockOrder(ibans ...string) []string {
	out := make([]string, 0, len(ibans))
	for _, iban := range ibans {
		if iban == "" {
			continue
		}
		dup := false
		for _, seen := range out {
			if seen == iban {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, iban)
		}
	}
	sort.Strings(out)
	return out
}
