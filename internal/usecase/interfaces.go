package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/bankledger/internal/domain"
)

// AccountRepository defines data access for accounts.
// Methods taking a Tx must be called inside TransactionManager.Begin.
type AccountRepository interface {
	Create(ctx context.Context, tx Tx, account *domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByIBAN(ctx context.Context, iban string) (*domain.Account, error)
	GetByIDForUpdate(ctx context.Context, tx Tx, id string) (*domain.Account, error)
	// GetByIBANsForUpdate locks the accounts in the given order and returns those that exist.
	GetByIBANsForUpdate(ctx context.Context, tx Tx, ibans []string) ([]*domain.Account, error)
	ListByOwner(ctx context.Context, ownerID string, activeOnly bool) ([]*domain.Account, error)
	UpdateBalance(ctx context.Context, tx Tx, id string, balance decimal.Decimal, lastTransactionAt time.Time) error
	UpdateLimits(ctx context.Context, tx Tx, id string, absoluteLimit, dailyLimit decimal.Decimal, updatedAt time.Time) error
	Deactivate(ctx context.Context, tx Tx, id string, updatedAt time.Time) error
}

// TransactionRepository is the append-only transaction log.
type TransactionRepository interface {
	// Append stores t permanently. A key reused by the same performing user yields domain.ErrDuplicateIdempotencyKey.
	Append(ctx context.Context, tx Tx, t *domain.Transaction) error
	GetByID(ctx context.Context, id string) (*domain.Transaction, error)
	// GetByIdempotencyKey finds the transaction userID committed under key.
	GetByIdempotencyKey(ctx context.Context, tx Tx, userID, key string) (*domain.Transaction, error)
	// SumOutgoing totals TRANSFER and WITHDRAWAL amounts debited from iban in [from, to).
	SumOutgoing(ctx context.Context, tx Tx, iban string, from, to time.Time) (decimal.Decimal, error)
	ListByAccount(ctx context.Context, iban string) ([]*domain.Transaction, error)
	// ListByOwner returns transactions touching any account of ownerID in one read.
	// Transactions between two of the owner's accounts may appear twice.
	ListByOwner(ctx context.Context, ownerID string) ([]*domain.Transaction, error)
	// Search returns transactions matching filter, most recent first.
	Search(ctx context.Context, filter domain.TransactionFilter, loc *time.Location, limit, offset int) ([]*domain.Transaction, error)
}

// CustomerRepository defines data access for approved customers.
type CustomerRepository interface {
	Create(ctx context.Context, tx Tx, customer *domain.Customer) error
	GetByID(ctx context.Context, id string) (*domain.Customer, error)
	Search(ctx context.Context, query domain.CustomerQuery) ([]*domain.Customer, error)
}

// RegistrationRepository defines data access for pending registrations.
type RegistrationRepository interface {
	// Create stores r, failing with domain.ErrDuplicateEmail or domain.ErrDuplicateBSN.
	Create(ctx context.Context, r *domain.PendingRegistration) error
	GetByID(ctx context.Context, id string) (*domain.PendingRegistration, error)
	GetByIDForUpdate(ctx context.Context, tx Tx, id string) (*domain.PendingRegistration, error)
	MarkApproved(ctx context.Context, tx Tx, id, customerID string) error
	Delete(ctx context.Context, tx Tx, id string) error
	ListPending(ctx context.Context, limit, offset int) ([]*domain.PendingRegistration, error)
}

// LedgerTotals aggregates every account and every cash movement.
type LedgerTotals struct {
	TotalBalance     decimal.Decimal
	TotalDeposits    decimal.Decimal
	TotalWithdrawals decimal.Decimal
}

// LedgerRepository defines data access for ledger-wide operations.
type LedgerRepository interface {
	Totals(ctx context.Context) (LedgerTotals, error)
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Tx, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	DeletePublished(ctx context.Context, before time.Time) error
}

// Tx represents a storage transaction.
type Tx interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Tx, error)
}

// Retrier re-runs op on transient write conflicts.
type Retrier interface {
	Retry(ctx context.Context, op func() error) error
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// StoredResponse is a response kept for replay under an idempotency key.
type StoredResponse struct {
	Status int    `json:"status"`
	Body   []byte `json:"body"`
}

// IdempotencyStore remembers responses to requests that carry an idempotency key.
type IdempotencyStore interface {
	// Reserve claims key for an in-flight request. When the key is already taken it
	// returns claimed=false and the stored response, which is nil while the first
	// request is still running.
	Reserve(ctx context.Context, key string, ttl time.Duration) (claimed bool, stored *StoredResponse, err error)
	// Complete replaces the reservation with the final response.
	Complete(ctx context.Context, key string, resp StoredResponse, ttl time.Duration) error
	// Release drops the reservation so the request may be retried.
	Release(ctx context.Context, key string) error
}

// EngineMetrics receives engine outcomes. A nil EngineMetrics is allowed.
type EngineMetrics interface {
	ObserveTransaction(txType domain.TransactionType, amount decimal.Decimal, duration time.Duration)
	ObserveRejection(txType domain.TransactionType, kind domain.Kind)
}

// NoRetry runs op once.
type NoRetry struct{}

// Retry runs op once.
func (NoRetry) Retry(_ context.Context, op func() error) error {
	return op()
}
