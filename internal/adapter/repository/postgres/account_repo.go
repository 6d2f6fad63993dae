package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/iho/bankledger/internal/domain"
	"github.com/iho/bankledger/internal/usecase"
)

const accountColumns = `id, iban, owner_id, account_type, balance, absolute_limit, daily_limit,
	active, last_transaction_at, created_at, updated_at`

// AccountRepository implements usecase.AccountRepository.
type AccountRepository struct {
	pool DB
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(pool DB) *AccountRepository {
	return &AccountRepository{pool: pool}
}

// Create inserts a new account.
func (r *AccountRepository) Create(ctx context.Context, tx usecase.Tx, account *domain.Account) error {
	query := `
		INSERT INTO accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := conn(r.pool, tx).Exec(ctx, query,
		account.ID,
		account.IBAN,
		account.OwnerID,
		string(account.Type),
		toNumeric(account.Balance),
		toNumeric(account.AbsoluteLimit),
		toNumeric(account.DailyLimit),
		account.Active,
		account.LastTransactionAt,
		account.CreatedAt,
		account.UpdatedAt,
	)

	return mapError(err)
}

// GetByID retrieves an account by ID.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`

	return scanAccount(r.pool.QueryRow(ctx, query, id))
}

// GetByIBAN retrieves an account by IBAN.
func (r *AccountRepository) GetByIBAN(ctx context.Context, iban string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE iban = $1`

	return scanAccount(r.pool.QueryRow(ctx, query, iban))
}

// GetByIDForUpdate retrieves an account by ID with a FOR UPDATE lock.
func (r *AccountRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Tx, id string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1 FOR UPDATE`

	return scanAccount(conn(r.pool, tx).QueryRow(ctx, query, id))
}

// GetByIBANsForUpdate locks the existing accounts among ibans in IBAN order.
func (r *AccountRepository) GetByIBANsForUpdate(ctx context.Context, tx usecase.Tx, ibans []string) ([]*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE iban = ANY($1) ORDER BY iban FOR UPDATE`

	rows, err := conn(r.pool, tx).Query(ctx, query, ibans)
	if err != nil {
		return nil, err
	}

	return collectAccounts(rows)
}

// ListByOwner lists an owner's accounts ordered by creation.
func (r *AccountRepository) ListByOwner(ctx context.Context, ownerID string, activeOnly bool) ([]*domain.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE owner_id = $1 AND (active OR NOT $2)
		ORDER BY created_at, id
	`

	rows, err := r.pool.Query(ctx, query, ownerID, activeOnly)
	if err != nil {
		return nil, err
	}

	return collectAccounts(rows)
}

// UpdateBalance sets the balance and the last transaction time.
func (r *AccountRepository) UpdateBalance(ctx context.Context, tx usecase.Tx, id string, balance decimal.Decimal, lastTransactionAt time.Time) error {
	query := `
		UPDATE accounts
		SET balance = $2, last_transaction_at = $3, updated_at = $3
		WHERE id = $1
	`

	return r.exec(ctx, tx, query, id, toNumeric(balance), lastTransactionAt)
}

// UpdateLimits sets both limits.
func (r *AccountRepository) UpdateLimits(ctx context.Context, tx usecase.Tx, id string, absoluteLimit, dailyLimit decimal.Decimal, updatedAt time.Time) error {
	query := `
		UPDATE accounts
		SET absolute_limit = $2, daily_limit = $3, updated_at = $4
		WHERE id = $1
	`

	return r.exec(ctx, tx, query, id, toNumeric(absoluteLimit), toNumeric(dailyLimit), updatedAt)
}

// Deactivate closes an account.
func (r *AccountRepository) Deactivate(ctx context.Context, tx usecase.Tx, id string, updatedAt time.Time) error {
	query := `UPDATE accounts SET active = FALSE, updated_at = $2 WHERE id = $1`

	return r.exec(ctx, tx, query, id, updatedAt)
}

func (r *AccountRepository) exec(ctx context.Context, tx usecase.Tx, query string, args ...any) error {
	tag, err := conn(r.pool, tx).Exec(ctx, query, args...)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrAccountNotFound
	}

	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAccount(row scanner) (*domain.Account, error) {
	var (
		a                                  domain.Account
		accountType                        string
		balance, absoluteLimit, dailyLimit pgtype.Numeric
		lastTransactionAt                  pgtype.Timestamptz
	)

	err := row.Scan(
		&a.ID,
		&a.IBAN,
		&a.OwnerID,
		&accountType,
		&balance,
		&absoluteLimit,
		&dailyLimit,
		&a.Active,
		&lastTransactionAt,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}

	a.Type = domain.AccountType(accountType)
	if lastTransactionAt.Valid {
		ts := lastTransactionAt.Time
		a.LastTransactionAt = &ts
	}

	if a.Balance, err = toDecimal(balance); err != nil {
		return nil, err
	}
	if a.AbsoluteLimit, err = toDecimal(absoluteLimit); err != nil {
		return nil, err
	}
	if a.DailyLimit, err = toDecimal(dailyLimit); err != nil {
		return nil, err
	}

	return &a, nil
}

func collectAccounts(rows pgx.Rows) ([]*domain.Account, error) {
	defer rows.Close()

	accounts := make([]*domain.Account, 0)
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}

	return accounts, rows.Err()
}
