package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/iho/bankledger/internal/domain"
	"github.com/iho/bankledger/internal/usecase"
)

const transactionColumns = `id, from_iban, to_iban, amount, transaction_type, description,
	performing_user_id, idempotency_key, created_at`

// TransactionRepository implements usecase.TransactionRepository.
type TransactionRepository struct {
	pool DB
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(pool DB) *TransactionRepository {
	return &TransactionRepository{pool: pool}
}

// Append inserts a transaction. Rows are never updated afterwards.
func (r *TransactionRepository) Append(ctx context.Context, tx usecase.Tx, t *domain.Transaction) error {
	query := `
		INSERT INTO transactions (` + transactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := conn(r.pool, tx).Exec(ctx, query,
		t.ID,
		t.FromIBAN,
		t.ToIBAN,
		toNumeric(t.Amount),
		string(t.Type),
		t.Description,
		t.PerformingUserID,
		t.IdempotencyKey,
		t.Timestamp,
	)

	return mapError(err)
}

// GetByID retrieves a transaction by ID.
func (r *TransactionRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`

	return scanTransaction(r.pool.QueryRow(ctx, query, id))
}

// GetByIdempotencyKey retrieves the transaction userID committed under key. tx may be nil.
func (r *TransactionRepository) GetByIdempotencyKey(ctx context.Context, tx usecase.Tx, userID, key string) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE performing_user_id = $1 AND idempotency_key = $2`

	return scanTransaction(conn(r.pool, tx).QueryRow(ctx, query, userID, key))
}

// SumOutgoing totals TRANSFER and WITHDRAWAL amounts debited from iban in [from, to).
func (r *TransactionRepository) SumOutgoing(ctx context.Context, tx usecase.Tx, iban string, from, to time.Time) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM transactions
		WHERE from_iban = $1
		  AND transaction_type IN ('TRANSFER', 'WITHDRAWAL')
		  AND created_at >= $2 AND created_at < $3
	`

	var total pgtype.Numeric
	if err := conn(r.pool, tx).QueryRow(ctx, query, iban, from, to).Scan(&total); err != nil {
		return decimal.Zero, err
	}

	return toDecimal(total)
}

// ListByAccount returns every transaction touching iban, most recent first.
func (r *TransactionRepository) ListByAccount(ctx context.Context, iban string) ([]*domain.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE from_iban = $1 OR to_iban = $1
		ORDER BY created_at DESC, id DESC
	`

	rows, err := r.pool.Query(ctx, query, iban)
	if err != nil {
		return nil, err
	}

	return collectTransactions(rows)
}

// ListByOwner returns the transactions touching any of the owner's accounts in one query.
func (r *TransactionRepository) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE from_iban IN (SELECT iban FROM accounts WHERE owner_id = $1)
		   OR to_iban IN (SELECT iban FROM accounts WHERE owner_id = $1)
		ORDER BY created_at DESC, id DESC
	`

	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}

	return collectTransactions(rows)
}

// Search lists transactions matching filter, most recent first.
func (r *TransactionRepository) Search(ctx context.Context, filter domain.TransactionFilter, loc *time.Location, limit, offset int) ([]*domain.Transaction, error) {
	where, args := filterClause(filter, loc)
	args = append(args, limit, offset)

	query := fmt.Sprintf(`
		SELECT %s
		FROM transactions
		%s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d OFFSET $%d
	`, transactionColumns, where, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	return collectTransactions(rows)
}

// filterClause renders filter as a WHERE clause with positional arguments.
func filterClause(filter domain.TransactionFilter, loc *time.Location) (string, []any) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.StartDate != nil {
		start, _ := domain.DayBounds(*filter.StartDate, loc)
		conds = append(conds, "created_at >= "+arg(start))
	}
	if filter.EndDate != nil {
		_, next := domain.DayBounds(*filter.EndDate, loc)
		conds = append(conds, "created_at < "+arg(next))
	}
	if filter.MinAmount != nil {
		conds = append(conds, "amount >= "+arg(toNumeric(*filter.MinAmount)))
	}
	if filter.MaxAmount != nil {
		conds = append(conds, "amount <= "+arg(toNumeric(*filter.MaxAmount)))
	}
	if iban := domain.NormalizeIBAN(filter.IBAN); iban != "" {
		p := arg(likePattern(iban))
		conds = append(conds, fmt.Sprintf("(from_iban LIKE %s OR to_iban LIKE %s)", p, p))
	}
	if term := strings.TrimSpace(filter.SearchTerm); term != "" {
		p := arg(likePattern(term))
		cond := fmt.Sprintf("description ILIKE %s OR transaction_type ILIKE %s", p, p)
		if filter.IncludePerformer {
			cond += fmt.Sprintf(" OR performing_user_id ILIKE %s", p)
		}
		conds = append(conds, "("+cond+")")
	}

	if len(conds) == 0 {
		return "", args
	}

	return "WHERE " + strings.Join(conds, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func likePattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

func scanTransaction(row scanner) (*domain.Transaction, error) {
	var (
		t      domain.Transaction
		txType string
		amount pgtype.Numeric
		key    pgtype.Text
	)

	err := row.Scan(
		&t.ID,
		&t.FromIBAN,
		&t.ToIBAN,
		&amount,
		&txType,
		&t.Description,
		&t.PerformingUserID,
		&key,
		&t.Timestamp,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrTransactionNotFound
	}
	if err != nil {
		return nil, err
	}

	t.Type = domain.TransactionType(txType)
	if key.Valid {
		k := key.String
		t.IdempotencyKey = &k
	}

	if t.Amount, err = toDecimal(amount); err != nil {
		return nil, err
	}

	return &t, nil
}

func collectTransactions(rows pgx.Rows) ([]*domain.Transaction, error) {
	defer rows.Close()

	txs := make([]*domain.Transaction, 0)
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, t)
	}

	return txs, rows.Err()
}
