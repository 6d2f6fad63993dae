package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/iho/bankledger/internal/usecase"
)

// DB is the subset of *pgxpool.Pool the repositories use.
type DB interface {
	querier
	Begin(ctx context.Context) (pgx.Tx, error)
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TxManager opens the atomic unit every ledger mutation runs in.
//
// Units run at READ COMMITTED. Money movements serialize on account rows
// with SELECT ... FOR UPDATE taken in IBAN order.
type TxManager struct {
	pool        DB
	lockTimeout time.Duration
}

type TxManagerOption func(*TxManager)

// WithLockTimeout bounds how long a unit waits for a row lock. A unit that
// times out fails with SQLSTATE 55P03, which the Retrier treats as a conflict.
func WithLockTimeout(d time.Duration) TxManagerOption {
	return func(m *TxManager) { m.lockTimeout = d }
}

func NewTxManager(pool DB, opts ...TxManagerOption) *TxManager {
	m := &TxManager{pool: pool}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *TxManager) Begin(ctx context.Context) (usecase.Tx, error) {
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}

	if m.lockTimeout > 0 {
		stmt := fmt.Sprintf("SET LOCAL lock_timeout = %d", m.lockTimeout.Milliseconds())
		if _, err := tx.Exec(ctx, stmt); err != nil {
			_ = tx.Rollback(ctx)
			return nil, fmt.Errorf("set lock timeout: %w", err)
		}
	}

	return &Tx{tx: tx}, nil
}

// Tx is one open unit. Rollback after Commit is a no-op.
type Tx struct {
	tx pgx.Tx
}

func (t *Tx) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

func (t *Tx) Rollback(ctx context.Context) error {
	return t.tx.Rollback(ctx)
}

// conn picks the unit's connection when one is given and the pool otherwise.
func conn(pool DB, tx usecase.Tx) querier {
	if t, ok := tx.(*Tx); ok && t != nil {
		return t.tx
	}
	return pool
}
