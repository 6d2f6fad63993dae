package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
)

func newMockPool(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	pool, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgxmock pool: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

func assertExpectations(t *testing.T, pool pgxmock.PgxPoolIface) {
	t.Helper()
	if err := pool.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations were not met: %v", err)
	}
}

func TestTxManager_CommitAndRollback(t *testing.T) {
	ctx := context.Background()
	pool := newMockPool(t)
	pool.ExpectBegin()
	pool.ExpectCommit()
	pool.ExpectBegin()
	pool.ExpectRollback()

	manager := NewTxManager(pool)

	tx, err := manager.Begin(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := tx.Commit(ctx); err != nil {
		t.Fatalf("commit failed: %v", err)
	}

	tx, err = manager.Begin(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := tx.Rollback(ctx); err != nil {
		t.Fatalf("rollback failed: %v", err)
	}

	assertExpectations(t, pool)
}

func TestTxManager_BeginError(t *testing.T) {
	pool := newMockPool(t)
	beginErr := errors.New("begin failed")
	pool.ExpectBegin().WillReturnError(beginErr)

	tx, err := NewTxManager(pool).Begin(context.Background())
	if !errors.Is(err, beginErr) {
		t.Fatalf("expected begin error, got err=%v tx=%v", err, tx)
	}
}

func TestTxManager_LockTimeout(t *testing.T) {
	ctx := context.Background()
	pool := newMockPool(t)
	pool.ExpectBegin()
	pool.ExpectExec("SET LOCAL lock_timeout = 1500").WillReturnResult(pgxmock.NewResult("SET", 0))
	pool.ExpectCommit()

	tx, err := NewTxManager(pool, WithLockTimeout(1500*time.Millisecond)).Begin(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := tx.Commit(ctx); err != nil {
		t.Fatalf("commit failed: %v", err)
	}

	assertExpectations(t, pool)
}

func TestTxManager_LockTimeoutFailureRollsBack(t *testing.T) {
	pool := newMockPool(t)
	pool.ExpectBegin()
	pool.ExpectExec("SET LOCAL lock_timeout").WillReturnError(errors.New("boom"))
	pool.ExpectRollback()

	if _, err := NewTxManager(pool, WithLockTimeout(time.Second)).Begin(context.Background()); err == nil {
		t.Fatal("expected an error when the lock timeout cannot be set")
	}

	assertExpectations(t, pool)
}

func TestConn_PrefersTransaction(t *testing.T) {
	pool := newMockPool(t)
	pool.ExpectBegin()

	tx, err := NewTxManager(pool).Begin(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := conn(pool, tx); got != tx.(*Tx).tx {
		t.Fatalf("expected the transaction to be used")
	}
	if got := conn(pool, nil); got != pool {
		t.Fatalf("expected the pool without a transaction")
	}
}
