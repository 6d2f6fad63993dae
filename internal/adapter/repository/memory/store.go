// Package memory keeps accounts, transactions and registrations in process memory.
//
// Write transactions are serialized: Begin waits for the single writer slot, staged
// writes are applied under the data lock at Commit, and readers only ever observe
// committed state.
package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/iho/bankledger/internal/domain"
	"github.com/iho/bankledger/internal/usecase"
)

var (
	errTxClosed  = errors.New("memory: transaction already closed")
	errForeignTx = errors.New("memory: transaction does not belong to this store")
)

// Store holds all state.
type Store struct {
	writer chan struct{}

	mu            sync.RWMutex
	accounts      map[string]*domain.Account
	accountByIBAN map[string]string
	transactions  []*domain.Transaction
	txByID        map[string]*domain.Transaction
	txByKey       map[string]*domain.Transaction
	customers     map[string]*domain.Customer
	registrations map[string]*domain.PendingRegistration
	outbox        []*domain.OutboxEvent
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		writer:        make(chan struct{}, 1),
		accounts:      make(map[string]*domain.Account),
		accountByIBAN: make(map[string]string),
		txByID:        make(map[string]*domain.Transaction),
		txByKey:       make(map[string]*domain.Transaction),
		customers:     make(map[string]*domain.Customer),
		registrations: make(map[string]*domain.PendingRegistration),
	}
}

// Ping reports the store as always reachable.
func (s *Store) Ping(context.Context) error {
	return nil
}

// TxManager implements usecase.TransactionManager.
type TxManager struct {
	store *Store
}

// NewTxManager creates a new TxManager.
func NewTxManager(store *Store) *TxManager {
	return &TxManager{store: store}
}

// Begin waits for the writer slot or ctx.
func (m *TxManager) Begin(ctx context.Context) (usecase.Tx, error) {
	select {
	case m.store.writer <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	return &Tx{
		store: m.store,
		ibans: make(map[string]struct{}),
		keys:  make(map[string]struct{}),
	}, nil
}

// Tx stages writes until Commit.
type Tx struct {
	store *Store
	ops   []func()
	ibans map[string]struct{}
	keys  map[string]struct{}
	done  bool
}

// Commit applies staged writes atomically. A cancelled ctx discards them.
func (t *Tx) Commit(ctx context.Context) error {
	if t.done {
		return errTxClosed
	}
	defer t.release()

	if err := ctx.Err(); err != nil {
		return err
	}

	t.store.mu.Lock()
	for _, op := range t.ops {
		op()
	}
	t.store.mu.Unlock()

	return nil
}

// Rollback discards staged writes. It is a no-op after Commit.
func (t *Tx) Rollback(context.Context) error {
	if t.done {
		return nil
	}
	t.release()
	return nil
}

func (t *Tx) release() {
	t.done = true
	t.ops = nil
	<-t.store.writer
}

func (t *Tx) stage(op func()) {
	t.ops = append(t.ops, op)
}

func (s *Store) txFrom(tx usecase.Tx) (*Tx, error) {
	t, ok := tx.(*Tx)
	if !ok || t.store != s {
		return nil, errForeignTx
	}
	if t.done {
		return nil, errTxClosed
	}
	return t, nil
}

func cloneAccount(a *domain.Account) *domain.Account {
	c := *a
	if a.LastTransactionAt != nil {
		ts := *a.LastTransactionAt
		c.LastTransactionAt = &ts
	}
	return &c
}

func cloneTransaction(t *domain.Transaction) *domain.Transaction {
	c := *t
	if t.IdempotencyKey != nil {
		key := *t.IdempotencyKey
		c.IdempotencyKey = &key
	}
	return &c
}

func cloneRegistration(r *domain.PendingRegistration) *domain.PendingRegistration {
	c := *r
	if r.CustomerID != nil {
		id := *r.CustomerID
		c.CustomerID = &id
	}
	return &c
}
