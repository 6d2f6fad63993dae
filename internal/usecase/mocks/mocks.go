package mocks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/iho/bankledger/internal/usecase"
)

// MockTransactionManager is a mock implementation of TransactionManager.
// Without BeginFunc it delegates to Next, or returns a no-op MockTx.
type MockTransactionManager struct {
	BeginFunc func(ctx context.Context) (usecase.Tx, error)
	Next      usecase.TransactionManager

	mu     sync.Mutex
	Begins int
}

func NewMockTransactionManager() *MockTransactionManager {
	return &MockTransactionManager{}
}

func (m *MockTransactionManager) Begin(ctx context.Context) (usecase.Tx, error) {
	m.mu.Lock()
	m.Begins++
	m.mu.Unlock()

	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}
	if m.Next != nil {
		return m.Next.Begin(ctx)
	}
	return &MockTx{}, nil
}

// MockTx is a mock implementation of Tx.
type MockTx struct {
	CommitFunc   func(ctx context.Context) error
	RollbackFunc func(ctx context.Context) error
}

func (m *MockTx) Commit(ctx context.Context) error {
	if m.CommitFunc != nil {
		return m.CommitFunc(ctx)
	}
	return nil
}

func (m *MockTx) Rollback(ctx context.Context) error {
	if m.RollbackFunc != nil {
		return m.RollbackFunc(ctx)
	}
	return nil
}

// MockRetrier retries op up to Attempts times while ShouldRetry approves the error.
type MockRetrier struct {
	Attempts    int
	ShouldRetry func(error) bool

	mu    sync.Mutex
	Calls int
}

func (m *MockRetrier) Retry(_ context.Context, op func() error) error {
	attempts := m.Attempts
	if attempts <= 0 {
		attempts = 1
	}

	var err error
	for i := 0; i < attempts; i++ {
		m.mu.Lock()
		m.Calls++
		m.mu.Unlock()

		err = op()
		if err == nil || m.ShouldRetry == nil || !m.ShouldRetry(err) {
			return err
		}
	}
	return err
}

// MockIDGenerator is a mock implementation of IDGenerator.
type MockIDGenerator struct {
	GenerateFunc func() string
	counter      int
	mu           sync.Mutex
}

func NewMockIDGenerator() *MockIDGenerator {
	return &MockIDGenerator{}
}

func (m *MockIDGenerator) Generate() string {
	if m.GenerateFunc != nil {
		return m.GenerateFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++
	return fmt.Sprintf("mock-id-%06d", m.counter)
}

// MockIdempotencyStore is an in-memory IdempotencyStore.
type MockIdempotencyStore struct {
	mu   sync.Mutex
	data map[string]*usecase.StoredResponse

	ReserveFunc func(ctx context.Context, key string, ttl time.Duration) (bool, *usecase.StoredResponse, error)
	Completed   int
	Released    int
}

func NewMockIdempotencyStore() *MockIdempotencyStore {
	return &MockIdempotencyStore{
		data: make(map[string]*usecase.StoredResponse),
	}
}

func (m *MockIdempotencyStore) Reserve(ctx context.Context, key string, ttl time.Duration) (bool, *usecase.StoredResponse, error) {
	if m.ReserveFunc != nil {
		return m.ReserveFunc(ctx, key, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if stored, ok := m.data[key]; ok {
		return false, stored, nil
	}
	m.data[key] = nil
	return true, nil, nil
}

func (m *MockIdempotencyStore) Complete(ctx context.Context, key string, resp usecase.StoredResponse, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = &resp
	m.Completed++
	return nil
}

func (m *MockIdempotencyStore) Release(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	m.Released++
	return nil
}

// Keys returns the number of reserved or completed keys.
func (m *MockIdempotencyStore) Keys() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data)
}
