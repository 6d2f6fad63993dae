package usecase_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/iho/bankledger/internal/adapter/repository/memory"
	"github.com/iho/bankledger/internal/domain"
	"github.com/iho/bankledger/internal/infrastructure/idgen"
	"github.com/iho/bankledger/internal/usecase"
	"github.com/iho/bankledger/internal/usecase/mocks"
)

var employee = domain.Principal{UserID: "employee-1", Role: domain.RoleEmployee}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type recordingMetrics struct {
	mu         sync.Mutex
	committed  map[domain.TransactionType]int
	rejections map[domain.Kind]int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{
		committed:  make(map[domain.TransactionType]int),
		rejections: make(map[domain.Kind]int),
	}
}

func (m *recordingMetrics) ObserveTransaction(txType domain.TransactionType, _ decimal.Decimal, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.committed[txType]++
}

func (m *recordingMetrics) ObserveRejection(_ domain.TransactionType, kind domain.Kind) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rejections[kind]++
}

type testEnv struct {
	store     *memory.Store
	clock     *fakeClock
	metrics   *recordingMetrics
	txManager *mocks.MockTransactionManager
	retrier   usecase.Retrier

	accountRepo     *memory.AccountRepository
	transactionRepo *memory.TransactionRepository
	outboxRepo      *memory.OutboxRepository

	accounts   *usecase.AccountUseCase
	transfers  *usecase.TransferUseCase
	approvals  *usecase.ApprovalUseCase
	history    *usecase.HistoryUseCase
	customers  *usecase.CustomerUseCase
	ledger     *usecase.LedgerUseCase
	reconciler *usecase.ReconciliationUseCase
}

type envOption func(*testEnv)

func withRetrier(r usecase.Retrier) envOption {
	return func(e *testEnv) { e.retrier = r }
}

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()

	store := memory.NewStore()
	env := &testEnv{
		store:           store,
		clock:           newFakeClock(),
		metrics:         newRecordingMetrics(),
		txManager:       &mocks.MockTransactionManager{Next: memory.NewTxManager(store)},
		accountRepo:     memory.NewAccountRepository(store),
		transactionRepo: memory.NewTransactionRepository(store),
		outboxRepo:      memory.NewOutboxRepository(store),
	}
	for _, opt := range opts {
		opt(env)
	}

	customerRepo := memory.NewCustomerRepository(store)
	registrationRepo := memory.NewRegistrationRepository(store)
	ids := idgen.NewULIDGenerator()

	ucOpts := []usecase.Option{
		usecase.WithClock(env.clock.Now),
		usecase.WithLocation(time.UTC),
		usecase.WithMetrics(env.metrics),
	}

	env.accounts = usecase.NewAccountUseCase(env.txManager, env.accountRepo, customerRepo, env.outboxRepo, ids, ucOpts...)
	env.transfers = usecase.NewTransferUseCase(env.txManager, env.accountRepo, env.transactionRepo, env.outboxRepo, ids, env.retrier, ucOpts...)
	env.approvals = usecase.NewApprovalUseCase(env.txManager, registrationRepo, customerRepo, env.accountRepo, env.outboxRepo, ids, ucOpts...)
	env.history = usecase.NewHistoryUseCase(env.accountRepo, customerRepo, env.transactionRepo, ucOpts...)
	env.customers = usecase.NewCustomerUseCase(customerRepo)
	env.ledger = usecase.NewLedgerUseCase(memory.NewLedgerRepository(store))
	env.reconciler = usecase.NewReconciliationUseCase(env.accountRepo, customerRepo, env.transactionRepo, ucOpts...)

	return env
}

// validBSN derives a unique 9-digit number passing the eleven-test.
func validBSN(seed int) string {
	for prefix := 10000000 + seed*13; ; prefix++ {
		digits := fmt.Sprintf("%08d", prefix)
		sum := 0
		for i, r := range digits {
			sum += (9 - i) * int(r-'0')
		}
		for last := 0; last <= 9; last++ {
			if (sum-last)%11 == 0 {
				return fmt.Sprintf("%s%d", digits, last)
			}
		}
	}
}

type customerFixture struct {
	customer  *domain.Customer
	principal domain.Principal
	current   *domain.Account
	savings   *domain.Account
}

var customerSeq struct {
	mu sync.Mutex
	n  int
}

// newCustomer registers and approves a customer with the given limits.
func (e *testEnv) newCustomer(t *testing.T, absoluteLimit, dailyLimit string) customerFixture {
	t.Helper()

	customerSeq.mu.Lock()
	customerSeq.n++
	n := customerSeq.n
	customerSeq.mu.Unlock()

	reg, err := e.approvals.SubmitRegistration(context.Background(), usecase.RegistrationInput{
		FirstName:   "Test",
		LastName:    fmt.Sprintf("Customer%d", n),
		Email:       fmt.Sprintf("customer%d@example.com", n),
		BSN:         validBSN(n),
		PhoneNumber: "+31612345678",
	})
	require.NoError(t, err)

	result, err := e.approvals.Approve(context.Background(), usecase.ApproveInput{
		Actor:          employee,
		RegistrationID: reg.ID,
		AbsoluteLimit:  decimal.RequireFromString(absoluteLimit),
		DailyLimit:     decimal.RequireFromString(dailyLimit),
	})
	require.NoError(t, err)
	require.Len(t, result.Accounts, 2)

	return customerFixture{
		customer:  result.Customer,
		principal: domain.Principal{UserID: result.Customer.ID, Role: domain.RoleCustomer},
		current:   result.Accounts[0],
		savings:   result.Accounts[1],
	}
}

func (e *testEnv) deposit(t *testing.T, iban, amount string) *domain.Transaction {
	t.Helper()

	tx, err := e.transfers.ATMDeposit(context.Background(), usecase.CashInput{
		Actor:  employee,
		IBAN:   iban,
		Amount: decimal.RequireFromString(amount),
	})
	require.NoError(t, err)
	return tx
}

func (e *testEnv) balance(t *testing.T, iban string) decimal.Decimal {
	t.Helper()

	acc, err := e.accountRepo.GetByIBAN(context.Background(), iban)
	require.NoError(t, err)
	return acc.Balance
}

func amount(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
