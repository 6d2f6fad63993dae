package postgres_test

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/bankledger/internal/adapter/repository/postgres"
	"github.com/iho/bankledger/internal/domain"
	"github.com/iho/bankledger/internal/infrastructure/idgen"
	pginfra "github.com/iho/bankledger/internal/infrastructure/postgres"
	"github.com/iho/bankledger/internal/usecase"
)

var employee = domain.Principal{UserID: "employee-1", Role: domain.RoleEmployee}

type stack struct {
	pool      *pgxpool.Pool
	approvals *usecase.ApprovalUseCase
	transfers *usecase.TransferUseCase
	accounts  *usecase.AccountUseCase
	history   *usecase.HistoryUseCase
	ledger    *usecase.LedgerUseCase
}

func newStack(t *testing.T) *stack {
	t.Helper()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set")
	}

	require.NoError(t, pginfra.RunMigrations(dbURL, "../../../infrastructure/postgres/migrations", zerolog.Nop()))

	ctx := context.Background()
	pool, err := pginfra.NewPool(ctx, dbURL, 10, 1)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = pool.Exec(ctx, `TRUNCATE outbox_events, transactions, accounts, customers, registrations`)
	require.NoError(t, err)

	txManager := postgres.NewTxManager(pool)
	accountRepo := postgres.NewAccountRepository(pool)
	transactionRepo := postgres.NewTransactionRepository(pool)
	customerRepo := postgres.NewCustomerRepository(pool)
	outboxRepo := postgres.NewOutboxRepository(pool)
	ids := idgen.NewULIDGenerator()
	opts := []usecase.Option{usecase.WithLocation(time.UTC)}

	return &stack{
		pool:      pool,
		approvals: usecase.NewApprovalUseCase(txManager, postgres.NewRegistrationRepository(pool), customerRepo, accountRepo, outboxRepo, ids, opts...),
		transfers: usecase.NewTransferUseCase(txManager, accountRepo, transactionRepo, outboxRepo, ids, postgres.NewRetrier(zerolog.Nop()), opts...),
		accounts:  usecase.NewAccountUseCase(txManager, accountRepo, customerRepo, outboxRepo, ids, opts...),
		history:   usecase.NewHistoryUseCase(accountRepo, customerRepo, transactionRepo, opts...),
		ledger:    usecase.NewLedgerUseCase(postgres.NewLedgerRepository(pool)),
	}
}

func (s *stack) customer(t *testing.T, n int, absoluteLimit, dailyLimit string) (domain.Principal, *usecase.ApprovalResult) {
	t.Helper()
	ctx := context.Background()

	reg, err := s.approvals.SubmitRegistration(ctx, usecase.RegistrationInput{
		FirstName:   "Int",
		LastName:    fmt.Sprintf("Customer%d", n),
		Email:       fmt.Sprintf("int%d@example.com", n),
		BSN:         []string{"111222333", "123456782"}[n%2],
		PhoneNumber: "+31612345678",
	})
	require.NoError(t, err)

	result, err := s.approvals.Approve(ctx, usecase.ApproveInput{
		Actor:          employee,
		RegistrationID: reg.ID,
		AbsoluteLimit:  decimal.RequireFromString(absoluteLimit),
		DailyLimit:     decimal.RequireFromString(dailyLimit),
	})
	require.NoError(t, err)

	return domain.Principal{UserID: result.Customer.ID, Role: domain.RoleCustomer}, result
}

func TestPostgresLedgerFlow(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()

	alice, a := s.customer(t, 0, "-500", "1000")
	_, b := s.customer(t, 1, "0", "1000")

	_, err := s.transfers.ATMDeposit(ctx, usecase.CashInput{Actor: employee, IBAN: a.Accounts[0].IBAN, Amount: decimal.NewFromInt(100)})
	require.NoError(t, err)

	_, err = s.transfers.Transfer(ctx, usecase.TransferInput{
		Actor:    alice,
		FromIBAN: a.Accounts[0].IBAN,
		ToIBAN:   a.Accounts[1].IBAN,
		Amount:   decimal.RequireFromString("25.50"),
	})
	require.NoError(t, err)

	_, err = s.transfers.Transfer(ctx, usecase.TransferInput{
		Actor:    alice,
		FromIBAN: a.Accounts[1].IBAN,
		ToIBAN:   b.Accounts[0].IBAN,
		Amount:   decimal.RequireFromString("30"),
	})
	require.ErrorIs(t, err, domain.ErrInsufficientFunds, "savings accounts never go negative")

	history, err := s.history.CustomerHistory(ctx, alice, a.Customer.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)

	report, err := s.ledger.CheckConsistency(ctx)
	require.NoError(t, err)
	assert.Equal(t, "100.00", report.TotalBalance.StringFixed(2))

	_, err = s.approvals.SubmitRegistration(ctx, usecase.RegistrationInput{
		FirstName: "Dup", LastName: "Licate", Email: "INT0@example.com", BSN: "100000009", PhoneNumber: "+31612345678",
	})
	require.ErrorIs(t, err, domain.ErrDuplicateEmail)
}

func TestPostgresConcurrentWithdrawals(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()

	owner, c := s.customer(t, 0, "0", "100000")
	iban := c.Accounts[0].IBAN

	_, err := s.transfers.ATMDeposit(ctx, usecase.CashInput{Actor: employee, IBAN: iban, Amount: decimal.NewFromInt(100)})
	require.NoError(t, err)

	const workers = 20
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.transfers.ATMWithdraw(ctx, usecase.CashInput{Actor: owner, IBAN: iban, Amount: decimal.NewFromInt(10)})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
				return
			}
			if domain.KindOf(err) != domain.KindInsufficientFunds {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, succeeded)

	acc, err := s.accounts.GetAccount(ctx, owner, iban)
	require.NoError(t, err)
	assert.True(t, acc.Balance.IsZero())

	_, err = s.ledger.CheckConsistency(ctx)
	require.NoError(t, err)
}
