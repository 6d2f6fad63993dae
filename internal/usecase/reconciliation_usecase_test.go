package usecase_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/bankledger/internal/domain"
	"github.com/iho/bankledger/internal/usecase"
)

func TestReconciliationUseCase_ReconcileAccount(t *testing.T) {
	env := newTestEnv(t)
	a := env.newCustomer(t, "-200", "1000")
	b := env.newCustomer(t, "0", "1000")
	ctx := context.Background()

	env.deposit(t, a.current.IBAN, "100")
	_, err := env.transfers.Transfer(ctx, usecase.TransferInput{Actor: a.principal, FromIBAN: a.current.IBAN, ToIBAN: b.current.IBAN, Amount: amount("150.75")})
	require.NoError(t, err)
	_, err = env.transfers.Transfer(ctx, usecase.TransferInput{Actor: a.principal, FromIBAN: a.current.IBAN, ToIBAN: a.savings.IBAN, Amount: amount("20")})
	require.NoError(t, err)

	result, err := env.reconciler.ReconcileAccount(ctx, a.current.IBAN)
	require.NoError(t, err)
	assert.True(t, result.IsReconciled)
	assert.Equal(t, 3, result.TransactionCount)
	assert.Equal(t, "-70.75", result.RecordedBalance.StringFixed(2))
	assert.True(t, result.Difference.IsZero())
	assert.Equal(t, env.clock.Now(), result.LastChecked)

	results, err := env.reconciler.ReconcileCustomer(ctx, a.customer.ID)
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.True(t, r.IsReconciled, "account %s", r.IBAN)
	}
}

func TestReconciliationUseCase_DetectsDrift(t *testing.T) {
	env := newTestEnv(t)
	a := env.newCustomer(t, "0", "1000")
	ctx := context.Background()

	env.deposit(t, a.current.IBAN, "10")

	// move the balance without a matching log entry
	tx, err := env.txManager.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, env.accountRepo.UpdateBalance(ctx, tx, a.current.ID, amount("15"), env.clock.Now()))
	require.NoError(t, tx.Commit(ctx))

	result, err := env.reconciler.ReconcileAccount(ctx, a.current.IBAN)
	require.NoError(t, err)
	assert.False(t, result.IsReconciled)
	assert.Equal(t, "5.00", result.Difference.StringFixed(2))
	assert.Equal(t, "10.00", result.CalculatedBalance.StringFixed(2))

	_, err = env.ledger.CheckConsistency(ctx)
	require.ErrorIs(t, err, domain.ErrInconsistentLedger)
}

func TestReconciliationUseCase_UnknownAccount(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.reconciler.ReconcileAccount(context.Background(), "NL00MISS0000000000")
	require.ErrorIs(t, err, domain.ErrAccountNotFound)

	results, err := env.reconciler.ReconcileCustomer(context.Background(), "nobody")
	require.ErrorIs(t, err, domain.ErrCustomerNotFound)
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))
	assert.Nil(t, results)
}
