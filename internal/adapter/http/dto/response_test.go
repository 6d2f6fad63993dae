package dto

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/iho/bankledger/internal/domain"
	"github.com/iho/bankledger/internal/usecase"
)

func TestAccountFromDomain(t *testing.T) {
	now := time.Now()
	account := &domain.Account{
		ID:            "acc-1",
		IBAN:          "NL91INHO0417164300",
		OwnerID:       "c1",
		Type:          domain.AccountTypeCurrent,
		Balance:       decimal.RequireFromString("123.4"),
		AbsoluteLimit: decimal.RequireFromString("-500"),
		DailyLimit:    decimal.RequireFromString("1000"),
		Active:        true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	resp := AccountFromDomain(account)
	assert.Equal(t, "123.40", resp.Balance)
	assert.Equal(t, "-500.00", resp.AbsoluteLimit)
	assert.Equal(t, "1000.00", resp.DailyLimit)
	assert.Equal(t, "CURRENT", resp.Type)
	assert.Nil(t, resp.LastTransactionAt)
}

func TestTransactionsFromDomain(t *testing.T) {
	txs := []*domain.Transaction{{
		ID:               "t1",
		FromIBAN:         domain.CashIBAN,
		ToIBAN:           "NL01",
		Amount:           decimal.NewFromInt(20),
		Type:             domain.TransactionTypeDeposit,
		PerformingUserID: "c1",
	}}

	resp := TransactionsFromDomain(txs)
	assert.Len(t, resp, 1)
	assert.Equal(t, "20.00", resp[0].Amount)
	assert.Equal(t, "DEPOSIT", resp[0].Type)
	assert.Equal(t, domain.CashIBAN, resp[0].FromIBAN)
}

func TestApprovalFromResult(t *testing.T) {
	res := &usecase.ApprovalResult{
		Customer: &domain.Customer{ID: "c1", Email: "a@b.nl"},
		Accounts: []*domain.Account{
			{ID: "a1", Type: domain.AccountTypeCurrent},
			{ID: "a2", Type: domain.AccountTypeSavings},
		},
	}

	resp := ApprovalFromResult(res)
	assert.Equal(t, "c1", resp.Customer.ID)
	assert.Len(t, resp.Accounts, 2)
	assert.Equal(t, "0.00", resp.Accounts[1].Balance)
}

func TestNewErrorResponse(t *testing.T) {
	tests := []struct {
		err    error
		status int
		kind   domain.Kind
	}{
		{domain.ErrInvalidAmount, http.StatusBadRequest, domain.KindInvalidAmount},
		{domain.ErrSameAccount, http.StatusBadRequest, domain.KindSameAccount},
		{fmt.Errorf("limit: %w", domain.ErrDailyLimitExceeded), http.StatusUnprocessableEntity, domain.KindDailyLimitExceeded},
		{domain.ErrInsufficientFunds, http.StatusUnprocessableEntity, domain.KindInsufficientFunds},
		{domain.ErrAccountNotEmpty, http.StatusConflict, domain.KindAccountNotEmpty},
		{domain.ErrDuplicateBSN, http.StatusConflict, domain.KindDuplicateBSN},
		{domain.ErrRequestInProgress, http.StatusConflict, domain.KindRequestInProgress},
		{domain.ErrAccountNotFound, http.StatusNotFound, domain.KindAccountNotFound},
		{domain.ErrRegistrationNotFound, http.StatusNotFound, domain.KindNotFound},
		{domain.ErrExpiredToken, http.StatusUnauthorized, domain.KindUnauthorized},
		{domain.ErrForbidden, http.StatusForbidden, domain.KindForbidden},
		{domain.ErrRateLimited, http.StatusTooManyRequests, domain.KindRateLimited},
		{domain.ErrTransferFailed, http.StatusServiceUnavailable, domain.KindTransferFailed},
	}

	for _, tt := range tests {
		status, body := NewErrorResponse(tt.err)
		assert.Equal(t, tt.status, status, tt.err.Error())
		assert.Equal(t, tt.kind, body.Kind)
		assert.Equal(t, tt.err.Error(), body.Message)
	}

	status, body := NewErrorResponse(errors.New("pq: connection reset"))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, domain.KindInternal, body.Kind)
	assert.Equal(t, "internal server error", body.Message)
}
