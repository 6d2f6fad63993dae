package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/iho/bankledger/internal/adapter/http/dto"
	"github.com/iho/bankledger/internal/domain"
	"github.com/iho/bankledger/internal/usecase"
)

type ledgerServiceStub struct {
	report *usecase.ConsistencyReport
	err    error
}

func (s *ledgerServiceStub) CheckConsistency(ctx context.Context) (*usecase.ConsistencyReport, error) {
	return s.report, s.err
}

type reconciliationServiceStub struct {
	accountFn  func(ctx context.Context, iban string) (*usecase.ReconciliationResult, error)
	customerFn func(ctx context.Context, customerID string) ([]*usecase.ReconciliationResult, error)
}

func (s *reconciliationServiceStub) ReconcileAccount(ctx context.Context, iban string) (*usecase.ReconciliationResult, error) {
	return s.accountFn(ctx, iban)
}

func (s *reconciliationServiceStub) ReconcileCustomer(ctx context.Context, customerID string) ([]*usecase.ReconciliationResult, error) {
	return s.customerFn(ctx, customerID)
}

func report(balance, deposits, withdrawals string) *usecase.ConsistencyReport {
	r := &usecase.ConsistencyReport{
		TotalBalance:     decimal.RequireFromString(balance),
		TotalDeposits:    decimal.RequireFromString(deposits),
		TotalWithdrawals: decimal.RequireFromString(withdrawals),
	}
	r.Expected = r.TotalDeposits.Sub(r.TotalWithdrawals)
	r.Consistent = r.TotalBalance.Equal(r.Expected)
	return r
}

func TestLedgerHandler_CheckConsistency(t *testing.T) {
	tests := []struct {
		name       string
		stub       *ledgerServiceStub
		status     int
		consistent bool
	}{
		{"consistent", &ledgerServiceStub{report: report("80", "100", "20")}, http.StatusOK, true},
		{"drift", &ledgerServiceStub{report: report("85", "100", "20"), err: domain.ErrInconsistentLedger}, http.StatusConflict, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			NewLedgerHandler(tt.stub, nil).CheckConsistency(rec, newRequest(http.MethodGet, "/ledger/consistency", "", &employee))

			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, rec.Code)
			}
			var resp dto.ConsistencyResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if resp.Consistent != tt.consistent || resp.Expected != "80.00" {
				t.Fatalf("unexpected report: %+v", resp)
			}
		})
	}
}

func TestLedgerHandler_CheckConsistency_StorageError(t *testing.T) {
	rec := httptest.NewRecorder()
	stub := &ledgerServiceStub{err: errors.New("connection reset")}
	NewLedgerHandler(stub, nil).CheckConsistency(rec, newRequest(http.MethodGet, "/ledger/consistency", "", &employee))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestLedgerHandler_Reconcile(t *testing.T) {
	result := &usecase.ReconciliationResult{
		AccountID:         "a1",
		IBAN:              "NL01",
		RecordedBalance:   decimal.RequireFromString("15"),
		CalculatedBalance: decimal.RequireFromString("10"),
		Difference:        decimal.RequireFromString("5"),
		TransactionCount:  1,
	}
	handler := NewLedgerHandler(nil, &reconciliationServiceStub{
		accountFn: func(ctx context.Context, iban string) (*usecase.ReconciliationResult, error) {
			if iban != "NL01" {
				return nil, domain.ErrAccountNotFound
			}
			return result, nil
		},
		customerFn: func(ctx context.Context, customerID string) ([]*usecase.ReconciliationResult, error) {
			return []*usecase.ReconciliationResult{result}, nil
		},
	})

	rec := httptest.NewRecorder()
	handler.ReconcileAccount(rec, newRequest(http.MethodGet, "/ledger/reconcile/NL01", "", &employee, "iban", "NL01"))
	var resp dto.ReconciliationResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Reconciled || resp.Difference != "5.00" {
		t.Fatalf("unexpected result: %+v", resp)
	}

	rec = httptest.NewRecorder()
	handler.ReconcileAccount(rec, newRequest(http.MethodGet, "/ledger/reconcile/NL99", "", &employee, "iban", "NL99"))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ReconcileCustomer(rec, newRequest(http.MethodGet, "/ledger/reconcile/customer/c1", "", &employee, "id", "c1"))
	var list []dto.ReconciliationResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 result, got %d", len(list))
	}
}
