package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/bankledger/internal/adapter/http/dto"
	"github.com/iho/bankledger/internal/domain"
	"github.com/iho/bankledger/internal/usecase"
)

type accountServiceStub struct {
	createFn func(ctx context.Context, input usecase.CreateAccountInput) (*domain.Account, error)
	getFn    func(ctx context.Context, actor domain.Principal, id string) (*domain.Account, error)
	listFn   func(ctx context.Context, actor domain.Principal, customerID string) ([]*domain.Account, error)
	closeFn  func(ctx context.Context, actor domain.Principal, id string) (*domain.Account, error)
	limitsFn func(ctx context.Context, input usecase.UpdateLimitsInput) (*domain.Account, error)
}

func (s *accountServiceStub) CreateAccount(ctx context.Context, input usecase.CreateAccountInput) (*domain.Account, error) {
	return s.createFn(ctx, input)
}

func (s *accountServiceStub) GetAccount(ctx context.Context, actor domain.Principal, iban string) (*domain.Account, error) {
	return s.getFn(ctx, actor, iban)
}

func (s *accountServiceStub) GetAccountByID(ctx context.Context, actor domain.Principal, id string) (*domain.Account, error) {
	return s.getFn(ctx, actor, id)
}

func (s *accountServiceStub) ListCustomerAccounts(ctx context.Context, actor domain.Principal, customerID string) ([]*domain.Account, error) {
	return s.listFn(ctx, actor, customerID)
}

func (s *accountServiceStub) CloseAccount(ctx context.Context, actor domain.Principal, id string) (*domain.Account, error) {
	return s.closeFn(ctx, actor, id)
}

func (s *accountServiceStub) UpdateLimits(ctx context.Context, input usecase.UpdateLimitsInput) (*domain.Account, error) {
	return s.limitsFn(ctx, input)
}

type accountTransactionsStub struct {
	fn func(ctx context.Context, actor domain.Principal, accountID string) ([]*domain.Transaction, error)
}

func (s *accountTransactionsStub) AccountTransactions(ctx context.Context, actor domain.Principal, accountID string) ([]*domain.Transaction, error) {
	return s.fn(ctx, actor, accountID)
}

func sampleAccount(id string) *domain.Account {
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	return &domain.Account{
		ID:            id,
		IBAN:          "NL12INHO0000000001",
		OwnerID:       customer.UserID,
		Type:          domain.AccountTypeCurrent,
		Balance:       decimal.RequireFromString("10.5"),
		AbsoluteLimit: decimal.RequireFromString("-100"),
		DailyLimit:    decimal.RequireFromString("500"),
		Active:        true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func TestAccountHandler_Create_Success(t *testing.T) {
	var captured usecase.CreateAccountInput
	handler := NewAccountHandler(&accountServiceStub{
		createFn: func(ctx context.Context, input usecase.CreateAccountInput) (*domain.Account, error) {
			captured = input
			return sampleAccount("acc-1"), nil
		},
	}, nil)

	body := `{"ownerId":"cust-1","type":"CURRENT","absoluteLimit":"-100","dailyLimit":500}`
	rec := httptest.NewRecorder()
	handler.Create(rec, newRequest(http.MethodPost, "/accounts", body, &employee))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if captured.Actor != employee || captured.OwnerID != "cust-1" || captured.Type != domain.AccountTypeCurrent {
		t.Fatalf("expected input to match request, got %+v", captured)
	}
	if captured.AbsoluteLimit.String() != "-100" || captured.DailyLimit.String() != "500" {
		t.Fatalf("unexpected limits: %s %s", captured.AbsoluteLimit, captured.DailyLimit)
	}

	var resp dto.AccountResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.ID != "acc-1" || resp.Balance != "10.50" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestAccountHandler_Create_ValidationError(t *testing.T) {
	called := false
	handler := NewAccountHandler(&accountServiceStub{
		createFn: func(ctx context.Context, input usecase.CreateAccountInput) (*domain.Account, error) {
			called = true
			return nil, nil
		},
	}, nil)

	rec := httptest.NewRecorder()
	handler.Create(rec, newRequest(http.MethodPost, "/accounts", `{"ownerId":"cust-1","type":"CHECKING"}`, &employee))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if called {
		t.Fatal("service must not be called for an invalid request")
	}
	if resp := decodeError(t, rec); resp.Kind != domain.KindInvalidRequest {
		t.Fatalf("expected InvalidRequest, got %s", resp.Kind)
	}
}

func TestAccountHandler_Create_Unauthenticated(t *testing.T) {
	handler := NewAccountHandler(&accountServiceStub{}, nil)

	rec := httptest.NewRecorder()
	handler.Create(rec, newRequest(http.MethodPost, "/accounts", `{}`, nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAccountHandler_Get_MapsErrors(t *testing.T) {
	tests := []struct {
		err    error
		status int
		kind   domain.Kind
	}{
		{domain.ErrAccountNotFound, http.StatusNotFound, domain.KindAccountNotFound},
		{domain.ErrForbidden, http.StatusForbidden, domain.KindForbidden},
		{fmt.Errorf("wrapped: %w", domain.ErrAccountNotFound), http.StatusNotFound, domain.KindAccountNotFound},
	}

	for _, tt := range tests {
		handler := NewAccountHandler(&accountServiceStub{
			getFn: func(ctx context.Context, actor domain.Principal, id string) (*domain.Account, error) {
				return nil, tt.err
			},
		}, nil)

		rec := httptest.NewRecorder()
		handler.Get(rec, newRequest(http.MethodGet, "/accounts/acc-1", "", &customer, "id", "acc-1"))

		if rec.Code != tt.status {
			t.Fatalf("%v: expected %d, got %d", tt.err, tt.status, rec.Code)
		}
		if resp := decodeError(t, rec); resp.Kind != tt.kind {
			t.Fatalf("%v: expected kind %s, got %s", tt.err, tt.kind, resp.Kind)
		}
	}
}

func TestAccountHandler_GetByIBAN(t *testing.T) {
	var gotIBAN string
	handler := NewAccountHandler(&accountServiceStub{
		getFn: func(ctx context.Context, actor domain.Principal, iban string) (*domain.Account, error) {
			gotIBAN = iban
			return sampleAccount("acc-1"), nil
		},
	}, nil)

	rec := httptest.NewRecorder()
	handler.GetByIBAN(rec, newRequest(http.MethodGet, "/accounts/iban/x", "", &customer, "iban", "NL12INHO0000000001"))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if gotIBAN != "NL12INHO0000000001" {
		t.Fatalf("expected IBAN from path, got %q", gotIBAN)
	}
}

func TestAccountHandler_ListByUser(t *testing.T) {
	handler := NewAccountHandler(&accountServiceStub{
		listFn: func(ctx context.Context, actor domain.Principal, customerID string) ([]*domain.Account, error) {
			if customerID != "cust-1" {
				t.Fatalf("unexpected customer id %q", customerID)
			}
			return []*domain.Account{sampleAccount("a1"), sampleAccount("a2")}, nil
		},
	}, nil)

	rec := httptest.NewRecorder()
	handler.ListByUser(rec, newRequest(http.MethodGet, "/accounts/user/cust-1", "", &customer, "userId", "cust-1"))

	var resp []dto.AccountResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp) != 2 {
		t.Fatalf("expected 2 accounts, got %d", len(resp))
	}
}

func TestAccountHandler_Close_NotEmpty(t *testing.T) {
	handler := NewAccountHandler(&accountServiceStub{
		closeFn: func(ctx context.Context, actor domain.Principal, id string) (*domain.Account, error) {
			return nil, domain.ErrAccountNotEmpty
		},
	}, nil)

	rec := httptest.NewRecorder()
	handler.Close(rec, newRequest(http.MethodPut, "/accounts/acc-1", "", &customer, "id", "acc-1"))

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestAccountHandler_UpdateLimits(t *testing.T) {
	var captured usecase.UpdateLimitsInput
	handler := NewAccountHandler(&accountServiceStub{
		limitsFn: func(ctx context.Context, input usecase.UpdateLimitsInput) (*domain.Account, error) {
			captured = input
			return sampleAccount(input.AccountID), nil
		},
	}, nil)

	rec := httptest.NewRecorder()
	req := newRequest(http.MethodPut, "/employee/accounts/acc-9/limits",
		`{"absoluteLimit":"-250.00","dailyLimit":"1000"}`, &employee, "id", "acc-9")
	handler.UpdateLimits(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if captured.AccountID != "acc-9" || captured.AbsoluteLimit.StringFixed(2) != "-250.00" {
		t.Fatalf("unexpected input: %+v", captured)
	}
}

func TestAccountHandler_Transactions(t *testing.T) {
	handler := NewAccountHandler(nil, &accountTransactionsStub{
		fn: func(ctx context.Context, actor domain.Principal, accountID string) ([]*domain.Transaction, error) {
			return []*domain.Transaction{{
				ID:       "tx-1",
				FromIBAN: "NL01",
				ToIBAN:   "NL02",
				Amount:   decimal.RequireFromString("3"),
				Type:     domain.TransactionTypeTransfer,
			}}, nil
		},
	})

	rec := httptest.NewRecorder()
	handler.Transactions(rec, newRequest(http.MethodGet, "/accounts/acc-1/transactions", "", &customer, "id", "acc-1"))

	var resp []dto.TransactionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp) != 1 || resp[0].Amount != "3.00" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}
