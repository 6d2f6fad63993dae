package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/iho/bankledger/internal/adapter/http/dto"
	"github.com/iho/bankledger/internal/domain"
	"github.com/iho/bankledger/internal/usecase"
)

type approvalServiceStub struct {
	submitFn  func(ctx context.Context, input usecase.RegistrationInput) (*domain.PendingRegistration, error)
	pendingFn func(ctx context.Context, actor domain.Principal, limit, offset int) ([]*domain.PendingRegistration, error)
	approveFn func(ctx context.Context, input usecase.ApproveInput) (*usecase.ApprovalResult, error)
	rejectFn  func(ctx context.Context, actor domain.Principal, id string) error
}

func (s *approvalServiceStub) SubmitRegistration(ctx context.Context, input usecase.RegistrationInput) (*domain.PendingRegistration, error) {
	return s.submitFn(ctx, input)
}

func (s *approvalServiceStub) ListPending(ctx context.Context, actor domain.Principal, limit, offset int) ([]*domain.PendingRegistration, error) {
	return s.pendingFn(ctx, actor, limit, offset)
}

func (s *approvalServiceStub) Approve(ctx context.Context, input usecase.ApproveInput) (*usecase.ApprovalResult, error) {
	return s.approveFn(ctx, input)
}

func (s *approvalServiceStub) Reject(ctx context.Context, actor domain.Principal, id string) error {
	return s.rejectFn(ctx, actor, id)
}

const registrationBody = `{"firstName":"Ada","lastName":"Lovelace","email":"ada@example.com","bsn":"100000009","phoneNumber":"+31 6 12345678"}`

func TestRegistrationHandler_Submit_Public(t *testing.T) {
	var captured usecase.RegistrationInput
	handler := NewRegistrationHandler(&approvalServiceStub{
		submitFn: func(ctx context.Context, input usecase.RegistrationInput) (*domain.PendingRegistration, error) {
			captured = input
			return &domain.PendingRegistration{ID: "reg-1", FirstName: input.FirstName}, nil
		},
	})

	rec := httptest.NewRecorder()
	handler.Submit(rec, newRequest(http.MethodPost, "/registrations", registrationBody, nil))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if captured.Email != "ada@example.com" || captured.BSN != "100000009" {
		t.Fatalf("unexpected input: %+v", captured)
	}
}

func TestRegistrationHandler_Submit_Duplicate(t *testing.T) {
	handler := NewRegistrationHandler(&approvalServiceStub{
		submitFn: func(ctx context.Context, input usecase.RegistrationInput) (*domain.PendingRegistration, error) {
			return nil, domain.ErrDuplicateBSN
		},
	})

	rec := httptest.NewRecorder()
	handler.Submit(rec, newRequest(http.MethodPost, "/registrations", registrationBody, nil))

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	if resp := decodeError(t, rec); resp.Kind != domain.KindDuplicateBSN {
		t.Fatalf("expected DuplicateBsn, got %s", resp.Kind)
	}
}

func TestRegistrationHandler_Submit_BadBSN(t *testing.T) {
	handler := NewRegistrationHandler(&approvalServiceStub{})

	rec := httptest.NewRecorder()
	body := `{"firstName":"Ada","lastName":"Lovelace","email":"ada@example.com","bsn":"12ab","phoneNumber":"+31 6 12345678"}`
	handler.Submit(rec, newRequest(http.MethodPost, "/registrations", body, nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestRegistrationHandler_ListPending(t *testing.T) {
	handler := NewRegistrationHandler(&approvalServiceStub{
		pendingFn: func(ctx context.Context, actor domain.Principal, limit, offset int) ([]*domain.PendingRegistration, error) {
			if limit != 50 || offset != 0 {
				t.Fatalf("expected default paging, got %d/%d", limit, offset)
			}
			return []*domain.PendingRegistration{{ID: "reg-1"}, {ID: "reg-2"}}, nil
		},
	})

	rec := httptest.NewRecorder()
	handler.ListPending(rec, newRequest(http.MethodGet, "/employee/pending-approvals", "", &employee))

	var resp []dto.RegistrationResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp) != 2 {
		t.Fatalf("expected 2 registrations, got %d", len(resp))
	}
}

func TestRegistrationHandler_Approve(t *testing.T) {
	var captured usecase.ApproveInput
	handler := NewRegistrationHandler(&approvalServiceStub{
		approveFn: func(ctx context.Context, input usecase.ApproveInput) (*usecase.ApprovalResult, error) {
			captured = input
			return &usecase.ApprovalResult{
				Customer: &domain.Customer{ID: "cust-9"},
				Accounts: []*domain.Account{sampleAccount("a1"), sampleAccount("a2")},
			}, nil
		},
	})

	rec := httptest.NewRecorder()
	handler.Approve(rec, newRequest(http.MethodPost, "/employee/approve-customer/reg-1",
		`{"absoluteLimit":-500,"dailyLimit":2000}`, &employee, "id", "reg-1"))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if captured.RegistrationID != "reg-1" || captured.AbsoluteLimit.String() != "-500" {
		t.Fatalf("unexpected input: %+v", captured)
	}

	var resp dto.ApprovalResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Customer.ID != "cust-9" || len(resp.Accounts) != 2 {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestRegistrationHandler_Approve_Twice(t *testing.T) {
	handler := NewRegistrationHandler(&approvalServiceStub{
		approveFn: func(ctx context.Context, input usecase.ApproveInput) (*usecase.ApprovalResult, error) {
			return nil, domain.ErrAlreadyApproved
		},
	})

	rec := httptest.NewRecorder()
	handler.Approve(rec, newRequest(http.MethodPost, "/employee/approve-customer/reg-1",
		`{"absoluteLimit":0,"dailyLimit":100}`, &employee, "id", "reg-1"))

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestRegistrationHandler_Reject(t *testing.T) {
	var rejected string
	handler := NewRegistrationHandler(&approvalServiceStub{
		rejectFn: func(ctx context.Context, actor domain.Principal, id string) error {
			rejected = id
			return nil
		},
	})

	rec := httptest.NewRecorder()
	handler.Reject(rec, newRequest(http.MethodPost, "/employee/reject-customer/reg-3", "", &employee, "id", "reg-3"))

	if rec.Code != http.StatusNoContent || rejected != "reg-3" {
		t.Fatalf("expected 204 for reg-3, got %d for %q", rec.Code, rejected)
	}
}
