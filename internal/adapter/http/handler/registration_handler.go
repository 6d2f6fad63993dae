package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/bankledger/internal/adapter/http/dto"
	"github.com/iho/bankledger/internal/domain"
	"github.com/iho/bankledger/internal/usecase"
)

// ApprovalService defines the registration workflow.
type ApprovalService interface {
	SubmitRegistration(ctx context.Context, input usecase.RegistrationInput) (*domain.PendingRegistration, error)
	ListPending(ctx context.Context, actor domain.Principal, limit, offset int) ([]*domain.PendingRegistration, error)
	Approve(ctx context.Context, input usecase.ApproveInput) (*usecase.ApprovalResult, error)
	Reject(ctx context.Context, actor domain.Principal, registrationID string) error
}

// RegistrationHandler handles sign-ups and employee approvals.
type RegistrationHandler struct {
	approvalUC ApprovalService
}

// NewRegistrationHandler creates a new RegistrationHandler.
func NewRegistrationHandler(approvalUC ApprovalService) *RegistrationHandler {
	return &RegistrationHandler{approvalUC: approvalUC}
}

// Submit records a new pending registration. It needs no authentication.
func (h *RegistrationHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req dto.RegistrationRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	reg, err := h.approvalUC.SubmitRegistration(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.RegistrationFromDomain(reg))
}

// ListPending returns registrations awaiting a decision.
func (h *RegistrationHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	actor, err := principal(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	regs, err := h.approvalUC.ListPending(
		r.Context(),
		actor,
		parseIntQuery(r, "limit", 50),
		parseIntQuery(r, "offset", 0),
	)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.RegistrationsFromDomain(regs))
}

// Approve turns a registration into a customer with two accounts.
func (h *RegistrationHandler) Approve(w http.ResponseWriter, r *http.Request) {
	actor, err := principal(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req dto.LimitsRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	input, err := req.ToApproveInput(actor, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	result, err := h.approvalUC.Approve(r.Context(), input)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.ApprovalFromResult(result))
}

// Reject discards a pending registration.
func (h *RegistrationHandler) Reject(w http.ResponseWriter, r *http.Request) {
	actor, err := principal(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.approvalUC.Reject(r.Context(), actor, chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
