package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/bankledger/internal/adapter/http/dto"
	"github.com/iho/bankledger/internal/domain"
	"github.com/iho/bankledger/internal/usecase"
)

// LedgerService checks the ledger-wide invariant.
type LedgerService interface {
	CheckConsistency(ctx context.Context) (*usecase.ConsistencyReport, error)
}

// ReconciliationService recomputes balances from the transaction log.
type ReconciliationService interface {
	ReconcileAccount(ctx context.Context, iban string) (*usecase.ReconciliationResult, error)
	ReconcileCustomer(ctx context.Context, customerID string) ([]*usecase.ReconciliationResult, error)
}

// LedgerHandler handles ledger-wide operations.
type LedgerHandler struct {
	ledgerUC    LedgerService
	reconcileUC ReconciliationService
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(ledgerUC LedgerService, reconcileUC ReconciliationService) *LedgerHandler {
	return &LedgerHandler{ledgerUC: ledgerUC, reconcileUC: reconcileUC}
}

// CheckConsistency reports whether all balances add up. An inconsistent
// ledger is answered with 409 and the same report body.
func (h *LedgerHandler) CheckConsistency(w http.ResponseWriter, r *http.Request) {
	report, err := h.ledgerUC.CheckConsistency(r.Context())
	if errors.Is(err, domain.ErrInconsistentLedger) && report != nil {
		writeJSON(w, http.StatusConflict, dto.ConsistencyFromReport(report))
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ConsistencyFromReport(report))
}

// ReconcileAccount recomputes one account's balance.
func (h *LedgerHandler) ReconcileAccount(w http.ResponseWriter, r *http.Request) {
	result, err := h.reconcileUC.ReconcileAccount(r.Context(), chi.URLParam(r, "iban"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ReconciliationFromResult(result))
}

// ReconcileCustomer recomputes every account of one customer.
func (h *LedgerHandler) ReconcileCustomer(w http.ResponseWriter, r *http.Request) {
	results, err := h.reconcileUC.ReconcileCustomer(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := make([]*dto.ReconciliationResponse, len(results))
	for i, res := range results {
		resp[i] = dto.ReconciliationFromResult(res)
	}
	writeJSON(w, http.StatusOK, resp)
}
