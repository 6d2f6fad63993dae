package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/bankledger/internal/adapter/http/dto"
	"github.com/iho/bankledger/internal/domain"
	"github.com/iho/bankledger/internal/usecase"
)

// AccountService defines the behavior needed by AccountHandler.
type AccountService interface {
	CreateAccount(ctx context.Context, input usecase.CreateAccountInput) (*domain.Account, error)
	GetAccount(ctx context.Context, actor domain.Principal, iban string) (*domain.Account, error)
	GetAccountByID(ctx context.Context, actor domain.Principal, id string) (*domain.Account, error)
	ListCustomerAccounts(ctx context.Context, actor domain.Principal, customerID string) ([]*domain.Account, error)
	CloseAccount(ctx context.Context, actor domain.Principal, id string) (*domain.Account, error)
	UpdateLimits(ctx context.Context, input usecase.UpdateLimitsInput) (*domain.Account, error)
}

// AccountTransactionService lists the raw log of one account.
type AccountTransactionService interface {
	AccountTransactions(ctx context.Context, actor domain.Principal, accountID string) ([]*domain.Transaction, error)
}

// AccountHandler handles account-related HTTP requests.
type AccountHandler struct {
	accountUC AccountService
	historyUC AccountTransactionService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accountUC AccountService, historyUC AccountTransactionService) *AccountHandler {
	return &AccountHandler{accountUC: accountUC, historyUC: historyUC}
}

// Create opens a new account.
func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, err := principal(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req dto.CreateAccountRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	input, err := req.ToUseCaseInput(actor)
	if err != nil {
		writeError(w, r, err)
		return
	}

	account, err := h.accountUC.CreateAccount(r.Context(), input)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.AccountFromDomain(account))
}

// Get retrieves an account by ID.
func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, err := principal(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	account, err := h.accountUC.GetAccountByID(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountFromDomain(account))
}

// GetByIBAN retrieves an account by IBAN.
func (h *AccountHandler) GetByIBAN(w http.ResponseWriter, r *http.Request) {
	actor, err := principal(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	account, err := h.accountUC.GetAccount(r.Context(), actor, chi.URLParam(r, "iban"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountFromDomain(account))
}

// ListByUser returns a customer's active accounts.
func (h *AccountHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	actor, err := principal(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	accounts, err := h.accountUC.ListCustomerAccounts(r.Context(), actor, chi.URLParam(r, "userId"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountsFromDomain(accounts))
}

// Close deactivates an account whose balance is zero.
func (h *AccountHandler) Close(w http.ResponseWriter, r *http.Request) {
	actor, err := principal(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	account, err := h.accountUC.CloseAccount(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountFromDomain(account))
}

// UpdateLimits changes an account's absolute and daily limits.
func (h *AccountHandler) UpdateLimits(w http.ResponseWriter, r *http.Request) {
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

	input, err := req.ToUpdateLimitsInput(actor, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	account, err := h.accountUC.UpdateLimits(r.Context(), input)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountFromDomain(account))
}

// Transactions returns the raw per-account log.
func (h *AccountHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	actor, err := principal(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	txs, err := h.historyUC.AccountTransactions(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionsFromDomain(txs))
}
