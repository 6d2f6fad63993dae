package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/iho/bankledger/internal/adapter/http/dto"
	"github.com/iho/bankledger/internal/adapter/http/middleware"
	"github.com/iho/bankledger/internal/domain"
	"github.com/iho/bankledger/internal/usecase"
)

// TransferService defines the money movements exposed over HTTP.
type TransferService interface {
	Transfer(ctx context.Context, input usecase.TransferInput) (*domain.Transaction, error)
	ATMWithdraw(ctx context.Context, input usecase.CashInput) (*domain.Transaction, error)
	ATMDeposit(ctx context.Context, input usecase.CashInput) (*domain.Transaction, error)
}

// TransactionQueryService reads transactions.
type TransactionQueryService interface {
	GetTransaction(ctx context.Context, actor domain.Principal, id string) (*domain.Transaction, error)
	AllTransactions(ctx context.Context, actor domain.Principal, filter domain.TransactionFilter, limit, offset int) ([]*domain.Transaction, error)
}

// TransactionHandler handles transfers, ATM operations and transaction reads.
type TransactionHandler struct {
	transferUC TransferService
	queryUC    TransactionQueryService
	location   *time.Location
}

// NewTransactionHandler creates a new TransactionHandler. loc defines the
// calendar day used by date filters.
func NewTransactionHandler(transferUC TransferService, queryUC TransactionQueryService, loc *time.Location) *TransactionHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &TransactionHandler{transferUC: transferUC, queryUC: queryUC, location: loc}
}

// Create transfers money between two accounts.
func (h *TransactionHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, err := principal(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req dto.CreateTransactionRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	input, err := req.ToUseCaseInput(actor, r.Header.Get(middleware.IdempotencyKeyHeader))
	if err != nil {
		writeError(w, r, err)
		return
	}

	tx, err := h.transferUC.Transfer(r.Context(), input)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.TransactionFromDomain(tx))
}

// Withdraw handles an ATM withdrawal.
func (h *TransactionHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	h.cash(w, r, h.transferUC.ATMWithdraw)
}

// Deposit handles an ATM deposit.
func (h *TransactionHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	h.cash(w, r, h.transferUC.ATMDeposit)
}

func (h *TransactionHandler) cash(
	w http.ResponseWriter,
	r *http.Request,
	op func(context.Context, usecase.CashInput) (*domain.Transaction, error),
) {
	actor, err := principal(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req dto.CashRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	input, err := req.ToUseCaseInput(actor, r.Header.Get(middleware.IdempotencyKeyHeader))
	if err != nil {
		writeError(w, r, err)
		return
	}

	tx, err := op(r.Context(), input)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.TransactionFromDomain(tx))
}

// Get retrieves a transaction by ID.
func (h *TransactionHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, err := principal(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	tx, err := h.queryUC.GetTransaction(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionFromDomain(tx))
}

// List returns transactions across the bank, filtered and paginated.
func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, err := principal(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	filter, err := parseFilter(r, h.location)
	if err != nil {
		writeError(w, r, err)
		return
	}

	txs, err := h.queryUC.AllTransactions(
		r.Context(),
		actor,
		filter,
		parseIntQuery(r, "limit", 50),
		parseIntQuery(r, "offset", 0),
	)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionsFromDomain(txs))
}
