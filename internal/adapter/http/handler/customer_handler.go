package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/iho/bankledger/internal/adapter/http/dto"
	"github.com/iho/bankledger/internal/domain"
)

// CustomerService reads customer profiles.
type CustomerService interface {
	GetCustomer(ctx context.Context, actor domain.Principal, id string) (*domain.Customer, error)
	SearchCustomers(ctx context.Context, actor domain.Principal, query domain.CustomerQuery) ([]*domain.Customer, error)
}

// HistoryService reads a customer's merged transaction history.
type HistoryService interface {
	CustomerHistory(ctx context.Context, actor domain.Principal, customerID string) ([]*domain.Transaction, error)
	Filter(ctx context.Context, actor domain.Principal, customerID string, filter domain.TransactionFilter) ([]*domain.Transaction, error)
}

// CustomerHandler handles customer profiles and their history.
type CustomerHandler struct {
	customerUC CustomerService
	historyUC  HistoryService
	location   *time.Location
}

// NewCustomerHandler creates a new CustomerHandler.
func NewCustomerHandler(customerUC CustomerService, historyUC HistoryService, loc *time.Location) *CustomerHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &CustomerHandler{customerUC: customerUC, historyUC: historyUC, location: loc}
}

// Get returns one customer.
func (h *CustomerHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, err := principal(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	customer, err := h.customerUC.GetCustomer(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.CustomerFromDomain(customer))
}

// Search finds customers by name prefix.
func (h *CustomerHandler) Search(w http.ResponseWriter, r *http.Request) {
	actor, err := principal(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	q := r.URL.Query()
	customers, err := h.customerUC.SearchCustomers(r.Context(), actor, domain.CustomerQuery{
		FirstName: q.Get("firstName"),
		LastName:  q.Get("lastName"),
		Limit:     parseIntQuery(r, "limit", 50),
		Offset:    parseIntQuery(r, "offset", 0),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.CustomersFromDomain(customers))
}

// Transactions returns the customer's history. Any filter parameter
// switches to the filtered view.
func (h *CustomerHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	actor, err := principal(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	customerID := chi.URLParam(r, "id")

	var txs []*domain.Transaction
	if r.URL.RawQuery == "" {
		txs, err = h.historyUC.CustomerHistory(r.Context(), actor, customerID)
	} else {
		var filter domain.TransactionFilter
		filter, err = parseFilter(r, h.location)
		if err == nil {
			txs, err = h.historyUC.Filter(r.Context(), actor, customerID, filter)
		}
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionsFromDomain(txs))
}
