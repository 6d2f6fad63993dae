package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/bankledger/internal/domain"
	"github.com/iho/bankledger/internal/usecase"
)

func money(d decimal.Decimal) string {
	return d.StringFixed(domain.AmountPlaces)
}

// AccountResponse represents an account in API responses.
type AccountResponse struct {
	ID                string     `json:"id"`
	IBAN              string     `json:"iban"`
	OwnerID           string     `json:"ownerId"`
	Type              string     `json:"type"`
	Balance           string     `json:"balance"`
	AbsoluteLimit     string     `json:"absoluteLimit"`
	DailyLimit        string     `json:"dailyLimit"`
	Active            bool       `json:"active"`
	LastTransactionAt *time.Time `json:"lastTransactionAt,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

// AccountFromDomain converts domain account to response.
func AccountFromDomain(a *domain.Account) *AccountResponse {
	return &AccountResponse{
		ID:                a.ID,
		IBAN:              a.IBAN,
		OwnerID:           a.OwnerID,
		Type:              string(a.Type),
		Balance:           money(a.Balance),
		AbsoluteLimit:     money(a.AbsoluteLimit),
		DailyLimit:        money(a.DailyLimit),
		Active:            a.Active,
		LastTransactionAt: a.LastTransactionAt,
		CreatedAt:         a.CreatedAt,
		UpdatedAt:         a.UpdatedAt,
	}
}

// AccountsFromDomain converts domain accounts to responses.
func AccountsFromDomain(accounts []*domain.Account) []*AccountResponse {
	result := make([]*AccountResponse, len(accounts))
	for i, a := range accounts {
		result[i] = AccountFromDomain(a)
	}
	return result
}

// TransactionResponse represents a transaction in API responses.
type TransactionResponse struct {
	ID               string    `json:"id"`
	FromIBAN         string    `json:"fromIban"`
	ToIBAN           string    `json:"toIban"`
	Amount           string    `json:"amount"`
	Type             string    `json:"type"`
	Description      string    `json:"description,omitempty"`
	PerformingUserID string    `json:"performingUserId"`
	Timestamp        time.Time `json:"timestamp"`
}

// TransactionFromDomain converts domain transaction to response.
func TransactionFromDomain(t *domain.Transaction) *TransactionResponse {
	return &TransactionResponse{
		ID:               t.ID,
		FromIBAN:         t.FromIBAN,
		ToIBAN:           t.ToIBAN,
		Amount:           money(t.Amount),
		Type:             string(t.Type),
		Description:      t.Description,
		PerformingUserID: t.PerformingUserID,
		Timestamp:        t.Timestamp,
	}
}

// TransactionsFromDomain converts domain transactions to responses.
func TransactionsFromDomain(txs []*domain.Transaction) []*TransactionResponse {
	result := make([]*TransactionResponse, len(txs))
	for i, t := range txs {
		result[i] = TransactionFromDomain(t)
	}
	return result
}

// RegistrationResponse represents a pending registration.
type RegistrationResponse struct {
	ID               string    `json:"id"`
	FirstName        string    `json:"firstName"`
	LastName         string    `json:"lastName"`
	Email            string    `json:"email"`
	BSN              string    `json:"bsn"`
	PhoneNumber      string    `json:"phoneNumber,omitempty"`
	RegistrationDate time.Time `json:"registrationDate"`
	Approved         bool      `json:"approved"`
}

// RegistrationFromDomain converts a pending registration to response.
func RegistrationFromDomain(r *domain.PendingRegistration) *RegistrationResponse {
	return &RegistrationResponse{
		ID:               r.ID,
		FirstName:        r.FirstName,
		LastName:         r.LastName,
		Email:            r.Email,
		BSN:              r.BSN,
		PhoneNumber:      r.PhoneNumber,
		RegistrationDate: r.RegistrationDate,
		Approved:         r.Approved,
	}
}

// RegistrationsFromDomain converts pending registrations to responses.
func RegistrationsFromDomain(regs []*domain.PendingRegistration) []*RegistrationResponse {
	result := make([]*RegistrationResponse, len(regs))
	for i, r := range regs {
		result[i] = RegistrationFromDomain(r)
	}
	return result
}

// CustomerResponse represents an approved customer.
type CustomerResponse struct {
	ID          string    `json:"id"`
	FirstName   string    `json:"firstName"`
	LastName    string    `json:"lastName"`
	Email       string    `json:"email"`
	BSN         string    `json:"bsn"`
	PhoneNumber string    `json:"phoneNumber,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// CustomerFromDomain converts a customer to response.
func CustomerFromDomain(c *domain.Customer) *CustomerResponse {
	return &CustomerResponse{
		ID:          c.ID,
		FirstName:   c.FirstName,
		LastName:    c.LastName,
		Email:       c.Email,
		BSN:         c.BSN,
		PhoneNumber: c.PhoneNumber,
		CreatedAt:   c.CreatedAt,
	}
}

// CustomersFromDomain converts customers to responses.
func CustomersFromDomain(customers []*domain.Customer) []*CustomerResponse {
	result := make([]*CustomerResponse, len(customers))
	for i, c := range customers {
		result[i] = CustomerFromDomain(c)
	}
	return result
}

// ApprovalResponse is returned when a registration is approved.
type ApprovalResponse struct {
	Customer *CustomerResponse  `json:"customer"`
	Accounts []*AccountResponse `json:"accounts"`
}

// ApprovalFromResult converts an approval outcome to response.
func ApprovalFromResult(res *usecase.ApprovalResult) *ApprovalResponse {
	return &ApprovalResponse{
		Customer: CustomerFromDomain(res.Customer),
		Accounts: AccountsFromDomain(res.Accounts),
	}
}

// ConsistencyResponse reports the ledger-wide balance check.
type ConsistencyResponse struct {
	Consistent       bool   `json:"consistent"`
	TotalBalance     string `json:"totalBalance"`
	TotalDeposits    string `json:"totalDeposits"`
	TotalWithdrawals string `json:"totalWithdrawals"`
	Expected         string `json:"expected"`
}

// ConsistencyFromReport converts a consistency report to response.
func ConsistencyFromReport(r *usecase.ConsistencyReport) *ConsistencyResponse {
	return &ConsistencyResponse{
		Consistent:       r.Consistent,
		TotalBalance:     money(r.TotalBalance),
		TotalDeposits:    money(r.TotalDeposits),
		TotalWithdrawals: money(r.TotalWithdrawals),
		Expected:         money(r.Expected),
	}
}

// ReconciliationResponse reports one account's balance against its log.
type ReconciliationResponse struct {
	AccountID         string    `json:"accountId"`
	IBAN              string    `json:"iban"`
	RecordedBalance   string    `json:"recordedBalance"`
	CalculatedBalance string    `json:"calculatedBalance"`
	Difference        string    `json:"difference"`
	TransactionCount  int       `json:"transactionCount"`
	Reconciled        bool      `json:"reconciled"`
	CheckedAt         time.Time `json:"checkedAt"`
}

// ReconciliationFromResult converts a reconciliation result to response.
func ReconciliationFromResult(r *usecase.ReconciliationResult) *ReconciliationResponse {
	return &ReconciliationResponse{
		AccountID:         r.AccountID,
		IBAN:              r.IBAN,
		RecordedBalance:   money(r.RecordedBalance),
		CalculatedBalance: money(r.CalculatedBalance),
		Difference:        money(r.Difference),
		TransactionCount:  r.TransactionCount,
		Reconciled:        r.IsReconciled,
		CheckedAt:         r.LastChecked,
	}
}
