package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CashIBAN is the counter-party of ATM deposits and withdrawals.
const CashIBAN = "CASH"

// TransactionType classifies a money movement.
type TransactionType string

const (
	TransactionTypeTransfer   TransactionType = "TRANSFER"
	TransactionTypeDeposit    TransactionType = "DEPOSIT"
	TransactionTypeWithdrawal TransactionType = "WITHDRAWAL"
)

// IsOutgoing reports whether the type counts against the debited account's daily limit.
func (t TransactionType) IsOutgoing() bool {
	return t == TransactionTypeTransfer || t == TransactionTypeWithdrawal
}

// MaxIdempotencyKeyLength bounds caller-supplied idempotency keys.
const MaxIdempotencyKeyLength = 255

// Transaction is an immutable record of a completed money movement.
type Transaction struct {
	ID               string
	FromIBAN         string
	ToIBAN           string
	Amount           decimal.Decimal
	Type             TransactionType
	Description      string
	PerformingUserID string
	IdempotencyKey   *string
	Timestamp        time.Time
}

// Touches reports whether iban is either side of the transaction.
func (t *Transaction) Touches(iban string) bool {
	return t.FromIBAN == iban || t.ToIBAN == iban
}

// DebitedIBAN returns the account whose balance decreases, or "" for deposits.
func (t *Transaction) DebitedIBAN() string {
	if t.FromIBAN == CashIBAN {
		return ""
	}

	return t.FromIBAN
}

// CreditedIBAN returns the account whose balance increases, or "" for withdrawals.
func (t *Transaction) CreditedIBAN() string {
	if t.ToIBAN == CashIBAN {
		return ""
	}

	return t.ToIBAN
}

// NextTimestamp returns now, or the latest previous transaction time if the clock went backwards,
// so that timestamps stay non-decreasing per account.
func NextTimestamp(now time.Time, accounts ...*Account) time.Time {
	ts := now
	for _, acc := range accounts {
		if acc == nil || acc.LastTransactionAt == nil {
			continue
		}

		if acc.LastTransactionAt.After(ts) {
			ts = *acc.LastTransactionAt
		}
	}

	return ts
}

// DayBounds returns the start of t's calendar day in loc and the start of the next day.
func DayBounds(t time.Time, loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.UTC
	}

	local := t.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)

	return start, start.AddDate(0, 0, 1)
}
