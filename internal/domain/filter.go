package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the day-granularity format accepted for filter dates.
const DateLayout = "2006-01-02"

// TransactionFilter narrows a transaction feed. Zero-valued clauses match everything.
type TransactionFilter struct {
	StartDate  *time.Time
	EndDate    *time.Time
	MinAmount  *decimal.Decimal
	MaxAmount  *decimal.Decimal
	IBAN       string
	SearchTerm string

	// IncludePerformer lets SearchTerm also match the performing user id.
	IncludePerformer bool
}

// IsEmpty reports whether no clause is set.
func (f TransactionFilter) IsEmpty() bool {
	return f.StartDate == nil && f.EndDate == nil && f.MinAmount == nil && f.MaxAmount == nil &&
		strings.TrimSpace(f.IBAN) == "" && strings.TrimSpace(f.SearchTerm) == ""
}

// Validate rejects inverted ranges.
func (f TransactionFilter) Validate() error {
	if f.StartDate != nil && f.EndDate != nil && f.EndDate.Before(*f.StartDate) {
		return fmt.Errorf("%w: end date before start date", ErrInvalidFilter)
	}

	if f.MinAmount != nil && f.MaxAmount != nil && f.MaxAmount.LessThan(*f.MinAmount) {
		return fmt.Errorf("%w: max amount below min amount", ErrInvalidFilter)
	}

	return nil
}

// ParseFilterDate parses a YYYY-MM-DD date as midnight in loc.
func ParseFilterDate(value string, loc *time.Location) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}

	if loc == nil {
		loc = time.UTC
	}

	t, err := time.ParseInLocation(DateLayout, value, loc)
	if err != nil {
		return nil, fmt.Errorf("%w: date %q must be YYYY-MM-DD", ErrInvalidFilter, value)
	}

	return &t, nil
}

// Matches reports whether tx passes every clause. Dates are compared by calendar day in loc
// and the end date covers the whole day.
func (f TransactionFilter) Matches(tx *Transaction, loc *time.Location) bool {
	if f.StartDate != nil {
		start, _ := DayBounds(*f.StartDate, loc)
		if tx.Timestamp.Before(start) {
			return false
		}
	}

	if f.EndDate != nil {
		_, next := DayBounds(*f.EndDate, loc)
		if !tx.Timestamp.Before(next) {
			return false
		}
	}

	if f.MinAmount != nil && tx.Amount.LessThan(*f.MinAmount) {
		return false
	}

	if f.MaxAmount != nil && tx.Amount.GreaterThan(*f.MaxAmount) {
		return false
	}

	if iban := NormalizeIBAN(f.IBAN); iban != "" {
		if !strings.Contains(tx.FromIBAN, iban) && !strings.Contains(tx.ToIBAN, iban) {
			return false
		}
	}

	if term := strings.ToLower(strings.TrimSpace(f.SearchTerm)); term != "" {
		if !strings.Contains(strings.ToLower(tx.Description), term) &&
			!strings.Contains(strings.ToLower(string(tx.Type)), term) &&
			!(f.IncludePerformer && strings.Contains(strings.ToLower(tx.PerformingUserID), term)) {
			return false
		}
	}

	return true
}

// Apply returns the transactions matching the filter, keeping their order.
func (f TransactionFilter) Apply(txs []*Transaction, loc *time.Location) []*Transaction {
	if f.IsEmpty() {
		return txs
	}

	out := make([]*Transaction, 0, len(txs))
	for _, tx := range txs {
		if f.Matches(tx, loc) {
			out = append(out, tx)
		}
	}

	return out
}
