package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountType distinguishes payment accounts from savings accounts.
type AccountType string

const (
	AccountTypeCurrent AccountType = "CURRENT"
	AccountTypeSavings AccountType = "SAVINGS"
)

// IsValid reports whether t is a known account type.
func (t AccountType) IsValid() bool {
	return t == AccountTypeCurrent || t == AccountTypeSavings
}

// Account represents a customer account addressed by its IBAN.
type Account struct {
	ID                string
	IBAN              string
	OwnerID           string
	Type              AccountType
	Balance           decimal.Decimal
	AbsoluteLimit     decimal.Decimal
	DailyLimit        decimal.Decimal
	Active            bool
	LastTransactionAt *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Floor returns the lowest balance the account may reach.
// Savings accounts never go below zero whatever limit is recorded.
func (a *Account) Floor() decimal.Decimal {
	if a.Type == AccountTypeSavings {
		return decimal.Zero
	}

	return a.AbsoluteLimit
}

// ValidateDebit checks if account can be debited by amount without crossing its floor.
func (a *Account) ValidateDebit(amount decimal.Decimal) error {
	if a.Balance.Sub(amount).LessThan(a.Floor()) {
		return ErrInsufficientFunds
	}

	return nil
}

// ValidateDailyLimit checks that spentToday plus amount stays within the daily limit.
func (a *Account) ValidateDailyLimit(spentToday, amount decimal.Decimal) error {
	if spentToday.Add(amount).GreaterThan(a.DailyLimit) {
		return ErrDailyLimitExceeded
	}

	return nil
}

// ValidateClose checks the account can be deactivated.
func (a *Account) ValidateClose() error {
	if !a.Balance.IsZero() {
		return ErrAccountNotEmpty
	}

	return nil
}

// ValidateLimits checks new limits against the account's current state.
func (a *Account) ValidateLimits(absoluteLimit decimal.Decimal) error {
	floor := absoluteLimit
	if a.Type == AccountTypeSavings {
		floor = decimal.Zero
	}

	if a.Balance.LessThan(floor) {
		return ErrInvalidLimit
	}

	return nil
}

// ApplyDebit returns new balance after debit.
func (a *Account) ApplyDebit(amount decimal.Decimal) decimal.Decimal {
	return a.Balance.Sub(amount)
}

// ApplyCredit returns new balance after credit.
func (a *Account) ApplyCredit(amount decimal.Decimal) decimal.Decimal {
	return a.Balance.Add(amount)
}
