package dto

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/iho/bankledger/internal/domain"
	"github.com/iho/bankledger/internal/usecase"
)

// CreateTransactionRequest is the body of POST /transactions.
type CreateTransactionRequest struct {
	FromIBAN    string      `json:"fromIban"              validate:"required,max=34"`
	ToIBAN      string      `json:"toIban"                validate:"required,max=34"`
	Amount      json.Number `json:"amount"                validate:"required,numeric"`
	Description string      `json:"description,omitempty" validate:"max=255"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateTransactionRequest) ToUseCaseInput(actor domain.Principal, idempotencyKey string) (usecase.TransferInput, error) {
	amount, err := parseAmount(r.Amount)
	if err != nil {
		return usecase.TransferInput{}, err
	}

	return usecase.TransferInput{
		Actor:          actor,
		FromIBAN:       r.FromIBAN,
		ToIBAN:         r.ToIBAN,
		Amount:         amount,
		Description:    r.Description,
		IdempotencyKey: idempotencyKey,
	}, nil
}

// CashRequest is the body of the ATM endpoints.
type CashRequest struct {
	IBAN   string      `json:"iban"   validate:"required,max=34"`
	Amount json.Number `json:"amount" validate:"required,numeric"`
}

// ToUseCaseInput converts to use case input.
func (r *CashRequest) ToUseCaseInput(actor domain.Principal, idempotencyKey string) (usecase.CashInput, error) {
	amount, err := parseAmount(r.Amount)
	if err != nil {
		return usecase.CashInput{}, err
	}

	return usecase.CashInput{
		Actor:          actor,
		IBAN:           r.IBAN,
		Amount:         amount,
		IdempotencyKey: idempotencyKey,
	}, nil
}

// CreateAccountRequest is the body of POST /accounts. Limits default to zero.
type CreateAccountRequest struct {
	OwnerID       string      `json:"ownerId"                 validate:"required"`
	Type          string      `json:"type"                    validate:"required,oneof=CURRENT SAVINGS"`
	AbsoluteLimit json.Number `json:"absoluteLimit,omitempty" validate:"omitempty,numeric"`
	DailyLimit    json.Number `json:"dailyLimit,omitempty"    validate:"omitempty,numeric"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateAccountRequest) ToUseCaseInput(actor domain.Principal) (usecase.CreateAccountInput, error) {
	absolute, daily, err := parseLimits(r.AbsoluteLimit, r.DailyLimit)
	if err != nil {
		return usecase.CreateAccountInput{}, err
	}

	return usecase.CreateAccountInput{
		Actor:         actor,
		OwnerID:       r.OwnerID,
		Type:          domain.AccountType(r.Type),
		AbsoluteLimit: absolute,
		DailyLimit:    daily,
	}, nil
}

// LimitsRequest carries an employee's limit decision for approvals and limit updates.
type LimitsRequest struct {
	AbsoluteLimit json.Number `json:"absoluteLimit" validate:"required,numeric"`
	DailyLimit    json.Number `json:"dailyLimit"    validate:"required,numeric"`
}

// ToApproveInput converts to use case input.
func (r *LimitsRequest) ToApproveInput(actor domain.Principal, registrationID string) (usecase.ApproveInput, error) {
	absolute, daily, err := parseLimits(r.AbsoluteLimit, r.DailyLimit)
	if err != nil {
		return usecase.ApproveInput{}, err
	}

	return usecase.ApproveInput{
		Actor:          actor,
		RegistrationID: registrationID,
		AbsoluteLimit:  absolute,
		DailyLimit:     daily,
	}, nil
}

// ToUpdateLimitsInput converts to use case input.
func (r *LimitsRequest) ToUpdateLimitsInput(actor domain.Principal, accountID string) (usecase.UpdateLimitsInput, error) {
	absolute, daily, err := parseLimits(r.AbsoluteLimit, r.DailyLimit)
	if err != nil {
		return usecase.UpdateLimitsInput{}, err
	}

	return usecase.UpdateLimitsInput{
		Actor:         actor,
		AccountID:     accountID,
		AbsoluteLimit: absolute,
		DailyLimit:    daily,
	}, nil
}

// RegistrationRequest is the body of POST /registrations.
type RegistrationRequest struct {
	FirstName   string `json:"firstName"   validate:"required,max=100"`
	LastName    string `json:"lastName"    validate:"required,max=100"`
	Email       string `json:"email"       validate:"required,email,max=254"`
	BSN         string `json:"bsn"         validate:"required,numeric,len=9"`
	PhoneNumber string `json:"phoneNumber" validate:"required,max=20"`
}

// ToUseCaseInput converts to use case input.
func (r *RegistrationRequest) ToUseCaseInput() usecase.RegistrationInput {
	return usecase.RegistrationInput{
		FirstName:   r.FirstName,
		LastName:    r.LastName,
		Email:       r.Email,
		BSN:         r.BSN,
		PhoneNumber: r.PhoneNumber,
	}
}

func parseAmount(n json.Number) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(string(n))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q is not a number", domain.ErrInvalidAmount, n)
	}
	return d, nil
}

func parseLimits(absolute, daily json.Number) (decimal.Decimal, decimal.Decimal, error) {
	abs, err := parseOptional(absolute)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	day, err := parseOptional(daily)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	return abs, day, nil
}

func parseOptional(n json.Number) (decimal.Decimal, error) {
	if n == "" {
		return decimal.Zero, nil
	}

	d, err := decimal.NewFromString(string(n))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q is not a number", domain.ErrInvalidLimit, n)
	}
	return d, nil
}
