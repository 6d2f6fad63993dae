package domain

import (
	"context"
	"errors"
)

var (
	// Account errors
	ErrAccountNotFound = errors.New("account not found")
	ErrAccountInactive = errors.New("account is inactive")
	ErrAccountNotEmpty = errors.New("account balance must be zero to close")
	ErrInvalidLimit    = errors.New("invalid account limit")
	ErrInvalidType     = errors.New("invalid account type")
	ErrDuplicateIBAN   = errors.New("iban already in use")

	// Transaction errors
	ErrInvalidAmount           = errors.New("amount must be positive")
	ErrSameAccount             = errors.New("cannot transfer to same account")
	ErrDailyLimitExceeded      = errors.New("daily limit exceeded")
	ErrInsufficientFunds       = errors.New("insufficient funds")
	ErrTransactionNotFound     = errors.New("transaction not found")
	ErrDuplicateIdempotencyKey = errors.New("idempotency key already used")
	ErrIdempotencyKeyMismatch  = errors.New("idempotency key already used for a different request")
	ErrTransferFailed          = errors.New("transfer failed")

	// Registration errors
	ErrDuplicateEmail        = errors.New("email already registered")
	ErrDuplicateBSN          = errors.New("bsn already registered")
	ErrRegistrationNotFound  = errors.New("registration not found")
	ErrCustomerNotFound      = errors.New("customer not found")
	ErrAlreadyApproved       = errors.New("registration already approved")
	ErrInvalidEmail          = errors.New("invalid email format")
	ErrInvalidBSN            = errors.New("invalid bsn")
	ErrInvalidRegistration   = errors.New("invalid registration")
	ErrInvalidIBAN           = errors.New("invalid iban")
	ErrInvalidFilter         = errors.New("invalid transaction filter")
	ErrInvalidDescription    = errors.New("invalid description")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrForbidden             = errors.New("operation not permitted for this user")
	ErrInvalidToken          = errors.New("invalid token")
	ErrExpiredToken          = errors.New("token has expired")
	ErrInconsistentLedger    = errors.New("ledger is inconsistent: balances do not match deposits minus withdrawals")
	ErrIdempotencyKeyTooLong = errors.New("idempotency key too long")
	ErrInvalidRequest        = errors.New("invalid request")
	ErrRequestInProgress     = errors.New("a request with this idempotency key is still in progress")
	ErrRateLimited           = errors.New("rate limit exceeded")
)

// Kind is the stable, caller-facing classification of an error.
type Kind string

const (
	KindInvalidAmount          Kind = "InvalidAmount"
	KindAccountNotFound        Kind = "AccountNotFound"
	KindAccountInactive        Kind = "AccountInactive"
	KindAccountNotEmpty        Kind = "AccountNotEmpty"
	KindSameAccount            Kind = "SameAccount"
	KindDailyLimitExceeded     Kind = "DailyLimitExceeded"
	KindInsufficientFunds      Kind = "InsufficientFunds"
	KindDuplicateEmail         Kind = "DuplicateEmail"
	KindDuplicateBSN           Kind = "DuplicateBsn"
	KindNotFound               Kind = "NotFound"
	KindAlreadyApproved        Kind = "AlreadyApproved"
	KindTransferFailed         Kind = "TransferFailed"
	KindInvalidLimit           Kind = "InvalidLimit"
	KindInvalidRequest         Kind = "InvalidRequest"
	KindUnauthorized           Kind = "Unauthorized"
	KindForbidden              Kind = "Forbidden"
	KindRequestInProgress      Kind = "RequestInProgress"
	KindIdempotencyKeyMismatch Kind = "IdempotencyKeyMismatch"
	KindRateLimited            Kind = "RateLimited"
	KindInternal               Kind = "Internal"
)

var kindTable = []struct {
	err  error
	kind Kind
}{
	{ErrInvalidAmount, KindInvalidAmount},
	{ErrAccountNotFound, KindAccountNotFound},
	{ErrAccountInactive, KindAccountInactive},
	{ErrAccountNotEmpty, KindAccountNotEmpty},
	{ErrSameAccount, KindSameAccount},
	{ErrDailyLimitExceeded, KindDailyLimitExceeded},
	{ErrInsufficientFunds, KindInsufficientFunds},
	{ErrDuplicateEmail, KindDuplicateEmail},
	{ErrDuplicateBSN, KindDuplicateBSN},
	{ErrRegistrationNotFound, KindNotFound},
	{ErrCustomerNotFound, KindNotFound},
	{ErrTransactionNotFound, KindNotFound},
	{ErrAlreadyApproved, KindAlreadyApproved},
	{ErrTransferFailed, KindTransferFailed},
	{ErrInvalidLimit, KindInvalidLimit},
	{ErrInvalidType, KindInvalidRequest},
	{ErrInvalidEmail, KindInvalidRequest},
	{ErrInvalidBSN, KindInvalidRequest},
	{ErrInvalidRegistration, KindInvalidRequest},
	{ErrInvalidIBAN, KindInvalidRequest},
	{ErrInvalidFilter, KindInvalidRequest},
	{ErrInvalidDescription, KindInvalidRequest},
	{ErrIdempotencyKeyTooLong, KindInvalidRequest},
	{ErrUnauthorized, KindUnauthorized},
	{ErrInvalidToken, KindUnauthorized},
	{ErrExpiredToken, KindUnauthorized},
	{ErrForbidden, KindForbidden},
	{ErrInvalidRequest, KindInvalidRequest},
	{ErrRequestInProgress, KindRequestInProgress},
	{ErrIdempotencyKeyMismatch, KindIdempotencyKeyMismatch},
	{ErrRateLimited, KindRateLimited},
}

// KindOf classifies err. Unknown errors are Internal.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}

	for _, entry := range kindTable {
		if errors.Is(err, entry.err) {
			return entry.kind
		}
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return KindTransferFailed
	}

	return KindInternal
}

// IsBusinessError reports whether err is a validation or state error raised by
// the domain, as opposed to a storage or transport failure.
func IsBusinessError(err error) bool {
	switch KindOf(err) {
	case KindInternal, KindTransferFailed, "":
		return false
	default:
		return true
	}
}
