package dto

import (
	"net/http"

	"github.com/iho/bankledger/internal/domain"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Kind    domain.Kind `json:"kind"`
	Message string      `json:"message"`
}

// NewErrorResponse classifies err and returns the status and body to send.
// Internal errors never expose their message.
func NewErrorResponse(err error) (int, ErrorResponse) {
	kind := domain.KindOf(err)
	if kind == "" {
		kind = domain.KindInternal
	}

	status := StatusForKind(kind)
	msg := err.Error()
	if kind == domain.KindInternal {
		msg = "internal server error"
	}

	return status, ErrorResponse{Kind: kind, Message: msg}
}

// StatusForKind maps an error kind to its HTTP status.
func StatusForKind(kind domain.Kind) int {
	switch kind {
	case domain.KindInvalidAmount, domain.KindInvalidLimit, domain.KindInvalidRequest, domain.KindSameAccount:
		return http.StatusBadRequest
	case domain.KindDailyLimitExceeded, domain.KindInsufficientFunds, domain.KindIdempotencyKeyMismatch:
		return http.StatusUnprocessableEntity
	case domain.KindAccountInactive, domain.KindAccountNotEmpty, domain.KindAlreadyApproved,
		domain.KindDuplicateEmail, domain.KindDuplicateBSN, domain.KindRequestInProgress:
		return http.StatusConflict
	case domain.KindAccountNotFound, domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindUnauthorized:
		return http.StatusUnauthorized
	case domain.KindForbidden:
		return http.StatusForbidden
	case domain.KindRateLimited:
		return http.StatusTooManyRequests
	case domain.KindTransferFailed:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
