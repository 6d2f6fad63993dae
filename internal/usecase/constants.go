package usecase

import "time"

const (
	// DefaultTransactionTimeout is the maximum duration for a storage transaction.
	// A movement that has not committed by then is abandoned without side effects.
	DefaultTransactionTimeout = 10 * time.Second

	// IdempotencyKeyTTL is how long a replayable response is kept when
	// IDEMPOTENCY_TTL is not set.
	IdempotencyKeyTTL = 24 * time.Hour

	// maxIBANAttempts bounds regeneration when a random IBAN collides.
	maxIBANAttempts = 5

	// DefaultBankCode is used when no bank code is configured.
	DefaultBankCode = "INHO"
)
