package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
)

// SQLSTATE codes after which re-running the whole atomic unit can succeed.
const (
	pgErrSerializationFailure = "40001"
	pgErrDeadlock             = "40P01"
	pgErrLockNotAvailable     = "55P03"
)

// Retrier re-runs a money movement that lost a lock or serialization race.
// Business rejections and every other error are returned on the first attempt.
type Retrier struct {
	attempts int
	policy   func() backoff.BackOff
	logger   zerolog.Logger
}

// RetrierOption tunes a Retrier.
type RetrierOption func(*Retrier)

// WithAttempts caps the total number of runs, the first one included.
func WithAttempts(n int) RetrierOption {
	return func(r *Retrier) {
		if n > 0 {
			r.attempts = n
		}
	}
}

// WithBackOff replaces the delay policy between runs.
func WithBackOff(policy func() backoff.BackOff) RetrierOption {
	return func(r *Retrier) { r.policy = policy }
}

func NewRetrier(logger zerolog.Logger, opts ...RetrierOption) *Retrier {
	r := &Retrier{
		attempts: 3,
		policy:   defaultBackOff,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 25 * time.Millisecond
	b.MaxInterval = 500 * time.Millisecond
	b.MaxElapsedTime = 5 * time.Second
	return b
}

// Retry runs op until it succeeds, fails with a non-conflict error or the
// attempts run out. The last error is returned unchanged.
func (r *Retrier) Retry(ctx context.Context, op func() error) error {
	policy := backoff.WithMaxRetries(r.policy(), uint64(r.attempts-1))

	attempt := 0
	return backoff.RetryNotify(
		func() error {
			attempt++
			err := op()
			if err != nil && !isConflict(err) {
				return backoff.Permanent(err)
			}
			return err
		},
		backoff.WithContext(policy, ctx),
		func(err error, wait time.Duration) {
			r.logger.Warn().
				Err(err).
				Int("attempt", attempt).
				Dur("wait", wait).
				Msg("ledger write conflict, retrying")
		},
	)
}

func isConflict(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case pgErrSerializationFailure, pgErrDeadlock, pgErrLockNotAvailable:
		return true
	}
	return false
}
