package middleware

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/iho/bankledger/internal/domain"
	"github.com/iho/bankledger/internal/infrastructure/logger"
	"github.com/iho/bankledger/internal/usecase"
)

// IdempotencyKeyHeader is the header name for idempotency keys.
const IdempotencyKeyHeader = "Idempotency-Key"

// ReplayObserver is told about every replayed response.
type ReplayObserver interface {
	IdempotentReplay()
}

// IdempotencyMiddleware replays the stored response of a mutating request
// retried with the same Idempotency-Key. Keys are scoped to the caller,
// method and path. Only 2xx responses are stored; any other outcome frees
// the key so the request can be retried.
type IdempotencyMiddleware struct {
	store    usecase.IdempotencyStore
	ttl      time.Duration
	observer ReplayObserver
}

// NewIdempotencyMiddleware creates a new IdempotencyMiddleware. observer may be nil.
func NewIdempotencyMiddleware(store usecase.IdempotencyStore, ttl time.Duration, observer ReplayObserver) *IdempotencyMiddleware {
	return &IdempotencyMiddleware{store: store, ttl: ttl, observer: observer}
}

// Wrap wraps an http.Handler with idempotency checking.
func (m *IdempotencyMiddleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost && r.Method != http.MethodPut {
			next.ServeHTTP(w, r)
			return
		}

		header := r.Header.Get(IdempotencyKeyHeader)
		if header == "" {
			next.ServeHTTP(w, r)
			return
		}
		if err := domain.ValidateIdempotencyKey(header); err != nil {
			writeError(w, err)
			return
		}

		ctx := r.Context()
		key := scopedKey(r, header)

		claimed, stored, err := m.store.Reserve(ctx, key, m.ttl)
		if err != nil {
			logger.FromContext(ctx).Error().Err(err).Msg("idempotency reserve failed")
			writeError(w, err)
			return
		}

		if !claimed {
			if stored == nil {
				writeError(w, domain.ErrRequestInProgress)
				return
			}

			if m.observer != nil {
				m.observer.IdempotentReplay()
			}
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("X-Idempotency-Replay", "true")
			w.WriteHeader(stored.Status)
			_, _ = w.Write(stored.Body)
			return
		}

		// the reservation must be settled even when the client is gone
		settleCtx := context.WithoutCancel(ctx)
		completed := false
		defer func() {
			if completed {
				return
			}
			if err := m.store.Release(settleCtx, key); err != nil {
				logger.FromContext(ctx).Error().Err(err).Msg("idempotency release failed")
			}
		}()

		rec := newStatusRecorder(w)
		rec.body = &bytes.Buffer{}
		next.ServeHTTP(rec, r)

		if rec.statusCode < 200 || rec.statusCode >= 300 {
			return
		}

		resp := usecase.StoredResponse{Status: rec.statusCode, Body: rec.body.Bytes()}
		if err := m.store.Complete(settleCtx, key, resp, m.ttl); err != nil {
			logger.FromContext(ctx).Error().Err(err).Msg("idempotency complete failed")
			return
		}
		completed = true
	})
}

func scopedKey(r *http.Request, header string) string {
	user := ""
	if p, ok := domain.PrincipalFromContext(r.Context()); ok {
		user = p.UserID
	}
	return strings.Join([]string{user, r.Method, r.URL.Path, header}, ":")
}
