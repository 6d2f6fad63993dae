package middleware

import (
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/iho/bankledger/internal/infrastructure/logger"
)

// Logging stores a request-scoped logger in the context and logs every
// completed request. Client errors log at warn and server errors at error.
func Logging(base zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ctx := logger.WithRequest(r.Context(), base, chimiddleware.GetReqID(r.Context()), "")
			rec := newStatusRecorder(w)
			next.ServeHTTP(rec, r.WithContext(ctx))

			l := logger.FromContext(ctx)
			var ev *zerolog.Event
			switch {
			case rec.statusCode >= http.StatusInternalServerError:
				ev = l.Error()
			case rec.statusCode >= http.StatusBadRequest:
				ev = l.Warn()
			default:
				ev = l.Info()
			}

			ev.Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", rec.statusCode).
				Dur("duration", time.Since(start)).
				Str("remote_addr", r.RemoteAddr).
				Msg("request completed")
		})
	}
}
