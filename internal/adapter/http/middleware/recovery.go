package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/iho/bankledger/internal/infrastructure/logger"
)

// Recovery turns a handler panic into a 500 Internal answer. The panic value
// never reaches the client.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			logger.FromContext(r.Context()).Error().
				Str("request_id", chimiddleware.GetReqID(r.Context())).
				Str("route", r.Method+" "+r.URL.Path).
				Interface("panic", rec).
				Bytes("stack", debug.Stack()).
				Msg("handler panicked")

			writeError(w, fmt.Errorf("panic: %v", rec))
		}()

		next.ServeHTTP(w, r)
	})
}
