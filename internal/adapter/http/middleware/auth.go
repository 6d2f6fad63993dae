package middleware

import (
	"net/http"
	"strings"

	"github.com/iho/bankledger/internal/domain"
	"github.com/iho/bankledger/internal/infrastructure/logger"
)

// TokenVerifier resolves a bearer token to the caller it was issued to.
type TokenVerifier interface {
	Verify(token string) (domain.Principal, error)
}

// Authenticate requires a valid bearer token and stores the principal in the
// request context. With a nil verifier authentication is disabled and every
// request acts as domain.SystemPrincipal.
func Authenticate(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := domain.SystemPrincipal
			if verifier != nil {
				token, ok := bearerToken(r)
				if !ok {
					writeError(w, domain.ErrUnauthorized)
					return
				}

				var err error
				p, err = verifier.Verify(token)
				if err != nil {
					writeError(w, err)
					return
				}
			}

			ctx := domain.WithPrincipal(r.Context(), p)
			l := logger.FromContext(ctx).With().Str("user_id", p.UserID).Logger()
			next.ServeHTTP(w, r.WithContext(l.WithContext(ctx)))
		})
	}
}

// RequireEmployee rejects callers without the employee role.
func RequireEmployee(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := domain.PrincipalFromContext(r.Context())
		if !ok {
			writeError(w, domain.ErrUnauthorized)
			return
		}
		if !p.IsEmployee() {
			writeError(w, domain.ErrForbidden)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) (string, bool) {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}
