package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/iho/bankledger/internal/adapter/http/handler"
	"github.com/iho/bankledger/internal/adapter/http/middleware"
	"github.com/iho/bankledger/internal/infrastructure/metrics"
	"github.com/iho/bankledger/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	Logger  zerolog.Logger
	Metrics *metrics.Metrics
	// MetricsHandler serves /metrics when set.
	MetricsHandler http.Handler

	// TokenVerifier authenticates /api/v1 callers. Nil disables authentication.
	TokenVerifier    middleware.TokenVerifier
	IdempotencyStore usecase.IdempotencyStore
	IdempotencyTTL   time.Duration
	RateLimiter      *middleware.RateLimiter

	HealthHandler       *handler.HealthHandler
	AccountHandler      *handler.AccountHandler
	TransactionHandler  *handler.TransactionHandler
	RegistrationHandler *handler.RegistrationHandler
	CustomerHandler     *handler.CustomerHandler
	LedgerHandler       *handler.LedgerHandler
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(cfg.Logger))
	r.Use(middleware.Recovery)
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}

	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Route("/api/v1", func(r chi.Router) {
		// Public
		r.Group(func(r chi.Router) {
			if cfg.RateLimiter != nil {
				r.Use(cfg.RateLimiter.Limit)
			}
			r.Post("/registrations", cfg.RegistrationHandler.Submit)
		})

		// Authenticated
		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(cfg.TokenVerifier))
			if cfg.RateLimiter != nil {
				r.Use(cfg.RateLimiter.Limit)
			}
			if cfg.IdempotencyStore != nil {
				r.Use(idempotency(cfg).Wrap)
			}

			r.Post("/transactions", cfg.TransactionHandler.Create)
			r.Get("/transactions/{id}", cfg.TransactionHandler.Get)
			r.Post("/atm/withdraw", cfg.TransactionHandler.Withdraw)
			r.Post("/atm/deposit", cfg.TransactionHandler.Deposit)

			r.Route("/accounts", func(r chi.Router) {
				r.Post("/", cfg.AccountHandler.Create)
				r.Get("/{id}", cfg.AccountHandler.Get)
				r.Put("/{id}", cfg.AccountHandler.Close)
				r.Get("/{id}/transactions", cfg.AccountHandler.Transactions)
				r.Get("/iban/{iban}", cfg.AccountHandler.GetByIBAN)
				r.Get("/user/{userId}", cfg.AccountHandler.ListByUser)
			})

			r.Get("/customers/{id}", cfg.CustomerHandler.Get)
			r.Get("/customers/{id}/transactions", cfg.CustomerHandler.Transactions)

			// Employee only
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireEmployee)

				r.Route("/employee", func(r chi.Router) {
					r.Get("/pending-approvals", cfg.RegistrationHandler.ListPending)
					r.Post("/approve-customer/{id}", cfg.RegistrationHandler.Approve)
					r.Post("/reject-customer/{id}", cfg.RegistrationHandler.Reject)
					r.Put("/accounts/{id}/limits", cfg.AccountHandler.UpdateLimits)
					r.Get("/customers", cfg.CustomerHandler.Search)
					r.Get("/transactions", cfg.TransactionHandler.List)
				})

				r.Route("/ledger", func(r chi.Router) {
					r.Get("/consistency", cfg.LedgerHandler.CheckConsistency)
					r.Get("/reconcile/{iban}", cfg.LedgerHandler.ReconcileAccount)
					r.Get("/reconcile/customer/{id}", cfg.LedgerHandler.ReconcileCustomer)
				})
			})
		})
	})

	return r
}

func idempotency(cfg RouterConfig) *middleware.IdempotencyMiddleware {
	var observer middleware.ReplayObserver
	if cfg.Metrics != nil {
		observer = cfg.Metrics
	}

	ttl := cfg.IdempotencyTTL
	if ttl <= 0 {
		ttl = usecase.IdempotencyKeyTTL
	}

	return middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, ttl, observer)
}
