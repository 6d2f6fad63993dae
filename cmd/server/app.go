package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	httpAdapter "github.com/iho/bankledger/internal/adapter/http"
	"github.com/iho/bankledger/internal/adapter/http/handler"
	"github.com/iho/bankledger/internal/adapter/http/middleware"
	"github.com/iho/bankledger/internal/adapter/repository/memory"
	postgresRepo "github.com/iho/bankledger/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/bankledger/internal/adapter/repository/redis"
	"github.com/iho/bankledger/internal/infrastructure/auth"
	"github.com/iho/bankledger/internal/infrastructure/config"
	"github.com/iho/bankledger/internal/infrastructure/eventpublisher"
	"github.com/iho/bankledger/internal/infrastructure/idgen"
	"github.com/iho/bankledger/internal/infrastructure/metrics"
	"github.com/iho/bankledger/internal/infrastructure/postgres"
	"github.com/iho/bankledger/internal/infrastructure/redis"
	"github.com/iho/bankledger/internal/usecase"
)

const rateLimitCleanupInterval = 10 * time.Minute

// storage is the set of repositories behind one STORAGE_DRIVER.
type storage struct {
	txManager     usecase.TransactionManager
	accounts      usecase.AccountRepository
	customers     usecase.CustomerRepository
	registrations usecase.RegistrationRepository
	transactions  usecase.TransactionRepository
	outbox        usecase.OutboxRepository
	ledger        usecase.LedgerRepository
	retrier       usecase.Retrier

	checks map[string]handler.Checker
	close  func()
}

func openStorage(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*storage, error) {
	switch cfg.StorageDriver {
	case config.StorageMemory:
		store := memory.NewStore()
		log.Warn().Msg("using in-memory storage; data is lost on restart")
		return &storage{
			txManager:     memory.NewTxManager(store),
			accounts:      memory.NewAccountRepository(store),
			customers:     memory.NewCustomerRepository(store),
			registrations: memory.NewRegistrationRepository(store),
			transactions:  memory.NewTransactionRepository(store),
			outbox:        memory.NewOutboxRepository(store),
			ledger:        memory.NewLedgerRepository(store),
			checks:        map[string]handler.Checker{"memory": store.Ping},
			close:         func() {},
		}, nil

	case config.StoragePostgres:
		if cfg.RunMigrations {
			if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, log); err != nil {
				return nil, err
			}
		}

		connectCtx, cancel := context.WithTimeout(ctx, cfg.DatabaseTimeout)
		defer cancel()

		pool, err := postgres.NewPool(connectCtx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		log.Info().Msg("connected to postgres")

		return &storage{
			txManager:     postgresRepo.NewTxManager(pool, postgresRepo.WithLockTimeout(cfg.LockTimeout)),
			accounts:      postgresRepo.NewAccountRepository(pool),
			customers:     postgresRepo.NewCustomerRepository(pool),
			registrations: postgresRepo.NewRegistrationRepository(pool),
			transactions:  postgresRepo.NewTransactionRepository(pool),
			outbox:        postgresRepo.NewOutboxRepository(pool),
			ledger:        postgresRepo.NewLedgerRepository(pool),
			retrier:       postgresRepo.NewRetrier(log),
			checks:        map[string]handler.Checker{"postgres": pool.Ping},
			close:         pool.Close,
		}, nil
	}

	return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
}

// app is the assembled HTTP service and its background workers.
type app struct {
	handler     http.Handler
	publisher   *eventpublisher.EventPublisher
	rateLimiter *middleware.RateLimiter
}

func newApp(cfg *config.Config, log zerolog.Logger, st *storage, idem usecase.IdempotencyStore, sink eventpublisher.Publisher) (*app, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	opts := []usecase.Option{
		usecase.WithLocation(loc),
		usecase.WithMetrics(m),
		usecase.WithBankCode(cfg.IBANBankCode),
	}
	ids := idgen.NewULIDGenerator()

	accountUC := usecase.NewAccountUseCase(st.txManager, st.accounts, st.customers, st.outbox, ids, opts...)
	transferUC := usecase.NewTransferUseCase(st.txManager, st.accounts, st.transactions, st.outbox, ids, st.retrier, opts...)
	approvalUC := usecase.NewApprovalUseCase(st.txManager, st.registrations, st.customers, st.accounts, st.outbox, ids, opts...)
	historyUC := usecase.NewHistoryUseCase(st.accounts, st.customers, st.transactions, opts...)
	customerUC := usecase.NewCustomerUseCase(st.customers)
	ledgerUC := usecase.NewLedgerUseCase(st.ledger)
	reconcileUC := usecase.NewReconciliationUseCase(st.accounts, st.customers, st.transactions, opts...)

	var verifier middleware.TokenVerifier
	if cfg.AuthEnabled {
		verifier = auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiration)
	} else {
		log.Warn().Msg("authentication disabled; every caller acts as the system employee")
	}

	var limiter *middleware.RateLimiter
	if cfg.RateLimitRPS > 0 {
		limiter = middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, m)
	}

	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		Logger:              log,
		Metrics:             m,
		MetricsHandler:      promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}),
		TokenVerifier:       verifier,
		IdempotencyStore:    idem,
		IdempotencyTTL:      cfg.IdempotencyTTL,
		RateLimiter:         limiter,
		HealthHandler:       handler.NewHealthHandler(st.checks),
		AccountHandler:      handler.NewAccountHandler(accountUC, historyUC),
		TransactionHandler:  handler.NewTransactionHandler(transferUC, historyUC, loc),
		RegistrationHandler: handler.NewRegistrationHandler(approvalUC),
		CustomerHandler:     handler.NewCustomerHandler(customerUC, historyUC, loc),
		LedgerHandler:       handler.NewLedgerHandler(ledgerUC, reconcileUC),
	})

	publisher := eventpublisher.NewEventPublisher(eventpublisher.Config{
		OutboxRepo: st.outbox,
		Publisher:  sink,
		Observer:   m,
		Logger:     log,
		BatchSize:  cfg.OutboxBatchSize,
		Interval:   cfg.OutboxPollInterval,
		Retention:  cfg.OutboxRetention,
	})

	return &app{handler: router, publisher: publisher, rateLimiter: limiter}, nil
}

// newSink picks where outbox events go: Kafka when brokers are configured,
// the log otherwise. The returned close func flushes the sink.
func newSink(cfg *config.Config, log zerolog.Logger) (eventpublisher.Publisher, func() error) {
	if cfg.KafkaEnabled() {
		log.Info().Strs("brokers", cfg.KafkaBrokers).Str("topic", cfg.KafkaTopic).Msg("publishing outbox events to kafka")
		kp := eventpublisher.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, log)
		return kp, kp.Close
	}
	return eventpublisher.NewLogPublisher(log), func() error { return nil }
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	st, err := openStorage(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.close()

	var idem usecase.IdempotencyStore
	if cfg.IdempotencyEnabled {
		client, err := redis.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer client.Close()
		log.Info().Msg("connected to redis")

		idem = redisRepo.NewIdempotencyStore(client)
		st.checks["redis"] = func(ctx context.Context) error { return redis.Ping(ctx, client) }
	}

	sink, closeSink := newSink(cfg, log)
	defer func() {
		if err := closeSink(); err != nil {
			log.Error().Err(err).Msg("failed to close event sink")
		}
	}()

	a, err := newApp(cfg, log, st, idem, sink)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      a.handler,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("port", cfg.HTTPPort).Str("storage", cfg.StorageDriver).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		if err := a.publisher.Start(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	if a.rateLimiter != nil {
		g.Go(func() error {
			a.rateLimiter.Run(gctx, rateLimitCleanupInterval)
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), cfg.HTTPShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
