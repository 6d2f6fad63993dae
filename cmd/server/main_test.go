package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/bankledger/internal/infrastructure/config"
	"github.com/iho/bankledger/internal/infrastructure/eventpublisher"
	"github.com/iho/bankledger/internal/usecase/mocks"
)

func memoryConfig(t *testing.T) *config.Config {
	t.Setenv("STORAGE_DRIVER", config.StorageMemory)
	t.Setenv("RATE_LIMIT_RPS", "100")

	cfg, err := config.Load()
	require.NoError(t, err)
	return cfg
}

func TestNewApp_MemoryStorage(t *testing.T) {
	cfg := memoryConfig(t)
	log := zerolog.Nop()

	st, err := openStorage(context.Background(), cfg, log)
	require.NoError(t, err)
	defer st.close()

	sink, closeSink := newSink(cfg, log)
	defer func() { require.NoError(t, closeSink()) }()

	a, err := newApp(cfg, log, st, mocks.NewMockIdempotencyStore(), sink)
	require.NoError(t, err)
	require.NotNil(t, a.rateLimiter)

	for _, path := range []string{"/health", "/ready"} {
		rec := httptest.NewRecorder()
		a.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}

	// auth is off by default, so the system employee may read the ledger
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/ledger/consistency", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	a.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "bankledger_http_requests_total"))

	n, err := a.publisher.ProcessBatch(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestOpenStorage_UnknownDriver(t *testing.T) {
	cfg := memoryConfig(t)
	cfg.StorageDriver = "sqlite"

	_, err := openStorage(context.Background(), cfg, zerolog.Nop())
	require.Error(t, err)
}

func TestNewSink(t *testing.T) {
	cfg := memoryConfig(t)

	sink, closeSink := newSink(cfg, zerolog.Nop())
	assert.IsType(t, &eventpublisher.LogPublisher{}, sink)
	require.NoError(t, closeSink())

	cfg.KafkaBrokers = []string{"localhost:9092"}
	sink, closeSink = newSink(cfg, zerolog.Nop())
	assert.IsType(t, &eventpublisher.KafkaPublisher{}, sink)
	require.NoError(t, closeSink())
}
