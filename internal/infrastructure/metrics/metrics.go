package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"

	"github.com/iho/bankledger/internal/domain"
)

const namespace = "bankledger"

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Engine metrics
	TransactionsTotal   *prometheus.CounterVec
	TransactionAmount   *prometheus.HistogramVec
	TransactionDuration *prometheus.HistogramVec
	RejectionsTotal     *prometheus.CounterVec

	// API metrics
	HTTPRequests       *prometheus.CounterVec
	HTTPDuration       *prometheus.HistogramVec
	HTTPInFlight       prometheus.Gauge
	IdempotentReplays  prometheus.Counter
	RateLimitRejection prometheus.Counter

	// Outbox metrics
	OutboxPublished *prometheus.CounterVec
}

// New creates the metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		TransactionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "transactions_total",
				Help:      "Committed transactions by type",
			},
			[]string{"type"},
		),
		TransactionAmount: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "transaction_amount",
				Help:      "Committed transaction amounts",
				Buckets:   []float64{1, 10, 50, 100, 500, 1000, 5000, 10000, 100000},
			},
			[]string{"type"},
		),
		TransactionDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "transaction_duration_seconds",
				Help:      "Time from request to commit of a money movement",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"type"},
		),
		RejectionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "transaction_rejections_total",
				Help:      "Rejected money movements by type and error kind",
			},
			[]string{"type", "kind"},
		),

		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "route"},
		),
		HTTPInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_flight",
			Help:      "Number of HTTP requests currently being processed",
		}),
		IdempotentReplays: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "idempotent_replays_total",
			Help:      "Responses served from the idempotency store",
		}),
		RateLimitRejection: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limit_rejections_total",
			Help:      "Requests rejected by the rate limiter",
		}),

		OutboxPublished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "outbox_events_total",
				Help:      "Outbox publish attempts by event type and status",
			},
			[]string{"event_type", "status"},
		),
	}
}

// ObserveTransaction records a committed money movement.
func (m *Metrics) ObserveTransaction(txType domain.TransactionType, amount decimal.Decimal, duration time.Duration) {
	label := string(txType)
	m.TransactionsTotal.WithLabelValues(label).Inc()
	m.TransactionAmount.WithLabelValues(label).Observe(amount.InexactFloat64())
	m.TransactionDuration.WithLabelValues(label).Observe(duration.Seconds())
}

// ObserveRejection records a refused money movement.
func (m *Metrics) ObserveRejection(txType domain.TransactionType, kind domain.Kind) {
	m.RejectionsTotal.WithLabelValues(string(txType), string(kind)).Inc()
}

// ObserveOutboxPublished records one outbox publish attempt.
func (m *Metrics) ObserveOutboxPublished(eventType string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.OutboxPublished.WithLabelValues(eventType, status).Inc()
}

// ObserveHTTP records a finished request. route is the matched pattern, not the raw path.
func (m *Metrics) ObserveHTTP(method, route string, status int, duration time.Duration) {
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// InFlight adjusts the in-flight request gauge by delta.
func (m *Metrics) InFlight(delta float64) {
	m.HTTPInFlight.Add(delta)
}

// IdempotentReplay counts a replayed response.
func (m *Metrics) IdempotentReplay() {
	m.IdempotentReplays.Inc()
}

// RateLimited counts a throttled request.
func (m *Metrics) RateLimited() {
	m.RateLimitRejection.Inc()
}
