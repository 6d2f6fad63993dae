package usecase

import (
	"time"

	"github.com/iho/bankledger/internal/domain"
)

type settings struct {
	clock    func() time.Time
	location *time.Location
	metrics  EngineMetrics
	bankCode string
}

func defaultSettings() settings {
	return settings{
		clock:    func() time.Time { return time.Now().UTC() },
		location: time.UTC,
		bankCode: DefaultBankCode,
	}
}

// Option configures a use case.
type Option func(*settings)

// WithClock overrides the wall clock, mainly for tests.
func WithClock(clock func() time.Time) Option {
	return func(s *settings) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithLocation sets the time zone that defines a calendar day.
func WithLocation(loc *time.Location) Option {
	return func(s *settings) {
		if loc != nil {
			s.location = loc
		}
	}
}

// WithMetrics attaches an engine metrics sink.
func WithMetrics(m EngineMetrics) Option {
	return func(s *settings) {
		s.metrics = m
	}
}

// WithBankCode sets the bank identifier used in generated IBANs.
func WithBankCode(code string) Option {
	return func(s *settings) {
		if code != "" {
			s.bankCode = code
		}
	}
}

func applyOptions(opts []Option) settings {
	s := defaultSettings()
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

func authorize(actor domain.Principal, ownerID string) error {
	if actor.UserID == "" {
		return domain.ErrUnauthorized
	}

	if !actor.CanAccess(ownerID) {
		return domain.ErrForbidden
	}

	return nil
}

func requireEmployee(actor domain.Principal) error {
	if actor.UserID == "" {
		return domain.ErrUnauthorized
	}

	if !actor.IsEmployee() {
		return domain.ErrForbidden
	}

	return nil
}
