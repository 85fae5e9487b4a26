package commerce

import (
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"github.com/dukerupert/quickorder/internal/telemetry"
)

// BreakerSettings tunes the circuit breaker in front of read calls.
type BreakerSettings struct {
	MaxRequests uint32        // requests allowed through while half-open
	Interval    time.Duration // window for clearing counts while closed
	Timeout     time.Duration // time spent open before going half-open
}

func (s BreakerSettings) withDefaults() BreakerSettings {
	if s.MaxRequests == 0 {
		s.MaxRequests = 3
	}
	if s.Interval <= 0 {
		s.Interval = 15 * time.Second
	}
	if s.Timeout <= 0 {
		s.Timeout = 30 * time.Second
	}
	return s
}

// Breaker wraps gobreaker with metrics and logging.
type Breaker struct {
	cb      *gobreaker.CircuitBreaker
	name    string
	metrics *telemetry.BusinessMetrics
}

// NewBreaker trips once at least three calls were made in the current
// window and 60% or more of them failed.
func NewBreaker(name string, settings BreakerSettings, metrics *telemetry.BusinessMetrics, logger *slog.Logger) *Breaker {
	settings = settings.withDefaults()

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: settings.MaxRequests,
		Interval:    settings.Interval,
		Timeout:     settings.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(cbName string, from gobreaker.State, to gobreaker.State) {
			metrics.SetBreakerState(cbName, stateValue(to))
			logger.Warn("circuit breaker state changed",
				"circuit", cbName,
				"from", from.String(),
				"to", to.String(),
			)
		},
	})

	metrics.SetBreakerState(name, 0)

	return &Breaker{cb: cb, name: name, metrics: metrics}
}

// Execute runs fn through the breaker. An open breaker rejects the call
// without running fn.
func (b *Breaker) Execute(fn func() (interface{}, error)) (interface{}, error) {
	result, err := b.cb.Execute(fn)
	if err != nil {
		b.metrics.RecordBreakerFailure(b.name)
	}
	return result, err
}

// State returns the breaker state name (closed, open, half-open).
func (b *Breaker) State() string {
	return b.cb.State().String()
}

// IsRejection reports whether err came from the breaker itself rather than the call.
func IsRejection(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

func stateValue(s gobreaker.State) int {
	switch s {
	case gobreaker.StateOpen:
		return 1
	case gobreaker.StateHalfOpen:
		return 2
	default:
		return 0
	}
}
