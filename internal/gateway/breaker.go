package gateway

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/AndresDevelopers/purvita-payments/internal/domain"
)

// BreakerConfig tunes every breaker the registry creates.
type BreakerConfig struct {
	// FailureThreshold is the number of consecutive failures that opens the
	// breaker.
	FailureThreshold uint32
	// SuccessThreshold is the number of consecutive half-open successes
	// required to close again.
	SuccessThreshold uint32
	// Timeout is how long the breaker stays open before allowing probes.
	Timeout time.Duration
}

// DefaultBreakerConfig returns the provider-call defaults: open after 5
// consecutive failures, probe after 60s, close after 2 successes.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		FailureThreshold: 5,
		SuccessThreshold: 2,
		Timeout:          60 * time.Second,
	}
}

// BreakerRegistry owns one circuit breaker per endpoint key ("paypal-api",
// "stripe-api", "wallet-ledger"). Breakers are created lazily on first use so
// an unconfigured provider costs nothing. The registry is an explicit
// dependency, never package-global state, so tests get isolated instances.
type BreakerRegistry struct {
	cfg    BreakerConfig
	logger *slog.Logger

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker[*RawResponse]
}

// NewBreakerRegistry creates an empty registry.
func NewBreakerRegistry(cfg BreakerConfig, logger *slog.Logger) *BreakerRegistry {
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = DefaultBreakerConfig().FailureThreshold
	}
	if cfg.SuccessThreshold == 0 {
		cfg.SuccessThreshold = DefaultBreakerConfig().SuccessThreshold
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultBreakerConfig().Timeout
	}
	return &BreakerRegistry{
		cfg:      cfg,
		logger:   logger,
		breakers: make(map[string]*gobreaker.CircuitBreaker[*RawResponse]),
	}
}

// stateToFloat maps gobreaker states to prometheus gauge values.
func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func (r *BreakerRegistry) breaker(key string) *gobreaker.CircuitBreaker[*RawResponse] {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cb, ok := r.breakers[key]; ok {
		return cb
	}

	settings := gobreaker.Settings{
		Name:        key,
		MaxRequests: r.cfg.SuccessThreshold,
		Timeout:     r.cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= r.cfg.FailureThreshold
		},
		// Deterministic client-class rejections (bad request, bad
		// credentials) say nothing about provider health; only
		// transport-class and server-class failures count toward tripping.
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			if pe, ok := AsPaymentError(err); ok {
				return pe.Kind == KindValidationError || pe.Kind == KindInvalidCredentials
			}
			return false
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			r.logger.Warn("circuit breaker state change",
				slog.String("endpoint", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
			breakerStateGauge.WithLabelValues(name).Set(stateToFloat(to))
		},
	}

	cb := gobreaker.NewCircuitBreaker[*RawResponse](settings)
	breakerStateGauge.WithLabelValues(key).Set(0)
	r.breakers[key] = cb
	return cb
}

// Execute runs op through the breaker for key. While the breaker is open the
// call is rejected without invoking op; the rejection surfaces as a
// non-retryable PROVIDER_ERROR so the retry executor never hammers an open
// circuit.
func (r *BreakerRegistry) Execute(provider domain.Provider, key string, op func() (*RawResponse, error)) (*RawResponse, error) {
	resp, err := r.breaker(key).Execute(op)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			breakerRejections.WithLabelValues(key).Inc()
			return nil, NewError(provider, KindProviderError,
				fmt.Sprintf("%s is temporarily unavailable (circuit open)", key)).
				WithCause(err).
				WithScenario("circuit_breaker")
		}
		return nil, err
	}
	return resp, nil
}

// State reports the current breaker state for key. Unknown keys are closed.
func (r *BreakerRegistry) State(key string) gobreaker.State {
	r.mu.Lock()
	cb, ok := r.breakers[key]
	r.mu.Unlock()
	if !ok {
		return gobreaker.StateClosed
	}
	return cb.State()
}
