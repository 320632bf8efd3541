package gateway

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/AndresDevelopers/purvita-payments/internal/domain"
)

// Operation is a single provider call executed under retry.
type Operation func(ctx context.Context) (*RawResponse, error)

// RetryConfig tunes the retry executor. Delays follow bounded exponential
// backoff (initial, 2x per attempt, capped at max) with proportional jitter.
type RetryConfig struct {
	// MaxRetries is the number of re-attempts after the first try.
	MaxRetries int
	// InitialDelay is the base delay before the first retry.
	InitialDelay time.Duration
	// MaxDelay caps the computed delay.
	MaxDelay time.Duration
	// Jitter is the randomization factor applied to each delay (0 disables).
	Jitter float64
}

// DefaultRetryConfig matches the provider-call defaults: 3 retries, 1s base,
// 10s cap, ±50% jitter.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:   3,
		InitialDelay: time.Second,
		MaxDelay:     10 * time.Second,
		Jitter:       0.5,
	}
}

// Retryer re-executes failed provider calls. Only errors marked retryable are
// retried; everything else is returned immediately. Context cancellation
// aborts both in-flight waits and further attempts.
type Retryer struct {
	cfg    RetryConfig
	logger *slog.Logger

	// OnRetry, when set, observes each scheduled retry with the error that
	// caused it, the 1-based number of the failed attempt, and the delay
	// before the next one.
	OnRetry func(err error, attempt int, delay time.Duration)
}

// NewRetryer creates a retry executor with the given configuration.
func NewRetryer(cfg RetryConfig, logger *slog.Logger) *Retryer {
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	return &Retryer{cfg: cfg, logger: logger}
}

// Run executes op, retrying retryable failures up to MaxRetries times. The
// returned error is the one from the final attempt.
func (r *Retryer) Run(ctx context.Context, provider domain.Provider, op Operation) (*RawResponse, error) {
	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = r.cfg.InitialDelay
	expo.MaxInterval = r.cfg.MaxDelay
	expo.Multiplier = 2
	expo.RandomizationFactor = r.cfg.Jitter

	attempt := 0
	wrapped := func() (*RawResponse, error) {
		resp, err := op(ctx)
		if err != nil && !IsRetryable(err) {
			return nil, backoff.Permanent(err)
		}
		return resp, err
	}

	notify := func(err error, delay time.Duration) {
		attempt++
		retryAttempts.WithLabelValues(string(provider)).Inc()
		r.logger.Warn("provider call failed, retrying",
			slog.String("provider", string(provider)),
			slog.Int("attempt", attempt),
			slog.Int("max_retries", r.cfg.MaxRetries),
			slog.Duration("delay", delay),
			slog.String("error", err.Error()),
		)
		if r.OnRetry != nil {
			r.OnRetry(err, attempt, delay)
		}
	}

	return backoff.Retry(ctx, wrapped,
		backoff.WithBackOff(expo),
		backoff.WithMaxTries(uint(r.cfg.MaxRetries)+1),
		backoff.WithNotify(notify),
	)
}
