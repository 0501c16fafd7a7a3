package resilience

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
)

// RetryConfig controls retries of a single generation or store call.
type RetryConfig struct {
	// MaxAttempts counts the first try. 1 disables retries.
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Multiplier     float64
	// JitterFraction spreads each delay by ±fraction.
	JitterFraction float64

	// ShouldRetry defaults to IsTransient.
	ShouldRetry func(err error) bool
	OnRetry     func(attempt int, err error)
}

// DefaultRetryConfig suits interactive generation calls: a short first
// backoff and a low cap so a request does not stall on one question.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: 250 * time.Millisecond,
		MaxBackoff:     5 * time.Second,
		Multiplier:     2,
		JitterFraction: 0.2,
	}
}

// WithAttempts returns a copy with MaxAttempts set when n is positive.
func (c RetryConfig) WithAttempts(n int) RetryConfig {
	if n > 0 {
		c.MaxAttempts = n
	}
	return c
}

func (c RetryConfig) normalized() RetryConfig {
	d := DefaultRetryConfig()
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = d.MaxAttempts
	}
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = d.InitialBackoff
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = d.MaxBackoff
	}
	if c.Multiplier <= 0 {
		c.Multiplier = d.Multiplier
	}
	if c.JitterFraction < 0 {
		c.JitterFraction = 0
	}
	if c.ShouldRetry == nil {
		c.ShouldRetry = IsTransient
	}
	return c
}

// Backoff returns the delay before retry number attempt (0-based).
func (c RetryConfig) Backoff(attempt int) time.Duration {
	c = c.normalized()
	delay := float64(c.InitialBackoff) * math.Pow(c.Multiplier, float64(attempt))
	delay = math.Min(delay, float64(c.MaxBackoff))
	if c.JitterFraction > 0 {
		delay += (rand.Float64()*2 - 1) * delay * c.JitterFraction
	}
	return time.Duration(math.Max(delay, 0))
}

// Do runs fn until it succeeds, returns a non-retryable error, exhausts its
// attempts, or ctx ends.
func Do(ctx context.Context, cfg RetryConfig, fn func(ctx context.Context) error) error {
	_, err := DoVal(ctx, cfg, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// DoVal is Do for functions that return a value.
func DoVal[T any](ctx context.Context, cfg RetryConfig, fn func(ctx context.Context) (T, error)) (T, error) {
	cfg = cfg.normalized()

	var zero T
	for attempt := 0; ; attempt++ {
		val, err := fn(ctx)
		if err == nil {
			return val, nil
		}
		if ctx.Err() != nil || !cfg.ShouldRetry(err) || attempt+1 >= cfg.MaxAttempts {
			return zero, err
		}
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt+1, err)
		}

		timer := time.NewTimer(cfg.Backoff(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, err
		case <-timer.C:
		}
	}
}

// RetryLogger returns an OnRetry callback that logs each retry.
func RetryLogger(provider string) func(int, error) {
	return func(attempt int, err error) {
		zap.L().Warn("retrying generation call",
			zap.String("provider", provider),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
	}
}
