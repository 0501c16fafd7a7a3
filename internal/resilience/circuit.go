// Package resilience wraps calls to external services with retries and a
// circuit breaker.
package resilience

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// State is a circuit breaker state.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	}
	return "unknown"
}

// ErrCircuitOpen is returned without calling through while the breaker is open.
var ErrCircuitOpen = eris.New("circuit breaker is open")

// BreakerConfig controls when a Breaker opens and how long it stays open.
type BreakerConfig struct {
	Name string
	// Threshold is the number of consecutive failures that opens the breaker.
	Threshold int
	Cooldown  time.Duration
	// ShouldTrip decides which errors count as failures. Defaults to IsTransient,
	// so a bad request does not take the provider offline.
	ShouldTrip func(err error) bool
}

// Breaker is a consecutive-failure circuit breaker. While half-open it lets
// exactly one probe call through; the probe's outcome closes or reopens it.
type Breaker struct {
	cfg BreakerConfig
	now func() time.Time

	mu       sync.Mutex
	state    State
	failures int
	openedAt time.Time
	probing  bool
}

// NewBreaker returns a closed Breaker.
func NewBreaker(cfg BreakerConfig) *Breaker {
	if cfg.Threshold <= 0 {
		cfg.Threshold = 5
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 30 * time.Second
	}
	if cfg.ShouldTrip == nil {
		cfg.ShouldTrip = IsTransient
	}
	return &Breaker{cfg: cfg, now: time.Now}
}

// State returns the current state, reporting half-open once the cooldown has
// elapsed.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StateOpen && b.now().Sub(b.openedAt) >= b.cfg.Cooldown {
		return StateHalfOpen
	}
	return b.state
}

// Call runs fn through the breaker. A nil Breaker calls fn directly.
func Call[T any](ctx context.Context, b *Breaker, fn func(ctx context.Context) (T, error)) (T, error) {
	if b == nil {
		return fn(ctx)
	}
	var zero T
	if err := b.admit(); err != nil {
		return zero, err
	}
	val, err := fn(ctx)
	b.record(err)
	return val, err
}

func (b *Breaker) admit() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateOpen:
		if b.now().Sub(b.openedAt) < b.cfg.Cooldown {
			return ErrCircuitOpen
		}
		b.setState(StateHalfOpen)
		b.probing = true
		return nil
	case StateHalfOpen:
		if b.probing {
			return ErrCircuitOpen
		}
		b.probing = true
	}
	return nil
}

func (b *Breaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	failed := err != nil && b.cfg.ShouldTrip(err)
	if b.state == StateHalfOpen {
		b.probing = false
		if failed {
			b.openedAt = b.now()
			b.setState(StateOpen)
		} else {
			b.failures = 0
			b.setState(StateClosed)
		}
		return
	}

	if !failed {
		b.failures = 0
		return
	}
	b.failures++
	if b.failures >= b.cfg.Threshold {
		b.openedAt = b.now()
		b.setState(StateOpen)
	}
}

func (b *Breaker) setState(to State) {
	if b.state == to {
		return
	}
	zap.L().Info("circuit breaker state change",
		zap.String("breaker", b.cfg.Name),
		zap.Stringer("from", b.state),
		zap.Stringer("to", to),
	)
	b.state = to
}
