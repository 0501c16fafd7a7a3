package generate

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/assessment-cli/internal/monitoring"
	"github.com/sells-group/assessment-cli/internal/resilience"
)

// Guarded wraps a Generator with a shared rate limiter, retries on transient
// failures and a circuit breaker. It is safe for concurrent use.
type Guarded struct {
	name    string
	next    Generator
	limiter *rate.Limiter
	retry   resilience.RetryConfig
	breaker *resilience.Breaker
	metrics *monitoring.Metrics
}

// NewGuarded wraps next. metrics may be nil.
func NewGuarded(name string, next Generator, s Settings, metrics *monitoring.Metrics) *Guarded {
	g := &Guarded{
		name:    name,
		next:    next,
		metrics: metrics,
		breaker: resilience.NewBreaker(resilience.BreakerConfig{
			Name:      name,
			Threshold: s.BreakerThreshold,
			Cooldown:  s.BreakerCooldown,
		}),
	}
	if s.RatePerSec > 0 {
		burst := s.Burst
		if burst <= 0 {
			burst = 1
		}
		g.limiter = rate.NewLimiter(rate.Limit(s.RatePerSec), burst)
	}
	g.retry = resilience.DefaultRetryConfig().WithAttempts(s.Attempts)
	g.retry.OnRetry = resilience.RetryLogger(name)
	return g
}

func (g *Guarded) Generate(ctx context.Context, system, user string) (string, error) {
	start := time.Now()
	text, err := resilience.DoVal(ctx, g.retry, func(ctx context.Context) (string, error) {
		if g.limiter != nil {
			if err := g.limiter.Wait(ctx); err != nil {
				return "", err
			}
		}
		return resilience.Call(ctx, g.breaker, func(ctx context.Context) (string, error) {
			return g.next.Generate(ctx, system, user)
		})
	})
	g.metrics.ObserveGeneration(g.name, err, time.Since(start))
	if err != nil {
		return "", eris.Wrapf(err, "%s", g.name)
	}
	return text, nil
}
