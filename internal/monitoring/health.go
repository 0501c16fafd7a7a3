package monitoring

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Probe checks one dependency. A nil error means healthy.
type Probe func(ctx context.Context) error

// CheckResult is the outcome of one probe.
type CheckResult struct {
	Name    string `json:"name"`
	Healthy bool   `json:"healthy"`
	Error   string `json:"error,omitempty"`
	Latency string `json:"latency"`
}

// HealthReport aggregates probe results.
type HealthReport struct {
	Status    string        `json:"status"`
	Checks    []CheckResult `json:"checks,omitempty"`
	CheckedAt time.Time     `json:"checked_at"`
}

// Healthy reports whether every probe passed.
func (r HealthReport) Healthy() bool { return r.Status == "ok" }

// Checker runs named probes concurrently with a shared timeout.
type Checker struct {
	mu      sync.RWMutex
	names   []string
	probes  map[string]Probe
	timeout time.Duration
}

// NewChecker returns a Checker whose probes each get at most timeout.
func NewChecker(timeout time.Duration) *Checker {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Checker{probes: make(map[string]Probe), timeout: timeout}
}

// Register adds or replaces a probe. Results are reported in registration order.
func (c *Checker) Register(name string, p Probe) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.probes[name]; !ok {
		c.names = append(c.names, name)
	}
	c.probes[name] = p
}

// Check runs every probe and returns the combined report.
func (c *Checker) Check(ctx context.Context) HealthReport {
	c.mu.RLock()
	names := append([]string(nil), c.names...)
	probes := make([]Probe, len(names))
	for i, n := range names {
		probes[i] = c.probes[n]
	}
	c.mu.RUnlock()

	results := make([]CheckResult, len(names))
	var wg sync.WaitGroup
	for i := range names {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			pctx, cancel := context.WithTimeout(ctx, c.timeout)
			defer cancel()

			start := time.Now()
			err := probes[i](pctx)
			res := CheckResult{Name: names[i], Healthy: err == nil, Latency: time.Since(start).String()}
			if err != nil {
				res.Error = err.Error()
				zap.L().Warn("health probe failed", zap.String("probe", names[i]), zap.Error(err))
			}
			results[i] = res
		}(i)
	}
	wg.Wait()

	report := HealthReport{Status: "ok", Checks: results, CheckedAt: time.Now().UTC()}
	for _, r := range results {
		if !r.Healthy {
			report.Status = "degraded"
			break
		}
	}
	return report
}
