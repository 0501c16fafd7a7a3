// Package generate obtains recommendation text for an assembled prompt from a
// configured text generation provider.
package generate

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/assessment-cli/internal/monitoring"
	"github.com/sells-group/assessment-cli/pkg/anthropic"
	"github.com/sells-group/assessment-cli/pkg/azureopenai"
)

// Provider names.
const (
	ProviderAzure     = "azure"
	ProviderAnthropic = "anthropic"
	ProviderStub      = "stub"
)

// Generator produces text for a system and user prompt pair.
type Generator interface {
	Generate(ctx context.Context, system, user string) (string, error)
}

// Settings selects and tunes a provider.
type Settings struct {
	Provider    string
	Endpoint    string
	APIKey      string
	Deployment  string
	APIVersion  string
	Model       string
	Temperature float64
	MaxTokens   int

	// RatePerSec limits outbound calls; zero disables limiting.
	RatePerSec float64
	Burst      int
	// Attempts counts the first try; 1 disables retries.
	Attempts         int
	BreakerThreshold int
	BreakerCooldown  time.Duration
}

// New builds the configured provider wrapped with rate limiting, retries and
// a circuit breaker.
func New(s Settings, metrics *monitoring.Metrics) (Generator, error) {
	var (
		g   Generator
		err error
	)
	switch s.Provider {
	case ProviderAzure, "":
		g, err = newAzure(s)
		s.Provider = ProviderAzure
	case ProviderAnthropic:
		g, err = newAnthropic(s)
	case ProviderStub:
		g = Stub{}
	default:
		return nil, eris.Errorf("generate: unknown provider %q", s.Provider)
	}
	if err != nil {
		return nil, err
	}
	return NewGuarded(s.Provider, g, s, metrics), nil
}

func newAzure(s Settings) (Generator, error) {
	c, err := azureopenai.New(azureopenai.Config{
		Endpoint:    s.Endpoint,
		APIKey:      s.APIKey,
		Deployment:  s.Deployment,
		APIVersion:  s.APIVersion,
		Temperature: float32(s.Temperature),
		MaxTokens:   s.MaxTokens,
	})
	if err != nil {
		return nil, eris.Wrap(err, "generate: azure provider")
	}
	return &Azure{client: c}, nil
}

func newAnthropic(s Settings) (Generator, error) {
	if s.APIKey == "" {
		return nil, eris.New("generate: anthropic provider requires an api key")
	}
	var opts []anthropic.Option
	if s.Endpoint != "" {
		opts = append(opts, anthropic.WithBaseURL(s.Endpoint))
	}
	return NewAnthropic(anthropic.NewClient(s.APIKey, opts...), s.Model, s.MaxTokens, s.Temperature), nil
}
