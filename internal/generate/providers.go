package generate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sells-group/assessment-cli/internal/resilience"
	"github.com/sells-group/assessment-cli/pkg/anthropic"
	"github.com/sells-group/assessment-cli/pkg/azureopenai"
)

type chatClient interface {
	Chat(ctx context.Context, system, user string) (string, error)
}

// Azure generates through an Azure OpenAI chat deployment.
type Azure struct {
	client chatClient
}

func (a *Azure) Generate(ctx context.Context, system, user string) (string, error) {
	text, err := a.client.Chat(ctx, system, user)
	if err != nil {
		var apiErr *azureopenai.APIError
		if errors.As(err, &apiErr) {
			return "", resilience.ClassifyStatus(err, apiErr.StatusCode)
		}
		return "", err
	}
	return text, nil
}

// Anthropic generates through the Anthropic Messages API.
type Anthropic struct {
	client      anthropic.Client
	model       string
	maxTokens   int64
	temperature float64
}

// NewAnthropic returns an Anthropic generator. Zero maxTokens and temperature
// fall back to the Azure defaults so both providers produce comparable output.
func NewAnthropic(c anthropic.Client, model string, maxTokens int, temperature float64) *Anthropic {
	if maxTokens <= 0 {
		maxTokens = azureopenai.DefaultMaxTokens
	}
	if temperature == 0 {
		temperature = azureopenai.DefaultTemperature
	}
	return &Anthropic{client: c, model: model, maxTokens: int64(maxTokens), temperature: temperature}
}

func (a *Anthropic) Generate(ctx context.Context, system, user string) (string, error) {
	temp := a.temperature
	resp, err := a.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       a.model,
		MaxTokens:   a.maxTokens,
		System:      system,
		Messages:    []anthropic.Message{{Role: "user", Content: user}},
		Temperature: &temp,
	})
	if err != nil {
		var apiErr *anthropic.APIError
		if errors.As(err, &apiErr) {
			return "", resilience.ClassifyStatus(err, apiErr.StatusCode)
		}
		return "", err
	}
	return resp.Text(), nil
}

// stubMaxRunes bounds the echoed prompt in stub advice.
const stubMaxRunes = 160

// Stub answers without any network call, for local runs and demos.
type Stub struct{}

func (Stub) Generate(_ context.Context, _, user string) (string, error) {
	line := strings.Join(strings.Fields(user), " ")
	if r := []rune(line); len(r) > stubMaxRunes {
		line = string(r[:stubMaxRunes]) + "..."
	}
	return fmt.Sprintf("[stub advice] %s", line), nil
}
