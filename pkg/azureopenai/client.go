// Package azureopenai calls an Azure OpenAI chat deployment.
package azureopenai

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/rotisserie/eris"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// Defaults matching the deployed advisor.
const (
	DefaultAPIVersion  = "2024-02-15-preview"
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 512
)

// Config locates a chat deployment.
type Config struct {
	Endpoint    string
	APIKey      string
	Deployment  string
	APIVersion  string
	Temperature float32
	MaxTokens   int
	HTTPClient  *http.Client
}

// Client sends a system and user message to a deployment and returns the reply.
type Client struct {
	api         *openai.Client
	deployment  string
	temperature float32
	maxTokens   int
}

// APIError carries the HTTP status of a failed call.
type APIError struct {
	StatusCode int
	Err        error
}

func (e *APIError) Error() string { return "azureopenai: chat completion: " + e.Err.Error() }

func (e *APIError) Unwrap() error { return e.Err }

// ErrEmptyResponse is returned when the deployment answers with no choices.
var ErrEmptyResponse = eris.New("azureopenai: empty response")

// New validates cfg and returns a Client.
func New(cfg Config) (*Client, error) {
	if cfg.Endpoint == "" || cfg.APIKey == "" || cfg.Deployment == "" {
		return nil, eris.New("azureopenai: endpoint, api key and deployment are required")
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = DefaultAPIVersion
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = DefaultTemperature
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}

	oc := openai.DefaultAzureConfig(cfg.APIKey, strings.TrimSuffix(cfg.Endpoint, "/"))
	oc.APIVersion = cfg.APIVersion
	deployment := cfg.Deployment
	oc.AzureModelMapperFunc = func(string) string { return deployment }
	if cfg.HTTPClient != nil {
		oc.HTTPClient = cfg.HTTPClient
	}

	return &Client{
		api:         openai.NewClientWithConfig(oc),
		deployment:  cfg.Deployment,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}, nil
}

// Chat sends one system and one user message and returns the first choice.
func (c *Client) Chat(ctx context.Context, system, user string) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.deployment,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		return "", &APIError{StatusCode: statusOf(err), Err: err}
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}

	zap.L().Debug("azure openai completion",
		zap.String("deployment", c.deployment),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
	)
	return resp.Choices[0].Message.Content, nil
}

func statusOf(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}
