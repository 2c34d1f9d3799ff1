package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// Provider names a model backend.
type Provider string

const (
	// ProviderGemini talks to the Gemini API through the genai SDK.
	ProviderGemini Provider = "gemini"
	// ProviderOpenAI talks to any OpenAI-compatible chat completions endpoint.
	ProviderOpenAI Provider = "openai"
)

// DefaultModel returns the model used for a provider when none is configured.
func DefaultModel(p Provider) string {
	if p == ProviderOpenAI {
		return "gpt-4o-mini"
	}
	return "gemini-2.5-flash"
}

// Backend is a text-in, text-out model endpoint.
type Backend interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Ping(ctx context.Context) error
}

// Config selects and configures a backend.
type Config struct {
	Provider Provider
	BaseURL  string // empty means the provider's default endpoint
	APIKey   string
	Model    string
}

// New creates the backend named by cfg.Provider.
func New(ctx context.Context, cfg Config) (Backend, error) {
	p := Provider(strings.ToLower(strings.TrimSpace(string(cfg.Provider))))
	if p == "" {
		p = ProviderGemini
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel(p)
	}
	switch p {
	case ProviderGemini:
		c, err := NewGemini(ctx, cfg.BaseURL, cfg.APIKey, cfg.Model)
		if err != nil {
			return nil, err
		}
		return c, nil
	case ProviderOpenAI:
		return NewOpenAI(cfg.BaseURL, cfg.APIKey, cfg.Model), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider %q (want gemini or openai)", cfg.Provider)
	}
}

// Client wraps an OpenAI-compatible API client.
type Client struct {
	api   *openai.Client
	model string
}

// NewOpenAI creates a client for an OpenAI-compatible endpoint.
func NewOpenAI(baseURL, apiKey, modelName string) *Client {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &Client{
		api:   openai.NewClientWithConfig(config),
		model: modelName,
	}
}

// Generate sends prompt as a single user message and returns the reply text.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("LLM API call: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("LLM returned no choices")
	}

	raw := resp.Choices[0].Message.Content
	slog.Debug("LLM response", "provider", ProviderOpenAI, "raw", raw)
	return raw, nil
}

// Ping checks that the endpoint answers and accepts the API key.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.api.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}
