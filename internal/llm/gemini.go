package llm

import (
	"context"
	"fmt"
	"log/slog"

	"google.golang.org/genai"
)

// GeminiClient wraps a genai client bound to one model.
type GeminiClient struct {
	client *genai.Client
	model  string
}

// NewGemini creates a Gemini API client. An empty baseURL uses the SDK default.
func NewGemini(ctx context.Context, baseURL, apiKey, modelName string) (*GeminiClient, error) {
	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cfg.HTTPOptions.BaseURL = baseURL
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create Gemini client: %w", err)
	}
	return &GeminiClient{client: client, model: modelName}, nil
}

// Generate sends prompt as a single text part and returns the reply text.
func (c *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	result, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("LLM API call: %w", err)
	}

	raw := result.Text()
	slog.Debug("LLM response", "provider", ProviderGemini, "raw", raw)
	return raw, nil
}

// Ping checks that the configured model exists and the API key is accepted.
func (c *GeminiClient) Ping(ctx context.Context) error {
	if _, err := c.client.Models.Get(ctx, c.model, nil); err != nil {
		return fmt.Errorf("get model %s: %w", c.model, err)
	}
	return nil
}
