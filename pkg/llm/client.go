// Package llm wraps the OpenAI-compatible chat API used by the analysis
// agents. Pointing BaseURL at a local Ollama or vLLM endpoint works the
// same way, since both speak the OpenAI wire format.
package llm

import (
	"context"
	"fmt"
	"log/slog"

	openai "github.com/sashabaranov/go-openai"
)

// Chatter is the narrow surface the analysis nodes need. Tests substitute
// a canned implementation.
type Chatter interface {
	Chat(ctx context.Context, system, user string) (string, error)
}

// Config holds connection settings for an OpenAI-compatible endpoint.
type Config struct {
	// BaseURL overrides the API host. Leave empty for api.openai.com;
	// set to e.g. "http://localhost:11434/v1" for Ollama.
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`

	// APIKey authenticates against the endpoint. Local endpoints usually
	// accept any non-empty value.
	APIKey string `yaml:"api_key" mapstructure:"api_key"`

	// Model names the chat model, e.g. "gpt-4o-mini" or "llama3.1".
	Model string `yaml:"model" mapstructure:"model"`

	// Temperature controls sampling. Zero keeps the provider default.
	Temperature float32 `yaml:"temperature" mapstructure:"temperature"`
}

// Client talks to one chat model.
type Client struct {
	api    *openai.Client
	model  string
	temp   float32
	logger *slog.Logger
}

// New builds a client from config. The logger may be nil.
func New(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Model == "" {
		cfg.Model = openai.GPT4oMini
	}

	apiCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = cfg.BaseURL
	}

	return &Client{
		api:    openai.NewClientWithConfig(apiCfg),
		model:  cfg.Model,
		temp:   cfg.Temperature,
		logger: logger,
	}
}

// Chat sends one system+user exchange and returns the model's reply.
func (c *Client) Chat(ctx context.Context, system, user string) (string, error) {
	c.logger.Debug("chat completion request", "model", c.model, "prompt_chars", len(user))

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: c.temp,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("model %q returned no choices", c.model)
	}

	c.logger.Debug("chat completion response", "finish_reason", resp.Choices[0].FinishReason)
	return resp.Choices[0].Message.Content, nil
}
