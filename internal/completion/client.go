package completion

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// Request is one chat completion call: a system prompt, a single user message
// and a sampling temperature. Responses are always requested as JSON objects.
type Request struct {
	System      string
	User        string
	Temperature float32
}

// Client is the completion-service capability used by pipeline steps. Tests
// substitute a stub returning canned JSON or simulated failures.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Config carries the credentials and model for a GroqClient. The hosting
// process injects it at construction; nothing here reads the environment.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
}

// GroqClient calls Groq's OpenAI-compatible chat completion API.
type GroqClient struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

func NewGroqClient(cfg Config, logger *zap.Logger) *GroqClient {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	return &GroqClient{
		client: openai.NewClientWithConfig(clientConfig),
		model:  cfg.Model,
		logger: logger,
	}
}

// Complete sends one system+user exchange and returns the raw content of the
// first choice. The response format is constrained to a JSON object; whether
// the content actually parses is the caller's concern.
func (c *GroqClient) Complete(ctx context.Context, req Request) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: req.System,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: req.User,
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: req.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion: empty response from model %s", c.model)
	}

	c.logger.Debug("Completion received",
		zap.String("model", c.model),
		zap.Int("response_length", len(resp.Choices[0].Message.Content)))

	return resp.Choices[0].Message.Content, nil
}
