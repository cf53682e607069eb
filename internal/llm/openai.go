package llm

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// OpenAIClient talks to any OpenAI-compatible chat completions endpoint
// (OpenAI, Groq, OpenRouter).
type OpenAIClient struct {
	client    *openai.Client
	name      string
	modelName string
	baseURL   string
	logger    *zap.Logger
}

// OpenAIConfig holds configuration for an OpenAI-compatible client.
type OpenAIConfig struct {
	Name      string
	APIKey    string
	ModelName string
	BaseURL   string
}

// NewOpenAIClient creates a new chat completions client.
func NewOpenAIClient(cfg OpenAIConfig, logger *zap.Logger) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	logger.Info("Chat completions client initialized",
		zap.String("provider", cfg.Name),
		zap.String("model", cfg.ModelName),
		zap.String("base_url", clientCfg.BaseURL))

	return &OpenAIClient{
		client:    openai.NewClientWithConfig(clientCfg),
		name:      cfg.Name,
		modelName: cfg.ModelName,
		baseURL:   clientCfg.BaseURL,
		logger:    logger,
	}, nil
}

// Complete sends the system and user messages and returns the raw content of
// the first choice.
func (c *OpenAIClient) Complete(ctx context.Context, req Request) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.modelName,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.Messages.System},
			{Role: openai.ChatMessageRoleUser, Content: req.Messages.User},
		},
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("%s API request failed: %w", c.name, err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in %s response", c.name)
	}

	c.logger.Debug("Chat completion received",
		zap.String("provider", c.name),
		zap.String("finish_reason", string(resp.Choices[0].FinishReason)),
		zap.Int("total_tokens", resp.Usage.TotalTokens))

	return resp.Choices[0].Message.Content, nil
}

// Close is a no-op; the HTTP client owns no resources that need releasing.
func (c *OpenAIClient) Close() error {
	return nil
}

// GetModelInfo returns information about the model being used.
func (c *OpenAIClient) GetModelInfo() map[string]interface{} {
	return map[string]interface{}{
		"provider": c.name,
		"model":    c.modelName,
		"base_url": c.baseURL,
	}
}
