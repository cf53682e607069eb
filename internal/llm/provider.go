package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"painsignal/internal/config"
	"painsignal/internal/prompt"

	"go.uber.org/zap"
)

// ErrMissingAPIKey is returned when no classifier credential is configured.
var ErrMissingAPIKey = errors.New("classifier API key is not configured")

// Request is a single chat completion call.
type Request struct {
	Messages    prompt.Messages
	MaxTokens   int
	Temperature float32
}

// Provider interface for any LLM provider
type Provider interface {
	Complete(ctx context.Context, req Request) (string, error)
	Close() error
	GetModelInfo() map[string]interface{}
}

// Default base URLs for OpenAI-compatible providers.
const (
	openAIBaseURL     = "https://api.openai.com/v1"
	groqBaseURL       = "https://api.groq.com/openai/v1"
	openRouterBaseURL = "https://openrouter.ai/api/v1"
)

// NewProvider builds the configured provider, wrapped with rate limiting when
// requests_per_minute is set. It returns ErrMissingAPIKey when the credential
// is absent so callers can degrade instead of failing.
func NewProvider(ctx context.Context, cfg config.ClassifierConfig, logger *zap.Logger) (Provider, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}

	var (
		provider Provider
		err      error
	)

	switch strings.ToLower(cfg.Provider) {
	case config.ProviderOpenAI, "":
		provider, err = NewOpenAIClient(OpenAIConfig{
			Name:      config.ProviderOpenAI,
			APIKey:    cfg.APIKey,
			ModelName: orDefault(cfg.ModelName, "gpt-4o-mini"),
			BaseURL:   orDefault(cfg.BaseURL, openAIBaseURL),
		}, logger)
	case config.ProviderGroq:
		provider, err = NewOpenAIClient(OpenAIConfig{
			Name:      config.ProviderGroq,
			APIKey:    cfg.APIKey,
			ModelName: orDefault(cfg.ModelName, "llama-3.3-70b-versatile"),
			BaseURL:   orDefault(cfg.BaseURL, groqBaseURL),
		}, logger)
	case config.ProviderOpenRouter:
		provider, err = NewOpenAIClient(OpenAIConfig{
			Name:      config.ProviderOpenRouter,
			APIKey:    cfg.APIKey,
			ModelName: orDefault(cfg.ModelName, "meta-llama/llama-3.2-3b-instruct:free"),
			BaseURL:   orDefault(cfg.BaseURL, openRouterBaseURL),
		}, logger)
	case config.ProviderGemini:
		provider, err = NewGeminiClient(ctx, GeminiConfig{
			APIKey:    cfg.APIKey,
			ModelName: orDefault(cfg.ModelName, "gemini-2.0-flash"),
			BaseURL:   cfg.BaseURL,
		}, logger)
	default:
		return nil, fmt.Errorf("unknown provider type %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	if cfg.RequestsPerMinute > 0 {
		provider = NewRateLimitedProvider(provider, cfg.RequestsPerMinute, logger)
	}

	return provider, nil
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
