package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Environment names recognised by the server.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Database backends.
const (
	DatabaseSQLite   = "sqlite"
	DatabasePostgres = "postgres"
	DatabaseMongo    = "mongo"
)

// Classifier providers.
const (
	ProviderOpenAI     = "openai"
	ProviderGroq       = "groq"
	ProviderOpenRouter = "openrouter"
	ProviderGemini     = "gemini"
)

// DefaultTemperature applies when the classifier section omits temperature.
const DefaultTemperature float32 = 0.3

// Config holds application configuration
type Config struct {
	Server struct {
		Port           string   `yaml:"port"`
		Environment    string   `yaml:"environment"`
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"server"`

	Classifier ClassifierConfig `yaml:"classifier"`

	Database struct {
		Type string `yaml:"type"` // "sqlite", "postgres" or "mongo"
		Path string `yaml:"path"` // SQLite path, PostgreSQL URL or MongoDB URI
		Name string `yaml:"name"` // MongoDB database name
	} `yaml:"database"`

	Public struct {
		MaxEntries           int `yaml:"max_entries"`
		MaxDescriptionLength int `yaml:"max_description_length"`
	} `yaml:"public"`

	Notification NotificationConfig `yaml:"notification"`

	Auth struct {
		JWTSecret string `yaml:"jwt_secret"`
	} `yaml:"auth"`

	RateLimit struct {
		RequestsPerMinute int `yaml:"requests_per_minute"`
		Burst             int `yaml:"burst"`
	} `yaml:"rate_limit"`
}

// ClassifierConfig configures the LLM provider used for classification.
type ClassifierConfig struct {
	Provider          string   `yaml:"provider"`
	APIKey            string   `yaml:"api_key"`
	ModelName         string   `yaml:"model_name"`
	BaseURL           string   `yaml:"base_url"`
	MaxTokens         int      `yaml:"max_tokens"`
	Temperature       *float32 `yaml:"temperature"`
	RequestsPerMinute int      `yaml:"requests_per_minute"`
}

// NotificationConfig configures the best-effort notification sinks.
type NotificationConfig struct {
	QueueSize int `yaml:"queue_size"`

	Email struct {
		ResendAPIKey string `yaml:"resend_api_key"`
		From         string `yaml:"from"`
		To           string `yaml:"to"`
	} `yaml:"email"`

	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   int64  `yaml:"chat_id"`
	} `yaml:"telegram"`
}

// EmailEnabled reports whether every email setting is present.
func (n NotificationConfig) EmailEnabled() bool {
	return n.Email.ResendAPIKey != "" && n.Email.From != "" && n.Email.To != ""
}

// TelegramEnabled reports whether the Telegram sink can be used.
func (n NotificationConfig) TelegramEnabled() bool {
	return n.Telegram.BotToken != "" && n.Telegram.ChatID != 0
}

// SamplingTemperature returns the configured temperature. An explicit 0 is kept.
func (c ClassifierConfig) SamplingTemperature() float32 {
	if c.Temperature == nil {
		return DefaultTemperature
	}
	return *c.Temperature
}

// IsDevelopment reports whether test entries should be visible in listings.
func (c *Config) IsDevelopment() bool {
	return c.Server.Environment == EnvDevelopment
}

// LoadConfig loads configuration from YAML file
func LoadConfig(configPath string) (*Config, error) {
	raw, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}

	return Parse(raw)
}

// Parse decodes a YAML document, expanding ${VAR} references from the
// environment first, and applies defaults.
func Parse(raw []byte) (*Config, error) {
	config := &Config{}

	expanded := os.ExpandEnv(string(raw))
	if err := yaml.Unmarshal([]byte(expanded), config); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "3000"
	}

	if c.Server.Environment == "" {
		c.Server.Environment = EnvProduction
	}

	if c.Classifier.Provider == "" {
		c.Classifier.Provider = ProviderOpenAI
	}

	if c.Classifier.MaxTokens == 0 {
		c.Classifier.MaxTokens = 300
	}

	if c.Classifier.Temperature == nil {
		temperature := DefaultTemperature
		c.Classifier.Temperature = &temperature
	}

	if c.Database.Type == "" {
		c.Database.Type = DatabaseSQLite
	}

	if c.Database.Path == "" && c.Database.Type == DatabaseSQLite {
		c.Database.Path = "./data/painsignal.db"
	}

	if c.Database.Name == "" {
		c.Database.Name = "painsignal"
	}

	if c.Public.MaxEntries == 0 {
		c.Public.MaxEntries = 1000
	}

	if c.Public.MaxDescriptionLength == 0 {
		c.Public.MaxDescriptionLength = 5000
	}

	if c.Notification.QueueSize == 0 {
		c.Notification.QueueSize = 64
	}

	if c.RateLimit.RequestsPerMinute == 0 {
		c.RateLimit.RequestsPerMinute = 5
	}

	if c.RateLimit.Burst == 0 {
		c.RateLimit.Burst = c.RateLimit.RequestsPerMinute
	}
}

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	switch c.Database.Type {
	case DatabaseSQLite, DatabasePostgres, DatabaseMongo:
	default:
		return fmt.Errorf("unsupported database type %q", c.Database.Type)
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required for %s", c.Database.Type)
	}

	switch strings.ToLower(c.Classifier.Provider) {
	case ProviderOpenAI, ProviderGroq, ProviderOpenRouter, ProviderGemini:
	default:
		return fmt.Errorf("unsupported classifier provider %q", c.Classifier.Provider)
	}

	if c.Public.MaxEntries < 1 {
		return fmt.Errorf("public.max_entries must be positive, got %d", c.Public.MaxEntries)
	}

	if c.Public.MaxDescriptionLength < 1 {
		return fmt.Errorf("public.max_description_length must be positive, got %d", c.Public.MaxDescriptionLength)
	}

	if c.Classifier.MaxTokens < 1 {
		return fmt.Errorf("classifier.max_tokens must be positive, got %d", c.Classifier.MaxTokens)
	}

	return nil
}
