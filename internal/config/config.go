// Package config provides configuration types and helpers for jigyokei.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config holds the application-wide configuration.
type Config struct {
	Format   string         `mapstructure:"format"`
	Verbose  bool           `mapstructure:"verbose"`
	Debug    bool           `mapstructure:"debug"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Analysis AnalysisConfig `mapstructure:"analysis"`
	Server   ServerConfig   `mapstructure:"server"`
}

// LLMConfig holds configuration for LLM providers.
type LLMConfig struct {
	// Provider selects which LLM to use: "gemini", "openai", "anthropic", "ollama"
	Provider string `mapstructure:"provider" validate:"required,oneof=gemini openai anthropic ollama"`

	// Global settings applied to all providers
	Temperature float32 `mapstructure:"temperature" validate:"gte=0,lte=2"`
	MaxTokens   int     `mapstructure:"max_tokens" validate:"gte=0"`

	// Provider-specific configuration
	Gemini    GeminiConfig    `mapstructure:"gemini"`
	OpenAI    OpenAIConfig    `mapstructure:"openai"`
	Anthropic AnthropicConfig `mapstructure:"anthropic"`
	Ollama    OllamaConfig    `mapstructure:"ollama"`
}

// GeminiConfig holds Google Gemini settings.
type GeminiConfig struct {
	APIKey  string `mapstructure:"api_key"`  // Optional: read from GOOGLE_API_KEY if empty
	Model   string `mapstructure:"model"`    // e.g. "gemini-2.5-flash"
	BaseURL string `mapstructure:"base_url"` // Optional: alternate API endpoint
}

// OpenAIConfig holds OpenAI-specific settings.
type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key"`  // Optional: read from OPENAI_API_KEY if empty
	Model   string `mapstructure:"model"`    // e.g., "gpt-4o-mini"
	BaseURL string `mapstructure:"base_url"` // Optional: for compatible endpoints
	OrgID   string `mapstructure:"org_id"`   // Optional: organization ID
}

// AnthropicConfig holds Anthropic/Claude-specific settings.
type AnthropicConfig struct {
	APIKey string `mapstructure:"api_key"` // Optional: read from ANTHROPIC_API_KEY if empty
	Model  string `mapstructure:"model"`
}

// OllamaConfig holds Ollama-specific settings.
type OllamaConfig struct {
	Host  string `mapstructure:"host"`  // API endpoint
	Model string `mapstructure:"model"` // Default model name
}

// AnalysisConfig tunes the extraction/mapping pipeline.
type AnalysisConfig struct {
	// Concurrency bounds the number of solution-mapping calls in flight.
	Concurrency int `mapstructure:"concurrency" validate:"gte=1,lte=32"`

	// CallTimeout bounds every individual model call.
	CallTimeout time.Duration `mapstructure:"call_timeout" validate:"gt=0"`

	// Redact masks personal data before the log leaves the process.
	Redact         bool     `mapstructure:"redact"`
	RedactPatterns []string `mapstructure:"redact_patterns"`
}

// ServerConfig holds HTTP service settings.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr" validate:"required"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" validate:"gte=0"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" validate:"gte=0"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout" validate:"gte=0"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gte=0"`
	RateLimit       float64       `mapstructure:"rate_limit" validate:"gte=0"` // requests per second per client, 0 disables
	RateBurst       int           `mapstructure:"rate_burst" validate:"gte=0"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes" validate:"gt=0"`
}

// Default values shared by the CLI defaults and Default().
const (
	DefaultProvider        = "gemini"
	DefaultGeminiModel     = "gemini-2.5-flash"
	DefaultOpenAIModel     = "gpt-4o-mini"
	DefaultAnthropicModel  = "claude-3-5-haiku-latest"
	DefaultOllamaHost      = "http://localhost:11434"
	DefaultOllamaModel     = "llama3.2"
	DefaultConcurrency     = 4
	DefaultCallTimeout     = 60 * time.Second
	DefaultAddr            = ":8000"
	DefaultMaxBodyBytes    = 1 << 20
	DefaultShutdownTimeout = 10 * time.Second
)

// ErrMissingCredential is returned when a hosted provider has no API key.
// It is a startup (configuration) error and must never be raised per request.
var ErrMissingCredential = errors.New("llm credential not configured")

// ErrInvalidConfig wraps validation failures.
var ErrInvalidConfig = errors.New("invalid configuration")

// Default returns a Config populated with the built-in defaults.
func Default() *Config {
	return &Config{
		Format: "text",
		LLM: LLMConfig{
			Provider:  DefaultProvider,
			Gemini:    GeminiConfig{Model: DefaultGeminiModel},
			OpenAI:    OpenAIConfig{Model: DefaultOpenAIModel},
			Anthropic: AnthropicConfig{Model: DefaultAnthropicModel},
			Ollama:    OllamaConfig{Host: DefaultOllamaHost, Model: DefaultOllamaModel},
		},
		Analysis: AnalysisConfig{
			Concurrency: DefaultConcurrency,
			CallTimeout: DefaultCallTimeout,
		},
		Server: ServerConfig{
			Addr:            DefaultAddr,
			AllowedOrigins:  []string{"*"},
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    5 * time.Minute,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: DefaultShutdownTimeout,
			RateLimit:       5,
			RateBurst:       10,
			MaxBodyBytes:    DefaultMaxBodyBytes,
		},
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the configuration and returns an error wrapping
// ErrInvalidConfig that names every offending field.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("%w: config is nil", ErrInvalidConfig)
	}

	c.LLM.Provider = strings.ToLower(strings.TrimSpace(c.LLM.Provider))

	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s failed %s=%s", fe.Namespace(), fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
		}
	}
	return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(msgs, "; "))
}

// ActiveModel returns the model name configured for the selected provider.
func (c LLMConfig) ActiveModel() string {
	switch strings.ToLower(c.Provider) {
	case "gemini":
		return c.Gemini.Model
	case "openai":
		return c.OpenAI.Model
	case "anthropic":
		return c.Anthropic.Model
	case "ollama":
		return c.Ollama.Model
	default:
		return ""
	}
}
