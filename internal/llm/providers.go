package llm

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/bimmerbailey/jigyokei/internal/config"
	"github.com/bimmerbailey/jigyokei/internal/llm/gemini"
	"github.com/bimmerbailey/jigyokei/internal/llm/ollama"
	"github.com/bimmerbailey/jigyokei/internal/llm/openai"
	"github.com/tmc/langchaingo/llms/anthropic"
)

// API key environment variables consulted when the config leaves the key empty.
const (
	EnvGeminiAPIKey    = "GOOGLE_API_KEY"
	EnvOpenAIAPIKey    = "OPENAI_API_KEY"
	EnvOpenAIOrgID     = "OPENAI_ORG_ID"
	EnvAnthropicAPIKey = "ANTHROPIC_API_KEY"
)

// resolveAPIKey checks config first, then falls back to environment variable.
// Returns empty string if neither is set.
func resolveAPIKey(configKey, envVarName string) string {
	if configKey != "" {
		return configKey
	}
	return os.Getenv(envVarName)
}

func missingCredential(provider, envVar, key string) error {
	return fmt.Errorf("%w: %s api key not set (set %s environment variable or llm.%s.api_key in config)",
		config.ErrMissingCredential, provider, envVar, key)
}

// newGeminiProvider creates the default Gemini provider.
func newGeminiProvider(ctx context.Context, cfg *config.Config, logger *slog.Logger) (Provider, error) {
	apiKey := resolveAPIKey(cfg.LLM.Gemini.APIKey, EnvGeminiAPIKey)
	if apiKey == "" {
		return nil, missingCredential("gemini", EnvGeminiAPIKey, "gemini")
	}

	p, err := gemini.New(ctx, gemini.Config{
		APIKey:  apiKey,
		Model:   cfg.LLM.Gemini.Model,
		BaseURL: cfg.LLM.Gemini.BaseURL,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini provider: %w", err)
	}

	logger.Info("initialized gemini provider", "model", cfg.LLM.Gemini.Model)
	return &geminiAdapter{provider: p}, nil
}

// newOpenAIProvider creates an OpenAI provider.
func newOpenAIProvider(cfg *config.Config, logger *slog.Logger) (Provider, error) {
	apiKey := resolveAPIKey(cfg.LLM.OpenAI.APIKey, EnvOpenAIAPIKey)
	if apiKey == "" {
		return nil, missingCredential("openai", EnvOpenAIAPIKey, "openai")
	}

	p, err := openai.New(openai.Config{
		APIKey:  apiKey,
		Model:   cfg.LLM.OpenAI.Model,
		BaseURL: cfg.LLM.OpenAI.BaseURL,
		OrgID:   resolveAPIKey(cfg.LLM.OpenAI.OrgID, EnvOpenAIOrgID),
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create openai provider: %w", err)
	}

	logger.Info("initialized openai provider",
		"model", cfg.LLM.OpenAI.Model,
		"base_url", cfg.LLM.OpenAI.BaseURL,
	)
	return &openaiAdapter{provider: p}, nil
}

// newAnthropicProvider creates an Anthropic/Claude provider through langchaingo.
func newAnthropicProvider(cfg *config.Config, logger *slog.Logger) (Provider, error) {
	apiKey := resolveAPIKey(cfg.LLM.Anthropic.APIKey, EnvAnthropicAPIKey)
	if apiKey == "" {
		return nil, missingCredential("anthropic", EnvAnthropicAPIKey, "anthropic")
	}

	model, err := anthropic.New(
		anthropic.WithToken(apiKey),
		anthropic.WithModel(cfg.LLM.Anthropic.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create anthropic provider: %w", err)
	}

	logger.Info("initialized anthropic provider", "model", cfg.LLM.Anthropic.Model)

	return &langchainAdapter{
		model:        model,
		defaultModel: cfg.LLM.Anthropic.Model,
		providerType: "anthropic",
		logger:       logger,
	}, nil
}

// newOllamaProvider creates a local Ollama provider. No credential is needed.
func newOllamaProvider(cfg *config.Config, logger *slog.Logger) (Provider, error) {
	p, err := ollama.New(ollama.Config{
		Host:  cfg.LLM.Ollama.Host,
		Model: cfg.LLM.Ollama.Model,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create ollama provider: %w", err)
	}

	logger.Info("initialized ollama provider",
		"host", cfg.LLM.Ollama.Host,
		"model", cfg.LLM.Ollama.Model,
	)
	return &ollamaAdapter{provider: p}, nil
}
