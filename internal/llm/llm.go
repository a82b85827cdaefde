// Package llm provides an abstraction layer for Large Language Model interactions.
//
// The package defines a Provider interface that enables swapping between
// hosted and local models (Gemini, OpenAI, Anthropic, Ollama) without changing
// consuming code, and a Completer that reduces a Provider to the single
// text-in/text-out call the analysis pipeline needs.
//
// Example usage:
//
//	provider, err := llm.NewProvider(ctx, cfg, logger)
//	if err != nil {
//	    return err
//	}
//
//	completer := llm.NewCompleter(provider, &llm.ChatOptions{Temperature: 0})
//	text, err := completer.Complete(ctx, "...")
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bimmerbailey/jigyokei/internal/config"
)

// Provider defines the interface for LLM interactions.
// Implementations must be safe for concurrent use.
type Provider interface {
	// Chat sends messages and returns a complete response.
	// The context can be used to cancel the request.
	Chat(ctx context.Context, messages []Message, opts *ChatOptions) (*Response, error)

	// Heartbeat checks if the provider is reachable and healthy.
	// Returns nil if the provider is available, otherwise returns an error.
	Heartbeat(ctx context.Context) error

	// ModelAvailable checks if a specific model is available for use.
	ModelAvailable(ctx context.Context, model string) (bool, error)
}

// Message represents a single message in a conversation.
type Message struct {
	// Role identifies the message sender: "system", "user", or "assistant"
	Role string

	// Content is the message text
	Content string
}

// ChatOptions configures chat behavior.
// All fields are optional; nil opts uses provider defaults.
type ChatOptions struct {
	// Model specifies which model to use (e.g., "gemini-2.5-flash", "gpt-4o-mini")
	Model string

	// Temperature controls randomness (0.0 = deterministic, 2.0 = very random)
	Temperature float32

	// MaxTokens limits the response length (0 = unlimited/provider default)
	MaxTokens int
}

// Response represents a complete LLM response.
type Response struct {
	// Content is the generated text
	Content string

	// Model is the name of the model that generated the response
	Model string

	// TokensPrompt is the number of tokens in the prompt
	TokensPrompt int

	// TokensTotal is the total number of tokens (prompt + completion)
	TokensTotal int
}

// Common errors returned by LLM providers.
var (
	// ErrProviderUnavailable indicates the LLM provider is not reachable
	ErrProviderUnavailable = errors.New("llm provider is not reachable")

	// ErrModelNotFound indicates the requested model is not available
	ErrModelNotFound = errors.New("requested model is not available")

	// ErrInvalidResponse indicates the provider returned an invalid response
	ErrInvalidResponse = errors.New("provider returned invalid response")

	// ErrRateLimited indicates the provider rejected the call for quota reasons
	ErrRateLimited = errors.New("llm quota exceeded")

	// ErrContextCanceled indicates the operation was canceled via context
	ErrContextCanceled = errors.New("operation was canceled")
)

// NewProvider creates an LLM provider based on the configuration.
// A hosted provider without a resolvable API key fails with
// config.ErrMissingCredential; callers treat that as fatal at startup.
func NewProvider(ctx context.Context, cfg *config.Config, logger *slog.Logger) (Provider, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	providerType := strings.ToLower(cfg.LLM.Provider)
	logger.Debug("creating llm provider", "type", providerType)

	switch providerType {
	case "gemini":
		return newGeminiProvider(ctx, cfg, logger)
	case "openai":
		return newOpenAIProvider(cfg, logger)
	case "anthropic":
		return newAnthropicProvider(cfg, logger)
	case "ollama":
		return newOllamaProvider(cfg, logger)
	case "":
		return nil, errors.New("llm provider not specified in configuration")
	default:
		return nil, fmt.Errorf("unknown llm provider: %s (supported: gemini, openai, anthropic, ollama)", providerType)
	}
}
