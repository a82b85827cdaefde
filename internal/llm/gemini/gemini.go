// Package gemini provides a Google Gemini implementation of the llm.Provider
// interface backed by google.golang.org/genai.
//
// Like the ollama package it defines its own message types with the same
// shape as the llm package to avoid an import cycle.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/genai"
)

// DefaultModel is used when Config.Model is empty.
const DefaultModel = "gemini-2.5-flash"

// Config holds Gemini-specific configuration.
type Config struct {
	// APIKey authenticates against the Gemini API. Required.
	APIKey string

	// Model is the default model (e.g., "gemini-2.5-flash")
	Model string

	// BaseURL overrides the API endpoint. Empty uses the SDK default.
	BaseURL string
}

// Message represents a single message in a conversation.
type Message struct {
	Role    string
	Content string
}

// ChatOptions configures chat behavior.
type ChatOptions struct {
	Model       string
	Temperature float32
	MaxTokens   int
}

// Response represents a complete LLM response.
type Response struct {
	Content      string
	Model        string
	TokensPrompt int
	TokensTotal  int
}

// Common errors
var (
	ErrProviderUnavailable = errors.New("llm provider is not reachable")
	ErrContextCanceled     = errors.New("operation was canceled")
	ErrMissingAPIKey       = errors.New("gemini api key is required")
)

// Provider implements the LLM provider interface for Gemini.
type Provider struct {
	client *genai.Client
	config Config
	logger *slog.Logger
}

// New creates a Gemini provider. The client is created eagerly so that a bad
// configuration fails at startup rather than on the first request.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Provider, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	logger.Debug("created gemini client", "model", cfg.Model, "base_url", cfg.BaseURL)

	return &Provider{
		client: client,
		config: cfg,
		logger: logger,
	}, nil
}

// Chat sends messages to Gemini and returns a complete response.
// System messages are folded into the request's system instruction.
func (p *Provider) Chat(ctx context.Context, messages []Message, opts *ChatOptions) (*Response, error) {
	if len(messages) == 0 {
		return nil, errors.New("messages cannot be empty")
	}

	model := p.config.Model
	genCfg := &genai.GenerateContentConfig{}
	if opts != nil {
		if opts.Model != "" {
			model = opts.Model
		}
		genCfg.Temperature = genai.Ptr(opts.Temperature)
		if opts.MaxTokens > 0 {
			genCfg.MaxOutputTokens = int32(opts.MaxTokens)
		}
	}

	var system []string
	contents := make([]*genai.Content, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case "system":
			system = append(system, msg.Content)
		case "assistant":
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleUser))
		}
	}
	if len(system) > 0 {
		genCfg.SystemInstruction = genai.NewContentFromText(strings.Join(system, "\n\n"), genai.RoleUser)
	}
	if len(contents) == 0 {
		return nil, errors.New("messages must include at least one user message")
	}

	p.logger.Debug("sending generate content request", "model", model, "messages", len(messages))

	resp, err := p.client.Models.GenerateContent(ctx, model, contents, genCfg)
	if err != nil {
		p.logger.Error("generate content failed", "error", err, "model", model)
		return nil, wrapError(err)
	}

	out := &Response{
		Content: resp.Text(),
		Model:   model,
	}
	if resp.ModelVersion != "" {
		out.Model = resp.ModelVersion
	}
	if resp.UsageMetadata != nil {
		out.TokensPrompt = int(resp.UsageMetadata.PromptTokenCount)
		out.TokensTotal = int(resp.UsageMetadata.TotalTokenCount)
	}

	p.logger.Debug("generate content completed",
		"model", out.Model,
		"prompt_tokens", out.TokensPrompt,
		"total_tokens", out.TokensTotal)

	return out, nil
}

// Heartbeat checks that the API is reachable and the key is accepted by
// fetching metadata for the configured model.
func (p *Provider) Heartbeat(ctx context.Context) error {
	if _, err := p.client.Models.Get(ctx, p.config.Model, nil); err != nil {
		p.logger.Error("gemini heartbeat failed", "error", err)
		return wrapError(err)
	}
	return nil
}

// ModelAvailable reports whether model can be resolved by the API.
func (p *Provider) ModelAvailable(ctx context.Context, model string) (bool, error) {
	if _, err := p.client.Models.Get(ctx, model, nil); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return false, wrapError(err)
		}
		p.logger.Debug("model not found", "model", model, "error", err)
		return false, nil
	}
	return true, nil
}

func wrapError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrContextCanceled, err)
	}
	return fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
}
