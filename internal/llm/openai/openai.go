// Package openai provides an OpenAI (and OpenAI-compatible endpoint)
// implementation of the llm.Provider interface using go-openai.
package openai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// DefaultModel is used when Config.Model is empty.
const DefaultModel = "gpt-4o-mini"

// Config holds OpenAI-specific configuration.
type Config struct {
	APIKey  string
	Model   string
	BaseURL string // Optional: for compatible endpoints
	OrgID   string
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
	ErrRateLimited         = errors.New("llm quota exceeded")
	ErrInvalidResponse     = errors.New("provider returned invalid response")
	ErrMissingAPIKey       = errors.New("openai api key is required")
)

// Provider implements the LLM provider interface for OpenAI.
type Provider struct {
	client *openai.Client
	config Config
	logger *slog.Logger
}

// New creates an OpenAI provider.
func New(cfg Config, logger *slog.Logger) (*Provider, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	if cfg.OrgID != "" {
		clientCfg.OrgID = cfg.OrgID
	}

	logger.Debug("created openai client", "model", cfg.Model, "base_url", clientCfg.BaseURL)

	return &Provider{
		client: openai.NewClientWithConfig(clientCfg),
		config: cfg,
		logger: logger,
	}, nil
}

// isReasoningModel reports whether model rejects max_tokens in favour of
// max_completion_tokens.
func isReasoningModel(model string) bool {
	for _, prefix := range []string{"o1", "o3", "o4", "gpt-5"} {
		if strings.HasPrefix(model, prefix) {
			return true
		}
	}
	return false
}

// Chat sends messages and returns the first choice.
func (p *Provider) Chat(ctx context.Context, messages []Message, opts *ChatOptions) (*Response, error) {
	if len(messages) == 0 {
		return nil, errors.New("messages cannot be empty")
	}

	req := openai.ChatCompletionRequest{
		Model:    p.config.Model,
		Messages: make([]openai.ChatCompletionMessage, len(messages)),
	}
	for i, msg := range messages {
		req.Messages[i] = openai.ChatCompletionMessage{Role: convertRole(msg.Role), Content: msg.Content}
	}

	if opts != nil {
		if opts.Model != "" {
			req.Model = opts.Model
		}
		if !isReasoningModel(req.Model) {
			req.Temperature = opts.Temperature
			// temperature is omitempty upstream; zero has to be sent as the smallest float.
			if req.Temperature == 0 {
				req.Temperature = math.SmallestNonzeroFloat32
			}
		}
		if opts.MaxTokens > 0 {
			if isReasoningModel(req.Model) {
				req.MaxCompletionTokens = opts.MaxTokens
			} else {
				req.MaxTokens = opts.MaxTokens
			}
		}
	}

	p.logger.Debug("sending chat completion", "model", req.Model, "messages", len(messages))

	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		p.logger.Error("chat completion failed", "error", err, "model", req.Model)
		return nil, wrapError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices returned", ErrInvalidResponse)
	}

	return &Response{
		Content:      resp.Choices[0].Message.Content,
		Model:        resp.Model,
		TokensPrompt: resp.Usage.PromptTokens,
		TokensTotal:  resp.Usage.TotalTokens,
	}, nil
}

// Heartbeat lists models, which succeeds only when the endpoint is reachable
// and the key is accepted.
func (p *Provider) Heartbeat(ctx context.Context) error {
	if _, err := p.client.ListModels(ctx); err != nil {
		p.logger.Error("openai heartbeat failed", "error", err)
		return wrapError(err)
	}
	return nil
}

// ModelAvailable reports whether the endpoint knows model.
func (p *Provider) ModelAvailable(ctx context.Context, model string) (bool, error) {
	_, err := p.client.GetModel(ctx, model)
	if err == nil {
		return true, nil
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusNotFound {
		return false, nil
	}
	return false, wrapError(err)
}

func convertRole(role string) string {
	switch role {
	case "system":
		return openai.ChatMessageRoleSystem
	case "assistant":
		return openai.ChatMessageRoleAssistant
	default:
		return openai.ChatMessageRoleUser
	}
}

func wrapError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrContextCanceled, err)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%w: %v", ErrRateLimited, err)
	}
	return fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
}
