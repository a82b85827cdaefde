package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bimmerbailey/jigyokei/internal/llm/gemini"
	"github.com/bimmerbailey/jigyokei/internal/llm/ollama"
	"github.com/bimmerbailey/jigyokei/internal/llm/openai"
	"github.com/tmc/langchaingo/llms"
)

// The subpackages mirror Message, ChatOptions and Response field for field,
// so the adapters below convert with plain struct conversions.

// --- Ollama ---

type ollamaAdapter struct {
	provider *ollama.Provider
}

func (a *ollamaAdapter) Chat(ctx context.Context, messages []Message, opts *ChatOptions) (*Response, error) {
	msgs := make([]ollama.Message, len(messages))
	for i, m := range messages {
		msgs[i] = ollama.Message(m)
	}
	resp, err := a.provider.Chat(ctx, msgs, (*ollama.ChatOptions)(opts))
	if err != nil {
		return nil, mapError(err, ollama.ErrContextCanceled, nil)
	}
	return (*Response)(resp), nil
}

func (a *ollamaAdapter) Heartbeat(ctx context.Context) error {
	return mapError(a.provider.Heartbeat(ctx), ollama.ErrContextCanceled, nil)
}

func (a *ollamaAdapter) ModelAvailable(ctx context.Context, model string) (bool, error) {
	ok, err := a.provider.ModelAvailable(ctx, model)
	return ok, mapError(err, ollama.ErrContextCanceled, nil)
}

// --- Gemini ---

type geminiAdapter struct {
	provider *gemini.Provider
}

func (a *geminiAdapter) Chat(ctx context.Context, messages []Message, opts *ChatOptions) (*Response, error) {
	msgs := make([]gemini.Message, len(messages))
	for i, m := range messages {
		msgs[i] = gemini.Message(m)
	}
	resp, err := a.provider.Chat(ctx, msgs, (*gemini.ChatOptions)(opts))
	if err != nil {
		return nil, mapError(err, gemini.ErrContextCanceled, nil)
	}
	return (*Response)(resp), nil
}

func (a *geminiAdapter) Heartbeat(ctx context.Context) error {
	return mapError(a.provider.Heartbeat(ctx), gemini.ErrContextCanceled, nil)
}

func (a *geminiAdapter) ModelAvailable(ctx context.Context, model string) (bool, error) {
	ok, err := a.provider.ModelAvailable(ctx, model)
	return ok, mapError(err, gemini.ErrContextCanceled, nil)
}

// --- OpenAI ---

type openaiAdapter struct {
	provider *openai.Provider
}

func (a *openaiAdapter) Chat(ctx context.Context, messages []Message, opts *ChatOptions) (*Response, error) {
	msgs := make([]openai.Message, len(messages))
	for i, m := range messages {
		msgs[i] = openai.Message(m)
	}
	resp, err := a.provider.Chat(ctx, msgs, (*openai.ChatOptions)(opts))
	if err != nil {
		return nil, mapError(err, openai.ErrContextCanceled, openai.ErrRateLimited)
	}
	return (*Response)(resp), nil
}

func (a *openaiAdapter) Heartbeat(ctx context.Context) error {
	return mapError(a.provider.Heartbeat(ctx), openai.ErrContextCanceled, openai.ErrRateLimited)
}

func (a *openaiAdapter) ModelAvailable(ctx context.Context, model string) (bool, error) {
	ok, err := a.provider.ModelAvailable(ctx, model)
	return ok, mapError(err, openai.ErrContextCanceled, openai.ErrRateLimited)
}

// mapError rewraps a subpackage error so callers can match on this package's
// sentinels. Anything that is not a cancellation or quota error is reported as
// ErrProviderUnavailable.
func mapError(err, canceled, rateLimited error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, canceled), errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", ErrContextCanceled, err)
	case rateLimited != nil && errors.Is(err, rateLimited):
		return fmt.Errorf("%w: %v", ErrRateLimited, err)
	default:
		return fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
}

// --- langchaingo (Anthropic) ---

// langchainAdapter implements the Provider interface using langchaingo.
// This adapter translates between our Provider interface and langchaingo's llms.Model.
type langchainAdapter struct {
	model        llms.Model
	defaultModel string
	providerType string
	logger       *slog.Logger
}

// Chat sends messages and returns a complete response.
func (a *langchainAdapter) Chat(ctx context.Context, messages []Message, opts *ChatOptions) (*Response, error) {
	if len(messages) == 0 {
		return nil, errors.New("messages cannot be empty")
	}

	resp, err := a.model.GenerateContent(ctx, convertMessages(messages), convertOptions(opts, a.defaultModel)...)
	if err != nil {
		a.logger.Error("chat request failed", "provider", a.providerType, "error", err)
		return nil, mapError(err, context.Canceled, nil)
	}

	return convertResponse(resp, a.defaultModel), nil
}

// Heartbeat sends a one-token ping; hosted providers expose no cheaper probe.
func (a *langchainAdapter) Heartbeat(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := a.Chat(ctx, []Message{{Role: "user", Content: "ping"}}, &ChatOptions{MaxTokens: 1})
	return err
}

// ModelAvailable assumes the hosted model exists; a bad name fails at request time.
func (a *langchainAdapter) ModelAvailable(ctx context.Context, model string) (bool, error) {
	return true, nil
}

// --- Conversion Helpers ---

func convertMessages(messages []Message) []llms.MessageContent {
	result := make([]llms.MessageContent, len(messages))
	for i, msg := range messages {
		result[i] = llms.TextParts(convertRole(msg.Role), msg.Content)
	}
	return result
}

func convertRole(role string) llms.ChatMessageType {
	switch role {
	case "system":
		return llms.ChatMessageTypeSystem
	case "user":
		return llms.ChatMessageTypeHuman
	case "assistant":
		return llms.ChatMessageTypeAI
	default:
		return llms.ChatMessageTypeGeneric
	}
}

func convertOptions(opts *ChatOptions, defaultModel string) []llms.CallOption {
	result := []llms.CallOption{}

	if opts != nil && opts.Model != "" {
		result = append(result, llms.WithModel(opts.Model))
	} else {
		result = append(result, llms.WithModel(defaultModel))
	}

	if opts != nil {
		result = append(result, llms.WithTemperature(float64(opts.Temperature)))
	}

	if opts != nil && opts.MaxTokens > 0 {
		result = append(result, llms.WithMaxTokens(opts.MaxTokens))
	}

	return result
}

func convertResponse(lcResp *llms.ContentResponse, defaultModel string) *Response {
	if lcResp == nil || len(lcResp.Choices) == 0 {
		return &Response{Model: defaultModel}
	}

	choice := lcResp.Choices[0]

	return &Response{
		Content:      choice.Content,
		Model:        getStringFromInfo(choice.GenerationInfo, "Model", defaultModel),
		TokensPrompt: getIntFromInfo(choice.GenerationInfo, "InputTokens"),
		TokensTotal:  getIntFromInfo(choice.GenerationInfo, "InputTokens") + getIntFromInfo(choice.GenerationInfo, "OutputTokens"),
	}
}

func getIntFromInfo(info map[string]any, key string) int {
	if v, ok := info[key].(int); ok {
		return v
	}
	if v, ok := info[key].(float64); ok {
		return int(v)
	}
	return 0
}

func getStringFromInfo(info map[string]any, key string, defaultVal string) string {
	if v, ok := info[key].(string); ok {
		return v
	}
	return defaultVal
}
