package llm

import (
	"context"
	"errors"
)

// Completer is the text-in/text-out capability the analysis pipeline depends
// on. Implementations must be safe for concurrent use.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// CompleterFunc adapts an ordinary function to the Completer interface.
type CompleterFunc func(ctx context.Context, prompt string) (string, error)

// Complete calls f(ctx, prompt).
func (f CompleterFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

type providerCompleter struct {
	provider Provider
	opts     *ChatOptions
}

// NewCompleter sends each prompt to p as a single user message using opts.
func NewCompleter(p Provider, opts *ChatOptions) Completer {
	return &providerCompleter{provider: p, opts: opts}
}

// Complete returns the response content verbatim; an empty completion is not
// an error at this layer.
func (c *providerCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	if c.provider == nil {
		return "", errors.New("completer has no provider")
	}

	resp, err := c.provider.Chat(ctx, []Message{{Role: "user", Content: prompt}}, c.opts)
	if err != nil {
		return "", err
	}
	if resp == nil {
		return "", ErrInvalidResponse
	}
	return resp.Content, nil
}
