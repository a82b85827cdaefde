// Package llm provides a unified interface for interacting with Large Language Models.
//
// # Overview
//
// The Provider interface abstracts Gemini, OpenAI, Anthropic and Ollama behind
// a common API so the analysis pipeline never depends on a specific vendor.
// Gemini is the default provider.
//
// # Architecture
//
// Provider-specific implementations live in subpackages. To avoid import
// cycles, subpackages define their own types with the same shape as this
// package and the adapters in adapter.go convert between them. Anthropic is
// reached through langchaingo and needs no subpackage.
//
//	┌──────────────┐
//	│ llm package  │  ← Provider interface, NewProvider(), Completer
//	└──────┬───────┘
//	       │
//	       ├──────────────┬──────────────┐
//	┌──────▼──────┐  ┌────▼───────┐  ┌───▼────────┐
//	│ llm/gemini  │  │ llm/openai │  │ llm/ollama │
//	└─────────────┘  └────────────┘  └────────────┘
//
// # Usage
//
//	provider, err := llm.NewProvider(ctx, cfg, logger)
//	if errors.Is(err, config.ErrMissingCredential) {
//	    // fatal at startup
//	}
//
//	resp, err := provider.Chat(ctx, []llm.Message{
//	    {Role: "user", Content: prompt},
//	}, &llm.ChatOptions{Temperature: 0})
//
// Most callers only need text in and text out:
//
//	completer := llm.NewCompleter(provider, &llm.ChatOptions{Temperature: 0})
//	text, err := completer.Complete(ctx, prompt)
//
// # Error Handling
//
//   - ErrProviderUnavailable: LLM service is not reachable or rejected the call
//   - ErrRateLimited: quota exceeded
//   - ErrModelNotFound: Requested model is not available
//   - ErrInvalidResponse: Provider returned malformed data
//   - ErrContextCanceled: Operation was canceled or timed out via context
//
// # Thread Safety
//
// All Provider implementations must be safe for concurrent use.
package llm
