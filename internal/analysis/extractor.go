package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bimmerbailey/jigyokei/internal/llm"
	"github.com/bimmerbailey/jigyokei/internal/metrics"
	"github.com/bimmerbailey/jigyokei/internal/prompt"
)

// Extractor turns a conversation log into risk records with one model call.
type Extractor struct {
	completer llm.Completer
	opts      Options
	logger    *slog.Logger
}

// NewExtractor creates an Extractor.
func NewExtractor(c llm.Completer, opts Options, logger *slog.Logger) (*Extractor, error) {
	if c == nil {
		return nil, errors.New("completer cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	return &Extractor{completer: c, opts: opts.withDefaults(), logger: logger}, nil
}

// Extract returns the risks found in log in the order the model listed them.
//
// A whitespace-only log yields no risks without calling the model. On failure
// the returned slice is empty and err wraps ErrModelCall, ErrEmptyResponse or
// ErrMalformedResponse.
func (e *Extractor) Extract(ctx context.Context, log string) ([]RiskRecord, error) {
	if strings.TrimSpace(log) == "" {
		e.logger.Debug("conversation log is empty; skipping extraction")
		return []RiskRecord{}, nil
	}

	if e.opts.Redactor != nil {
		var n int
		log, n = e.opts.Redactor.Redact(log)
		if n > 0 {
			e.logger.Info("redacted personal data from conversation log", "replacements", n)
		}
	}

	text, err := prompt.Build(prompt.TypeRiskExtraction, prompt.BuildOptions{ConversationLog: log})
	if err != nil {
		return []RiskRecord{}, fmt.Errorf("build extraction prompt: %w", err)
	}

	raw, err := callModel(ctx, e.completer, text, metrics.StageExtraction, e.opts)
	if err != nil {
		e.opts.Metrics.ExtractionFailure(reasonFor(err))
		return []RiskRecord{}, err
	}

	risks, err := ParseRisks(raw)
	if err != nil {
		e.opts.Metrics.ExtractionFailure(reasonFor(err))
		e.logger.Debug("unparseable extraction response", "response", truncate(raw, 500))
		return []RiskRecord{}, err
	}

	e.logger.Info("extracted risks", "count", len(risks))
	return risks, nil
}

// truncate shortens s to at most n runes for logging.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
