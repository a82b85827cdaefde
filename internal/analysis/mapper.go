package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bimmerbailey/jigyokei/internal/catalog"
	"github.com/bimmerbailey/jigyokei/internal/llm"
	"github.com/bimmerbailey/jigyokei/internal/metrics"
	"github.com/bimmerbailey/jigyokei/internal/prompt"
)

// Mapper classifies a single risk summary against the solution catalog.
type Mapper struct {
	completer llm.Completer
	catalog   catalog.Catalog
	opts      Options
	logger    *slog.Logger
}

// NewMapper creates a Mapper over cat. The catalog must list at least one
// product.
func NewMapper(c llm.Completer, cat catalog.Catalog, opts Options, logger *slog.Logger) (*Mapper, error) {
	if c == nil {
		return nil, errors.New("completer cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if len(cat.Products) == 0 {
		return nil, errors.New("catalog has no products")
	}
	if cat.Fallback.Name == "" {
		cat.Fallback.Name = catalog.FallbackName
	}

	opts.Catalog = cat
	return &Mapper{completer: c, catalog: cat, opts: opts.withDefaults(), logger: logger}, nil
}

// Map returns the catalog name recommended for summary. The returned name is
// always a catalog product or the fallback; a non-nil error explains why the
// fallback was used.
func (m *Mapper) Map(ctx context.Context, summary string) (string, error) {
	fallback := m.catalog.Fallback.Name

	text, err := prompt.Build(prompt.TypeSolutionMapping, prompt.BuildOptions{
		RiskSummary: summary,
		Catalog:     m.catalog,
	})
	if err != nil {
		m.opts.Metrics.SolutionFallback(ReasonOther)
		return fallback, fmt.Errorf("build mapping prompt: %w", err)
	}

	answer, err := callModel(ctx, m.completer, text, metrics.StageMapping, m.opts)
	if err != nil {
		m.opts.Metrics.SolutionFallback(reasonFor(err))
		return fallback, err
	}

	name, ok := m.catalog.Match(answer)
	if !ok {
		m.opts.Metrics.SolutionFallback(ReasonUnrecognized)
		return fallback, fmt.Errorf("%w: %q", ErrUnrecognizedSolution, truncate(answer, 80))
	}

	m.logger.Debug("mapped risk to solution", "solution", name)
	return name, nil
}
