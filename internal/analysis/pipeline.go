package analysis

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"
)

// RiskExtractor is the extraction stage consumed by Pipeline.
type RiskExtractor interface {
	Extract(ctx context.Context, log string) ([]RiskRecord, error)
}

// SolutionMapper is the classification stage consumed by Pipeline.
type SolutionMapper interface {
	Map(ctx context.Context, summary string) (string, error)
}

// Pipeline runs extraction followed by one mapping per extracted risk.
// It holds no per-request state and is safe for concurrent use.
type Pipeline struct {
	extractor RiskExtractor
	mapper    SolutionMapper
	opts      Options
	logger    *slog.Logger
}

// NewPipeline creates a Pipeline.
func NewPipeline(ex RiskExtractor, m SolutionMapper, opts Options, logger *slog.Logger) (*Pipeline, error) {
	if ex == nil {
		return nil, errors.New("extractor cannot be nil")
	}
	if m == nil {
		return nil, errors.New("mapper cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	return &Pipeline{extractor: ex, mapper: m, opts: opts.withDefaults(), logger: logger}, nil
}

// Analyze extracts risks from log and annotates each with a recommended
// solution. It never fails: extraction problems yield an empty Result and
// mapping problems yield the fallback for the affected risk only. Records are
// returned in extraction order.
func (p *Pipeline) Analyze(ctx context.Context, log string) Result {
	risks, err := p.extractor.Extract(ctx, log)
	if err != nil {
		p.logger.Error("risk extraction failed; returning empty result",
			"error", err,
			"reason", reasonFor(err))
		return emptyResult()
	}
	if len(risks) == 0 {
		return emptyResult()
	}

	out := make([]RiskRecord, len(risks))
	copy(out, risks)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Concurrency)

	for i := range out {
		summary := out[i].Summary
		if strings.TrimSpace(summary) == "" {
			p.logger.Warn("risk has no summary; skipping solution mapping", "risk_index", i)
			continue
		}

		g.Go(func() error {
			out[i].RecommendedSolution = p.mapOne(gctx, i, summary)
			// Failures are absorbed per risk so siblings keep running.
			return nil
		})
	}

	_ = g.Wait()

	return Result{Risks: out}
}

// mapOne maps a single summary and enforces that the answer is a catalog
// name, whatever the SolutionMapper returned.
func (p *Pipeline) mapOne(ctx context.Context, index int, summary string) string {
	solution, err := p.mapper.Map(ctx, summary)
	if err != nil {
		p.logger.Warn("solution mapping fell back",
			"risk_index", index,
			"reason", reasonFor(err),
			"error", err)
	}

	name, ok := p.opts.Catalog.Match(solution)
	if !ok {
		if err == nil {
			p.opts.Metrics.SolutionFallback(ReasonUnrecognized)
			p.logger.Warn("solution mapping fell back",
				"risk_index", index,
				"reason", ReasonUnrecognized,
				"solution", solution)
		}
		return p.opts.Catalog.Fallback.Name
	}
	return name
}
