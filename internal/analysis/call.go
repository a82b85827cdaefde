package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bimmerbailey/jigyokei/internal/llm"
	"github.com/bimmerbailey/jigyokei/internal/metrics"
)

var errCallTimeout = errors.New("call timed out")

// callModel sends prompt under the per-call timeout and records the outcome.
// Every failure wraps ErrModelCall; deadline expiry additionally wraps
// errCallTimeout.
func callModel(ctx context.Context, c llm.Completer, prompt, stage string, opts Options) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, opts.CallTimeout)
	defer cancel()

	start := time.Now()
	raw, err := c.Complete(callCtx, prompt)
	elapsed := time.Since(start)

	if err != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			opts.Metrics.ModelCall(stage, metrics.OutcomeTimeout, elapsed)
			return "", fmt.Errorf("%w: %w after %s: %v", ErrModelCall, errCallTimeout, opts.CallTimeout, err)
		}
		opts.Metrics.ModelCall(stage, metrics.OutcomeError, elapsed)
		return "", fmt.Errorf("%w: %v", ErrModelCall, err)
	}

	opts.Metrics.ModelCall(stage, metrics.OutcomeOK, elapsed)
	return raw, nil
}
