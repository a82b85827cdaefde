package analysis

import (
	"errors"
	"time"

	"github.com/bimmerbailey/jigyokei/internal/catalog"
	"github.com/bimmerbailey/jigyokei/internal/metrics"
)

// RiskRecord is one management risk found in a conversation.
type RiskRecord struct {
	Category      string `json:"risk_category" yaml:"risk_category"`
	Summary       string `json:"risk_summary" yaml:"risk_summary"`
	TriggerPhrase string `json:"trigger_phrase" yaml:"trigger_phrase"`

	// RecommendedSolution is a catalog product name or the fallback. It stays
	// empty for records without a summary.
	RecommendedSolution string `json:"recommended_solution,omitempty" yaml:"recommended_solution,omitempty"`
}

// Result is the ordered outcome of one analysis. An empty Risks slice is the
// valid "no risk detected" state.
type Result struct {
	Risks []RiskRecord `json:"risks" yaml:"risks"`
}

// Empty reports whether no risk was detected.
func (r Result) Empty() bool {
	return len(r.Risks) == 0
}

func emptyResult() Result {
	return Result{Risks: []RiskRecord{}}
}

// Options tunes the pipeline. Zero values select the defaults.
type Options struct {
	// CallTimeout bounds every individual model call.
	CallTimeout time.Duration

	// Concurrency bounds the number of mapping calls in flight.
	Concurrency int

	// Catalog is the set of valid solutions. Empty uses catalog.Default().
	Catalog catalog.Catalog

	// Metrics receives call and fallback counters. Nil disables them.
	Metrics *metrics.Metrics

	// Redactor, if set, masks personal data in the log before extraction.
	Redactor Redactor
}

// Redactor masks sensitive values. *redact.Redactor satisfies it.
type Redactor interface {
	Redact(text string) (string, int)
}

// Defaults applied by withDefaults.
const (
	DefaultCallTimeout = 60 * time.Second
	DefaultConcurrency = 4
)

func (o Options) withDefaults() Options {
	if o.CallTimeout <= 0 {
		o.CallTimeout = DefaultCallTimeout
	}
	if o.Concurrency <= 0 {
		o.Concurrency = DefaultConcurrency
	}
	if len(o.Catalog.Products) == 0 {
		o.Catalog = catalog.Default()
	}
	if o.Catalog.Fallback.Name == "" {
		o.Catalog.Fallback = catalog.Default().Fallback
	}
	return o
}

// Errors reported by the extraction and mapping stages. Pipeline consumes
// them; they never reach Analyze's caller.
var (
	// ErrEmptyResponse indicates the model returned no text
	ErrEmptyResponse = errors.New("model returned an empty response")

	// ErrMalformedResponse indicates the text is not the expected JSON shape
	ErrMalformedResponse = errors.New("model response is not valid risk JSON")

	// ErrModelCall indicates the model call itself failed or timed out
	ErrModelCall = errors.New("model call failed")

	// ErrUnrecognizedSolution indicates the answer names no catalog entry
	ErrUnrecognizedSolution = errors.New("model answer is not a catalog solution")
)

// Reason labels used in logs and metrics.
const (
	ReasonEmpty        = "empty_response"
	ReasonMalformed    = "malformed_response"
	ReasonModelCall    = "model_call"
	ReasonTimeout      = "timeout"
	ReasonUnrecognized = "unrecognized_solution"
	ReasonOther        = "other"
)

// reasonFor classifies err into one of the Reason labels.
func reasonFor(err error) string {
	switch {
	case errors.Is(err, ErrEmptyResponse):
		return ReasonEmpty
	case errors.Is(err, ErrMalformedResponse):
		return ReasonMalformed
	case errors.Is(err, ErrUnrecognizedSolution):
		return ReasonUnrecognized
	case errors.Is(err, ErrModelCall) && errors.Is(err, errCallTimeout):
		return ReasonTimeout
	case errors.Is(err, ErrModelCall):
		return ReasonModelCall
	default:
		return ReasonOther
	}
}
