package prompt

import (
	"errors"
	"fmt"

	"github.com/bimmerbailey/jigyokei/internal/catalog"
)

// PromptType identifies the task a prompt is designed to perform.
type PromptType string

const (
	// TypeRiskExtraction asks the model to list the management risks found in
	// a conversation log as a JSON object with a "risks" array.
	TypeRiskExtraction PromptType = "risk_extraction"

	// TypeSolutionMapping asks the model to classify a single risk summary
	// into exactly one catalog product name.
	TypeSolutionMapping PromptType = "solution_mapping"
)

// BuildOptions holds the contextual information required to build a prompt.
type BuildOptions struct {
	// ConversationLog is the raw advisor/owner transcript.
	// Required for [TypeRiskExtraction].
	ConversationLog string

	// RiskSummary is the one-line risk description to classify.
	// Required for [TypeSolutionMapping].
	RiskSummary string

	// Catalog constrains the classification answer.
	// Required for [TypeSolutionMapping].
	Catalog catalog.Catalog
}

// ErrMissingField is returned by [Build] when a required field for the
// requested [PromptType] is absent from [BuildOptions].
var ErrMissingField = errors.New("prompt: missing required field")

// ErrUnknownType is returned by [Build] for an unsupported [PromptType].
var ErrUnknownType = errors.New("prompt: unknown prompt type")

// missingField wraps [ErrMissingField] with the specific field name.
func missingField(field string) error {
	return fmt.Errorf("%w: %s", ErrMissingField, field)
}
