package prompt

import (
	"fmt"
	"strings"
)

// Build renders the prompt text for pt.
//
// Required fields per PromptType:
//   - TypeRiskExtraction:  ConversationLog must contain non-whitespace text
//   - TypeSolutionMapping: RiskSummary must be non-empty and Catalog must list
//     at least one product
//
// Returns ErrMissingField if a required field is absent and ErrUnknownType for
// any other PromptType.
func Build(pt PromptType, opts BuildOptions) (string, error) {
	switch pt {
	case TypeRiskExtraction:
		return buildRiskExtraction(opts)
	case TypeSolutionMapping:
		return buildSolutionMapping(opts)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownType, pt)
	}
}

func buildRiskExtraction(opts BuildOptions) (string, error) {
	if strings.TrimSpace(opts.ConversationLog) == "" {
		return "", missingField("ConversationLog")
	}

	var sb strings.Builder
	sb.WriteString(riskExtractionInstruction)
	sb.WriteString("\n\n# 入力：会話ログ\n")
	sb.WriteString(opts.ConversationLog)
	sb.WriteString("\n")

	return sb.String(), nil
}

func buildSolutionMapping(opts BuildOptions) (string, error) {
	if strings.TrimSpace(opts.RiskSummary) == "" {
		return "", missingField("RiskSummary")
	}
	if len(opts.Catalog.Products) == 0 {
		return "", missingField("Catalog")
	}

	var sb strings.Builder
	sb.WriteString(solutionMappingInstruction)
	sb.WriteString("\n\n# 解決策リスト\n")
	for _, p := range opts.Catalog.Entries() {
		sb.WriteString(fmt.Sprintf("- \"%s\": %s\n", p.Name, p.Description))
	}

	sb.WriteString("\n# 入力される経営リスク\n")
	sb.WriteString(opts.RiskSummary)
	sb.WriteString("\n\n# 出力（解決策の名称のみを記述すること）\n")

	return sb.String(), nil
}
