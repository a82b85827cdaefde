package output

import (
	"fmt"
	"strings"

	"github.com/bimmerbailey/jigyokei/internal/analysis"
	"github.com/bimmerbailey/jigyokei/internal/catalog"
)

// Presentation text fixed by the product owner.
const (
	RiskListHeader     = "【事業継続を脅かすリスク一覧】"
	SolutionListHeader = "【リスク一覧と解決策（ソリューション）】"
	Separator          = "----------------------------------------"

	// NoRisksMessage replaces both presentations when nothing was detected.
	NoRisksMessage = "リスクは検出されませんでした。"

	unknownSummary = "（内容不明）"
	unknownTrigger = "N/A"
)

// RiskList renders the numbered risk list with each risk's triggering
// utterance.
func RiskList(risks []analysis.RiskRecord) string {
	if len(risks) == 0 {
		return NoRisksMessage
	}

	var sb strings.Builder
	sb.WriteString(RiskListHeader + "\n")
	sb.WriteString(Separator + "\n")
	for i, r := range risks {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, orDefault(r.Summary, unknownSummary))
		fmt.Fprintf(&sb, "   (社長の発言：'%s')\n\n", orDefault(r.TriggerPhrase, unknownTrigger))
	}
	return sb.String()
}

// SolutionList renders each risk with its recommended solution. Risks that
// were never mapped show the fallback.
func SolutionList(risks []analysis.RiskRecord) string {
	if len(risks) == 0 {
		return NoRisksMessage
	}

	var sb strings.Builder
	sb.WriteString(SolutionListHeader + "\n")
	sb.WriteString(Separator + "\n")
	for _, r := range risks {
		fmt.Fprintf(&sb, "✅ %s\n", orDefault(r.Summary, unknownSummary))
		fmt.Fprintf(&sb, "   └─ 解決策 → 【%s】\n\n", orDefault(r.RecommendedSolution, catalog.FallbackName))
	}
	return sb.String()
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
