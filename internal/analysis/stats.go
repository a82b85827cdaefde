package analysis

import (
	"fmt"
	"sort"

	"github.com/bimmerbailey/jigyokei/internal/catalog"
)

// GroupedResult is one bucket of a GroupBy breakdown.
type GroupedResult struct {
	Key     string  `json:"key" yaml:"key"`
	Count   int     `json:"count" yaml:"count"`
	Percent float64 `json:"percent" yaml:"percent"`
}

// Group-by fields accepted by GroupBy.
const (
	GroupByCategory = "category"
	GroupBySolution = "solution"
)

// Stats summarises a Result for reporting.
type Stats struct {
	TotalRisks int             `json:"total_risks" yaml:"total_risks"`
	Mapped     int             `json:"mapped" yaml:"mapped"`
	Fallbacks  int             `json:"fallbacks" yaml:"fallbacks"`
	Unmapped   int             `json:"unmapped" yaml:"unmapped"`
	Categories []GroupedResult `json:"categories,omitempty" yaml:"categories,omitempty"`
	Solutions  []GroupedResult `json:"solutions,omitempty" yaml:"solutions,omitempty"`
}

// ComputeStats counts how the risks in r were resolved.
func ComputeStats(r Result) Stats {
	stats := Stats{TotalRisks: len(r.Risks)}

	for _, risk := range r.Risks {
		switch risk.RecommendedSolution {
		case "":
			stats.Unmapped++
		case catalog.FallbackName:
			stats.Fallbacks++
		default:
			stats.Mapped++
		}
	}

	stats.Categories, _ = GroupBy(r.Risks, GroupByCategory)
	stats.Solutions, _ = GroupBy(r.Risks, GroupBySolution)
	return stats
}

// GroupBy buckets risks by category or recommended solution, largest bucket
// first and ties broken by key.
func GroupBy(risks []RiskRecord, field string) ([]GroupedResult, error) {
	if len(risks) == 0 {
		return nil, nil
	}

	groups := make(map[string]int)

	for _, r := range risks {
		var key string
		switch field {
		case GroupByCategory:
			key = r.Category
		case GroupBySolution:
			key = r.RecommendedSolution
		default:
			return nil, fmt.Errorf("unsupported group-by field: %s (must be 'category' or 'solution')", field)
		}

		if key == "" {
			key = "(unknown)"
		}
		groups[key]++
	}

	result := make([]GroupedResult, 0, len(groups))
	total := len(risks)
	for key, count := range groups {
		result = append(result, GroupedResult{
			Key:     key,
			Count:   count,
			Percent: float64(count) * 100 / float64(total),
		})
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Key < result[j].Key
	})

	return result, nil
}
