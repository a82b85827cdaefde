package output

import (
	"fmt"
	"text/tabwriter"

	"github.com/bimmerbailey/jigyokei/internal/analysis"
)

// StatsReport aggregates the analyses of several transcripts.
type StatsReport struct {
	Transcripts  int `json:"transcripts" yaml:"transcripts"`
	WithoutRisks int `json:"transcripts_without_risks" yaml:"transcripts_without_risks"`

	analysis.Stats `yaml:",inline"`
}

// NewStatsReport computes a report over results, one per transcript.
func NewStatsReport(results []analysis.Result) StatsReport {
	var all []analysis.RiskRecord
	report := StatsReport{Transcripts: len(results)}
	for _, r := range results {
		if r.Empty() {
			report.WithoutRisks++
		}
		all = append(all, r.Risks...)
	}
	report.Stats = analysis.ComputeStats(analysis.Result{Risks: all})
	return report
}

// WriteStats outputs a StatsReport in the configured format.
func (wr *Writer) WriteStats(s StatsReport) error {
	switch wr.format {
	case FormatJSON:
		return wr.WriteJSON(s)
	case FormatYAML:
		return wr.WriteYAML(s)
	}

	fmt.Fprintf(wr.w, "Transcripts: %d (%d without risks)\n", s.Transcripts, s.WithoutRisks)
	fmt.Fprintf(wr.w, "Risks: %d (%d mapped, %d fallback, %d unmapped)\n",
		s.TotalRisks, s.Mapped, s.Fallbacks, s.Unmapped)
	if s.TotalRisks == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(wr.w, 0, 4, 2, ' ', 0)
	writeGroups(tw, "CATEGORY", s.Categories)
	writeGroups(tw, "SOLUTION", s.Solutions)
	return tw.Flush()
}

func writeGroups(tw *tabwriter.Writer, title string, groups []analysis.GroupedResult) {
	fmt.Fprintf(tw, "\n%s\tCOUNT\tPERCENT\n", title)
	for _, g := range groups {
		fmt.Fprintf(tw, "%s\t%d\t%.1f%%\n", g.Key, g.Count, g.Percent)
	}
}
