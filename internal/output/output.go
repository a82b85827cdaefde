// Package output renders analysis results and the solution catalog as
// presentation text, JSON, YAML or a table.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/bimmerbailey/jigyokei/internal/analysis"
	"github.com/bimmerbailey/jigyokei/internal/catalog"
)

// Format represents an output format type.
type Format string

const (
	FormatText  Format = "text"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
	FormatTable Format = "table"
)

// ParseFormat converts a string to a Format, defaulting to text.
func ParseFormat(s string) Format {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON
	case "yaml", "yml":
		return FormatYAML
	case "table":
		return FormatTable
	default:
		return FormatText
	}
}

// BlockSeparator is printed between the two presentations in text mode.
const BlockSeparator = "\n\n" + Separator + "\n\n"

// Writer handles writing formatted output.
type Writer struct {
	w      io.Writer
	format Format
	color  ColorMode
}

// New creates a new output Writer.
func New(w io.Writer, format Format) *Writer {
	return &Writer{w: w, format: format, color: ColorNever}
}

// WithColor sets the colour mode used for text output.
func (wr *Writer) WithColor(mode ColorMode) *Writer {
	wr.color = mode
	return wr
}

// WriteJSON outputs any value as indented JSON without escaping non-ASCII
// or HTML characters.
func (wr *Writer) WriteJSON(v interface{}) error {
	enc := json.NewEncoder(wr.w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// WriteYAML outputs any value as YAML.
func (wr *Writer) WriteYAML(v interface{}) error {
	enc := yaml.NewEncoder(wr.w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// WriteResult outputs an analysis result in the configured format. Text mode
// prints the risk list, a separator and the solution list.
func (wr *Writer) WriteResult(r analysis.Result) error {
	switch wr.format {
	case FormatJSON:
		return wr.WriteJSON(BuildResponse(r))
	case FormatYAML:
		return wr.WriteYAML(BuildResponse(r))
	case FormatTable:
		return wr.writeResultTable(r)
	default:
		return wr.writeResultText(r)
	}
}

// WriteCatalog outputs the solution catalog in the configured format.
func (wr *Writer) WriteCatalog(cat catalog.Catalog) error {
	switch wr.format {
	case FormatJSON:
		return wr.WriteJSON(cat)
	case FormatYAML:
		return wr.WriteYAML(cat)
	case FormatTable:
		tw := tabwriter.NewWriter(wr.w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "#\tSOLUTION\tDESCRIPTION")
		fmt.Fprintln(tw, "-\t--------\t-----------")
		for i, p := range cat.Products {
			fmt.Fprintf(tw, "%d\t%s\t%s\n", i+1, p.Name, p.Description)
		}
		fmt.Fprintf(tw, "-\t%s\t%s\n", cat.Fallback.Name, cat.Fallback.Description)
		return tw.Flush()
	default:
		for _, p := range cat.Products {
			fmt.Fprintf(wr.w, "- %s: %s\n", p.Name, p.Description)
		}
		_, err := fmt.Fprintf(wr.w, "- %s: %s\n", cat.Fallback.Name, cat.Fallback.Description)
		return err
	}
}

func (wr *Writer) writeResultText(r analysis.Result) error {
	colorize := shouldColorize(wr.color, wr.w)

	if r.Empty() {
		_, err := fmt.Fprintln(wr.w, NoRisksMessage)
		return err
	}

	if _, err := fmt.Fprint(wr.w, HighlightHeaders(RiskList(r.Risks), colorize)); err != nil {
		return err
	}
	if _, err := fmt.Fprint(wr.w, BlockSeparator); err != nil {
		return err
	}
	_, err := fmt.Fprint(wr.w, HighlightHeaders(SolutionList(r.Risks), colorize))
	return err
}

func (wr *Writer) writeResultTable(r analysis.Result) error {
	if r.Empty() {
		_, err := fmt.Fprintln(wr.w, NoRisksMessage)
		return err
	}

	tw := tabwriter.NewWriter(wr.w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tCATEGORY\tRISK\tSOLUTION")
	fmt.Fprintln(tw, "-\t--------\t----\t--------")

	for i, risk := range r.Risks {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n",
			i+1,
			orDefault(risk.Category, "-"),
			truncateRunes(orDefault(risk.Summary, unknownSummary), 60),
			orDefault(risk.RecommendedSolution, catalog.FallbackName))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	stats := analysis.ComputeStats(r)
	_, err := fmt.Fprintf(wr.w, "\n%d risks: %d mapped, %d fallback, %d unmapped\n",
		stats.TotalRisks, stats.Mapped, stats.Fallbacks, stats.Unmapped)
	return err
}

// truncateRunes shortens s to n runes, counting runes so multi-byte text is
// never cut mid-character.
func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
