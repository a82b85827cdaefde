package output

import (
	"os"
	"strings"

	"golang.org/x/term"
)

// ANSI color codes
const (
	colorReset = "\033[0m"
	colorGreen = "\033[32m"
	colorBold  = "\033[1m"
)

// ColorMode determines when to use colored output.
type ColorMode int

const (
	ColorAuto   ColorMode = iota // Auto-detect based on TTY
	ColorAlways                  // Always use colors
	ColorNever                   // Never use colors
)

// ParseColorMode converts a flag value to a ColorMode, defaulting to auto.
func ParseColorMode(s string) ColorMode {
	switch strings.ToLower(s) {
	case "always":
		return ColorAlways
	case "never":
		return ColorNever
	default:
		return ColorAuto
	}
}

// IsTerminal checks if the given file is a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// shouldColorize determines if output should be colorized based on mode and TTY detection.
func shouldColorize(mode ColorMode, w interface{}) bool {
	switch mode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	case ColorAuto:
		if f, ok := w.(*os.File); ok {
			return IsTerminal(f)
		}
		return false
	}
	return false
}

// HighlightHeaders makes the presentation headers bold and the solution
// arrow lines green. It returns text unchanged when colorize is false.
func HighlightHeaders(text string, colorize bool) string {
	if !colorize {
		return text
	}

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		switch {
		case line == RiskListHeader, line == SolutionListHeader:
			lines[i] = colorBold + line + colorReset
		case strings.HasPrefix(line, "   └─ "):
			lines[i] = colorGreen + line + colorReset
		}
	}
	return strings.Join(lines, "\n")
}
