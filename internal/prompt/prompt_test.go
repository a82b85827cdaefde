package prompt_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/bimmerbailey/jigyokei/internal/catalog"
	"github.com/bimmerbailey/jigyokei/internal/prompt"
)

const testLog = "社長：火事が一番怖いね。\n社長：俺が倒れたらこの店は終わりだよ。"

// TestBuild_RequiredFields verifies that ErrMissingField is returned when the
// field a prompt type depends on is absent.
func TestBuild_RequiredFields(t *testing.T) {
	tests := []struct {
		name string
		pt   prompt.PromptType
		opts prompt.BuildOptions
	}{
		{"extraction without log", prompt.TypeRiskExtraction, prompt.BuildOptions{}},
		{"extraction with whitespace log", prompt.TypeRiskExtraction, prompt.BuildOptions{ConversationLog: " \n\t"}},
		{"mapping without summary", prompt.TypeSolutionMapping, prompt.BuildOptions{Catalog: catalog.Default()}},
		{"mapping without catalog", prompt.TypeSolutionMapping, prompt.BuildOptions{RiskSummary: "火災リスク"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := prompt.Build(tc.pt, tc.opts)
			if !errors.Is(err, prompt.ErrMissingField) {
				t.Errorf("expected ErrMissingField, got %v", err)
			}
		})
	}
}

func TestBuild_UnknownType(t *testing.T) {
	_, err := prompt.Build(prompt.PromptType("summarize"), prompt.BuildOptions{ConversationLog: testLog})
	if !errors.Is(err, prompt.ErrUnknownType) {
		t.Errorf("expected ErrUnknownType, got %v", err)
	}
}

// TestBuild_RiskExtraction checks the instructions the extraction template
// must carry and that the log is embedded verbatim.
func TestBuild_RiskExtraction(t *testing.T) {
	text, err := prompt.Build(prompt.TypeRiskExtraction, prompt.BuildOptions{ConversationLog: testLog})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{
		testLog,
		`"risks"`,
		`"risk_category"`,
		`"risk_summary"`,
		`"trigger_phrase"`,
		"人", "物", "金", "情報", "責任",
		"創作しない",
		"JSONオブジェクトのみ",
	}
	for _, w := range want {
		if !strings.Contains(text, w) {
			t.Errorf("extraction prompt should contain %q", w)
		}
	}

	if !strings.HasSuffix(strings.TrimSpace(text), "社長：俺が倒れたらこの店は終わりだよ。") {
		t.Error("conversation log should close the prompt")
	}
}

// TestBuild_SolutionMapping checks that every catalog entry is listed in
// order, including the fallback, and the summary is embedded.
func TestBuild_SolutionMapping(t *testing.T) {
	cat := catalog.Default()
	summary := "火災による店舗・設備の損害"

	text, err := prompt.Build(prompt.TypeSolutionMapping, prompt.BuildOptions{
		RiskSummary: summary,
		Catalog:     cat,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(text, summary) {
		t.Error("mapping prompt should contain the risk summary")
	}
	if !strings.Contains(text, "名称のみ") {
		t.Error("mapping prompt should ask for the name only")
	}

	last := -1
	for _, p := range cat.Entries() {
		line := `- "` + p.Name + `": ` + p.Description
		idx := strings.Index(text, line)
		if idx < 0 {
			t.Errorf("mapping prompt missing catalog line %q", line)
			continue
		}
		if idx < last {
			t.Errorf("catalog entry %q listed out of order", p.Name)
		}
		last = idx
	}
}

// TestBuild_Deterministic verifies that identical options produce identical text.
func TestBuild_Deterministic(t *testing.T) {
	opts := prompt.BuildOptions{RiskSummary: "取引先の倒産", Catalog: catalog.Default()}

	first, err := prompt.Build(prompt.TypeSolutionMapping, opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, _ := prompt.Build(prompt.TypeSolutionMapping, opts)

	if first != second {
		t.Error("Build should be deterministic")
	}
}
