package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bimmerbailey/jigyokei/internal/catalog"
	"github.com/bimmerbailey/jigyokei/internal/config"
)

func TestLoadConfigDefaults(t *testing.T) {
	resetViper(t, "text")

	cfg, err := loadConfig(&cobra.Command{})
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if cfg.LLM.Provider != config.DefaultProvider {
		t.Errorf("provider = %q, want %q", cfg.LLM.Provider, config.DefaultProvider)
	}
	if cfg.Analysis.CallTimeout != config.DefaultCallTimeout {
		t.Errorf("call timeout = %v, want %v", cfg.Analysis.CallTimeout, config.DefaultCallTimeout)
	}
	if cfg.Server.Addr != config.DefaultAddr {
		t.Errorf("addr = %q, want %q", cfg.Server.Addr, config.DefaultAddr)
	}
}

func TestLoadConfigEnvironment(t *testing.T) {
	t.Setenv("JIGYOKEI_LLM_PROVIDER", "ollama")
	t.Setenv("JIGYOKEI_ANALYSIS_CONCURRENCY", "7")
	t.Setenv("JIGYOKEI_ANALYSIS_CALL_TIMEOUT", "90s")
	t.Setenv("JIGYOKEI_SERVER_ADDR", "127.0.0.1:9000")
	resetViper(t, "text")

	cfg, err := loadConfig(&cobra.Command{})
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if cfg.LLM.Provider != "ollama" {
		t.Errorf("provider = %q, want ollama", cfg.LLM.Provider)
	}
	if cfg.Analysis.Concurrency != 7 {
		t.Errorf("concurrency = %d, want 7", cfg.Analysis.Concurrency)
	}
	if cfg.Analysis.CallTimeout != 90*time.Second {
		t.Errorf("call timeout = %v, want 90s", cfg.Analysis.CallTimeout)
	}
	if cfg.Server.Addr != "127.0.0.1:9000" {
		t.Errorf("addr = %q", cfg.Server.Addr)
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	resetViper(t, "text")
	viper.Set("analysis.concurrency", 0)

	if _, err := loadConfig(&cobra.Command{}); !errors.Is(err, config.ErrInvalidConfig) {
		t.Errorf("loadConfig() error = %v, want ErrInvalidConfig", err)
	}
}

func TestLoadConfigModelFlag(t *testing.T) {
	resetViper(t, "text")
	viper.Set("llm.provider", "ollama")

	cmd := &cobra.Command{}
	cmd.Flags().String("model", "", "model name")
	if err := cmd.Flags().Set("model", "qwen2.5"); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if cfg.LLM.ActiveModel() != "qwen2.5" {
		t.Errorf("active model = %q, want qwen2.5", cfg.LLM.ActiveModel())
	}
	if cfg.LLM.Gemini.Model != config.DefaultGeminiModel {
		t.Error("--model must only change the selected provider")
	}
}

func TestServeFailsFastWithoutCredential(t *testing.T) {
	resetViper(t, "text")
	t.Setenv("OPENAI_API_KEY", "")
	viper.Set("llm.provider", "openai")
	viper.Set("server.addr", "127.0.0.1:0")

	err := runServe(&cobra.Command{}, nil)
	if !errors.Is(err, config.ErrMissingCredential) {
		t.Fatalf("runServe() error = %v, want ErrMissingCredential", err)
	}
}

func TestCatalogCommand(t *testing.T) {
	tests := []struct {
		format string
		want   []string
	}{
		{"text", []string{"- 火災共済（店舗・設備補償）: ", "- " + catalog.FallbackName + ": "}},
		{"table", []string{"SOLUTION", "経営セーフティ共済", catalog.FallbackName}},
		{"json", []string{`"fallback"`, `"name": "地震保険, 地震特約"`}},
		{"yaml", []string{"products:", "name: " + catalog.FallbackName}},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			resetViper(t, tt.format)

			var out bytes.Buffer
			cmd := &cobra.Command{}
			cmd.SetOut(&out)
			if err := runCatalog(cmd, nil); err != nil {
				t.Fatalf("runCatalog() error = %v", err)
			}
			for _, want := range tt.want {
				if !strings.Contains(out.String(), want) {
					t.Errorf("output missing %q:\n%s", want, out.String())
				}
			}
		})
	}
}

func TestPayloadCommand(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "payload.json")

	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)
	cmd.Flags().StringP("output", "o", "payload.json", "file to write")
	if err := cmd.Flags().Set("output", path); err != nil {
		t.Fatal(err)
	}

	if err := runPayload(cmd, nil); err != nil {
		t.Fatalf("runPayload() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := "{\n    \"conversation_log\": \"社長：火事が一番怖いね。\\n社長：俺が倒れたらこの店は終わりだよ。\"\n}"
	if string(data) != want {
		t.Errorf("payload =\n%s\nwant\n%s", data, want)
	}
	if !strings.Contains(out.String(), path) {
		t.Errorf("confirmation should name the file: %q", out.String())
	}
}

func TestPayloadFromTranscript(t *testing.T) {
	dir := t.TempDir()
	transcript := filepath.Join(dir, "visit.txt")
	if err := os.WriteFile(transcript, []byte("社長：<売掛金> & 在庫が心配"), 0o644); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "body.json")

	cmd := &cobra.Command{}
	cmd.SetOut(&bytes.Buffer{})
	cmd.Flags().StringP("output", "o", "payload.json", "file to write")
	_ = cmd.Flags().Set("output", path)

	if err := runPayload(cmd, []string{transcript}); err != nil {
		t.Fatalf("runPayload() error = %v", err)
	}
	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "社長：<売掛金> & 在庫が心配") {
		t.Errorf("payload should keep the transcript unescaped: %s", data)
	}
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)
	versionCmd.Run(cmd, nil)

	if !strings.HasPrefix(out.String(), "jigyokei dev") {
		t.Errorf("version output = %q", out.String())
	}
}

func TestBuildPipelineRedactPatterns(t *testing.T) {
	resetViper(t, "text")
	useProvider(t, defaultScript())
	viper.Set("analysis.redact", true)
	viper.Set("analysis.redact_patterns", []string{"phone", "iris_scan"})

	cfg, err := loadConfig(&cobra.Command{})
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	_, _, err = buildPipeline(context.Background(), cfg, nil, newLogger(cfg))
	if !errors.Is(err, config.ErrInvalidConfig) {
		t.Errorf("buildPipeline() error = %v, want ErrInvalidConfig", err)
	}
}
