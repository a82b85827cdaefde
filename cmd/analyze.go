package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bimmerbailey/jigyokei/internal/analysis"
	"github.com/bimmerbailey/jigyokei/internal/config"
	"github.com/bimmerbailey/jigyokei/internal/output"
)

// Messages shown by the interactive session.
const (
	inputPrompt     = "会話ログをペーストしてください（最後に'analyze'と入力してEnterを押すと分析を開始します）:"
	noInputMessage  = "会話ログが入力されませんでした。"
	phaseOneBanner  = "\n--- フェーズ1：AIによる会話分析を開始します ---"
	phaseTwoBanner  = "--- 分析完了。フェーズ2：プレゼンテーションを生成します ---\n"
	noRisksEndLine  = "分析の結果、リスクは検出されませんでした。セッションを終了します。"
	sentinelCommand = "analyze"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [flags] [file...]",
	Short: "Extract management risks from a conversation log",
	Long: `Analyze a conversation between a business owner and an advisor.

Each file argument is analysed separately. Without arguments the log is read
from stdin; reading stops at end of input or at a line containing only
"analyze", so a log can be pasted interactively.

Examples:
  jigyokei analyze visit.txt
  jigyokei analyze ./transcripts/*.txt --format json
  pbpaste | jigyokei analyze
  jigyokei analyze            # paste, then type analyze`,
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().String("color", "auto", "colorize text output (auto, always, never)")

	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	colorStr, _ := cmd.Flags().GetString("color")

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pipeline, _, err := buildPipeline(ctx, cfg, nil, logger)
	if err != nil {
		return err
	}

	format := output.ParseFormat(viper.GetString("format"))
	out := cmd.OutOrStdout()
	writer := output.New(out, format).WithColor(output.ParseColorMode(colorStr))

	if len(args) == 0 {
		in := cmd.InOrStdin()
		if f, ok := in.(*os.File); ok && output.IsTerminal(f) {
			fmt.Fprintln(out, inputPrompt)
		}

		log, err := readConversation(in)
		if err != nil {
			return fmt.Errorf("failed to read conversation log: %w", err)
		}
		if strings.TrimSpace(log) == "" {
			fmt.Fprintln(out, noInputMessage)
			return nil
		}
		return analyzeOne(ctx, out, writer, format, pipeline, log)
	}

	files, err := config.ExpandTranscripts(args)
	if err != nil {
		return err
	}

	multiFile := len(files) > 1
	for i, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", file, err)
		}
		if multiFile && format == output.FormatText {
			if i > 0 {
				fmt.Fprintln(out)
			}
			fmt.Fprintf(out, "==> %s <==\n", file)
		}
		if err := analyzeOne(ctx, out, writer, format, pipeline, string(data)); err != nil {
			return err
		}
	}
	return nil
}

// analyzeOne runs the pipeline on one log and prints the result. Text mode
// brackets the analysis with the phase banners.
func analyzeOne(ctx context.Context, out io.Writer, writer *output.Writer, format output.Format, p *analysis.Pipeline, log string) error {
	if format != output.FormatText {
		return writer.WriteResult(p.Analyze(ctx, log))
	}

	fmt.Fprintln(out, phaseOneBanner)
	result := p.Analyze(ctx, log)
	if err := ctx.Err(); err != nil {
		return err
	}
	if result.Empty() {
		fmt.Fprintln(out, noRisksEndLine)
		return nil
	}
	fmt.Fprintln(out, phaseTwoBanner)
	return writer.WriteResult(result)
}

// readConversation reads lines until EOF or a line that is only the
// sentinel command (case-insensitive, surrounding whitespace ignored).
func readConversation(r io.Reader) (string, error) {
	scanner := bufio.NewScanner(r)
	const maxLine = 1024 * 1024
	scanner.Buffer(make([]byte, 64*1024), maxLine)

	var lines []string
	for scanner.Scan() {
		line := scanner.Text()
		if strings.ToLower(strings.TrimSpace(line)) == sentinelCommand {
			break
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return strings.Join(lines, "\n"), nil
}
