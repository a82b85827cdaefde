package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bimmerbailey/jigyokei/internal/analysis"
	"github.com/bimmerbailey/jigyokei/internal/config"
	"github.com/bimmerbailey/jigyokei/internal/output"
)

var statsCmd = &cobra.Command{
	Use:   "stats [flags] <file|dir|glob>...",
	Short: "Summarise the risks found across many transcripts",
	Long: `Analyse every transcript and report how many risks were found, how
they were resolved (mapped to a product, sent to individual consultation, or
left unmapped) and how they break down by category and by solution.

Examples:
  jigyokei stats ./transcripts
  jigyokei stats --format json 'visits/2024-*.txt'`,
	Args: cobra.MinimumNArgs(1),
	RunE: runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	files, err := config.ExpandTranscripts(args)
	if err != nil {
		return err
	}

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

	results := make([]analysis.Result, 0, len(files))
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", file, err)
		}
		results = append(results, pipeline.Analyze(ctx, string(data)))
		if err := ctx.Err(); err != nil {
			return err
		}
	}

	format := output.ParseFormat(viper.GetString("format"))
	return output.New(cmd.OutOrStdout(), format).WriteStats(output.NewStatsReport(results))
}
