package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bimmerbailey/jigyokei/internal/analysis"
	"github.com/bimmerbailey/jigyokei/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch [flags] <dir>",
	Short: "Analyse transcripts as they appear in a directory",
	Long: `Watch a directory for conversation transcripts (*.txt) and write the
analysis of each one next to it as <name>.analysis.json. The file contents are
the same JSON body POST /analyze returns.

Transcripts already in the directory are analysed at startup unless
--skip-existing is given. A transcript is analysed again only when its size
or modification time changes.

Examples:
  jigyokei watch ./transcripts
  jigyokei watch --skip-existing --debounce 2s ./inbox`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().Bool("skip-existing", false, "ignore transcripts present at startup")
	watchCmd.Flags().Duration("debounce", watch.DefaultDebounce, "quiet period before a changed file is analysed")

	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	skipExisting, _ := cmd.Flags().GetBool("skip-existing")
	debounce, _ := cmd.Flags().GetDuration("debounce")

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

	out := cmd.OutOrStdout()
	w, err := watch.New(pipeline, watch.Options{
		Dir:          args[0],
		SkipExisting: skipExisting,
		Debounce:     debounce,
		Logger:       logger,
		OnResult: func(transcript, resultPath string, r analysis.Result) {
			fmt.Fprintf(out, "%s -> %s (%d risks)\n", transcript, resultPath, len(r.Risks))
		},
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "Watching %s (Ctrl+C to stop)\n", args[0])
	return w.Run(ctx)
}
