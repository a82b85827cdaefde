package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bimmerbailey/jigyokei/internal/catalog"
	"github.com/bimmerbailey/jigyokei/internal/metrics"
	"github.com/bimmerbailey/jigyokei/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the analysis API over HTTP",
	Long: `Start the HTTP service.

POST /analyze (and POST /) accept {"conversation_log": "..."} and return the
extracted risks with both presentation texts. GET /health, /ready, /metrics
and /catalog are provided for operations.

The LLM provider is configured before the listener opens, so a missing API
key stops the service at startup.

Examples:
  jigyokei serve
  jigyokei serve --addr 127.0.0.1:9000 --provider ollama
  JIGYOKEI_SERVER_RATE_LIMIT=0 jigyokei serve`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default :8000)")
	serveCmd.Flags().StringSlice("allowed-origins", nil, "CORS allowed origins")

	_ = viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
	_ = viper.BindPFlag("server.allowed_origins", serveCmd.Flags().Lookup("allowed-origins"))

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	pipeline, provider, err := buildPipeline(ctx, cfg, m, logger)
	if err != nil {
		return err
	}

	srv, err := server.New(pipeline, server.Options{
		Config:  cfg.Server,
		Catalog: catalog.Default(),
		Metrics: m,
		Logger:  logger,
		Checks:  map[string]server.HealthChecker{"llm": provider},
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "Serving on %s (provider %s, model %s)\n",
		cfg.Server.Addr, cfg.LLM.Provider, cfg.LLM.ActiveModel())
	return srv.Run(ctx)
}
