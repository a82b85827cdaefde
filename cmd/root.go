package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bimmerbailey/jigyokei/internal/analysis"
	"github.com/bimmerbailey/jigyokei/internal/catalog"
	"github.com/bimmerbailey/jigyokei/internal/config"
	"github.com/bimmerbailey/jigyokei/internal/llm"
	"github.com/bimmerbailey/jigyokei/internal/metrics"
	"github.com/bimmerbailey/jigyokei/internal/redact"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "jigyokei",
	Short: "Find management risks in business-owner conversations",
	Long: `Jigyokei reads a conversation between a business owner and an advisor,
asks an LLM to extract the management risks it reveals, and recommends one
product from a fixed catalog for each risk.

Examples:
  jigyokei analyze visit.txt
  cat visit.txt | jigyokei analyze --format json
  jigyokei serve --addr :8000
  jigyokei watch ./transcripts`,
	SilenceUsage: true,
}

// Execute is called by main.main(). It runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.jigyokei.yaml)")
	rootCmd.PersistentFlags().StringP("format", "f", "text", "output format (text, json, yaml, table)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().String("provider", config.DefaultProvider, "LLM provider (gemini, openai, anthropic, ollama)")
	rootCmd.PersistentFlags().String("model", "", "model name for the selected provider")
	rootCmd.PersistentFlags().Bool("redact", false, "mask personal data (phone numbers, emails, ...) before calling the model")

	_ = viper.BindPFlag("format", rootCmd.PersistentFlags().Lookup("format"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("llm.provider", rootCmd.PersistentFlags().Lookup("provider"))
	_ = viper.BindPFlag("analysis.redact", rootCmd.PersistentFlags().Lookup("redact"))
}

func initConfig() {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error finding home directory:", err)
			os.Exit(1)
		}

		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigName(".jigyokei")
		viper.SetConfigType("yaml")
	}

	configureViper()

	if err := viper.ReadInConfig(); err == nil {
		if viper.GetBool("verbose") {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	}
}

// configureViper sets the env binding and registers every config key with
// its default so AutomaticEnv can see it during Unmarshal.
func configureViper() {
	viper.SetEnvPrefix("JIGYOKEI")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	d := config.Default()

	viper.SetDefault("format", d.Format)
	viper.SetDefault("verbose", false)
	viper.SetDefault("debug", false)

	viper.SetDefault("llm.provider", d.LLM.Provider)
	viper.SetDefault("llm.temperature", d.LLM.Temperature)
	viper.SetDefault("llm.max_tokens", d.LLM.MaxTokens)
	viper.SetDefault("llm.gemini.api_key", "")
	viper.SetDefault("llm.gemini.model", d.LLM.Gemini.Model)
	viper.SetDefault("llm.gemini.base_url", "")
	viper.SetDefault("llm.openai.api_key", "")
	viper.SetDefault("llm.openai.model", d.LLM.OpenAI.Model)
	viper.SetDefault("llm.openai.base_url", "")
	viper.SetDefault("llm.openai.org_id", "")
	viper.SetDefault("llm.anthropic.api_key", "")
	viper.SetDefault("llm.anthropic.model", d.LLM.Anthropic.Model)
	viper.SetDefault("llm.ollama.host", d.LLM.Ollama.Host)
	viper.SetDefault("llm.ollama.model", d.LLM.Ollama.Model)

	viper.SetDefault("analysis.concurrency", d.Analysis.Concurrency)
	viper.SetDefault("analysis.call_timeout", d.Analysis.CallTimeout)
	viper.SetDefault("analysis.redact", d.Analysis.Redact)
	viper.SetDefault("analysis.redact_patterns", redact.DefaultPatterns())

	viper.SetDefault("server.addr", d.Server.Addr)
	viper.SetDefault("server.allowed_origins", d.Server.AllowedOrigins)
	viper.SetDefault("server.read_timeout", d.Server.ReadTimeout)
	viper.SetDefault("server.write_timeout", d.Server.WriteTimeout)
	viper.SetDefault("server.idle_timeout", d.Server.IdleTimeout)
	viper.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)
	viper.SetDefault("server.rate_limit", d.Server.RateLimit)
	viper.SetDefault("server.rate_burst", d.Server.RateBurst)
	viper.SetDefault("server.max_body_bytes", d.Server.MaxBodyBytes)
}

// loadConfig unmarshals viper state over the built-in defaults and
// validates the result. --model overrides the selected provider's model.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Default()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if f := cmd.Flag("model"); f != nil && f.Changed {
		model := f.Value.String()
		switch cfg.LLM.Provider {
		case "gemini":
			cfg.LLM.Gemini.Model = model
		case "openai":
			cfg.LLM.OpenAI.Model = model
		case "anthropic":
			cfg.LLM.Anthropic.Model = model
		case "ollama":
			cfg.LLM.Ollama.Model = model
		}
	}
	return cfg, nil
}

// newLogger builds the stderr logger: errors only by default, info with
// --verbose, debug with --debug.
func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelError
	switch {
	case cfg.Debug:
		level = slog.LevelDebug
	case cfg.Verbose:
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// newProvider is replaced in tests.
var newProvider = llm.NewProvider

// buildPipeline wires provider, extractor, mapper and pipeline. A missing
// credential surfaces here, before any request is accepted.
func buildPipeline(ctx context.Context, cfg *config.Config, m *metrics.Metrics, logger *slog.Logger) (*analysis.Pipeline, llm.Provider, error) {
	provider, err := newProvider(ctx, cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create LLM provider: %w", err)
	}

	completer := llm.NewCompleter(provider, &llm.ChatOptions{
		Model:       cfg.LLM.ActiveModel(),
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
	})

	opts := analysis.Options{
		CallTimeout: cfg.Analysis.CallTimeout,
		Concurrency: cfg.Analysis.Concurrency,
		Catalog:     catalog.Default(),
		Metrics:     m,
	}
	if cfg.Analysis.Redact {
		r, err := redact.New(cfg.Analysis.RedactPatterns)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", config.ErrInvalidConfig, err)
		}
		opts.Redactor = r
	}

	extractor, err := analysis.NewExtractor(completer, opts, logger)
	if err != nil {
		return nil, nil, err
	}
	mapper, err := analysis.NewMapper(completer, opts.Catalog, opts, logger)
	if err != nil {
		return nil, nil, err
	}
	pipeline, err := analysis.NewPipeline(extractor, mapper, opts, logger)
	if err != nil {
		return nil, nil, err
	}

	logger.Info("pipeline ready",
		"provider", cfg.LLM.Provider,
		"model", cfg.LLM.ActiveModel(),
		"concurrency", opts.Concurrency,
		"call_timeout", opts.CallTimeout,
		"redact", opts.Redactor != nil)
	return pipeline, provider, nil
}
