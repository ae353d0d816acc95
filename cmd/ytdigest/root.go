package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/agentstation/pocketflow"
	"github.com/agentstation/pocketflow/internal/config"
	"github.com/agentstation/pocketflow/internal/digest"
	"github.com/agentstation/pocketflow/internal/llm"
	"github.com/agentstation/pocketflow/internal/telemetry"
	"github.com/agentstation/pocketflow/internal/youtube"
)

var (
	// Global flags.
	configFile string
	provider   string
	outputDir  string
	logLevel   string
	logFormat  string
	logFile    string
	output     string

	// Digest flags.
	videoURL    string
	metricsFile string
)

// rootCmd processes a video when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "ytdigest",
	Short: "Turn a YouTube video into topics, questions and answers",
	Long: `ytdigest fetches a YouTube video's transcript, asks a language model for
the most interesting topics and questions, has them rephrased and answered,
and writes the result as a standalone HTML page.

Settings come from an optional YAML file (--config) and the environment
(LLM_PROVIDER, OPENAI_API_KEY, GEMINI_API_KEY, ...). Flags win over both.`,
	Example: `  # Process a video with the configured provider
  ytdigest --url https://www.youtube.com/watch?v=dQw4w9WgXcQ

  # Use Gemini and keep metrics for the node exporter
  ytdigest --provider gemini --metrics-file /var/lib/node_exporter/ytdigest.prom`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: false,
	RunE:          runDigest,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "YAML config file")
	rootCmd.PersistentFlags().StringVar(&provider, "provider", "", "LLM provider: openai or gemini (overrides LLM_PROVIDER)")
	rootCmd.PersistentFlags().StringVar(&outputDir, "output-dir", "", "Directory for generated pages (default \"output\")")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: text or json")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Also append logs to this file")
	rootCmd.PersistentFlags().StringVar(&output, "output", textFormat, "Output format for version (text, json, yaml)")

	rootCmd.Flags().StringVar(&videoURL, "url", "", "YouTube video URL to process (prompted when omitted)")
	rootCmd.Flags().StringVar(&metricsFile, "metrics-file", "", "Write node metrics to this file in Prometheus text format")

	// Disable default completion command
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// loadConfig reads the config file and environment, then applies flags
// before validating, so a flag wins over a bad environment value.
func loadConfig() (*config.Config, error) {
	path, err := expandPath(configFile)
	if err != nil {
		return nil, err
	}
	dir, err := expandPath(outputDir)
	if err != nil {
		return nil, err
	}

	return config.Load(path, func(cfg *config.Config) {
		if provider != "" {
			cfg.Provider = provider
		}
		if dir != "" {
			cfg.OutputDir = dir
		}
		if logLevel != "" {
			cfg.Log.Level = logLevel
		}
		if logFormat != "" {
			cfg.Log.Format = logFormat
		}
		if logFile != "" {
			cfg.Log.File = logFile
		}
	})
}

func runDigest(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	slogger, closeLog, err := newLogger(cfg.Log, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer closeLog()
	logger := pocketflow.NewSlogLogger(slogger)

	url := videoURL
	if url == "" {
		if url, err = readURL(cmd.InOrStdin(), cmd.OutOrStdout()); err != nil {
			return err
		}
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	client, err := llm.New(ctx, cfg, cfg.Provider, llm.WithLogger(logger))
	if err != nil {
		return err
	}
	slogger.Info("starting youtube digest", "url", url, "provider", cfg.Provider)

	metrics := telemetry.NewObserver(metricsNamespace)
	flow := digest.NewFlow(digest.Deps{
		Transcripts: youtube.NewFetcher(),
		LLM:         client,
		Provider:    cfg.Provider,
		OutputDir:   cfg.OutputDir,
		MaxTopics:   cfg.MaxTopics,
		MaxAttempts: cfg.Node.MaxAttempts,
		Wait:        cfg.Node.Wait,
		Logger:      logger,
	}, pocketflow.WithObserver[*digest.State](metrics))

	state := &digest.State{URL: url}
	_, runErr := flow.Run(ctx, state)

	if metricsFile != "" {
		if err := metrics.WriteFile(metricsFile); err != nil {
			slogger.Error("failed to write metrics", "path", metricsFile, "error", err)
		}
	}
	if runErr != nil {
		slogger.Error("digest failed", "error", runErr)
		return runErr
	}

	abs, err := filepath.Abs(state.OutputFile)
	if err != nil {
		abs = state.OutputFile
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out)
	fmt.Fprintln(out, "==================================================")
	fmt.Fprintln(out, "Processing completed successfully!")
	fmt.Fprintf(out, "Output HTML file: %s\n", abs)
	fmt.Fprintln(out, "==================================================")
	return nil
}
