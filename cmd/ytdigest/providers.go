package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/agentstation/pocketflow/internal/config"
	"github.com/agentstation/pocketflow/internal/llm"
)

const probeTimeout = time.Minute

// providersCmd checks that each provider answers a probe prompt.
var providersCmd = &cobra.Command{
	Use:   "providers [name...]",
	Short: "Test the configured LLM providers",
	Long: `Send a short probe prompt to each provider and report PASS or FAIL.
Without arguments every supported provider is tested.`,
	Example: `  # Test all providers
  ytdigest providers

  # Test only Gemini
  ytdigest providers gemini`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if len(args) == 0 {
			args = config.Providers
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		testProviders(ctx, cmd.OutOrStdout(), cfg, args)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(providersCmd)
}

type probeResult struct {
	provider string
	err      error
}

func testProviders(ctx context.Context, out io.Writer, cfg *config.Config, names []string) []probeResult {
	fmt.Fprintln(out, "Testing LLM providers...")
	fmt.Fprintln(out, strings.Repeat("=", 50))

	results := make([]probeResult, 0, len(names))
	for _, name := range names {
		err := probe(ctx, cfg, strings.ToLower(name))
		if err != nil {
			fmt.Fprintf(out, "%s: %v\n", strings.ToUpper(name), err)
		}
		results = append(results, probeResult{provider: name, err: err})
	}

	fmt.Fprintln(out, "\nTest Results:")
	fmt.Fprintln(out, strings.Repeat("=", 50))
	var working []string
	for _, r := range results {
		status := "FAIL"
		if r.err == nil {
			status = "PASS"
			working = append(working, r.provider)
		}
		fmt.Fprintf(out, "%s: %s\n", strings.ToUpper(r.provider), status)
	}

	if len(working) > 0 {
		fmt.Fprintf(out, "\nWorking providers: %s\n", strings.Join(working, ", "))
	} else {
		fmt.Fprintln(out, "\nNo working providers found. Please check your API keys and configuration.")
	}
	return results
}

func probe(ctx context.Context, cfg *config.Config, name string) error {
	if err := cfg.CheckProvider(name); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	client, err := llm.New(ctx, cfg, name)
	if err != nil {
		return err
	}
	_, err = llm.Probe(ctx, client)
	return err
}
