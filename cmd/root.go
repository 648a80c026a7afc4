package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"stockagents/internal/agents"
)

var jsonOutput bool

var rootCmd = &cobra.Command{
	Use:   "stockagents",
	Short: "Multi-agent stock analysis console",
	Long: `stockagents answers natural-language stock questions with a team of agents.

An orchestrator classifies each query and delegates it to a junior agent
(quick price and company lookups) or a master agent (analysis, comparison,
portfolio review and market research), or to both.

With no arguments, starts the interactive console.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			return runConsole(ctx, a, cmd.InOrStdin(), cmd.OutOrStdout())
		})
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Print results as JSON")

	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(priceCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(compareCmd)
	rootCmd.AddCommand(portfolioCmd)
	rootCmd.AddCommand(researchCmd)
	rootCmd.AddCommand(statusCmd)
}

// withApp bootstraps the system, runs fn and tears everything down.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	ctx, stop := signalContext()
	defer stop()

	a, err := bootstrap(ctx)
	if err != nil {
		return fmt.Errorf("initialize stock agent system: %w", err)
	}
	defer a.close()

	return fn(ctx, a)
}

// printResult writes result as text or JSON. A failed result is returned as
// an error so the process exits non-zero.
func printResult(cmd *cobra.Command, result agents.Result) error {
	out := cmd.OutOrStdout()
	if jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return err
		}
	} else {
		fmt.Fprintln(out, formatResult(result))
	}

	if !result.Success {
		return fmt.Errorf("query failed: %s", result.Error)
	}
	return nil
}

func formatResult(result agents.Result) string {
	if !result.Success {
		return "Error: " + result.Error
	}
	var b strings.Builder
	if result.Agent != "" {
		fmt.Fprintf(&b, "[%s]\n", result.Agent)
	}
	b.WriteString(result.Output)
	return b.String()
}
