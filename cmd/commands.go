package main

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"

	"stockagents/internal/agents"
	"stockagents/internal/services/stockagent"
)

var queryCmd = &cobra.Command{
	Use:   "query <text>",
	Short: "Ask any stock question",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runQuery(cmd, func(ctx context.Context, s *stockagent.System) agents.Result {
			return s.AnalyzeQuery(ctx, strings.Join(args, " "))
		})
	},
}

var priceCmd = &cobra.Command{
	Use:   "price <symbol>",
	Short: "Get the current price of a stock",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runQuery(cmd, func(ctx context.Context, s *stockagent.System) agents.Result {
			return s.GetStockPrice(ctx, args[0])
		})
	},
}

var infoCmd = &cobra.Command{
	Use:   "info <symbol>",
	Short: "Get company information",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runQuery(cmd, func(ctx context.Context, s *stockagent.System) agents.Result {
			return s.GetStockInfo(ctx, args[0])
		})
	},
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <symbol>",
	Short: "Run a comprehensive analysis of a stock",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runQuery(cmd, func(ctx context.Context, s *stockagent.System) agents.Result {
			return s.AnalyzeStock(ctx, args[0])
		})
	},
}

var compareCmd = &cobra.Command{
	Use:   "compare <symbol> <symbol>...",
	Short: "Compare several stocks",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runQuery(cmd, func(ctx context.Context, s *stockagent.System) agents.Result {
			return s.CompareStocks(ctx, splitSymbols(args))
		})
	},
}

var portfolioCmd = &cobra.Command{
	Use:   "portfolio <symbol>...",
	Short: "Review a portfolio",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runQuery(cmd, func(ctx context.Context, s *stockagent.System) agents.Result {
			return s.PortfolioAnalysis(ctx, splitSymbols(args))
		})
	},
}

var researchCmd = &cobra.Command{
	Use:   "research <topic>",
	Short: "Research a market or sector",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runQuery(cmd, func(ctx context.Context, s *stockagent.System) agents.Result {
			return s.MarketResearch(ctx, strings.Join(args, " "))
		})
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show system status, agents and tools",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(_ context.Context, a *app) error {
			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(a.system.Status())
			}
			printStatus(cmd.OutOrStdout(), a.system)
			return nil
		})
	},
}

func runQuery(cmd *cobra.Command, fn func(ctx context.Context, s *stockagent.System) agents.Result) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		return printResult(cmd, fn(ctx, a.system))
	})
}

// splitSymbols accepts "AAPL MSFT" as well as "AAPL,MSFT".
func splitSymbols(args []string) []string {
	var out []string
	for _, arg := range args {
		for _, s := range strings.Split(arg, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, strings.ToUpper(s))
			}
		}
	}
	return out
}
