package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"

	"stockagents/internal/services/stockagent"
)

const consoleHelp = `Commands:
  help     show this help
  status   show system status
  test     run a self-test query
  history  show this session's queries
  clear    clear the session history
  quit     exit (also: exit, q)

Anything else is sent to the agents as a query, for example:
  What is the price of AAPL?
  Compare these stocks: AAPL, MSFT, GOOGL`

// runConsole reads queries from in until quit, EOF or ctx is cancelled.
func runConsole(ctx context.Context, a *app, in io.Reader, out io.Writer) error {
	system := a.system
	fmt.Fprintln(out, "Stock agent console. Type 'help' for commands.")

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "\n> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return nil
		}

		line := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(line) {
		case "":
			continue
		case "quit", "exit", "q":
			fmt.Fprintln(out, "Goodbye.")
			return nil
		case "help":
			fmt.Fprintln(out, consoleHelp)
		case "status":
			printStatus(out, system)
		case "test":
			report := system.TestSystem(ctx)
			fmt.Fprintf(out, "Test query: %s\nWorking: %t\n%s\n",
				report.TestQuery, report.SystemWorking, formatResult(report.Result))
		case "history":
			printHistory(out, system.SessionHistory())
		case "clear":
			system.ClearSessionHistory()
			fmt.Fprintln(out, "Session history cleared.")
		default:
			fmt.Fprintln(out, formatResult(system.AnalyzeQuery(ctx, line)))
		}
	}
}

func printStatus(out io.Writer, system *stockagent.System) {
	status := system.Status()
	fmt.Fprintln(out, system.String())
	fmt.Fprintf(out, "  model:          %s (%s)\n", status.Config.Model, status.Config.Provider)
	fmt.Fprintf(out, "  classifier:     %s\n", status.Config.Classifier)
	fmt.Fprintf(out, "  max iterations: %d\n", status.Config.MaxIterations)
	fmt.Fprintf(out, "  history:        %d queries\n", status.SessionHistoryLength)
	fmt.Fprintf(out, "  llm cost:       $%s\n", status.TotalCostUSD)

	fmt.Fprintln(out, "Agents:")
	capabilities := system.AgentCapabilities()
	for _, name := range []string{"orchestrator", "junior", "master"} {
		if caps, ok := capabilities[name]; ok {
			fmt.Fprintf(out, "  %s: %s\n", name, strings.Join(caps, "; "))
		}
	}
	fmt.Fprintln(out, "Tools:")
	for _, t := range system.AvailableTools() {
		fmt.Fprintf(out, "  %s: %s\n", t.Name, t.Description)
	}
}

func printHistory(out io.Writer, history []stockagent.HistoryEntry) {
	if len(history) == 0 {
		fmt.Fprintln(out, "No queries yet.")
		return
	}
	for i, e := range history {
		state := "ok"
		if !e.Result.Success {
			state = "failed"
		}
		fmt.Fprintf(out, "%d. [%s, %s, %s] %s\n", i+1, humanize.Time(e.Timestamp), e.Result.Agent, state, e.Query)
	}
}
