// Command analyze prints quick, human-readable statistics about benchmark
// logs in the evals/csv directory. For each model it summarizes how many
// runs solved their scenario, how many were optimal, token usage and
// response time, and lists the best MP reached per scenario.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/wricardo/pyramid-puzzle/report"
)

func main() {
	cmd := &cli.Command{
		Name:  "analyze",
		Usage: "Summarize benchmark CSV logs per model",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "dir",
				Value:   filepath.Join(report.DefaultBaseDir, "csv"),
				Usage:   "Directory holding the CSV logs",
				Sources: cli.EnvVars("EVALS_CSV_DIR"),
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			records, err := report.ReadDir(cmd.String("dir"))
			if err != nil {
				return err
			}
			printSummaries(os.Stdout, report.Summarize(records))
			return nil
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printSummaries(w io.Writer, summaries []report.ModelSummary) {
	for _, s := range summaries {
		fmt.Fprintf(w, "\n=== Analyzing %s ===\n", s.Model)
		fmt.Fprintf(w, "Runs: %d\n", s.Runs)
		fmt.Fprintf(w, "Solved: %d (%s)\n", s.Solved, percent(s.Solved, s.Runs))
		fmt.Fprintf(w, "Optimal: %d (%s)\n", s.Optimal, percent(s.Optimal, s.Runs))
		fmt.Fprintf(w, "Interactions: %d\n", s.Interactions)
		fmt.Fprintf(w, "Total Tokens: %d\n", s.Tokens)
		fmt.Fprintf(w, "Avg Response Time: %.2fs\n", s.AvgResponseTime().Seconds())

		for _, sc := range s.Scenarios {
			switch {
			case sc.Optimal > 0:
				fmt.Fprintf(w, "✅ Scenario %s: optimal %d MP (%d/%d runs)\n", sc.ScenarioID, *sc.BestMP, sc.Optimal, sc.Runs)
			case sc.BestMP != nil:
				fmt.Fprintf(w, "✅ Scenario %s: best %d MP, never optimal (%d/%d runs solved)\n", sc.ScenarioID, *sc.BestMP, sc.Solved, sc.Runs)
			default:
				fmt.Fprintf(w, "⚠️  Scenario %s: unsolved in %d runs\n", sc.ScenarioID, sc.Runs)
			}
		}
	}
}

func percent(n, total int) string {
	if total == 0 {
		return "n/a"
	}
	return fmt.Sprintf("%.1f%%", float64(n)*100/float64(total))
}
