package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/wricardo/pyramid-puzzle/benchmark"
	"github.com/wricardo/pyramid-puzzle/game/config"
	"github.com/wricardo/pyramid-puzzle/game/engine"
	"github.com/wricardo/pyramid-puzzle/game/prompt"
	"github.com/wricardo/pyramid-puzzle/game/solver"
	"github.com/wricardo/pyramid-puzzle/report"
	"github.com/wricardo/pyramid-puzzle/validate"
)

func validateCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Usage:     "Score a path against a scenario",
		ArgsUsage: "PATH",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "scenario", Aliases: []string{"s"}, Value: "1", Usage: "Scenario ID"},
			&cli.BoolFlag{Name: "trace", Usage: "Print the cost of every move"},
			&cli.BoolFlag{Name: "json", Usage: "Print the result as JSON"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path := cmd.Args().First()
			if path == "" {
				return exitf(2, "a path is required, for example: validate \"E1|D1|D1:key|C1|B1|A1\"")
			}

			configs, err := config.NewManager(cmd.String("scenario-dir"))
			if err != nil {
				return err
			}
			scenario, err := configs.LoadScenario(cmd.String("scenario"))
			if err != nil {
				return err
			}

			result, verdict := engine.Evaluate(path, scenario)
			if cmd.Bool("json") {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				if err := enc.Encode(struct {
					engine.Result
					Code  engine.ErrorCode    `json:"code,omitempty"`
					Step  int                 `json:"step,omitempty"`
					Trace []engine.StepRecord `json:"trace,omitempty"`
				}{result, verdict.Code, verdict.Step, verdict.Trace}); err != nil {
					return err
				}
			} else {
				printResult(os.Stdout, path, result, verdict, cmd.Bool("trace"))
			}

			if !result.IsValid {
				return cli.Exit("", 1)
			}
			return nil
		},
	}
}

func printResult(w io.Writer, path string, result engine.Result, verdict engine.Verdict, trace bool) {
	fmt.Fprintf(w, "Path: %s\n", path)

	if trace {
		for _, rec := range verdict.Trace {
			from := "start"
			if rec.From.Valid() {
				from = rec.From.String()
			}
			fmt.Fprintf(w, "  %2d. %-5s -> %-3s %-18s +%d = %d\n", rec.Step, from, rec.To, rec.Kind, rec.Cost, rec.TotalAfter)
		}
	}

	if !result.IsValid {
		fmt.Fprintf(w, "✗ Invalid: %s\n", result.Message)
		if verdict.Code != "" {
			fmt.Fprintf(w, "  Error: %s", verdict.Code)
			if verdict.Step > 0 {
				fmt.Fprintf(w, " at step %d", verdict.Step)
			}
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "  MP spent: %d\n", result.TotalMP)
		return
	}

	fmt.Fprintf(w, "✓ Valid: %d MP", result.TotalMP)
	switch {
	case result.IsOptimal:
		fmt.Fprint(w, " (optimal)")
	case result.OptimalMP != nil:
		fmt.Fprintf(w, " (optimal is %d MP)", *result.OptimalMP)
	}
	fmt.Fprintln(w)
}

func checkCommand() *cli.Command {
	return &cli.Command{
		Name:  "check",
		Usage: "Validate every scenario file",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			results, err := validate.Dir(cmd.String("scenario-dir"))
			if err != nil {
				return err
			}
			if !validate.Print(os.Stdout, results) {
				return cli.Exit("", 1)
			}
			return nil
		},
	}
}

func solveCommand() *cli.Command {
	return &cli.Command{
		Name:      "solve",
		Usage:     "Find the cheapest path for scenarios",
		ArgsUsage: "[SCENARIO...]",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			configs, err := config.NewManager(cmd.String("scenario-dir"))
			if err != nil {
				return err
			}

			requested := "all"
			if cmd.Args().Len() > 0 {
				requested = strings.Join(cmd.Args().Slice(), ",")
			}
			scenarios, err := resolveScenarios(configs, requested)
			if err != nil {
				return exitf(1, "%v", err)
			}

			if !printSolutions(os.Stdout, scenarios) {
				return cli.Exit("", 1)
			}
			return nil
		},
	}
}

// printSolutions solves each scenario and reports whether every declared
// optimum matched.
func printSolutions(w io.Writer, scenarios []*engine.Scenario) bool {
	ok := true
	for _, s := range scenarios {
		best, err := solver.Solve(s.Configuration)
		if err != nil {
			fmt.Fprintf(w, "Scenario %s: %v\n", s.ID, err)
			ok = false
			continue
		}

		fmt.Fprintf(w, "Scenario %s: %s (%d MP", s.ID, best.Path, best.TotalMP)
		if mp := s.Solution.OptimalMP; mp != nil && *mp != best.TotalMP {
			fmt.Fprintf(w, ", declared optimal is %d MP", *mp)
			ok = false
		}
		fmt.Fprintln(w, ")")
		log.Debug().Str("scenario", s.ID).Int("explored", best.Explored).Msg("solved scenario")
	}
	return ok
}

func benchmarkCommand() *cli.Command {
	defaults := benchmark.DefaultConfig()

	return &cli.Command{
		Name:  "benchmark",
		Usage: "Evaluate language models on the scenarios",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "scenarios", Value: "all", Usage: "Scenarios to run (comma-separated IDs or 'all')"},
			&cli.StringFlag{Name: "models", Value: "all", Usage: "Models to evaluate (comma-separated list or 'all')"},
			&cli.StringFlag{Name: "configured-models", Usage: "Comma-separated models available to the benchmark", Sources: cli.EnvVars("MODELS")},
			&cli.StringFlag{Name: "api-key", Usage: "OpenRouter API key", Sources: cli.EnvVars("OPENROUTER_API_KEY")},
			&cli.StringFlag{Name: "base-url", Value: benchmark.DefaultBaseURL, Usage: "OpenAI-compatible API endpoint", Sources: cli.EnvVars("OPENROUTER_BASE_URL")},
			&cli.StringFlag{Name: "site-url", Usage: "HTTP-Referer sent to OpenRouter", Sources: cli.EnvVars("SITE_URL")},
			&cli.StringFlag{Name: "site-name", Usage: "X-Title sent to OpenRouter", Sources: cli.EnvVars("SITE_NAME")},
			&cli.FloatFlag{Name: "temperature", Value: float64(defaults.Temperature), Usage: "Sampling temperature", Sources: cli.EnvVars("GLOBAL_TEMPERATURE")},
			&cli.IntFlag{Name: "max-tokens", Value: defaults.MaxTokens, Usage: "Completion token limit (0 for none)", Sources: cli.EnvVars("GLOBAL_MAX_TOKENS")},
			&cli.IntFlag{Name: "max-retries", Value: defaults.MaxRetries, Usage: "Corrected prompts after an invalid answer"},
			&cli.IntFlag{Name: "concurrency", Value: defaults.Concurrency, Usage: "Parallel model x scenario evaluations", Sources: cli.EnvVars("BENCHMARK_CONCURRENCY")},
			&cli.FloatFlag{Name: "rps", Usage: "Maximum API requests per second (0 for unlimited)", Sources: cli.EnvVars("BENCHMARK_RPS")},
			&cli.StringFlag{Name: "evals-dir", Value: report.DefaultBaseDir, Usage: "Directory for CSV and Markdown reports", Sources: cli.EnvVars("EVALS_DIR")},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			apiKey := cmd.String("api-key")
			if apiKey == "" {
				return exitf(1, "OPENROUTER_API_KEY not found; copy .env.example to .env and configure your API key")
			}

			configured := splitList(cmd.String("configured-models"))
			if len(configured) == 0 {
				return exitf(1, "MODELS not configured")
			}
			models, err := resolveModels(configured, cmd.String("models"))
			if err != nil {
				return exitf(1, "%v", err)
			}

			configs, err := config.NewManager(cmd.String("scenario-dir"))
			if err != nil {
				return err
			}
			scenarios, err := resolveScenarios(configs, cmd.String("scenarios"))
			if err != nil {
				return exitf(1, "%v", err)
			}

			prompts, err := prompt.LoadBuilder(cmd.String("specs-dir"))
			if err != nil {
				return err
			}
			logger, err := report.NewLogger(cmd.String("evals-dir"))
			if err != nil {
				return err
			}

			client := benchmark.NewOpenRouterClient(benchmark.ClientOptions{
				APIKey:   apiKey,
				BaseURL:  cmd.String("base-url"),
				SiteURL:  cmd.String("site-url"),
				SiteName: cmd.String("site-name"),
			})

			runner := benchmark.NewRunner(client, prompts, logger, benchmark.Config{
				Temperature:       float32(cmd.Float("temperature")),
				MaxTokens:         cmd.Int("max-tokens"),
				MaxRetries:        cmd.Int("max-retries"),
				Concurrency:       cmd.Int("concurrency"),
				RequestsPerSecond: cmd.Float("rps"),
			})

			outcomes, err := runner.Run(ctx, models, scenarios)
			printSummary(os.Stdout, outcomes)
			return err
		},
	}
}

func printSummary(w io.Writer, outcomes []benchmark.Outcome) {
	fmt.Fprintf(w, "\n%-40s %-10s %-10s %s\n", "MODEL", "SCENARIO", "RESULT", "MP")
	for _, o := range outcomes {
		if o.Model == "" {
			continue
		}
		status := "FAILED"
		switch {
		case o.Err != nil:
			status = "ERROR"
		case o.Result.IsOptimal:
			status = "OPTIMAL"
		case o.Result.Success:
			status = "VALID"
		}
		mp := "-"
		if o.Result.TotalMP != nil {
			mp = fmt.Sprint(*o.Result.TotalMP)
		}
		fmt.Fprintf(w, "%-40s %-10s %-10s %s\n", o.Model, o.ScenarioID, status, mp)
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// resolveModels picks the requested models out of the configured ones.
// Unknown names are skipped with a warning.
func resolveModels(configured []string, requested string) ([]string, error) {
	if requested == "" || requested == "all" {
		return configured, nil
	}

	known := make(map[string]bool, len(configured))
	for _, m := range configured {
		known[m] = true
	}

	var models, missing []string
	for _, m := range splitList(requested) {
		if known[m] {
			models = append(models, m)
		} else {
			missing = append(missing, m)
		}
	}
	if len(missing) > 0 {
		log.Warn().Strs("models", missing).Msg("some requested models are not configured")
	}
	if len(models) == 0 {
		return nil, errors.New("no valid models to evaluate")
	}
	return models, nil
}

// resolveScenarios loads the requested scenarios, or every scenario for
// "all". Unknown IDs are skipped with a warning.
func resolveScenarios(configs *config.Manager, requested string) ([]*engine.Scenario, error) {
	var ids []string
	if requested == "" || requested == "all" {
		infos, err := configs.ListScenarios()
		if err != nil {
			return nil, err
		}
		for _, info := range infos {
			ids = append(ids, info.ScenarioID)
		}
	} else {
		ids = splitList(requested)
	}

	var scenarios []*engine.Scenario
	for _, id := range ids {
		s, err := configs.LoadScenario(id)
		if err != nil {
			log.Warn().Err(err).Str("scenario", id).Msg("skipping scenario")
			continue
		}
		scenarios = append(scenarios, s)
	}
	if len(scenarios) == 0 {
		return nil, errors.New("no valid scenario files to process")
	}
	return scenarios, nil
}
