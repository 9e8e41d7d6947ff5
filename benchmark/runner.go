package benchmark

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/wricardo/pyramid-puzzle/game/engine"
	"github.com/wricardo/pyramid-puzzle/game/prompt"
	"github.com/wricardo/pyramid-puzzle/report"
)

// Config tunes a benchmark run
type Config struct {
	Temperature float32
	MaxTokens   int
	// MaxRetries is how many corrected prompts follow an invalid answer
	MaxRetries int
	// Concurrency bounds parallel model x scenario evaluations
	Concurrency int
	// RequestsPerSecond paces calls to the model API; 0 disables pacing
	RequestsPerSecond float64
}

// DefaultConfig returns the settings used when nothing is configured
func DefaultConfig() Config {
	return Config{
		Temperature: 0.7,
		MaxTokens:   2000,
		MaxRetries:  3,
		Concurrency: 1,
	}
}

// Outcome is the result of one model on one scenario
type Outcome struct {
	Model        string
	ScenarioID   string
	Result       report.FinalResult
	Interactions []report.Interaction
	ReportPath   string
	Err          error
}

// Runner evaluates models against scenarios
type Runner struct {
	client  ChatClient
	prompts *prompt.Builder
	logger  *report.Logger
	cfg     Config
	limiter *rate.Limiter
	runID   string
}

// NewRunner creates a runner. A nil prompt builder uses the embedded texts.
func NewRunner(client ChatClient, prompts *prompt.Builder, logger *report.Logger, cfg Config) *Runner {
	if prompts == nil {
		prompts = prompt.NewBuilder()
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	return &Runner{
		client:  client,
		prompts: prompts,
		logger:  logger,
		cfg:     cfg,
		limiter: rate.NewLimiter(limit, 1),
		runID:   uuid.NewString(),
	}
}

// RunID identifies this runner's rows in the CSV logs
func (r *Runner) RunID() string {
	return r.runID
}

// Run evaluates every model on every scenario. Outcomes come back in model
// then scenario order. A failing evaluation is reported in its Outcome and
// does not stop the others; only cancellation of ctx returns an error.
func (r *Runner) Run(ctx context.Context, models []string, scenarios []*engine.Scenario) ([]Outcome, error) {
	total := len(models) * len(scenarios)
	outcomes := make([]Outcome, total)

	log.Info().Str("run_id", r.runID).Int("models", len(models)).Int("scenarios", len(scenarios)).
		Int("concurrency", r.cfg.Concurrency).Msg("starting benchmark")

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Concurrency)

	idx := 0
	for _, model := range models {
		for _, scenario := range scenarios {
			i, model, scenario := idx, model, scenario
			idx++

			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				log.Info().Int("n", i+1).Int("total", total).Str("model", model).
					Str("scenario", scenario.ID).Msg("evaluating")

				outcomes[i] = r.RunScenario(gctx, model, scenario)
				if err := outcomes[i].Err; err != nil {
					if gctx.Err() != nil {
						return gctx.Err()
					}
					log.Error().Err(err).Str("model", model).Str("scenario", scenario.ID).Msg("evaluation failed")
				}
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return outcomes, err
	}

	log.Info().Str("run_id", r.runID).Str("dir", r.logger.BaseDir()).Msg("benchmark complete")
	return outcomes, nil
}

// RunScenario evaluates one model on one scenario: an initial prompt, up to
// MaxRetries corrected prompts while the answer is invalid, then one prompt
// per hint while the answer is valid but not optimal. Interactions are
// numbered from 1 in the order they are sent.
func (r *Runner) RunScenario(ctx context.Context, model string, scenario *engine.Scenario) Outcome {
	out := Outcome{Model: model, ScenarioID: scenario.ID}
	logger := log.With().Str("model", model).Str("scenario", scenario.ID).Logger()

	record := func(it report.Interaction) {
		out.Interactions = append(out.Interactions, it)
		if err := r.logger.LogInteraction(model, scenario.ID, it); err != nil {
			logger.Warn().Err(err).Msg("failed to log interaction")
		}
	}
	finish := func(final report.FinalResult) Outcome {
		out.Result = final
		path, err := r.logger.WriteMarkdownReport(model, scenario, out.Interactions, final)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to write report")
		}
		out.ReportPath = path
		return out
	}
	abort := func(err error) Outcome {
		out = finish(report.FinalResult{})
		out.Err = err
		return out
	}

	text := r.prompts.Build(scenario, "")
	for retry := 0; retry <= r.cfg.MaxRetries; retry++ {
		kind := report.TypeInitial
		if retry > 0 {
			kind = fmt.Sprintf("%s_%d", report.TypeRetry, retry)
		}

		it, err := r.interact(ctx, model, scenario, len(out.Interactions)+1, kind, text)
		if err != nil {
			return abort(err)
		}
		record(it)

		if it.IsValidPath {
			if it.IsOptimal {
				logger.Info().Int("total_mp", it.TotalMP).Msg("found optimal solution")
				return finish(report.FinalResult{Success: true, IsOptimal: true, TotalMP: intPtr(it.TotalMP)})
			}
			logger.Info().Int("total_mp", it.TotalMP).Msg("valid but not optimal")
			break
		}

		msg := feedbackMessage(it.Evaluation)
		logger.Info().Str("type", kind).Msg(msg)
		if retry < r.cfg.MaxRetries {
			text += prompt.Feedback(msg)
		}
	}

	if !out.Interactions[len(out.Interactions)-1].IsValidPath {
		logger.Info().Msg("no valid solution after retries")
		return finish(report.FinalResult{})
	}

	for i, hint := range scenario.Solution.Hints {
		kind := fmt.Sprintf("%s_%d", report.TypeHint, i+1)

		it, err := r.interact(ctx, model, scenario, len(out.Interactions)+1, kind, r.prompts.Build(scenario, hint))
		if err != nil {
			return abort(err)
		}
		record(it)

		if it.IsValidPath && it.IsOptimal {
			logger.Info().Str("type", kind).Int("total_mp", it.TotalMP).Msg("found optimal solution")
			return finish(report.FinalResult{Success: true, IsOptimal: true, TotalMP: intPtr(it.TotalMP)})
		}
	}

	best := bestInteraction(out.Interactions)
	if best == nil {
		return finish(report.FinalResult{})
	}
	logger.Info().Int("total_mp", best.TotalMP).Msg("valid solution found but not optimal")
	return finish(report.FinalResult{Success: true, TotalMP: intPtr(best.TotalMP)})
}

func (r *Runner) interact(ctx context.Context, model string, scenario *engine.Scenario, number int, kind, text string) (report.Interaction, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return report.Interaction{}, err
	}

	resp, err := r.client.SendMessage(ctx, model, text, r.cfg.Temperature, r.cfg.MaxTokens)
	if err != nil {
		return report.Interaction{}, err
	}

	it := report.Interaction{
		RunID:            r.runID,
		Timestamp:        time.Now(),
		Number:           number,
		Type:             kind,
		Prompt:           text,
		RawResponse:      resp.Raw,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
		ResponseTime:     resp.ResponseTime,
	}
	if resp.JSON != nil {
		if data, err := json.Marshal(resp.JSON); err == nil {
			it.ParsedJSON = string(data)
		}
	}
	if obj, ok := resp.JSON.(map[string]any); ok {
		it.Path, _ = obj["path"].(string)
		it.Analysis, _ = obj["analysis"].(string)
	}
	it.Evaluation = Evaluate(resp.JSON, scenario)
	it.Success = it.IsValidPath && it.IsOptimal

	interactionsTotal.WithLabelValues(model, outcomeLabel(it.Evaluation)).Inc()
	responseSeconds.WithLabelValues(model).Observe(resp.ResponseTime.Seconds())
	tokensTotal.WithLabelValues(model, "prompt").Add(float64(resp.Usage.PromptTokens))
	tokensTotal.WithLabelValues(model, "completion").Add(float64(resp.Usage.CompletionTokens))

	return it, nil
}

// Evaluate checks a decoded model reply against a scenario
func Evaluate(v any, scenario *engine.Scenario) report.Evaluation {
	if v == nil {
		return report.Evaluation{
			FormatError: "Could not parse JSON response",
			PathError:   "No valid response to evaluate",
		}
	}

	if ok, msg := ValidateResponseFormat(v); !ok {
		return report.Evaluation{
			FormatError: msg,
			PathError:   "Invalid format prevents path validation",
		}
	}

	path := v.(map[string]any)["path"].(string)
	result := engine.ValidatePuzzleSolution(path, scenario)

	eval := report.Evaluation{
		IsValidFormat: true,
		IsValidPath:   result.IsValid,
		TotalMP:       result.TotalMP,
		OptimalMP:     result.OptimalMP,
		IsOptimal:     result.IsOptimal,
	}
	if !result.IsValid {
		eval.PathError = result.Message
	}
	return eval
}

func feedbackMessage(e report.Evaluation) string {
	if !e.IsValidFormat {
		return "Invalid response format: " + e.FormatError
	}
	return "Invalid path: " + e.PathError
}

// bestInteraction returns the valid interaction with the lowest MP
func bestInteraction(interactions []report.Interaction) *report.Interaction {
	var best *report.Interaction
	for i := range interactions {
		it := &interactions[i]
		if !it.IsValidPath {
			continue
		}
		if best == nil || it.TotalMP < best.TotalMP {
			best = it
		}
	}
	return best
}

func outcomeLabel(e report.Evaluation) string {
	switch {
	case !e.IsValidFormat:
		return "format_error"
	case !e.IsValidPath:
		return "invalid"
	case e.IsOptimal:
		return "optimal"
	default:
		return "valid"
	}
}

func intPtr(i int) *int { return &i }
