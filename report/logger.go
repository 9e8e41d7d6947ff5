package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultBaseDir is where reports are written when no directory is given
const DefaultBaseDir = "evals"

// Columns is the CSV header, one row per interaction
var Columns = []string{
	"timestamp",
	"model_name",
	"scenario_id",
	"interaction_number",
	"interaction_type",
	"prompt",
	"raw_response",
	"parsed_json",
	"path",
	"analysis",
	"is_valid_format",
	"format_error",
	"is_valid_path",
	"path_error",
	"total_mp",
	"optimal_mp",
	"is_optimal",
	"prompt_tokens",
	"completion_tokens",
	"total_tokens",
	"response_time",
	"success",
	"run_id",
}

// Logger writes benchmark interactions as CSV rows and per-scenario Markdown
// reports. All files of one Logger share the same run timestamp.
type Logger struct {
	baseDir     string
	csvDir      string
	markdownDir string
	started     time.Time
	mu          sync.Mutex
}

// NewLogger creates the csv/ and markdown/ directories under baseDir
func NewLogger(baseDir string) (*Logger, error) {
	if baseDir == "" {
		baseDir = DefaultBaseDir
	}

	l := &Logger{
		baseDir:     baseDir,
		csvDir:      filepath.Join(baseDir, "csv"),
		markdownDir: filepath.Join(baseDir, "markdown"),
		started:     time.Now(),
	}

	for _, dir := range []string{l.csvDir, l.markdownDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create report directory: %w", err)
		}
	}

	return l, nil
}

// BaseDir returns the root directory reports are written to
func (l *Logger) BaseDir() string {
	return l.baseDir
}

// Filename returns the file stem for a model and scenario, without extension
func (l *Logger) Filename(model, scenarioID string) string {
	clean := strings.NewReplacer("/", "_", ":", "_").Replace(model)
	return fmt.Sprintf("%s_scenario_%s_%s", clean, scenarioID, l.started.Format("20060102_150405"))
}

// CSVPath returns the CSV file interactions for model and scenario go to
func (l *Logger) CSVPath(model, scenarioID string) string {
	return filepath.Join(l.csvDir, l.Filename(model, scenarioID)+".csv")
}

// MarkdownPath returns the report file for model and scenario
func (l *Logger) MarkdownPath(model, scenarioID string) string {
	return filepath.Join(l.markdownDir, l.Filename(model, scenarioID)+".md")
}

// LogInteraction appends one row, writing the header when the file is new
func (l *Logger) LogInteraction(model, scenarioID string, it Interaction) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	path := l.CSVPath(model, scenarioID)
	_, statErr := os.Stat(path)
	isNew := os.IsNotExist(statErr)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open csv log: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if isNew {
		if err := w.Write(Columns); err != nil {
			return fmt.Errorf("failed to write csv header: %w", err)
		}
	}
	if err := w.Write(row(model, scenarioID, it)); err != nil {
		return fmt.Errorf("failed to write csv row: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush csv log: %w", err)
	}

	log.Debug().Str("model", model).Str("scenario", scenarioID).Str("type", it.Type).Msg("logged interaction")
	return nil
}

func row(model, scenarioID string, it Interaction) []string {
	ts := it.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	optimal := ""
	if it.OptimalMP != nil {
		optimal = strconv.Itoa(*it.OptimalMP)
	}

	return []string{
		ts.Format(time.RFC3339Nano),
		model,
		scenarioID,
		strconv.Itoa(it.Number),
		it.Type,
		it.Prompt,
		it.RawResponse,
		it.ParsedJSON,
		it.Path,
		it.Analysis,
		strconv.FormatBool(it.IsValidFormat),
		it.FormatError,
		strconv.FormatBool(it.IsValidPath),
		it.PathError,
		strconv.Itoa(it.TotalMP),
		optimal,
		strconv.FormatBool(it.IsOptimal),
		strconv.Itoa(it.PromptTokens),
		strconv.Itoa(it.CompletionTokens),
		strconv.Itoa(it.TotalTokens),
		strconv.FormatFloat(it.ResponseTime.Seconds(), 'f', 3, 64),
		strconv.FormatBool(it.Success),
		it.RunID,
	}
}
