package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/wricardo/pyramid-puzzle/game/config"
)

// Record is one interaction row read back from a CSV log
type Record struct {
	Model        string
	ScenarioID   string
	RunID        string
	Type         string
	Path         string
	IsValidPath  bool
	IsOptimal    bool
	TotalMP      int
	TotalTokens  int
	ResponseTime time.Duration
}

// ScenarioResult is the best outcome a model reached on one scenario
type ScenarioResult struct {
	ScenarioID string
	Runs       int
	Solved     int
	Optimal    int
	BestMP     *int
}

// ModelSummary aggregates every run of one model. A run is the set of
// interactions sharing model, scenario and run ID.
type ModelSummary struct {
	Model        string
	Runs         int
	Solved       int
	Optimal      int
	Interactions int
	Tokens       int
	ResponseTime time.Duration
	Scenarios    []ScenarioResult
}

// AvgResponseTime is the mean response time per interaction
func (s ModelSummary) AvgResponseTime() time.Duration {
	if s.Interactions == 0 {
		return 0
	}
	return s.ResponseTime / time.Duration(s.Interactions)
}

// ReadCSV parses a log written by Logger. Columns are matched by header
// name, so logs without the run_id column still load.
func ReadCSV(r io.Reader) ([]Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[name] = i
	}
	for _, required := range []string{"model_name", "scenario_id", "is_valid_path"} {
		if _, ok := index[required]; !ok {
			return nil, fmt.Errorf("csv log is missing column %s", required)
		}
	}

	field := func(row []string, name string) string {
		i, ok := index[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	var records []Record
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv row: %w", err)
		}

		rec := Record{
			Model:      field(row, "model_name"),
			ScenarioID: field(row, "scenario_id"),
			RunID:      field(row, "run_id"),
			Type:       field(row, "interaction_type"),
			Path:       field(row, "path"),
		}
		rec.IsValidPath, _ = strconv.ParseBool(field(row, "is_valid_path"))
		rec.IsOptimal, _ = strconv.ParseBool(field(row, "is_optimal"))
		rec.TotalMP, _ = strconv.Atoi(field(row, "total_mp"))
		rec.TotalTokens, _ = strconv.Atoi(field(row, "total_tokens"))
		if secs, err := strconv.ParseFloat(field(row, "response_time"), 64); err == nil {
			rec.ResponseTime = time.Duration(secs * float64(time.Second))
		}
		records = append(records, rec)
	}

	return records, nil
}

// ReadDir loads every *.csv log in dir. Unreadable files are skipped with a
// warning.
func ReadDir(dir string) ([]Record, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		return nil, fmt.Errorf("error finding csv logs: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no csv logs found in %s", dir)
	}

	var records []Record
	for _, file := range files {
		f, err := os.Open(file)
		if err != nil {
			log.Warn().Err(err).Str("file", file).Msg("skipping csv log")
			continue
		}
		recs, err := ReadCSV(f)
		f.Close()
		if err != nil {
			log.Warn().Err(err).Str("file", file).Msg("skipping csv log")
			continue
		}
		records = append(records, recs...)
	}
	return records, nil
}

// Summarize groups records per model, ordered by model name, with scenarios
// ordered by ID.
func Summarize(records []Record) []ModelSummary {
	type runKey struct{ model, scenario, run string }
	type runState struct {
		solved, optimal bool
		best            *int
	}

	runs := make(map[runKey]*runState)
	models := make(map[string]*ModelSummary)

	for _, rec := range records {
		m, ok := models[rec.Model]
		if !ok {
			m = &ModelSummary{Model: rec.Model}
			models[rec.Model] = m
		}
		m.Interactions++
		m.Tokens += rec.TotalTokens
		m.ResponseTime += rec.ResponseTime

		key := runKey{rec.Model, rec.ScenarioID, rec.RunID}
		run, ok := runs[key]
		if !ok {
			run = &runState{}
			runs[key] = run
		}
		if rec.IsValidPath {
			run.solved = true
			if run.best == nil || rec.TotalMP < *run.best {
				run.best = intPtr(rec.TotalMP)
			}
		}
		if rec.IsOptimal {
			run.optimal = true
		}
	}

	scenarios := make(map[string]map[string]*ScenarioResult)
	for key, run := range runs {
		m := models[key.model]
		m.Runs++
		if scenarios[key.model] == nil {
			scenarios[key.model] = make(map[string]*ScenarioResult)
		}
		sr, ok := scenarios[key.model][key.scenario]
		if !ok {
			sr = &ScenarioResult{ScenarioID: key.scenario}
			scenarios[key.model][key.scenario] = sr
		}
		sr.Runs++
		if run.solved {
			m.Solved++
			sr.Solved++
		}
		if run.optimal {
			m.Optimal++
			sr.Optimal++
		}
		if run.best != nil && (sr.BestMP == nil || *run.best < *sr.BestMP) {
			sr.BestMP = intPtr(*run.best)
		}
	}

	result := make([]ModelSummary, 0, len(models))
	for name, m := range models {
		ids := make([]string, 0, len(scenarios[name]))
		for id := range scenarios[name] {
			ids = append(ids, id)
		}
		config.SortIDs(ids)
		for _, id := range ids {
			m.Scenarios = append(m.Scenarios, *scenarios[name][id])
		}
		result = append(result, *m)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Model < result[j].Model })
	return result
}

func intPtr(v int) *int { return &v }
