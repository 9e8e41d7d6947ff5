package report

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/pyramid-puzzle/game/engine"
)

func testScenario() *engine.Scenario {
	return &engine.Scenario{
		ID: "3",
		Configuration: engine.Configuration{
			Blocked:      []engine.BlockedTile{{Tile: "E2"}, {Tile: "C1"}},
			Collectibles: []engine.Collectible{{Type: engine.ItemKey, Location: "D1"}},
			Objective:    engine.Objective{GoalTile: "A1", Requires: []string{engine.ItemKey}},
		},
		Solution: engine.Solution{OptimalMP: intPtr(9)},
	}
}

func TestFilename(t *testing.T) {
	l, err := NewLogger(t.TempDir())
	require.NoError(t, err)
	l.started = time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)

	assert.Equal(t, "openai_gpt-4o_free_scenario_3_20250304_050607", l.Filename("openai/gpt-4o:free", "3"))
	assert.True(t, strings.HasSuffix(l.CSVPath("m", "1"), filepath.Join("csv", "m_scenario_1_20250304_050607.csv")))
	assert.True(t, strings.HasSuffix(l.MarkdownPath("m", "1"), filepath.Join("markdown", "m_scenario_1_20250304_050607.md")))
}

func TestNewLoggerCreatesDirectories(t *testing.T) {
	base := filepath.Join(t.TempDir(), "evals")
	l, err := NewLogger(base)
	require.NoError(t, err)

	assert.Equal(t, base, l.BaseDir())
	assert.DirExists(t, filepath.Join(base, "csv"))
	assert.DirExists(t, filepath.Join(base, "markdown"))
}

func TestLogInteraction(t *testing.T) {
	l, err := NewLogger(t.TempDir())
	require.NoError(t, err)

	first := Interaction{
		RunID:       "run-1",
		Number:      1,
		Type:        TypeInitial,
		Prompt:      "line one\nline, two",
		RawResponse: `{"path": "E1|D1", "analysis": "short"}`,
		ParsedJSON:  `{"analysis":"short","path":"E1|D1"}`,
		Path:        "E1|D1",
		Analysis:    "short",
		Evaluation: Evaluation{
			IsValidFormat: true,
			PathError:     "Must collect key before reaching A1",
			TotalMP:       2,
			OptimalMP:     intPtr(8),
		},
		PromptTokens:     100,
		CompletionTokens: 20,
		TotalTokens:      120,
		ResponseTime:     1500 * time.Millisecond,
	}
	second := first
	second.Type = "retry_1"

	require.NoError(t, l.LogInteraction("vendor/model", "3", first))
	require.NoError(t, l.LogInteraction("vendor/model", "3", second))

	f, err := os.Open(l.CSVPath("vendor/model", "3"))
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3, "header written once plus two rows")

	assert.Equal(t, Columns, records[0])
	row := make(map[string]string, len(Columns))
	for i, col := range Columns {
		row[col] = records[1][i]
	}

	assert.Equal(t, "vendor/model", row["model_name"])
	assert.Equal(t, "3", row["scenario_id"])
	assert.Equal(t, "initial", row["interaction_type"])
	assert.Equal(t, "line one\nline, two", row["prompt"])
	assert.Equal(t, "true", row["is_valid_format"])
	assert.Equal(t, "false", row["is_valid_path"])
	assert.Equal(t, "2", row["total_mp"])
	assert.Equal(t, "8", row["optimal_mp"])
	assert.Equal(t, "1.500", row["response_time"])
	assert.Equal(t, "run-1", row["run_id"])
	assert.Equal(t, "retry_1", records[2][4])
}

func TestLogInteractionConcurrent(t *testing.T) {
	l, err := NewLogger(t.TempDir())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			assert.NoError(t, l.LogInteraction("m", "1", Interaction{Number: n, Type: TypeInitial}))
		}(i)
	}
	wg.Wait()

	data, err := os.ReadFile(l.CSVPath("m", "1"))
	require.NoError(t, err)
	records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, 21)
}

func TestRenderMarkdown(t *testing.T) {
	generated := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	long := strings.Repeat("x", maxPromptChars+50)

	interactions := []Interaction{
		{
			RunID:       "run-7",
			Number:      1,
			Type:        TypeInitial,
			Prompt:      long,
			RawResponse: "no json here",
			Evaluation: Evaluation{
				FormatError: "Could not parse JSON response",
				PathError:   "No valid response to evaluate",
			},
			TotalTokens:  10,
			ResponseTime: time.Second,
		},
		{
			Number:      2,
			Type:        "hint_1",
			Prompt:      "short prompt",
			RawResponse: `{"path":"E1|D1|D1:key|D2|C2|B1|A1","analysis":"around"}`,
			ParsedJSON:  `{"analysis":"around","path":"E1|D1|D1:key|D2|C2|B1|A1"}`,
			Path:        "E1|D1|D1:key|D2|C2|B1|A1",
			Analysis:    "around",
			Evaluation: Evaluation{
				IsValidFormat: true,
				IsValidPath:   true,
				TotalMP:       9,
				OptimalMP:     intPtr(9),
				IsOptimal:     true,
			},
			TotalTokens:  30,
			ResponseTime: 2 * time.Second,
			Success:      true,
		},
	}

	out := RenderMarkdown("vendor/model", testScenario(), interactions, FinalResult{Success: true, IsOptimal: true, TotalMP: intPtr(9)}, generated)

	for _, want := range []string{
		"# Benchmark Report: vendor/model - Scenario 3",
		"**Run:** run-7",
		"- **Total Interactions:** 2",
		"- **Final Result:** SUCCESS",
		"- **Final MP:** 9",
		"- **Optimal MP:** 9",
		"- **Total Tokens Used:** 40 (Prompt: 0, Completion: 0)",
		"- **Total Response Time:** 3.00 seconds",
		"### Blocked Tiles\nE2, C1",
		"- **Key:** D1",
		"### Interaction 1: Initial",
		"...[truncated]",
		"  - Error: Could not parse JSON response",
		"### Interaction 2: Hint_1",
		"**Path:** `E1|D1|D1:key|D2|C2|B1|A1`",
		"- MP Count: 9",
		"🎉 **SUCCESS:** Model found the optimal solution!",
		"**Hints Used:** hint_1",
	} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, long)
}

func TestRenderMarkdownOutcomes(t *testing.T) {
	tests := []struct {
		name  string
		final FinalResult
		want  string
	}{
		{"partial", FinalResult{Success: true, TotalMP: intPtr(11)}, "✅ **PARTIAL SUCCESS:**"},
		{"failure", FinalResult{}, "❌ **FAILURE:**"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := RenderMarkdown("m", testScenario(), nil, tt.final, time.Now())
			assert.Contains(t, out, tt.want)
			assert.NotContains(t, out, "**Hints Used:**")
		})
	}
}

func TestWriteMarkdownReport(t *testing.T) {
	l, err := NewLogger(t.TempDir())
	require.NoError(t, err)

	path, err := l.WriteMarkdownReport("m", testScenario(), nil, FinalResult{})
	require.NoError(t, err)
	assert.Equal(t, l.MarkdownPath("m", "3"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "## Final Assessment")
}
