package prompt

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wricardo/pyramid-puzzle/game/engine"
)

func testScenario() *engine.Scenario {
	return &engine.Scenario{
		ID: "3",
		Configuration: engine.Configuration{
			Blocked: []engine.BlockedTile{{Tile: "D1"}, {Tile: "C2", Reason: "rubble"}},
			Collectibles: []engine.Collectible{
				{Type: engine.ItemDynamite, Location: "E1"},
				{Type: engine.ItemKey, Location: "C1"},
			},
			Objective: engine.Objective{GoalTile: "A1", Requires: []string{engine.ItemKey}},
		},
	}
}

func TestScenarioSection(t *testing.T) {
	got := ScenarioSection(testScenario())
	expected := "## SCENARIO CONFIGURATION\n" +
		"**Blocked Tiles:** D1, C2\n" +
		"**Items Available:**\n" +
		"- Dynamite: Located at E1\n" +
		"- Key: Located at C1\n" +
		"**Objective:** Reach A1 (requires: key)\n\n"
	if got != expected {
		t.Errorf("Unexpected section:\n%s\nwant:\n%s", got, expected)
	}
}

func TestScenarioSectionMinimal(t *testing.T) {
	got := ScenarioSection(&engine.Scenario{ID: "empty"})
	expected := "## SCENARIO CONFIGURATION\n**Objective:** Reach A1\n\n"
	if got != expected {
		t.Errorf("Expected %q, got %q", expected, got)
	}
}

func TestBuild(t *testing.T) {
	b := &Builder{Rules: "RULES", OutputNotation: "NOTATION", InitialPrompt: "GO"}
	s := testScenario()

	tests := []struct {
		name   string
		hint   string
		suffix string
	}{
		{"without hint", "", "NOTATION\n\nGO"},
		{"with hint", "Blow up D1.", "GO\n\n**HINT:** Blow up D1."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := b.Build(s, tt.hint)
			if !strings.HasPrefix(got, "RULES\n---\n\n## SCENARIO CONFIGURATION\n") {
				t.Errorf("Unexpected prefix: %q", got[:40])
			}
			if !strings.HasSuffix(got, tt.suffix) {
				t.Errorf("Expected suffix %q, got %q", tt.suffix, got)
			}
			if strings.Count(got, ScenarioSection(s)) != 1 {
				t.Error("Expected the scenario section exactly once")
			}
		})
	}
}

func TestNewBuilderDefaults(t *testing.T) {
	b := NewBuilder()
	if !strings.Contains(b.Rules, "A1") || !strings.Contains(b.Rules, "Ladder") {
		t.Error("Expected embedded rules to describe the pyramid")
	}
	if !strings.Contains(b.OutputNotation, `"path"`) || !strings.Contains(b.OutputNotation, `"analysis"`) {
		t.Error("Expected embedded notation to describe the JSON answer")
	}
	if b.InitialPrompt == "" {
		t.Error("Expected embedded initial prompt")
	}
}

func TestLoadBuilder(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, RulesFile), []byte("custom rules"), 0644); err != nil {
		t.Fatal(err)
	}

	b, err := LoadBuilder(dir)
	if err != nil {
		t.Fatalf("Failed to load builder: %v", err)
	}
	if b.Rules != "custom rules" {
		t.Errorf("Expected custom rules, got %q", b.Rules)
	}
	if b.OutputNotation != NewBuilder().OutputNotation {
		t.Error("Expected missing notation file to keep the default")
	}

	if _, err := LoadBuilder(""); err != nil {
		t.Errorf("Expected defaults for empty dir, got %v", err)
	}
}

func TestFeedback(t *testing.T) {
	got := Feedback("Invalid path: Illegal move")
	if !strings.HasPrefix(got, "\n\nYour previous response had an error: Invalid path: Illegal move\n") {
		t.Errorf("Unexpected feedback %q", got)
	}
}

func TestTitleCase(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"key", "Key"},
		{"dynamite", "Dynamite"},
		{"golden_key", "Golden Key"},
	}
	for _, tt := range tests {
		if got := titleCase(tt.in); got != tt.want {
			t.Errorf("titleCase(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
