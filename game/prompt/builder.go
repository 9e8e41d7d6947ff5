package prompt

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wricardo/pyramid-puzzle/game/engine"
)

// File names looked up in a specs directory
const (
	RulesFile           = "Rules.md"
	OutputNotationsFile = "Output_Notations.md"
	InitialPromptFile   = "Initial_Prompt.md"
)

//go:embed specs/Rules.md
var defaultRules string

//go:embed specs/Output_Notations.md
var defaultNotation string

//go:embed specs/Initial_Prompt.md
var defaultInitial string

// Builder assembles model prompts from the rules texts and a scenario
type Builder struct {
	Rules          string
	OutputNotation string
	InitialPrompt  string
}

// NewBuilder returns a builder over the embedded rules texts
func NewBuilder() *Builder {
	return &Builder{
		Rules:          defaultRules,
		OutputNotation: defaultNotation,
		InitialPrompt:  defaultInitial,
	}
}

// LoadBuilder reads the rules texts from dir. Files missing from dir keep
// their embedded default; an empty dir returns the defaults.
func LoadBuilder(dir string) (*Builder, error) {
	b := NewBuilder()
	if dir == "" {
		return b, nil
	}

	targets := []struct {
		name string
		dst  *string
	}{
		{RulesFile, &b.Rules},
		{OutputNotationsFile, &b.OutputNotation},
		{InitialPromptFile, &b.InitialPrompt},
	}
	for _, t := range targets {
		data, err := os.ReadFile(filepath.Join(dir, t.name))
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", t.name, err)
		}
		*t.dst = string(data)
	}

	return b, nil
}

// ScenarioSection renders the board setup of a scenario
func ScenarioSection(s *engine.Scenario) string {
	var sb strings.Builder
	cfg := s.Configuration

	sb.WriteString("## SCENARIO CONFIGURATION\n")

	if len(cfg.Blocked) > 0 {
		fmt.Fprintf(&sb, "**Blocked Tiles:** %s\n", strings.Join(cfg.BlockedTiles(), ", "))
	}

	if len(cfg.Collectibles) > 0 {
		sb.WriteString("**Items Available:**\n")
		for _, item := range cfg.Collectibles {
			fmt.Fprintf(&sb, "- %s: Located at %s\n", titleCase(item.Type), item.Location)
		}
	}

	goal := cfg.Objective.GoalTile
	if goal == "" {
		goal = engine.Apex.String()
	}
	fmt.Fprintf(&sb, "**Objective:** Reach %s", goal)
	if len(cfg.Objective.Requires) > 0 {
		fmt.Fprintf(&sb, " (requires: %s)", strings.Join(cfg.Objective.Requires, ", "))
	}
	sb.WriteString("\n\n")

	return sb.String()
}

// Build returns the full prompt for a scenario, with an optional hint appended
func (b *Builder) Build(s *engine.Scenario, hint string) string {
	var sb strings.Builder
	sb.WriteString(b.Rules)
	sb.WriteString("\n---\n\n")
	sb.WriteString(ScenarioSection(s))
	sb.WriteString(b.OutputNotation)
	sb.WriteString("\n\n")
	sb.WriteString(b.InitialPrompt)
	if hint != "" {
		sb.WriteString("\n\n**HINT:** ")
		sb.WriteString(hint)
	}
	return sb.String()
}

// Feedback is appended to a prompt after an unusable answer
func Feedback(errMsg string) string {
	return fmt.Sprintf("\n\nYour previous response had an error: %s\nPlease provide a corrected response in the exact JSON format specified.", errMsg)
}

// titleCase upper-cases the first letter of each word: "dynamite" -> "Dynamite"
func titleCase(s string) string {
	words := strings.Fields(strings.ReplaceAll(s, "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}
