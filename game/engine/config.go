package engine

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// MaxScenarioFileSize caps the size of a scenario file read from disk
const MaxScenarioFileSize = 1024 * 1024

// knownItems are the item types the rules give meaning to
var knownItems = map[string]bool{
	ItemKey:      true,
	ItemLadder:   true,
	ItemDynamite: true,
}

// ValidateScenario checks a scenario for well-formed tiles, unique items, an
// apex objective and, when a reference path is given, that it is valid and
// costs exactly the declared optimal MP.
func ValidateScenario(s *Scenario) error {
	if s == nil {
		return fmt.Errorf("scenario validation: scenario is nil")
	}
	if s.ID == "" {
		return fmt.Errorf("scenario validation: id is required")
	}

	cfg := s.Configuration

	seenBlocked := make(map[Tile]bool)
	for i, b := range cfg.Blocked {
		tile, err := ParseTile(b.Tile)
		if err != nil {
			return fmt.Errorf("scenario validation: blocked[%d]: %w", i, err)
		}
		if seenBlocked[tile] {
			return fmt.Errorf("scenario validation: blocked tile %s listed twice", tile)
		}
		seenBlocked[tile] = true
	}

	seenItems := make(map[string]bool)
	for i, c := range cfg.Collectibles {
		if !isIdentifier(c.Type) {
			return fmt.Errorf("scenario validation: collectibles[%d]: invalid item type %q", i, c.Type)
		}
		if seenItems[c.Type] {
			return fmt.Errorf("scenario validation: item %q placed more than once", c.Type)
		}
		seenItems[c.Type] = true
		if _, err := ParseTile(c.Location); err != nil {
			return fmt.Errorf("scenario validation: %s location: %w", c.Type, err)
		}
	}

	goal, err := ParseTile(cfg.Objective.GoalTile)
	if err != nil {
		return fmt.Errorf("scenario validation: goal_tile: %w", err)
	}
	if goal != Apex {
		return fmt.Errorf("scenario validation: goal_tile must be %s, got %s", Apex, goal)
	}
	for _, req := range cfg.Objective.Requires {
		if !isIdentifier(req) {
			return fmt.Errorf("scenario validation: invalid required item %q", req)
		}
	}

	if s.Solution.OptimalMP != nil && *s.Solution.OptimalMP < 0 {
		return fmt.Errorf("scenario validation: optimal_mp must not be negative, got %d", *s.Solution.OptimalMP)
	}

	if s.Solution.OptimalPath != "" {
		v := Interpret(s.Solution.OptimalPath, cfg)
		if !v.Valid {
			return fmt.Errorf("scenario validation: optimal_path is not valid: %s", v.Reason)
		}
		if s.Solution.OptimalMP != nil && v.TotalCost != *s.Solution.OptimalMP {
			return fmt.Errorf("scenario validation: optimal_path costs %d MP but optimal_mp is %d", v.TotalCost, *s.Solution.OptimalMP)
		}
	}

	return nil
}

// ScenarioWarnings reports problems that do not make a scenario unusable but
// usually point at an authoring mistake.
func ScenarioWarnings(s *Scenario) []string {
	var warnings []string

	placed := make(map[string]bool)
	for _, c := range s.Configuration.Collectibles {
		placed[c.Type] = true
		if !knownItems[c.Type] {
			warnings = append(warnings, fmt.Sprintf("item %q has no rule effect", c.Type))
		}
	}
	if !placed[ItemKey] {
		warnings = append(warnings, "no key is placed, so no path can be valid")
	}
	for _, req := range s.Configuration.Objective.Requires {
		if !placed[req] {
			warnings = append(warnings, fmt.Sprintf("required item %q is not placed", req))
		}
	}
	if s.Solution.OptimalMP == nil {
		warnings = append(warnings, "optimal_mp is not declared, no answer can be optimal")
	}

	blocked := make(map[string]bool)
	for _, b := range s.Configuration.Blocked {
		blocked[b.Tile] = true
	}
	for _, c := range s.Configuration.Collectibles {
		if blocked[c.Location] && c.Type != ItemDynamite {
			warnings = append(warnings, fmt.Sprintf("%s sits on blocked tile %s", c.Type, c.Location))
		}
	}

	for _, level := range Levels {
		if CountBlocked(s.Configuration, level) == level.Capacity() {
			warnings = append(warnings, fmt.Sprintf("every %s tile is blocked, only %s can open the level", level, ItemDynamite))
		}
	}

	return warnings
}

type scenarioYAML struct {
	Name          string        `yaml:"name,omitempty"`
	Description   string        `yaml:"description,omitempty"`
	Configuration Configuration `yaml:"configuration"`
	Solution      solutionYAML  `yaml:"solution,omitempty"`
}

type solutionYAML struct {
	OptimalMP   *int   `yaml:"optimal_mp,omitempty"`
	OptimalPath string `yaml:"optimal_path,omitempty"`
	Hint1       string `yaml:"hint_1,omitempty"`
	Hint2       string `yaml:"hint_2,omitempty"`
	Hint3       string `yaml:"hint_3,omitempty"`
}

// ParseScenarioYAML decodes a scenario document. The document maps scenario
// IDs to their definitions; scenarios are returned sorted by ID and are not
// validated.
func ParseScenarioYAML(data []byte) ([]*Scenario, error) {
	var doc map[string]scenarioYAML
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse scenario YAML: %w", err)
	}
	if len(doc) == 0 {
		return nil, errors.New("scenario document is empty")
	}

	ids := make([]string, 0, len(doc))
	for id := range doc {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	scenarios := make([]*Scenario, 0, len(ids))
	for _, id := range ids {
		raw := doc[id]
		if raw.Configuration.Objective.GoalTile == "" {
			raw.Configuration.Objective.GoalTile = Apex.String()
		}

		s := &Scenario{
			ID:            id,
			Name:          raw.Name,
			Description:   raw.Description,
			Configuration: raw.Configuration,
			Solution: Solution{
				OptimalMP:   raw.Solution.OptimalMP,
				OptimalPath: raw.Solution.OptimalPath,
			},
		}
		for _, hint := range []string{raw.Solution.Hint1, raw.Solution.Hint2, raw.Solution.Hint3} {
			if hint != "" {
				s.Solution.Hints = append(s.Solution.Hints, hint)
			}
		}
		scenarios = append(scenarios, s)
	}

	return scenarios, nil
}

// MarshalScenarioYAML encodes a scenario in the same document format
// ParseScenarioYAML reads.
func MarshalScenarioYAML(s *Scenario) ([]byte, error) {
	raw := scenarioYAML{
		Name:          s.Name,
		Description:   s.Description,
		Configuration: s.Configuration,
		Solution: solutionYAML{
			OptimalMP:   s.Solution.OptimalMP,
			OptimalPath: s.Solution.OptimalPath,
		},
	}
	hints := []*string{&raw.Solution.Hint1, &raw.Solution.Hint2, &raw.Solution.Hint3}
	for i, hint := range s.Solution.Hints {
		if i < len(hints) {
			*hints[i] = hint
		}
	}
	return yaml.Marshal(map[string]scenarioYAML{s.ID: raw})
}

// LoadScenarioFile reads a scenario file and returns its first scenario,
// validated.
func LoadScenarioFile(filename string) (*Scenario, error) {
	info, err := os.Stat(filename)
	if err != nil {
		return nil, err
	}
	if info.Size() > MaxScenarioFileSize {
		return nil, fmt.Errorf("scenario file %s is %d bytes, limit is %d", filename, info.Size(), MaxScenarioFileSize)
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	scenarios, err := ParseScenarioYAML(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}

	s := scenarios[0]
	if err := ValidateScenario(s); err != nil {
		return nil, err
	}
	return s, nil
}
