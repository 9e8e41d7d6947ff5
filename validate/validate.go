// Package validate checks scenario files before they are served or
// benchmarked. For every file it verifies:
//   - YAML structure and required fields
//   - Tile identifiers, duplicate obstacles and items
//   - An objective at the apex
//   - The reference path, when given, is valid and costs optimal_mp
//   - optimal_mp is not below the cheapest possible climb
//   - optimal_mp matches the cheapest path the solver finds
//
// Authoring mistakes that leave the scenario usable are reported as
// warnings.
package validate

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/wricardo/pyramid-puzzle/game/engine"
	"github.com/wricardo/pyramid-puzzle/game/solver"
)

// Result captures the outcome of validating a single file. Info holds notes
// about a valid file; Errors holds the problems of an invalid one.
type Result struct {
	File     string
	Valid    bool
	Errors   []string
	Warnings []string
	Info     []string
}

// File loads and validates every scenario in a scenario file
func File(path string) Result {
	result := Result{
		File:  filepath.Base(path),
		Valid: true,
	}

	fail := func(format string, args ...any) Result {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf(format, args...))
		return result
	}

	info, err := os.Stat(path)
	if err != nil {
		return fail("Failed to read file: %v", err)
	}
	if info.Size() > engine.MaxScenarioFileSize {
		return fail("File is %d bytes, limit is %d", info.Size(), engine.MaxScenarioFileSize)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fail("Failed to read file: %v", err)
	}

	scenarios, err := engine.ParseScenarioYAML(data)
	if err != nil {
		return fail("Invalid YAML: %v", err)
	}

	for _, s := range scenarios {
		checkScenario(&result, s)
	}
	return result
}

func checkScenario(result *Result, s *engine.Scenario) {
	prefix := fmt.Sprintf("scenario %s: ", s.ID)

	if err := engine.ValidateScenario(s); err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, prefix+strings.TrimPrefix(err.Error(), "scenario validation: "))
		return
	}

	_, hasLadder := engine.FindItem(s.Configuration, engine.ItemLadder)
	floor := engine.MinimumCostToApex(engine.MustParseTile("E1"), hasLadder)
	if mp := s.Solution.OptimalMP; mp != nil && *mp < floor {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("%soptimal_mp %d is below the cheapest possible climb (%d MP)", prefix, *mp, floor))
		return
	}

	best, err := solver.Solve(s.Configuration)
	switch {
	case err != nil && !errors.Is(err, solver.ErrUnsolvable):
		result.Valid = false
		result.Errors = append(result.Errors, prefix+err.Error())
		return
	case err != nil && s.Solution.OptimalMP != nil:
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("%s%v but optimal_mp is %d", prefix, err, *s.Solution.OptimalMP))
		return
	case err != nil:
		result.Warnings = append(result.Warnings, prefix+err.Error())
	case s.Solution.OptimalMP != nil && *s.Solution.OptimalMP != best.TotalMP:
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("%soptimal_mp is %d but %s costs %d MP", prefix, *s.Solution.OptimalMP, best.Path, best.TotalMP))
		return
	}

	for _, w := range engine.ScenarioWarnings(s) {
		result.Warnings = append(result.Warnings, prefix+w)
	}

	line := fmt.Sprintf("✓ %s%d blocked, %d items, %d hints", prefix,
		len(s.Configuration.Blocked), len(s.Configuration.Collectibles), len(s.Solution.Hints))
	if s.Solution.OptimalPath != "" {
		line += ", reference path verified"
	}
	if best != nil {
		line += fmt.Sprintf(", solved in %d MP", best.TotalMP)
	}
	result.Info = append(result.Info, line)
}

// Dir validates every *.yaml and *.yml file in dir
func Dir(dir string) ([]Result, error) {
	var files []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, fmt.Errorf("error finding scenario files: %w", err)
		}
		files = append(files, matches...)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no scenario files found in %s", dir)
	}

	results := make([]Result, 0, len(files))
	for _, file := range files {
		results = append(results, File(file))
	}
	return results, nil
}

// Print writes a human-readable summary and reports whether every file is
// valid.
func Print(w io.Writer, results []Result) bool {
	allValid := true
	for _, result := range results {
		fmt.Fprintf(w, "\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Fprintln(w, "✅ VALID")
			for _, info := range result.Info {
				fmt.Fprintln(w, "  "+info)
			}
		} else {
			fmt.Fprintln(w, "❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				fmt.Fprintln(w, "  ❌ "+err)
			}
		}
		for _, warning := range result.Warnings {
			fmt.Fprintln(w, "  ⚠️  "+warning)
		}
	}

	fmt.Fprintf(w, "\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Fprintln(w, "✅ All scenarios are valid!")
	} else {
		fmt.Fprintln(w, "❌ Some scenarios have errors")
	}
	return allValid
}
