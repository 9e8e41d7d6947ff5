// Package config provides scenario management for the pyramid puzzle.
//
// The config package handles:
//   - Loading scenarios from YAML files in a directory
//   - Validating scenarios before they are served
//   - Default scenario selection
//   - Scenario discovery, listing and saving
//
// Scenario Format:
//
// Scenario files are named scenario_<id>.yaml and map scenario IDs to their
// definitions:
//
//	"1":
//	  configuration:
//	    blocked:
//	      - tile: D2
//	    collectibles:
//	      - type: key
//	        location: D1
//	    objective:
//	      goal_tile: A1
//	      requires: [key]
//	  solution:
//	    optimal_mp: 8
//	    hint_1: Go straight up.
//
// Usage:
//
//	manager, err := config.NewManager("tasks/scenarios")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	scenario, err := manager.LoadScenario("1")
//	scenarios, err := manager.ListScenarios()
//
// Invalid scenarios are skipped with a warning rather than failing the
// whole directory.
package config
