// Package engine validates paths through the pyramid puzzle and scores them.
//
// The pyramid has five concentric levels, A (the apex, one tile) through E
// (the base, 32 tiles). A path is a "|" separated list of actions:
//
//	E1|D1|D1:key|C1|B1|A1
//
// A bare tile moves onto it, "TILE:item" collects an item on the current
// tile, and "clear:TILE" spends the dynamite on a blocked tile. A path must
// start on the E level and end on A1 holding the key.
//
// Core Types:
//
// Tile and Level address the board. Classify decides whether a transition is
// legal and what it costs. PuzzleState holds the per-evaluation inventory and
// obstacles. Interpreter replays actions against a fresh PuzzleState and
// produces a Verdict; Score turns a Verdict into the Result returned to
// callers.
//
// Usage:
//
//	scenario, err := engine.LoadScenarioFile("tasks/scenarios/scenario_1.yaml")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result := engine.ValidatePuzzleSolution("E1|D1|D1:key|C1|B1|A1", scenario)
//	fmt.Println(result.IsValid, result.TotalMP, result.IsOptimal)
//
// Evaluations share nothing, so any number of them may run concurrently.
package engine
