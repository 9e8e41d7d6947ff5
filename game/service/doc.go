// Package service provides the business logic layer for the pyramid puzzle.
//
// The service package implements:
//   - Puzzle sessions that collect attempts against one scenario
//   - Stateless path validation against any known scenario
//   - Hint disclosure for valid but suboptimal attempts
//   - Paginated attempt history
//
// Core Interfaces:
//
// PuzzleService is the main service interface used by the HTTP API and the
// MCP server. SessionManager stores sessions and ConfigManager loads
// scenarios. EventPublisher receives attempt events for live subscribers.
//
// Usage:
//
//	sessionMgr := session.NewManager()
//	configMgr, _ := config.NewManager("tasks/scenarios")
//	puzzles := service.NewPuzzleService(sessionMgr, configMgr, hub)
//
//	info, err := puzzles.CreateSession(ctx, "1")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result, err := puzzles.SubmitPath(ctx, info.ID, "E1|D1|D1:key|C1|B1|A1", "")
//
// Metrics:
//
// Attempt and validation outcomes, valid path costs and the number of active
// sessions are exported through the default Prometheus registry.
package service
