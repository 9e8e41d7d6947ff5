// Package mcp exposes the pyramid puzzle to AI agents over the Model Context
// Protocol.
//
// The client is stateless: every tool call is forwarded to the REST API of a
// running puzzle server and the JSON response is rendered as text.
//
// MCP Tools:
//   - game_rules: Rules and path notation
//   - list_scenarios, get_scenario: Scenario discovery
//   - describe_tile: Exits and base costs from a tile
//   - validate_path: Stateless path check
//   - create_session, get_session, list_sessions: Session management
//   - submit_path: Record a scored attempt, possibly unlocking a hint
//   - attempt_history: Paginated attempts for a session
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	if err := server.ServeStdio(client.GetMCPServer()); err != nil {
//		log.Fatal().Err(err).Msg("mcp server failed")
//	}
package mcp
