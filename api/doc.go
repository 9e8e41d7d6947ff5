// Package api provides HTTP REST API handlers for the pyramid puzzle.
//
// Endpoints:
//
// Scenarios:
//   - GET /api/scenarios - List scenarios with their warnings
//   - POST /api/scenarios - Validate and save a scenario
//   - GET /api/scenarios/{id} - Get a scenario (?solution=true includes the answer)
//   - POST /api/scenarios/{id}/validate - Evaluate {"path": "..."} without a session
//   - GET /api/scenarios/{id}/tiles/{tile} - Exits, costs and items of a tile
//   - GET /api/scenarios/{id}/prompt - Full model prompt (?hint=N)
//
// Sessions:
//   - POST /api/sessions - Create a session ({"scenario_id": "1"}, empty for default)
//   - GET /api/sessions - List sessions (?sort=created|accessed&order=asc|desc&limit=N&scenario=ID)
//   - GET /api/sessions/{id} - Session progress
//   - DELETE /api/sessions/{id} - Delete a session
//   - POST /api/sessions/{id}/attempts - Submit {"path": "...", "analysis": "..."}
//   - GET /api/sessions/{id}/attempts - Attempt history (?page&limit&order)
//
// Other:
//   - GET /api/rules - Rules and answer notation texts
//   - GET /health - Liveness
//   - GET /metrics - Prometheus metrics
//   - GET /ws?session=ID - WebSocket event stream
//
// Errors are returned as {"error": "..."} with 404 for unknown scenarios and
// sessions, 400 for malformed tiles, scenarios and request bodies.
package api
