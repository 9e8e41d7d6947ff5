package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wricardo/pyramid-puzzle/game/engine"
	"github.com/wricardo/pyramid-puzzle/game/service"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Pyramid Puzzle",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Pyramid Puzzle - MCP Interface

This is a thin client that proxies all requests to the REST API server.

OBJECTIVE:
Climb from the base of a five-level pyramid (level E) to the peak A1 holding the
key, spending as few movement points (MP) as possible.

AVAILABLE TOOLS:
- game_rules: Full rules and the path notation
- list_scenarios / get_scenario: Browse puzzles
- describe_tile: Legal exits and their costs from one tile
- validate_path: Check a path against a scenario without recording it
- create_session / get_session / list_sessions: Track your attempts
- submit_path: Record an attempt; a valid but non-optimal answer unlocks a hint
- attempt_history: Review previous attempts

Paths look like E1|D1|D1:key|C1|B1|A1.`),
	)

	c.registerTools()
}

func stringProp(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": description,
	}
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	noArgs := mcp.ToolInputSchema{Type: "object", Properties: map[string]interface{}{}}

	// Scenarios
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_scenarios",
		Description: "List available puzzle scenarios",
		InputSchema: noArgs,
	}, c.handleListScenarios)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_scenario",
		Description: "Get the blocked tiles, items and objective of a scenario",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"scenario_id": stringProp("Scenario ID"),
			},
			Required: []string{"scenario_id"},
		},
	}, c.handleGetScenario)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "describe_tile",
		Description: "Describe a tile: its items, whether it is blocked, and every legal move out of it with its base MP cost",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"scenario_id": stringProp("Scenario ID"),
				"tile":        stringProp("Tile identifier such as E5 or B2"),
			},
			Required: []string{"scenario_id", "tile"},
		},
	}, c.handleDescribeTile)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "validate_path",
		Description: "Validate a path against a scenario without recording it",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"scenario_id": stringProp("Scenario ID"),
				"path":        stringProp("Path such as E1|D1|D1:key|C1|B1|A1"),
			},
			Required: []string{"scenario_id", "path"},
		},
	}, c.handleValidatePath)

	// Sessions
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new puzzle session with optional scenario selection",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"scenario_id": stringProp("Scenario to play (optional, defaults to the first scenario)"),
			},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all puzzle sessions",
		InputSchema: noArgs,
	}, c.handleListSessions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_session",
		Description: "Get the progress of a session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": stringProp("Session ID to retrieve"),
			},
			Required: []string{"session_id"},
		},
	}, c.handleGetSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "submit_path",
		Description: "Submit a path to a session. It is validated, scored and recorded",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": stringProp("Session ID"),
				"path":       stringProp("Path such as E1|D1|D1:key|C1|B1|A1"),
				"analysis":   stringProp("Brief explanation of the route and its cost (serves as a rubber duck to help explain your reasoning)"),
			},
			Required: []string{"session_id", "path"},
		},
	}, c.handleSubmitPath)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "attempt_history",
		Description: "Get attempt history for a session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": stringProp("Session ID"),
				"page": map[string]interface{}{
					"type":        "integer",
					"description": "Page number",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Items per page",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleAttemptHistory)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_rules",
		Description: "Get the complete puzzle rules and the path notation",
		InputSchema: noArgs,
	}, c.handleGameRules)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

func arguments(request mcp.CallToolRequest) map[string]interface{} {
	args, _ := request.Params.Arguments.(map[string]interface{})
	if args == nil {
		args = map[string]interface{}{}
	}
	return args
}

func requireString(args map[string]interface{}, name string) (string, *mcp.CallToolResult) {
	v, _ := args[name].(string)
	if strings.TrimSpace(v) == "" {
		return "", mcp.NewToolResultError(fmt.Sprintf("%s is required", name))
	}
	return v, nil
}

// Tool handlers

func (c *Client) handleListScenarios(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var scenarios []service.ScenarioInfo
	if err := c.apiCall(ctx, "GET", "/api/scenarios", nil, &scenarios); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Available Scenarios (%d):\n\n", len(scenarios))
	for _, s := range scenarios {
		b.WriteString(formatScenarioInfo(&s))
		b.WriteString("\n")
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGetScenario(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	scenarioID, errResult := requireString(arguments(request), "scenario_id")
	if errResult != nil {
		return errResult, nil
	}

	var scenario engine.Scenario
	if err := c.apiCall(ctx, "GET", "/api/scenarios/"+url.PathEscape(scenarioID), nil, &scenario); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatScenario(&scenario)), nil
}

func (c *Client) handleDescribeTile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	scenarioID, errResult := requireString(args, "scenario_id")
	if errResult != nil {
		return errResult, nil
	}
	tile, errResult := requireString(args, "tile")
	if errResult != nil {
		return errResult, nil
	}

	var info engine.TileInfo
	path := fmt.Sprintf("/api/scenarios/%s/tiles/%s", url.PathEscape(scenarioID), url.PathEscape(strings.ToUpper(tile)))
	if err := c.apiCall(ctx, "GET", path, nil, &info); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatTileInfo(&info)), nil
}

func (c *Client) handleValidatePath(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	scenarioID, errResult := requireString(args, "scenario_id")
	if errResult != nil {
		return errResult, nil
	}
	path, _ := args["path"].(string)

	var result service.ValidationResult
	body := map[string]string{"path": path}
	if err := c.apiCall(ctx, "POST", fmt.Sprintf("/api/scenarios/%s/validate", url.PathEscape(scenarioID)), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatResult(path, result.Result, result.Code, result.Step)), nil
}

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	scenarioID, _ := arguments(request)["scenario_id"].(string)

	body := map[string]string{}
	if scenarioID != "" {
		body["scenario_id"] = scenarioID
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "POST", "/api/sessions", body, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Created session: %s\nScenario: %s\n", session.ID, session.ScenarioID)
	if session.Scenario != nil {
		result += "\n" + formatScenario(session.Scenario)
	}
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                   `json:"count"`
		Sessions []service.SessionInfo `json:"sessions"`
	}

	if err := c.apiCall(ctx, "GET", "/api/sessions", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Sessions (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		fmt.Fprintf(&b, "- %s (Scenario: %s, Attempts: %d, %s)\n",
			s.ID, s.ScenarioID, s.AttemptCount, progressLabel(&s))
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, errResult := requireString(arguments(request), "session_id")
	if errResult != nil {
		return errResult, nil
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "GET", "/api/sessions/"+url.PathEscape(sessionID), nil, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleSubmitPath(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, errResult := requireString(args, "session_id")
	if errResult != nil {
		return errResult, nil
	}
	path, _ := args["path"].(string)
	analysis, _ := args["analysis"].(string)

	body := map[string]string{
		"path":     path,
		"analysis": analysis,
	}

	var result service.AttemptResult
	if err := c.apiCall(ctx, "POST", fmt.Sprintf("/api/sessions/%s/attempts", url.PathEscape(sessionID)), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatAttemptResult(&result)), nil
}

func (c *Client) handleAttemptHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, errResult := requireString(args, "session_id")
	if errResult != nil {
		return errResult, nil
	}

	params := url.Values{}
	if page, ok := args["page"].(float64); ok {
		params.Set("page", fmt.Sprintf("%d", int(page)))
	}
	if limit, ok := args["limit"].(float64); ok {
		params.Set("limit", fmt.Sprintf("%d", int(limit)))
	}

	path := fmt.Sprintf("/api/sessions/%s/attempts", url.PathEscape(sessionID))
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var history service.HistoryResponse
	if err := c.apiCall(ctx, "GET", path, nil, &history); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatHistory(&history)), nil
}

func (c *Client) handleGameRules(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var rules map[string]string
	if err := c.apiCall(ctx, "GET", "/api/rules", nil, &rules); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(rules["rules"] + "\n\n" + rules["output_notation"]), nil
}

// Formatting

func formatScenarioInfo(s *service.ScenarioInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "• %s", s.ScenarioID)
	if s.Name != "" {
		fmt.Fprintf(&b, " - %s", s.Name)
	}
	b.WriteString("\n")
	if s.Description != "" {
		fmt.Fprintf(&b, "  %s\n", s.Description)
	}
	if len(s.BlockedTiles) > 0 {
		fmt.Fprintf(&b, "  Blocked: %s\n", strings.Join(s.BlockedTiles, ", "))
	}
	if len(s.Items) > 0 {
		fmt.Fprintf(&b, "  Items: %s\n", strings.Join(s.Items, ", "))
	}
	if s.OptimalMP != nil {
		fmt.Fprintf(&b, "  Optimal: %d MP\n", *s.OptimalMP)
	}
	return b.String()
}

func formatScenario(s *engine.Scenario) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Scenario %s", s.ID)
	if s.Name != "" {
		fmt.Fprintf(&b, ": %s", s.Name)
	}
	b.WriteString("\n")
	if s.Description != "" {
		fmt.Fprintf(&b, "%s\n", s.Description)
	}

	cfg := s.Configuration
	if len(cfg.Blocked) > 0 {
		fmt.Fprintf(&b, "Blocked Tiles: %s\n", strings.Join(cfg.BlockedTiles(), ", "))
	} else {
		b.WriteString("Blocked Tiles: none\n")
	}
	for _, item := range cfg.Collectibles {
		fmt.Fprintf(&b, "Item: %s at %s\n", item.Type, item.Location)
	}
	fmt.Fprintf(&b, "Objective: Reach %s", cfg.Objective.GoalTile)
	if len(cfg.Objective.Requires) > 0 {
		fmt.Fprintf(&b, " (requires: %s)", strings.Join(cfg.Objective.Requires, ", "))
	}
	b.WriteString("\n")
	if s.Solution.OptimalMP != nil {
		fmt.Fprintf(&b, "Optimal cost: %d MP\n", *s.Solution.OptimalMP)
	}
	return b.String()
}

func formatTileInfo(info *engine.TileInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Tile %s (level %s)", info.Tile, info.Level)
	if info.Blocked {
		b.WriteString(" BLOCKED")
	}
	b.WriteString("\n")
	if len(info.Items) > 0 {
		fmt.Fprintf(&b, "Items here: %s\n", strings.Join(info.Items, ", "))
	}
	b.WriteString("\nExits:\n")
	for _, exit := range info.Exits {
		fmt.Fprintf(&b, "- %s %s (%d MP)", exit.To, exit.Kind, exit.Cost)
		if exit.Blocked {
			b.WriteString(" [blocked]")
		}
		b.WriteString("\n")
	}
	return b.String()
}

func formatResult(path string, r engine.Result, code engine.ErrorCode, step int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Path: %s\n", path)
	if r.IsValid {
		fmt.Fprintf(&b, "✓ Valid - %d MP", r.TotalMP)
		switch {
		case r.IsOptimal:
			b.WriteString(" (optimal)")
		case r.OptimalMP != nil:
			fmt.Fprintf(&b, " (optimal is %d MP)", *r.OptimalMP)
		}
		b.WriteString("\n")
		return b.String()
	}

	fmt.Fprintf(&b, "✗ Invalid: %s\n", r.Message)
	if code != "" {
		fmt.Fprintf(&b, "Error: %s", code)
		if step > 0 {
			fmt.Fprintf(&b, " at step %d", step)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "MP spent before failing: %d\n", r.TotalMP)
	return b.String()
}

func formatAttemptResult(result *service.AttemptResult) string {
	a := result.Attempt
	var b strings.Builder
	fmt.Fprintf(&b, "Attempt #%d\n", a.Number)
	b.WriteString(formatResult(a.Path, a.Result, a.Code, a.Step))
	if result.BestMP != nil {
		fmt.Fprintf(&b, "Best so far: %d MP\n", *result.BestMP)
	}
	if result.Hint != "" {
		fmt.Fprintf(&b, "\nHINT: %s\n", result.Hint)
	}
	return b.String()
}

func progressLabel(s *service.SessionInfo) string {
	switch {
	case s.Optimal:
		return fmt.Sprintf("optimal %d MP", *s.BestMP)
	case s.Solved:
		return fmt.Sprintf("solved %d MP", *s.BestMP)
	default:
		return "unsolved"
	}
}

func formatSessionInfo(session *service.SessionInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Session: %s\nScenario: %s\nCreated: %s\nAttempts: %d\nStatus: %s\nHints revealed: %d\n",
		session.ID, session.ScenarioID, session.CreatedAt.Format(time.RFC3339),
		session.AttemptCount, progressLabel(session), session.HintsRevealed)
	if session.Scenario != nil {
		b.WriteString("\n")
		b.WriteString(formatScenario(session.Scenario))
	}
	return b.String()
}

func formatHistory(history *service.HistoryResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Attempt History (Page %d/%d) - Total: %d\n\n",
		history.Page, history.TotalPages, history.TotalAttempts)

	for _, a := range history.Attempts {
		status := "✗ " + a.Result.Message
		if a.Result.IsValid {
			status = fmt.Sprintf("✓ %d MP", a.Result.TotalMP)
			if a.Result.IsOptimal {
				status += " (optimal)"
			}
		}
		fmt.Fprintf(&b, "%d. %s %s\n", a.Number, a.Path, status)
	}

	return b.String()
}
