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
	"github.com/wricardo/sokoban/game/engine"
	"github.com/wricardo/sokoban/game/service"
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
		baseURL: strings.TrimRight(baseURL, "/"),
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
		"Forklift Sokoban",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Forklift Sokoban - MCP Interface

This is a thin client that proxies all requests to the REST API server.

GAME OBJECTIVE:
Drive the forklift (E) and push every box (C) onto a target (X). Each move
costs one unit of energy. You win when all targets hold a box and energy has
not gone below zero.

AVAILABLE TOOLS:
- create_session: Start a game on a level
- list_sessions / get_session: Inspect sessions
- game_state: Current board, energy and status
- move: One move (direction, or the row/column of an adjacent cell)
- bulk_move: Up to 50 moves at once
- restart: Start the level over
- move_history: Past moves, including rejected ones
- hint: Next move suggested by the solver
- describe_cell: What occupies a cell
- list_levels / leaderboard: Level catalogue and best finished games
- game_instructions: Full rules

NOTE: The 'intent' parameter on move/bulk_move is for you: explain your reasoning before acting.`),
	)

	c.registerTools()
}

func sessionProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Session ID",
	}
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new game session on a level (the default level when omitted)",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"level": map[string]interface{}{
					"type":        "string",
					"description": "Level ID from list_levels (optional)",
				},
			},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all active game sessions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListSessions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_session",
		Description: "Get details of a specific session",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionProperty()},
			Required:   []string{"session_id"},
		},
	}, c.handleGetSession)

	// Game operations
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_state",
		Description: "Get the current game state",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionProperty()},
			Required:   []string{"session_id"},
		},
	}, c.handleGameState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "move",
		Description: "Move the forklift one cell, by direction or by the row/column of an adjacent cell. Moving into a box pushes it.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"direction": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"up", "down", "left", "right"},
					"description": "Direction to move",
				},
				"row": map[string]interface{}{
					"type":        "integer",
					"description": "Destination row (use with column instead of direction)",
				},
				"column": map[string]interface{}{
					"type":        "integer",
					"description": "Destination column (use with row instead of direction)",
				},
				"intent": map[string]interface{}{
					"type":        "string",
					"description": "Brief explanation of the intent behind this move",
				},
				"reset": map[string]interface{}{
					"type":        "boolean",
					"description": "Restart the level before moving",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleMove)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "bulk_move",
		Description: fmt.Sprintf("Execute up to %d moves in sequence, stopping at the first rejected move or the end of the game", engine.MaxBulkMoves),
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"moves": map[string]interface{}{
					"type": "array",
					"items": map[string]interface{}{
						"type": "string",
						"enum": []string{"up", "down", "left", "right"},
					},
					"description": "Array of moves",
				},
				"intent": map[string]interface{}{
					"type":        "string",
					"description": "Brief explanation of the intent behind this sequence of moves",
				},
				"reset": map[string]interface{}{
					"type":        "boolean",
					"description": "Restart the level before moving",
				},
			},
			Required: []string{"session_id", "moves"},
		},
	}, c.handleBulkMove)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "restart",
		Description: "Restart the level with full energy",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionProperty()},
			Required:   []string{"session_id"},
		},
	}, c.handleRestart)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "move_history",
		Description: "Get the move history of a session with pagination",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"page": map[string]interface{}{
					"type":        "integer",
					"description": "Page number (default 1)",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Moves per page (default 20, max 100)",
				},
				"order": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"asc", "desc"},
					"description": "Oldest or newest first (default desc)",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleMoveHistory)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "hint",
		Description: "Ask the solver for the next move toward a win within the remaining energy",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionProperty()},
			Required:   []string{"session_id"},
		},
	}, c.handleHint)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "describe_cell",
		Description: "Describe what occupies a cell (wall, box, target, actor or empty)",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"row": map[string]interface{}{
					"type":        "integer",
					"description": "Row, 0 is the top",
				},
				"column": map[string]interface{}{
					"type":        "integer",
					"description": "Column, 0 is the left",
				},
			},
			Required: []string{"session_id", "row", "column"},
		},
	}, c.handleDescribeCell)

	// Levels
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_levels",
		Description: "List available levels",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListLevels)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "leaderboard",
		Description: "Best finished games for a level",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"level": map[string]interface{}{
					"type":        "string",
					"description": "Level ID",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Number of records (default 10)",
				},
			},
			Required: []string{"level"},
		},
	}, c.handleLeaderboard)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_instructions",
		Description: "Get the complete game rules and tips",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleGameInstructions)
}

// GetMCPServer returns the underlying MCP server
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// apiCall makes an HTTP request to the REST API
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
		json.NewDecoder(resp.Body).Decode(&errResp)
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

// arguments returns the tool arguments, empty when the caller sent none
func arguments(request mcp.CallToolRequest) map[string]interface{} {
	if args, ok := request.Params.Arguments.(map[string]interface{}); ok {
		return args
	}
	return map[string]interface{}{}
}

// intArg reads a JSON number argument
func intArg(args map[string]interface{}, key string) (int, bool) {
	switch v := args[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	}
	return 0, false
}

func sessionPath(sessionID, suffix string) string {
	return "/api/sessions/" + url.PathEscape(sessionID) + suffix
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	level, _ := args["level"].(string)

	body := map[string]string{}
	if level != "" {
		body["level"] = level
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "POST", "/api/sessions", body, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Created session: %s\nLevel: %s\n\n%s",
		session.ID, session.LevelName, formatGameState(session.GameState))), nil
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
	fmt.Fprintf(&b, "Active Sessions (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		status := ""
		if s.GameState != nil {
			status = fmt.Sprintf(", %s, energy %d", s.GameState.Status, s.GameState.Energy)
		}
		fmt.Fprintf(&b, "- %s (Level: %s, Created: %s%s)\n",
			s.ID, s.LevelName, s.CreatedAt.Format("15:04:05"), status)
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var session service.SessionInfo
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, ""), nil, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var state engine.GameState
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "/state"), nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatGameState(&state)), nil
}

func (c *Client) handleMove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)
	direction, _ := args["direction"].(string)
	reset, _ := args["reset"].(bool)

	body := map[string]interface{}{"reset": reset}
	if direction != "" {
		body["direction"] = direction
	}
	if row, ok := intArg(args, "row"); ok {
		body["row"] = row
	}
	if column, ok := intArg(args, "column"); ok {
		body["column"] = column
	}

	var result service.MoveResult
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/move"), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatMoveResult(&result)), nil
}

func (c *Client) handleBulkMove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)
	movesRaw, _ := args["moves"].([]interface{})
	reset, _ := args["reset"].(bool)

	moves := make([]string, 0, len(movesRaw))
	for _, m := range movesRaw {
		if move, ok := m.(string); ok {
			moves = append(moves, move)
		}
	}

	body := map[string]interface{}{
		"moves": moves,
		"reset": reset,
	}

	var result service.BulkMoveResult
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/bulk-move"), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatBulkMoveResult(sessionID, &result)), nil
}

func (c *Client) handleRestart(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var response struct {
		Message string            `json:"message"`
		State   *engine.GameState `json:"state"`
	}

	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/restart"), nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("%s\n\n%s", response.Message, formatGameState(response.State))), nil
}

func (c *Client) handleMoveHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)

	params := url.Values{}
	if page, ok := intArg(args, "page"); ok {
		params.Set("page", fmt.Sprint(page))
	}
	if limit, ok := intArg(args, "limit"); ok {
		params.Set("limit", fmt.Sprint(limit))
	}
	if order, ok := args["order"].(string); ok && order != "" {
		params.Set("order", order)
	}

	path := sessionPath(sessionID, "/history")
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var history service.HistoryResponse
	if err := c.apiCall(ctx, "GET", path, nil, &history); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatHistory(&history)), nil
}

func (c *Client) handleHint(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var hint service.HintResult
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "/hint"), nil, &hint); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatHint(&hint)), nil
}

func (c *Client) handleDescribeCell(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)
	row, rowOK := intArg(args, "row")
	column, colOK := intArg(args, "column")
	if !rowOK || !colOK {
		return mcp.NewToolResultError("row and column are required"), nil
	}

	var state engine.GameState
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "/state"), nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(describeCell(&state, engine.Coordinate{Row: row, Column: column})), nil
}

func (c *Client) handleListLevels(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var levels []service.LevelInfo
	if err := c.apiCall(ctx, "GET", "/api/levels", nil, &levels); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	b.WriteString("Available Levels:\n\n")
	for _, level := range levels {
		fmt.Fprintf(&b, "• %s", level.LevelID)
		if level.Name != "" && level.Name != level.LevelID {
			fmt.Fprintf(&b, " (%s)", level.Name)
		}
		b.WriteString("\n")
		if level.Description != "" {
			fmt.Fprintf(&b, "  %s\n", level.Description)
		}
		fmt.Fprintf(&b, "  Grid: %dx%d, Energy: %d, Boxes: %d\n\n",
			level.Rows, level.Columns, level.MaxEnergy, level.Boxes)
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleLeaderboard(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	level, _ := args["level"].(string)

	path := "/api/levels/" + url.PathEscape(level) + "/scores"
	if limit, ok := intArg(args, "limit"); ok {
		path += fmt.Sprintf("?limit=%d", limit)
	}

	var response struct {
		Level  string                `json:"level"`
		Scores []*service.GameRecord `json:"scores"`
	}
	if err := c.apiCall(ctx, "GET", path, nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatLeaderboard(level, response.Scores)), nil
}

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	instructions := fmt.Sprintf(`Forklift Sokoban - Complete Instructions

GAME OBJECTIVE:
Push every box onto a target before the forklift runs out of energy.

GRID LEGEND:
  E  forklift (you)
  +  forklift standing on a target
  C  box
  *  box on a target
  X  empty target
  #  wall
     (space) empty floor
Rows count from 0 at the top, columns from 0 at the left. Everything outside
the grid behaves like a wall.

GAME MECHANICS:
• Movement: each accepted move costs 1 energy, pushes included
• Pushing: moving into a box pushes it one cell. A box can push the box behind
  it, and the whole chain moves only if the cell after the last box is free
• Blocked moves: walls, chains ending in a wall and non adjacent destinations
  are rejected. They are kept in the history but cost no energy
• Victory: every target holds a box and energy is 0 or more
• Defeat: energy drops below 0
• After a win or a loss, moves are rejected until you restart

STRATEGY:
• Count the pushes you need before moving: the hint tool and energy risk help
• A box pushed into a corner without a target can never move again
• Use bulk_move for planned sequences (max %d moves per call)

MOVEMENT COMMANDS:
• move with direction: up, down, left, right
• move with row and column of an adjacent cell
• bulk_move with an array of directions
• restart to start over with full energy

Good luck!`, engine.MaxBulkMoves)

	return mcp.NewToolResultText(instructions), nil
}

// Formatting helpers

func formatSessionInfo(session *service.SessionInfo) string {
	return fmt.Sprintf("Session: %s\nLevel: %s\nCreated: %s\n\n%s",
		session.ID, session.LevelName,
		session.CreatedAt.Format("2006-01-02 15:04:05"),
		formatGameState(session.GameState))
}

func formatGameState(state *engine.GameState) string {
	if state == nil {
		return "No game state available"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Level: %s | Position: %s | Energy: %d/%d | Boxes on target: %d/%d | Moves: %d\n",
		state.LevelName, state.Actor, state.Energy, state.MaxEnergy,
		state.BoxesOnTarget, len(state.Targets), state.Moves)
	if state.EnergyRisk != "" {
		fmt.Fprintf(&b, "Energy risk: %s\n", state.EnergyRisk)
	}
	b.WriteString("\n")

	// Column ruler, units digit only
	b.WriteString("    ")
	for c := 0; c < state.Columns; c++ {
		fmt.Fprintf(&b, "%d", c%10)
	}
	b.WriteString("\n")
	for r, line := range state.Layout {
		fmt.Fprintf(&b, "%3d %s\n", r, line)
	}

	switch state.Status {
	case engine.Won:
		b.WriteString("\nVICTORY!")
	case engine.Lost:
		b.WriteString("\nGAME OVER: out of energy")
	}

	if state.Message != "" {
		fmt.Fprintf(&b, "\nMessage: %s", state.Message)
	}

	return b.String()
}

func formatMoveResult(result *service.MoveResult) string {
	var b strings.Builder
	if result.Success {
		b.WriteString("✓ Move successful\n")
	} else {
		b.WriteString("✗ Move rejected\n")
	}

	if s := result.Step; s != nil {
		pushed := ""
		if s.Pushed {
			pushed = " pushed box"
		}
		fmt.Fprintf(&b, "Step: %s %s→%s energy %d→%d%s\n",
			s.Dir, s.From, s.To, s.EnergyBefore, s.EnergyAfter, pushed)
	}

	if a := result.AttemptedTo; a != nil {
		fmt.Fprintf(&b, "Attempted (%d,%d) cell=%s: %s\n", a.Row, a.Column, a.Cell, a.Reason)
	} else if result.Reason != "" {
		fmt.Fprintf(&b, "Reason: %s\n", result.Reason)
	}

	if len(result.Events) > 0 {
		b.WriteString("Events:\n")
		for _, event := range result.Events {
			fmt.Fprintf(&b, "- %s: %s\n", event.Type, event.Message)
		}
	}

	b.WriteString("\n")
	b.WriteString(formatGameState(result.GameState))
	return b.String()
}

func formatBulkMoveResult(sessionID string, result *service.BulkMoveResult) string {
	var b strings.Builder

	levelName := ""
	if result.GameState != nil {
		levelName = result.GameState.LevelName
	}
	fmt.Fprintf(&b, "Session: %s • Level: %s\n", sessionID, levelName)
	fmt.Fprintf(&b, "Executed %d/%d moves (energy %d→%d, %s→%s)\n",
		result.MovesExecuted, result.RequestedMoves,
		result.StartEnergy, result.EndEnergy, result.StartPos, result.EndPos)
	if result.Truncated {
		fmt.Fprintf(&b, "Truncated to the first %d moves\n", result.Limit)
	}
	if result.StoppedReason != "" {
		fmt.Fprintf(&b, "Stopped [%s] on move %d: %s\n", result.StopReasonCode, result.StoppedOnMove, result.StoppedReason)
	}
	if a := result.AttemptedTo; a != nil {
		fmt.Fprintf(&b, "Attempted (%d,%d) cell=%s\n", a.Row, a.Column, a.Cell)
	}

	if len(result.Steps) > 0 {
		b.WriteString("\nSteps:\n")
		for _, s := range result.Steps {
			pushed := ""
			if s.Pushed {
				pushed = " push"
			}
			fmt.Fprintf(&b, "%2d. %-5s %s→%s energy=%d%s\n", s.Idx, s.Dir, s.From, s.To, s.EnergyAfter, pushed)
		}
	}

	if len(result.PossibleMoves) > 0 {
		moves := make([]string, len(result.PossibleMoves))
		for i, d := range result.PossibleMoves {
			moves[i] = string(d)
		}
		fmt.Fprintf(&b, "\nPossible moves: %s\n", strings.Join(moves, ","))
	}

	b.WriteString("\n")
	b.WriteString(formatGameState(result.GameState))
	return b.String()
}

func formatHistory(history *service.HistoryResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Move History (page %d/%d, %d total):\n\n", history.Page, history.TotalPages, history.TotalMoves)
	for _, m := range history.Moves {
		if m.Outcome == engine.Rejected {
			fmt.Fprintf(&b, "#%d → %s rejected: %s\n", m.MoveNumber, m.Target, m.Reason)
			continue
		}
		fmt.Fprintf(&b, "#%d %s %s→%s energy=%d %s\n", m.MoveNumber, m.Direction, m.From, m.To, m.Energy, m.Outcome)
	}
	if history.HasNext {
		b.WriteString("\nMore moves on the next page")
	}
	return b.String()
}

func formatHint(hint *service.HintResult) string {
	if !hint.Solvable {
		return fmt.Sprintf("No winning line found: %s", hint.Message)
	}
	var b strings.Builder
	if hint.Direction != "" {
		fmt.Fprintf(&b, "Next move: %s", hint.Direction)
		if hint.Destination != nil {
			fmt.Fprintf(&b, " to %s", hint.Destination)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "Moves needed: %d (energy %d)\n", hint.MovesNeeded, hint.Energy)
	if hint.Message != "" {
		b.WriteString(hint.Message)
	}
	return b.String()
}

func formatLeaderboard(level string, records []*service.GameRecord) string {
	if len(records) == 0 {
		return fmt.Sprintf("No finished games for %s yet", level)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Leaderboard for %s:\n\n", level)
	for i, r := range records {
		fmt.Fprintf(&b, "%d. %s in %d moves, %d energy left (session %s, %s)\n",
			i+1, r.Outcome, r.Moves, r.EnergyLeft, r.SessionID, r.FinishedAt.Format("2006-01-02 15:04"))
	}
	return b.String()
}

// describeCell reads a cell from the rendered layout
func describeCell(state *engine.GameState, c engine.Coordinate) string {
	if c.Row < 0 || c.Row >= len(state.Layout) || c.Column < 0 || c.Column >= len([]rune(state.Layout[c.Row])) {
		return fmt.Sprintf("Cell %s is outside the %dx%d grid and behaves like a wall", c, state.Rows, state.Columns)
	}

	ch := []rune(state.Layout[c.Row])[c.Column]
	var what string
	switch ch {
	case '#':
		what = "wall: impassable"
	case 'C':
		what = "box: can be pushed if the cell beyond the chain is free"
	case '*':
		what = "box on a target: can still be pushed off"
	case 'X':
		what = "empty target: passable, needs a box"
	case 'E':
		what = "the forklift"
	case '+':
		what = "the forklift standing on a target"
	default:
		what = "empty floor: passable"
	}

	distance := engine.ManhattanDistance(state.Actor, c)
	return fmt.Sprintf("Cell %s = '%c' %s\nDistance from forklift %s: %d", c, ch, what, state.Actor, distance)
}
