// Package mcp exposes the game to AI agents over the Model Context Protocol.
//
// The Client is a thin proxy: every tool call becomes a request to the REST
// API and the JSON answer is rendered as text for the agent.
//
// MCP Tools:
//   - create_session, list_sessions, get_session
//   - game_state, move, bulk_move, restart, move_history, hint, describe_cell
//   - list_levels, leaderboard, game_instructions
//
// Transport Modes:
//   - Stdio: server.ServeStdio(client.GetMCPServer())
//   - HTTP: POST /mcp handled with GetMCPServer().HandleMessage
//
// Failed API calls are returned as tool errors, not Go errors, so the agent
// sees the message.
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	server.ServeStdio(client.GetMCPServer())
package mcp
