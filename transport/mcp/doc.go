// Package mcp provides a Model Context Protocol server for inspecting a
// running Four Wins server.
//
// The mcp package implements:
//   - MCP server for AI agent integration
//   - Tool definitions over the read-only inspection API
//   - Text rendering of live game boards
//
// MCP Tools:
//
// The package exposes the following tools for AI agents:
//   - list_players: Usernames currently connected to the lobby
//   - list_games: Games that can be spectated
//   - game_state: Replayed board, move log, and current player of one game
//
// Architecture:
//
// The MCP server is a thin client: every tool call proxies to the REST
// inspection API of a running server, so it can be pointed at any
// instance without sharing process state. Gameplay itself stays on the
// WebSocket protocol; the tools observe, they never move.
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	server.ServeStdio(client.GetMCPServer())
package mcp
