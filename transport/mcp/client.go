package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"fourwins/game/engine"
	"fourwins/game/match"
)

// Client is a thin MCP client that proxies to the REST inspection API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: baseURL,
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
		"Four Wins Server",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Four Wins Server - MCP Interface

This is a thin client that proxies all requests to the REST inspection
API of a running server.

AVAILABLE TOOLS:
- list_players: Usernames currently connected to the lobby
- list_games: Games that can be spectated
- game_state: Board, move log, and current player of one game

Gameplay happens over the server's WebSocket protocol; these tools only
observe. Use list_games to discover game IDs for game_state.`),
	)

	c.registerTools()
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_players",
		Description: "List all usernames currently connected to the lobby",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListPlayers)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_games",
		Description: "List all games that can currently be spectated",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListGames)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_state",
		Description: "Get the replayed board, move log, and current player of one game",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"game_id": map[string]interface{}{
					"type":        "string",
					"description": "ID of the game to inspect",
				},
			},
			Required: []string{"game_id"},
		},
	}, c.handleGameState)
}

// GetMCPServer returns the underlying MCP server for transport wiring
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(method, path string, body interface{}, result interface{}) error {
	url := c.baseURL + path

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequest(method, url, reqBody)
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

// Tool handlers

func (c *Client) handleListPlayers(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Players []string `json:"players"`
		Count   int      `json:"count"`
	}

	if err := c.apiCall("GET", "/api/players", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if response.Count == 0 {
		return mcp.NewToolResultText("No players connected."), nil
	}

	result := fmt.Sprintf("Connected players (%d):\n", response.Count)
	for _, name := range response.Players {
		result += fmt.Sprintf("• %s\n", name)
	}
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListGames(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Games []match.GameInfo `json:"games"`
		Count int              `json:"count"`
	}

	if err := c.apiCall("GET", "/api/games", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if response.Count == 0 {
		return mcp.NewToolResultText("No games in progress."), nil
	}

	result := fmt.Sprintf("Watchable games (%d):\n", response.Count)
	for _, game := range response.Games {
		result += fmt.Sprintf("• %s: %s\n", game.GameID, strings.Join(game.Players, " vs "))
	}
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	gameID, _ := args["game_id"].(string)
	if gameID == "" {
		return mcp.NewToolResultError("game_id is required"), nil
	}

	var state match.StatePayload
	if err := c.apiCall("GET", "/api/games/"+gameID, nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatGameState(&state)), nil
}

// formatGameState renders a state snapshot as text for the agent.
func formatGameState(state *match.StatePayload) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Game %s\n", state.GameID)
	if len(state.Players) == 2 {
		fmt.Fprintf(&b, "Players: %s (R) vs %s (Y)\n", state.Players[0], state.Players[1])
	}
	if state.CurrentPlayer != "" {
		fmt.Fprintf(&b, "Current turn: %s\n", state.CurrentPlayer)
	}
	fmt.Fprintf(&b, "Moves played: %d\n\n", len(state.Moves))

	b.WriteString("Board (column 0 on the left, row 0 on top):\n")
	for _, row := range state.Grid {
		for _, cell := range row {
			b.WriteByte(cellChar(cell))
		}
		b.WriteByte('\n')
	}

	if len(state.Moves) > 0 {
		b.WriteString("\nMove log:\n")
		for i, move := range state.Moves {
			fmt.Fprintf(&b, "%2d. %s -> column %d\n", i+1, move.PlayerName, move.Column)
		}
	}

	return b.String()
}

func cellChar(cell int) byte {
	switch engine.Mark(cell) {
	case engine.MarkRed:
		return 'R'
	case engine.MarkYellow:
		return 'Y'
	default:
		return '.'
	}
}
