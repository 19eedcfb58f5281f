package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"fourwins/game/engine"
	"fourwins/game/match"
)

func TestNewClient(t *testing.T) {
	baseURL := "http://localhost:8080"
	client := NewClient(baseURL)

	if client == nil {
		t.Fatal("Expected client to be created")
	}
	if client.baseURL != baseURL {
		t.Errorf("Expected baseURL %s, got %s", baseURL, client.baseURL)
	}
	if client.httpClient == nil {
		t.Error("Expected HTTP client to be initialized")
	}
	if client.mcpServer == nil {
		t.Error("Expected MCP server to be initialized")
	}
}

func TestClient_apiCall(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"players": []string{"alice"},
			"count":   1,
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)

	var response map[string]interface{}
	if err := client.apiCall("GET", "/api/players", nil, &response); err != nil {
		t.Fatalf("apiCall failed: %v", err)
	}
	if response["count"] != float64(1) {
		t.Errorf("Expected count 1, got %v", response["count"])
	}
}

func TestClient_apiCall_Error(t *testing.T) {
	client := NewClient("http://invalid-url-that-does-not-exist:9999")

	if err := client.apiCall("GET", "/api/players", nil, nil); err == nil {
		t.Error("Expected error for unreachable server")
	}
}

func TestClient_apiCall_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "game not found"})
	}))
	defer server.Close()

	client := NewClient(server.URL)

	err := client.apiCall("GET", "/api/games/missing", nil, nil)
	if err == nil {
		t.Fatal("Expected error for 404 response")
	}
	if err.Error() != "game not found" {
		t.Errorf("Expected API error message, got %q", err.Error())
	}
}

func toolRequest(args map[string]interface{}) mcp.CallToolRequest {
	var request mcp.CallToolRequest
	request.Params.Arguments = args
	return request
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("tool result has no content")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("tool result content is %T, not text", result.Content[0])
	}
	return text.Text
}

func TestHandleListPlayers(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/players" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"players": []string{"alice", "bob"},
			"count":   2,
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)

	result, err := client.handleListPlayers(context.Background(), toolRequest(map[string]interface{}{}))
	if err != nil {
		t.Fatalf("handleListPlayers failed: %v", err)
	}

	text := resultText(t, result)
	if !strings.Contains(text, "alice") || !strings.Contains(text, "bob") {
		t.Errorf("player listing missing names: %q", text)
	}
}

func TestHandleListGamesEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"games": []match.GameInfo{},
			"count": 0,
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)

	result, err := client.handleListGames(context.Background(), toolRequest(map[string]interface{}{}))
	if err != nil {
		t.Fatalf("handleListGames failed: %v", err)
	}
	if text := resultText(t, result); !strings.Contains(text, "No games") {
		t.Errorf("empty listing = %q", text)
	}
}

func TestHandleGameState(t *testing.T) {
	grid := make([][]int, engine.Rows)
	for row := range grid {
		grid[row] = make([]int, engine.Columns)
	}
	grid[engine.Rows-1][0] = int(engine.MarkRed)
	grid[engine.Rows-1][1] = int(engine.MarkYellow)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/games/g1" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(match.StatePayload{
			GameID:        "g1",
			Players:       []string{"alice", "bob"},
			CurrentPlayer: "alice",
			Moves: []engine.Move{
				{PlayerName: "alice", Column: 0},
				{PlayerName: "bob", Column: 1},
			},
			Grid: grid,
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)

	result, err := client.handleGameState(context.Background(), toolRequest(map[string]interface{}{
		"game_id": "g1",
	}))
	if err != nil {
		t.Fatalf("handleGameState failed: %v", err)
	}

	text := resultText(t, result)
	if !strings.Contains(text, "alice (R) vs bob (Y)") {
		t.Errorf("state missing player line: %q", text)
	}
	if !strings.Contains(text, "RY.....") {
		t.Errorf("state missing rendered bottom row: %q", text)
	}
	if !strings.Contains(text, "Current turn: alice") {
		t.Errorf("state missing current turn: %q", text)
	}
}

func TestHandleGameStateRequiresID(t *testing.T) {
	client := NewClient("http://localhost:1")

	result, err := client.handleGameState(context.Background(), toolRequest(map[string]interface{}{}))
	if err != nil {
		t.Fatalf("handleGameState failed: %v", err)
	}
	if !result.IsError {
		t.Error("missing game_id should produce a tool error")
	}
}
