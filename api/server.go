package api

import (
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"github.com/gorilla/mux"

	"fourwins/game/match"
	"fourwins/transport/websocket"
)

// Directory is the read-only view of the lobby the API serves.
type Directory interface {
	Players() []string
}

// Games is the read-only view of the game coordinator the API serves.
type Games interface {
	WatchableGames() []match.GameInfo
	Game(gameID string) (*match.Match, bool)
}

// Server represents the HTTP server: WebSocket entry point plus the
// read-only inspection API.
type Server struct {
	directory Directory
	games     Games
	hub       *websocket.Hub
	router    *mux.Router
	version   string
	started   time.Time
}

// NewServer creates the HTTP server around the hub and coordinators.
func NewServer(directory Directory, games Games, hub *websocket.Hub, version string) *Server {
	s := &Server{
		directory: directory,
		games:     games,
		hub:       hub,
		router:    mux.NewRouter(),
		version:   version,
		started:   time.Now(),
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/players", s.handleListPlayers).Methods("GET")
	api.HandleFunc("/games", s.handleListGames).Methods("GET")
	api.HandleFunc("/games/{id}", s.handleGetGame).Methods("GET")

	s.router.HandleFunc("/ws/{username}", s.handleWebSocket)
	s.router.HandleFunc("/healthz", s.handleHealth).Methods("GET")
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	username := mux.Vars(r)["username"]
	s.hub.ServeWS(w, r, username)
}

func (s *Server) handleListPlayers(w http.ResponseWriter, r *http.Request) {
	players := s.directory.Players()
	sort.Strings(players)

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"players": players,
		"count":   len(players),
	})
}

func (s *Server) handleListGames(w http.ResponseWriter, r *http.Request) {
	games := s.games.WatchableGames()
	sort.Slice(games, func(i, j int) bool { return games[i].GameID < games[j].GameID })

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"games": games,
		"count": len(games),
	})
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	gameID := mux.Vars(r)["id"]

	m, ok := s.games.Game(gameID)
	if !ok {
		respondError(w, http.StatusNotFound, "game not found")
		return
	}

	respondJSON(w, http.StatusOK, m.State())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"version": s.version,
		"uptime":  time.Since(s.started).String(),
	})
}
