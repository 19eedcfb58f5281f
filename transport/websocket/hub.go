package websocket

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"fourwins/game/lobby"
	"fourwins/game/notify"
)

// Transport-level error methods. Coordinator notifications have their own
// method names; these two only report protocol misuse back to the sender.
const (
	MethodWrongParams = "WrongParams"
	MethodWarning     = "Warning"
	MethodLoginError  = lobby.MethodLoginError
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins in development
		// TODO: Configure this for production
		return true
	},
}

// Envelope is the JSON frame both directions share.
type Envelope struct {
	Method  string          `json:"method"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Lobby is the slice of the lobby coordinator the transport drives.
type Lobby interface {
	Connect(name string) error
	Disconnect(name string)
	IssueChallenge(issuer, receiver string) error
	RespondToChallenge(key lobby.ChallengeKey, accepted bool) error
}

// Games is the slice of the game coordinator the transport drives.
type Games interface {
	VerifyPlayer(gameID, accessToken, name string) error
	MakeMove(gameID, accessToken, name string, column int) error
	AddSpectator(gameID, name string) error
	ReconnectPlayer(gameID, name string) error
	CloseGame(gameID, accessToken, name string) error
	LeaveGame(gameID, name string)
}

// Hub maintains the set of active clients keyed by username and the
// per-game broadcast groups.
type Hub struct {
	mu sync.Mutex

	// Registered clients by username
	clients map[string]*Client

	// Broadcast group membership, gameID -> usernames
	groups map[string]map[string]bool

	lobby Lobby
	games Games
}

// NewHub creates a hub with no coordinators attached. Bind must run before
// the first connection is served.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		groups:  make(map[string]map[string]bool),
	}
}

// Bind attaches the coordinators. The hub is created first because the
// coordinators need it as their messenger.
func (h *Hub) Bind(lobby Lobby, games Games) {
	h.lobby = lobby
	h.games = games
}

// ServeWS upgrades an HTTP request and runs the login handshake for the
// given username.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, username string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	client := &Client{
		hub:  h,
		conn: conn,
		send: make(chan []byte, 256),
		name: username,
	}

	if err := h.registerClient(client); err != nil {
		h.rejectLogin(conn, err)
		return
	}

	go client.writePump()
	go client.readPump()
}

// Send delivers one notification to a single named client. Unknown names
// are dropped silently; the receiver may have disconnected a moment ago.
func (h *Hub) Send(name, method string, payload any) {
	data, ok := encode(method, payload)
	if !ok {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if client, ok := h.clients[name]; ok {
		h.deliverLocked(client, data)
	}
}

// Broadcast delivers one notification to every member of a game's
// broadcast group.
func (h *Hub) Broadcast(gameID, method string, payload any) {
	data, ok := encode(method, payload)
	if !ok {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for name := range h.groups[gameID] {
		if client, ok := h.clients[name]; ok {
			h.deliverLocked(client, data)
		}
	}
}

// JoinGame adds a username to a game's broadcast group.
func (h *Hub) JoinGame(name, gameID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.groups[gameID] == nil {
		h.groups[gameID] = make(map[string]bool)
	}
	h.groups[gameID][name] = true
}

// LeaveGame removes a username from a game's broadcast group.
func (h *Hub) LeaveGame(name, gameID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropFromGroupLocked(name, gameID)
}

// Connected reports whether a username has a live connection. Satisfies
// the game coordinator's presence check.
func (h *Hub) Connected(name string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.clients[name]
	return ok
}

// Flush fans a drained notification batch out to its receivers. Wired as
// the notification queue's flush function.
func (h *Hub) Flush(batch []notify.Item) {
	for _, item := range batch {
		for _, name := range item.Receivers {
			h.Send(name, item.Method, item.Payload)
		}
	}
}

// registerClient claims the username and announces it to the lobby. Both
// the hub and the lobby must accept the name for the login to stick.
func (h *Hub) registerClient(client *Client) error {
	h.mu.Lock()
	if _, taken := h.clients[client.name]; taken {
		h.mu.Unlock()
		return lobby.ErrNameTaken
	}
	h.clients[client.name] = client
	h.mu.Unlock()

	if err := h.lobby.Connect(client.name); err != nil {
		h.mu.Lock()
		delete(h.clients, client.name)
		h.mu.Unlock()
		return err
	}

	log.Printf("websocket: %s connected", client.name)
	return nil
}

// unregisterClient drops a client from the routing table and every
// broadcast group and deregisters it from the lobby.
func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	current, ok := h.clients[client.name]
	if !ok || current != client {
		// A reconnect already replaced this client.
		h.mu.Unlock()
		return
	}
	delete(h.clients, client.name)
	for gameID := range h.groups {
		h.dropFromGroupLocked(client.name, gameID)
	}
	close(client.send)
	h.mu.Unlock()

	h.lobby.Disconnect(client.name)
	log.Printf("websocket: %s disconnected", client.name)
}

// deliverLocked queues data for one client, dropping the client when its
// buffer is full. The drop mirrors unregisterClient: routing table and
// every broadcast group, so a later login under the same name starts
// with no group memberships.
func (h *Hub) deliverLocked(client *Client, data []byte) {
	select {
	case client.send <- data:
	default:
		delete(h.clients, client.name)
		for gameID := range h.groups {
			h.dropFromGroupLocked(client.name, gameID)
		}
		close(client.send)
		go h.lobby.Disconnect(client.name)
		log.Printf("websocket: %s too slow, dropped", client.name)
	}
}

func (h *Hub) dropFromGroupLocked(name, gameID string) {
	if members, ok := h.groups[gameID]; ok {
		delete(members, name)
		if len(members) == 0 {
			delete(h.groups, gameID)
		}
	}
}

// rejectLogin answers a failed login handshake on the raw connection and
// closes it.
func (h *Hub) rejectLogin(conn *websocket.Conn, cause error) {
	if data, ok := encode(MethodLoginError, lobby.ErrorPayload{Message: cause.Error()}); ok {
		conn.WriteMessage(websocket.TextMessage, data)
	}
	conn.Close()
	log.Printf("websocket: login rejected: %v", cause)
}

func encode(method string, payload any) ([]byte, bool) {
	raw, err := json.Marshal(payload)
	if err != nil {
		log.Printf("websocket: failed to marshal %s payload: %v", method, err)
		return nil, false
	}
	data, err := json.Marshal(Envelope{Method: method, Payload: raw})
	if err != nil {
		log.Printf("websocket: failed to marshal %s envelope: %v", method, err)
		return nil, false
	}
	return data, true
}
