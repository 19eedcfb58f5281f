package match

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"fourwins/game/engine"
)

// Phase is the lifecycle state of a match. Transitions only move forward.
type Phase int

const (
	AwaitingPlayers Phase = iota
	InProgress
	Finished
)

// Match is one authoritative game instance. It lives exclusively inside the
// coordinator's games registry; nobody keeps a private copy. Mutable fields
// are guarded by mu and only touched by coordinator handlers.
type Match struct {
	ID          string
	AccessToken string
	TurnTime    time.Duration

	mu      sync.Mutex
	phase   Phase
	players [2]string
	current string
	board   *engine.Board
	moves   []engine.Move
}

// newMatch mints a match with a fresh ID and shared player access token.
func newMatch(turnTime time.Duration) *Match {
	return &Match{
		ID:          uuid.NewString(),
		AccessToken: uuid.NewString(),
		TurnTime:    turnTime,
		board:       engine.NewBoard(),
	}
}

// Players returns the player slots as currently claimed. Empty strings mark
// open slots.
func (m *Match) Players() [2]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.players
}

// CurrentPlayer returns the name whose turn it is, or "" before the match
// starts.
func (m *Match) CurrentPlayer() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Phase returns the lifecycle state.
func (m *Match) Phase() Phase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phase
}

// isPlayer reports whether name occupies a player slot. Caller holds mu.
func (m *Match) isPlayer(name string) bool {
	return name != "" && (m.players[0] == name || m.players[1] == name)
}

// claimSlot fills the first open player slot with name and reports whether
// a slot was claimed. Caller holds mu.
func (m *Match) claimSlot(name string) bool {
	for i := range m.players {
		if m.players[i] == "" {
			m.players[i] = name
			return true
		}
	}
	return false
}

// nextPlayer returns the player after current in round-robin index order,
// wrapping from last to first. Disconnected players are not skipped.
// Caller holds mu.
func (m *Match) nextPlayer() string {
	if m.current == m.players[0] {
		return m.players[1]
	}
	return m.players[0]
}

// markOf maps a player slot to its board mark. Caller holds mu.
func (m *Match) markOf(name string) engine.Mark {
	if m.players[0] == name {
		return engine.MarkRed
	}
	return engine.MarkYellow
}

// State returns a replayed snapshot of the match, the same view a
// spectator gets on joining.
func (m *Match) State() StatePayload {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// snapshotLocked replays the move log into a fresh board view for
// spectators and reconnecting players. Caller holds mu.
func (m *Match) snapshotLocked() StatePayload {
	replayed := engine.Replay(m.moves, m.players)

	grid := make([][]int, engine.Rows)
	for row := 0; row < engine.Rows; row++ {
		grid[row] = make([]int, engine.Columns)
		for column := 0; column < engine.Columns; column++ {
			grid[row][column] = int(replayed.Cell(row, column))
		}
	}

	moves := make([]engine.Move, len(m.moves))
	copy(moves, m.moves)

	return StatePayload{
		GameID:        m.ID,
		Players:       []string{m.players[0], m.players[1]},
		CurrentPlayer: m.current,
		Moves:         moves,
		Grid:          grid,
	}
}
