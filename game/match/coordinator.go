package match

import (
	"context"
	"errors"
	"log"
	"time"

	"fourwins/game/engine"
	"fourwins/game/registry"
	"fourwins/game/timer"
)

var (
	// ErrNotYourTurn rejects a move by anyone but the current player.
	ErrNotYourTurn = errors.New("not the current player")
	// ErrNotAllowed rejects an operation whose caller is not a verified
	// player of the game.
	ErrNotAllowed = errors.New("not a player of this game")
)

// Messenger is the outbound half of the transport as seen by the game
// coordinator. Send targets one named client; Broadcast targets a match's
// whole group (players and spectators). JoinGame and LeaveGame manage group
// membership.
type Messenger interface {
	Send(name, method string, payload any)
	Broadcast(gameID, method string, payload any)
	JoinGame(name, gameID string)
	LeaveGame(name, gameID string)
}

// Presence answers whether a named client is still connected.
type Presence interface {
	Connected(name string) bool
}

// GameInfo is a lobby-facing summary of a running match.
type GameInfo struct {
	GameID  string   `json:"game_id"`
	Players []string `json:"players"`
}

// turnTimer holds a turn clock's cancel handle. Stored behind a pointer so
// the registry can compare entries.
type turnTimer struct {
	cancel context.CancelFunc
}

// Coordinator owns every running match and its turn timer.
type Coordinator struct {
	ctx       context.Context
	games     *registry.Map[string, *Match]
	timers    *registry.Map[string, *turnTimer]
	clock     *timer.Service
	messenger Messenger
	presence  Presence
	onRemoved func(gameID string)
}

// NewCoordinator creates a game coordinator. ctx bounds the lifetime of all
// turn timers; cancelling it silences every match.
func NewCoordinator(ctx context.Context, messenger Messenger, presence Presence) *Coordinator {
	c := &Coordinator{
		ctx:       ctx,
		games:     registry.New[string, *Match](),
		timers:    registry.New[string, *turnTimer](),
		clock:     timer.NewService(),
		messenger: messenger,
		presence:  presence,
	}
	go c.runTurnClock()
	return c
}

// runTurnClock drains the keyed timer channel. Each emitted key is the
// gameID whose turn clock ran out; the handler re-validates it against
// the registry, so a key for a match that just closed lands harmlessly.
func (c *Coordinator) runTurnClock() {
	for {
		select {
		case <-c.ctx.Done():
			return
		case gameID := <-c.clock.Elapsed():
			c.HandleTurnTimeout(gameID)
		}
	}
}

// SetRemovalHook registers fn to run whenever a match leaves the registry
// through a win, a full board or a close. The lobby uses it for game-list
// fan-out.
func (c *Coordinator) SetRemovalHook(fn func(gameID string)) {
	c.onRemoved = fn
}

// CreateMatch allocates and registers a fresh match. Both players verify
// into it with the returned match's shared access token.
func (c *Coordinator) CreateMatch(turnTime time.Duration) (*Match, error) {
	m := newMatch(turnTime)
	if err := c.games.Store(m.ID, m); err != nil {
		return nil, err
	}
	return m, nil
}

// DiscardMatch removes a match that never got off the ground (a player
// disconnected between accept and verify). No closure broadcast, no removal
// hook.
func (c *Coordinator) DiscardMatch(gameID string) {
	c.cancelTurnTimer(gameID)
	c.games.Delete(gameID)
}

// Game returns the match registered under gameID.
func (c *Coordinator) Game(gameID string) (*Match, bool) {
	return c.games.TryGet(gameID)
}

// WatchableGames lists running matches for the lobby's game list. The
// registry key is recovered per match; a match closed between the value
// snapshot and the lookup is left off the list.
func (c *Coordinator) WatchableGames() []GameInfo {
	games := c.games.Values()
	infos := make([]GameInfo, 0, len(games))
	for _, m := range games {
		gameID, err := c.games.KeyOf(m)
		if err != nil {
			continue
		}
		players := m.Players()
		infos = append(infos, GameInfo{
			GameID:  gameID,
			Players: []string{players[0], players[1]},
		})
	}
	return infos
}

// VerifyPlayer claims a player slot for name if the access token matches.
// A token mismatch or an exhausted slot list answers IsPlayer=false rather
// than erroring; only an unknown game is an error.
func (c *Coordinator) VerifyPlayer(gameID, accessToken, name string) error {
	m, ok := c.games.TryGet(gameID)
	if !ok {
		return registry.ErrNotFound
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	notPlayer := IsPlayerPayload{GameID: gameID, IsPlayer: false}

	if m.phase == Finished || accessToken != m.AccessToken {
		c.messenger.Send(name, MethodIsPlayer, notPlayer)
		return nil
	}

	if !m.isPlayer(name) && !m.claimSlot(name) {
		c.messenger.Send(name, MethodIsPlayer, notPlayer)
		return nil
	}

	c.messenger.JoinGame(name, gameID)
	c.messenger.Send(name, MethodIsPlayer, IsPlayerPayload{GameID: gameID, IsPlayer: true})
	log.Printf("match %s: %s verified as player", gameID, name)

	if m.phase == AwaitingPlayers && m.players[0] != "" && m.players[1] != "" {
		m.phase = InProgress
		m.current = m.players[0]
		c.messenger.Broadcast(gameID, MethodTurnOf, TurnPayload{GameID: gameID, PlayerName: m.current})
		c.startTurnTimerLocked(m)
		log.Printf("match %s: started, %s to move", gameID, m.current)
	}

	return nil
}

// MakeMove performs one fully validated move. Acting out of turn or with a
// bad token is an error for the caller alone; an unplayable column answers
// MoveInvalid with no side effects.
func (c *Coordinator) MakeMove(gameID, accessToken, name string, column int) error {
	m, ok := c.games.TryGet(gameID)
	if !ok {
		return registry.ErrNotFound
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.phase != InProgress || accessToken != m.AccessToken || m.current != name {
		return ErrNotYourTurn
	}

	if !m.board.ColumnPlayable(column) {
		c.messenger.Send(name, MethodMoveInvalid, MovePayload{GameID: gameID, Column: column})
		log.Printf("match %s: invalid move by %s in column %d", gameID, name, column)
		return nil
	}

	c.cancelTurnTimer(gameID)

	mark := m.markOf(name)
	row, err := m.board.Place(mark, column)
	if err != nil {
		// ColumnPlayable held the lock, so this cannot happen.
		return err
	}
	m.moves = append(m.moves, engine.Move{PlayerName: name, Column: column})

	c.messenger.Broadcast(gameID, MethodMoveDone, MovePayload{
		GameID:     gameID,
		PlayerName: name,
		Column:     column,
		Row:        row,
	})

	if m.board.HasWinAt(mark, row, column) {
		log.Printf("match %s: %s wins", gameID, name)
		c.messenger.Broadcast(gameID, MethodWinner, TurnPayload{GameID: gameID, PlayerName: name})
		c.closeLocked(m)
		return nil
	}

	if m.board.Full() {
		log.Printf("match %s: board full", gameID)
		c.messenger.Broadcast(gameID, MethodBoardFull, GamePayload{GameID: gameID})
		c.closeLocked(m)
		return nil
	}

	m.current = m.nextPlayer()
	c.messenger.Broadcast(gameID, MethodTurnOf, TurnPayload{GameID: gameID, PlayerName: m.current})
	c.startTurnTimerLocked(m)

	return nil
}

// HandleTurnTimeout nudges everyone but the current player that the turn
// clock ran out. No state changes; the match stays InProgress and the timer
// restarts. When no registered player is connected anymore the match is
// closed instead.
func (c *Coordinator) HandleTurnTimeout(gameID string) {
	m, ok := c.games.TryGet(gameID)
	if !ok {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.phase != InProgress {
		return
	}

	anyConnected := false
	for _, player := range m.players {
		if player != "" && c.presence.Connected(player) {
			anyConnected = true
			if player != m.current {
				c.messenger.Send(player, MethodTurnOver, GamePayload{GameID: gameID})
			}
		}
	}

	if !anyConnected {
		log.Printf("match %s: both players gone, closing", gameID)
		c.closeLocked(m)
		return
	}

	c.startTurnTimerLocked(m)
}

// AddSpectator replays the match for a late joiner and adds them to the
// broadcast group without move rights.
func (c *Coordinator) AddSpectator(gameID, name string) error {
	m, ok := c.games.TryGet(gameID)
	if !ok {
		return registry.ErrNotFound
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	c.messenger.JoinGame(name, gameID)
	c.messenger.Send(name, MethodIsWatching, m.snapshotLocked())
	log.Printf("match %s: %s is watching", gameID, name)
	return nil
}

// ReconnectPlayer restores a registered player's view of the match after a
// dropped connection. Non-players get a negative answer rather than an
// error.
func (c *Coordinator) ReconnectPlayer(gameID, name string) error {
	m, ok := c.games.TryGet(gameID)
	if !ok {
		return registry.ErrNotFound
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.isPlayer(name) {
		c.messenger.Send(name, MethodReconnectedOn, ReconnectPayload{GameID: gameID})
		return nil
	}

	c.messenger.JoinGame(name, gameID)
	c.messenger.Send(name, MethodIsWatching, m.snapshotLocked())
	c.messenger.Send(name, MethodReconnectedOn, ReconnectPayload{
		GameID:          gameID,
		IsPlayer:        true,
		IsCurrentPlayer: m.current == name,
	})
	log.Printf("match %s: %s reconnected", gameID, name)
	return nil
}

// CloseGame terminates a match on behalf of a verified player. Token and
// slot membership are both required.
func (c *Coordinator) CloseGame(gameID, accessToken, name string) error {
	m, ok := c.games.TryGet(gameID)
	if !ok {
		return registry.ErrNotFound
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if accessToken != m.AccessToken || !m.isPlayer(name) {
		return ErrNotAllowed
	}
	if m.phase == Finished {
		return nil
	}

	log.Printf("match %s: closed by %s", gameID, name)
	c.closeLocked(m)
	return nil
}

// LeaveGame removes the caller from the match's broadcast group. The match
// itself is untouched.
func (c *Coordinator) LeaveGame(gameID, name string) {
	c.messenger.LeaveGame(name, gameID)
}

// closeLocked finishes a match: forward-only phase transition, timer
// cancelled, registry entry removed, closure broadcast, removal hook fired.
// Caller holds m.mu.
func (c *Coordinator) closeLocked(m *Match) {
	m.phase = Finished
	c.cancelTurnTimer(m.ID)
	c.games.Delete(m.ID)
	c.messenger.Broadcast(m.ID, MethodGameClosed, GamePayload{GameID: m.ID})
	if c.onRemoved != nil {
		c.onRemoved(m.ID)
	}
}

// startTurnTimerLocked arms the turn clock for the match's current turn.
// Caller holds m.mu; any previous timer entry was cancelled already.
func (c *Coordinator) startTurnTimerLocked(m *Match) {
	ctx, cancel := context.WithCancel(c.ctx)
	c.cancelTurnTimer(m.ID)
	if err := c.timers.Store(m.ID, &turnTimer{cancel: cancel}); err != nil {
		// cancelTurnTimer just cleared the entry, so this cannot happen.
		cancel()
		return
	}

	_ = c.clock.StartKeyed(ctx, m.TurnTime, m.ID)
}

// cancelTurnTimer cancels and forgets the match's timer entry. Cancelling
// an already-fired timer is a no-op.
func (c *Coordinator) cancelTurnTimer(gameID string) {
	entry, ok := c.timers.TryGet(gameID)
	if !ok {
		return
	}
	c.timers.Delete(gameID)
	entry.cancel()
}
