package lobby

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"fourwins/game/match"
	"fourwins/game/notify"
	"fourwins/game/registry"
	"fourwins/game/timer"
)

// Defaults for the challenge expiry and match turn clock.
const (
	DefaultChallengeTimeout = 30 * time.Second
	DefaultTurnTime         = 90 * time.Second
)

var (
	// ErrBlankName rejects empty or whitespace-only usernames.
	ErrBlankName = errors.New("username must not be blank")
	// ErrNameTaken rejects a username already connected.
	ErrNameTaken = errors.New("username already in use")
	// ErrSelfChallenge rejects challenging yourself.
	ErrSelfChallenge = errors.New("cannot challenge yourself")
	// ErrChallengeGone rejects responses to challenges that already timed
	// out or were already answered.
	ErrChallengeGone = errors.New("challenge no longer exists")
)

// Messenger is the single-receiver send the lobby needs. Fan-out goes
// through the notification queue instead, whose flush lands on the same
// transport.
type Messenger interface {
	Send(name, method string, payload any)
}

// ClientSession is one connected user. Exactly one session exists per
// username; it lives in the client registry from connect to disconnect.
type ClientSession struct {
	Name        string
	ConnectedAt time.Time
}

// ChallengeKey is a challenge's identity: an immutable triple used as the
// registry key. Acceptance state never lives here.
type ChallengeKey struct {
	ID       string
	Issuer   string
	Receiver string
}

// challengeTimer holds a pending challenge's expiry cancel handle.
type challengeTimer struct {
	cancel context.CancelFunc
}

// Coordinator owns the lobby: client sessions, pending challenges, and the
// fan-out of player-list and game-list updates.
type Coordinator struct {
	ctx              context.Context
	clients          *registry.Map[string, *ClientSession]
	challenges       *registry.Map[ChallengeKey, *challengeTimer]
	games            *match.Coordinator
	queue            *notify.Queue
	messenger        Messenger
	challengeTimeout time.Duration
	turnTime         time.Duration
}

// Config tunes a lobby coordinator. Zero values fall back to defaults.
type Config struct {
	ChallengeTimeout time.Duration
	TurnTime         time.Duration
}

// NewCoordinator creates the lobby coordinator and registers itself as the
// game coordinator's removal hook, so closed matches fan out to the game
// list. ctx bounds all challenge expiry timers.
func NewCoordinator(ctx context.Context, messenger Messenger, games *match.Coordinator, queue *notify.Queue, cfg Config) *Coordinator {
	if cfg.ChallengeTimeout <= 0 {
		cfg.ChallengeTimeout = DefaultChallengeTimeout
	}
	if cfg.TurnTime <= 0 {
		cfg.TurnTime = DefaultTurnTime
	}

	l := &Coordinator{
		ctx:              ctx,
		clients:          registry.New[string, *ClientSession](),
		challenges:       registry.New[ChallengeKey, *challengeTimer](),
		games:            games,
		queue:            queue,
		messenger:        messenger,
		challengeTimeout: cfg.ChallengeTimeout,
		turnTime:         cfg.TurnTime,
	}
	games.SetRemovalHook(l.handleGameRemoved)
	return l
}

// Connect validates and registers a username. On failure nothing is
// registered and the transport sends LoginError before dropping the
// connection. On success the new client gets the current player and game
// lists and everyone else learns about the newcomer through the queue.
func (l *Coordinator) Connect(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrBlankName
	}

	session := &ClientSession{Name: name, ConnectedAt: time.Now()}
	if err := l.clients.Store(name, session); err != nil {
		return ErrNameTaken
	}

	l.messenger.Send(name, MethodInitializeClientList, ClientListPayload{
		Message: "Current players",
		Players: l.playersExcept(name),
	})
	l.messenger.Send(name, MethodInitializeGameList, GameListPayload{
		Message: "Watchable games",
		Games:   l.games.WatchableGames(),
	})

	l.queue.Enqueue(notify.Item{
		Receivers: l.playersExcept(name),
		Method:    MethodUpdateClientList,
		Payload:   ClientListUpdate{Event: PlayerConnected, PlayerName: name},
	})

	log.Printf("lobby: %s connected", name)
	return nil
}

// Disconnect removes a client session, kills every pending challenge the
// player is part of, and tells the remaining clients.
func (l *Coordinator) Disconnect(name string) {
	if !l.clients.Delete(name) {
		return
	}

	for _, key := range l.challenges.Keys() {
		if key.Issuer == name || key.Receiver == name {
			l.resolveChallenge(key)
		}
	}

	l.queue.Enqueue(notify.Item{
		Receivers: l.playersExcept(name),
		Method:    MethodUpdateClientList,
		Payload:   ClientListUpdate{Event: PlayerDisconnected, PlayerName: name},
	})

	log.Printf("lobby: %s disconnected", name)
}

// Connected reports whether a username is registered. Satisfies the game
// coordinator's Presence.
func (l *Coordinator) Connected(name string) bool {
	return l.clients.Exists(name)
}

// Players returns a snapshot of all connected usernames.
func (l *Coordinator) Players() []string {
	sessions := l.clients.Values()
	names := make([]string, 0, len(sessions))
	for _, s := range sessions {
		names = append(names, s.Name)
	}
	return names
}

// IssueChallenge forwards a challenge from issuer to receiver and starts
// its expiry clock. Concurrent duplicate challenges between the same pair
// are allowed; each carries its own ID and timer.
func (l *Coordinator) IssueChallenge(issuer, receiver string) error {
	if issuer == receiver {
		return ErrSelfChallenge
	}
	if !l.clients.Exists(receiver) {
		return registry.ErrNotFound
	}

	key := ChallengeKey{ID: uuid.NewString(), Issuer: issuer, Receiver: receiver}

	ctx, cancel := context.WithCancel(l.ctx)
	if err := l.challenges.Store(key, &challengeTimer{cancel: cancel}); err != nil {
		cancel()
		return err
	}
	if err := timer.Start(ctx, l.challengeTimeout, func() {
		l.HandleChallengeTimeout(key)
	}); err != nil {
		l.resolveChallenge(key)
		return err
	}

	l.messenger.Send(receiver, MethodForwardChallenge, ChallengePayload{
		ChallengeID: key.ID,
		Issuer:      issuer,
		Receiver:    receiver,
		Message:     fmt.Sprintf("%s challenges you to a game", issuer),
	})

	log.Printf("lobby: %s challenged %s (challenge %s)", issuer, receiver, key.ID)
	return nil
}

// RespondToChallenge settles a pending challenge. A challenge that already
// expired or was already answered fails with ErrChallengeGone; a double
// accept lands here too. On accept the match handoff runs.
func (l *Coordinator) RespondToChallenge(key ChallengeKey, accepted bool) error {
	if !l.resolveChallenge(key) {
		return ErrChallengeGone
	}

	verdict := "denied"
	if accepted {
		verdict = "accepted"
	}
	l.messenger.Send(key.Issuer, MethodChallengeResponse, ChallengeVerdict{
		Challenge: ChallengePayload{ChallengeID: key.ID, Issuer: key.Issuer, Receiver: key.Receiver},
		Accepted:  accepted,
		Message:   fmt.Sprintf("%s %s your challenge", key.Receiver, verdict),
	})

	if accepted {
		l.createMatch(key.Issuer, key.Receiver)
	}

	log.Printf("lobby: challenge %s %s by %s", key.ID, verdict, key.Receiver)
	return nil
}

// HandleChallengeTimeout expires a challenge. It only acts if the
// challenge still exists, which settles the race against an answer
// arriving at the same moment.
func (l *Coordinator) HandleChallengeTimeout(key ChallengeKey) {
	if !l.resolveChallenge(key) {
		return
	}

	payload := ChallengePayload{
		ChallengeID: key.ID,
		Issuer:      key.Issuer,
		Receiver:    key.Receiver,
		Message:     fmt.Sprintf("challenge expired: %s did not respond in time", key.Receiver),
	}
	for _, name := range []string{key.Issuer, key.Receiver} {
		if l.clients.Exists(name) {
			l.messenger.Send(name, MethodChallengeTimeout, payload)
		}
	}

	log.Printf("lobby: challenge %s expired", key.ID)
}

// createMatch performs the lobby→game handoff after an accepted challenge.
// If either party disconnected between accept and allocation, the match is
// rolled back and the survivor notified instead.
func (l *Coordinator) createMatch(issuer, receiver string) {
	m, err := l.games.CreateMatch(l.turnTime)
	if err != nil {
		log.Printf("lobby: match allocation failed: %v", err)
		return
	}

	issuerHere := l.clients.Exists(issuer)
	receiverHere := l.clients.Exists(receiver)

	if !issuerHere || !receiverHere {
		l.games.DiscardMatch(m.ID)
		survivor := issuer
		if !issuerHere {
			survivor = receiver
		}
		l.messenger.Send(survivor, MethodForwardChallengeError, ErrorPayload{
			Message: "your opponent disconnected after accepting the challenge",
		})
		log.Printf("lobby: discarded match %s, a party disconnected", m.ID)
		return
	}

	payload := MatchCreatedPayload{
		GameID:      m.ID,
		AccessToken: m.AccessToken,
		Issuer:      issuer,
		Receiver:    receiver,
		Message:     "a new game was created; verify with your game ID and access token",
	}
	l.messenger.Send(issuer, MethodMatchCreated, payload)
	l.messenger.Send(receiver, MethodMatchCreated, payload)

	l.queue.Enqueue(notify.Item{
		Receivers: l.Players(),
		Method:    MethodUpdateGameList,
		Payload: GameListUpdate{
			Event: GameAdded,
			Game:  &match.GameInfo{GameID: m.ID, Players: []string{issuer, receiver}},
		},
	})

	log.Printf("lobby: created match %s for %s vs %s", m.ID, issuer, receiver)
}

// handleGameRemoved fans a match removal out to every client's game list.
func (l *Coordinator) handleGameRemoved(gameID string) {
	l.queue.Enqueue(notify.Item{
		Receivers: l.Players(),
		Method:    MethodUpdateGameList,
		Payload:   GameListUpdate{Event: GameRemoved, GameID: gameID},
	})
}

// resolveChallenge cancels the expiry timer and removes the challenge,
// reporting whether it still existed. Every path that ends a challenge
// funnels through here, so the timer is cancelled exactly once.
func (l *Coordinator) resolveChallenge(key ChallengeKey) bool {
	entry, ok := l.challenges.TryGet(key)
	if !ok {
		return false
	}
	if !l.challenges.Delete(key) {
		// Another resolver won the race.
		return false
	}
	entry.cancel()
	return true
}

func (l *Coordinator) playersExcept(name string) []string {
	sessions := l.clients.ValuesExcept(name)
	names := make([]string, 0, len(sessions))
	for _, s := range sessions {
		names = append(names, s.Name)
	}
	return names
}
