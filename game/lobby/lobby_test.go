package lobby

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"fourwins/game/match"
	"fourwins/game/notify"
	"fourwins/game/registry"
)

type sent struct {
	target  string
	method  string
	payload any
}

// fakeMessenger records direct sends and satisfies both the lobby and the
// game coordinator's messenger contracts.
type fakeMessenger struct {
	mu    sync.Mutex
	sends []sent
}

func (f *fakeMessenger) Send(name, method string, payload any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sends = append(f.sends, sent{target: name, method: method, payload: payload})
}

func (f *fakeMessenger) Broadcast(gameID, method string, payload any) {}
func (f *fakeMessenger) JoinGame(name, gameID string)                {}
func (f *fakeMessenger) LeaveGame(name, gameID string)               {}

func (f *fakeMessenger) sentTo(name, method string) []sent {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []sent
	for _, s := range f.sends {
		if s.target == name && s.method == method {
			out = append(out, s)
		}
	}
	return out
}

// itemRecorder captures batches drained from the notification queue.
type itemRecorder struct {
	mu    sync.Mutex
	items []notify.Item
}

func (r *itemRecorder) flush(batch []notify.Item) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, batch...)
}

func (r *itemRecorder) ofMethod(method string) []notify.Item {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []notify.Item
	for _, item := range r.items {
		if item.Method == method {
			out = append(out, item)
		}
	}
	return out
}

// waitFor polls until cond holds or a second passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.After(time.Second)
	for !cond() {
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for %s", what)
		case <-time.After(5 * time.Millisecond):
		}
	}
}

type rig struct {
	msg      *fakeMessenger
	recorder *itemRecorder
	games    *match.Coordinator
	lobby    *Coordinator
}

func newRig(t *testing.T, cfg Config) *rig {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	msg := &fakeMessenger{}
	recorder := &itemRecorder{}
	queue := notify.NewQueue(5*time.Millisecond, recorder.flush)
	if err := queue.Start(ctx); err != nil {
		t.Fatalf("queue start failed: %v", err)
	}

	presence := &deferredPresence{}
	games := match.NewCoordinator(ctx, msg, presence)
	lobby := NewCoordinator(ctx, msg, games, queue, cfg)
	presence.set(lobby)

	return &rig{msg: msg, recorder: recorder, games: games, lobby: lobby}
}

// deferredPresence lets the game coordinator be built before the lobby
// that answers its presence checks.
type deferredPresence struct {
	mu sync.Mutex
	l  *Coordinator
}

func (p *deferredPresence) set(l *Coordinator) {
	p.mu.Lock()
	p.l = l
	p.mu.Unlock()
}

func (p *deferredPresence) Connected(name string) bool {
	p.mu.Lock()
	l := p.l
	p.mu.Unlock()
	return l != nil && l.Connected(name)
}

// challengeTo issues a challenge and returns the key the receiver saw.
func challengeTo(t *testing.T, r *rig, issuer, receiver string) ChallengeKey {
	t.Helper()

	if err := r.lobby.IssueChallenge(issuer, receiver); err != nil {
		t.Fatalf("IssueChallenge failed: %v", err)
	}
	forwarded := r.msg.sentTo(receiver, MethodForwardChallenge)
	if len(forwarded) == 0 {
		t.Fatalf("%s never received the challenge", receiver)
	}
	p := forwarded[len(forwarded)-1].payload.(ChallengePayload)
	return ChallengeKey{ID: p.ChallengeID, Issuer: p.Issuer, Receiver: p.Receiver}
}

func TestConnectInitializesLists(t *testing.T) {
	r := newRig(t, Config{})

	if err := r.lobby.Connect("alice"); err != nil {
		t.Fatalf("connect alice failed: %v", err)
	}
	if err := r.lobby.Connect("bob"); err != nil {
		t.Fatalf("connect bob failed: %v", err)
	}

	clientLists := r.msg.sentTo("bob", MethodInitializeClientList)
	if len(clientLists) != 1 {
		t.Fatalf("bob got %d client lists, want 1", len(clientLists))
	}
	players := clientLists[0].payload.(ClientListPayload).Players
	if len(players) != 1 || players[0] != "alice" {
		t.Errorf("bob's initial player list = %v, want [alice]", players)
	}
	if len(r.msg.sentTo("bob", MethodInitializeGameList)) != 1 {
		t.Error("bob did not get the initial game list")
	}

	waitFor(t, "connect fan-out", func() bool {
		return len(r.recorder.ofMethod(MethodUpdateClientList)) > 0
	})
	updates := r.recorder.ofMethod(MethodUpdateClientList)
	last := updates[len(updates)-1]
	if u := last.Payload.(ClientListUpdate); u.Event != PlayerConnected || u.PlayerName != "bob" {
		t.Errorf("fan-out payload = %+v", u)
	}
	if len(last.Receivers) != 1 || last.Receivers[0] != "alice" {
		t.Errorf("fan-out receivers = %v, want [alice]", last.Receivers)
	}
}

func TestConnectRejectsBlankAndDuplicateNames(t *testing.T) {
	r := newRig(t, Config{})

	if err := r.lobby.Connect("  "); !errors.Is(err, ErrBlankName) {
		t.Errorf("blank name error = %v, want ErrBlankName", err)
	}
	if err := r.lobby.Connect("alice"); err != nil {
		t.Fatalf("connect alice failed: %v", err)
	}
	if err := r.lobby.Connect("alice"); !errors.Is(err, ErrNameTaken) {
		t.Errorf("duplicate name error = %v, want ErrNameTaken", err)
	}
}

func TestIssueChallengeValidation(t *testing.T) {
	r := newRig(t, Config{})
	r.lobby.Connect("alice")

	if err := r.lobby.IssueChallenge("alice", "alice"); !errors.Is(err, ErrSelfChallenge) {
		t.Errorf("self challenge error = %v, want ErrSelfChallenge", err)
	}
	if err := r.lobby.IssueChallenge("alice", "nobody"); !errors.Is(err, registry.ErrNotFound) {
		t.Errorf("unknown receiver error = %v, want ErrNotFound", err)
	}
}

func TestChallengeAcceptCreatesMatch(t *testing.T) {
	r := newRig(t, Config{})
	r.lobby.Connect("alice")
	r.lobby.Connect("bob")

	key := challengeTo(t, r, "alice", "bob")

	if err := r.lobby.RespondToChallenge(key, true); err != nil {
		t.Fatalf("accept failed: %v", err)
	}

	verdicts := r.msg.sentTo("alice", MethodChallengeResponse)
	if len(verdicts) != 1 || !verdicts[0].payload.(ChallengeVerdict).Accepted {
		t.Fatalf("issuer did not get an accepted verdict: %v", verdicts)
	}

	toAlice := r.msg.sentTo("alice", MethodMatchCreated)
	toBob := r.msg.sentTo("bob", MethodMatchCreated)
	if len(toAlice) != 1 || len(toBob) != 1 {
		t.Fatalf("MatchCreated sends = %d/%d, want 1/1", len(toAlice), len(toBob))
	}
	a := toAlice[0].payload.(MatchCreatedPayload)
	b := toBob[0].payload.(MatchCreatedPayload)
	if a.GameID != b.GameID || a.AccessToken != b.AccessToken {
		t.Error("the two parties got different match credentials")
	}
	if _, ok := r.games.Game(a.GameID); !ok {
		t.Error("accepted challenge did not register a match")
	}

	waitFor(t, "game list fan-out", func() bool {
		return len(r.recorder.ofMethod(MethodUpdateGameList)) > 0
	})
	added := r.recorder.ofMethod(MethodUpdateGameList)[0]
	u := added.Payload.(GameListUpdate)
	if u.Event != GameAdded || u.Game == nil || u.Game.GameID != a.GameID {
		t.Errorf("game list update = %+v", u)
	}
}

func TestChallengeDecline(t *testing.T) {
	r := newRig(t, Config{})
	r.lobby.Connect("alice")
	r.lobby.Connect("bob")

	key := challengeTo(t, r, "alice", "bob")

	if err := r.lobby.RespondToChallenge(key, false); err != nil {
		t.Fatalf("decline failed: %v", err)
	}
	verdicts := r.msg.sentTo("alice", MethodChallengeResponse)
	if len(verdicts) != 1 || verdicts[0].payload.(ChallengeVerdict).Accepted {
		t.Fatalf("issuer did not get a denial: %v", verdicts)
	}
	if len(r.msg.sentTo("alice", MethodMatchCreated)) != 0 {
		t.Error("declined challenge created a match")
	}

	// The challenge is spent; a second answer is too late.
	if err := r.lobby.RespondToChallenge(key, true); !errors.Is(err, ErrChallengeGone) {
		t.Errorf("double answer error = %v, want ErrChallengeGone", err)
	}
}

func TestDuplicateChallengesCoexist(t *testing.T) {
	r := newRig(t, Config{})
	r.lobby.Connect("alice")
	r.lobby.Connect("bob")

	first := challengeTo(t, r, "alice", "bob")
	second := challengeTo(t, r, "alice", "bob")
	if first.ID == second.ID {
		t.Fatal("duplicate challenges share an ID")
	}

	if err := r.lobby.RespondToChallenge(first, false); err != nil {
		t.Fatalf("answering first failed: %v", err)
	}
	if err := r.lobby.RespondToChallenge(second, true); err != nil {
		t.Fatalf("answering second failed: %v", err)
	}
}

func TestChallengeExpiry(t *testing.T) {
	r := newRig(t, Config{ChallengeTimeout: 20 * time.Millisecond})
	r.lobby.Connect("alice")
	r.lobby.Connect("bob")

	key := challengeTo(t, r, "alice", "bob")

	waitFor(t, "challenge expiry", func() bool {
		return len(r.msg.sentTo("alice", MethodChallengeTimeout)) > 0
	})
	if len(r.msg.sentTo("bob", MethodChallengeTimeout)) != 1 {
		t.Error("receiver was not told about the expiry")
	}

	if err := r.lobby.RespondToChallenge(key, true); !errors.Is(err, ErrChallengeGone) {
		t.Errorf("answer after expiry error = %v, want ErrChallengeGone", err)
	}
	if len(r.msg.sentTo("alice", MethodMatchCreated)) != 0 {
		t.Error("expired challenge created a match")
	}
}

func TestDisconnectKillsPendingChallenges(t *testing.T) {
	r := newRig(t, Config{})
	r.lobby.Connect("alice")
	r.lobby.Connect("bob")

	key := challengeTo(t, r, "alice", "bob")
	r.lobby.Disconnect("bob")

	if err := r.lobby.RespondToChallenge(key, true); !errors.Is(err, ErrChallengeGone) {
		t.Errorf("answer after disconnect error = %v, want ErrChallengeGone", err)
	}
	if r.lobby.Connected("bob") {
		t.Error("bob still registered after disconnect")
	}

	waitFor(t, "disconnect fan-out", func() bool {
		for _, item := range r.recorder.ofMethod(MethodUpdateClientList) {
			if u := item.Payload.(ClientListUpdate); u.Event == PlayerDisconnected && u.PlayerName == "bob" {
				return true
			}
		}
		return false
	})
}

func TestMatchHandoffRollsBackWhenPartyGone(t *testing.T) {
	r := newRig(t, Config{})
	r.lobby.Connect("alice")

	r.lobby.createMatch("alice", "ghost")

	if len(r.msg.sentTo("alice", MethodMatchCreated)) != 0 {
		t.Error("match handed to a half-present pair")
	}
	failures := r.msg.sentTo("alice", MethodForwardChallengeError)
	if len(failures) != 1 {
		t.Fatalf("survivor got %d failure notices, want 1", len(failures))
	}
	if len(r.games.WatchableGames()) != 0 {
		t.Error("rolled-back match still registered")
	}
}

func TestGameRemovalFansOut(t *testing.T) {
	r := newRig(t, Config{})
	r.lobby.Connect("alice")
	r.lobby.Connect("bob")

	key := challengeTo(t, r, "alice", "bob")
	if err := r.lobby.RespondToChallenge(key, true); err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	created := r.msg.sentTo("alice", MethodMatchCreated)[0].payload.(MatchCreatedPayload)

	if err := r.games.VerifyPlayer(created.GameID, created.AccessToken, "alice"); err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if err := r.games.CloseGame(created.GameID, created.AccessToken, "alice"); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	waitFor(t, "removal fan-out", func() bool {
		for _, item := range r.recorder.ofMethod(MethodUpdateGameList) {
			if u := item.Payload.(GameListUpdate); u.Event == GameRemoved && u.GameID == created.GameID {
				return true
			}
		}
		return false
	})
}
