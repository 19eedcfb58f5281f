package lobby

import "fourwins/game/match"

// Server→client method names on the lobby surface.
const (
	MethodInitializeClientList  = "InitializeClientList"
	MethodInitializeGameList    = "InitializeGameList"
	MethodUpdateClientList      = "UpdateClientList"
	MethodUpdateGameList        = "UpdateGameList"
	MethodLoginError            = "LoginError"
	MethodForwardChallenge      = "ForwardChallenge"
	MethodForwardChallengeError = "ForwardChallengeError"
	MethodChallengeResponse     = "ChallengeResponse"
	MethodChallengeTimeout      = "ChallengeTimeout"
	MethodMatchCreated          = "MatchCreated"
)

// Client-list update kinds.
const (
	PlayerConnected    = "PlayerConnected"
	PlayerDisconnected = "PlayerDisconnected"
)

// Game-list update kinds.
const (
	GameAdded   = "GameAdded"
	GameRemoved = "GameRemoved"
)

// ChallengePayload mirrors a challenge on the wire.
type ChallengePayload struct {
	ChallengeID string `json:"challenge_id"`
	Issuer      string `json:"issuer"`
	Receiver    string `json:"receiver"`
	Message     string `json:"message,omitempty"`
}

// ChallengeAnswer is the client's response to a forwarded challenge.
type ChallengeAnswer struct {
	Challenge ChallengePayload `json:"challenge"`
	Accepted  bool             `json:"accepted"`
}

// ChallengeRequest asks the server to forward a challenge.
type ChallengeRequest struct {
	Issuer   string `json:"issuer"`
	Receiver string `json:"receiver"`
}

// ClientListPayload initializes a fresh client's player list.
type ClientListPayload struct {
	Message string   `json:"message"`
	Players []string `json:"players"`
}

// GameListPayload initializes a fresh client's watchable-game list.
type GameListPayload struct {
	Message string           `json:"message"`
	Games   []match.GameInfo `json:"games"`
}

// ClientListUpdate announces one player joining or leaving the lobby.
type ClientListUpdate struct {
	Event      string `json:"event"`
	PlayerName string `json:"player_name"`
}

// GameListUpdate announces one game appearing in or vanishing from the
// watchable list.
type GameListUpdate struct {
	Event string          `json:"event"`
	Game  *match.GameInfo `json:"game,omitempty"`
	// GameID is set on removals, where the full info is already gone.
	GameID string `json:"game_id,omitempty"`
}

// ChallengeVerdict forwards accept/deny to the challenge's issuer.
type ChallengeVerdict struct {
	Challenge ChallengePayload `json:"challenge"`
	Accepted  bool             `json:"accepted"`
	Message   string           `json:"message"`
}

// MatchCreatedPayload hands both players what they need to verify into the
// new match on the game surface.
type MatchCreatedPayload struct {
	GameID      string `json:"game_id"`
	AccessToken string `json:"access_token"`
	Issuer      string `json:"issuer"`
	Receiver    string `json:"receiver"`
	Message     string `json:"message"`
}

// ErrorPayload carries a human-readable failure description.
type ErrorPayload struct {
	Message string `json:"message"`
}
