package match

import "fourwins/game/engine"

// Server→client method names on the game surface.
const (
	MethodIsPlayer      = "IsPlayer"
	MethodIsWatching    = "IsWatching"
	MethodTurnOf        = "TurnOf"
	MethodMoveDone      = "MoveDone"
	MethodMoveInvalid   = "MoveInvalid"
	MethodTurnOver      = "TurnOver"
	MethodWinner        = "Winner"
	MethodBoardFull     = "BoardFull"
	MethodGameClosed    = "GameClosed"
	MethodReconnectedOn = "ReconnectedOn"
)

// IsPlayerPayload answers a verification attempt.
type IsPlayerPayload struct {
	GameID   string `json:"game_id"`
	IsPlayer bool   `json:"is_player"`
}

// TurnPayload announces whose turn it is.
type TurnPayload struct {
	GameID     string `json:"game_id"`
	PlayerName string `json:"player_name"`
}

// MovePayload describes an executed or rejected move.
type MovePayload struct {
	GameID     string `json:"game_id"`
	PlayerName string `json:"player_name,omitempty"`
	Column     int    `json:"column"`
	Row        int    `json:"row,omitempty"`
}

// GamePayload carries just a game reference (TurnOver, BoardFull,
// GameClosed).
type GamePayload struct {
	GameID string `json:"game_id"`
}

// StatePayload is the replayed board view sent to spectators and
// reconnecting players.
type StatePayload struct {
	GameID        string        `json:"game_id"`
	Players       []string      `json:"players"`
	CurrentPlayer string        `json:"current_player"`
	Moves         []engine.Move `json:"moves"`
	Grid          [][]int       `json:"grid"`
}

// ReconnectPayload answers a reconnection attempt.
type ReconnectPayload struct {
	GameID          string `json:"game_id"`
	IsPlayer        bool   `json:"is_player"`
	IsCurrentPlayer bool   `json:"is_current_player"`
}
