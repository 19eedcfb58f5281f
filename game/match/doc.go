// Package match implements the game coordinator: one authoritative state
// machine per running Connect-Four match.
//
// A Match moves through AwaitingPlayers -> InProgress -> Finished and only
// ever forward. Two players race to claim the two player slots by verifying
// with the match's shared access token; once both slots are filled the
// match starts, players[0] moves first, and a turn timer runs per turn.
//
// The Coordinator owns move validation, win/full sequencing, turn rotation,
// the turn timers, spectators and reconnection. All mutations of a match's
// state happen under that match's own mutex, so handler invocations for the
// same game are serialized while different games proceed independently.
// Turn clocks run on a keyed timer service; the elapse handler re-validates
// existence through the games registry before acting, which settles races
// with moves and closes.
//
// Outbound traffic goes through the Messenger interface. Single-receiver
// sends and match-group broadcasts are distinct operations; the transport
// layer supplies both.
package match
