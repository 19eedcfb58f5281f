// Package lobby implements the lobby coordinator: connected-client
// bookkeeping, the challenge lifecycle, and player-list/game-list fan-out.
//
// Connecting users move Connecting -> Validated -> Registered, or are
// rejected with a login error before any state is touched. A registered
// client immediately receives the current player list and the list of
// watchable games; everyone else learns about the newcomer through the
// batched notification queue.
//
// Challenges are keyed by their immutable (id, issuer, receiver) triple.
// The accepted flag never enters the key, so answering a challenge mutates
// nothing the registry hashes on. A challenge dies on accept, deny, a 30
// second timeout, or either party disconnecting. Whichever event comes
// first wins; the registry delete settles the race.
//
// Accepting a challenge hands off to the game coordinator: a match is
// allocated, and if either party vanished in the meantime the allocation is
// rolled back and the survivor gets an error instead of a dangling match.
package lobby
