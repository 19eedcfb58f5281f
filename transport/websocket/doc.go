// Package websocket provides the WebSocket transport for the Four Wins
// server.
//
// The websocket package implements:
//   - Real-time bidirectional communication
//   - Username-keyed client connections
//   - Per-game broadcast groups for players and spectators
//   - Connection lifecycle management (login, disconnect cleanup)
//   - Inbound message routing to the lobby and game coordinators
//
// Architecture:
//
// The package uses a hub-and-spoke model where a central Hub manages all
// WebSocket connections. Each client connection is handled by a dedicated
// pair of goroutines for reading and writing; the hub itself is a
// mutex-guarded routing table so coordinators can deliver messages from
// any goroutine.
//
// Message Protocol:
//
// Both directions carry JSON envelopes of the form
//
//	{"method": "PerformGameMove", "payload": {...}}
//
// Inbound methods are dispatched to the lobby coordinator (challenges) or
// the game coordinator (verification, moves, spectating, reconnection).
// Outbound methods are the notification names the coordinators emit.
//
// Connection Lifecycle:
//
// 1. Client connects on /ws/{username}
// 2. The username is registered with the lobby; a taken or blank name
//    answers LoginError and the connection closes
// 3. The lobby sends the initial player and game lists
// 4. Client sends commands, receives notifications
// 5. Disconnection deregisters the name and cleans up its challenges
//
// Concurrency:
//
// The hub is safe for concurrent use. Multiple clients can connect,
// disconnect, and send messages simultaneously without blocking each
// other; a client too slow to drain its send buffer is dropped.
package websocket
