// Package api provides the HTTP surface of the Four Wins server.
//
// The api package implements:
//   - The WebSocket entry point at /ws/{username}
//   - Read-only REST endpoints for lobby and game inspection
//   - A health check for supervisors
//
// Endpoints:
//
// Realtime:
//   - GET /ws/{username} - Upgrade to the WebSocket protocol
//
// Inspection:
//   - GET /api/players - Connected usernames
//   - GET /api/games - Watchable games
//   - GET /api/games/{id} - Replayed state of one game
//
// Health:
//   - GET /healthz - Liveness with version and uptime
//
// Request/Response Format:
//
// All REST endpoints return JSON. They are read-only; every mutation of
// lobby or game state happens over the WebSocket protocol, where the
// connection carries the caller's identity.
//
// Error Handling:
//
// Errors are returned as JSON with appropriate HTTP status codes:
//
//	{
//	  "error": "error message"
//	}
package api
