// Package api provides the HTTP surface for the Polytrack Race sync
// server.
//
// The api package implements:
//   - RESTful status and player listing endpoints
//   - A code-authenticated operator broadcast endpoint
//   - The WebSocket mount at /ws
//   - Static client file serving
//
// Endpoints:
//
// Status:
//   - GET /api/status - server version, uptime, player count
//   - GET /healthz - liveness probe
//
// Players:
//   - GET /api/players - public views of all connected players
//   - GET /api/players/{id} - one player by session id
//
// Operator Broadcast:
//   - POST /api/broadcast - body {"code": "...", "message": "..."};
//     checked against the same shared secret as the in-game gate and
//     rejected with 403 on mismatch or when no secret is configured
//
// Realtime:
//   - GET /ws - WebSocket upgrade; one connection = one session
//
// Request/Response Format:
//
// All API endpoints accept and return JSON. Errors are returned as
// JSON with appropriate HTTP status codes:
//
//	{
//	  "error": "error message"
//	}
package api
