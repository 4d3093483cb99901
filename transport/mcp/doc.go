// Package mcp exposes the Polytrack Race sync server to MCP clients.
//
// The mcp package implements a thin MCP server that proxies every tool
// call to the REST API instead of touching game state directly. This
// keeps one code path for reads and operator actions regardless of
// whether they arrive via HTTP, MCP over HTTP (/mcp), or MCP over
// stdio.
//
// Tools:
//   - server_status: version, uptime, player count
//   - list_players: all connected players with positions
//   - get_player: one player by session id
//   - broadcast_message: global announcement, requires the admin code
//
// The broadcast tool forwards the supplied code to the REST endpoint,
// which applies the same shared-secret check as the in-game gate; the
// MCP layer itself never sees or stores the secret.
package mcp
