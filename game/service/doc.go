// Package service provides the business logic layer for the Polytrack
// Race sync server.
//
// The service package implements:
//   - Session lifecycle (connect, login, disconnect) with join/leave
//     announcements
//   - The state relay: per-session movement updates fanned out to every
//     other session
//   - The privileged broadcast gate behind a shared admin secret
//
// Architecture:
//
// GameService sits between the transport layer (WebSocket/REST/MCP) and
// the session registry. Outbound traffic leaves through the EventSink
// port so the logic can be exercised in tests without a network.
//
// Ordering and Atomicity:
//
// Each websocket connection dispatches its inbound events from a single
// read loop, so events from one session reach the service in arrival
// order. The service serializes every compound update-then-broadcast
// step behind one mutex: no fanout can observe a half-applied update,
// and a removal is atomic with its departure announcement. No ordering
// is guaranteed across different sessions.
//
// Usage:
//
//	registry := session.NewManager()
//	svc := service.NewGameService(registry, spawner, settings.AdminCode)
//	svc.SetSink(hub)
//
//	snapshot, err := svc.Connect(ctx, id)
package service
