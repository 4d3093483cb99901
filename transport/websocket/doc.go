// Package websocket provides the WebSocket transport for the Polytrack
// Race sync server.
//
// The websocket package implements:
//   - Connection acceptance and per-session id assignment
//   - A hub tracking one client per live session
//   - Per-client read/write pumps with ping/pong keepalive
//   - The JSON envelope codec for both traffic directions
//   - Dispatch of inbound events into game/service
//
// Architecture:
//
// The package uses a hub-and-spoke model: the Hub owns the client map
// and implements service.EventSink, so all outbound fanout funnels
// through it. Each connection runs a dedicated read goroutine and a
// dedicated write goroutine.
//
// Message Protocol:
//
// Every message both ways is a JSON envelope {event, data}:
//   - Incoming: {"event":"playerMove","data":{"position":{...},"rotation":{...}}}
//   - Outgoing: {"event":"playerUpdate","data":{"id":"...","username":"...",...}}
//
// Ordering:
//
// One read loop per connection dispatches events synchronously, so a
// session's events reach the service in arrival order. Outbound
// delivery uses a bounded per-client send queue; a client that cannot
// drain it is disconnected rather than stalling the fanout.
//
// Connection Lifecycle:
//
// 1. HTTP request upgraded, session id assigned (uuid)
// 2. Client registered with the hub
// 3. Service Connect runs; init snapshot sent to the client
// 4. Client sends events, receives relayed state
// 5. Read error or slow-consumer close triggers exactly-once cleanup
package websocket
