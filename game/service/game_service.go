package service

import (
	"context"
	"errors"

	"github.com/wolfattack1993/polytrack-race/game/world"
)

var (
	ErrNotPrivileged = errors.New("session is not privileged")
	ErrNoSink        = errors.New("no event sink configured")
)

// Outbound event names. The transport layer writes these verbatim into
// the wire envelope.
const (
	EventInit         = "init"
	EventPlayerJoined = "playerJoined"
	EventPlayerUpdate = "playerUpdate"
	EventPlayerLeft   = "playerLeft"
	EventAdminGranted = "adminAccessGranted"
	EventAdminDenied  = "adminAccessDenied"
	EventBroadcastMsg = "broadcastMessage"
)

// GameService defines all state-synchronization operations
type GameService interface {
	// SetSink attaches the outbound event sink during wiring, before
	// any connection is accepted.
	SetSink(sink EventSink)

	// Session Lifecycle
	Connect(ctx context.Context, sessionID string) (*InitSnapshot, error)
	Login(ctx context.Context, sessionID, username string)
	Disconnect(ctx context.Context, sessionID string)

	// State Relay
	Move(ctx context.Context, sessionID string, position, rotation world.Vec3)

	// Privileged Broadcast Gate
	AttemptAdmin(ctx context.Context, sessionID, code string) bool
	Broadcast(ctx context.Context, sessionID, message string) error

	// Introspection for the status API
	Players(ctx context.Context) []world.PlayerView
	Player(ctx context.Context, sessionID string) (world.PlayerView, bool)
	PlayerCount(ctx context.Context) int

	// Announce delivers a broadcastMessage to every session without a
	// granting session, for operator surfaces that authenticate per
	// request (REST, MCP). The code is checked with the gate's rules.
	Announce(ctx context.Context, code, message string) error
}

// EventSink is the output port for server-to-client traffic. The
// websocket hub implements it; tests plug in a recorder.
type EventSink interface {
	// SendTo delivers an event to one session only.
	SendTo(sessionID, event string, data any)
	// BroadcastExcept delivers an event to every session but one.
	BroadcastExcept(sessionID, event string, data any)
	// BroadcastAll delivers an event to every session.
	BroadcastAll(event string, data any)
}

// InitSnapshot is the payload of the init event sent to a session right
// after it connects: its own id plus a consistent view of every live
// session, itself included.
type InitSnapshot struct {
	ID      string                      `json:"id"`
	Players map[string]world.PlayerView `json:"players"`
}

// LeftNotice is the payload of the playerLeft event
type LeftNotice struct {
	ID string `json:"id"`
}

// BroadcastNotice is the payload of the broadcastMessage event
type BroadcastNotice struct {
	Message string `json:"message"`
}
