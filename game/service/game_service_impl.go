package service

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log"
	"sync"

	"github.com/wolfattack1993/polytrack-race/game/session"
	"github.com/wolfattack1993/polytrack-race/game/world"
)

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	registry  *session.Manager
	spawner   *world.Spawner
	adminCode string
	sink      EventSink

	// mu serializes compound update-then-broadcast steps so a fanout
	// never carries a half-applied or stale view of the registry.
	mu sync.Mutex
}

// NewGameService creates a new game service instance. An empty
// adminCode means the broadcast gate denies every attempt.
func NewGameService(registry *session.Manager, spawner *world.Spawner, adminCode string) GameService {
	if spawner == nil {
		spawner = world.NewSpawner(world.DefaultSpawnExtent)
	}
	return &gameServiceImpl{
		registry:  registry,
		spawner:   spawner,
		adminCode: adminCode,
		sink:      noopSink{},
	}
}

// SetSink attaches the outbound event sink. The transport calls this
// once during wiring, before any connection is accepted.
func (s *gameServiceImpl) SetSink(sink EventSink) {
	if sink == nil {
		sink = noopSink{}
	}
	s.mu.Lock()
	s.sink = sink
	s.mu.Unlock()
}

// Connect allocates a player with a randomized spawn point, registers
// it, returns the init snapshot for the new session, and announces the
// join to everyone else. The snapshot and the announcement happen under
// the service lock so both reflect the same instant.
func (s *gameServiceImpl) Connect(ctx context.Context, sessionID string) (*InitSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	player := world.NewPlayer(sessionID, s.spawner.Next())
	if err := s.registry.Add(player); err != nil {
		return nil, fmt.Errorf("failed to register session %s: %w", sessionID, err)
	}

	snapshot := &InitSnapshot{
		ID:      sessionID,
		Players: s.registry.Snapshot(),
	}

	s.sink.BroadcastExcept(sessionID, EventPlayerJoined, player.View())
	log.Printf("Session %s connected (%d online)", sessionID, s.registry.Count())

	return snapshot, nil
}

// Login sets the session's display name. A login that races a
// disconnect is tolerated, not failed.
func (s *gameServiceImpl) Login(ctx context.Context, sessionID, username string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	player, err := s.registry.Get(sessionID)
	if err != nil {
		log.Printf("Login for unknown session %s ignored", sessionID)
		return
	}
	player.Username = username
	log.Printf("Session %s is now known as %q", sessionID, username)
}

// Move applies a session's position/rotation update and fans the
// updated record out to every other session. Updates for sessions that
// already disconnected are dropped silently; the relay does not judge
// physical plausibility.
func (s *gameServiceImpl) Move(ctx context.Context, sessionID string, position, rotation world.Vec3) {
	s.mu.Lock()
	defer s.mu.Unlock()

	player, err := s.registry.Get(sessionID)
	if err != nil {
		return
	}
	player.Position = position
	player.Rotation = rotation

	s.sink.BroadcastExcept(sessionID, EventPlayerUpdate, player.View())
}

// AttemptAdmin checks the supplied code against the configured secret
// and reports the outcome to the requesting session only. The caller
// learns a single bit; timing does not reveal how close the code was.
func (s *gameServiceImpl) AttemptAdmin(ctx context.Context, sessionID, code string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.codeMatches(code) {
		log.Printf("Admin code attempt denied for session %s", sessionID)
		s.sink.SendTo(sessionID, EventAdminDenied, nil)
		return false
	}

	if player, err := s.registry.Get(sessionID); err == nil {
		player.Privileged = true
	}
	log.Printf("Admin access granted to session %s", sessionID)
	s.sink.SendTo(sessionID, EventAdminGranted, nil)
	return true
}

// Broadcast sends a global announcement from a privileged session to
// every connected session, the sender included.
func (s *gameServiceImpl) Broadcast(ctx context.Context, sessionID, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	player, err := s.registry.Get(sessionID)
	if err != nil {
		return fmt.Errorf("broadcast from unknown session %s: %w", sessionID, err)
	}
	if !player.Privileged {
		return ErrNotPrivileged
	}

	log.Printf("Admin broadcast from %s: %s", sessionID, message)
	s.sink.BroadcastAll(EventBroadcastMsg, BroadcastNotice{Message: message})
	return nil
}

// Announce delivers a global announcement authenticated per request by
// the admin code instead of a session's privilege flag. REST and MCP
// callers use this path.
func (s *gameServiceImpl) Announce(ctx context.Context, code, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.codeMatches(code) {
		return ErrNotPrivileged
	}

	log.Printf("Operator broadcast: %s", message)
	s.sink.BroadcastAll(EventBroadcastMsg, BroadcastNotice{Message: message})
	return nil
}

// Disconnect removes the session and announces the departure to the
// remaining sessions. Duplicate disconnect signals announce nothing:
// only the call that actually removes the record broadcasts.
func (s *gameServiceImpl) Disconnect(ctx context.Context, sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.registry.Remove(sessionID) {
		return
	}
	s.sink.BroadcastAll(EventPlayerLeft, LeftNotice{ID: sessionID})
	log.Printf("Session %s disconnected (%d online)", sessionID, s.registry.Count())
}

// Players returns the public views of all live sessions
func (s *gameServiceImpl) Players(ctx context.Context) []world.PlayerView {
	return s.registry.AllExcept("")
}

// Player returns the public view of one session
func (s *gameServiceImpl) Player(ctx context.Context, sessionID string) (world.PlayerView, bool) {
	player, err := s.registry.Get(sessionID)
	if err != nil {
		return world.PlayerView{}, false
	}
	return player.View(), true
}

// PlayerCount returns the number of live sessions
func (s *gameServiceImpl) PlayerCount(ctx context.Context) int {
	return s.registry.Count()
}

// codeMatches compares the supplied code against the configured secret
// in constant time. An unset secret never matches, so a server started
// without configuration denies everything instead of accepting "".
func (s *gameServiceImpl) codeMatches(code string) bool {
	if s.adminCode == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(code), []byte(s.adminCode)) == 1
}

// noopSink swallows outbound events until a real sink is attached.
type noopSink struct{}

func (noopSink) SendTo(string, string, any)          {}
func (noopSink) BroadcastExcept(string, string, any) {}
func (noopSink) BroadcastAll(string, any)            {}
