package session

import (
	"errors"
	"sync"

	"github.com/wolfattack1993/polytrack-race/game/world"
)

var (
	ErrSessionNotFound      = errors.New("session not found")
	ErrSessionAlreadyExists = errors.New("session already exists")
	ErrInvalidSessionID     = errors.New("invalid session ID")
)

// Manager is the authoritative registry of live sessions. Its key set
// equals the set of currently open connections; no other component may
// cache a divergent copy of session state beyond the scope of handling
// one event.
type Manager struct {
	players map[string]*world.Player
	mu      sync.RWMutex
}

// NewManager creates an empty session registry
func NewManager() *Manager {
	return &Manager{
		players: make(map[string]*world.Player),
	}
}

// Add inserts a player record for a new connection. It fails with
// ErrSessionAlreadyExists if the id is already registered; a correct
// transport layer never produces duplicate ids, but the registry guards
// against it anyway.
func (m *Manager) Add(player *world.Player) error {
	if player == nil || player.ID == "" {
		return ErrInvalidSessionID
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.players[player.ID]; exists {
		return ErrSessionAlreadyExists
	}
	m.players[player.ID] = player
	return nil
}

// Get retrieves a player record by session id
func (m *Manager) Get(id string) (*world.Player, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	player, exists := m.players[id]
	if !exists {
		return nil, ErrSessionNotFound
	}
	return player, nil
}

// Remove deletes the record for id and reports whether it was present.
// Removing an absent id is a safe no-op so duplicate disconnect signals
// from the transport cannot announce a departure twice.
func (m *Manager) Remove(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.players[id]; !exists {
		return false
	}
	delete(m.players, id)
	return true
}

// AllExcept returns the public views of every session other than id.
// The slice is a copy; mutating it does not touch registry state.
func (m *Manager) AllExcept(id string) []world.PlayerView {
	m.mu.RLock()
	defer m.mu.RUnlock()

	views := make([]world.PlayerView, 0, len(m.players))
	for pid, p := range m.players {
		if pid == id {
			continue
		}
		views = append(views, p.View())
	}
	return views
}

// Snapshot returns a point-in-time view of every session keyed by id,
// used for the initial-state transfer to a new connection. The copy is
// taken under the lock so a concurrent registry mutation cannot produce
// a torn snapshot.
func (m *Manager) Snapshot() map[string]world.PlayerView {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snapshot := make(map[string]world.PlayerView, len(m.players))
	for id, p := range m.players {
		snapshot[id] = p.View()
	}
	return snapshot
}

// Count returns the number of live sessions
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.players)
}

// IDs returns the ids of all live sessions
func (m *Manager) IDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.players))
	for id := range m.players {
		ids = append(ids, id)
	}
	return ids
}
