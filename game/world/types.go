package world

const (
	// DefaultUsername is assigned to every player until a login event
	// replaces it.
	DefaultUsername = "Guest"

	// DefaultSpawnExtent bounds the randomized spawn region on the x and
	// z axes: spawn coordinates fall in [-extent, extent].
	DefaultSpawnExtent = 2.0

	// MaxUsernameLength caps the display label accepted from clients.
	MaxUsernameLength = 32

	// MaxBroadcastLength caps admin announcement messages.
	MaxBroadcastLength = 512
)

// Vec3 represents x,y,z coordinates
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Player represents the server-side record for one connected session
type Player struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Position Vec3   `json:"position"`
	Rotation Vec3   `json:"rotation"`

	// Privileged marks a session that passed the admin-code check.
	// It transitions false->true only and is never sent to clients.
	Privileged bool `json:"-"`
}

// PlayerView is the public projection of a Player broadcast to other
// sessions. It mirrors Player minus the privilege flag.
type PlayerView struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Position Vec3   `json:"position"`
	Rotation Vec3   `json:"rotation"`
}

// NewPlayer creates a player record with the given id and spawn point.
// The username starts as DefaultUsername and rotation starts zeroed.
func NewPlayer(id string, spawn Vec3) *Player {
	return &Player{
		ID:       id,
		Username: DefaultUsername,
		Position: spawn,
	}
}

// View returns the public snapshot of the player.
func (p *Player) View() PlayerView {
	return PlayerView{
		ID:       p.ID,
		Username: p.Username,
		Position: p.Position,
		Rotation: p.Rotation,
	}
}
