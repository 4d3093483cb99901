// Package validate checks inbound client payloads before they reach
// the game service. It enforces:
//   - Username presence and length bounds
//   - Finite (non-NaN, non-Inf) movement vectors
//   - Broadcast message presence and length bounds
//
// Failing payloads are meant to be logged and dropped by the caller,
// never to crash or error the connection.
package validate

import (
	"fmt"
	"math"
	"strings"

	"github.com/wolfattack1993/polytrack-race/game/world"
)

// Username validates a login display name
func Username(username string) error {
	if strings.TrimSpace(username) == "" {
		return fmt.Errorf("username is required")
	}
	if len(username) > world.MaxUsernameLength {
		return fmt.Errorf("username exceeds %d characters", world.MaxUsernameLength)
	}
	return nil
}

// Vec3 validates that every component of a movement vector is a finite
// number. NaN or infinite coordinates would poison every client that
// interpolates against them.
func Vec3(v world.Vec3) error {
	for _, c := range []struct {
		name  string
		value float64
	}{
		{"x", v.X},
		{"y", v.Y},
		{"z", v.Z},
	} {
		if math.IsNaN(c.value) {
			return fmt.Errorf("component %s is NaN", c.name)
		}
		if math.IsInf(c.value, 0) {
			return fmt.Errorf("component %s is infinite", c.name)
		}
	}
	return nil
}

// BroadcastMessage validates an admin announcement
func BroadcastMessage(message string) error {
	if strings.TrimSpace(message) == "" {
		return fmt.Errorf("broadcast message is required")
	}
	if len(message) > world.MaxBroadcastLength {
		return fmt.Errorf("broadcast message exceeds %d characters", world.MaxBroadcastLength)
	}
	return nil
}
