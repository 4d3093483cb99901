package world

import "math/rand/v2"

// Spawner produces spawn points inside a bounded square region so new
// players do not all appear at the origin on top of each other.
type Spawner struct {
	extent float64
}

// NewSpawner creates a spawner for the given extent. Non-positive
// extents fall back to DefaultSpawnExtent.
func NewSpawner(extent float64) *Spawner {
	if extent <= 0 {
		extent = DefaultSpawnExtent
	}
	return &Spawner{extent: extent}
}

// Next returns a randomized spawn point with x and z uniformly drawn
// from [-extent, extent] and y fixed at ground level.
func (s *Spawner) Next() Vec3 {
	return Vec3{
		X: rand.Float64()*2*s.extent - s.extent,
		Y: 0,
		Z: rand.Float64()*2*s.extent - s.extent,
	}
}

// DefaultSpawn returns a spawn point using the default extent. It is a
// convenience for tests and callers that do not carry a Spawner.
func DefaultSpawn() Vec3 {
	return NewSpawner(DefaultSpawnExtent).Next()
}
