// Package world defines the player state model for the Polytrack Race
// sync server.
//
// The world package implements:
//   - The Player record tracked per connected session
//   - 3-component vectors for position and rotation
//   - Randomized spawn placement inside a bounded region
//   - Public snapshot views safe to send to other clients
//
// Data Ownership:
//
// A Player's Position and Rotation are only ever written by that
// session's own move events; nothing in this package mutates another
// session's record. The Privileged flag is owned by the admin gate in
// game/service and is deliberately excluded from PlayerView so it never
// leaks onto the wire.
//
// Usage:
//
//	p := world.NewPlayer("a1b2", world.DefaultSpawn())
//	view := p.View() // safe to broadcast
package world
