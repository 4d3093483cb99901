// Package session provides the connection registry for the Polytrack
// Race sync server.
//
// The session package implements:
//   - The single source of truth mapping session ids to player records
//   - Guarded insertion (duplicate ids rejected)
//   - Idempotent removal for duplicate disconnect signals
//   - Consistent point-in-time snapshots for initial-state transfer
//
// Concurrency:
//
// All registry operations are guarded by an RWMutex so they remain
// correct on a multi-threaded runtime where connect, update, and
// disconnect handlers for different connections interleave. Compound
// "read-modify-write then broadcast" sequences are serialized one level
// up, in game/service.
package session
