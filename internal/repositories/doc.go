// Package repositories implements SQLite persistence for the overlay's play history.
//
// [PlayRepository] records every item the overlay plays: when it started, when it ended and why.
// Rows are soft-deleted via deleted_at timestamps and excluded from queries by default.
//
// Sequence numbers provide stable, human-readable ordering (e.g., play #42) independent of UUIDs and timestamps.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
