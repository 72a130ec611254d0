// Package models defines domain entities and persistence interfaces for the ytxq overlay.
//
// The package contains two categories of types:
//
// 1. Queue state mirrored from the queue service (read-only on the client):
//   - [QueueSnapshot] : Server-authoritative view of one owner's queue
//   - [Item] : A playable queue entry, immutable once observed
//   - [ItemID] : Opaque item identity; the zero value stands for "no item"
//
// 2. Persistent Entities:
//   - [Play] : One item played by the overlay, with start/end timestamps and end reason
//
// Persistent entities implement the Model interface providing ID generation, timestamps, validation, and soft delete support.
// The Repository[T] interface defines standard CRUD operations for database access.
package models
