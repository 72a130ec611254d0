// Package overlay keeps an unattended player in lock-step with a server-authoritative queue.
//
// A [Controller] owns at most one [playback.Capability] at a time. It polls the queue service,
// rebuilds the capability whenever the server's current item changes identity, and asks the
// server to advance when the item ends, errors, runs past its duration, or when the server
// reports a queue with nothing current.
//
// # Event Loop
//
// [Controller.Run] is a single goroutine. Poll ticks, progress ticks, player events, network
// results and external commands ([Controller.Resume]) are all handled there, so controller
// state is never shared. Network calls run on their own goroutines and post results back;
// results arriving after unmount are dropped.
//
// # Guarantees
//
//   - A capability is live iff a current item id is set.
//   - At most one advance request is outstanding.
//   - Position resets to zero whenever a capability is created.
//   - Events from a disposed capability never reach controller state.
//
// # Observability
//
// [Controller.Status] returns an immutable [Status] snapshot for the preview TUI and the HTTP
// status server. A [Journal] optionally records every play to the database.
package overlay
