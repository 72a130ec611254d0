// Package playback defines the single-item player [Capability] the overlay drives, and its backends.
//
// # Capabilities
//
// A capability plays exactly one item and reports back through [Event] values:
//   - [EventReady] : media loaded, position and duration are meaningful
//   - [EventStateChanged] : playing, paused, buffering or ended
//   - [EventError] : the item cannot be played
//   - [EventAutoplayBlocked] : the backend refused to start without a user gesture
//
// Capabilities are built by a [Factory] into a private [Target] allocated from a [Surface].
// The surface root is never handed to a capability, so tearing one down cannot disturb
// the next.
//
// # mpv
//
// [NewMPVFactory] runs one mpv process per item and drives it over mpv's JSON-IPC socket,
// which lives inside the item's target directory. A process-wide [Loader] checks the mpv
// binary once before the first item is built.
package playback
