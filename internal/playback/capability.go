package playback

import "fmt"

// State is the observed playback state of a capability.
type State string

const (
	StatePlaying   State = "playing"
	StatePaused    State = "paused"
	StateEnded     State = "ended"
	StateBuffering State = "buffering"
)

// EventKind identifies what a capability is reporting.
type EventKind int

const (
	EventReady EventKind = iota
	EventStateChanged
	EventError
	EventAutoplayBlocked
)

func (k EventKind) String() string {
	switch k {
	case EventReady:
		return "ready"
	case EventStateChanged:
		return "state_changed"
	case EventError:
		return "error"
	case EventAutoplayBlocked:
		return "autoplay_blocked"
	default:
		return fmt.Sprintf("event(%d)", int(k))
	}
}

// Event is emitted by a capability to its subscriber.
//
// State is only set for [EventStateChanged]; Err is only set for [EventError].
type Event struct {
	Kind  EventKind
	State State
	Err   error
}

func Ready() Event                  { return Event{Kind: EventReady} }
func StateChanged(s State) Event    { return Event{Kind: EventStateChanged, State: s} }
func Failed(err error) Event        { return Event{Kind: EventError, Err: err} }
func AutoplayBlocked() Event        { return Event{Kind: EventAutoplayBlocked} }
func (e Event) Is(k EventKind) bool { return e.Kind == k }

// Capability is a single-item player bound to one render target.
//
// A capability plays exactly one item. It is never reused for another item;
// the caller disposes it and constructs a new one instead.
type Capability interface {
	// Play starts, or resumes, playback.
	Play() error
	// Dispose stops playback and releases the backend. Safe to call more than once.
	Dispose() error
	// Elapsed returns the playback position in seconds.
	Elapsed() float64
	// TotalDuration returns the media length in seconds, or 0 while unknown.
	TotalDuration() float64
	// Subscribe registers the event handler. It must be called before Play.
	Subscribe(handler func(Event))
}

// Factory constructs a capability for sourceID rendering into target.
type Factory func(target *Target, sourceID string) (Capability, error)
