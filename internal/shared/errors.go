package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")
	ErrMissingOwner  = fmt.Errorf("missing owner key")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrQueueNotFound      = fmt.Errorf("queue not found")
	ErrTimeout            = fmt.Errorf("operation timed out")

	// Playback errors
	ErrPlayerUnavailable = fmt.Errorf("player runtime unavailable")
	ErrUnplayable        = fmt.Errorf("item is not playable")
	ErrDisposed          = fmt.Errorf("capability already disposed")
	ErrNothingPlaying    = fmt.Errorf("nothing is playing")

	// Overlay errors
	ErrNotRunning     = fmt.Errorf("overlay is not running")
	ErrAlreadyRunning = fmt.Errorf("overlay is already running")

	// Persistence errors
	ErrPlayNotFound = fmt.Errorf("play not found")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
