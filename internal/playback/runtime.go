package playback

import (
	"context"
	"fmt"
	"os/exec"
	"sync"
	"time"

	"github.com/desertthunder/ytxq/internal/shared"
)

// Loader is an init-once readiness future for a playback runtime.
//
// The load function runs at most once per Loader no matter how many callers wait on it.
type Loader struct {
	load func(context.Context) error
	once sync.Once
	done chan struct{}
	err  error
}

// NewLoader returns a loader that runs load on first use.
func NewLoader(load func(context.Context) error) *Loader {
	return &Loader{load: load, done: make(chan struct{})}
}

// Start kicks off loading in the background without waiting.
func (l *Loader) Start(ctx context.Context) {
	l.once.Do(func() {
		ctx := context.WithoutCancel(ctx)
		go func() {
			defer close(l.done)
			l.err = l.load(ctx)
		}()
	})
}

// Ready waits until the runtime is loaded or ctx ends.
func (l *Loader) Ready(ctx context.Context) error {
	l.Start(ctx)
	select {
	case <-l.done:
		return l.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done reports whether loading has finished, and its result.
func (l *Loader) Done() (bool, error) {
	select {
	case <-l.done:
		return true, l.err
	default:
		return false, nil
	}
}

var defaultLoaders sync.Map

// DefaultLoader returns the process-wide loader for the mpv binary at path.
func DefaultLoader(binary string) *Loader {
	if binary == "" {
		binary = "mpv"
	}
	l, _ := defaultLoaders.LoadOrStore(binary, NewLoader(probeBinary(binary)))
	return l.(*Loader)
}

const probeTimeout = 10 * time.Second

func probeBinary(binary string) func(context.Context) error {
	return func(ctx context.Context) error {
		path, err := exec.LookPath(binary)
		if err != nil {
			return fmt.Errorf("%w: %v", shared.ErrPlayerUnavailable, err)
		}

		ctx, cancel := context.WithTimeout(ctx, probeTimeout)
		defer cancel()
		if err := exec.CommandContext(ctx, path, "--version").Run(); err != nil {
			return fmt.Errorf("%w: %s --version: %v", shared.ErrPlayerUnavailable, path, err)
		}
		return nil
	}
}
