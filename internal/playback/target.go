package playback

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Surface is a render root owned by one controller.
//
// Capabilities never touch the root directly; each one gets a private child [Target]
// which is removed when the item is torn down.
type Surface struct {
	root string

	mu      sync.Mutex
	targets map[*Target]struct{}
}

// NewSurface creates (if needed) and takes ownership of root.
func NewSurface(root string) (*Surface, error) {
	if root == "" {
		return nil, fmt.Errorf("render root is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create render root: %w", err)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve render root: %w", err)
	}
	return &Surface{root: abs, targets: make(map[*Target]struct{})}, nil
}

// Root returns the absolute path of the surface.
func (s *Surface) Root() string { return s.root }

// NewTarget allocates a fresh child directory under the root.
func (s *Surface) NewTarget() (*Target, error) {
	dir, err := os.MkdirTemp(s.root, "item-*")
	if err != nil {
		return nil, fmt.Errorf("failed to allocate render target: %w", err)
	}

	t := &Target{dir: dir, surface: s}
	s.mu.Lock()
	s.targets[t] = struct{}{}
	s.mu.Unlock()
	return t, nil
}

// Live returns the number of targets not yet released.
func (s *Surface) Live() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.targets)
}

// Close releases every outstanding target. The root itself is left in place.
func (s *Surface) Close() error {
	s.mu.Lock()
	targets := make([]*Target, 0, len(s.targets))
	for t := range s.targets {
		targets = append(targets, t)
	}
	s.mu.Unlock()

	var errs []error
	for _, t := range targets {
		if err := t.Release(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *Surface) forget(t *Target) {
	s.mu.Lock()
	delete(s.targets, t)
	s.mu.Unlock()
}

// Target is a disposable child of a [Surface] holding one capability's files.
type Target struct {
	dir     string
	surface *Surface
	once    sync.Once
	err     error
}

// Dir returns the target directory.
func (t *Target) Dir() string { return t.dir }

// Path joins name onto the target directory.
func (t *Target) Path(name string) string { return filepath.Join(t.dir, name) }

// Release removes the target directory. Later calls return the first result.
func (t *Target) Release() error {
	t.once.Do(func() {
		if err := os.RemoveAll(t.dir); err != nil {
			t.err = fmt.Errorf("failed to release render target: %w", err)
		}
		if t.surface != nil {
			t.surface.forget(t)
		}
	})
	return t.err
}
