// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/ytxq/internal/models"
)

// FakeQueueService is an in-memory stand-in for the queue service.
//
// Advance follows the server's rules: completing the current item (or kickstarting
// with no current item) promotes the queue head; a stale completed id returns the
// state unchanged.
type FakeQueueService struct {
	mu         sync.Mutex
	snap       models.QueueSnapshot
	fetchErr   error
	advanceErr error
	canned     *models.QueueSnapshot
	gate       chan struct{}

	fetches   int
	advances  []models.ItemID
	durations map[models.ItemID]int
	reports   int
}

// NewFakeQueueService creates a fake serving an enabled queue with current followed by queued.
func NewFakeQueueService(current *models.Item, queued ...models.Item) *FakeQueueService {
	f := &FakeQueueService{durations: map[models.ItemID]int{}}
	f.snap = models.QueueSnapshot{Enabled: true, Current: current, Queue: append([]models.Item(nil), queued...)}
	f.recount()
	return f
}

// SetSnapshot replaces the served state.
func (f *FakeQueueService) SetSnapshot(s models.QueueSnapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snap = s
	f.recount()
}

// SetEnabled toggles the served enabled flag.
func (f *FakeQueueService) SetEnabled(enabled bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snap.Enabled = enabled
}

// FetchCount returns how many times FetchState has been called.
func (f *FakeQueueService) FetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches
}

// Snapshot returns a copy of the served state.
func (f *FakeQueueService) Snapshot() *models.QueueSnapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.copySnapshot()
}

// FailFetch makes FetchState return err until reset with nil.
func (f *FakeQueueService) FailFetch(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetchErr = err
}

// RespondToNextAdvance makes the next successful Advance return s as-is without touching the queue.
func (f *FakeQueueService) RespondToNextAdvance(s models.QueueSnapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.canned = &s
}

// FailAdvance makes Advance return err until reset with nil.
func (f *FakeQueueService) FailAdvance(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.advanceErr = err
}

// HoldAdvance makes Advance block until the returned release func is called.
func (f *FakeQueueService) HoldAdvance() (release func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	gate := make(chan struct{})
	f.gate = gate
	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			if f.gate == gate {
				f.gate = nil
			}
			f.mu.Unlock()
			close(gate)
		})
	}
}

// AdvanceCalls returns a copy of the completed ids passed to Advance.
func (f *FakeQueueService) AdvanceCalls() []models.ItemID {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.ItemID(nil), f.advances...)
}

// ReportedDuration returns the duration reported for id, if any.
func (f *FakeQueueService) ReportedDuration(id models.ItemID) (int, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.durations[id]
	return d, ok
}

// DurationReports returns how many times ReportDuration has been called.
func (f *FakeQueueService) DurationReports() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reports
}

func (f *FakeQueueService) FetchState(ctx context.Context, owner string) (*models.QueueSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.copySnapshot(), nil
}

func (f *FakeQueueService) Advance(ctx context.Context, owner string, completed models.ItemID) (*models.QueueSnapshot, error) {
	f.mu.Lock()
	f.advances = append(f.advances, completed)
	gate := f.gate
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.advanceErr != nil {
		return nil, f.advanceErr
	}

	if f.canned != nil {
		snap := *f.canned
		f.canned = nil
		return &snap, nil
	}

	if completed == f.snap.CurrentID() {
		f.snap.Current = nil
		if len(f.snap.Queue) > 0 {
			head := f.snap.Queue[0]
			f.snap.Current = &head
			f.snap.Queue = f.snap.Queue[1:]
		}
		f.recount()
	}
	return f.copySnapshot(), nil
}

func (f *FakeQueueService) ReportDuration(ctx context.Context, owner string, id models.ItemID, seconds int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reports++
	f.durations[id] = seconds
	if f.snap.Current != nil && f.snap.Current.ID == id {
		item := *f.snap.Current
		item.DurationSeconds = &seconds
		f.snap.Current = &item
	}
	return nil
}

func (f *FakeQueueService) recount() {
	f.snap.QueueSize = len(f.snap.Queue)
	total, known := 0, false
	for _, it := range f.snap.Queue {
		if d, ok := it.KnownDuration(); ok {
			total += d
			known = true
		}
	}
	f.snap.TotalQueuedDuration = nil
	if known {
		f.snap.TotalQueuedDuration = &total
	}
}

func (f *FakeQueueService) copySnapshot() *models.QueueSnapshot {
	s := f.snap
	if s.Current != nil {
		cur := *s.Current
		s.Current = &cur
	}
	s.Queue = append([]models.Item(nil), s.Queue...)
	return &s
}

// NewItem builds a queue item with an optional known duration (0 means unknown).
func NewItem(id, sourceID string, durationSeconds int) models.Item {
	item := models.Item{ID: models.ItemID(id), SourceID: sourceID, RequestedBy: "tester"}
	if durationSeconds > 0 {
		item.DurationSeconds = &durationSeconds
	}
	return item
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
