package testing

import (
	"sync"

	"github.com/desertthunder/ytxq/internal/playback"
)

// MockCapability is an in-memory [playback.Capability] with scriptable position, duration and events.
type MockCapability struct {
	mu        sync.Mutex
	sourceID  string
	target    *playback.Target
	handler   func(playback.Event)
	elapsed   float64
	total     float64
	playErr   error
	playCalls int
	disposals int
}

// NewMockCapability creates a mock capability for sourceID.
func NewMockCapability(target *playback.Target, sourceID string) *MockCapability {
	return &MockCapability{target: target, sourceID: sourceID}
}

func (m *MockCapability) Play() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playCalls++
	return m.playErr
}

func (m *MockCapability) Dispose() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.disposals++
	return nil
}

func (m *MockCapability) Elapsed() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.elapsed
}

func (m *MockCapability) TotalDuration() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.total
}

func (m *MockCapability) Subscribe(handler func(playback.Event)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handler = handler
}

func (m *MockCapability) SourceID() string { return m.sourceID }

func (m *MockCapability) Target() *playback.Target { return m.target }

func (m *MockCapability) SetElapsed(s float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.elapsed = s
}

func (m *MockCapability) SetDuration(s float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.total = s
}

func (m *MockCapability) SetPlayError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playErr = err
}

func (m *MockCapability) PlayCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playCalls
}

func (m *MockCapability) Disposals() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.disposals
}

// Disposed reports whether Dispose has been called at least once.
func (m *MockCapability) Disposed() bool { return m.Disposals() > 0 }

// Subscribed reports whether an event handler is registered.
func (m *MockCapability) Subscribed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.handler != nil
}

// Emit delivers e to the registered handler, if any.
func (m *MockCapability) Emit(e playback.Event) {
	m.mu.Lock()
	handler := m.handler
	m.mu.Unlock()
	if handler != nil {
		handler(e)
	}
}

// MockFactory builds [MockCapability] values and records them.
//
// Calls counts every construction attempt, including ones failed by SetConstructError.
type MockFactory struct {
	mu           sync.Mutex
	built        []*MockCapability
	calls        int
	constructErr error
	playErr      error
	duration     float64
}

func NewMockFactory() *MockFactory { return &MockFactory{} }

// New satisfies [playback.Factory].
func (f *MockFactory) New(target *playback.Target, sourceID string) (playback.Capability, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.constructErr != nil {
		return nil, f.constructErr
	}
	m := NewMockCapability(target, sourceID)
	m.total = f.duration
	m.playErr = f.playErr
	f.built = append(f.built, m)
	return m, nil
}

// SetConstructError makes New fail with err until reset with nil.
func (f *MockFactory) SetConstructError(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.constructErr = err
}

// SetPlayError makes mocks built afterwards fail Play with err.
func (f *MockFactory) SetPlayError(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.playErr = err
}

// SetDuration sets the total duration reported by mocks built afterwards.
func (f *MockFactory) SetDuration(s float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.duration = s
}

// Built returns every mock constructed so far, oldest first.
func (f *MockFactory) Built() []*MockCapability {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*MockCapability(nil), f.built...)
}

func (f *MockFactory) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.built)
}

func (f *MockFactory) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// Last returns the newest mock, or nil.
func (f *MockFactory) Last() *MockCapability {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.built) == 0 {
		return nil
	}
	return f.built[len(f.built)-1]
}

var (
	_ playback.Capability = (*MockCapability)(nil)
	_ playback.Factory    = (*MockFactory)(nil).New
)
