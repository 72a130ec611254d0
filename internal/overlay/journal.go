package overlay

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytxq/internal/models"
)

const journalBuffer = 32

// PlayStore persists journal entries. Implemented by [repositories.PlayRepository].
type PlayStore interface {
	Create(play *models.Play) error
	Update(play *models.Play) error
}

type entryKind int

const (
	entryStart entryKind = iota
	entryDuration
	entryFinish
)

type journalEntry struct {
	kind     entryKind
	key      uint64
	owner    string
	item     models.Item
	at       time.Time
	reason   models.EndReason
	duration int
}

// Journal records plays on its own goroutine so the controller never waits on disk.
//
// Entries are keyed by capability generation. When the buffer is full entries are
// dropped and counted. A nil *Journal discards everything.
type Journal struct {
	store   PlayStore
	logger  *log.Logger
	entries chan journalEntry
	done    chan struct{}
	dropped atomic.Int64

	mu     sync.Mutex
	closed bool
}

// NewJournal starts a journal writing to store.
func NewJournal(store PlayStore, logger *log.Logger) *Journal {
	if logger == nil {
		logger = log.Default()
	}
	j := &Journal{
		store:   store,
		logger:  logger.With("component", "journal"),
		entries: make(chan journalEntry, journalBuffer),
		done:    make(chan struct{}),
	}
	go j.run()
	return j
}

// Start records that the capability identified by key began playing item.
func (j *Journal) Start(key uint64, owner string, item models.Item, at time.Time) {
	j.send(journalEntry{kind: entryStart, key: key, owner: owner, item: item, at: at})
}

// Duration stores a measured duration on the play started under key.
func (j *Journal) Duration(key uint64, seconds int) {
	j.send(journalEntry{kind: entryDuration, key: key, duration: seconds})
}

// Finish closes the play started under key with reason.
func (j *Journal) Finish(key uint64, at time.Time, reason models.EndReason) {
	j.send(journalEntry{kind: entryFinish, key: key, at: at, reason: reason})
}

// Dropped returns how many entries were discarded because the buffer was full.
func (j *Journal) Dropped() int64 {
	if j == nil {
		return 0
	}
	return j.dropped.Load()
}

// Close flushes queued entries and stops the writer. Later calls are no-ops.
func (j *Journal) Close() error {
	if j == nil {
		return nil
	}
	j.mu.Lock()
	if j.closed {
		j.mu.Unlock()
		return nil
	}
	j.closed = true
	close(j.entries)
	j.mu.Unlock()

	<-j.done
	return nil
}

func (j *Journal) send(e journalEntry) {
	if j == nil {
		return
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return
	}
	select {
	case j.entries <- e:
	default:
		j.dropped.Add(1)
		j.logger.Warn("journal buffer full, dropping entry", "key", e.key)
	}
}

func (j *Journal) run() {
	defer close(j.done)

	open := make(map[uint64]*models.Play)
	for e := range j.entries {
		switch e.kind {
		case entryStart:
			play := models.NewPlay(e.owner, e.item, e.at)
			if err := j.store.Create(play); err != nil {
				j.logger.Warn("failed to record play", "item", e.item.ID, "error", err)
				continue
			}
			open[e.key] = play
		case entryDuration:
			play, ok := open[e.key]
			if !ok {
				continue
			}
			play.SetDurationSeconds(e.duration)
			if err := j.store.Update(play); err != nil {
				j.logger.Warn("failed to update play duration", "play", play.ID(), "error", err)
			}
		case entryFinish:
			play, ok := open[e.key]
			if !ok {
				continue
			}
			delete(open, e.key)
			play.Finish(e.at, e.reason)
			if err := j.store.Update(play); err != nil {
				j.logger.Warn("failed to finish play", "play", play.ID(), "error", err)
			}
		}
	}
}
