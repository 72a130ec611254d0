package overlay

import (
	"time"

	"github.com/desertthunder/ytxq/internal/models"
	"github.com/desertthunder/ytxq/internal/playback"
)

// Status is a read-only view of a controller, republished after every loop step.
//
// Values are immutable once published; Current and Queue alias the snapshot, which is never mutated.
type Status struct {
	Owner               string         `json:"owner"`
	Session             string         `json:"session"`
	Mounted             bool           `json:"mounted"`
	Synced              bool           `json:"synced"`
	LastSync            *time.Time     `json:"lastSync"`
	PollFailures        int            `json:"pollFailures"`
	Enabled             bool           `json:"enabled"`
	Current             *models.Item   `json:"current"`
	Queue               []models.Item  `json:"queue"`
	QueueSize           int            `json:"queueSize"`
	TotalQueuedDuration *int           `json:"totalQueuedDuration"`
	Live                bool           `json:"live"`
	State               playback.State `json:"state"`
	Elapsed             float64        `json:"elapsed"`
	Duration            float64        `json:"duration"`
	Tracking            bool           `json:"tracking"`
	Advancing           bool           `json:"advancing"`
	Advances            int            `json:"advances"`
	NeedsManualResume   bool           `json:"needsManualResume"`
	Generation          uint64         `json:"generation"`
	JournalDropped      int64          `json:"journalDropped"`
}

// Progress returns elapsed as a fraction of the duration, clamped to [0, 1].
func (s Status) Progress() float64 {
	if s.Duration <= 0 {
		return 0
	}
	p := s.Elapsed / s.Duration
	switch {
	case p < 0:
		return 0
	case p > 1:
		return 1
	}
	return p
}

// Status returns the latest published status. Safe from any goroutine.
func (c *Controller) Status() Status {
	return *c.status.Load()
}

func (c *Controller) publish() {
	s := &Status{
		Owner:             c.owner,
		Session:           c.session,
		Mounted:           c.mounted,
		PollFailures:      c.pollFailures,
		Current:           c.current,
		Live:              c.live != nil,
		State:             c.state,
		Elapsed:           c.elapsed,
		Tracking:          c.progress != nil,
		Advancing:         c.advancing,
		Advances:          c.advances,
		NeedsManualResume: c.needsResume,
		Generation:        c.gen,
		JournalDropped:    c.journal.Dropped(),
	}
	if c.live != nil {
		s.Duration = c.live.TotalDuration()
	}
	if snap := c.snapshot; snap != nil {
		last := c.lastSync
		s.Synced = true
		s.LastSync = &last
		s.Enabled = snap.Enabled
		s.Queue = snap.Queue
		s.QueueSize = snap.QueueSize
		s.TotalQueuedDuration = snap.TotalQueuedDuration
	}
	c.status.Store(s)
}
