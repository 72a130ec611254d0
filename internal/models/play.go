package models

import (
	"fmt"
	"time"
)

// EndReason records why the overlay stopped playing an item.
type EndReason string

const (
	EndReasonNone      EndReason = ""
	EndReasonEnded     EndReason = "ended"     // explicit end event from the player
	EndReasonDuration  EndReason = "duration"  // elapsed reached the reported duration
	EndReasonError     EndReason = "error"     // player reported the item unplayable
	EndReasonFailed    EndReason = "failed"    // player could not be constructed or started
	EndReasonReplaced  EndReason = "replaced"  // server moved on without this client advancing
	EndReasonUnmounted EndReason = "unmounted" // overlay shut down mid-item
)

// Valid reports whether r is one of the known reasons.
func (r EndReason) Valid() bool {
	switch r {
	case EndReasonNone, EndReasonEnded, EndReasonDuration, EndReasonError,
		EndReasonFailed, EndReasonReplaced, EndReasonUnmounted:
		return true
	}
	return false
}

// Play is one item played by the overlay for an owner.
type Play struct {
	id              string
	sequence        int
	owner           string
	itemID          ItemID
	sourceID        string
	title           string
	requestedBy     string
	durationSeconds int
	startedAt       time.Time
	endedAt         *time.Time
	endReason       EndReason
	createdAt       time.Time
	updatedAt       time.Time
	deletedAt       *time.Time
}

// NewPlay creates a Play for item starting at startedAt.
func NewPlay(owner string, item Item, startedAt time.Time) *Play {
	now := time.Now()
	p := &Play{
		owner:       owner,
		itemID:      item.ID,
		sourceID:    item.SourceID,
		requestedBy: item.RequestedBy,
		startedAt:   startedAt,
		createdAt:   now,
		updatedAt:   now,
	}
	if item.Title != nil {
		p.title = *item.Title
	}
	if d, ok := item.KnownDuration(); ok {
		p.durationSeconds = d
	}
	return p
}

func (p *Play) ID() string                { return p.id }
func (p *Play) Sequence() int             { return p.sequence }
func (p *Play) Owner() string             { return p.owner }
func (p *Play) ItemID() ItemID            { return p.itemID }
func (p *Play) SourceID() string          { return p.sourceID }
func (p *Play) Title() string             { return p.title }
func (p *Play) RequestedBy() string       { return p.requestedBy }
func (p *Play) DurationSeconds() int      { return p.durationSeconds }
func (p *Play) StartedAt() time.Time      { return p.startedAt }
func (p *Play) EndedAt() *time.Time       { return p.endedAt }
func (p *Play) EndReason() EndReason      { return p.endReason }
func (p *Play) CreatedAt() time.Time      { return p.createdAt }
func (p *Play) UpdatedAt() time.Time      { return p.updatedAt }
func (p *Play) DeletedAt() *time.Time     { return p.deletedAt }
func (p *Play) SetID(id string)           { p.id = id }
func (p *Play) SetSequence(seq int)       { p.sequence = seq }
func (p *Play) SetCreatedAt(t time.Time)  { p.createdAt = t }
func (p *Play) SetUpdatedAt(t time.Time)  { p.updatedAt = t }
func (p *Play) SetDeletedAt(t *time.Time) { p.deletedAt = t }
func (p *Play) SetDurationSeconds(d int)  { p.durationSeconds = d }

// Finish marks the play as ended at t for reason.
func (p *Play) Finish(t time.Time, reason EndReason) {
	p.endedAt = &t
	p.endReason = reason
}

// Ended reports whether the play has finished.
func (p *Play) Ended() bool { return p.endedAt != nil }

// Validate checks required fields and timestamp ordering.
func (p *Play) Validate() error {
	if p.owner == "" {
		return fmt.Errorf("owner is required")
	}
	if p.itemID.IsZero() {
		return fmt.Errorf("item id is required")
	}
	if p.sourceID == "" {
		return fmt.Errorf("source id is required")
	}
	if p.startedAt.IsZero() {
		return fmt.Errorf("started_at is required")
	}
	if p.endedAt != nil && p.endedAt.Before(p.startedAt) {
		return fmt.Errorf("ended_at precedes started_at")
	}
	if !p.endReason.Valid() {
		return fmt.Errorf("unknown end reason %q", p.endReason)
	}
	return nil
}

var _ Model = (*Play)(nil)
