package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// ItemID is the opaque identity of a queue entry.
//
// The queue service may send ids as JSON numbers or strings; both decode into an ItemID
// and encode back in the kind they arrived as. A string id that reads as an integer keeps
// its JSON quotes (`"42"`) so it never collides with the number 42.
// The zero value means "no item" and encodes as null.
type ItemID string

// IsZero reports whether id refers to no item.
func (id ItemID) IsZero() bool { return id == "" }

func (id ItemID) String() string {
	if id == "" {
		return "<none>"
	}
	return string(id)
}

// MarshalJSON encodes canonical integers as JSON numbers, quoted integers as JSON strings
// and everything else as strings.
func (id ItemID) MarshalJSON() ([]byte, error) {
	if id == "" {
		return []byte("null"), nil
	}
	if isInteger(string(id)) || isQuotedInteger(string(id)) {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

func isInteger(s string) bool {
	n, err := strconv.ParseInt(s, 10, 64)
	return err == nil && strconv.FormatInt(n, 10) == s
}

func isQuotedInteger(s string) bool {
	return len(s) > 2 && s[0] == '"' && s[len(s)-1] == '"' && isInteger(s[1:len(s)-1])
}

// UnmarshalJSON accepts a JSON string, number, or null.
func (id *ItemID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*id = ""
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if isInteger(s) {
			s = strconv.Quote(s)
		}
		*id = ItemID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("item id must be a string or number: %s", data)
	}
	*id = ItemID(n.String())
	return nil
}

// Item is a playable queue entry. Items are immutable once observed;
// an entry with the same SourceID but a different ID is a distinct entry.
type Item struct {
	ID              ItemID  `json:"id"`
	SourceID        string  `json:"sourceId"` // locator understood by the playback backend
	Title           *string `json:"title"`
	DurationSeconds *int    `json:"durationSeconds"`
	RequestedBy     string  `json:"requestedBy"`
}

// DisplayTitle returns the title, falling back to the source locator.
func (i Item) DisplayTitle() string {
	if i.Title != nil && *i.Title != "" {
		return *i.Title
	}
	return i.SourceID
}

// KnownDuration returns the server-side duration and whether the server has one.
func (i Item) KnownDuration() (int, bool) {
	if i.DurationSeconds == nil {
		return 0, false
	}
	return *i.DurationSeconds, true
}

// QueueSnapshot is the server-authoritative state of one owner's queue.
//
// Clients hold it read-only and replace it wholesale on every successful fetch or mutation response.
type QueueSnapshot struct {
	Enabled             bool   `json:"enabled"`
	Current             *Item  `json:"current"`
	Queue               []Item `json:"queue"`
	QueueSize           int    `json:"queueSize"`
	TotalQueuedDuration *int   `json:"totalQueuedDuration"`
}

// CurrentID returns the id of the now-playing item, or the zero ItemID.
func (s *QueueSnapshot) CurrentID() ItemID {
	if s == nil || s.Current == nil {
		return ""
	}
	return s.Current.ID
}

// Inert reports whether an overlay following s should render nothing and hold no player.
func (s *QueueSnapshot) Inert() bool {
	if s == nil || !s.Enabled {
		return true
	}
	return s.Current == nil && len(s.Queue) == 0
}

// Stalled reports whether the server has queued items but nothing current.
func (s *QueueSnapshot) Stalled() bool {
	return s != nil && s.Enabled && s.Current == nil && len(s.Queue) > 0
}
