package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/ytxq/internal/overlay"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgStatus MsgKind = iota
	MsgResumed
	MsgStopped
)

// statusMsg is the constructor for [MsgStatus]
func statusMsg(s overlay.Status) Msg {
	return Msg{kind: MsgStatus, data: s}
}

// resumedMsg is the constructor for [MsgResumed]; err is nil on success
func resumedMsg(err error) Msg {
	return Msg{kind: MsgResumed, data: err}
}

// stoppedMsg is the constructor for [MsgStopped]; err is the controller's exit error
func stoppedMsg(err error) Msg {
	return Msg{kind: MsgStopped, data: err}
}

func (m Msg) err() error {
	err, _ := m.data.(error)
	return err
}
