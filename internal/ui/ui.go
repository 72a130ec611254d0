package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/ytxq/internal/overlay"
	"github.com/desertthunder/ytxq/internal/shared"
)

const DefaultRefreshInterval = 250 * time.Millisecond

// Source is the overlay the preview watches.
type Source interface {
	Status() overlay.Status
	Resume() error
}

// Model represents the preview state.
type Model struct {
	source   Source
	done     <-chan error
	interval time.Duration
	status   overlay.Status
	queue    list.Model
	bar      progress.Model
	help     help.Model
	keys     keyMap
	notice   string
	err      error
	width    int
	height   int
}

// NewModel creates a preview of source. done, when non-nil, delivers the controller's exit error.
func NewModel(source Source, done <-chan error, interval time.Duration) *Model {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}

	queue := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	queue.Title = "Up Next"
	queue.SetShowHelp(false)
	queue.SetFilteringEnabled(false)
	queue.SetShowStatusBar(false)

	return &Model{
		source:   source,
		done:     done,
		interval: interval,
		status:   source.Status(),
		queue:    queue,
		bar:      progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		help:     help.New(),
		keys:     newKeyMap(),
	}
}

// Init reads the first status and starts watching for the controller to exit.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.refresh(), m.waitStopped())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.queue.SetSize(msg.Width-4, max(msg.Height-14, 3))
		m.bar.Width = max(min(msg.Width-24, 60), 10)
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.resume):
			m.notice = "resuming..."
			return m, m.resume()
		}
		var cmd tea.Cmd
		m.queue, cmd = m.queue.Update(msg)
		return m, cmd

	case Msg:
		switch msg.kind {
		case MsgStatus:
			m.status = msg.data.(overlay.Status)
			m.keys.resume.SetEnabled(m.status.NeedsManualResume)
			cmd := m.queue.SetItems(queueItems(m.status.Queue))
			return m, tea.Batch(cmd, m.tick())
		case MsgResumed:
			if err := msg.err(); err != nil {
				m.notice = fmt.Sprintf("resume failed: %v", err)
			} else {
				m.notice = "playback resumed"
			}
			return m, nil
		case MsgStopped:
			m.err = msg.err()
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m *Model) refresh() tea.Cmd {
	return func() tea.Msg { return statusMsg(m.source.Status()) }
}

func (m *Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(time.Time) tea.Msg { return statusMsg(m.source.Status()) })
}

func (m *Model) resume() tea.Cmd {
	return func() tea.Msg { return resumedMsg(m.source.Resume()) }
}

func (m *Model) waitStopped() tea.Cmd {
	if m.done == nil {
		return nil
	}
	done := m.done
	return func() tea.Msg { return stoppedMsg(<-done) }
}

// View renders the preview.
func (m *Model) View() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Overlay stopped: %v\n\nPress q to quit", m.err))
	}

	s := m.status
	var b strings.Builder

	b.WriteString(styles.title.Render("ytxq · " + s.Owner))
	b.WriteString("\n")
	b.WriteString(m.row("Status", m.renderState()))

	if cur := s.Current; cur != nil {
		b.WriteString(m.row("Playing", cur.DisplayTitle()))
		if cur.RequestedBy != "" {
			b.WriteString(m.row("From", cur.RequestedBy))
		}
		b.WriteString(m.row("Position", m.renderProgress()))
	} else {
		b.WriteString(m.row("Playing", styles.help.Render("nothing")))
	}

	if s.NeedsManualResume {
		b.WriteString("\n")
		b.WriteString(styles.warn.Render("Autoplay was blocked. Press r to resume."))
		b.WriteString("\n")
	}
	if m.notice != "" {
		b.WriteString("\n")
		b.WriteString(styles.help.Render(m.notice))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if len(s.Queue) > 0 {
		b.WriteString(m.queue.View())
	} else {
		b.WriteString(styles.help.Render("The queue is empty."))
	}
	b.WriteString("\n\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m *Model) row(label, value string) string {
	return styles.label.Render(label) + value + "\n"
}

func (m *Model) renderState() string {
	s := m.status
	var state string
	switch {
	case !s.Mounted:
		state = styles.err.Render("stopped")
	case !s.Synced:
		state = styles.help.Render("connecting")
	case !s.Enabled:
		state = styles.warn.Render("disabled")
	case !s.Live:
		state = styles.help.Render("idle")
	case s.State == "":
		state = styles.help.Render("loading")
	default:
		state = styles.ok.Render(string(s.State))
	}
	if s.Advancing {
		state += styles.help.Render(" (advancing)")
	}
	if s.PollFailures > 0 {
		state += " " + styles.warn.Render(fmt.Sprintf("%d failed polls", s.PollFailures))
	}
	return state
}

func (m *Model) renderProgress() string {
	s := m.status
	elapsed := shared.FormatDuration(int(s.Elapsed))
	if s.Duration <= 0 {
		return fmt.Sprintf("%s / ?", elapsed)
	}
	return fmt.Sprintf("%s %s / %s", m.bar.ViewAs(s.Progress()), elapsed, shared.FormatDuration(int(s.Duration)))
}
