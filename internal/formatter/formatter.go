// package formatter renders queue snapshots and play history as text, JSON, Markdown and CSV
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/ytxq/internal/models"
	"github.com/desertthunder/ytxq/internal/shared"
)

// Format is an output format name accepted by the CLI.
type Format string

const (
	FormatText     Format = "text"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
	FormatCSV      Format = "csv"
)

// ParseFormat resolves a format flag value. "md" is accepted for Markdown.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "txt":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "csv":
		return FormatCSV, nil
	}
	return "", fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, s)
}

func duration(d *int) string {
	if d == nil {
		return "?"
	}
	return shared.FormatDuration(*d)
}

// Snapshot renders snap in format f. CSV lists the upcoming queue only.
func Snapshot(snap *models.QueueSnapshot, owner string, f Format) ([]byte, error) {
	switch f {
	case FormatJSON:
		return marshal(snap)
	case FormatMarkdown:
		return SnapshotToMarkdown(snap, owner), nil
	case FormatCSV:
		return QueueToCSV(snap.Queue)
	default:
		return SnapshotToText(snap, owner), nil
	}
}

// SnapshotToText renders a short human summary of snap.
func SnapshotToText(snap *models.QueueSnapshot, owner string) []byte {
	var buf bytes.Buffer

	state := "enabled"
	if !snap.Enabled {
		state = "disabled"
	}
	fmt.Fprintf(&buf, "Queue: %s (%s)\n", owner, state)

	if cur := snap.Current; cur != nil {
		fmt.Fprintf(&buf, "Now playing: [%s] %s (%s) requested by %s\n", cur.ID, cur.DisplayTitle(), duration(cur.DurationSeconds), cur.RequestedBy)
	} else {
		buf.WriteString("Now playing: nothing\n")
	}

	fmt.Fprintf(&buf, "Up next: %d", snap.QueueSize)
	if snap.TotalQueuedDuration != nil {
		fmt.Fprintf(&buf, " (%s)", shared.FormatDuration(*snap.TotalQueuedDuration))
	}
	buf.WriteString("\n")

	for i, item := range snap.Queue {
		fmt.Fprintf(&buf, "%d. [%s] %s (%s) requested by %s\n", i+1, item.ID, item.DisplayTitle(), duration(item.DurationSeconds), item.RequestedBy)
	}
	return buf.Bytes()
}

// SnapshotToMarkdown renders snap as a Markdown document.
func SnapshotToMarkdown(snap *models.QueueSnapshot, owner string) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# Queue for %s\n\n", owner)
	if !snap.Enabled {
		buf.WriteString("**Status**: disabled\n\n")
	}

	buf.WriteString("## Now Playing\n\n")
	if cur := snap.Current; cur != nil {
		fmt.Fprintf(&buf, "%s [%s] - requested by %s\n\n", cur.DisplayTitle(), duration(cur.DurationSeconds), cur.RequestedBy)
	} else {
		buf.WriteString("_Nothing is playing._\n\n")
	}

	fmt.Fprintf(&buf, "## Up Next (%d)\n\n", snap.QueueSize)
	if len(snap.Queue) == 0 {
		buf.WriteString("_The queue is empty._\n")
	}
	for i, item := range snap.Queue {
		fmt.Fprintf(&buf, "%d. %s [%s] - requested by %s\n", i+1, item.DisplayTitle(), duration(item.DurationSeconds), item.RequestedBy)
	}
	if snap.TotalQueuedDuration != nil {
		fmt.Fprintf(&buf, "\n**Total**: %s\n", shared.FormatDuration(*snap.TotalQueuedDuration))
	}
	return buf.Bytes()
}

// QueueToCSV converts queue items to CSV with columns: ID, Source, Title, Duration, Requested By
func QueueToCSV(items []models.Item) ([]byte, error) {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		d := ""
		if s, ok := item.KnownDuration(); ok {
			d = strconv.Itoa(s)
		}
		title := ""
		if item.Title != nil {
			title = *item.Title
		}
		rows = append(rows, []string{string(item.ID), item.SourceID, title, d, item.RequestedBy})
	}
	return writeCSV([]string{"ID", "Source", "Title", "Duration", "Requested By"}, rows)
}

// History renders plays in format f.
func History(plays []*models.Play, f Format) ([]byte, error) {
	switch f {
	case FormatJSON:
		return marshal(PlayViews(plays))
	case FormatMarkdown:
		return PlaysToMarkdown(plays), nil
	case FormatCSV:
		return PlaysToCSV(plays)
	default:
		return PlaysToText(plays), nil
	}
}

// PlayView is the exported shape of a [models.Play].
type PlayView struct {
	ID              string           `json:"id"`
	Sequence        int              `json:"sequence"`
	Owner           string           `json:"owner"`
	ItemID          models.ItemID    `json:"itemId"`
	SourceID        string           `json:"sourceId"`
	Title           string           `json:"title,omitempty"`
	RequestedBy     string           `json:"requestedBy,omitempty"`
	DurationSeconds int              `json:"durationSeconds,omitempty"`
	StartedAt       time.Time        `json:"startedAt"`
	EndedAt         *time.Time       `json:"endedAt"`
	EndReason       models.EndReason `json:"endReason,omitempty"`
}

func PlayViews(plays []*models.Play) []PlayView {
	views := make([]PlayView, 0, len(plays))
	for _, p := range plays {
		views = append(views, PlayView{
			ID:              p.ID(),
			Sequence:        p.Sequence(),
			Owner:           p.Owner(),
			ItemID:          p.ItemID(),
			SourceID:        p.SourceID(),
			Title:           p.Title(),
			RequestedBy:     p.RequestedBy(),
			DurationSeconds: p.DurationSeconds(),
			StartedAt:       p.StartedAt(),
			EndedAt:         p.EndedAt(),
			EndReason:       p.EndReason(),
		})
	}
	return views
}

func playTitle(p *models.Play) string {
	if p.Title() != "" {
		return p.Title()
	}
	return p.SourceID()
}

func playOutcome(p *models.Play) string {
	if !p.Ended() {
		return "playing"
	}
	if p.EndReason() == models.EndReasonNone {
		return "ended"
	}
	return string(p.EndReason())
}

// PlaysToText renders one line per play.
func PlaysToText(plays []*models.Play) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Plays: %d\n\n", len(plays))
	for _, p := range plays {
		fmt.Fprintf(&buf, "%s  %s  %s [%s] (%s)\n",
			p.StartedAt().Format(time.DateTime), p.Owner(), playTitle(p), shared.FormatDuration(p.DurationSeconds()), playOutcome(p))
	}
	return buf.Bytes()
}

// PlaysToMarkdown renders plays as a Markdown table.
func PlaysToMarkdown(plays []*models.Play) []byte {
	var buf bytes.Buffer
	buf.WriteString("# Play History\n\n")
	buf.WriteString("| # | Started | Owner | Title | Duration | Outcome |\n")
	buf.WriteString("|---|---------|-------|-------|----------|---------|\n")
	for _, p := range plays {
		title := strings.ReplaceAll(playTitle(p), "|", `\|`)
		fmt.Fprintf(&buf, "| %d | %s | %s | %s | %s | %s |\n",
			p.Sequence(), p.StartedAt().Format(time.DateTime), p.Owner(), title, shared.FormatDuration(p.DurationSeconds()), playOutcome(p))
	}
	return buf.Bytes()
}

// PlaysToCSV converts plays to CSV with columns: Sequence, Owner, Item ID, Source, Title, Requested By, Duration, Started, Ended, Reason
func PlaysToCSV(plays []*models.Play) ([]byte, error) {
	rows := make([][]string, 0, len(plays))
	for _, p := range plays {
		ended := ""
		if at := p.EndedAt(); at != nil {
			ended = at.UTC().Format(time.RFC3339)
		}
		rows = append(rows, []string{
			strconv.Itoa(p.Sequence()),
			p.Owner(),
			string(p.ItemID()),
			p.SourceID(),
			p.Title(),
			p.RequestedBy(),
			strconv.Itoa(p.DurationSeconds()),
			p.StartedAt().UTC().Format(time.RFC3339),
			ended,
			string(p.EndReason()),
		})
	}
	headers := []string{"Sequence", "Owner", "Item ID", "Source", "Title", "Requested By", "Duration", "Started", "Ended", "Reason"}
	return writeCSV(headers, rows)
}

func writeCSV(headers []string, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}
	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return buf.Bytes(), nil
}

func marshal(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return append(data, '\n'), nil
}

// WriteFile writes rendered output to path, creating parent directories.
func WriteFile(path string, data []byte) error {
	if path == "" {
		return fmt.Errorf("%w: output path is empty", shared.ErrMissingArgument)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
