package formatter

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/ytxq/internal/models"
	"github.com/desertthunder/ytxq/internal/shared"
	th "github.com/desertthunder/ytxq/internal/testing"
)

func testSnapshot() *models.QueueSnapshot {
	title := "Never Gonna Give You Up"
	current := th.NewItem("3", "yt:dQw4w9WgXcQ", 213)
	current.Title = &title
	total := 300
	return &models.QueueSnapshot{
		Enabled:             true,
		Current:             &current,
		Queue:               []models.Item{th.NewItem("4", "yt:abcdefghijk", 300), th.NewItem("x-5", "https://example.com/a.mp3", 0)},
		QueueSize:           2,
		TotalQueuedDuration: &total,
	}
}

func testPlays() []*models.Play {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	title := "Song | One"
	first := th.NewItem("1", "yt:dQw4w9WgXcQ", 200)
	first.Title = &title
	p1 := models.NewPlay("chan", first, start)
	p1.SetSequence(1)
	p1.Finish(start.Add(200*time.Second), models.EndReasonEnded)

	p2 := models.NewPlay("chan", th.NewItem("2", "yt:abcdefghijk", 0), start.Add(201*time.Second))
	p2.SetSequence(2)
	return []*models.Play{p1, p2}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
	}{
		{"", FormatText},
		{"TEXT", FormatText},
		{"json", FormatJSON},
		{"md", FormatMarkdown},
		{"markdown", FormatMarkdown},
		{" csv ", FormatCSV},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}

	t.Run("unknown", func(t *testing.T) {
		if _, err := ParseFormat("yaml"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}

func TestSnapshot(t *testing.T) {
	snap := testSnapshot()

	t.Run("text", func(t *testing.T) {
		out := string(SnapshotToText(snap, "chan"))
		for _, want := range []string{
			"Queue: chan (enabled)",
			"Now playing: [3] Never Gonna Give You Up (3:33) requested by tester",
			"Up next: 2 (5:00)",
			"1. [4] yt:abcdefghijk (5:00)",
			"2. [x-5] https://example.com/a.mp3 (?)",
		} {
			if !strings.Contains(out, want) {
				t.Errorf("text output missing %q, got:\n%s", want, out)
			}
		}
	})

	t.Run("text when idle", func(t *testing.T) {
		out := string(SnapshotToText(&models.QueueSnapshot{}, "chan"))
		if !strings.Contains(out, "(disabled)") || !strings.Contains(out, "Now playing: nothing") {
			t.Errorf("unexpected idle output:\n%s", out)
		}
	})

	t.Run("markdown", func(t *testing.T) {
		out := string(SnapshotToMarkdown(snap, "chan"))
		for _, want := range []string{"# Queue for chan", "## Now Playing", "## Up Next (2)", "**Total**: 5:00"} {
			if !strings.Contains(out, want) {
				t.Errorf("markdown missing %q", want)
			}
		}

		empty := string(SnapshotToMarkdown(&models.QueueSnapshot{Enabled: true}, "chan"))
		if !strings.Contains(empty, "_Nothing is playing._") || !strings.Contains(empty, "_The queue is empty._") {
			t.Errorf("unexpected empty markdown:\n%s", empty)
		}
	})

	t.Run("json keeps the wire shape", func(t *testing.T) {
		data, err := Snapshot(snap, "chan", FormatJSON)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var decoded models.QueueSnapshot
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if decoded.CurrentID() != "3" || len(decoded.Queue) != 2 {
			t.Errorf("unexpected decoded snapshot: %+v", decoded)
		}
		if !strings.Contains(string(data), `"id": 3`) {
			t.Errorf("numeric id should encode as a number:\n%s", data)
		}
	})

	t.Run("csv", func(t *testing.T) {
		data, err := Snapshot(snap, "chan", FormatCSV)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		lines := strings.Split(strings.TrimSpace(string(data)), "\n")
		if len(lines) != 3 {
			t.Fatalf("expected header plus 2 rows, got %d", len(lines))
		}
		if lines[0] != "ID,Source,Title,Duration,Requested By" {
			t.Errorf("unexpected header %q", lines[0])
		}
		if lines[2] != "x-5,https://example.com/a.mp3,,,tester" {
			t.Errorf("unknown duration should be blank, got %q", lines[2])
		}
	})
}

func TestHistory(t *testing.T) {
	plays := testPlays()

	t.Run("text", func(t *testing.T) {
		out := string(PlaysToText(plays))
		if !strings.Contains(out, "Plays: 2") {
			t.Errorf("missing count:\n%s", out)
		}
		if !strings.Contains(out, "Song | One [3:20] (ended)") {
			t.Errorf("missing finished play:\n%s", out)
		}
		if !strings.Contains(out, "yt:abcdefghijk [0:00] (playing)") {
			t.Errorf("missing open play:\n%s", out)
		}
	})

	t.Run("markdown escapes pipes", func(t *testing.T) {
		out := string(PlaysToMarkdown(plays))
		if !strings.Contains(out, `Song \| One`) {
			t.Errorf("pipe not escaped:\n%s", out)
		}
		if strings.Count(out, "\n| ") != 3 {
			t.Errorf("expected header and 2 rows:\n%s", out)
		}
	})

	t.Run("csv", func(t *testing.T) {
		data, err := PlaysToCSV(plays)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		out := string(data)
		if !strings.HasPrefix(out, "Sequence,Owner,Item ID,Source,Title,Requested By,Duration,Started,Ended,Reason\n") {
			t.Errorf("unexpected header:\n%s", out)
		}
		if !strings.Contains(out, "1,chan,1,yt:dQw4w9WgXcQ,Song | One,tester,200,2026-03-01T12:00:00Z,2026-03-01T12:03:20Z,ended") {
			t.Errorf("unexpected first row:\n%s", out)
		}
	})

	t.Run("json", func(t *testing.T) {
		data, err := History(plays, FormatJSON)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var views []map[string]any
		if err := json.Unmarshal(data, &views); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(views) != 2 || views[0]["endReason"] != "ended" || views[1]["endedAt"] != nil {
			t.Errorf("unexpected views: %v", views)
		}
	})
}

func TestWriteFile(t *testing.T) {
	t.Run("creates parent directories", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "exports", "queue.md")
		if err := WriteFile(path, []byte("# hi\n")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		th.AssertFileExists(t, path)
		if got := th.MustReadFile(t, path); got != "# hi\n" {
			t.Errorf("unexpected content %q", got)
		}
	})

	t.Run("empty path", func(t *testing.T) {
		if err := WriteFile("", nil); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})
}
