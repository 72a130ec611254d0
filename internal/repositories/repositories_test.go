package repositories

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/ytxq/internal/models"
	"github.com/desertthunder/ytxq/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

func newTestPlay(owner, itemID string, startedAt time.Time) *models.Play {
	title := "Song " + itemID
	duration := 200
	item := models.Item{
		ID:              models.ItemID(itemID),
		SourceID:        "yt:dQw4w9WgXcQ",
		Title:           &title,
		DurationSeconds: &duration,
		RequestedBy:     "viewer",
	}
	return models.NewPlay(owner, item, startedAt)
}

func TestPlayRepository(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("Create", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewPlayRepository(db)
		play := newTestPlay("chan", "1", start)

		if err := repo.Create(play); err != nil {
			t.Fatalf("failed to create play: %v", err)
		}

		if play.ID() == "" {
			t.Error("play ID should be set after creation")
		}
		if play.Sequence() != 1 {
			t.Errorf("expected sequence 1, got %d", play.Sequence())
		}
	})

	t.Run("Get", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewPlayRepository(db)
		play := newTestPlay("chan", "7", start)
		if err := repo.Create(play); err != nil {
			t.Fatalf("failed to create play: %v", err)
		}

		retrieved, err := repo.Get(play.ID())
		if err != nil {
			t.Fatalf("failed to get play: %v", err)
		}

		if retrieved.ItemID() != "7" {
			t.Errorf("expected item id 7, got %s", retrieved.ItemID())
		}
		if retrieved.Title() != "Song 7" {
			t.Errorf("expected title Song 7, got %s", retrieved.Title())
		}
		if retrieved.DurationSeconds() != 200 {
			t.Errorf("expected duration 200, got %d", retrieved.DurationSeconds())
		}
		if !retrieved.StartedAt().Equal(start) {
			t.Errorf("expected started_at %v, got %v", start, retrieved.StartedAt())
		}
		if retrieved.Ended() {
			t.Error("new play should not be ended")
		}
	})

	t.Run("Finish", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewPlayRepository(db)
		play := newTestPlay("chan", "1", start)
		if err := repo.Create(play); err != nil {
			t.Fatalf("failed to create play: %v", err)
		}

		end := start.Add(3 * time.Minute)
		if err := repo.Finish(play.ID(), end, models.EndReasonDuration); err != nil {
			t.Fatalf("failed to finish play: %v", err)
		}

		retrieved, err := repo.Get(play.ID())
		if err != nil {
			t.Fatalf("failed to get play: %v", err)
		}
		if !retrieved.Ended() || !retrieved.EndedAt().Equal(end) {
			t.Errorf("expected ended_at %v, got %v", end, retrieved.EndedAt())
		}
		if retrieved.EndReason() != models.EndReasonDuration {
			t.Errorf("expected reason duration, got %s", retrieved.EndReason())
		}
	})

	t.Run("Update", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewPlayRepository(db)
		play := newTestPlay("chan", "1", start)
		if err := repo.Create(play); err != nil {
			t.Fatalf("failed to create play: %v", err)
		}

		play.SetDurationSeconds(215)
		if err := repo.Update(play); err != nil {
			t.Fatalf("failed to update play: %v", err)
		}

		retrieved, _ := repo.Get(play.ID())
		if retrieved.DurationSeconds() != 215 {
			t.Errorf("expected duration 215, got %d", retrieved.DurationSeconds())
		}
	})

	t.Run("Delete", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewPlayRepository(db)
		play := newTestPlay("chan", "1", start)
		if err := repo.Create(play); err != nil {
			t.Fatalf("failed to create play: %v", err)
		}

		if err := repo.Delete(play.ID()); err != nil {
			t.Fatalf("failed to delete play: %v", err)
		}

		if _, err := repo.Get(play.ID()); !errors.Is(err, shared.ErrPlayNotFound) {
			t.Errorf("expected ErrPlayNotFound for deleted play, got %v", err)
		}
	})

	t.Run("List", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewPlayRepository(db)
		for i, owner := range []string{"a", "b", "a"} {
			play := newTestPlay(owner, string(rune('1'+i)), start.Add(time.Duration(i)*time.Minute))
			if err := repo.Create(play); err != nil {
				t.Fatalf("failed to create play: %v", err)
			}
		}

		all, err := repo.List(map[string]any{})
		if err != nil {
			t.Fatalf("failed to list plays: %v", err)
		}
		if len(all) != 3 {
			t.Fatalf("expected 3 plays, got %d", len(all))
		}
		if all[0].Sequence() > all[2].Sequence() {
			t.Error("expected plays ordered by sequence")
		}

		owned, err := repo.List(map[string]any{"owner": "a"})
		if err != nil {
			t.Fatalf("failed to list plays: %v", err)
		}
		if len(owned) != 2 {
			t.Errorf("expected 2 plays for owner a, got %d", len(owned))
		}

		if err := repo.Finish(all[0].ID(), start.Add(time.Hour), models.EndReasonEnded); err != nil {
			t.Fatalf("failed to finish play: %v", err)
		}
		open, err := repo.List(map[string]any{"unfinished": true})
		if err != nil {
			t.Fatalf("failed to list plays: %v", err)
		}
		if len(open) != 2 {
			t.Errorf("expected 2 unfinished plays, got %d", len(open))
		}

		ended, _ := repo.List(map[string]any{"reason": "ended"})
		if len(ended) != 1 {
			t.Errorf("expected 1 ended play, got %d", len(ended))
		}

		limited, _ := repo.List(map[string]any{"limit": 1})
		if len(limited) != 1 {
			t.Errorf("expected limit to apply, got %d", len(limited))
		}
	})

	t.Run("ListRecent", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewPlayRepository(db)
		for i := range 4 {
			play := newTestPlay("chan", string(rune('1'+i)), start.Add(time.Duration(i)*time.Minute))
			if err := repo.Create(play); err != nil {
				t.Fatalf("failed to create play: %v", err)
			}
		}

		recent, err := repo.ListRecent("chan", 2)
		if err != nil {
			t.Fatalf("failed to list recent plays: %v", err)
		}
		if len(recent) != 2 {
			t.Fatalf("expected 2 plays, got %d", len(recent))
		}
		if recent[0].ItemID() != "4" || recent[1].ItemID() != "3" {
			t.Errorf("expected newest first, got %s, %s", recent[0].ItemID(), recent[1].ItemID())
		}
	})
}

func TestPlayRepositoryErrors(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("Create", func(t *testing.T) {
		t.Run("ValidationError", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			repo := NewPlayRepository(db)
			if err := repo.Create(newTestPlay("", "1", start)); err == nil {
				t.Error("expected validation error for missing owner")
			}
		})
	})

	t.Run("Get", func(t *testing.T) {
		t.Run("NotFound", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			repo := NewPlayRepository(db)
			if _, err := repo.Get("missing"); !errors.Is(err, shared.ErrPlayNotFound) {
				t.Errorf("expected ErrPlayNotFound, got %v", err)
			}
		})
	})

	t.Run("Update", func(t *testing.T) {
		t.Run("NotFound", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			repo := NewPlayRepository(db)
			play := newTestPlay("chan", "1", start)
			play.SetID("missing")
			if err := repo.Update(play); !errors.Is(err, shared.ErrPlayNotFound) {
				t.Errorf("expected ErrPlayNotFound, got %v", err)
			}
		})
	})

	t.Run("Finish", func(t *testing.T) {
		t.Run("BeforeStart", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			repo := NewPlayRepository(db)
			play := newTestPlay("chan", "1", start)
			if err := repo.Create(play); err != nil {
				t.Fatalf("failed to create play: %v", err)
			}
			if err := repo.Finish(play.ID(), start.Add(-time.Minute), models.EndReasonEnded); err == nil {
				t.Error("expected validation error when ending before start")
			}
		})
	})

	t.Run("Delete", func(t *testing.T) {
		t.Run("AlreadyDeleted", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			repo := NewPlayRepository(db)
			play := newTestPlay("chan", "1", start)
			if err := repo.Create(play); err != nil {
				t.Fatalf("failed to create play: %v", err)
			}
			if err := repo.Delete(play.ID()); err != nil {
				t.Fatalf("failed to delete play: %v", err)
			}
			if err := repo.Delete(play.ID()); !errors.Is(err, shared.ErrPlayNotFound) {
				t.Errorf("expected ErrPlayNotFound on second delete, got %v", err)
			}
		})
	})
}

func TestNextSequence(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	seq1, err := NextSequence(db, "plays")
	if err != nil {
		t.Fatalf("failed to get first sequence: %v", err)
	}

	if seq1 != 1 {
		t.Errorf("expected first sequence to be 1, got %d", seq1)
	}

	seq2, err := NextSequence(db, "plays")
	if err != nil {
		t.Fatalf("failed to get second sequence: %v", err)
	}

	if seq2 != 2 {
		t.Errorf("expected second sequence to be 2, got %d", seq2)
	}

	if _, err := NextSequence(db, "missing"); err == nil {
		t.Error("expected error for table without a sequence")
	}
}
