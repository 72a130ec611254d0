package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/ytxq/internal/models"
	"github.com/desertthunder/ytxq/internal/shared"
)

const playColumns = `id, sequence, owner, item_id, source_id, title, requested_by, duration_seconds,
	started_at, ended_at, end_reason, created_at, updated_at, deleted_at`

// PlayRepository implements models.Repository[*models.Play] for the overlay's play history.
//
// Plays are soft-deleted; every read excludes rows with deleted_at set.
type PlayRepository struct {
	db *sql.DB
}

// NewPlayRepository creates a new PlayRepository with the given database connection
func NewPlayRepository(db *sql.DB) *PlayRepository {
	return &PlayRepository{db: db}
}

// Create inserts a new [models.Play] with generated ID and sequence
func (r *PlayRepository) Create(play *models.Play) error {
	if err := play.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "plays")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()

	query := `
		INSERT INTO plays (id, sequence, owner, item_id, source_id, title, requested_by, duration_seconds,
			started_at, ended_at, end_reason, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		id,
		sequence,
		play.Owner(),
		string(play.ItemID()),
		play.SourceID(),
		play.Title(),
		play.RequestedBy(),
		play.DurationSeconds(),
		play.StartedAt(),
		nullTime(play.EndedAt()),
		string(play.EndReason()),
		play.CreatedAt(),
		play.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert play: %w", err)
	}

	play.SetID(id)
	play.SetSequence(sequence)
	return nil
}

// Get retrieves a play by ID, excluding soft-deleted plays
func (r *PlayRepository) Get(id string) (*models.Play, error) {
	query := `SELECT ` + playColumns + ` FROM plays WHERE id = ? AND deleted_at IS NULL`

	play, err := scanPlay(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrPlayNotFound, id)
	}
	return play, err
}

// Update writes the mutable fields of play: duration, end time and end reason
func (r *PlayRepository) Update(play *models.Play) error {
	if err := play.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	play.SetUpdatedAt(now)

	query := `
		UPDATE plays
		SET duration_seconds = ?, ended_at = ?, end_reason = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query,
		play.DurationSeconds(),
		nullTime(play.EndedAt()),
		string(play.EndReason()),
		now,
		play.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update play: %w", err)
	}

	return expectRow(result, play.ID())
}

// Finish marks the play with id as ended at endedAt for reason
func (r *PlayRepository) Finish(id string, endedAt time.Time, reason models.EndReason) error {
	play, err := r.Get(id)
	if err != nil {
		return err
	}
	play.Finish(endedAt, reason)
	return r.Update(play)
}

// Delete soft-deletes a play by ID
func (r *PlayRepository) Delete(id string) error {
	query := `
		UPDATE plays
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete play: %w", err)
	}

	return expectRow(result, id)
}

// List retrieves plays matching criteria, oldest first.
//
// Supported criteria: "owner" (string), "item_id" (string), "reason" (string),
// "unfinished" (bool), "limit" (int).
func (r *PlayRepository) List(criteria map[string]any) ([]*models.Play, error) {
	query := `SELECT ` + playColumns + ` FROM plays WHERE deleted_at IS NULL`
	args := []any{}

	if owner, ok := criteria["owner"].(string); ok && owner != "" {
		query += " AND owner = ?"
		args = append(args, owner)
	}

	if itemID, ok := criteria["item_id"].(string); ok && itemID != "" {
		query += " AND item_id = ?"
		args = append(args, itemID)
	}

	if reason, ok := criteria["reason"].(string); ok && reason != "" {
		query += " AND end_reason = ?"
		args = append(args, reason)
	}

	if unfinished, ok := criteria["unfinished"].(bool); ok && unfinished {
		query += " AND ended_at IS NULL"
	}

	query += " ORDER BY sequence ASC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	return r.query(query, args...)
}

// ListRecent returns the newest plays for owner (all owners when empty), newest first
func (r *PlayRepository) ListRecent(owner string, limit int) ([]*models.Play, error) {
	query := `SELECT ` + playColumns + ` FROM plays WHERE deleted_at IS NULL`
	args := []any{}

	if owner != "" {
		query += " AND owner = ?"
		args = append(args, owner)
	}

	query += " ORDER BY sequence DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	return r.query(query, args...)
}

func (r *PlayRepository) query(query string, args ...any) ([]*models.Play, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query plays: %w", err)
	}
	defer rows.Close()

	var plays []*models.Play
	for rows.Next() {
		play, err := scanPlay(rows)
		if err != nil {
			return nil, err
		}
		plays = append(plays, play)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return plays, nil
}

// rowScanner is satisfied by both [sql.Row] and [sql.Rows]
type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlay(row rowScanner) (*models.Play, error) {
	var (
		id          string
		sequence    int
		owner       string
		itemID      string
		sourceID    string
		title       string
		requestedBy string
		duration    int
		startedAt   time.Time
		endedAt     sql.NullTime
		endReason   string
		createdAt   time.Time
		updatedAt   time.Time
		deletedAt   sql.NullTime
	)

	err := row.Scan(&id, &sequence, &owner, &itemID, &sourceID, &title, &requestedBy, &duration,
		&startedAt, &endedAt, &endReason, &createdAt, &updatedAt, &deletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan play: %w", err)
	}

	item := models.Item{ID: models.ItemID(itemID), SourceID: sourceID, RequestedBy: requestedBy}
	if title != "" {
		item.Title = &title
	}

	play := models.NewPlay(owner, item, startedAt)
	play.SetID(id)
	play.SetSequence(sequence)
	play.SetDurationSeconds(duration)
	play.SetCreatedAt(createdAt)
	play.SetUpdatedAt(updatedAt)
	if endedAt.Valid {
		play.Finish(endedAt.Time, models.EndReason(endReason))
	}
	if deletedAt.Valid {
		play.SetDeletedAt(&deletedAt.Time)
	}

	return play, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func expectRow(result sql.Result, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrPlayNotFound, id)
	}
	return nil
}

var _ models.Repository[*models.Play] = (*PlayRepository)(nil)
