package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/djtools/internal/models"
	"github.com/desertthunder/djtools/internal/shared"
)

const runColumns = `
	id, sequence, input_path, output_path, status,
	created_count, updated_count, unchanged_count, skipped_count, malformed_count,
	error, duration_ms, created_at, updated_at, deleted_at
`

// RunRepository implements models.Repository[*models.Run] for build history.
//
// A run's playlists are written with it in one transaction and loaded by [RunRepository.Get].
type RunRepository struct {
	db *sql.DB
}

// NewRunRepository creates a new RunRepository with the given database connection
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Create inserts a new run and its playlists with a generated ID and sequence
func (r *RunRepository) Create(run *models.Run) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "runs")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stats := run.Stats()
	_, err = tx.Exec(`
		INSERT INTO runs (`+runColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NULL)
	`,
		id,
		sequence,
		run.InputPath(),
		run.OutputPath(),
		string(run.Status()),
		stats.Created,
		stats.Updated,
		stats.Unchanged,
		stats.Skipped,
		stats.Malformed,
		run.ErrorMessage(),
		run.Duration().Milliseconds(),
		run.CreatedAt(),
		run.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	if err := insertPlaylists(tx, id, run.Playlists()); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}

	run.SetID(id)
	run.SetSequence(sequence)
	return nil
}

func insertPlaylists(tx *sql.Tx, runID string, playlists []models.RunPlaylist) error {
	if len(playlists) == 0 {
		return nil
	}

	stmt, err := tx.Prepare(`
		INSERT INTO run_playlists (run_id, position, parser, path, outcome, track_count)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare playlist insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range playlists {
		if _, err := stmt.Exec(runID, p.Position, p.Parser, p.Path, p.Outcome, p.Tracks); err != nil {
			return fmt.Errorf("failed to insert run playlist %s: %w", p.Path, err)
		}
	}
	return nil
}

// Get retrieves a run and its playlists by ID, excluding soft-deleted runs
func (r *RunRepository) Get(id string) (*models.Run, error) {
	row := r.db.QueryRow(`SELECT `+runColumns+` FROM runs WHERE id = ? AND deleted_at IS NULL`, id)
	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: run %s", shared.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	playlists, err := r.Playlists(id)
	if err != nil {
		return nil, err
	}
	run.SetPlaylists(playlists)
	return run, nil
}

// Playlists returns the playlists recorded for a run, in write order
func (r *RunRepository) Playlists(runID string) ([]models.RunPlaylist, error) {
	rows, err := r.db.Query(`
		SELECT position, parser, path, outcome, track_count
		FROM run_playlists
		WHERE run_id = ?
		ORDER BY position ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query run playlists: %w", err)
	}
	defer rows.Close()

	var playlists []models.RunPlaylist
	for rows.Next() {
		var p models.RunPlaylist
		if err := rows.Scan(&p.Position, &p.Parser, &p.Path, &p.Outcome, &p.Tracks); err != nil {
			return nil, fmt.Errorf("failed to scan run playlist: %w", err)
		}
		playlists = append(playlists, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return playlists, nil
}

// Update modifies the status and error message of an existing run
func (r *RunRepository) Update(run *models.Run) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	run.SetUpdatedAt(now)

	result, err := r.db.Exec(`
		UPDATE runs
		SET status = ?, error = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`, string(run.Status()), run.ErrorMessage(), now, run.ID())
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: run %s", shared.ErrNotFound, run.ID())
	}
	return nil
}

// Delete soft-deletes a run by setting deleted_at
func (r *RunRepository) Delete(id string) error {
	result, err := r.db.Exec(`UPDATE runs SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: run %s or already deleted", shared.ErrNotFound, id)
	}
	return nil
}

// List retrieves runs newest first, excluding soft-deleted runs.
//
// Supported criteria: "status" (string or [models.RunStatus]), "input_path" (string) and "limit" (int).
// Playlists are not loaded; use [RunRepository.Get] for a single run's detail.
func (r *RunRepository) List(criteria map[string]any) ([]*models.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE deleted_at IS NULL`
	args := []any{}

	switch status := criteria["status"].(type) {
	case string:
		if status != "" {
			query += " AND status = ?"
			args = append(args, status)
		}
	case models.RunStatus:
		query += " AND status = ?"
		args = append(args, string(status))
	}

	if input, ok := criteria["input_path"].(string); ok && input != "" {
		query += " AND input_path = ?"
		args = append(args, input)
	}

	query += " ORDER BY sequence DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return runs, nil
}

// scanner is satisfied by both [sql.Row] and [sql.Rows].
type scanner interface {
	Scan(dest ...any) error
}

// scanRun scans one runs row. [sql.ErrNoRows] is returned unwrapped.
func scanRun(s scanner) (*models.Run, error) {
	var (
		rec        models.RunRecord
		status     string
		durationMs int64
		deletedAt  sql.NullTime
	)

	err := s.Scan(
		&rec.ID, &rec.Sequence, &rec.InputPath, &rec.OutputPath, &status,
		&rec.Stats.Created, &rec.Stats.Updated, &rec.Stats.Unchanged, &rec.Stats.Skipped, &rec.Stats.Malformed,
		&rec.ErrorMessage, &durationMs, &rec.CreatedAt, &rec.UpdatedAt, &deletedAt,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	rec.Status = models.RunStatus(status)
	rec.Duration = time.Duration(durationMs) * time.Millisecond
	if deletedAt.Valid {
		rec.DeletedAt = &deletedAt.Time
	}
	return models.LoadRun(rec), nil
}
