package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/djtools/internal/formatter"
	"github.com/desertthunder/djtools/internal/models"
	"github.com/desertthunder/djtools/internal/shared"
	"github.com/urfave/cli/v3"
)

// runJSON is the JSON shape of a recorded run.
type runJSON struct {
	ID         string               `json:"id"`
	Sequence   int                  `json:"sequence"`
	Status     string               `json:"status"`
	InputPath  string               `json:"input_path"`
	OutputPath string               `json:"output_path,omitempty"`
	Stats      models.RunStats      `json:"stats"`
	Error      string               `json:"error,omitempty"`
	DurationMs int64                `json:"duration_ms"`
	CreatedAt  time.Time            `json:"created_at"`
	Playlists  []models.RunPlaylist `json:"playlists,omitempty"`
}

func toRunJSON(run *models.Run) runJSON {
	return runJSON{
		ID:         run.ID(),
		Sequence:   run.Sequence(),
		Status:     string(run.Status()),
		InputPath:  run.InputPath(),
		OutputPath: run.OutputPath(),
		Stats:      run.Stats(),
		Error:      run.ErrorMessage(),
		DurationMs: run.Duration().Milliseconds(),
		CreatedAt:  run.CreatedAt(),
		Playlists:  run.Playlists(),
	}
}

// HistoryList prints recorded builds, newest first.
func (r *Runner) HistoryList(ctx context.Context, cmd *cli.Command) error {
	status := strings.ToLower(strings.TrimSpace(cmd.String("status")))
	if status != "" && !models.RunStatus(status).Valid() {
		return fmt.Errorf("%w: status %q must be succeeded or failed", shared.ErrInvalidFlag, status)
	}

	db, repo, err := r.openHistory()
	if err != nil {
		return err
	}
	defer db.Close()

	runs, err := repo.List(map[string]any{"status": status, "limit": cmd.Int("limit")})
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		out := make([]runJSON, 0, len(runs))
		for _, run := range runs {
			out = append(out, toRunJSON(run))
		}
		return r.writeJSON(out, true)
	}

	if len(runs) == 0 {
		return r.writePlain("No runs recorded yet. Run 'djtools playlists build' to create one.\n")
	}

	r.writePlain("%s\n", formatter.RunsTable(runs, time.Now()))
	for _, run := range runs {
		if run.Status() == models.RunFailed && run.ErrorMessage() != "" {
			r.writePlain("%s #%d: %s\n", r.palette.Error("✗"), run.Sequence(), run.ErrorMessage())
		}
	}
	return nil
}

// HistoryShow prints one run and the playlists it wrote.
func (r *Runner) HistoryShow(ctx context.Context, cmd *cli.Command) error {
	id := strings.TrimSpace(cmd.StringArg("id"))
	if id == "" {
		return fmt.Errorf("%w: run id", shared.ErrMissingArgument)
	}

	db, repo, err := r.openHistory()
	if err != nil {
		return err
	}
	defer db.Close()

	run, err := repo.Get(id)
	if err != nil {
		return err
	}

	r.writePlainHeader(fmt.Sprintf("Run #%d (%s)", run.Sequence(), run.Status()))
	r.writePlain("Input:  %s\n", run.InputPath())
	if run.OutputPath() != "" {
		r.writePlain("Output: %s\n", run.OutputPath())
	}
	if run.ErrorMessage() != "" {
		r.writePlain("Error:  %s\n", r.palette.Error(run.ErrorMessage()))
	}
	if len(run.Playlists()) == 0 {
		return r.writePlainln("No playlists written.")
	}
	return r.writePlain("\n%s\n", formatter.RunPlaylistsTable(run))
}

// HistoryDelete removes a run from history.
func (r *Runner) HistoryDelete(ctx context.Context, cmd *cli.Command) error {
	id := strings.TrimSpace(cmd.StringArg("id"))
	if id == "" {
		return fmt.Errorf("%w: run id", shared.ErrMissingArgument)
	}

	db, repo, err := r.openHistory()
	if err != nil {
		return err
	}
	defer db.Close()

	if err := repo.Delete(id); err != nil {
		return err
	}
	r.logger.Info("run deleted", "id", id)
	return r.writePlain("✓ Deleted run %s\n", id)
}
