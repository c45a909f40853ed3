// package models defines the persisted run history of the playlist builder
package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/djtools/internal/shared"
)

// Model defines the base interface for all persistent models.
type Model interface {
	ID() string           // ID returns the unique identifier for this model
	CreatedAt() time.Time // CreatedAt returns when this model was created
	UpdatedAt() time.Time // UpdatedAt returns when this model was last updated
	Validate() error      // Validate checks if the model's data is valid and returns an error if not
}

// Repository defines the interface for data access operations.
// Implementations handle database interactions for specific model types.
type Repository[T Model] interface {
	Create(model T) error                      // Create inserts a new model into the database
	Get(id string) (T, error)                  // Get retrieves a model by its ID
	Update(model T) error                      // Update modifies an existing model in the database
	Delete(id string) error                    // Delete removes a model from the database by its ID
	List(criteria map[string]any) ([]T, error) // List retrieves all models matching the given criteria
}

// RunStatus is the final state of a build.
type RunStatus string

const (
	RunSucceeded RunStatus = "succeeded"
	RunFailed    RunStatus = "failed"
)

// Valid reports whether s is a known status.
func (s RunStatus) Valid() bool {
	return s == RunSucceeded || s == RunFailed
}

// RunStats are the playlist counts of a build.
type RunStats struct {
	Created   int `json:"created"`
	Updated   int `json:"updated"`
	Unchanged int `json:"unchanged"`
	Skipped   int `json:"skipped"`
	Malformed int `json:"malformed"`
}

// RunPlaylist is one playlist a build wrote.
type RunPlaylist struct {
	Position int    `json:"position"` // Order the playlist was written in
	Parser   string `json:"parser"`   // Parser that produced it
	Path     string `json:"path"`     // Folder path and playlist name joined with "/"
	Outcome  string `json:"outcome"`  // created, updated or unchanged
	Tracks   int    `json:"tracks"`   // Track count after the write
}

// Run is one invocation of the playlist builder.
type Run struct {
	id           string
	sequence     int
	inputPath    string
	outputPath   string
	status       RunStatus
	stats        RunStats
	errorMessage string
	duration     time.Duration
	playlists    []RunPlaylist
	createdAt    time.Time
	updatedAt    time.Time
	deletedAt    *time.Time
}

// NewRun creates an unsaved run. The ID is assigned by the repository.
func NewRun(inputPath, outputPath string, status RunStatus, stats RunStats, duration time.Duration) *Run {
	now := time.Now()
	return &Run{
		inputPath:  inputPath,
		outputPath: outputPath,
		status:     status,
		stats:      stats,
		duration:   duration,
		createdAt:  now,
		updatedAt:  now,
	}
}

// RunRecord carries every column of a stored run.
type RunRecord struct {
	ID           string
	Sequence     int
	InputPath    string
	OutputPath   string
	Status       RunStatus
	Stats        RunStats
	ErrorMessage string
	Duration     time.Duration
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DeletedAt    *time.Time
}

// LoadRun rebuilds a run read from storage.
func LoadRun(rec RunRecord) *Run {
	return &Run{
		id:           rec.ID,
		sequence:     rec.Sequence,
		inputPath:    rec.InputPath,
		outputPath:   rec.OutputPath,
		status:       rec.Status,
		stats:        rec.Stats,
		errorMessage: rec.ErrorMessage,
		duration:     rec.Duration,
		createdAt:    rec.CreatedAt,
		updatedAt:    rec.UpdatedAt,
		deletedAt:    rec.DeletedAt,
	}
}

func (r *Run) ID() string                 { return r.id }
func (r *Run) Sequence() int              { return r.sequence }
func (r *Run) InputPath() string          { return r.inputPath }
func (r *Run) OutputPath() string         { return r.outputPath }
func (r *Run) Status() RunStatus          { return r.status }
func (r *Run) Stats() RunStats            { return r.stats }
func (r *Run) ErrorMessage() string       { return r.errorMessage }
func (r *Run) Duration() time.Duration    { return r.duration }
func (r *Run) Playlists() []RunPlaylist   { return r.playlists }
func (r *Run) CreatedAt() time.Time       { return r.createdAt }
func (r *Run) UpdatedAt() time.Time       { return r.updatedAt }
func (r *Run) DeletedAt() *time.Time      { return r.deletedAt }
func (r *Run) SetID(id string)            { r.id = id }
func (r *Run) SetSequence(seq int)        { r.sequence = seq }
func (r *Run) SetUpdatedAt(t time.Time)   { r.updatedAt = t }
func (r *Run) SetStatus(s RunStatus)      { r.status = s }
func (r *Run) SetErrorMessage(msg string) { r.errorMessage = msg }

// SetPlaylists replaces the run's playlists, numbering them in order.
func (r *Run) SetPlaylists(playlists []RunPlaylist) {
	r.playlists = make([]RunPlaylist, len(playlists))
	for i, p := range playlists {
		p.Position = i
		r.playlists[i] = p
	}
}

// Validate checks required fields.
func (r *Run) Validate() error {
	if strings.TrimSpace(r.inputPath) == "" {
		return fmt.Errorf("%w: run input path is required", shared.ErrInvalidInput)
	}
	if !r.status.Valid() {
		return fmt.Errorf("%w: unknown run status %q", shared.ErrInvalidInput, r.status)
	}
	s := r.stats
	if s.Created < 0 || s.Updated < 0 || s.Unchanged < 0 || s.Skipped < 0 || s.Malformed < 0 {
		return fmt.Errorf("%w: run counts must not be negative", shared.ErrInvalidInput)
	}
	for _, p := range r.playlists {
		if p.Path == "" {
			return fmt.Errorf("%w: run playlist %d has no path", shared.ErrInvalidInput, p.Position)
		}
	}
	return nil
}
