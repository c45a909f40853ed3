package models

import (
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/djtools/internal/shared"
)

func TestRunValidate(t *testing.T) {
	tests := []struct {
		name    string
		run     *Run
		wantErr bool
	}{
		{name: "valid", run: NewRun("in.xml", "auto_in.xml", RunSucceeded, RunStats{Created: 1}, time.Second)},
		{name: "failed without output", run: NewRun("in.xml", "", RunFailed, RunStats{}, 0)},
		{name: "missing input", run: NewRun("  ", "", RunFailed, RunStats{}, 0), wantErr: true},
		{name: "unknown status", run: NewRun("in.xml", "", RunStatus("queued"), RunStats{}, 0), wantErr: true},
		{name: "negative count", run: NewRun("in.xml", "", RunSucceeded, RunStats{Skipped: -1}, 0), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run.Validate()
			if tt.wantErr {
				if !errors.Is(err, shared.ErrInvalidInput) {
					t.Errorf("Validate() error = %v, want ErrInvalidInput", err)
				}
				return
			}
			if err != nil {
				t.Errorf("Validate() unexpected error: %v", err)
			}
		})
	}
}

func TestRunSetPlaylists(t *testing.T) {
	run := NewRun("in.xml", "auto_in.xml", RunSucceeded, RunStats{}, 0)
	run.SetPlaylists([]RunPlaylist{
		{Position: 7, Parser: "GenreTagParser", Path: "Genre/House"},
		{Position: 7, Parser: "Combiner", Path: "Combiner/House | Techno"},
	})

	for i, p := range run.Playlists() {
		if p.Position != i {
			t.Errorf("playlist %d has position %d", i, p.Position)
		}
	}

	run.SetPlaylists([]RunPlaylist{{Parser: "Combiner"}})
	if err := run.Validate(); !errors.Is(err, shared.ErrInvalidInput) {
		t.Errorf("expected error for playlist without path, got %v", err)
	}
}
