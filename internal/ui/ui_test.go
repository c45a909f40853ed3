package ui

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/djtools/internal/tasks"
)

func TestPaletteFor(t *testing.T) {
	var buf bytes.Buffer
	if ShouldColorize(&buf) {
		t.Error("a buffer is not a terminal")
	}

	p := PaletteFor(&buf)
	if got := p.Title("Build"); got != "Build" {
		t.Errorf("plain palette should not style text, got %q", got)
	}
}

func TestProgressLine(t *testing.T) {
	p := PlainPalette()
	tests := []struct {
		update tasks.ProgressUpdate
		want   string
	}{
		{
			update: tasks.ProgressUpdate{Phase: tasks.LoadDocument, Message: "Loading library.xml..."},
			want:   "Loading document Loading library.xml...",
		},
		{
			update: tasks.ProgressUpdate{Phase: tasks.ClassifyTracks, Step: 1, Total: 2, Message: "[1/2] ✓ GenreTagParser"},
			want:   "Classifying (1/2) [1/2] ✓ GenreTagParser",
		},
		{
			update: tasks.ProgressUpdate{Phase: tasks.CombinePlaylists, Step: 2, Total: 2, Message: "[2/2] ✓ Combiner"},
			want:   "Combining (2/2) [2/2] ✓ Combiner",
		},
	}

	for _, tt := range tests {
		t.Run(tt.update.Phase.String(), func(t *testing.T) {
			if got := ProgressLine(p, tt.update); got != tt.want {
				t.Errorf("ProgressLine() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuildSummary(t *testing.T) {
	result := &tasks.BuildResult{
		OutputPath: "/music/auto_rekordbox.xml",
		Created:    2,
		Updated:    1,
		Unchanged:  4,
		Malformed:  3,
		Skipped:    []error{errors.New("Combiner: skipped \"{Missing}\": undefined playlist")},
		Duration:   1234567 * time.Microsecond,
	}

	out := BuildSummary(PlainPalette(), result)
	for _, want := range []string{
		"Build complete",
		"Output:    /music/auto_rekordbox.xml",
		"Created:   2",
		"Unchanged: 4",
		"Took:      1.235s",
		"3 malformed track attributes ignored",
		"Skipped 1 playlists:",
		"✗ Combiner: skipped",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}

	clean := BuildSummary(PlainPalette(), &tasks.BuildResult{OutputPath: "out.xml"})
	if strings.Contains(clean, "Skipped") || strings.Contains(clean, "malformed") {
		t.Errorf("summary without problems should not mention them:\n%s", clean)
	}
}
