package tasks

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/djtools/internal/collection"
	"github.com/desertthunder/djtools/internal/models"
	"github.com/desertthunder/djtools/internal/parsers"
	"github.com/desertthunder/djtools/internal/shared"
	tu "github.com/desertthunder/djtools/internal/testing"
	"github.com/gofrs/flock"
)

const scenarioConfig = `GenreTagParser:
  name: Genres
  playlists: [House, Techno]
  pure_genre_playlists: [Techno]
Combiner:
  playlists:
    - '{House} & [120-130]'
`

type mockRecorder struct {
	runs []*models.Run
	err  error
}

func (m *mockRecorder) RecordRun(run *models.Run) error {
	m.runs = append(m.runs, run)
	return m.err
}

func scenarioTracks() []tu.FixtureTrack {
	return []tu.FixtureTrack{
		tu.Performable("1", "House", "125.00"),
		tu.Performable("2", "House, Techno", "140.00"),
		tu.Performable("3", "Techno", "130.00"),
	}
}

func writeLibrary(t *testing.T, tracks []tu.FixtureTrack, playlists ...tu.FixturePlaylist) string {
	t.Helper()
	return tu.MustWriteFile(t, t.TempDir(), "library.xml", tu.RekordboxXML(tracks, playlists...))
}

func mustConfig(t *testing.T, data string) *parsers.Config {
	t.Helper()
	cfg, err := parsers.ParseConfig([]byte(data))
	if err != nil {
		t.Fatalf("ParseConfig() error = %v", err)
	}
	return cfg
}

func newTestBuilder(recorder RunRecorder) *Builder {
	return NewBuilder(BuilderOpts{Logger: log.New(io.Discard), Recorder: recorder})
}

func leafMembers(t *testing.T, doc *collection.Document, path ...string) []string {
	t.Helper()
	folder, err := doc.FindFolder(path[:len(path)-1])
	if err != nil {
		t.Fatalf("FindFolder(%v) error = %v", path[:len(path)-1], err)
	}
	leaf := folder.Child(path[len(path)-1], collection.KindLeaf)
	if leaf == nil {
		t.Fatalf("no playlist at %v", path)
	}
	return leaf.TrackIDs()
}

func TestBuilderRun(t *testing.T) {
	t.Run("writes classifier and combiner playlists", func(t *testing.T) {
		input := writeLibrary(t, scenarioTracks())
		original := tu.MustReadFile(t, input)

		result, err := newTestBuilder(nil).Run(context.Background(), input, mustConfig(t, scenarioConfig), nil)
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}

		if result.OutputPath != filepath.Join(filepath.Dir(input), "auto_library.xml") {
			t.Errorf("OutputPath = %s", result.OutputPath)
		}
		if result.State != Done {
			t.Errorf("State = %s, want done", result.State)
		}
		if result.Created != 3 || result.Updated != 0 || result.Unchanged != 0 {
			t.Errorf("counts = %d/%d/%d, want 3/0/0", result.Created, result.Updated, result.Unchanged)
		}
		if tu.MustReadFile(t, input) != original {
			t.Error("input document was modified")
		}

		out, err := collection.Load(result.OutputPath, nil)
		if err != nil {
			t.Fatalf("Load(output) error = %v", err)
		}
		playlists := []struct {
			path []string
			want []string
		}{
			{path: []string{"Genres", "House"}, want: []string{"1", "2"}},
			{path: []string{"Genres", "Techno"}, want: []string{"3"}},
			{path: []string{"Combiner", "{House} & [120-130]"}, want: []string{"1"}},
		}
		for _, p := range playlists {
			if got := leafMembers(t, out, p.path...); !reflect.DeepEqual(got, p.want) {
				t.Errorf("%v = %v, want %v", p.path, got, p.want)
			}
		}
	})

	t.Run("rebuilding the output changes nothing", func(t *testing.T) {
		input := writeLibrary(t, scenarioTracks())
		b := newTestBuilder(nil)
		cfg := mustConfig(t, scenarioConfig)

		first, err := b.Run(context.Background(), input, cfg, nil)
		if err != nil {
			t.Fatalf("first Run() error = %v", err)
		}
		second, err := b.Run(context.Background(), first.OutputPath, cfg, nil)
		if err != nil {
			t.Fatalf("second Run() error = %v", err)
		}

		if second.Unchanged != 3 || second.Created != 0 || second.Updated != 0 {
			t.Errorf("counts = %d/%d/%d, want 0/0/3", second.Created, second.Updated, second.Unchanged)
		}
		if tu.MustReadFile(t, first.OutputPath) != tu.MustReadFile(t, second.OutputPath) {
			t.Error("rebuilt document differs from its input")
		}
	})

	t.Run("skipped playlists do not stop the build", func(t *testing.T) {
		input := writeLibrary(t, scenarioTracks())
		cfg := mustConfig(t, "Combiner:\n  playlists: ['{Missing}', 'House | Techno']\n")

		result, err := newTestBuilder(nil).Run(context.Background(), input, cfg, nil)
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if len(result.Skipped) != 1 || !errors.Is(result.Skipped[0], shared.ErrSelectorParse) {
			t.Errorf("Skipped = %v, want one parse error", result.Skipped)
		}
		if len(result.Outcomes) != 1 {
			t.Errorf("expected one written playlist, got %d", len(result.Outcomes))
		}
		tu.AssertFileExists(t, result.OutputPath)
	})

	t.Run("dangling references are pruned", func(t *testing.T) {
		input := writeLibrary(t, scenarioTracks(), tu.FixturePlaylist{Name: "Old", Tracks: []string{"1", "99"}})

		result, err := newTestBuilder(nil).Run(context.Background(), input, mustConfig(t, "Combiner:\n  playlists: ['{Old}']\n"), nil)
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}

		out, err := collection.Load(result.OutputPath, nil)
		if err != nil {
			t.Fatalf("Load(output) error = %v", err)
		}
		if errs := out.Validate(); len(errs) != 0 {
			t.Errorf("output has dangling references: %v", errs)
		}
		if got := leafMembers(t, out, "Old"); !reflect.DeepEqual(got, []string{"1"}) {
			t.Errorf("Old = %v, want [1]", got)
		}
		if got := leafMembers(t, out, "Combiner", "{Old}"); !reflect.DeepEqual(got, []string{"1"}) {
			t.Errorf("{Old} = %v, want [1]", got)
		}
	})

	t.Run("counts malformed attributes", func(t *testing.T) {
		tracks := append(scenarioTracks(), tu.Performable("4", "House", "fast"))
		input := writeLibrary(t, tracks)

		result, err := newTestBuilder(nil).Run(context.Background(), input, mustConfig(t, "GenreTagParser:\n  playlists: [House]\n"), nil)
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if result.Malformed != 1 {
			t.Errorf("Malformed = %d, want 1", result.Malformed)
		}
	})

	t.Run("disabled parsers write nothing", func(t *testing.T) {
		input := writeLibrary(t, scenarioTracks())
		cfg := mustConfig(t, "GenreTagParser:\n  enabled: false\n  playlists: [House]\n")

		result, err := newTestBuilder(nil).Run(context.Background(), input, cfg, nil)
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if len(result.Outcomes) != 0 {
			t.Errorf("expected no outcomes, got %v", result.Outcomes)
		}
		tu.AssertFileExists(t, result.OutputPath)
	})
}

func TestBuilderRunFatal(t *testing.T) {
	tests := []struct {
		name    string
		config  string
		wantErr error
	}{
		{name: "unknown parser", config: "GenreTagParser:\n  playlists: [House]\nNope:\n  playlists: [x]\n", wantErr: shared.ErrUnknownParser},
		{name: "unknown option", config: "GenreTagParser:\n  playlists: [House]\n  bogus: 1\n", wantErr: shared.ErrConfiguration},
		{name: "bad remainder", config: "GenreTagParser:\n  playlists: [House]\n  remainder: sometimes\n", wantErr: shared.ErrConfiguration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := writeLibrary(t, scenarioTracks())
			output := OutputPath(input)

			result, err := newTestBuilder(nil).Run(context.Background(), input, mustConfig(t, tt.config), nil)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Run() error = %v, want %v", err, tt.wantErr)
			}
			if result != nil {
				t.Error("expected nil result on fatal error")
			}
			tu.AssertFileMissing(t, output)
		})
	}

	t.Run("existing output is left untouched", func(t *testing.T) {
		input := writeLibrary(t, scenarioTracks())
		output := tu.MustWriteFile(t, filepath.Dir(input), "auto_library.xml", "previous build")

		_, err := newTestBuilder(nil).Run(context.Background(), input, mustConfig(t, "Nope: {}\n"), nil)
		if !errors.Is(err, shared.ErrUnknownParser) {
			t.Fatalf("Run() error = %v, want unknown parser", err)
		}
		if got := tu.MustReadFile(t, output); got != "previous build" {
			t.Errorf("output was rewritten: %q", got)
		}
	})

	t.Run("missing document", func(t *testing.T) {
		_, err := newTestBuilder(nil).Run(context.Background(), filepath.Join(t.TempDir(), "none.xml"), mustConfig(t, scenarioConfig), nil)
		if err == nil {
			t.Fatal("expected error for missing document")
		}
	})

	t.Run("empty path", func(t *testing.T) {
		_, err := newTestBuilder(nil).Run(context.Background(), " ", mustConfig(t, scenarioConfig), nil)
		if !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("Run() error = %v, want missing argument", err)
		}
	})

	t.Run("nil config", func(t *testing.T) {
		_, err := newTestBuilder(nil).Run(context.Background(), writeLibrary(t, scenarioTracks()), nil, nil)
		if !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("Run() error = %v, want invalid config", err)
		}
	})

	t.Run("canceled context", func(t *testing.T) {
		input := writeLibrary(t, scenarioTracks())
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := newTestBuilder(nil).Run(ctx, input, mustConfig(t, scenarioConfig), nil)
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Run() error = %v, want context.Canceled", err)
		}
		tu.AssertFileMissing(t, OutputPath(input))
	})

	t.Run("output locked", func(t *testing.T) {
		input := writeLibrary(t, scenarioTracks())
		lock := flock.New(OutputPath(input) + ".lock")
		locked, err := lock.TryLock()
		if err != nil || !locked {
			t.Fatalf("TryLock() = %v, %v", locked, err)
		}
		defer lock.Unlock()

		_, err = newTestBuilder(nil).Run(context.Background(), input, mustConfig(t, scenarioConfig), nil)
		if !errors.Is(err, shared.ErrOutputLocked) {
			t.Fatalf("Run() error = %v, want output locked", err)
		}
		tu.AssertFileMissing(t, OutputPath(input))
	})
}

func TestBuilderRecorder(t *testing.T) {
	t.Run("records successful runs", func(t *testing.T) {
		rec := &mockRecorder{}
		input := writeLibrary(t, scenarioTracks())

		if _, err := newTestBuilder(rec).Run(context.Background(), input, mustConfig(t, scenarioConfig), nil); err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if len(rec.runs) != 1 {
			t.Fatalf("recorded %d runs, want 1", len(rec.runs))
		}

		run := rec.runs[0]
		if run.Status() != models.RunSucceeded {
			t.Errorf("Status = %s, want succeeded", run.Status())
		}
		if run.Stats().Created != 3 {
			t.Errorf("Created = %d, want 3", run.Stats().Created)
		}
		var paths []string
		for _, p := range run.Playlists() {
			paths = append(paths, p.Path)
		}
		want := []string{"Genres/House", "Genres/Techno", "Combiner/{House} & [120-130]"}
		if !reflect.DeepEqual(paths, want) {
			t.Errorf("playlists = %v, want %v", paths, want)
		}
	})

	t.Run("records failed runs", func(t *testing.T) {
		rec := &mockRecorder{}
		input := writeLibrary(t, scenarioTracks())

		if _, err := newTestBuilder(rec).Run(context.Background(), input, mustConfig(t, "Nope: {}\n"), nil); err == nil {
			t.Fatal("expected error")
		}
		if len(rec.runs) != 1 {
			t.Fatalf("recorded %d runs, want 1", len(rec.runs))
		}
		run := rec.runs[0]
		if run.Status() != models.RunFailed {
			t.Errorf("Status = %s, want failed", run.Status())
		}
		if !strings.Contains(run.ErrorMessage(), "Nope") {
			t.Errorf("ErrorMessage = %q, want parser name", run.ErrorMessage())
		}
		if run.OutputPath() != "" {
			t.Errorf("OutputPath = %q, want empty", run.OutputPath())
		}
	})

	t.Run("recorder errors do not fail the build", func(t *testing.T) {
		rec := &mockRecorder{err: errors.New("database is locked")}
		input := writeLibrary(t, scenarioTracks())

		if _, err := newTestBuilder(rec).Run(context.Background(), input, mustConfig(t, scenarioConfig), nil); err != nil {
			t.Fatalf("Run() error = %v", err)
		}
	})
}

func TestProgressUpdates(t *testing.T) {
	input := writeLibrary(t, scenarioTracks())
	progressCh := make(chan ProgressUpdate, 32)

	if _, err := newTestBuilder(nil).Run(context.Background(), input, mustConfig(t, scenarioConfig), progressCh); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	close(progressCh)

	var phases []Phase
	for update := range progressCh {
		if update.Message == "" {
			t.Errorf("update in phase %s has no message", update.Phase)
		}
		if len(phases) == 0 || phases[len(phases)-1] != update.Phase {
			phases = append(phases, update.Phase)
		}
	}

	want := []Phase{LoadDocument, ValidateConfig, ClassifyTracks, CombinePlaylists, SerializeDocument}
	if !reflect.DeepEqual(phases, want) {
		t.Errorf("phases = %v, want %v", phases, want)
	}
}

func TestProgressUpdate_NonBlocking(t *testing.T) {
	input := writeLibrary(t, scenarioTracks())

	// Create a channel with buffer 0 to test non-blocking behavior
	progressCh := make(chan ProgressUpdate)

	done := make(chan error)
	go func() {
		_, err := newTestBuilder(nil).Run(context.Background(), input, mustConfig(t, scenarioConfig), progressCh)
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run blocked on progress channel")
	}
}

func TestPackageRun(t *testing.T) {
	input := writeLibrary(t, scenarioTracks())

	output, err := Run(input, mustConfig(t, scenarioConfig))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if output != OutputPath(input) {
		t.Errorf("Run() = %s, want %s", output, OutputPath(input))
	}
	tu.AssertFileExists(t, output)
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{input: "/music/rekordbox.xml", want: "/music/auto_rekordbox.xml"},
		{input: "library.xml", want: "auto_library.xml"},
		{input: "/a/b/auto_x.xml", want: "/a/b/auto_auto_x.xml"},
	}

	for _, tt := range tests {
		if got := OutputPath(tt.input); got != tt.want {
			t.Errorf("OutputPath(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestStateTransitions(t *testing.T) {
	tests := []struct {
		name    string
		from    State
		to      State
		wantErr bool
	}{
		{name: "load", from: Idle, to: Loaded},
		{name: "classify", from: Loaded, to: Classifying},
		{name: "combine without classifiers", from: Loaded, to: Combining},
		{name: "serialize without parsers", from: Loaded, to: Serialized},
		{name: "combine after classify", from: Classifying, to: Combining},
		{name: "finish", from: Serialized, to: Done},
		{name: "skip load", from: Idle, to: Classifying, wantErr: true},
		{name: "classify after combine", from: Combining, to: Classifying, wantErr: true},
		{name: "stay", from: Classifying, to: Classifying, wantErr: true},
		{name: "restart", from: Done, to: Idle, wantErr: true},
		{name: "finish early", from: Combining, to: Done, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &machine{state: tt.from}
			err := m.transition(tt.to)
			if tt.wantErr {
				if !errors.Is(err, shared.ErrInvalidTransition) {
					t.Errorf("transition() error = %v, want ErrInvalidTransition", err)
				}
				if m.state != tt.from {
					t.Errorf("state changed to %s on failed transition", m.state)
				}
				return
			}
			if err != nil {
				t.Fatalf("transition() error = %v", err)
			}
			if m.state != tt.to {
				t.Errorf("state = %s, want %s", m.state, tt.to)
			}
		})
	}
}

func TestStateString(t *testing.T) {
	want := map[State]string{
		Idle:        "idle",
		Loaded:      "loaded",
		Classifying: "classifying",
		Combining:   "combining",
		Serialized:  "serialized",
		Done:        "done",
		State(99):   "",
	}
	for s, name := range want {
		if got := s.String(); got != name {
			t.Errorf("State(%d).String() = %q, want %q", s, got, name)
		}
	}
}
