package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/djtools/internal/parsers"
	"github.com/desertthunder/djtools/internal/shared"
	tu "github.com/desertthunder/djtools/internal/testing"
	"github.com/urfave/cli/v3"
)

const testPlaylists = `GenreTagParser:
  name: Genres
  playlists: [House, Techno]
  pure_genre_playlists: [Techno]
Combiner:
  playlists:
    - '{House} & [120-130]'
`

type fixture struct {
	dir      string
	xml      string
	playlist string
	runner   *Runner
	output   *bytes.Buffer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	tracks := []tu.FixtureTrack{
		tu.Performable("1", "House", "125.00"),
		tu.Performable("2", "House, Techno", "140.00"),
		tu.Performable("3", "Techno", "130.00"),
	}

	config := shared.DefaultConfig()
	config.Database.Path = filepath.Join(dir, "history.db")

	output := &bytes.Buffer{}
	return &fixture{
		dir:      dir,
		xml:      tu.MustWriteFile(t, dir, "rekordbox.xml", tu.RekordboxXML(tracks)),
		playlist: tu.MustWriteFile(t, dir, "playlists.yaml", testPlaylists),
		output:   output,
		runner: NewRunner(RunnerOpts{
			Config: config,
			Logger: shared.NewLogger(io.Discard),
			Output: output,
		}),
	}
}

func (f *fixture) run(t *testing.T, args ...string) error {
	t.Helper()
	app := &cli.Command{
		Name:     "djtools",
		Commands: f.runner.register(),
	}
	f.output.Reset()
	return app.Run(context.Background(), append([]string{"djtools"}, args...))
}

func (f *fixture) build(t *testing.T) {
	t.Helper()
	if err := f.run(t, "playlists", "build", "--xml", f.xml, "--playlist-config", f.playlist, "--quiet"); err != nil {
		t.Fatalf("playlists build error = %v", err)
	}
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			registry := parsers.NewRegistry()

			runner := NewRunner(RunnerOpts{
				Config:   config,
				Logger:   logger,
				Output:   output,
				Registry: registry,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.registry != registry {
				t.Error("expected registry to be set")
			}
			if runner.palette == nil {
				t.Error("expected palette to be set")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Config: nil})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Logger: nil})

			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: nil})

			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})

		t.Run("with nil registry uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if _, err := runner.registry.Lookup("Combiner"); err != nil {
				t.Errorf("expected default registry, got %v", err)
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			err := runner.writeJSON(make(chan int), false)
			if err == nil || !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Output: output})

		if err := runner.writePlainln("Next %s", "steps"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if output.String() != "\nNext steps\n" {
			t.Errorf("unexpected output %q", output.String())
		}

		failing := NewRunner(RunnerOpts{Output: &tu.FWriter{}})
		if err := failing.writePlain("x"); err == nil {
			t.Error("expected error from failing writer")
		}
	})

	t.Run("parserOptions", func(t *testing.T) {
		config := shared.DefaultConfig()
		config.Library.TagDelimiter = ";"
		runner := NewRunner(RunnerOpts{Config: config})

		opts := runner.parserOptions()
		if opts.TagDelimiter != ";" || opts.RangeAttribute != "AverageBpm" || opts.TagAttribute != "Genre" {
			t.Errorf("unexpected options %+v", opts)
		}
	})
}

func TestPlaylistsCommands(t *testing.T) {
	t.Run("build writes the output document and prints a summary", func(t *testing.T) {
		f := newFixture(t)
		f.build(t)

		tu.AssertFileExists(t, filepath.Join(f.dir, "auto_rekordbox.xml"))
		out := f.output.String()
		for _, want := range []string{"Build complete", "Created:   3", "auto_rekordbox.xml"} {
			if !strings.Contains(out, want) {
				t.Errorf("build output missing %q:\n%s", want, out)
			}
		}
	})

	t.Run("build reports progress unless quiet", func(t *testing.T) {
		f := newFixture(t)
		if err := f.run(t, "playlists", "build", "--xml", f.xml, "--playlist-config", f.playlist, "--no-history"); err != nil {
			t.Fatalf("playlists build error = %v", err)
		}
		if !strings.Contains(f.output.String(), "Loading document") {
			t.Errorf("expected progress lines:\n%s", f.output.String())
		}
		tu.AssertFileMissing(t, filepath.Join(f.dir, "history.db"))
	})

	t.Run("build fails on unknown parsers", func(t *testing.T) {
		f := newFixture(t)
		bad := tu.MustWriteFile(t, f.dir, "bad.yaml", "SpotifyParser:\n  playlists: [House]\n")

		err := f.run(t, "playlists", "build", "--xml", f.xml, "--playlist-config", bad)
		if !errors.Is(err, shared.ErrUnknownParser) {
			t.Fatalf("expected unknown parser error, got %v", err)
		}
		tu.AssertFileMissing(t, filepath.Join(f.dir, "auto_rekordbox.xml"))
	})

	t.Run("build requires a document", func(t *testing.T) {
		f := newFixture(t)
		f.runner.config.Library.XMLPath = ""

		err := f.run(t, "playlists", "build", "--playlist-config", f.playlist)
		if !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected missing argument error, got %v", err)
		}
	})

	t.Run("query prints matching tracks", func(t *testing.T) {
		f := newFixture(t)

		if err := f.run(t, "playlists", "query", "--xml", f.xml, "--format", "csv", "House & [120-130]"); err != nil {
			t.Fatalf("playlists query error = %v", err)
		}
		out := f.output.String()
		if !strings.Contains(out, "1,Track 1,,House,125.00") {
			t.Errorf("expected track 1 in CSV output:\n%s", out)
		}
		if strings.Contains(out, "Track 2") {
			t.Errorf("track 2 is outside the BPM range:\n%s", out)
		}
	})

	t.Run("query writes to a file", func(t *testing.T) {
		f := newFixture(t)
		path := filepath.Join(f.dir, "techno.md")

		if err := f.run(t, "playlists", "query", "--xml", f.xml, "--format", "markdown", "--output", path, "Techno"); err != nil {
			t.Fatalf("playlists query error = %v", err)
		}
		if content := tu.MustReadFile(t, path); !strings.Contains(content, "**Tracks**: 2") {
			t.Errorf("unexpected export:\n%s", content)
		}
	})

	t.Run("query rejects ambiguous expressions", func(t *testing.T) {
		f := newFixture(t)

		err := f.run(t, "playlists", "query", "--xml", f.xml, "House & Techno | Dub")
		if !errors.Is(err, shared.ErrAmbiguousExpression) {
			t.Errorf("expected ambiguous expression error, got %v", err)
		}
	})

	t.Run("show prints the built tree", func(t *testing.T) {
		f := newFixture(t)
		f.build(t)

		output := filepath.Join(f.dir, "auto_rekordbox.xml")
		if err := f.run(t, "playlists", "show", "--xml", output); err != nil {
			t.Fatalf("playlists show error = %v", err)
		}
		want := "Genres/\n  House (2)\n  Techno (1)\nCombiner/\n  {House} & [120-130] (1)\n"
		if got := f.output.String(); got != want {
			t.Errorf("show output =\n%s\nwant\n%s", got, want)
		}
	})

	t.Run("show prints one playlist", func(t *testing.T) {
		f := newFixture(t)
		f.build(t)

		output := filepath.Join(f.dir, "auto_rekordbox.xml")
		if err := f.run(t, "playlists", "show", "--xml", output, "--playlist", "House"); err != nil {
			t.Fatalf("playlists show error = %v", err)
		}
		if out := f.output.String(); !strings.Contains(out, "Playlist: House") || !strings.Contains(out, "Tracks: 2") {
			t.Errorf("unexpected playlist output:\n%s", out)
		}

		err := f.run(t, "playlists", "show", "--xml", output, "--playlist", "Missing")
		if !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected not found error, got %v", err)
		}
	})
}

func TestHistoryCommands(t *testing.T) {
	t.Run("lists recorded runs", func(t *testing.T) {
		f := newFixture(t)
		f.build(t)

		if err := f.run(t, "history"); err != nil {
			t.Fatalf("history error = %v", err)
		}
		out := f.output.String()
		for _, want := range []string{"#1", "succeeded", f.xml} {
			if !strings.Contains(out, want) {
				t.Errorf("history missing %q:\n%s", want, out)
			}
		}
	})

	t.Run("json output", func(t *testing.T) {
		f := newFixture(t)
		f.build(t)

		if err := f.run(t, "history", "--json"); err != nil {
			t.Fatalf("history error = %v", err)
		}
		out := f.output.String()
		for _, want := range []string{`"status": "succeeded"`, `"created": 3`, `"path": "Genres/House"`} {
			if !strings.Contains(out, want) {
				t.Errorf("history JSON missing %s:\n%s", want, out)
			}
		}
	})

	t.Run("records failed runs", func(t *testing.T) {
		f := newFixture(t)
		bad := tu.MustWriteFile(t, f.dir, "bad.yaml", "SpotifyParser: {}\n")
		if err := f.run(t, "playlists", "build", "--xml", f.xml, "--playlist-config", bad); err == nil {
			t.Fatal("expected build error")
		}

		if err := f.run(t, "history", "--status", "failed"); err != nil {
			t.Fatalf("history error = %v", err)
		}
		if out := f.output.String(); !strings.Contains(out, "SpotifyParser is not a valid TagParser") {
			t.Errorf("expected failure reason in history:\n%s", out)
		}
	})

	t.Run("empty history", func(t *testing.T) {
		f := newFixture(t)

		if err := f.run(t, "history"); err != nil {
			t.Fatalf("history error = %v", err)
		}
		if !strings.Contains(f.output.String(), "No runs recorded yet") {
			t.Errorf("unexpected output:\n%s", f.output.String())
		}
	})

	t.Run("invalid status", func(t *testing.T) {
		f := newFixture(t)

		if err := f.run(t, "history", "--status", "pending"); !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected invalid flag error, got %v", err)
		}
	})

	t.Run("show and delete", func(t *testing.T) {
		f := newFixture(t)
		f.build(t)

		db, repo, err := f.runner.openHistory()
		if err != nil {
			t.Fatalf("openHistory() error = %v", err)
		}
		runs, err := repo.List(map[string]any{})
		db.Close()
		if err != nil || len(runs) != 1 {
			t.Fatalf("expected one run, got %d (%v)", len(runs), err)
		}
		id := runs[0].ID()

		if err := f.run(t, "history", "show", id); err != nil {
			t.Fatalf("history show error = %v", err)
		}
		if out := f.output.String(); !strings.Contains(out, "Genres/House") || !strings.Contains(out, "created") {
			t.Errorf("unexpected run detail:\n%s", out)
		}

		if err := f.run(t, "history", "delete", id); err != nil {
			t.Fatalf("history delete error = %v", err)
		}
		if err := f.run(t, "history", "show", id); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected not found after delete, got %v", err)
		}
	})
}

func TestSetupCommands(t *testing.T) {
	t.Run("config writes both files", func(t *testing.T) {
		f := newFixture(t)
		configPath := filepath.Join(f.dir, "config.toml")
		playlistPath := filepath.Join(f.dir, "starter.yaml")

		if err := f.run(t, "setup", "config", "--config", configPath, "--playlist-config", playlistPath); err != nil {
			t.Fatalf("setup config error = %v", err)
		}
		tu.AssertFileExists(t, configPath)
		tu.AssertFileExists(t, playlistPath)

		if _, err := shared.LoadConfig(configPath); err != nil {
			t.Errorf("written config does not load: %v", err)
		}
		if _, err := parsers.LoadConfig(playlistPath); err != nil {
			t.Errorf("written playlist config does not load: %v", err)
		}
	})

	t.Run("database runs migrations", func(t *testing.T) {
		f := newFixture(t)
		configPath := filepath.Join(f.dir, "config.toml")
		dbPath := filepath.Join(f.dir, "data", "djtools.db")
		tu.MustWriteFile(t, f.dir, "config.toml", "[database]\npath = \""+dbPath+"\"\n")

		if err := f.run(t, "setup", "database", "--config", configPath); err != nil {
			t.Fatalf("setup database error = %v", err)
		}
		tu.AssertFileExists(t, dbPath)

		if err := f.run(t, "setup", "database", "--config", configPath, "--rollback"); err != nil {
			t.Fatalf("setup database --rollback error = %v", err)
		}
		if !strings.Contains(f.output.String(), "Rolled back latest migration") {
			t.Errorf("unexpected output:\n%s", f.output.String())
		}
	})
}
