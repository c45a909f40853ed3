package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/djtools/internal/collection"
	"github.com/desertthunder/djtools/internal/formatter"
	"github.com/desertthunder/djtools/internal/parsers"
	"github.com/desertthunder/djtools/internal/repositories"
	"github.com/desertthunder/djtools/internal/selector"
	"github.com/desertthunder/djtools/internal/shared"
	"github.com/desertthunder/djtools/internal/tasks"
	"github.com/desertthunder/djtools/internal/ui"
	"github.com/urfave/cli/v3"
)

// PlaylistsBuild runs the configured parsers and writes the sibling output document.
func (r *Runner) PlaylistsBuild(ctx context.Context, cmd *cli.Command) error {
	xmlPath, err := r.xmlPath(cmd)
	if err != nil {
		return err
	}

	configPath := strings.TrimSpace(cmd.String("playlist-config"))
	if configPath == "" {
		configPath = r.config.Library.PlaylistConfig
	}
	if configPath == "" {
		return fmt.Errorf("%w: --playlist-config or library.playlist_config", shared.ErrMissingArgument)
	}

	cfg, err := parsers.LoadConfig(configPath)
	if err != nil {
		return err
	}

	var recorder tasks.RunRecorder
	if !cmd.Bool("no-history") {
		db, repo, err := r.openHistory()
		if err != nil {
			r.logger.Warn("run history disabled", "err", err)
		} else {
			defer db.Close()
			recorder = repositories.NewRunRecorderAdapter(repo)
		}
	}

	builder := tasks.NewBuilder(tasks.BuilderOpts{
		Registry: r.registry,
		Options:  r.parserOptions(),
		Logger:   r.logger,
		Recorder: recorder,
	})

	r.logger.Info("starting build", "xml", xmlPath, "config", configPath, "parsers", strings.Join(cfg.Keys(), ","))

	quiet := cmd.Bool("quiet")
	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			if !quiet {
				r.writePlain("%s\n", ui.ProgressLine(r.palette, update))
			}
		}
	}()

	result, err := builder.Run(ctx, xmlPath, cfg, progressCh)
	close(progressCh)
	<-done

	if err != nil {
		return fmt.Errorf("build failed: %w", err)
	}

	if !quiet {
		r.writePlain("\n")
	}
	return r.writePlain("%s", ui.BuildSummary(r.palette, result))
}

// PlaylistsQuery evaluates one selector expression against the document without modifying it.
func (r *Runner) PlaylistsQuery(ctx context.Context, cmd *cli.Command) error {
	expr := strings.TrimSpace(cmd.StringArg("expr"))
	if expr == "" {
		return fmt.Errorf("%w: selector expression", shared.ErrMissingArgument)
	}

	xmlPath, err := r.xmlPath(cmd)
	if err != nil {
		return err
	}

	doc, err := collection.Load(xmlPath, r.logger)
	if err != nil {
		return err
	}

	set, err := selector.Select(expr, parsers.NewDocumentSource(doc, r.parserOptions()))
	if err != nil {
		return err
	}

	tracks := lookupTracks(doc, doc.Order(set))
	r.logger.Debug("query evaluated", "expr", expr, "tracks", len(tracks))
	return r.writeTracks(cmd, expr, tracks)
}

// PlaylistsShow prints the playlist tree, or the tracks of one playlist with --playlist.
func (r *Runner) PlaylistsShow(ctx context.Context, cmd *cli.Command) error {
	xmlPath, err := r.xmlPath(cmd)
	if err != nil {
		return err
	}

	doc, err := collection.Load(xmlPath, r.logger)
	if err != nil {
		return err
	}

	if name := strings.TrimSpace(cmd.String("playlist")); name != "" {
		leaf, err := doc.FindPlaylist(name, nil)
		if err != nil {
			return err
		}
		return r.writeTracks(cmd, leaf.Name, lookupTracks(doc, leaf.TrackIDs()))
	}

	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	switch format {
	case formatter.FormatMarkdown:
		return r.writePlain("%s", formatter.TreeToMarkdown(doc.Root()))
	case formatter.FormatText:
		return r.writePlain("%s", formatter.TreeToText(doc.Root()))
	default:
		return fmt.Errorf("%w: the playlist tree can only be printed as text or markdown", shared.ErrInvalidFlag)
	}
}

// writeTracks prints tracks as a table, or exports them in the --format encoding.
func (r *Runner) writeTracks(cmd *cli.Command, name string, tracks []*collection.Track) error {
	formatFlag := cmd.String("format")
	outputPath := cmd.String("output")

	if strings.EqualFold(formatFlag, "table") && outputPath == "" {
		r.writePlain("%s\n", formatter.TracksTable(tracks))
		return r.writePlain("%d tracks\n", len(tracks))
	}
	if strings.EqualFold(formatFlag, "table") {
		formatFlag = "text"
	}

	format, err := formatter.ParseFormat(formatFlag)
	if err != nil {
		return err
	}

	if outputPath != "" {
		path, err := formatter.WriteExport(format, name, tracks, outputPath)
		if err != nil {
			return err
		}
		r.logger.Info("tracks exported", "path", path, "tracks", len(tracks))
		return r.writePlain("✓ Wrote %d tracks to %s\n", len(tracks), path)
	}

	data, err := formatter.Export(format, name, tracks)
	if err != nil {
		return err
	}
	return r.writePlain("%s", data)
}

func lookupTracks(doc *collection.Document, ids []string) []*collection.Track {
	tracks := make([]*collection.Track, 0, len(ids))
	for _, id := range ids {
		if t, ok := doc.Track(id); ok {
			tracks = append(tracks, t)
		}
	}
	return tracks
}
