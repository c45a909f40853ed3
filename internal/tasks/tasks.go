package tasks

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/djtools/internal/collection"
	"github.com/desertthunder/djtools/internal/models"
	"github.com/desertthunder/djtools/internal/parsers"
	"github.com/desertthunder/djtools/internal/shared"
	"github.com/gofrs/flock"
)

// OutputPrefix is prepended to the input's base name to form the output document name.
const OutputPrefix = "auto_"

// RunRecorder persists finished builds.
type RunRecorder interface {
	RecordRun(run *models.Run) error
}

// BuildResult contains everything a build wrote and skipped.
type BuildResult struct {
	InputPath  string            // Document that was read
	OutputPath string            // Sibling document that was written
	State      State             // Last state reached
	Outcomes   []parsers.Outcome // Every playlist written, in write order
	Skipped    []error           // Recoverable per-playlist failures
	Created    int               // Playlists that did not exist before
	Updated    int               // Playlists whose membership changed
	Unchanged  int               // Playlists written with identical membership
	Malformed  int               // Track attributes ignored while loading
	Duration   time.Duration     // Wall time of the build
}

func (r *BuildResult) add(report *parsers.Report) {
	for _, o := range report.Outcomes {
		switch o.Result {
		case collection.Created:
			r.Created++
		case collection.Updated:
			r.Updated++
		default:
			r.Unchanged++
		}
	}
	r.Outcomes = append(r.Outcomes, report.Outcomes...)
	r.Skipped = append(r.Skipped, report.Skipped...)
}

// Run converts the result into a history entry with the given status.
func (r *BuildResult) Run(status models.RunStatus, err error) *models.Run {
	stats := models.RunStats{
		Created:   r.Created,
		Updated:   r.Updated,
		Unchanged: r.Unchanged,
		Skipped:   len(r.Skipped),
		Malformed: r.Malformed,
	}
	run := models.NewRun(r.InputPath, r.OutputPath, status, stats, r.Duration)
	if err != nil {
		run.SetErrorMessage(err.Error())
	}

	playlists := make([]models.RunPlaylist, 0, len(r.Outcomes))
	for _, o := range r.Outcomes {
		playlists = append(playlists, models.RunPlaylist{
			Parser:  o.Parser,
			Path:    o.PathString(),
			Outcome: o.Result.String(),
			Tracks:  o.Tracks,
		})
	}
	run.SetPlaylists(playlists)
	return run
}

// BuilderOpts configures a [Builder]. Zero values select the defaults.
type BuilderOpts struct {
	Registry *parsers.Registry // Parser names available to configurations
	Options  parsers.Options   // Tag and range attributes shared by all parsers
	Logger   *log.Logger
	Recorder RunRecorder // Optional; nil disables history
}

// Builder runs parser configurations against Rekordbox documents.
type Builder struct {
	registry *parsers.Registry
	opts     parsers.Options
	logger   *log.Logger
	recorder RunRecorder
}

// NewBuilder creates a new Builder from opts.
func NewBuilder(opts BuilderOpts) *Builder {
	b := &Builder{
		registry: opts.Registry,
		opts:     opts.Options,
		logger:   opts.Logger,
		recorder: opts.Recorder,
	}
	if b.registry == nil {
		b.registry = parsers.DefaultRegistry()
	}
	if b.logger == nil {
		b.logger = shared.NewLogger(io.Discard)
	}
	return b
}

// OutputPath returns the sibling path a build of input writes to.
func OutputPath(input string) string {
	return filepath.Join(filepath.Dir(input), OutputPrefix+filepath.Base(input))
}

// Run builds the playlists configured in cfg into a copy of the document at documentPath.
//
// Unknown parsers and invalid parser options are fatal and reported before the document is
// touched, so no output is written. Skipped playlists are collected in the result. Every run,
// failed or not, is handed to the recorder when one is set.
func (b *Builder) Run(ctx context.Context, documentPath string, cfg *parsers.Config, progress chan<- ProgressUpdate) (*BuildResult, error) {
	start := time.Now()
	result := &BuildResult{InputPath: documentPath}

	err := b.run(ctx, result, cfg, progress)
	result.Duration = time.Since(start)
	b.record(result, err)

	if err != nil {
		b.logger.Error("build failed", "input", documentPath, "state", result.State, "err", err)
		return nil, err
	}
	b.logger.Info("build finished",
		"output", result.OutputPath,
		"created", result.Created,
		"updated", result.Updated,
		"unchanged", result.Unchanged,
		"skipped", len(result.Skipped),
		"duration", result.Duration,
	)
	return result, nil
}

func (b *Builder) run(ctx context.Context, result *BuildResult, cfg *parsers.Config, progress chan<- ProgressUpdate) error {
	if strings.TrimSpace(result.InputPath) == "" {
		return fmt.Errorf("%w: document path", shared.ErrMissingArgument)
	}
	if cfg == nil {
		return fmt.Errorf("%w: no parser configuration", shared.ErrInvalidConfig)
	}

	m := &machine{}
	defer func() { result.State = m.state }()

	b.sendProgress(progress, loadingDocumentUpdate(result.InputPath))
	doc, err := collection.Load(result.InputPath, b.logger)
	if err != nil {
		return err
	}
	if err := m.transition(Loaded); err != nil {
		return err
	}
	result.Malformed = len(doc.Malformed())
	b.sendProgress(progress, loadedDocumentUpdate(len(doc.Tracks()), result.Malformed))

	ps, err := b.registry.Build(cfg, b.opts)
	if err != nil {
		return err
	}
	b.sendProgress(progress, validatedConfigUpdate(len(ps)))

	for i, p := range ps {
		if err := ctx.Err(); err != nil {
			return err
		}

		state := Classifying
		if p.Kind() == parsers.KindCombiner {
			state = Combining
		}
		if m.state != state {
			if err := m.transition(state); err != nil {
				return err
			}
		}

		logger := shared.WithLogger(b.logger, "parser", p.Key())
		if !p.Enabled() {
			logger.Info("parser disabled")
			b.sendProgress(progress, parserUpdate(i+1, len(ps), p, nil))
			continue
		}

		report, err := p.Apply(doc, logger)
		if err != nil {
			return fmt.Errorf("%s: %w", p.Key(), err)
		}
		result.add(report)
		b.sendProgress(progress, parserUpdate(i+1, len(ps), p, report))
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	result.OutputPath = OutputPath(result.InputPath)
	b.sendProgress(progress, serializingUpdate(result.OutputPath))
	if err := write(doc, result.OutputPath); err != nil {
		return err
	}
	if err := m.transition(Serialized); err != nil {
		return err
	}
	b.sendProgress(progress, serializedUpdate(result))
	return m.transition(Done)
}

// write saves doc to path while holding an advisory lock on path + ".lock".
func write(doc *collection.Document, path string) error {
	lock := flock.New(path + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to lock %s: %w", path, err)
	}
	if !locked {
		return fmt.Errorf("%w: %s", shared.ErrOutputLocked, path)
	}
	defer lock.Unlock()

	return doc.Save(path)
}

// record hands the run to the recorder. Failures are logged and never fail the build.
func (b *Builder) record(result *BuildResult, err error) {
	if b.recorder == nil {
		return
	}

	status := models.RunSucceeded
	if err != nil {
		status = models.RunFailed
	}
	if rerr := b.recorder.RecordRun(result.Run(status, err)); rerr != nil {
		b.logger.Warn("failed to record run", "err", rerr)
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (b *Builder) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Run builds cfg into the sibling of documentPath with the default registry and options and
// returns the output path.
func Run(documentPath string, cfg *parsers.Config) (string, error) {
	result, err := NewBuilder(BuilderOpts{}).Run(context.Background(), documentPath, cfg, nil)
	if err != nil {
		return "", err
	}
	return result.OutputPath, nil
}
