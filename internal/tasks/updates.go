package tasks

import (
	"fmt"

	"github.com/desertthunder/djtools/internal/parsers"
)

// ProgressUpdate represents a progress event during a build.
//
// Used to send real-time updates to the CLI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Build phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data, e.g. a [parsers.Report]
}

// Build phase enumeration
type Phase int

const (
	LoadDocument Phase = iota
	ValidateConfig
	ClassifyTracks
	CombinePlaylists
	SerializeDocument
)

func (p Phase) String() string {
	switch p {
	case LoadDocument:
		return "load_document"
	case ValidateConfig:
		return "validate_config"
	case ClassifyTracks:
		return "classify_tracks"
	case CombinePlaylists:
		return "combine_playlists"
	case SerializeDocument:
		return "serialize_document"
	default:
		return ""
	}
}

func loadingDocumentUpdate(path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   LoadDocument,
		Step:    0,
		Total:   1,
		Message: fmt.Sprintf("Loading %s...", path),
	}
}

func loadedDocumentUpdate(tracks, malformed int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   LoadDocument,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Loaded %d tracks (%d malformed attributes)", tracks, malformed),
	}
}

func validatedConfigUpdate(count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ValidateConfig,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Validated %d parsers", count),
	}
}

func parserUpdate(step, total int, p parsers.Parser, report *parsers.Report) ProgressUpdate {
	phase := ClassifyTracks
	if p.Kind() == parsers.KindCombiner {
		phase = CombinePlaylists
	}

	if report == nil {
		return ProgressUpdate{
			Phase:   phase,
			Step:    step,
			Total:   total,
			Message: fmt.Sprintf("[%d/%d] %s disabled", step, total, p.Key()),
		}
	}
	return ProgressUpdate{
		Phase:   phase,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%d playlists, %d skipped)", step, total, p.Key(), len(report.Outcomes), len(report.Skipped)),
		Data:    report,
	}
}

func serializingUpdate(path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SerializeDocument,
		Step:    0,
		Total:   1,
		Message: fmt.Sprintf("Writing %s...", path),
	}
}

func serializedUpdate(result *BuildResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SerializeDocument,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Wrote %s", result.OutputPath),
		Data:    result,
	}
}
