package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/djtools/internal/tasks"
)

// ProgressLine formats a progress update as a single status line.
func ProgressLine(p *Palette, update tasks.ProgressUpdate) string {
	var phase string
	switch update.Phase {
	case tasks.LoadDocument:
		phase = "Loading document"
	case tasks.ValidateConfig:
		phase = "Validating parsers"
	case tasks.ClassifyTracks:
		phase = fmt.Sprintf("Classifying (%d/%d)", update.Step, update.Total)
	case tasks.CombinePlaylists:
		phase = fmt.Sprintf("Combining (%d/%d)", update.Step, update.Total)
	case tasks.SerializeDocument:
		phase = "Writing document"
	default:
		phase = update.Phase.String()
	}
	return fmt.Sprintf("%s %s", p.Title(phase), update.Message)
}

// BuildSummary renders the counts of a finished build followed by each skipped playlist.
func BuildSummary(p *Palette, result *tasks.BuildResult) string {
	var b strings.Builder

	b.WriteString(p.OK("✓ Build complete") + "\n")
	fmt.Fprintf(&b, "  Output:    %s\n", result.OutputPath)
	fmt.Fprintf(&b, "  Created:   %d\n", result.Created)
	fmt.Fprintf(&b, "  Updated:   %d\n", result.Updated)
	fmt.Fprintf(&b, "  Unchanged: %d\n", result.Unchanged)
	fmt.Fprintf(&b, "  Took:      %s\n", result.Duration.Round(time.Millisecond))

	if result.Malformed > 0 {
		b.WriteString(p.Warn(fmt.Sprintf("  %d malformed track attributes ignored", result.Malformed)) + "\n")
	}

	if len(result.Skipped) > 0 {
		b.WriteString(p.Warn(fmt.Sprintf("  Skipped %d playlists:", len(result.Skipped))) + "\n")
		for _, err := range result.Skipped {
			b.WriteString("    " + p.Error("✗") + " " + err.Error() + "\n")
		}
	}

	return b.String()
}
