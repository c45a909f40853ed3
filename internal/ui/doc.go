// Package ui renders build progress and summaries for the terminal.
//
// A [Palette] styles text with lipgloss. [PaletteFor] selects colors only when the writer is a
// terminal, so piped output stays plain. [ProgressLine] formats one tasks.ProgressUpdate and
// [BuildSummary] the final counts and skipped playlists of a build.
package ui
