package formatter

import (
	"strconv"
	"time"

	"github.com/desertthunder/djtools/internal/collection"
	"github.com/desertthunder/djtools/internal/models"
	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Alignment of a table column.
type Alignment int

const (
	AlignLeft Alignment = iota
	AlignRight
)

// RenderTable draws rows under headers with rounded borders. Short rows are padded.
func RenderTable(headers []string, rows [][]string, aligns []Alignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := 0; i < columns; i++ {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == AlignRight {
			align = text.AlignRight
		}
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}

// TracksTable renders tracks as ID, Artist, Title, Genre, BPM and Rating columns.
func TracksTable(tracks []*collection.Track) string {
	rows := make([][]string, 0, len(tracks))
	for _, t := range tracks {
		rows = append(rows, []string{
			t.ID,
			attr(t, collection.AttrArtist),
			attr(t, collection.AttrName),
			attr(t, collection.AttrGenre),
			bpm(t),
			stars(t),
		})
	}
	return RenderTable(
		[]string{"ID", "Artist", "Title", "Genre", "BPM", "Rating"},
		rows,
		[]Alignment{AlignRight, AlignLeft, AlignLeft, AlignLeft, AlignRight, AlignLeft},
	)
}

// RunsTable renders build history. Times are relative to now.
func RunsTable(runs []*models.Run, now time.Time) string {
	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		s := r.Stats()
		rows = append(rows, []string{
			"#" + strconv.Itoa(r.Sequence()),
			humanize.RelTime(r.CreatedAt(), now, "ago", "from now"),
			string(r.Status()),
			r.InputPath(),
			humanize.Comma(int64(s.Created)),
			humanize.Comma(int64(s.Updated)),
			humanize.Comma(int64(s.Unchanged)),
			humanize.Comma(int64(s.Skipped)),
			r.Duration().Round(time.Millisecond).String(),
		})
	}
	return RenderTable(
		[]string{"Run", "When", "Status", "Input", "Created", "Updated", "Unchanged", "Skipped", "Took"},
		rows,
		[]Alignment{AlignRight, AlignLeft, AlignLeft, AlignLeft, AlignRight, AlignRight, AlignRight, AlignRight, AlignRight},
	)
}

// RunPlaylistsTable renders the playlists one run wrote.
func RunPlaylistsTable(run *models.Run) string {
	playlists := run.Playlists()
	rows := make([][]string, 0, len(playlists))
	for _, p := range playlists {
		rows = append(rows, []string{p.Parser, p.Path, p.Outcome, humanize.Comma(int64(p.Tracks))})
	}
	return RenderTable(
		[]string{"Parser", "Playlist", "Outcome", "Tracks"},
		rows,
		[]Alignment{AlignLeft, AlignLeft, AlignLeft, AlignRight},
	)
}
