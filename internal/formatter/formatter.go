// package formatter renders tracks, playlist trees and build history as CSV, Markdown, plain text and tables
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/desertthunder/djtools/internal/collection"
	"github.com/desertthunder/djtools/internal/shared"
)

// Format selects an export encoding.
type Format string

const (
	FormatText     Format = "text"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
)

// ParseFormat maps a flag value to a Format. "" selects text.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "txt":
		return FormatText, nil
	case "csv":
		return FormatCSV, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("%w: format %q must be text, csv or markdown", shared.ErrInvalidFlag, s)
	}
}

// Extension returns the file extension used for f.
func (f Format) Extension() string {
	switch f {
	case FormatCSV:
		return ".csv"
	case FormatMarkdown:
		return ".md"
	default:
		return ".txt"
	}
}

func attr(t *collection.Track, name string) string {
	v, _ := t.Attr(name)
	return v
}

// bpm formats AverageBpm with two decimals, or "" when missing or malformed.
func bpm(t *collection.Track) string {
	n, ok := t.Number(collection.AttrAverageBpm)
	if !ok {
		return ""
	}
	return strconv.FormatFloat(n, 'f', 2, 64)
}

func stars(t *collection.Track) string {
	n, ok := t.Number(collection.AttrRating)
	if !ok || n <= 0 {
		return ""
	}
	return strings.Repeat("*", int(n))
}

// ExportToCSV converts tracks to CSV format with columns: ID, Title, Artist, Genre, BPM, Rating, Location
func ExportToCSV(tracks []*collection.Track) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Title", "Artist", "Genre", "BPM", "Rating", "Location"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, track := range tracks {
		rating := ""
		if n, ok := track.Number(collection.AttrRating); ok {
			rating = strconv.Itoa(int(n))
		}
		record := []string{
			track.ID,
			attr(track, collection.AttrName),
			attr(track, collection.AttrArtist),
			attr(track, collection.AttrGenre),
			bpm(track),
			rating,
			track.Location(),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts tracks to a Markdown document titled name
func ExportToMarkdown(name string, tracks []*collection.Track) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", name))
	buf.WriteString(fmt.Sprintf("**Tracks**: %d\n\n", len(tracks)))

	buf.WriteString("## Tracks\n\n")
	for i, track := range tracks {
		details := []string{}
		if genre := attr(track, collection.AttrGenre); genre != "" {
			details = append(details, genre)
		}
		if b := bpm(track); b != "" {
			details = append(details, b+" BPM")
		}
		suffix := ""
		if len(details) > 0 {
			suffix = fmt.Sprintf(" [%s]", strings.Join(details, ", "))
		}
		buf.WriteString(fmt.Sprintf("%d. %s - %s%s\n", i+1, attr(track, collection.AttrArtist), attr(track, collection.AttrName), suffix))
	}

	return buf.Bytes(), nil
}

// ExportToText converts tracks to plain text format
func ExportToText(name string, tracks []*collection.Track) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Playlist: %s\n", name))
	buf.WriteString(fmt.Sprintf("Tracks: %d\n\n", len(tracks)))

	for i, track := range tracks {
		buf.WriteString(fmt.Sprintf("%d. %s - %s\n", i+1, attr(track, collection.AttrArtist), attr(track, collection.AttrName)))
	}

	return buf.Bytes(), nil
}

// Export renders tracks in the given format.
func Export(format Format, name string, tracks []*collection.Track) ([]byte, error) {
	switch format {
	case FormatCSV:
		return ExportToCSV(tracks)
	case FormatMarkdown:
		return ExportToMarkdown(name, tracks)
	case FormatText, "":
		return ExportToText(name, tracks)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, format)
	}
}

// WriteExport exports tracks to a file.
//
// Defaults to the name with unsafe characters replaced, plus the format's extension.
func WriteExport(format Format, name string, tracks []*collection.Track, filepath string) (string, error) {
	if filepath == "" {
		filepath = SafeFilename(name) + format.Extension()
	}

	data, err := Export(format, name, tracks)
	if err != nil {
		return "", fmt.Errorf("failed to generate %s: %w", format, err)
	}

	if err := os.WriteFile(filepath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s file: %w", format, err)
	}

	return filepath, nil
}

// SafeFilename replaces characters that are awkward in file names, such as selector operators.
func SafeFilename(name string) string {
	replacer := strings.NewReplacer(
		"/", "_", "\\", "_", ":", "_", "*", "_", "?", "_", "\"", "_",
		"<", "_", ">", "_", "|", "_", "&", "and", "~", "_", "!", "_",
		"{", "", "}", "", "[", "", "]", "",
	)
	name = strings.Join(strings.Fields(replacer.Replace(name)), "_")
	if name == "" {
		return "playlist"
	}
	return name
}

// TreeToText renders the playlist tree below root as an indented outline with track counts.
func TreeToText(root *collection.Node) []byte {
	var buf bytes.Buffer
	for _, child := range root.Children() {
		writeTree(&buf, child, 0, "  ", "")
	}
	return buf.Bytes()
}

// TreeToMarkdown renders the playlist tree below root as a nested Markdown list.
func TreeToMarkdown(root *collection.Node) []byte {
	var buf bytes.Buffer
	buf.WriteString("# Playlists\n\n")
	for _, child := range root.Children() {
		writeTree(&buf, child, 0, "  ", "- ")
	}
	return buf.Bytes()
}

func writeTree(buf *bytes.Buffer, n *collection.Node, depth int, indent, bullet string) {
	prefix := strings.Repeat(indent, depth) + bullet
	if n.IsLeaf() {
		buf.WriteString(fmt.Sprintf("%s%s (%d)\n", prefix, n.Name, n.Len()))
		return
	}
	buf.WriteString(fmt.Sprintf("%s%s/\n", prefix, n.Name))
	for _, child := range n.Children() {
		writeTree(buf, child, depth+1, indent, bullet)
	}
}
