// package testing contains shared testing utilities
package testing

import (
	"errors"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// FixtureTrack describes one TRACK element of a fixture document. Empty fields are omitted.
type FixtureTrack struct {
	ID       string
	Name     string
	Genre    string
	BPM      string
	Rating   string
	Comments string
	Location string
}

// Performable returns a FixtureTrack with a location, the common case in tests.
func Performable(id, genre, bpm string) FixtureTrack {
	return FixtureTrack{
		ID:       id,
		Name:     "Track " + id,
		Genre:    genre,
		BPM:      bpm,
		Location: "file://localhost/music/" + id + ".mp3",
	}
}

// FixturePlaylist is a playlist tree node for fixture documents; a nil Tracks slice with Children makes a folder.
type FixturePlaylist struct {
	Name     string
	Tracks   []string
	Children []FixturePlaylist
	Folder   bool
}

// RekordboxXML renders a DJ_PLAYLISTS document holding tracks and the given top-level playlist nodes.
func RekordboxXML(tracks []FixtureTrack, playlists ...FixturePlaylist) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	b.WriteString(`<DJ_PLAYLISTS Version="1.0.0">` + "\n")
	b.WriteString(`  <PRODUCT Name="rekordbox" Version="6.8.5" Company="AlphaTheta"/>` + "\n")
	fmt.Fprintf(&b, "  <COLLECTION Entries=\"%d\">\n", len(tracks))
	for _, t := range tracks {
		b.WriteString("    <TRACK")
		attr(&b, "TrackID", t.ID)
		attr(&b, "Name", t.Name)
		attr(&b, "Genre", t.Genre)
		attr(&b, "AverageBpm", t.BPM)
		attr(&b, "Rating", t.Rating)
		attr(&b, "Comments", t.Comments)
		attr(&b, "Location", t.Location)
		b.WriteString(">\n")
		if t.BPM != "" {
			fmt.Fprintf(&b, "      <TEMPO Inizio=\"0.025\" Bpm=\"%s\" Metro=\"4/4\" Battito=\"1\"/>\n", html.EscapeString(t.BPM))
		}
		b.WriteString("    </TRACK>\n")
	}
	b.WriteString("  </COLLECTION>\n")
	b.WriteString("  <PLAYLISTS>\n")
	writeNode(&b, FixturePlaylist{Name: "ROOT", Folder: true, Children: playlists}, 2)
	b.WriteString("  </PLAYLISTS>\n")
	b.WriteString("</DJ_PLAYLISTS>\n")
	return b.String()
}

func writeNode(b *strings.Builder, p FixturePlaylist, depth int) {
	indent := strings.Repeat("  ", depth)
	if p.Folder || p.Children != nil {
		fmt.Fprintf(b, "%s<NODE Type=\"0\" Name=\"%s\" Count=\"%d\">\n", indent, html.EscapeString(p.Name), len(p.Children))
		for _, c := range p.Children {
			writeNode(b, c, depth+1)
		}
		fmt.Fprintf(b, "%s</NODE>\n", indent)
		return
	}
	fmt.Fprintf(b, "%s<NODE Name=\"%s\" Type=\"1\" KeyType=\"0\" Entries=\"%d\">\n", indent, html.EscapeString(p.Name), len(p.Tracks))
	for _, id := range p.Tracks {
		fmt.Fprintf(b, "%s  <TRACK Key=\"%s\"/>\n", indent, html.EscapeString(id))
	}
	fmt.Fprintf(b, "%s</NODE>\n", indent)
}

func attr(b *strings.Builder, name, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(b, " %s=\"%s\"", name, html.EscapeString(value))
}

// MustWriteFile writes content to dir/name and returns the full path.
func MustWriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write file %s: %v", path, err)
	}
	return path
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertFileMissing(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err == nil {
		t.Errorf("File should not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
