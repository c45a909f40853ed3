package collection

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"github.com/desertthunder/djtools/internal/shared"
)

// Attribute names read by the playlist engine.
const (
	AttrTrackID    = "TrackID"
	AttrName       = "Name"
	AttrArtist     = "Artist"
	AttrGenre      = "Genre"
	AttrComments   = "Comments"
	AttrLocation   = "Location"
	AttrAverageBpm = "AverageBpm"
	AttrRating     = "Rating"
)

// coercions lists the attributes typed as numbers on read.
var coercions = map[string]func(string) (float64, error){
	AttrAverageBpm: parseFloat,
	AttrRating:     parseRating,
	"Year":         parseInt,
	"PlayCount":    parseInt,
	"BitRate":      parseInt,
	"SampleRate":   parseInt,
	"TotalTime":    parseInt,
	"TrackNumber":  parseInt,
	"DiscNumber":   parseInt,
}

// Track is one entry of the collection. Attributes are read-only; the engine never edits track metadata.
type Track struct {
	ID      string
	attrs   []xml.Attr
	inner   []byte
	numbers map[string]float64
}

// MalformedAttributeError reports an attribute whose value could not be coerced to its type.
type MalformedAttributeError struct {
	TrackID   string
	Attribute string
	Value     string
	Err       error
}

func (e *MalformedAttributeError) Error() string {
	return fmt.Sprintf("%v: track %s: %s=%q: %v", shared.ErrMalformedAttribute, e.TrackID, e.Attribute, e.Value, e.Err)
}

func (e *MalformedAttributeError) Unwrap() error {
	return shared.ErrMalformedAttribute
}

// NewTrack builds a track from name/value pairs, coercing typed attributes.
//
// The returned errors are the [MalformedAttributeError] values for attributes that failed coercion.
func NewTrack(id string, attrs map[string]string) (*Track, []error) {
	list := []xml.Attr{{Name: xml.Name{Local: AttrTrackID}, Value: id}}
	for _, name := range sortedKeys(attrs) {
		if name == AttrTrackID {
			continue
		}
		list = append(list, xml.Attr{Name: xml.Name{Local: name}, Value: attrs[name]})
	}
	return newTrack(list, nil)
}

func newTrack(attrs []xml.Attr, inner []byte) (*Track, []error) {
	t := &Track{attrs: attrs, inner: inner, numbers: make(map[string]float64)}
	var errs []error
	for _, a := range attrs {
		name := a.Name.Local
		if name == AttrTrackID {
			t.ID = a.Value
			continue
		}
		coerce, ok := coercions[name]
		if !ok || strings.TrimSpace(a.Value) == "" {
			continue
		}
		n, err := coerce(strings.TrimSpace(a.Value))
		if err != nil {
			errs = append(errs, &MalformedAttributeError{TrackID: t.ID, Attribute: name, Value: a.Value, Err: err})
			continue
		}
		t.numbers[name] = n
	}
	// TrackID may follow a malformed attribute in document order.
	for _, err := range errs {
		if m, ok := err.(*MalformedAttributeError); ok {
			m.TrackID = t.ID
		}
	}
	return t, errs
}

// Attr returns the raw value of the named attribute.
func (t *Track) Attr(name string) (string, bool) {
	for _, a := range t.attrs {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

// Number returns the coerced value of a numeric attribute.
//
// Missing and malformed attributes both report false. Rating is expressed in stars (0-5).
func (t *Track) Number(name string) (float64, bool) {
	n, ok := t.numbers[name]
	return n, ok
}

// Location returns the track's file location, or "" for library-only items.
func (t *Track) Location() string {
	v, _ := t.Attr(AttrLocation)
	return strings.TrimSpace(v)
}

// Performable reports whether the track has a usable location and may appear in playlists.
func (t *Track) Performable() bool {
	return t.Location() != ""
}

// Tokens splits the named attribute on delimiter. Missing or blank attributes yield no tokens.
func (t *Track) Tokens(attribute, delimiter string) []string {
	v, ok := t.Attr(attribute)
	if !ok {
		return nil
	}
	return shared.SplitTokens(v, delimiter)
}

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(s, 64)
}

func parseInt(s string) (float64, error) {
	n, err := strconv.Atoi(s)
	return float64(n), err
}

// parseRating converts Rekordbox's 0/51/102/153/204/255 scale to stars.
func parseRating(s string) (float64, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n < 0 || n > 255 || n%51 != 0 {
		return 0, fmt.Errorf("rating %d is not on the 0-255 star scale", n)
	}
	return float64(n / 51), nil
}
