package parsers

import (
	"github.com/desertthunder/djtools/internal/collection"
	"github.com/desertthunder/djtools/internal/shared"
)

// Options are the library-wide settings parsers share.
type Options struct {
	// TagDelimiter separates tokens within a tag attribute.
	TagDelimiter string
	// TagAttribute is the attribute bare selector words match against.
	TagAttribute string
	// RangeAttribute is the attribute un-named selector ranges match against.
	RangeAttribute string
}

// DefaultOptions returns comma-delimited Genre tags and BPM ranges.
func DefaultOptions() Options {
	return Options{
		TagDelimiter:   ",",
		TagAttribute:   collection.AttrGenre,
		RangeAttribute: collection.AttrAverageBpm,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.TagDelimiter == "" {
		o.TagDelimiter = d.TagDelimiter
	}
	if o.TagAttribute == "" {
		o.TagAttribute = d.TagAttribute
	}
	if o.RangeAttribute == "" {
		o.RangeAttribute = d.RangeAttribute
	}
	return o
}

// DocumentSource resolves selector terms against a [collection.Document].
//
// Every result is restricted to performable tracks and returned in collection order.
type DocumentSource struct {
	doc  *collection.Document
	opts Options
}

// NewDocumentSource wraps doc for selector evaluation.
func NewDocumentSource(doc *collection.Document, opts Options) *DocumentSource {
	return &DocumentSource{doc: doc, opts: opts.withDefaults()}
}

func (s *DocumentSource) Domain() []string {
	return s.doc.Domain()
}

func (s *DocumentSource) Playlist(name string) ([]string, error) {
	leaf, err := s.doc.FindPlaylist(name, nil)
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, id := range leaf.TrackIDs() {
		if t, ok := s.doc.Track(id); ok && t.Performable() {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (s *DocumentSource) Tagged(token string) []string {
	want := shared.FoldToken(token)
	var ids []string
	for _, t := range s.doc.Tracks() {
		if !t.Performable() {
			continue
		}
		for _, tok := range t.Tokens(s.opts.TagAttribute, s.opts.TagDelimiter) {
			if shared.FoldToken(tok) == want {
				ids = append(ids, t.ID)
				break
			}
		}
	}
	return ids
}

func (s *DocumentSource) InRange(attribute string, lo, hi float64) []string {
	if attribute == "" {
		attribute = s.opts.RangeAttribute
	}
	var ids []string
	for _, t := range s.doc.Tracks() {
		if !t.Performable() {
			continue
		}
		if v, ok := t.Number(attribute); ok && v >= lo && v <= hi {
			ids = append(ids, t.ID)
		}
	}
	return ids
}
