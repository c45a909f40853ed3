package selector

import (
	"errors"

	"github.com/desertthunder/djtools/internal/shared"
)

// Source resolves selector terms against a track collection.
type Source interface {
	// Domain returns every performable track ID.
	Domain() []string
	// Playlist returns the members of the leaf named name, failing with [shared.ErrNotFound] or
	// [shared.ErrAmbiguousPlaylistName].
	Playlist(name string) ([]string, error)
	// Tagged returns the tracks carrying token as a tag.
	Tagged(token string) []string
	// InRange returns the tracks whose attribute lies in [lo, hi]. An empty attribute selects the
	// source's default.
	InRange(attribute string, lo, hi float64) []string
}

// Set is an unordered set of track IDs.
type Set map[string]struct{}

// NewSet creates a Set holding ids.
func NewSet(ids ...string) Set {
	s := make(Set, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Has reports whether id is in s.
func (s Set) Has(id string) bool {
	_, ok := s[id]
	return ok
}

func (s Set) intersect(o Set) Set {
	out := make(Set)
	for id := range s {
		if o.Has(id) {
			out[id] = struct{}{}
		}
	}
	return out
}

func (s Set) union(o Set) Set {
	out := make(Set, len(s)+len(o))
	for id := range s {
		out[id] = struct{}{}
	}
	for id := range o {
		out[id] = struct{}{}
	}
	return out
}

func (s Set) minus(o Set) Set {
	out := make(Set)
	for id := range s {
		if !o.Has(id) {
			out[id] = struct{}{}
		}
	}
	return out
}

type evaluator struct {
	input  string
	src    Source
	domain Set
}

// Evaluate computes the track IDs selected by expr.
//
// A reference to a missing playlist fails with a [*ParseError] unwrapping to [shared.ErrSelectorParse];
// one shared by several leaves unwraps to [shared.ErrAmbiguousPlaylistName]. Error columns point into
// expr.String().
func Evaluate(expr Expr, src Source) (Set, error) {
	input := expr.String()
	// Reparse so term columns match the normalized text.
	if normalized, err := Parse(input); err == nil {
		expr = normalized
	}
	ev := &evaluator{input: input, src: src}
	return ev.eval(expr)
}

// Select parses input and evaluates it against src.
func Select(input string, src Source) (Set, error) {
	expr, err := Parse(input)
	if err != nil {
		return nil, err
	}
	ev := &evaluator{input: input, src: src}
	return ev.eval(expr)
}

func (ev *evaluator) eval(expr Expr) (Set, error) {
	switch e := expr.(type) {
	case *PlaylistRef:
		ids, err := ev.src.Playlist(e.Name)
		if err != nil {
			perr := &ParseError{Expr: ev.input, Offending: e.String(), Column: e.Col, Err: shared.ErrSelectorParse}
			switch {
			case errors.Is(err, shared.ErrAmbiguousPlaylistName):
				perr.Reason = "playlist name is not unique"
				perr.Err = shared.ErrAmbiguousPlaylistName
			case errors.Is(err, shared.ErrNotFound):
				perr.Reason = "undefined playlist"
			default:
				perr.Reason = err.Error()
			}
			return nil, perr
		}
		return NewSet(ids...), nil
	case *Tag:
		return NewSet(ev.src.Tagged(e.Value)...), nil
	case *Range:
		return NewSet(ev.src.InRange(e.Attribute, e.Min, e.Max)...), nil
	case *Not:
		x, err := ev.eval(e.X)
		if err != nil {
			return nil, err
		}
		return ev.universe().minus(x), nil
	case *Binary:
		acc, err := ev.eval(e.Operands[0])
		if err != nil {
			return nil, err
		}
		for _, operand := range e.Operands[1:] {
			next, err := ev.eval(operand)
			if err != nil {
				return nil, err
			}
			switch e.Op {
			case OpAnd:
				acc = acc.intersect(next)
			case OpOr:
				acc = acc.union(next)
			case OpDiff:
				acc = acc.minus(next)
			}
		}
		return acc, nil
	default:
		return nil, &ParseError{Expr: ev.input, Reason: "unsupported term", Err: shared.ErrSelectorParse}
	}
}

func (ev *evaluator) universe() Set {
	if ev.domain == nil {
		ev.domain = NewSet(ev.src.Domain()...)
	}
	return ev.domain
}
