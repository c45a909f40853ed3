package collection

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/djtools/internal/shared"
)

// RootName is the name Rekordbox gives the playlist tree root.
const RootName = "ROOT"

// MergePolicy decides how a computed leaf combines with a same-named existing leaf.
type MergePolicy int

const (
	// MergeReplace discards the old membership.
	MergeReplace MergePolicy = iota
	// MergeUnionAppend keeps the old membership and appends new IDs not already present.
	MergeUnionAppend
)

func (p MergePolicy) String() string {
	switch p {
	case MergeReplace:
		return "replace"
	case MergeUnionAppend:
		return "union-append"
	default:
		return ""
	}
}

// ParseMergePolicy maps a config value to a [MergePolicy]. The empty string selects [MergeReplace].
func ParseMergePolicy(s string) (MergePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "replace":
		return MergeReplace, nil
	case "union-append", "union_append", "append":
		return MergeUnionAppend, nil
	default:
		return MergeReplace, fmt.Errorf("%w: unknown merge policy %q", shared.ErrInvalidInput, s)
	}
}

// UpsertResult describes what [Document.UpsertPlaylist] did.
type UpsertResult int

const (
	Unchanged UpsertResult = iota
	Created
	Updated
)

func (r UpsertResult) String() string {
	switch r {
	case Unchanged:
		return "unchanged"
	case Created:
		return "created"
	case Updated:
		return "updated"
	default:
		return ""
	}
}

// Document is a loaded collection and playlist tree.
//
// A Document is not safe for concurrent use; each run should operate on its own loaded copy.
type Document struct {
	Version string

	product    *rawElement
	tracks     []*Track
	byID       map[string]*Track
	position   map[string]int
	byLocation map[string]string
	root       *Node
	malformed  []error
	logger     *log.Logger
}

// New creates a Document from tracks, with an empty playlist root.
func New(tracks []*Track, logger *log.Logger) (*Document, error) {
	d := newDocument(logger)
	for _, t := range tracks {
		if err := d.addTrack(t); err != nil {
			return nil, err
		}
	}
	return d, nil
}

func newDocument(logger *log.Logger) *Document {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Document{
		Version:    "1.0.0",
		byID:       make(map[string]*Track),
		position:   make(map[string]int),
		byLocation: make(map[string]string),
		root:       NewFolder(RootName),
		logger:     logger,
	}
}

func (d *Document) addTrack(t *Track) error {
	if t.ID == "" {
		return fmt.Errorf("%w: track without %s", shared.ErrMalformedDocument, AttrTrackID)
	}
	if _, ok := d.byID[t.ID]; ok {
		return fmt.Errorf("%w: duplicate %s %q", shared.ErrMalformedDocument, AttrTrackID, t.ID)
	}
	d.byID[t.ID] = t
	d.position[t.ID] = len(d.tracks)
	d.tracks = append(d.tracks, t)
	if loc := t.Location(); loc != "" {
		d.byLocation[loc] = t.ID
	}
	return nil
}

// Root returns the playlist tree root folder.
func (d *Document) Root() *Node {
	return d.root
}

// Tracks returns every track in collection order, including library-only items.
func (d *Document) Tracks() []*Track {
	out := make([]*Track, len(d.tracks))
	copy(out, d.tracks)
	return out
}

// Track looks up a track by ID.
func (d *Document) Track(id string) (*Track, bool) {
	t, ok := d.byID[id]
	return t, ok
}

// Malformed returns the attribute coercion errors collected while loading.
func (d *Document) Malformed() []error {
	return d.malformed
}

// Domain returns the IDs of all performable tracks in collection order.
func (d *Document) Domain() []string {
	ids := make([]string, 0, len(d.tracks))
	for _, t := range d.tracks {
		if t.Performable() {
			ids = append(ids, t.ID)
		}
	}
	return ids
}

// Order sorts ids into collection order, dropping IDs not in the collection.
func (d *Document) Order(ids map[string]struct{}) []string {
	out := make([]string, 0, len(ids))
	for _, t := range d.tracks {
		if _, ok := ids[t.ID]; ok {
			out = append(out, t.ID)
		}
	}
	return out
}

// FindTracksByTag returns the performable tracks carrying attribute whose value satisfies predicate, in collection order.
func (d *Document) FindTracksByTag(attribute string, predicate func(value string) bool) []*Track {
	var out []*Track
	for _, t := range d.tracks {
		if !t.Performable() {
			continue
		}
		v, ok := t.Attr(attribute)
		if !ok || strings.TrimSpace(v) == "" {
			continue
		}
		if predicate == nil || predicate(v) {
			out = append(out, t)
		}
	}
	return out
}

// FindPlaylists returns every leaf named name under scope (the whole tree when scope is nil), in document order.
func (d *Document) FindPlaylists(name string, scope *Node) []*Node {
	if scope == nil {
		scope = d.root
	}
	var out []*Node
	scope.Walk(func(_ []string, n *Node) bool {
		if n.IsLeaf() && n.Name == name {
			out = append(out, n)
		}
		return true
	})
	return out
}

// FindPlaylist returns the single leaf named name under scope.
//
// A miss returns [shared.ErrNotFound]; more than one match returns [shared.ErrAmbiguousPlaylistName].
func (d *Document) FindPlaylist(name string, scope *Node) (*Node, error) {
	matches := d.FindPlaylists(name, scope)
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: playlist %q", shared.ErrNotFound, name)
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("%w: %d playlists named %q", shared.ErrAmbiguousPlaylistName, len(matches), name)
	}
}

// FindFolder resolves a folder by its path from the root.
func (d *Document) FindFolder(path []string) (*Node, error) {
	current := d.root
	for _, name := range path {
		next := current.Child(name, KindFolder)
		if next == nil {
			return nil, fmt.Errorf("%w: folder %q", shared.ErrNotFound, strings.Join(path, "/"))
		}
		current = next
	}
	return current, nil
}

// EnsureFolder returns the folder at path, creating missing folders without touching their siblings.
func (d *Document) EnsureFolder(path []string) (*Node, error) {
	current := d.root
	for _, name := range path {
		if strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("%w: empty segment in %q", shared.ErrInvalidPath, strings.Join(path, "/"))
		}
		next := current.Child(name, KindFolder)
		if next == nil {
			next = NewFolder(name)
			current.addChild(next)
		}
		current = next
	}
	return current, nil
}

// UpsertPlaylist inserts node into the folder at path, or merges it into the same-named node already there.
//
// Identity is (name, path). A leaf is merged according to policy; a folder is created if missing and its children
// are upserted recursively. Leaves referencing tracks outside the collection are rejected with
// [shared.ErrDanglingReference] before anything is modified.
func (d *Document) UpsertPlaylist(path []string, node *Node, policy MergePolicy) (UpsertResult, error) {
	if node == nil || strings.TrimSpace(node.Name) == "" {
		return Unchanged, fmt.Errorf("%w: node without a name", shared.ErrInvalidPath)
	}
	if err := d.checkReferences(node); err != nil {
		return Unchanged, err
	}

	parent, err := d.EnsureFolder(path)
	if err != nil {
		return Unchanged, err
	}
	return d.upsert(parent, node, policy), nil
}

func (d *Document) upsert(parent, node *Node, policy MergePolicy) UpsertResult {
	existing := parent.Child(node.Name, node.Kind)

	if node.IsFolder() {
		result := Unchanged
		if existing == nil {
			existing = NewFolder(node.Name)
			parent.addChild(existing)
			result = Created
		}
		for _, c := range node.children {
			if r := d.upsert(existing, c, policy); r != Unchanged && result == Unchanged {
				result = Updated
			}
		}
		return result
	}

	incoming := node.members
	if incoming == nil {
		incoming = NewOrderedSet()
	}

	if existing == nil {
		parent.addChild(NewLeaf(node.Name, incoming.Items()...))
		return Created
	}

	var merged *OrderedSet
	switch policy {
	case MergeUnionAppend:
		merged = NewOrderedSet(existing.TrackIDs()...)
		for _, id := range incoming.items {
			merged.Add(id)
		}
	default:
		merged = NewOrderedSet(incoming.Items()...)
	}

	if existing.members != nil && existing.members.Equal(merged) {
		return Unchanged
	}
	existing.members = merged
	return Updated
}

func (d *Document) checkReferences(node *Node) error {
	var missing []string
	node.Walk(func(_ []string, n *Node) bool {
		for _, id := range n.TrackIDs() {
			if _, ok := d.byID[id]; !ok {
				missing = append(missing, id)
			}
		}
		return true
	})
	if len(missing) > 0 {
		return fmt.Errorf("%w: %q references %v", shared.ErrDanglingReference, node.Name, missing)
	}
	return nil
}

// Validate reports every leaf reference to a track outside the collection.
func (d *Document) Validate() []error {
	var errs []error
	d.root.Walk(func(path []string, n *Node) bool {
		for _, id := range n.TrackIDs() {
			if _, ok := d.byID[id]; !ok {
				where := strings.Join(append(append([]string(nil), path...), n.Name), "/")
				errs = append(errs, fmt.Errorf("%w: %s references track %q", shared.ErrDanglingReference, where, id))
			}
		}
		return true
	})
	return errs
}

// prune drops dangling references so that no written leaf points outside the collection.
func (d *Document) prune() int {
	removed := 0
	d.root.Walk(func(path []string, n *Node) bool {
		if n.members == nil {
			return true
		}
		dropped := n.members.Retain(func(id string) bool {
			_, ok := d.byID[id]
			return ok
		})
		if dropped > 0 {
			d.logger.Warn("pruned dangling track references", "playlist", n.Name, "path", strings.Join(path, "/"), "count", dropped)
			removed += dropped
		}
		return true
	})
	return removed
}
