package parsers

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/djtools/internal/collection"
	"github.com/desertthunder/djtools/internal/shared"
	"gopkg.in/yaml.v3"
)

// PathSeparator splits a target into nested folders.
const PathSeparator = "/"

// RemainderName names the playlist or folder holding unmatched tracks.
const RemainderName = "Other"

// RemainderMode decides what happens to tracks no target accepts.
type RemainderMode int

const (
	// RemainderNone drops unmatched tracks from the classifier's output.
	RemainderNone RemainderMode = iota
	// RemainderPlaylist collects unmatched tracks into a single playlist.
	RemainderPlaylist
	// RemainderFolder creates one playlist per unmatched tag inside a remainder folder.
	RemainderFolder
)

func (m RemainderMode) String() string {
	switch m {
	case RemainderPlaylist:
		return "playlist"
	case RemainderFolder:
		return "folder"
	default:
		return ""
	}
}

// Target is one classifier output playlist.
type Target struct {
	Name   string
	Path   []string
	Tokens map[string]struct{}
	Pure   bool
}

// Accepts reports whether a track with the given folded tokens belongs in the target.
//
// A pure target requires the token sets to be equal; otherwise any shared token is enough.
func (t Target) Accepts(tokens map[string]struct{}) bool {
	if t.Pure {
		if len(tokens) != len(t.Tokens) {
			return false
		}
		for tok := range tokens {
			if _, ok := t.Tokens[tok]; !ok {
				return false
			}
		}
		return true
	}
	for tok := range tokens {
		if _, ok := t.Tokens[tok]; ok {
			return true
		}
	}
	return false
}

func (t Target) fullName() string {
	return strings.Join(append(append([]string(nil), t.Path...), t.Name), PathSeparator)
}

// Classifier groups tracks into playlists by the tokens of one attribute.
type Classifier struct {
	common
	key       string
	attribute string
	tokens    func(*collection.Track) []string
	delimiter string
	joiner    string
	targets   []Target
	remainder RemainderMode
}

// NewGenreTagParser builds a classifier over the Genre attribute, split on the library tag delimiter.
func NewGenreTagParser(key string, node *yaml.Node, opts Options) (Parser, error) {
	c := &Classifier{
		key:       key,
		attribute: collection.AttrGenre,
		delimiter: opts.TagDelimiter,
		joiner:    opts.TagDelimiter + " ",
	}
	c.tokens = func(t *collection.Track) []string { return t.Tokens(collection.AttrGenre, opts.TagDelimiter) }
	if err := c.decode(node); err != nil {
		return nil, err
	}
	return c, nil
}

// NewMyTagParser builds a classifier over the tags written into track comments as "/* tag / tag */".
func NewMyTagParser(key string, node *yaml.Node, opts Options) (Parser, error) {
	c := &Classifier{
		key:       key,
		attribute: collection.AttrComments,
		joiner:    ", ",
		tokens:    myTags,
	}
	if err := c.decode(node); err != nil {
		return nil, err
	}
	return c, nil
}

// myTags returns the "/"-separated tags between the first "/*" and the following "*/" of a comment.
func myTags(t *collection.Track) []string {
	comment, ok := t.Attr(collection.AttrComments)
	if !ok {
		return nil
	}
	start := strings.Index(comment, "/*")
	if start < 0 {
		return nil
	}
	rest := comment[start+2:]
	end := strings.Index(rest, "*/")
	if end < 0 {
		return nil
	}
	return shared.SplitTokens(rest[:end], "/")
}

func (c *Classifier) Key() string   { return c.key }
func (c *Classifier) Kind() Kind    { return KindClassifier }
func (c *Classifier) Enabled() bool { return c.common.Enabled }

// Targets returns the configured targets in declaration order.
func (c *Classifier) Targets() []Target {
	return append([]Target(nil), c.targets...)
}

func (c *Classifier) decode(node *yaml.Node) error {
	var pure []string
	var targetsNode *yaml.Node
	fields := map[string]fieldDecoder{
		"playlists": func(n *yaml.Node) error {
			targetsNode = n
			return nil
		},
		"pure_genre_playlists": func(n *yaml.Node) error {
			var err error
			pure, err = stringList(c.key, "pure_genre_playlists", n)
			return err
		},
		"remainder": func(n *yaml.Node) error {
			mode, err := parseRemainder(c.key, n)
			c.remainder = mode
			return err
		},
	}
	if err := decodeFields(c.key, node, &c.common, fields); err != nil {
		return err
	}

	if targetsNode != nil {
		if err := c.decodeTargets(targetsNode); err != nil {
			return err
		}
	}
	return c.markPure(pure)
}

func parseRemainder(parser string, n *yaml.Node) (RemainderMode, error) {
	switch n.ShortTag() {
	case "!!null":
		return RemainderNone, nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err == nil && !b {
			return RemainderNone, nil
		}
	case "!!str":
		switch strings.ToLower(strings.TrimSpace(n.Value)) {
		case "":
			return RemainderNone, nil
		case "playlist":
			return RemainderPlaylist, nil
		case "folder":
			return RemainderFolder, nil
		}
		return RemainderNone, &ConfigurationError{Parser: parser, Field: "remainder", Value: n.Value, Reason: fmt.Sprintf("%q must be playlist or folder", n.Value)}
	}
	return RemainderNone, &ConfigurationError{Parser: parser, Field: "remainder", Value: nodeValue(n)}
}

func (c *Classifier) decodeTargets(n *yaml.Node) error {
	if n.Kind == yaml.ScalarNode && n.ShortTag() == "!!null" {
		return nil
	}
	if n.Kind != yaml.SequenceNode {
		return &ConfigurationError{Parser: c.key, Field: "playlists", Value: nodeValue(n)}
	}

	seen := make(map[string]bool)
	for i, item := range n.Content {
		field := fmt.Sprintf("playlists[%d]", i)
		target, err := c.decodeTarget(field, item)
		if err != nil {
			return err
		}
		full := target.fullName()
		if seen[full] {
			return &ConfigurationError{Parser: c.key, Field: field, Value: full, Reason: fmt.Sprintf("playlist %q is declared twice", full)}
		}
		seen[full] = true
		c.targets = append(c.targets, target)
	}
	return nil
}

// decodeTarget reads a string target, which may carry a folder path, or a list of tokens matched as alternatives.
func (c *Classifier) decodeTarget(field string, item *yaml.Node) (Target, error) {
	switch {
	case item.Kind == yaml.ScalarNode && item.ShortTag() == "!!str":
		segments := strings.Split(item.Value, PathSeparator)
		for i, s := range segments {
			segments[i] = strings.TrimSpace(s)
			if segments[i] == "" {
				return Target{}, &ConfigurationError{Parser: c.key, Field: field, Value: item.Value, Reason: fmt.Sprintf("%q has an empty name", item.Value)}
			}
		}
		name := segments[len(segments)-1]
		return Target{Name: name, Path: segments[:len(segments)-1], Tokens: foldAll(c.split(name))}, nil
	case item.Kind == yaml.SequenceNode:
		items, err := stringList(c.key, field, item)
		if err != nil {
			return Target{}, err
		}
		var tokens []string
		for _, s := range items {
			if s = strings.TrimSpace(s); s != "" {
				tokens = append(tokens, s)
			}
		}
		if len(tokens) == 0 {
			return Target{}, &ConfigurationError{Parser: c.key, Field: field, Value: items, Reason: "list has no tags"}
		}
		return Target{Name: strings.Join(tokens, c.joiner), Tokens: foldAll(tokens)}, nil
	default:
		return Target{}, &ConfigurationError{Parser: c.key, Field: field, Value: nodeValue(item)}
	}
}

func (c *Classifier) split(name string) []string {
	return shared.SplitTokens(name, c.delimiter)
}

// markPure flags the targets named in pure. A name matches a target's playlist name or its full path.
func (c *Classifier) markPure(pure []string) error {
	for i, name := range pure {
		want := shared.FoldToken(name)
		found := false
		for j := range c.targets {
			t := &c.targets[j]
			if shared.FoldToken(t.Name) == want || shared.FoldToken(t.fullName()) == want {
				t.Pure = true
				found = true
			}
		}
		if !found {
			return &ConfigurationError{
				Parser: c.key,
				Field:  fmt.Sprintf("pure_genre_playlists[%d]", i),
				Value:  name,
				Reason: fmt.Sprintf("%q does not name a configured playlist", name),
			}
		}
	}
	return nil
}

func foldAll(tokens []string) map[string]struct{} {
	out := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		out[shared.FoldToken(tok)] = struct{}{}
	}
	return out
}

// Apply writes one playlist per target, plus the remainder, into the classifier's folder.
func (c *Classifier) Apply(doc *collection.Document, logger *log.Logger) (*Report, error) {
	members := make([][]string, len(c.targets))
	type leftover struct {
		id  string
		raw []string
	}
	var unmatched []leftover

	for _, t := range doc.FindTracksByTag(c.attribute, nil) {
		raw := c.tokens(t)
		if len(raw) == 0 {
			continue
		}
		folded := foldAll(raw)

		hit := false
		for i, target := range c.targets {
			if target.Accepts(folded) {
				members[i] = append(members[i], t.ID)
				hit = true
			}
		}
		if !hit {
			unmatched = append(unmatched, leftover{id: t.ID, raw: raw})
		}
	}

	base := []string{c.Name}
	order := newFolderOrder()
	report := &Report{}

	for i, target := range c.targets {
		path := append(append([]string(nil), base...), target.Path...)
		if err := c.write(doc, report, path, target.Name, members[i], logger); err != nil {
			return nil, err
		}
		order.add(base, append(append([]string(nil), target.Path...), target.Name))
	}

	switch c.remainder {
	case RemainderPlaylist:
		ids := make([]string, len(unmatched))
		for i, u := range unmatched {
			ids[i] = u.id
		}
		if err := c.write(doc, report, base, RemainderName, ids, logger); err != nil {
			return nil, err
		}
		order.add(base, []string{RemainderName})
	case RemainderFolder:
		var names []string
		byToken := make(map[string]int)
		var groups [][]string
		for _, u := range unmatched {
			for _, raw := range u.raw {
				key := shared.FoldToken(raw)
				i, ok := byToken[key]
				if !ok {
					i = len(groups)
					byToken[key] = i
					names = append(names, raw)
					groups = append(groups, nil)
				}
				if len(groups[i]) == 0 || groups[i][len(groups[i])-1] != u.id {
					groups[i] = append(groups[i], u.id)
				}
			}
		}
		folder := append(append([]string(nil), base...), RemainderName)
		for i, name := range names {
			if err := c.write(doc, report, folder, name, groups[i], logger); err != nil {
				return nil, err
			}
		}
		for _, name := range names {
			order.add(base, []string{RemainderName, name})
		}
	}

	order.apply(doc)
	logger.Info("classified tracks", "parser", c.key, "attribute", c.attribute, "playlists", len(report.Outcomes), "unmatched", len(unmatched))
	return report, nil
}

func (c *Classifier) write(doc *collection.Document, report *Report, path []string, name string, ids []string, logger *log.Logger) error {
	result, err := doc.UpsertPlaylist(path, collection.NewLeaf(name, ids...), c.Merge)
	if err != nil {
		return fmt.Errorf("%s: failed to write %q: %w", c.key, name, err)
	}
	full := append(append([]string(nil), path...), name)
	size := len(ids)
	if folder, err := doc.FindFolder(path); err == nil {
		if leaf := folder.Child(name, collection.KindLeaf); leaf != nil {
			size = leaf.Len()
		}
	}
	logger.Debug("wrote playlist", "parser", c.key, "path", strings.Join(full, PathSeparator), "result", result, "tracks", size)
	report.Outcomes = append(report.Outcomes, Outcome{Parser: c.key, Path: full, Result: result, Tracks: size})
	return nil
}

// folderOrder records, per folder, the order children were configured in.
type folderOrder struct {
	keys    []string
	paths   map[string][]string
	names   map[string][]string
	claimed map[string]map[string]bool
}

func newFolderOrder() *folderOrder {
	return &folderOrder{
		paths:   make(map[string][]string),
		names:   make(map[string][]string),
		claimed: make(map[string]map[string]bool),
	}
}

// add records rel, a path relative to base, so each folder along it lists the next segment.
func (o *folderOrder) add(base, rel []string) {
	folder := append([]string(nil), base...)
	for i := 0; ; i++ {
		key := strings.Join(folder, "\x00")
		if _, ok := o.paths[key]; !ok {
			o.keys = append(o.keys, key)
			o.paths[key] = append([]string(nil), folder...)
			o.claimed[key] = make(map[string]bool)
		}
		if i >= len(rel) {
			return
		}
		if !o.claimed[key][rel[i]] {
			o.claimed[key][rel[i]] = true
			o.names[key] = append(o.names[key], rel[i])
		}
		folder = append(folder, rel[i])
	}
}

func (o *folderOrder) apply(doc *collection.Document) {
	for _, key := range o.keys {
		if folder, err := doc.FindFolder(o.paths[key]); err == nil {
			folder.Reorder(o.names[key])
		}
	}
}
