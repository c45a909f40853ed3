package parsers

import (
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/djtools/internal/collection"
	"github.com/desertthunder/djtools/internal/selector"
	"gopkg.in/yaml.v3"
)

// Combiner builds one playlist per selector expression.
type Combiner struct {
	common
	key         string
	expressions []string
	opts        Options
}

// NewCombiner decodes a combiner section. Expressions are not parsed until [Combiner.Apply], so a
// malformed one only costs its own playlist.
func NewCombiner(key string, node *yaml.Node, opts Options) (Parser, error) {
	c := &Combiner{key: key, opts: opts}
	fields := map[string]fieldDecoder{
		"playlists": func(n *yaml.Node) error {
			exprs, err := stringList(key, "playlists", n)
			c.expressions = exprs
			return err
		},
	}
	if err := decodeFields(key, node, &c.common, fields); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Combiner) Key() string   { return c.key }
func (c *Combiner) Kind() Kind    { return KindCombiner }
func (c *Combiner) Enabled() bool { return c.common.Enabled }

// Apply evaluates every expression against doc and writes the results into the combiner's folder.
//
// Playlists are named after the trimmed expression and list tracks in collection order. Expressions
// that fail to parse or resolve are logged and reported as skipped.
func (c *Combiner) Apply(doc *collection.Document, logger *log.Logger) (*Report, error) {
	src := NewDocumentSource(doc, c.opts)
	base := []string{c.Name}
	report := &Report{}
	var written []string

	for _, raw := range c.expressions {
		expr := strings.TrimSpace(raw)
		set, err := selector.Select(expr, src)
		if err != nil {
			logger.Error("skipping selector playlist", "parser", c.key, "expr", expr, "err", err)
			report.Skipped = append(report.Skipped, &SkippedError{Parser: c.key, Playlist: expr, Err: err})
			continue
		}

		ids := doc.Order(set)
		result, err := doc.UpsertPlaylist(base, collection.NewLeaf(expr, ids...), c.Merge)
		if err != nil {
			return nil, err
		}

		size := len(ids)
		if folder, err := doc.FindFolder(base); err == nil {
			if leaf := folder.Child(expr, collection.KindLeaf); leaf != nil {
				size = leaf.Len()
			}
		}
		logger.Debug("wrote playlist", "parser", c.key, "expr", expr, "result", result, "tracks", size)
		report.Outcomes = append(report.Outcomes, Outcome{
			Parser: c.key,
			Path:   append(append([]string(nil), base...), expr),
			Result: result,
			Tracks: size,
		})
		written = append(written, expr)
	}

	if folder, err := doc.FindFolder(base); err == nil {
		folder.Reorder(written)
	}
	logger.Info("combined playlists", "parser", c.key, "playlists", len(report.Outcomes), "skipped", len(report.Skipped))
	return report, nil
}
