package collection

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/djtools/internal/shared"
	"golang.org/x/text/encoding/htmlindex"
)

const (
	nodeTypeFolder = "0"
	nodeTypeLeaf   = "1"

	keyTypeTrackID  = "0"
	keyTypeLocation = "1"
)

type xmlDocument struct {
	XMLName    xml.Name      `xml:"DJ_PLAYLISTS"`
	Version    string        `xml:"Version,attr,omitempty"`
	Product    *rawElement   `xml:"PRODUCT"`
	Collection xmlCollection `xml:"COLLECTION"`
	Playlists  xmlPlaylists  `xml:"PLAYLISTS"`
}

type rawElement struct {
	XMLName xml.Name
	Attrs   []xml.Attr `xml:",any,attr"`
	Inner   []byte     `xml:",innerxml"`
}

type xmlCollection struct {
	Entries string     `xml:"Entries,attr"`
	Tracks  []xmlTrack `xml:"TRACK"`
}

type xmlTrack struct {
	Attrs []xml.Attr `xml:",any,attr"`
	Inner []byte     `xml:",innerxml"`
}

type xmlPlaylists struct {
	Root *xmlNode `xml:"NODE"`
}

type xmlNode struct {
	Type    string     `xml:"Type,attr"`
	Name    string     `xml:"Name,attr"`
	Count   string     `xml:"Count,attr,omitempty"`
	KeyType string     `xml:"KeyType,attr,omitempty"`
	Entries string     `xml:"Entries,attr,omitempty"`
	Extra   []xml.Attr `xml:",any,attr"`
	Nodes   []xmlNode  `xml:"NODE"`
	Tracks  []xmlKey   `xml:"TRACK"`
}

type xmlKey struct {
	Key string `xml:"Key,attr"`
}

// Load reads the document at path. Malformed attributes are logged and recorded, not fatal.
func Load(path string, logger *log.Logger) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open document: %w", err)
	}
	defer f.Close()

	doc, err := Decode(f, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return doc, nil
}

// Decode reads a document from r.
func Decode(r io.Reader, logger *log.Logger) (*Document, error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charsetReader

	var raw xmlDocument
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrMalformedDocument, err)
	}

	d := newDocument(logger)
	if raw.Version != "" {
		d.Version = raw.Version
	}
	d.product = raw.Product

	for _, xt := range raw.Collection.Tracks {
		t, errs := newTrack(xt.Attrs, xt.Inner)
		if err := d.addTrack(t); err != nil {
			return nil, err
		}
		for _, err := range errs {
			d.logger.Warn("ignoring malformed attribute", "err", err)
		}
		d.malformed = append(d.malformed, errs...)
	}

	if raw.Playlists.Root != nil {
		d.root = d.fromXMLNode(*raw.Playlists.Root)
		if d.root.IsLeaf() {
			return nil, fmt.Errorf("%w: playlist root %q is not a folder", shared.ErrMalformedDocument, d.root.Name)
		}
	}

	return d, nil
}

func (d *Document) fromXMLNode(x xmlNode) *Node {
	if x.Type == nodeTypeLeaf {
		n := NewLeaf(x.Name)
		n.extra = x.Extra
		for _, k := range x.Tracks {
			id := k.Key
			if x.KeyType == keyTypeLocation {
				if resolved, ok := d.byLocation[k.Key]; ok {
					id = resolved
				}
			}
			n.members.Add(id)
		}
		return n
	}

	n := NewFolder(x.Name)
	n.extra = x.Extra
	for _, c := range x.Nodes {
		n.addChild(d.fromXMLNode(c))
	}
	return n
}

// Save writes the document to path through a temporary sibling file, so a failed write never leaves a partial document.
func (d *Document) Save(path string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := d.Encode(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move document into place: %w", err)
	}
	return nil
}

// Encode writes the document as indented XML. Dangling references are pruned first.
func (d *Document) Encode(w io.Writer) error {
	d.prune()

	raw := xmlDocument{
		Version: d.Version,
		Product: d.product,
		Collection: xmlCollection{
			Entries: strconv.Itoa(len(d.tracks)),
			Tracks:  make([]xmlTrack, 0, len(d.tracks)),
		},
	}
	for _, t := range d.tracks {
		raw.Collection.Tracks = append(raw.Collection.Tracks, xmlTrack{Attrs: t.attrs, Inner: t.inner})
	}
	root := toXMLNode(d.root)
	raw.Playlists.Root = &root

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(raw); err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}
	if _, err := io.WriteString(w, "\n"); err != nil {
		return fmt.Errorf("failed to write document: %w", err)
	}
	return nil
}

func toXMLNode(n *Node) xmlNode {
	if n.IsLeaf() {
		x := xmlNode{
			Type:    nodeTypeLeaf,
			Name:    n.Name,
			KeyType: keyTypeTrackID,
			Entries: strconv.Itoa(n.Len()),
			Extra:   n.extra,
		}
		for _, id := range n.TrackIDs() {
			x.Tracks = append(x.Tracks, xmlKey{Key: id})
		}
		return x
	}

	x := xmlNode{
		Type:  nodeTypeFolder,
		Name:  n.Name,
		Count: strconv.Itoa(len(n.children)),
		Extra: n.extra,
	}
	for _, c := range n.children {
		x.Nodes = append(x.Nodes, toXMLNode(c))
	}
	return x
}

func charsetReader(label string, input io.Reader) (io.Reader, error) {
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, fmt.Errorf("unsupported charset %q: %w", label, err)
	}
	return enc.NewDecoder().Reader(input), nil
}
