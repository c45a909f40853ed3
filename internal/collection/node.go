package collection

import (
	"encoding/xml"
	"sort"
)

// Kind distinguishes folders from leaves.
type Kind int

const (
	KindFolder Kind = iota
	KindLeaf
)

func (k Kind) String() string {
	switch k {
	case KindFolder:
		return "folder"
	case KindLeaf:
		return "playlist"
	default:
		return ""
	}
}

// Node is a playlist tree node: a folder of child nodes or a leaf of track references.
type Node struct {
	Name     string
	Kind     Kind
	children []*Node
	members  *OrderedSet
	extra    []xml.Attr
}

// NewFolder creates a folder node holding children in the given order.
func NewFolder(name string, children ...*Node) *Node {
	return &Node{Name: name, Kind: KindFolder, children: children}
}

// NewLeaf creates a leaf node whose membership is ids in order, without duplicates.
func NewLeaf(name string, ids ...string) *Node {
	return &Node{Name: name, Kind: KindLeaf, members: NewOrderedSet(ids...)}
}

// IsFolder reports whether the node is a folder.
func (n *Node) IsFolder() bool { return n.Kind == KindFolder }

// IsLeaf reports whether the node is a leaf.
func (n *Node) IsLeaf() bool { return n.Kind == KindLeaf }

// Children returns a copy of a folder's direct children. Leaves have none.
func (n *Node) Children() []*Node {
	out := make([]*Node, len(n.children))
	copy(out, n.children)
	return out
}

// TrackIDs returns a leaf's members in order.
func (n *Node) TrackIDs() []string {
	if n.members == nil {
		return nil
	}
	return n.members.Items()
}

// Len returns the number of children of a folder or members of a leaf.
func (n *Node) Len() int {
	if n.IsLeaf() {
		if n.members == nil {
			return 0
		}
		return n.members.Len()
	}
	return len(n.children)
}

// Child returns the first direct child with the given name and kind.
func (n *Node) Child(name string, kind Kind) *Node {
	for _, c := range n.children {
		if c.Name == name && c.Kind == kind {
			return c
		}
	}
	return nil
}

// Reorder moves the named direct children to the front in the order given.
//
// Children not named keep their relative order after them. Names are matched once each, so a
// name listed twice claims the first two children carrying it.
func (n *Node) Reorder(names []string) {
	if len(n.children) < 2 || len(names) == 0 {
		return
	}

	taken := make([]bool, len(n.children))
	ordered := make([]*Node, 0, len(n.children))
	for _, name := range names {
		for i, c := range n.children {
			if !taken[i] && c.Name == name {
				taken[i] = true
				ordered = append(ordered, c)
				break
			}
		}
	}
	for i, c := range n.children {
		if !taken[i] {
			ordered = append(ordered, c)
		}
	}
	n.children = ordered
}

// Walk visits n and its descendants depth-first in document order.
//
// path holds the names of the ancestors of the visited node, excluding the root passed to Walk.
// Returning false from fn skips the node's descendants.
func (n *Node) Walk(fn func(path []string, node *Node) bool) {
	n.walk(nil, fn, true)
}

func (n *Node) walk(path []string, fn func([]string, *Node) bool, root bool) {
	if !fn(path, n) {
		return
	}
	next := path
	if !root {
		next = append(append([]string(nil), path...), n.Name)
	}
	for _, c := range n.children {
		c.walk(next, fn, false)
	}
}

func (n *Node) addChild(c *Node) {
	n.children = append(n.children, c)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
