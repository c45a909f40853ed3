package selector

import (
	"strconv"
	"strings"
)

// Op is a binary set operator.
type Op int

const (
	OpAnd Op = iota
	OpOr
	OpDiff
)

func (o Op) String() string {
	switch o {
	case OpAnd:
		return "&"
	case OpOr:
		return "|"
	case OpDiff:
		return "~"
	default:
		return "?"
	}
}

// Expr is a node of a parsed selector.
type Expr interface {
	String() string
	column() int
}

// PlaylistRef selects the members of the leaf playlist Name.
type PlaylistRef struct {
	Name string
	Col  int
}

// Range selects tracks whose numeric Attribute lies in [Min, Max]. An empty Attribute means the
// source's default range attribute.
type Range struct {
	Attribute string
	Min, Max  float64
	Col       int
}

// Tag selects tracks carrying Value as a tag token.
type Tag struct {
	Value string
	Col   int
}

// Not complements X against the performable domain.
type Not struct {
	X   Expr
	Col int
}

// Binary applies Op left to right across Operands.
type Binary struct {
	Op       Op
	Operands []Expr
}

func (p *PlaylistRef) String() string { return "{" + p.Name + "}" }
func (p *PlaylistRef) column() int    { return p.Col }

func (r *Range) String() string {
	var b strings.Builder
	b.WriteByte('[')
	if r.Attribute != "" {
		b.WriteString(r.Attribute + ":")
	}
	b.WriteString(formatNumber(r.Min))
	if r.Max != r.Min {
		b.WriteString("-" + formatNumber(r.Max))
	}
	b.WriteByte(']')
	return b.String()
}
func (r *Range) column() int { return r.Col }

func (t *Tag) String() string {
	if strings.ContainsAny(t.Value, operators) {
		return `"` + t.Value + `"`
	}
	return t.Value
}
func (t *Tag) column() int { return t.Col }

func (n *Not) String() string {
	if _, ok := n.X.(*Binary); ok {
		return "!(" + n.X.String() + ")"
	}
	return "!" + n.X.String()
}
func (n *Not) column() int { return n.Col }

func (b *Binary) String() string {
	parts := make([]string, len(b.Operands))
	for i, o := range b.Operands {
		parts[i] = o.String()
		if _, ok := o.(*Binary); ok {
			parts[i] = "(" + parts[i] + ")"
		}
	}
	return strings.Join(parts, " "+b.Op.String()+" ")
}
func (b *Binary) column() int { return b.Operands[0].column() }

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
