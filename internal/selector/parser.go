package selector

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/desertthunder/djtools/internal/shared"
)

type parser struct {
	input string
	toks  []token
	pos   int
}

// Parse parses input into an expression tree.
//
// Errors are [*ParseError] values. A chain mixing different binary operators without parentheses
// unwraps to [shared.ErrAmbiguousExpression]; every other failure unwraps to [shared.ErrSelectorParse].
func Parse(input string) (Expr, error) {
	toks, err := lex(input)
	if err != nil {
		return nil, err
	}
	p := &parser{input: input, toks: toks}

	if p.peek().kind == tokEOF {
		return nil, parseErr(input, p.peek(), "empty expression")
	}

	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.kind != tokEOF {
		return nil, parseErr(input, tok, "unexpected "+tok.kind.String())
	}
	return expr, nil
}

func (p *parser) peek() token {
	return p.toks[p.pos]
}

func (p *parser) next() token {
	tok := p.toks[p.pos]
	if tok.kind != tokEOF {
		p.pos++
	}
	return tok
}

func binaryOp(k kind) (Op, bool) {
	switch k {
	case tokAnd:
		return OpAnd, true
	case tokOr:
		return OpOr, true
	case tokDiff:
		return OpDiff, true
	default:
		return 0, false
	}
}

// parseExpr reads unary (op unary)* where every op in the chain is the same.
func (p *parser) parseExpr() (Expr, error) {
	first, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	opTok := p.peek()
	op, ok := binaryOp(opTok.kind)
	if !ok {
		return first, nil
	}

	operands := []Expr{first}
	for {
		tok := p.peek()
		next, ok := binaryOp(tok.kind)
		if !ok {
			break
		}
		if next != op {
			return nil, &ParseError{
				Expr:      p.input,
				Offending: tok.text,
				Column:    tok.col,
				Reason:    fmt.Sprintf("%q follows %q without parentheses", next, op),
				Err:       shared.ErrAmbiguousExpression,
			}
		}
		p.next()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		operands = append(operands, operand)
	}
	return &Binary{Op: op, Operands: operands}, nil
}

func (p *parser) parseUnary() (Expr, error) {
	if tok := p.peek(); tok.kind == tokNot {
		p.next()
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &Not{X: x, Col: tok.col}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (Expr, error) {
	tok := p.next()
	switch tok.kind {
	case tokLParen:
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if closing := p.next(); closing.kind != tokRParen {
			return nil, parseErr(p.input, tok, "unbalanced (")
		}
		return expr, nil
	case tokPlaylist:
		if strings.TrimSpace(tok.value) == "" {
			return nil, parseErr(p.input, tok, "empty playlist name")
		}
		return &PlaylistRef{Name: strings.TrimSpace(tok.value), Col: tok.col}, nil
	case tokRange:
		return p.parseRange(tok)
	case tokWord:
		if tok.value == "" {
			return nil, parseErr(p.input, tok, "empty tag")
		}
		return &Tag{Value: tok.value, Col: tok.col}, nil
	case tokEOF:
		return nil, parseErr(p.input, tok, "expected a term")
	default:
		return nil, parseErr(p.input, tok, "expected a term, got "+tok.kind.String())
	}
}

// parseRange reads N, N-M, Attr:N or Attr:N-M.
func (p *parser) parseRange(tok token) (Expr, error) {
	body := tok.value
	r := &Range{Col: tok.col}

	if attr, rest, ok := strings.Cut(body, ":"); ok {
		r.Attribute = strings.TrimSpace(attr)
		if r.Attribute == "" {
			return nil, parseErr(p.input, tok, "empty attribute name")
		}
		body = strings.TrimSpace(rest)
	}
	if body == "" {
		return nil, parseErr(p.input, tok, "empty range")
	}

	lo, hi := body, body
	// Skip the first rune so a leading sign is not taken as the separator.
	if i := strings.Index(body[1:], "-"); i >= 0 {
		lo, hi = body[:i+1], body[i+2:]
	}

	var err error
	if r.Min, err = parseNumber(lo); err != nil {
		return nil, parseErr(p.input, tok, fmt.Sprintf("invalid number %q", strings.TrimSpace(lo)))
	}
	if r.Max, err = parseNumber(hi); err != nil {
		return nil, parseErr(p.input, tok, fmt.Sprintf("invalid number %q", strings.TrimSpace(hi)))
	}
	if r.Min > r.Max {
		return nil, parseErr(p.input, tok, "lower bound exceeds upper bound")
	}
	return r, nil
}

// parseNumber parses a finite range bound.
func parseNumber(s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, strconv.ErrSyntax
	}
	return f, nil
}
