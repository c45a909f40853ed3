package selector

import (
	"strings"
	"unicode"
)

type kind int

const (
	tokEOF kind = iota
	tokAnd
	tokOr
	tokDiff
	tokNot
	tokLParen
	tokRParen
	tokPlaylist
	tokRange
	tokWord
)

func (k kind) String() string {
	switch k {
	case tokEOF:
		return "end of expression"
	case tokAnd:
		return "&"
	case tokOr:
		return "|"
	case tokDiff:
		return "~"
	case tokNot:
		return "!"
	case tokLParen:
		return "("
	case tokRParen:
		return ")"
	case tokPlaylist:
		return "playlist"
	case tokRange:
		return "range"
	case tokWord:
		return "tag"
	default:
		return "unknown"
	}
}

// token is a lexeme. text is the source substring; value is the payload with delimiters removed.
type token struct {
	kind  kind
	text  string
	value string
	col   int
}

const operators = "&|~!(){}[]\""

// lex splits input into tokens. Columns are 1-based rune offsets.
func lex(input string) ([]token, error) {
	runes := []rune(input)
	var toks []token

	for i := 0; i < len(runes); {
		r := runes[i]
		col := i + 1

		switch {
		case unicode.IsSpace(r):
			i++
		case r == '&':
			toks = append(toks, token{kind: tokAnd, text: "&", col: col})
			i++
		case r == '|':
			toks = append(toks, token{kind: tokOr, text: "|", col: col})
			i++
		case r == '~':
			toks = append(toks, token{kind: tokDiff, text: "~", col: col})
			i++
		case r == '!':
			toks = append(toks, token{kind: tokNot, text: "!", col: col})
			i++
		case r == '(':
			toks = append(toks, token{kind: tokLParen, text: "(", col: col})
			i++
		case r == ')':
			toks = append(toks, token{kind: tokRParen, text: ")", col: col})
			i++
		case r == '{', r == '[', r == '"':
			closer := map[rune]rune{'{': '}', '[': ']', '"': '"'}[r]
			end := indexRune(runes, closer, i+1)
			if end < 0 {
				tok := token{text: string(runes[i:]), col: col}
				return nil, parseErr(input, tok, "unterminated "+string(r))
			}
			tok := token{text: string(runes[i : end+1]), value: string(runes[i+1 : end]), col: col}
			switch r {
			case '{':
				tok.kind = tokPlaylist
			case '[':
				tok.kind = tokRange
				tok.value = strings.TrimSpace(tok.value)
			default:
				tok.kind = tokWord
				tok.value = strings.TrimSpace(tok.value)
			}
			toks = append(toks, tok)
			i = end + 1
		case r == '}' || r == ']':
			return nil, parseErr(input, token{text: string(r), col: col}, "unexpected "+string(r))
		default:
			j := i
			for j < len(runes) && !strings.ContainsRune(operators, runes[j]) {
				j++
			}
			word := strings.TrimRightFunc(string(runes[i:j]), unicode.IsSpace)
			toks = append(toks, token{kind: tokWord, text: word, value: word, col: col})
			i = j
		}
	}

	return append(toks, token{kind: tokEOF, col: len(runes) + 1}), nil
}

func indexRune(runes []rune, r rune, from int) int {
	for i := from; i < len(runes); i++ {
		if runes[i] == r {
			return i
		}
	}
	return -1
}
