package selector

import (
	"fmt"

	"github.com/desertthunder/djtools/internal/shared"
)

// ParseError reports an expression that could not be parsed or resolved.
//
// Column is the 1-based rune offset of Offending within Expr.
type ParseError struct {
	Expr      string
	Offending string
	Column    int
	Reason    string
	Err       error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%v: %s at column %d (%q) in %q", e.Err, e.Reason, e.Column, e.Offending, e.Expr)
}

// Unwrap returns [shared.ErrSelectorParse], [shared.ErrAmbiguousExpression] or [shared.ErrAmbiguousPlaylistName].
func (e *ParseError) Unwrap() error {
	return e.Err
}

func parseErr(expr string, tok token, reason string) *ParseError {
	return &ParseError{Expr: expr, Offending: tok.text, Column: tok.col, Reason: reason, Err: shared.ErrSelectorParse}
}
