package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")
	ErrConfiguration = fmt.Errorf("configuration error")
	ErrUnknownParser = fmt.Errorf("unknown parser")

	// Document errors
	ErrMalformedDocument     = fmt.Errorf("malformed document")
	ErrMalformedAttribute    = fmt.Errorf("malformed attribute")
	ErrNotFound              = fmt.Errorf("not found")
	ErrAmbiguousPlaylistName = fmt.Errorf("ambiguous playlist name")
	ErrDanglingReference     = fmt.Errorf("dangling track reference")
	ErrInvalidPath           = fmt.Errorf("invalid playlist path")

	// Selector errors
	ErrSelectorParse       = fmt.Errorf("selector parse error")
	ErrAmbiguousExpression = fmt.Errorf("ambiguous expression")

	// Orchestration errors
	ErrInvalidTransition = fmt.Errorf("invalid state transition")
	ErrOutputLocked      = fmt.Errorf("output document is locked by another run")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
