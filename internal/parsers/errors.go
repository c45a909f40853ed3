package parsers

import (
	"fmt"

	"github.com/desertthunder/djtools/internal/shared"
)

// ConfigurationError reports a parser option with the wrong shape or value.
type ConfigurationError struct {
	Parser string
	Field  string
	Value  any
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%v: %s.%s: %s", shared.ErrConfiguration, e.Parser, e.Field, e.Reason)
	}
	return fmt.Sprintf("%v: %s.%s: encountered invalid input type %T: %v", shared.ErrConfiguration, e.Parser, e.Field, e.Value, e.Value)
}

func (e *ConfigurationError) Unwrap() error {
	return shared.ErrConfiguration
}

// UnknownParserError reports a configuration key with no registered parser.
type UnknownParserError struct {
	Name string
}

func (e *UnknownParserError) Error() string {
	return fmt.Sprintf("%v: %s is not a valid TagParser", shared.ErrUnknownParser, e.Name)
}

func (e *UnknownParserError) Unwrap() error {
	return shared.ErrUnknownParser
}

// SkippedError records a playlist a parser could not build. The run continues without it.
type SkippedError struct {
	Parser   string
	Playlist string
	Err      error
}

func (e *SkippedError) Error() string {
	return fmt.Sprintf("%s: skipped %q: %v", e.Parser, e.Playlist, e.Err)
}

func (e *SkippedError) Unwrap() error {
	return e.Err
}
