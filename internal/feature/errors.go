package feature

import (
	"errors"
	"fmt"
)

// ErrTranslateTimeout is returned when the context deadline expires before
// every feature file has been parsed.
var ErrTranslateTimeout = errors.New("feature translation timed out")

// ErrOrphanPickle is returned when the parser emits a pickle for a URI that
// has no preceding document event.
var ErrOrphanPickle = errors.New("pickle without document")

// ParseError reports a feature file that could not be read or parsed.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// DuplicateScenarioError reports two scenarios sharing a name in one document.
// Scenario lookup is by name, so the second one could never be verified.
type DuplicateScenarioError struct {
	URI  string
	Name string
}

func (e *DuplicateScenarioError) Error() string {
	return fmt.Sprintf("duplicate scenario %q in %s (outline names need <placeholders> to stay unique)", e.Name, e.URI)
}

// IsParseError reports whether err is or wraps a *ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}
