package verify

import (
	"errors"
	"strconv"

	"github.com/roach88/specsync/internal/correlate"
)

// ErrNotStarted is returned by OnTestEnd and OnEnd before OnBegin.
var ErrNotStarted = errors.New("reporter: run not started")

// ErrTranslate wraps every failure to translate the feature files of a run:
// parse errors, timeouts and cancellation alike.
var ErrTranslate = errors.New("translate feature files")

// Code categorizes step verification failures.
type Code string

const (
	// CodeStepCount indicates declared and executed step counts differ.
	CodeStepCount Code = "STEP_COUNT_MISMATCH"

	// CodeStepText indicates a declared step differs from the executed step at the same index.
	CodeStepText Code = "STEP_TEXT_MISMATCH"
)

// Error is a step verification failure.
type Error struct {
	Code     Code
	Message  string
	Expected string
	Actual   string

	// Index is the failing step for CodeStepText, -1 otherwise.
	Index int

	URI      string
	Scenario string
}

// Error renders the expected/actual diagnostic with the feature URI.
func (e *Error) Error() string {
	return correlate.FormatMismatch(e.Message, e.Expected, e.Actual, e.URI)
}

func newCountError(declared, executed int, uri, scenario string) *Error {
	return &Error{
		Code:     CodeStepCount,
		Message:  "Not all feature steps have their equivalent matcher!",
		Expected: strconv.Itoa(declared),
		Actual:   strconv.Itoa(executed),
		Index:    -1,
		URI:      uri,
		Scenario: scenario,
	}
}

func newTextError(index int, declared, executed, uri, scenario string) *Error {
	return &Error{
		Code:     CodeStepText,
		Message:  "Step " + strconv.Itoa(index) + " does not match!",
		Expected: declared,
		Actual:   executed,
		Index:    index,
		URI:      uri,
		Scenario: scenario,
	}
}

// IsCountMismatch reports whether err is a step count failure.
func IsCountMismatch(err error) bool {
	var ve *Error
	return errors.As(err, &ve) && ve.Code == CodeStepCount
}

// IsTextMismatch reports whether err is a step text failure.
func IsTextMismatch(err error) bool {
	var ve *Error
	return errors.As(err, &ve) && ve.Code == CodeStepText
}

// CodeOf returns the failure code of a verification or correlation error,
// or "" for anything else.
func CodeOf(err error) string {
	var ve *Error
	if errors.As(err, &ve) {
		return string(ve.Code)
	}
	var ce *correlate.Error
	if errors.As(err, &ce) {
		return string(ce.Code)
	}
	return ""
}
