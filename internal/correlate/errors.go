package correlate

import (
	"errors"
	"fmt"
	"strings"
)

// Code categorizes correlation failures.
type Code string

const (
	// CodeFeatureNotFound indicates no document is registered for the test's derived feature path.
	CodeFeatureNotFound Code = "FEATURE_NOT_FOUND"

	// CodeFeatureInvalid indicates the document was rejected at translation.
	CodeFeatureInvalid Code = "FEATURE_INVALID"

	// CodeFeatureTitle indicates the feature name differs from the enclosing group title.
	CodeFeatureTitle Code = "FEATURE_TITLE_MISMATCH"

	// CodeScenarioNotFound indicates no scenario is named like the test.
	CodeScenarioNotFound Code = "SCENARIO_NOT_FOUND"

	// CodeScenarioTitle indicates the resolved scenario name differs from the test title.
	CodeScenarioTitle Code = "SCENARIO_TITLE_MISMATCH"
)

// Error is a correlation failure between a test and the feature files.
type Error struct {
	Code     Code
	Message  string
	Expected string
	Actual   string

	// URI identifies the feature document (or the derived path when missing).
	URI string

	// Err is the underlying cause, if any.
	Err error
}

func (e *Error) Error() string {
	if e.Code == CodeFeatureTitle || e.Code == CodeScenarioTitle {
		return FormatMismatch(e.Message, e.Expected, e.Actual, e.URI)
	}
	if e.URI != "" && !strings.Contains(e.Message, e.URI) {
		return fmt.Sprintf("%s\nFailed on %s", e.Message, e.URI)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// FormatMismatch renders an expected/actual diagnostic:
//
//	<message>
//	Expected "<expected>" but got "<actual>".
//	Failed on <uri>
func FormatMismatch(message, expected, actual, uri string) string {
	var b strings.Builder
	b.WriteString(message)
	fmt.Fprintf(&b, "\nExpected \"%s\" but got \"%s\".", expected, actual)
	if uri != "" {
		fmt.Fprintf(&b, "\nFailed on %s", uri)
	}
	return b.String()
}

// HasCode reports whether err is or wraps an *Error with the given code.
func HasCode(err error, code Code) bool {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Code == code
	}
	return false
}

func newFeatureNotFound(specPath, testFile string) *Error {
	return &Error{
		Code:    CodeFeatureNotFound,
		Message: fmt.Sprintf("Can't find feature file %s for %s", specPath, testFile),
		URI:     specPath,
	}
}

func newFeatureInvalid(uri string, cause error) *Error {
	return &Error{
		Code:    CodeFeatureInvalid,
		Message: fmt.Sprintf("Feature file %s can't be verified: %v", uri, cause),
		URI:     uri,
		Err:     cause,
	}
}

func newFeatureTitleMismatch(expected, actual, uri string) *Error {
	return &Error{
		Code:     CodeFeatureTitle,
		Message:  "Feature title does not match!",
		Expected: expected,
		Actual:   actual,
		URI:      uri,
	}
}

func newScenarioNotFound(title, uri string) *Error {
	return &Error{
		Code:    CodeScenarioNotFound,
		Message: fmt.Sprintf("Can't find scenario: %s in %s", title, uri),
		URI:     uri,
	}
}

func newScenarioTitleMismatch(expected, actual, uri string) *Error {
	return &Error{
		Code:     CodeScenarioTitle,
		Message:  "Scenario title does not match!",
		Expected: expected,
		Actual:   actual,
		URI:      uri,
	}
}
