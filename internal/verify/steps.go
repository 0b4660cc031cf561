package verify

import (
	"regexp"

	"github.com/roach88/specsync/internal/feature"
	"github.com/roach88/specsync/internal/run"
)

// keywordPrefix matches a Gherkin keyword and its single trailing space at
// the start of a title. Case-sensitive.
var keywordPrefix = regexp.MustCompile(`^(Given|When|Then|And|But) `)

// StripKeyword removes the leading Gherkin keyword from an executed step
// title. Titles without one are returned unchanged; keywords elsewhere in
// the text are left alone.
func StripKeyword(title string) string {
	if loc := keywordPrefix.FindStringIndex(title); loc != nil {
		return title[loc[1]:]
	}
	return title
}

// CheckSteps compares the declared steps of a scenario with executed
// user-level steps, positionally and byte for byte. It returns the first
// mismatch.
func CheckSteps(scenario *feature.Scenario, executed []run.ExecutedStep) error {
	return CheckStepsWith(feature.ExactText, scenario, executed)
}

// CheckStepsWith is CheckSteps with a custom text comparison.
func CheckStepsWith(equal feature.TextEqual, scenario *feature.Scenario, executed []run.ExecutedStep) error {
	if equal == nil {
		equal = feature.ExactText
	}
	if len(scenario.Steps) != len(executed) {
		return newCountError(len(scenario.Steps), len(executed), scenario.URI, scenario.Name)
	}

	for i, declared := range scenario.Steps {
		actual := StripKeyword(executed[i].Title)
		if !equal(declared.Text, actual) {
			return newTextError(i, declared.Text, actual, scenario.URI, scenario.Name)
		}
	}
	return nil
}
