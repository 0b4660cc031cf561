// Package verify is the reporter that checks executed tests against their
// feature files.
//
// A Reporter follows the engine's run lifecycle:
//
//	OnBegin   discover feature files from the suite tree and translate them
//	OnTestEnd resolve the feature and scenario of a finished test and check
//	          its user-level steps
//	OnEnd     report the verdicts of the run
//
// # Step Matching
//
// Only steps whose category is "test.step" take part. Each executed title
// loses its leading Gherkin keyword (Given, When, Then, And, But) and is then
// compared positionally with the declared step text:
//
//  1. The counts must be equal (STEP_COUNT_MISMATCH).
//  2. Step i must equal step i (STEP_TEXT_MISMATCH). The first divergence
//     ends the comparison.
//
// Scenarios tagged @skip bypass step matching entirely.
//
// # Modes
//
// ModeImmediate (default) checks steps inside OnTestEnd and returns the
// failure as that test's error. ModeDeferred only collects steps during the
// run and checks every scenario in OnEnd. Feature and scenario lookup always
// happen in OnTestEnd.
//
// Failures never panic into the host engine: OnTestEnd and OnEnd return
// errors, and every verdict is kept in the Summary.
package verify
