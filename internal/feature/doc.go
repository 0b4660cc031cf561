// Package feature translates Gherkin feature files into the in-memory model
// used by correlation and verification.
//
// Translation delegates parsing to github.com/cucumber/gherkin/go. Each file
// produces one document event followed by one event per pickle (a scenario
// with outline rows expanded and tags inherited). Events flow from a producer
// goroutine to a consumer that builds a Map keyed by the URI the parser
// stamped on the document.
//
// # Guarantees
//
//   - A document event always precedes the pickle events for its URI.
//   - Scenario names are unique per document. A document with duplicates is
//     kept with Err set so only its own tests fail.
//   - The whole translation is bounded by the caller's context. A deadline
//     yields ErrTranslateTimeout instead of hanging the run, and closes the
//     reader in progress.
//   - Names and steps compare byte for byte by default; SameText offers
//     NFC-normalized comparison.
//   - Malformed files yield *ParseError carrying the offending path. No
//     partial map is ever returned.
package feature
