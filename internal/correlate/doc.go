// Package correlate maps test files to feature files and executed tests to
// the parsed scenarios they claim to implement.
//
// The only on-disk contract is the naming convention: a test file
// path/to/name.<ext> belongs to path/to/name.feature. Everything after the
// first dot of the base name is treated as the test extension, so
// checkout.spec.ts and checkout.ts both map to checkout.feature.
//
// Two policies govern test files whose feature file is missing:
//
//   - PolicyStrict (default): discovery assumes the file exists and the
//     failure surfaces at lookup time as a FEATURE_NOT_FOUND error.
//   - PolicyWarn: discovery stats each candidate, logs a warning for missing
//     ones and skips their groups; their tests are then ignored.
package correlate
