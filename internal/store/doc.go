// Package store keeps a SQLite history of verification runs.
//
// Each run stores its summary counters; failed tests are stored alongside
// with their diagnostic code and message so regressions can be compared
// between runs.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Run IDs are UUIDv7 and sort by creation time.
package store
