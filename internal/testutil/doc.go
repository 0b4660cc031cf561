// Package testutil holds fixtures shared by package tests: feature files on
// disk, suite trees shaped like an engine would report them, and
// deterministic clocks and ID generators for the history store.
package testutil
