package run

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Report is a complete run as written by an engine: the suite tree and the
// results of the tests that ran, in completion order.
type Report struct {
	Suite   *Group        `yaml:"suite"`
	Results []ResultEntry `yaml:"results"`
}

// ResultEntry is one completed test in a report.
type ResultEntry struct {
	Test   TestRef        `yaml:"test"`
	Status string         `yaml:"status,omitempty"`
	Steps  []ExecutedStep `yaml:"steps"`
}

// TestRef identifies a test of the suite tree.
type TestRef struct {
	File  string `yaml:"file"`
	Title string `yaml:"title"`

	// Group disambiguates tests sharing file and title.
	Group string `yaml:"group,omitempty"`
}

// LoadReport reads and parses a report file.
func LoadReport(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read report file: %w", err)
	}
	report, err := ParseReport(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return report, nil
}

// ParseReport decodes a YAML or JSON report, rejecting unknown fields, and
// links the suite tree.
func ParseReport(data []byte) (*Report, error) {
	var report Report
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&report); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty report")
		}
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}

	if report.Suite == nil {
		return nil, fmt.Errorf("invalid report: suite is required")
	}
	report.Suite.Link()

	if err := validateReport(&report); err != nil {
		return nil, fmt.Errorf("invalid report: %w", err)
	}
	return &report, nil
}

// validateReport checks required fields of tests and results.
func validateReport(r *Report) error {
	for _, tc := range r.Suite.AllTests() {
		if tc.Title == "" {
			return fmt.Errorf("test in group %q: title is required", tc.ParentTitle())
		}
		if tc.Location.File == "" {
			return fmt.Errorf("test %q: location.file is required", tc.Title)
		}
	}
	for i, entry := range r.Results {
		if entry.Test.File == "" {
			return fmt.Errorf("results[%d]: test.file is required", i)
		}
		if entry.Test.Title == "" {
			return fmt.Errorf("results[%d]: test.title is required", i)
		}
	}
	return nil
}

// Runs resolves every result entry against the suite tree.
// Fails if an entry matches no test or more than one.
func (r *Report) Runs() ([]TestRun, error) {
	tests := r.Suite.AllTests()
	runs := make([]TestRun, 0, len(r.Results))

	for i, entry := range r.Results {
		tc, err := resolveRef(tests, entry.Test)
		if err != nil {
			return nil, fmt.Errorf("results[%d]: %w", i, err)
		}
		runs = append(runs, TestRun{
			Test:   tc,
			Result: TestResult{Status: entry.Status, Steps: entry.Steps},
		})
	}
	return runs, nil
}

func resolveRef(tests []*TestCase, ref TestRef) (*TestCase, error) {
	var found *TestCase
	for _, tc := range tests {
		if tc.Location.File != ref.File || tc.Title != ref.Title {
			continue
		}
		if ref.Group != "" && tc.ParentTitle() != ref.Group {
			continue
		}
		if found != nil {
			return nil, fmt.Errorf("test %q in %s is ambiguous (set test.group)", ref.Title, ref.File)
		}
		found = tc
	}
	if found == nil {
		return nil, fmt.Errorf("test %q in %s not found in suite", ref.Title, ref.File)
	}
	return found, nil
}
