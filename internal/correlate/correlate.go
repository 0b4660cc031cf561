package correlate

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/roach88/specsync/internal/feature"
	"github.com/roach88/specsync/internal/run"
)

// Policy decides what happens to test files without a feature file.
type Policy int

const (
	// PolicyStrict defers the failure to lookup time.
	PolicyStrict Policy = iota
	// PolicyWarn skips the file with a warning at discovery time.
	PolicyWarn
)

// String returns the configuration name of the policy.
func (p Policy) String() string {
	switch p {
	case PolicyStrict:
		return "strict"
	case PolicyWarn:
		return "warn"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// ParsePolicy converts a configuration name to a Policy.
func ParsePolicy(name string) (Policy, error) {
	switch name {
	case "", "strict":
		return PolicyStrict, nil
	case "warn":
		return PolicyWarn, nil
	default:
		return PolicyStrict, fmt.Errorf("unknown missing-feature policy %q (use strict or warn)", name)
	}
}

// Convention is the file-name mapping from test files to feature files.
type Convention struct {
	// Extension of feature files, including the dot.
	Extension string

	// TrimSuffixes are removed from the stem before the extension is added,
	// first match only. "_test" maps checkout_test.go to checkout.feature.
	TrimSuffixes []string
}

// DefaultConvention maps <stem>.<ext> to <stem>.feature.
func DefaultConvention() Convention {
	return Convention{Extension: ".feature"}
}

// SpecPath derives the feature file path for a test file.
func (c Convention) SpecPath(testFile string) string {
	dir, base := filepath.Split(testFile)
	if i := strings.Index(base, "."); i > 0 {
		base = base[:i]
	}
	for _, suffix := range c.TrimSuffixes {
		if suffix != "" && len(base) > len(suffix) && strings.HasSuffix(base, suffix) {
			base = strings.TrimSuffix(base, suffix)
			break
		}
	}

	ext := c.Extension
	if ext == "" {
		ext = ".feature"
	}
	return filepath.Clean(filepath.Join(dir, base+ext))
}

// Correlator discovers feature files and resolves tests to scenarios.
type Correlator struct {
	convention Convention
	policy     Policy
	logger     *zap.Logger
	exists     func(path string) bool
	equal      feature.TextEqual
}

// Option configures a Correlator.
type Option func(*Correlator)

// WithConvention sets the naming convention.
func WithConvention(c Convention) Option {
	return func(co *Correlator) { co.convention = c }
}

// WithPolicy sets the missing-feature policy.
func WithPolicy(p Policy) Option {
	return func(co *Correlator) { co.policy = p }
}

// WithLogger sets the logger for discovery warnings.
func WithLogger(logger *zap.Logger) Option {
	return func(co *Correlator) {
		if logger != nil {
			co.logger = logger
		}
	}
}

// WithExists replaces the file-existence check used by PolicyWarn.
func WithExists(exists func(path string) bool) Option {
	return func(co *Correlator) {
		if exists != nil {
			co.exists = exists
		}
	}
}

// WithTextEqual sets how feature and scenario names are compared with test
// titles. The default is feature.ExactText.
func WithTextEqual(equal feature.TextEqual) Option {
	return func(co *Correlator) {
		if equal != nil {
			co.equal = equal
		}
	}
}

// New creates a Correlator with the default convention and strict policy.
func New(opts ...Option) *Correlator {
	c := &Correlator{
		convention: DefaultConvention(),
		policy:     PolicyStrict,
		logger:     zap.NewNop(),
		equal:      feature.ExactText,
		exists: func(path string) bool {
			_, err := os.Stat(path)
			return err == nil
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Convention returns the naming convention in use.
func (c *Correlator) Convention() Convention {
	return c.convention
}

// Policy returns the missing-feature policy in use.
func (c *Correlator) Policy() Policy {
	return c.policy
}

// TextEqual returns the title comparison in use.
func (c *Correlator) TextEqual() feature.TextEqual {
	return c.equal
}

// FindSpecFiles walks the group trees and returns the feature file path of
// every group with a source location, deduplicated, in discovery order.
//
// Under PolicyWarn, a group whose feature file does not exist is logged and
// its subtree is not visited.
func (c *Correlator) FindSpecFiles(groups ...*run.Group) []string {
	var files []string
	seen := make(map[string]bool)
	warned := make(map[string]bool)

	var walk func(groups []*run.Group)
	walk = func(groups []*run.Group) {
		for _, g := range groups {
			if g == nil {
				continue
			}
			if g.Location != nil && g.Location.File != "" {
				path := c.convention.SpecPath(g.Location.File)
				if c.policy == PolicyWarn && !c.exists(path) {
					if !warned[g.Location.File] {
						warned[g.Location.File] = true
						c.logger.Warn(g.Location.File+" has no associated feature file!",
							zap.String("test_file", g.Location.File),
							zap.String("feature_file", path),
						)
					}
					continue
				}
				if !seen[path] {
					seen[path] = true
					files = append(files, path)
				}
			}
			walk(g.Groups)
		}
	}
	walk(groups)

	return files
}

// ResolveFeature returns the document belonging to the test's source file
// and checks that its feature name equals the enclosing group's title.
//
// Under PolicyWarn a missing document returns (nil, nil): the test is not
// verified. Under PolicyStrict it is a FEATURE_NOT_FOUND error. A document
// rejected at translation fails with FEATURE_INVALID.
func (c *Correlator) ResolveFeature(features feature.Map, test *run.TestCase) (*feature.Document, error) {
	path := c.convention.SpecPath(test.Location.File)
	doc, ok := features.Lookup(path)
	if !ok {
		if c.policy == PolicyWarn {
			return nil, nil
		}
		return nil, newFeatureNotFound(path, test.Location.File)
	}

	if doc.Err != nil {
		return nil, newFeatureInvalid(doc.URI, doc.Err)
	}
	if !doc.HasFeature || !c.equal(doc.FeatureName, test.ParentTitle()) {
		return nil, newFeatureTitleMismatch(doc.FeatureName, test.ParentTitle(), doc.URI)
	}
	return doc, nil
}

// ResolveScenario finds the scenario named like the test. Names are unique
// per document, so the first match is the only match.
func (c *Correlator) ResolveScenario(test *run.TestCase, doc *feature.Document) (*feature.Scenario, error) {
	if doc == nil {
		return nil, fmt.Errorf("resolve scenario %q: no feature document", test.Title)
	}

	scenario := doc.FindScenario(test.Title, c.equal)
	if scenario == nil {
		return nil, newScenarioNotFound(test.Title, doc.URI)
	}

	// Guards the lookup predicate above against drifting from the title rule.
	if !c.equal(test.Title, scenario.Name) {
		return nil, newScenarioTitleMismatch(test.Title, scenario.Name, doc.URI)
	}
	return scenario, nil
}
