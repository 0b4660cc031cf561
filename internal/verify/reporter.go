package verify

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/roach88/specsync/internal/correlate"
	"github.com/roach88/specsync/internal/feature"
	"github.com/roach88/specsync/internal/run"
)

// Mode selects when step matching happens.
type Mode int

const (
	// ModeImmediate checks steps as each test ends.
	ModeImmediate Mode = iota
	// ModeDeferred collects steps and checks everything at run end.
	ModeDeferred
)

// String returns the configuration name of the mode.
func (m Mode) String() string {
	switch m {
	case ModeImmediate:
		return "immediate"
	case ModeDeferred:
		return "deferred"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode converts a configuration name to a Mode.
func ParseMode(name string) (Mode, error) {
	switch name {
	case "", "immediate":
		return ModeImmediate, nil
	case "deferred":
		return ModeDeferred, nil
	default:
		return ModeImmediate, fmt.Errorf("unknown mode %q (use immediate or deferred)", name)
	}
}

// DefaultParseTimeout bounds feature translation in OnBegin.
const DefaultParseTimeout = 30 * time.Second

// Reporter verifies executed tests against their feature files.
//
// Callbacks must not run concurrently. Each OnBegin starts a fresh session;
// nothing survives from one run to the next.
type Reporter struct {
	correlator   *correlate.Correlator
	mode         Mode
	stepCategory string
	skipTag      string
	parseTimeout time.Duration
	logger       *zap.Logger
	featureOpts  []feature.Option

	session *session
}

// Option configures a Reporter.
type Option func(*Reporter)

// WithCorrelator sets the correlator used for discovery and lookups.
func WithCorrelator(c *correlate.Correlator) Option {
	return func(r *Reporter) {
		if c != nil {
			r.correlator = c
		}
	}
}

// WithMode sets when step matching happens.
func WithMode(m Mode) Option {
	return func(r *Reporter) { r.mode = m }
}

// WithStepCategory sets the category of user-level steps.
func WithStepCategory(category string) Option {
	return func(r *Reporter) {
		if category != "" {
			r.stepCategory = category
		}
	}
}

// WithSkipTag sets the tag that bypasses step matching.
func WithSkipTag(tag string) Option {
	return func(r *Reporter) {
		if tag != "" {
			r.skipTag = tag
		}
	}
}

// WithParseTimeout bounds feature translation. Zero or negative disables
// the bound; the caller's context still applies.
func WithParseTimeout(d time.Duration) Option {
	return func(r *Reporter) { r.parseTimeout = d }
}

// WithLogger sets the logger for run diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Reporter) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithFeatureOptions passes options through to feature.Translate.
func WithFeatureOptions(opts ...feature.Option) Option {
	return func(r *Reporter) { r.featureOpts = append(r.featureOpts, opts...) }
}

// NewReporter creates a Reporter in immediate mode with strict correlation.
func NewReporter(opts ...Option) *Reporter {
	r := &Reporter{
		correlator:   correlate.New(),
		mode:         ModeImmediate,
		stepCategory: run.CategoryTestStep,
		skipTag:      "skip",
		parseTimeout: DefaultParseTimeout,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Mode returns the configured mode.
func (r *Reporter) Mode() Mode {
	return r.mode
}

// session is the state of one run. The feature map is written once in
// Begin and only read afterwards.
type session struct {
	features feature.Map
	outcomes []Outcome
	pending  []pendingCheck
}

// pendingCheck is a deferred step comparison.
type pendingCheck struct {
	outcome  int
	scenario *feature.Scenario
	order    int
	steps    []run.ExecutedStep
}

// OnBegin discovers the feature files of the suite, translates them and
// starts a new session. Translation failures wrap ErrTranslate.
func (r *Reporter) OnBegin(ctx context.Context, suite *run.Group) error {
	files := r.correlator.FindSpecFiles(suite)
	r.logger.Debug("feature files discovered",
		zap.Int("count", len(files)),
		zap.Stringer("policy", r.correlator.Policy()),
	)

	if r.parseTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.parseTimeout)
		defer cancel()
	}

	opts := append([]feature.Option{
		feature.WithLogger(r.logger),
		feature.WithSkipMissing(),
	}, r.featureOpts...)

	features, err := feature.Translate(ctx, files, opts...)
	if err != nil {
		r.session = nil
		return fmt.Errorf("%w: %w", ErrTranslate, err)
	}

	r.Begin(features)
	return nil
}

// Begin starts a session over an already translated feature map.
func (r *Reporter) Begin(features feature.Map) {
	if features == nil {
		features = feature.Map{}
	}
	r.session = &session{features: features}
	r.logger.Info("verification started",
		zap.Int("documents", len(features)),
		zap.Int("scenarios", features.ScenarioCount()),
		zap.Stringer("mode", r.mode),
	)
}

// Features returns the feature map of the current session, nil when idle.
func (r *Reporter) Features() feature.Map {
	if r.session == nil {
		return nil
	}
	return r.session.features
}

// OnTestEnd verifies a finished test. The returned error is the test's
// verification failure; the run continues either way.
func (r *Reporter) OnTestEnd(test *run.TestCase, result run.TestResult) error {
	s := r.session
	if s == nil {
		return ErrNotStarted
	}

	outcome := Outcome{Test: test}

	doc, err := r.correlator.ResolveFeature(s.features, test)
	if err != nil {
		return r.record(s, outcome.fail(err))
	}
	if doc == nil {
		outcome.Status = StatusIgnored
		return r.record(s, outcome)
	}
	outcome.URI = doc.URI

	scenario, err := r.correlator.ResolveScenario(test, doc)
	if err != nil {
		return r.record(s, outcome.fail(err))
	}
	outcome.Scenario = scenario.Name

	if scenario.HasTag(r.skipTag) {
		outcome.Status = StatusSkipped
		return r.record(s, outcome)
	}

	steps := result.StepsIn(r.stepCategory)

	if r.mode == ModeDeferred {
		outcome.Status = StatusPending
		s.pending = append(s.pending, pendingCheck{
			outcome:  len(s.outcomes),
			scenario: scenario,
			order:    scenarioIndex(doc, scenario),
			steps:    steps,
		})
		return r.record(s, outcome)
	}

	if err := CheckStepsWith(r.correlator.TextEqual(), scenario, steps); err != nil {
		return r.record(s, outcome.fail(err))
	}
	outcome.Status = StatusPassed
	return r.record(s, outcome)
}

// OnEnd finishes the run: pending checks are evaluated, the session is
// discarded and the summary returned. The error joins every failure.
func (r *Reporter) OnEnd() (*Summary, error) {
	s := r.session
	if s == nil {
		return nil, ErrNotStarted
	}
	r.session = nil

	// Deferred checks run feature by feature, in declaration order.
	sort.SliceStable(s.pending, func(i, j int) bool {
		a, b := s.pending[i], s.pending[j]
		if a.scenario.URI != b.scenario.URI {
			return a.scenario.URI < b.scenario.URI
		}
		return a.order < b.order
	})
	for _, p := range s.pending {
		o := &s.outcomes[p.outcome]
		if err := CheckStepsWith(r.correlator.TextEqual(), p.scenario, p.steps); err != nil {
			*o = o.fail(err)
			r.logFailure(*o)
			continue
		}
		o.Status = StatusPassed
	}

	summary := newSummary(s.outcomes)
	r.logger.Info("verification finished",
		zap.Int("passed", summary.Passed),
		zap.Int("failed", summary.Failed),
		zap.Int("skipped", summary.Skipped),
		zap.Int("ignored", summary.Ignored),
	)
	return summary, summary.Err()
}

// record stores the outcome and returns its error.
func (r *Reporter) record(s *session, o Outcome) error {
	s.outcomes = append(s.outcomes, o)
	if o.Err != nil {
		r.logFailure(o)
		return o.Err
	}
	r.logger.Debug("test verified",
		zap.String("test", o.Test.Title),
		zap.String("uri", o.URI),
		zap.String("status", string(o.Status)),
	)
	return nil
}

func (r *Reporter) logFailure(o Outcome) {
	r.logger.Warn("test does not match its feature file",
		zap.String("test", o.Test.Title),
		zap.String("file", o.Test.Location.File),
		zap.String("uri", o.URI),
		zap.String("code", CodeOf(o.Err)),
		zap.Error(o.Err),
	)
}

func scenarioIndex(doc *feature.Document, scenario *feature.Scenario) int {
	for i, sc := range doc.Scenarios {
		if sc == scenario {
			return i
		}
	}
	return len(doc.Scenarios)
}

// Status is the verdict for one test.
type Status string

const (
	StatusPassed  Status = "passed"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
	StatusIgnored Status = "ignored"
	StatusPending Status = "pending"
)

// Outcome is the verification verdict of one finished test.
type Outcome struct {
	Test     *run.TestCase
	URI      string
	Scenario string
	Status   Status
	Err      error
}

func (o Outcome) fail(err error) Outcome {
	o.Status = StatusFailed
	o.Err = err
	var ce *correlate.Error
	if o.URI == "" && errors.As(err, &ce) {
		o.URI = ce.URI
	}
	return o
}

// Summary aggregates the outcomes of a run.
type Summary struct {
	Outcomes []Outcome
	Passed   int
	Failed   int
	Skipped  int
	Ignored  int
}

func newSummary(outcomes []Outcome) *Summary {
	s := &Summary{Outcomes: outcomes}
	for _, o := range outcomes {
		switch o.Status {
		case StatusPassed:
			s.Passed++
		case StatusFailed:
			s.Failed++
		case StatusSkipped:
			s.Skipped++
		case StatusIgnored:
			s.Ignored++
		}
	}
	return s
}

// Total is the number of tests seen.
func (s *Summary) Total() int {
	return len(s.Outcomes)
}

// Failures returns the failed outcomes in completion order.
func (s *Summary) Failures() []Outcome {
	var failed []Outcome
	for _, o := range s.Outcomes {
		if o.Status == StatusFailed {
			failed = append(failed, o)
		}
	}
	return failed
}

// Err joins the errors of all failed outcomes, nil if none failed.
func (s *Summary) Err() error {
	var errs []error
	for _, o := range s.Failures() {
		errs = append(errs, o.Err)
	}
	return errors.Join(errs...)
}
