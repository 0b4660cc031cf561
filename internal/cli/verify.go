package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roach88/specsync/internal/config"
	"github.com/roach88/specsync/internal/correlate"
	"github.com/roach88/specsync/internal/run"
	"github.com/roach88/specsync/internal/store"
	"github.com/roach88/specsync/internal/verify"
)

// VerifyOptions holds flags for the verify command.
type VerifyOptions struct {
	*RootOptions
	DB             string // history database; overrides history_db
	Mode           string // overrides mode
	MissingFeature string // overrides missing_feature

	// storeOpts are passed to store.Open when recording the run.
	storeOpts []store.Option
}

// TestVerdict is the verification result of one test.
type TestVerdict struct {
	File     string `json:"file"`
	Group    string `json:"group,omitempty"`
	Title    string `json:"title"`
	URI      string `json:"uri,omitempty"`
	Scenario string `json:"scenario,omitempty"`
	Status   string `json:"status"`
	Code     string `json:"code,omitempty"`
	Message  string `json:"message,omitempty"`
}

// VerifyResult is the outcome of verifying a run report.
type VerifyResult struct {
	Report  string        `json:"report"`
	Mode    string        `json:"mode"`
	Total   int           `json:"total"`
	Passed  int           `json:"passed"`
	Failed  int           `json:"failed"`
	Skipped int           `json:"skipped"`
	Ignored int           `json:"ignored"`
	Tests   []TestVerdict `json:"tests"`
	RunID   string        `json:"run_id,omitempty"`
}

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	return newVerifyCommand(rootOpts)
}

func newVerifyCommand(rootOpts *RootOptions, storeOpts ...store.Option) *cobra.Command {
	opts := &VerifyOptions{RootOptions: rootOpts, storeOpts: storeOpts}

	cmd := &cobra.Command{
		Use:   "verify <report>",
		Short: "Verify a run report against its feature files",
		Long: `Verify the tests of a run report against the feature files next to them.

Each test file maps to a feature file of the same base name. The enclosing
describe block must be titled like the feature, each test like a scenario,
and the test's user steps must match the scenario's steps in order.

Exit codes:
  0 - All tests match their feature files
  1 - One or more tests do not match
  2 - Command error (unreadable report, broken feature file, etc.)

Examples:
  specsync verify results.yaml
  specsync verify results.json --mode deferred
  specsync verify results.yaml --db .specsync/history.db --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(cmd.Context(), opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DB, "db", "", "record the run in this history database")
	cmd.Flags().StringVar(&opts.Mode, "mode", "", "when steps are checked (immediate|deferred)")
	cmd.Flags().StringVar(&opts.MissingFeature, "missing-feature", "", "policy for test files without a feature file (strict|warn)")

	return cmd
}

func runVerify(ctx context.Context, opts *VerifyOptions, reportPath string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	logger := opts.log()

	cfg, err := opts.loadConfig()
	if err != nil {
		return commandError(formatter, ErrCodeConfig, "invalid configuration", err)
	}
	cfg = opts.applyOverrides(cfg)

	reporter, err := newReporter(cfg, logger)
	if err != nil {
		return commandError(formatter, ErrCodeConfig, "invalid configuration", err)
	}

	report, err := run.LoadReport(reportPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return commandError(formatter, ErrCodeNotFound, fmt.Sprintf("report not found: %s", reportPath), nil)
		}
		return commandError(formatter, ErrCodeReport, "failed to load report", err)
	}
	formatter.VerboseLog("Verifying %d test result(s) from %s (%s mode)", len(report.Results), reportPath, reporter.Mode())

	summary, err := verify.Replay(ctx, reporter, report)
	if err != nil {
		if errors.Is(err, verify.ErrTranslate) {
			return commandError(formatter, ErrCodeTranslate, "failed to read feature files", err)
		}
		return commandError(formatter, ErrCodeReport, "invalid report", err)
	}

	result := newVerifyResult(reportPath, reporter.Mode(), summary)

	if dbPath := firstNonEmpty(opts.DB, cfg.HistoryDB); dbPath != "" {
		id, err := recordRun(ctx, dbPath, store.NewRunRecord(reportPath, reporter.Mode(), summary), opts.storeOpts...)
		if err != nil {
			return commandError(formatter, ErrCodeStore, "failed to record run", err)
		}
		result.RunID = id
		logger.Info("run recorded", zap.String("run_id", id), zap.String("db", dbPath))
	}

	if opts.Format == "json" {
		if result.Failed > 0 {
			_ = formatter.Failure(ErrCodeMismatch, mismatchMessage(result.Failed), result)
		} else if err := formatter.Success(result); err != nil {
			return err
		}
	} else {
		writeVerifyText(formatter.Writer, result)
	}

	if result.Failed > 0 {
		return NewExitError(ExitFailure, mismatchMessage(result.Failed))
	}
	return nil
}

// applyOverrides returns cfg with command-line flags applied.
func (o *VerifyOptions) applyOverrides(cfg *config.Config) *config.Config {
	c := *cfg
	if o.Mode != "" {
		c.Mode = o.Mode
	}
	if o.MissingFeature != "" {
		c.MissingFeature = o.MissingFeature
	}
	return &c
}

// newCorrelator builds the correlator a configuration selects.
func newCorrelator(cfg *config.Config, logger *zap.Logger) (*correlate.Correlator, error) {
	copts, err := cfg.CorrelatorOptions()
	if err != nil {
		return nil, err
	}
	return correlate.New(append(copts, correlate.WithLogger(logger))...), nil
}

// newReporter builds the reporter a configuration selects.
func newReporter(cfg *config.Config, logger *zap.Logger) (*verify.Reporter, error) {
	correlator, err := newCorrelator(cfg, logger)
	if err != nil {
		return nil, err
	}
	vopts, err := cfg.ReporterOptions()
	if err != nil {
		return nil, err
	}
	vopts = append(vopts, verify.WithCorrelator(correlator), verify.WithLogger(logger))
	return verify.NewReporter(vopts...), nil
}

func recordRun(ctx context.Context, dbPath string, rec store.RunRecord, opts ...store.Option) (string, error) {
	s, err := store.Open(dbPath, opts...)
	if err != nil {
		return "", err
	}
	defer s.Close()
	return s.RecordRun(ctx, rec)
}

func newVerifyResult(reportPath string, mode verify.Mode, summary *verify.Summary) VerifyResult {
	result := VerifyResult{
		Report:  reportPath,
		Mode:    mode.String(),
		Total:   summary.Total(),
		Passed:  summary.Passed,
		Failed:  summary.Failed,
		Skipped: summary.Skipped,
		Ignored: summary.Ignored,
		Tests:   make([]TestVerdict, 0, len(summary.Outcomes)),
	}
	for _, o := range summary.Outcomes {
		v := TestVerdict{
			URI:      o.URI,
			Scenario: o.Scenario,
			Status:   string(o.Status),
			Code:     verify.CodeOf(o.Err),
		}
		if o.Test != nil {
			v.File = o.Test.Location.File
			v.Group = o.Test.ParentTitle()
			v.Title = o.Test.Title
		}
		if o.Err != nil {
			v.Message = o.Err.Error()
		}
		result.Tests = append(result.Tests, v)
	}
	return result
}

func writeVerifyText(w io.Writer, result VerifyResult) {
	for _, v := range result.Tests {
		name := v.Title
		if v.Group != "" {
			name = v.Group + " › " + v.Title
		}
		switch verify.Status(v.Status) {
		case verify.StatusPassed:
			fmt.Fprintf(w, "✓ %s\n", name)
		case verify.StatusSkipped:
			fmt.Fprintf(w, "- %s (skipped)\n", name)
		case verify.StatusIgnored:
			fmt.Fprintf(w, "? %s (no feature file)\n", name)
		default:
			fmt.Fprintf(w, "✗ %s\n", name)
			writeIndented(w, v.Message, "    ")
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, summaryLine(result.Total, result.Passed, result.Failed, result.Skipped, result.Ignored))
	if result.RunID != "" {
		fmt.Fprintf(w, "Recorded run %s\n", result.RunID)
	}
}

func summaryLine(total, passed, failed, skipped, ignored int) string {
	noun := "tests"
	if total == 1 {
		noun = "test"
	}
	return fmt.Sprintf("%d %s: %d passed, %d failed, %d skipped, %d ignored",
		total, noun, passed, failed, skipped, ignored)
}

func writeIndented(w io.Writer, text, indent string) {
	if text == "" {
		return
	}
	for _, line := range strings.Split(text, "\n") {
		fmt.Fprintf(w, "%s%s\n", indent, line)
	}
}

func mismatchMessage(failed int) string {
	if failed == 1 {
		return "1 test does not match its feature file"
	}
	return fmt.Sprintf("%d tests do not match their feature files", failed)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
