package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/specsync/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	DB    string
	Limit int
	RunID string
}

// HistoryResult is the listing of recorded runs.
type HistoryResult struct {
	Runs  []store.RunRecord `json:"runs"`
	Codes []store.CodeCount `json:"codes"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded verification runs",
		Long: `Show the verification runs recorded with verify --db.

Without --run, lists the most recent runs and how often each failure code
occurred. With --run, shows one run and its failed tests.

Examples:
  specsync history --db .specsync/history.db
  specsync history --db .specsync/history.db --run 0190a5c8-...`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd.Context(), opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DB, "db", "", "history database (defaults to history_db from the config)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "maximum number of runs to list (0 for all)")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "show a single run with its failures")

	return cmd
}

func runHistory(ctx context.Context, opts *HistoryOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	cfg, err := opts.loadConfig()
	if err != nil {
		return commandError(formatter, ErrCodeConfig, "invalid configuration", err)
	}
	dbPath := firstNonEmpty(opts.DB, cfg.HistoryDB)
	if dbPath == "" {
		return commandError(formatter, ErrCodeStore, "no history database: use --db or history_db", nil)
	}

	s, err := store.Open(dbPath)
	if err != nil {
		return commandError(formatter, ErrCodeStore, "failed to open history", err)
	}
	defer s.Close()

	if opts.RunID != "" {
		rec, err := s.GetRun(ctx, opts.RunID)
		if err != nil {
			if errors.Is(err, store.ErrRunNotFound) {
				return commandError(formatter, ErrCodeNotFound, fmt.Sprintf("run not found: %s", opts.RunID), nil)
			}
			return commandError(formatter, ErrCodeStore, "failed to read history", err)
		}
		if opts.Format == "json" {
			return formatter.Success(rec)
		}
		writeRunText(formatter.Writer, rec)
		return nil
	}

	runs, err := s.ListRuns(ctx, opts.Limit)
	if err != nil {
		return commandError(formatter, ErrCodeStore, "failed to read history", err)
	}
	codes, err := s.CountFailuresByCode(ctx)
	if err != nil {
		return commandError(formatter, ErrCodeStore, "failed to read history", err)
	}

	result := HistoryResult{Runs: runs, Codes: codes}
	if opts.Format == "json" {
		return formatter.Success(result)
	}
	writeHistoryText(formatter.Writer, result)
	return nil
}

func writeHistoryText(w io.Writer, result HistoryResult) {
	if len(result.Runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return
	}
	for _, rec := range result.Runs {
		mark := "✓"
		if rec.Failed > 0 {
			mark = "✗"
		}
		fmt.Fprintf(w, "%s %s  %s  %s  %s\n", mark, rec.ID, rec.StartedAt.UTC().Format(time.RFC3339), rec.Mode, rec.Report)
		fmt.Fprintf(w, "    %s\n", summaryLine(rec.Total, rec.Passed, rec.Failed, rec.Skipped, rec.Ignored))
	}
	if len(result.Codes) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Failures by code:")
		for _, c := range result.Codes {
			code := c.Code
			if code == "" {
				code = "(none)"
			}
			fmt.Fprintf(w, "  %-24s %d\n", code, c.Count)
		}
	}
}

func writeRunText(w io.Writer, rec store.RunRecord) {
	fmt.Fprintf(w, "Run %s\n", rec.ID)
	fmt.Fprintf(w, "  started: %s\n", rec.StartedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(w, "  report:  %s\n", rec.Report)
	fmt.Fprintf(w, "  mode:    %s\n", rec.Mode)
	fmt.Fprintln(w, summaryLine(rec.Total, rec.Passed, rec.Failed, rec.Skipped, rec.Ignored))
	for _, f := range rec.Failures {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "✗ %s › %s [%s]\n", f.TestFile, f.TestTitle, f.Code)
		writeIndented(w, f.Message, "    ")
	}
}
