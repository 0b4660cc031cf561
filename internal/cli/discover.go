package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/specsync/internal/run"
)

// DiscoveredFeature is a feature file derived from the suite tree.
type DiscoveredFeature struct {
	Path   string `json:"path"`
	Exists bool   `json:"exists"`
}

// DiscoverResult lists the feature files a run report needs.
type DiscoverResult struct {
	Report   string              `json:"report"`
	Features []DiscoveredFeature `json:"features"`
	Missing  int                 `json:"missing"`
}

// NewDiscoverCommand creates the discover command.
func NewDiscoverCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "discover <report>",
		Short: "List the feature files a run report maps to",
		Long: `List the feature file derived for every test file of a run report,
marking the ones that do not exist.

Under the warn policy missing files are left out with a warning.

Exit codes:
  0 - Every derived feature file exists
  1 - One or more feature files are missing
  2 - Command error`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiscover(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runDiscover(opts *RootOptions, reportPath string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	cfg, err := opts.loadConfig()
	if err != nil {
		return commandError(formatter, ErrCodeConfig, "invalid configuration", err)
	}
	correlator, err := newCorrelator(cfg, opts.log())
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

	result := DiscoverResult{Report: reportPath, Features: []DiscoveredFeature{}}
	for _, path := range correlator.FindSpecFiles(report.Suite) {
		_, statErr := os.Stat(path)
		exists := statErr == nil
		if !exists {
			result.Missing++
		}
		result.Features = append(result.Features, DiscoveredFeature{Path: path, Exists: exists})
	}

	if opts.Format == "json" {
		if err := formatter.Success(result); err != nil {
			return err
		}
	} else {
		w := formatter.Writer
		for _, f := range result.Features {
			if f.Exists {
				fmt.Fprintf(w, "✓ %s\n", f.Path)
			} else {
				fmt.Fprintf(w, "✗ %s (missing)\n", f.Path)
			}
		}
		fmt.Fprintln(w)
		fmt.Fprintf(w, "%d feature file(s), %d missing\n", len(result.Features), result.Missing)
	}

	if result.Missing > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d feature file(s) missing", result.Missing))
	}
	return nil
}
