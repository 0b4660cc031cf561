package verify

import (
	"context"
	"fmt"

	"github.com/roach88/specsync/internal/run"
)

// Replay drives a reporter through a recorded run: OnBegin with the suite
// tree, OnTestEnd for every result in completion order, then OnEnd.
//
// Per-test failures are collected in the summary rather than aborting the
// replay. The returned error is non-nil only when the run could not be
// verified at all (bad report, unparsable feature files); callers inspect
// the summary for verdicts.
func Replay(ctx context.Context, r *Reporter, report *run.Report) (*Summary, error) {
	runs, err := report.Runs()
	if err != nil {
		return nil, fmt.Errorf("resolve report results: %w", err)
	}

	if err := r.OnBegin(ctx, report.Suite); err != nil {
		return nil, err
	}

	for _, tr := range runs {
		// The verdict is kept in the session; OnEnd reports it.
		_ = r.OnTestEnd(tr.Test, tr.Result)
	}

	summary, _ := r.OnEnd()
	return summary, nil
}
