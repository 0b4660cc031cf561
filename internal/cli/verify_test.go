package cli

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/specsync/internal/store"
	"github.com/roach88/specsync/internal/testutil"
)

func TestVerify_Pass(t *testing.T) {
	out, err := execute(t, NewVerifyCommand(newTestRootOptions("text")), "testdata/checkout/pass.yaml")
	require.NoError(t, err)
	assert.Equal(t, ExitSuccess, GetExitCode(err))

	newGoldie(t).Assert(t, "verify_pass", []byte(out))
}

func TestVerify_Fail(t *testing.T) {
	out, err := execute(t, NewVerifyCommand(newTestRootOptions("text")), "testdata/checkout/fail.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Equal(t, "3 tests do not match their feature files", err.Error())

	newGoldie(t).Assert(t, "verify_fail", []byte(out))
}

func TestVerify_FailJSON(t *testing.T) {
	out, err := execute(t, NewVerifyCommand(newTestRootOptions("json")), "testdata/checkout/fail.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, ErrCodeMismatch, resp.Error.Code)

	newGoldie(t).Assert(t, "verify_fail_json", []byte(out))
}

func TestVerify_PassJSON(t *testing.T) {
	out, err := execute(t, NewVerifyCommand(newTestRootOptions("json")), "testdata/checkout/pass.yaml")
	require.NoError(t, err)

	var resp struct {
		Status string       `json:"status"`
		Data   VerifyResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 2, resp.Data.Total)
	assert.Equal(t, 1, resp.Data.Passed)
	assert.Empty(t, resp.Data.RunID)
}

func TestVerify_ConfigWarnDeferred(t *testing.T) {
	opts := newTestRootOptions("text")
	opts.ConfigPath = "testdata/warn.cue"

	out, err := execute(t, NewVerifyCommand(opts), "testdata/checkout/fail.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	newGoldie(t).Assert(t, "verify_warn_deferred", []byte(out))
}

func TestVerify_FlagsOverrideConfig(t *testing.T) {
	opts := newTestRootOptions("json")
	opts.ConfigPath = "testdata/warn.cue"

	out, err := execute(t, NewVerifyCommand(opts), "testdata/checkout/fail.yaml",
		"--missing-feature", "strict", "--mode", "immediate")
	require.Error(t, err)

	var resp struct {
		Data VerifyResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "immediate", resp.Data.Mode)
	assert.Equal(t, 3, resp.Data.Failed)
	assert.Equal(t, 0, resp.Data.Ignored)
}

func TestVerify_InvalidModeFlag(t *testing.T) {
	out, err := execute(t, NewVerifyCommand(newTestRootOptions("text")), "testdata/checkout/pass.yaml", "--mode", "later")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E008]")
}

func TestVerify_ReportNotFound(t *testing.T) {
	out, err := execute(t, NewVerifyCommand(newTestRootOptions("text")), "testdata/missing.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E005]: report not found: testdata/missing.yaml")
}

func TestVerify_InvalidReport(t *testing.T) {
	path := testutil.WriteFile(t, t.TempDir(), "bad.yaml", "suite: { title: x }\nunknown: 1\n")

	out, err := execute(t, NewVerifyCommand(newTestRootOptions("json")), path)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, ErrCodeReport, resp.Error.Code)
}

func TestVerify_BrokenFeatureFile(t *testing.T) {
	out, err := execute(t, NewVerifyCommand(newTestRootOptions("text")), "testdata/broken/report.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E010]: failed to read feature files")
	assert.Contains(t, out, "broken.feature")
}

func TestVerify_DuplicateScenarioFailsOnlyItsFeature(t *testing.T) {
	out, err := execute(t, NewVerifyCommand(newTestRootOptions("json")), "testdata/duplicate/report.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err), "a bad feature file fails its tests, not the command")

	var resp struct {
		Error *CLIError    `json:"error"`
		Data  VerifyResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, ErrCodeMismatch, resp.Error.Code)
	assert.Equal(t, 1, resp.Data.Passed)
	assert.Equal(t, 1, resp.Data.Failed)

	buy := resp.Data.Tests[1]
	assert.Equal(t, "Buy", buy.Title)
	assert.Equal(t, "failed", buy.Status)
	assert.Equal(t, "FEATURE_INVALID", buy.Code)
	assert.Equal(t, filepath.Clean("testdata/duplicate/shop.feature"), buy.URI)
	assert.Contains(t, buy.Message, `duplicate scenario "Buy"`)
}

func TestVerify_RecordsRun(t *testing.T) {
	db := filepath.Join(t.TempDir(), "history.db")
	cmd := newVerifyCommand(newTestRootOptions("text"),
		store.WithIDGenerator(testutil.NewFixedIDGenerator("run-1")),
		store.WithClock(testutil.NewDeterministicClock()),
	)

	out, err := execute(t, cmd, "testdata/checkout/fail.yaml", "--db", db)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err), "recording does not change the verdict")
	assert.Contains(t, out, "Recorded run run-1\n")

	s, err := store.Open(db)
	require.NoError(t, err)
	defer s.Close()

	rec, err := s.GetRun(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, "testdata/checkout/fail.yaml", rec.Report)
	assert.Equal(t, 3, rec.Failed)
	require.Len(t, rec.Failures, 3)
	assert.Equal(t, "STEP_COUNT_MISMATCH", rec.Failures[0].Code)
	assert.Equal(t, "FEATURE_NOT_FOUND", rec.Failures[2].Code)
}

func TestSummaryLine(t *testing.T) {
	assert.Equal(t, "1 test: 1 passed, 0 failed, 0 skipped, 0 ignored", summaryLine(1, 1, 0, 0, 0))
	assert.Equal(t, "0 tests: 0 passed, 0 failed, 0 skipped, 0 ignored", summaryLine(0, 0, 0, 0, 0))
}

func TestMismatchMessage(t *testing.T) {
	assert.Equal(t, "1 test does not match its feature file", mismatchMessage(1))
	assert.Equal(t, "2 tests do not match their feature files", mismatchMessage(2))
}
