package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/specsync/internal/verify"
)

// ErrRunNotFound is returned when a run ID is not in the history.
var ErrRunNotFound = errors.New("run not found")

// RunRecord is one verification run in the history.
type RunRecord struct {
	ID        string          `json:"id"`
	StartedAt time.Time       `json:"started_at"`
	Report    string          `json:"report"`
	Mode      string          `json:"mode"`
	Total     int             `json:"total"`
	Passed    int             `json:"passed"`
	Failed    int             `json:"failed"`
	Skipped   int             `json:"skipped"`
	Ignored   int             `json:"ignored"`
	Failures  []FailureRecord `json:"failures,omitempty"`
}

// FailureRecord is a failed test of a run.
type FailureRecord struct {
	TestFile  string `json:"test_file"`
	TestTitle string `json:"test_title"`
	URI       string `json:"uri"`
	Scenario  string `json:"scenario,omitempty"`
	Code      string `json:"code"`
	Message   string `json:"message"`
}

// CodeCount is the number of stored failures with a code.
type CodeCount struct {
	Code  string `json:"code"`
	Count int    `json:"count"`
}

// NewRunRecord converts a verification summary into a record. ID and start
// time are left for RecordRun to fill in.
func NewRunRecord(report string, mode verify.Mode, summary *verify.Summary) RunRecord {
	rec := RunRecord{
		Report:  report,
		Mode:    mode.String(),
		Total:   summary.Total(),
		Passed:  summary.Passed,
		Failed:  summary.Failed,
		Skipped: summary.Skipped,
		Ignored: summary.Ignored,
	}
	for _, o := range summary.Failures() {
		f := FailureRecord{
			URI:      o.URI,
			Scenario: o.Scenario,
			Code:     verify.CodeOf(o.Err),
		}
		if o.Test != nil {
			f.TestFile = o.Test.Location.File
			f.TestTitle = o.Test.Title
		}
		if o.Err != nil {
			f.Message = o.Err.Error()
		}
		rec.Failures = append(rec.Failures, f)
	}
	return rec
}

// RecordRun stores a run and its failures in one transaction and returns
// the run ID. A missing ID or start time is generated.
func (s *Store) RecordRun(ctx context.Context, rec RunRecord) (string, error) {
	if rec.ID == "" {
		rec.ID = s.ids.Generate()
	}
	if rec.StartedAt.IsZero() {
		rec.StartedAt = s.clock.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("record run: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, started_at, report, mode, total, passed, failed, skipped, ignored)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rec.ID,
		rec.StartedAt.UTC().Format(time.RFC3339Nano),
		rec.Report,
		rec.Mode,
		rec.Total,
		rec.Passed,
		rec.Failed,
		rec.Skipped,
		rec.Ignored,
	)
	if err != nil {
		return "", fmt.Errorf("record run %s: %w", rec.ID, err)
	}

	for i, f := range rec.Failures {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO failures (run_id, idx, test_file, test_title, uri, scenario, code, message)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, rec.ID, i, f.TestFile, f.TestTitle, f.URI, f.Scenario, f.Code, f.Message)
		if err != nil {
			return "", fmt.Errorf("record run %s: failure %d: %w", rec.ID, i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("record run %s: commit: %w", rec.ID, err)
	}
	return rec.ID, nil
}

// ListRuns returns the most recent runs first, without failures. limit <= 0
// returns every run.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	query := `
		SELECT id, started_at, report, mode, total, passed, failed, skipped, ignored
		FROM runs
		ORDER BY started_at DESC, id COLLATE BINARY DESC
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []RunRecord{}
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// GetRun returns a run with its failures.
func (s *Store) GetRun(ctx context.Context, id string) (RunRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, started_at, report, mode, total, passed, failed, skipped, ignored
		FROM runs WHERE id = ?
	`, id)
	rec, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return RunRecord{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return RunRecord{}, err
	}

	rec.Failures, err = s.RunFailures(ctx, id)
	if err != nil {
		return RunRecord{}, err
	}
	return rec, nil
}

// RunFailures returns the failures of a run in the order they were recorded.
func (s *Store) RunFailures(ctx context.Context, id string) ([]FailureRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT test_file, test_title, uri, scenario, code, message
		FROM failures
		WHERE run_id = ?
		ORDER BY idx ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("query failures: %w", err)
	}
	defer rows.Close()

	failures := []FailureRecord{}
	for rows.Next() {
		var f FailureRecord
		if err := rows.Scan(&f.TestFile, &f.TestTitle, &f.URI, &f.Scenario, &f.Code, &f.Message); err != nil {
			return nil, fmt.Errorf("scan failure: %w", err)
		}
		failures = append(failures, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate failures: %w", err)
	}
	return failures, nil
}

// CountFailuresByCode aggregates stored failures over all runs, most
// frequent first.
func (s *Store) CountFailuresByCode(ctx context.Context) ([]CodeCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT code, COUNT(*) FROM failures
		GROUP BY code
		ORDER BY COUNT(*) DESC, code COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query failure codes: %w", err)
	}
	defer rows.Close()

	counts := []CodeCount{}
	for rows.Next() {
		var c CodeCount
		if err := rows.Scan(&c.Code, &c.Count); err != nil {
			return nil, fmt.Errorf("scan failure code: %w", err)
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate failure codes: %w", err)
	}
	return counts, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (RunRecord, error) {
	var rec RunRecord
	var started string
	err := row.Scan(&rec.ID, &started, &rec.Report, &rec.Mode,
		&rec.Total, &rec.Passed, &rec.Failed, &rec.Skipped, &rec.Ignored)
	if errors.Is(err, sql.ErrNoRows) {
		return rec, err
	}
	if err != nil {
		return rec, fmt.Errorf("scan run: %w", err)
	}
	rec.StartedAt, err = time.Parse(time.RFC3339Nano, started)
	if err != nil {
		return rec, fmt.Errorf("run %s: bad started_at %q: %w", rec.ID, started, err)
	}
	return rec, nil
}
