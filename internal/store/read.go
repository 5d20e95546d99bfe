package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// RunNotFoundError is returned when no run has the requested ID.
type RunNotFoundError struct {
	ID string
}

func (e *RunNotFoundError) Error() string {
	return fmt.Sprintf("run %q not found", e.ID)
}

// IsRunNotFound returns true if err is or wraps a RunNotFoundError.
func IsRunNotFound(err error) bool {
	var nf *RunNotFoundError
	return errors.As(err, &nf)
}

const runColumns = `id, seq, engine, ruleset_hash, rule_count, fact_count, status, passes, fired_count, final_facts, error`

// ReadRun returns the run with the given ID.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, &RunNotFoundError{ID: id}
	}
	if err != nil {
		return Run{}, fmt.Errorf("read run: %w", err)
	}
	return run, nil
}

// ReadRuns returns every run in seq order.
// Returns an empty slice (not nil) when the journal is empty.
func (s *Store) ReadRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+runColumns+`
		FROM runs
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadFirings returns the firings of a run in seq order.
// Returns an empty slice (not nil) when the run fired nothing.
func (s *Store) ReadFirings(ctx context.Context, runID string) ([]Firing, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, seq, rule, priority, outcome, error
		FROM firings
		WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query firings: %w", err)
	}
	defer rows.Close()

	firings := []Firing{}
	for rows.Next() {
		var (
			f      Firing
			errCol sql.NullString
		)
		if err := rows.Scan(&f.RunID, &f.Seq, &f.Rule, &f.Priority, &f.Outcome, &errCol); err != nil {
			return nil, fmt.Errorf("scan firing: %w", err)
		}
		f.Error = errCol.String
		firings = append(firings, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate firings: %w", err)
	}
	return firings, nil
}

// CountFirings returns how many times a rule fired successfully across
// every run in the journal.
func (s *Store) CountFirings(ctx context.Context, rule string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM firings WHERE rule = ? AND outcome = ?
	`, rule, OutcomeSuccess).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count firings: %w", err)
	}
	return n, nil
}

// LastSeq returns the highest seq in the journal, 0 if empty.
// A Recorder resumes its clock from here.
func (s *Store) LastSeq(ctx context.Context) (int64, error) {
	var seq sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
		SELECT MAX(seq) FROM (
			SELECT seq FROM runs
			UNION ALL
			SELECT seq FROM firings
		)
	`).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("get last seq: %w", err)
	}
	return seq.Int64, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var (
		run        Run
		finalFacts sql.NullString
		errCol     sql.NullString
	)
	err := row.Scan(
		&run.ID,
		&run.Seq,
		&run.Engine,
		&run.RuleSetHash,
		&run.Rules,
		&run.Facts,
		&run.Status,
		&run.Passes,
		&run.Fired,
		&finalFacts,
		&errCol,
	)
	if err != nil {
		return Run{}, err
	}
	run.FinalFacts = finalFacts.String
	run.Error = errCol.String
	return run, nil
}
