package store

import (
	"context"
	"database/sql"
	"fmt"
)

// Run statuses.
const (
	StatusRunning = "running"
	StatusOK      = "ok"
	StatusFailed  = "failed"
)

// Firing outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Run is one engine Execute call.
type Run struct {
	ID          string `json:"id"`
	Seq         int64  `json:"seq"`
	Engine      string `json:"engine"`
	RuleSetHash string `json:"ruleset_hash"`
	Rules       int    `json:"rules"`
	Facts       int    `json:"facts"`
	Status      string `json:"status"`
	Passes      int    `json:"passes"`
	Fired       int    `json:"fired"`
	FinalFacts  string `json:"final_facts,omitempty"` // canonical JSON, empty if not captured
	Error       string `json:"error,omitempty"`
}

// Firing is one action that ran during a run.
type Firing struct {
	RunID    string `json:"run_id"`
	Seq      int64  `json:"seq"`
	Rule     string `json:"rule"`
	Priority int    `json:"priority"`
	Outcome  string `json:"outcome"`
	Error    string `json:"error,omitempty"`
}

// RunResult is how a run ended.
type RunResult struct {
	Engine     string // overrides the engine recorded at start if set
	Status     string
	Passes     int
	Fired      int
	FinalFacts string
	Error      string
}

// WriteRun inserts a run record, normally with StatusRunning.
// Uses ON CONFLICT(id) DO NOTHING: writing the same run twice is a no-op.
func (s *Store) WriteRun(ctx context.Context, run Run) error {
	if run.Status == "" {
		run.Status = StatusRunning
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs
		(id, seq, engine, ruleset_hash, rule_count, fact_count, status, passes, fired_count, final_facts, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		run.Seq,
		run.Engine,
		run.RuleSetHash,
		run.Rules,
		run.Facts,
		run.Status,
		run.Passes,
		run.Fired,
		nullString(run.FinalFacts),
		nullString(run.Error),
	)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	return nil
}

// FinishRun records how a run ended.
func (s *Store) FinishRun(ctx context.Context, runID string, res RunResult) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE runs
		SET engine = COALESCE(NULLIF(?, ''), engine),
		    status = ?, passes = ?, fired_count = ?, final_facts = ?, error = ?
		WHERE id = ?
	`,
		res.Engine,
		res.Status,
		res.Passes,
		res.Fired,
		nullString(res.FinalFacts),
		nullString(res.Error),
		runID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n == 0 {
		return &RunNotFoundError{ID: runID}
	}
	return nil
}

// WriteFiring inserts a firing record. The run must exist.
func (s *Store) WriteFiring(ctx context.Context, f Firing) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO firings (run_id, seq, rule, priority, outcome, error)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		f.RunID,
		f.Seq,
		f.Rule,
		f.Priority,
		f.Outcome,
		nullString(f.Error),
	)
	if err != nil {
		return fmt.Errorf("write firing: %w", err)
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
