package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/rulekit/internal/engine"
	"github.com/roach88/rulekit/internal/facts"
	"github.com/roach88/rulekit/internal/rules"
)

// Recorder journals engine runs. Register one Recorder as both the rule
// and the engine listener of an engine.
//
// A Recorder follows one run at a time and is not safe for concurrent
// use, matching the engines.
type Recorder struct {
	engine.NopRuleListener

	ctx    context.Context
	store  *Store
	ids    IDGenerator
	clock  *Clock
	logger *slog.Logger
	kind   string

	runID string
	runs  []string
	err   error
}

var (
	_ engine.RuleListener   = (*Recorder)(nil)
	_ engine.EngineListener = (*Recorder)(nil)
)

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithIDGenerator sets the run ID generator. Default: UUIDv7Generator.
func WithIDGenerator(g IDGenerator) RecorderOption {
	return func(r *Recorder) { r.ids = g }
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) RecorderOption {
	return func(r *Recorder) { r.logger = l }
}

// WithEngineKind sets the engine kind written when a run starts. The kind
// in the final report replaces it when the run ends.
// Default: engine.KindDefault.
func WithEngineKind(kind string) RecorderOption {
	return func(r *Recorder) { r.kind = kind }
}

// NewRecorder creates a Recorder writing to s. Its clock resumes after the
// highest seq already in the journal.
func NewRecorder(ctx context.Context, s *Store, opts ...RecorderOption) (*Recorder, error) {
	if s == nil {
		return nil, fmt.Errorf("new recorder: nil store")
	}
	last, err := s.LastSeq(ctx)
	if err != nil {
		return nil, fmt.Errorf("new recorder: %w", err)
	}

	r := &Recorder{
		ctx:   ctx,
		store: s,
		ids:   UUIDv7Generator{},
		clock: NewClockAt(last),
		kind:  engine.KindDefault,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r, nil
}

// BeforeRun writes a running run record.
func (r *Recorder) BeforeRun(rs *rules.Rules, fs *facts.Facts) {
	hash, err := RuleSetFingerprint(rs)
	if err != nil {
		r.fail(err)
		return
	}

	run := Run{
		ID:          r.ids.Generate(),
		Seq:         r.clock.Next(),
		Engine:      r.kind,
		RuleSetHash: hash,
		Rules:       rs.Len(),
		Facts:       fs.Len(),
		Status:      StatusRunning,
	}
	if err := r.store.WriteRun(r.ctx, run); err != nil {
		r.fail(err)
		return
	}

	r.runID = run.ID
	r.runs = append(r.runs, run.ID)
	r.logger.Debug("journal run started", "run_id", run.ID, "seq", run.Seq)
}

// OnSuccess writes a success firing.
func (r *Recorder) OnSuccess(rule rules.Rule, _ *facts.Facts) {
	r.writeFiring(rule, OutcomeSuccess, nil)
}

// OnFailure writes a failure firing.
func (r *Recorder) OnFailure(rule rules.Rule, _ *facts.Facts, err error) {
	r.writeFiring(rule, OutcomeFailure, err)
}

// AfterRun records how the run ended, including the final facts.
func (r *Recorder) AfterRun(_ *rules.Rules, fs *facts.Facts, report *engine.Report, runErr error) {
	if r.runID == "" {
		return
	}
	runID := r.runID
	r.runID = ""

	res := RunResult{Status: StatusOK}
	if report != nil {
		res.Engine = report.Engine
		res.Passes = report.Passes
		res.Fired = len(report.Fired)
	}
	if runErr != nil {
		res.Status = StatusFailed
		res.Error = runErr.Error()
	}

	final, err := FactsJSON(fs)
	if err != nil {
		// Facts holding values with no JSON form are journaled without them.
		r.logger.Warn("final facts not journaled", "run_id", runID, "error", err)
	}
	res.FinalFacts = final

	if err := r.store.FinishRun(r.ctx, runID, res); err != nil {
		r.fail(err)
		return
	}
	r.logger.Debug("journal run finished", "run_id", runID, "status", res.Status)
}

// Err returns the first journal write error, or nil.
func (r *Recorder) Err() error {
	return r.err
}

// RunIDs returns the IDs of the runs recorded so far, oldest first.
func (r *Recorder) RunIDs() []string {
	return append([]string(nil), r.runs...)
}

func (r *Recorder) writeFiring(rule rules.Rule, outcome string, ruleErr error) {
	if r.runID == "" {
		return
	}
	f := Firing{
		RunID:    r.runID,
		Seq:      r.clock.Next(),
		Rule:     rule.Name(),
		Priority: rule.Priority(),
		Outcome:  outcome,
	}
	if ruleErr != nil {
		f.Error = ruleErr.Error()
	}
	if err := r.store.WriteFiring(r.ctx, f); err != nil {
		r.fail(err)
	}
}

func (r *Recorder) fail(err error) {
	r.logger.Error("journal write failed", "error", err)
	if r.err == nil {
		r.err = err
	}
}
