package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/rulekit/internal/compiler"
	"github.com/roach88/rulekit/internal/definition"
	"github.com/roach88/rulekit/internal/engine"
	"github.com/roach88/rulekit/internal/facts"
	"github.com/roach88/rulekit/internal/rules"
	"github.com/roach88/rulekit/internal/store"
)

// runID is the fixed run ID of every scenario run, for deterministic traces.
const runID = "scenario-run"

// Option configures Run.
type Option func(*runConfig)

type runConfig struct {
	logger *slog.Logger
}

// WithLogger sets the logger handed to the compiler and engine.
// Default: logs are discarded.
func WithLogger(l *slog.Logger) Option {
	return func(c *runConfig) { c.logger = l }
}

// Run executes a scenario and checks its expectations.
//
// Each scenario runs against a fresh in-memory journal, so firing seq
// numbers are reproducible. Run returns an error only when the scenario
// cannot be run at all (unreadable or invalid definitions, a journal
// failure); an engine error is an outcome checked against expect.error.
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	cfg := runConfig{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(&cfg)
	}

	rs, err := compileRules(scenario, cfg.logger)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory journal: %w", err)
	}
	defer st.Close()

	ctx := context.Background()
	rec, err := store.NewRecorder(ctx, st,
		store.WithIDGenerator(store.NewFixedGenerator(runID)),
		store.WithEngineKind(scenario.engineKind()),
		store.WithLogger(cfg.logger),
	)
	if err != nil {
		return nil, err
	}

	eng := newEngine(scenario, cfg.logger, rec)
	fs := facts.FromMap(scenario.Facts)
	report, runErr := eng.Execute(rs, fs)
	if err := rec.Err(); err != nil {
		return nil, fmt.Errorf("journal: %w", err)
	}

	result := NewResult()
	result.Engine = scenario.engineKind()
	if report != nil {
		result.Fired = append(result.Fired, report.FiredNames()...)
		result.Passes = report.Passes
	}
	result.Facts = fs.AsMap()
	if runErr != nil {
		result.RunError = runErr.Error()
	}

	firings, err := st.ReadFirings(ctx, runID)
	if err != nil {
		return nil, err
	}
	for _, f := range firings {
		result.Trace = append(result.Trace, TraceEvent{
			Seq:      f.Seq,
			Rule:     f.Rule,
			Priority: f.Priority,
			Outcome:  f.Outcome,
			Error:    f.Error,
		})
	}

	for _, msg := range checkExpectations(scenario.Expect, result) {
		result.AddError(msg)
	}
	return result, nil
}

func compileRules(scenario *Scenario, logger *slog.Logger) (*rules.Rules, error) {
	defs, err := definition.ReadFiles(scenario.Rules...)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules: %w", err)
	}
	defs = append(defs, scenario.Definitions...)

	factory := compiler.NewFactory(
		compiler.WithLanguage(scenario.language()),
		compiler.WithLogger(logger),
	)
	rs, err := factory.CompileAll(defs)
	if err != nil {
		return nil, fmt.Errorf("failed to compile rules: %w", err)
	}
	return rs, nil
}

func newEngine(scenario *Scenario, logger *slog.Logger, rec *store.Recorder) engine.Engine {
	opts := []engine.Option{
		engine.WithParameters(scenario.Parameters.Engine()),
		engine.WithLogger(logger),
		engine.WithRuleListener(rec),
		engine.WithEngineListener(rec),
	}
	if scenario.engineKind() == engine.KindInference {
		return engine.NewInference(append(opts, engine.WithMaxPasses(scenario.MaxPasses))...)
	}
	return engine.NewDefault(opts...)
}
