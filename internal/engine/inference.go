package engine

import (
	"github.com/roach88/rulekit/internal/facts"
	"github.com/roach88/rulekit/internal/rules"
)

// Inference repeats passes until one fires no rule.
//
// SkipOnFirstNonTriggeredRule is ignored: every pass considers every rule.
// Without WithMaxPasses there is no pass limit.
type Inference struct {
	config
}

var _ Engine = (*Inference)(nil)

// NewInference creates a forward-chaining engine.
func NewInference(opts ...Option) *Inference {
	return &Inference{config: newConfig(opts)}
}

// Parameters returns the parameters applied to each pass.
func (e *Inference) Parameters() Parameters {
	p := e.params
	p.SkipOnFirstNonTriggeredRule = false
	return p
}

// MaxPasses returns the configured cap, 0 when uncapped.
func (e *Inference) MaxPasses() int {
	return e.maxPasses
}

// Execute runs passes until a fixed point is reached.
//
// Each pass has the default engine's semantics. The loop continues if and
// only if the pass just completed fired at least one rule.
//
// With a cap of n, a run whose n-th pass still fired rules stops with
// PassesExceededError instead of starting pass n+1.
func (e *Inference) Execute(rs *rules.Rules, fs *facts.Facts) (*Report, error) {
	if err := checkArgs(rs, fs); err != nil {
		return nil, err
	}

	e.logRun(KindInference, rs, fs)
	e.beforeRun(rs, fs)

	params := e.Parameters()
	report := &Report{Engine: KindInference}

	for {
		if e.maxPasses > 0 && report.Passes >= e.maxPasses {
			err := &PassesExceededError{Passes: report.Passes, Limit: e.maxPasses}
			e.logger.Error("max passes reached",
				"passes", report.Passes,
				"limit", e.maxPasses,
				"fired", len(report.Fired),
			)
			e.afterRun(rs, fs, report, err)
			return report, err
		}

		report.Passes++
		fired, err := e.pass(rs, fs, params, report.Passes)
		report.Fired = append(report.Fired, fired...)
		if err != nil {
			e.afterRun(rs, fs, report, err)
			return report, err
		}

		e.logger.Debug("inference pass complete", "pass", report.Passes, "fired", len(fired))
		if len(fired) == 0 {
			break
		}
	}

	e.afterRun(rs, fs, report, nil)
	e.logger.Info("engine run finished",
		"engine", KindInference,
		"passes", report.Passes,
		"fired", len(report.Fired),
	)
	return report, nil
}

// Evaluate checks conditions in a single pass without running actions,
// exactly like the default engine.
func (e *Inference) Evaluate(rs *rules.Rules, fs *facts.Facts) ([]Outcome, error) {
	if err := checkArgs(rs, fs); err != nil {
		return nil, err
	}
	return e.check(rs, fs)
}
