package engine

import (
	"github.com/roach88/rulekit/internal/facts"
	"github.com/roach88/rulekit/internal/rules"
)

// Default runs a single pass over the rule set.
type Default struct {
	config
}

var _ Engine = (*Default)(nil)

// NewDefault creates a single-pass engine.
func NewDefault(opts ...Option) *Default {
	return &Default{config: newConfig(opts)}
}

// Parameters returns the engine parameters.
func (e *Default) Parameters() Parameters {
	return e.params
}

// Execute runs one pass, firing every rule whose condition holds when the
// pass reaches it.
//
// Returns ArgumentError if rs or fs is nil. A failing condition or action
// ends the pass; the report lists the rules fired before it.
func (e *Default) Execute(rs *rules.Rules, fs *facts.Facts) (*Report, error) {
	if err := checkArgs(rs, fs); err != nil {
		return nil, err
	}

	e.logRun(KindDefault, rs, fs)
	e.beforeRun(rs, fs)

	fired, err := e.pass(rs, fs, e.params, 1)
	report := &Report{Engine: KindDefault, Passes: 1, Fired: fired}

	e.afterRun(rs, fs, report, err)
	if err != nil {
		return report, err
	}

	e.logger.Info("engine run finished", "engine", KindDefault, "fired", len(fired))
	return report, nil
}

// Evaluate checks every rule's condition in priority order without
// running actions. Skip parameters do not apply; the priority threshold does.
func (e *Default) Evaluate(rs *rules.Rules, fs *facts.Facts) ([]Outcome, error) {
	if err := checkArgs(rs, fs); err != nil {
		return nil, err
	}
	return e.check(rs, fs)
}
