package engine

import (
	"github.com/roach88/rulekit/internal/facts"
	"github.com/roach88/rulekit/internal/rules"
)

// RuleListener observes each rule as a pass reaches it.
type RuleListener interface {
	// BeforeEvaluate is called before a condition runs. Returning false
	// skips the rule for this pass.
	BeforeEvaluate(r rules.Rule, fs *facts.Facts) bool

	// AfterEvaluate is called with the condition's result.
	AfterEvaluate(r rules.Rule, fs *facts.Facts, triggered bool)

	// OnEvaluationError is called when a condition returns an error.
	OnEvaluationError(r rules.Rule, fs *facts.Facts, err error)

	// BeforeExecute is called before a triggered rule's action runs.
	BeforeExecute(r rules.Rule, fs *facts.Facts)

	// OnSuccess is called after an action completes.
	OnSuccess(r rules.Rule, fs *facts.Facts)

	// OnFailure is called when an action returns an error.
	OnFailure(r rules.Rule, fs *facts.Facts, err error)
}

// EngineListener observes whole runs: one call pair per Execute.
type EngineListener interface {
	// BeforeRun is called once arguments are validated.
	BeforeRun(rs *rules.Rules, fs *facts.Facts)

	// AfterRun is called when the run ends, successfully or not.
	AfterRun(rs *rules.Rules, fs *facts.Facts, report *Report, err error)
}

// NopRuleListener implements RuleListener with no behaviour.
// Embed it to override only the callbacks you need.
type NopRuleListener struct{}

func (NopRuleListener) BeforeEvaluate(rules.Rule, *facts.Facts) bool { return true }

func (NopRuleListener) AfterEvaluate(rules.Rule, *facts.Facts, bool) {}

func (NopRuleListener) OnEvaluationError(rules.Rule, *facts.Facts, error) {}

func (NopRuleListener) BeforeExecute(rules.Rule, *facts.Facts) {}

func (NopRuleListener) OnSuccess(rules.Rule, *facts.Facts) {}

func (NopRuleListener) OnFailure(rules.Rule, *facts.Facts, error) {}

// NopEngineListener implements EngineListener with no behaviour.
type NopEngineListener struct{}

func (NopEngineListener) BeforeRun(*rules.Rules, *facts.Facts) {}

func (NopEngineListener) AfterRun(*rules.Rules, *facts.Facts, *Report, error) {}
