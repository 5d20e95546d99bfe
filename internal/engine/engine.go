package engine

import (
	"log/slog"

	"github.com/roach88/rulekit/internal/facts"
	"github.com/roach88/rulekit/internal/rules"
)

// Engine kinds reported in Report.Engine.
const (
	KindDefault   = "default"
	KindInference = "inference"
)

// Engine runs a rule set against a fact store.
type Engine interface {
	// Execute fires rules, running the actions of those whose conditions
	// hold, and mutates fs.
	Execute(rs *rules.Rules, fs *facts.Facts) (*Report, error)

	// Evaluate checks conditions in a single pass without running any
	// action and returns the outcome of every rule reached.
	Evaluate(rs *rules.Rules, fs *facts.Facts) ([]Outcome, error)
}

// Outcome is the result of checking one rule.
type Outcome struct {
	Rule  rules.Rule
	Fired bool
}

// Report describes a completed Execute call.
type Report struct {
	// Engine is KindDefault or KindInference.
	Engine string

	// Passes is the number of passes started.
	Passes int

	// Fired lists the rules whose actions completed, in firing order.
	// Under inference a rule appears once for every pass it fired in.
	Fired []rules.Rule
}

// FiredNames returns the names of the fired rules in firing order.
func (r *Report) FiredNames() []string {
	if r == nil {
		return nil
	}
	names := make([]string, len(r.Fired))
	for i, rule := range r.Fired {
		names[i] = rule.Name()
	}
	return names
}

// Parameters tune how a pass walks the rule set.
type Parameters struct {
	// SkipOnFirstAppliedRule ends the pass after the first rule fires.
	SkipOnFirstAppliedRule bool

	// SkipOnFirstNonTriggeredRule ends the pass at the first rule whose
	// condition does not hold. Ignored by the inference engine.
	SkipOnFirstNonTriggeredRule bool

	// PriorityThreshold ends the pass at the first rule whose priority is
	// greater than it. Nil means no threshold.
	PriorityThreshold *int
}

// DefaultParameters returns parameters that never end a pass early.
// It is the zero value.
func DefaultParameters() Parameters {
	return Parameters{}
}

// Threshold returns a PriorityThreshold of n.
func Threshold(n int) *int {
	return &n
}

// exceeds reports whether priority is past the threshold.
func (p Parameters) exceeds(priority int) bool {
	return p.PriorityThreshold != nil && priority > *p.PriorityThreshold
}

// threshold returns the threshold for logging.
func (p Parameters) threshold() any {
	if p.PriorityThreshold == nil {
		return "none"
	}
	return *p.PriorityThreshold
}

// config is shared by both engines.
type config struct {
	params          Parameters
	ruleListeners   []RuleListener
	engineListeners []EngineListener
	logger          *slog.Logger
	maxPasses       int
}

// Option configures an engine.
type Option func(*config)

// WithParameters replaces the engine parameters.
func WithParameters(p Parameters) Option {
	return func(c *config) { c.params = p }
}

// WithRuleListener registers a rule listener. Listeners are called in
// registration order.
func WithRuleListener(l RuleListener) Option {
	return func(c *config) { c.ruleListeners = append(c.ruleListeners, l) }
}

// WithEngineListener registers an engine listener.
func WithEngineListener(l EngineListener) Option {
	return func(c *config) { c.engineListeners = append(c.engineListeners, l) }
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithMaxPasses caps the number of inference passes.
//
// Default: 0 (uncapped). The default engine always runs one pass and
// ignores this option.
func WithMaxPasses(n int) Option {
	return func(c *config) { c.maxPasses = n }
}

func newConfig(opts []Option) config {
	c := config{params: DefaultParameters()}
	for _, opt := range opts {
		opt(&c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

func checkArgs(rs *rules.Rules, fs *facts.Facts) error {
	if rs == nil {
		return &rules.ArgumentError{Arg: "rules"}
	}
	if fs == nil {
		return &rules.ArgumentError{Arg: "facts"}
	}
	return nil
}

// pass walks rs once, interleaving evaluation and execution.
// Returns the rules fired before the pass ended.
func (c *config) pass(rs *rules.Rules, fs *facts.Facts, params Parameters, n int) ([]rules.Rule, error) {
	var fired []rules.Rule

	for r := range rs.All() {
		name := r.Name()

		if params.exceeds(r.Priority()) {
			c.logger.Debug("priority threshold exceeded, ending pass",
				"rule", name,
				"priority", r.Priority(),
				"threshold", *params.PriorityThreshold,
				"pass", n,
			)
			break
		}

		if !c.beforeEvaluate(r, fs) {
			c.logger.Debug("rule skipped by listener", "rule", name, "pass", n)
			continue
		}

		triggered, err := r.Evaluate(fs)
		if err != nil {
			c.onEvaluationError(r, fs, err)
			c.logger.Error("rule condition failed", "rule", name, "pass", n, "error", err)
			return fired, &RuleError{Rule: name, Phase: PhaseEvaluate, Pass: n, Err: err}
		}
		c.afterEvaluate(r, fs, triggered)

		if !triggered {
			c.logger.Debug("rule not triggered", "rule", name, "pass", n)
			if params.SkipOnFirstNonTriggeredRule {
				c.logger.Debug("skip on first non-triggered rule, ending pass", "rule", name, "pass", n)
				break
			}
			continue
		}

		c.logger.Debug("rule triggered", "rule", name, "pass", n)
		c.beforeExecute(r, fs)
		if err := r.Execute(fs); err != nil {
			c.onFailure(r, fs, err)
			c.logger.Error("rule action failed", "rule", name, "pass", n, "error", err)
			return fired, &RuleError{Rule: name, Phase: PhaseExecute, Pass: n, Err: err}
		}
		c.onSuccess(r, fs)
		fired = append(fired, r)
		c.logger.Debug("rule fired", "rule", name, "pass", n)

		if params.SkipOnFirstAppliedRule {
			c.logger.Debug("skip on first applied rule, ending pass", "rule", name, "pass", n)
			break
		}
	}

	return fired, nil
}

// check evaluates conditions in order without running actions.
func (c *config) check(rs *rules.Rules, fs *facts.Facts) ([]Outcome, error) {
	outcomes := make([]Outcome, 0, rs.Len())

	for r := range rs.All() {
		if c.params.exceeds(r.Priority()) {
			break
		}
		if !c.beforeEvaluate(r, fs) {
			continue
		}
		triggered, err := r.Evaluate(fs)
		if err != nil {
			c.onEvaluationError(r, fs, err)
			return outcomes, &RuleError{Rule: r.Name(), Phase: PhaseEvaluate, Pass: 1, Err: err}
		}
		c.afterEvaluate(r, fs, triggered)
		outcomes = append(outcomes, Outcome{Rule: r, Fired: triggered})
	}

	return outcomes, nil
}

func (c *config) logRun(kind string, rs *rules.Rules, fs *facts.Facts) {
	c.logger.Info("engine run starting",
		"engine", kind,
		"rules", rs.Len(),
		"facts", fs.Len(),
		"skip_on_first_applied", c.params.SkipOnFirstAppliedRule,
		"skip_on_first_non_triggered", c.params.SkipOnFirstNonTriggeredRule,
		"priority_threshold", c.params.threshold(),
	)
}

func (c *config) beforeEvaluate(r rules.Rule, fs *facts.Facts) bool {
	for _, l := range c.ruleListeners {
		if !l.BeforeEvaluate(r, fs) {
			return false
		}
	}
	return true
}

func (c *config) afterEvaluate(r rules.Rule, fs *facts.Facts, triggered bool) {
	for _, l := range c.ruleListeners {
		l.AfterEvaluate(r, fs, triggered)
	}
}

func (c *config) onEvaluationError(r rules.Rule, fs *facts.Facts, err error) {
	for _, l := range c.ruleListeners {
		l.OnEvaluationError(r, fs, err)
	}
}

func (c *config) beforeExecute(r rules.Rule, fs *facts.Facts) {
	for _, l := range c.ruleListeners {
		l.BeforeExecute(r, fs)
	}
}

func (c *config) onSuccess(r rules.Rule, fs *facts.Facts) {
	for _, l := range c.ruleListeners {
		l.OnSuccess(r, fs)
	}
}

func (c *config) onFailure(r rules.Rule, fs *facts.Facts, err error) {
	for _, l := range c.ruleListeners {
		l.OnFailure(r, fs, err)
	}
}

func (c *config) beforeRun(rs *rules.Rules, fs *facts.Facts) {
	for _, l := range c.engineListeners {
		l.BeforeRun(rs, fs)
	}
}

func (c *config) afterRun(rs *rules.Rules, fs *facts.Facts, report *Report, err error) {
	for _, l := range c.engineListeners {
		l.AfterRun(rs, fs, report, err)
	}
}
