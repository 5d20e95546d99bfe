// Package rules defines the Rule capability and the priority-ordered,
// name-unique Rules set the engines iterate.
package rules

import (
	"cmp"
	"fmt"
	"math"

	"github.com/roach88/rulekit/internal/facts"
)

// Defaults applied when a rule does not declare its own metadata.
const (
	DefaultName        = "rule"
	DefaultDescription = "description"
	DefaultPriority    = math.MaxInt // lowest precedence
)

// Rule is a named, prioritized condition/action pair.
//
// Lower Priority values take precedence. Name is the identity inside a
// Rules set. Errors returned from Evaluate or Execute propagate out of the
// engine pass.
type Rule interface {
	Name() string
	Description() string
	Priority() int
	Evaluate(fs *facts.Facts) (bool, error)
	Execute(fs *facts.Facts) error
}

// Condition decides whether a rule applies.
type Condition func(fs *facts.Facts) (bool, error)

// Action is what a rule does when it applies.
type Action func(fs *facts.Facts) error

// Always is a condition that always holds.
func Always(*facts.Facts) (bool, error) { return true, nil }

// Never is a condition that never holds.
func Never(*facts.Facts) (bool, error) { return false, nil }

// NoOp is an action that does nothing.
func NoOp(*facts.Facts) error { return nil }

// When adapts a plain predicate into a Condition.
func When(pred func(fs *facts.Facts) bool) Condition {
	return func(fs *facts.Facts) (bool, error) { return pred(fs), nil }
}

// Then adapts a plain procedure into an Action.
func Then(proc func(fs *facts.Facts)) Action {
	return func(fs *facts.Facts) error {
		proc(fs)
		return nil
	}
}

// Basic is a Rule built from closures.
type Basic struct {
	name        string
	description string
	priority    int
	condition   Condition
	action      Action
}

// Option configures a Basic rule.
type Option func(*Basic)

// WithDescription sets the rule description.
func WithDescription(d string) Option {
	return func(b *Basic) { b.description = d }
}

// WithPriority sets the rule priority.
func WithPriority(p int) Option {
	return func(b *Basic) { b.priority = p }
}

// New creates a closure-based rule. A nil condition never holds and a nil
// action does nothing. An empty name falls back to DefaultName.
func New(name string, cond Condition, act Action, opts ...Option) *Basic {
	if name == "" {
		name = DefaultName
	}
	b := &Basic{
		name:        name,
		description: DefaultDescription,
		priority:    DefaultPriority,
		condition:   cond,
		action:      act,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Basic) Name() string        { return b.name }
func (b *Basic) Description() string { return b.description }
func (b *Basic) Priority() int       { return b.priority }

// Evaluate runs the rule's condition.
func (b *Basic) Evaluate(fs *facts.Facts) (bool, error) {
	if b.condition == nil {
		return false, nil
	}
	return b.condition(fs)
}

// Execute runs the rule's action.
func (b *Basic) Execute(fs *facts.Facts) error {
	if b.action == nil {
		return nil
	}
	return b.action(fs)
}

// String renders the rule as name(priority).
func (b *Basic) String() string {
	return fmt.Sprintf("%s(%d)", b.name, b.priority)
}

// Equal reports whether two rules share a name, the only identity a Rules
// set recognises.
func Equal(a, b Rule) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Name() == b.Name()
}

// ComparePriority orders two rules by priority alone: -1 if a takes
// precedence, 1 if b does, 0 on a tie. Names are never consulted.
func ComparePriority(a, b Rule) int {
	return cmp.Compare(a.Priority(), b.Priority())
}
