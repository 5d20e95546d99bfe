package engine

import (
	"errors"
	"fmt"
)

// Phase identifies where in a rule a failure happened.
type Phase string

const (
	// PhaseEvaluate marks a failure inside a rule's condition.
	PhaseEvaluate Phase = "evaluate"

	// PhaseExecute marks a failure inside a rule's action.
	PhaseExecute Phase = "execute"
)

// RuleError wraps an error returned by a rule's condition or action.
// Unwrap yields the rule's own error so errors.Is and errors.As see through it.
type RuleError struct {
	// Rule is the name of the failing rule.
	Rule string

	// Phase is the failing step.
	Phase Phase

	// Pass is the 1-based pass number the failure happened in.
	Pass int

	// Err is the error the rule returned.
	Err error
}

// Error implements the error interface.
func (e *RuleError) Error() string {
	return fmt.Sprintf("rule %q: %s: %v", e.Rule, e.Phase, e.Err)
}

// Unwrap returns the rule's error.
func (e *RuleError) Unwrap() error {
	return e.Err
}

// IsRuleError returns true if err is or wraps a RuleError.
func IsRuleError(err error) bool {
	var re *RuleError
	return errors.As(err, &re)
}

// PassesExceededError is returned by an inference engine configured with
// WithMaxPasses when the cap is reached and the last pass still fired rules.
type PassesExceededError struct {
	Passes int // Passes completed
	Limit  int // Configured cap
}

// Error implements the error interface.
func (e *PassesExceededError) Error() string {
	return fmt.Sprintf("inference did not reach a fixed point: %d passes fired rules, limit %d",
		e.Passes, e.Limit)
}

// IsPassesExceeded returns true if err is or wraps a PassesExceededError.
func IsPassesExceeded(err error) bool {
	var pe *PassesExceededError
	return errors.As(err, &pe)
}
