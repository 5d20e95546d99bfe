// Package engine implements the two rule execution strategies.
//
// Both engines consume a rules.Rules set and a facts.Facts store and mutate
// the store through rule actions.
//
// ARCHITECTURE:
//
// Pass:
// One sweep over the rule set in priority order (ascending, stable for ties).
// Evaluation and execution are interleaved rule by rule: each condition sees
// every mutation made by actions earlier in the same pass.
//
// Default Engine:
// Runs exactly one pass. Parameters can end the pass early:
//   - SkipOnFirstNonTriggeredRule: stop at the first condition that fails
//   - SkipOnFirstAppliedRule: stop after the first rule fires
//   - PriorityThreshold: stop at the first rule whose priority exceeds it
//
// Inference Engine:
// Repeats passes (forward chaining) until a pass fires no rule. The rule set
// is never re-sorted or mutated between passes; only facts change.
// There is no built-in pass limit. A rule whose action keeps its own
// condition true loops forever; rules should retract the facts they react to.
// WithMaxPasses is an opt-in cap for callers that need one.
//
// Failure semantics:
// An error from a condition or action ends the pass immediately and is
// returned wrapped in a RuleError. There is no isolation or rollback; the
// store reflects every action that ran before the failure.
//
// Concurrency:
// Engines hold configuration only and are safe to share, but a rule set and
// fact store must not be used by two runs at once.
package engine
