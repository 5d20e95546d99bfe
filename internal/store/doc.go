// Package store provides a SQLite journal of engine runs.
//
// The journal records what the engines did. It does not persist facts or
// rules: a run's final facts are kept as canonical JSON for inspection
// only and are never loaded back.
//
//   - runs: one row per Execute call (engine kind, rule-set fingerprint,
//     fact count, outcome, final facts)
//   - firings: one row per action that ran, successful or failed
//
// # Ordering
//
// Runs and firings share one logical clock. Queries order by seq, never by
// wall time, so two journals of the same runs read back identically.
//
// # Recording
//
// Recorder implements engine.RuleListener and engine.EngineListener; pass it
// to an engine with engine.WithRuleListener and engine.WithEngineListener.
// Listener callbacks cannot fail, so the first write error is kept and
// reported by Recorder.Err.
package store
