// Package harness runs rule scenarios and checks their outcomes.
//
// A scenario names rule definitions, an engine and its parameters, the
// initial facts, and what the run must produce. The harness compiles the
// definitions, runs the engine with a journal Recorder attached, and checks
// the expectations against the report, the journal and the final facts.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: fire_alarm
//	description: "What this scenario checks"
//	rules:
//	  - ../rules/alarms.yaml        # relative to the scenario file
//	definitions:                    # inline, added after rules
//	  - name: extra
//	    condition: "true"
//	    actions: ["facts.put('x', 1)"]
//	language: js                    # or cel
//	engine: inference               # or default
//	parameters:
//	  skip_on_first_applied_rule: false
//	  skip_on_first_non_triggered_rule: false
//	  priority_threshold: 10
//	max_passes: 5
//	facts:
//	  fire: true
//	expect:
//	  fired: [fire alarm, sprinklers]  # exact order
//	  facts: { alarm: true }           # required final values
//	  absent: [smoke]                  # facts that must be gone
//	  error: "substring"               # required run error
//
// Unknown fields are rejected.
//
// # Deterministic Traces
//
// Every run uses a fresh in-memory journal and a fixed run ID, so firing
// seq numbers repeat exactly across runs. RunWithGolden compares the
// canonical JSON trace with testdata/golden/{name}.golden using goldie.
package harness
