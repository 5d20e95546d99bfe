package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/rulekit/internal/canonical"
)

// Snapshot is the part of a Result compared against golden files.
// Only deterministic fields are included.
type Snapshot struct {
	Scenario string
	Engine   string
	Passes   int
	Fired    []string
	Trace    []TraceEvent
	Facts    map[string]any
	RunError string
}

// toCanonicalMap converts the snapshot to values canonical.Marshal encodes
// without a JSON round trip.
func (s *Snapshot) toCanonicalMap() map[string]any {
	trace := make([]any, len(s.Trace))
	for i, ev := range s.Trace {
		m := map[string]any{
			"seq":      ev.Seq,
			"rule":     ev.Rule,
			"priority": ev.Priority,
			"outcome":  ev.Outcome,
		}
		if ev.Error != "" {
			m["error"] = ev.Error
		}
		trace[i] = m
	}

	fired := make([]any, len(s.Fired))
	for i, name := range s.Fired {
		fired[i] = name
	}

	result := map[string]any{
		"scenario": s.Scenario,
		"engine":   s.Engine,
		"passes":   s.Passes,
		"fired":    fired,
		"trace":    trace,
		"facts":    s.Facts,
	}
	if s.RunError != "" {
		result["run_error"] = s.RunError
	}
	return result
}

// MarshalTrace returns the canonical JSON form of a scenario result.
func MarshalTrace(name string, result *Result) ([]byte, error) {
	snapshot := Snapshot{
		Scenario: name,
		Engine:   result.Engine,
		Passes:   result.Passes,
		Fired:    result.Fired,
		Trace:    result.Trace,
		Facts:    result.Facts,
		RunError: result.RunError,
	}
	return canonical.Marshal(snapshot.toCanonicalMap())
}

// RunWithGolden runs a scenario and compares its trace with
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns the result so callers can also check Pass. Returns an error if
// the scenario cannot be run.
func RunWithGolden(t *testing.T, scenario *Scenario, opts ...Option) (*Result, error) {
	t.Helper()

	result, err := Run(scenario, opts...)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against its golden file.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	traceJSON, err := MarshalTrace(name, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, traceJSON)
	return nil
}
