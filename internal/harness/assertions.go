package harness

import (
	"bytes"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/rulekit/internal/canonical"
)

// ExpectationError describes one expectation that did not hold.
type ExpectationError struct {
	Kind     string // fired, facts, absent or error
	Expected string
	Actual   string
}

func (e *ExpectationError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "expectation failed: %s\n", e.Kind)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	return buf.String()
}

// checkExpectations returns one message per failed expectation.
func checkExpectations(exp Expect, result *Result) []string {
	var errs []string
	add := func(err error) {
		if err != nil {
			errs = append(errs, err.Error())
		}
	}

	add(checkError(exp.Error, result.RunError))
	if exp.Fired != nil {
		add(checkFired(exp.Fired, result.Fired))
	}
	for _, name := range canonical.SortedKeys(exp.Facts) {
		add(checkFact(name, exp.Facts[name], result.Facts))
	}
	for _, name := range exp.Absent {
		if v, ok := result.Facts[name]; ok {
			add(&ExpectationError{
				Kind:     "absent",
				Expected: fmt.Sprintf("no fact %q", name),
				Actual:   fmt.Sprintf("%q = %s", name, render(v)),
			})
		}
	}
	return errs
}

func checkError(want, got string) error {
	switch {
	case want == "" && got != "":
		return &ExpectationError{Kind: "error", Expected: "run succeeds", Actual: got}
	case want != "" && got == "":
		return &ExpectationError{Kind: "error", Expected: fmt.Sprintf("error containing %q", want), Actual: "run succeeded"}
	case want != "" && !strings.Contains(got, want):
		return &ExpectationError{Kind: "error", Expected: fmt.Sprintf("error containing %q", want), Actual: got}
	}
	return nil
}

func checkFired(want, got []string) error {
	if slices.Equal(want, got) {
		return nil
	}
	return &ExpectationError{
		Kind:     "fired",
		Expected: fmt.Sprintf("%v", want),
		Actual:   fmt.Sprintf("%v", got),
	}
}

// checkFact compares canonical encodings, so 1 and 1.0 are equal and map
// key order does not matter.
func checkFact(name string, want any, got map[string]any) error {
	v, ok := got[name]
	if !ok {
		return &ExpectationError{
			Kind:     "facts",
			Expected: fmt.Sprintf("%q = %s", name, render(want)),
			Actual:   "fact not present",
		}
	}
	wantJSON, err := canonical.Marshal(want)
	if err != nil {
		return fmt.Errorf("expect.facts[%q]: %w", name, err)
	}
	gotJSON, err := canonical.Marshal(v)
	if err != nil {
		return fmt.Errorf("fact %q: %w", name, err)
	}
	if bytes.Equal(wantJSON, gotJSON) {
		return nil
	}
	return &ExpectationError{
		Kind:     "facts",
		Expected: fmt.Sprintf("%q = %s", name, wantJSON),
		Actual:   fmt.Sprintf("%q = %s", name, gotJSON),
	}
}

func render(v any) string {
	data, err := canonical.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
