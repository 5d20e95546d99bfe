package declare

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rulekit/internal/engine"
	"github.com/roach88/rulekit/internal/facts"
	"github.com/roach88/rulekit/internal/rules"
)

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name      string
		candidate any
		contains  string
	}{
		{"nil", nil, "candidate is nil"},
		{"not a struct", 42, "not a struct"},
		{"not declared", notDeclared{}, "does not embed declare.Rule"},
		{"nil pointer", (*withoutAction)(nil), "nil pointer"},
		{"condition missing", withoutCondition{}, "condition method When not found"},
		{"action missing", withoutAction{}, "action method Then not found"},
		{"condition unexported", unexportedCondition{}, "method when is not exported"},
		{"action unexported", unexportedAction{}, "method then is not exported"},
		{"condition parameter without binding", conditionWithUnboundParameter{}, "has no fact binding"},
		{"condition not boolean", conditionReturningInt{}, "must return bool or (bool, error)"},
		{"one bound one unbound", oneBoundOneUnbound{}, "parameter 1 (interface {}) has no fact binding"},
		{"binding without parameter", bindingWithoutParameter{}, `fact "fact2" has no parameter`},
		{"condition with two stores", conditionWithTwoStores{}, "more than one *facts.Facts"},
		{"action with two stores", actionWithTwoStores{}, "single *facts.Facts"},
		{"action with non-store parameter", actionWithNonStoreParameter{}, "single *facts.Facts"},
		{"action returning int", actionReturningInt{}, "must return nothing or error"},
		{"malformed priority", malformedPriority{}, `priority "high" is not an integer`},
		{"pointer receiver by value", pointerReceiver{}, "pointer receiver"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.candidate)
			require.Error(t, err)
			assert.True(t, IsDefinitionError(err))
			assert.Contains(t, err.Error(), tt.contains)

			_, err = AsRule(tt.candidate)
			assert.True(t, IsDefinitionError(err))
		})
	}
}

func TestValidate_Accepts(t *testing.T) {
	for _, c := range []any{
		boundFactsAndStore{},
		actionWithStore{},
		&pointerReceiver{},
		&annotatedWeather{},
		failingRule{},
		defaults{},
		weatherRule{},
	} {
		assert.NoError(t, Validate(c), "%T", c)
	}
}

func TestDefinitionError_NamesRule(t *testing.T) {
	err := Validate(conditionReturningInt{})

	var de *DefinitionError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "conditionReturningInt", de.Rule)
	assert.Equal(t, "declare.conditionReturningInt", de.Type)
}

func TestAsRule_Metadata(t *testing.T) {
	r, err := AsRule(boundFactsAndStore{})
	require.NoError(t, err)

	assert.Equal(t, "boundFactsAndStore", r.Name())
	assert.Equal(t, "two bound facts and the store", r.Description())
	assert.Equal(t, 3, r.Priority())
}

func TestAsRule_Defaults(t *testing.T) {
	r, err := AsRule(defaults{})
	require.NoError(t, err)

	assert.Equal(t, rules.DefaultName, r.Name())
	assert.Equal(t, rules.DefaultDescription, r.Description())
	assert.Equal(t, rules.DefaultPriority, r.Priority())
}

func TestAsRule_PassThrough(t *testing.T) {
	original := weatherRule{}

	first, err := AsRule(original)
	require.NoError(t, err)
	second, err := AsRule(first)
	require.NoError(t, err)

	assert.True(t, rules.Equal(first, second))
	assert.True(t, rules.Equal(original, first))
	assert.Equal(t, first.Name(), second.Name())
	assert.Equal(t, first.Description(), second.Description())
	assert.IsType(t, weatherRule{}, second, "no wrapper around a rule")

	basic := rules.New("basic", rules.Always, rules.NoOp)
	same, err := AsRule(basic)
	require.NoError(t, err)
	assert.Same(t, basic, same)
}

func TestAsRule_AdaptedRuleIsNotRewrapped(t *testing.T) {
	adaptedOnce, err := AsRule(&annotatedWeather{})
	require.NoError(t, err)

	adaptedTwice, err := AsRule(adaptedOnce)
	require.NoError(t, err)
	assert.Same(t, adaptedOnce, adaptedTwice)
}

func TestAdapted_BoundFacts(t *testing.T) {
	w := &annotatedWeather{}
	r, err := AsRule(w)
	require.NoError(t, err)

	ok, err := r.Evaluate(facts.New(facts.F("rain", true)))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.Evaluate(facts.New(facts.F("rain", false)))
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, r.Execute(facts.New(facts.F("rain", true))))
	assert.True(t, w.announced)
}

func TestAdapted_AbsentFactIsFalse(t *testing.T) {
	r, err := AsRule(&annotatedWeather{})
	require.NoError(t, err)

	ok, err := r.Evaluate(facts.New())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAdapted_WrongFactType(t *testing.T) {
	r, err := AsRule(&annotatedWeather{})
	require.NoError(t, err)

	_, err = r.Evaluate(facts.New(facts.F("rain", "yes")))
	require.Error(t, err)
	assert.True(t, facts.IsTypeMismatch(err))
	assert.Contains(t, err.Error(), "requested bool")

	_, err = r.Evaluate(facts.New(facts.F("rain", nil)))
	assert.True(t, facts.IsTypeMismatch(err))
}

func TestAdapted_StoreParameter(t *testing.T) {
	r, err := AsRule(boundFactsAndStore{})
	require.NoError(t, err)

	fs := facts.New(facts.F("fact1", 1), facts.F("fact2", "two"))
	ok, err := r.Evaluate(fs)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, r.Execute(fs))
	assert.True(t, fs.IsTrue("seen"))
}

func TestAdapted_NilBoundFactForNillableParameter(t *testing.T) {
	r, err := AsRule(boundFactsAndStore{})
	require.NoError(t, err)

	ok, err := r.Evaluate(facts.New(facts.F("fact1", nil), facts.F("fact2", 2)))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAdapted_ErrorsPropagate(t *testing.T) {
	r, err := AsRule(failingRule{})
	require.NoError(t, err)

	_, err = r.Evaluate(facts.New(facts.F("limit", -1)))
	assert.ErrorIs(t, err, errDenied)

	ok, err := r.Evaluate(facts.New(facts.F("limit", 11)))
	require.NoError(t, err)
	assert.True(t, ok)

	assert.ErrorIs(t, r.Execute(facts.New()), errDenied)
}

func TestNewSet_RunsInEngine(t *testing.T) {
	rs, err := NewSet(weatherRule{}, &annotatedWeather{}, boundFactsAndStore{})
	require.NoError(t, err)
	assert.Equal(t, []string{"boundFactsAndStore", "weather rule", "annotatedWeather"}, rs.Names())

	fs := facts.New(facts.F("rain", true))
	report, err := engine.NewDefault().Execute(rs, fs)
	require.NoError(t, err)

	assert.Equal(t, []string{"weather rule", "annotatedWeather"}, report.FiredNames())
	assert.Equal(t, "take an umbrella", fs.AsMap()["output"])
}

func TestNewSet_StopsOnInvalidCandidate(t *testing.T) {
	_, err := NewSet(weatherRule{}, notDeclared{})
	assert.True(t, IsDefinitionError(err))
}
