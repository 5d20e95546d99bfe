package declare

import (
	"errors"

	"github.com/roach88/rulekit/internal/facts"
	"github.com/roach88/rulekit/internal/rules"
)

type withoutCondition struct {
	Rule `name:"withoutCondition"`
}

func (withoutCondition) Then() {}

type withoutAction struct {
	Rule `name:"withoutAction"`
}

func (withoutAction) When() bool { return true }

type unexportedCondition struct {
	Rule `name:"unexportedCondition" condition:"when"`
}

func (unexportedCondition) when() bool { return true }
func (unexportedCondition) Then()      {}

type unexportedAction struct {
	Rule `name:"unexportedAction" action:"then"`
}

func (unexportedAction) When() bool { return true }
func (unexportedAction) then()      {}

type conditionWithUnboundParameter struct {
	Rule `name:"conditionWithUnboundParameter"`
}

func (conditionWithUnboundParameter) When(int) bool { return true }
func (conditionWithUnboundParameter) Then()         {}

type conditionReturningInt struct {
	Rule `name:"conditionReturningInt"`
}

func (conditionReturningInt) When() int { return 0 }
func (conditionReturningInt) Then()     {}

type oneBoundOneUnbound struct {
	Rule `name:"oneBoundOneUnbound" facts:"fact1"`
}

func (oneBoundOneUnbound) When(fact1, fact2 any) bool { return true }
func (oneBoundOneUnbound) Then()                      {}

type bindingWithoutParameter struct {
	Rule `name:"bindingWithoutParameter" facts:"fact1,fact2"`
}

func (bindingWithoutParameter) When(fact1 any) bool { return true }
func (bindingWithoutParameter) Then()               {}

type conditionWithTwoStores struct {
	Rule `name:"conditionWithTwoStores"`
}

func (conditionWithTwoStores) When(a, b *facts.Facts) bool { return true }
func (conditionWithTwoStores) Then()                       {}

type actionWithTwoStores struct {
	Rule `name:"actionWithTwoStores"`
}

func (actionWithTwoStores) When() bool                    { return true }
func (actionWithTwoStores) Then(fs, other *facts.Facts) {}

type actionWithNonStoreParameter struct {
	Rule `name:"actionWithNonStoreParameter"`
}

func (actionWithNonStoreParameter) When() bool { return true }
func (actionWithNonStoreParameter) Then(int)   {}

type actionReturningInt struct {
	Rule `name:"actionReturningInt"`
}

func (actionReturningInt) When() bool { return true }
func (actionReturningInt) Then() int  { return 0 }

type malformedPriority struct {
	Rule `name:"malformedPriority" priority:"high"`
}

func (malformedPriority) When() bool { return true }
func (malformedPriority) Then()      {}

type pointerReceiver struct {
	Rule `name:"pointerReceiver"`
}

func (*pointerReceiver) When() bool { return true }
func (*pointerReceiver) Then()      {}

type notDeclared struct{}

func (notDeclared) When() bool { return true }
func (notDeclared) Then()      {}

type boundFactsAndStore struct {
	Rule `name:"boundFactsAndStore" description:"two bound facts and the store" priority:"3" facts:"fact1,fact2"`
}

func (boundFactsAndStore) When(fact1 any, fact2 any, fs *facts.Facts) bool {
	return fact1 != nil && fact2 != nil && fs.Len() == 2
}

func (boundFactsAndStore) Then(fs *facts.Facts) { fs.Put("seen", true) }

type actionWithStore struct {
	Rule `name:"actionWithStore"`
}

func (actionWithStore) When() bool            { return true }
func (actionWithStore) Then(fs *facts.Facts) {}

// annotatedWeather names its methods after the rule interface, with
// signatures that do not implement it.
type annotatedWeather struct {
	Rule `name:"annotatedWeather" condition:"Evaluate" action:"Execute" facts:"rain"`

	announced bool
}

func (w *annotatedWeather) Evaluate(rain bool) bool { return rain }
func (w *annotatedWeather) Execute()                { w.announced = true }

var errDenied = errors.New("denied")

type failingRule struct {
	Rule `name:"failing" facts:"limit"`
}

func (failingRule) When(limit int) (bool, error) {
	if limit < 0 {
		return false, errDenied
	}
	return limit > 10, nil
}

func (failingRule) Then() error { return errDenied }

type defaults struct {
	Rule
}

func (defaults) When() bool { return false }
func (defaults) Then()      {}

// weatherRule implements rules.Rule directly.
type weatherRule struct{}

func (weatherRule) Name() string        { return "weather rule" }
func (weatherRule) Description() string { return "if it rains then take an umbrella" }
func (weatherRule) Priority() int       { return rules.DefaultPriority }

func (weatherRule) Evaluate(fs *facts.Facts) (bool, error) { return fs.IsTrue("rain"), nil }

func (weatherRule) Execute(fs *facts.Facts) error {
	fs.Put("output", "take an umbrella")
	return nil
}
