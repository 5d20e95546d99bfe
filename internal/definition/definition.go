// Package definition holds the textual rule format and its readers.
//
// A RuleDefinition is the parsed form of one rule. Conditions and actions
// are expression strings; which grammar they use is the compiler's concern
// (see package compiler). Definitions can be written in JSON, YAML or CUE:
//
//	{
//	  "name": "adult rule",
//	  "description": "when age is greater than 18, then mark as adult",
//	  "priority": 1,
//	  "condition": "person.age > 18",
//	  "actions": ["person.setAdult(true);"]
//	}
//
// Composite definitions set compositeRuleType and list their members in
// composingRules; their own condition and actions are ignored.
package definition

// Composite rule types.
const (
	UnitRuleGroup        = "UnitRuleGroup"
	ActivationRuleGroup  = "ActivationRuleGroup"
	ConditionalRuleGroup = "ConditionalRuleGroup"
)

// Languages understood by the compiler.
const (
	LanguageJS  = "js"
	LanguageCEL = "cel"
)

// RuleDefinition is one rule as written in a definitions file.
type RuleDefinition struct {
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Priority    *int     `json:"priority,omitempty" yaml:"priority,omitempty"`
	Condition   string   `json:"condition,omitempty" yaml:"condition,omitempty"`
	Actions     []string `json:"actions,omitempty" yaml:"actions,omitempty"`

	// Language overrides the compiler's default expression language.
	Language string `json:"language,omitempty" yaml:"language,omitempty"`

	CompositeRuleType string           `json:"compositeRuleType,omitempty" yaml:"compositeRuleType,omitempty"`
	ComposingRules    []RuleDefinition `json:"composingRules,omitempty" yaml:"composingRules,omitempty"`
}

// IsComposite reports whether the definition describes a rule group.
func (d *RuleDefinition) IsComposite() bool {
	return d.CompositeRuleType != "" || len(d.ComposingRules) > 0
}

// PriorityOr returns the declared priority or def when none is declared.
func (d *RuleDefinition) PriorityOr(def int) int {
	if d.Priority == nil {
		return def
	}
	return *d.Priority
}
