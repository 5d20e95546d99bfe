package definition

import (
	"fmt"
	"strings"
)

// Validation error codes (E200-E299)
const (
	ErrNameMissing          = "E201" // name is required
	ErrConditionMissing     = "E202" // condition is required for a simple rule
	ErrActionsMissing       = "E203" // at least one action is required for a simple rule
	ErrUnknownCompositeType = "E204" // compositeRuleType not recognised
	ErrCompositeEmpty       = "E205" // composite without composing rules
	ErrDuplicateMember      = "E206" // two composing rules share a name
	ErrUnknownLanguage      = "E207" // language not supported by the compiler
	ErrBlankAction          = "E208" // an action is empty or whitespace
	ErrDuplicateRule        = "E209" // two top-level rules share a name; the first is kept
)

// ValidationError is one problem found in a definition.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks a definition and its composing rules.
// Returns all errors found (does not fail-fast).
func Validate(def *RuleDefinition) []ValidationError {
	return validate(def, "")
}

// ValidateAll validates every definition. Field paths are prefixed with
// the definition's index.
func ValidateAll(defs []RuleDefinition) []ValidationError {
	var errs []ValidationError
	for i := range defs {
		errs = append(errs, validate(&defs[i], fmt.Sprintf("[%d]", i))...)
	}
	return errs
}

// Duplicates reports top-level definitions whose name was already used.
// These are warnings: a rule set keeps the first rule of a name and
// ignores the rest.
func Duplicates(defs []RuleDefinition) []ValidationError {
	var warnings []ValidationError
	seen := make(map[string]bool)
	for i := range defs {
		name := defs[i].Name
		if name == "" {
			continue
		}
		if seen[name] {
			warnings = append(warnings, ValidationError{
				Field:   fmt.Sprintf("[%d].name", i),
				Message: fmt.Sprintf("duplicate rule name %q, the first definition is kept", name),
				Code:    ErrDuplicateRule,
			})
		}
		seen[name] = true
	}
	return warnings
}

func validate(def *RuleDefinition, prefix string) []ValidationError {
	var errs []ValidationError
	field := func(name string) string {
		if prefix == "" {
			return name
		}
		return prefix + "." + name
	}

	// E201: name is required
	if strings.TrimSpace(def.Name) == "" {
		errs = append(errs, ValidationError{
			Field:   field("name"),
			Message: "name is required and must be non-empty",
			Code:    ErrNameMissing,
		})
	}

	// E207: language must be known
	switch def.Language {
	case "", LanguageJS, LanguageCEL:
	default:
		errs = append(errs, ValidationError{
			Field:   field("language"),
			Message: fmt.Sprintf("unknown language %q (want %q or %q)", def.Language, LanguageJS, LanguageCEL),
			Code:    ErrUnknownLanguage,
		})
	}

	if def.IsComposite() {
		return append(errs, validateComposite(def, field)...)
	}

	// E202: condition is required
	if strings.TrimSpace(def.Condition) == "" {
		errs = append(errs, ValidationError{
			Field:   field("condition"),
			Message: "condition is required",
			Code:    ErrConditionMissing,
		})
	}

	// E203: at least one action
	if len(def.Actions) == 0 {
		errs = append(errs, ValidationError{
			Field:   field("actions"),
			Message: "at least one action is required",
			Code:    ErrActionsMissing,
		})
	}

	// E208: no blank actions
	for i, a := range def.Actions {
		if strings.TrimSpace(a) == "" {
			errs = append(errs, ValidationError{
				Field:   field(fmt.Sprintf("actions[%d]", i)),
				Message: "action must be non-empty",
				Code:    ErrBlankAction,
			})
		}
	}

	return errs
}

func validateComposite(def *RuleDefinition, field func(string) string) []ValidationError {
	var errs []ValidationError

	// E204: known composite type
	switch def.CompositeRuleType {
	case UnitRuleGroup, ActivationRuleGroup, ConditionalRuleGroup:
	default:
		errs = append(errs, ValidationError{
			Field: field("compositeRuleType"),
			Message: fmt.Sprintf("unknown composite rule type %q (want %s, %s or %s)",
				def.CompositeRuleType, UnitRuleGroup, ActivationRuleGroup, ConditionalRuleGroup),
			Code: ErrUnknownCompositeType,
		})
	}

	// E205: members required
	if len(def.ComposingRules) == 0 {
		errs = append(errs, ValidationError{
			Field:   field("composingRules"),
			Message: "composite rule must have at least one composing rule",
			Code:    ErrCompositeEmpty,
		})
	}

	names := make(map[string]bool)
	for i := range def.ComposingRules {
		member := &def.ComposingRules[i]
		prefix := field(fmt.Sprintf("composingRules[%d]", i))

		// E206: member names unique
		if member.Name != "" && names[member.Name] {
			errs = append(errs, ValidationError{
				Field:   prefix + ".name",
				Message: fmt.Sprintf("duplicate composing rule name %q", member.Name),
				Code:    ErrDuplicateMember,
			})
		}
		names[member.Name] = true

		errs = append(errs, validate(member, prefix)...)
	}

	return errs
}
