// Package compiler turns rule definitions into executable rules.
//
// Conditions and actions are expression strings in one of two languages:
//
//	js   JavaScript run by goja. Facts are globals; struct fields and methods
//	     are visible in lower camel case (person.age, person.setAdult(true)).
//	     A facts helper offers get, put, remove, has and isTrue.
//	cel  Common Expression Language. Facts are variables plus a facts map.
//	     Actions are assignments (name = expr) or remove(name).
//
// Compiled rules are plain closures over the parsed programs; nothing is
// interpreted from source at run time.
package compiler

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/roach88/rulekit/internal/definition"
	"github.com/roach88/rulekit/internal/rules"
)

// Factory compiles definitions. It is safe for concurrent use.
type Factory struct {
	language string
	logger   *slog.Logger
	cel      *celCompiler
}

// Option configures a Factory.
type Option func(*Factory)

// WithLanguage sets the language used by definitions that do not name one.
// Default: definition.LanguageJS.
func WithLanguage(lang string) Option {
	return func(f *Factory) { f.language = lang }
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(f *Factory) { f.logger = l }
}

// NewFactory creates a compiler.
func NewFactory(opts ...Option) *Factory {
	f := &Factory{language: definition.LanguageJS}
	for _, opt := range opts {
		opt(f)
	}
	if f.logger == nil {
		f.logger = slog.Default()
	}
	f.cel = newCELCompiler()
	return f
}

// Language returns the default language.
func (f *Factory) Language() string {
	return f.language
}

// Compile validates def and compiles it into a rule. Composite definitions
// become rule groups; their members inherit the group's language.
func (f *Factory) Compile(def *definition.RuleDefinition) (rules.Rule, error) {
	if def == nil {
		return nil, &rules.ArgumentError{Arg: "definition"}
	}
	if errs := definition.Validate(def); len(errs) > 0 {
		return nil, validationError(def.Name, errs)
	}
	return f.compile(def, f.language)
}

// CompileAll compiles defs into a rule set. A definition whose name is
// already in the set is skipped with a warning.
func (f *Factory) CompileAll(defs []definition.RuleDefinition) (*rules.Rules, error) {
	set, _ := rules.NewSet()
	for i := range defs {
		r, err := f.Compile(&defs[i])
		if err != nil {
			return nil, err
		}
		if set.Has(r.Name()) {
			f.logger.Warn("duplicate rule name, keeping the first definition", "rule", r.Name())
			continue
		}
		if err := set.Add(r); err != nil {
			return nil, err
		}
	}
	return set, nil
}

func (f *Factory) compile(def *definition.RuleDefinition, inherited string) (rules.Rule, error) {
	lang := def.Language
	if lang == "" {
		lang = inherited
	}

	var opts []rules.Option
	if def.Description != "" {
		opts = append(opts, rules.WithDescription(def.Description))
	}
	if def.Priority != nil {
		opts = append(opts, rules.WithPriority(*def.Priority))
	}

	if def.IsComposite() {
		return f.compileGroup(def, lang, opts)
	}

	var (
		cond rules.Condition
		act  rules.Action
		err  error
	)
	switch lang {
	case definition.LanguageJS:
		cond, act, err = compileJS(def)
	case definition.LanguageCEL:
		cond, act, err = f.cel.compile(def)
	default:
		return nil, &CompileError{Rule: def.Name, Field: "language", Message: fmt.Sprintf("unknown language %q", lang)}
	}
	if err != nil {
		return nil, err
	}

	f.logger.Debug("rule compiled", "rule", def.Name, "language", lang, "actions", len(def.Actions))
	return rules.New(def.Name, cond, act, opts...), nil
}

func (f *Factory) compileGroup(def *definition.RuleDefinition, lang string, opts []rules.Option) (rules.Rule, error) {
	members := make([]rules.Rule, 0, len(def.ComposingRules))
	for i := range def.ComposingRules {
		m, err := f.compile(&def.ComposingRules[i], lang)
		if err != nil {
			return nil, err
		}
		members = append(members, m)
	}

	var (
		group rules.Rule
		err   error
	)
	switch def.CompositeRuleType {
	case definition.UnitRuleGroup:
		group, err = rules.NewUnitGroup(def.Name, members, opts...)
	case definition.ActivationRuleGroup:
		group, err = rules.NewActivationGroup(def.Name, members, opts...)
	case definition.ConditionalRuleGroup:
		group, err = rules.NewConditionalGroup(def.Name, members, opts...)
	}
	if err != nil {
		return nil, &CompileError{Rule: def.Name, Field: "composingRules", Message: err.Error()}
	}

	f.logger.Debug("rule group compiled", "rule", def.Name, "type", def.CompositeRuleType, "members", len(members))
	return group, nil
}

func validationError(rule string, errs []definition.ValidationError) error {
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return &CompileError{Rule: rule, Field: errs[0].Field, Message: strings.Join(msgs, "; ")}
}

// normalize converts integral values produced by expression engines to int
// so they read back with facts.Get[int].
func normalize(v any) any {
	switch x := v.(type) {
	case int64:
		if int64(int(x)) == x {
			return int(x)
		}
		return x
	case uint64:
		if x <= uint64(^uint(0)>>1) {
			return int(x)
		}
		return x
	case []any:
		for i := range x {
			x[i] = normalize(x[i])
		}
		return x
	case map[string]any:
		for k := range x {
			x[k] = normalize(x[k])
		}
		return x
	}
	return v
}
