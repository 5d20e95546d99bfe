// Package declare adapts rules written as plain Go types into rules.Rule
// values.
//
// A declared rule is a struct embedding the Rule marker. The marker's tag
// carries the rule metadata, and two methods carry the logic:
//
//	type Weather struct {
//		declare.Rule `name:"weather" description:"umbrella advice" priority:"1" facts:"rain"`
//	}
//
//	func (Weather) When(rain bool) bool  { return rain }
//	func (Weather) Then(fs *facts.Facts) { fs.Put("output", "take an umbrella") }
//
// Tag keys:
//
//	name         rule name (default rules.DefaultName)
//	description  rule description (default rules.DefaultDescription)
//	priority     integer priority (default rules.DefaultPriority)
//	condition    condition method name (default "When")
//	action       action method name (default "Then")
//	facts        comma separated fact names, bound in order to the
//	             condition parameters that are not *facts.Facts
//
// The condition returns bool or (bool, error) and takes bound facts plus at
// most one *facts.Facts. The action takes nothing or a single *facts.Facts
// and returns nothing or error.
package declare

import (
	"fmt"
	"go/token"
	"reflect"
	"strconv"
	"strings"

	"github.com/roach88/rulekit/internal/facts"
	"github.com/roach88/rulekit/internal/rules"
)

// Rule is the marker embedded by declared rules.
type Rule struct{}

// Default method names.
const (
	DefaultCondition = "When"
	DefaultAction    = "Then"
)

var (
	markerType = reflect.TypeFor[Rule]()
	factsType  = reflect.TypeFor[*facts.Facts]()
	errorType  = reflect.TypeFor[error]()
	boolType   = reflect.TypeFor[bool]()
)

// param is one condition parameter. An empty fact means the whole store.
type param struct {
	fact string
	typ  reflect.Type
}

// adapted is a declared rule behind the rules.Rule interface.
type adapted struct {
	typ         string
	name        string
	description string
	priority    int

	cond       reflect.Value
	condParams []param
	condErr    bool

	act      reflect.Value
	actFacts bool
	actErr   bool
}

var _ rules.Rule = (*adapted)(nil)

// Validate checks that candidate can be adapted by AsRule.
// Values that already implement rules.Rule are valid.
func Validate(candidate any) error {
	if _, ok := candidate.(rules.Rule); ok {
		return nil
	}
	_, err := inspect(candidate)
	return err
}

// AsRule returns candidate as a rules.Rule.
//
// A candidate that already implements rules.Rule is returned unchanged, so
// adapting a rule twice yields the same rule. Anything else must be a
// declared rule; shape violations are reported as *DefinitionError.
func AsRule(candidate any) (rules.Rule, error) {
	if r, ok := candidate.(rules.Rule); ok {
		return r, nil
	}
	return inspect(candidate)
}

// NewSet adapts every candidate and collects them into a rule set.
func NewSet(candidates ...any) (*rules.Rules, error) {
	set, _ := rules.NewSet()
	for _, c := range candidates {
		r, err := AsRule(c)
		if err != nil {
			return nil, err
		}
		if err := set.Add(r); err != nil {
			return nil, err
		}
	}
	return set, nil
}

func inspect(candidate any) (*adapted, error) {
	if candidate == nil {
		return nil, &DefinitionError{Type: "nil", Message: "candidate is nil"}
	}

	v := reflect.ValueOf(candidate)
	t := v.Type()
	fail := func(rule, format string, args ...any) error {
		return &DefinitionError{Type: t.String(), Rule: rule, Message: fmt.Sprintf(format, args...)}
	}

	st := t
	if st.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil, fail("", "candidate is a nil pointer")
		}
		st = st.Elem()
	}
	if st.Kind() != reflect.Struct {
		return nil, fail("", "not a struct embedding declare.Rule")
	}
	tag, ok := markerTag(st)
	if !ok {
		return nil, fail("", "does not embed declare.Rule")
	}

	r := &adapted{
		typ:         t.String(),
		name:        rules.DefaultName,
		description: rules.DefaultDescription,
		priority:    rules.DefaultPriority,
	}
	if name := tag.Get("name"); name != "" {
		r.name = name
	}
	if desc := tag.Get("description"); desc != "" {
		r.description = desc
	}
	if p, ok := tag.Lookup("priority"); ok {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fail(r.name, "priority %q is not an integer", p)
		}
		r.priority = n
	}

	condName := tag.Get("condition")
	if condName == "" {
		condName = DefaultCondition
	}
	actName := tag.Get("action")
	if actName == "" {
		actName = DefaultAction
	}
	bindings, err := parseBindings(tag.Get("facts"))
	if err != nil {
		return nil, fail(r.name, "%v", err)
	}

	cond, msg := lookupMethod(v, condName)
	if msg != "" {
		return nil, fail(r.name, "condition %s", msg)
	}
	if msg := r.bindCondition(condName, cond, bindings); msg != "" {
		return nil, fail(r.name, "%s", msg)
	}

	act, msg := lookupMethod(v, actName)
	if msg != "" {
		return nil, fail(r.name, "action %s", msg)
	}
	if msg := r.bindAction(actName, act); msg != "" {
		return nil, fail(r.name, "%s", msg)
	}

	return r, nil
}

func markerTag(st reflect.Type) (reflect.StructTag, bool) {
	for i := range st.NumField() {
		f := st.Field(i)
		if f.Anonymous && f.Type == markerType {
			return f.Tag, true
		}
	}
	return "", false
}

func parseBindings(s string) ([]string, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	seen := make(map[string]bool)
	var names []string
	for _, part := range strings.Split(s, ",") {
		name := strings.TrimSpace(part)
		if name == "" {
			return nil, fmt.Errorf("empty fact name in facts tag %q", s)
		}
		if seen[name] {
			return nil, fmt.Errorf("fact %q bound twice", name)
		}
		seen[name] = true
		names = append(names, name)
	}
	return names, nil
}

// lookupMethod returns the bound method or a description of why it is unusable.
func lookupMethod(v reflect.Value, name string) (reflect.Value, string) {
	if !token.IsExported(name) {
		return reflect.Value{}, fmt.Sprintf("method %s is not exported", name)
	}
	if m := v.MethodByName(name); m.IsValid() {
		return m, ""
	}
	if v.Kind() != reflect.Pointer {
		if _, ok := reflect.PointerTo(v.Type()).MethodByName(name); ok {
			return reflect.Value{}, fmt.Sprintf("method %s has a pointer receiver; pass a pointer to the rule", name)
		}
	}
	return reflect.Value{}, fmt.Sprintf("method %s not found", name)
}

func (r *adapted) bindCondition(name string, m reflect.Value, bindings []string) string {
	mt := m.Type()

	switch {
	case mt.NumOut() == 1 && mt.Out(0) == boolType:
	case mt.NumOut() == 2 && mt.Out(0) == boolType && mt.Out(1) == errorType:
		r.condErr = true
	default:
		return fmt.Sprintf("condition %s must return bool or (bool, error)", name)
	}
	if mt.IsVariadic() {
		return fmt.Sprintf("condition %s must not be variadic", name)
	}

	stores, next := 0, 0
	for i := range mt.NumIn() {
		in := mt.In(i)
		if in == factsType {
			stores++
			if stores > 1 {
				return fmt.Sprintf("condition %s takes more than one *facts.Facts", name)
			}
			r.condParams = append(r.condParams, param{typ: in})
			continue
		}
		if next >= len(bindings) {
			return fmt.Sprintf("condition %s parameter %d (%s) has no fact binding", name, i, in)
		}
		r.condParams = append(r.condParams, param{fact: bindings[next], typ: in})
		next++
	}
	if next < len(bindings) {
		return fmt.Sprintf("fact %q has no parameter in condition %s", bindings[next], name)
	}

	r.cond = m
	return ""
}

func (r *adapted) bindAction(name string, m reflect.Value) string {
	mt := m.Type()

	switch {
	case mt.NumIn() == 0:
	case mt.NumIn() == 1 && mt.In(0) == factsType:
		r.actFacts = true
	default:
		return fmt.Sprintf("action %s must take no parameters or a single *facts.Facts", name)
	}

	switch {
	case mt.NumOut() == 0:
	case mt.NumOut() == 1 && mt.Out(0) == errorType:
		r.actErr = true
	default:
		return fmt.Sprintf("action %s must return nothing or error", name)
	}

	r.act = m
	return ""
}

func (r *adapted) Name() string        { return r.name }
func (r *adapted) Description() string { return r.description }
func (r *adapted) Priority() int       { return r.priority }

// Evaluate calls the condition method. A bound fact that is absent makes
// the condition false without calling it.
func (r *adapted) Evaluate(fs *facts.Facts) (bool, error) {
	args := make([]reflect.Value, len(r.condParams))
	for i, p := range r.condParams {
		if p.fact == "" {
			args[i] = reflect.ValueOf(fs)
			continue
		}
		if !fs.Has(p.fact) {
			return false, nil
		}
		v, _ := fs.Get(p.fact)
		arg, err := bind(p, v)
		if err != nil {
			return false, err
		}
		args[i] = arg
	}

	out := r.cond.Call(args)
	if r.condErr {
		if err, _ := out[1].Interface().(error); err != nil {
			return false, err
		}
	}
	return out[0].Bool(), nil
}

// Execute calls the action method.
func (r *adapted) Execute(fs *facts.Facts) error {
	var args []reflect.Value
	if r.actFacts {
		args = []reflect.Value{reflect.ValueOf(fs)}
	}

	out := r.act.Call(args)
	if r.actErr {
		if err, _ := out[0].Interface().(error); err != nil {
			return err
		}
	}
	return nil
}

func (r *adapted) String() string {
	return fmt.Sprintf("%s (%s, priority %d)", r.name, r.typ, r.priority)
}

func bind(p param, v any) (reflect.Value, error) {
	if v == nil {
		switch p.typ.Kind() {
		case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
			return reflect.Zero(p.typ), nil
		}
		return reflect.Value{}, &facts.TypeMismatchError{Name: p.fact, Requested: p.typ.String(), Stored: "nil"}
	}
	rv := reflect.ValueOf(v)
	if !rv.Type().AssignableTo(p.typ) {
		return reflect.Value{}, &facts.TypeMismatchError{
			Name:      p.fact,
			Requested: p.typ.String(),
			Stored:    rv.Type().String(),
		}
	}
	return rv, nil
}
