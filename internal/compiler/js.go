package compiler

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/dop251/goja"

	"github.com/roach88/rulekit/internal/definition"
	"github.com/roach88/rulekit/internal/facts"
	"github.com/roach88/rulekit/internal/rules"
)

var jsIdent = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

var jsReserved = map[string]bool{
	"break": true, "case": true, "catch": true, "class": true, "const": true,
	"continue": true, "debugger": true, "default": true, "delete": true,
	"do": true, "else": true, "export": true, "extends": true, "false": true,
	"finally": true, "for": true, "function": true, "if": true, "import": true,
	"in": true, "instanceof": true, "let": true, "new": true, "null": true,
	"return": true, "super": true, "switch": true, "this": true, "throw": true,
	"true": true, "try": true, "typeof": true, "var": true, "void": true,
	"while": true, "with": true, "yield": true, "undefined": true,
	"facts": true,
}

func jsGlobal(name string) bool {
	return jsIdent.MatchString(name) && !jsReserved[name]
}

func compileJS(def *definition.RuleDefinition) (rules.Condition, rules.Action, error) {
	condSrc := def.Condition
	condPrg, err := goja.Compile(def.Name+".condition", condSrc, false)
	if err != nil {
		return nil, nil, &CompileError{Rule: def.Name, Field: "condition", Message: err.Error()}
	}

	actSrcs := append([]string(nil), def.Actions...)
	actPrgs := make([]*goja.Program, len(actSrcs))
	for i, src := range actSrcs {
		p, err := goja.Compile(fmt.Sprintf("%s.actions[%d]", def.Name, i), src, false)
		if err != nil {
			return nil, nil, &CompileError{Rule: def.Name, Field: fmt.Sprintf("actions[%d]", i), Message: err.Error()}
		}
		actPrgs[i] = p
	}

	cond := func(fs *facts.Facts) (bool, error) {
		vm := newRuntime(fs)
		v, err := vm.RunProgram(condPrg)
		if err != nil {
			if isReferenceError(err) {
				// An undefined name is an absent fact.
				return false, nil
			}
			return false, &ExpressionError{Language: definition.LanguageJS, Source: condSrc, Err: err}
		}
		b, ok := v.Export().(bool)
		if !ok {
			return false, &ExpressionError{
				Language: definition.LanguageJS,
				Source:   condSrc,
				Err:      fmt.Errorf("condition returned %s, want boolean", v.String()),
			}
		}
		return b, nil
	}

	act := func(fs *facts.Facts) error {
		vm := newRuntime(fs)
		for i, p := range actPrgs {
			if _, err := vm.RunProgram(p); err != nil {
				return &ExpressionError{Language: definition.LanguageJS, Source: actSrcs[i], Err: err}
			}
		}
		return nil
	}

	return cond, act, nil
}

func isReferenceError(err error) bool {
	var ex *goja.Exception
	if !errors.As(err, &ex) {
		return false
	}
	return strings.HasPrefix(ex.Value().String(), "ReferenceError")
}

// newRuntime creates a runtime exposing fs. Each call gets its own runtime.
func newRuntime(fs *facts.Facts) *goja.Runtime {
	vm := goja.New()
	vm.SetFieldNameMapper(goja.UncapFieldNameMapper())

	for f := range fs.All() {
		if jsGlobal(f.Name) {
			vm.Set(f.Name, f.Value)
		}
	}

	helper := vm.NewObject()
	helper.Set("get", func(call goja.FunctionCall) goja.Value {
		v, err := fs.Get(call.Argument(0).String())
		if err != nil {
			return goja.Undefined()
		}
		return vm.ToValue(v)
	})
	helper.Set("put", func(call goja.FunctionCall) goja.Value {
		name := call.Argument(0).String()
		v := call.Argument(1).Export()
		fs.Put(name, normalize(v))
		if jsGlobal(name) {
			vm.Set(name, v)
		}
		return goja.Undefined()
	})
	helper.Set("remove", func(call goja.FunctionCall) goja.Value {
		name := call.Argument(0).String()
		fs.Remove(name)
		if jsGlobal(name) {
			vm.GlobalObject().Delete(name)
		}
		return goja.Undefined()
	})
	helper.Set("has", func(call goja.FunctionCall) goja.Value {
		return vm.ToValue(fs.Has(call.Argument(0).String()))
	})
	helper.Set("isTrue", func(call goja.FunctionCall) goja.Value {
		return vm.ToValue(fs.IsTrue(call.Argument(0).String()))
	})
	vm.Set("facts", helper)

	return vm
}
