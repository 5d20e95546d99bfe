package compiler

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"slices"
	"strings"
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"

	"github.com/roach88/rulekit/internal/definition"
	"github.com/roach88/rulekit/internal/facts"
	"github.com/roach88/rulekit/internal/rules"
)

var (
	celIdent  = regexp.MustCompile(`^[_a-zA-Z][_a-zA-Z0-9]*$`)
	celAssign = regexp.MustCompile(`^\s*([_a-zA-Z][_a-zA-Z0-9]*)\s*=([^=].*)$`)
	celRemove = regexp.MustCompile(`^\s*remove\(\s*"?([^"()\s]+)"?\s*\)\s*;?\s*$`)
)

var celReserved = map[string]bool{
	"true": true, "false": true, "null": true, "in": true, "as": true,
	"break": true, "const": true, "continue": true, "else": true, "for": true,
	"function": true, "if": true, "import": true, "let": true, "loop": true,
	"package": true, "namespace": true, "return": true, "var": true,
	"void": true, "while": true, "facts": true,
}

func celVariable(name string) bool {
	return celIdent.MatchString(name) && !celReserved[name]
}

// celAction is one parsed action: an assignment or a removal.
type celAction struct {
	source string
	target string
	expr   string
	remove bool
}

// celCompiler caches environments per fact-name set and programs per
// (fact-name set, expression).
type celCompiler struct {
	base *cel.Env

	mu       sync.RWMutex
	envs     map[string]*cel.Env
	prgCache map[string]cel.Program
}

func newCELCompiler() *celCompiler {
	base, err := cel.NewEnv(cel.Variable("facts", cel.MapType(cel.StringType, cel.DynType)))
	if err != nil {
		// The base declarations are static.
		panic(fmt.Sprintf("compiler: create CEL environment: %v", err))
	}
	return &celCompiler{
		base:     base,
		envs:     make(map[string]*cel.Env),
		prgCache: make(map[string]cel.Program),
	}
}

func (c *celCompiler) compile(def *definition.RuleDefinition) (rules.Condition, rules.Action, error) {
	condSrc := def.Condition
	if _, issues := c.base.Parse(condSrc); issues != nil && issues.Err() != nil {
		return nil, nil, &CompileError{Rule: def.Name, Field: "condition", Message: issues.Err().Error()}
	}

	actions := make([]celAction, len(def.Actions))
	for i, src := range def.Actions {
		a, err := c.parseAction(src)
		if err != nil {
			return nil, nil, &CompileError{Rule: def.Name, Field: fmt.Sprintf("actions[%d]", i), Message: err.Error()}
		}
		actions[i] = a
	}

	cond := func(fs *facts.Facts) (bool, error) {
		out, err := c.eval(condSrc, fs)
		if err != nil {
			if isUndeclared(err) {
				// An undeclared variable is an absent fact.
				return false, nil
			}
			return false, &ExpressionError{Language: definition.LanguageCEL, Source: condSrc, Err: err}
		}
		b, ok := out.Value().(bool)
		if !ok {
			return false, &ExpressionError{
				Language: definition.LanguageCEL,
				Source:   condSrc,
				Err:      fmt.Errorf("condition returned %s, want bool", out.Type().TypeName()),
			}
		}
		return b, nil
	}

	act := func(fs *facts.Facts) error {
		for _, a := range actions {
			if a.remove {
				fs.Remove(a.target)
				continue
			}
			out, err := c.eval(a.expr, fs)
			if err != nil {
				return &ExpressionError{Language: definition.LanguageCEL, Source: a.source, Err: err}
			}
			v, err := celNative(out)
			if err != nil {
				return &ExpressionError{Language: definition.LanguageCEL, Source: a.source, Err: err}
			}
			fs.Put(a.target, normalize(v))
		}
		return nil
	}

	return cond, act, nil
}

func (c *celCompiler) parseAction(src string) (celAction, error) {
	src = strings.TrimSpace(src)
	if m := celRemove.FindStringSubmatch(src); m != nil {
		return celAction{source: src, target: m[1], remove: true}, nil
	}
	m := celAssign.FindStringSubmatch(src)
	if m == nil {
		return celAction{}, fmt.Errorf("cel action %q: want name = expression or remove(name)", src)
	}
	expr := strings.TrimSuffix(strings.TrimSpace(m[2]), ";")
	if _, issues := c.base.Parse(expr); issues != nil && issues.Err() != nil {
		return celAction{}, issues.Err()
	}
	return celAction{source: src, target: m[1], expr: expr}, nil
}

// eval compiles expr against the current fact names and evaluates it.
func (c *celCompiler) eval(expr string, fs *facts.Facts) (ref.Val, error) {
	names := make([]string, 0, fs.Len())
	activation := map[string]any{"facts": fs.AsMap()}
	for f := range fs.All() {
		if celVariable(f.Name) {
			names = append(names, f.Name)
			activation[f.Name] = f.Value
		}
	}
	slices.Sort(names)

	prg, err := c.program(strings.Join(names, ","), names, expr)
	if err != nil {
		return nil, err
	}
	out, _, err := prg.Eval(activation)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *celCompiler) program(key string, names []string, expr string) (cel.Program, error) {
	cacheKey := key + "\x00" + expr

	c.mu.RLock()
	prg, hit := c.prgCache[cacheKey]
	c.mu.RUnlock()
	if hit {
		return prg, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if prg, hit = c.prgCache[cacheKey]; hit {
		return prg, nil
	}

	env, ok := c.envs[key]
	if !ok {
		opts := make([]cel.EnvOption, len(names))
		for i, n := range names {
			opts[i] = cel.Variable(n, cel.DynType)
		}
		var err error
		env, err = c.base.Extend(opts...)
		if err != nil {
			return nil, fmt.Errorf("extend CEL environment: %w", err)
		}
		c.envs[key] = env
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, &celCheckError{err: issues.Err()}
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("CEL program: %w", err)
	}
	c.prgCache[cacheKey] = prg
	return prg, nil
}

type celCheckError struct {
	err error
}

func (e *celCheckError) Error() string { return e.err.Error() }
func (e *celCheckError) Unwrap() error { return e.err }

func isUndeclared(err error) bool {
	var ce *celCheckError
	return errors.As(err, &ce) && strings.Contains(ce.err.Error(), "undeclared reference")
}

// celNative converts an evaluation result to plain Go values.
func celNative(v ref.Val) (any, error) {
	switch v.Type() {
	case types.NullType:
		return nil, nil
	case types.ListType:
		return v.ConvertToNative(reflect.TypeFor[[]any]())
	case types.MapType:
		return v.ConvertToNative(reflect.TypeFor[map[string]any]())
	}
	return v.Value(), nil
}
