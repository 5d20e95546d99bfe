package facts

import (
	"fmt"
	"iter"
	"reflect"
	"slices"
	"sort"
)

// Fact is a named value. The name is its identity inside a store.
type Fact struct {
	Name  string
	Value any
}

// F returns a Fact. Shorthand for literal-list construction:
//
//	fs := facts.New(facts.F("rain", true), facts.F("temp", 21))
func F(name string, value any) Fact {
	return Fact{Name: name, Value: value}
}

// String renders the fact as name=value.
func (f Fact) String() string {
	return fmt.Sprintf("%s=%v", f.Name, f.Value)
}

// Facts is a name-unique set of facts kept in insertion order.
type Facts struct {
	values map[string]any
	order  []string
}

// New creates a store holding the given facts. Later facts sharing a name
// with an earlier one are dropped, like Add.
func New(fs ...Fact) *Facts {
	s := &Facts{values: make(map[string]any, len(fs))}
	for _, f := range fs {
		s.Add(f)
	}
	return s
}

// FromMap creates a store from a map. Map keys are inserted in sorted order
// so that iteration over the result is deterministic.
func FromMap(m map[string]any) *Facts {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)

	s := &Facts{values: make(map[string]any, len(m))}
	for _, name := range names {
		s.Put(name, m[name])
	}
	return s
}

// Add inserts f if no fact with the same name exists.
// Returns whether the fact was inserted.
func (s *Facts) Add(f Fact) bool {
	if _, exists := s.values[f.Name]; exists {
		return false
	}
	s.set(f.Name, f.Value)
	return true
}

// Put sets the value under name, creating the fact or overwriting it.
// An overwritten fact keeps its position in iteration order.
func (s *Facts) Put(name string, value any) {
	s.set(name, value)
}

func (s *Facts) set(name string, value any) {
	if s.values == nil {
		s.values = make(map[string]any)
	}
	if _, exists := s.values[name]; !exists {
		s.order = append(s.order, name)
	}
	s.values[name] = value
}

// Get returns the value stored under name or a NotFoundError.
func (s *Facts) Get(name string) (any, error) {
	v, ok := s.values[name]
	if !ok {
		return nil, &NotFoundError{Name: name}
	}
	return v, nil
}

// GetFact returns the full fact stored under name or a NotFoundError.
func (s *Facts) GetFact(name string) (Fact, error) {
	v, ok := s.values[name]
	if !ok {
		return Fact{}, &NotFoundError{Name: name}
	}
	return Fact{Name: name, Value: v}, nil
}

// Has reports whether a fact with the given name exists.
func (s *Facts) Has(name string) bool {
	_, ok := s.values[name]
	return ok
}

// Remove deletes the fact with the given name. No-op if absent.
func (s *Facts) Remove(name string) {
	if _, ok := s.values[name]; !ok {
		return
	}
	delete(s.values, name)
	if i := slices.Index(s.order, name); i >= 0 {
		s.order = slices.Delete(s.order, i, i+1)
	}
}

// RemoveFact deletes the fact sharing f's name. No-op if absent.
func (s *Facts) RemoveFact(f Fact) {
	s.Remove(f.Name)
}

// Clear removes every fact.
func (s *Facts) Clear() {
	clear(s.values)
	s.order = s.order[:0]
}

// Len returns the number of facts.
func (s *Facts) Len() int {
	return len(s.order)
}

// All iterates facts in insertion order.
func (s *Facts) All() iter.Seq[Fact] {
	return func(yield func(Fact) bool) {
		for _, name := range s.order {
			if !yield(Fact{Name: name, Value: s.values[name]}) {
				return
			}
		}
	}
}

// Slice returns the facts in insertion order.
func (s *Facts) Slice() []Fact {
	out := make([]Fact, 0, len(s.order))
	for f := range s.All() {
		out = append(out, f)
	}
	return out
}

// Names returns fact names in insertion order.
func (s *Facts) Names() []string {
	return slices.Clone(s.order)
}

// AsMap returns a copy of the store as a plain map.
func (s *Facts) AsMap() map[string]any {
	m := make(map[string]any, len(s.values))
	for k, v := range s.values {
		m[k] = v
	}
	return m
}

// IsTrue reports whether the named fact is a bool satisfying every predicate.
// With no predicates the value itself must be true. Absent and non-bool facts
// report false.
func (s *Facts) IsTrue(name string, preds ...func(bool) bool) bool {
	b, ok := s.values[name].(bool)
	if !ok {
		return false
	}
	if len(preds) == 0 {
		return b
	}
	for _, p := range preds {
		if !p(b) {
			return false
		}
	}
	return true
}

// String renders the store as [name=value ...].
func (s *Facts) String() string {
	return fmt.Sprint(s.Slice())
}

// Get returns the named value as a T.
// Fails with NotFoundError if absent and TypeMismatchError if the stored
// value is not a T.
func Get[T any](s *Facts, name string) (T, error) {
	var zero T
	v, err := s.Get(name)
	if err != nil {
		return zero, err
	}
	if v == nil && nillable(reflect.TypeFor[T]()) {
		return zero, nil
	}
	t, ok := v.(T)
	if !ok {
		return zero, &TypeMismatchError{
			Name:      name,
			Requested: reflect.TypeFor[T]().String(),
			Stored:    typeName(v),
		}
	}
	return t, nil
}

// Holds reports whether the named fact is a T satisfying pred.
// Absent or differently typed facts report false.
func Holds[T any](s *Facts, name string, pred func(T) bool) bool {
	t, err := Get[T](s, name)
	if err != nil {
		return false
	}
	return pred(t)
}

func nillable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return true
	}
	return false
}

func typeName(v any) string {
	if v == nil {
		return "nil"
	}
	return reflect.TypeOf(v).String()
}
