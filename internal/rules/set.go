package rules

import (
	"iter"
	"sort"
)

// Rules is a name-unique collection iterated in priority order.
//
// INVARIANTS:
//   - entries are sorted by priority ascending
//   - rules sharing a priority keep insertion order (stable)
//   - no two entries share a name
//
// Not safe for concurrent use.
type Rules struct {
	entries []Rule
	names   map[string]struct{}
}

// NewSet creates a set from rules in the given order.
// Returns ArgumentError if any rule is nil.
func NewSet(rs ...Rule) (*Rules, error) {
	s := &Rules{names: make(map[string]struct{}, len(rs))}
	for _, r := range rs {
		if err := s.Add(r); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// MustSet is like NewSet but panics on error.
// Use only in tests or when rules are known to be non-nil.
func MustSet(rs ...Rule) *Rules {
	s, err := NewSet(rs...)
	if err != nil {
		panic(err)
	}
	return s
}

// Add inserts r at its priority position, after every rule whose priority
// is less than or equal to r's. A rule whose name is already present is
// ignored and the existing rule retained.
func (s *Rules) Add(r Rule) error {
	if isNil(r) {
		return &ArgumentError{Arg: "rule"}
	}
	if s.names == nil {
		s.names = make(map[string]struct{})
	}
	if _, exists := s.names[r.Name()]; exists {
		return nil
	}

	p := r.Priority()
	// Upper bound keeps equal priorities in insertion order.
	i := sort.Search(len(s.entries), func(i int) bool {
		return s.entries[i].Priority() > p
	})
	s.entries = append(s.entries, nil)
	copy(s.entries[i+1:], s.entries[i:])
	s.entries[i] = r
	s.names[r.Name()] = struct{}{}
	return nil
}

// Remove deletes the rule equal to r (same name). No-op if absent or nil.
func (s *Rules) Remove(r Rule) {
	if isNil(r) {
		return
	}
	s.RemoveByName(r.Name())
}

// RemoveByName deletes the rule with the given name. No-op if absent.
func (s *Rules) RemoveByName(name string) {
	if _, ok := s.names[name]; !ok {
		return
	}
	delete(s.names, name)
	for i, r := range s.entries {
		if r.Name() == name {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			return
		}
	}
}

// Get returns the rule with the given name.
func (s *Rules) Get(name string) (Rule, bool) {
	if _, ok := s.names[name]; !ok {
		return nil, false
	}
	for _, r := range s.entries {
		if r.Name() == name {
			return r, true
		}
	}
	return nil, false
}

// Has reports whether a rule with the given name is present.
func (s *Rules) Has(name string) bool {
	_, ok := s.names[name]
	return ok
}

// Clear removes every rule.
func (s *Rules) Clear() {
	s.entries = nil
	clear(s.names)
}

// Len returns the number of rules.
func (s *Rules) Len() int {
	return len(s.entries)
}

// IsEmpty reports whether the set holds no rules.
func (s *Rules) IsEmpty() bool {
	return len(s.entries) == 0
}

// All iterates rules in priority order.
func (s *Rules) All() iter.Seq[Rule] {
	return func(yield func(Rule) bool) {
		for _, r := range s.entries {
			if !yield(r) {
				return
			}
		}
	}
}

// Slice returns the rules in priority order.
func (s *Rules) Slice() []Rule {
	out := make([]Rule, len(s.entries))
	copy(out, s.entries)
	return out
}

// Names returns rule names in priority order.
func (s *Rules) Names() []string {
	out := make([]string, len(s.entries))
	for i, r := range s.entries {
		out[i] = r.Name()
	}
	return out
}
