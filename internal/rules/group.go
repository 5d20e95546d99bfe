package rules

import (
	"fmt"

	"github.com/roach88/rulekit/internal/facts"
)

// group holds the metadata and members shared by composite rules.
type group struct {
	name        string
	description string
	priority    int
	members     *Rules
}

func newGroup(name string, members []Rule, opts []Option) (group, error) {
	set, err := NewSet(members...)
	if err != nil {
		return group{}, err
	}
	b := New(name, nil, nil, opts...)
	return group{
		name:        b.name,
		description: b.description,
		priority:    b.priority,
		members:     set,
	}, nil
}

func (g *group) Name() string        { return g.name }
func (g *group) Description() string { return g.description }
func (g *group) Priority() int       { return g.priority }

// Members returns the composing rules in priority order.
func (g *group) Members() []Rule { return g.members.Slice() }

// UnitGroup applies all of its members or none: it holds when every member
// holds, and executing it executes every member in priority order.
type UnitGroup struct {
	group
}

// NewUnitGroup creates a unit group over members.
func NewUnitGroup(name string, members []Rule, opts ...Option) (*UnitGroup, error) {
	g, err := newGroup(name, members, opts)
	if err != nil {
		return nil, err
	}
	return &UnitGroup{group: g}, nil
}

// Evaluate reports whether the group is non-empty and every member holds.
func (g *UnitGroup) Evaluate(fs *facts.Facts) (bool, error) {
	if g.members.IsEmpty() {
		return false, nil
	}
	for r := range g.members.All() {
		ok, err := r.Evaluate(fs)
		if err != nil {
			return false, fmt.Errorf("group %s: evaluate %s: %w", g.name, r.Name(), err)
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// Execute runs every member's action in priority order.
func (g *UnitGroup) Execute(fs *facts.Facts) error {
	for r := range g.members.All() {
		if err := r.Execute(fs); err != nil {
			return fmt.Errorf("group %s: execute %s: %w", g.name, r.Name(), err)
		}
	}
	return nil
}

// ActivationGroup fires at most one member: the first, in priority order,
// whose condition holds.
type ActivationGroup struct {
	group
}

// NewActivationGroup creates an activation group over members.
func NewActivationGroup(name string, members []Rule, opts ...Option) (*ActivationGroup, error) {
	g, err := newGroup(name, members, opts)
	if err != nil {
		return nil, err
	}
	return &ActivationGroup{group: g}, nil
}

// selection returns the first member that holds, or nil.
func (g *ActivationGroup) selection(fs *facts.Facts) (Rule, error) {
	for r := range g.members.All() {
		ok, err := r.Evaluate(fs)
		if err != nil {
			return nil, fmt.Errorf("group %s: evaluate %s: %w", g.name, r.Name(), err)
		}
		if ok {
			return r, nil
		}
	}
	return nil, nil
}

// Evaluate reports whether any member holds.
func (g *ActivationGroup) Evaluate(fs *facts.Facts) (bool, error) {
	r, err := g.selection(fs)
	return r != nil, err
}

// Execute re-selects against fs and runs the chosen member, if any.
func (g *ActivationGroup) Execute(fs *facts.Facts) error {
	r, err := g.selection(fs)
	if err != nil || r == nil {
		return err
	}
	if err := r.Execute(fs); err != nil {
		return fmt.Errorf("group %s: execute %s: %w", g.name, r.Name(), err)
	}
	return nil
}

// ConditionalGroup is gated by its highest-precedence member. When the gate
// holds, every other member that holds is executed along with it.
type ConditionalGroup struct {
	group
}

// NewConditionalGroup creates a conditional group over members. The gate
// must have a priority no other member shares.
func NewConditionalGroup(name string, members []Rule, opts ...Option) (*ConditionalGroup, error) {
	g, err := newGroup(name, members, opts)
	if err != nil {
		return nil, err
	}
	rs := g.members.Slice()
	if len(rs) > 1 && rs[0].Priority() == rs[1].Priority() {
		return nil, &ArgumentError{
			Arg:     "members",
			Message: fmt.Sprintf("conditional group %s: rules %s and %s share the highest priority %d", g.name, rs[0].Name(), rs[1].Name(), rs[0].Priority()),
		}
	}
	return &ConditionalGroup{group: g}, nil
}

// selection returns the gate followed by every other member that holds,
// or nil when the gate does not hold.
func (g *ConditionalGroup) selection(fs *facts.Facts) ([]Rule, error) {
	rs := g.members.Slice()
	if len(rs) == 0 {
		return nil, nil
	}

	gate := rs[0]
	ok, err := gate.Evaluate(fs)
	if err != nil {
		return nil, fmt.Errorf("group %s: evaluate %s: %w", g.name, gate.Name(), err)
	}
	if !ok {
		return nil, nil
	}

	selected := []Rule{gate}
	for _, r := range rs[1:] {
		ok, err := r.Evaluate(fs)
		if err != nil {
			return nil, fmt.Errorf("group %s: evaluate %s: %w", g.name, r.Name(), err)
		}
		if ok {
			selected = append(selected, r)
		}
	}
	return selected, nil
}

// Evaluate reports whether the gate holds.
func (g *ConditionalGroup) Evaluate(fs *facts.Facts) (bool, error) {
	selected, err := g.selection(fs)
	return len(selected) > 0, err
}

// Execute re-selects against fs, then runs the gate and the selected
// members in priority order. Selection completes before any action runs.
func (g *ConditionalGroup) Execute(fs *facts.Facts) error {
	selected, err := g.selection(fs)
	if err != nil {
		return err
	}
	for _, r := range selected {
		if err := r.Execute(fs); err != nil {
			return fmt.Errorf("group %s: execute %s: %w", g.name, r.Name(), err)
		}
	}
	return nil
}
