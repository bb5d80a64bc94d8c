// Package action turns raw input polling into named boolean snapshots.
//
// A Map is a declarative table: each action name is bound to one predicate
// and one or more raw input codes. Evaluate applies the predicate to the
// codes in order and marks the action active on the first code that
// reports true.
package action

import (
	"errors"
	"fmt"
	"maps"
	"slices"
)

// ErrInvalidBinding is returned for a binding without a predicate or codes.
var ErrInvalidBinding = errors.New("invalid action binding")

// Code is a backend-specific raw input code (key, button, ...).
type Code int

// Predicate polls the input backend for one code.
type Predicate func(code Code) bool

// Binding maps an action name to a predicate over input codes.
type Binding struct {
	Name      string
	Predicate Predicate
	Codes     []Code
}

// Active evaluates the binding, short-circuiting on the first true code.
func (b Binding) Active() bool {
	for _, code := range b.Codes {
		if b.Predicate(code) {
			return true
		}
	}
	return false
}

// Map is an ordered action table.
type Map struct {
	bindings []Binding
	index    map[string]int
}

// NewMap builds a table from bindings. Invalid bindings are left out of the
// table and reported together in the returned error; the map is usable
// either way.
func NewMap(bindings ...Binding) (*Map, error) {
	m := &Map{index: make(map[string]int)}
	var errs []error
	for _, b := range bindings {
		if err := m.Bind(b.Name, b.Predicate, b.Codes...); err != nil {
			errs = append(errs, err)
		}
	}
	return m, errors.Join(errs...)
}

// Bind adds an action, or replaces the binding of an existing name in place.
func (m *Map) Bind(name string, predicate Predicate, codes ...Code) error {
	if predicate == nil {
		return fmt.Errorf("%w: %q has no predicate", ErrInvalidBinding, name)
	}
	if len(codes) == 0 {
		return fmt.Errorf("%w: %q has no input codes", ErrInvalidBinding, name)
	}

	b := Binding{Name: name, Predicate: predicate, Codes: slices.Clone(codes)}
	if i, ok := m.index[name]; ok {
		m.bindings[i] = b
		return nil
	}
	m.index[name] = len(m.bindings)
	m.bindings = append(m.bindings, b)
	return nil
}

// Bindings returns the table in declaration order.
func (m *Map) Bindings() []Binding {
	return slices.Clone(m.bindings)
}

// Evaluate polls every binding and returns a fresh snapshot.
func (m *Map) Evaluate() Snapshot {
	values := make(map[string]bool, len(m.bindings))
	for _, b := range m.bindings {
		values[b.Name] = b.Active()
	}
	return Snapshot{values: values}
}

// Snapshot is the read-only result of one Evaluate call. The zero value has
// every action inactive.
type Snapshot struct {
	values map[string]bool
}

// Active reports whether the action fired. Unknown names are inactive.
func (s Snapshot) Active(name string) bool {
	return s.values[name]
}

// Lookup returns the action value and whether the name is bound.
func (s Snapshot) Lookup(name string) (bool, bool) {
	v, ok := s.values[name]
	return v, ok
}

// Names returns the bound action names sorted alphabetically.
func (s Snapshot) Names() []string {
	return slices.Sorted(maps.Keys(s.values))
}

// Len returns the number of bound actions.
func (s Snapshot) Len() int {
	return len(s.values)
}
