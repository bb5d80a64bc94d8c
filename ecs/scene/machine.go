// Package scene implements the scene state machine: named scenes, guarded
// transitions evaluated first-match-wins, and a per-scene table of
// edge-triggered event flags.
package scene

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
)

// ErrUnknownScene is returned when a registration names a scene that was
// never added.
var ErrUnknownScene = errors.New("unknown scene")

// Predicate guards a transition or arms an event.
type Predicate func() bool

// Transition is an outgoing edge of a scene.
type Transition struct {
	Target string
	When   Predicate
}

// EventState is the trigger-table entry of one event type in one scene.
type EventState struct {
	Type  reflect.Type
	Armed bool
}

type trigger struct {
	key   reflect.Type
	when  Predicate
	armed bool
}

type state struct {
	transitions []Transition
	triggers    []*trigger
}

func (st *state) trigger(key reflect.Type) *trigger {
	for _, t := range st.triggers {
		if t.key == key {
			return t
		}
	}
	return nil
}

// slot is an optional scene name.
type slot struct {
	name string
	set  bool
}

// Machine tracks the current, staged and previous scene. The current scene
// is unset until SetCurrent is called.
type Machine struct {
	order  []string
	states map[string]*state

	current slot
	next    slot
	prev    slot
}

// NewMachine creates a machine with no scenes.
func NewMachine() *Machine {
	return &Machine{
		states: make(map[string]*state),
	}
}

// AddScene declares a scene. Declaring an existing scene is a no-op.
func (m *Machine) AddScene(name string) {
	if _, ok := m.states[name]; ok {
		return
	}
	m.states[name] = &state{}
	m.order = append(m.order, name)
}

// AddScenes declares several scenes in order.
func (m *Machine) AddScenes(names ...string) {
	for _, name := range names {
		m.AddScene(name)
	}
}

// Has reports whether the scene was declared.
func (m *Machine) Has(name string) bool {
	_, ok := m.states[name]
	return ok
}

// Scenes returns the declared scenes in declaration order.
func (m *Machine) Scenes() []string {
	return slices.Clone(m.order)
}

func (m *Machine) lookup(name string) (*state, error) {
	st, ok := m.states[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownScene, name)
	}
	return st, nil
}

// AddTransition appends an edge from one scene to another. Edges are
// evaluated in the order they were added.
func (m *Machine) AddTransition(from, to string, when Predicate) error {
	st, err := m.lookup(from)
	if err != nil {
		return err
	}
	if _, err := m.lookup(to); err != nil {
		return err
	}
	if when == nil {
		return fmt.Errorf("transition %q -> %q: nil predicate", from, to)
	}
	st.transitions = append(st.transitions, Transition{Target: to, When: when})
	return nil
}

// Transitions returns the outgoing edges of a scene.
func (m *Machine) Transitions(name string) []Transition {
	st, ok := m.states[name]
	if !ok {
		return nil
	}
	return slices.Clone(st.transitions)
}

// AddEvent registers the trigger of an event type in a scene. Registering
// the same type again replaces its predicate and disarms it.
func (m *Machine) AddEvent(name string, key reflect.Type, when Predicate) error {
	st, err := m.lookup(name)
	if err != nil {
		return err
	}
	if when == nil {
		return fmt.Errorf("event %v in %q: nil predicate", key, name)
	}
	if t := st.trigger(key); t != nil {
		t.when = when
		t.armed = false
		return nil
	}
	st.triggers = append(st.triggers, &trigger{key: key, when: when})
	return nil
}

// RemoveEvent drops the trigger of an event type from a scene.
func (m *Machine) RemoveEvent(name string, key reflect.Type) {
	st, ok := m.states[name]
	if !ok {
		return
	}
	st.triggers = slices.DeleteFunc(st.triggers, func(t *trigger) bool {
		return t.key == key
	})
}

// Events returns the trigger table of a scene in registration order.
func (m *Machine) Events(name string) []EventState {
	st, ok := m.states[name]
	if !ok {
		return nil
	}
	events := make([]EventState, len(st.triggers))
	for i, t := range st.triggers {
		events[i] = EventState{Type: t.key, Armed: t.armed}
	}
	return events
}

// Armed reports whether the event type is armed in the scene.
func (m *Machine) Armed(name string, key reflect.Type) bool {
	st, ok := m.states[name]
	if !ok {
		return false
	}
	t := st.trigger(key)
	return t != nil && t.armed
}

// Arm sets the flag of an event type without evaluating its predicate.
func (m *Machine) Arm(name string, key reflect.Type) error {
	st, err := m.lookup(name)
	if err != nil {
		return err
	}
	t := st.trigger(key)
	if t == nil {
		return fmt.Errorf("event %v not registered in %q", key, name)
	}
	t.armed = true
	return nil
}

// Consume reports whether the event type was armed in the scene and, if so,
// disarms it.
func (m *Machine) Consume(name string, key reflect.Type) bool {
	st, ok := m.states[name]
	if !ok {
		return false
	}
	t := st.trigger(key)
	if t == nil || !t.armed {
		return false
	}
	t.armed = false
	return true
}

// Current returns the current scene, if set.
func (m *Machine) Current() (string, bool) { return m.current.name, m.current.set }

// Next returns the staged scene, if any.
func (m *Machine) Next() (string, bool) { return m.next.name, m.next.set }

// Prev returns the scene that was current before the last commit.
func (m *Machine) Prev() (string, bool) { return m.prev.name, m.prev.set }

// SetCurrent makes a scene current and clears any staged scene, so a stale
// next value cannot pull the machine back on the following commit.
func (m *Machine) SetCurrent(name string) error {
	if _, err := m.lookup(name); err != nil {
		return err
	}
	m.current = slot{name: name, set: true}
	m.next = slot{}
	return nil
}

// SetNext stages a scene without evaluating any predicate. It is committed by
// the next Process call unless a transition of the current scene fires first.
func (m *Machine) SetNext(name string) error {
	if _, err := m.lookup(name); err != nil {
		return err
	}
	m.next = slot{name: name, set: true}
	return nil
}

// ClearNext drops the staged scene.
func (m *Machine) ClearNext() {
	m.next = slot{}
}

// Process advances the machine by one tick: it arms the current scene's
// events whose predicates hold, stages the target of the first transition
// whose predicate holds, then commits. The staged scene is kept after the
// commit, so committing it again on later ticks is a no-op.
func (m *Machine) Process() {
	if m.current.set {
		st := m.states[m.current.name]
		for _, t := range st.triggers {
			if t.when() {
				t.armed = true
			}
		}
		for _, tr := range st.transitions {
			if tr.When() {
				m.next = slot{name: tr.Target, set: true}
				break
			}
		}
	}

	m.prev = m.current
	if m.next.set {
		m.current = m.next
	}
}
