package ecs

import (
	"reflect"
	"strings"
)

// EntityId is an opaque entity identifier. Ids handed out by the storage
// counter start at 0 and increase by one per CreateEntity call.
type EntityId uint64

// Record holds every component of one entity keyed by component type.
// Values are pointers into storage (*T for a component of type T).
type Record map[reflect.Type]any

// Types returns the component types of the record sorted by name.
func (r Record) Types() []reflect.Type {
	types := make([]reflect.Type, 0, len(r))
	for t := range r {
		types = append(types, t)
	}
	sortTypesByName(types)
	return types
}

// String lists the record's component type names.
func (r Record) String() string {
	names := make([]string, 0, len(r))
	for _, t := range r.Types() {
		names = append(names, t.String())
	}
	return "{" + strings.Join(names, ", ") + "}"
}

// Item is one result of a single-type query.
type Item struct {
	Entity    EntityId
	Component any
}

// Row is one result of a multi-type query. Components follow the order of the
// requested types.
type Row struct {
	Entity     EntityId
	Components []any
}
