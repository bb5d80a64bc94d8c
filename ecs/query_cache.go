package ecs

import (
	"reflect"
	"slices"
	"strconv"
	"strings"
	"unsafe"

	"github.com/kamstrup/intmap"
)

// queryCache memoizes query results. An entry is computed on the first call
// for its key and returned unchanged afterwards until reset.
type queryCache struct {
	items  map[reflect.Type][]Item
	rows   map[string][]Row
	hits   uint64
	misses uint64
}

func newQueryCache() *queryCache {
	return &queryCache{
		items: make(map[reflect.Type][]Item),
		rows:  make(map[string][]Row),
	}
}

func (c *queryCache) reset() {
	clear(c.items)
	clear(c.rows)
}

func (c *queryCache) len() int {
	return len(c.items) + len(c.rows)
}

// Query returns every entity holding compType together with its component,
// in ascending entity order. The result is memoized: later calls return the
// same slice even if components were added or removed in between, until
// InvalidateQueries is called. Unknown types yield an empty slice.
func (s *Storage) Query(compType reflect.Type) []Item {
	compType = normalizeType(compType)
	if items, ok := s.queries.items[compType]; ok {
		s.queries.hits++
		return items
	}
	s.queries.misses++

	set := s.index[compType]
	items := make([]Item, 0, set.Len())
	for _, id := range sortedIds(set) {
		record, _ := s.records.Get(id)
		items = append(items, Item{Entity: id, Component: record[compType]})
	}

	s.queries.items[compType] = items
	return items
}

// QueryAll returns the entities holding every listed type, each with its
// components in the order the types were given. Results are memoized per
// ordered tuple, so (A, B) and (B, A) are separate entries.
func (s *Storage) QueryAll(types ...reflect.Type) []Row {
	if len(types) == 0 {
		return []Row{}
	}

	normalized := make([]reflect.Type, len(types))
	for i, t := range types {
		normalized[i] = normalizeType(t)
	}

	key := tupleKey(normalized)
	if rows, ok := s.queries.rows[key]; ok {
		s.queries.hits++
		return rows
	}
	s.queries.misses++

	rows := s.intersect(normalized)
	s.queries.rows[key] = rows
	return rows
}

// InvalidateQueries drops every memoized query result. The Scheduler calls it
// at the start of each update and draw pass.
func (s *Storage) InvalidateQueries() {
	s.queries.reset()
}

// CachedQueries returns the number of memoized query results.
func (s *Storage) CachedQueries() int {
	return s.queries.len()
}

func (s *Storage) intersect(types []reflect.Type) []Row {
	// Walk the smallest index and look up the others.
	var smallest *intmap.Set[EntityId]
	for _, t := range types {
		set, ok := s.index[t]
		if !ok || set.Len() == 0 {
			return []Row{}
		}
		if smallest == nil || set.Len() < smallest.Len() {
			smallest = set
		}
	}

	rows := make([]Row, 0, smallest.Len())
	for _, id := range sortedIds(smallest) {
		record, ok := s.records.Get(id)
		if !ok {
			continue
		}

		components := make([]any, len(types))
		matched := true
		for i, t := range types {
			component, ok := record[t]
			if !ok {
				matched = false
				break
			}
			components[i] = component
		}
		if matched {
			rows = append(rows, Row{Entity: id, Components: components})
		}
	}
	return rows
}

func sortedIds(set *intmap.Set[EntityId]) []EntityId {
	if set == nil {
		return nil
	}
	ids := make([]EntityId, 0, set.Len())
	set.ForEach(func(id EntityId) bool {
		ids = append(ids, id)
		return true
	})
	slices.Sort(ids)
	return ids
}

// iface mirrors the runtime layout of an interface value.
type iface struct {
	typ  unsafe.Pointer
	data unsafe.Pointer
}

func typeId(t reflect.Type) uintptr {
	return uintptr((*iface)(unsafe.Pointer(&t)).data)
}

// tupleKey identifies an ordered list of types by their runtime type pointers.
func tupleKey(types []reflect.Type) string {
	var b strings.Builder
	for i, t := range types {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatUint(uint64(typeId(t)), 16))
	}
	return b.String()
}
