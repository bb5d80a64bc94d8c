package ecs

import (
	"maps"
	"reflect"
	"slices"
	"sort"

	"github.com/kamstrup/intmap"
)

const defaultEntityCapacity = 256

type byTypeName []reflect.Type

func (a byTypeName) Len() int           { return len(a) }
func (a byTypeName) Swap(i, j int)      { a[i], a[j] = a[j], a[i] }
func (a byTypeName) Less(i, j int) bool { return a[i].String() < a[j].String() }

func sortTypesByName(types []reflect.Type) {
	sort.Sort(byTypeName(types))
}

// Storage is the entity/component store. It keeps two structures in step:
// a per-type index of the entities holding that type, and a per-entity
// record of its components. Every mutation updates both.
//
// Query results are memoized per type (or ordered type tuple) and are not
// invalidated by mutations; see InvalidateQueries.
type Storage struct {
	index   map[reflect.Type]*intmap.Set[EntityId]
	records *intmap.Map[EntityId, Record]
	nextId  EntityId
	queries *queryCache
}

// NewStorage creates an empty storage whose id counter starts at 0.
func NewStorage() *Storage {
	return &Storage{
		index:   make(map[reflect.Type]*intmap.Set[EntityId]),
		records: intmap.New[EntityId, Record](defaultEntityCapacity),
		queries: newQueryCache(),
	}
}

// CreateEntity returns the next value of the id counter and advances it.
// The entity becomes known to the storage once a component is added.
func (s *Storage) CreateEntity() EntityId {
	id := s.nextId
	s.nextId++
	return id
}

// CreateEntityWithId returns id unchanged without advancing the counter.
// No uniqueness check is made: reusing an id that already holds components
// merges the two component sets.
func (s *Storage) CreateEntityWithId(id EntityId) EntityId {
	return id
}

// Spawn creates an entity and adds the provided components to it.
func (s *Storage) Spawn(components ...any) EntityId {
	id := s.CreateEntity()
	for _, component := range components {
		s.AddComponent(id, component)
	}
	return id
}

// AddComponent attaches a copy of component to the entity. Pointers are
// dereferenced once, so Position{} and &Position{} both add a Position.
// If the entity already holds a component of that type the call is a no-op.
func (s *Storage) AddComponent(id EntityId, component any) {
	if component == nil {
		return
	}

	val := reflect.ValueOf(component)
	if val.Kind() == reflect.Ptr {
		if val.IsNil() {
			return
		}
		val = val.Elem()
	}

	compType := val.Type()
	if s.HasComponent(id, compType) {
		return
	}

	ptr := reflect.New(compType)
	ptr.Elem().Set(val)
	s.insert(id, compType, ptr.Interface())
}

// Add attaches component to the entity with the same first-write-wins rule as
// AddComponent. T is the component value type, not a pointer to it.
func Add[T any](s *Storage, id EntityId, component T) {
	compType := reflect.TypeFor[T]()
	if compType.Kind() == reflect.Ptr {
		s.AddComponent(id, component)
		return
	}
	if s.HasComponent(id, compType) {
		return
	}
	value := component
	s.insert(id, compType, &value)
}

func (s *Storage) insert(id EntityId, compType reflect.Type, ptr any) {
	record, ok := s.records.Get(id)
	if !ok {
		record = make(Record)
		s.records.Put(id, record)
	}
	record[compType] = ptr

	set, ok := s.index[compType]
	if !ok {
		set = intmap.NewSet[EntityId](defaultEntityCapacity)
		s.index[compType] = set
	}
	set.Add(id)
}

// RemoveComponent detaches the component of the given type. It does nothing
// if the entity is unknown or lacks the component. The entity stays known
// even when its last component is removed.
func (s *Storage) RemoveComponent(id EntityId, compType reflect.Type) {
	compType = normalizeType(compType)
	record, ok := s.records.Get(id)
	if !ok {
		return
	}
	if _, present := record[compType]; !present {
		return
	}

	delete(record, compType)
	if set, ok := s.index[compType]; ok {
		set.Del(id)
	}
}

// RemoveComponents detaches every listed component type.
func (s *Storage) RemoveComponents(id EntityId, types ...reflect.Type) {
	for _, t := range types {
		s.RemoveComponent(id, t)
	}
}

// Remove detaches the component of type T.
func Remove[T any](s *Storage, id EntityId) {
	s.RemoveComponent(id, reflect.TypeFor[T]())
}

// RemoveEntity deletes the entity and all of its components. It returns
// false if the entity is unknown, including when it was already removed.
func (s *Storage) RemoveEntity(id EntityId) bool {
	record, ok := s.records.Get(id)
	if !ok {
		return false
	}

	for compType := range record {
		if set, ok := s.index[compType]; ok {
			set.Del(id)
		}
	}
	s.records.Del(id)
	return true
}

// HasEntity reports whether the storage holds a record for the entity.
func (s *Storage) HasEntity(id EntityId) bool {
	return s.records.Has(id)
}

// HasComponent checks if an entity has a specific component type.
func (s *Storage) HasComponent(id EntityId, compType reflect.Type) bool {
	record, ok := s.records.Get(id)
	if !ok {
		return false
	}
	_, ok = record[normalizeType(compType)]
	return ok
}

// HasComponents reports whether the entity holds every listed type.
// Unknown entities never match.
func (s *Storage) HasComponents(id EntityId, types ...reflect.Type) bool {
	record, ok := s.records.Get(id)
	if !ok {
		return false
	}
	for _, t := range types {
		if _, ok := record[normalizeType(t)]; !ok {
			return false
		}
	}
	return true
}

// Has reports whether the entity holds a component of type T.
func Has[T any](s *Storage, id EntityId) bool {
	return s.HasComponent(id, reflect.TypeFor[T]())
}

// GetEntity returns a copy of the entity's record. The component pointers in
// the copy are live; the map itself is not, so adding or deleting keys on it
// does not touch the storage.
func (s *Storage) GetEntity(id EntityId) (Record, bool) {
	record, ok := s.records.Get(id)
	if !ok {
		return nil, false
	}
	return maps.Clone(record), true
}

// GetComponent returns the component for the given entity ID and component
// type as a pointer, or nil.
func (s *Storage) GetComponent(id EntityId, compType reflect.Type) any {
	record, ok := s.records.Get(id)
	if !ok {
		return nil
	}
	return record[normalizeType(compType)]
}

// Get returns a pointer to the entity's component of type T.
func Get[T any](s *Storage, id EntityId) (*T, bool) {
	component, ok := s.GetComponent(id, reflect.TypeFor[T]()).(*T)
	return component, ok
}

// ComponentExists reports whether any entity holds the type.
func (s *Storage) ComponentExists(compType reflect.Type) bool {
	set, ok := s.index[normalizeType(compType)]
	return ok && set.Len() > 0
}

// ComponentsExist reports whether at least one entity holds all of the types.
func (s *Storage) ComponentsExist(types ...reflect.Type) bool {
	if len(types) == 0 {
		return false
	}
	normalized := make([]reflect.Type, len(types))
	for i, t := range types {
		normalized[i] = normalizeType(t)
	}
	return len(s.intersect(normalized)) > 0
}

// ComponentTypes returns every type currently held by at least one entity,
// sorted by name.
func (s *Storage) ComponentTypes() []reflect.Type {
	types := make([]reflect.Type, 0, len(s.index))
	for t, set := range s.index {
		if set.Len() > 0 {
			types = append(types, t)
		}
	}
	sortTypesByName(types)
	return types
}

// Entities returns every known entity id in ascending order.
func (s *Storage) Entities() []EntityId {
	return slices.Sorted(s.records.Keys())
}

// Len returns the number of known entities.
func (s *Storage) Len() int {
	return s.records.Len()
}

// Clear removes every entity, resets the id counter to 0 and drops all
// memoized query results.
func (s *Storage) Clear() {
	s.index = make(map[reflect.Type]*intmap.Set[EntityId])
	s.records.Clear()
	s.nextId = 0
	s.queries.reset()
}

// normalizeType maps *T to T so callers may name a component by either.
func normalizeType(t reflect.Type) reflect.Type {
	if t != nil && t.Kind() == reflect.Ptr {
		return t.Elem()
	}
	return t
}

type ComponentReader interface {
	GetComponent(EntityId, reflect.Type) any
}

// ReadComponent fetches a component through any ComponentReader, returning
// nil when it is missing.
func ReadComponent[T any](reader ComponentReader, entityId EntityId) *T {
	component, _ := reader.GetComponent(entityId, reflect.TypeFor[T]()).(*T)
	return component
}
