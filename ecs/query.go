package ecs

import (
	"iter"
	"reflect"
	"unsafe"
)

// Query is the cached counterpart of View. Its results come from the
// storage's memoized QueryAll for the required component types, so within one
// pass every iteration sees the same entities, even after structural changes.
// Optional fields are read from the live record.
//
// Systems declare Query fields and the Scheduler initialises them on
// registration.
type Query[T any] struct {
	storage *Storage
	layout  *viewLayout
}

// NewQuery creates a Query bound to storage.
func NewQuery[T any](storage *Storage) *Query[T] {
	q := &Query[T]{}
	q.Init(storage)
	return q
}

// Init initializes or re-initializes the Query with a storage.
// Called by the Scheduler during system registration.
func (q *Query[T]) Init(storage *Storage) {
	q.storage = storage
	q.layout = newViewLayout(reflect.TypeFor[T]())
}

func (q *Query[T]) rows() []Row {
	if q.storage == nil {
		panic("Query used before Init")
	}
	return q.storage.QueryAll(q.layout.required...)
}

func (q *Query[T]) fillRow(resultPtr unsafe.Pointer, row Row) {
	required := 0
	var record Record
	for i, componentType := range q.layout.types {
		fieldPtr := unsafe.Pointer(uintptr(resultPtr) + q.layout.fieldOffset[i])

		if !q.layout.optional[i] {
			component := row.Components[required]
			required++
			*(*unsafe.Pointer)(fieldPtr) = (*iface)(unsafe.Pointer(&component)).data
			continue
		}

		if record == nil {
			record, _ = q.storage.records.Get(row.Entity)
		}
		component, ok := record[componentType]
		if !ok {
			*(*unsafe.Pointer)(fieldPtr) = nil
			continue
		}
		*(*unsafe.Pointer)(fieldPtr) = (*iface)(unsafe.Pointer(&component)).data
	}

	if q.layout.hasId {
		*(*EntityId)(unsafe.Pointer(uintptr(resultPtr) + q.layout.idOffset)) = row.Entity
	}
}

// Iter returns an iterator over entity IDs and component data.
func (q *Query[T]) Iter() iter.Seq2[EntityId, T] {
	return func(yield func(EntityId, T) bool) {
		var result T
		resultPtr := unsafe.Pointer(&result)

		for _, row := range q.rows() {
			q.fillRow(resultPtr, row)
			if !yield(row.Entity, result) {
				return
			}
		}
	}
}

// Values returns an iterator over component data only.
func (q *Query[T]) Values() iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, value := range q.Iter() {
			if !yield(value) {
				return
			}
		}
	}
}

// Len returns the number of matches in the cached result.
func (q *Query[T]) Len() int {
	return len(q.rows())
}
