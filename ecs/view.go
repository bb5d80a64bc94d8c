package ecs

import (
	"iter"
	"reflect"
	"unsafe"
)

var entityIdType = reflect.TypeFor[EntityId]()

// viewLayout describes how component pointers are written into a view struct.
type viewLayout struct {
	types       []reflect.Type
	optional    []bool
	fieldOffset []uintptr
	required    []reflect.Type
	hasId       bool
	idOffset    uintptr
}

func newViewLayout(structType reflect.Type) *viewLayout {
	if structType.Kind() != reflect.Struct {
		panic("View type parameter must be a struct")
	}

	l := &viewLayout{
		types:       make([]reflect.Type, 0, structType.NumField()),
		optional:    make([]bool, 0, structType.NumField()),
		fieldOffset: make([]uintptr, 0, structType.NumField()),
	}

	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)

		if field.Type == entityIdType {
			l.hasId = true
			l.idOffset = field.Offset
			continue
		}

		if field.Type.Kind() != reflect.Ptr {
			panic("View struct fields must be pointer types or EntityId")
		}

		// Embedded fields are always required.
		isOptional := false
		if !field.Anonymous {
			switch tag := field.Tag.Get("ecs"); tag {
			case "":
			case "optional":
				isOptional = true
			default:
				panic("invalid ecs tag value: \"" + tag + "\" (only \"optional\" is supported)")
			}
		}

		componentType := field.Type.Elem()
		l.types = append(l.types, componentType)
		l.optional = append(l.optional, isOptional)
		l.fieldOffset = append(l.fieldOffset, field.Offset)
		if !isOptional {
			l.required = append(l.required, componentType)
		}
	}

	if len(l.required) == 0 {
		panic("View struct needs at least one required component field")
	}
	return l
}

// fill writes the entity's component pointers into the struct at resultPtr.
// It reports false when a required component is missing.
func (l *viewLayout) fill(resultPtr unsafe.Pointer, id EntityId, record Record) bool {
	for i, componentType := range l.types {
		fieldPtr := unsafe.Pointer(uintptr(resultPtr) + l.fieldOffset[i])

		component, ok := record[componentType]
		if !ok {
			if !l.optional[i] {
				return false
			}
			*(*unsafe.Pointer)(fieldPtr) = nil
			continue
		}
		*(*unsafe.Pointer)(fieldPtr) = (*iface)(unsafe.Pointer(&component)).data
	}

	if l.hasId {
		*(*EntityId)(unsafe.Pointer(uintptr(resultPtr) + l.idOffset)) = id
	}
	return true
}

// View is an uncached, on-demand accessor for entities with a given set of
// components. T is a struct whose fields are pointers to component types;
// embedded fields are required, named fields may be tagged `ecs:"optional"`,
// and a field of type EntityId receives the entity id.
type View[T any] struct {
	storage *Storage
	layout  *viewLayout
}

// NewView creates a view over storage. It panics if T is not a valid view
// struct.
func NewView[T any](storage *Storage) *View[T] {
	return &View[T]{
		storage: storage,
		layout:  newViewLayout(reflect.TypeFor[T]()),
	}
}

// Init binds the view to storage. Called by the Scheduler during
// registration of a unit that declares a View field.
func (v *View[T]) Init(storage *Storage) {
	v.storage = storage
	if v.layout == nil {
		v.layout = newViewLayout(reflect.TypeFor[T]())
	}
}

// Fill populates ptr with the entity's components and reports whether every
// required component is present.
func (v *View[T]) Fill(id EntityId, ptr *T) bool {
	record, ok := v.storage.records.Get(id)
	if !ok {
		return false
	}
	return v.layout.fill(unsafe.Pointer(ptr), id, record)
}

// Get returns a populated view struct for the given entity, or nil if the
// entity doesn't have all the required components.
func (v *View[T]) Get(id EntityId) *T {
	var result T
	if !v.Fill(id, &result) {
		return nil
	}
	return &result
}

// Iter walks the current matches in ascending entity order. Unlike Query it
// reads the live index on every call.
func (v *View[T]) Iter() iter.Seq2[EntityId, T] {
	return func(yield func(EntityId, T) bool) {
		var result T
		resultPtr := unsafe.Pointer(&result)

		for _, row := range v.storage.intersect(v.layout.required) {
			record, ok := v.storage.records.Get(row.Entity)
			if !ok || !v.layout.fill(resultPtr, row.Entity, record) {
				continue
			}
			if !yield(row.Entity, result) {
				return
			}
		}
	}
}

// Values returns an iterator over just the view structs.
func (v *View[T]) Values() iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, value := range v.Iter() {
			if !yield(value) {
				return
			}
		}
	}
}

// Spawn creates a new entity with the components referenced by data. Nil
// optional fields are skipped; a nil required field panics.
func (v *View[T]) Spawn(data T) EntityId {
	structPtr := unsafe.Pointer(&data)

	components := make([]any, 0, len(v.layout.types))
	for i, componentType := range v.layout.types {
		componentPtr := *(*unsafe.Pointer)(unsafe.Pointer(uintptr(structPtr) + v.layout.fieldOffset[i]))
		if componentPtr == nil {
			if !v.layout.optional[i] {
				panic("required component is nil in View.Spawn")
			}
			continue
		}
		components = append(components, reflect.NewAt(componentType, componentPtr).Interface())
	}

	return v.storage.Spawn(components...)
}
