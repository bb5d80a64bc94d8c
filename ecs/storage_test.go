package ecs_test

import (
	"math/rand/v2"
	"reflect"
	"testing"

	"github.com/plus3/tickscene/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	positionType = reflect.TypeFor[Position]()
	velocityType = reflect.TypeFor[Velocity]()
	healthType   = reflect.TypeFor[Health]()
	nameType     = reflect.TypeFor[Name]()
)

func TestCreateEntity(t *testing.T) {
	storage := ecs.NewStorage()

	seen := make(map[ecs.EntityId]bool)
	for i := 0; i < 1000; i++ {
		id := storage.CreateEntity()
		assert.False(t, seen[id], "id %d handed out twice", id)
		seen[id] = true
	}

	assert.True(t, seen[0], "counter starts at 0")
	assert.True(t, seen[999])
}

func TestCreateEntityWithId(t *testing.T) {
	storage := ecs.NewStorage()

	id := storage.CreateEntityWithId(42)
	assert.Equal(t, ecs.EntityId(42), id)

	// The counter is untouched by explicit ids.
	assert.Equal(t, ecs.EntityId(0), storage.CreateEntity())
	assert.Equal(t, ecs.EntityId(1), storage.CreateEntity())
}

func TestEntityNotKnownUntilFirstComponent(t *testing.T) {
	storage := ecs.NewStorage()

	id := storage.CreateEntity()
	assert.False(t, storage.HasEntity(id))

	_, ok := storage.GetEntity(id)
	assert.False(t, ok)

	storage.AddComponent(id, Position{X: 1})
	assert.True(t, storage.HasEntity(id))
	assert.Equal(t, 1, storage.Len())
}

func TestGetComponent(t *testing.T) {
	storage := ecs.NewStorage()

	id := storage.Spawn(&Position{X: 3.0, Y: 4.0}, Name{Value: "Test Entity"})

	posComp := storage.GetComponent(id, positionType)
	require.NotNil(t, posComp)
	pos := posComp.(*Position)
	assert.Equal(t, float32(3.0), pos.X)
	assert.Equal(t, float32(4.0), pos.Y)

	nameComp := storage.GetComponent(id, nameType)
	require.NotNil(t, nameComp)
	assert.Equal(t, "Test Entity", nameComp.(*Name).Value)

	// Pointer types resolve to the same component.
	assert.Same(t, pos, storage.GetComponent(id, reflect.TypeFor[*Position]()))

	assert.Nil(t, storage.GetComponent(id, velocityType))
	assert.Nil(t, storage.GetComponent(ecs.EntityId(999), positionType))
}

func TestGenericAccessors(t *testing.T) {
	storage := ecs.NewStorage()
	id := storage.CreateEntity()

	ecs.Add(storage, id, Score(10))
	ecs.Add(storage, id, Tag("enemy"))

	score, ok := ecs.Get[Score](storage, id)
	require.True(t, ok)
	assert.Equal(t, Score(10), *score)

	*score = 20
	score, _ = ecs.Get[Score](storage, id)
	assert.Equal(t, Score(20), *score, "components are handed out by reference")

	assert.True(t, ecs.Has[Tag](storage, id))
	ecs.Remove[Tag](storage, id)
	assert.False(t, ecs.Has[Tag](storage, id))

	_, ok = ecs.Get[Temperature](storage, id)
	assert.False(t, ok)

	// A pointer type parameter stores the value type.
	ecs.Add(storage, id, &Health{Current: 5, Max: 5})
	assert.True(t, ecs.Has[Health](storage, id))
}

func TestAddComponentFirstWriteWins(t *testing.T) {
	storage := ecs.NewStorage()
	id := storage.Spawn(Position{X: 1, Y: 1})

	storage.AddComponent(id, Position{X: 99, Y: 99})
	ecs.Add(storage, id, Position{X: 50, Y: 50})

	pos, ok := ecs.Get[Position](storage, id)
	require.True(t, ok)
	assert.Equal(t, Position{X: 1, Y: 1}, *pos)
	assert.Len(t, storage.Query(positionType), 1)
}

func TestAddComponentCopiesValue(t *testing.T) {
	storage := ecs.NewStorage()

	original := &Position{X: 1, Y: 2}
	id := storage.Spawn(original)
	original.X = 100

	pos, _ := ecs.Get[Position](storage, id)
	assert.Equal(t, float32(1), pos.X)
}

func TestAddNilComponent(t *testing.T) {
	storage := ecs.NewStorage()
	id := storage.CreateEntity()

	var nilPos *Position
	storage.AddComponent(id, nil)
	storage.AddComponent(id, nilPos)

	assert.False(t, storage.HasEntity(id))
}

func TestRemoveComponent(t *testing.T) {
	storage := ecs.NewStorage()
	id := storage.Spawn(Position{}, Velocity{}, Health{Current: 1})

	storage.RemoveComponent(id, velocityType)
	assert.False(t, storage.HasComponent(id, velocityType))
	assert.True(t, storage.HasComponents(id, positionType, healthType))

	// Absent component and unknown entity are no-ops.
	storage.RemoveComponent(id, velocityType)
	storage.RemoveComponent(ecs.EntityId(12345), positionType)

	storage.RemoveComponents(id, positionType, healthType)
	assert.True(t, storage.HasEntity(id), "an emptied entity keeps its record")

	record, ok := storage.GetEntity(id)
	require.True(t, ok)
	assert.Empty(t, record)
}

func TestRemoveEntity(t *testing.T) {
	storage := ecs.NewStorage()
	id := storage.Spawn(Position{X: 1.0, Y: 1.0}, Health{Current: 100, Max: 100})

	assert.True(t, storage.RemoveEntity(id))
	assert.False(t, storage.HasEntity(id))
	assert.False(t, storage.HasComponent(id, positionType))
	assert.Empty(t, storage.Query(positionType))
	assert.Empty(t, storage.Query(healthType))

	assert.False(t, storage.RemoveEntity(id), "second removal reports false")
	assert.False(t, storage.RemoveEntity(ecs.EntityId(777)))
}

func TestHasComponents(t *testing.T) {
	storage := ecs.NewStorage()
	id := storage.Spawn(Position{}, Velocity{})

	tests := []struct {
		name  string
		id    ecs.EntityId
		types []reflect.Type
		want  bool
	}{
		{"all present", id, []reflect.Type{positionType, velocityType}, true},
		{"one missing", id, []reflect.Type{positionType, healthType}, false},
		{"no types", id, nil, true},
		{"unknown entity", ecs.EntityId(99), []reflect.Type{positionType}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, storage.HasComponents(tt.id, tt.types...))
		})
	}
}

func TestGetEntity(t *testing.T) {
	storage := ecs.NewStorage()
	id := storage.Spawn(Position{X: 7}, Name{Value: "npc"})

	record, ok := storage.GetEntity(id)
	require.True(t, ok)
	assert.Len(t, record, 2)
	assert.Equal(t, []reflect.Type{nameType, positionType}, record.Types())

	// The returned map is a copy; its component pointers are live.
	delete(record, positionType)
	assert.True(t, storage.HasComponent(id, positionType))

	record, _ = storage.GetEntity(id)
	record[positionType].(*Position).X = 8
	pos, _ := ecs.Get[Position](storage, id)
	assert.Equal(t, float32(8), pos.X)

	_, ok = storage.GetEntity(ecs.EntityId(404))
	assert.False(t, ok)
}

func TestQueryCorrectness(t *testing.T) {
	storage := ecs.NewStorage()
	storage.CreateEntityWithId(1)
	storage.AddComponent(1, Position{X: 1})
	storage.CreateEntityWithId(2)
	storage.AddComponent(2, Position{X: 2})
	storage.AddComponent(2, Velocity{DX: 2})

	t.Run("single type", func(t *testing.T) {
		items := storage.Query(positionType)
		require.Len(t, items, 2)
		assert.Equal(t, ecs.EntityId(1), items[0].Entity)
		assert.Equal(t, ecs.EntityId(2), items[1].Entity)
		assert.Equal(t, float32(1), items[0].Component.(*Position).X)
	})

	t.Run("tuple", func(t *testing.T) {
		rows := storage.QueryAll(positionType, velocityType)
		require.Len(t, rows, 1)
		assert.Equal(t, ecs.EntityId(2), rows[0].Entity)
		require.Len(t, rows[0].Components, 2)
		assert.IsType(t, &Position{}, rows[0].Components[0])
		assert.IsType(t, &Velocity{}, rows[0].Components[1])
	})

	t.Run("tuple order follows argument order", func(t *testing.T) {
		rows := storage.QueryAll(velocityType, positionType)
		require.Len(t, rows, 1)
		assert.IsType(t, &Velocity{}, rows[0].Components[0])
		assert.IsType(t, &Position{}, rows[0].Components[1])
	})

	t.Run("unknown type", func(t *testing.T) {
		assert.NotNil(t, storage.Query(healthType))
		assert.Empty(t, storage.Query(healthType))
		assert.Empty(t, storage.QueryAll(positionType, healthType))
		assert.Empty(t, storage.QueryAll())
	})
}

func TestComponentsExist(t *testing.T) {
	storage := ecs.NewStorage()
	storage.Spawn(Position{})
	storage.Spawn(Velocity{})

	assert.True(t, storage.ComponentExists(positionType))
	assert.False(t, storage.ComponentExists(healthType))

	// Both types exist, but never on the same entity.
	assert.False(t, storage.ComponentsExist(positionType, velocityType))

	id := storage.Spawn(Position{}, Velocity{})
	assert.True(t, storage.ComponentsExist(positionType, velocityType))

	storage.RemoveEntity(id)
	assert.False(t, storage.ComponentsExist(positionType, velocityType))
}

func TestEntitiesAndComponentTypes(t *testing.T) {
	storage := ecs.NewStorage()
	storage.CreateEntityWithId(10)
	storage.AddComponent(10, Health{})
	storage.Spawn(Position{})
	storage.Spawn(Position{}, Velocity{})

	assert.Equal(t, []ecs.EntityId{0, 1, 10}, storage.Entities())
	assert.Equal(t, []reflect.Type{healthType, positionType, velocityType}, storage.ComponentTypes())
}

func TestClear(t *testing.T) {
	storage := ecs.NewStorage()
	storage.Spawn(Position{})
	storage.Spawn(Position{}, Velocity{})
	storage.Query(positionType)

	storage.Clear()

	assert.Equal(t, 0, storage.Len())
	assert.Equal(t, 0, storage.CachedQueries())
	assert.Empty(t, storage.Query(positionType))
	assert.Equal(t, ecs.EntityId(0), storage.CreateEntity(), "counter restarts")
}

// TestIndexRecordConsistency applies a random mix of mutations and checks
// after each one that the per-type index and the per-entity records agree.
func TestIndexRecordConsistency(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	types := []reflect.Type{positionType, velocityType, healthType, nameType}
	makers := []func() any{
		func() any { return Position{X: rng.Float32()} },
		func() any { return Velocity{DX: rng.Float32()} },
		func() any { return Health{Current: rng.IntN(100)} },
		func() any { return Name{Value: "n"} },
	}

	storage := ecs.NewStorage()
	const maxId = 64

	for step := 0; step < 2000; step++ {
		id := ecs.EntityId(rng.IntN(maxId))
		kind := rng.IntN(len(types))

		switch rng.IntN(4) {
		case 0, 1:
			storage.AddComponent(id, makers[kind]())
		case 2:
			storage.RemoveComponent(id, types[kind])
		case 3:
			storage.RemoveEntity(id)
		}

		storage.InvalidateQueries()
		for _, compType := range types {
			indexed := make(map[ecs.EntityId]bool)
			for _, item := range storage.Query(compType) {
				indexed[item.Entity] = true
				assert.Same(t, item.Component, storage.GetComponent(item.Entity, compType))
			}
			for id := ecs.EntityId(0); id < maxId; id++ {
				if indexed[id] != storage.HasComponent(id, compType) {
					t.Fatalf("step %d: index and record disagree for entity %d type %v", step, id, compType)
				}
			}
		}
	}
}
