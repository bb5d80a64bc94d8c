package main

import (
	"fmt"
	"math/rand/v2"
	"reflect"

	"github.com/plus3/tickscene/ecs"
)

type Position struct{ X, Y float32 }
type Velocity struct{ DX, DY float32 }
type Health struct{ Current, Max int }
type Lifetime struct{ Ticks int }
type Team uint8
type Marker struct{}

var markerType = reflect.TypeFor[Marker]()

// spawnRandomEntity spawns an entity with between 1 and 5 components.
func spawnRandomEntity(rng *rand.Rand, spawn func(...any)) {
	pool := []any{
		Position{X: rng.Float32() * 1000, Y: rng.Float32() * 1000},
		Velocity{DX: rng.Float32() - 0.5, DY: rng.Float32() - 0.5},
		Health{Current: rng.IntN(100), Max: 100},
		Lifetime{Ticks: 10 + rng.IntN(500)},
		Team(rng.IntN(4)),
		Marker{},
	}
	rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	spawn(pool[:1+rng.IntN(5)]...)
}

type MoveSystem struct {
	Movers ecs.Query[struct {
		*Position
		*Velocity
	}]
}

func (s *MoveSystem) Process(frame *ecs.UpdateFrame) {
	dt := float32(frame.DeltaTime)
	for m := range s.Movers.Values() {
		m.Position.X += m.Velocity.DX * dt
		m.Position.Y += m.Velocity.DY * dt
	}
}

type HealSystem struct {
	Wounded ecs.View[struct{ *Health }]
}

func (s *HealSystem) Process(frame *ecs.UpdateFrame) {
	for w := range s.Wounded.Values() {
		if w.Health.Current < w.Health.Max {
			w.Health.Current++
		}
	}
}

// ChurnSystem expires entities whose lifetime ran out and replaces each with
// a fresh random entity, keeping the population stable.
type ChurnSystem struct {
	Rand *rand.Rand

	Mortal ecs.Query[struct {
		Id ecs.EntityId
		*Lifetime
	}]
}

func (s *ChurnSystem) Process(frame *ecs.UpdateFrame) {
	for m := range s.Mortal.Values() {
		m.Lifetime.Ticks--
		if m.Lifetime.Ticks > 0 {
			continue
		}
		frame.Commands.Delete(m.Id)
		spawnRandomEntity(s.Rand, frame.Commands.Spawn)
	}
}

// RetagSystem toggles Marker on a few team members every tick.
type RetagSystem struct {
	Rand *rand.Rand

	Members ecs.Query[struct {
		Id     ecs.EntityId
		Team   *Team
		Marker *Marker `ecs:"optional"`
	}]
}

func (s *RetagSystem) Process(frame *ecs.UpdateFrame) {
	for m := range s.Members.Values() {
		if s.Rand.IntN(100) != 0 {
			continue
		}
		if m.Marker != nil {
			frame.Commands.RemoveComponent(m.Id, markerType)
		} else {
			frame.Commands.AddComponent(m.Id, Marker{})
		}
	}
}

// CensusEvent logs the population when armed.
type CensusEvent struct{}

func (CensusEvent) Effect(frame *ecs.UpdateFrame) {
	stats := frame.Storage.CollectStats()
	frame.Logger.Debug("census",
		"tick", frame.Tick,
		"entities", stats.TotalEntityCount,
		"types", stats.ComponentTypeCount,
	)
}

// setupWorkload declares scenes named scene-0 .. scene-(n-1) that cycle every
// switchEvery ticks. Each scene runs a different subset of the systems.
func setupWorkload(scheduler *ecs.Scheduler, rng *rand.Rand, sceneCount int, switchEvery uint64) {
	sceneCount = max(sceneCount, 1)
	names := make([]string, sceneCount)
	for i := range names {
		names[i] = fmt.Sprintf("scene-%d", i)
	}
	scheduler.AddScenes(names...)

	var tick uint64
	scheduler.AddSystem(ecs.SystemFunc(func(frame *ecs.UpdateFrame) {
		tick = frame.Tick
	}), -100)

	due := func(every uint64) func() bool {
		return func() bool { return every > 0 && tick%every == 0 }
	}
	for i, name := range names {
		scheduler.AddTransition(name, names[(i+1)%len(names)], due(switchEvery))
	}

	scheduler.AddSystem(&MoveSystem{}, 0)
	scheduler.AddSystem(&ChurnSystem{Rand: rng}, 10)
	for i, name := range names {
		if i%2 == 0 {
			scheduler.AddSystem(&HealSystem{}, 5, name)
		} else {
			scheduler.AddSystem(&RetagSystem{Rand: rng}, 5, name)
		}
	}
	scheduler.AddEvent(CensusEvent{}, due(60), 0)

	if err := scheduler.Scenes().SetCurrent(names[0]); err != nil {
		panic(err)
	}
}
