package ecs_test

import (
	"context"
	"fmt"
	"time"

	"github.com/plus3/tickscene/ecs"
	"github.com/plus3/tickscene/ecs/action"
)

type Transform struct {
	X, Y float32
}

type Speed struct {
	DX, DY float32
}

type Hitpoints struct {
	Current, Max int
}

type PhysicsSystem struct {
	Entities ecs.Query[struct {
		*Transform
		*Speed
	}]
}

func (s *PhysicsSystem) Process(frame *ecs.UpdateFrame) {
	for entity := range s.Entities.Values() {
		entity.Transform.X += entity.Speed.DX * float32(frame.DeltaTime)
		entity.Transform.Y += entity.Speed.DY * float32(frame.DeltaTime)
	}
}

type HealingSystem struct {
	Entities  ecs.Query[struct{ *Hitpoints }]
	RegenRate float32
}

func (s *HealingSystem) Process(frame *ecs.UpdateFrame) {
	for entity := range s.Entities.Values() {
		if entity.Hitpoints.Current < entity.Hitpoints.Max {
			entity.Hitpoints.Current += int(s.RegenRate * float32(frame.DeltaTime))
			if entity.Hitpoints.Current > entity.Hitpoints.Max {
				entity.Hitpoints.Current = entity.Hitpoints.Max
			}
		}
	}
}

// ExampleScheduler demonstrates building a game loop with multiple systems.
// The Scheduler initializes Query fields on registration and runs the
// systems bound to the current scene in ascending priority.
func ExampleScheduler() {
	storage := ecs.NewStorage()

	storage.Spawn(
		Transform{X: 0, Y: 0},
		Speed{DX: 10, DY: 5},
		Hitpoints{Current: 80, Max: 100},
	)
	storage.Spawn(
		Transform{X: 100, Y: 100},
		Speed{DX: -5, DY: -5},
		Hitpoints{Current: 50, Max: 100},
	)

	scheduler := ecs.NewScheduler(storage)
	scheduler.AddScenes("game")
	_ = scheduler.Scenes().SetCurrent("game")
	scheduler.AddSystem(&HealingSystem{RegenRate: 10}, 1)
	scheduler.AddSystem(&PhysicsSystem{}, 0)

	scheduler.Once(1.0)

	view := ecs.NewView[struct {
		*Transform
		*Hitpoints
	}](storage)

	fmt.Println("After one frame:")
	for item := range view.Values() {
		fmt.Printf("Position: (%.0f, %.0f), Health: %d/%d\n",
			item.Transform.X, item.Transform.Y,
			item.Hitpoints.Current, item.Hitpoints.Max)
	}

	// Output:
	// After one frame:
	// Position: (10, 5), Health: 90/100
	// Position: (95, 95), Health: 60/100
}

// ExampleScheduler_Run demonstrates running a continuous game loop.
// Run blocks and executes ticks at a fixed interval until the context is
// cancelled.
func ExampleScheduler_Run() {
	storage := ecs.NewStorage()
	storage.Spawn(Transform{X: 0, Y: 0}, Speed{DX: 1, DY: 1})

	scheduler := ecs.NewScheduler(storage)
	scheduler.AddScenes("game")
	_ = scheduler.Scenes().SetCurrent("game")
	scheduler.AddSystem(&PhysicsSystem{}, 0)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	scheduler.Run(ctx, 16*time.Millisecond)

	fmt.Println("Scheduler stopped")
	// Output:
	// Scheduler stopped
}

type RestartEvent struct{}

func (RestartEvent) Effect(frame *ecs.UpdateFrame) {
	frame.Storage.Clear()
	fmt.Println("world cleared")
}

// ExampleScheduler_scenes wires scenes, a transition driven by an action and a
// restart event. The transition is checked after the systems of a tick; the
// event runs on the tick its trigger holds in the current scene.
func ExampleScheduler_scenes() {
	storage := ecs.NewStorage()
	scheduler := ecs.NewScheduler(storage)

	pressed := map[action.Code]bool{}
	actions, err := action.NewMap(action.Binding{
		Name:      "start",
		Predicate: func(code action.Code) bool { return pressed[code] },
		Codes:     []action.Code{1, 2},
	})
	if err != nil {
		panic(err)
	}
	scheduler.SetActions(actions)

	scheduler.AddScenes("launch", "game")
	scheduler.AddTransition("launch", "game", func() bool {
		return scheduler.Actions().Active("start")
	})
	scheduler.AddEvent(RestartEvent{}, func() bool {
		return scheduler.Actions().Active("start")
	}, 0, "game")
	scheduler.AddSystem(ecs.SystemFunc(func(frame *ecs.UpdateFrame) {
		current, _ := frame.Scenes.Current()
		fmt.Printf("tick %d in %s\n", frame.Tick, current)
	}), 0)
	_ = scheduler.Scenes().SetCurrent("launch")

	scheduler.Once(0)
	pressed[2] = true
	scheduler.Once(0)
	scheduler.Once(0)
	pressed[2] = false
	scheduler.Once(0)

	// Output:
	// tick 1 in launch
	// tick 2 in launch
	// tick 3 in game
	// world cleared
	// tick 4 in game
}
