package ecs_test

import (
	"fmt"

	"github.com/plus3/tickscene/ecs"
)

// ExampleQuery demonstrates using queries for repeated iteration.
// A Query reads the storage's memoized result for its component types, so
// every iteration within a pass sees the same entities. Call
// InvalidateQueries (the Scheduler does this every pass) to pick up changes.
func ExampleQuery() {
	storage := ecs.NewStorage()

	storage.Spawn(Position{X: 0, Y: 0}, Velocity{DX: 1, DY: 0})
	storage.Spawn(Position{X: 10, Y: 10}, Velocity{DX: 0, DY: 1}, Health{Current: 100, Max: 100})
	storage.Spawn(Position{X: 20, Y: 20}, Velocity{DX: -1, DY: -1})

	query := ecs.NewQuery[struct {
		*Position
		*Velocity
	}](storage)

	fmt.Println("Moving entities:")
	for item := range query.Values() {
		newX := item.Position.X + item.Velocity.DX
		newY := item.Position.Y + item.Velocity.DY
		fmt.Printf("Position (%.0f, %.0f) -> (%.0f, %.0f)\n", item.Position.X, item.Position.Y, newX, newY)
	}

	storage.Spawn(Position{X: 30, Y: 30}, Velocity{})
	fmt.Println("Before invalidation:", query.Len())
	storage.InvalidateQueries()
	fmt.Println("After invalidation:", query.Len())

	// Output:
	// Moving entities:
	// Position (0, 0) -> (1, 0)
	// Position (10, 10) -> (10, 11)
	// Position (20, 20) -> (19, 19)
	// Before invalidation: 3
	// After invalidation: 4
}
