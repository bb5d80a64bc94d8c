package ecs

import (
	"log/slog"

	"github.com/plus3/tickscene/ecs/action"
	"github.com/plus3/tickscene/ecs/scene"
)

// UpdateFrame is handed to systems and events during Scheduler.Once.
type UpdateFrame struct {
	Tick      uint64
	DeltaTime float64
	Actions   action.Snapshot
	Commands  *Commands
	Storage   *Storage
	Scenes    *scene.Machine
	Logger    *slog.Logger
}

// DrawFrame is handed to screens during Scheduler.Draw. Target is whatever
// the render backend passed in, such as an *ebiten.Image.
type DrawFrame struct {
	Target  any
	Actions action.Snapshot
	Storage *Storage
	Scenes  *scene.Machine
}

// TargetAs returns the frame target as T.
func TargetAs[T any](frame *DrawFrame) (T, bool) {
	target, ok := frame.Target.(T)
	return target, ok
}
