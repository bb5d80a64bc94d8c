package debugui

import "github.com/plus3/tickscene/ecs"

// SpawnDebugUI spawns the debug panels and an input-state holder.
func SpawnDebugUI(storage *ecs.Storage) {
	storage.Spawn(NewEntityBrowserComponent(100))
	storage.Spawn(NewComponentInspectorComponent())
	storage.Spawn(NewSceneViewerComponent())
	storage.Spawn(NewPerformanceStatsComponent(120))
	storage.Spawn(NewQueryDebuggerComponent())
	storage.Spawn(ImguiInputState{})
}

// Register adds the ImGui systems to every scene of the scheduler and spawns
// the debug panels. Call it after the scenes have been declared.
func Register(scheduler *ecs.Scheduler, priority int) {
	SpawnDebugUI(scheduler.Storage())
	scheduler.AddSystem(&DebugUISystem{Scheduler: scheduler}, priority)
	scheduler.AddSystem(&ImguiSystem{}, priority+1)
}
