package debugui

import (
	"github.com/plus3/tickscene/ecs"
)

// DebugUISystem renders every debug panel component found in storage. The
// panels are drawn from a deferred command so they land inside the ImGui
// frame the backend opened around Scheduler.Once.
type DebugUISystem struct {
	Scheduler *ecs.Scheduler

	Browsers   ecs.Query[struct{ *EntityBrowserComponent }]
	Inspectors ecs.Query[struct{ *ComponentInspectorComponent }]
	Scenes     ecs.Query[struct{ *SceneViewerComponent }]
	Stats      ecs.Query[struct{ *PerformanceStatsComponent }]
	Queries    ecs.Query[struct{ *QueryDebuggerComponent }]

	timer *FrameTimer
}

func (d *DebugUISystem) Process(frame *ecs.UpdateFrame) {
	if d.timer == nil {
		d.timer = NewFrameTimer()
	}
	deltaTime := d.timer.GetDeltaTime()
	storage := frame.Storage

	var browsers []*EntityBrowserComponent
	for item := range d.Browsers.Values() {
		browsers = append(browsers, item.EntityBrowserComponent)
	}
	var inspectors []*ComponentInspectorComponent
	for item := range d.Inspectors.Values() {
		inspectors = append(inspectors, item.ComponentInspectorComponent)
	}
	var scenes []*SceneViewerComponent
	for item := range d.Scenes.Values() {
		scenes = append(scenes, item.SceneViewerComponent)
	}
	var stats []*PerformanceStatsComponent
	for item := range d.Stats.Values() {
		stats = append(stats, item.PerformanceStatsComponent)
	}
	var queries []*QueryDebuggerComponent
	for item := range d.Queries.Values() {
		queries = append(queries, item.QueryDebuggerComponent)
	}

	frame.Commands.Defer(func() {
		var selected ecs.EntityId
		var hasSelection bool
		for _, browser := range browsers {
			browser.Render(storage)
			if id, ok := browser.GetSelectedEntity(); ok {
				selected, hasSelection = id, true
			}
		}
		for _, inspector := range inspectors {
			inspector.Render(storage, selected, hasSelection)
		}
		if d.Scheduler != nil {
			for _, viewer := range scenes {
				viewer.Render(d.Scheduler)
			}
		}
		for _, panel := range stats {
			panel.Render(storage, d.Scheduler, deltaTime)
		}
		for _, debugger := range queries {
			debugger.Render(storage)
		}
	})
}
