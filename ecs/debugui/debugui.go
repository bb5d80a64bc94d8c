// Package debugui provides immediate-mode GUI integration for ECS applications using Dear ImGui.
// It manages ImGui rendering and input state through ECS components and systems.
package debugui

import (
	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/plus3/tickscene/ecs"
)

// ImguiItem is a component that holds a Dear ImGui render function.
// Attach this to entities that should render ImGui widgets each frame.
type ImguiItem struct {
	Render func()
}

// ImguiInputState tracks Dear ImGui's input capture state.
// Spawn one entity holding it; ImguiSystem refreshes it every tick and game
// systems read it to ignore input the UI has already consumed.
type ImguiInputState struct {
	WantCaptureMouse    bool
	WantCaptureKeyboard bool
}

// ImguiSystem queries all ImguiItem components and defers their render functions.
// It also updates every ImguiInputState component with the current capture state.
type ImguiSystem struct {
	Items      ecs.Query[struct{ *ImguiItem }]
	InputState ecs.Query[struct{ *ImguiInputState }]
}

// Process updates input state and queues all ImGui render functions for execution.
func (i *ImguiSystem) Process(frame *ecs.UpdateFrame) {
	io := imgui.CurrentIO()
	for item := range i.InputState.Values() {
		item.ImguiInputState.WantCaptureMouse = io.WantCaptureMouse()
		item.ImguiInputState.WantCaptureKeyboard = io.WantCaptureKeyboard()
	}

	for item := range i.Items.Values() {
		if item.ImguiItem.Render != nil {
			frame.Commands.Defer(item.ImguiItem.Render)
		}
	}
}
