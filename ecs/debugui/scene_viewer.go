package debugui

import (
	"fmt"
	"reflect"

	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/plus3/tickscene/ecs"
)

// SceneInfo is a read-only summary of one scene.
type SceneInfo struct {
	Name        string
	Current     bool
	Next        bool
	Prev        bool
	Transitions []string
	Events      []EventInfo
	Systems     []string
	Screens     []string
}

type EventInfo struct {
	Name  string
	Armed bool
}

func NewSceneViewerComponent() SceneViewerComponent {
	return SceneViewerComponent{}
}

func (sv *SceneViewerComponent) Render(scheduler *ecs.Scheduler) {
	if !imgui.BeginV("Scene Viewer", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return
	}

	scenes := describeScenes(scheduler)
	if len(scenes) == 0 {
		imgui.Text("No scenes declared")
		imgui.End()
		return
	}

	const tableFlags = imgui.TableFlagsBorders | imgui.TableFlagsRowBg
	if imgui.BeginTableV("SceneTable", 5, tableFlags, imgui.NewVec2(0, 0), 0) {
		imgui.TableSetupColumn("Scene")
		imgui.TableSetupColumn("State")
		imgui.TableSetupColumn("Systems")
		imgui.TableSetupColumn("Screens")
		imgui.TableSetupColumn("Events")
		imgui.TableHeadersRow()

		for _, info := range scenes {
			imgui.TableNextRow()

			imgui.TableNextColumn()
			if imgui.SelectableBoolV(info.Name, sv.selectedScene == info.Name, imgui.SelectableFlagsSpanAllColumns, imgui.NewVec2(0, 0)) {
				sv.selectedScene = info.Name
			}

			imgui.TableNextColumn()
			switch {
			case info.Current:
				imgui.TextColored(imgui.NewVec4(0.0, 1.0, 0.0, 1.0), "current")
			case info.Next:
				imgui.TextColored(imgui.NewVec4(1.0, 0.8, 0.0, 1.0), "next")
			case info.Prev:
				imgui.Text("prev")
			default:
				imgui.Text("")
			}

			imgui.TableNextColumn()
			imgui.Text(fmt.Sprintf("%d", len(info.Systems)))
			imgui.TableNextColumn()
			imgui.Text(fmt.Sprintf("%d", len(info.Screens)))
			imgui.TableNextColumn()
			imgui.Text(fmt.Sprintf("%d", len(info.Events)))
		}

		imgui.EndTable()
	}

	for _, info := range scenes {
		if info.Name != sv.selectedScene {
			continue
		}

		imgui.Separator()
		if imgui.Button("Switch To") {
			_ = scheduler.Scenes().SetNext(info.Name)
		}

		if imgui.TreeNodeStr("Transitions") {
			for _, target := range info.Transitions {
				imgui.BulletText("-> " + target)
			}
			imgui.TreePop()
		}
		if imgui.TreeNodeStr("Systems") {
			for _, name := range info.Systems {
				imgui.BulletText(name)
			}
			imgui.TreePop()
		}
		if imgui.TreeNodeStr("Screens") {
			for _, name := range info.Screens {
				imgui.BulletText(name)
			}
			imgui.TreePop()
		}
		if imgui.TreeNodeStr("Events") {
			for _, ev := range info.Events {
				imgui.BulletText(fmt.Sprintf("%s armed=%v", ev.Name, ev.Armed))
			}
			imgui.TreePop()
		}
	}

	imgui.End()
}

func describeScenes(scheduler *ecs.Scheduler) []SceneInfo {
	machine := scheduler.Scenes()
	current, hasCurrent := machine.Current()
	next, hasNext := machine.Next()
	prev, hasPrev := machine.Prev()

	names := machine.Scenes()
	scenes := make([]SceneInfo, 0, len(names))
	for _, name := range names {
		info := SceneInfo{
			Name:    name,
			Current: hasCurrent && current == name,
			Next:    hasNext && next == name,
			Prev:    hasPrev && prev == name,
		}
		for _, tr := range machine.Transitions(name) {
			info.Transitions = append(info.Transitions, tr.Target)
		}
		for _, ev := range machine.Events(name) {
			info.Events = append(info.Events, EventInfo{Name: typeName(ev.Type), Armed: ev.Armed})
		}
		for _, sys := range scheduler.Systems(name) {
			info.Systems = append(info.Systems, typeName(reflect.TypeOf(sys)))
		}
		for _, screen := range scheduler.Screens(name) {
			info.Screens = append(info.Screens, typeName(reflect.TypeOf(screen)))
		}
		scenes = append(scenes, info)
	}
	return scenes
}

func typeName(t reflect.Type) string {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Name() != "" {
		return t.Name()
	}
	return t.String()
}
