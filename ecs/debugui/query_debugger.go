package debugui

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/plus3/tickscene/ecs"
)

type QueryDebuggerCache struct {
	componentTypes []reflect.Type
	lastTypeCount  int
}

func NewQueryDebuggerComponent() QueryDebuggerComponent {
	return QueryDebuggerComponent{
		selectedComponentTypes: make(map[string]bool),
		cache: &QueryDebuggerCache{
			lastTypeCount: -1,
		},
	}
}

func (qd *QueryDebuggerComponent) Render(storage *ecs.Storage) {
	if !imgui.BeginV("Query Debugger", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return
	}

	qd.rebuildCacheIfNeeded(storage)

	imgui.Text("Select Component Types:")
	imgui.Separator()

	if imgui.Button("Clear All") {
		qd.selectedComponentTypes = make(map[string]bool)
	}

	for _, compType := range qd.cache.componentTypes {
		name := compType.String()
		selected := qd.selectedComponentTypes[name]
		if imgui.Checkbox(name, &selected) {
			if selected {
				qd.selectedComponentTypes[name] = true
			} else {
				delete(qd.selectedComponentTypes, name)
			}
		}
	}

	imgui.Separator()

	selectedTypes := resolveTypes(qd.cache.componentTypes, qd.selectedComponentTypes)
	if len(selectedTypes) == 0 {
		imgui.Text("No component types selected")
		imgui.End()
		return
	}

	result := runQuery(storage, selectedTypes)

	imgui.Text(fmt.Sprintf("Matching Entities: %d", len(result.Entities)))
	imgui.Text(fmt.Sprintf("Components Exist: %v", result.Exists))

	if imgui.TreeNodeStr("Matching Entities") {
		const tableFlags = imgui.TableFlagsBorders | imgui.TableFlagsRowBg
		if imgui.BeginTableV("QueryResultTable", 2, tableFlags, imgui.NewVec2(0, 0), 0) {
			imgui.TableSetupColumn("Entity ID")
			imgui.TableSetupColumn("Total Components")
			imgui.TableHeadersRow()

			for _, id := range result.Entities {
				imgui.TableNextRow()

				imgui.TableSetColumnIndex(0)
				imgui.Text(fmt.Sprintf("%d", id))

				imgui.TableSetColumnIndex(1)
				record, _ := storage.GetEntity(id)
				imgui.Text(fmt.Sprintf("%d", len(record)))
			}

			imgui.EndTable()
		}
		imgui.TreePop()
	}

	imgui.End()
}

func (qd *QueryDebuggerComponent) rebuildCacheIfNeeded(storage *ecs.Storage) {
	types := storage.ComponentTypes()
	if qd.cache.lastTypeCount != len(types) {
		qd.cache.componentTypes = types
		qd.cache.lastTypeCount = len(types)
	}
}

// resolveTypes maps the selected type names back to types, sorted by name.
func resolveTypes(known []reflect.Type, selected map[string]bool) []reflect.Type {
	types := make([]reflect.Type, 0, len(selected))
	for _, t := range known {
		if selected[t.String()] {
			types = append(types, t)
		}
	}
	sort.Slice(types, func(i, j int) bool { return types[i].String() < types[j].String() })
	return types
}

type queryResult struct {
	Entities []ecs.EntityId
	Exists   bool
}

// runQuery evaluates the selection against the live index, bypassing the
// query cache so the panel never shows a stale result.
func runQuery(storage *ecs.Storage, types []reflect.Type) queryResult {
	result := queryResult{Exists: storage.ComponentsExist(types...)}
	for _, id := range storage.Entities() {
		if storage.HasComponents(id, types...) {
			result.Entities = append(result.Entities, id)
		}
	}
	return result
}
