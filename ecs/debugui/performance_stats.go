package debugui

import (
	"fmt"
	"time"

	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/AllenDang/cimgui-go/implot"
	"github.com/plus3/tickscene/ecs"
)

func NewPerformanceStatsComponent(historyFrames int) PerformanceStatsComponent {
	return PerformanceStatsComponent{
		historyFrames: historyFrames,
		frameHistory:  make([]float32, historyFrames),
		frameIndex:    0,
		unitHistory:   make(map[string][]float32),
	}
}

// record stores one frame time and the last duration of every unit.
func (ps *PerformanceStatsComponent) record(deltaTime float32, stats *ecs.SchedulerStats) {
	ps.frameHistory[ps.frameIndex] = deltaTime * 1000.0

	if stats != nil {
		for _, unit := range stats.Systems {
			key := string(unit.Kind) + ":" + unit.Name
			history, ok := ps.unitHistory[key]
			if !ok {
				history = make([]float32, ps.historyFrames)
				ps.unitHistory[key] = history
			}
			history[ps.frameIndex] = float32(unit.LastDuration.Seconds() * 1000.0)
		}
	}

	ps.frameIndex = (ps.frameIndex + 1) % ps.historyFrames
}

func (ps *PerformanceStatsComponent) averageFrameTime() float32 {
	var avgFrameTime float32
	for _, ft := range ps.frameHistory {
		avgFrameTime += ft
	}
	return avgFrameTime / float32(ps.historyFrames)
}

func (ps *PerformanceStatsComponent) Render(storage *ecs.Storage, scheduler *ecs.Scheduler, deltaTime float32) {
	var schedStats *ecs.SchedulerStats
	if scheduler != nil {
		schedStats = scheduler.GetStats()
	}
	ps.record(deltaTime, schedStats)

	if !imgui.BeginV("Performance Stats", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return
	}

	stats := storage.CollectStats()

	imgui.Text(fmt.Sprintf("Total Entities: %d", stats.TotalEntityCount))
	imgui.Text(fmt.Sprintf("Component Types: %d", stats.ComponentTypeCount))
	imgui.Text(fmt.Sprintf("Cached Queries: %d (hits %d / misses %d)", stats.CachedQueries, stats.CacheHits, stats.CacheMisses))
	imgui.Text(fmt.Sprintf("Reflected Types: %d", globalReflectionCache.Len()))

	avgFrameTime := ps.averageFrameTime()
	if avgFrameTime > 0 {
		imgui.Text(fmt.Sprintf("Avg Frame Time: %.2f ms (%.0f FPS)", avgFrameTime, 1000.0/avgFrameTime))
	}

	imgui.Separator()
	imgui.Text("Frame Time Graph (ms)")
	imgui.PlotLinesFloatPtr("##frametime", &ps.frameHistory[0], int32(len(ps.frameHistory)))

	if imgui.TreeNodeStr("Component Details") {
		const tableFlags = imgui.TableFlagsBorders | imgui.TableFlagsRowBg
		if imgui.BeginTableV("ComponentStatsTable", 2, tableFlags, imgui.NewVec2(0, 0), 0) {
			imgui.TableSetupColumn("Component")
			imgui.TableSetupColumn("Entity Count")
			imgui.TableHeadersRow()

			for _, comp := range stats.ComponentBreakdown {
				imgui.TableNextRow()
				imgui.TableNextColumn()
				imgui.Text(comp.Name)
				imgui.TableNextColumn()
				imgui.Text(fmt.Sprintf("%d", comp.EntityCount))
			}

			imgui.EndTable()
		}
		imgui.TreePop()
	}

	if schedStats != nil && imgui.TreeNodeStr("Unit Details") {
		ps.renderUnits(schedStats)
		imgui.TreePop()
	}

	imgui.End()
}

func (ps *PerformanceStatsComponent) renderUnits(stats *ecs.SchedulerStats) {
	imgui.Text(fmt.Sprintf("Tick: %d, Executions: %d", stats.Tick, stats.TotalExecutions))

	const tableFlags = imgui.TableFlagsBorders | imgui.TableFlagsRowBg
	if imgui.BeginTableV("UnitStatsTable", 5, tableFlags, imgui.NewVec2(0, 0), 0) {
		imgui.TableSetupColumn("Unit")
		imgui.TableSetupColumn("Kind")
		imgui.TableSetupColumn("Runs")
		imgui.TableSetupColumn("Avg")
		imgui.TableSetupColumn("Max")
		imgui.TableHeadersRow()

		for _, unit := range stats.Systems {
			imgui.TableNextRow()
			imgui.TableNextColumn()
			imgui.Text(unit.Name)
			imgui.TableNextColumn()
			imgui.Text(string(unit.Kind))
			imgui.TableNextColumn()
			imgui.Text(fmt.Sprintf("%d", unit.ExecutionCount))
			imgui.TableNextColumn()
			imgui.Text(unit.AvgDuration.String())
			imgui.TableNextColumn()
			imgui.Text(unit.MaxDuration.String())
		}

		imgui.EndTable()
	}

	if implot.BeginPlotV("Unit Latency", imgui.NewVec2(-1, 200), 0) {
		implot.SetupAxesV("Frame", "Time (ms)", 0, implot.AxisFlagsAutoFit)
		for _, unit := range stats.Systems {
			key := string(unit.Kind) + ":" + unit.Name
			history := ps.unitHistory[key]
			if len(history) == 0 {
				continue
			}
			samples := make([]float32, ps.historyFrames)
			copy(samples, history[ps.frameIndex:])
			copy(samples[ps.historyFrames-ps.frameIndex:], history[:ps.frameIndex])
			implot.PlotLineFloatPtrInt(key, &samples[0], int32(len(samples)))
		}
		implot.EndPlot()
	}
}

type FrameTimer struct {
	lastFrameTime time.Time
}

func NewFrameTimer() *FrameTimer {
	return &FrameTimer{
		lastFrameTime: time.Now(),
	}
}

func (ft *FrameTimer) GetDeltaTime() float32 {
	now := time.Now()
	delta := float32(now.Sub(ft.lastFrameTime).Seconds())
	ft.lastFrameTime = now
	return delta
}
