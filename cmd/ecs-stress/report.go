package main

import (
	"fmt"
	"io"
	"runtime"
	"slices"
	"strings"
	"text/template"
	"time"

	"github.com/google/uuid"
	"github.com/plus3/tickscene/ecs"
)

// Report collects the configuration and results of one stress run.
type Report struct {
	RunID       uuid.UUID
	Seed        uint64
	Duration    time.Duration
	Entities    int
	Scenes      int
	SwitchEvery uint64

	TotalUpdates   int64
	TotalTime      time.Duration
	UpdateTime     Stats
	GCPauseMetrics bool
	MemStatsStart  runtime.MemStats
	MemStatsEnd    runtime.MemStats
	Scheduler      *ecs.SchedulerStats
	Storage        *ecs.StorageStats
}

// Stats summarizes per-update durations.
type Stats struct {
	Min, Max, Avg time.Duration
	P50, P99      time.Duration
	Samples       []time.Duration
}

// Finalize computes the summary. Samples are left sorted.
func (s *Stats) Finalize() {
	n := len(s.Samples)
	if n == 0 {
		return
	}

	slices.Sort(s.Samples)
	s.Min = s.Samples[0]
	s.Max = s.Samples[n-1]
	s.P50 = s.Samples[n/2]
	s.P99 = s.Samples[min(n-1, n*99/100)]

	var total time.Duration
	for _, sample := range s.Samples {
		total += sample
	}
	s.Avg = total / time.Duration(n)
}

// UpdatesPerSecond is the achieved tick rate.
func (r *Report) UpdatesPerSecond() float64 {
	if r.TotalTime <= 0 {
		return 0
	}
	return float64(r.TotalUpdates) / r.TotalTime.Seconds()
}

const reportTemplate = `
# ECS Stress Test Report

## Configuration
- **Run ID:** {{.RunID}}
- **Seed:** {{.Seed}}
- **Run Duration:** {{.Duration}}
- **Initial Entities:** {{.Entities}}
- **Scenes:** {{.Scenes}} (switch every {{.SwitchEvery}} ticks)

## Updates
- **Total:** {{.TotalUpdates}} in {{.TotalTime}} ({{printf "%.1f" .UpdatesPerSecond}}/s)
- **Avg / P50 / P99:** {{.UpdateTime.Avg}} / {{.UpdateTime.P50}} / {{.UpdateTime.P99}}
- **Min / Max:** {{.UpdateTime.Min}} / {{.UpdateTime.Max}}
{{with .Scheduler}}
## Units ({{.SystemCount}} registered, {{.TotalExecutions}} executions over {{.Tick}} ticks)
| Unit | Kind | Scenes | Runs | Avg | Max |
|---|---|---|---|---|---|
{{range .Systems}}| {{.Name}} | {{.Kind}} | {{join .Scenes}} | {{.ExecutionCount}} | {{.AvgDuration}} | {{.MaxDuration}} |
{{end}}{{end}}
{{with .Storage}}
## Storage
- **Entities:** {{.TotalEntityCount}}
- **Component Types:** {{.ComponentTypeCount}}
- **Query Cache:** {{.CacheHits}} hits / {{.CacheMisses}} misses, {{.CachedQueries}} cached
{{range .ComponentBreakdown}}  - {{.Name}}: {{.EntityCount}}
{{end}}{{end}}
## Memory (MB)
- Heap Alloc:  {{mb .MemStatsStart.HeapAlloc}} -> {{mb .MemStatsEnd.HeapAlloc}}
- Total Alloc: {{mb .MemStatsStart.TotalAlloc}} -> {{mb .MemStatsEnd.TotalAlloc}}
- Sys:         {{mb .MemStatsStart.Sys}} -> {{mb .MemStatsEnd.Sys}}
- GC Cycles:   {{usub .MemStatsEnd.NumGC .MemStatsStart.NumGC}}
{{if .GCPauseMetrics}}
## GC Pauses
- **Total Pause:** {{ns (bsub .MemStatsEnd.PauseTotalNs .MemStatsStart.PauseTotalNs)}}
{{end}}`

var reportFuncs = template.FuncMap{
	"mb": func(v uint64) string {
		return fmt.Sprintf("%.2f", float64(v)/1024/1024)
	},
	"bsub": func(a, b uint64) uint64 {
		return a - b
	},
	"usub": func(a, b uint32) uint32 {
		return a - b
	},
	"ns": func(ns uint64) string {
		return time.Duration(ns).String()
	},
	"join": func(parts []string) string {
		return strings.Join(parts, ",")
	},
}

// Generate renders the report as markdown.
func (r *Report) Generate(w io.Writer) error {
	tmpl, err := template.New("report").Funcs(reportFuncs).Parse(reportTemplate)
	if err != nil {
		return err
	}
	return tmpl.Execute(w, r)
}
