package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"math/rand/v2"
	"os"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/profile"
	"github.com/plus3/tickscene/ecs"
)

func main() {
	duration := flag.Duration("duration", 10*time.Second, "The total duration the test should run for.")
	entityCount := flag.Int("entities", 10000, "The initial number of entities to create.")
	sceneCount := flag.Int("scenes", 4, "Number of scenes the workload cycles through.")
	switchEvery := flag.Uint64("switch-every", 120, "Ticks between scene transitions (0 disables them).")
	seed := flag.Uint64("seed", 0, "Random seed (0 picks one).")
	gcPauseMetrics := flag.Bool("gc-pause-metrics", false, "Enable detailed GC pause metrics in the report.")
	profileMode := flag.String("profile", "", "Write a profile to the current directory: cpu, mem or trace.")
	verbose := flag.Bool("v", false, "Log scheduler debug output.")
	flag.Parse()

	switch *profileMode {
	case "":
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	case "mem":
		defer profile.Start(profile.MemProfileAllocs, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	case "trace":
		defer profile.Start(profile.TraceProfile, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	default:
		log.Fatalf("unknown profile mode %q", *profileMode)
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if *seed == 0 {
		*seed = rand.Uint64()
	}
	rng := rand.New(rand.NewPCG(*seed, *seed))

	runID := uuid.New()
	logger.Info("starting ECS stress test", "run", runID, "seed", *seed)

	// 1. Setup Storage and Scheduler
	storage := ecs.NewStorage()
	scheduler := ecs.NewScheduler(storage, ecs.WithLogger(logger))
	setupWorkload(scheduler, rng, *sceneCount, *switchEvery)

	// 2. Populate Storage with initial entities
	logger.Info("populating storage", "entities", *entityCount)
	for i := 0; i < *entityCount; i++ {
		spawnRandomEntity(rng, func(components ...any) { storage.Spawn(components...) })
	}

	// 3. Run the simulation loop
	report := &Report{
		RunID:          runID,
		Seed:           *seed,
		Duration:       *duration,
		Entities:       *entityCount,
		Scenes:         *sceneCount,
		SwitchEvery:    *switchEvery,
		GCPauseMetrics: *gcPauseMetrics,
		UpdateTime: Stats{
			Samples: make([]time.Duration, 0),
		},
	}

	runtime.ReadMemStats(&report.MemStatsStart)

	logger.Info("running simulation", "duration", *duration)
	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()

	startTime := time.Now()
	var totalUpdates int64
	lastFrameTime := time.Now()

Loop:
	for {
		select {
		case <-ctx.Done():
			break Loop
		default:
			deltaTime := time.Since(lastFrameTime)
			lastFrameTime = time.Now()

			updateStart := time.Now()
			scheduler.Once(deltaTime.Seconds())
			updateDuration := time.Since(updateStart)

			report.UpdateTime.Samples = append(report.UpdateTime.Samples, updateDuration)
			totalUpdates++
		}
	}

	report.TotalTime = time.Since(startTime)
	report.TotalUpdates = totalUpdates
	report.UpdateTime.Finalize()
	report.Scheduler = scheduler.GetStats()
	report.Storage = storage.CollectStats()
	runtime.ReadMemStats(&report.MemStatsEnd)

	logger.Info("simulation finished", "updates", totalUpdates)

	// 4. Generate Report to Console
	fmt.Println("\n\n--- Stress Test Report ---")
	if err := report.Generate(os.Stdout); err != nil {
		log.Fatalf("Failed to generate report: %v", err)
	}
	fmt.Println("--- End of Report ---")
}
