package ecs

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/plus3/tickscene/ecs/action"
	"github.com/plus3/tickscene/ecs/scene"
)

// UnitKind names the role a unit was registered under.
type UnitKind string

const (
	KindSystem UnitKind = "system"
	KindScreen UnitKind = "screen"
	KindEvent  UnitKind = "event"
)

// SchedulerStats provides statistics about scheduler execution.
type SchedulerStats struct {
	Tick            uint64
	SystemCount     int
	TotalExecutions int64
	Systems         []SystemStats
}

// SystemStats provides execution statistics for a single unit.
type SystemStats struct {
	Name           string
	Kind           UnitKind
	Priority       int
	Scenes         []string
	ExecutionCount int64
	MinDuration    time.Duration
	MaxDuration    time.Duration
	AvgDuration    time.Duration
	LastDuration   time.Duration
	TotalDuration  time.Duration
}

type systemStatsInternal struct {
	executionCount int64
	minDuration    time.Duration
	maxDuration    time.Duration
	totalDuration  time.Duration
	lastDuration   time.Duration
}

func (st *systemStatsInternal) record(duration time.Duration) {
	st.executionCount++
	st.lastDuration = duration
	st.totalDuration += duration

	if duration < st.minDuration {
		st.minDuration = duration
	}
	if duration > st.maxDuration {
		st.maxDuration = duration
	}
}

// unit is one registered system, screen or event. A unit registered for
// several scenes is shared between their lists.
type unit struct {
	kind     UnitKind
	value    any
	typ      reflect.Type
	name     string
	priority int
	scenes   []string
	stats    systemStatsInternal
}

type sceneUnits struct {
	systems []*unit
	screens []*unit
	events  []*unit
}

func (su *sceneUnits) list(kind UnitKind) *[]*unit {
	switch kind {
	case KindSystem:
		return &su.systems
	case KindScreen:
		return &su.screens
	default:
		return &su.events
	}
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the logger used for registration warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

// WithMachine makes the scheduler drive an existing scene machine instead of
// creating its own.
func WithMachine(machine *scene.Machine) Option {
	return func(s *Scheduler) {
		s.machine = machine
	}
}

// WithActions sets the action map evaluated at the start of every tick.
func WithActions(actions *action.Map) Option {
	return func(s *Scheduler) {
		s.actions = actions
	}
}

// Scheduler runs the systems, screens and events bound to the current scene
// of its scene machine.
type Scheduler struct {
	storage  *Storage
	machine  *scene.Machine
	actions  *action.Map
	snapshot action.Snapshot
	logger   *slog.Logger
	commands *Commands
	scenes   map[string]*sceneUnits
	units    []*unit
	tick     uint64
	warnIdle bool
}

// NewScheduler creates a new scheduler for the given storage.
func NewScheduler(storage *Storage, opts ...Option) *Scheduler {
	s := &Scheduler{
		storage:  storage,
		scenes:   make(map[string]*sceneUnits),
		warnIdle: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.machine == nil {
		s.machine = scene.NewMachine()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.commands = newCommands(s.logger)
	return s
}

// Storage returns the storage the scheduler runs against.
func (s *Scheduler) Storage() *Storage {
	return s.storage
}

// Scenes returns the scene machine.
func (s *Scheduler) Scenes() *scene.Machine {
	return s.machine
}

// SetActions replaces the action map. A nil map yields empty snapshots.
func (s *Scheduler) SetActions(actions *action.Map) {
	s.actions = actions
}

// Actions returns the snapshot computed at the start of the latest tick.
func (s *Scheduler) Actions() action.Snapshot {
	return s.snapshot
}

// AddScenes declares scenes on the scene machine.
func (s *Scheduler) AddScenes(names ...string) {
	s.machine.AddScenes(names...)
}

// AddTransition registers a transition, logging and skipping it when either
// scene is unknown.
func (s *Scheduler) AddTransition(from, to string, when scene.Predicate) {
	if err := s.machine.AddTransition(from, to, when); err != nil {
		s.logger.Warn("transition skipped", "from", from, "to", to, "error", err)
	}
}

// AddSystem binds a system to the given scenes, or to every declared scene
// when none are named. Lower priorities run first; ties keep insertion order.
func (s *Scheduler) AddSystem(system System, priority int, scenes ...string) {
	s.register(KindSystem, system, priority, scenes, nil)
}

// AddScreen binds a screen to the given scenes, or to every declared scene
// when none are named.
func (s *Scheduler) AddScreen(screen Screen, priority int, scenes ...string) {
	s.register(KindScreen, screen, priority, scenes, nil)
}

// AddEvent binds an event to the given scenes, or to every declared scene
// when none are named. The trigger is installed on each scene's machine
// state and arms the event whenever it returns true while that scene is
// current.
func (s *Scheduler) AddEvent(event Event, trigger scene.Predicate, priority int, scenes ...string) {
	key := reflect.TypeOf(event)
	s.register(KindEvent, event, priority, scenes, func(name string) error {
		return s.machine.AddEvent(name, key, trigger)
	})
}

func (s *Scheduler) register(kind UnitKind, value any, priority int, scenes []string, bind func(string) error) {
	u := &unit{
		kind:     kind,
		value:    value,
		typ:      reflect.TypeOf(value),
		name:     unitName(value),
		priority: priority,
		stats:    systemStatsInternal{minDuration: time.Duration(1<<63 - 1)},
	}

	for _, name := range s.targets(kind, u.name, scenes) {
		if bind != nil {
			if err := bind(name); err != nil {
				s.logger.Warn("event skipped", "event", u.name, "scene", name, "error", err)
				continue
			}
		}
		lists := s.sceneUnits(name)
		list := lists.list(kind)
		*list = append(*list, u)
		slices.SortStableFunc(*list, func(a, b *unit) int {
			return cmp.Compare(a.priority, b.priority)
		})
		u.scenes = append(u.scenes, name)
	}

	if len(u.scenes) == 0 {
		return
	}
	s.initializeQueries(value)
	s.units = append(s.units, u)
}

// targets resolves the scenes a registration applies to, warning about and
// dropping unknown names.
func (s *Scheduler) targets(kind UnitKind, name string, scenes []string) []string {
	if len(scenes) == 0 {
		all := s.machine.Scenes()
		if len(all) == 0 {
			s.logger.Warn("no scenes declared", "kind", kind, "unit", name)
		}
		return all
	}

	known := make([]string, 0, len(scenes))
	for _, sc := range scenes {
		if !s.machine.Has(sc) {
			s.logger.Warn("scene not found", "kind", kind, "unit", name, "scene", sc,
				"error", fmt.Errorf("%w: %q", scene.ErrUnknownScene, sc))
			continue
		}
		if !slices.Contains(known, sc) {
			known = append(known, sc)
		}
	}
	return known
}

func (s *Scheduler) sceneUnits(name string) *sceneUnits {
	lists, ok := s.scenes[name]
	if !ok {
		lists = &sceneUnits{}
		s.scenes[name] = lists
	}
	return lists
}

func unitName(value any) string {
	t := reflect.TypeOf(value)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Name() != "" {
		return t.Name()
	}
	return t.String()
}

func (s *Scheduler) initializeQueries(value any) {
	unitValue := reflect.ValueOf(value)
	if unitValue.Kind() != reflect.Ptr {
		return
	}
	unitValue = unitValue.Elem()

	if unitValue.Kind() != reflect.Struct {
		return
	}

	unitType := unitValue.Type()

	for i := 0; i < unitValue.NumField(); i++ {
		field := unitValue.Field(i)
		fieldType := unitType.Field(i)

		if !field.CanSet() {
			continue
		}

		if field.Kind() != reflect.Struct {
			continue
		}

		typeName := field.Type().Name()

		if strings.HasPrefix(typeName, "Query[") || strings.HasPrefix(typeName, "View[") {
			initMethod := field.Addr().MethodByName("Init")
			if !initMethod.IsValid() {
				panic("Init method not found on field: " + fieldType.Name)
			}

			initMethod.Call([]reflect.Value{
				reflect.ValueOf(s.storage),
			})
		}
	}
}

// RemoveSystems unbinds every system of the given type from the named
// scenes, or from all scenes when none are named.
func (s *Scheduler) RemoveSystems(systemType reflect.Type, scenes ...string) {
	s.remove(KindSystem, systemType, scenes)
}

// RemoveScreens unbinds every screen of the given type.
func (s *Scheduler) RemoveScreens(screenType reflect.Type, scenes ...string) {
	s.remove(KindScreen, screenType, scenes)
}

// RemoveEvents unbinds every event of the given type and drops its trigger
// from the scene machine.
func (s *Scheduler) RemoveEvents(eventType reflect.Type, scenes ...string) {
	s.remove(KindEvent, eventType, scenes)
}

// RemoveSystem unbinds every system of type T.
func RemoveSystem[T System](s *Scheduler, scenes ...string) {
	s.RemoveSystems(reflect.TypeFor[T](), scenes...)
}

// RemoveScreen unbinds every screen of type T.
func RemoveScreen[T Screen](s *Scheduler, scenes ...string) {
	s.RemoveScreens(reflect.TypeFor[T](), scenes...)
}

// RemoveEvent unbinds every event of type T.
func RemoveEvent[T Event](s *Scheduler, scenes ...string) {
	s.RemoveEvents(reflect.TypeFor[T](), scenes...)
}

// remove warns for every named scene that had nothing of typ bound. When no
// scene is named it warns only if typ was bound nowhere.
func (s *Scheduler) remove(kind UnitKind, typ reflect.Type, scenes []string) {
	removed := 0
	for _, name := range s.targets(kind, typ.String(), scenes) {
		n := 0
		if lists, ok := s.scenes[name]; ok {
			list := lists.list(kind)
			before := len(*list)
			*list = slices.DeleteFunc(*list, func(u *unit) bool {
				if u.typ != typ {
					return false
				}
				u.scenes = slices.DeleteFunc(u.scenes, func(sc string) bool { return sc == name })
				return true
			})
			n = before - len(*list)
		}
		if kind == KindEvent {
			s.machine.RemoveEvent(name, typ)
		}
		if n == 0 && len(scenes) > 0 {
			s.logger.Warn("nothing to remove", "kind", kind, "unit", typ.String(), "scene", name)
		}
		removed += n
	}
	if removed == 0 && len(scenes) == 0 {
		s.logger.Warn("nothing to remove", "kind", kind, "unit", typ.String())
	}

	s.units = slices.DeleteFunc(s.units, func(u *unit) bool {
		return len(u.scenes) == 0
	})
}

// Systems returns the systems bound to a scene in execution order.
func (s *Scheduler) Systems(name string) []System {
	return unitValues[System](s.scenes[name], KindSystem)
}

// Screens returns the screens bound to a scene in draw order.
func (s *Scheduler) Screens(name string) []Screen {
	return unitValues[Screen](s.scenes[name], KindScreen)
}

// Events returns the events bound to a scene in execution order.
func (s *Scheduler) Events(name string) []Event {
	return unitValues[Event](s.scenes[name], KindEvent)
}

func unitValues[T any](lists *sceneUnits, kind UnitKind) []T {
	if lists == nil {
		return nil
	}
	list := *lists.list(kind)
	values := make([]T, len(list))
	for i, u := range list {
		values[i] = u.value.(T)
	}
	return values
}

func (s *Scheduler) currentUnits() *sceneUnits {
	current, ok := s.machine.Current()
	if !ok {
		if s.warnIdle {
			s.logger.Warn("no current scene set")
			s.warnIdle = false
		}
		return nil
	}
	return s.scenes[current]
}

// Once runs a single tick: the action snapshot is recomputed, the current
// scene's systems run, the scene machine is processed, the armed events of
// the resulting current scene run, and queued commands are flushed.
func (s *Scheduler) Once(dt float64) {
	s.tick++
	s.storage.InvalidateQueries()

	if s.actions != nil {
		s.snapshot = s.actions.Evaluate()
	} else {
		s.snapshot = action.Snapshot{}
	}

	frame := &UpdateFrame{
		Tick:      s.tick,
		DeltaTime: dt,
		Actions:   s.snapshot,
		Commands:  s.commands,
		Storage:   s.storage,
		Scenes:    s.machine,
		Logger:    s.logger,
	}

	if lists := s.currentUnits(); lists != nil {
		for _, u := range lists.systems {
			system := u.value.(System)
			s.timed(u, func() { system.Process(frame) })
		}
	}

	s.machine.Process()

	if current, ok := s.machine.Current(); ok {
		if lists := s.scenes[current]; lists != nil {
			for _, u := range lists.events {
				if !s.machine.Armed(current, u.typ) {
					continue
				}
				event := u.value.(Event)
				s.timed(u, func() { event.Effect(frame) })
				s.machine.Consume(current, u.typ)
			}
		}
	}

	s.commands.Flush(s.storage)
}

// Draw runs the current scene's screens against target.
func (s *Scheduler) Draw(target any) {
	s.storage.InvalidateQueries()

	lists := s.currentUnits()
	if lists == nil {
		return
	}

	frame := &DrawFrame{
		Target:  target,
		Actions: s.snapshot,
		Storage: s.storage,
		Scenes:  s.machine,
	}
	for _, u := range lists.screens {
		screen := u.value.(Screen)
		s.timed(u, func() { screen.Draw(frame) })
	}
}

func (s *Scheduler) timed(u *unit, fn func()) {
	start := time.Now()
	fn()
	u.stats.record(time.Since(start))
}

// Run executes ticks repeatedly at the given interval until the context is cancelled.
func (s *Scheduler) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	lastTime := time.Now()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			dt := now.Sub(lastTime).Seconds()
			lastTime = now
			s.Once(dt)
		}
	}
}

// GetStats returns statistics about unit execution, in registration order.
func (s *Scheduler) GetStats() *SchedulerStats {
	stats := &SchedulerStats{
		Tick:        s.tick,
		SystemCount: len(s.units),
		Systems:     make([]SystemStats, len(s.units)),
	}

	var totalExecs int64
	for i, u := range s.units {
		internal := u.stats
		avgDuration := time.Duration(0)
		minDuration := time.Duration(0)
		if internal.executionCount > 0 {
			avgDuration = internal.totalDuration / time.Duration(internal.executionCount)
			minDuration = internal.minDuration
		}

		stats.Systems[i] = SystemStats{
			Name:           u.name,
			Kind:           u.kind,
			Priority:       u.priority,
			Scenes:         slices.Clone(u.scenes),
			ExecutionCount: internal.executionCount,
			MinDuration:    minDuration,
			MaxDuration:    internal.maxDuration,
			AvgDuration:    avgDuration,
			LastDuration:   internal.lastDuration,
			TotalDuration:  internal.totalDuration,
		}
		totalExecs += internal.executionCount
	}

	stats.TotalExecutions = totalExecs
	return stats
}
