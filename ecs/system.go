package ecs

// System is a per-tick logic unit bound to one or more scenes. It can
// declare Query and View fields, which the Scheduler initialises on
// registration, and keep its own state between ticks.
type System interface {
	Process(frame *UpdateFrame)
}

// Screen is a render unit bound to one or more scenes. Screens should only
// read the storage.
type Screen interface {
	Draw(frame *DrawFrame)
}

// Event is a one-shot logic unit. The Scheduler calls Effect only on ticks
// where the event's trigger armed it in the current scene, and disarms it
// afterwards.
type Event interface {
	Effect(frame *UpdateFrame)
}

// SystemFunc adapts a function to the System interface.
type SystemFunc func(frame *UpdateFrame)

func (f SystemFunc) Process(frame *UpdateFrame) { f(frame) }

// ScreenFunc adapts a function to the Screen interface.
type ScreenFunc func(frame *DrawFrame)

func (f ScreenFunc) Draw(frame *DrawFrame) { f(frame) }
