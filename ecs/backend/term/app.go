package term

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/plus3/tickscene/ecs"
)

// Config controls the terminal loop.
type Config struct {
	// Screen is used instead of opening the real terminal when set.
	Screen tcell.Screen

	// FPS is the tick rate. Defaults to 30.
	FPS int

	// KeyHold is how many ticks a key stays down after a press. Defaults to 3.
	KeyHold int

	// QuitKey ends Run. Defaults to Ctrl-C.
	QuitKey tcell.Key

	Style  tcell.Style
	Logger *slog.Logger
}

// App owns the terminal screen and drives a Scheduler from it.
type App struct {
	scheduler *ecs.Scheduler
	screen    tcell.Screen
	keyboard  *Keyboard
	canvas    *Canvas
	config    Config
	logger    *slog.Logger
	quit      bool
}

// New initializes the screen. The caller binds actions against Keyboard and
// calls Run.
func New(scheduler *ecs.Scheduler, config Config) (*App, error) {
	if config.FPS <= 0 {
		config.FPS = 30
	}
	if config.KeyHold <= 0 {
		config.KeyHold = 3
	}
	if config.QuitKey == 0 {
		config.QuitKey = tcell.KeyCtrlC
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	screen := config.Screen
	if screen == nil {
		var err error
		screen, err = tcell.NewScreen()
		if err != nil {
			return nil, fmt.Errorf("open terminal: %w", err)
		}
	}
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("init terminal: %w", err)
	}
	screen.SetStyle(config.Style)
	screen.HideCursor()

	return &App{
		scheduler: scheduler,
		screen:    screen,
		keyboard:  NewKeyboard(config.KeyHold),
		canvas:    NewCanvas(screen),
		config:    config,
		logger:    logger,
	}, nil
}

func (a *App) Keyboard() *Keyboard { return a.keyboard }

func (a *App) Canvas() *Canvas { return a.canvas }

func (a *App) Screen() tcell.Screen { return a.screen }

// Quit ends Run after the current tick.
func (a *App) Quit() {
	a.quit = true
}

// Handle applies one tcell event. It reports false once the quit key is seen.
func (a *App) Handle(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		a.screen.Sync()
	case *tcell.EventKey:
		if ev.Key() == a.config.QuitKey {
			a.quit = true
			return false
		}
		a.keyboard.Feed(ev)
	}
	return !a.quit
}

// Step runs one tick and one draw pass, then ages the keyboard.
func (a *App) Step(dt float64) {
	a.scheduler.Once(dt)

	a.canvas.Clear()
	a.scheduler.Draw(a.canvas)
	a.screen.Show()

	a.keyboard.Advance()
}

// Close restores the terminal.
func (a *App) Close() {
	a.screen.Fini()
}

// Run pumps terminal events and steps the scheduler at the configured rate
// until ctx is done or the quit key is pressed. The screen is finalized on
// return.
func (a *App) Run(ctx context.Context) error {
	defer a.Close()

	events := make(chan tcell.Event, 32)
	done := make(chan struct{})
	defer close(done)
	go pollEvents(a.screen, events, done)

	interval := time.Second / time.Duration(a.config.FPS)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	a.logger.Debug("terminal loop started", "fps", a.config.FPS)

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if !a.Handle(ev) {
				a.logger.Debug("quit key pressed")
				return nil
			}
		case now := <-ticker.C:
			a.Step(now.Sub(last).Seconds())
			last = now
			if a.quit {
				return nil
			}
		}
	}
}

// pollEvents forwards screen events until the screen is finalized or done is
// closed. events is closed when the screen stops reporting.
func pollEvents(screen tcell.Screen, events chan<- tcell.Event, done <-chan struct{}) {
	for {
		ev := screen.PollEvent()
		if ev == nil {
			close(events)
			return
		}
		select {
		case events <- ev:
		case <-done:
			return
		}
	}
}
