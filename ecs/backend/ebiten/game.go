package ebiten

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/plus3/tickscene/ecs"
	debugui_ebiten "github.com/plus3/tickscene/ecs/debugui/ebiten"
)

// Config controls the window and the optional ImGui overlay.
type Config struct {
	Title  string
	Width  int
	Height int

	// Scale multiplies Width and Height for the window size. Zero means 1.
	Scale int

	// TPS is the update rate. Zero keeps Ebiten's default.
	TPS int

	// Background fills the screen before screens draw. Nil leaves it alone.
	Background color.Color

	// Imgui wraps every update in an ImGui frame and draws it on top.
	Imgui *debugui_ebiten.ImguiBackend
}

// Game adapts a Scheduler to ebiten.Game: Update runs one tick and Draw runs
// the current scene's screens with the *ebiten.Image as the draw target.
type Game struct {
	scheduler *ecs.Scheduler
	config    Config
	quit      bool
}

func NewGame(scheduler *ecs.Scheduler, config Config) *Game {
	return &Game{scheduler: scheduler, config: config}
}

// Quit stops the game loop after the current update.
func (g *Game) Quit() {
	g.quit = true
}

func (g *Game) Update() error {
	if g.quit {
		return ebiten.Termination
	}

	dt := 1.0 / float64(ebiten.TPS())
	if g.config.Imgui != nil {
		g.config.Imgui.Frame(func() { g.scheduler.Once(dt) })
	} else {
		g.scheduler.Once(dt)
	}

	if g.quit {
		return ebiten.Termination
	}
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	if g.config.Background != nil {
		screen.Fill(g.config.Background)
	}

	g.scheduler.Draw(screen)

	if g.config.Imgui != nil {
		g.config.Imgui.Overlay(screen)
	}
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	if g.config.Imgui != nil {
		g.config.Imgui.Layout(outsideWidth, outsideHeight)
	}
	if g.config.Width > 0 && g.config.Height > 0 && g.config.Imgui == nil {
		return g.config.Width, g.config.Height
	}
	return outsideWidth, outsideHeight
}

// Run opens the window and blocks until the game ends.
func (g *Game) Run() error {
	if g.config.Imgui == nil {
		if g.config.Width > 0 && g.config.Height > 0 {
			scale := max(g.config.Scale, 1)
			ebiten.SetWindowSize(g.config.Width*scale, g.config.Height*scale)
		}
		if g.config.Title != "" {
			ebiten.SetWindowTitle(g.config.Title)
		}
	}
	if g.config.TPS > 0 {
		ebiten.SetTPS(g.config.TPS)
	}
	return ebiten.RunGame(g)
}
